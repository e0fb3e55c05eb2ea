package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// Invert flips the polarity of a grayscale image.
func Invert(src *image.Gray) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = 255 - row[x]
		}
	}
	return out
}

// Dilate2x2 is a max filter over a 2x2 window anchored at the bottom-right
// pixel, with edge pixels replicated.
func Dilate2x2(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	at := func(x, y int) uint8 {
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := at(x, y)
			for _, v := range [3]uint8{at(x-1, y), at(x, y-1), at(x-1, y-1)} {
				if v > m {
					m = v
				}
			}
			out.Pix[y*out.Stride+x] = m
		}
	}
	return out
}

// Thicken grows dark strokes by one pixel: invert, dilate, invert back.
func Thicken(src *image.Gray) *image.Gray {
	return Invert(Dilate2x2(Invert(src)))
}

// UnsharpMask computes orig*k - blur*(k-1) with a Gaussian blur of sigma.
func UnsharpMask(src *image.Gray, sigma, k float64) *image.Gray {
	blurred := imaging.Blur(src, sigma)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			orig := float64(row[x])
			blur := float64(blurred.Pix[y*blurred.Stride+x*4])
			out.Pix[y*out.Stride+x] = clampByte(orig*k - blur*(k-1))
		}
	}
	return out
}
