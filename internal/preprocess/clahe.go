package preprocess

import (
	"image"
	"math"
)

// CLAHE applies contrast limited adaptive histogram equalization over a
// grid x grid tile layout with bilinear interpolation between tile mappings.
func CLAHE(src *image.Gray, grid int, clipLimit float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	tileW := (w + grid - 1) / grid
	tileH := (h + grid - 1) / grid
	if tileW < 1 {
		tileW = 1
	}
	if tileH < 1 {
		tileH = 1
	}
	tilesX := (w + tileW - 1) / tileW
	tilesY := (h + tileH - 1) / tileH

	pixel := func(x, y int) uint8 {
		return src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
	}

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[pixel(x, y)]++
				}
			}
			luts[ty*tilesX+tx] = tileMapping(&hist, (x1-x0)*(y1-y0), clipLimit)
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ty0, ty1, wy := neighbours(y, tileH, tilesY)
		for x := 0; x < w; x++ {
			tx0, tx1, wx := neighbours(x, tileW, tilesX)
			v := pixel(x, y)

			top := (1-wx)*float64(luts[ty0*tilesX+tx0][v]) + wx*float64(luts[ty0*tilesX+tx1][v])
			bottom := (1-wx)*float64(luts[ty1*tilesX+tx0][v]) + wx*float64(luts[ty1*tilesX+tx1][v])
			out.Pix[y*out.Stride+x] = clampByte((1-wy)*top + wy*bottom)
		}
	}
	return out
}

// tileMapping clips the histogram, spreads the excess evenly and returns the
// equalization lookup table.
func tileMapping(hist *[256]int, pixels int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	if pixels == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	limit := int(clipLimit * float64(pixels) / 256)
	if limit < 1 {
		limit = 1
	}

	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	step, rem := excess/256, excess%256
	for i := range hist {
		hist[i] += step
	}
	for i := 0; i < rem; i++ {
		hist[i*256/rem]++
	}

	cdf := 0
	for i := range hist {
		cdf += hist[i]
		lut[i] = clampByte(float64(cdf) * 255 / float64(pixels))
	}
	return lut
}

// neighbours returns the two tile indices whose centres surround pos and the
// weight of the second one.
func neighbours(pos, tileSize, tiles int) (int, int, float64) {
	f := (float64(pos)+0.5)/float64(tileSize) - 0.5
	i0 := int(math.Floor(f))
	weight := f - float64(i0)
	i1 := i0 + 1
	if i0 < 0 {
		i0, weight = 0, 0
	}
	if i1 > tiles-1 {
		i1 = tiles - 1
	}
	if i0 > tiles-1 {
		i0 = tiles - 1
	}
	return i0, i1, weight
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
