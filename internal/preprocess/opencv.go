//go:build gocv

package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Backend names the enhancement implementation compiled into the binary.
const Backend = "opencv"

// enhanceOpenCV runs the enhancement pipeline on OpenCV matrices. The stages
// and parameters match the portable pipeline.
func enhanceOpenCV(src image.Image, opts Options) (*image.Gray, error) {
	if opts.Deskew {
		angle, err := estimateSkewOpenCV(src)
		if err != nil {
			return nil, err
		}
		if math.Abs(angle) >= MinSkewAngle {
			src = imaging.Rotate(src, angle, color.White)
		}
	}

	luma, err := lumaMat(src)
	if err != nil {
		return nil, err
	}
	defer luma.Close()

	clahe := gocv.NewCLAHEWithParams(opts.ClipLimit, image.Pt(opts.TileGrid, opts.TileGrid))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(luma, &enhanced)

	// thicken dark strokes: invert, dilate, invert back
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(2, 2))
	defer kernel.Close()
	gocv.BitwiseNot(enhanced, &enhanced)
	gocv.Dilate(enhanced, &enhanced, kernel)
	gocv.BitwiseNot(enhanced, &enhanced)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(enhanced, &blurred, image.Pt(0, 0), opts.BlurSigma, opts.BlurSigma, gocv.BorderDefault)

	sharp := gocv.NewMat()
	defer sharp.Close()
	gocv.AddWeighted(enhanced, opts.SharpenAmount, blurred, 1-opts.SharpenAmount, 0, &sharp)

	out := gocv.NewMat()
	defer out.Close()
	gocv.ConvertScaleAbs(sharp, &out, opts.Alpha, opts.Beta)

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}
	return toGray(img), nil
}

// lumaMat converts img to a single channel luminance matrix. Chroma is
// dropped, which neutralizes tinted paper.
func lumaMat(img image.Image) (gocv.Mat, error) {
	bgr, err := gocv.ImageToMatRGB(flatten(img))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("opencv: %w", err)
	}
	defer bgr.Close()

	ycrcb := gocv.NewMat()
	defer ycrcb.Close()
	gocv.CvtColor(bgr, &ycrcb, gocv.ColorBGRToYCrCb)

	channels := gocv.Split(ycrcb)
	for _, c := range channels[1:] {
		c.Close()
	}
	return channels[0], nil
}

// estimateSkewOpenCV returns the angle of the minimum-area rectangle around
// the Otsu foreground, with the same sign convention as EstimateSkew.
func estimateSkewOpenCV(img image.Image) (float64, error) {
	luma, err := lumaMat(img)
	if err != nil {
		return 0, err
	}
	defer luma.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(luma, &binary, 0, 255, gocv.ThresholdBinaryInv|gocv.ThresholdOtsu)
	if gocv.CountNonZero(binary) < 3 {
		return 0, nil
	}

	nonZero := gocv.NewMat()
	defer nonZero.Close()
	gocv.FindNonZero(binary, &nonZero)

	pts := gocv.NewPointVectorFromMat(nonZero)
	defer pts.Close()
	rect := gocv.MinAreaRect(pts)
	if len(rect.Points) < 2 {
		return 0, nil
	}

	a, b := rect.Points[0], rect.Points[1]
	angle := math.Atan2(float64(b.Y-a.Y), float64(b.X-a.X)) * 180 / math.Pi
	return normalizeAngle(angle), nil
}
