/**
 * Image preprocessing for recognition
 *
 * Enhance runs the full pipeline: optional deskew, chroma neutralization,
 * tile-based CLAHE, stroke thickening, unsharp mask and a final linear
 * adjustment. Binaries built with the gocv tag run it on OpenCV; otherwise,
 * or when OpenCV fails, the same stages run on image.Gray in pure Go.
 * Enhance reports a DegradedError instead of failing so the caller can
 * switch to Fallback.
 */

package preprocess

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

var errOpenCVUnavailable = errors.New("opencv backend not compiled in")

// DegradedReason explains why the full pipeline could not run.
type DegradedReason string

const (
	ReasonNone          DegradedReason = ""
	ReasonEmptyImage    DegradedReason = "empty_image"
	ReasonImageTooSmall DegradedReason = "image_too_small"
	ReasonStageFailure  DegradedReason = "stage_failure"
)

// DegradedError is returned by Enhance when only the fallback pipeline applies.
type DegradedError struct {
	Reason DegradedReason
	Detail string
}

func (e *DegradedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("preprocessing degraded: %s", e.Reason)
	}
	return fmt.Sprintf("preprocessing degraded: %s: %s", e.Reason, e.Detail)
}

// Options tunes the enhancement pipeline. Zero values take the defaults.
type Options struct {
	Deskew        bool
	TileGrid      int     // CLAHE tiles per axis
	ClipLimit     float64 // CLAHE clip limit
	BlurSigma     float64 // unsharp mask blur
	SharpenAmount float64 // unsharp mask k
	Alpha         float64 // final contrast gain
	Beta          float64 // final brightness offset
}

// DefaultOptions returns the pipeline parameters used by the worker.
func DefaultOptions() Options {
	return Options{
		TileGrid:      8,
		ClipLimit:     2.0,
		BlurSigma:     1.0,
		SharpenAmount: 1.9,
		Alpha:         1.25,
		Beta:          -20,
	}
}

// Preprocessor is stateless apart from its options and safe for concurrent use.
type Preprocessor struct {
	opts Options
}

// New creates a preprocessor, filling unset options with defaults.
func New(opts Options) *Preprocessor {
	def := DefaultOptions()
	if opts.TileGrid <= 0 {
		opts.TileGrid = def.TileGrid
	}
	if opts.ClipLimit <= 0 {
		opts.ClipLimit = def.ClipLimit
	}
	if opts.BlurSigma <= 0 {
		opts.BlurSigma = def.BlurSigma
	}
	if opts.SharpenAmount <= 0 {
		opts.SharpenAmount = def.SharpenAmount
	}
	if opts.Alpha == 0 && opts.Beta == 0 {
		opts.Alpha, opts.Beta = def.Alpha, def.Beta
	}
	return &Preprocessor{opts: opts}
}

// Options returns the effective options.
func (p *Preprocessor) Options() Options {
	return p.opts
}

// Enhance runs the full pipeline. On any error the returned image is nil and
// the error is a *DegradedError.
func (p *Preprocessor) Enhance(img image.Image) (out *image.Gray, err error) {
	if img == nil {
		return nil, &DegradedError{Reason: ReasonEmptyImage}
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, &DegradedError{Reason: ReasonEmptyImage}
	}
	if b.Dx() < p.opts.TileGrid*2 || b.Dy() < p.opts.TileGrid*2 {
		return nil, &DegradedError{
			Reason: ReasonImageTooSmall,
			Detail: fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &DegradedError{Reason: ReasonStageFailure, Detail: fmt.Sprint(r)}
		}
	}()

	if cv, cvErr := enhanceOpenCV(img, p.opts); cvErr == nil {
		return cv, nil
	}
	return p.enhancePortable(img), nil
}

// enhancePortable is the pure Go pipeline.
func (p *Preprocessor) enhancePortable(img image.Image) *image.Gray {
	var src image.Image = img
	if p.opts.Deskew {
		src, _ = Deskew(src)
	}

	gray := Neutralize(src)
	gray = CLAHE(gray, p.opts.TileGrid, p.opts.ClipLimit)
	gray = Thicken(gray)
	gray = UnsharpMask(gray, p.opts.BlurSigma, p.opts.SharpenAmount)
	return Linear(gray, p.opts.Alpha, p.opts.Beta)
}

// Apply runs Enhance and falls back to the simple pipeline when degraded.
func (p *Preprocessor) Apply(img image.Image) (*image.Gray, DegradedReason) {
	out, err := p.Enhance(img)
	if err == nil {
		return out, ReasonNone
	}
	reason := ReasonStageFailure
	var de *DegradedError
	if errors.As(err, &de) {
		reason = de.Reason
	}
	return Fallback(img), reason
}

const fallbackThreshold = 160

// Fallback is grayscale, brightness, contrast and a fixed threshold. It never fails.
func Fallback(img image.Image) *image.Gray {
	if img == nil || img.Bounds().Empty() {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}
	adjusted := imaging.Grayscale(flatten(img))
	adjusted = imaging.AdjustBrightness(adjusted, 10)
	adjusted = imaging.AdjustContrast(adjusted, 30)

	out := image.NewGray(adjusted.Bounds())
	for i := 0; i < len(out.Pix); i++ {
		if adjusted.Pix[i*4] >= fallbackThreshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// flatten composes img over white and moves its origin to (0,0).
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(-b.Min.X, -b.Min.Y), 1.0)
}

// Neutralize replaces the chroma channels with their midpoint and keeps luminance.
func Neutralize(img image.Image) *image.Gray {
	flat := flatten(img)
	out := image.NewGray(flat.Bounds())
	for i := 0; i < len(out.Pix); i++ {
		p := flat.Pix[i*4 : i*4+3]
		y, _, _ := color.RGBToYCbCr(p[0], p[1], p[2])
		r, _, _ := color.YCbCrToRGB(y, 128, 128)
		out.Pix[i] = r
	}
	return out
}

// Linear maps every pixel v to alpha*v+beta, clamped.
func Linear(gray *image.Gray, alpha, beta float64) *image.Gray {
	adjusted := imaging.AdjustFunc(gray, func(c color.NRGBA) color.NRGBA {
		v := clampByte(alpha*float64(c.R) + beta)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
	return toGray(adjusted)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
