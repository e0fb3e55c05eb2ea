package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
)

// Page is one decoded page. Index is the stable 0-based ordering key.
type Page struct {
	Index int
	Image image.Image
}

// Decoder turns documents into pages.
type Decoder struct {
	Rasterizer   Rasterizer
	DPI          int
	MaxDimension int
}

// Decode returns the document's pages in order.
func (d *Decoder) Decode(ctx context.Context, doc *Document) ([]Page, error) {
	if len(doc.Data) == 0 {
		return nil, apperrors.NewUnsupportedInputError(doc.ID, apperrors.ErrorFileEmpty, "file is empty", nil)
	}

	var images []image.Image
	switch doc.Kind {
	case KindPDF:
		if d.Rasterizer == nil {
			return nil, apperrors.NewUnsupportedInputError(doc.ID, apperrors.ErrorPDFConversion,
				"no PDF rasterizer configured", nil)
		}
		rendered, err := d.Rasterizer.Rasterize(ctx, doc.Data, d.DPI)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, apperrors.NewUnsupportedInputError(doc.ID, apperrors.ErrorPDFConversion,
				"failed to convert PDF to images", err)
		}
		if len(rendered) == 0 {
			return nil, apperrors.NewUnsupportedInputError(doc.ID, apperrors.ErrorPDFConversion,
				"PDF contains no pages", nil)
		}
		images = rendered
	default:
		img, _, err := image.Decode(bytes.NewReader(doc.Data))
		if err != nil {
			return nil, apperrors.NewUnsupportedInputError(doc.ID, apperrors.ErrorFileCorrupted,
				"image could not be decoded", err)
		}
		images = []image.Image{img}
	}

	pages := make([]Page, len(images))
	for i, img := range images {
		pages[i] = Page{Index: i, Image: d.fit(img)}
	}
	return pages, nil
}

// fit shrinks img so neither side exceeds MaxDimension.
func (d *Decoder) fit(img image.Image) image.Image {
	if d.MaxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= d.MaxDimension && b.Dy() <= d.MaxDimension {
		return img
	}
	return imaging.Fit(img, d.MaxDimension, d.MaxDimension, imaging.Lanczos)
}

// DecodeConfig reads only the image header. It is used to reject corrupt
// uploads before queueing them.
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("unrecognized image data: %w", err)
	}
	return cfg, format, nil
}
