/**
 * Document model and decoding
 *
 * A Document is one request's payload plus its processing choices. Decode
 * turns it into ordered pages: images are decoded directly, PDFs are
 * rasterized page by page. Oversized pages are scaled down to fit the
 * configured maximum dimension.
 */

package document

import (
	"path/filepath"
	"strings"

	"github.com/adverant/nexus/ocr-worker/internal/engine"
	apperrors "github.com/adverant/nexus/ocr-worker/internal/errors"
)

// Kind is the declared payload kind.
type Kind int

const (
	KindImage Kind = iota
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "image"
}

// Paginated reports whether page markers are added to the assembled text.
func (k Kind) Paginated() bool {
	return k == KindPDF
}

// Options toggles the optional pipeline stages.
type Options struct {
	Correct           bool
	NormalizeSpelling bool
	NormalizeCurrency bool
	Score             bool
	Learn             bool
}

// DefaultOptions enables correction, scoring and learning.
func DefaultOptions() Options {
	return Options{Correct: true, Score: true, Learn: true}
}

// Document is created per request and not modified afterwards.
type Document struct {
	ID       string
	Filename string
	Data     []byte
	Kind     Kind
	Language engine.Language
	Engine   engine.Kind
	Enhance  bool
	Options  Options
}

// Size is the payload length in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.Data))
}

var allowedExtensions = map[string]Kind{
	"png":  KindImage,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"gif":  KindImage,
	"bmp":  KindImage,
	"tif":  KindImage,
	"tiff": KindImage,
	"webp": KindImage,
	"pdf":  KindPDF,
}

// AllowedExtensions lists accepted file extensions.
func AllowedExtensions() []string {
	return []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "pdf"}
}

// KindFromFilename derives the payload kind from the extension.
func KindFromFilename(filename string) (Kind, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	kind, ok := allowedExtensions[ext]
	return kind, ok
}

// ValidateUpload checks the extension and size of an incoming file.
func ValidateUpload(id, filename string, size, maxSize int64) (Kind, error) {
	kind, ok := KindFromFilename(filename)
	if !ok {
		return KindImage, apperrors.NewUnsupportedInputError(id, apperrors.ErrorFileTypeNotAllowed,
			"file type not allowed, accepted: "+strings.Join(AllowedExtensions(), ", "), nil)
	}
	if size == 0 {
		return kind, apperrors.NewUnsupportedInputError(id, apperrors.ErrorFileEmpty, "file is empty", nil)
	}
	if maxSize > 0 && size > maxSize {
		return kind, apperrors.NewUnsupportedInputError(id, apperrors.ErrorFileTooLarge,
			"file exceeds maximum size", nil).WithDetail("max_bytes", maxSize).WithDetail("size_bytes", size)
	}
	return kind, nil
}
