/**
 * Recognition engines
 *
 * Two interchangeable variants recognize a page image: ProcessEngine runs
 * the tesseract binary per call, InProcessEngine keeps a pool of libtesseract
 * clients loaded once. The variant is chosen once at startup by the Registry.
 */

package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// Kind identifies an engine variant.
type Kind int

const (
	KindAuto Kind = iota
	KindProcess
	KindInProcess
)

func (k Kind) String() string {
	switch k {
	case KindProcess:
		return "process"
	case KindInProcess:
		return "inprocess"
	default:
		return "auto"
	}
}

// ParseKind maps a selector string to a Kind. The empty string is auto.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, nil
	case "process", "tesseract", "cli":
		return KindProcess, nil
	case "inprocess", "in-process", "gosseract", "library":
		return KindInProcess, nil
	default:
		return KindAuto, fmt.Errorf("unknown engine %q", s)
	}
}

// Language is the recognition language hint.
type Language string

const (
	LanguageIndonesian Language = "id"
	LanguageEnglish    Language = "en"
	LanguageMixed      Language = "mixed"
)

// ParseLanguage validates a language hint. The empty string is mixed.
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", LanguageMixed:
		return LanguageMixed, nil
	case LanguageIndonesian:
		return LanguageIndonesian, nil
	case LanguageEnglish:
		return LanguageEnglish, nil
	default:
		return LanguageMixed, fmt.Errorf("unsupported language %q", s)
	}
}

// TesseractCode returns the traineddata name for the hint. Mixed documents
// use English because the Indonesian model is often not installed.
func (l Language) TesseractCode() string {
	if l == LanguageIndonesian {
		return "ind"
	}
	return "eng"
}

// Recognition is the output for one page. Confidences are in [0,1], one per word.
type Recognition struct {
	Text        string
	Confidences []float64
}

// Engine recognizes text in a page image. Implementations are safe for concurrent use.
type Engine interface {
	Kind() Kind
	Name() string
	Recognize(ctx context.Context, img image.Image, lang Language) (Recognition, error)
}

// encodePNG serializes a page for engines that consume encoded images.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}
	return buf.Bytes(), nil
}
