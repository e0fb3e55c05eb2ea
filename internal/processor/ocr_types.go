/**
 * OCR Types - Shared data structures for page recognition
 *
 * Used by the page scheduler and the document processor.
 */

package processor

import (
	"time"

	"github.com/adverant/nexus/ocr-worker/internal/preprocess"
)

// PageResult represents the recognition output of a single page
type PageResult struct {
	Index       int
	Text        string
	Confidences []float64 // one per word, in [0,1]
	Duration    time.Duration
	Degraded    preprocess.DegradedReason // set when the fallback pipeline was used
}

// Assembled is the document text rebuilt from its pages in index order
type Assembled struct {
	Text        string
	Confidences []float64
	Pages       int
}

// MeanConfidence returns the mean page confidence in [0,1], or 0 without data.
func (a Assembled) MeanConfidence() float64 {
	if len(a.Confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range a.Confidences {
		sum += c
	}
	return sum / float64(len(a.Confidences))
}
