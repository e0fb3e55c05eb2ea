/**
 * Quality scoring of recognized text
 *
 * overall = confidence*wc + dictionaryMatch*wd + correctionRate*wr, truncated
 * to an integer in [0,100].
 */

package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/adverant/nexus/ocr-worker/internal/correction"
)

// DefaultConfidence is used when the engine reported no confidences.
const DefaultConfidence = 75.0

var scoredWord = regexp.MustCompile(`[a-zA-Z]{3,}`)

// Label buckets the overall score.
type Label string

const (
	Excellent Label = "Excellent"
	Good      Label = "Good"
	Fair      Label = "Fair"
	Poor      Label = "Poor"
)

func LabelFor(score int) Label {
	switch {
	case score >= 85:
		return Excellent
	case score >= 70:
		return Good
	case score >= 50:
		return Fair
	default:
		return Poor
	}
}

// Weights of the three components. They must sum to 1.
type Weights struct {
	Confidence float64
	Dictionary float64
	Correction float64
}

var DefaultWeights = Weights{Confidence: 0.40, Dictionary: 0.30, Correction: 0.30}

func (w Weights) Validate() error {
	if w.Confidence < 0 || w.Dictionary < 0 || w.Correction < 0 {
		return fmt.Errorf("weights must not be negative")
	}
	if sum := w.Confidence + w.Dictionary + w.Correction; math.Abs(sum-1) > 0.001 {
		return fmt.Errorf("weights must sum to 1, got %.3f", sum)
	}
	return nil
}

// Result is the score of one document.
type Result struct {
	Overall         int     `json:"overall"`
	Label           Label   `json:"label"`
	Confidence      float64 `json:"confidence"`
	DictionaryMatch float64 `json:"dictionary_match"`
	CorrectionRate  float64 `json:"correction_rate"`
	TotalWords      int     `json:"total_words"`
	MatchedWords    int     `json:"matched_words"`
	CorrectedWords  int     `json:"corrected_words"`
}

type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer; zero weights select DefaultWeights.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights
	}
	return &Scorer{weights: w}
}

// Score rates text given the engine confidences, the number of corrections
// made and the dictionary the text was checked against.
func (s *Scorer) Score(text string, confidences []float64, corrections int, dict correction.Dictionary) Result {
	words := scoredWord.FindAllString(strings.ToLower(text), -1)

	conf := confidenceScore(confidences)
	match, matched := dictionaryMatch(words, dict)
	rate := correctionRate(len(words), corrections)

	overall := int(conf*s.weights.Confidence + match*s.weights.Dictionary + rate*s.weights.Correction)
	overall = min(100, max(0, overall))

	return Result{
		Overall:         overall,
		Label:           LabelFor(overall),
		Confidence:      round1(conf),
		DictionaryMatch: round1(match),
		CorrectionRate:  round1(rate),
		TotalWords:      len(words),
		MatchedWords:    matched,
		CorrectedWords:  corrections,
	}
}

// confidenceScore averages the confidences; a mean at or below 1 is taken
// as a fraction and scaled to percent.
func confidenceScore(confidences []float64) float64 {
	if len(confidences) == 0 {
		return DefaultConfidence
	}
	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	avg := sum / float64(len(confidences))
	if avg <= 1.0 {
		avg *= 100
	}
	return math.Min(100, math.Max(0, avg))
}

func dictionaryMatch(words []string, dict correction.Dictionary) (float64, int) {
	if len(words) == 0 {
		return 100, 0
	}
	matched := 0
	if dict != nil {
		for _, w := range words {
			if dict.Contains(w) {
				matched++
			}
		}
	}
	return float64(matched) / float64(len(words)) * 100, matched
}

func correctionRate(total, corrected int) float64 {
	if total == 0 {
		return 100
	}
	return math.Max(0, 100-float64(corrected)/float64(total)*100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
