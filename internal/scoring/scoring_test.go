package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adverant/nexus/ocr-worker/internal/correction"
)

const letter = `
DEPARTEMEN PEKERJAAN UMUM
Jalan Kramat Jakarta
Nomor 2078 tanggal 15 November 1965
Kepada Yth. Direktur
`

func TestScore_Letter(t *testing.T) {
	s := NewScorer(Weights{})

	got := s.Score(letter, []float64{0.92, 0.88, 0.95, 0.78, 0.85}, 3, correction.BaseDictionary())

	assert.Equal(t, Result{
		Overall:         87,
		Label:           Excellent,
		Confidence:      87.6,
		DictionaryMatch: 100,
		CorrectionRate:  75,
		TotalWords:      12,
		MatchedWords:    12,
		CorrectedWords:  3,
	}, got)
}

func TestScore_EmptyText(t *testing.T) {
	got := NewScorer(DefaultWeights).Score("", nil, 0, correction.BaseDictionary())

	// 75*0.4 + 100*0.3 + 100*0.3
	assert.Equal(t, 90, got.Overall)
	assert.Equal(t, Excellent, got.Label)
	assert.Equal(t, DefaultConfidence, got.Confidence)
	assert.Zero(t, got.TotalWords)
}

func TestScore_ConfidenceScale(t *testing.T) {
	s := NewScorer(DefaultWeights)
	dict := correction.BaseDictionary()

	fraction := s.Score("jalan", []float64{0.8}, 0, dict)
	percent := s.Score("jalan", []float64{80}, 0, dict)

	assert.Equal(t, 80.0, fraction.Confidence)
	assert.Equal(t, fraction, percent)
}

func TestScore_MonotonicInConfidence(t *testing.T) {
	s := NewScorer(DefaultWeights)
	dict := correction.BaseDictionary()
	text := "jalan krmat jakarta"

	prev := -1
	for c := 0.0; c <= 1.0; c += 0.05 {
		got := s.Score(text, []float64{c, c}, 1, dict)
		assert.GreaterOrEqual(t, got.Overall, prev, "confidence %.2f", c)
		prev = got.Overall
	}
}

func TestScore_CorrectionRateFloorsAtZero(t *testing.T) {
	got := NewScorer(DefaultWeights).Score("jalan", []float64{1}, 5, correction.BaseDictionary())

	assert.Equal(t, 0.0, got.CorrectionRate)
	assert.Equal(t, 70, got.Overall)
}

func TestScore_NilDictionary(t *testing.T) {
	got := NewScorer(DefaultWeights).Score("jalan kramat", []float64{1}, 0, nil)

	assert.Equal(t, 0.0, got.DictionaryMatch)
	assert.Equal(t, 70, got.Overall)
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score int
		want  Label
	}{
		{100, Excellent}, {85, Excellent}, {84, Good}, {70, Good},
		{69, Fair}, {50, Fair}, {49, Poor}, {0, Poor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelFor(tt.score), "score %d", tt.score)
	}
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultWeights.Validate())
	assert.Error(t, Weights{0.5, 0.5, 0.5}.Validate())
	assert.Error(t, Weights{1.2, -0.1, -0.1}.Validate())
}
