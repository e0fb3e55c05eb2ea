package storage

import (
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// FingerprintDimensions is the vector size of document fingerprints.
const FingerprintDimensions = 256

// Fingerprint hashes the character trigrams of text into a unit vector of
// dims components. Letters are lower-cased and every run of non-letters and
// non-digits collapses to one space, so OCR noise in punctuation and layout
// barely moves the vector. Empty text yields the zero vector.
func Fingerprint(text string, dims int) []float32 {
	if dims <= 0 {
		dims = FingerprintDimensions
	}
	vec := make([]float32, dims)

	runes := normalizeForFingerprint(text)
	switch {
	case len(runes) == 0:
		return vec
	case len(runes) < 3:
		addGram(vec, string(runes))
	default:
		for i := 0; i+3 <= len(runes); i++ {
			addGram(vec, string(runes[i:i+3]))
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// addGram picks the bucket from the hash modulo len(vec) and the sign from
// its top bit.
func addGram(vec []float32, gram string) {
	h := xxhash.Sum64String(gram)
	bucket := h % uint64(len(vec))
	if h>>63 == 1 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

func normalizeForFingerprint(text string) []rune {
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return []rune(strings.TrimSpace(b.String()))
}
