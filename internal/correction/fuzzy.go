package correction

import (
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio is the normalized Indel similarity of a and b in [0,100]:
// 200 * LCS(a,b) / (len(a)+len(b)), measured in runes.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return float64(200*edlib.LCS(a, b)) / float64(total)
}

// bestMatch returns the dictionary word most similar to word when its score
// reaches cutoff. Ties keep the lexicographically smallest word.
func bestMatch(word string, dict Dictionary, cutoff float64) (string, float64, bool) {
	n := utf8.RuneCountInString(word)
	best, bestScore := "", -1.0

	for _, candidate := range dict.Words() {
		m := utf8.RuneCountInString(candidate)
		// the ratio can never exceed 200*min(n,m)/(n+m)
		short := n
		if m < short {
			short = m
		}
		upper := float64(200*short) / float64(n+m)
		if upper < cutoff || upper < bestScore {
			continue
		}

		score := Ratio(word, candidate)
		if score > bestScore || (score == bestScore && candidate < best) {
			best, bestScore = candidate, score
		}
	}

	if best == "" || bestScore < cutoff {
		return "", bestScore, false
	}
	return best, bestScore, true
}

// isValidWord reports whether a token may be fuzzy corrected: at least three
// runes, letters only apart from hyphens and apostrophes, at least one letter.
func isValidWord(token string) bool {
	if utf8.RuneCountInString(token) < 3 {
		return false
	}
	letters := 0
	for _, r := range token {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == '-' || r == '\'':
		default:
			return false
		}
	}
	return letters > 0
}
