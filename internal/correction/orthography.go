package correction

import (
	"regexp"
	"strings"
)

var letterRun = regexp.MustCompile(`\p{L}+`)

// foreignWords are skipped by spelling normalization: loanwords and modern
// words that happen to contain an old-spelling digraph.
var foreignWords = map[string]bool{
	"project":    true, "object": true, "subject": true, "inject": true, "reject": true, "eject": true,
	"adjacent":   true, "trajectory": true, "objective": true, "subjective": true, "projection": true,
	"adjective":  true, "conjunction": true, "injection": true, "objection": true, "rejection": true,
	"adjustment": true, "major": true, "junior": true, "senior": true, "adjunct": true,
	"penunjukan": true, "tunjuk": true, "panjang": true, "janji": true, "banjir": true, "manja": true,
}

// spellingExceptions are whole words where j becomes y; they are checked
// before any digraph.
var spellingExceptions = map[string]string{
	"jang":   "yang",
	"jangan": "jangan",
	"ja":     "ya",
	"jaitu":  "yaitu",
	"jaitoe": "yaitu",
}

// digraphs maps pre-1972 spellings to their modern form.
var digraphs = map[string]string{
	"oe": "u",
	"dj": "j",
	"tj": "c",
	"nj": "ny",
	"sj": "sy",
	"ch": "kh",
}

// NormalizeSpelling rewrites old Indonesian orthography to the modern one and
// returns the number of words changed.
func NormalizeSpelling(text string) (string, int) {
	if text == "" {
		return text, 0
	}
	changed := 0
	out := letterRun.ReplaceAllStringFunc(text, func(word string) string {
		normalized := normalizeWord(word)
		if normalized != word {
			changed++
		}
		return normalized
	})
	return out, changed
}

// normalizeWord scans left to right; a digraph is rewritten once and its
// output is never examined again, so "ndj" becomes "nj" and not "ny".
func normalizeWord(word string) string {
	lower := strings.ToLower(word)
	if foreignWords[lower] {
		return word
	}
	if repl, ok := spellingExceptions[lower]; ok {
		return applyStyle(repl, styleOf(word), false)
	}

	runes := []rune(word)
	var b strings.Builder
	b.Grow(len(word))
	for i := 0; i < len(runes); {
		if i+1 < len(runes) {
			pair := string(runes[i : i+2])
			if repl, ok := digraphs[strings.ToLower(pair)]; ok {
				b.WriteString(applyStyle(repl, styleOf(pair), false))
				i += 2
				continue
			}
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}
