package correction

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const months = `januari|februari|pebruari|maret|april|mei|juni|juli|agustus|september|oktober|november|nopember|desember`

// numberRule is one repair of the currency/number stage. Rules run top to
// bottom; text rewritten by an earlier rule is frozen for later ones.
type numberRule struct {
	name    string
	re      *regexp2.Regexp
	rewrite func(m *regexp2.Match) string
}

func mustRule(name, pattern string, rewrite func(m *regexp2.Match) string) numberRule {
	re := regexp2.MustCompile(pattern, regexp2.None)
	re.MatchTimeout = 250 * time.Millisecond
	return numberRule{name: name, re: re, rewrite: rewrite}
}

func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

var digitConfusions = strings.NewReplacer(
	"l", "1", "I", "1",
	"O", "0", "o", "0",
	"z", "2", "Z", "2",
	"S", "5", "s", "5",
	"b", "6",
)

var yearConfusions = strings.NewReplacer("g", "9", "l", "1", "O", "0", "o", "0")

var numberRules = []numberRule{
	// Rp.277.-- / RPy 1.5OO / Ru.25 -> Rp 277,- / Rp 1.500 / Rp 25
	mustRule("currency",
		`(?<![\p{L}\p{N}])(?:[Rr][Pp][Yy]?|[Rr][Uu])\.?\s*(?=[0-9lOoIzZsSb.,]*\d)((?:[0-9lOoIzZsSb]+[.,])*[0-9lOoIzZsSb]+)(\s*[-.,]+\s*-+)?`,
		func(m *regexp2.Match) string {
			out := "Rp " + digitConfusions.Replace(group(m, 1))
			if group(m, 2) != "" {
				out += ",-"
			}
			return out
		}),

	// ..277 where the currency marker was lost to noise
	mustRule("currency-recovery",
		`(?<![^\s])[.:]+(\d+(?:[.,]\d+)*)(?=\s|$|[-.,])`,
		func(m *regexp2.Match) string {
			return "Rp " + group(m, 1)
		}),

	// Maret 971 -> Maret 1971
	mustRule("year-three-digit",
		`(?<=\b(?i:`+months+`)\s*[,.]*\s*)[98]\d{2}(?!\d)`,
		func(m *regexp2.Match) string {
			return "1" + m.String()
		}),

	// Maret 97l -> Maret 1971
	mustRule("year-three-digit-letter",
		`(?<=\b(?i:`+months+`)\s*[,.]*\s*)([98]\d)[lI1](?![\dlI])`,
		func(m *regexp2.Match) string {
			return "1" + group(m, 1) + "1"
		}),

	// ll Maret -> 11 Maret
	mustRule("day-eleven",
		`\b[lI]{2}(?=\s+(?i:`+months+`)\b)`,
		func(*regexp2.Match) string { return "11" }),

	// Maret 19 71 -> Maret 1971
	mustRule("year-split",
		`(?<=\b(?i:`+months+`)\s*[,.]*\s*)(19|20)\s+(\d{2})(?!\d)`,
		func(m *regexp2.Match) string {
			return group(m, 1) + group(m, 2)
		}),

	// 1g63 -> 1963, 196l -> 1961
	mustRule("year-letters-19",
		`\b1[9g][0-9lOog]{2}\b`,
		func(m *regexp2.Match) string {
			return yearConfusions.Replace(m.String())
		}),

	mustRule("year-letters-20",
		`\b20[0-9lOo]{2}\b`,
		func(m *regexp2.Match) string {
			return yearConfusions.Replace(m.String())
		}),

	// Plh / P1h / Plb -> puluh
	mustRule("puluh",
		`\b[Pp][lI1][hbn]\b`,
		func(*regexp2.Match) string { return "puluh" }),

	// soratus / s0ratus -> seratus
	mustRule("seratus",
		`\b(?i:s[o0a]ratus)\b`,
		func(*regexp2.Match) string { return "seratus" }),

	// kelima ribu -> lima ribu
	mustRule("kelima",
		`\b(?i:ke\s*lima)\s+((?i:ribu|ratus))\b`,
		func(m *regexp2.Match) string {
			return "lima " + group(m, 1)
		}),
}

type numberEdit struct {
	start, end int
	repl       []rune
}

// NormalizeNumbers applies the currency and number repairs and returns the
// number of rewritten spans.
func NormalizeNumbers(text string) (string, int) {
	return applyNumberRules(text, numberRules)
}

func applyNumberRules(text string, rules []numberRule) (string, int) {
	if text == "" {
		return text, 0
	}

	runes := []rune(text)
	frozen := make([]bool, len(runes))
	fixes := 0

	for _, rule := range rules {
		edits := findEdits(rule, string(runes), frozen)
		if len(edits) == 0 {
			continue
		}

		nextRunes := make([]rune, 0, len(runes))
		nextFrozen := make([]bool, 0, len(runes))
		pos := 0
		for _, e := range edits {
			nextRunes = append(nextRunes, runes[pos:e.start]...)
			nextFrozen = append(nextFrozen, frozen[pos:e.start]...)
			nextRunes = append(nextRunes, e.repl...)
			for range e.repl {
				nextFrozen = append(nextFrozen, true)
			}
			pos = e.end
		}
		nextRunes = append(nextRunes, runes[pos:]...)
		nextFrozen = append(nextFrozen, frozen[pos:]...)

		runes, frozen = nextRunes, nextFrozen
		fixes += len(edits)
	}

	return string(runes), fixes
}

// findEdits collects non-overlapping matches that touch no frozen rune and
// whose rewrite differs from the matched text. A match timeout ends the
// scan for this rule and keeps the edits found so far.
func findEdits(rule numberRule, text string, frozen []bool) []numberEdit {
	var edits []numberEdit
	m, err := rule.re.FindStringMatch(text)
	for m != nil && err == nil {
		start, end := m.Index, m.Index+m.Length
		if m.Length > 0 && !anyFrozen(frozen[start:end]) {
			if repl := rule.rewrite(m); repl != m.String() {
				edits = append(edits, numberEdit{start: start, end: end, repl: []rune(repl)})
			}
		}
		m, err = rule.re.FindNextMatch(m)
	}
	return edits
}

func anyFrozen(span []bool) bool {
	for _, f := range span {
		if f {
			return true
		}
	}
	return false
}
