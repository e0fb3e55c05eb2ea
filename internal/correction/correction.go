/**
 * Post-recognition text correction
 *
 * Stages run in a fixed order:
 *   A. multi-word phrase rules, longest key first
 *   B. token rules: exact phrase table, then fuzzy dictionary lookup
 *   C. old-spelling normalization (on request)
 *   D. currency and number repairs (on request)
 *
 * The case style of every rewrite comes from the text it replaces.
 * No stage fails on malformed input; the worst case is a pass-through.
 */

package correction

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultCutoff is the minimum fuzzy similarity accepted.
const DefaultCutoff = 65.0

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_'\-]+`)

// Config configures an Engine.
type Config struct {
	Cutoff float64
	Fuzzy  bool
}

// Options selects the optional stages.
type Options struct {
	NormalizeSpelling bool
	NormalizeCurrency bool
}

// Result reports the corrected text and what each stage did.
type Result struct {
	Text              string
	Corrections       int // stages A and B, plus one when stage D changed the text
	PhraseCorrections int
	WordCorrections   int
	SpellingChanges   int
	NumberFixes       int
	// Degraded is set when fuzzy matching could not run.
	Degraded bool
}

// Total is every rewrite across all stages.
func (r Result) Total() int {
	return r.PhraseCorrections + r.WordCorrections + r.SpellingChanges + r.NumberFixes
}

// CountNumberFixes is the contribution of stage D to a corrections count: a
// changed text counts once however many amounts were repaired.
func CountNumberFixes(fixes int) int {
	if fixes > 0 {
		return 1
	}
	return 0
}

type compiledRule struct {
	multiWordRule
	re *regexp.Regexp
}

// Engine holds the compiled rule tables. It is immutable and safe for
// concurrent use; the dictionary is passed per call.
type Engine struct {
	cutoff  float64
	fuzzy   bool
	multi   []compiledRule
	phrases map[string]string
}

// NewEngine compiles the built-in tables.
func NewEngine(cfg Config) *Engine {
	if cfg.Cutoff <= 0 {
		cfg.Cutoff = DefaultCutoff
	}
	return newEngine(cfg, multiWordRules, phraseCorrections)
}

func newEngine(cfg Config, rules []multiWordRule, phrases map[string]string) *Engine {
	sorted := make([]multiWordRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].key) != len(sorted[j].key) {
			return len(sorted[i].key) > len(sorted[j].key)
		}
		return sorted[i].key < sorted[j].key
	})

	compiled := make([]compiledRule, 0, len(sorted))
	for _, r := range sorted {
		compiled = append(compiled, compiledRule{multiWordRule: r, re: phrasePattern(r.key)})
	}

	return &Engine{
		cutoff:  cfg.Cutoff,
		fuzzy:   cfg.Fuzzy,
		multi:   compiled,
		phrases: phrases,
	}
}

// phrasePattern matches key case-insensitively with any whitespace run
// between its words. Word boundaries are required on sides that end in a
// word character.
func phrasePattern(key string) *regexp.Regexp {
	parts := strings.Fields(key)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := strings.Join(parts, `\s+`)
	if isWordByte(key[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(key[len(key)-1]) {
		pattern += `\b`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Correct runs stages A and B and returns the text and number of corrections.
func (e *Engine) Correct(text string, dict Dictionary) (string, int) {
	res := e.Run(text, dict, Options{})
	return res.Text, res.Corrections
}

// Run executes stage A and B, then C and D when requested.
func (e *Engine) Run(text string, dict Dictionary, opts Options) Result {
	res := Result{Text: text}
	if strings.TrimSpace(text) == "" {
		return res
	}

	fuzzy := e.fuzzy && dict != nil && len(dict.Words()) > 0
	res.Degraded = !fuzzy

	res.Text, res.PhraseCorrections = e.applyMultiWord(res.Text)
	res.Text, res.WordCorrections = e.applyTokens(res.Text, dict, fuzzy)
	res.Corrections = res.PhraseCorrections + res.WordCorrections

	if opts.NormalizeSpelling {
		res.Text, res.SpellingChanges = NormalizeSpelling(res.Text)
	}
	if opts.NormalizeCurrency {
		res.Text, res.NumberFixes = NormalizeNumbers(res.Text)
		res.Corrections += CountNumberFixes(res.NumberFixes)
	}
	return res
}

// applyMultiWord runs every phrase rule in order over the progressively
// rewritten text. Each replaced span counts once.
func (e *Engine) applyMultiWord(text string) (string, int) {
	count := 0
	for _, rule := range e.multi {
		text = rule.re.ReplaceAllStringFunc(text, func(span string) string {
			repl := applyStyle(rule.replacement, styleOf(span), true)
			if repl != span {
				count++
			}
			return repl
		})
	}
	return text, count
}

func (e *Engine) applyTokens(text string, dict Dictionary, fuzzy bool) (string, int) {
	count := 0
	out := wordPattern.ReplaceAllStringFunc(text, func(token string) string {
		corrected := e.correctToken(token, dict, fuzzy)
		if corrected != token {
			count++
		}
		return corrected
	})
	return out, count
}

// correctToken never touches tokens without letters or tokens already in
// the dictionary.
func (e *Engine) correctToken(token string, dict Dictionary, fuzzy bool) string {
	if !strings.ContainsFunc(token, unicode.IsLetter) {
		return token
	}
	lower := strings.ToLower(token)
	if dict != nil && dict.Contains(lower) {
		return token
	}
	if repl, ok := e.phrases[lower]; ok {
		return applyStyle(repl, styleOf(token), false)
	}
	if fuzzy && isValidWord(token) {
		if match, _, ok := bestMatch(lower, dict, e.cutoff); ok {
			return applyStyle(match, styleOf(token), false)
		}
	}
	return token
}
