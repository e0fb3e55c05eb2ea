package correction

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type caseStyle int

const (
	styleLower caseStyle = iota
	styleTitle
	styleUpper
)

// styleOf classifies the casing of s: upper when it has letters and none is
// lower case, title when the first rune is upper case, lower otherwise.
func styleOf(s string) caseStyle {
	hasCased, hasLower := false, false
	for _, r := range s {
		if unicode.IsUpper(r) {
			hasCased = true
		} else if unicode.IsLower(r) {
			hasCased, hasLower = true, true
		}
	}
	if hasCased && !hasLower {
		return styleUpper
	}
	first, _ := utf8.DecodeRuneInString(s)
	if unicode.IsUpper(first) {
		return styleTitle
	}
	return styleLower
}

// applyStyle recases repl. With eachWord, title style upper-cases every
// letter that follows a non-letter; otherwise only the first rune.
func applyStyle(repl string, style caseStyle, eachWord bool) string {
	switch style {
	case styleUpper:
		return strings.ToUpper(repl)
	case styleTitle:
		if eachWord {
			return titleWords(repl)
		}
		return capitalize(repl)
	default:
		return repl
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}

func titleWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
