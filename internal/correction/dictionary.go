package correction

import (
	"sort"
	"strings"
)

// Dictionary is a read-only set of known lower-case words.
type Dictionary interface {
	Contains(word string) bool
	Words() []string
}

// WordSet is an immutable Dictionary. Words added with WithKnown are members
// but never fuzzy candidates.
type WordSet struct {
	set   map[string]struct{}
	words []string
}

// NewWordSet builds a set from lists of words. Entries are lower-cased and
// trimmed; empty entries are dropped.
func NewWordSet(lists ...[]string) *WordSet {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				set[w] = struct{}{}
			}
		}
	}
	words := make([]string, 0, len(set))
	for w := range set {
		words = append(words, w)
	}
	sort.Strings(words)
	return &WordSet{set: set, words: words}
}

// WithKnown returns a copy of s that also contains the given words. They are
// accepted as correct but never offered as fuzzy candidates.
func (s *WordSet) WithKnown(lists ...[]string) *WordSet {
	set := make(map[string]struct{}, s.Len())
	if s != nil {
		for w := range s.set {
			set[w] = struct{}{}
		}
	}
	for _, list := range lists {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				set[w] = struct{}{}
			}
		}
	}
	out := &WordSet{set: set}
	if s != nil {
		out.words = s.words
	}
	return out
}

func (s *WordSet) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.set[word]
	return ok
}

// Words returns the fuzzy candidates in lexicographic order. The slice must
// not be modified.
func (s *WordSet) Words() []string {
	if s == nil {
		return nil
	}
	return s.words
}

func (s *WordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}

// BaseWords returns the built-in fuzzy candidates: document terms and names.
func BaseWords() []string {
	words := make([]string, 0, len(documentWords)+len(personNames))
	words = append(words, documentWords...)
	words = append(words, personNames...)
	return words
}

// KnownWords returns every word produced by a correction rule. Rule outputs
// are correct by construction but too broad to serve as fuzzy targets:
// "lain-lain" would otherwise swallow "laki-laki".
func KnownWords() []string {
	return knownWords
}

// BaseDictionary is BaseWords plus KnownWords.
func BaseDictionary() *WordSet {
	return NewWordSet(BaseWords()).WithKnown(KnownWords())
}

var knownWords = replacementWords()

func replacementWords() []string {
	var words []string
	add := func(repl string) {
		for _, w := range wordPattern.FindAllString(strings.ToLower(repl), -1) {
			words = append(words, w)
		}
	}
	for _, r := range multiWordRules {
		add(r.replacement)
	}
	for _, repl := range phraseCorrections {
		add(repl)
	}
	return words
}
