package vocabulary

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
)

const (
	// MaxImportWords bounds a single import.
	MaxImportWords = 10000

	minImportLength   = 2
	maxImportFreq     = 1000
	exportVersion     = "1.0"
	exportPendingSize = 1000

	// wordListFrequency is the frequency given to words from a plain list.
	wordListFrequency = 5
)

var importPattern = regexp.MustCompile(`^[a-zA-Z\-']+$`)

// ImportMode selects how imported entries combine with the stored words.
type ImportMode string

const (
	ImportMerge        ImportMode = "merge"
	ImportReplace      ImportMode = "replace"
	ImportApprovedOnly ImportMode = "approved_only"
)

func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ImportMerge, ImportReplace, ImportApprovedOnly:
		return m, nil
	case "":
		return ImportMerge, nil
	default:
		return "", fmt.Errorf("invalid import mode %q: allowed merge, replace, approved_only", s)
	}
}

// Entry is one word of an import file.
type Entry struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
	Approved  bool   `json:"is_approved"`
}

// ImportResult counts what happened to the submitted entries.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Rejected int `json:"rejected"`
}

// Export is the portable form of the store; Import accepts its words.
type Export struct {
	Version    string        `json:"version"`
	ExportDate string        `json:"export_date"`
	TotalWords int           `json:"total_words"`
	Approved   []TrackedWord `json:"approved_words"`
	Pending    []TrackedWord `json:"pending_words"`
}

// Entries flattens an export into importable entries.
func (e *Export) Entries() []Entry {
	out := make([]Entry, 0, len(e.Approved)+len(e.Pending))
	for _, w := range e.Approved {
		out = append(out, Entry{Word: w.Word, Frequency: w.Frequency, Approved: true})
	}
	for _, w := range e.Pending {
		out = append(out, Entry{Word: w.Word, Frequency: w.Frequency})
	}
	return out
}

// Export returns every approved word and up to 1000 pending words.
func (v *Vocabulary) Export(ctx context.Context) (*Export, error) {
	approved, err := v.store.ListWords(ctx, true, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved words: %w", err)
	}
	pending, err := v.store.ListWords(ctx, false, exportPendingSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending words: %w", err)
	}

	v.record(ctx, audit.WordsExported, map[string]interface{}{
		"approved_count": len(approved),
		"pending_count":  len(pending),
	})

	return &Export{
		Version:    exportVersion,
		ExportDate: v.now().Format("2006-01-02T15:04:05"),
		TotalWords: len(approved) + len(pending),
		Approved:   approved,
		Pending:    pending,
	}, nil
}

// ApprovedExport is the short export form: approved words only.
type ApprovedExport struct {
	Version    string   `json:"version"`
	ExportDate string   `json:"export_date"`
	TotalWords int      `json:"total_words"`
	Words      []string `json:"words"`
}

// ExportApproved returns the approved words in lexicographic order.
func (v *Vocabulary) ExportApproved(ctx context.Context) (*ApprovedExport, error) {
	words, err := v.store.ApprovedWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved words: %w", err)
	}
	if words == nil {
		words = []string{}
	}

	v.record(ctx, audit.WordsExported, map[string]interface{}{
		"word_count":  len(words),
		"export_type": "approved_only",
	})

	return &ApprovedExport{
		Version:    exportVersion,
		ExportDate: v.now().Format("2006-01-02T15:04:05"),
		TotalWords: len(words),
		Words:      words,
	}, nil
}

// ImportWordList merges a plain list of words, each with frequency 5. With
// approve every word goes straight into the dictionary.
func (v *Vocabulary) ImportWordList(ctx context.Context, words []string, approve bool) (ImportResult, error) {
	if len(words) > MaxImportWords {
		return ImportResult{}, fmt.Errorf("too many words (%d), maximum allowed is %d", len(words), MaxImportWords)
	}
	entries := make([]Entry, len(words))
	for i, w := range words {
		entries[i] = Entry{Word: w, Frequency: wordListFrequency, Approved: approve}
	}
	return v.Import(ctx, entries, ImportMerge)
}

// ParseWordList reads one word per line. Blank lines and lines starting
// with # are ignored.
func ParseWordList(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

// Import validates entries and writes them according to mode. Invalid words
// are rejected, non-approved words are skipped in approved_only mode.
func (v *Vocabulary) Import(ctx context.Context, entries []Entry, mode ImportMode) (ImportResult, error) {
	var res ImportResult
	if len(entries) > MaxImportWords {
		return res, fmt.Errorf("too many words (%d), maximum allowed is %d", len(entries), MaxImportWords)
	}
	mode, err := ParseImportMode(string(mode))
	if err != nil {
		return res, err
	}

	valid := make([]Entry, 0, len(entries))
	for _, e := range entries {
		word, ok := normalizeImportWord(e.Word)
		if !ok {
			res.Rejected++
			continue
		}
		if mode == ImportApprovedOnly && !e.Approved {
			res.Skipped++
			continue
		}
		valid = append(valid, Entry{Word: word, Frequency: clampFrequency(e.Frequency), Approved: e.Approved})
	}

	imported, err := v.store.ImportWords(ctx, valid, mode == ImportReplace, v.now())
	if err != nil {
		return res, fmt.Errorf("failed to import words: %w", err)
	}
	res.Imported = imported
	res.Rejected += len(valid) - imported

	v.changed(ctx, "import")
	v.record(ctx, audit.WordsImported, map[string]interface{}{
		"mode":            string(mode),
		"total_submitted": len(entries),
		"imported":        res.Imported,
		"skipped":         res.Skipped,
		"rejected":        res.Rejected,
	})
	return res, nil
}

func normalizeImportWord(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if len(word) < minImportLength || len(word) > maxWordLength {
		return "", false
	}
	return word, importPattern.MatchString(word)
}

func clampFrequency(f int) int {
	if f < 1 {
		return 1
	}
	if f > maxImportFreq {
		return maxImportFreq
	}
	return f
}
