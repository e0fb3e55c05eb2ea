package vocabulary

import (
	"context"
	"sort"
	"sync"
	"time"
)

// TrackedWord is a word seen in recognized text that is not in the base dictionary.
type TrackedWord struct {
	Word       string     `json:"word"`
	Frequency  int        `json:"frequency"`
	Approved   bool       `json:"is_approved"`
	FirstSeen  time.Time  `json:"first_seen"`
	LastSeen   time.Time  `json:"last_seen"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

// Store persists tracked words. Implementations must make TrackWords atomic
// per word so concurrent workers never lose an increment or approve twice.
type Store interface {
	// TrackWords increments every word once and returns the words whose
	// frequency reached threshold in this call.
	TrackWords(ctx context.Context, words []string, threshold int, now time.Time) ([]string, error)
	ApprovedWords(ctx context.Context) ([]string, error)
	// ListWords returns approved or pending words, most frequent first.
	// limit <= 0 means no limit.
	ListWords(ctx context.Context, approved bool, limit int) ([]TrackedWord, error)
	Approve(ctx context.Context, word string, now time.Time) (bool, error)
	Reject(ctx context.Context, word string) (bool, error)
	Counts(ctx context.Context) (total, approved int, err error)
	// ImportWords merges entries; with replace the store is emptied first.
	ImportWords(ctx context.Context, entries []Entry, replace bool, now time.Time) (int, error)
}

// MemoryStore is a Store kept in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	words map[string]*TrackedWord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{words: make(map[string]*TrackedWord)}
}

func (m *MemoryStore) TrackWords(_ context.Context, words []string, threshold int, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var approved []string
	for _, w := range words {
		tw, ok := m.words[w]
		if !ok {
			tw = &TrackedWord{Word: w, FirstSeen: now}
			m.words[w] = tw
		}
		tw.Frequency++
		tw.LastSeen = now
		if !tw.Approved && tw.Frequency >= threshold {
			at := now
			tw.Approved = true
			tw.ApprovedAt = &at
			approved = append(approved, w)
		}
	}
	return approved, nil
}

func (m *MemoryStore) ApprovedWords(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for w, tw := range m.words {
		if tw.Approved {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ListWords(_ context.Context, approved bool, limit int) ([]TrackedWord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []TrackedWord
	for _, tw := range m.words {
		if tw.Approved == approved {
			out = append(out, *tw)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Approve(_ context.Context, word string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tw, ok := m.words[word]
	if !ok || tw.Approved {
		return false, nil
	}
	at := now
	tw.Approved = true
	tw.ApprovedAt = &at
	return true, nil
}

func (m *MemoryStore) Reject(_ context.Context, word string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.words[word]; !ok {
		return false, nil
	}
	delete(m.words, word)
	return true, nil
}

func (m *MemoryStore) Counts(_ context.Context) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	approved := 0
	for _, tw := range m.words {
		if tw.Approved {
			approved++
		}
	}
	return len(m.words), approved, nil
}

func (m *MemoryStore) ImportWords(_ context.Context, entries []Entry, replace bool, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if replace {
		m.words = make(map[string]*TrackedWord)
	}

	imported := 0
	for _, e := range entries {
		tw, ok := m.words[e.Word]
		if !ok {
			tw = &TrackedWord{Word: e.Word, Frequency: e.Frequency, FirstSeen: now, LastSeen: now}
			if e.Approved {
				at := now
				tw.Approved = true
				tw.ApprovedAt = &at
			}
			m.words[e.Word] = tw
			imported++
			continue
		}
		if e.Frequency > tw.Frequency {
			tw.Frequency = e.Frequency
		}
		tw.LastSeen = now
		if e.Approved && !tw.Approved {
			at := now
			tw.Approved = true
			tw.ApprovedAt = &at
		}
		imported++
	}
	return imported, nil
}
