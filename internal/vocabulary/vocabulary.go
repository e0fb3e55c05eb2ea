/**
 * Learned vocabulary
 *
 * Unknown words are tracked per document and promoted to the dictionary once
 * they have been seen often enough. Correction reads an immutable snapshot;
 * the snapshot only changes when a caller invokes Refresh.
 */

package vocabulary

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/correction"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
	"github.com/adverant/nexus/ocr-worker/internal/metrics"
)

const (
	// DefaultThreshold is the frequency at which a word is approved.
	DefaultThreshold = 5

	minTrackLength = 3
	maxWordLength  = 50
)

var unknownPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

// Notifier tells other workers that the approved set changed.
type Notifier interface {
	VocabularyChanged(ctx context.Context, reason string) error
}

// Snapshot is an immutable view of the dictionary: the base words plus every
// approved word at the time it was built. Correction rule outputs are known
// but are not fuzzy candidates.
type Snapshot struct {
	dict     *correction.WordSet
	approved *correction.WordSet
	LoadedAt time.Time
}

func (s *Snapshot) Contains(word string) bool { return s.dict.Contains(word) }

func (s *Snapshot) Words() []string { return s.dict.Words() }

// Approved returns the approved words in lexicographic order.
func (s *Snapshot) Approved() []string { return s.approved.Words() }

// Option configures a Vocabulary.
type Option func(*Vocabulary)

func WithThreshold(n int) Option {
	return func(v *Vocabulary) {
		if n > 0 {
			v.threshold = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(v *Vocabulary) { v.notifier = n }
}

// WithAudit records management operations on sink under the given actor.
func WithAudit(sink audit.Sink, actor string) Option {
	return func(v *Vocabulary) {
		v.audit = sink
		v.actor = actor
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(v *Vocabulary) { v.logger = l }
}

func withClock(now func() time.Time) Option {
	return func(v *Vocabulary) { v.now = now }
}

// Vocabulary serves the live dictionary and records unknown words.
type Vocabulary struct {
	store     Store
	base      []string
	threshold int
	notifier  Notifier
	audit     audit.Sink
	actor     string
	logger    *logging.Logger
	now       func() time.Time

	refreshMu sync.Mutex
	snap      atomic.Pointer[Snapshot]
}

// New builds a Vocabulary over store with the given base words. The first
// snapshot holds only the base words; call Refresh to load approved words.
func New(store Store, base []string, opts ...Option) *Vocabulary {
	v := &Vocabulary{
		store:     store,
		base:      base,
		threshold: DefaultThreshold,
		logger:    logging.NewLogger("vocabulary"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.snap.Store(v.build(nil))
	return v
}

func (v *Vocabulary) build(approved []string) *Snapshot {
	return &Snapshot{
		dict:     correction.NewWordSet(v.base, approved).WithKnown(correction.KnownWords()),
		approved: correction.NewWordSet(approved),
		LoadedAt: v.now(),
	}
}

// Dictionary returns the current snapshot. It never blocks.
func (v *Vocabulary) Dictionary() *Snapshot {
	return v.snap.Load()
}

// ApprovedWords returns the approved words of the current snapshot.
func (v *Vocabulary) ApprovedWords() []string {
	return v.snap.Load().Approved()
}

// Threshold is the approval frequency.
func (v *Vocabulary) Threshold() int {
	return v.threshold
}

// Refresh reloads the approved words from the store and swaps the snapshot.
func (v *Vocabulary) Refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()

	approved, err := v.store.ApprovedWords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load approved words: %w", err)
	}
	v.snap.Store(v.build(approved))
	v.logger.Debug("Vocabulary refreshed", "approved", len(approved))
	return nil
}

// UnknownWords returns the distinct lower-case alphabetic tokens of at least
// three letters that the current snapshot does not know, in first-seen order.
func (v *Vocabulary) UnknownWords(text string) []string {
	if text == "" {
		return nil
	}
	snap := v.snap.Load()
	seen := make(map[string]struct{})
	var out []string
	for _, w := range unknownPattern.FindAllString(strings.ToLower(text), -1) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if !snap.Contains(w) {
			out = append(out, w)
		}
	}
	return out
}

// Track increments the frequency of every valid word and returns how many
// crossed the approval threshold in this call. When any did, the snapshot is
// refreshed and other workers are notified.
func (v *Vocabulary) Track(ctx context.Context, words []string) (int, error) {
	valid := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if isTrackable(w) {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return 0, nil
	}

	approved, err := v.store.TrackWords(ctx, valid, v.threshold, v.now())
	if err != nil {
		return 0, fmt.Errorf("failed to track words: %w", err)
	}
	if len(approved) == 0 {
		return 0, nil
	}

	metrics.VocabularyApprovals.Add(float64(len(approved)))
	for _, w := range approved {
		v.logger.Info("Word auto-approved", "word", w, "threshold", v.threshold)
	}
	v.changed(ctx, "auto-approve")
	return len(approved), nil
}

// Approve promotes a pending word. It reports false when the word is unknown
// or already approved.
func (v *Vocabulary) Approve(ctx context.Context, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	ok, err := v.store.Approve(ctx, word, v.now())
	if err != nil {
		return false, fmt.Errorf("failed to approve %q: %w", word, err)
	}
	if ok {
		v.changed(ctx, "approve")
		v.record(ctx, audit.WordApproved, map[string]interface{}{"word": word})
	}
	return ok, nil
}

// Reject removes a word from tracking, approved or not.
func (v *Vocabulary) Reject(ctx context.Context, word string) (bool, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	ok, err := v.store.Reject(ctx, word)
	if err != nil {
		return false, fmt.Errorf("failed to reject %q: %w", word, err)
	}
	if ok {
		v.changed(ctx, "reject")
		v.record(ctx, audit.WordRejected, map[string]interface{}{"word": word})
	}
	return ok, nil
}

// Pending lists words waiting for approval, most frequent first.
func (v *Vocabulary) Pending(ctx context.Context, limit int) ([]TrackedWord, error) {
	return v.store.ListWords(ctx, false, limit)
}

// Stats summarizes the store.
type Stats struct {
	TotalTracked int `json:"total_tracked"`
	Approved     int `json:"approved"`
	Pending      int `json:"pending"`
	Threshold    int `json:"threshold"`
}

func (v *Vocabulary) Stats(ctx context.Context) (Stats, error) {
	total, approved, err := v.store.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count words: %w", err)
	}
	return Stats{
		TotalTracked: total,
		Approved:     approved,
		Pending:      total - approved,
		Threshold:    v.threshold,
	}, nil
}

// changed refreshes the local snapshot and broadcasts the change. Failures
// are logged; the store already holds the new state.
func (v *Vocabulary) changed(ctx context.Context, reason string) {
	if err := v.Refresh(ctx); err != nil {
		v.logger.Warn("Vocabulary refresh failed", "reason", reason, "error", err)
	}
	if v.notifier == nil {
		return
	}
	if err := v.notifier.VocabularyChanged(ctx, reason); err != nil {
		v.logger.Warn("Vocabulary change notification failed", "reason", reason, "error", err)
	}
}

func (v *Vocabulary) record(ctx context.Context, kind audit.AdminEventType, details map[string]interface{}) {
	if v.audit == nil {
		return
	}
	event := audit.AdminEvent{
		Type:      kind,
		Actor:     v.actor,
		Details:   details,
		Timestamp: v.now(),
	}
	if err := v.audit.RecordAdmin(ctx, event); err != nil {
		v.logger.Warn("Failed to record admin event", "event", kind, "error", err)
	}
}

func isTrackable(word string) bool {
	n := len([]rune(word))
	if n < minTrackLength || n > maxWordLength {
		return false
	}
	letters := 0
	for _, r := range word {
		switch {
		case r == '-' || r == '\'':
		case r >= '0' && r <= '9':
			return false
		case unicode.IsLetter(r):
			letters++
		default:
			return false
		}
	}
	return letters > 0
}
