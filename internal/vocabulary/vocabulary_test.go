package vocabulary

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

type recordingNotifier struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNotifier) VocabularyChanged(_ context.Context, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
	return nil
}

type recordingSink struct {
	admin []audit.AdminEvent
}

func (s *recordingSink) RecordRequest(context.Context, audit.Event) error { return nil }

func (s *recordingSink) RecordAdmin(_ context.Context, e audit.AdminEvent) error {
	s.admin = append(s.admin, e)
	return nil
}

func newTestVocabulary(opts ...Option) (*Vocabulary, *MemoryStore) {
	store := NewMemoryStore()
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	opts = append([]Option{
		WithLogger(logging.NewTestLogger().Logger),
		withClock(func() time.Time { return fixed }),
	}, opts...)
	return New(store, []string{"jalan", "kramat", "jakarta"}, opts...), store
}

func TestUnknownWords(t *testing.T) {
	v, _ := newTestVocabulary()

	got := v.UnknownWords("Jalan Kramat 12, Menteng menteng di JAKARTA kebon-sirih")

	assert.Equal(t, []string{"menteng", "kebon", "sirih"}, got)
	assert.Empty(t, v.UnknownWords(""))
}

func TestTrack_PromotesOnFifthEncounter(t *testing.T) {
	notifier := &recordingNotifier{}
	v, store := newTestVocabulary(WithNotifier(notifier))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		n, err := v.Track(ctx, []string{"menteng"})
		require.NoError(t, err)
		assert.Zero(t, n, "track %d", i)
		assert.False(t, v.Dictionary().Contains("menteng"))
	}

	n, err := v.Track(ctx, []string{"menteng"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, v.Dictionary().Contains("menteng"))
	assert.Equal(t, []string{"menteng"}, v.ApprovedWords())
	assert.Equal(t, []string{"auto-approve"}, notifier.reasons)

	// approval is monotonic and counted once
	n, err = v.Track(ctx, []string{"menteng"})
	require.NoError(t, err)
	assert.Zero(t, n)

	approved, err := store.ListWords(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, 6, approved[0].Frequency)
	require.NotNil(t, approved[0].ApprovedAt)
}

func TestTrack_SkipsInvalidWords(t *testing.T) {
	v, store := newTestVocabulary()

	n, err := v.Track(context.Background(), []string{"ab", "r2d2", "a.b.c", "", "  "})
	require.NoError(t, err)
	assert.Zero(t, n)

	total, _, err := store.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTrack_ConcurrentIncrementsAreNotLost(t *testing.T) {
	v, store := newTestVocabulary()
	ctx := context.Background()

	var wg sync.WaitGroup
	approvals := make(chan int, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := v.Track(ctx, []string{"cikini"})
			assert.NoError(t, err)
			approvals <- n
		}()
	}
	wg.Wait()
	close(approvals)

	sum := 0
	for n := range approvals {
		sum += n
	}
	assert.Equal(t, 1, sum)

	words, err := store.ListWords(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, 20, words[0].Frequency)
}

func TestSnapshot_UnchangedUntilRefresh(t *testing.T) {
	v, store := newTestVocabulary()
	ctx := context.Background()

	_, err := store.ImportWords(ctx, []Entry{{Word: "menteng", Frequency: 9, Approved: true}}, false, time.Now())
	require.NoError(t, err)

	before := v.Dictionary()
	assert.False(t, before.Contains("menteng"))

	require.NoError(t, v.Refresh(ctx))
	assert.True(t, v.Dictionary().Contains("menteng"))
	assert.False(t, before.Contains("menteng"), "old snapshot must not change")
}

func TestApproveAndReject(t *testing.T) {
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	v, _ := newTestVocabulary(WithNotifier(notifier), WithAudit(sink, "cli"))
	ctx := context.Background()

	_, err := v.Track(ctx, []string{"gondangdia"})
	require.NoError(t, err)

	ok, err := v.Approve(ctx, "Gondangdia")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Dictionary().Contains("gondangdia"))

	ok, err = v.Approve(ctx, "gondangdia")
	require.NoError(t, err)
	assert.False(t, ok, "already approved")

	ok, err = v.Reject(ctx, "gondangdia")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, v.Dictionary().Contains("gondangdia"))

	ok, err = v.Reject(ctx, "gondangdia")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"approve", "reject"}, notifier.reasons)
	require.Len(t, sink.admin, 2)
	assert.Equal(t, audit.WordApproved, sink.admin[0].Type)
	assert.Equal(t, audit.WordRejected, sink.admin[1].Type)
	assert.Equal(t, "cli", sink.admin[0].Actor)
}

func TestPendingAndStats(t *testing.T) {
	v, _ := newTestVocabulary()
	ctx := context.Background()

	_, err := v.Track(ctx, []string{"menteng", "menteng", "cikini", "senen", "senen", "senen"})
	require.NoError(t, err)

	pending, err := v.Pending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "senen", pending[0].Word)
	assert.Equal(t, "menteng", pending[1].Word)

	stats, err := v.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalTracked: 3, Approved: 0, Pending: 3, Threshold: DefaultThreshold}, stats)
}

func TestImport_Modes(t *testing.T) {
	ctx := context.Background()
	entries := []Entry{
		{Word: " Menteng ", Frequency: 7, Approved: true},
		{Word: "cikini", Frequency: 0, Approved: false},
		{Word: "x", Frequency: 1, Approved: true},
		{Word: "r2d2", Frequency: 1, Approved: true},
		{Word: "senen", Frequency: 5000, Approved: false},
	}

	t.Run("merge", func(t *testing.T) {
		v, store := newTestVocabulary()
		_, err := v.Track(ctx, []string{"tanahabang"})
		require.NoError(t, err)

		res, err := v.Import(ctx, entries, ImportMerge)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 3, Rejected: 2}, res)
		assert.True(t, v.Dictionary().Contains("menteng"))

		total, approved, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, 1, approved)

		words, err := store.ListWords(ctx, false, 0)
		require.NoError(t, err)
		assert.Equal(t, "senen", words[0].Word)
		assert.Equal(t, 1000, words[0].Frequency)
	})

	t.Run("replace", func(t *testing.T) {
		v, store := newTestVocabulary()
		_, err := v.Track(ctx, []string{"tanahabang"})
		require.NoError(t, err)

		_, err = v.Import(ctx, entries, ImportReplace)
		require.NoError(t, err)

		total, _, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("approved_only", func(t *testing.T) {
		v, _ := newTestVocabulary()
		res, err := v.Import(ctx, entries, ImportApprovedOnly)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 1, Skipped: 2, Rejected: 2}, res)
	})

	t.Run("too many", func(t *testing.T) {
		v, _ := newTestVocabulary()
		_, err := v.Import(ctx, make([]Entry, MaxImportWords+1), ImportMerge)
		assert.Error(t, err)
	})

	t.Run("bad mode", func(t *testing.T) {
		v, _ := newTestVocabulary()
		_, err := v.Import(ctx, entries, ImportMode("append"))
		assert.Error(t, err)
	})
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	src, _ := newTestVocabulary(WithAudit(sink, "cli"))

	_, err := src.Import(ctx, []Entry{
		{Word: "menteng", Frequency: 6, Approved: true},
		{Word: "cikini", Frequency: 2},
	}, ImportMerge)
	require.NoError(t, err)

	exp, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", exp.Version)
	assert.Equal(t, 2, exp.TotalWords)
	assert.Equal(t, "2024-03-01T10:00:00", exp.ExportDate)

	dst, _ := newTestVocabulary()
	res, err := dst.Import(ctx, exp.Entries(), ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, []string{"menteng"}, dst.ApprovedWords())

	require.Len(t, sink.admin, 2)
	assert.Equal(t, audit.WordsImported, sink.admin[0].Type)
	assert.Equal(t, audit.WordsExported, sink.admin[1].Type)
}

func TestExportApproved_MemoryStore(t *testing.T) {
	ctx := context.Background()
	log := audit.NewMemoryLog(logging.NewTestLogger().Logger, 0)
	v, _ := newTestVocabulary(WithAudit(log, "cli"))

	empty, err := v.ExportApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalWords)
	assert.NotNil(t, empty.Words)

	_, err = v.Import(ctx, []Entry{
		{Word: "senen", Frequency: 6, Approved: true},
		{Word: "menteng", Frequency: 9, Approved: true},
		{Word: "cikini", Frequency: 2},
	}, ImportMerge)
	require.NoError(t, err)

	exp, err := v.ExportApproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.0", exp.Version)
	assert.Equal(t, "2024-03-01T10:00:00", exp.ExportDate)
	assert.Equal(t, []string{"menteng", "senen"}, exp.Words)
	assert.Equal(t, 2, exp.TotalWords)

	exports, err := log.AdminEvents(ctx, audit.WordsExported, 0, 0)
	require.NoError(t, err)
	require.Len(t, exports, 2)
	assert.Equal(t, "approved_only", exports[0].Details["export_type"])
	assert.Equal(t, 2, exports[0].Details["word_count"])
	assert.Equal(t, "cli", exports[0].Actor)
}

func TestImportWordList_MemoryStore(t *testing.T) {
	ctx := context.Background()
	log := audit.NewMemoryLog(logging.NewTestLogger().Logger, 0)

	t.Run("approve", func(t *testing.T) {
		v, store := newTestVocabulary(WithAudit(log, "cli"))
		res, err := v.ImportWordList(ctx, []string{"Menteng", "cikini", "r2d2", "x"}, true)
		require.NoError(t, err)
		assert.Equal(t, ImportResult{Imported: 2, Rejected: 2}, res)
		assert.Equal(t, []string{"cikini", "menteng"}, v.ApprovedWords())

		words, err := store.ListWords(ctx, true, 0)
		require.NoError(t, err)
		for _, w := range words {
			assert.Equal(t, wordListFrequency, w.Frequency)
		}
	})

	t.Run("pending", func(t *testing.T) {
		v, store := newTestVocabulary()
		res, err := v.ImportWordList(ctx, []string{"senen"}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Imported)
		assert.False(t, v.Dictionary().Contains("senen"))

		pending, err := store.ListWords(ctx, false, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "senen", pending[0].Word)
	})

	t.Run("too many", func(t *testing.T) {
		v, _ := newTestVocabulary()
		_, err := v.ImportWordList(ctx, make([]string, MaxImportWords+1), true)
		assert.Error(t, err)
	})

	imports, err := log.AdminEvents(ctx, audit.WordsImported, 0, 0)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, "merge", imports[0].Details["mode"])
}

func TestParseWordList(t *testing.T) {
	words, err := ParseWordList(strings.NewReader("# nama jalan\nmenteng\n\n  cikini  \r\nsenen\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"menteng", "cikini", "senen"}, words)

	words, err = ParseWordList(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestParseImportMode(t *testing.T) {
	m, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, ImportMerge, m)

	m, err = ParseImportMode("APPROVED_ONLY")
	require.NoError(t, err)
	assert.Equal(t, ImportApprovedOnly, m)

	_, err = ParseImportMode("append")
	assert.Error(t, err)
}
