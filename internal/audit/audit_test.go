package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("é", PreviewLimit+20)
	got := Preview(long)
	assert.Equal(t, PreviewLimit, len([]rune(got)))
}

func TestLogSink_RecordRequest(t *testing.T) {
	tl := logging.NewTestLogger()
	sink := NewLogSink(tl.Logger)

	require.NoError(t, sink.RecordRequest(context.Background(), Event{
		Filename: "surat.png",
		Success:  true,
		Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, sink.RecordRequest(context.Background(), Event{
		Filename:  "rusak.pdf",
		ErrorCode: "PDF_CONVERSION_ERROR",
	}))

	tl.AssertLogged(t, zapcore.InfoLevel, "Request recorded")
	tl.AssertLogged(t, zapcore.WarnLevel, "Request recorded")
}

func TestLogSink_RecordAdmin(t *testing.T) {
	tl := logging.NewTestLogger()
	sink := NewLogSink(tl.Logger)

	require.NoError(t, sink.RecordAdmin(context.Background(), AdminEvent{
		Type:    WordApproved,
		Actor:   "cli",
		Details: map[string]interface{}{"word": "kramat"},
	}))

	entries := tl.FilterMessage("Admin event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "WORD_APPROVED", entries[0].ContextMap()["event"])
}

func TestMemoryLog_HistoryNewestFirst(t *testing.T) {
	tl := logging.NewTestLogger()
	log := NewMemoryLog(tl.Logger, 3)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.png", "b.png", "c.pdf", "d.pdf"} {
		e := Event{
			Filename:  name,
			Success:   true,
			Quality:   80,
			Duration:  time.Duration(i+1) * time.Second,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if name == "c.pdf" {
			e.Success = false
			e.ErrorCode = "PDF_CONVERSION_ERROR"
		}
		require.NoError(t, log.RecordRequest(ctx, e))
	}

	items, err := log.History(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, items, 3, "oldest record dropped at capacity")
	assert.Equal(t, "d.pdf", items[0].Filename)
	assert.Equal(t, int64(4), items[0].ID)
	assert.Equal(t, int64(4000), items[0].ProcessingTimeMs)
	assert.Equal(t, "b.png", items[2].Filename)

	failed := items[1]
	assert.False(t, failed.Success)
	assert.Nil(t, failed.Quality)
	assert.Equal(t, "PDF_CONVERSION_ERROR", failed.ErrorCode)
	require.NotNil(t, items[0].Quality)
	assert.Equal(t, 80, *items[0].Quality)

	page, err := log.History(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "c.pdf", page[0].Filename)

	// still written to the structured log
	assert.Len(t, tl.FilterMessage("Request recorded").All(), 4)
}

func TestMemoryLog_AdminEventsFilter(t *testing.T) {
	log := NewMemoryLog(logging.NewTestLogger().Logger, 0)
	ctx := context.Background()

	for _, e := range []AdminEvent{
		{Type: WordApproved, Actor: "cli", Details: map[string]interface{}{"word": "kramat"}},
		{Type: WordsExported, Actor: "cli"},
		{Type: WordApproved, Actor: "cli", Details: map[string]interface{}{"word": "menteng"}},
	} {
		require.NoError(t, log.RecordAdmin(ctx, e))
	}

	all, err := log.AdminEvents(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "menteng", all[0].Details["word"])
	assert.False(t, all[0].Timestamp.IsZero())

	approved, err := log.AdminEvents(ctx, WordApproved, 10, 0)
	require.NoError(t, err)
	require.Len(t, approved, 2)
	assert.Equal(t, "kramat", approved[1].Details["word"])

	skipped, err := log.AdminEvents(ctx, WordApproved, 10, 1)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, "kramat", skipped[0].Details["word"])

	none, err := log.AdminEvents(ctx, WordRejected, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseAdminEventType(t *testing.T) {
	got, err := ParseAdminEventType(" word_approved ")
	require.NoError(t, err)
	assert.Equal(t, WordApproved, got)

	got, err = ParseAdminEventType("")
	require.NoError(t, err)
	assert.Equal(t, AdminEventType(""), got)

	_, err = ParseAdminEventType("LOGIN")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, ClampLimit(0, DefaultHistoryLimit, MaxHistoryLimit))
	assert.Equal(t, MaxHistoryLimit, ClampLimit(1000, DefaultHistoryLimit, MaxHistoryLimit))
	assert.Equal(t, 7, ClampLimit(7, DefaultHistoryLimit, MaxHistoryLimit))
}
