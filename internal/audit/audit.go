/**
 * Audit trail for recognition requests and vocabulary management
 *
 * Every processed document and every vocabulary change is recorded. Records
 * are read back newest first through a Reader, either from the database or
 * from the bounded in-memory log used when no database is configured.
 */

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// PreviewLimit is the maximum number of runes kept from the recognized text.
const PreviewLimit = 500

// Event records one processed document, successful or not.
type Event struct {
	RequestID    string
	Filename     string
	FileSize     int64
	Pages        int
	Language     string
	Engine       string
	Duration     time.Duration
	Success      bool
	ErrorCode    string
	ErrorMessage string
	TextPreview  string
	Quality      int
	Timestamp    time.Time
}

// AdminEventType classifies a vocabulary management operation.
type AdminEventType string

const (
	WordApproved  AdminEventType = "WORD_APPROVED"
	WordRejected  AdminEventType = "WORD_REJECTED"
	WordsImported AdminEventType = "WORDS_IMPORTED"
	WordsExported AdminEventType = "WORDS_EXPORTED"
)

// AdminEvent is a sensitive operation on the learned vocabulary.
type AdminEvent struct {
	Type      AdminEventType         `json:"event_type"`
	Actor     string                 `json:"actor,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"created_at"`
}

// ParseAdminEventType accepts an event type in any case. The empty string
// selects every type.
func ParseAdminEventType(s string) (AdminEventType, error) {
	t := AdminEventType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case "", WordApproved, WordRejected, WordsImported, WordsExported:
		return t, nil
	}
	return "", fmt.Errorf("unknown audit event type %q: allowed %s, %s, %s, %s",
		s, WordApproved, WordRejected, WordsImported, WordsExported)
}

// HistoryItem is one row of the request history as it is read back.
type HistoryItem struct {
	ID               int64     `json:"id"`
	RequestID        string    `json:"request_id,omitempty"`
	Filename         string    `json:"filename"`
	FileSize         int64     `json:"file_size"`
	Pages            int       `json:"pages"`
	Language         string    `json:"language"`
	Engine           string    `json:"engine,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Success          bool      `json:"success"`
	Quality          *int      `json:"quality_score,omitempty"`
	ErrorCode        string    `json:"error_code,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Sink receives audit records.
type Sink interface {
	RecordRequest(ctx context.Context, event Event) error
	RecordAdmin(ctx context.Context, event AdminEvent) error
}

// Reader returns recorded events, newest first.
type Reader interface {
	History(ctx context.Context, limit, offset int) ([]HistoryItem, error)
	// AdminEvents filters by eventType unless it is empty.
	AdminEvents(ctx context.Context, eventType AdminEventType, limit, offset int) ([]AdminEvent, error)
}

// Read limits for history and admin event listings.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
	DefaultAdminLimit   = 100
	MaxAdminLimit       = 500
)

// ClampLimit replaces a non-positive limit with def and caps it at max.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Preview truncates text to PreviewLimit runes.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= PreviewLimit {
		return text
	}
	return string([]rune(text)[:PreviewLimit])
}

// LogSink writes audit records to the structured log. It is the sink used
// when no database is configured.
type LogSink struct {
	logger *logging.Logger
}

func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewLogger("audit")
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) RecordRequest(_ context.Context, e Event) error {
	kv := []interface{}{
		"requestId", e.RequestID,
		"filename", e.Filename,
		"fileSize", e.FileSize,
		"pages", e.Pages,
		"language", e.Language,
		"engine", e.Engine,
		"durationMs", e.Duration.Milliseconds(),
		"success", e.Success,
	}
	if e.Success {
		kv = append(kv, "quality", e.Quality, "previewLength", utf8.RuneCountInString(Preview(e.TextPreview)))
		s.logger.Info("Request recorded", kv...)
		return nil
	}
	kv = append(kv, "errorCode", e.ErrorCode, "errorMessage", e.ErrorMessage)
	s.logger.Warn("Request recorded", kv...)
	return nil
}

func (s *LogSink) RecordAdmin(_ context.Context, e AdminEvent) error {
	s.logger.Info("Admin event",
		"event", string(e.Type),
		"actor", e.Actor,
		"details", e.Details,
	)
	return nil
}
