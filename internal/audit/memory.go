package audit

import (
	"context"
	"sync"
	"time"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// DefaultMemoryCapacity is the number of records of each kind a MemoryLog keeps.
const DefaultMemoryCapacity = 1000

var (
	_ Sink   = (*MemoryLog)(nil)
	_ Reader = (*MemoryLog)(nil)
)

// MemoryLog keeps the most recent audit records in process memory and also
// writes them to the structured log. Older records are dropped once capacity
// is reached.
type MemoryLog struct {
	log      *LogSink
	capacity int
	now      func() time.Time

	mu       sync.Mutex
	nextID   int64
	requests []HistoryItem
	admin    []AdminEvent
}

func NewMemoryLog(logger *logging.Logger, capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLog{
		log:      NewLogSink(logger),
		capacity: capacity,
		now:      time.Now,
	}
}

func (m *MemoryLog) RecordRequest(ctx context.Context, e Event) error {
	_ = m.log.RecordRequest(ctx, e)

	created := e.Timestamp
	if created.IsZero() {
		created = m.now()
	}
	item := HistoryItem{
		RequestID:        e.RequestID,
		Filename:         e.Filename,
		FileSize:         e.FileSize,
		Pages:            e.Pages,
		Language:         e.Language,
		Engine:           e.Engine,
		ProcessingTimeMs: e.Duration.Milliseconds(),
		Success:          e.Success,
		ErrorCode:        e.ErrorCode,
		ErrorMessage:     e.ErrorMessage,
		CreatedAt:        created,
	}
	if e.Success {
		q := e.Quality
		item.Quality = &q
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	item.ID = m.nextID
	m.requests = append(m.requests, item)
	if over := len(m.requests) - m.capacity; over > 0 {
		m.requests = append(m.requests[:0:0], m.requests[over:]...)
	}
	return nil
}

func (m *MemoryLog) RecordAdmin(ctx context.Context, e AdminEvent) error {
	_ = m.log.RecordAdmin(ctx, e)
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.admin = append(m.admin, e)
	if over := len(m.admin) - m.capacity; over > 0 {
		m.admin = append(m.admin[:0:0], m.admin[over:]...)
	}
	return nil
}

func (m *MemoryLog) History(_ context.Context, limit, offset int) ([]HistoryItem, error) {
	limit = ClampLimit(limit, DefaultHistoryLimit, MaxHistoryLimit)

	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.requests, limit, offset, func(HistoryItem) bool { return true }), nil
}

func (m *MemoryLog) AdminEvents(_ context.Context, eventType AdminEventType, limit, offset int) ([]AdminEvent, error) {
	limit = ClampLimit(limit, DefaultAdminLimit, MaxAdminLimit)

	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.admin, limit, offset, func(e AdminEvent) bool {
		return eventType == "" || e.Type == eventType
	}), nil
}

// newestFirst walks items from the end, skipping offset matches and
// collecting at most limit.
func newestFirst[T any](items []T, limit, offset int, match func(T) bool) []T {
	if offset < 0 {
		offset = 0
	}
	out := make([]T, 0, limit)
	for i := len(items) - 1; i >= 0 && len(out) < limit; i-- {
		if !match(items[i]) {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		out = append(out, items[i])
	}
	return out
}
