package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/adverant/nexus/ocr-worker/internal/audit"
)

var (
	_ audit.Sink   = (*PostgresClient)(nil)
	_ audit.Reader = (*PostgresClient)(nil)
)

// HistoryStats aggregates the request history.
type HistoryStats struct {
	TotalRequests       int     `json:"total_requests"`
	Successful          int     `json:"successful"`
	Failed              int     `json:"failed"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
	TotalPages          int     `json:"total_pages_processed"`
}

// RecordRequest appends one row to the request history.
func (p *PostgresClient) RecordRequest(ctx context.Context, e audit.Event) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO ocr.request_history (
			request_id, filename, file_size, pages, language, engine,
			processing_time_ms, success, quality_score,
			error_code, error_message, text_preview
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''))
	`,
		e.RequestID,
		e.Filename,
		e.FileSize,
		e.Pages,
		e.Language,
		e.Engine,
		e.Duration.Milliseconds(),
		e.Success,
		sql.NullInt64{Int64: int64(e.Quality), Valid: e.Success},
		e.ErrorCode,
		e.ErrorMessage,
		audit.Preview(e.TextPreview),
	)
	if err != nil {
		return fmt.Errorf("failed to record request: %w", err)
	}
	return nil
}

// RecordAdmin appends a vocabulary management event.
func (p *PostgresClient) RecordAdmin(ctx context.Context, e audit.AdminEvent) error {
	var details []byte
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		details = sanitizeJSONForPostgres(raw)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO ocr.admin_audit (event_type, actor, details, created_at)
		VALUES ($1, NULLIF($2, ''), $3::jsonb, $4)
	`, string(e.Type), e.Actor, details, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record admin event: %w", err)
	}
	return nil
}

// HistoryStats returns request totals over the whole history.
func (p *PostgresClient) HistoryStats(ctx context.Context) (HistoryStats, error) {
	var (
		stats   HistoryStats
		avgTime sql.NullFloat64
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE success),
			COUNT(*) FILTER (WHERE NOT success),
			AVG(processing_time_ms),
			COALESCE(SUM(pages), 0)
		FROM ocr.request_history
	`).Scan(&stats.TotalRequests, &stats.Successful, &stats.Failed, &avgTime, &stats.TotalPages)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("failed to query history stats: %w", err)
	}
	if avgTime.Valid {
		stats.AvgProcessingTimeMs = math.Round(avgTime.Float64*100) / 100
	}
	return stats, nil
}

// History returns request history rows, newest first.
func (p *PostgresClient) History(ctx context.Context, limit, offset int) ([]audit.HistoryItem, error) {
	limit = audit.ClampLimit(limit, audit.DefaultHistoryLimit, audit.MaxHistoryLimit)
	if offset < 0 {
		offset = 0
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, COALESCE(request_id, ''), filename, file_size, pages, language,
			COALESCE(engine, ''), processing_time_ms, success, quality_score,
			COALESCE(error_code, ''), COALESCE(error_message, ''), created_at
		FROM ocr.request_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query request history: %w", err)
	}
	defer rows.Close()

	items := make([]audit.HistoryItem, 0, limit)
	for rows.Next() {
		var (
			item    audit.HistoryItem
			quality sql.NullInt64
		)
		if err := rows.Scan(
			&item.ID, &item.RequestID, &item.Filename, &item.FileSize, &item.Pages, &item.Language,
			&item.Engine, &item.ProcessingTimeMs, &item.Success, &quality,
			&item.ErrorCode, &item.ErrorMessage, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request history: %w", err)
		}
		if quality.Valid {
			q := int(quality.Int64)
			item.Quality = &q
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AdminEvents returns vocabulary management events, newest first.
func (p *PostgresClient) AdminEvents(ctx context.Context, eventType audit.AdminEventType, limit, offset int) ([]audit.AdminEvent, error) {
	limit = audit.ClampLimit(limit, audit.DefaultAdminLimit, audit.MaxAdminLimit)
	if offset < 0 {
		offset = 0
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT event_type, COALESCE(actor, ''), details, created_at
		FROM ocr.admin_audit
		WHERE $1 = '' OR event_type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, string(eventType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query admin audit: %w", err)
	}
	defer rows.Close()

	events := make([]audit.AdminEvent, 0, limit)
	for rows.Next() {
		var (
			e       audit.AdminEvent
			kind    string
			details []byte
		)
		if err := rows.Scan(&kind, &e.Actor, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan admin audit: %w", err)
		}
		e.Type = audit.AdminEventType(kind)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
