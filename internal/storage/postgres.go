/**
 * PostgreSQL Client for the OCR worker
 *
 * Handles job status, the learned vocabulary and the audit trail.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// JobUpdate represents a job status update
type JobUpdate struct {
	JobID            string
	Status           string
	Progress         int
	Confidence       float64
	QualityScore     int
	ProcessingTimeMs int64
	ErrorCode        string
	ErrorMessage     string
	EngineUsed       string
	Metadata         map[string]interface{}
}

const schema = `
CREATE SCHEMA IF NOT EXISTS ocr;

CREATE TABLE IF NOT EXISTS ocr.jobs (
	id                 TEXT PRIMARY KEY,
	filename           TEXT NOT NULL DEFAULT 'unknown',
	file_size          BIGINT NOT NULL DEFAULT 0,
	status             TEXT NOT NULL,
	progress           INTEGER NOT NULL DEFAULT 0,
	confidence         NUMERIC(5,4),
	quality_score      INTEGER,
	processing_time_ms BIGINT,
	error_code         TEXT,
	error_message      TEXT,
	engine_used        TEXT,
	metadata           JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ocr.learned_words (
	word        TEXT PRIMARY KEY,
	frequency   INTEGER NOT NULL DEFAULT 0,
	is_approved BOOLEAN NOT NULL DEFAULT FALSE,
	first_seen  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_seen   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	approved_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_learned_words_approved ON ocr.learned_words (is_approved);

CREATE TABLE IF NOT EXISTS ocr.request_history (
	id                 BIGSERIAL PRIMARY KEY,
	request_id         TEXT,
	filename           TEXT NOT NULL,
	file_size          BIGINT NOT NULL,
	pages              INTEGER NOT NULL DEFAULT 1,
	language           TEXT NOT NULL DEFAULT 'mixed',
	engine             TEXT,
	processing_time_ms BIGINT NOT NULL DEFAULT 0,
	success            BOOLEAN NOT NULL DEFAULT TRUE,
	quality_score      INTEGER,
	error_code         TEXT,
	error_message      TEXT,
	text_preview       TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_request_history_created_at ON ocr.request_history (created_at);

CREATE TABLE IF NOT EXISTS ocr.admin_audit (
	id         BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	actor      TEXT,
	details    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_audit_event_type ON ocr.admin_audit (event_type);

CREATE TABLE IF NOT EXISTS ocr.document_index (
	point_id   TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	filename   TEXT NOT NULL,
	pages      INTEGER NOT NULL,
	quality    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// sanitizeConfidence clamps confidence to [0,1] and rounds it to 4 decimal
// places so it fits NUMERIC(5,4).
func sanitizeConfidence(confidence float64) float64 {
	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return float64(int(confidence*10000+0.5)) / 10000
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// EnsureSchema creates the ocr schema and its tables when missing.
func (p *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpdateJobStatus upserts the job row. Zero values never overwrite stored data.
func (p *PostgresClient) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if update.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	if update.Status == "" {
		return fmt.Errorf("status is required")
	}

	confidence := sanitizeConfidence(update.Confidence)

	metadataJSON, err := json.Marshal(update.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	metadataJSON = sanitizeJSONForPostgres(metadataJSON)

	var filename string
	var fileSize int64
	if update.Metadata != nil {
		if fn, ok := update.Metadata["filename"].(string); ok {
			filename = fn
		}
		if fs, ok := update.Metadata["fileSize"].(int64); ok {
			fileSize = fs
		} else if fs, ok := update.Metadata["fileSize"].(float64); ok {
			fileSize = int64(fs)
		}
	}

	query := `
		INSERT INTO ocr.jobs (
			id, filename, file_size, status, progress,
			confidence, quality_score, processing_time_ms,
			error_code, error_message, engine_used, metadata,
			created_at, updated_at
		) VALUES (
			$1, COALESCE(NULLIF($2, ''), 'unknown'), $3, $4, $5,
			NULLIF($6::NUMERIC(5,4), 0), NULLIF($7, 0), NULLIF($8, 0),
			NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''),
			COALESCE($12::jsonb, '{}'::jsonb),
			NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = GREATEST(EXCLUDED.progress, ocr.jobs.progress),
			confidence = COALESCE(EXCLUDED.confidence, ocr.jobs.confidence),
			quality_score = COALESCE(EXCLUDED.quality_score, ocr.jobs.quality_score),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, ocr.jobs.processing_time_ms),
			error_code = EXCLUDED.error_code,
			error_message = EXCLUDED.error_message,
			engine_used = COALESCE(EXCLUDED.engine_used, ocr.jobs.engine_used),
			metadata = ocr.jobs.metadata || EXCLUDED.metadata,
			filename = CASE WHEN EXCLUDED.filename = 'unknown' THEN ocr.jobs.filename ELSE EXCLUDED.filename END,
			file_size = COALESCE(NULLIF(EXCLUDED.file_size, 0), ocr.jobs.file_size),
			updated_at = NOW()
		RETURNING id
	`

	var returnedID string
	err = p.db.QueryRowContext(
		ctx,
		query,
		update.JobID,            // $1
		filename,                // $2
		fileSize,                // $3
		update.Status,           // $4
		update.Progress,         // $5
		confidence,              // $6
		update.QualityScore,     // $7
		update.ProcessingTimeMs, // $8
		update.ErrorCode,        // $9
		update.ErrorMessage,     // $10
		update.EngineUsed,       // $11
		metadataJSON,            // $12
	).Scan(&returnedID)

	if err != nil {
		return fmt.Errorf("failed to update job status (job=%s, status=%s, confidence=%.4f): %w",
			update.JobID, update.Status, confidence, err)
	}

	return nil
}

// GetJobByID retrieves a job by ID
func (p *PostgresClient) GetJobByID(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job ID is required")
	}

	query := `
		SELECT
			id, filename, file_size, status, progress,
			confidence, quality_score, processing_time_ms,
			error_code, error_message, engine_used, metadata,
			created_at, updated_at
		FROM ocr.jobs
		WHERE id = $1
	`

	var (
		id, filename, status              string
		fileSize                          int64
		progress                          int
		confidence                        sql.NullFloat64
		qualityScore                      sql.NullInt64
		processingTimeMs                  sql.NullInt64
		errorCode, errorMessage, engineID sql.NullString
		metadataJSON                      []byte
		createdAt, updatedAt              time.Time
	)

	err := p.db.QueryRowContext(ctx, query, jobID).Scan(
		&id, &filename, &fileSize, &status, &progress,
		&confidence, &qualityScore, &processingTimeMs,
		&errorCode, &errorMessage, &engineID, &metadataJSON,
		&createdAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":        id,
		"filename":  filename,
		"fileSize":  fileSize,
		"status":    status,
		"progress":  progress,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
		"metadata":  metadata,
	}

	if confidence.Valid {
		result["confidence"] = confidence.Float64
	}
	if qualityScore.Valid {
		result["qualityScore"] = qualityScore.Int64
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}
	if engineID.Valid {
		result["engineUsed"] = engineID.String
	}

	return result, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
