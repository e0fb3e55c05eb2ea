/**
 * Storage Manager for the OCR worker
 *
 * Coordinates PostgreSQL (jobs, vocabulary, audit) and Qdrant (document
 * index). Either backend may be absent; operations on a missing backend are
 * no-ops.
 */

package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/adverant/nexus/ocr-worker/internal/logging"
)

// StorageManager coordinates PostgreSQL and Qdrant operations
type StorageManager struct {
	postgres *PostgresClient
	qdrant   *QdrantClient
	logger   *logging.Logger
}

// Options selects the backends. Empty URLs leave a backend disabled.
type Options struct {
	DatabaseURL      string
	QdrantURL        string
	QdrantCollection string
}

// IndexInput describes a processed document for the index.
type IndexInput struct {
	JobID    string
	Filename string
	Text     string
	Pages    int
	Quality  int
}

// SimilarDocument is a search hit of the document index.
type SimilarDocument struct {
	PointID    string  `json:"point_id"`
	JobID      string  `json:"job_id"`
	Filename   string  `json:"filename"`
	Pages      int64   `json:"pages"`
	Quality    int64   `json:"quality"`
	Similarity float32 `json:"similarity"`
}

// NewStorageManager connects the configured backends.
func NewStorageManager(ctx context.Context, opts Options, logger *logging.Logger) (*StorageManager, error) {
	if logger == nil {
		logger = logging.NewLogger("storage")
	}
	sm := &StorageManager{logger: logger}

	if opts.DatabaseURL != "" {
		postgres, err := NewPostgresClient(opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
		}
		if err := postgres.EnsureSchema(ctx); err != nil {
			postgres.Close()
			return nil, err
		}
		sm.postgres = postgres
	}

	if opts.QdrantURL != "" {
		qdrant, err := NewQdrantClient(ctx, opts.QdrantURL, opts.QdrantCollection, FingerprintDimensions)
		if err != nil {
			sm.Close()
			return nil, fmt.Errorf("failed to initialize Qdrant client: %w", err)
		}
		sm.qdrant = qdrant
	}

	return sm, nil
}

// Postgres returns the database client, or nil when none is configured.
func (sm *StorageManager) Postgres() *PostgresClient {
	return sm.postgres
}

// Indexing reports whether the document index is enabled.
func (sm *StorageManager) Indexing() bool {
	return sm.qdrant != nil
}

// IndexDocument stores the fingerprint of a processed document. The Qdrant
// point is removed again when the database row cannot be written.
func (sm *StorageManager) IndexDocument(ctx context.Context, input *IndexInput) (string, error) {
	if sm.qdrant == nil {
		return "", nil
	}
	if input == nil || input.JobID == "" {
		return "", fmt.Errorf("job ID is required")
	}

	pointID := uuid.New().String()
	point := &VectorPoint{
		ID:     pointID,
		Vector: Fingerprint(input.Text, FingerprintDimensions),
		Metadata: map[string]interface{}{
			"job_id":     input.JobID,
			"filename":   input.Filename,
			"pages":      input.Pages,
			"quality":    input.Quality,
			"created_at": time.Now().Unix(),
		},
	}

	if err := sm.qdrant.UpsertVector(ctx, point); err != nil {
		return "", fmt.Errorf("failed to store vector in Qdrant: %w", err)
	}

	if sm.postgres != nil {
		_, err := sm.postgres.db.ExecContext(ctx, `
			INSERT INTO ocr.document_index (point_id, job_id, filename, pages, quality, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, pointID, input.JobID, input.Filename, input.Pages, input.Quality)
		if err != nil {
			if delErr := sm.qdrant.DeleteVector(ctx, pointID); delErr != nil {
				sm.logger.Warn("Failed to roll back Qdrant point", "pointId", pointID, "error", delErr)
			}
			return "", fmt.Errorf("failed to store index row in PostgreSQL: %w", err)
		}
	}

	return pointID, nil
}

// SimilarDocuments returns the indexed documents closest to text.
func (sm *StorageManager) SimilarDocuments(ctx context.Context, text string, limit int) ([]SimilarDocument, error) {
	if sm.qdrant == nil {
		return nil, fmt.Errorf("document index is not configured")
	}

	points, err := sm.qdrant.SearchVectors(ctx, Fingerprint(text, FingerprintDimensions), limit)
	if err != nil {
		return nil, err
	}

	out := make([]SimilarDocument, 0, len(points))
	for _, p := range points {
		doc := SimilarDocument{PointID: p.ID, Similarity: p.Score}
		doc.JobID, _ = p.Metadata["job_id"].(string)
		doc.Filename, _ = p.Metadata["filename"].(string)
		doc.Pages, _ = p.Metadata["pages"].(int64)
		doc.Quality, _ = p.Metadata["quality"].(int64)
		out = append(out, doc)
	}
	return out, nil
}

// UpdateJobStatus updates job status in PostgreSQL
func (sm *StorageManager) UpdateJobStatus(ctx context.Context, update *JobUpdate) error {
	if sm.postgres == nil {
		return nil
	}
	return sm.postgres.UpdateJobStatus(ctx, update)
}

// GetStats returns statistics from both systems
func (sm *StorageManager) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{}

	if sm.postgres != nil {
		pgStats := sm.postgres.GetStats()
		stats["postgres"] = map[string]interface{}{
			"max_open_connections": pgStats.MaxOpenConnections,
			"open_connections":     pgStats.OpenConnections,
			"in_use":               pgStats.InUse,
			"idle":                 pgStats.Idle,
			"wait_count":           pgStats.WaitCount,
			"wait_duration":        pgStats.WaitDuration.String(),
		}
		history, err := sm.postgres.HistoryStats(ctx)
		if err != nil {
			return nil, err
		}
		stats["history"] = history
	}

	if sm.qdrant != nil {
		qdrantStats, err := sm.qdrant.GetCollectionInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Qdrant stats: %w", err)
		}
		stats["qdrant"] = qdrantStats
	}

	return stats, nil
}

// Close closes all connections
func (sm *StorageManager) Close() error {
	var pgErr, qdErr error

	if sm.postgres != nil {
		pgErr = sm.postgres.Close()
	}

	if sm.qdrant != nil {
		qdErr = sm.qdrant.Close()
	}

	if pgErr != nil {
		return fmt.Errorf("failed to close PostgreSQL: %w", pgErr)
	}

	if qdErr != nil {
		return fmt.Errorf("failed to close Qdrant: %w", qdErr)
	}

	return nil
}

var (
	nullEscape    = regexp.MustCompile(`\\u0000`)
	controlEscape = regexp.MustCompile(`\\u00[01][0-9a-fA-F]`)
)

// sanitizeJSONForPostgres removes \u0000 escapes, which JSONB rejects, and
// replaces the other control character escapes with a space.
func sanitizeJSONForPostgres(jsonBytes []byte) []byte {
	result := nullEscape.ReplaceAll(jsonBytes, []byte{})
	return controlEscape.ReplaceAll(result, []byte(" "))
}
