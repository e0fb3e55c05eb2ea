package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/adverant/nexus/ocr-worker/internal/vocabulary"
)

var _ vocabulary.Store = (*PostgresClient)(nil)

// TrackWords increments each word inside one transaction. Rows are locked in
// word order so concurrent workers cannot deadlock or approve a word twice.
func (p *PostgresClient) TrackWords(ctx context.Context, words []string, threshold int, now time.Time) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	ordered := make([]string, 0, len(counts))
	for w := range counts {
		ordered = append(ordered, w)
	}
	sort.Strings(ordered)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var approved []string
	for _, w := range ordered {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ocr.learned_words (word, frequency, first_seen, last_seen)
			VALUES ($1, 0, $2, $2)
			ON CONFLICT (word) DO NOTHING
		`, w, now); err != nil {
			return nil, fmt.Errorf("failed to insert word %q: %w", w, err)
		}

		var freq int
		var isApproved bool
		if err := tx.QueryRowContext(ctx, `
			SELECT frequency, is_approved FROM ocr.learned_words WHERE word = $1 FOR UPDATE
		`, w).Scan(&freq, &isApproved); err != nil {
			return nil, fmt.Errorf("failed to lock word %q: %w", w, err)
		}

		freq += counts[w]
		promote := !isApproved && freq >= threshold

		if _, err := tx.ExecContext(ctx, `
			UPDATE ocr.learned_words
			SET frequency = $2,
				last_seen = $3,
				is_approved = is_approved OR $4,
				approved_at = CASE WHEN $4 THEN $3 ELSE approved_at END
			WHERE word = $1
		`, w, freq, now, promote); err != nil {
			return nil, fmt.Errorf("failed to update word %q: %w", w, err)
		}

		if promote {
			approved = append(approved, w)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tracked words: %w", err)
	}
	return approved, nil
}

func (p *PostgresClient) ApprovedWords(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT word FROM ocr.learned_words WHERE is_approved ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan approved word: %w", err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (p *PostgresClient) ListWords(ctx context.Context, approved bool, limit int) ([]vocabulary.TrackedWord, error) {
	query := `
		SELECT word, frequency, is_approved, first_seen, last_seen, approved_at
		FROM ocr.learned_words
		WHERE is_approved = $1
		ORDER BY frequency DESC, last_seen DESC, word
	`
	args := []interface{}{approved}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list words: %w", err)
	}
	defer rows.Close()

	var out []vocabulary.TrackedWord
	for rows.Next() {
		var tw vocabulary.TrackedWord
		var approvedAt sql.NullTime
		if err := rows.Scan(&tw.Word, &tw.Frequency, &tw.Approved, &tw.FirstSeen, &tw.LastSeen, &approvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan word: %w", err)
		}
		if approvedAt.Valid {
			at := approvedAt.Time
			tw.ApprovedAt = &at
		}
		out = append(out, tw)
	}
	return out, rows.Err()
}

func (p *PostgresClient) Approve(ctx context.Context, word string, now time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE ocr.learned_words SET is_approved = TRUE, approved_at = $2
		WHERE word = $1 AND NOT is_approved
	`, word, now)
	if err != nil {
		return false, fmt.Errorf("failed to approve word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (p *PostgresClient) Reject(ctx context.Context, word string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM ocr.learned_words WHERE word = $1`, word)
	if err != nil {
		return false, fmt.Errorf("failed to reject word: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (p *PostgresClient) Counts(ctx context.Context) (int, int, error) {
	var total, approved int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_approved) FROM ocr.learned_words
	`).Scan(&total, &approved)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count words: %w", err)
	}
	return total, approved, nil
}

// ImportWords writes entries in one transaction; an existing word keeps the
// larger frequency and is approved when either side is approved.
func (p *PostgresClient) ImportWords(ctx context.Context, entries []vocabulary.Entry, replace bool, now time.Time) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM ocr.learned_words`); err != nil {
			return 0, fmt.Errorf("failed to clear learned words: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ocr.learned_words AS lw (word, frequency, is_approved, first_seen, last_seen, approved_at)
		VALUES ($1, $2, $3, $4, $4, CASE WHEN $3 THEN $4::timestamptz END)
		ON CONFLICT (word) DO UPDATE SET
			frequency = GREATEST(lw.frequency, EXCLUDED.frequency),
			last_seen = EXCLUDED.last_seen,
			is_approved = lw.is_approved OR EXCLUDED.is_approved,
			approved_at = CASE
				WHEN EXCLUDED.is_approved AND NOT lw.is_approved THEN EXCLUDED.last_seen
				ELSE lw.approved_at
			END
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	imported := 0
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Word, e.Frequency, e.Approved, now); err != nil {
			return 0, fmt.Errorf("failed to import word %q: %w", e.Word, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return imported, nil
}
