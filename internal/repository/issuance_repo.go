package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/certportal/certportal/internal/domain"
)

// IssuanceRepository handles the issuance journal
type IssuanceRepository struct {
	db *sql.DB
}

// NewIssuanceRepository creates a new issuance repository
func NewIssuanceRepository(db *sql.DB) *IssuanceRepository {
	return &IssuanceRepository{db: db}
}

// Insert appends a journal entry
func (r *IssuanceRepository) Insert(ctx context.Context, rec *domain.IssuanceRecord) error {
	query := `
		INSERT INTO issuance_journal
			(id, fingerprint, server_id, actor, channel, category, letter_type, course, recipient, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Fingerprint,
		rec.ServerID,
		rec.Actor,
		rec.Channel,
		rec.Category,
		rec.LetterType,
		rec.Course,
		rec.Recipient,
		rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}
	return nil
}

// CountByFingerprint returns how many times a fingerprint was submitted
func (r *IssuanceRepository) CountByFingerprint(ctx context.Context, fingerprint string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM issuance_journal WHERE fingerprint = $1`, fingerprint,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return n, nil
}

// ListRecent returns the newest journal entries first
func (r *IssuanceRepository) ListRecent(ctx context.Context, limit int) ([]*domain.IssuanceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, fingerprint, server_id, actor, channel, category, letter_type, course, recipient, submitted_at
		FROM issuance_journal
		ORDER BY submitted_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []*domain.IssuanceRecord
	for rows.Next() {
		var rec domain.IssuanceRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Fingerprint,
			&rec.ServerID,
			&rec.Actor,
			&rec.Channel,
			&rec.Category,
			&rec.LetterType,
			&rec.Course,
			&rec.Recipient,
			&rec.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		out = append(out, &rec)
	}

	return out, rows.Err()
}
