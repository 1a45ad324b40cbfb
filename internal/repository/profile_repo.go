package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/certportal/certportal/internal/domain"
)

// ProfileRepository handles the local admin profile cache
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByAdminID returns the cached profile, or nil if none is cached
func (r *ProfileRepository) FindByAdminID(ctx context.Context, adminID string) (*domain.AdminProfile, error) {
	query := `
		SELECT id, admin_id, name, email, phone, role, dirty, updated_at, synced_at
		FROM admin_profiles
		WHERE admin_id = $1
	`

	var p domain.AdminProfile
	err := r.db.QueryRowContext(ctx, query, adminID).Scan(
		&p.ID,
		&p.AdminID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Role,
		&p.Dirty,
		&p.UpdatedAt,
		&p.SyncedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return &p, nil
}

// Upsert writes p, keyed by admin ID
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.AdminProfile) error {
	query := `
		INSERT INTO admin_profiles (id, admin_id, name, email, phone, role, dirty, updated_at, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (admin_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			dirty = EXCLUDED.dirty,
			updated_at = EXCLUDED.updated_at,
			synced_at = EXCLUDED.synced_at
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.AdminID,
		p.Name,
		p.Email,
		p.Phone,
		p.Role,
		p.Dirty,
		p.UpdatedAt,
		p.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// MarkSynced clears the dirty flag if the profile was not edited after updatedAt
func (r *ProfileRepository) MarkSynced(ctx context.Context, adminID string, updatedAt, syncedAt time.Time) error {
	query := `
		UPDATE admin_profiles
		SET dirty = FALSE, synced_at = $3
		WHERE admin_id = $1 AND updated_at = $2
	`

	if _, err := r.db.ExecContext(ctx, query, adminID, updatedAt, syncedAt); err != nil {
		return fmt.Errorf("failed to mark profile synced: %w", err)
	}
	return nil
}

// Delete removes the cached profile
func (r *ProfileRepository) Delete(ctx context.Context, adminID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM admin_profiles WHERE admin_id = $1`, adminID); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}
