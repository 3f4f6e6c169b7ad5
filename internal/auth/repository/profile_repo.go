package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, firebase_uid, email, display_name, role, project_ids, created_at, updated_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var displayName sql.NullString
	var lastLoginAt sql.NullTime
	var projectIDs pq.StringArray

	err := row.Scan(
		&p.ID,
		&p.FirebaseUID,
		&p.Email,
		&displayName,
		&p.Role,
		&projectIDs,
		&p.CreatedAt,
		&p.UpdatedAt,
		&lastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		p.DisplayName = &displayName.String
	}
	if lastLoginAt.Valid {
		p.LastLoginAt = &lastLoginAt.Time
	}
	p.ProjectIDs = []string(projectIDs)
	if p.ProjectIDs == nil {
		p.ProjectIDs = []string{}
	}
	return &p, nil
}

// GetByFirebaseUID retrieves a profile by the identity provider's user id.
func (r *ProfileRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE firebase_uid = $1`
	return scanProfile(r.db.QueryRowContext(ctx, q, uid))
}

// GetByID retrieves a profile by its primary key.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	q := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	return scanProfile(r.db.QueryRowContext(ctx, q, id))
}

// Upsert creates the profile on first sign-in and refreshes email and
// display name afterwards. The role of an existing profile is never touched;
// firstRole is only used when the row is inserted.
func (r *ProfileRepository) Upsert(ctx context.Context, req *domain.SyncProfileRequest, firstRole string) (*domain.Profile, error) {
	q := `
INSERT INTO profiles (firebase_uid, email, display_name, role, last_login_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (firebase_uid) DO UPDATE
SET email = EXCLUDED.email,
    display_name = COALESCE(EXCLUDED.display_name, profiles.display_name),
    last_login_at = now(),
    updated_at = now()
RETURNING ` + profileColumns

	return scanProfile(r.db.QueryRowContext(ctx, q, req.FirebaseUID, req.Email, req.DisplayName, firstRole))
}

// Count returns the number of profiles.
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// UpdateDisplayName changes the caller-editable profile fields.
func (r *ProfileRepository) UpdateDisplayName(ctx context.Context, id string, displayName *string) (*domain.Profile, error) {
	q := `
UPDATE profiles
SET display_name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns

	return scanProfile(r.db.QueryRowContext(ctx, q, id, displayName))
}

// SetRole changes role and project assignments.
func (r *ProfileRepository) SetRole(ctx context.Context, id, role string, projectIDs []string) (*domain.Profile, error) {
	if projectIDs == nil {
		projectIDs = []string{}
	}
	q := `
UPDATE profiles
SET role = $2, project_ids = $3, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns

	return scanProfile(r.db.QueryRowContext(ctx, q, id, role, pq.Array(projectIDs)))
}
