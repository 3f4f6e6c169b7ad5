package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/canvas/domain"
)

// CanvasRepository reads and conditionally writes canvas rows. Table names
// always come from domain.Kind, never from callers.
type CanvasRepository struct {
	db *sql.DB
}

func NewCanvasRepository(db *sql.DB) *CanvasRepository {
	return &CanvasRepository{db: db}
}

const canvasColumns = `id, studio_project_id, name, status, data, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCanvas(k domain.Kind, row rowScanner) (*domain.Canvas, error) {
	var c domain.Canvas
	var projectID sql.NullString
	var data []byte

	if err := row.Scan(&c.ID, &projectID, &c.Name, &c.Status, &data, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, translate(err)
	}
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s data: %w", k.Table, c.ID, err)
	}
	c.Kind = k.Name
	if projectID.Valid {
		c.StudioProjectID = &projectID.String
	}
	return &c, nil
}

func (r *CanvasRepository) Get(ctx context.Context, k domain.Kind, id string) (*domain.Canvas, error) {
	q := `SELECT ` + canvasColumns + ` FROM ` + pq.QuoteIdentifier(k.Table) + ` WHERE id = $1`
	return scanCanvas(k, r.db.QueryRowContext(ctx, q, id))
}

// List returns the canvases of a kind, optionally for one studio project.
func (r *CanvasRepository) List(ctx context.Context, k domain.Kind, studioProjectID string) ([]domain.Canvas, error) {
	q := `
SELECT ` + canvasColumns + `
FROM ` + pq.QuoteIdentifier(k.Table) + `
WHERE ($1::text = '' OR studio_project_id::text = $1)
ORDER BY updated_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, studioProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", k.Table, err)
	}
	defer rows.Close()

	out := []domain.Canvas{}
	for rows.Next() {
		c, err := scanCanvas(k, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SaveIfVersion writes data only when the stored version still equals
// expected, bumping the version. When nothing is updated the current
// version is looked up so the caller gets a *domain.VersionConflictError,
// or domain.ErrNotFound if the row is gone.
func (r *CanvasRepository) SaveIfVersion(ctx context.Context, k domain.Kind, c *domain.Canvas, expected int) error {
	data, err := json.Marshal(c.Data)
	if err != nil {
		return fmt.Errorf("failed to encode canvas data: %w", err)
	}

	table := pq.QuoteIdentifier(k.Table)
	q := `
UPDATE ` + table + `
SET data = $3, version = version + 1, updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, updated_at;
`
	err = r.db.QueryRowContext(ctx, q, c.ID, expected, data).Scan(&c.Version, &c.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return translate(err)
	}

	var current int
	err = r.db.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = $1`, c.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read current version: %w", err)
	}
	return &domain.VersionConflictError{Expected: expected, Current: current}
}

func translate(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
	}
	return err
}
