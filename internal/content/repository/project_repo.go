package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

// ProjectRepository provides persistence operations for portfolio projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, slug, title, summary, body, status, tags, url, year, created_at, updated_at`

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var tags pq.StringArray
	var url sql.NullString
	var year sql.NullInt64

	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Summary, &p.Body, &p.Status, &tags, &url, &year, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	p.Tags = []string(tags)
	p.URL = stringPtr(url)
	if year.Valid {
		y := int(year.Int64)
		p.Year = &y
	}
	return &p, nil
}

// List returns non-deleted projects, newest first.
func (r *ProjectRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Project, error) {
	limit, offset := limits(f)
	q := `
SELECT ` + projectColumns + `
FROM projects
WHERE deleted_at IS NULL AND ($1::text = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, f.Status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, limit)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get looks a project up by id or slug. status narrows the match when set.
func (r *ProjectRepository) Get(ctx context.Context, key, status string) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL AND ($2::text = '' OR status = $2)`
	return scanProject(r.db.QueryRowContext(ctx, q, key, status))
}

func (r *ProjectRepository) Create(ctx context.Context, in *domain.ProjectInput) (*domain.Project, error) {
	const q = `
INSERT INTO projects (slug, title, summary, body, status, tags, url, year)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + projectColumns
	return scanProject(r.db.QueryRowContext(ctx, q,
		in.Slug, in.Title, in.Summary, in.Body, in.Status, pq.Array(in.Tags), nullString(in.URL), nullInt(in.Year)))
}

// Update replaces a project found by id or slug.
func (r *ProjectRepository) Update(ctx context.Context, key string, in *domain.ProjectInput) (*domain.Project, error) {
	q := `
UPDATE projects
SET slug = $2, title = $3, summary = $4, body = $5, status = $6, tags = $7, url = $8, year = $9, updated_at = now()
WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL
RETURNING ` + projectColumns
	return scanProject(r.db.QueryRowContext(ctx, q,
		key, in.Slug, in.Title, in.Summary, in.Body, in.Status, pq.Array(in.Tags), nullString(in.URL), nullInt(in.Year)))
}

// SoftDelete marks a project as deleted.
func (r *ProjectRepository) SoftDelete(ctx context.Context, key string) error {
	return softDelete(ctx, r.db, "projects", keyColumn(key), key)
}

// softDelete is shared by every content table with a deleted_at column.
// table and column are always constants from this package.
func softDelete(ctx context.Context, db *sql.DB, table, column, key string) error {
	q := `UPDATE ` + table + ` SET deleted_at = now(), updated_at = now() WHERE ` + column + ` = $1 AND deleted_at IS NULL`
	res, err := db.ExecContext(ctx, q, key)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
