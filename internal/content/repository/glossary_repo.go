package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

type GlossaryRepository struct {
	db *sql.DB
}

func NewGlossaryRepository(db *sql.DB) *GlossaryRepository {
	return &GlossaryRepository{db: db}
}

const glossaryColumns = `id, slug, term, definition, status, tags, published_at, created_at, updated_at`

func scanGlossaryEntry(row rowScanner) (*domain.GlossaryEntry, error) {
	var g domain.GlossaryEntry
	var tags pq.StringArray
	var publishedAt sql.NullTime

	if err := row.Scan(&g.ID, &g.Slug, &g.Term, &g.Definition, &g.Status, &tags, &publishedAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	g.Tags = []string(tags)
	if publishedAt.Valid {
		g.PublishedAt = &publishedAt.Time
	}
	return &g, nil
}

// List returns entries alphabetically by term.
func (r *GlossaryRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.GlossaryEntry, error) {
	limit, offset := limits(f)
	q := `
SELECT ` + glossaryColumns + `
FROM verbivore_entries
WHERE deleted_at IS NULL AND ($1::text = '' OR status = $1)
ORDER BY lower(term) ASC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, f.Status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list glossary entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.GlossaryEntry, 0, limit)
	for rows.Next() {
		g, err := scanGlossaryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *GlossaryRepository) Get(ctx context.Context, key, status string) (*domain.GlossaryEntry, error) {
	q := `SELECT ` + glossaryColumns + ` FROM verbivore_entries WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL AND ($2::text = '' OR status = $2)`
	return scanGlossaryEntry(r.db.QueryRowContext(ctx, q, key, status))
}

// Create sets published_at when the entry is created already published.
func (r *GlossaryRepository) Create(ctx context.Context, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error) {
	const q = `
INSERT INTO verbivore_entries (slug, term, definition, status, tags, published_at)
VALUES ($1, $2, $3, $4, $5, CASE WHEN $4 = 'published' THEN now() END)
RETURNING ` + glossaryColumns
	return scanGlossaryEntry(r.db.QueryRowContext(ctx, q, in.Slug, in.Term, in.Definition, in.Status, pq.Array(in.Tags)))
}

func (r *GlossaryRepository) Update(ctx context.Context, key string, in *domain.GlossaryEntryInput) (*domain.GlossaryEntry, error) {
	q := `
UPDATE verbivore_entries
SET slug = $2, term = $3, definition = $4, status = $5, tags = $6,
    published_at = CASE WHEN $5 = 'published' THEN COALESCE(published_at, now()) ELSE published_at END,
    updated_at = now()
WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL
RETURNING ` + glossaryColumns
	return scanGlossaryEntry(r.db.QueryRowContext(ctx, q, key, in.Slug, in.Term, in.Definition, in.Status, pq.Array(in.Tags)))
}

// Publish marks an entry published. The first publication date is kept.
func (r *GlossaryRepository) Publish(ctx context.Context, key string) (*domain.GlossaryEntry, error) {
	q := `
UPDATE verbivore_entries
SET status = 'published', published_at = COALESCE(published_at, now()), updated_at = now()
WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL
RETURNING ` + glossaryColumns
	return scanGlossaryEntry(r.db.QueryRowContext(ctx, q, key))
}

func (r *GlossaryRepository) SoftDelete(ctx context.Context, key string) error {
	return softDelete(ctx, r.db, "verbivore_entries", keyColumn(key), key)
}
