package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

type BacklogRepository struct {
	db *sql.DB
}

func NewBacklogRepository(db *sql.DB) *BacklogRepository {
	return &BacklogRepository{db: db}
}

const backlogColumns = `id, studio_project_id, title, description, status, priority, tags, created_at, updated_at`

func scanBacklogItem(row rowScanner) (*domain.BacklogItem, error) {
	var b domain.BacklogItem
	var tags pq.StringArray
	var projectID sql.NullString

	if err := row.Scan(&b.ID, &projectID, &b.Title, &b.Description, &b.Status, &b.Priority, &tags, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	b.StudioProjectID = stringPtr(projectID)
	b.Tags = []string(tags)
	return &b, nil
}

// List returns non-deleted items, highest priority first then newest.
func (r *BacklogRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.BacklogItem, error) {
	limit, offset := limits(f)
	q := `
SELECT ` + backlogColumns + `
FROM backlog_items
WHERE deleted_at IS NULL
  AND ($1::text = '' OR status = $1)
  AND ($2::text = '' OR studio_project_id::text = $2)
ORDER BY priority DESC, created_at DESC
LIMIT $3 OFFSET $4;
`
	rows, err := r.db.QueryContext(ctx, q, f.Status, f.StudioProjectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog items: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BacklogItem, 0, limit)
	for rows.Next() {
		b, err := scanBacklogItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BacklogRepository) Get(ctx context.Context, id string) (*domain.BacklogItem, error) {
	q := `SELECT ` + backlogColumns + ` FROM backlog_items WHERE id = $1 AND deleted_at IS NULL`
	return scanBacklogItem(r.db.QueryRowContext(ctx, q, id))
}

func (r *BacklogRepository) Create(ctx context.Context, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	const q = `
INSERT INTO backlog_items (studio_project_id, title, description, status, priority, tags)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + backlogColumns
	return scanBacklogItem(r.db.QueryRowContext(ctx, q,
		nullString(in.StudioProjectID), in.Title, in.Description, in.Status, in.Priority, pq.Array(in.Tags)))
}

func (r *BacklogRepository) Update(ctx context.Context, id string, in *domain.BacklogItemInput) (*domain.BacklogItem, error) {
	const q = `
UPDATE backlog_items
SET studio_project_id = $2, title = $3, description = $4, status = $5, priority = $6, tags = $7, updated_at = now()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + backlogColumns
	return scanBacklogItem(r.db.QueryRowContext(ctx, q,
		id, nullString(in.StudioProjectID), in.Title, in.Description, in.Status, in.Priority, pq.Array(in.Tags)))
}

func (r *BacklogRepository) SoftDelete(ctx context.Context, id string) error {
	return softDelete(ctx, r.db, "backlog_items", "id", id)
}

// Promote ships a backlog item as a log entry in one transaction: the entry
// is inserted, the lineage row recorded and the item marked shipped. An item
// that is already shipped is a conflict.
func (r *BacklogRepository) Promote(ctx context.Context, id string, entry *domain.LogEntryInput) (*domain.Promotion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM backlog_items WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&status)
	if err != nil {
		return nil, translate(err)
	}
	if status == domain.BacklogShipped {
		return nil, fmt.Errorf("%w: backlog item is already shipped", domain.ErrConflict)
	}

	logEntry, err := scanLogEntry(tx.QueryRowContext(ctx, insertLogEntry, logEntryArgs(entry)...))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO backlog_log_entries (backlog_item_id, log_entry_id) VALUES ($1, $2)`, id, logEntry.ID); err != nil {
		return nil, translate(err)
	}

	item, err := scanBacklogItem(tx.QueryRowContext(ctx, `
UPDATE backlog_items SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+backlogColumns, id, domain.BacklogShipped))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit promotion: %w", err)
	}
	return &domain.Promotion{BacklogItem: item, LogEntry: logEntry}, nil
}
