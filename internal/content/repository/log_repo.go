package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

type LogEntryRepository struct {
	db *sql.DB
}

func NewLogEntryRepository(db *sql.DB) *LogEntryRepository {
	return &LogEntryRepository{db: db}
}

const logEntryColumns = `id, slug, title, body, entry_date, status, tags, project_id, created_at, updated_at`

func scanLogEntry(row rowScanner) (*domain.LogEntry, error) {
	var e domain.LogEntry
	var tags pq.StringArray
	var projectID sql.NullString

	if err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Body, &e.EntryDate, &e.Status, &tags, &projectID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	e.Tags = []string(tags)
	e.ProjectID = stringPtr(projectID)
	return &e, nil
}

// List returns non-deleted entries, most recent entry date first.
func (r *LogEntryRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.LogEntry, error) {
	limit, offset := limits(f)
	q := `
SELECT ` + logEntryColumns + `
FROM log_entries
WHERE deleted_at IS NULL AND ($1::text = '' OR status = $1)
ORDER BY entry_date DESC, created_at DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, f.Status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LogEntry, 0, limit)
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *LogEntryRepository) Get(ctx context.Context, key, status string) (*domain.LogEntry, error) {
	q := `SELECT ` + logEntryColumns + ` FROM log_entries WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL AND ($2::text = '' OR status = $2)`
	return scanLogEntry(r.db.QueryRowContext(ctx, q, key, status))
}

const insertLogEntry = `
INSERT INTO log_entries (slug, title, body, entry_date, status, tags, project_id)
VALUES ($1, $2, $3, COALESCE($4::date, current_date), $5, $6, $7)
RETURNING ` + logEntryColumns

func (r *LogEntryRepository) Create(ctx context.Context, in *domain.LogEntryInput) (*domain.LogEntry, error) {
	return scanLogEntry(r.db.QueryRowContext(ctx, insertLogEntry, logEntryArgs(in)...))
}

func (r *LogEntryRepository) Update(ctx context.Context, key string, in *domain.LogEntryInput) (*domain.LogEntry, error) {
	q := `
UPDATE log_entries
SET slug = $2, title = $3, body = $4, entry_date = COALESCE($5::date, entry_date), status = $6, tags = $7, project_id = $8, updated_at = now()
WHERE ` + keyColumn(key) + ` = $1 AND deleted_at IS NULL
RETURNING ` + logEntryColumns
	args := append([]any{key}, logEntryArgs(in)...)
	return scanLogEntry(r.db.QueryRowContext(ctx, q, args...))
}

func (r *LogEntryRepository) SoftDelete(ctx context.Context, key string) error {
	return softDelete(ctx, r.db, "log_entries", keyColumn(key), key)
}

func logEntryArgs(in *domain.LogEntryInput) []any {
	var date any
	if in.EntryDate != nil {
		date = in.EntryDate.Format(time.DateOnly)
	}
	return []any{in.Slug, in.Title, in.Body, date, in.Status, pq.Array(in.Tags), nullString(in.ProjectID)}
}
