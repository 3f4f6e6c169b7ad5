package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/folio-studio/folio-backend/internal/access"
)

const (
	DefaultQueryLimit = 50
	MaxQueryLimit     = 500
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidInput      = errors.New("invalid input")
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// readOnlyColumns may never be written through the tools.
var readOnlyColumns = map[string]bool{"id": true, "created_at": true}

// Query is a validated query_table request.
type Query struct {
	Table     string
	Select    []string
	Filters   map[string]any
	OrderBy   string
	Ascending bool
	Limit     int
	Offset    int
}

// Scope confines a write to rows of one studio project.
type Scope struct {
	Column    string
	ProjectID string
}

// TableStore is what the tools call. Rows come back as JSON objects.
type TableStore interface {
	Query(ctx context.Context, q *Query) (json.RawMessage, error)
	Get(ctx context.Context, table, id string) (json.RawMessage, error)
	Insert(ctx context.Context, table string, data map[string]any) (json.RawMessage, error)
	Update(ctx context.Context, table, id string, data map[string]any, scope *Scope) (json.RawMessage, error)
	Delete(ctx context.Context, table, id string, scope *Scope) (json.RawMessage, error)
}

// SQLStore runs tool calls against PostgreSQL. Table and column names are
// checked against the catalog and identifierPattern, then quoted; values
// are always bound parameters.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Query(ctx context.Context, q *Query) (json.RawMessage, error) {
	t, err := lookupTable(q.Table)
	if err != nil {
		return nil, err
	}

	cols := "*"
	if len(q.Select) > 0 {
		quoted := make([]string, 0, len(q.Select))
		for _, c := range q.Select {
			qc, err := quoteColumn(c)
			if err != nil {
				return nil, err
			}
			quoted = append(quoted, qc)
		}
		cols = strings.Join(quoted, ", ")
	}

	var where []string
	var args []any
	if t.SoftDelete {
		where = append(where, "deleted_at IS NULL")
	}
	for _, col := range sortedKeys(q.Filters) {
		qc, err := quoteColumn(col)
		if err != nil {
			return nil, err
		}
		v := q.Filters[col]
		if v == nil {
			where = append(where, qc+" IS NULL")
			continue
		}
		arg, err := encodeValue(v, t.IsJSON(col))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		where = append(where, fmt.Sprintf("%s = $%d", qc, len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + cols + " FROM " + pq.QuoteIdentifier(t.Name))
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	orderBy := "created_at"
	if q.OrderBy != "" {
		orderBy = q.OrderBy
	}
	oc, err := quoteColumn(orderBy)
	if err != nil {
		return nil, err
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	sb.WriteString(" ORDER BY " + oc + " " + dir)

	args = append(args, clampLimit(q.Limit), max(q.Offset, 0))
	sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)))

	query := `SELECT COALESCE(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM (` + sb.String() + `) t`

	var out []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		return nil, translate(err, "query "+t.Name)
	}
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, table, id string) (json.RawMessage, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	query := `SELECT to_jsonb(t) FROM ` + pq.QuoteIdentifier(t.Name) + ` t WHERE t.id = $1`
	if t.SoftDelete {
		query += ` AND t.deleted_at IS NULL`
	}

	var out []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&out); err != nil {
		return nil, translate(err, "get "+t.Name)
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, table string, data map[string]any) (json.RawMessage, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: data must not be empty", ErrInvalidInput)
	}

	cols := make([]string, 0, len(data))
	placeholders := make([]string, 0, len(data))
	args := make([]any, 0, len(data))
	for _, col := range sortedKeys(data) {
		qc, err := writableColumn(col)
		if err != nil {
			return nil, err
		}
		arg, err := encodeValue(data[col], t.IsJSON(col))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		cols = append(cols, qc)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := `INSERT INTO ` + pq.QuoteIdentifier(t.Name) + ` AS t (` + strings.Join(cols, ", ") + `) VALUES (` +
		strings.Join(placeholders, ", ") + `) RETURNING to_jsonb(t)`

	var out []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		return nil, translate(err, "insert into "+t.Name)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, table, id string, data map[string]any, scope *Scope) (json.RawMessage, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: data must not be empty", ErrInvalidInput)
	}

	sets := make([]string, 0, len(data)+1)
	args := make([]any, 0, len(data)+2)
	for _, col := range sortedKeys(data) {
		if col == "updated_at" {
			continue
		}
		qc, err := writableColumn(col)
		if err != nil {
			return nil, err
		}
		arg, err := encodeValue(data[col], t.IsJSON(col))
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", qc, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	where := fmt.Sprintf("t.id = $%d", len(args))
	if t.SoftDelete {
		where += " AND t.deleted_at IS NULL"
	}
	where, args, err = scoped(where, args, scope)
	if err != nil {
		return nil, err
	}

	query := `UPDATE ` + pq.QuoteIdentifier(t.Name) + ` AS t SET ` + strings.Join(sets, ", ") +
		` WHERE ` + where + ` RETURNING to_jsonb(t)`

	var out []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		return nil, translate(err, "update "+t.Name)
	}
	return out, nil
}

// Delete soft deletes rows of tables that have deleted_at and removes the
// rest.
func (s *SQLStore) Delete(ctx context.Context, table, id string, scope *Scope) (json.RawMessage, error) {
	t, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	args := []any{id}
	where := "t.id = $1"
	if t.SoftDelete {
		where += " AND t.deleted_at IS NULL"
	}
	where, args, err = scoped(where, args, scope)
	if err != nil {
		return nil, err
	}

	var query string
	if t.SoftDelete {
		query = `UPDATE ` + pq.QuoteIdentifier(t.Name) + ` AS t SET deleted_at = now(), updated_at = now() WHERE ` +
			where + ` RETURNING to_jsonb(t)`
	} else {
		query = `DELETE FROM ` + pq.QuoteIdentifier(t.Name) + ` AS t WHERE ` + where + ` RETURNING to_jsonb(t)`
	}

	var out []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&out); err != nil {
		return nil, translate(err, "delete from "+t.Name)
	}
	return out, nil
}

func scoped(where string, args []any, scope *Scope) (string, []any, error) {
	if scope == nil {
		return where, args, nil
	}
	qc, err := quoteColumn(scope.Column)
	if err != nil {
		return "", nil, err
	}
	args = append(args, scope.ProjectID)
	return fmt.Sprintf("%s AND t.%s = $%d", where, qc, len(args)), args, nil
}

func lookupTable(name string) (access.Table, error) {
	if !identifierPattern.MatchString(name) {
		return access.Table{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, name)
	}
	t, ok := access.Lookup(name)
	if !ok {
		return access.Table{}, fmt.Errorf("%w: unknown table %q", ErrInvalidIdentifier, name)
	}
	return t, nil
}

func quoteColumn(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: column %q", ErrInvalidIdentifier, name)
	}
	return pq.QuoteIdentifier(name), nil
}

func writableColumn(name string) (string, error) {
	if readOnlyColumns[name] {
		return "", fmt.Errorf("%w: column %q cannot be written", ErrInvalidInput, name)
	}
	return quoteColumn(name)
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultQueryLimit
	case n > MaxQueryLimit:
		return MaxQueryLimit
	}
	return n
}

// encodeValue converts decoded JSON into something lib/pq can bind. Lists
// and objects bound to a jsonb column go as JSON text. Elsewhere a list of
// strings, empty included, becomes text[] and any other list or object is
// JSON text.
func encodeValue(v any, jsonColumn bool) (any, error) {
	switch val := v.(type) {
	case []any:
		if jsonColumn {
			return jsonText(val)
		}
		strs := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return jsonText(val)
			}
			strs = append(strs, s)
		}
		return pq.Array(strs), nil
	case map[string]any:
		return jsonText(val)
	}
	return v, nil
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return string(b), nil
}

// translate maps driver errors onto the tool error sentinels. Data and
// constraint errors are the caller's fault and are reported as input errors.
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "22", "23", "42":
			return fmt.Errorf("%w: %s", ErrInvalidInput, pqErr.Message)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
