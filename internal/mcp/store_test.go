package mcp

import (
	"context"
	"database/sql"
	"math"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db), mock
}

func jsonRow(v string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"j"}).AddRow([]byte(v))
}

func TestSQLStore_Query(t *testing.T) {
	store, mock := setupStore(t)

	want := `SELECT COALESCE(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM (` +
		`SELECT "id", "title" FROM "projects" WHERE deleted_at IS NULL AND "slug" IS NULL AND "status" = $1 ` +
		`ORDER BY "created_at" DESC LIMIT $2 OFFSET $3) t`
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs("published", MaxQueryLimit, 0).
		WillReturnRows(jsonRow(`[{"id":"p-1","title":"Folio"}]`))

	out, err := store.Query(context.Background(), &Query{
		Table:   "projects",
		Select:  []string{"id", "title"},
		Filters: map[string]any{"status": "published", "slug": nil},
		Limit:   1000,
		Offset:  -4,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p-1","title":"Folio"}]`, string(out))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_QueryDefaults(t *testing.T) {
	store, mock := setupStore(t)

	want := `SELECT COALESCE(jsonb_agg(to_jsonb(t)), '[]'::jsonb) FROM (` +
		`SELECT * FROM "journey_stages" ORDER BY "position" ASC LIMIT $1 OFFSET $2) t`
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs(DefaultQueryLimit, 10).
		WillReturnRows(jsonRow(`[]`))

	out, err := store.Query(context.Background(), &Query{Table: "journey_stages", OrderBy: "position", Ascending: true, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(out))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_RejectsIdentifiers(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	_, err := store.Query(ctx, &Query{Table: "projects; DROP TABLE profiles"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = store.Query(ctx, &Query{Table: "profiles"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = store.Query(ctx, &Query{Table: "projects", Select: []string{"Title"}})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = store.Query(ctx, &Query{Table: "projects", Filters: map[string]any{`a" OR 1=1 --`: 1}})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = store.Query(ctx, &Query{Table: "projects", OrderBy: "random()"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = store.Insert(ctx, "projects", map[string]any{"id": "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = store.Update(ctx, "projects", "p-1", map[string]any{"created_at": "2020-01-01"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = store.Insert(ctx, "projects", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Get(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_jsonb(t) FROM "log_entries" t WHERE t.id = $1 AND t.deleted_at IS NULL`)).
		WithArgs("l-1").
		WillReturnRows(jsonRow(`{"id":"l-1"}`))
	out, err := store.Get(ctx, "log_entries", "l-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"l-1"}`, string(out))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_jsonb(t) FROM "specimens" t WHERE t.id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = store.Get(ctx, "specimens", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Insert(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "studio_hypotheses" AS t ("meta", "statement", "studio_project_id", "tags") VALUES ($1, $2, $3, $4) RETURNING to_jsonb(t)`)).
		WithArgs(`{"k":1}`, "Users want dark mode", "sp-1", pq.Array([]string{"ux", "ui"})).
		WillReturnRows(jsonRow(`{"id":"h-1"}`))

	out, err := store.Insert(context.Background(), "studio_hypotheses", map[string]any{
		"statement":         "Users want dark mode",
		"studio_project_id": "sp-1",
		"tags":              []any{"ux", "ui"},
		"meta":              map[string]any{"k": 1},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"h-1"}`, string(out))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_InsertConstraintViolation(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`INSERT INTO "projects"`).
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "projects_slug_key"`})

	_, err := store.Insert(context.Background(), "projects", map[string]any{"slug": "folio"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "projects_slug_key")
}

func TestSQLStore_UpdateScoped(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "studio_hypotheses" AS t SET "statement" = $1, updated_at = now() WHERE t.id = $2 AND t."studio_project_id" = $3 RETURNING to_jsonb(t)`)).
		WithArgs("y", "h-1", "sp-1").
		WillReturnRows(jsonRow(`{"id":"h-1","statement":"y"}`))

	_, err := store.Update(context.Background(), "studio_hypotheses", "h-1",
		map[string]any{"statement": "y", "updated_at": "ignored"},
		&Scope{Column: "studio_project_id", ProjectID: "sp-1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_Delete(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "projects" AS t SET deleted_at = now(), updated_at = now() WHERE t.id = $1 AND t.deleted_at IS NULL RETURNING to_jsonb(t)`)).
		WithArgs("p-1").
		WillReturnRows(jsonRow(`{"id":"p-1"}`))
	_, err := store.Delete(ctx, "projects", "p-1", nil)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM "cog_images" AS t WHERE t.id = $1 RETURNING to_jsonb(t)`)).
		WithArgs("c-1").
		WillReturnError(sql.ErrNoRows)
	_, err = store.Delete(ctx, "cog_images", "c-1", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_InsertListsByColumnType(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "service_blueprints" AS t ("name", "steps", "tags") VALUES ($1, $2, $3) RETURNING to_jsonb(t)`)).
		WithArgs("Onboarding", `[]`, pq.Array([]string{})).
		WillReturnRows(jsonRow(`{"id":"sb-1","steps":[],"tags":[]}`))

	_, err := store.Insert(context.Background(), "service_blueprints", map[string]any{
		"name":  "Onboarding",
		"steps": []any{},
		"tags":  []any{},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		name       string
		in         any
		jsonColumn bool
		want       any
	}{
		{"string list to text array", []any{"a", "b"}, false, pq.Array([]string{"a", "b"})},
		{"empty list to text array", []any{}, false, pq.Array([]string{})},
		{"mixed list as json", []any{"a", 1.0}, false, `["a",1]`},
		{"string list to jsonb", []any{"a", "b"}, true, `["a","b"]`},
		{"empty list to jsonb", []any{}, true, `[]`},
		{"object", map[string]any{"k": "v"}, false, `{"k":"v"}`},
		{"scalar", "plain", true, "plain"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := encodeValue(tc.in, tc.jsonColumn)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := encodeValue(map[string]any{"bad": math.Inf(1)}, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
