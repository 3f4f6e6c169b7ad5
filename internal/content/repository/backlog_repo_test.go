package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

var (
	backlogCols  = []string{"id", "studio_project_id", "title", "description", "status", "priority", "tags", "created_at", "updated_at"}
	logEntryCols = []string{"id", "slug", "title", "body", "entry_date", "status", "tags", "project_id", "created_at", "updated_at"}
)

func TestBacklogRepository_List(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewBacklogRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM backlog_items\s+WHERE deleted_at IS NULL.*studio_project_id::text = \$2\)\s+ORDER BY priority DESC, created_at DESC`).
		WithArgs("planned", "sp-1", 10, 20).
		WillReturnRows(sqlmock.NewRows(backlogCols).
			AddRow("b-1", "sp-1", "MCP tools", "", "planned", 3, "{}", now, now).
			AddRow("b-2", nil, "Loose idea", "", "planned", 0, "{}", now, now))

	out, err := repo.List(context.Background(), domain.ListFilter{Status: "planned", StudioProjectID: "sp-1", Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].StudioProjectID)
	assert.Equal(t, "sp-1", *out[0].StudioProjectID)
	assert.Nil(t, out[1].StudioProjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBacklogRepository_Promote(t *testing.T) {
	now := time.Now()
	entry := &domain.LogEntryInput{Slug: "mcp-tools", Title: "MCP tools", Status: "draft", Tags: []string{}}

	t.Run("ships item in one transaction", func(t *testing.T) {
		db, mock := setupDB(t)
		repo := NewBacklogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT status FROM backlog_items WHERE id = \$1 AND deleted_at IS NULL FOR UPDATE`).
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("in_progress"))
		mock.ExpectQuery(`INSERT INTO log_entries`).
			WithArgs("mcp-tools", "MCP tools", "", nil, "draft", sqlmock.AnyArg(), nil).
			WillReturnRows(sqlmock.NewRows(logEntryCols).
				AddRow("l-1", "mcp-tools", "MCP tools", "", now, "draft", "{}", nil, now, now))
		mock.ExpectExec(`INSERT INTO backlog_log_entries \(backlog_item_id, log_entry_id\)`).
			WithArgs("b-1", "l-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`UPDATE backlog_items SET status = \$2`).
			WithArgs("b-1", "shipped").
			WillReturnRows(sqlmock.NewRows(backlogCols).
				AddRow("b-1", nil, "MCP tools", "", "shipped", 0, "{}", now, now))
		mock.ExpectCommit()

		out, err := repo.Promote(context.Background(), "b-1", entry)
		require.NoError(t, err)
		assert.Equal(t, "shipped", out.BacklogItem.Status)
		assert.Equal(t, "l-1", out.LogEntry.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already shipped is a conflict", func(t *testing.T) {
		db, mock := setupDB(t)
		repo := NewBacklogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("shipped"))
		mock.ExpectRollback()

		_, err := repo.Promote(context.Background(), "b-1", entry)
		assert.ErrorIs(t, err, domain.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing item", func(t *testing.T) {
		db, mock := setupDB(t)
		repo := NewBacklogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).WithArgs("b-9").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.Promote(context.Background(), "b-9", entry)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lineage failure rolls back", func(t *testing.T) {
		db, mock := setupDB(t)
		repo := NewBacklogRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`FOR UPDATE`).
			WithArgs("b-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("planned"))
		mock.ExpectQuery(`INSERT INTO log_entries`).
			WillReturnRows(sqlmock.NewRows(logEntryCols).
				AddRow("l-1", "mcp-tools", "MCP tools", "", now, "draft", "{}", nil, now, now))
		mock.ExpectExec(`INSERT INTO backlog_log_entries`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.Promote(context.Background(), "b-1", entry)
		assert.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
