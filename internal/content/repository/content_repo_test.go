package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio-backend/internal/content/domain"
)

var glossaryCols = []string{"id", "slug", "term", "definition", "status", "tags", "published_at", "created_at", "updated_at"}

func TestLogEntryRepository_Create(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewLogEntryRepository(db)
	now := time.Now()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	pid := projectID

	mock.ExpectQuery(`INSERT INTO log_entries .* COALESCE\(\$4::date, current_date\)`).
		WithArgs("pi-day", "Pi day", "", "2025-03-14", "published", sqlmock.AnyArg(), projectID).
		WillReturnRows(sqlmock.NewRows(logEntryCols).
			AddRow("l-1", "pi-day", "Pi day", "", day, "published", "{}", projectID, now, now))

	e, err := repo.Create(context.Background(), &domain.LogEntryInput{
		Slug: "pi-day", Title: "Pi day", EntryDate: &day, Status: "published", Tags: []string{}, ProjectID: &pid,
	})
	require.NoError(t, err)
	assert.True(t, e.EntryDate.Equal(day))
	require.NotNil(t, e.ProjectID)
	assert.Equal(t, projectID, *e.ProjectID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogEntryRepository_UnknownProject(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewLogEntryRepository(db)

	mock.ExpectQuery(`INSERT INTO log_entries`).
		WillReturnError(&pq.Error{Code: "23503", Message: "insert or update violates foreign key constraint"})

	_, err := repo.Create(context.Background(), &domain.LogEntryInput{Slug: "x", Title: "X", Status: "draft", Tags: []string{}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlossaryRepository_Publish(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewGlossaryRepository(db)
	now := time.Now()

	mock.ExpectQuery(`UPDATE verbivore_entries\s+SET status = 'published', published_at = COALESCE\(published_at, now\(\)\).*WHERE slug = \$1`).
		WithArgs("verbivore").
		WillReturnRows(sqlmock.NewRows(glossaryCols).
			AddRow("g-1", "verbivore", "Verbivore", "One who devours words.", "published", "{}", now, now, now))

	g, err := repo.Publish(context.Background(), "verbivore")
	require.NoError(t, err)
	assert.Equal(t, "published", g.Status)
	require.NotNil(t, g.PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGlossaryRepository_ListDraftHasNoPublishedAt(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewGlossaryRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM verbivore_entries\s+WHERE deleted_at IS NULL.*ORDER BY lower\(term\) ASC`).
		WithArgs("", 50, 0).
		WillReturnRows(sqlmock.NewRows(glossaryCols).
			AddRow("g-2", "apricity", "Apricity", "", "draft", "{}", nil, now, now))

	out, err := repo.List(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Nil(t, out[0].PublishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
