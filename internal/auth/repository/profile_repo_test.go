package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-studio/folio-backend/internal/auth/domain"
)

var profileCols = []string{"id", "firebase_uid", "email", "display_name", "role", "project_ids", "created_at", "updated_at", "last_login_at"}

func setupProfileRepo(t *testing.T) (*ProfileRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewProfileRepository(db), mock, db
}

func TestProfileRepository_GetByFirebaseUID(t *testing.T) {
	repo, mock, db := setupProfileRepo(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`SELECT id, firebase_uid, email, .* FROM profiles WHERE firebase_uid = \$1`).
			WithArgs("fb-1").
			WillReturnRows(sqlmock.NewRows(profileCols).
				AddRow("p-1", "fb-1", "me@example.com", "Me", "collaborator", "{proj-a,proj-b}", now, now, nil))

		p, err := repo.GetByFirebaseUID(ctx, "fb-1")
		require.NoError(t, err)
		assert.Equal(t, "p-1", p.ID)
		assert.Equal(t, "collaborator", p.Role)
		assert.Equal(t, []string{"proj-a", "proj-b"}, p.ProjectIDs)
		require.NotNil(t, p.DisplayName)
		assert.Equal(t, "Me", *p.DisplayName)
		assert.Nil(t, p.LastLoginAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM profiles WHERE firebase_uid`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByFirebaseUID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProfileRepository_Upsert(t *testing.T) {
	repo, mock, db := setupProfileRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO profiles .* ON CONFLICT \(firebase_uid\) DO UPDATE`).
		WithArgs("fb-1", "me@example.com", nil, "admin").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("p-1", "fb-1", "me@example.com", nil, "admin", "{}", now, now, now))

	p, err := repo.Upsert(context.Background(), &domain.SyncProfileRequest{FirebaseUID: "fb-1", Email: "me@example.com"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)
	assert.Empty(t, p.ProjectIDs)
	assert.NotNil(t, p.LastLoginAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_SetRole(t *testing.T) {
	repo, mock, db := setupProfileRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`UPDATE profiles\s+SET role = \$2, project_ids = \$3`).
		WithArgs("p-2", "collaborator", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("p-2", "fb-2", "c@example.com", nil, "collaborator", "{proj-a}", now, now, nil))

	p, err := repo.SetRole(context.Background(), "p-2", "collaborator", []string{"proj-a"})
	require.NoError(t, err)
	assert.True(t, p.HasProject("proj-a"))
	assert.False(t, p.HasProject("proj-b"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Count(t *testing.T) {
	repo, mock, db := setupProfileRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
