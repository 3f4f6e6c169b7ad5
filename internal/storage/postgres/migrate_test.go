package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(ms), 2)
	assert.Equal(t, "001_init", ms[0].Version)
	assert.Equal(t, "002_backlog_log_lineage", ms[1].Version)
	assert.Contains(t, ms[0].SQL, "CREATE TABLE verbivore_entries")
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms, err := Migrations()
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))

	// The first migration is already applied.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(ms[0].Version).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	for _, m := range ms[1:] {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(m.Version).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`.+`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).WithArgs(m.Version).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	applied, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, len(ms)-1, len(applied))
	assert.NotContains(t, applied, ms[0].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
