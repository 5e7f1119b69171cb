package warehouse_test

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/pkg/warehouse"
)

func quietLogger() *logging.Logger {
	logger := logging.New(false, true)
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func TestQueryMaterializesRows(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM widgets").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("alpha")).
			AddRow(int64(2), []byte("beta")))

	w := warehouse.New(db, warehouse.DriverPostgres, quietLogger())
	rows, err := w.Query(context.Background(), "SELECT id, name FROM widgets")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "alpha", rows[0]["name"], "byte slices come back as strings")
	assert.Equal(t, "beta", rows[1]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorCarriesDriverContext(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1").WillReturnError(
		assert.AnError)

	w := warehouse.New(db, warehouse.DriverMySQL, quietLogger())
	_, err = w.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql warehouse error during query")
}

func TestLoadPostgresUsesCopy(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	copyStmt := pq.CopyIn("events", "id", "name")
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(copyStmt)
	prep.ExpectExec().WithArgs(int64(1), "alpha").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(int64(2), "beta").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	w := warehouse.New(db, warehouse.DriverPostgres, quietLogger())
	err = w.Load(context.Background(), "events", []string{"id", "name"}, [][]any{
		{int64(1), "alpha"},
		{int64(2), "beta"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadMySQLUsesMultiRowInsert(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events (id, name) VALUES (?,?), (?,?)").
		WithArgs(int64(1), "alpha", int64(2), "beta").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w := warehouse.New(db, warehouse.DriverMySQL, quietLogger())
	err = w.Load(context.Background(), "events", []string{"id", "name"}, [][]any{
		{int64(1), "alpha"},
		{int64(2), "beta"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events (id) VALUES (?)").
		WithArgs(int64(1)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	w := warehouse.New(db, warehouse.DriverMySQL, quietLogger())
	err = w.Load(context.Background(), "events", []string{"id"}, [][]any{{int64(1)}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadEmptyRowsIsNoOp(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	w := warehouse.New(db, warehouse.DriverPostgres, quietLogger())
	require.NoError(t, w.Load(context.Background(), "events", []string{"id"}, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewJobID(t *testing.T) {
	t.Parallel()

	id := warehouse.NewJobID("load")
	assert.Regexp(t, regexp.MustCompile(`^load_\d{8}T\d{6}_[0-9a-f]{8}$`), id)

	other := warehouse.NewJobID("load")
	assert.NotEqual(t, id, other, "ids carry a random suffix")
	assert.True(t, strings.HasPrefix(id, "load_"))
}
