package migrations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todolist/internal/dbx"
	"github.com/dmitrijs2005/todolist/internal/logging"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := dbx.Open(dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func writeScripts(t *testing.T, scripts map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func recorded(t *testing.T, db *sqlx.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Select(&names, `SELECT name FROM migrations ORDER BY name`))
	return names
}

func tableExists(t *testing.T, db *sqlx.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name))
	return n > 0
}

func TestRun_AppliesInNameOrder(t *testing.T) {
	db := newSQLite(t)
	dir := writeScripts(t, map[string]string{
		"20240102-000000_b.sql": "INSERT INTO seq (step) VALUES ('b');",
		"20240101-000000_a.sql": "CREATE TABLE seq (n INTEGER PRIMARY KEY AUTOINCREMENT, step TEXT NOT NULL);",
		"20240103-000000_c.sql": "INSERT INTO seq (step) VALUES ('c');",
		"README.md":             "not a migration",
	})

	applied, err := NewRunner(db, dir, logging.Nop{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"20240101-000000_a.sql", "20240102-000000_b.sql", "20240103-000000_c.sql"}, applied)

	var steps []string
	require.NoError(t, db.Select(&steps, `SELECT step FROM seq ORDER BY n`))
	assert.Equal(t, []string{"b", "c"}, steps)
	assert.Equal(t, applied, recorded(t, db))
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	db := newSQLite(t)
	dir := writeScripts(t, map[string]string{
		"1_create.sql": "CREATE TABLE things (id INTEGER);",
		"2_seed.sql":   "INSERT INTO things (id) VALUES (1);",
	})
	r := NewRunner(db, dir, logging.Nop{})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	var before []time.Time
	require.NoError(t, db.Select(&before, `SELECT migrated_on FROM migrations ORDER BY name`))

	r.now = func() time.Time { return time.Now().Add(time.Hour) }
	applied, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)

	var after []time.Time
	require.NoError(t, db.Select(&after, `SELECT migrated_on FROM migrations ORDER BY name`))
	assert.Equal(t, before, after)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM things`))
	assert.Equal(t, 1, n)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	db := newSQLite(t)
	dir := writeScripts(t, map[string]string{
		"a.sql": "CREATE TABLE a (id INTEGER);",
		"b.sql": "CREATE TABLE b (id INTEGER);\nINSERT INTO missing (id) VALUES (1);",
		"c.sql": "CREATE TABLE c (id INTEGER);",
	})

	applied, err := NewRunner(db, dir, logging.Nop{}).Run(context.Background())
	require.Error(t, err)

	var me *MigrationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "b.sql", me.Name)
	assert.Equal(t, []string{"a.sql"}, applied)

	assert.Equal(t, []string{"a.sql"}, recorded(t, db))
	assert.True(t, tableExists(t, db, "a"))
	assert.False(t, tableExists(t, db, "b"), "failed script must be rolled back")
	assert.False(t, tableExists(t, db, "c"), "scripts after a failure must not run")
}

func TestRun_EmptyScriptFails(t *testing.T) {
	db := newSQLite(t)
	dir := writeScripts(t, map[string]string{
		"a.sql": "  \n\t",
	})

	_, err := NewRunner(db, dir, logging.Nop{}).Run(context.Background())

	var me *MigrationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "a.sql", me.Name)
	assert.ErrorIs(t, err, errEmptyScript)
	assert.Empty(t, recorded(t, db))
}

func TestRun_NoScripts(t *testing.T) {
	db := newSQLite(t)

	applied, err := NewRunner(db, t.TempDir(), logging.Nop{}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.True(t, tableExists(t, db, "migrations"))
}

func TestRun_MissingDir(t *testing.T) {
	db := newSQLite(t)

	_, err := NewRunner(db, filepath.Join(t.TempDir(), "nope"), logging.Nop{}).Run(context.Background())

	var me *MigrationError
	require.True(t, errors.As(err, &me))
	assert.Empty(t, me.Name)
}

func TestRun_PostgresBindVars(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, dbx.DriverPostgres)

	dir := writeScripts(t, map[string]string{"a.sql": "CREATE TABLE a (id TEXT);"})
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)^CREATE TABLE IF NOT EXISTS migrations`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM migrations WHERE name = \$1$`).
		WithArgs("a.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id TEXT);")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^INSERT INTO migrations \(id, name, migrated_on\) VALUES \(\$1, \$2, \$3\)$`).
		WithArgs(sqlmock.AnyArg(), "a.sql", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewRunner(db, dir, logging.Nop{})
	r.now = func() time.Time { return now }

	applied, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
