package executor

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/staticsql/migrate/history"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestExecuteMigrationStatementsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	e := NewMigrationExecutor(db)

	statements := []string{
		"create table item (id integer primary key, name text not null)",
		"create index item_name on item (name)",
	}

	applied, err := e.ExecuteMigrationStatements(ctx, statements)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = e.ExecuteMigrationStatements(ctx, statements)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	// reformatting a statement does not make it new
	statements[0] = "create table item (\n  id integer primary key,\n  name text not null\n)"
	statements = append(statements, "alter table item add column note text")
	applied, err = e.ExecuteMigrationStatements(ctx, statements)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	records, err := e.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "createtableitem(idintegerprimarykey,nametextnotnull)", records[0].Key)
	assert.Equal(t, history.CalculateChecksum("alter table item add column note text"), records[2].Checksum)
	assert.False(t, records[0].AppliedAt.IsZero())
}

func TestExecuteMigrationStatementsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	e := NewMigrationExecutor(db)

	applied, err := e.ExecuteMigrationStatements(ctx, []string{
		"create table item (id integer primary key)",
		"insert into missing values (1)",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement 2")
	assert.Equal(t, 0, applied)

	assert.False(t, tableExists(t, db, "item"))
	records, err := e.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetPendingMigrations(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	e := NewMigrationExecutor(db)

	_, err := e.ExecuteMigrationStatements(ctx, []string{"create table a (id integer primary key)"})
	require.NoError(t, err)

	pending, err := e.GetPendingMigrations(ctx, []string{
		"create table a (id integer primary key)",
		"create table b (id integer primary key)",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"create table b (id integer primary key)"}, pending)
}

func TestHistoryKey(t *testing.T) {
	assert.Equal(t, "createtablea(idint)", history.Key(" create table a (\n\tid int\n)  "))
}
