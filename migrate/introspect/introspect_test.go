package introspect

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/staticsql/runtime/types"
)

func openMemory(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestInspect(t *testing.T) {
	db := openMemory(t,
		`CREATE TABLE person (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, score REAL, avatar BLOB, age INT DEFAULT 0)`,
		`CREATE VIEW adults AS SELECT id, name FROM person WHERE age >= 18`,
	)

	catalog, err := Inspect(context.Background(), db)
	require.NoError(t, err)

	// sqlite_sequence is hidden
	require.Len(t, catalog.Tables, 2)
	assert.Equal(t, "adults", catalog.Tables[0].Name)
	assert.True(t, catalog.Tables[0].View)
	assert.Equal(t, "person", catalog.Tables[1].Name)
	assert.False(t, catalog.Tables[1].View)

	person, ok := catalog.Table("PERSON")
	require.True(t, ok)
	require.Len(t, person.Columns, 5)

	id, ok := person.Column("id")
	require.True(t, ok)
	assert.Equal(t, 1, id.PrimaryKey)
	assert.Equal(t, types.Integer, id.Type())
	assert.Equal(t, types.NotNull, id.Nullability())

	name, _ := person.Column("name")
	assert.Equal(t, types.Text, name.Type())
	assert.Equal(t, types.NotNull, name.Nullability())

	score, _ := person.Column("score")
	assert.Equal(t, types.Real, score.Type())
	assert.Equal(t, types.Nullable, score.Nullability())

	avatar, _ := person.Column("avatar")
	assert.Equal(t, types.Blob, avatar.Type())

	age, _ := person.Column("age")
	require.NotNil(t, age.DefaultValue)
	assert.Equal(t, "0", *age.DefaultValue)
	assert.Equal(t, 4, age.CID)

	_, ok = catalog.Table("missing")
	assert.False(t, ok)
}

func TestInspectEmpty(t *testing.T) {
	catalog, err := Inspect(context.Background(), openMemory(t))
	require.NoError(t, err)
	assert.Empty(t, catalog.Tables)
}
