package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/staticsql/cli/internal/config"
	"github.com/satishbabariya/staticsql/generator"
)

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = prev })
	return config.AppFs
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.ExecuteContext(context.Background())
}

func TestGenerateCommand(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "app.yaml", []byte("package: store\noutput: out\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "q.sql", []byte(starterQueries), 0o644))

	require.NoError(t, execute(t, "generate", "q.sql", "--config", "app.yaml", "--models=false"))

	src, err := afero.ReadFile(fs, filepath.Join("out", "queries.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package store")
	assert.Contains(t, string(src), "func CountPeopleFirst(ctx context.Context, db client.Querier) (*CountPeopleFirstRow, error) {")

	exists, err := afero.Exists(fs, filepath.Join("out", "models.go"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateCommandMissingFile(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "app.yaml", []byte("package: store\n"), 0o644))

	err := execute(t, "generate", "nope.sql", "--config", "app.yaml")
	assert.ErrorContains(t, err, "declarations file not found")
}

func TestCheckCommand(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "app.yaml", []byte("queries: q.sql\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "q.sql", []byte(starterQueries), 0o644))

	require.NoError(t, execute(t, "check", "--config", "app.yaml"))

	exists, err := afero.DirExists(fs, "db")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInitCommand(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "app.yaml", []byte("package: store\n"), 0o644))

	require.NoError(t, execute(t, "init", "--yes", "--config", "app.yaml"))

	src, err := afero.ReadFile(fs, "queries.sql")
	require.NoError(t, err)
	assert.Equal(t, starterQueries, string(src))

	saved, err := config.LoadConfig(config.FileName + ".yaml")
	require.NoError(t, err)
	assert.Equal(t, "store", saved.Package)
}

func TestCheckSummary(t *testing.T) {
	fs := useMemFs(t)
	src := starterQueries + "\n-- name: loud\nSELECT upper(name) AS shout FROM person;\n"
	require.NoError(t, afero.WriteFile(fs, "q.sql", []byte(src), 0o644))

	schema, err := generator.NewGenerator(fs, generator.Config{Queries: "q.sql"}).Analyze(context.Background())
	require.NoError(t, err)

	summary := checkSummary(schema)
	assert.Contains(t, summary, "- Migration `create_tables`: 1 statements, 1 tables")
	assert.Contains(t, summary, "- `shout` in `loud`")

	rows := statementRows(schema)
	require.Len(t, rows, 5)
	assert.Equal(t, "insert_person_first", rows[0][0])
	assert.Equal(t, "first", rows[0][1])
}

func TestValidatePackage(t *testing.T) {
	assert.NoError(t, validatePackage("store"))
	assert.Error(t, validatePackage("my-store"))
	assert.Error(t, validatePackage("_"))
	assert.Error(t, validatePackage(42))
}
