package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/staticsql/parsing"
	"github.com/satishbabariya/staticsql/runtime/types"
)

const testMigration = `-- name: migrate
create table person (
  id integer primary key autoincrement,
  name text not null,
  email text,
  score real not null default 0
);
create table friendship (
  person_id integer not null references person(id),
  friend_id integer not null references person(id),
  note text
);
`

func analyze(t *testing.T, src string, opts Options) (*Schema, error) {
	t.Helper()
	decls, err := parsing.ParseDeclarations("queries.sql", testMigration+src)
	require.NoError(t, err)
	return Analyze(context.Background(), decls, opts)
}

func mustAnalyze(t *testing.T, src string) map[string]Statement {
	t.Helper()
	schema, err := analyze(t, src, Options{})
	require.NoError(t, err)
	out := make(map[string]Statement, len(schema.Statements))
	for _, s := range schema.Statements {
		out[s.Name] = s
	}
	return out
}

func assertMeta(t *testing.T, m Metadata, typ types.StorageType, null types.Nullability, source Source) {
	t.Helper()
	assert.Equal(t, typ, m.Type, "type")
	assert.Equal(t, null, m.Nullability, "nullability")
	assert.Equal(t, source, m.Source, "source")
}

func TestParseHint(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
		want TypeHint
	}{
		{name: "id__INTEGER", ok: true, want: TypeHint{Base: "id", Type: types.Integer, Nullability: types.NotNull}},
		{name: "x__REAL__NULLABLE", ok: true, want: TypeHint{Base: "x", Type: types.Real, Nullability: types.Nullable}},
		{name: "data__BLOB__NOT_NULL", ok: true, want: TypeHint{Base: "data", Type: types.Blob, Nullability: types.NotNull}},
		{name: "user__name__TEXT", ok: true, want: TypeHint{Base: "user__name", Type: types.Text, Nullability: types.NotNull}},
		{name: "plain"},
		{name: "__INTEGER"},
		{name: "id__NUMBER"},
		{name: "total__text"},
		{name: "data__blob__not_null"},
		{name: "x__REAL__nullable"},
		{name: "id__INTEGER__MAYBE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseHint(tt.name)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolveShape(t *testing.T) {
	assert.Equal(t, types.FirstOptional, ResolveShape("select_row_first"))
	assert.Equal(t, types.Lazy, ResolveShape("select_rows_stream"))
	assert.Equal(t, types.Collected, ResolveShape("select_rows"))
	assert.Equal(t, types.Collected, ResolveShape("first_rows"))
}

func TestAnalyzeReturningStar(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: insert_person
insert into person (name, email) values (:name, :email) returning *;
`)
	s := stmts["insert_person"]
	require.Len(t, s.Params, 2)
	assert.Equal(t, "name", s.Params[0].Name)
	assertMeta(t, s.Params[0].Metadata, types.Text, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[1].Metadata, types.Text, types.Nullable, SourceColumn)

	require.Len(t, s.Columns, 4)
	assert.Equal(t, []string{"id", "name", "email", "score"}, columnNames(s))
	assertMeta(t, s.Columns[0].Metadata, types.Integer, types.NotNull, SourceColumn)
	assertMeta(t, s.Columns[1].Metadata, types.Text, types.NotNull, SourceColumn)
	assertMeta(t, s.Columns[2].Metadata, types.Text, types.Nullable, SourceColumn)
	assertMeta(t, s.Columns[3].Metadata, types.Real, types.NotNull, SourceColumn)
	assert.Equal(t, &ColumnRef{Table: "person", Column: "id"}, s.Columns[0].Origin)
	assert.Equal(t, types.Collected, s.Shape)
	assert.Empty(t, s.Unverified())
}

func TestAnalyzeHintOverride(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: stats_first
select 1 + 1 as x__REAL__NULLABLE, count(*) as n__INTEGER, max(score) as best from person;
`)
	s := stmts["stats_first"]
	require.Len(t, s.Columns, 3)

	assert.Equal(t, "x", s.Columns[0].Name)
	assert.Equal(t, "x__REAL__NULLABLE", s.Columns[0].EngineName)
	assertMeta(t, s.Columns[0].Metadata, types.Real, types.Nullable, SourceHint)

	assert.Equal(t, "n", s.Columns[1].Name)
	assertMeta(t, s.Columns[1].Metadata, types.Integer, types.NotNull, SourceHint)

	assertMeta(t, s.Columns[2].Metadata, types.Text, types.NotNull, SourceFallback)
	assert.Equal(t, []string{"best"}, s.Unverified())
	assert.Equal(t, types.FirstOptional, s.Shape)
}

func TestAnalyzeParameterPositions(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: update_name
update person set name = :name where id = :id;

-- name: page
select id from person where name like :pattern order by id limit :limit offset :offset;

-- name: ranges
select id from person where score between :lo and :hi or id not in (:a, :b) or :e = email;

-- name: hinted
select id from person where id > :min__INTEGER and :tag__TEXT__NULLABLE is not null;
`)

	s := stmts["update_name"]
	require.Len(t, s.Params, 2)
	assertMeta(t, s.Params[0].Metadata, types.Text, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[1].Metadata, types.Integer, types.NotNull, SourceColumn)
	assert.Empty(t, s.Columns)

	s = stmts["page"]
	require.Len(t, s.Params, 3)
	assertMeta(t, s.Params[0].Metadata, types.Text, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[1].Metadata, types.Integer, types.NotNull, SourceLimit)
	assertMeta(t, s.Params[2].Metadata, types.Integer, types.NotNull, SourceLimit)

	s = stmts["ranges"]
	require.Len(t, s.Params, 5)
	assertMeta(t, s.Params[0].Metadata, types.Real, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[1].Metadata, types.Real, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[2].Metadata, types.Integer, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[3].Metadata, types.Integer, types.NotNull, SourceColumn)
	assertMeta(t, s.Params[4].Metadata, types.Text, types.Nullable, SourceColumn)

	s = stmts["hinted"]
	require.Len(t, s.Params, 2)
	assert.Equal(t, "min", s.Params[0].Name)
	assert.Equal(t, "min__INTEGER", s.Params[0].BindName)
	assert.Equal(t, ":min__INTEGER", s.Params[0].Placeholder)
	assertMeta(t, s.Params[0].Metadata, types.Integer, types.NotNull, SourceHint)
	assert.Equal(t, "tag", s.Params[1].Name)
	assertMeta(t, s.Params[1].Metadata, types.Text, types.Nullable, SourceHint)
}

func TestAnalyzeUntiedParameters(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: by_name
select id from person where lower(name) = lower(:name);

-- name: by_nothing
select id from person where id = abs(:n);
`)

	// tied only by name: copied but unverified
	p := stmts["by_name"].Params[0]
	assertMeta(t, p.Metadata, types.Text, types.NotNull, SourceName)

	byNothing := stmts["by_nothing"]
	p = byNothing.Params[0]
	assertMeta(t, p.Metadata, types.Text, types.NotNull, SourceFallback)
	assert.Equal(t, []string{":n"}, byNothing.Unverified())
}

func TestAnalyzeJoins(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: friends
select p.name, f.note, o.name as friend_name, o.id
from friendship f
join person p on p.id = f.person_id
left join person o on o.id = f.friend_id
where f.person_id = :person_id;
`)
	s := stmts["friends"]
	require.Len(t, s.Params, 1)
	assertMeta(t, s.Params[0].Metadata, types.Integer, types.NotNull, SourceColumn)

	require.Len(t, s.Columns, 4)
	assertMeta(t, s.Columns[0].Metadata, types.Text, types.NotNull, SourceColumn)
	assertMeta(t, s.Columns[1].Metadata, types.Text, types.Nullable, SourceColumn)
	assertMeta(t, s.Columns[2].Metadata, types.Text, types.Nullable, SourceColumn)
	assertMeta(t, s.Columns[3].Metadata, types.Integer, types.Nullable, SourceColumn)
	assert.Equal(t, "friend_name", s.Columns[2].Name)
}

func TestAnalyzeDuplicateNames(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: pairs
select a.id, b.id from person a join person b on b.id > a.id where a.name = :name and b.name = :name__TEXT;
`)
	s := stmts["pairs"]
	assert.Equal(t, []string{"id", "id2"}, columnNames(s))
	require.Len(t, s.Params, 2)
	assert.Equal(t, "name", s.Params[0].Name)
	assert.Equal(t, "name2", s.Params[1].Name)
}

func TestAnalyzeSubqueryColumn(t *testing.T) {
	stmts := mustAnalyze(t, `
-- name: nested
select x from (select name as x from person);
`)
	c := stmts["nested"].Columns[0]
	assert.Equal(t, types.Text, c.Type)
	assert.False(t, c.Source.Verified())
}

func TestAnalyzeDeterministic(t *testing.T) {
	src := `
-- name: all_people_stream
select * from person order by id;

-- name: friends
select * from friendship f join person p on p.id = f.friend_id;
`
	first, err := analyze(t, src, Options{})
	require.NoError(t, err)
	second, err := analyze(t, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.Len(t, first.Statements[1].Columns, 7)
	assert.Equal(t, types.Lazy, first.Statements[0].Shape)
}

func TestAnalyzeStrict(t *testing.T) {
	_, err := analyze(t, `
-- name: by_nothing
select id from person where id = abs(:n);
`, Options{Strict: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnverified)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, PhaseInfer, be.Phase)
	assert.Equal(t, "by_nothing", be.Statement)
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		opts  Options
		phase Phase
		err   error
	}{
		{
			name:  "unknown column",
			src:   "-- name: bad\nselect nope from person;",
			phase: PhasePrepare,
		},
		{
			name:  "two statements",
			src:   "-- name: bad\nselect 1; select 2;",
			phase: PhaseDeclare,
			err:   parsing.ErrMultipleStatements,
		},
		{
			name:  "placeholder count",
			src:   "-- name: bad\nselect id from person where id = :id or id = @id;",
			phase: PhasePrepare,
			err:   ErrParamCount,
		},
		{
			name:  "positional placeholder",
			src:   "-- name: bad\nselect id from person where id = ?;",
			phase: PhaseDeclare,
			err:   parsing.ErrPositionalParam,
		},
		{
			name:  "unknown migration",
			src:   "-- name: ok\nselect 1;",
			opts:  Options{Migration: "schema"},
			phase: PhaseDeclare,
			err:   ErrUnknownMigration,
		},
		{
			name:  "named migration with data statements",
			src:   "-- name: ok\nselect 1;",
			opts:  Options{Migration: "ok"},
			phase: PhaseDeclare,
			err:   ErrNotMigration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyze(t, tt.src, tt.opts)
			require.Error(t, err)

			var be *BuildError
			require.True(t, errors.As(err, &be), "got %T: %v", err, err)
			assert.Equal(t, tt.phase, be.Phase)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestAnalyzeMigrationErrors(t *testing.T) {
	decls, err := parsing.ParseDeclarations("queries.sql", "-- name: only\nselect 1;")
	require.NoError(t, err)
	_, err = Analyze(context.Background(), decls, Options{})
	assert.ErrorIs(t, err, ErrNoMigration)

	decls, err = parsing.ParseDeclarations("queries.sql", `-- name: migrate
create table a (id integer primary key);
create table a (id integer primary key);
`)
	require.NoError(t, err)
	_, err = Analyze(context.Background(), decls, Options{})
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, PhaseMigrate, be.Phase)
}

func TestAnalyzeAlteredSchema(t *testing.T) {
	decls, err := parsing.ParseDeclarations("queries.sql", `-- name: migrate
create table a (id integer primary key, old text);
alter table a add column added blob;
alter table a drop column old;

-- name: all_a
select * from a;
`)
	require.NoError(t, err)
	schema, err := Analyze(context.Background(), decls, Options{})
	require.NoError(t, err)

	require.Len(t, schema.Statements, 1)
	s := schema.Statements[0]
	assert.Equal(t, []string{"id", "added"}, columnNames(s))
	assertMeta(t, s.Columns[1].Metadata, types.Blob, types.Nullable, SourceColumn)
	assert.Equal(t, "migrate", schema.Migration.Name)
	assert.Len(t, schema.Migration.Statements, 3)
}

func TestNameSet(t *testing.T) {
	s := newNameSet()
	assert.Equal(t, "id", s.add("id"))
	assert.Equal(t, "ID2", s.add("ID"))
	assert.Equal(t, "id3", s.add("id"))
	assert.Equal(t, "name", s.add("name"))
}

func columnNames(s Statement) []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}
