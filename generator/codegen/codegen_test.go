package codegen

import (
	"go/format"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/staticsql/inference"
	"github.com/satishbabariya/staticsql/migrate/introspect"
	"github.com/satishbabariya/staticsql/runtime/types"
)

func column(table, name string, t types.StorageType, n types.Nullability) inference.Metadata {
	return inference.Metadata{
		Type:        t,
		Nullability: n,
		Source:      inference.SourceColumn,
		Origin:      &inference.ColumnRef{Table: table, Column: name},
	}
}

func testSchema() *inference.Schema {
	return &inference.Schema{
		Migration: inference.Migration{
			Name: "create_tables",
			Statements: []string{
				"CREATE TABLE person (\n  id INTEGER PRIMARY KEY,\n  name TEXT NOT NULL,\n  email TEXT\n)",
			},
		},
		Catalog: &introspect.Catalog{Tables: []introspect.Table{{
			Name: "person",
			Columns: []introspect.Column{
				{CID: 0, Name: "id", DeclType: "INTEGER", PrimaryKey: 1},
				{CID: 1, Name: "name", DeclType: "TEXT", NotNull: true},
				{CID: 2, Name: "email", DeclType: "TEXT"},
			},
		}}},
		Statements: []inference.Statement{
			{
				Name:  "get_person_first",
				SQL:   "SELECT id, name, email FROM person WHERE id = :id",
				Shape: types.FirstOptional,
				Params: []inference.Parameter{
					{Metadata: column("person", "id", types.Integer, types.NotNull), Placeholder: ":id", BindName: "id", Name: "id"},
				},
				Columns: []inference.ResultColumn{
					{Metadata: column("person", "id", types.Integer, types.NotNull), EngineName: "id", Name: "id", DeclType: "INTEGER"},
					{Metadata: column("person", "name", types.Text, types.NotNull), EngineName: "name", Name: "name", DeclType: "TEXT"},
					{Metadata: column("person", "email", types.Text, types.Nullable), EngineName: "email", Name: "email", DeclType: "TEXT"},
				},
			},
			{
				Name:  "list_people",
				SQL:   "SELECT name, count(*) AS total FROM person GROUP BY name",
				Shape: types.Collected,
				Columns: []inference.ResultColumn{
					{Metadata: column("person", "name", types.Text, types.NotNull), EngineName: "name", Name: "name", DeclType: "TEXT"},
					{
						Metadata:   inference.Metadata{Type: types.Text, Nullability: types.NotNull, Source: inference.SourceFallback},
						EngineName: "total",
						Name:       "total",
					},
				},
			},
			{
				Name:  "people_stream",
				SQL:   "SELECT score__REAL__NULLABLE FROM person",
				Shape: types.Lazy,
				Columns: []inference.ResultColumn{
					{
						Metadata:   inference.Metadata{Type: types.Real, Nullability: types.Nullable, Source: inference.SourceHint},
						EngineName: "score__REAL__NULLABLE",
						Name:       "score",
					},
				},
			},
			{
				Name:  "rename_person",
				SQL:   "UPDATE person SET name = :name WHERE id = :id AND :type = 'x'",
				Shape: types.Collected,
				Params: []inference.Parameter{
					{Metadata: column("person", "name", types.Text, types.NotNull), Placeholder: ":name", BindName: "name", Name: "name"},
					{Metadata: column("person", "id", types.Integer, types.NotNull), Placeholder: ":id", BindName: "id", Name: "id"},
					{
						Metadata:    inference.Metadata{Type: types.Text, Nullability: types.NotNull, Source: inference.SourceFallback},
						Placeholder: ":type",
						BindName:    "type",
						Name:        "type",
					},
				},
			},
		},
	}
}

func generate(t *testing.T, schema *inference.Schema) map[string]string {
	t.Helper()
	files, err := Generate(schema, Options{Package: "db", Version: "v1.2.3", Models: true})
	require.NoError(t, err)

	out := make(map[string]string, len(files))
	for _, f := range files {
		fset := token.NewFileSet()
		_, err := parser.ParseFile(fset, f.Name, f.Content, parser.ParseComments)
		require.NoError(t, err, "generated %s does not parse:\n%s", f.Name, f.Content)

		formatted, err := format.Source(f.Content)
		require.NoError(t, err)
		assert.Equal(t, string(formatted), string(f.Content), "%s is not gofmt-formatted", f.Name)

		out[f.Name] = string(f.Content)
	}
	return out
}

func TestGenerateQueries(t *testing.T) {
	src := generate(t, testSchema())[QueriesFile]

	assert.True(t, strings.HasPrefix(src, "// Code generated by staticsql v1.2.3. DO NOT EDIT.\n\npackage db\n"))
	assert.Contains(t, src, `"github.com/satishbabariya/staticsql/runtime/client"`)
	assert.Contains(t, src, `"github.com/satishbabariya/staticsql/runtime/types"`)

	assert.Contains(t, src, "func Migrate(ctx context.Context, db *client.DB) error {\n\treturn db.Migrate(ctx, migrations)\n}")
	assert.Contains(t, src, "var migrations = []string{\n\t`CREATE TABLE person (\n  id INTEGER PRIMARY KEY,")

	assert.Contains(t, src, "var getPersonFirstStmt = &client.Statement{\n")
	assert.Regexp(t, `\n\tShape:\s+types\.FirstOptional,\n`, src)
	assert.Regexp(t, `\n\tSQL:\s+`+"`SELECT id, name, email FROM person WHERE id = :id`", src)
	assert.Contains(t, src, `{Name: "id", BindName: "id", Type: types.Integer, Nullability: types.NotNull},`)
	assert.Contains(t, src, `{Name: "email", Type: types.Text, Nullability: types.Nullable, Verified: true},`)

	assert.Regexp(t, `type GetPersonFirstRow struct \{\n\tID\s+int64\s+`+"`"+`db:"id"`+"`", src)
	assert.Regexp(t, `\n\tEmail\s+\*string\s+`+"`"+`db:"email"`+"`", src)
	assert.Contains(t, src, "func decodeGetPersonFirst(r *client.Row) (GetPersonFirstRow, error) {")
	assert.Regexp(t, `\n\t\tEmail:\s+r\.NullString\(2\),\n`, src)
	assert.Contains(t, src, "\treturn row, r.Err()\n")

	assert.Contains(t, src, "// GetPersonFirst runs get_person_first and returns its row, or nil when there is none.")
	assert.Contains(t, src, "func GetPersonFirst(ctx context.Context, db client.Querier, id int64) (*GetPersonFirstRow, error) {")
	assert.Contains(t, src, "return client.QueryFirst[GetPersonFirstRow](ctx, db, getPersonFirstStmt, decodeGetPersonFirst, id)")

	assert.Contains(t, src, "func ListPeople(ctx context.Context, db client.Querier) ([]ListPeopleRow, error) {")
	assert.Contains(t, src, "return client.Query[ListPeopleRow](ctx, db, listPeopleStmt, decodeListPeople)")

	assert.Contains(t, src, "func PeopleStream(ctx context.Context, db client.Querier) (*client.Rows[PeopleStreamRow], error) {")
	assert.Contains(t, src, "return client.Stream[PeopleStreamRow](ctx, db, peopleStreamStmt, decodePeopleStream)")
	assert.Regexp(t, `\n\tScore\s+\*float64\s+`+"`"+`db:"score"`+"`", src)
	assert.Contains(t, src, "r.NullFloat64(0)")
}

func TestGenerateExecOnly(t *testing.T) {
	src := generate(t, testSchema())[QueriesFile]

	assert.Contains(t, src, "func RenamePerson(ctx context.Context, db client.Querier, name string, id int64, type_ string) error {")
	assert.Contains(t, src, "return client.Exec(ctx, db, renamePersonStmt, name, id, type_)")
	assert.NotContains(t, src, "RenamePersonRow")
	assert.NotContains(t, src, "decodeRenamePerson")
	assert.Contains(t, src, "// Unverified arguments: :type (no schema origin, defaulted to TEXT NOT NULL).")
}

func TestGenerateUnverifiedColumn(t *testing.T) {
	src := generate(t, testSchema())[QueriesFile]

	assert.Regexp(t, `\n\tTotal\s+string\s+`+"`"+`db:"total" staticsql:"unverified"`+"`"+`\s+// unverified: no schema origin, defaulted to TEXT NOT NULL\n`, src)
	assert.Contains(t, src, `{Name: "total", Type: types.Text, Nullability: types.NotNull, Verified: false},`)
}

func TestGenerateModels(t *testing.T) {
	src := generate(t, testSchema())[ModelsFile]

	assert.Contains(t, src, "// Person is a row of the person table.\ntype Person struct {")
	assert.Regexp(t, `\n\tID\s+int64\s+`+"`"+`db:"id"`+"`", src)
	assert.Regexp(t, `\n\tName\s+string\s+`+"`"+`db:"name"`+"`", src)
	assert.Regexp(t, `\n\tEmail\s+\*string\s+`+"`"+`db:"email"`+"`", src)
	assert.Contains(t, src, "func (Person) TableName() string {\n\treturn \"person\"\n}")
}

func TestGenerateModelsDisabled(t *testing.T) {
	files, err := Generate(testSchema(), Options{Package: "db"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, QueriesFile, files[0].Name)
	assert.True(t, strings.HasPrefix(string(files[0].Content), "// Code generated by staticsql (devel). DO NOT EDIT."))
}

func TestGenerateDeterministic(t *testing.T) {
	first := generate(t, testSchema())
	second := generate(t, testSchema())
	assert.Equal(t, first, second)
}

func TestGenerateNameCollisions(t *testing.T) {
	schema := testSchema()
	schema.Statements = append(schema.Statements, inference.Statement{
		Name:  "person",
		SQL:   "SELECT id, id AS id2 FROM person",
		Shape: types.Collected,
		Columns: []inference.ResultColumn{
			{Metadata: column("person", "id", types.Integer, types.NotNull), EngineName: "id", Name: "id"},
			{Metadata: column("person", "id", types.Integer, types.NotNull), EngineName: "ID", Name: "ID"},
		},
	})

	out := generate(t, schema)
	assert.Contains(t, out[QueriesFile], "func Person(ctx context.Context, db client.Querier) ([]PersonRow, error) {")
	assert.Regexp(t, `\n\tID2\s+int64\s+`+"`"+`db:"ID"`+"`", out[QueriesFile])
	assert.Contains(t, out[ModelsFile], "type PersonModel struct {")
}

func TestGenerateCustomRuntimeImport(t *testing.T) {
	files, err := Generate(testSchema(), Options{Package: "store", RuntimeImport: "example.com/rt/sqlclient"})
	require.NoError(t, err)

	src := string(files[0].Content)
	assert.Contains(t, src, `client "example.com/rt/sqlclient"`)
	assert.Contains(t, src, `"example.com/rt/types"`)
	assert.Contains(t, src, "package store")
}

func TestGenerateInvalidPackage(t *testing.T) {
	for _, pkg := range []string{"", "my-db", "func", "_"} {
		_, err := Generate(testSchema(), Options{Package: pkg})
		assert.ErrorIs(t, err, ErrInvalidPackage, pkg)
	}
}

func TestGenerateBacktickSQL(t *testing.T) {
	schema := testSchema()
	schema.Statements = []inference.Statement{{
		Name:  "touch",
		SQL:   "UPDATE `person` SET name = name",
		Shape: types.Collected,
	}}

	src := generate(t, schema)[QueriesFile]
	assert.Contains(t, src, `"UPDATE `+"`person`"+` SET name = name"`)
}

func TestHeaderVersion(t *testing.T) {
	src := generate(t, testSchema())[QueriesFile]
	v, ok := HeaderVersion([]byte(src))
	require.True(t, ok)
	assert.Equal(t, "v1.2.3", v)

	_, ok = HeaderVersion([]byte("package db\n"))
	assert.False(t, ok)
}

func TestNaming(t *testing.T) {
	pascal := map[string]string{
		"user_id":              "UserID",
		"get_user_by_id_first": "GetUserByIDFirst",
		"createdAt":            "CreatedAt",
		"HTTPServer":           "HTTPServer",
		"count(*)":             "Count",
		"2fa":                  "X2fa",
		"api_url":              "APIURL",
	}
	for in, want := range pascal {
		assert.Equal(t, want, toPascalCase(in), in)
	}

	camel := map[string]string{
		"user_id": "userID",
		"ID":      "id",
		"Name":    "name",
		"type":    "type_",
		"ctx":     "ctx_",
		"range":   "range_",
	}
	for in, want := range camel {
		assert.Equal(t, want, toCamelCase(in), in)
	}

	s := newScope("Migrate")
	assert.Equal(t, "Migrate2", s.add("Migrate"))
	assert.Equal(t, "Other", s.add("Other"))
	assert.Equal(t, "Other2", s.add("Other"))
}
