package codegen

import (
	"fmt"
	"go/ast"
	"go/token"
	"path"
	"strings"

	"github.com/satishbabariya/staticsql/inference"
	"github.com/satishbabariya/staticsql/internal/debug"
	"github.com/satishbabariya/staticsql/runtime/types"
)

// statementNames are the Go identifiers emitted for one statement.
type statementNames struct {
	Func   string
	Row    string
	Var    string
	Decode string
}

// GenerateQueries renders the migration list, Migrate and one accessor per
// statement. names holds identifiers already taken in the package.
func GenerateQueries(schema *inference.Schema, opts Options, names scope) ([]byte, error) {
	file := newFile(opts.Package)
	lay := newLayout()

	imports := []*ast.ImportSpec{
		newImportSpec("context"),
		namedImport(opts.runtimeImport(), "client"),
	}
	if len(schema.Statements) > 0 {
		imports = append(imports, namedImport(opts.typesImport(), "types"))
	}
	addImports(file, imports...)

	file.Decls = append(file.Decls, buildMigrations(schema.Migration, lay)...)

	for i := range schema.Statements {
		st := &schema.Statements[i]
		n := planNames(st, names)
		debug.Debug("Generating statement", "name", st.Name, "func", n.Func, "shape", st.Shape)

		file.Decls = append(file.Decls, buildDescriptor(st, n, lay))
		if len(st.Columns) > 0 {
			file.Decls = append(file.Decls, buildRowType(st, n), buildDecoder(st, n, lay))
		}
		file.Decls = append(file.Decls, buildAccessor(st, n))
	}

	fset := token.NewFileSet()
	lay.apply(fset, QueriesFile)
	return render(file, fset, opts.version())
}

// namedImport aliases the import when the package name differs from the
// last path element the generated code refers to.
func namedImport(importPath, name string) *ast.ImportSpec {
	spec := newImportSpec(importPath)
	if path.Base(importPath) != name {
		spec.Name = ast.NewIdent(name)
	}
	return spec
}

func planNames(st *inference.Statement, names scope) statementNames {
	fn := names.add(toPascalCase(st.Name))
	n := statementNames{
		Func: fn,
		Var:  names.add(lowerCamel(splitWords(fn)) + "Stmt"),
	}
	if len(st.Columns) > 0 {
		n.Row = names.add(fn + "Row")
		n.Decode = names.add("decode" + fn)
	}
	return n
}

func buildMigrations(m inference.Migration, lay *layout) []ast.Decl {
	elts := make([]ast.Expr, len(m.Statements))
	for i, stmt := range m.Statements {
		elts[i] = newSQLLit(stmt)
	}
	list := lay.block(newCompositeLit(parseType("[]string"), elts))

	migrations := newVarDecl("migrations",
		[]string{fmt.Sprintf("migrations holds the statements of the %s declaration in order.", m.Name)},
		list)

	migrate := newFuncDecl("Migrate",
		[]string{
			"Migrate applies the migration statements that have not been applied to",
			"the database yet. Applied statements are recorded in the database.",
		},
		nil,
		newFieldList(
			newParam("ctx", parseType("context.Context")),
			newParam("db", parseType("*client.DB")),
		),
		newFieldList(newParam("", ast.NewIdent("error"))),
		newBlockStmt(newReturnStmt(
			newCallExpr(newSelectorExpr(ast.NewIdent("db"), "Migrate"), ast.NewIdent("ctx"), ast.NewIdent("migrations")),
		)),
	)
	return []ast.Decl{migrations, migrate}
}

func typesRef(name string) ast.Expr {
	return newSelectorExpr(ast.NewIdent("types"), name)
}

func storageIdent(t types.StorageType) ast.Expr {
	switch t {
	case types.Integer:
		return typesRef("Integer")
	case types.Real:
		return typesRef("Real")
	case types.Blob:
		return typesRef("Blob")
	default:
		return typesRef("Text")
	}
}

func nullabilityIdent(n types.Nullability) ast.Expr {
	if n == types.Nullable {
		return typesRef("Nullable")
	}
	return typesRef("NotNull")
}

func shapeIdent(s types.Shape) ast.Expr {
	switch s {
	case types.FirstOptional:
		return typesRef("FirstOptional")
	case types.Lazy:
		return typesRef("Lazy")
	default:
		return typesRef("Collected")
	}
}

// buildDescriptor emits the client.Statement the runtime binds and decodes
// against.
func buildDescriptor(st *inference.Statement, n statementNames, lay *layout) ast.Decl {
	elts := []ast.Expr{
		newKeyValueExpr("Name", newStringLit(st.Name)),
		newKeyValueExpr("SQL", newSQLLit(st.SQL)),
		newKeyValueExpr("Shape", shapeIdent(st.Shape)),
	}

	if len(st.Params) > 0 {
		params := make([]ast.Expr, len(st.Params))
		for i, p := range st.Params {
			params[i] = newCompositeLit(nil, []ast.Expr{
				newKeyValueExpr("Name", newStringLit(p.Name)),
				newKeyValueExpr("BindName", newStringLit(p.BindName)),
				newKeyValueExpr("Type", storageIdent(p.Type)),
				newKeyValueExpr("Nullability", nullabilityIdent(p.Nullability)),
			})
		}
		elts = append(elts, newKeyValueExpr("Params",
			lay.multiline(newCompositeLit(parseType("[]client.Param"), params))))
	}

	if len(st.Columns) > 0 {
		cols := make([]ast.Expr, len(st.Columns))
		for i, c := range st.Columns {
			cols[i] = newCompositeLit(nil, []ast.Expr{
				newKeyValueExpr("Name", newStringLit(c.Name)),
				newKeyValueExpr("Type", storageIdent(c.Type)),
				newKeyValueExpr("Nullability", nullabilityIdent(c.Nullability)),
				newKeyValueExpr("Verified", newBoolLit(c.Source.Verified())),
			})
		}
		elts = append(elts, newKeyValueExpr("Columns",
			lay.multiline(newCompositeLit(parseType("[]client.Column"), cols))))
	}

	lit := lay.block(newCompositeLit(parseType("client.Statement"), elts))
	return newVarDecl(n.Var, nil, &ast.UnaryExpr{Op: token.AND, X: lit})
}

// unverifiedReason explains metadata that is not tied to the schema.
func unverifiedReason(m inference.Metadata) string {
	switch m.Source {
	case inference.SourceName:
		if m.Origin == nil {
			return "matched by name"
		}
		return fmt.Sprintf("matched by name to %s.%s", m.Origin.Table, m.Origin.Column)
	case inference.SourceEngine:
		return fmt.Sprintf("declared %s without a schema origin, assumed nullable", m.Type)
	default:
		return "no schema origin, defaulted to TEXT NOT NULL"
	}
}

func buildRowType(st *inference.Statement, n statementNames) ast.Decl {
	fields := newScope()
	list := make([]*ast.Field, len(st.Columns))
	for i, c := range st.Columns {
		tag := fmt.Sprintf("db:%q", c.Name)
		field := newField(fields.add(toPascalCase(c.Name)), parseType(c.Type.GoType(c.Nullability)), "")
		if !c.Source.Verified() {
			tag += ` staticsql:"unverified"`
			field.Comment = newDoc("unverified: " + unverifiedReason(c.Metadata))
		}
		field.Tag = &ast.BasicLit{Kind: token.STRING, Value: quote(tag)}
		list[i] = field
	}
	return newTypeDecl(n.Row, []string{fmt.Sprintf("%s is a row returned by %s.", n.Row, n.Func)}, newStructType(list))
}

func rowAccessor(t types.StorageType, nullability types.Nullability) string {
	var name string
	switch t {
	case types.Integer:
		name = "Int64"
	case types.Real:
		name = "Float64"
	case types.Blob:
		name = "Bytes"
	default:
		name = "String"
	}
	if nullability == types.Nullable {
		return "Null" + name
	}
	return name
}

// buildDecoder emits a client.Decoder that reads each column by position.
func buildDecoder(st *inference.Statement, n statementNames, lay *layout) ast.Decl {
	fields := newScope()
	elts := make([]ast.Expr, len(st.Columns))
	for i, c := range st.Columns {
		read := newCallExpr(newSelectorExpr(ast.NewIdent("r"), rowAccessor(c.Type, c.Nullability)), newIntLit(i))
		elts[i] = newKeyValueExpr(fields.add(toPascalCase(c.Name)), read)
	}
	lit := lay.block(newCompositeLit(ast.NewIdent(n.Row), elts))

	body := newBlockStmt(
		newAssignStmt([]ast.Expr{ast.NewIdent("row")}, token.DEFINE, []ast.Expr{lit}),
		newReturnStmt(ast.NewIdent("row"), newCallExpr(newSelectorExpr(ast.NewIdent("r"), "Err"))),
	)
	return newFuncDecl(n.Decode, nil, nil,
		newFieldList(newParam("r", parseType("*client.Row"))),
		newFieldList(newParam("", ast.NewIdent(n.Row)), newParam("", ast.NewIdent("error"))),
		body)
}

func accessorDoc(st *inference.Statement, n statementNames) []string {
	var doc []string
	switch {
	case len(st.Columns) == 0:
		doc = []string{fmt.Sprintf("%s runs %s.", n.Func, st.Name)}
	case st.Shape == types.FirstOptional:
		doc = []string{
			fmt.Sprintf("%s runs %s and returns its row, or nil when there is none.", n.Func, st.Name),
			"More than one row is a *client.ShapeError.",
		}
	case st.Shape == types.Lazy:
		doc = []string{
			fmt.Sprintf("%s runs %s and decodes its rows on demand.", n.Func, st.Name),
			"The rows can be read once and must be closed.",
		}
	default:
		doc = []string{fmt.Sprintf("%s runs %s and returns every row.", n.Func, st.Name)}
	}

	var unverified []string
	for _, p := range st.Params {
		if !p.Source.Verified() {
			unverified = append(unverified, fmt.Sprintf("%s (%s)", p.Placeholder, unverifiedReason(p.Metadata)))
		}
	}
	if len(unverified) > 0 {
		doc = append(doc, "", "Unverified arguments: "+strings.Join(unverified, ", ")+".")
	}
	return doc
}

// buildAccessor emits the exported function for the statement's shape.
func buildAccessor(st *inference.Statement, n statementNames) ast.Decl {
	params := []*ast.Field{
		newParam("ctx", parseType("context.Context")),
		newParam("db", parseType("client.Querier")),
	}
	args := []ast.Expr{ast.NewIdent("ctx"), ast.NewIdent("db"), ast.NewIdent(n.Var)}

	argNames := newScope(n.Var, n.Decode)
	for _, p := range st.Params {
		name := argNames.add(toCamelCase(p.Name))
		params = append(params, newParam(name, parseType(p.Type.GoType(p.Nullability))))
	}
	// decoder goes before the bound values
	if len(st.Columns) > 0 {
		args = append(args, ast.NewIdent(n.Decode))
	}
	for _, field := range params[2:] {
		args = append(args, ast.NewIdent(field.Names[0].Name))
	}

	row := ast.NewIdent(n.Row)
	var helper string
	var results *ast.FieldList
	switch {
	case len(st.Columns) == 0:
		helper = "Exec"
		results = newFieldList(newParam("", ast.NewIdent("error")))
	case st.Shape == types.FirstOptional:
		helper = "QueryFirst"
		results = newFieldList(newParam("", &ast.StarExpr{X: row}), newParam("", ast.NewIdent("error")))
	case st.Shape == types.Lazy:
		helper = "Stream"
		rows := newGenericType(parseType("client.Rows"), ast.NewIdent(n.Row))
		results = newFieldList(newParam("", &ast.StarExpr{X: rows}), newParam("", ast.NewIdent("error")))
	default:
		helper = "Query"
		results = newFieldList(newParam("", &ast.ArrayType{Elt: row}), newParam("", ast.NewIdent("error")))
	}

	var fun ast.Expr = newSelectorExpr(ast.NewIdent("client"), helper)
	if len(st.Columns) > 0 {
		fun = newGenericType(fun, ast.NewIdent(n.Row))
	}
	body := newBlockStmt(newReturnStmt(newCallExpr(fun, args...)))
	return newFuncDecl(n.Func, accessorDoc(st, n), nil, newFieldList(params...), results, body)
}
