package codegen

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/satishbabariya/staticsql/migrate/introspect"
)

// GenerateModels renders one struct per table or view of the catalog, with
// a TableName method. names holds identifiers already taken in the package.
func GenerateModels(catalog *introspect.Catalog, opts Options, names scope) ([]byte, error) {
	file := newFile(opts.Package)

	for _, table := range catalog.Tables {
		name := toPascalCase(table.Name)
		if names[name] {
			name += "Model"
		}
		name = names.add(name)

		fields := newScope()
		list := make([]*ast.Field, 0, len(table.Columns))
		for _, col := range table.Columns {
			goType := col.Type().GoType(col.Nullability())
			list = append(list, newField(fields.add(toPascalCase(col.Name)), parseType(goType), fmt.Sprintf("db:%q", col.Name)))
		}

		kind := "table"
		if table.View {
			kind = "view"
		}
		file.Decls = append(file.Decls, newTypeDecl(name,
			[]string{fmt.Sprintf("%s is a row of the %s %s.", name, table.Name, kind)},
			newStructType(list)))

		body := newBlockStmt(newReturnStmt(newStringLit(table.Name)))
		file.Decls = append(file.Decls, newMethod(name, "", "TableName",
			[]string{fmt.Sprintf("TableName returns the name of the %s %s.", table.Name, kind)},
			newFieldList(),
			newFieldList(newParam("", ast.NewIdent("string"))),
			body))
	}

	return render(file, token.NewFileSet(), opts.version())
}
