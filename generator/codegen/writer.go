package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/token"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/staticsql/internal/debug"
)

const headerFormat = "// Code generated by staticsql %s. DO NOT EDIT.\n\n"

var headerPattern = regexp.MustCompile(`(?m)^// Code generated by staticsql (\S+)\. DO NOT EDIT\.$`)

// HeaderVersion returns the generator version recorded in the header of a
// generated file.
func HeaderVersion(src []byte) (string, bool) {
	m := headerPattern.FindSubmatch(src)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// AST helper functions for building Go AST nodes

// newFile creates a new AST file with package declaration
func newFile(packageName string) *ast.File {
	return &ast.File{
		Name:  ast.NewIdent(packageName),
		Decls: []ast.Decl{},
	}
}

// parseType parses a Go type string into an AST expression
func parseType(typeStr string) ast.Expr {
	if strings.HasPrefix(typeStr, "*") {
		return &ast.StarExpr{
			X: parseType(typeStr[1:]),
		}
	}
	if strings.HasPrefix(typeStr, "[]") {
		return &ast.ArrayType{
			Elt: parseType(typeStr[2:]),
		}
	}
	// Handle qualified types (e.g., "context.Context", "client.Row")
	if pkg, name, ok := strings.Cut(typeStr, "."); ok {
		return &ast.SelectorExpr{
			X:   ast.NewIdent(pkg),
			Sel: ast.NewIdent(name),
		}
	}
	return ast.NewIdent(typeStr)
}

// newGenericType instantiates a generic type or function with one argument.
func newGenericType(x ast.Expr, arg ast.Expr) *ast.IndexExpr {
	return &ast.IndexExpr{
		X:     x,
		Index: arg,
	}
}

// newImportSpec creates a new import spec
func newImportSpec(path string) *ast.ImportSpec {
	return &ast.ImportSpec{
		Path: &ast.BasicLit{
			Kind:  token.STRING,
			Value: strconv.Quote(path),
		},
	}
}

// addImports adds import declarations to the file
func addImports(file *ast.File, imports ...*ast.ImportSpec) {
	if len(imports) == 0 {
		return
	}
	specs := make([]ast.Spec, len(imports))
	for i, imp := range imports {
		specs[i] = imp
	}
	file.Decls = append(file.Decls, &ast.GenDecl{
		Tok:   token.IMPORT,
		Specs: specs,
	})
}

// newDoc builds a comment group, one "//" line per entry.
func newDoc(lines ...string) *ast.CommentGroup {
	if len(lines) == 0 {
		return nil
	}
	group := &ast.CommentGroup{}
	for _, line := range lines {
		text := "//"
		if line != "" {
			text += " " + line
		}
		group.List = append(group.List, &ast.Comment{Text: text})
	}
	return group
}

// newStructType creates a new struct type
func newStructType(fields []*ast.Field) *ast.StructType {
	return &ast.StructType{
		Fields: &ast.FieldList{
			List: fields,
		},
	}
}

// newField creates a new struct field
func newField(name string, typeExpr ast.Expr, tag string) *ast.Field {
	field := &ast.Field{
		Names: []*ast.Ident{ast.NewIdent(name)},
		Type:  typeExpr,
	}
	if tag != "" {
		field.Tag = &ast.BasicLit{
			Kind:  token.STRING,
			Value: quote(tag),
		}
	}
	return field
}

// newParam creates a function parameter or result; name may be empty.
func newParam(name string, typeExpr ast.Expr) *ast.Field {
	field := &ast.Field{Type: typeExpr}
	if name != "" {
		field.Names = []*ast.Ident{ast.NewIdent(name)}
	}
	return field
}

// newFieldList wraps parameters or results.
func newFieldList(fields ...*ast.Field) *ast.FieldList {
	return &ast.FieldList{List: fields}
}

// newTypeDecl creates a new type declaration
func newTypeDecl(name string, doc []string, typeExpr ast.Expr) *ast.GenDecl {
	return &ast.GenDecl{
		Doc: newDoc(doc...),
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{
				Name: ast.NewIdent(name),
				Type: typeExpr,
			},
		},
	}
}

// newVarDecl creates a new variable declaration
func newVarDecl(name string, doc []string, value ast.Expr) *ast.GenDecl {
	return &ast.GenDecl{
		Doc: newDoc(doc...),
		Tok: token.VAR,
		Specs: []ast.Spec{
			&ast.ValueSpec{
				Names:  []*ast.Ident{ast.NewIdent(name)},
				Values: []ast.Expr{value},
			},
		},
	}
}

// newFuncDecl creates a new function declaration
func newFuncDecl(name string, doc []string, recv *ast.FieldList, params *ast.FieldList, results *ast.FieldList, body *ast.BlockStmt) *ast.FuncDecl {
	return &ast.FuncDecl{
		Doc:  newDoc(doc...),
		Recv: recv,
		Name: ast.NewIdent(name),
		Type: &ast.FuncType{
			Params:  params,
			Results: results,
		},
		Body: body,
	}
}

// newMethod creates a new method declaration
func newMethod(recvType string, recvName string, name string, doc []string, params *ast.FieldList, results *ast.FieldList, body *ast.BlockStmt) *ast.FuncDecl {
	return newFuncDecl(name, doc, newFieldList(newParam(recvName, parseType(recvType))), params, results, body)
}

// newReturnStmt creates a new return statement
func newReturnStmt(exprs ...ast.Expr) *ast.ReturnStmt {
	return &ast.ReturnStmt{
		Results: exprs,
	}
}

// newStringLit creates a string literal expression
func newStringLit(s string) *ast.BasicLit {
	return &ast.BasicLit{
		Kind:  token.STRING,
		Value: strconv.Quote(s),
	}
}

// newSQLLit keeps SQL readable as a raw string when it can be one.
func newSQLLit(s string) *ast.BasicLit {
	return &ast.BasicLit{
		Kind:  token.STRING,
		Value: quote(s),
	}
}

// newIntLit creates an integer literal expression
func newIntLit(n int) *ast.BasicLit {
	return &ast.BasicLit{
		Kind:  token.INT,
		Value: strconv.Itoa(n),
	}
}

// newBoolLit creates a boolean literal expression
func newBoolLit(b bool) *ast.Ident {
	if b {
		return ast.NewIdent("true")
	}
	return ast.NewIdent("false")
}

// newCallExpr creates a function call expression
func newCallExpr(fun ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{
		Fun:  fun,
		Args: args,
	}
}

// newSelectorExpr creates a selector expression (e.g., a.B)
func newSelectorExpr(x ast.Expr, sel string) *ast.SelectorExpr {
	return &ast.SelectorExpr{
		X:   x,
		Sel: ast.NewIdent(sel),
	}
}

// newCompositeLit creates a composite literal expression
func newCompositeLit(typ ast.Expr, elts []ast.Expr) *ast.CompositeLit {
	return &ast.CompositeLit{
		Type: typ,
		Elts: elts,
	}
}

// newKeyValueExpr creates a key-value expression for struct literals
func newKeyValueExpr(key string, value ast.Expr) *ast.KeyValueExpr {
	return &ast.KeyValueExpr{
		Key:   ast.NewIdent(key),
		Value: value,
	}
}

// newAssignStmt creates an assignment statement
func newAssignStmt(lhs []ast.Expr, tok token.Token, rhs []ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{
		Lhs: lhs,
		Tok: tok,
		Rhs: rhs,
	}
}

// newBlockStmt creates a block statement
func newBlockStmt(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{
		List: stmts,
	}
}

// quote prefers a raw string literal and falls back to an interpreted one.
func quote(s string) string {
	if strings.ContainsAny(s, "`\r") {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

// render prints file behind the generated-code header and gofmts the result.
// Doc comments are only printed when file.Comments is empty.
func render(file *ast.File, fset *token.FileSet, version string) ([]byte, error) {
	debug.Debug("Formatting AST", "file", file.Name.Name, "decl_count", len(file.Decls))
	formatStart := time.Now()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, headerFormat, version)
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, fmt.Errorf("failed to print file: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format file: %w", err)
	}

	debug.Debug("AST formatted successfully", "elapsed", time.Since(formatStart), "bytes", len(out))
	return out, nil
}
