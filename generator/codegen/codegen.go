// Package codegen renders typed Go accessors for analyzed SQL statements.
package codegen

import (
	"errors"
	"fmt"
	"go/token"
	"path"

	"github.com/satishbabariya/staticsql/inference"
)

const (
	// DefaultRuntimeImport is the package generated code calls into.
	DefaultRuntimeImport = "github.com/satishbabariya/staticsql/runtime/client"

	QueriesFile = "queries.go"
	ModelsFile  = "models.go"
)

var ErrInvalidPackage = errors.New("package name is not a Go identifier")

// Options control code generation.
type Options struct {
	// Package is the package clause of the generated files.
	Package string
	// RuntimeImport is the import path of the runtime client. The types
	// package is expected next to it.
	RuntimeImport string
	// Version is recorded in the generated-code header.
	Version string
	// Models adds one struct per schema table.
	Models bool
}

// File is one generated source file.
type File struct {
	Name    string
	Content []byte
}

func (o Options) runtimeImport() string {
	if o.RuntimeImport == "" {
		return DefaultRuntimeImport
	}
	return o.RuntimeImport
}

func (o Options) typesImport() string {
	return path.Join(path.Dir(o.runtimeImport()), "types")
}

func (o Options) version() string {
	if o.Version == "" {
		return "(devel)"
	}
	return o.Version
}

// Generate renders the queries file and, when enabled, the models file.
// Identifiers are unique across both files.
func Generate(schema *inference.Schema, opts Options) ([]File, error) {
	if !token.IsIdentifier(opts.Package) || opts.Package == "_" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackage, opts.Package)
	}

	names := newScope("Migrate", "migrations")
	queries, err := GenerateQueries(schema, opts, names)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", QueriesFile, err)
	}
	files := []File{{Name: QueriesFile, Content: queries}}

	if opts.Models && schema.Catalog != nil && len(schema.Catalog.Tables) > 0 {
		models, err := GenerateModels(schema.Catalog, opts, names)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", ModelsFile, err)
		}
		files = append(files, File{Name: ModelsFile, Content: models})
	}
	return files, nil
}
