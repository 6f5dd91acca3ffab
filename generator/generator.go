// Package generator runs the staticsql pipeline: it reads a declarations
// file, types every statement against the migration and writes Go code.
package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/satishbabariya/staticsql/generator/codegen"
	"github.com/satishbabariya/staticsql/inference"
	"github.com/satishbabariya/staticsql/internal/debug"
	"github.com/satishbabariya/staticsql/parsing"
)

// Config describes one generation run.
type Config struct {
	// Queries is the path of the declarations file.
	Queries string
	// Output is the directory the generated files are written to.
	Output string
	// Package is the package clause of the generated files.
	Package string
	// RuntimeImport overrides the import path of the runtime client.
	RuntimeImport string
	// Migration names the migration declaration; empty selects the first
	// schema-only declaration.
	Migration string
	// Strict fails the build on unverified types instead of annotating them.
	Strict bool
	// Models emits one struct per schema table.
	Models bool
	// Version is recorded in the generated-code header.
	Version string
}

// Generator generates Go code from a declarations file
type Generator struct {
	fs  afero.Fs
	cfg Config
}

// Result describes a finished run.
type Result struct {
	Schema *inference.Schema
	// Files are the paths written, in order.
	Files []string
}

// NewGenerator creates a new code generator
func NewGenerator(fs afero.Fs, cfg Config) *Generator {
	debug.Debug("Creating new generator", "queries", cfg.Queries, "output", cfg.Output, "package", cfg.Package)
	return &Generator{fs: fs, cfg: cfg}
}

// Analyze reads and types the declarations file without writing anything.
func (g *Generator) Analyze(ctx context.Context) (*inference.Schema, error) {
	debug.Debug("Reading declarations", "path", g.cfg.Queries)
	src, err := afero.ReadFile(g.fs, g.cfg.Queries)
	if err != nil {
		return nil, fmt.Errorf("failed to read declarations: %w", err)
	}

	decls, err := parsing.ParseDeclarations(g.cfg.Queries, string(src))
	if err != nil {
		return nil, inference.NewBuildError(inference.PhaseDeclare, "", "", err)
	}
	debug.Debug("Declarations parsed", "count", len(decls))

	schema, err := inference.Analyze(ctx, decls, inference.Options{
		Migration: g.cfg.Migration,
		Strict:    g.cfg.Strict,
	})
	if err != nil {
		debug.Error("Analysis failed", "error", err)
		return nil, err
	}
	debug.Debug("Analysis completed", "statements", len(schema.Statements), "tables", len(schema.Catalog.Tables))
	return schema, nil
}

// Generate analyzes the declarations and writes the generated files. Either
// every file is replaced or none is.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	debug.Debug("Starting generation", "output", g.cfg.Output)

	schema, err := g.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	files, err := codegen.Generate(schema, codegen.Options{
		Package:       g.cfg.Package,
		RuntimeImport: g.cfg.RuntimeImport,
		Version:       g.cfg.Version,
		Models:        g.cfg.Models,
	})
	if err != nil {
		debug.Error("Code generation failed", "error", err)
		return nil, inference.NewBuildError(inference.PhaseGenerate, "", "", err)
	}

	paths, err := g.writeFiles(files)
	if err != nil {
		debug.Error("Failed to write output", "error", err)
		return nil, inference.NewBuildError(inference.PhaseGenerate, "", "", err)
	}

	debug.Info("Generation completed", "output", g.cfg.Output, "statements", len(schema.Statements), "files", len(paths))
	return &Result{Schema: schema, Files: paths}, nil
}

// writeFiles stages every file next to its target and renames them into
// place once all of them are written. Replaced files are kept as backups
// until every rename succeeded and restored otherwise.
func (g *Generator) writeFiles(files []codegen.File) ([]string, error) {
	if err := g.fs.MkdirAll(g.cfg.Output, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	staged := make([]string, 0, len(files))
	removeStaged := func() {
		for _, tmp := range staged {
			_ = g.fs.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := g.stage(f.Content)
		if err != nil {
			removeStaged()
			return nil, err
		}
		staged = append(staged, tmp)
	}

	paths := make([]string, len(files))
	backups := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(g.cfg.Output, f.Name)
		backup, err := g.backup(paths[i])
		if err != nil {
			g.restore(paths[:i], backups[:i])
			removeStaged()
			return nil, fmt.Errorf("failed to back up %s: %w", paths[i], err)
		}
		backups[i] = backup
		if err := g.fs.Rename(staged[i], paths[i]); err != nil {
			g.restore(paths[:i+1], backups[:i+1])
			removeStaged()
			return nil, fmt.Errorf("failed to replace %s: %w", paths[i], err)
		}
		debug.Debug("File written", "path", paths[i], "bytes", len(f.Content))
	}

	for _, b := range backups {
		if b != "" {
			_ = g.fs.Remove(b)
		}
	}
	return paths, nil
}

// backup moves an existing file out of the way and returns where it went,
// or "" when there was nothing to move.
func (g *Generator) backup(path string) (string, error) {
	if _, err := g.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	dir, name := filepath.Split(path)
	backup := filepath.Join(dir, ".staticsql-"+name+".bak")
	_ = g.fs.Remove(backup)
	if err := g.fs.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// restore puts backups back in place and removes files that did not exist
// before.
func (g *Generator) restore(paths, backups []string) {
	for i, path := range paths {
		_ = g.fs.Remove(path)
		if backups[i] == "" {
			continue
		}
		if err := g.fs.Rename(backups[i], path); err != nil {
			debug.Error("Failed to restore output", "path", path, "error", err)
		}
	}
}

func (g *Generator) stage(content []byte) (string, error) {
	tmp, err := afero.TempFile(g.fs, g.cfg.Output, ".staticsql-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = g.fs.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = g.fs.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}
	return tmp.Name(), nil
}

// OutputVersion returns the generator version recorded in previously
// generated output. found is false when there is no generated output.
func OutputVersion(fs afero.Fs, output string) (version string, found bool, err error) {
	src, err := afero.ReadFile(fs, filepath.Join(output, codegen.QueriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read generated output: %w", err)
	}
	version, found = codegen.HeaderVersion(src)
	return version, found, nil
}
