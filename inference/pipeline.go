package inference

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/staticsql/internal/debug"
	"github.com/satishbabariya/staticsql/migrate/introspect"
	"github.com/satishbabariya/staticsql/migrate/shadow"
	"github.com/satishbabariya/staticsql/parsing"
)

// Options control the inference pipeline.
type Options struct {
	// Migration names the migration declaration. When empty, the first
	// declaration made only of schema statements is used.
	Migration string
	// Strict turns unverified metadata into build errors.
	Strict bool
}

// Analyze applies the migration declaration to a scratch database and
// types every other declaration against it. The scratch database is gone
// when Analyze returns.
func Analyze(ctx context.Context, decls []parsing.Declaration, opts Options) (*Schema, error) {
	migration, err := selectMigration(decls, opts.Migration)
	if err != nil {
		return nil, err
	}
	debug.Debug("Selected migration", "name", migration.Name, "statements", len(migration.Statements))

	db, err := shadow.New(ctx)
	if err != nil {
		return nil, NewBuildError(PhaseMigrate, migration.Name, migration.Pos.String(), err)
	}
	defer db.Close()

	if err := db.Apply(ctx, migration.Statements); err != nil {
		return nil, NewBuildError(PhaseMigrate, migration.Name, migration.Pos.String(), err)
	}
	catalog, err := db.Catalog(ctx)
	if err != nil {
		return nil, NewBuildError(PhaseMigrate, migration.Name, migration.Pos.String(), err)
	}
	debug.Debug("Scratch schema ready", "tables", len(catalog.Tables))

	schema := &Schema{
		Migration: Migration{Name: migration.Name, Statements: migration.Statements},
		Catalog:   catalog,
	}
	for i := range decls {
		d := &decls[i]
		if d.Name == migration.Name {
			continue
		}

		stmt, err := analyzeDeclaration(ctx, db.Conn(), catalog, d)
		if err != nil {
			return nil, err
		}
		if unverified := stmt.Unverified(); opts.Strict && len(unverified) > 0 {
			return nil, NewBuildError(PhaseInfer, d.Name, stmt.Pos,
				fmt.Errorf("%w: %s", ErrUnverified, strings.Join(unverified, ", ")))
		}
		schema.Statements = append(schema.Statements, *stmt)
	}

	return schema, nil
}

func selectMigration(decls []parsing.Declaration, name string) (*parsing.Declaration, error) {
	if name != "" {
		for i := range decls {
			if decls[i].Name != name {
				continue
			}
			if !decls[i].IsMigration() {
				return nil, NewBuildError(PhaseDeclare, name, decls[i].Pos.String(), ErrNotMigration)
			}
			return &decls[i], nil
		}
		return nil, NewBuildError(PhaseDeclare, name, "", ErrUnknownMigration)
	}

	for i := range decls {
		if decls[i].IsMigration() {
			return &decls[i], nil
		}
	}
	return nil, NewBuildError(PhaseDeclare, "", "", ErrNoMigration)
}

func analyzeDeclaration(ctx context.Context, conn *sql.Conn, catalog *introspect.Catalog, d *parsing.Declaration) (*Statement, error) {
	pos := d.Pos.String()
	if len(d.Statements) != 1 {
		return nil, NewBuildError(PhaseDeclare, d.Name, pos,
			fmt.Errorf("%w: found %d", parsing.ErrMultipleStatements, len(d.Statements)))
	}

	stmt, err := parsing.ParseStatement(d.Pos.Filename, d.Statements[0])
	if err != nil {
		return nil, NewBuildError(PhaseDeclare, d.Name, pos, err)
	}
	placeholders, err := stmt.Placeholders()
	if err != nil {
		return nil, NewBuildError(PhaseDeclare, d.Name, pos, err)
	}

	meta, err := describe(ctx, conn, stmt.SQL)
	if err != nil {
		return nil, NewBuildError(PhasePrepare, d.Name, pos, err)
	}
	if meta.NumInput != len(placeholders) {
		return nil, NewBuildError(PhasePrepare, d.Name, pos,
			fmt.Errorf("%w: found %d named placeholders, engine expects %d", ErrParamCount, len(placeholders), meta.NumInput))
	}

	out := &Statement{
		Name:  d.Name,
		SQL:   stmt.SQL,
		Pos:   pos,
		Shape: ResolveShape(d.Name),
	}
	r := newResolver(catalog, stmt)

	names := newNameSet()
	for _, p := range placeholders {
		m := r.parameter(p)
		name := applyHint(p.Name, &m)
		out.Params = append(out.Params, Parameter{
			Metadata:    m,
			Placeholder: p.Raw,
			BindName:    p.Name,
			Name:        names.add(name),
		})
	}

	origins := r.projectionOrigins(stmt.Projection(), len(meta.Columns))
	lined := origins != nil
	names = newNameSet()
	for i, col := range meta.Columns {
		var o *origin
		if lined {
			o = origins[i]
		}
		m := r.column(col, o, lined)
		name := applyHint(col.Name, &m)
		out.Columns = append(out.Columns, ResultColumn{
			Metadata:   m,
			EngineName: col.Name,
			Name:       names.add(name),
			DeclType:   col.DeclType,
		})
	}

	debug.Debug("Analyzed statement",
		"name", d.Name,
		"kind", stmt.Kind,
		"shape", out.Shape,
		"params", len(out.Params),
		"columns", len(out.Columns))
	return out, nil
}

// nameSet numbers repeated names: id, id2, id3.
type nameSet map[string]bool

func newNameSet() nameSet {
	return make(nameSet)
}

func (s nameSet) add(name string) string {
	key := strings.ToLower(name)
	if !s[key] {
		s[key] = true
		return name
	}
	for n := 2; ; n++ {
		candidate := name + strconv.Itoa(n)
		if !s[strings.ToLower(candidate)] {
			s[strings.ToLower(candidate)] = true
			return candidate
		}
	}
}
