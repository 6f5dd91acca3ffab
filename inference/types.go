// Package inference derives the parameter and result types of SQL statements
// from a migration script applied to a scratch database.
package inference

import (
	"github.com/satishbabariya/staticsql/migrate/introspect"
	"github.com/satishbabariya/staticsql/runtime/types"
)

// Source records where a piece of metadata came from.
type Source int

const (
	// SourceFallback is the Text/NotNull default for values nothing could type.
	SourceFallback Source = iota
	// SourceColumn means the value is tied to a schema column by its position.
	SourceColumn
	// SourceLimit is a LIMIT or OFFSET operand.
	SourceLimit
	// SourceHint means a type hint decided the metadata.
	SourceHint
	// SourceName means the name matched a column of a referenced table.
	SourceName
	// SourceEngine means the engine reported a declared type but no origin.
	SourceEngine
)

func (s Source) String() string {
	switch s {
	case SourceColumn:
		return "column"
	case SourceLimit:
		return "limit"
	case SourceHint:
		return "hint"
	case SourceName:
		return "name"
	case SourceEngine:
		return "engine"
	default:
		return "fallback"
	}
}

// Verified reports whether the metadata is backed by the schema or a hint
// rather than a guess.
func (s Source) Verified() bool {
	switch s {
	case SourceColumn, SourceLimit, SourceHint:
		return true
	}
	return false
}

// ColumnRef names a schema column.
type ColumnRef struct {
	Table  string
	Column string
}

// Metadata is the inferred type of a parameter or result column.
type Metadata struct {
	Type        types.StorageType
	Nullability types.Nullability
	Source      Source
	Origin      *ColumnRef
}

func fallback() Metadata {
	return Metadata{Type: types.Text, Nullability: types.NotNull, Source: SourceFallback}
}

func fromColumn(table string, col *introspect.Column, source Source) Metadata {
	return Metadata{
		Type:        col.Type(),
		Nullability: col.Nullability(),
		Source:      source,
		Origin:      &ColumnRef{Table: table, Column: col.Name},
	}
}

// Parameter is a named placeholder of a statement.
type Parameter struct {
	Metadata
	// Placeholder is the text as written, e.g. ":id__INTEGER".
	Placeholder string
	// BindName is the name the value is bound under, e.g. "id__INTEGER".
	BindName string
	// Name is the hint-free name used for the generated argument.
	Name string
}

// ResultColumn is one column of a statement's result, in engine order.
type ResultColumn struct {
	Metadata
	// EngineName is the column name the engine reports.
	EngineName string
	// Name is the hint-free name used for the generated field.
	Name string
	// DeclType is the declared type the engine reports, if any.
	DeclType string
}

// Statement is a fully typed, named statement.
type Statement struct {
	Name    string
	SQL     string
	Pos     string
	Shape   types.Shape
	Params  []Parameter
	Columns []ResultColumn
}

// Unverified returns the names of parameters and columns whose types are
// guesses.
func (s *Statement) Unverified() []string {
	var names []string
	for _, p := range s.Params {
		if !p.Source.Verified() {
			names = append(names, p.Placeholder)
		}
	}
	for _, c := range s.Columns {
		if !c.Source.Verified() {
			names = append(names, c.EngineName)
		}
	}
	return names
}

// Migration is the designated migration declaration.
type Migration struct {
	Name       string
	Statements []string
}

// Schema is the output of the inference pipeline.
type Schema struct {
	Migration  Migration
	Catalog    *introspect.Catalog
	Statements []Statement
}
