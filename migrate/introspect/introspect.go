// Package introspect reads the schema catalog of a SQLite database.
package introspect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/satishbabariya/staticsql/runtime/types"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Catalog is the set of tables and views in a database.
type Catalog struct {
	Tables []Table
}

// Table is a table or view with its columns in declaration order.
type Table struct {
	Name    string
	View    bool
	Columns []Column
}

// Column is one row of PRAGMA table_info.
type Column struct {
	CID      int
	Name     string
	DeclType string
	NotNull  bool
	// PrimaryKey is the 1-based position in the primary key, 0 if not part of it.
	PrimaryKey   int
	DefaultValue *string
}

// Type returns the storage type implied by the declared type.
func (c Column) Type() types.StorageType {
	return types.Affinity(c.DeclType)
}

// Nullability is NotNull when the column has a NOT NULL constraint or is
// part of the primary key.
func (c Column) Nullability() types.Nullability {
	if c.NotNull || c.PrimaryKey > 0 {
		return types.NotNull
	}
	return types.Nullable
}

// Table looks a table up by name, case-insensitively as SQLite does.
func (c *Catalog) Table(name string) (*Table, bool) {
	for i := range c.Tables {
		if strings.EqualFold(c.Tables[i].Name, name) {
			return &c.Tables[i], true
		}
	}
	return nil, false
}

// Column looks a column up by name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}
