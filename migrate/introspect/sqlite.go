package introspect

import (
	"context"
	"database/sql"
	"fmt"
)

// Inspect reads every user table and view of the database.
func Inspect(ctx context.Context, db Queryer) (*Catalog, error) {
	tables, err := introspectTables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIntrospectionFailed, err)
	}

	for i := range tables {
		columns, err := introspectColumns(ctx, db, tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to introspect columns for %s: %w", ErrIntrospectionFailed, tables[i].Name, err)
		}
		tables[i].Columns = columns
	}

	return &Catalog{Tables: tables}, nil
}

// introspectTables lists tables and views, excluding SQLite internals
func introspectTables(ctx context.Context, db Queryer) ([]Table, error) {
	query := `
		SELECT name, type
		FROM sqlite_master
		WHERE type IN ('table', 'view')
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var table Table
		var kind string
		if err := rows.Scan(&table.Name, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		table.View = kind == "view"
		tables = append(tables, table)
	}

	return tables, rows.Err()
}

// introspectColumns reads all columns for a table using the table_info pragma
func introspectColumns(ctx context.Context, db Queryer, tableName string) ([]Column, error) {
	query := `SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`

	rows, err := db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var notNull int
		var dfltValue sql.NullString

		err := rows.Scan(
			&col.CID,
			&col.Name,
			&col.DeclType,
			&notNull,
			&dfltValue,
			&col.PrimaryKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.NotNull = notNull != 0
		if dfltValue.Valid {
			col.DefaultValue = &dfltValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}
