package inference

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
)

// engineColumn is a result column as the engine describes it.
type engineColumn struct {
	Name     string
	DeclType string
}

// engineMetadata is what preparing a statement tells us.
type engineMetadata struct {
	NumInput int
	Columns  []engineColumn
}

// describe prepares query on conn and reads its parameter count and result
// columns without stepping it. database/sql insists on binding every
// parameter before a query runs, so this goes through the raw driver
// connection.
func describe(ctx context.Context, conn *sql.Conn, query string) (*engineMetadata, error) {
	meta := &engineMetadata{}

	err := conn.Raw(func(dc any) error {
		var (
			stmt driver.Stmt
			err  error
		)
		if pc, ok := dc.(driver.ConnPrepareContext); ok {
			stmt, err = pc.PrepareContext(ctx, query)
		} else if c, ok := dc.(driver.Conn); ok {
			stmt, err = c.Prepare(query)
		} else {
			return ErrNoMetadata
		}
		if err != nil {
			return err
		}
		defer stmt.Close()

		meta.NumInput = stmt.NumInput()

		sq, ok := stmt.(driver.StmtQueryContext)
		if !ok {
			return ErrNoMetadata
		}
		// the SQLite driver binds here and steps only on Next
		rows, err := sq.QueryContext(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to read columns: %w", err)
		}
		defer rows.Close()

		typed, _ := rows.(driver.RowsColumnTypeDatabaseTypeName)
		for i, name := range rows.Columns() {
			col := engineColumn{Name: name}
			if typed != nil {
				col.DeclType = typed.ColumnTypeDatabaseTypeName(i)
			}
			meta.Columns = append(meta.Columns, col)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}
