package client

import (
	"context"

	"github.com/satishbabariya/staticsql/migrate/executor"
	"github.com/satishbabariya/staticsql/migrate/history"
)

// Migrate applies the statements of a migration script that this database
// has not applied yet, in order, and records them in the __migrations__
// table. Statements are matched ignoring whitespace. Either every pending
// statement applies or none does.
func (db *DB) Migrate(ctx context.Context, statements []string) error {
	st := &Statement{Name: "migrate"}
	_, err := await(ctx, func(ctx context.Context) (int, error) {
		if db.closed.Load() {
			return 0, execError(st, ErrClosed)
		}
		applied, err := executor.NewMigrationExecutor(db.conn).ExecuteMigrationStatements(ctx, statements)
		if err != nil {
			return 0, execError(st, err)
		}
		return applied, nil
	}, nil)
	return err
}

// AppliedMigrations returns the statements recorded in the __migrations__
// table, oldest first.
func (db *DB) AppliedMigrations(ctx context.Context) ([]history.MigrationRecord, error) {
	st := &Statement{Name: "applied_migrations"}
	return await(ctx, func(ctx context.Context) ([]history.MigrationRecord, error) {
		if db.closed.Load() {
			return nil, execError(st, ErrClosed)
		}
		e := executor.NewMigrationExecutor(db.conn)
		if err := e.EnsureMigrationTable(ctx); err != nil {
			return nil, execError(st, err)
		}
		records, err := e.GetAppliedMigrations(ctx)
		if err != nil {
			return nil, execError(st, err)
		}
		return records, nil
	}, nil)
}

// PendingMigrations returns the statements Migrate would apply, in order.
func (db *DB) PendingMigrations(ctx context.Context, statements []string) ([]string, error) {
	st := &Statement{Name: "pending_migrations"}
	return await(ctx, func(ctx context.Context) ([]string, error) {
		if db.closed.Load() {
			return nil, execError(st, ErrClosed)
		}
		pending, err := executor.NewMigrationExecutor(db.conn).GetPendingMigrations(ctx, statements)
		if err != nil {
			return nil, execError(st, err)
		}
		return pending, nil
	}, nil)
}
