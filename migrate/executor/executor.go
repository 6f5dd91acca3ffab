// Package executor applies migration statements that a database has not
// seen yet.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/satishbabariya/staticsql/migrate/history"
)

const savepoint = "staticsql_migrate"

// MigrationExecutor executes migrations on a database
type MigrationExecutor struct {
	db      history.DB
	history *history.Manager
}

// NewMigrationExecutor creates a new migration executor. db should be a
// single connection, since the statements run inside one savepoint.
func NewMigrationExecutor(db history.DB) *MigrationExecutor {
	return &MigrationExecutor{
		db:      db,
		history: history.NewManager(db),
	}
}

// ExecuteMigrationStatements runs every statement that is not recorded in
// the history table yet, in order, and records it. Either all pending
// statements apply or none do. It returns how many statements ran.
func (e *MigrationExecutor) ExecuteMigrationStatements(ctx context.Context, statements []string) (applied int, err error) {
	if err := e.EnsureMigrationTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migration table exists: %w", err)
	}

	if _, err := e.db.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return 0, fmt.Errorf("failed to begin migration: %w", err)
	}
	defer func() {
		if err == nil {
			_, err = e.db.ExecContext(ctx, "RELEASE "+savepoint)
			if err != nil {
				err = fmt.Errorf("failed to commit migration: %w", err)
			}
			return
		}
		applied = 0
		_, _ = e.db.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TO "+savepoint)
		_, _ = e.db.ExecContext(context.WithoutCancel(ctx), "RELEASE "+savepoint)
	}()

	for i, stmt := range statements {
		claimed, err := e.history.Claim(ctx, stmt)
		if err != nil {
			return applied, err
		}
		if !claimed {
			continue
		}

		start := time.Now()
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return applied, fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
		if err := e.history.SetExecutionTime(ctx, stmt, time.Since(start)); err != nil {
			return applied, fmt.Errorf("failed to record migration: %w", err)
		}
		applied++
	}

	return applied, nil
}

// EnsureMigrationTable ensures the migration history table exists
func (e *MigrationExecutor) EnsureMigrationTable(ctx context.Context) error {
	return e.history.InitTable(ctx)
}

// GetAppliedMigrations returns the recorded migration statements.
func (e *MigrationExecutor) GetAppliedMigrations(ctx context.Context) ([]history.MigrationRecord, error) {
	return e.history.GetAll(ctx)
}

// GetPendingMigrations returns the statements that have not run yet.
func (e *MigrationExecutor) GetPendingMigrations(ctx context.Context, statements []string) ([]string, error) {
	if err := e.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}
	return e.history.GetPending(ctx, statements)
}
