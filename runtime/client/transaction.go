package client

import (
	"context"
	"fmt"
)

// Begin starts a transaction on the connection. Transactions do not nest.
func (db *DB) Begin(ctx context.Context) error {
	return db.exec(ctx, "BEGIN")
}

// Commit commits the open transaction.
func (db *DB) Commit(ctx context.Context) error {
	return db.exec(ctx, "COMMIT")
}

// Rollback discards the open transaction.
func (db *DB) Rollback(ctx context.Context) error {
	return db.exec(ctx, "ROLLBACK")
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(ctx context.Context) error

// Transaction executes fn between Begin and Commit. If fn returns an error
// or panics, the transaction is rolled back.
func (db *DB) Transaction(ctx context.Context, fn TransactionFunc) error {
	if err := db.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = db.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(ctx); err != nil {
		if rbErr := db.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	return db.Commit(ctx)
}
