package client

import (
	"context"
	"database/sql"
	"errors"
)

// Decoder turns a result row into a generated record.
type Decoder[T any] func(*Row) (T, error)

// await runs call on its own goroutine and waits for it or for ctx. The
// engine call is not interrupted when ctx ends first; abandon, if set,
// receives its result once it finishes.
func await[R any](ctx context.Context, call func(context.Context) (R, error), abandon func(R)) (R, error) {
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   R
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call(context.WithoutCancel(ctx))
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		if abandon != nil {
			go func() {
				if r := <-done; r.err == nil {
					abandon(r.v)
				}
			}()
		}
		return zero, ctx.Err()
	}
}

// eachRow decodes rows until fn returns false or an error.
func eachRow(st *Statement, rows *sql.Rows, fn func(*Row) (bool, error)) error {
	cols, err := rows.Columns()
	if err != nil {
		return execError(st, err)
	}
	for i := 0; rows.Next(); i++ {
		row, err := scanRow(st, rows, i, len(cols))
		if err != nil {
			return err
		}
		more, err := fn(row)
		if err != nil || !more {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return execError(st, err)
	}
	return nil
}

// Query runs st and decodes every row, in engine order.
func Query[T any](ctx context.Context, db Querier, st *Statement, decode Decoder[T], args ...any) ([]T, error) {
	bound, err := bindArgs(st, args)
	if err != nil {
		return nil, err
	}

	return await(ctx, func(ctx context.Context) ([]T, error) {
		var out []T
		err := db.run(ctx, st, func(stmt *sql.Stmt) error {
			rows, err := stmt.QueryContext(ctx, bound...)
			if err != nil {
				return execError(st, err)
			}
			defer rows.Close()

			return eachRow(st, rows, func(r *Row) (bool, error) {
				v, err := decode(r)
				if err != nil {
					return false, err
				}
				out = append(out, v)
				return true, nil
			})
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}, nil)
}

// QueryFirst runs st and decodes its only row. It returns nil without an
// error when there is no row, and a *ShapeError when there is more than one.
func QueryFirst[T any](ctx context.Context, db Querier, st *Statement, decode Decoder[T], args ...any) (*T, error) {
	bound, err := bindArgs(st, args)
	if err != nil {
		return nil, err
	}

	return await(ctx, func(ctx context.Context) (*T, error) {
		var first *T
		err := db.run(ctx, st, func(stmt *sql.Stmt) error {
			rows, err := stmt.QueryContext(ctx, bound...)
			if err != nil {
				return execError(st, err)
			}
			defer rows.Close()

			return eachRow(st, rows, func(r *Row) (bool, error) {
				if first != nil {
					return false, &ShapeError{Statement: st.Name, Rows: r.index + 1}
				}
				v, err := decode(r)
				if err != nil {
					return false, err
				}
				first = &v
				return true, nil
			})
		})
		if err != nil {
			return nil, err
		}
		return first, nil
	}, nil)
}

// Exec runs a statement that returns no columns.
func Exec(ctx context.Context, db Querier, st *Statement, args ...any) error {
	bound, err := bindArgs(st, args)
	if err != nil {
		return err
	}

	_, err = await(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, db.run(ctx, st, func(stmt *sql.Stmt) error {
			if _, err := stmt.ExecContext(ctx, bound...); err != nil {
				return execError(st, err)
			}
			return nil
		})
	}, nil)
	return err
}

// Stream runs st and returns its rows for decoding one at a time. The
// caller must exhaust or Close the result.
func Stream[T any](ctx context.Context, db Querier, st *Statement, decode Decoder[T], args ...any) (*Rows[T], error) {
	bound, err := bindArgs(st, args)
	if err != nil {
		return nil, err
	}

	return await(ctx, func(ctx context.Context) (*Rows[T], error) {
		// a stream keeps its statement busy, so it never shares a cached one
		stmt, err := db.prepare(ctx, st)
		if err != nil {
			return nil, err
		}
		rows, err := stmt.QueryContext(ctx, bound...)
		if err != nil {
			stmt.Close()
			return nil, execError(st, err)
		}
		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			stmt.Close()
			return nil, execError(st, err)
		}
		return &Rows[T]{st: st, stmt: stmt, rows: rows, decode: decode, ncols: len(cols)}, nil
	}, func(r *Rows[T]) {
		r.Close()
	})
}

// FirstRow returns the first element of a Query result, or ErrRowNotFound.
func FirstRow[T any](rows []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrRowNotFound
	}
	return rows[0], nil
}

// IsNotFound reports whether err is ErrRowNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRowNotFound)
}
