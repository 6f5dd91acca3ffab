package client

import (
	"database/sql"
	"errors"
	"iter"
)

// Rows is a single-pass sequence of decoded records. It owns its prepared
// statement and releases it on exhaustion, on error, or on Close.
type Rows[T any] struct {
	st     *Statement
	stmt   *sql.Stmt
	rows   *sql.Rows
	decode Decoder[T]
	ncols  int

	index  int
	cur    T
	err    error
	closed bool
}

// Next decodes the next row. It returns false when the rows are exhausted,
// a row failed to decode, or Rows was closed.
func (r *Rows[T]) Next() bool {
	if r.closed {
		return false
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			r.err = execError(r.st, err)
		}
		r.release()
		return false
	}

	row, err := scanRow(r.st, r.rows, r.index, r.ncols)
	if err == nil {
		r.cur, err = r.decode(row)
	}
	if err != nil {
		r.err = err
		r.release()
		return false
	}
	r.index++
	return true
}

// Value returns the record decoded by the last successful Next.
func (r *Rows[T]) Value() T {
	return r.cur
}

// Err returns the error that ended iteration, if any.
func (r *Rows[T]) Err() error {
	return r.err
}

// Close releases the statement. It is safe to call more than once.
func (r *Rows[T]) Close() error {
	return r.release()
}

func (r *Rows[T]) release() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.rows.Close(), r.stmt.Close())
}

// All iterates over the remaining records. Breaking out of the loop closes
// the rows; an error ends the sequence as its last pair.
func (r *Rows[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.cur, nil) {
				return
			}
		}
		if r.err != nil {
			var zero T
			yield(zero, r.err)
		}
	}
}
