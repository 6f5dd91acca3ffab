package client

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrClosed        = errors.New("database is closed")
	ErrArgCount      = errors.New("wrong number of arguments")
	ErrTooManyRows   = errors.New("statement returned more than one row")
	ErrRowNotFound   = errors.New("row not found")
	ErrNullValue     = errors.New("NULL in a not-null column")
	ErrTypeMismatch  = errors.New("value does not match the column type")
	ErrColumnMissing = errors.New("result has no such column")
)

// BindError reports an argument that could not be converted to its
// parameter's storage type. Nothing was sent to the engine.
type BindError struct {
	Statement string
	Param     string
	Err       error
}

func (e *BindError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("failed to bind arguments of %s: %v", e.Statement, e.Err)
	}
	return fmt.Sprintf("failed to bind %s of %s: %v", e.Param, e.Statement, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// ExecutionError is an error reported by the engine while preparing or
// running a statement.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Statement, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// IsConstraint reports whether a constraint was violated.
func (e *ExecutionError) IsConstraint() bool {
	var se sqlite3.Error
	return errors.As(e.Err, &se) && se.Code == sqlite3.ErrConstraint
}

// IsUnique reports whether a UNIQUE or PRIMARY KEY constraint was violated.
func (e *ExecutionError) IsUnique() bool {
	var se sqlite3.Error
	if !errors.As(e.Err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func execError(st *Statement, err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	return &ExecutionError{Statement: st.Name, Err: err}
}

// DecodeError reports a result value that does not fit its field.
type DecodeError struct {
	Statement string
	// Row is the zero-based row number within the result.
	Row    int
	Column int
	Name   string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode column %d (%s) of row %d of %s: %v", e.Column, e.Name, e.Row, e.Statement, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ShapeError reports a result with more rows than its shape allows.
type ShapeError struct {
	Statement string
	// Rows is the number of rows read before giving up.
	Rows int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s returned %d or more rows, want at most one", e.Statement, e.Rows)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrTooManyRows
}
