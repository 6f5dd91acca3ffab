package client

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/satishbabariya/staticsql/runtime/types"
)

// Row is one result row being decoded. Accessors return the zero value
// after the first failure, which Err reports.
type Row struct {
	st     *Statement
	index  int
	values []any
	err    error
}

// Err returns the first decoding failure.
func (r *Row) Err() error {
	return r.err
}

func (r *Row) fail(col int, err error) {
	if r.err == nil {
		r.err = &DecodeError{
			Statement: r.st.Name,
			Row:       r.index,
			Column:    col,
			Name:      r.st.columnName(col),
			Err:       err,
		}
	}
}

func (r *Row) value(col int) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	if col < 0 || col >= len(r.values) {
		r.fail(col, fmt.Errorf("%w: %d of %d", ErrColumnMissing, col, len(r.values)))
		return nil, false
	}
	return r.values[col], true
}

func mismatch(v any, t types.StorageType) error {
	return fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, t)
}

// Int64 decodes a not-null Integer column.
func (r *Row) Int64(col int) int64 {
	if p := r.NullInt64(col); p != nil {
		return *p
	}
	if r.err == nil {
		r.fail(col, ErrNullValue)
	}
	return 0
}

// NullInt64 decodes a nullable Integer column.
func (r *Row) NullInt64(col int) *int64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	var n int64
	switch v := v.(type) {
	case int64:
		n = v
	case bool:
		if v {
			n = 1
		}
	case time.Time:
		n = v.Unix()
	default:
		r.fail(col, mismatch(v, types.Integer))
		return nil
	}
	return &n
}

// Float64 decodes a not-null Real column.
func (r *Row) Float64(col int) float64 {
	if p := r.NullFloat64(col); p != nil {
		return *p
	}
	if r.err == nil {
		r.fail(col, ErrNullValue)
	}
	return 0
}

// NullFloat64 decodes a nullable Real column. Integers widen.
func (r *Row) NullFloat64(col int) *float64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case int64:
		f = float64(v)
	default:
		r.fail(col, mismatch(v, types.Real))
		return nil
	}
	return &f
}

// String decodes a not-null Text column.
func (r *Row) String(col int) string {
	if p := r.NullString(col); p != nil {
		return *p
	}
	if r.err == nil {
		r.fail(col, ErrNullValue)
	}
	return ""
}

// NullString decodes a nullable Text column. Date and time columns, which
// the driver parses, are formatted as RFC 3339.
func (r *Row) NullString(col int) *string {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case time.Time:
		s = v.Format(time.RFC3339Nano)
	default:
		r.fail(col, mismatch(v, types.Text))
		return nil
	}
	return &s
}

// Bytes decodes a not-null Blob column.
func (r *Row) Bytes(col int) []byte {
	v, ok := r.value(col)
	if !ok {
		return nil
	}
	if v == nil {
		r.fail(col, ErrNullValue)
		return nil
	}
	b := r.NullBytes(col)
	if b == nil && r.err == nil {
		b = []byte{}
	}
	return b
}

// NullBytes decodes a nullable Blob column; nil is NULL.
func (r *Row) NullBytes(col int) []byte {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	switch v := v.(type) {
	case []byte:
		if v == nil {
			return []byte{}
		}
		return v
	case string:
		return []byte(v)
	default:
		r.fail(col, mismatch(v, types.Blob))
		return nil
	}
}

// scanRow reads the current row of rows as driver values.
func scanRow(st *Statement, rows *sql.Rows, index, n int) (*Row, error) {
	values := make([]any, n)
	dest := make([]any, n)
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, execError(st, err)
	}
	return &Row{st: st, index: index, values: values}, nil
}
