// Package types provides the storage types and nullability shared by the
// generator and the runtime client.
package types

import (
	"fmt"
	"strings"
)

// StorageType is one of the four SQLite storage classes a value can take.
type StorageType int

const (
	// Integer is a signed 64-bit integer.
	Integer StorageType = iota
	// Real is a 64-bit float.
	Real
	// Text is a UTF-8 string.
	Text
	// Blob is raw bytes.
	Blob
)

// String returns the keyword used in type hints.
func (t StorageType) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case Real:
		return "REAL"
	case Text:
		return "TEXT"
	case Blob:
		return "BLOB"
	default:
		return fmt.Sprintf("StorageType(%d)", int(t))
	}
}

// GoType returns the Go type a value of this storage type decodes into.
func (t StorageType) GoType(n Nullability) string {
	var base string
	switch t {
	case Integer:
		base = "int64"
	case Real:
		base = "float64"
	case Blob:
		// nil already means NULL for a byte slice
		return "[]byte"
	default:
		base = "string"
	}
	if n == Nullable {
		return "*" + base
	}
	return base
}

// ParseStorageType parses a hint keyword, case-insensitively.
func ParseStorageType(s string) (StorageType, error) {
	switch strings.ToUpper(s) {
	case "INTEGER":
		return Integer, nil
	case "REAL":
		return Real, nil
	case "TEXT":
		return Text, nil
	case "BLOB":
		return Blob, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStorageType, s)
	}
}

// Affinity maps a declared column type to a storage type using the
// SQLite column affinity rules. An empty declaration has BLOB affinity.
func Affinity(declType string) StorageType {
	upper := strings.ToUpper(declType)

	switch {
	case strings.Contains(upper, "INT"):
		return Integer
	case strings.Contains(upper, "CHAR"), strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return Text
	case upper == "", strings.Contains(upper, "BLOB"):
		return Blob
	case strings.Contains(upper, "REAL"), strings.Contains(upper, "FLOA"), strings.Contains(upper, "DOUB"):
		return Real
	case strings.Contains(upper, "BOOL"):
		return Integer
	case strings.Contains(upper, "DATE"), strings.Contains(upper, "TIME"):
		return Text
	default:
		// NUMERIC affinity; values decode as floats
		return Real
	}
}

// Nullability tells whether a value may be NULL.
type Nullability int

const (
	// NotNull values are never NULL.
	NotNull Nullability = iota
	// Nullable values may be NULL.
	Nullable
)

// String returns the keyword used in type hints.
func (n Nullability) String() string {
	if n == Nullable {
		return "NULLABLE"
	}
	return "NOT_NULL"
}

// ParseNullability parses a hint keyword, case-insensitively.
func ParseNullability(s string) (Nullability, error) {
	switch strings.ToUpper(s) {
	case "NULLABLE":
		return Nullable, nil
	case "NOT_NULL":
		return NotNull, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNullability, s)
	}
}
