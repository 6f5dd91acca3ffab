package types

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"time"
)

// Convert performs a checked conversion of v into the driver value for a
// parameter of the given storage type and nullability. Pointers are
// dereferenced; a nil pointer, nil interface or nil []byte is NULL.
func Convert(v any, t StorageType, n Nullability) (any, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, fmt.Errorf("failed to read driver value: %w", err)
		}
		v = dv
	}

	if b, ok := v.([]byte); ok && t == Blob {
		if b == nil {
			if n == Nullable {
				return nil, nil
			}
			return nil, ErrMissingValue
		}
		return b, nil
	}

	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv = reflect.Value{}
			break
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() {
		if n == Nullable {
			return nil, nil
		}
		return nil, ErrMissingValue
	}

	switch t {
	case Integer:
		return toInteger(rv)
	case Real:
		return toReal(rv)
	case Text:
		return toText(rv)
	case Blob:
		return toBlob(rv)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStorageType, t)
	}
}

func toInteger(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d does not fit INTEGER", ErrOutOfRange, u)
		}
		return int64(u), nil
	case reflect.Bool:
		if rv.Bool() {
			return int64(1), nil
		}
		return int64(0), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, fmt.Errorf("%w: %v is not an integral INTEGER", ErrOutOfRange, f)
		}
		return int64(f), nil
	}
	return nil, incompatible(rv, Integer)
}

func toReal(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return nil, incompatible(rv, Real)
}

func toText(rv reflect.Value) (any, error) {
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	if tm, ok := rv.Interface().(time.Time); ok {
		return tm.Format(time.RFC3339Nano), nil
	}
	return nil, incompatible(rv, Text)
}

func toBlob(rv reflect.Value) (any, error) {
	switch {
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		return rv.Bytes(), nil
	case rv.Kind() == reflect.String:
		return []byte(rv.String()), nil
	}
	return nil, incompatible(rv, Blob)
}

func incompatible(rv reflect.Value, t StorageType) error {
	return fmt.Errorf("%w: cannot convert %s to %s", ErrIncompatibleKind, rv.Type(), t)
}
