package types

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffinity(t *testing.T) {
	tests := []struct {
		decl string
		want StorageType
	}{
		{"INTEGER", Integer},
		{"bigint", Integer},
		{"VARCHAR(255)", Text},
		{"text", Text},
		{"CLOB", Text},
		{"", Blob},
		{"blob", Blob},
		{"REAL", Real},
		{"double precision", Real},
		{"FLOAT", Real},
		{"NUMERIC", Real},
		{"DECIMAL(10,2)", Real},
		{"BOOLEAN", Integer},
		{"DATETIME", Text},
	}

	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			assert.Equal(t, tt.want, Affinity(tt.decl))
		})
	}
}

func TestParseKeywords(t *testing.T) {
	st, err := ParseStorageType("integer")
	require.NoError(t, err)
	assert.Equal(t, Integer, st)

	_, err = ParseStorageType("DATE")
	require.ErrorIs(t, err, ErrUnknownStorageType)

	n, err := ParseNullability("Nullable")
	require.NoError(t, err)
	assert.Equal(t, Nullable, n)

	n, err = ParseNullability("NOT_NULL")
	require.NoError(t, err)
	assert.Equal(t, NotNull, n)
}

func TestGoType(t *testing.T) {
	assert.Equal(t, "int64", Integer.GoType(NotNull))
	assert.Equal(t, "*int64", Integer.GoType(Nullable))
	assert.Equal(t, "*float64", Real.GoType(Nullable))
	assert.Equal(t, "string", Text.GoType(NotNull))
	assert.Equal(t, "[]byte", Blob.GoType(Nullable))
	assert.Equal(t, "[]byte", Blob.GoType(NotNull))
}

func TestConvert(t *testing.T) {
	seven := int64(7)
	var nilInt *int64

	tests := []struct {
		name    string
		value   any
		typ     StorageType
		null    Nullability
		want    any
		wantErr error
	}{
		{"int to integer", 42, Integer, NotNull, int64(42), nil},
		{"pointer to integer", &seven, Integer, NotNull, int64(7), nil},
		{"bool to integer", true, Integer, NotNull, int64(1), nil},
		{"integral float to integer", 3.0, Integer, NotNull, int64(3), nil},
		{"fractional float to integer", 3.5, Integer, NotNull, nil, ErrOutOfRange},
		{"large uint to integer", uint64(math.MaxUint64), Integer, NotNull, nil, ErrOutOfRange},
		{"string to integer", "1", Integer, NotNull, nil, ErrIncompatibleKind},
		{"nil pointer nullable", nilInt, Integer, Nullable, nil, nil},
		{"nil pointer not null", nilInt, Integer, NotNull, nil, ErrMissingValue},
		{"untyped nil not null", nil, Text, NotNull, nil, ErrMissingValue},
		{"int to real", 2, Real, NotNull, float64(2), nil},
		{"float32 to real", float32(1.5), Real, NotNull, float64(1.5), nil},
		{"string to real", "x", Real, NotNull, nil, ErrIncompatibleKind},
		{"string to text", "hi", Text, NotNull, "hi", nil},
		{"int to text", 1, Text, NotNull, nil, ErrIncompatibleKind},
		{"bytes to blob", []byte{1, 2}, Blob, NotNull, []byte{1, 2}, nil},
		{"nil bytes nullable blob", []byte(nil), Blob, Nullable, nil, nil},
		{"nil bytes not null blob", []byte(nil), Blob, NotNull, nil, ErrMissingValue},
		{"empty bytes not null blob", []byte{}, Blob, NotNull, []byte{}, nil},
		{"string to blob", "ab", Blob, NotNull, []byte("ab"), nil},
		{"int to blob", 1, Blob, NotNull, nil, ErrIncompatibleKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.typ, tt.null)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertTimeToText(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	got, err := Convert(ts, Text, NotNull)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T12:30:00Z", got)
}
