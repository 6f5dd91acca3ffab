package types

import "errors"

var (
	ErrUnknownStorageType = errors.New("unknown storage type")
	ErrUnknownNullability = errors.New("unknown nullability")
	ErrMissingValue       = errors.New("missing value for not-null parameter")
	ErrIncompatibleKind   = errors.New("incompatible value kind")
	ErrOutOfRange         = errors.New("value out of range")
)
