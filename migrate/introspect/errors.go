package introspect

import "errors"

var (
	ErrIntrospectionFailed = errors.New("database introspection failed")
)
