package inference

import (
	"regexp"

	"github.com/satishbabariya/staticsql/runtime/types"
)

var hintPattern = regexp.MustCompile(`^(.+?)__(INTEGER|REAL|TEXT|BLOB)(?:__(NULLABLE|NOT_NULL))?$`)

// TypeHint is a "__TYPE[__NULLABLE|__NOT_NULL]" suffix on a parameter name
// or column alias.
type TypeHint struct {
	// Base is the name with the suffix removed.
	Base        string
	Type        types.StorageType
	Nullability types.Nullability
}

// ParseHint parses the hint suffix of name. It returns false when name
// carries no hint.
func ParseHint(name string) (TypeHint, bool) {
	m := hintPattern.FindStringSubmatch(name)
	if m == nil {
		return TypeHint{}, false
	}

	// the pattern only admits valid keywords
	typ, _ := types.ParseStorageType(m[2])
	hint := TypeHint{Base: m[1], Type: typ, Nullability: types.NotNull}
	if m[3] != "" {
		hint.Nullability, _ = types.ParseNullability(m[3])
	}
	return hint, true
}

// applyHint overrides inferred metadata when name carries a hint and
// returns the externally visible name.
func applyHint(name string, m *Metadata) string {
	hint, ok := ParseHint(name)
	if !ok {
		return name
	}
	m.Type = hint.Type
	m.Nullability = hint.Nullability
	m.Source = SourceHint
	return hint.Base
}
