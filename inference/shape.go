package inference

import (
	"strings"

	"github.com/satishbabariya/staticsql/runtime/types"
)

const (
	firstSuffix  = "_first"
	streamSuffix = "_stream"
)

// ResolveShape classifies a statement by the trailing segment of its name.
func ResolveShape(name string) types.Shape {
	switch {
	case strings.HasSuffix(name, streamSuffix):
		return types.Lazy
	case strings.HasSuffix(name, firstSuffix):
		return types.FirstOptional
	default:
		return types.Collected
	}
}
