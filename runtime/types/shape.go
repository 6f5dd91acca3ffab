package types

// Shape is the result contract of a generated query function.
type Shape int

const (
	// Collected returns every row, decoded eagerly, in engine order.
	Collected Shape = iota
	// FirstOptional returns at most one row; a second row is an error.
	FirstOptional
	// Lazy returns a single-pass sequence decoded on demand.
	Lazy
)

func (s Shape) String() string {
	switch s {
	case FirstOptional:
		return "first"
	case Lazy:
		return "stream"
	default:
		return "collected"
	}
}
