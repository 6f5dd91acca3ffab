// Package update compares the running generator with the one that produced
// existing output.
package update

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// Status is the result of comparing two generator versions.
type Status int

const (
	// Unknown means a version could not be compared, e.g. "(devel)".
	Unknown Status = iota
	// Current means the output was produced by this version.
	Current
	// Stale means the output was produced by an older generator.
	Stale
	// Ahead means the output was produced by a newer generator.
	Ahead
)

func (s Status) String() string {
	switch s {
	case Current:
		return "current"
	case Stale:
		return "stale"
	case Ahead:
		return "ahead"
	default:
		return "unknown"
	}
}

// Compare reports how the recorded version of generated output relates to
// the current generator version.
func Compare(current, recorded string) (Status, error) {
	cur, err := version.NewVersion(current)
	if err != nil {
		return Unknown, fmt.Errorf("invalid version format %q: %w", current, err)
	}
	rec, err := version.NewVersion(recorded)
	if err != nil {
		return Unknown, fmt.Errorf("invalid version format %q: %w", recorded, err)
	}

	switch {
	case rec.LessThan(cur):
		return Stale, nil
	case rec.GreaterThan(cur):
		return Ahead, nil
	default:
		return Current, nil
	}
}

// Advice returns a short message for status, or "" when nothing needs doing.
func Advice(status Status, current, recorded string) string {
	switch status {
	case Stale:
		return fmt.Sprintf("output was generated by %s, run staticsql generate to update it to %s", recorded, current)
	case Ahead:
		return fmt.Sprintf("output was generated by %s, newer than this staticsql (%s)", recorded, current)
	default:
		return ""
	}
}
