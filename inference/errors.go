package inference

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMigration      = errors.New("no migration declaration found")
	ErrNotMigration     = errors.New("migration may only create tables, indexes and views or alter tables")
	ErrUnknownMigration = errors.New("migration declaration not found")
	ErrParamCount       = errors.New("placeholder count does not match the prepared statement")
	ErrUnverified       = errors.New("type could not be verified, add a type hint")
	ErrNoMetadata       = errors.New("driver does not expose statement metadata")
)

// Phase is the pipeline step a BuildError happened in.
type Phase string

const (
	PhaseDeclare  Phase = "declare"
	PhaseMigrate  Phase = "migrate"
	PhasePrepare  Phase = "prepare"
	PhaseInfer    Phase = "infer"
	PhaseGenerate Phase = "generate"
)

// BuildError halts generation. No output is written when one occurs.
type BuildError struct {
	Phase     Phase
	Statement string
	Pos       string
	Err       error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build failed during %s", e.Phase)
	if e.Statement != "" {
		fmt.Fprintf(&b, " of %s", e.Statement)
	}
	if e.Pos != "" {
		fmt.Fprintf(&b, " at %s", e.Pos)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewBuildError wraps err unless it already is a BuildError.
func NewBuildError(phase Phase, statement, pos string, err error) error {
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}
	return &BuildError{Phase: phase, Statement: statement, Pos: pos, Err: err}
}
