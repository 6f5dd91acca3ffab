package parsing

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

var (
	ErrNoDeclarations     = errors.New("no declarations found")
	ErrInvalidName        = errors.New("invalid declaration name")
	ErrDuplicateName      = errors.New("duplicate declaration name")
	ErrEmptyDeclaration   = errors.New("declaration has no SQL")
	ErrOrphanSQL          = errors.New("SQL outside a named declaration")
	ErrPositionalParam    = errors.New("positional placeholders are not supported, use a named placeholder")
	ErrInvalidParamName   = errors.New("placeholder name must start with a letter")
	ErrMultipleStatements = errors.New("declaration must hold exactly one statement")
)

// Error is a parse failure at a source position.
type Error struct {
	Pos lexer.Position
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(pos lexer.Position, sentinel error, format string, args ...any) error {
	return &Error{Pos: pos, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}
