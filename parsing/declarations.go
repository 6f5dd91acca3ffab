package parsing

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

var (
	markerPattern = regexp.MustCompile(`^--\s*name:\s*(.*?)\s*$`)
	namePattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// Declaration is a named block of SQL from a declarations file.
type Declaration struct {
	Name string
	SQL  string
	Pos  lexer.Position
	// Statements holds the block split on top-level semicolons.
	Statements []string
}

// ParseDeclarations reads blocks introduced by "-- name: <identifier>"
// comment lines. Names must be identifiers and unique within the file.
func ParseDeclarations(filename, src string) ([]Declaration, error) {
	tokens, err := Tokenize(filename, src)
	if err != nil {
		return nil, err
	}

	type marker struct {
		name  string
		pos   lexer.Position
		start int // offset just past the marker
	}
	var markers []marker
	for _, tok := range tokens {
		if tok.Kind != KindComment {
			continue
		}
		m := markerPattern.FindStringSubmatch(tok.Value)
		if m == nil {
			continue
		}
		markers = append(markers, marker{name: m[1], pos: tok.Pos, start: tok.Pos.Offset + len(tok.Value)})
	}

	if len(markers) == 0 {
		return nil, errorf(lexer.Position{Filename: filename, Line: 1, Column: 1}, ErrNoDeclarations, "expected a %q line", "-- name: <identifier>")
	}

	for _, tok := range tokens {
		if tok.Pos.Offset >= markers[0].pos.Offset {
			break
		}
		if !tok.Trivia() {
			return nil, errorf(tok.Pos, ErrOrphanSQL, "%q", tok.Value)
		}
	}

	seen := make(map[string]lexer.Position, len(markers))
	decls := make([]Declaration, 0, len(markers))
	for i, m := range markers {
		if !namePattern.MatchString(m.name) {
			return nil, errorf(m.pos, ErrInvalidName, "%q", m.name)
		}
		if prev, ok := seen[m.name]; ok {
			return nil, errorf(m.pos, ErrDuplicateName, "%q already declared at %s", m.name, prev)
		}
		seen[m.name] = m.pos

		end := len(src)
		if i+1 < len(markers) {
			end = markers[i+1].pos.Offset
		}
		body := strings.TrimSpace(src[m.start:end])

		stmts, err := SplitStatements(filename, body)
		if err != nil {
			return nil, err
		}
		if len(stmts) == 0 {
			return nil, errorf(m.pos, ErrEmptyDeclaration, "%q", m.name)
		}

		decls = append(decls, Declaration{
			Name:       m.name,
			SQL:        body,
			Pos:        m.pos,
			Statements: stmts,
		})
	}

	return decls, nil
}

// SplitStatements splits sql on top-level semicolons. Semicolons inside
// strings, identifiers and comments do not split. Empty statements are
// dropped.
func SplitStatements(filename, sql string) ([]string, error) {
	tokens, err := Tokenize(filename, sql)
	if err != nil {
		return nil, err
	}

	var stmts []string
	start := 0
	significant := false
	flush := func(end int) {
		if significant {
			stmts = append(stmts, strings.TrimSpace(sql[start:end]))
		}
		significant = false
	}
	for _, tok := range tokens {
		if tok.IsPunct(";") && tok.Depth == 0 {
			flush(tok.Pos.Offset)
			start = tok.Pos.Offset + 1
			continue
		}
		if !tok.Trivia() {
			significant = true
		}
	}
	flush(len(sql))

	return stmts, nil
}

// IsMigration reports whether every statement of d creates a table, index
// or view or alters a table.
func (d *Declaration) IsMigration() bool {
	for _, sql := range d.Statements {
		stmt, err := ParseStatement(d.Pos.Filename, sql)
		if err != nil || !stmt.Kind.DDL() {
			return false
		}
	}
	return len(d.Statements) > 0
}
