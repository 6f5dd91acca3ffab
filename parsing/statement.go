package parsing

import (
	"unicode"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind is the leading kind of a statement.
type Kind int

const (
	KindUnknown Kind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindCreateTable
	KindCreateIndex
	KindCreateView
	KindAlterTable
)

func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindCreateTable:
		return "CREATE TABLE"
	case KindCreateIndex:
		return "CREATE INDEX"
	case KindCreateView:
		return "CREATE VIEW"
	case KindAlterTable:
		return "ALTER TABLE"
	default:
		return "UNKNOWN"
	}
}

// DDL reports whether statements of this kind may appear in a migration.
func (k Kind) DDL() bool {
	switch k {
	case KindCreateTable, KindCreateIndex, KindCreateView, KindAlterTable:
		return true
	}
	return false
}

// Classify returns the kind of the statement spelled by the significant
// tokens. A WITH prefix is skipped to find the main statement.
func Classify(sig []Token) Kind {
	if len(sig) == 0 {
		return KindUnknown
	}

	if sig[0].Is("WITH") {
		for _, t := range sig[1:] {
			if t.Depth != 0 {
				continue
			}
			switch {
			case t.Is("SELECT"), t.Is("VALUES"):
				return KindSelect
			case t.Is("INSERT"), t.Is("REPLACE"):
				return KindInsert
			case t.Is("UPDATE"):
				return KindUpdate
			case t.Is("DELETE"):
				return KindDelete
			}
		}
		return KindUnknown
	}

	first := sig[0]
	switch {
	case first.Is("SELECT"), first.Is("VALUES"):
		return KindSelect
	case first.Is("INSERT"), first.Is("REPLACE"):
		return KindInsert
	case first.Is("UPDATE"):
		return KindUpdate
	case first.Is("DELETE"):
		return KindDelete
	case first.Is("CREATE"):
		return classifyCreate(sig[1:])
	case first.Is("ALTER"):
		if alterKind(sig) != "" {
			return KindAlterTable
		}
	}
	return KindUnknown
}

func classifyCreate(rest []Token) Kind {
	for _, t := range rest {
		switch {
		case t.Is("TEMP"), t.Is("TEMPORARY"), t.Is("UNIQUE"):
			continue
		case t.Is("TABLE"):
			return KindCreateTable
		case t.Is("INDEX"):
			return KindCreateIndex
		case t.Is("VIEW"):
			return KindCreateView
		}
		break
	}
	return KindUnknown
}

// alterKind returns ADD, DROP or RENAME for an ALTER TABLE statement.
func alterKind(sig []Token) string {
	if len(sig) < 4 || !sig[1].Is("TABLE") {
		return ""
	}
	for _, t := range sig[3:] {
		switch {
		case t.Is("ADD"):
			return "ADD"
		case t.Is("DROP"):
			return "DROP"
		case t.Is("RENAME"):
			return "RENAME"
		}
	}
	return ""
}

// Placeholder is a named parameter occurrence.
type Placeholder struct {
	// Raw is the placeholder as written, e.g. ":id__INTEGER".
	Raw string
	// Name is Raw without its prefix character; it is the bind name.
	Name string
	Pos  lexer.Position
}

// Placeholders returns the distinct named placeholders of a statement in
// first-occurrence order. Anonymous and numbered placeholders are rejected.
func Placeholders(tokens []Token) ([]Placeholder, error) {
	var out []Placeholder
	seen := make(map[string]bool)
	for _, t := range tokens {
		switch t.Kind {
		case KindPositional:
			return nil, errorf(t.Pos, ErrPositionalParam, "%q", t.Value)
		case KindParam:
			name := t.Value[1:]
			if r := []rune(name)[0]; !unicode.IsLetter(r) {
				return nil, errorf(t.Pos, ErrInvalidParamName, "%q", t.Value)
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, Placeholder{Raw: t.Value, Name: name, Pos: t.Pos})
		}
	}
	return out, nil
}

// Statement is one lexed SQL statement.
type Statement struct {
	SQL    string
	Kind   Kind
	Tokens []Token
	// Sig holds Tokens without whitespace and comments.
	Sig []Token
}

// ParseStatement lexes and classifies a single statement.
func ParseStatement(filename, sql string) (*Statement, error) {
	tokens, err := Tokenize(filename, sql)
	if err != nil {
		return nil, err
	}
	sig := Significant(tokens)

	for i, t := range sig {
		if !t.IsPunct(";") || t.Depth != 0 {
			continue
		}
		if i != len(sig)-1 {
			return nil, errorf(t.Pos, ErrMultipleStatements, "found %q before the end", ";")
		}
		sig = sig[:i]
	}

	return &Statement{
		SQL:    sql,
		Kind:   Classify(sig),
		Tokens: tokens,
		Sig:    sig,
	}, nil
}

// Placeholders returns the statement's distinct named placeholders.
func (s *Statement) Placeholders() ([]Placeholder, error) {
	return Placeholders(s.Sig)
}
