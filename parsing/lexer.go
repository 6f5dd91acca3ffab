// Package parsing tokenizes SQL declaration files and extracts the syntax the
// type inference needs: statement kinds, placeholders, referenced tables and
// projections.
package parsing

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// SQLLexer defines the token types of the SQLite dialect we need to see.
// It does not validate SQL; the engine does that.
var SQLLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Comment", Pattern: `--[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`},

	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:[^\"]|\"\")*\"|`(?:[^`]|``)*`|\\[[^\\]]*\\]"},

	// Named and numbered placeholders
	{Name: "Param", Pattern: `[:@$][\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Positional", Pattern: `\?\d*`},

	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_$]*`},

	{Name: "Operator", Pattern: `\|\||<<|>>|<=|>=|==|!=|<>|->>|->|[-+*/%<>=&|~]`},
	{Name: "Punct", Pattern: `[(),;.]`},
	{Name: "Other", Pattern: `\S`},
})

// Token kinds produced by SQLLexer.
const (
	KindWhitespace   = "Whitespace"
	KindComment      = "Comment"
	KindBlockComment = "BlockComment"
	KindString       = "String"
	KindQuotedIdent  = "QuotedIdent"
	KindParam        = "Param"
	KindPositional   = "Positional"
	KindNumber       = "Number"
	KindIdent        = "Ident"
	KindOperator     = "Operator"
	KindPunct        = "Punct"
	KindOther        = "Other"
)

var kindNames = func() map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string)
	for name, typ := range SQLLexer.Symbols() {
		names[typ] = name
	}
	return names
}()

// Token is a lexed SQL token.
type Token struct {
	Kind  string
	Value string
	Pos   lexer.Position
	// Depth is the parenthesis nesting depth the token sits at.
	Depth int
}

// Trivia reports whether the token is whitespace or a comment.
func (t Token) Trivia() bool {
	switch t.Kind {
	case KindWhitespace, KindComment, KindBlockComment:
		return true
	}
	return false
}

// Is reports whether the token is the given keyword, case-insensitively.
func (t Token) Is(keyword string) bool {
	return t.Kind == KindIdent && strings.EqualFold(t.Value, keyword)
}

// IsPunct reports whether the token is the given punctuation character.
func (t Token) IsPunct(p string) bool {
	return t.Kind == KindPunct && t.Value == p
}

// IsName reports whether the token can name a table, column or alias.
func (t Token) IsName() bool {
	return t.Kind == KindIdent || t.Kind == KindQuotedIdent
}

// Name returns the identifier the token spells, with quoting removed.
func (t Token) Name() string {
	if t.Kind != KindQuotedIdent && t.Kind != KindString {
		return t.Value
	}
	v := t.Value
	switch v[0] {
	case '[':
		return v[1 : len(v)-1]
	case '"':
		return strings.ReplaceAll(v[1:len(v)-1], `""`, `"`)
	case '`':
		return strings.ReplaceAll(v[1:len(v)-1], "``", "`")
	case '\'':
		return strings.ReplaceAll(v[1:len(v)-1], "''", "'")
	}
	return v
}

// Tokenize lexes src into tokens, including whitespace and comments.
func Tokenize(filename, src string) ([]Token, error) {
	lex, err := SQLLexer.LexString(filename, src)
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	tokens := make([]Token, 0, len(raw))
	depth := 0
	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		t := Token{Kind: kindNames[tok.Type], Value: tok.Value, Pos: tok.Pos}
		if t.IsPunct(")") && depth > 0 {
			depth--
		}
		t.Depth = depth
		if t.IsPunct("(") {
			depth++
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// Significant drops whitespace and comments.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if !t.Trivia() {
			out = append(out, t)
		}
	}
	return out
}
