package parsing

import "strings"

// TableRef is a table named in a FROM, JOIN, INTO or UPDATE clause.
type TableRef struct {
	Name  string
	Alias string
	// Depth is the parenthesis depth of the clause naming the table.
	Depth int
	// Outer is set for the right side of a LEFT or FULL join, whose
	// columns may be NULL in the result.
	Outer bool
}

// clauseKeywords end a table reference; they are never aliases.
var clauseKeywords = map[string]bool{
	"WHERE": true, "ON": true, "USING": true, "JOIN": true, "INNER": true,
	"LEFT": true, "RIGHT": true, "FULL": true, "CROSS": true, "NATURAL": true,
	"OUTER": true, "GROUP": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
	"SET": true, "VALUES": true, "DEFAULT": true, "RETURNING": true,
	"UNION": true, "EXCEPT": true, "INTERSECT": true, "HAVING": true,
	"WINDOW": true, "SELECT": true, "INDEXED": true, "NOT": true, "DO": true,
	"FROM": true, "AS": true,
}

// Tables returns the tables referenced anywhere in the statement, in order
// of appearance. The DML target of INSERT, UPDATE and DELETE comes first.
func (s *Statement) Tables() []TableRef {
	var refs []TableRef
	sig := s.Sig

	for i := 0; i < len(sig); i++ {
		t := sig[i]
		switch {
		case t.Is("FROM"), t.Is("JOIN"):
			j := i + 1
			for {
				ref, next, ok := readTableRef(sig, j, true)
				if !ok {
					break
				}
				ref.Depth = t.Depth
				ref.Outer = t.Is("JOIN") && outerJoin(sig[:i])
				refs = append(refs, ref)
				// comma joins
				if next < len(sig) && sig[next].IsPunct(",") && sig[next].Depth == t.Depth && t.Is("FROM") {
					j = next + 1
					continue
				}
				break
			}
		case t.Is("INTO"):
			if ref, _, ok := readTableRef(sig, i+1, false); ok {
				ref.Depth = t.Depth
				refs = append(refs, ref)
			}
		case t.Is("UPDATE") && (i == 0 || !sig[i-1].Is("DO")):
			j := i + 1
			if j < len(sig) && sig[j].Is("OR") {
				j += 2
			}
			if ref, _, ok := readTableRef(sig, j, false); ok {
				ref.Depth = t.Depth
				refs = append(refs, ref)
			}
		}
	}

	if target := s.Target(); target != "" {
		for i, ref := range refs {
			if strings.EqualFold(ref.Name, target) && i > 0 {
				refs = append([]TableRef{ref}, append(refs[:i:i], refs[i+1:]...)...)
				break
			}
		}
	}
	return refs
}

// outerJoin reports whether the tokens before a JOIN keyword make it a
// LEFT or FULL join.
func outerJoin(before []Token) bool {
	n := len(before)
	if n > 0 && before[n-1].Is("OUTER") {
		n--
	}
	return n > 0 && (before[n-1].Is("LEFT") || before[n-1].Is("FULL"))
}

// readTableRef reads "[schema.]name [[AS] alias]" starting at i. In a FROM
// clause a name followed by "(" is a table-valued function, not a table.
func readTableRef(sig []Token, i int, from bool) (TableRef, int, bool) {
	if i >= len(sig) || !sig[i].IsName() || clauseKeywords[strings.ToUpper(sig[i].Value)] && sig[i].Kind == KindIdent {
		return TableRef{}, i, false
	}
	ref := TableRef{Name: sig[i].Name()}
	i++
	if i+1 < len(sig) && sig[i].IsPunct(".") && sig[i+1].IsName() {
		ref.Name = sig[i+1].Name()
		i += 2
	}
	// table-valued functions such as json_each(...) are not tables
	if from && i < len(sig) && sig[i].IsPunct("(") {
		return TableRef{}, i, false
	}
	if i < len(sig) && sig[i].Is("AS") && i+1 < len(sig) && sig[i+1].IsName() {
		ref.Alias = sig[i+1].Name()
		return ref, i + 2, true
	}
	if i < len(sig) && sig[i].IsName() && !(sig[i].Kind == KindIdent && clauseKeywords[strings.ToUpper(sig[i].Value)]) {
		ref.Alias = sig[i].Name()
		i++
	}
	return ref, i, true
}

// Target returns the table written by an INSERT, UPDATE or DELETE, or "".
func (s *Statement) Target() string {
	sig := s.Sig
	start := 0
	if len(sig) > 0 && sig[0].Is("WITH") {
		for start = 1; start < len(sig); start++ {
			t := sig[start]
			if t.Depth == 0 && (t.Is("INSERT") || t.Is("REPLACE") || t.Is("UPDATE") || t.Is("DELETE") || t.Is("SELECT")) {
				break
			}
		}
	}
	for i := start; i < len(sig); i++ {
		t := sig[i]
		if t.Depth != 0 {
			continue
		}
		switch {
		case t.Is("INTO") && s.Kind == KindInsert:
			if ref, _, ok := readTableRef(sig, i+1, false); ok {
				return ref.Name
			}
		case t.Is("UPDATE") && s.Kind == KindUpdate:
			j := i + 1
			if j < len(sig) && sig[j].Is("OR") {
				j += 2
			}
			if ref, _, ok := readTableRef(sig, j, false); ok {
				return ref.Name
			}
		case t.Is("FROM") && s.Kind == KindDelete:
			if ref, _, ok := readTableRef(sig, i+1, false); ok {
				return ref.Name
			}
		}
	}
	return ""
}

// ProjectionItem is one entry of a SELECT list or RETURNING clause.
type ProjectionItem struct {
	Tokens []Token
	// Alias is the name given with AS (or an implicit alias).
	Alias string
	// Column and Qualifier are set when the item is a bare column reference.
	Column    string
	Qualifier string
	// Star is set for "*" and "qualifier.*".
	Star bool
}

var projectionEnd = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "HAVING": true, "WINDOW": true,
	"ORDER": true, "LIMIT": true, "UNION": true, "EXCEPT": true, "INTERSECT": true,
}

// Projection returns the items of the outermost SELECT list, or of the
// RETURNING clause for data-modifying statements. It returns nil when the
// statement projects nothing it can see, e.g. VALUES.
func (s *Statement) Projection() []ProjectionItem {
	sig := s.Sig
	start := -1
	ends := projectionEnd

	for i, t := range sig {
		if t.Depth != 0 {
			continue
		}
		if t.Is("RETURNING") {
			start = i + 1
			ends = map[string]bool{}
			break
		}
		if start < 0 && s.Kind == KindSelect && t.Is("SELECT") {
			start = i + 1
		}
	}
	if start < 0 {
		return nil
	}
	if start < len(sig) && (sig[start].Is("DISTINCT") || sig[start].Is("ALL")) {
		start++
	}

	var items []ProjectionItem
	var cur []Token
	for _, t := range sig[start:] {
		if t.Depth == 0 && t.Kind == KindIdent && ends[strings.ToUpper(t.Value)] {
			break
		}
		if t.Depth == 0 && t.IsPunct(",") {
			items = append(items, newProjectionItem(cur))
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(cur) > 0 {
		items = append(items, newProjectionItem(cur))
	}
	return items
}

func newProjectionItem(tokens []Token) ProjectionItem {
	item := ProjectionItem{Tokens: tokens}
	n := len(tokens)

	switch {
	case n >= 2 && tokens[n-2].Is("AS") && (tokens[n-1].IsName() || tokens[n-1].Kind == KindString):
		item.Alias = tokens[n-1].Name()
		tokens = tokens[:n-2]
	case n >= 2 && implicitAlias(tokens[n-2], tokens[n-1]):
		item.Alias = tokens[n-1].Name()
		tokens = tokens[:n-1]
	}

	switch len(tokens) {
	case 1:
		switch {
		case tokens[0].Kind == KindOperator && tokens[0].Value == "*":
			item.Star = true
		case tokens[0].IsName():
			item.Column = tokens[0].Name()
		}
	case 3:
		if tokens[0].IsName() && tokens[1].IsPunct(".") {
			switch {
			case tokens[2].Kind == KindOperator && tokens[2].Value == "*":
				item.Star = true
				item.Qualifier = tokens[0].Name()
			case tokens[2].IsName():
				item.Column = tokens[2].Name()
				item.Qualifier = tokens[0].Name()
			}
		}
	}
	return item
}

// exprKeywords can end an expression, so they never start an implicit alias.
var exprKeywords = map[string]bool{
	"NULL": true, "END": true, "TRUE": true, "FALSE": true, "IS": true,
	"NOT": true, "AND": true, "OR": true, "ELSE": true, "THEN": true,
	"WHEN": true, "CASE": true, "IN": true, "LIKE": true, "GLOB": true,
	"BETWEEN": true, "ESCAPE": true, "COLLATE": true, "DISTINCT": true,
	"CURRENT_TIMESTAMP": true, "CURRENT_DATE": true, "CURRENT_TIME": true,
	"EXISTS": true, "ASC": true, "DESC": true, "NOTNULL": true, "ISNULL": true,
}

func implicitAlias(prev, last Token) bool {
	if !last.IsName() || prev.IsPunct(".") || prev.IsPunct("(") || prev.IsPunct(",") || prev.Kind == KindOperator {
		return false
	}
	if last.Kind == KindIdent && exprKeywords[strings.ToUpper(last.Value)] {
		return false
	}
	return !(prev.Kind == KindIdent && exprKeywords[strings.ToUpper(prev.Value)])
}

// InsertColumns returns the column list of an INSERT statement and, for each
// VALUES tuple, the tokens of every value expression.
func (s *Statement) InsertColumns() ([]string, [][][]Token) {
	if s.Kind != KindInsert {
		return nil, nil
	}
	sig := s.Sig

	i := 0
	for ; i < len(sig); i++ {
		if sig[i].Depth == 0 && sig[i].Is("INTO") {
			break
		}
	}
	_, i, ok := readTableRef(sig, i+1, false)
	if !ok || i >= len(sig) || !sig[i].IsPunct("(") {
		return nil, nil
	}

	var columns []string
	depth := sig[i].Depth
	for i++; i < len(sig) && !(sig[i].IsPunct(")") && sig[i].Depth == depth); i++ {
		if sig[i].IsName() {
			columns = append(columns, sig[i].Name())
		}
	}
	i++
	if i >= len(sig) || !sig[i].Is("VALUES") {
		return columns, nil
	}

	var tuples [][][]Token
	for i++; i < len(sig); i++ {
		t := sig[i]
		if t.Depth != depth {
			continue
		}
		if !t.IsPunct("(") {
			if t.IsPunct(",") {
				continue
			}
			break
		}
		var tuple [][]Token
		var cur []Token
		for i++; i < len(sig) && !(sig[i].IsPunct(")") && sig[i].Depth == depth); i++ {
			if sig[i].IsPunct(",") && sig[i].Depth == depth+1 {
				tuple = append(tuple, cur)
				cur = nil
				continue
			}
			cur = append(cur, sig[i])
		}
		tuple = append(tuple, cur)
		tuples = append(tuples, tuple)
	}
	return columns, tuples
}
