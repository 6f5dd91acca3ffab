package inference

import (
	"strings"

	"github.com/satishbabariya/staticsql/migrate/introspect"
	"github.com/satishbabariya/staticsql/parsing"
	"github.com/satishbabariya/staticsql/runtime/types"
)

// resolver ties placeholders and projection items of one statement to
// schema columns.
type resolver struct {
	catalog *introspect.Catalog
	stmt    *parsing.Statement
	refs    []parsing.TableRef
	target  string
	// inserted maps a placeholder name to the INSERT column it is the value of.
	inserted map[string]string
}

// origin is a resolved schema column.
type origin struct {
	table string
	col   *introspect.Column
	outer bool
}

func (o *origin) metadata(source Source) Metadata {
	m := fromColumn(o.table, o.col, source)
	if o.outer {
		m.Nullability = types.Nullable
	}
	return m
}

func newResolver(catalog *introspect.Catalog, stmt *parsing.Statement) *resolver {
	r := &resolver{
		catalog:  catalog,
		stmt:     stmt,
		refs:     stmt.Tables(),
		target:   stmt.Target(),
		inserted: make(map[string]string),
	}

	columns, tuples := stmt.InsertColumns()
	for _, tuple := range tuples {
		for i, value := range tuple {
			if i < len(columns) && len(value) == 1 && value[0].Kind == parsing.KindParam {
				name := value[0].Value[1:]
				if _, seen := r.inserted[name]; !seen {
					r.inserted[name] = columns[i]
				}
			}
		}
	}
	return r
}

// lookup resolves a possibly qualified column name. Unqualified names are
// searched in tables referenced at depth first, then in every other table.
func (r *resolver) lookup(qualifier, name string, depth int) *origin {
	if qualifier != "" {
		if strings.EqualFold(qualifier, "excluded") && r.target != "" {
			return r.columnOf(parsing.TableRef{Name: r.target}, name)
		}
		for _, ref := range r.refs {
			if strings.EqualFold(ref.Alias, qualifier) || (ref.Alias == "" && strings.EqualFold(ref.Name, qualifier)) {
				return r.columnOf(ref, name)
			}
		}
		for _, ref := range r.refs {
			if strings.EqualFold(ref.Name, qualifier) {
				return r.columnOf(ref, name)
			}
		}
		return nil
	}

	for _, sameDepth := range []bool{true, false} {
		for _, ref := range r.refs {
			if (ref.Depth == depth) != sameDepth {
				continue
			}
			if o := r.columnOf(ref, name); o != nil {
				return o
			}
		}
	}
	return nil
}

func (r *resolver) columnOf(ref parsing.TableRef, name string) *origin {
	table, ok := r.catalog.Table(ref.Name)
	if !ok {
		return nil
	}
	col, ok := table.Column(name)
	if !ok {
		return nil
	}
	return &origin{table: table.Name, col: col, outer: ref.Outer}
}

// parameter infers the metadata of a placeholder from the first occurrence
// whose syntactic position ties it to a column.
func (r *resolver) parameter(p parsing.Placeholder) Metadata {
	if column, ok := r.inserted[p.Name]; ok && r.target != "" {
		if o := r.columnOf(parsing.TableRef{Name: r.target}, column); o != nil {
			return o.metadata(SourceColumn)
		}
	}

	sig := r.stmt.Sig
	for k, t := range sig {
		if t.Kind != parsing.KindParam || t.Value[1:] != p.Name {
			continue
		}
		if isLimitOperand(sig, k) {
			return Metadata{Type: types.Integer, Nullability: types.NotNull, Source: SourceLimit}
		}
		if o := r.positional(k); o != nil {
			return o.metadata(SourceColumn)
		}
	}

	// a name equal to a column of a referenced table is a guess, not a tie
	name := p.Name
	if hint, ok := ParseHint(name); ok {
		name = hint.Base
	}
	if o := r.lookup("", name, 0); o != nil {
		return o.metadata(SourceName)
	}
	return fallback()
}

// positional resolves the column the placeholder at sig[k] is compared to,
// assigned to, or listed against.
func (r *resolver) positional(k int) *origin {
	sig := r.stmt.Sig
	depth := sig[k].Depth

	// column <op> :p
	if i := k - 1; i >= 1 {
		if sig[i].Is("NOT") && sig[i-1].Is("IS") {
			i--
		}
		if isComparison(sig[i]) {
			j := i - 1
			if j >= 1 && sig[j].Is("NOT") {
				j--
			}
			if o := r.columnBefore(j, depth); o != nil {
				return o
			}
		}
	}

	// :p <op> column
	if i := k + 1; i+1 < len(sig) {
		if sig[i].Is("NOT") && isComparison(sig[i+1]) {
			i++
		}
		if isComparison(sig[i]) {
			j := i + 1
			if sig[i].Is("IS") && j < len(sig) && sig[j].Is("NOT") {
				j++
			}
			if o := r.columnAfter(j, depth); o != nil {
				return o
			}
		}
	}

	// column BETWEEN :a AND :b
	if k >= 2 && sig[k-1].Is("BETWEEN") {
		if o := r.columnBefore(skipNot(sig, k-2), depth); o != nil {
			return o
		}
	}
	if k >= 4 && sig[k-1].Is("AND") && sig[k-3].Is("BETWEEN") {
		if o := r.columnBefore(skipNot(sig, k-4), depth); o != nil {
			return o
		}
	}

	// column IN (:a, :b)
	o := k - 1
	for o >= 0 && sig[o].Depth == depth && isListItem(sig[o]) {
		o--
	}
	if o >= 2 && sig[o].IsPunct("(") && sig[o].Depth == depth-1 && sig[o-1].Is("IN") {
		return r.columnBefore(skipNot(sig, o-2), depth-1)
	}

	return nil
}

func skipNot(sig []parsing.Token, i int) int {
	if i >= 1 && sig[i].Is("NOT") {
		return i - 1
	}
	return i
}

// columnBefore reads a column reference ending at sig[end].
func (r *resolver) columnBefore(end, depth int) *origin {
	sig := r.stmt.Sig
	if end < 0 || end >= len(sig) || !sig[end].IsName() {
		return nil
	}
	if end >= 2 && sig[end-1].IsPunct(".") && sig[end-2].IsName() {
		return r.lookup(sig[end-2].Name(), sig[end].Name(), depth)
	}
	return r.lookup("", sig[end].Name(), depth)
}

// columnAfter reads a column reference starting at sig[start].
func (r *resolver) columnAfter(start, depth int) *origin {
	sig := r.stmt.Sig
	if start >= len(sig) || !sig[start].IsName() {
		return nil
	}
	if start+2 < len(sig) && sig[start+1].IsPunct(".") && sig[start+2].IsName() {
		return r.lookup(sig[start].Name(), sig[start+2].Name(), depth)
	}
	// a function call, not a column
	if start+1 < len(sig) && sig[start+1].IsPunct("(") {
		return nil
	}
	return r.lookup("", sig[start].Name(), depth)
}

var comparisonOperators = map[string]bool{
	"=": true, "==": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

func isComparison(t parsing.Token) bool {
	if t.Kind == parsing.KindOperator {
		return comparisonOperators[t.Value]
	}
	return t.Is("LIKE") || t.Is("GLOB") || t.Is("MATCH") || t.Is("REGEXP") || t.Is("IS")
}

func isListItem(t parsing.Token) bool {
	switch t.Kind {
	case parsing.KindParam, parsing.KindNumber, parsing.KindString:
		return true
	}
	return t.IsPunct(",")
}

func isLimitOperand(sig []parsing.Token, k int) bool {
	if k >= 1 && (sig[k-1].Is("LIMIT") || sig[k-1].Is("OFFSET")) {
		return true
	}
	// LIMIT offset, count
	return k >= 3 && sig[k-1].IsPunct(",") && sig[k-3].Is("LIMIT")
}

// projectionOrigins maps every engine column to the schema column it reads,
// or nil for expressions. It returns nil when the projection cannot be lined
// up with the engine's columns, e.g. "*" over a subquery.
func (r *resolver) projectionOrigins(items []parsing.ProjectionItem, n int) []*origin {
	if len(items) == 0 {
		return nil
	}

	var out []*origin
	for _, item := range items {
		switch {
		case item.Star:
			cols, ok := r.expandStar(item.Qualifier)
			if !ok {
				return nil
			}
			out = append(out, cols...)
		case item.Column != "":
			out = append(out, r.lookup(item.Qualifier, item.Column, 0))
		default:
			out = append(out, nil)
		}
	}
	if len(out) != n {
		return nil
	}
	return out
}

func (r *resolver) expandStar(qualifier string) ([]*origin, bool) {
	var refs []parsing.TableRef
	switch {
	case qualifier != "":
		for _, ref := range r.refs {
			if strings.EqualFold(ref.Alias, qualifier) || strings.EqualFold(ref.Name, qualifier) {
				refs = append(refs, ref)
				break
			}
		}
	case r.stmt.Kind != parsing.KindSelect:
		// RETURNING *
		refs = append(refs, parsing.TableRef{Name: r.target})
	default:
		for _, ref := range r.refs {
			if ref.Depth == 0 {
				refs = append(refs, ref)
			}
		}
	}
	if len(refs) == 0 {
		return nil, false
	}

	var out []*origin
	for _, ref := range refs {
		table, ok := r.catalog.Table(ref.Name)
		if !ok {
			return nil, false
		}
		for i := range table.Columns {
			out = append(out, &origin{table: table.Name, col: &table.Columns[i], outer: ref.Outer})
		}
	}
	return out, true
}

// column infers the metadata of an engine column. o is its origin from a
// lined-up projection; when the projection could not be lined up the column
// name is matched against the referenced tables instead.
func (r *resolver) column(col engineColumn, o *origin, lined bool) Metadata {
	source := SourceColumn
	if o == nil && !lined {
		o = r.lookup("", col.Name, 0)
		source = SourceName
	}

	var m Metadata
	switch {
	case o != nil:
		m = o.metadata(source)
	case col.DeclType != "":
		m = Metadata{Nullability: types.Nullable, Source: SourceEngine}
	default:
		return fallback()
	}

	if col.DeclType != "" {
		m.Type = types.Affinity(col.DeclType)
	}
	return m
}
