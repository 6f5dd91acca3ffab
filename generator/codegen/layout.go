package codegen

import (
	"go/ast"
	"go/token"
	"strings"
)

// lineWidth is the number of offsets per synthetic line. It bounds the
// length of a single literal.
const lineWidth = 1 << 20

// layout hands out synthetic positions so the printer breaks composite
// literals one element per line. Nodes without positions print as usual.
// Top-level literals are spread in the order they were added, which must be
// output order.
type layout struct {
	blocks []*ast.CompositeLit
	multi  map[*ast.CompositeLit]bool

	file *token.File
	line int
}

func newLayout() *layout {
	return &layout{multi: make(map[*ast.CompositeLit]bool)}
}

// block registers a top-level literal to spread over lines.
func (l *layout) block(lit *ast.CompositeLit) *ast.CompositeLit {
	l.blocks = append(l.blocks, lit)
	return lit
}

// multiline marks a nested literal to be spread when its parent is.
func (l *layout) multiline(lit *ast.CompositeLit) *ast.CompositeLit {
	l.multi[lit] = true
	return lit
}

// apply assigns positions from a fresh file in fset. The first pass only
// counts lines.
func (l *layout) apply(fset *token.FileSet, name string) {
	l.line = 0
	l.spread()

	lines := l.line + 2
	l.file = fset.AddFile(name, -1, lines*lineWidth)
	offsets := make([]int, lines)
	for i := range offsets {
		offsets[i] = i * lineWidth
	}
	l.file.SetLines(offsets)

	l.line = 0
	l.spread()
}

func (l *layout) spread() {
	for _, lit := range l.blocks {
		lit.Lbrace = l.next()
		l.elements(lit)
	}
}

// next moves to a fresh line and returns its first position.
func (l *layout) next() token.Pos {
	l.line++
	if l.file == nil {
		return token.NoPos
	}
	return l.file.Pos(l.line * lineWidth)
}

func (l *layout) elements(lit *ast.CompositeLit) {
	for _, elt := range lit.Elts {
		p := l.next()
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			if inner, ok := kv.Value.(*ast.CompositeLit); ok && l.multi[inner] {
				place(kv.Key, p)
				kv.Colon = p
				inner.Lbrace = p
				l.elements(inner)
				continue
			}
		}
		if inner, ok := elt.(*ast.CompositeLit); ok && l.multi[inner] {
			inner.Lbrace = p
			l.elements(inner)
			continue
		}
		place(elt, p)
		l.skipLines(elt)
	}
	lit.Rbrace = l.next()
}

// skipLines accounts for the newlines of raw strings printed on the
// current line.
func (l *layout) skipLines(n ast.Node) {
	ast.Inspect(n, func(n ast.Node) bool {
		if lit, ok := n.(*ast.BasicLit); ok && lit.Kind == token.STRING {
			l.line += strings.Count(lit.Value, "\n")
		}
		return true
	})
}

// place puts every token of n at p.
func place(n ast.Node, p token.Pos) {
	ast.Inspect(n, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			n.NamePos = p
		case *ast.BasicLit:
			n.ValuePos = p
		case *ast.CompositeLit:
			n.Lbrace, n.Rbrace = p, p
		case *ast.CallExpr:
			n.Lparen, n.Rparen = p, p
		case *ast.KeyValueExpr:
			n.Colon = p
		case *ast.UnaryExpr:
			n.OpPos = p
		case *ast.StarExpr:
			n.Star = p
		case *ast.IndexExpr:
			n.Lbrack, n.Rbrack = p, p
		case *ast.ArrayType:
			n.Lbrack = p
		}
		return true
	})
}
