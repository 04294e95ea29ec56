package cellcalc

import (
	"strings"
)

// Node is a node in the syntax tree of a script. The set of node types is
// closed: *Lines, *Line, *Assignment, *Addition, *Multiplication, *Negation,
// *Power, *Number, *Ident, *Paren, *Call, and *BadExpr.
//
// String renders a node with every operation parenthesized, so that the
// grouping chosen by the parser is visible.
type Node interface {
	String() string
	fmt(b *strings.Builder)
}

// Lines is the root of a script's syntax tree.
type Lines struct {
	Lines []*Line
}

// Line is a single statement. Expr is an *Assignment, an *Addition, or nil
// if the line is empty. After a syntax error, Expr may also be a *BadExpr.
type Line struct {
	Expr Node
}

// Assignment is "name = value".
type Assignment struct {
	Name  Token
	Value Node
}

// Addition is a left-associative chain of + and -. Ops[i] is the operator
// between Terms[i] and Terms[i+1].
type Addition struct {
	Terms []Node
	Ops   []Token
}

// Multiplication is a left-associative chain of * and /. Ops[i] is the
// operator between Factors[i] and Factors[i+1].
type Multiplication struct {
	Factors []Node
	Ops     []Token
}

// Negation is an optional unary minus. When it is the operand of a
// multiplication, Value is a *Power; when it is an exponent, Value is an
// atomic node, so the minus applies only to that operand.
type Negation struct {
	Neg   bool
	Minus Token
	Value Node
}

// Power is a right-associative chain of ^. Exps are *Negation nodes.
type Power struct {
	Base Node
	Exps []Node
	Ops  []Token
}

// Number is a numeric literal.
type Number struct {
	Tok Token
}

// Ident is a variable reference.
type Ident struct {
	Tok Token
}

// Paren is a parenthesized subexpression.
type Paren struct {
	Open  Token
	Expr  Node
	Close Token
}

// Call is a function call. It is only parsed when an identifier is
// immediately followed by an open parenthesis.
type Call struct {
	Name Token
	Args []Node
}

// BadExpr stands in for an expression the parser expected but could not
// parse. Tok is the token found instead.
type BadExpr struct {
	Tok Token
}

func str(n Node) string {
	var b strings.Builder
	n.fmt(&b)
	return b.String()
}

func (n *Lines) String() string          { return str(n) }
func (n *Line) String() string           { return str(n) }
func (n *Assignment) String() string     { return str(n) }
func (n *Addition) String() string       { return str(n) }
func (n *Multiplication) String() string { return str(n) }
func (n *Negation) String() string       { return str(n) }
func (n *Power) String() string          { return str(n) }
func (n *Number) String() string         { return str(n) }
func (n *Ident) String() string          { return str(n) }
func (n *Paren) String() string          { return str(n) }
func (n *Call) String() string           { return str(n) }
func (n *BadExpr) String() string        { return str(n) }

func (n *Lines) fmt(b *strings.Builder) {
	for i, l := range n.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		l.fmt(b)
	}
}

func (n *Line) fmt(b *strings.Builder) {
	if n.Expr != nil {
		n.Expr.fmt(b)
	}
}

func (n *Assignment) fmt(b *strings.Builder) {
	b.WriteString(n.Name.Text)
	b.WriteString(" = ")
	n.Value.fmt(b)
}

// fmtleft writes a left-associative chain as nested binary operations.
func fmtleft(b *strings.Builder, terms []Node, ops []Token) {
	for range ops {
		b.WriteByte('(')
	}
	terms[0].fmt(b)
	for i, op := range ops {
		b.WriteByte(' ')
		b.WriteString(op.Text)
		b.WriteByte(' ')
		terms[i+1].fmt(b)
		b.WriteByte(')')
	}
}

func (n *Addition) fmt(b *strings.Builder) {
	fmtleft(b, n.Terms, n.Ops)
}

func (n *Multiplication) fmt(b *strings.Builder) {
	fmtleft(b, n.Factors, n.Ops)
}

func (n *Negation) fmt(b *strings.Builder) {
	if !n.Neg {
		n.Value.fmt(b)
		return
	}
	b.WriteString("(-")
	n.Value.fmt(b)
	b.WriteByte(')')
}

func (n *Power) fmt(b *strings.Builder) {
	if len(n.Exps) == 0 {
		n.Base.fmt(b)
		return
	}
	b.WriteByte('(')
	n.Base.fmt(b)
	for i, e := range n.Exps {
		b.WriteString(" ^ ")
		if i < len(n.Exps)-1 {
			b.WriteByte('(')
		}
		e.fmt(b)
	}
	b.WriteString(strings.Repeat(")", len(n.Exps)))
}

func (n *Number) fmt(b *strings.Builder) {
	b.WriteString(n.Tok.Text)
}

func (n *Ident) fmt(b *strings.Builder) {
	b.WriteString(n.Tok.Text)
}

func (n *Paren) fmt(b *strings.Builder) {
	n.Expr.fmt(b)
}

func (n *Call) fmt(b *strings.Builder) {
	b.WriteString(n.Name.Text)
	b.WriteByte('(')
	for i, a := range n.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		a.fmt(b)
	}
	b.WriteByte(')')
}

func (n *BadExpr) fmt(b *strings.Builder) {
	// Invalid nodes use invalid characters.
	b.WriteByte('$')
}
