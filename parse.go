package cellcalc

import (
	"unicode/utf8"
)

// Lines = Line { newline Line }
// Line = [ Assignment | Addition ]
// Assignment = ident '=' Addition
// Addition = Multiplication { ('+' | '-') Multiplication }
// Multiplication = Negation { ('*' | '/') Negation }
// Negation = [ '-' ] Power
// Power = Atomic { '^' NegAtomic }
// NegAtomic = [ '-' ] Atomic
// Atomic = '(' Addition ')' | num | ident '(' [ Addition { ',' Addition } ] ')' | ident

// Parse parses a token stream into a syntax tree. Syntax errors do not stop
// parsing. Where an operand is missing, the tree contains a *BadExpr, and
// anything left over on a line after a complete statement is skipped, so
// that later lines still parse. The result always has at least one line.
func Parse(toks []Token) (*Lines, []InputError) {
	p := parser{toks: toks}
	n := p.lines()
	return n, p.errs
}

// ParseLine tokenizes and parses a single line of source.
func ParseLine(src string) (*Line, []*LexError, []InputError) {
	toks, lerrs := Tokenize(src)
	n, perrs := Parse(toks)
	// Tokenize emits no newlines, so there is exactly one line.
	return n.Lines[0], lerrs, perrs
}

// ParseScript tokenizes and parses a script of one or more lines.
func ParseScript(src string) (*Lines, []*LexError, []InputError) {
	toks, lerrs := TokenizeScript(src)
	n, perrs := Parse(toks)
	return n, lerrs, perrs
}

type parser struct {
	toks []Token
	// k is the index of the next token.
	k    int
	errs []InputError
}

// peekAt returns the token i tokens ahead, or an EOF token.
func (p *parser) peekAt(i int) Token {
	if p.k+i < len(p.toks) {
		return p.toks[p.k+i]
	}
	return p.eof()
}

func (p *parser) peek() Token {
	return p.peekAt(0)
}

// eof synthesizes an EOF token positioned just after the last token.
func (p *parser) eof() Token {
	tok := Token{Kind: TokenEOF, Pos: 1, Line: 1}
	if n := len(p.toks); n > 0 {
		last := p.toks[n-1]
		tok.Line = last.Line
		tok.Pos = last.Pos + utf8.RuneCountInString(last.Text)
		if last.Kind == TokenNewline {
			tok.Line++
			tok.Pos = 1
		}
	}
	return tok
}

func (p *parser) next() Token {
	tok := p.peek()
	if p.k < len(p.toks) {
		p.k++
	}
	return tok
}

func (p *parser) at(k TokenKind) bool {
	return p.peek().Kind == k
}

// atEnd returns whether the current line has no more tokens.
func (p *parser) atEnd() bool {
	k := p.peek().Kind
	return k == TokenNewline || k == TokenEOF
}

func (p *parser) fail(err InputError) {
	p.errs = append(p.errs, err)
}

func (p *parser) lines() *Lines {
	n := &Lines{}
	for {
		n.Lines = append(n.Lines, p.line())
		if p.next().Kind == TokenEOF {
			return n
		}
	}
}

func (p *parser) line() *Line {
	n := &Line{}
	errs := len(p.errs)
	switch {
	case p.atEnd():
		return n
	case p.at(TokenIdent) && p.peekAt(1).Kind == TokenAssign:
		name := p.next()
		p.next()
		n.Expr = &Assignment{Name: name, Value: p.addition()}
	default:
		n.Expr = p.addition()
	}
	if p.atEnd() {
		return n
	}
	// Leftover tokens. Only report them if nothing else on the line already
	// explains them.
	if len(p.errs) == errs {
		tok := p.peek()
		if tok.Kind == TokenRParen {
			p.fail(&BracketError{Col: tok.Pos, Line: tok.Line, Right: tok.Text})
		} else {
			p.fail(&UnexpectedTokenError{Col: tok.Pos, Line: tok.Line, Text: tok.Text})
		}
	}
	for !p.atEnd() {
		p.next()
	}
	return n
}

func (p *parser) addition() *Addition {
	n := &Addition{Terms: []Node{p.multiplication()}}
	for p.at(TokenPlus) || p.at(TokenMinus) {
		n.Ops = append(n.Ops, p.next())
		n.Terms = append(n.Terms, p.multiplication())
	}
	return n
}

func (p *parser) multiplication() *Multiplication {
	n := &Multiplication{Factors: []Node{p.negation()}}
	for p.at(TokenStar) || p.at(TokenSlash) {
		n.Ops = append(n.Ops, p.next())
		n.Factors = append(n.Factors, p.negation())
	}
	return n
}

// negation parses a minus that applies to an entire power chain, so that
// -2^2 is -(2^2).
func (p *parser) negation() *Negation {
	n := &Negation{}
	if p.at(TokenMinus) {
		n.Neg = true
		n.Minus = p.next()
	}
	n.Value = p.power()
	return n
}

func (p *parser) power() *Power {
	n := &Power{Base: p.atomic()}
	for p.at(TokenCaret) {
		n.Ops = append(n.Ops, p.next())
		n.Exps = append(n.Exps, p.negatom())
	}
	return n
}

// negatom parses an exponent. Its minus applies only to the following atom,
// so 2^-3^2 is 2^((-3)^2).
func (p *parser) negatom() *Negation {
	n := &Negation{}
	if p.at(TokenMinus) {
		n.Neg = true
		n.Minus = p.next()
	}
	n.Value = p.atomic()
	return n
}

func (p *parser) atomic() Node {
	tok := p.peek()
	switch tok.Kind {
	case TokenNum:
		p.next()
		return &Number{Tok: tok}
	case TokenIdent:
		p.next()
		if p.at(TokenLParen) {
			return p.call(tok)
		}
		return &Ident{Tok: tok}
	case TokenLParen:
		p.next()
		n := &Paren{Open: tok, Expr: p.addition()}
		if !p.at(TokenRParen) {
			p.itShouldNotHaveEndedThisWay(p.peek(), tok)
			return n
		}
		n.Close = p.next()
		return n
	}
	end := tok.Text
	if tok.Kind == TokenEOF || tok.Kind == TokenNewline {
		end = ""
	}
	p.fail(&EmptyExpressionError{Col: tok.Pos, Line: tok.Line, End: end})
	return &BadExpr{Tok: tok}
}

// call parses the argument list of a call. The current token is the open
// parenthesis.
func (p *parser) call(name Token) *Call {
	open := p.next()
	n := &Call{Name: name}
	if p.at(TokenRParen) {
		p.next()
		return n
	}
	for {
		n.Args = append(n.Args, p.addition())
		if !p.at(TokenComma) {
			break
		}
		p.next()
	}
	if !p.at(TokenRParen) {
		p.itShouldNotHaveEndedThisWay(p.peek(), open)
		return n
	}
	p.next()
	return n
}

// itShouldNotHaveEndedThisWay records an error for a token found where the
// close parenthesis matching open was expected.
func (p *parser) itShouldNotHaveEndedThisWay(tok, open Token) {
	if tok.Kind == TokenEOF || tok.Kind == TokenNewline {
		p.fail(&BracketError{Col: tok.Pos, Line: tok.Line, Left: open.Text})
		return
	}
	p.fail(&UnexpectedTokenError{Col: tok.Pos, Line: tok.Line, Text: tok.Text, Want: ")"})
}
