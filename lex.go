package cellcalc

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Token is a lexeme of a line of source.
type Token struct {
	Kind TokenKind
	Text string
	// Pos is the 1-based rune column of the first rune of the token.
	Pos int
	// Line is the 1-based line number of the token.
	Line int
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Pos)
}

// TokenKind is the type of a token.
type TokenKind int8

const (
	TokenNone TokenKind = iota
	// TokenEOF indicates the end of the input. Tokenize never returns it; the
	// parser synthesizes it.
	TokenEOF
	// TokenNum is a number literal, possibly with a fraction or exponent.
	TokenNum
	// TokenIdent is a variable or function name.
	TokenIdent
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenCaret
	TokenLParen
	TokenRParen
	TokenComma
	TokenAssign
	// TokenNewline separates lines. Only TokenizeScript produces it.
	TokenNewline
)

var tokenKindNames = [...]string{
	TokenNone:    "None",
	TokenEOF:     "EOF",
	TokenNum:     "Num",
	TokenIdent:   "Ident",
	TokenPlus:    "Plus",
	TokenMinus:   "Minus",
	TokenStar:    "Star",
	TokenSlash:   "Slash",
	TokenCaret:   "Caret",
	TokenLParen:  "LParen",
	TokenRParen:  "RParen",
	TokenComma:   "Comma",
	TokenAssign:  "Assign",
	TokenNewline: "Newline",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// punctuation maps single-rune tokens to their kinds.
var punctuation = map[rune]TokenKind{
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenStar,
	'/': TokenSlash,
	'^': TokenCaret,
	'(': TokenLParen,
	')': TokenRParen,
	',': TokenComma,
	'=': TokenAssign,
}

// Tokenize splits one line of source into tokens. Whitespace, including any
// line breaks, is skipped. Runes that cannot start a token are reported as
// errors and skipped, so the rest of the line is still scanned.
func Tokenize(line string) ([]Token, []*LexError) {
	return tokenizeAt(line, 1)
}

// tokenizeAt tokenizes one line with tokens and errors marked as being on
// line lineno.
func tokenizeAt(line string, lineno int) ([]Token, []*LexError) {
	l := lexer{src: line, col: 1, line: lineno}
	l.run()
	return l.toks, l.errs
}

// TokenizeScript tokenizes a whole script, emitting a TokenNewline for each
// line break ("\n", "\r\n", or "\r").
func TokenizeScript(src string) ([]Token, []*LexError) {
	l := lexer{src: src, col: 1, line: 1, newlines: true}
	l.run()
	return l.toks, l.errs
}

type lexer struct {
	src string
	// off is the byte offset of the next rune.
	off int
	// col and line are the position of the next rune.
	col  int
	line int
	// newlines indicates whether line breaks are tokens.
	newlines bool

	toks []Token
	errs []*LexError
}

// peek returns the rune k runes ahead without consuming anything, or -1 if
// the input ends first.
func (l *lexer) peek(k int) rune {
	off := l.off
	for {
		if off >= len(l.src) {
			return -1
		}
		r, sz := utf8.DecodeRuneInString(l.src[off:])
		if k == 0 {
			return r
		}
		off += sz
		k--
	}
}

// readRune consumes a rune and updates position info.
func (l *lexer) readRune() rune {
	r, sz := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += sz
	l.col++
	return r
}

func (l *lexer) emit(kind TokenKind, start, pos int) {
	l.toks = append(l.toks, Token{Kind: kind, Text: l.src[start:l.off], Pos: pos, Line: l.line})
}

func (l *lexer) run() {
	for l.off < len(l.src) {
		start, pos := l.off, l.col
		r := l.peek(0)
		switch {
		case r == '\n' || r == '\r':
			l.readRune()
			if r == '\r' && l.peek(0) == '\n' {
				l.readRune()
			}
			if l.newlines {
				l.emit(TokenNewline, start, pos)
				l.line++
				l.col = 1
			}
		case unicode.IsSpace(r):
			l.readRune()
		case l.startsNum():
			l.scanNum()
			l.emit(TokenNum, start, pos)
		case unicode.IsLetter(r):
			l.scanIdent()
			l.emit(TokenIdent, start, pos)
		default:
			if k, ok := punctuation[r]; ok {
				l.readRune()
				l.emit(k, start, pos)
				continue
			}
			l.scanInvalid()
			l.errs = append(l.errs, &LexError{Text: l.src[start:l.off], Col: pos, Line: l.line})
		}
	}
}

func (l *lexer) startsNum() bool {
	r := l.peek(0)
	return isDigit(r) || r == '.' && isDigit(l.peek(1))
}

func (l *lexer) skipDigits() {
	for isDigit(l.peek(0)) {
		l.readRune()
	}
}

// scanNum scans digits? ('.' digits)? ([eE] [+-]? digits)?. A dot or exponent
// marker that isn't followed by digits is left for the next token.
func (l *lexer) scanNum() {
	l.skipDigits()
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.readRune()
		l.skipDigits()
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		k := 1
		if s := l.peek(1); s == '+' || s == '-' {
			k = 2
		}
		if isDigit(l.peek(k)) {
			for ; k > 0; k-- {
				l.readRune()
			}
			l.skipDigits()
		}
	}
}

func (l *lexer) scanIdent() {
	l.readRune()
	for {
		r := l.peek(0)
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return
		}
		l.readRune()
	}
}

// scanInvalid consumes a run of runes that cannot start any token.
func (l *lexer) scanInvalid() {
	l.readRune()
	for l.off < len(l.src) {
		r := l.peek(0)
		if unicode.IsSpace(r) || unicode.IsLetter(r) || l.startsNum() {
			return
		}
		if _, ok := punctuation[r]; ok {
			return
		}
		l.readRune()
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// LexError indicates runes that do not form any token. It implements
// InputError.
type LexError struct {
	// Text is the run of unrecognized runes.
	Text string
	// Col is the 1-based rune column of the first unrecognized rune.
	Col int
	// Line is the 1-based line on which the runes appear.
	Line int
}

func (err *LexError) Error() string {
	return errpos(err.Line, err.Col, "invalid token "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}
