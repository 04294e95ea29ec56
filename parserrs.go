package cellcalc

import (
	"strconv"
	"strings"
)

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based rune column of the token that caused the error.
	Pos() int
}

// UnexpectedTokenError reports a complete expression followed by a token
// that cannot continue it.
type UnexpectedTokenError struct {
	// Col and Line are the position of the token.
	Col, Line int
	// Text is the token that was found.
	Text string
	// Want is the only token that could have appeared there, if there is
	// exactly one.
	Want string
}

func (err *UnexpectedTokenError) Error() string {
	msg := "unexpected " + strconv.Quote(err.Text)
	if err.Want != "" {
		msg += ", expected " + strconv.Quote(err.Want)
	} else {
		msg += " after expression"
	}
	return errpos(err.Line, err.Col, msg)
}

func (err *UnexpectedTokenError) Pos() int { return err.Col }

// BracketError reports an unbalanced parenthesis. Exactly one of Left and
// Right is set.
type BracketError struct {
	// Col and Line locate the unmatched ")", or the end of the line for an
	// unclosed "(".
	Col, Line int
	Left      string
	Right     string
}

func (err *BracketError) Error() string {
	if err.Left != "" {
		return errpos(err.Line, err.Col, "bracket "+err.Left+" is never closed")
	}
	return errpos(err.Line, err.Col, "closing bracket "+err.Right+" was never opened")
}

func (err *BracketError) Pos() int { return err.Col }

// EmptyExpressionError reports a missing operand or argument.
type EmptyExpressionError struct {
	Col, Line int
	// End is the token found where the expression should have been. It is
	// empty when the line ended instead.
	End string
}

func (err *EmptyExpressionError) Error() string {
	switch {
	case err.End != "":
		return errpos(err.Line, err.Col, "no expression before "+strconv.Quote(err.End))
	case err.Col <= 1:
		return errpos(err.Line, err.Col, "no expression")
	default:
		return errpos(err.Line, err.Col, "no expression at end of line")
	}
}

func (err *EmptyExpressionError) Pos() int { return err.Col }

// errpos prefixes msg with line:col, or only col when the line is unknown.
func errpos(line, col int, msg string) string {
	var b strings.Builder
	if line > 0 {
		b.WriteString(strconv.Itoa(line))
		b.WriteByte(':')
	}
	b.WriteString(strconv.Itoa(col))
	b.WriteString(": ")
	b.WriteString(msg)
	return b.String()
}

var (
	_ InputError = (*UnexpectedTokenError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*LexError)(nil)
	_ InputError = (*NameError)(nil)
	_ InputError = (*SyntaxFault)(nil)
)
