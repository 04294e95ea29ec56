package cellcalc

import (
	"reflect"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", ""},
		{"blank", "  \t", ""},
		{"num", "1", "1"},
		{"ident", "x", "x"},
		{"add", "1+2-3", "((1 + 2) - 3)"},
		{"mul", "1*2/3", "((1 * 2) / 3)"},
		{"addmul", "1+2*3", "(1 + (2 * 3))"},
		{"paren", "(1+2)*3", "((1 + 2) * 3)"},
		{"neg", "-x", "(-x)"},
		{"negmul", "a*-b", "(a * (-b))"},
		{"subneg", "a--b", "(a - (-b))"},
		{"pow", "2^3", "(2 ^ 3)"},
		{"powright", "2^3^4", "(2 ^ (3 ^ 4))"},
		{"pow4", "w^x^y^z", "(w ^ (x ^ (y ^ z)))"},
		{"negpow", "-2^3", "(-(2 ^ 3))"},
		{"negpowneg", "-2^-3", "(-(2 ^ (-3)))"},
		{"powneg", "2^-3^2", "(2 ^ ((-3) ^ 2))"},
		{"powparen", "4^(3/2)", "(4 ^ (3 / 2))"},
		{"powmul", "w^x*y+z", "(((w ^ x) * y) + z)"},
		{"assign", "x = 1 + 2", "x = (1 + 2)"},
		{"assignneg", "a = 10 * -2", "a = (10 * (-2))"},
		{"call0", "f()", "f()"},
		{"call1", "sqrt(9)", "sqrt(9)"},
		{"call2", "f(a, b+1)", "f(a, (b + 1))"},
		{"callspace", "f (x)", "f(x)"},
		{"callpow", "sqrt(9)^2", "(sqrt(9) ^ 2)"},
		{"callnested", "max(1, min(2, 3))", "max(1, min(2, 3))"},
		{"shadow", "sqrt = sqrt(9)", "sqrt = sqrt(9)"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			n, lerrs, perrs := ParseLine(c.src)
			require.Empty(t, lerrs)
			require.Empty(t, perrs)
			assert.Equal(t, c.want, n.String())
			// Rendered trees are valid source for the same tree.
			m, _, perrs := ParseLine(c.want)
			require.Empty(t, perrs)
			assert.Equal(t, c.want, m.String())
		})
	}
}

func TestParseNodes(t *testing.T) {
	n, _, _ := ParseLine("x = -2^-3")
	a, ok := n.Expr.(*Assignment)
	require.True(t, ok, "want *Assignment, got %T", n.Expr)
	assert.Equal(t, "x", a.Name.Text)
	add := a.Value.(*Addition)
	require.Len(t, add.Terms, 1)
	mul := add.Terms[0].(*Multiplication)
	require.Len(t, mul.Factors, 1)
	neg := mul.Factors[0].(*Negation)
	assert.True(t, neg.Neg)
	pow := neg.Value.(*Power)
	assert.Equal(t, "2", pow.Base.(*Number).Tok.Text)
	require.Len(t, pow.Exps, 1)
	exp := pow.Exps[0].(*Negation)
	assert.True(t, exp.Neg)
	assert.Equal(t, "3", exp.Value.(*Number).Tok.Text)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		col  int
		res  []string
	}{
		{"emptyparen", "()", new(EmptyExpressionError), 2, []string{`\bno expression\b`, `"\)"`}},
		{"emptyoperand", "x*", new(EmptyExpressionError), 3, []string{`\bno expression\b`, `\bend\b`}},
		{"emptyunary", "x*-", new(EmptyExpressionError), 4, []string{`\bno expression\b`, `\bend\b`}},
		{"emptyassign", "x = ", new(EmptyExpressionError), 4, []string{`\bend\b`}},
		{"noname", "= 1", new(EmptyExpressionError), 1, []string{`"="`}},
		{"nonunary", "*x", new(EmptyExpressionError), 1, []string{`"\*"`}},
		{"negneg", "--x", new(EmptyExpressionError), 2, []string{`"-"`}},
		{"emptyarg", "f(1,)", new(EmptyExpressionError), 5, []string{`"\)"`}},
		{"left", "(x", new(BracketError), 3, []string{`\bbracket\b`, `\(`}},
		{"right", "x)", new(BracketError), 2, []string{`\bbracket\b`, `\)`}},
		{"callleft", "f(x", new(BracketError), 4, []string{`\bbracket\b`, `\(`}},
		{"callsep", "f(x y)", new(UnexpectedTokenError), 5, []string{`"y"`, `expected "\)"`}},
		{"juxtapose", "1 2", new(UnexpectedTokenError), 3, []string{`"2"`, `\bafter expression\b`}},
		{"reassign", "a = b = c", new(UnexpectedTokenError), 7, []string{`"="`}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			_, lerrs, perrs := ParseLine(c.src)
			assert.Empty(t, lerrs)
			require.Len(t, perrs, 1, "errors: %v", perrs)
			err := perrs[0]
			assert.Equal(t, reflect.TypeOf(c.err), reflect.TypeOf(err))
			assert.Equal(t, c.col, err.Pos())
			for _, re := range c.res {
				assert.Regexp(t, regexp.MustCompile(re), err.Error())
			}
		})
	}
}

func TestParseLexErrors(t *testing.T) {
	n, lerrs, perrs := ParseLine("2^exp(-$)")
	require.Len(t, lerrs, 1)
	assert.Equal(t, "$", lerrs[0].Text)
	require.Len(t, perrs, 1)
	assert.IsType(t, new(EmptyExpressionError), perrs[0])
	assert.Equal(t, "(2 ^ exp((-$)))", n.String())
}

func TestParseScript(t *testing.T) {
	n, lerrs, perrs := ParseScript("a = (1\nb = 2\n)\n\nc = a")
	assert.Empty(t, lerrs)
	require.Len(t, n.Lines, 5)
	assert.Equal(t, "a = 1\nb = 2\n$\n\nc = a", n.String())
	require.Len(t, perrs, 2)
	var be *BracketError
	require.ErrorAs(t, perrs[0], &be)
	assert.Equal(t, 1, be.Line)
	assert.Equal(t, 7, be.Col)
	var ee *EmptyExpressionError
	require.ErrorAs(t, perrs[1], &ee)
	assert.Equal(t, 3, ee.Line)
	assert.Equal(t, 1, ee.Col)
}

func TestParseTrailingNewline(t *testing.T) {
	n, _, perrs := ParseScript("1\n")
	assert.Empty(t, perrs)
	require.Len(t, n.Lines, 2)
	assert.Nil(t, n.Lines[1].Expr)
}

func TestParseEmptyTokens(t *testing.T) {
	n, perrs := Parse(nil)
	assert.Empty(t, perrs)
	require.Len(t, n.Lines, 1)
	assert.Nil(t, n.Lines[0].Expr)
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "w^x*y+z+a*b^c"},
		{"descasc-parens", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"nums", "1^1.1*1.1e1+1.1e-1+.1*2^-3"},
		{"call", "max(a, b, sqrt(c), 4)"},
		{"assign", "total = subtotal * (1 + rate / 100)"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ParseLine(c.src)
			}
		})
	}
}
