package cellcalc_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zephyrtronium/cellcalc"
)

func strs(vals []cellcalc.Value) []string {
	r := make([]string, len(vals))
	for i, v := range vals {
		r[i] = v.String()
	}
	return r
}

func TestExecuteScripts(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"chain", []string{"a = 10 * -2", "b = (30 / 20)^2", "c = 90 - a * b"}, []string{"-20", "2.25", "135"}},
		{"undefined", []string{"a = b + 1", "a"}, []string{"NaN", "NaN"}},
		{"shadow", []string{"sqrt = sqrt(9)", "sqrt ^ 2"}, []string{"3", "9"}},
		{"syntax", []string{"a = 10 * ", "b = (30 / 20)^2", "c = 90 - a * b"}, []string{"NaN", "2.25", "NaN"}},
		{"rightassoc", []string{"2^2^3", "-2^-3", "2^-3", "-2^3"}, []string{"256", "-0.125", "0.125", "-8"}},
		{"empty", []string{""}, []string{"NaN"}},
		{"none", nil, []string{}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			e := cellcalc.New()
			e.Execute(c.lines)
			assert.Equal(t, c.want, strs(e.Results()))
			assert.Equal(t, len(c.lines), e.Reprocessed())
		})
	}
}

func TestExecuteUndefinedLeavesNoBinding(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = b + 1", "a"})
	assert.Equal(t, []string{"", ""}, e.Vars())
	_, ok := e.Env()["a"]
	assert.False(t, ok)
	faults := e.Faults()
	var ne *cellcalc.NameError
	require.ErrorAs(t, faults[0], &ne)
	assert.Equal(t, "b", ne.Name)
	require.ErrorAs(t, faults[1], &ne)
	assert.Equal(t, "a", ne.Name)
}

func TestExecuteSameSlice(t *testing.T) {
	e := cellcalc.New()
	lines := []string{"a = 1", "b = a + 1", "c = b * 2"}
	e.Execute(lines)
	assert.Equal(t, 3, e.Reprocessed())
	before := e.Lines()
	e.Execute(lines)
	assert.Equal(t, 0, e.Reprocessed())
	after := e.Lines()
	require.Len(t, after, 3)
	for i := range after {
		assert.Same(t, before[i].Tree, after[i].Tree, "line %d was reparsed", i+1)
	}
	assert.Equal(t, []string{"1", "2", "4"}, strs(e.Results()))
}

func TestExecuteSameText(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = 1", "b = a + 1"})
	before := e.Lines()
	e.Execute([]string{"a = 1", "b = a + 1"})
	assert.Equal(t, 0, e.Reprocessed())
	assert.Same(t, before[1].Tree, e.Lines()[1].Tree)
}

func TestExecuteInPlaceEdit(t *testing.T) {
	// Modifying the previous slice and resubmitting it is indistinguishable
	// from resubmitting it unchanged.
	e := cellcalc.New()
	lines := []string{"a = 1", "a + 1"}
	e.Execute(lines)
	lines[0] = "a = 5"
	e.Execute(lines)
	assert.Equal(t, 0, e.Reprocessed())
	assert.Equal(t, []string{"1", "2"}, strs(e.Results()))
	e.Execute(append([]string(nil), lines...))
	assert.Equal(t, 2, e.Reprocessed())
	assert.Equal(t, []string{"5", "6"}, strs(e.Results()))
}

func TestExecuteEdits(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = 1", "b = a + 1", "c = b * 2"})
	before := e.Lines()

	e.Execute([]string{"a = 1", "b = a + 10", "c = b * 2"})
	assert.Equal(t, 2, e.Reprocessed())
	assert.Equal(t, []string{"1", "11", "22"}, strs(e.Results()))
	assert.Same(t, before[0].Tree, e.Lines()[0].Tree)

	e.Execute([]string{"a = 1", "b = a + 10", "c = b * 2", "c + a"})
	assert.Equal(t, 1, e.Reprocessed())
	assert.Equal(t, []string{"1", "11", "22", "23"}, strs(e.Results()))

	e.Execute([]string{"a = 1", "b = a + 10"})
	assert.Equal(t, 0, e.Reprocessed())
	assert.Equal(t, []string{"1", "11"}, strs(e.Results()))
	assert.Equal(t, []string{"a = 1", "b = a + 10"}, e.File())

	e.Execute([]string{"a = 2", "b = a + 10"})
	assert.Equal(t, 2, e.Reprocessed())
	assert.Equal(t, []string{"2", "12"}, strs(e.Results()))

	e.Execute(nil)
	assert.Equal(t, 0, e.Reprocessed())
	assert.Empty(t, e.Results())
}

func TestExecuteStaleBinding(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = 1", "b = a"})
	assert.Equal(t, []string{"1", "1"}, strs(e.Results()))
	// a is no longer assigned, so b must not see the old binding.
	e.Execute([]string{"c = 1", "b = a"})
	assert.Equal(t, []string{"1", "NaN"}, strs(e.Results()))
	assert.Equal(t, []string{"c", ""}, e.Vars())
	_, ok := e.Env()["a"]
	assert.False(t, ok)
}

func TestExecuteLinePositions(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = 1", "b = $ + 1", "c = (a"})
	toks := e.Tokens()
	require.Len(t, toks, 3)
	for i, line := range toks {
		for _, tok := range line {
			assert.Equal(t, i+1, tok.Line, "token %v", tok)
		}
	}
	lerrs := e.LexErrors()
	assert.Empty(t, lerrs[0])
	require.Len(t, lerrs[1], 1)
	assert.Equal(t, cellcalc.LexError{Text: "$", Col: 5, Line: 2}, *lerrs[1][0])
	perrs := e.ParseErrors()
	assert.Empty(t, perrs[0])
	require.Len(t, perrs[1], 1)
	require.Len(t, perrs[2], 1)
	var be *cellcalc.BracketError
	require.ErrorAs(t, perrs[2][0], &be)
	assert.Equal(t, 3, be.Line)
	assert.Equal(t, 7, be.Col)
}

func TestExecuteAccessorsCopy(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"a = 1"})
	e.Vars()[0] = "z"
	e.Tokens()[0][0].Text = "z"
	e.Lines()[0].Var = "z"
	assert.Equal(t, []string{"a"}, e.Vars())
	assert.Equal(t, "a", e.Tokens()[0][0].Text)
	assert.Equal(t, "a", e.Line(0).Var)
}

func TestReloadWith(t *testing.T) {
	e := cellcalc.New()
	lines := []string{"sqrt(16)", "pi"}
	e.Execute(lines)
	assert.Equal(t, "4", e.Results()[0].String())

	reg, err := cellcalc.NewRegistry(
		[]cellcalc.FuncDef{{Name: "sqrt", Fn: func([]cellcalc.Value) cellcalc.Value { return cellcalc.FromInt64(-1, 64) }}},
		[]cellcalc.ConstDef{{Name: "k", Value: cellcalc.FromInt64(3, 64)}},
	)
	require.NoError(t, err)
	e.ReloadWith(reg)
	assert.Empty(t, e.Results())
	// The same slice is rerun after a reload.
	e.Execute(lines)
	assert.Equal(t, 2, e.Reprocessed())
	assert.Equal(t, "-1", e.Results()[0].String())

	e.Execute([]string{"k * 2", "pi"})
	assert.Equal(t, "6", e.Results()[0].String())
	assert.Error(t, e.Faults()[1])
	assert.Same(t, reg, e.Registry())
}

func TestExecuteConstantsRestored(t *testing.T) {
	e := cellcalc.New()
	e.Execute([]string{"pi = 3", "pi"})
	assert.Equal(t, "3", e.Results()[1].String())
	e.Execute([]string{"x = 3", "pi"})
	assert.InDelta(t, 3.14159, e.Results()[1].Float64(), 1e-5)
}

// randomScript builds a script from lines that exercise assignment,
// reassignment, undefined names, and syntax errors.
func randomScript(rng *rand.Rand, n int) []string {
	pool := []string{
		"a = 1", "b = a + 1", "a = b * 2", "c = a ^ 2", "a", "b = sqrt(c)",
		"", "d = c - b", "x = (", "c = c + 1", "1 +* 2", "e = d / 0", "b = -b^-2",
		"pi = a", "max(a, b, c)", "nope(a)", "a = $",
	}
	r := make([]string, n)
	for i := range r {
		r[i] = pool[rng.Intn(len(pool))]
	}
	return r
}

func TestExecuteIncrementalEquivalence(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := cellcalc.New()
	prev := []string(nil)
	for iter := 0; iter < 500; iter++ {
		var next []string
		switch rng.Intn(4) {
		case 0:
			next = randomScript(rng, rng.Intn(10))
		case 1:
			// Edit one line.
			next = append([]string(nil), prev...)
			if len(next) > 0 {
				next[rng.Intn(len(next))] = randomScript(rng, 1)[0]
			}
		case 2:
			// Keep a prefix and replace the rest.
			k := 0
			if len(prev) > 0 {
				k = rng.Intn(len(prev) + 1)
			}
			next = append(append([]string(nil), prev[:k]...), randomScript(rng, rng.Intn(4))...)
		case 3:
			next = prev
		}
		e.Execute(next)

		fresh := cellcalc.New()
		fresh.Execute(append([]string(nil), next...))
		require.Equal(t, strs(fresh.Results()), strs(e.Results()), "iteration %d: %q", iter, next)
		require.Equal(t, fresh.Vars(), e.Vars(), "iteration %d: %q", iter, next)
		require.Equal(t, append([]string{}, next...), e.File())
		prev = next
	}
}

func TestExecuteReprocessedSuffix(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	e := cellcalc.New()
	prev := randomScript(rng, 6)
	e.Execute(prev)
	for iter := 0; iter < 100; iter++ {
		next := randomScript(rng, rng.Intn(8))
		k := 0
		for k < len(prev) && k < len(next) && prev[k] == next[k] {
			k++
		}
		e.Execute(next)
		assert.Equal(t, len(next)-k, e.Reprocessed(), "%q -> %q", prev, next)
		prev = next
	}
}

func BenchmarkExecute(b *testing.B) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "x" + strings.Repeat("y", i%7) + " = " + strings.Repeat("(1 + 2) * 3 ^ 2 - ", 5) + "4"
	}
	b.Run("full", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			e := cellcalc.New()
			e.Execute(lines)
		}
	})
	b.Run("lastline", func(b *testing.B) {
		b.ReportAllocs()
		e := cellcalc.New()
		e.Execute(lines)
		edit := append([]string(nil), lines...)
		for i := 0; i < b.N; i++ {
			if i%2 == 0 {
				edit[len(edit)-1] = "1"
			} else {
				edit[len(edit)-1] = "2"
			}
			e.Execute(append([]string(nil), edit...))
		}
	})
}
