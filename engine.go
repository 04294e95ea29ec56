package cellcalc

import (
	"fortio.org/log"
	"golang.org/x/exp/slices"
)

// LineResult holds everything the engine knows about one line of a script.
type LineResult struct {
	// Text is the source of the line.
	Text string
	// Var is the variable the line assigned, or empty if it assigned none.
	Var   string
	Value Value

	Tokens      []Token
	LexErrors   []*LexError
	ParseErrors []InputError
	// Fault is the runtime fault that aborted the line's evaluation, if any.
	Fault error
	// Tree is the line's syntax tree.
	Tree *Line
}

// Engine evaluates scripts incrementally. Each call to Execute re-runs only
// the lines from the first one that differs from the previous call, reusing
// the cached bindings of the unchanged prefix. It is not safe to use an
// Engine concurrently.
type Engine struct {
	// file is the last script executed. It is kept only to recognize
	// resubmission of the same slice; diffing uses the text in entries.
	file    []string
	entries []LineResult

	reg       *Registry
	prec      uint
	cacheSize int
	ev        *Evaluator

	reprocessed int
}

// New creates an engine. Without a WithRegistry option, it uses the standard
// functions and constants.
func New(opts ...Option) *Engine {
	cfg := resolve(opts)
	e := Engine{prec: cfg.prec, cacheSize: cfg.cacheSize}
	e.ReloadWith(cfg.reg)
	return &e
}

// ReloadWith discards all cached results and replaces the engine's functions
// and constants. The next Execute runs every line.
func (e *Engine) ReloadWith(reg *Registry) {
	e.reg = reg
	e.ev = NewEvaluator(reg, e.prec, e.cacheSize)
	e.file = nil
	e.entries = nil
	e.reprocessed = 0
}

// Execute runs a script given as lines. If lines is the same slice as the
// last call with the same length, nothing is done; a caller that modifies the
// slice in place must pass a new slice to see the change. Otherwise, lines
// from the first that differs from the cache onward are lexed, parsed, and
// evaluated again, and the results of earlier lines are kept.
func (e *Engine) Execute(lines []string) {
	if len(e.entries) != 0 && sameslice(lines, e.file) {
		e.reprocessed = 0
		log.LogVf("execute: same script, nothing to do")
		return
	}
	i := 0
	for i < len(lines) && i < len(e.entries) && e.entries[i].Text == lines[i] {
		i++
	}
	e.invalidate(i)
	env := e.prefixEnv()
	for k := i; k < len(lines); k++ {
		e.entries = append(e.entries, e.run(k, lines[k], env))
	}
	e.file = lines
	e.reprocessed = len(lines) - i
	log.LogVf("execute: %d of %d lines reprocessed", e.reprocessed, len(lines))
}

// invalidate drops cached entries from index i onward.
func (e *Engine) invalidate(i int) {
	clear(e.entries[i:])
	e.entries = e.entries[:i]
}

// prefixEnv builds the environment seen by the line after the cached entries.
func (e *Engine) prefixEnv() Env {
	env := e.reg.env()
	for _, r := range e.entries {
		if r.Var != "" {
			env[r.Var] = r.Value
		}
	}
	return env
}

// run processes the line at index k, committing its assignment to env.
func (e *Engine) run(k int, text string, env Env) LineResult {
	r := LineResult{Text: text}
	r.Tokens, r.LexErrors = tokenizeAt(text, k+1)
	tree, perrs := Parse(r.Tokens)
	r.Tree, r.ParseErrors = tree.Lines[0], perrs
	name, v, err := e.ev.Line(r.Tree, env)
	if err != nil {
		log.LogVf("line %d: %v", k+1, err)
		r.Value, r.Fault = NaN(), err
		return r
	}
	if name != "" {
		env[name] = v
	}
	r.Var, r.Value = name, v
	log.LogVf("line %d: %q = %v", k+1, name, v)
	return r
}

// sameslice reports whether a and b are the same slice.
func sameslice(a, b []string) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

// Registry returns the engine's functions and constants.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Prec returns the precision of the engine's calculations in bits.
func (e *Engine) Prec() uint {
	return e.prec
}

// Reprocessed returns the number of lines the last Execute ran.
func (e *Engine) Reprocessed() int {
	return e.reprocessed
}

// File returns the source of each line of the last script executed.
func (e *Engine) File() []string {
	r := make([]string, len(e.entries))
	for i, l := range e.entries {
		r[i] = l.Text
	}
	return r
}

// Lines returns the cached results for each line.
func (e *Engine) Lines() []LineResult {
	return slices.Clone(e.entries)
}

// Line returns the cached result for line i, counting from 0.
func (e *Engine) Line(i int) LineResult {
	return e.entries[i]
}

// Vars returns the variable assigned by each line, or empty strings for
// lines that assigned none.
func (e *Engine) Vars() []string {
	r := make([]string, len(e.entries))
	for i, l := range e.entries {
		r[i] = l.Var
	}
	return r
}

// Results returns the value of each line.
func (e *Engine) Results() []Value {
	r := make([]Value, len(e.entries))
	for i, l := range e.entries {
		r[i] = l.Value
	}
	return r
}

// Tokens returns the tokens of each line.
func (e *Engine) Tokens() [][]Token {
	r := make([][]Token, len(e.entries))
	for i, l := range e.entries {
		r[i] = slices.Clone(l.Tokens)
	}
	return r
}

// LexErrors returns the lexical errors of each line.
func (e *Engine) LexErrors() [][]*LexError {
	r := make([][]*LexError, len(e.entries))
	for i, l := range e.entries {
		r[i] = slices.Clone(l.LexErrors)
	}
	return r
}

// ParseErrors returns the syntax errors of each line.
func (e *Engine) ParseErrors() [][]InputError {
	r := make([][]InputError, len(e.entries))
	for i, l := range e.entries {
		r[i] = slices.Clone(l.ParseErrors)
	}
	return r
}

// Faults returns the runtime fault of each line, or nil for lines that
// evaluated without one.
func (e *Engine) Faults() []error {
	r := make([]error, len(e.entries))
	for i, l := range e.entries {
		r[i] = l.Fault
	}
	return r
}

// Env returns the variables visible after the last line, including
// constants.
func (e *Engine) Env() Env {
	return e.prefixEnv()
}
