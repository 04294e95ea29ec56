package cellcalc

import (
	"strconv"

	"fortio.org/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Env is the set of variables visible to a line, including constants.
type Env map[string]Value

// Clone returns a copy of env. Values are immutable, so they are shared.
func (env Env) Clone() Env {
	r := make(Env, len(env))
	for k, v := range env {
		r[k] = v
	}
	return r
}

// Evaluator computes the values of syntax trees. It is not safe to use an
// Evaluator concurrently.
type Evaluator struct {
	reg  *Registry
	prec uint
	// nums caches parsed literals by their text. Nil disables caching.
	nums *lru.Cache[string, Value]
}

// NewEvaluator creates an evaluator calling functions from reg and computing
// to prec bits. Up to cacheSize distinct literals are kept parsed; a
// non-positive cacheSize disables the literal cache.
func NewEvaluator(reg *Registry, prec uint, cacheSize int) *Evaluator {
	ev := Evaluator{reg: reg, prec: prec}
	if cacheSize > 0 {
		// lru.New fails only for non-positive sizes.
		ev.nums, _ = lru.New[string, Value](cacheSize)
	}
	return &ev
}

// Prec returns the precision to which values are computed.
func (ev *Evaluator) Prec() uint {
	return ev.prec
}

// Result is the outcome of evaluating one line.
type Result struct {
	// Var is the variable the line assigned, or empty if it assigned none.
	// A line that faulted assigns nothing.
	Var   string
	Value Value
	// Fault is the runtime fault that aborted the line, if any.
	Fault error
}

// EvalLines evaluates each line of n in order, adding each assignment to env
// before evaluating the next line. A line that faults has a NaN result and
// changes nothing in env.
func (ev *Evaluator) EvalLines(n *Lines, env Env) []Result {
	r := make([]Result, len(n.Lines))
	for i, l := range n.Lines {
		name, v, err := ev.Line(l, env)
		if err != nil {
			log.LogVf("line %d: %v", i+1, err)
			r[i] = Result{Value: NaN(), Fault: err}
			continue
		}
		if name != "" {
			env[name] = v
		}
		r[i] = Result{Var: name, Value: v}
	}
	return r
}

// Line evaluates a single line. If the line is an assignment, name is the
// assigned variable. Line does not modify env; committing the assignment is
// up to the caller. An empty line evaluates to NaN and assigns nothing.
func (ev *Evaluator) Line(n *Line, env Env) (name string, v Value, err error) {
	switch e := n.Expr.(type) {
	case nil:
		return "", NaN(), nil
	case *Assignment:
		v, err := ev.Eval(e.Value, env)
		if err != nil {
			return "", NaN(), err
		}
		return e.Name.Text, v, nil
	default:
		v, err := ev.Eval(e, env)
		if err != nil {
			return "", NaN(), err
		}
		return "", v, nil
	}
}

// Eval computes the value of an expression node. The error is a *NameError
// or *SyntaxFault describing the fault that aborted evaluation.
func (ev *Evaluator) Eval(n Node, env Env) (Value, error) {
	switch n := n.(type) {
	case *Addition:
		r, err := ev.Eval(n.Terms[0], env)
		if err != nil {
			return NaN(), err
		}
		for i, op := range n.Ops {
			x, err := ev.Eval(n.Terms[i+1], env)
			if err != nil {
				return NaN(), err
			}
			if op.Kind == TokenPlus {
				r = add(ev.prec, r, x)
			} else {
				r = sub(ev.prec, r, x)
			}
		}
		return r, nil
	case *Multiplication:
		r, err := ev.Eval(n.Factors[0], env)
		if err != nil {
			return NaN(), err
		}
		for i, op := range n.Ops {
			x, err := ev.Eval(n.Factors[i+1], env)
			if err != nil {
				return NaN(), err
			}
			if op.Kind == TokenStar {
				r = mul(ev.prec, r, x)
			} else {
				r = quo(ev.prec, r, x)
			}
		}
		return r, nil
	case *Negation:
		v, err := ev.Eval(n.Value, env)
		if err != nil || !n.Neg {
			return v, err
		}
		return neg(v), nil
	case *Power:
		// Operands are evaluated in source order, then folded from the
		// right: a^b^c is a^(b^c).
		vals := make([]Value, 0, 1+len(n.Exps))
		b, err := ev.Eval(n.Base, env)
		if err != nil {
			return NaN(), err
		}
		vals = append(vals, b)
		for _, e := range n.Exps {
			x, err := ev.Eval(e, env)
			if err != nil {
				return NaN(), err
			}
			vals = append(vals, x)
		}
		r := vals[len(vals)-1]
		for i := len(vals) - 2; i >= 0; i-- {
			r = pow(ev.prec, vals[i], r)
		}
		return r, nil
	case *Number:
		return ev.num(n.Tok.Text), nil
	case *Ident:
		v, ok := env[n.Tok.Text]
		if !ok {
			return NaN(), &NameError{Name: n.Tok.Text, Col: n.Tok.Pos, Line: n.Tok.Line}
		}
		return v, nil
	case *Paren:
		return ev.Eval(n.Expr, env)
	case *Call:
		return ev.call(n, env)
	case *BadExpr:
		return NaN(), &SyntaxFault{Col: n.Tok.Pos, Line: n.Tok.Line}
	case *Assignment:
		// Assignments are only valid as whole lines.
		return NaN(), &SyntaxFault{Col: n.Name.Pos, Line: n.Name.Line}
	default:
		panic("cellcalc: invalid node in expression: " + n.String())
	}
}

func (ev *Evaluator) call(n *Call, env Env) (Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.Eval(a, env)
		if err != nil {
			return NaN(), err
		}
		args[i] = v
	}
	f := ev.reg.Func(n.Name.Text)
	if f == nil {
		log.LogVf("call to undefined function %q", n.Name.Text)
		return NaN(), nil
	}
	return invoke(n.Name.Text, f, args), nil
}

// invoke calls f, converting a panic into NaN.
func invoke(name string, f Func, args []Value) (r Value) {
	defer func() {
		if e := recover(); e != nil {
			log.LogVf("function %s panicked: %v", name, e)
			r = NaN()
		}
	}()
	return f(args)
}

// num gets a possibly cached number from its text.
func (ev *Evaluator) num(s string) Value {
	if ev.nums != nil {
		if v, ok := ev.nums.Get(s); ok {
			return v
		}
	}
	v, err := ParseValue(s, ev.prec)
	if err != nil {
		// The lexer only produces valid literals.
		log.Warnf("invalid number %q: %v", s, err)
	}
	if ev.nums != nil {
		ev.nums.Add(s, v)
	}
	return v
}

// EvalScript parses and evaluates a whole script from scratch, without any
// caching between calls. Lexical errors are returned before syntax errors.
func EvalScript(src string, opts ...Option) ([]Result, []InputError) {
	cfg := resolve(opts)
	toks, lerrs := TokenizeScript(src)
	n, perrs := Parse(toks)
	errs := make([]InputError, 0, len(lerrs)+len(perrs))
	for _, err := range lerrs {
		errs = append(errs, err)
	}
	errs = append(errs, perrs...)
	ev := NewEvaluator(cfg.reg, cfg.prec, cfg.cacheSize)
	return ev.EvalLines(n, cfg.reg.env()), errs
}

// NameError is an error from a lookup for a variable that is not defined
// when a line is evaluated.
type NameError struct {
	// Name is the name that was missing.
	Name string
	// Col and Line are the position of the reference.
	Col, Line int
}

func (err *NameError) Error() string {
	return errpos(err.Line, err.Col, "undefined variable: "+strconv.Quote(err.Name))
}

func (err *NameError) Pos() int {
	return err.Col
}

// SyntaxFault is an error from evaluating a line whose syntax tree is
// incomplete due to a syntax error.
type SyntaxFault struct {
	// Col and Line are the position of the syntax error.
	Col, Line int
}

func (err *SyntaxFault) Error() string {
	return errpos(err.Line, err.Col, "cannot evaluate invalid expression")
}

func (err *SyntaxFault) Pos() int {
	return err.Col
}
