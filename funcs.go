package cellcalc

import (
	"math/big"
	"strconv"
)

// Func is a function from values to a value. Functions should be pure. A
// function that receives arguments it cannot handle should return NaN; a
// panic during the call is also converted to NaN.
type Func func(args []Value) Value

// FuncDef names and documents a function.
type FuncDef struct {
	Name string
	// Fn is the function. If Fn is nil, calls to Name evaluate to NaN as if
	// the function did not exist.
	Fn  Func
	Doc string
}

// ConstDef names and documents a constant. Constants are visible as
// variables to every line and can be reassigned by a script.
type ConstDef struct {
	Name  string
	Value Value
	Doc   string
}

// Registry holds the functions and constants a host supplies to scripts.
// A Registry is immutable once created. The nil *Registry is empty.
type Registry struct {
	funcs  []FuncDef
	consts []ConstDef
	fnmap  map[string]Func
}

// NewRegistry creates a registry. It is an error for a name to appear twice
// among funcs or twice among consts, or for a name not to be an identifier.
// The same name may be both a function and a constant, since calls and
// variable references are resolved separately.
func NewRegistry(funcs []FuncDef, consts []ConstDef) (*Registry, error) {
	r := Registry{
		funcs:  append([]FuncDef(nil), funcs...),
		consts: append([]ConstDef(nil), consts...),
		fnmap:  make(map[string]Func, len(funcs)),
	}
	for _, f := range funcs {
		if !isIdent(f.Name) {
			return nil, &NameSyntaxError{Kind: "function", Name: f.Name}
		}
		if _, ok := r.fnmap[f.Name]; ok {
			return nil, &DuplicateNameError{Kind: "function", Name: f.Name}
		}
		r.fnmap[f.Name] = f.Fn
	}
	seen := make(map[string]bool, len(consts))
	for _, c := range consts {
		if !isIdent(c.Name) {
			return nil, &NameSyntaxError{Kind: "constant", Name: c.Name}
		}
		if seen[c.Name] {
			return nil, &DuplicateNameError{Kind: "constant", Name: c.Name}
		}
		seen[c.Name] = true
	}
	return &r, nil
}

// With creates a registry holding the definitions of r followed by funcs and
// consts. The same rules as NewRegistry apply to the combined lists.
func (r *Registry) With(funcs []FuncDef, consts []ConstDef) (*Registry, error) {
	return NewRegistry(append(r.Funcs(), funcs...), append(r.Consts(), consts...))
}

// Funcs returns the function definitions in the order given.
func (r *Registry) Funcs() []FuncDef {
	if r == nil {
		return nil
	}
	return append([]FuncDef(nil), r.funcs...)
}

// Consts returns the constant definitions in the order given.
func (r *Registry) Consts() []ConstDef {
	if r == nil {
		return nil
	}
	return append([]ConstDef(nil), r.consts...)
}

// Func returns the named function, or nil if there is none.
func (r *Registry) Func(name string) Func {
	if r == nil {
		return nil
	}
	return r.fnmap[name]
}

// env creates a new environment holding the constants.
func (r *Registry) env() Env {
	if r == nil {
		return Env{}
	}
	env := make(Env, len(r.consts))
	for _, c := range r.consts {
		env[c.Name] = c.Value
	}
	return env
}

func isIdent(name string) bool {
	toks, errs := Tokenize(name)
	return len(errs) == 0 && len(toks) == 1 && toks[0].Kind == TokenIdent && toks[0].Text == name
}

// DuplicateNameError is an error creating a Registry with a name defined
// twice.
type DuplicateNameError struct {
	// Kind is "function" or "constant".
	Kind string
	Name string
}

func (err *DuplicateNameError) Error() string {
	return "duplicate " + err.Kind + " name " + strconv.Quote(err.Name)
}

// NameSyntaxError is an error creating a Registry with a name that scripts
// could not refer to.
type NameSyntaxError struct {
	// Kind is "function" or "constant".
	Kind string
	Name string
}

func (err *NameSyntaxError) Error() string {
	return err.Kind + " name " + strconv.Quote(err.Name) + " is not an identifier"
}

// Monadic wraps a function of one variable into a Func. f must set out to its
// result, to the precision of out; its return value is always ignored. If f
// is called on an argument outside its domain, it should panic with an error
// of type big.ErrNaN. The Func returns NaN for any number of arguments other
// than one, or if the argument is NaN.
func Monadic(f func(out, in *big.Float) *big.Float) Func {
	return func(args []Value) (r Value) {
		if len(args) != 1 || args[0].IsNaN() {
			return NaN()
		}
		in := args[0].Float()
		out := new(big.Float).SetPrec(in.Prec())
		defer func() {
			e := recover()
			if e == nil {
				return
			}
			if _, ok := e.(big.ErrNaN); !ok {
				panic(e)
			}
			r = NaN()
		}()
		f(out, in)
		return Value{x: out}
	}
}

// Float64Func wraps a function on float64 into a Func of one argument. The
// argument is rounded to float64, and the result has the argument's
// precision.
func Float64Func(f func(float64) float64) Func {
	return func(args []Value) Value {
		if len(args) != 1 || args[0].IsNaN() {
			return NaN()
		}
		return FromFloat64(f(args[0].Float64()), args[0].Prec())
	}
}

// Variadic wraps a function of one or more arguments into a Func. The Func
// returns NaN without calling f if there are no arguments or any argument is
// NaN.
func Variadic(f func(prec uint, args []Value) Value) Func {
	return func(args []Value) Value {
		if len(args) == 0 {
			return NaN()
		}
		var prec uint
		for _, a := range args {
			if a.IsNaN() {
				return NaN()
			}
			if a.Prec() > prec {
				prec = a.Prec()
			}
		}
		return f(prec, args)
	}
}
