package cellcalc

import (
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// StandardFuncs returns the standard functions. Trigonometric functions work
// in degrees.
func StandardFuncs() []FuncDef {
	return []FuncDef{
		{Name: "sqrt", Fn: Monadic((*big.Float).Sqrt), Doc: "sqrt(x) takes the square root of x"},
		{Name: "ln", Fn: Monadic(ln), Doc: "ln(x) takes the natural log of x"},
		{Name: "log", Fn: logb, Doc: "log(a, b?) takes the log base b of a with b = 10 as default"},
		{Name: "exp", Fn: Monadic(exp), Doc: "exp(x) raises e to the x power"},
		{Name: "pow", Fn: powf, Doc: "pow(a, b) raises a to the b power"},
		{Name: "sin", Fn: Float64Func(func(x float64) float64 { return math.Sin(x * math.Pi / 180) }), Doc: "sin(deg) returns the sine of an angle in degrees"},
		{Name: "cos", Fn: Float64Func(func(x float64) float64 { return math.Cos(x * math.Pi / 180) }), Doc: "cos(deg) returns the cosine of an angle in degrees"},
		{Name: "tan", Fn: Float64Func(func(x float64) float64 { return math.Tan(x * math.Pi / 180) }), Doc: "tan(deg) returns the tangent of an angle in degrees"},
		{Name: "arcsin", Fn: Float64Func(func(x float64) float64 { return math.Asin(x) * 180 / math.Pi }), Doc: "arcsin(x) returns the inverse sine of x in degrees"},
		{Name: "arccos", Fn: Float64Func(func(x float64) float64 { return math.Acos(x) * 180 / math.Pi }), Doc: "arccos(x) returns the inverse cosine of x in degrees"},
		{Name: "arctan", Fn: Float64Func(func(x float64) float64 { return math.Atan(x) * 180 / math.Pi }), Doc: "arctan(x) returns the inverse tangent of x in degrees"},
		{Name: "abs", Fn: Monadic((*big.Float).Abs), Doc: "abs(x) returns the absolute value of x"},
		{Name: "sum", Fn: Variadic(sum), Doc: "sum(...) sums the arguments; NaN if any argument is NaN"},
		{Name: "max", Fn: Variadic(maxv), Doc: "max(...) returns the greatest argument; NaN if any argument is NaN"},
		{Name: "min", Fn: Variadic(minv), Doc: "min(...) returns the least argument; NaN if any argument is NaN"},
		{Name: "mean", Fn: Variadic(mean), Doc: "mean(...) returns the arithmetic mean of the arguments; NaN if any argument is NaN"},
	}
}

// StandardConsts returns the standard constants computed to prec bits.
func StandardConsts(prec uint) []ConstDef {
	var one big.Float
	one.SetPrec(prec).SetInt64(1)
	e := bigfloat.Exp(new(big.Float).SetPrec(prec), &one)
	pi := bigfloat.Pi(new(big.Float).SetPrec(prec))
	return []ConstDef{
		{Name: "e", Value: Value{x: e}, Doc: "Euler's number"},
		{Name: "pi", Value: Value{x: pi}, Doc: "ratio of a circle's circumference to its diameter"},
		{Name: "π", Value: Value{x: pi}, Doc: "same as pi"},
	}
}

// Standard returns the registry of standard functions and constants, with
// constants computed to prec bits.
func Standard(prec uint) *Registry {
	r, err := NewRegistry(StandardFuncs(), StandardConsts(prec))
	if err != nil {
		panic("cellcalc: invalid standard registry: " + err.Error())
	}
	return r
}

func ln(out, in *big.Float) *big.Float {
	switch {
	case in.Sign() == 0:
		return out.SetInf(true)
	case in.Signbit():
		panic(big.ErrNaN{})
	case in.IsInf():
		return out.SetInf(false)
	}
	return bigfloat.Log(out, in)
}

func exp(out, in *big.Float) *big.Float {
	if in.IsInf() {
		if in.Signbit() {
			return out.SetInt64(0)
		}
		return out.SetInf(false)
	}
	return bigfloat.Exp(out, in)
}

func logb(args []Value) Value {
	if len(args) == 0 || len(args) > 2 {
		return NaN()
	}
	for _, a := range args {
		if a.IsNaN() {
			return NaN()
		}
	}
	prec := args[0].Prec()
	a := Monadic(ln)(args[:1])
	b := Monadic(ln)([]Value{FromInt64(10, prec)})
	if len(args) == 2 {
		b = Monadic(ln)(args[1:])
	}
	return quo(prec, a, b)
}

func powf(args []Value) Value {
	if len(args) != 2 {
		return NaN()
	}
	prec := args[0].Prec()
	if p := args[1].Prec(); p > prec {
		prec = p
	}
	return pow(prec, args[0], args[1])
}

func sum(prec uint, args []Value) Value {
	r := FromInt64(0, prec)
	for _, a := range args {
		r = add(prec, r, a)
	}
	return r
}

func maxv(prec uint, args []Value) Value {
	r := args[0]
	for _, a := range args[1:] {
		if a.Cmp(r) > 0 {
			r = a
		}
	}
	return r
}

func minv(prec uint, args []Value) Value {
	r := args[0]
	for _, a := range args[1:] {
		if a.Cmp(r) < 0 {
			r = a
		}
	}
	return r
}

func mean(prec uint, args []Value) Value {
	return quo(prec, sum(prec, args), FromInt64(int64(len(args)), prec))
}
