package cellcalc

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Value is an arbitrary-precision number or the not-a-number marker. Values
// are immutable; arithmetic always produces new values. The zero Value is
// NaN.
type Value struct {
	x *big.Float
}

// NaN returns the not-a-number marker, the result of undefined or invalid
// computations.
func NaN() Value {
	return Value{}
}

// NewValue creates a value holding a copy of x. If x is nil, the result is
// NaN.
func NewValue(x *big.Float) Value {
	if x == nil {
		return NaN()
	}
	return Value{x: new(big.Float).Copy(x)}
}

// FromFloat64 creates a value from f with the given precision in bits. If f
// is NaN, so is the result.
func FromFloat64(f float64, prec uint) Value {
	if math.IsNaN(f) {
		return NaN()
	}
	return Value{x: new(big.Float).SetPrec(prec).SetFloat64(f)}
}

// FromInt64 creates a value from n with the given precision in bits.
func FromInt64(n int64, prec uint) Value {
	return Value{x: new(big.Float).SetPrec(prec).SetInt64(n)}
}

// ParseValue parses a decimal number such as "1.25e-3", "inf", or "-2" with
// the given precision in bits. Exponents too large to represent produce
// infinities.
func ParseValue(s string, prec uint) (Value, error) {
	r, _, err := new(big.Float).SetPrec(prec).Parse(s, 10)
	switch {
	case err == nil:
		return Value{x: r}, nil
	case err.Error() == "exponent overflow",
		strings.HasSuffix(err.Error(), ": value out of range"):
		// There isn't realistically any better way to detect this error.
		// N.B. s is non-empty, otherwise we couldn't overflow.
		neg := s[0] == '-'
		if i := strings.LastIndexAny(s, "eE"); i >= 0 && i+1 < len(s) && s[i+1] == '-' {
			// The exponent is too small rather than too large.
			z := new(big.Float).SetPrec(prec)
			if neg {
				z.Neg(z)
			}
			return Value{x: z}, nil
		}
		return Value{x: new(big.Float).SetPrec(prec).SetInf(neg)}, nil
	default:
		return NaN(), err
	}
}

// IsNaN returns whether v is the not-a-number marker.
func (v Value) IsNaN() bool {
	return v.x == nil
}

// IsInf returns whether v is an infinity.
func (v Value) IsInf() bool {
	return v.x != nil && v.x.IsInf()
}

// Float returns a copy of v's number, or nil if v is NaN.
func (v Value) Float() *big.Float {
	if v.x == nil {
		return nil
	}
	return new(big.Float).Copy(v.x)
}

// Float64 returns the float64 nearest to v. NaN converts to math.NaN().
func (v Value) Float64() float64 {
	if v.x == nil {
		return math.NaN()
	}
	f, _ := v.x.Float64()
	return f
}

// Prec returns the precision of v in bits, or 0 for NaN.
func (v Value) Prec() uint {
	if v.x == nil {
		return 0
	}
	return v.x.Prec()
}

// Sign returns -1, 0, or 1 according to the sign of v. NaN has sign 0.
func (v Value) Sign() int {
	if v.x == nil {
		return 0
	}
	return v.x.Sign()
}

// Cmp compares v and w. Any NaN compares equal to NaN and less than every
// number, so that Cmp is a total order.
func (v Value) Cmp(w Value) int {
	switch {
	case v.x == nil && w.x == nil:
		return 0
	case v.x == nil:
		return -1
	case w.x == nil:
		return 1
	}
	return v.x.Cmp(w.x)
}

// Equal reports whether v and w are the same number or are both NaN.
func (v Value) Equal(w Value) bool {
	return v.Cmp(w) == 0
}

// String formats v in the shortest decimal form that identifies it at its
// precision.
func (v Value) String() string {
	if v.x == nil {
		return "NaN"
	}
	return v.x.Text('g', -1)
}

// Format implements fmt.Formatter with the verbs of *big.Float. NaN prints as
// "NaN" for every verb.
func (v Value) Format(s fmt.State, verb rune) {
	if v.x == nil {
		w, _ := s.Width()
		pad := ""
		if w > 3 {
			pad = strings.Repeat(" ", w-3)
		}
		if s.Flag('-') {
			fmt.Fprint(s, "NaN"+pad)
		} else {
			fmt.Fprint(s, pad+"NaN")
		}
		return
	}
	v.x.Format(s, verb)
}

// arith applies op, converting math/big's NaN panics (0/0, inf-inf, 0*inf)
// into the NaN value.
func arith(prec uint, a, b Value, op func(z, x, y *big.Float) *big.Float) (r Value) {
	if a.x == nil || b.x == nil {
		return NaN()
	}
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
	return Value{x: op(new(big.Float).SetPrec(prec), a.x, b.x)}
}

func add(prec uint, a, b Value) Value { return arith(prec, a, b, (*big.Float).Add) }
func sub(prec uint, a, b Value) Value { return arith(prec, a, b, (*big.Float).Sub) }
func mul(prec uint, a, b Value) Value { return arith(prec, a, b, (*big.Float).Mul) }
func quo(prec uint, a, b Value) Value { return arith(prec, a, b, (*big.Float).Quo) }

func neg(v Value) Value {
	if v.x == nil {
		return v
	}
	return Value{x: new(big.Float).Neg(v.x)}
}

// pow computes x^y. Integer exponents are computed by repeated squaring at
// the working precision. Other exponents are computed in float64.
func pow(prec uint, x, y Value) Value {
	if x.x == nil || y.x == nil {
		return NaN()
	}
	if y.x.IsInt() {
		if n, acc := y.x.Int64(); acc == big.Exact {
			return powint(prec, x.x, n)
		}
	}
	a, _ := x.x.Float64()
	b, _ := y.x.Float64()
	return FromFloat64(math.Pow(a, b), prec)
}

func powint(prec uint, x *big.Float, n int64) Value {
	u := uint64(n)
	if n < 0 {
		u = -u
	}
	z := new(big.Float).SetPrec(prec).SetInt64(1)
	b := new(big.Float).SetPrec(prec).Set(x)
	for u > 0 {
		if u&1 != 0 {
			z.Mul(z, b)
		}
		u >>= 1
		if u > 0 {
			b.Mul(b, b)
		}
	}
	r := Value{x: z}
	if n < 0 {
		return quo(prec, FromInt64(1, prec), r)
	}
	return r
}
