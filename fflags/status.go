// Copyright 2020 Aleksandr Demakin. All rights reserved.

package fflags

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/avdva/zfinx"
	mu "github.com/avdva/zfinx/internal/mathutil"
)

// Flags are derived from the normalized operands, the same ones the unit works on.
// A result is inexact, if its exact decimal expansion differs from the exact value
// of the operation. Tiny results are flushed to zero, so underflow always comes with
// inexact. Quiet NaN operands raise nothing, unless an operation is defined to
// signal on them.

// Add returns the flags a + b raises.
func Add(a, b zfinx.Float) Flags {
	x, y := a.Normalized(), b.Normalized()
	if flags, done := nanOperands(x, y); done {
		return flags
	}
	return sum(x, y, a.Add(b))
}

// Sub returns the flags a - b raises.
func Sub(a, b zfinx.Float) Flags {
	x, y := a.Normalized(), b.Normalized()
	if flags, done := nanOperands(x, y); done {
		return flags
	}
	return sum(x, negate(y), a.Sub(b))
}

// Mul returns the flags a * b raises.
func Mul(a, b zfinx.Float) Flags {
	x, y := a.Normalized(), b.Normalized()
	if flags, done := nanOperands(x, y); done {
		return flags
	}
	if x.IsInf(0) || y.IsInf(0) {
		if x.IsZero() || y.IsZero() {
			return Invalid
		}
		return 0
	}
	return rounding(exact(x).Mul(exact(y)), a.Mul(b))
}

// Div returns the flags a / b raises.
func Div(a, b zfinx.Float) Flags {
	x, y := a.Normalized(), b.Normalized()
	if flags, done := nanOperands(x, y); done {
		return flags
	}
	switch {
	case x.IsInf(0) && y.IsInf(0):
		return Invalid
	case x.IsInf(0), y.IsInf(0):
		return 0
	case y.IsZero():
		if x.IsZero() {
			return Invalid
		}
		return DivByZero
	case x.IsZero():
		return 0
	}
	r := a.Div(b)
	switch {
	case r.IsInf(0):
		return Overflow | Inexact
	case r.IsZero():
		return Underflow | Inexact
	case !exact(r).Mul(exact(y)).Equal(exact(x)):
		return Inexact
	}
	return 0
}

// Sqrt returns the flags sqrt(a) raises.
func Sqrt(a zfinx.Float) Flags {
	x := a.Normalized()
	if flags, done := nanOperands(x); done {
		return flags
	}
	switch {
	case x.IsZero():
		return 0
	case x.Signbit():
		return Invalid
	case x.IsInf(0):
		return 0
	}
	r := exact(a.Sqrt())
	if !r.Mul(r).Equal(exact(x)) {
		return Inexact
	}
	return 0
}

// MulAdd returns the flags (a * b) + c raises.
func MulAdd(a, b, c zfinx.Float) Flags {
	return fused(a, b, c, false, false, a.MulAdd(b, c))
}

// MulSub returns the flags (a * b) - c raises.
func MulSub(a, b, c zfinx.Float) Flags {
	return fused(a, b, c, false, true, a.MulSub(b, c))
}

// NegMulSub returns the flags -(a * b) + c raises.
func NegMulSub(a, b, c zfinx.Float) Flags {
	return fused(a, b, c, true, false, a.NegMulSub(b, c))
}

// NegMulAdd returns the flags -(a * b) - c raises.
func NegMulAdd(a, b, c zfinx.Float) Flags {
	return fused(a, b, c, true, true, a.NegMulAdd(b, c))
}

// Eq returns the flags feq.s raises: only signaling NaNs are invalid.
func Eq(a, b zfinx.Float) Flags {
	flags, _ := nanOperands(a.Normalized(), b.Normalized())
	return flags
}

// Order returns the flags flt.s and fle.s raise: any NaN is invalid.
func Order(a, b zfinx.Float) Flags {
	if a.IsNaN() || b.IsNaN() {
		return Invalid
	}
	return 0
}

// MinMax returns the flags fmin.s and fmax.s raise.
func MinMax(a, b zfinx.Float) Flags {
	return Eq(a, b)
}

// ToInt32 returns the flags a.Int32() raises.
func ToInt32(a zfinx.Float) Flags {
	return toInt(a, math.MinInt32, math.MaxInt32)
}

// ToUint32 returns the flags a.Uint32() raises.
// Negative values, that round to -0, are in range.
func ToUint32(a zfinx.Float) Flags {
	return toInt(a, 0, math.MaxUint32)
}

// FromInt returns the flags the conversion of n to a binary32 value raises.
func FromInt(n int64) Flags {
	if mu.FitsFloat32(n) {
		return 0
	}
	return Inexact
}

func toInt(a zfinx.Float, lo, hi float64) Flags {
	x := a.Normalized()
	if x.IsNaN() {
		return Invalid
	}
	v := float64(x.Float32())
	r := math.RoundToEven(v)
	switch {
	case r < lo || r > hi:
		return Invalid
	case r != v:
		return Inexact
	}
	return 0
}

// fused treats a fused form as a product, rounded to binary32 but not flushed,
// followed by a sum.
func fused(a, b, c zfinx.Float, negProduct, negAddend bool, r zfinx.Float) Flags {
	x, y, z := a.Normalized(), b.Normalized(), c.Normalized()
	if x.IsSNaN() || y.IsSNaN() || z.IsSNaN() {
		return Invalid
	}
	if x.IsNaN() || y.IsNaN() {
		return 0
	}
	p, flags := product(x, y)
	if p.IsNaN() || z.IsNaN() {
		return flags
	}
	if negProduct {
		p = negate(p)
	}
	if negAddend {
		z = negate(z)
	}
	return flags | sum(p, z, r)
}

func product(x, y zfinx.Float) (zfinx.Float, Flags) {
	p := zfinx.FromFloat32(x.Float32() * y.Float32())
	if x.IsInf(0) || y.IsInf(0) {
		if x.IsZero() || y.IsZero() {
			return p, Invalid
		}
		return p, 0
	}
	switch {
	case p.IsInf(0):
		return p, Overflow | Inexact
	case exact(x).Mul(exact(y)).Equal(exact(p)):
		return p, 0
	case p.IsZero() || p.IsSubnormal():
		return p, Underflow | Inexact
	}
	return p, Inexact
}

// sum returns the flags of x + y with the result r. x and y are not NaNs.
func sum(x, y, r zfinx.Float) Flags {
	if x.IsInf(0) || y.IsInf(0) {
		if x.IsInf(0) && y.IsInf(0) && x.Signbit() != y.Signbit() {
			return Invalid
		}
		return 0
	}
	return rounding(exact(x).Add(exact(y)), r)
}

// rounding compares the exact value of an operation on finite operands with its result.
func rounding(value decimal.Decimal, r zfinx.Float) Flags {
	switch {
	case r.IsInf(0):
		return Overflow | Inexact
	case value.Equal(exact(r)):
		return 0
	case r.IsZero():
		return Underflow | Inexact
	}
	return Inexact
}

// nanOperands returns Invalid and true for signaling NaNs, and true for quiet ones.
func nanOperands(values ...zfinx.Float) (Flags, bool) {
	found := false
	for _, v := range values {
		if v.IsSNaN() {
			return Invalid, true
		}
		found = found || v.IsNaN()
	}
	return 0, found
}

// negate flips the sign bit without flushing a subnormal.
func negate(f zfinx.Float) zfinx.Float {
	return zfinx.FromBits(f.Bits() ^ mu.SignMask32)
}

func exact(f zfinx.Float) decimal.Decimal {
	return mu.Exact32(f.Bits())
}
