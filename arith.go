// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

import "math"

// Normalized flushes a subnormal value to zero of the same sign.
// Other values are returned as is.
// The unit has no subnormal support, so every operation normalizes its operands,
// and float results of arithmetic and sign injection are normalized again.
func (f Float) Normalized() Float {
	if f.IsSubnormal() {
		return f & signMask
	}
	return f
}

func normalized2(a, b Float) (float32, float32) {
	return a.Normalized().Float32(), b.Normalized().Float32()
}

func normalized3(a, b, c Float) (float32, float32, float32) {
	return a.Normalized().Float32(), b.Normalized().Float32(), c.Normalized().Float32()
}

func result(f float32) Float {
	return FromFloat32(f).Normalized()
}

// Add returns f + g.
func (f Float) Add(g Float) Float {
	a, b := normalized2(f, g)
	return result(a + b)
}

// Sub returns f - g.
func (f Float) Sub(g Float) Float {
	a, b := normalized2(f, g)
	return result(a - b)
}

// Mul returns f * g.
func (f Float) Mul(g Float) Float {
	a, b := normalized2(f, g)
	return result(a * b)
}

// Div returns f / g.
// The hardware has no divider and raises an illegal instruction exception instead.
func (f Float) Div(g Float) Float {
	a, b := normalized2(f, g)
	return result(a / b)
}

// Sqrt returns the square root of f.
// The hardware has no square root unit and raises an illegal instruction exception instead.
func (f Float) Sqrt() Float {
	a := f.Normalized().Float32()
	// binary64 has more than 2*24+2 bits of precision, so rounding its square root
	// to binary32 gives the correctly rounded result.
	return result(float32(math.Sqrt(float64(a))))
}

// The fused forms below are not fused: the product is rounded on its own,
// then the sum is rounded. An explicit conversion keeps the compiler from
// contracting them into a single FMA instruction.

// MulAdd returns (f * b) + c.
func (f Float) MulAdd(b, c Float) Float {
	x, y, z := normalized3(f, b, c)
	p := float32(x * y)
	return result(p + z)
}

// MulSub returns (f * b) - c.
func (f Float) MulSub(b, c Float) Float {
	x, y, z := normalized3(f, b, c)
	p := float32(x * y)
	return result(p - z)
}

// NegMulSub returns -(f * b) + c.
func (f Float) NegMulSub(b, c Float) Float {
	x, y, z := normalized3(f, b, c)
	p := float32(x * y)
	return result(-p + z)
}

// NegMulAdd returns -(f * b) - c.
func (f Float) NegMulAdd(b, c Float) Float {
	x, y, z := normalized3(f, b, c)
	p := float32(x * y)
	return result(-p - z)
}
