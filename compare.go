// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

// Eq returns true, if f == g.
// Comparisons with a NaN, quiet or signaling, are false.
func (f Float) Eq(g Float) bool {
	f, g = f.Normalized(), g.Normalized()
	if f.IsNaN() || g.IsNaN() {
		return false
	}
	return f.Float32() == g.Float32()
}

// Lt returns true, if f < g.
func (f Float) Lt(g Float) bool {
	f, g = f.Normalized(), g.Normalized()
	if f.IsNaN() || g.IsNaN() {
		return false
	}
	return f.Float32() < g.Float32()
}

// Le returns true, if f <= g.
func (f Float) Le(g Float) bool {
	f, g = f.Normalized(), g.Normalized()
	if f.IsNaN() || g.IsNaN() {
		return false
	}
	return f.Float32() <= g.Float32()
}

// Min returns the smaller of f and g.
// If one of the values is a NaN, the other one is returned.
// If both are NaNs, the result is CanonicalNaN.
// -0 is smaller than +0.
func (f Float) Min(g Float) Float {
	if r, done := minMaxSpecial(f.Normalized(), g.Normalized(), NegZero); done {
		return r
	}
	return FromFloat32(min(f.Normalized().Float32(), g.Normalized().Float32()))
}

// Max returns the greater of f and g.
// If one of the values is a NaN, the other one is returned.
// If both are NaNs, the result is CanonicalNaN.
// +0 is greater than -0.
func (f Float) Max(g Float) Float {
	if r, done := minMaxSpecial(f.Normalized(), g.Normalized(), PosZero); done {
		return r
	}
	return FromFloat32(max(f.Normalized().Float32(), g.Normalized().Float32()))
}

// minMaxSpecial handles NaNs and a pair of zeros of different signs.
func minMaxSpecial(a, b, zero Float) (Float, bool) {
	switch aNaN, bNaN := a.IsNaN(), b.IsNaN(); {
	case aNaN && bNaN:
		return CanonicalNaN, true
	case aNaN:
		return b, true
	case bNaN:
		return a, true
	}
	// +0 == -0 for float comparisons, so the pair is checked by the bits.
	if a == NegZero && b == PosZero || a == PosZero && b == NegZero {
		return zero, true
	}
	return 0, false
}
