// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

// Sign injection works on the bits: the magnitude of f, including a NaN payload,
// is kept as is, and only the sign bit is replaced.

// CopySign returns f with the sign of g.
func (f Float) CopySign(g Float) Float {
	f, g = f.Normalized(), g.Normalized()
	return withSign(f, g&signMask)
}

// CopyNegSign returns f with the opposite sign of g.
func (f Float) CopyNegSign(g Float) Float {
	f, g = f.Normalized(), g.Normalized()
	return withSign(f, ^g&signMask)
}

// CopyXorSign returns f with the sign bit equal to sign(f) xor sign(g).
func (f Float) CopyXorSign(g Float) Float {
	f, g = f.Normalized(), g.Normalized()
	return withSign(f, (f^g)&signMask)
}

// Abs returns f with the sign bit cleared, as fsgnjx.s rd, rs, rs does.
func (f Float) Abs() Float {
	return f.CopyXorSign(f)
}

// Neg returns f with the sign bit flipped, as fsgnjn.s rd, rs, rs does.
func (f Float) Neg() Float {
	return f.CopyNegSign(f)
}

func withSign(f, sign Float) Float {
	return (f&^signMask | sign).Normalized()
}
