// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Package zfinx implements a software model of a single-precision floating-point unit
// working on integer registers (RISC-V Zfinx, as built into the NEORV32 core).
// The results are expected to match the hardware bit for bit, including its policies:
// subnormals are flushed to zero, -0 orders below +0 in min/max, NaNs never win in
// min/max, and every rounding is to the nearest, ties to even.
package zfinx

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	mu "github.com/avdva/zfinx/internal/mathutil"
)

var (
	// JSONMode defines the way all values are marshaled into json, see JSONMode* constants.
	// This variable is not thread-safe, so this should be changed on program start.
	JSONMode = JSONModeCompact
)

const (
	// JSONModeBits marshals values as hex strings of their bit patterns, like `"0x3f800000"`.
	JSONModeBits = iota
	// JSONModeFloat marshals values as numbers, like `1.5`.
	// Infinities and NaNs can't be json numbers, so they are marshaled as JSONModeBits does.
	JSONModeFloat
	// JSONModeCompact uses numbers for finite values except -0, and bit strings otherwise.
	JSONModeCompact
)

const (
	signMask  = mu.SignMask32
	expMask   = mu.ExpMask32
	fracMask  = mu.FracMask32
	quietBit  = mu.QuietBit32
	magnitude = expMask | fracMask

	hexPrefix    = "0x"
	maxHexDigits = 8
)

const (
	// PosZero is +0.
	PosZero = Float(0)
	// NegZero is -0.
	NegZero = Float(signMask)
	// PosInf is +inf.
	PosInf = Float(expMask)
	// NegInf is -inf.
	NegInf = Float(signMask | expMask)
	// CanonicalNaN is the quiet NaN the unit produces when it has to make one up.
	CanonicalNaN = Float(expMask | quietBit)
	// MaxNormal is the largest finite value, 3.4028235e+38.
	MaxNormal = Float(expMask - 1)
	// MinNormal is the smallest positive normal value, 1.1754944e-38.
	MinNormal = Float(1 << mu.FracBits32)
)

var (
	errEmpty = errors.New("empty input")
)

type posError struct {
	pos int
	err string
}

func newPosError(err string, pos int) *posError {
	return &posError{err: err, pos: pos}
}

func (pe posError) Error() string {
	return pe.err + fmt.Sprintf(" at pos %d", pe.pos)
}

// Float is a binary32 value.
// The bit pattern is the storage, the float32 value is a reinterpretation of it,
// so the two views can't go out of sync. Working on the bits keeps signaling NaNs
// intact, which is not the case for conversions to float64.
//
//	31 30    23 22                    0
//	s  eeeeeeee  fffffffffffffffffffffff
type Float uint32

// FromFloat32 returns a value for the given float32.
func FromFloat32(f float32) Float {
	return Float(math.Float32bits(f))
}

// FromBits returns a value for the given bit pattern.
func FromBits(b uint32) Float {
	return Float(b)
}

// Float32 returns the float32 view of f.
func (f Float) Float32() float32 {
	return math.Float32frombits(uint32(f))
}

// Bits returns the bit pattern of f.
func (f Float) Bits() uint32 {
	return uint32(f)
}

// Signbit returns true, if the sign bit is set.
// This includes -0 and NaNs with the sign bit set.
func (f Float) Signbit() bool {
	return f&signMask != 0
}

// IsNaN returns true for both quiet and signaling NaNs.
func (f Float) IsNaN() bool {
	return f&expMask == expMask && f&fracMask != 0
}

// IsQNaN returns true, if f is a NaN with the most significant fraction bit set.
func (f Float) IsQNaN() bool {
	return f.IsNaN() && f&quietBit != 0
}

// IsSNaN returns true, if f is a NaN with the most significant fraction bit clear.
func (f Float) IsSNaN() bool {
	return f.IsNaN() && f&quietBit == 0
}

// IsInf reports whether f is an infinity, according to sign.
// If sign > 0, IsInf reports whether f is positive infinity.
// If sign < 0, IsInf reports whether f is negative infinity.
// If sign == 0, IsInf reports whether f is either infinity.
func (f Float) IsInf(sign int) bool {
	switch {
	case f&magnitude != expMask:
		return false
	case sign > 0:
		return !f.Signbit()
	case sign < 0:
		return f.Signbit()
	default:
		return true
	}
}

// IsZero returns true for both +0 and -0.
func (f Float) IsZero() bool {
	return f&magnitude == 0
}

// IsSubnormal returns true for non-zero values with a zero exponent.
func (f Float) IsSubnormal() bool {
	return mu.IsSubnormal32(uint32(f))
}

// IsNormal returns true for finite non-zero values, which are not subnormal.
func (f Float) IsNormal() bool {
	e := f & expMask
	return e != 0 && e != expMask
}

// IsFinite returns false for infinities and NaNs.
func (f Float) IsFinite() bool {
	return mu.IsFinite32(uint32(f))
}

// Kind returns the class of f as is, without flushing subnormals.
// See Classify for the class the unit reports.
func (f Float) Kind() Class {
	return classOf(f)
}

// GoString returns debug string representation.
func (f Float) GoString() string {
	return f.String() + fmt.Sprintf(" {0x%08x}", uint32(f))
}

// String returns a string representation of the value.
// Finite values use the shortest decimal form, that parses back to the same bits.
func (f Float) String() string {
	switch {
	case f.IsInf(1):
		return "+inf"
	case f.IsInf(-1):
		return "-inf"
	case f.IsQNaN():
		return fmt.Sprintf("qnan(0x%08x)", uint32(f))
	case f.IsSNaN():
		return fmt.Sprintf("snan(0x%08x)", uint32(f))
	case f == NegZero:
		return "-0"
	default:
		return strconv.FormatFloat(float64(f.Float32()), 'g', -1, 32)
	}
}

// HexString returns the bit pattern as a 0x-prefixed string with 8 hex digits.
func (f Float) HexString() string {
	return fmt.Sprintf(hexPrefix+"%08x", uint32(f))
}

// MarshalJSON marshals value according to current JSONMode.
// See JSONMode and JSONMode* constants.
func (f Float) MarshalJSON() ([]byte, error) {
	return f.toJSON(JSONMode), nil
}

func (f Float) toJSON(mode int) []byte {
	switch mode {
	case JSONModeFloat:
		if !f.IsFinite() {
			return f.toJSON(JSONModeBits)
		}
		return []byte(strconv.FormatFloat(float64(f.Float32()), 'g', -1, 32))
	case JSONModeCompact:
		if !f.IsFinite() || f == NegZero {
			return f.toJSON(JSONModeBits)
		}
		return f.toJSON(JSONModeFloat)
	default: // marshal as a string
		return []byte(`"` + f.HexString() + `"`)
	}
}

// UnmarshalJSON unmarshals a string or a number into a value.
// All forms, accepted by FromString, are supported.
func (f *Float) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty json")
	}
	value, err := FromString(string(data))
	if err != nil {
		return err
	}
	*f = value
	return nil
}

// FromString parses a string into a value.
// The string can be surrounded by quotes and spaces, and may be one of:
//   - a 0x-prefixed bit pattern, like 0x7fa00000;
//   - inf, infinity, nan, qnan, snan, optionally signed;
//   - a NaN with its bit pattern, like qnan(0x7fc00001);
//   - a decimal number, rounded to the nearest binary32 value.
func FromString(s string) (Float, error) {
	s, offset, err := prepareString(s)
	if err != nil {
		return 0, err
	}
	if f, ok := fromName(s); ok {
		return f, nil
	}
	if open := strings.IndexByte(s, '('); open > 0 && s[len(s)-1] == ')' {
		return fromNaNString(s, open, offset)
	}
	if hasHexPrefix(s) {
		b, err := parseHex(s[len(hexPrefix):], offset+len(hexPrefix))
		if err != nil {
			return 0, fmt.Errorf("parsing failed: %w", err)
		}
		return Float(b), nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		var ne *strconv.NumError
		if !errors.As(err, &ne) || ne.Err != strconv.ErrRange {
			return 0, fmt.Errorf("parsing failed: bad number %q", s)
		}
		// on overflow ParseFloat returns ±inf, which is the correctly rounded value.
	}
	return FromFloat32(float32(v)), nil
}

func prepareString(s string) (prepared string, offset int, err error) {
	if len(s) == 0 {
		return "", 0, errEmpty
	}
	if s[0] == '"' {
		s = s[1:]
		offset++
	}
	if len(s) == 0 {
		return "", 0, errEmpty
	}
	if s[len(s)-1] == '"' {
		s = s[:len(s)-1]
	}
	if trimmed := strings.TrimLeftFunc(s, unicode.IsSpace); len(trimmed) != len(s) {
		offset += len(s) - len(trimmed)
		s = trimmed
	}
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if len(s) == 0 {
		return "", 0, errEmpty
	}
	return s, offset, nil
}

func fromName(s string) (Float, bool) {
	var sign Float
	name := s
	switch name[0] {
	case '-':
		sign = signMask
		name = name[1:]
	case '+':
		name = name[1:]
	}
	switch strings.ToLower(name) {
	case "inf", "infinity":
		return sign | PosInf, true
	case "nan", "qnan":
		return sign | CanonicalNaN, true
	case "snan":
		// 0x7fa00000, the quiet bit is clear and the next one is set.
		return sign | PosInf | quietBit>>1, true
	}
	return 0, false
}

// fromNaNString parses NaNs in the form String returns them, like `snan(0x7fa00000)`.
func fromNaNString(s string, open, offset int) (Float, error) {
	inner := s[open+1 : len(s)-1]
	if !hasHexPrefix(inner) {
		return 0, fmt.Errorf("parsing failed: %w", newPosError("bit pattern expected", offset+open+2))
	}
	b, err := parseHex(inner[len(hexPrefix):], offset+open+1+len(hexPrefix))
	if err != nil {
		return 0, fmt.Errorf("parsing failed: %w", err)
	}
	f := Float(b)
	switch name := strings.ToLower(s[:open]); {
	case name == "qnan" && f.IsQNaN(), name == "snan" && f.IsSNaN():
		return f, nil
	case name == "qnan" || name == "snan":
		return 0, fmt.Errorf("parsing failed: 0x%08x is not a %s", b, name)
	default:
		return 0, fmt.Errorf("parsing failed: %w", newPosError(fmt.Sprintf("unexpected name %q", s[:open]), offset+1))
	}
}

func hasHexPrefix(s string) bool {
	return len(s) > len(hexPrefix) && strings.EqualFold(s[:len(hexPrefix)], hexPrefix)
}

// parseHex parses up to 8 hex digits.
// offset is the position of s in the input string, error positions start from 1.
func parseHex(s string, offset int) (uint32, error) {
	var result uint32
	digits := 0
	for i, r := range s {
		var d uint32
		switch {
		case '0' <= r && r <= '9':
			d = uint32(r - '0')
		case 'a' <= r && r <= 'f':
			d = uint32(r-'a') + 10
		case 'A' <= r && r <= 'F':
			d = uint32(r-'A') + 10
		case r == '_':
			continue
		default:
			return 0, newPosError(fmt.Sprintf("unexpected symbol %q", r), offset+i+1)
		}
		if digits == maxHexDigits {
			return 0, newPosError("too many digits", offset+i+1)
		}
		digits++
		result = result<<4 | d
	}
	if digits == 0 {
		return 0, newPosError("no digits", offset+1)
	}
	return result, nil
}
