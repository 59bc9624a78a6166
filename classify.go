// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

import (
	"strconv"
	"strings"
)

// Class is a bit mask of value categories, as returned by the fclass.s instruction.
// A single value always belongs to exactly one category.
type Class uint16

const (
	// ClassNegInf is -inf.
	ClassNegInf Class = 1 << iota
	// ClassNegNormal is a negative normal value.
	ClassNegNormal
	// ClassNegSubnormal is a negative subnormal value.
	ClassNegSubnormal
	// ClassNegZero is -0.
	ClassNegZero
	// ClassPosZero is +0.
	ClassPosZero
	// ClassPosSubnormal is a positive subnormal value.
	ClassPosSubnormal
	// ClassPosNormal is a positive normal value.
	ClassPosNormal
	// ClassPosInf is +inf.
	ClassPosInf
	// ClassSNaN is a signaling NaN.
	ClassSNaN
	// ClassQNaN is a quiet NaN.
	ClassQNaN

	classCount = iota
)

var (
	classNames = [classCount]string{
		"neg-inf", "neg-normal", "neg-subnormal", "neg-zero", "pos-zero",
		"pos-subnormal", "pos-normal", "pos-inf", "snan", "qnan",
	}
)

// Classify returns the category of f.
// Operands are normalized first, so a subnormal value reports a zero class,
// the same way the hardware does.
func (f Float) Classify() Class {
	return classOf(f.Normalized())
}

func classOf(f Float) Class {
	neg := f.Signbit()
	pick := func(negClass, posClass Class) Class {
		if neg {
			return negClass
		}
		return posClass
	}
	switch {
	case f.IsNaN():
		// the most significant bit of the fraction tells quiet NaNs from signaling ones.
		if f&quietBit != 0 {
			return ClassQNaN
		}
		return ClassSNaN
	case f.IsInf(0):
		return pick(ClassNegInf, ClassPosInf)
	case f.IsZero():
		return pick(ClassNegZero, ClassPosZero)
	case f.IsSubnormal():
		return pick(ClassNegSubnormal, ClassPosSubnormal)
	default:
		return pick(ClassNegNormal, ClassPosNormal)
	}
}

// Has returns true, if all bits of other are set in c.
func (c Class) Has(other Class) bool {
	return c&other == other
}

// String returns names of set bits, joined with '|'.
func (c Class) String() string {
	if c == 0 {
		return "none"
	}
	var builder strings.Builder
	for i, name := range classNames {
		if c&(1<<i) == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteRune('|')
		}
		builder.WriteString(name)
	}
	if rest := c &^ (1<<classCount - 1); rest != 0 {
		if builder.Len() > 0 {
			builder.WriteRune('|')
		}
		builder.WriteString("0x")
		builder.WriteString(strconv.FormatUint(uint64(rest), 16))
	}
	return builder.String()
}
