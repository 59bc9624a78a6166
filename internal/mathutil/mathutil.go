// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Package mathutil contains bit-level helpers for binary32 values.
package mathutil

import (
	"math/big"
	"math/bits"
	"unsafe"

	"github.com/shopspring/decimal"
)

// binary32 layout.
//
//	31 30      23 22                    0
//	s  eeeeeeee  fffffffffffffffffffffff
const (
	SignMask32 = 1 << 31
	ExpMask32  = 0xff << FracBits32
	FracMask32 = 1<<FracBits32 - 1
	QuietBit32 = 1 << (FracBits32 - 1)
	FracBits32 = 23

	expBias32   = 127
	precision32 = FracBits32 + 1
)

var (
	// fivePowTable holds 5^n while it fits in uint64.
	fivePowTable = [...]uint64{
		1, 5, 25, 125, 625, 3125, 15625, 78125, 390625, 1953125, 9765625,
		48828125, 244140625, 1220703125, 6103515625, 30517578125, 152587890625,
		762939453125, 3814697265625, 19073486328125, 95367431640625,
		476837158203125, 2384185791015625, 11920928955078125, 59604644775390625,
		298023223876953125, 1490116119384765625, 7450580596923828125,
	}

	bigFive = big.NewInt(5)
)

// Split32 returns sign, biased exponent and fraction fields of a binary32 pattern.
func Split32(b uint32) (sign, exp, frac uint32) {
	return b >> 31, b & ExpMask32 >> FracBits32, b & FracMask32
}

// IsSubnormal32 returns true for non-zero patterns with a zero exponent field.
func IsSubnormal32(b uint32) bool {
	return b&ExpMask32 == 0 && b&FracMask32 != 0
}

// IsFinite32 returns false for infinities and NaNs.
func IsFinite32(b uint32) bool {
	return b&ExpMask32 != ExpMask32
}

// Pow5 returns 5^pow.
func Pow5(pow int) *big.Int {
	if pow < 0 {
		return big.NewInt(0)
	}
	if pow < len(fivePowTable) {
		return new(big.Int).SetUint64(fivePowTable[pow])
	}
	return new(big.Int).Exp(bigFive, big.NewInt(int64(pow)), nil)
}

// Exact32 returns the exact decimal value of a finite binary32 pattern.
// Every binary32 value is m*2^e, and for negative e that equals m*5^-e * 10^e,
// so the expansion is always finite.
// The result for infinities and NaNs is meaningless.
func Exact32(b uint32) decimal.Decimal {
	sign, exp, frac := Split32(b)
	if exp == 0 {
		exp = 1
	} else {
		frac |= 1 << FracBits32
	}
	m := new(big.Int).SetUint64(uint64(frac))
	if sign != 0 {
		m.Neg(m)
	}
	e := int(exp) - expBias32 - FracBits32
	if e >= 0 {
		return decimal.NewFromBigInt(m.Lsh(m, uint(e)), 0)
	}
	return decimal.NewFromBigInt(m.Mul(m, Pow5(-e)), int32(e))
}

// BinaryDigits returns the number of significant bits in value.
func BinaryDigits(value uint64) int {
	return int(8*unsafe.Sizeof(uint64(0))) - bits.LeadingZeros64(value)
}

// SignificantBits returns the distance between the highest and the lowest set bits,
// inclusive, or 0 for 0.
func SignificantBits(value uint64) int {
	if value == 0 {
		return 0
	}
	return BinaryDigits(value) - bits.TrailingZeros64(value)
}

// FitsFloat32 returns true, if v can be converted to binary32 without rounding.
func FitsFloat32(v int64) bool {
	return SignificantBits(uint64(AbsInt64(v))) <= precision32
}

// AbsInt64 returns |val|. AbsInt64(math.MinInt64) is math.MinInt64.
func AbsInt64(val int64) int64 {
	mask := val >> (unsafe.Sizeof(int64(0))*8 - 1)
	return (val + mask) ^ mask
}
