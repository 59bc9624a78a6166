// Copyright 2020 Aleksandr Demakin. All rights reserved.

package zfinx

import "math"

// Int32 rounds f to the nearest integer, ties to even.
// The result for NaNs and for values outside of the int32 range is not defined:
// it is whatever the Go conversion produces on the current platform.
func (f Float) Int32() int32 {
	return int32(roundToEven(f))
}

// Uint32 rounds f to the nearest integer, ties to even.
// The result for NaNs, negative values, and values outside of the uint32 range
// is not defined: it is whatever the Go conversion produces on the current platform.
func (f Float) Uint32() uint32 {
	return uint32(roundToEven(f))
}

func roundToEven(f Float) float64 {
	return math.RoundToEven(float64(f.Normalized().Float32()))
}

// FromInt32 returns the value nearest to i, ties to even.
func FromInt32(i int32) Float {
	return FromFloat32(float32(i))
}

// FromUint32 returns the value nearest to u, ties to even.
func FromUint32(u uint32) Float {
	return FromFloat32(float32(u))
}
