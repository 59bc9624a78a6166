// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Package fflags implements floating-point exception flags, the way the fflags CSR
// keeps them, and derives the flags each operation of the unit raises.
package fflags

import (
	"strings"
	"sync"
)

// Flags is a set of accrued exception flags.
type Flags uint8

const (
	// Invalid is the invalid operation flag, NV.
	Invalid Flags = 1 << iota
	// DivByZero is the divide by zero flag, DZ.
	DivByZero
	// Overflow is the overflow flag, OF.
	Overflow
	// Underflow is the underflow flag, UF.
	Underflow
	// Inexact is the inexact flag, NX.
	Inexact

	// All has all the flags set.
	All = Invalid | DivByZero | Overflow | Underflow | Inexact
)

var (
	flagNames = [...]string{"NV", "DZ", "OF", "UF", "NX"}
)

// Has returns true, if all flags of other are set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// String returns flag names joined with '|', like `NV|NX`, or `-` for no flags.
func (f Flags) String() string {
	if f&All == 0 {
		return "-"
	}
	var builder strings.Builder
	for i, name := range flagNames {
		if f&(1<<i) == 0 {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteByte('|')
		}
		builder.WriteString(name)
	}
	return builder.String()
}

// Register accumulates raised flags until they are read.
// The zero value is an empty register. It is safe for concurrent use.
type Register struct {
	mu    sync.Mutex
	flags Flags
}

// Raise sets flags in r. Set flags stay set until ReadAndClear.
func (r *Register) Raise(flags Flags) {
	r.mu.Lock()
	r.flags |= flags & All
	r.mu.Unlock()
}

// Peek returns the current flags without clearing them.
func (r *Register) Peek() Flags {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flags
}

// ReadAndClear returns the current flags and clears the register.
func (r *Register) ReadAndClear() Flags {
	r.mu.Lock()
	defer r.mu.Unlock()
	flags := r.flags
	r.flags = 0
	return flags
}
