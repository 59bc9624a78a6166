// Copyright 2020 Aleksandr Demakin. All rights reserved.

package conformance

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/avdva/zfinx"
	"github.com/avdva/zfinx/fflags"
)

var (
	// ErrIllegalInstruction is the fault an oracle returns for an operation
	// the hardware does not implement.
	ErrIllegalInstruction = errors.New("illegal instruction")
)

// Operands are the raw contents of the source registers.
// Unused operands are ignored.
type Operands struct {
	A, B, C uint32
}

// Result is the outcome of an executed instruction.
type Result struct {
	// Value is the raw contents of the destination register.
	Value uint32
	// Flags are the exception flags raised by the instruction.
	Flags fflags.Flags
	// FlagsValid is false, if the oracle can't report flags.
	FlagsValid bool
}

// Oracle executes a single instruction.
type Oracle interface {
	Exec(ctx context.Context, op Op, in Operands) (Result, error)
}

// OracleFunc is an adapter to use a function as an Oracle.
type OracleFunc func(ctx context.Context, op Op, in Operands) (Result, error)

// Exec calls f(ctx, op, in).
func (f OracleFunc) Exec(ctx context.Context, op Op, in Operands) (Result, error) {
	return f(ctx, op, in)
}

// Golden is an oracle backed by the software model.
// It behaves as the hardware does, unless Extended is set.
// Each Result carries the flags of its own instruction. The flags are also accrued
// in a register, the way the fflags CSR accrues them, until ReadFlags.
// It is safe for concurrent use.
type Golden struct {
	// Extended makes unsupported operations succeed instead of faulting.
	Extended bool

	accrued fflags.Register
}

// Exec executes op in software.
func (g *Golden) Exec(ctx context.Context, op Op, in Operands) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !op.valid() {
		return Result{}, errors.Errorf("unknown operation %d", int(op))
	}
	if !op.Supported() && !g.Extended {
		return Result{}, errors.Wrap(ErrIllegalInstruction, op.String())
	}
	flags := Flags(op, in)
	g.accrued.Raise(flags)
	return Result{Value: Emulate(op, in), Flags: flags, FlagsValid: true}, nil
}

// ReadFlags returns the flags accrued since the previous call and clears them.
func (g *Golden) ReadFlags() fflags.Flags {
	return g.accrued.ReadAndClear()
}

// Native is an oracle with plain Go float32 semantics: subnormals are kept,
// NaNs propagate through min and max, conversions to integers truncate,
// and sign injection negates values. It does not report flags.
type Native struct{}

// Exec executes op with native Go arithmetic.
func (Native) Exec(ctx context.Context, op Op, in Operands) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	a, b, c := math.Float32frombits(in.A), math.Float32frombits(in.B), math.Float32frombits(in.C)
	var r float32
	switch op {
	case OpAdd:
		r = a + b
	case OpSub:
		r = a - b
	case OpMul:
		r = a * b
	case OpDiv:
		r = a / b
	case OpSqrt:
		r = float32(math.Sqrt(float64(a)))
	case OpMAdd:
		r = float32(math.FMA(float64(a), float64(b), float64(c)))
	case OpMSub:
		r = float32(math.FMA(float64(a), float64(b), -float64(c)))
	case OpNMSub:
		r = float32(math.FMA(-float64(a), float64(b), float64(c)))
	case OpNMAdd:
		r = float32(math.FMA(-float64(a), float64(b), -float64(c)))
	case OpMin:
		r = float32(math.Min(float64(a), float64(b)))
	case OpMax:
		r = float32(math.Max(float64(a), float64(b)))
	case OpCvtWUS:
		return Result{Value: uint32(a)}, nil
	case OpCvtWS:
		return Result{Value: uint32(int32(a))}, nil
	case OpCvtSWU:
		r = float32(in.A)
	case OpCvtSW:
		r = float32(int32(in.A))
	case OpEq:
		return Result{Value: boolValue(a == b)}, nil
	case OpLt:
		return Result{Value: boolValue(a < b)}, nil
	case OpLe:
		return Result{Value: boolValue(a <= b)}, nil
	case OpSgnj:
		r = negateIf(a, math.Signbit(float64(a)) != math.Signbit(float64(b)))
	case OpSgnjn:
		r = negateIf(a, math.Signbit(float64(a)) == math.Signbit(float64(b)))
	case OpSgnjx:
		r = negateIf(a, math.Signbit(float64(b)))
	case OpClass:
		return Result{Value: uint32(nativeClass(float64(a)))}, nil
	default:
		return Result{}, errors.Errorf("unknown operation %d", int(op))
	}
	return Result{Value: math.Float32bits(r)}, nil
}

func negateIf(f float32, neg bool) float32 {
	if neg {
		return -f
	}
	return f
}

func nativeClass(f float64) zfinx.Class {
	neg := math.Signbit(f)
	pick := func(negClass, posClass zfinx.Class) zfinx.Class {
		if neg {
			return negClass
		}
		return posClass
	}
	switch abs := math.Abs(f); {
	case math.IsNaN(f):
		return zfinx.ClassQNaN
	case math.IsInf(f, 0):
		return pick(zfinx.ClassNegInf, zfinx.ClassPosInf)
	case abs == 0:
		return pick(zfinx.ClassNegZero, zfinx.ClassPosZero)
	case abs < math.SmallestNonzeroFloat32*(1<<23):
		return pick(zfinx.ClassNegSubnormal, zfinx.ClassPosSubnormal)
	default:
		return pick(zfinx.ClassNegNormal, zfinx.ClassPosNormal)
	}
}

// Emulate executes op in software and returns the destination register contents:
// float results as bit patterns, integers as two's complement, booleans as 0 or 1,
// classes as masks. It panics on an unknown operation.
func Emulate(op Op, in Operands) uint32 {
	a, b, c := zfinx.FromBits(in.A), zfinx.FromBits(in.B), zfinx.FromBits(in.C)
	switch op {
	case OpAdd:
		return a.Add(b).Bits()
	case OpSub:
		return a.Sub(b).Bits()
	case OpMul:
		return a.Mul(b).Bits()
	case OpDiv:
		return a.Div(b).Bits()
	case OpSqrt:
		return a.Sqrt().Bits()
	case OpMAdd:
		return a.MulAdd(b, c).Bits()
	case OpMSub:
		return a.MulSub(b, c).Bits()
	case OpNMSub:
		return a.NegMulSub(b, c).Bits()
	case OpNMAdd:
		return a.NegMulAdd(b, c).Bits()
	case OpMin:
		return a.Min(b).Bits()
	case OpMax:
		return a.Max(b).Bits()
	case OpCvtWUS:
		return a.Uint32()
	case OpCvtWS:
		return uint32(a.Int32())
	case OpCvtSWU:
		return zfinx.FromUint32(in.A).Bits()
	case OpCvtSW:
		return zfinx.FromInt32(int32(in.A)).Bits()
	case OpEq:
		return boolValue(a.Eq(b))
	case OpLt:
		return boolValue(a.Lt(b))
	case OpLe:
		return boolValue(a.Le(b))
	case OpSgnj:
		return a.CopySign(b).Bits()
	case OpSgnjn:
		return a.CopyNegSign(b).Bits()
	case OpSgnjx:
		return a.CopyXorSign(b).Bits()
	case OpClass:
		return uint32(a.Classify())
	}
	panic(fmt.Sprintf("unknown operation %d", int(op)))
}

// Flags returns the exception flags op raises for the given operands.
func Flags(op Op, in Operands) fflags.Flags {
	a, b, c := zfinx.FromBits(in.A), zfinx.FromBits(in.B), zfinx.FromBits(in.C)
	switch op {
	case OpAdd:
		return fflags.Add(a, b)
	case OpSub:
		return fflags.Sub(a, b)
	case OpMul:
		return fflags.Mul(a, b)
	case OpDiv:
		return fflags.Div(a, b)
	case OpSqrt:
		return fflags.Sqrt(a)
	case OpMAdd:
		return fflags.MulAdd(a, b, c)
	case OpMSub:
		return fflags.MulSub(a, b, c)
	case OpNMSub:
		return fflags.NegMulSub(a, b, c)
	case OpNMAdd:
		return fflags.NegMulAdd(a, b, c)
	case OpMin, OpMax:
		return fflags.MinMax(a, b)
	case OpCvtWUS:
		return fflags.ToUint32(a)
	case OpCvtWS:
		return fflags.ToInt32(a)
	case OpCvtSWU:
		return fflags.FromInt(int64(in.A))
	case OpCvtSW:
		return fflags.FromInt(int64(int32(in.A)))
	case OpEq:
		return fflags.Eq(a, b)
	case OpLt, OpLe:
		return fflags.Order(a, b)
	}
	return 0
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
