// Copyright 2020 Aleksandr Demakin. All rights reserved.

package conformance

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdva/zfinx/fflags"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countUnsupported(cases []Case) int {
	n := 0
	for _, c := range cases {
		if !c.Op.Supported() {
			n++
		}
	}
	return n
}

func TestRunGolden(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	cases := append(Special(AllOps()), Random(AllOps(), 200, 1)...)
	runner := Runner{Oracle: &Golden{}, Logger: quietLogger(), CheckFlags: true}
	report, err := runner.Run(context.Background(), cases)
	r.NoError(err)
	a.True(report.OK())
	a.Empty(report.Mismatches)
	a.Equal(len(cases), report.Total)
	a.Equal(countUnsupported(cases), report.Faulted)
	a.Equal(len(cases)-report.Faulted, report.Passed)
	a.Equal(Fingerprint(cases), report.Fingerprint)

	runner.Oracle = &Golden{Extended: true}
	report, err = runner.Run(context.Background(), cases)
	r.NoError(err)
	a.True(report.OK())
	a.Zero(report.Faulted)
	a.Equal(len(cases), report.Passed)
}

func TestRunNative(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	runner := Runner{Oracle: Native{}, Logger: quietLogger()}
	report, err := runner.Run(context.Background(), Special(SupportedOps()))
	r.NoError(err)
	a.False(report.OK())
	a.Equal(report.Failed, len(report.Mismatches))
	a.Zero(report.Faulted)
	a.Equal(report.Total, report.Passed+report.Failed)
	find := func(op Op, in Operands) *Mismatch {
		for i, m := range report.Mismatches {
			if m.Case.Op == op && m.Case.In == in {
				return &report.Mismatches[i]
			}
		}
		return nil
	}
	if m := find(OpMin, Operands{A: qNaN, B: one}); a.NotNil(m, "fmin with a nan") {
		a.Equal(MismatchValue, m.Kind)
		a.Equal(uint32(one), m.Want)
	}
	if m := find(OpCvtWS, Operands{A: 0x40600000}); a.NotNil(m, "fcvt.w.s 3.5") {
		a.Equal(uint32(4), m.Want)
		a.Equal(uint32(3), m.Got)
	}
	if m := find(OpAdd, Operands{A: posSub, B: 0}); a.NotNil(m, "subnormal sum") {
		a.Equal(uint32(0), m.Want)
		a.Equal(uint32(posSub), m.Got)
	}
	a.NotNil(find(OpClass, Operands{A: sNaN}), "fclass of a snan")
	a.Nil(find(OpAdd, Operands{A: one, B: one}))

	runner.MaxMismatches = 3
	limited, err := runner.Run(context.Background(), Special(SupportedOps()))
	r.NoError(err)
	a.Len(limited.Mismatches, 3)
	a.Equal(report.Failed, limited.Failed)
}

func TestRunLooseNaN(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	oracle := OracleFunc(func(ctx context.Context, op Op, in Operands) (Result, error) {
		if op == OpAdd {
			return Result{Value: 0xffc00001}, nil
		}
		return Result{Value: Emulate(op, in)}, nil
	})
	cases := []Case{
		{Op: OpAdd, In: Operands{A: qNaN, B: one}},
		{Op: OpAdd, In: Operands{A: one, B: one}},
		{Op: OpMin, In: Operands{A: qNaN, B: qNaN}},
	}
	runner := Runner{Oracle: oracle, Logger: quietLogger()}
	report, err := runner.Run(context.Background(), cases)
	r.NoError(err)
	a.Equal(2, report.Failed)
	runner.LooseNaN = true
	report, err = runner.Run(context.Background(), cases)
	r.NoError(err)
	a.Equal(1, report.Failed)
	a.Equal(uint32(two), report.Mismatches[0].Want)
}

func TestRunFlags(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	oracle := OracleFunc(func(ctx context.Context, op Op, in Operands) (Result, error) {
		return Result{Value: Emulate(op, in), FlagsValid: true}, nil
	})
	cases := []Case{
		{Op: OpAdd, In: Operands{A: one, B: tiny}},
		{Op: OpAdd, In: Operands{A: one, B: one}},
	}
	runner := Runner{Oracle: oracle, Logger: quietLogger()}
	report, err := runner.Run(context.Background(), cases)
	r.NoError(err)
	a.True(report.OK())
	runner.CheckFlags = true
	report, err = runner.Run(context.Background(), cases)
	r.NoError(err)
	r.Equal(1, report.Failed)
	m := report.Mismatches[0]
	a.Equal(MismatchFlags, m.Kind)
	a.Equal(fflags.Inexact, m.WantFlags)
	a.Equal(fflags.Flags(0), m.GotFlags)
}

func TestRunVector(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	good, bad := uint32(two), uint32(three)
	cases := []Case{
		{Op: OpAdd, In: Operands{A: one, B: one}, Want: &good},
		{Op: OpAdd, In: Operands{A: one, B: one}, Want: &bad},
	}
	var log bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&log, &slog.HandlerOptions{Level: slog.LevelDebug}))
	runner := Runner{Oracle: &Golden{}, Logger: logger}
	report, err := runner.Run(context.Background(), cases)
	r.NoError(err)
	a.Equal(1, report.Passed)
	r.Equal(1, report.Failed)
	a.Equal(Mismatch{Kind: MismatchVector, Case: cases[1], Want: three, Got: two}, report.Mismatches[0])
	a.Contains(log.String(), "word=0x00b50553")
}

func TestRunFaults(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)
	faulty := OracleFunc(func(ctx context.Context, op Op, in Operands) (Result, error) {
		return Result{}, errors.Wrap(ErrIllegalInstruction, "trap")
	})
	cases := []Case{
		{Op: OpAdd, In: Operands{A: one, B: one}},
		{Op: OpDiv, In: Operands{A: one, B: one}},
	}
	runner := Runner{Oracle: faulty, Logger: quietLogger()}
	report, err := runner.Run(context.Background(), cases)
	r.NoError(err)
	a.Equal(1, report.Faulted)
	r.Equal(1, report.Failed)
	a.Equal(MismatchFault, report.Mismatches[0].Kind)
	a.True(errors.Is(report.Mismatches[0].Err, ErrIllegalInstruction))

	errBroken := errors.New("device is not responding")
	broken := OracleFunc(func(ctx context.Context, op Op, in Operands) (Result, error) {
		if op == OpDiv {
			return Result{}, errBroken
		}
		return Result{Value: Emulate(op, in)}, nil
	})
	runner.Oracle = broken
	report, err = runner.Run(context.Background(), cases)
	a.True(errors.Is(err, errBroken))
	if a.NotNil(report) {
		a.Equal(2, report.Total)
		a.Equal(1, report.Passed)
	}
}

func TestRunCancel(t *testing.T) {
	a := assert.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	oracle := OracleFunc(func(ctx context.Context, op Op, in Operands) (Result, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return Result{Value: Emulate(op, in)}, nil
	})
	runner := Runner{Oracle: oracle, Logger: quietLogger()}
	report, err := runner.Run(ctx, Special([]Op{OpAdd}))
	a.True(errors.Is(err, context.Canceled))
	if a.NotNil(report) {
		a.Equal(2, report.Total)
	}

	_, err = (&Runner{}).Run(context.Background(), nil)
	a.Error(err)
}

func TestMismatchString(t *testing.T) {
	a := assert.New(t)
	tests := []struct {
		m   Mismatch
		res string
	}{
		{
			Mismatch{Kind: MismatchValue, Case: Case{Op: OpMin, In: Operands{A: qNaN, B: three}}, Want: three, Got: qNaN},
			"value: fmin.s qnan(0x7fc00000) {0x7fc00000}, 3 {0x40400000}: want 3 {0x40400000}, got qnan(0x7fc00000) {0x7fc00000}",
		},
		{
			Mismatch{Kind: MismatchFlags, Case: Case{Op: OpAdd, In: Operands{A: one, B: tiny}}, WantFlags: fflags.Inexact},
			"flags: fadd.s 1 {0x3f800000}, 5.9604645e-08 {0x33800000}: flags want NX, got -",
		},
		{
			Mismatch{Kind: MismatchValue, Case: Case{Op: OpClass, In: Operands{A: negSub}}, Want: 0x008, Got: 0x004},
			"value: fclass.s -1e-45 {0x80000001}: want neg-zero, got neg-subnormal",
		},
		{
			Mismatch{Kind: MismatchVector, Case: Case{Op: OpCvtWS, In: Operands{A: 0x40600000}}, Want: 3, Got: 4},
			"vector: fcvt.w.s 3.5 {0x40600000}: want 3, got 4",
		},
		{
			Mismatch{Kind: MismatchFault, Case: Case{Op: OpEq, In: Operands{A: one, B: one}}, Err: ErrIllegalInstruction},
			"fault: feq.s 1 {0x3f800000}, 1 {0x3f800000}: unexpected fault: illegal instruction",
		},
	}
	for _, test := range tests {
		a.Equal(test.res, test.m.String())
	}
	a.Equal("MismatchKind(7)", MismatchKind(7).String())
}
