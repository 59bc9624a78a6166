// Copyright 2020 Aleksandr Demakin. All rights reserved.

package conformance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/avdva/zfinx"
	"github.com/avdva/zfinx/fflags"
)

// MismatchKind tells what disagreed.
type MismatchKind int

const (
	// MismatchValue means the oracle returned a different value.
	MismatchValue MismatchKind = iota
	// MismatchVector means the software model disagrees with the expected value of a vector.
	MismatchVector
	// MismatchFault means the oracle faulted on a supported operation.
	MismatchFault
	// MismatchFlags means the oracle raised different exception flags.
	MismatchFlags
)

var (
	mismatchKindNames = [...]string{"value", "vector", "fault", "flags"}
)

// String returns the name of k.
func (k MismatchKind) String() string {
	if k < 0 || int(k) >= len(mismatchKindNames) {
		return fmt.Sprintf("MismatchKind(%d)", int(k))
	}
	return mismatchKindNames[k]
}

// Mismatch describes a failed case.
type Mismatch struct {
	Kind MismatchKind
	Case Case
	// Want is the value of the software model, or of the vector for MismatchVector.
	Want uint32
	// Got is the value of the oracle, or of the software model for MismatchVector.
	Got       uint32
	WantFlags fflags.Flags
	GotFlags  fflags.Flags
	// Err is the fault for MismatchFault.
	Err error
}

// String returns a one line description of m.
func (m Mismatch) String() string {
	prefix := fmt.Sprintf("%s: %s", m.Kind, m.Case)
	kind := m.Case.Op.Result()
	switch m.Kind {
	case MismatchFault:
		return fmt.Sprintf("%s: unexpected fault: %v", prefix, m.Err)
	case MismatchFlags:
		return fmt.Sprintf("%s: flags want %s, got %s", prefix, m.WantFlags, m.GotFlags)
	default:
		return fmt.Sprintf("%s: want %s, got %s", prefix, formatValue(kind, m.Want, true), formatValue(kind, m.Got, true))
	}
}

// Report is the outcome of a run.
type Report struct {
	// Total is the number of executed cases.
	Total int
	// Passed is the number of cases with no disagreement.
	Passed int
	// Faulted is the number of unsupported operations the oracle refused to execute.
	Faulted int
	// Failed is the number of cases with a disagreement. It may be greater than
	// len(Mismatches), if the number of recorded mismatches is limited.
	Failed     int
	Mismatches []Mismatch
	// Fingerprint identifies the set of cases, see Fingerprint.
	Fingerprint uint64
}

// OK returns true, if no case failed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Runner executes cases through an oracle and compares the results with the software model.
type Runner struct {
	Oracle Oracle
	// Logger is used for progress and mismatches. slog.Default() is used, if nil.
	Logger *slog.Logger
	// CheckFlags enables comparison of exception flags, if the oracle reports them.
	CheckFlags bool
	// LooseNaN makes any two NaNs equal in float results.
	LooseNaN bool
	// MaxMismatches limits the number of recorded mismatches. 0 means no limit.
	MaxMismatches int
}

// Run executes all cases. It stops with an error, if ctx is cancelled,
// or if the oracle fails with an error other than a fault.
// The partial report is returned in both cases.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Report, error) {
	if r.Oracle == nil {
		return nil, errors.New("no oracle")
	}
	logger := r.logger()
	report := &Report{Fingerprint: Fingerprint(cases)}
	logger.Info("run started", "cases", len(cases), "fingerprint", fmt.Sprintf("%016x", report.Fingerprint))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "run interrupted")
		}
		report.Total++
		m, faulted, err := r.runCase(ctx, c)
		switch {
		case err != nil:
			return report, errors.Wrapf(err, "%s failed", c)
		case m != nil:
			report.Failed++
			logger.Debug("mismatch", "case", m.String(), "word", fmt.Sprintf("0x%08x", c.Word()))
			if r.MaxMismatches == 0 || len(report.Mismatches) < r.MaxMismatches {
				report.Mismatches = append(report.Mismatches, *m)
			}
		case faulted:
			report.Faulted++
		default:
			report.Passed++
		}
	}
	logger.Info("run finished", "total", report.Total, "passed", report.Passed, "faulted", report.Faulted, "failed", report.Failed)
	return report, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) (*Mismatch, bool, error) {
	want, wantFlags := Emulate(c.Op, c.In), Flags(c.Op, c.In)
	if c.Want != nil && !r.equal(c.Op, *c.Want, want) {
		return &Mismatch{Kind: MismatchVector, Case: c, Want: *c.Want, Got: want}, false, nil
	}
	res, err := r.Oracle.Exec(ctx, c.Op, c.In)
	switch {
	case err == nil:
	case errors.Is(err, ErrIllegalInstruction):
		if !c.Op.Supported() {
			return nil, true, nil
		}
		return &Mismatch{Kind: MismatchFault, Case: c, Want: want, Err: err}, false, nil
	default:
		return nil, false, err
	}
	if !r.equal(c.Op, want, res.Value) {
		return &Mismatch{Kind: MismatchValue, Case: c, Want: want, Got: res.Value, WantFlags: wantFlags, GotFlags: res.Flags}, false, nil
	}
	if r.CheckFlags && res.FlagsValid && res.Flags != wantFlags {
		return &Mismatch{Kind: MismatchFlags, Case: c, Want: want, Got: res.Value, WantFlags: wantFlags, GotFlags: res.Flags}, false, nil
	}
	return nil, false, nil
}

func (r *Runner) equal(op Op, want, got uint32) bool {
	if want == got {
		return true
	}
	return r.LooseNaN && op.Result() == KindFloat && zfinx.FromBits(want).IsNaN() && zfinx.FromBits(got).IsNaN()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
