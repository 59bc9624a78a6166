// Copyright 2020 Aleksandr Demakin. All rights reserved.

// Command fpcheck checks the software model of the Zfinx unit against an oracle.
//
//	fpcheck [options] [vector files...]
//
// Cases are special operand combinations, random operands, and vectors from yaml files.
// The exit status is 0, if all cases passed, 1 on a mismatch, and 2 on a usage or I/O error.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/errors"

	"github.com/avdva/zfinx/conformance"
	"github.com/avdva/zfinx/internal/logger"
)

const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	cfg, help, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if help {
		return exitOK
	}
	log, closeLog, err := logger.New(cfg.Log, cfg.Debug, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer func() {
		code = closeLogFile(closeLog, stderr, code)
	}()

	cases, err := buildCases(cfg, log)
	if err != nil {
		log.Error(err.Error())
		return exitError
	}
	if cfg.Dump != "" {
		if err := dumpCases(cfg.Dump, cases, stdout); err != nil {
			log.Error(err.Error())
			return exitError
		}
		log.Info("cases written", "count", len(cases), "file", cfg.Dump)
		return exitOK
	}

	runner := conformance.Runner{
		Oracle:        newOracle(cfg),
		Logger:        log.With("oracle", cfg.Oracle),
		CheckFlags:    cfg.Flags,
		LooseNaN:      cfg.LooseNaN,
		MaxMismatches: cfg.Max,
	}
	report, err := runner.Run(ctx, cases)
	if err != nil {
		log.Error(err.Error())
		return exitError
	}
	if err := printReport(stdout, report, cfg.JSON); err != nil {
		log.Error(err.Error())
		return exitError
	}
	if !report.OK() {
		return exitMismatch
	}
	return exitOK
}

// closeLogFile closes the log file and reports a failure to stderr,
// turning a successful exit code into exitError.
func closeLogFile(closeLog func() error, stderr io.Writer, code int) int {
	if err := closeLog(); err != nil {
		fmt.Fprintln(stderr, errors.Wrap(err, "cannot close log file"))
		if code == exitOK {
			return exitError
		}
	}
	return code
}

func newOracle(cfg config) conformance.Oracle {
	if cfg.Oracle == oracleNative {
		return conformance.Native{}
	}
	return &conformance.Golden{Extended: cfg.Extended}
}

func buildCases(cfg config, log *slog.Logger) ([]conformance.Case, error) {
	ops, err := conformance.ParseOps(cfg.Ops)
	if err != nil {
		return nil, err
	}
	var cases []conformance.Case
	if !cfg.NoSpecial {
		cases = append(cases, conformance.Special(ops)...)
	}
	cases = append(cases, conformance.Random(ops, cfg.Random, cfg.Seed)...)
	for _, path := range cfg.Vectors {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		log.Debug("vectors loaded", "file", path, "count", len(loaded))
		cases = append(cases, loaded...)
	}
	return cases, nil
}

func loadFile(path string) ([]conformance.Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open vectors")
	}
	defer f.Close()
	cases, err := conformance.LoadVectors(f)
	return cases, errors.Wrapf(err, "cannot load %s", path)
}

func dumpCases(path string, cases []conformance.Case, stdout io.Writer) (err error) {
	if path == "-" {
		return conformance.WriteVectors(stdout, cases)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "cannot create dump file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = errors.Wrap(cerr, "cannot close dump file")
		}
	}()
	return conformance.WriteVectors(f, cases)
}

type jsonReport struct {
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	Faulted     int      `json:"faulted"`
	Failed      int      `json:"failed"`
	Fingerprint string   `json:"fingerprint"`
	Mismatches  []string `json:"mismatches"`
}

func printReport(w io.Writer, report *conformance.Report, asJSON bool) error {
	mismatches := make([]string, 0, len(report.Mismatches))
	for _, m := range report.Mismatches {
		mismatches = append(mismatches, m.String())
	}
	fingerprint := fmt.Sprintf("%016x", report.Fingerprint)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(jsonReport{
			Total:       report.Total,
			Passed:      report.Passed,
			Faulted:     report.Faulted,
			Failed:      report.Failed,
			Fingerprint: fingerprint,
			Mismatches:  mismatches,
		}), "cannot write report")
	}
	for _, m := range mismatches {
		if _, err := fmt.Fprintln(w, m); err != nil {
			return errors.Wrap(err, "cannot write report")
		}
	}
	if report.Failed > len(mismatches) {
		fmt.Fprintf(w, "... %d more\n", report.Failed-len(mismatches))
	}
	_, err := fmt.Fprintf(w, "total %d, passed %d, faulted %d, failed %d, fingerprint %s\n",
		report.Total, report.Passed, report.Faulted, report.Failed, fingerprint)
	return errors.Wrap(err, "cannot write report")
}
