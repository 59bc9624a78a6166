// Copyright 2020 Aleksandr Demakin. All rights reserved.

package main

import (
	"io"
	"os"

	"github.com/pborman/getopt/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	oracleGolden = "golden"
	oracleNative = "native"
)

// config holds all settings of a run. A config file uses the long option names as keys.
type config struct {
	Oracle    string   `yaml:"oracle"`
	Ops       string   `yaml:"ops"`
	Random    int      `yaml:"random"`
	Seed      int64    `yaml:"seed"`
	NoSpecial bool     `yaml:"no-special"`
	LooseNaN  bool     `yaml:"loose-nan"`
	Flags     bool     `yaml:"flags"`
	Extended  bool     `yaml:"extended"`
	Max       int      `yaml:"max"`
	Dump      string   `yaml:"dump"`
	JSON      bool     `yaml:"json"`
	Log       string   `yaml:"log"`
	Debug     bool     `yaml:"debug"`
	Vectors   []string `yaml:"vectors"`
}

func defaultConfig() config {
	return config{
		Oracle: oracleGolden,
		Ops:    "all",
		Random: 1000,
		Seed:   1,
		Max:    100,
	}
}

func loadConfig(path string, cfg *config) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "cannot open config")
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return errors.Wrapf(err, "cannot parse config %s", path)
	}
	return nil
}

// parseArgs reads the config file, if one is given, and applies command line options
// on top of it. help is true, if usage was requested.
func parseArgs(args []string, usage io.Writer) (cfg config, help bool, err error) {
	cfg = defaultConfig()
	set := getopt.New()
	set.SetParameters("[vector files...]")
	configPath := set.StringLong("config", 'c', "", "Configuration file")
	oracle := set.EnumLong("oracle", 'o', []string{oracleGolden, oracleNative}, cfg.Oracle, "Oracle to check the model against", "golden|native")
	ops := set.StringLong("ops", 0, cfg.Ops, "Comma separated operations, all or supported")
	random := set.IntLong("random", 'n', cfg.Random, "Random cases per operation")
	seed := set.Int64Long("seed", 's', cfg.Seed, "Random seed")
	noSpecial := set.BoolLong("no-special", 0, "Skip combinations of special operands")
	looseNaN := set.BoolLong("loose-nan", 0, "Treat all NaN results as equal")
	flags := set.BoolLong("flags", 0, "Compare exception flags")
	extended := set.BoolLong("extended", 0, "Execute unsupported operations in the golden oracle")
	maxMismatches := set.IntLong("max", 0, cfg.Max, "Maximum number of reported mismatches, 0 for all")
	dump := set.StringLong("dump", 0, "", "Write the cases to a yaml file and exit, - for stdout")
	jsonReport := set.BoolLong("json", 0, "Print the report as json")
	logFile := set.StringLong("log", 'l', "", "Log file")
	debug := set.BoolLong("debug", 'd', "Log debug to console")
	optHelp := set.BoolLong("help", 'h', "Help")
	if err := set.Getopt(args, nil); err != nil {
		set.PrintUsage(usage)
		return cfg, false, errors.Wrap(err, "bad arguments")
	}
	if *optHelp {
		set.PrintUsage(usage)
		return cfg, true, nil
	}
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return cfg, false, err
		}
	}
	override := func(name string, apply func()) {
		if set.IsSet(name) {
			apply()
		}
	}
	override("oracle", func() { cfg.Oracle = *oracle })
	override("ops", func() { cfg.Ops = *ops })
	override("random", func() { cfg.Random = *random })
	override("seed", func() { cfg.Seed = *seed })
	override("no-special", func() { cfg.NoSpecial = *noSpecial })
	override("loose-nan", func() { cfg.LooseNaN = *looseNaN })
	override("flags", func() { cfg.Flags = *flags })
	override("extended", func() { cfg.Extended = *extended })
	override("max", func() { cfg.Max = *maxMismatches })
	override("dump", func() { cfg.Dump = *dump })
	override("json", func() { cfg.JSON = *jsonReport })
	override("log", func() { cfg.Log = *logFile })
	override("debug", func() { cfg.Debug = *debug })
	cfg.Vectors = append(cfg.Vectors, set.Args()...)
	if cfg.Oracle != oracleGolden && cfg.Oracle != oracleNative {
		return cfg, false, errors.Errorf("unknown oracle %q", cfg.Oracle)
	}
	if cfg.Random < 0 || cfg.Max < 0 {
		return cfg, false, errors.New("negative counts are not allowed")
	}
	return cfg, false, nil
}
