package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgricker/regdiff/internal/config"
)

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("parse --config: %w", err)
	}

	cfg, err := config.Load(root, path)
	if err != nil {
		return config.Config{}, err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyFlags(&cfg, flags)
	cfg.Format = strings.ToLower(cfg.Format)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues
	var err error

	stringFlags := []struct {
		name string
		dst  *config.StringFlag
	}{
		{"thresholds", &values.Thresholds},
		{"case-timeout", &values.CaseTimeout},
		{"baseline-label", &values.BaselineLabel},
		{"branch-label", &values.BranchLabel},
		{"branch-sha", &values.BranchSHA},
		{"timezone", &values.Timezone},
		{"format", &values.Format},
		{"log-level", &values.LogLevel},
		{"log-format", &values.LogFormat},
	}
	for _, f := range stringFlags {
		if *f.dst, err = stringFlag(flags, f.name); err != nil {
			return values, err
		}
	}

	if flags.Changed("diff-command") {
		v, err := flags.GetString("diff-command")
		if err != nil {
			return values, fmt.Errorf("parse --diff-command: %w", err)
		}
		values.DiffCommand = config.SliceFlag{Values: splitCommand(v)}
	}

	if values.Workers, err = intFlag(flags, "workers"); err != nil {
		return values, err
	}
	if values.PlotLimitMB, err = intFlag(flags, "plot-limit-mb"); err != nil {
		return values, err
	}

	if flags.Changed("case") {
		v, err := flags.GetStringArray("case")
		if err != nil {
			return values, fmt.Errorf("parse --case: %w", err)
		}
		values.Cases = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip-case") {
		v, err := flags.GetStringArray("skip-case")
		if err != nil {
			return values, fmt.Errorf("parse --skip-case: %w", err)
		}
		values.SkipCases = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}

func stringFlag(flags *pflag.FlagSet, name string) (config.StringFlag, error) {
	if !flags.Changed(name) {
		return config.StringFlag{}, nil
	}
	v, err := flags.GetString(name)
	if err != nil {
		return config.StringFlag{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return config.StringFlag{Value: v, Set: true}, nil
}

func intFlag(flags *pflag.FlagSet, name string) (config.IntFlag, error) {
	if !flags.Changed(name) {
		return config.IntFlag{}, nil
	}
	v, err := flags.GetInt(name)
	if err != nil {
		return config.IntFlag{}, fmt.Errorf("parse --%s: %w", name, err)
	}
	return config.IntFlag{Value: v, Set: true}, nil
}

// splitCommand splits a command line on whitespace. Arguments that need
// spaces belong in the config file's diff_command list.
func splitCommand(s string) []string {
	return strings.Fields(s)
}
