package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".regdiff.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	Thresholds  string   `yaml:"thresholds"`
	DiffCommand []string `yaml:"diff_command"`
	CaseTimeout string   `yaml:"case_timeout"`

	Workers       int `yaml:"workers"`
	PlotLimitMB   int `yaml:"plot_limit_mb"`
	ProgressEvery int `yaml:"progress_every"`

	IgnoreDirs []string `yaml:"ignore_dirs"`
	Cases      []string `yaml:"cases"`
	SkipCases  []string `yaml:"skip_cases"`

	BaselineLabel string `yaml:"baseline_label"`
	BranchLabel   string `yaml:"branch_label"`
	BranchSHA     string `yaml:"branch_sha"`
	Timezone      string `yaml:"timezone"`
	Title         string `yaml:"title"`

	Format    string `yaml:"format"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Verbose   bool   `yaml:"verbose"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatMarkdown renders the pretty report with Markdown tables.
	FormatMarkdown = "markdown"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"

	// DefaultPlotLimitMB caps the plotter's embedded data.
	DefaultPlotLimitMB = 75
	// DefaultProgressEvery is how many cases pass between progress lines.
	DefaultProgressEvery = 40
)

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		CaseTimeout:   "30m",
		Workers:       runtime.NumCPU(),
		PlotLimitMB:   DefaultPlotLimitMB,
		ProgressEvery: DefaultProgressEvery,
		IgnoreDirs:    []string{"CMakeFiles"},
		BaselineLabel: "baseline",
		Timezone:      "America/Chicago",
		Format:        FormatPretty,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Load reads the config file at path, or FileName under root when path is
// empty. A missing default file is ignored; a missing explicit one is not.
func Load(root, path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.Thresholds != "" {
		out.Thresholds = override.Thresholds
	}
	if len(override.DiffCommand) > 0 {
		out.DiffCommand = append([]string{}, override.DiffCommand...)
	}
	if override.CaseTimeout != "" {
		out.CaseTimeout = override.CaseTimeout
	}
	if override.Workers > 0 {
		out.Workers = override.Workers
	}
	if override.PlotLimitMB > 0 {
		out.PlotLimitMB = override.PlotLimitMB
	}
	if override.ProgressEvery > 0 {
		out.ProgressEvery = override.ProgressEvery
	}
	if override.IgnoreDirs != nil {
		out.IgnoreDirs = append([]string{}, override.IgnoreDirs...)
	}
	if len(override.Cases) > 0 {
		out.Cases = append([]string{}, override.Cases...)
	}
	if len(override.SkipCases) > 0 {
		out.SkipCases = append([]string{}, override.SkipCases...)
	}
	if override.BaselineLabel != "" {
		out.BaselineLabel = override.BaselineLabel
	}
	if override.BranchLabel != "" {
		out.BranchLabel = override.BranchLabel
	}
	if override.BranchSHA != "" {
		out.BranchSHA = override.BranchSHA
	}
	if override.Timezone != "" {
		out.Timezone = override.Timezone
	}
	if override.Title != "" {
		out.Title = override.Title
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.LogFormat != "" {
		out.LogFormat = override.LogFormat
	}
	if override.Verbose {
		out.Verbose = true
	}

	return out
}

// Timeout parses CaseTimeout. Zero disables the per-case limit.
func (c Config) Timeout() (time.Duration, error) {
	if c.CaseTimeout == "" || c.CaseTimeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CaseTimeout)
	if err != nil {
		return 0, fmt.Errorf("case_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("case_timeout: negative duration %s", d)
	}
	return d, nil
}

// PlotLimitBytes returns the plot data ceiling in bytes.
func (c Config) PlotLimitBytes() int64 {
	return int64(c.PlotLimitMB) << 20
}

// Location loads the secondary report time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate rejects values no command can run with.
func (c Config) Validate() error {
	switch c.Format {
	case FormatPretty, FormatMarkdown, FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.PlotLimitMB < 0 {
		return fmt.Errorf("plot_limit_mb must not be negative, got %d", c.PlotLimitMB)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Thresholds.Set {
		cfg.Thresholds = flags.Thresholds.Value
	}
	if len(flags.DiffCommand.Values) > 0 {
		cfg.DiffCommand = append([]string{}, flags.DiffCommand.Values...)
	}
	if flags.CaseTimeout.Set {
		cfg.CaseTimeout = flags.CaseTimeout.Value
	}
	if flags.Workers.Set {
		cfg.Workers = flags.Workers.Value
	}
	if flags.PlotLimitMB.Set {
		cfg.PlotLimitMB = flags.PlotLimitMB.Value
	}
	if len(flags.Cases.Values) > 0 {
		cfg.Cases = append([]string{}, flags.Cases.Values...)
	}
	if len(flags.SkipCases.Values) > 0 {
		cfg.SkipCases = append([]string{}, flags.SkipCases.Values...)
	}
	if flags.BaselineLabel.Set {
		cfg.BaselineLabel = flags.BaselineLabel.Value
	}
	if flags.BranchLabel.Set {
		cfg.BranchLabel = flags.BranchLabel.Value
	}
	if flags.BranchSHA.Set {
		cfg.BranchSHA = flags.BranchSHA.Value
	}
	if flags.Timezone.Set {
		cfg.Timezone = flags.Timezone.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
	if flags.LogFormat.Set {
		cfg.LogFormat = flags.LogFormat.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	Thresholds    StringFlag
	DiffCommand   SliceFlag
	CaseTimeout   StringFlag
	Workers       IntFlag
	PlotLimitMB   IntFlag
	Cases         SliceFlag
	SkipCases     SliceFlag
	BaselineLabel StringFlag
	BranchLabel   StringFlag
	BranchSHA     StringFlag
	Timezone      StringFlag
	Format        StringFlag
	LogLevel      StringFlag
	LogFormat     StringFlag
	Verbose       BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
