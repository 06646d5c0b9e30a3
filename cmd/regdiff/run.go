package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bgricker/regdiff/internal/config"
	"github.com/bgricker/regdiff/internal/diffs"
	"github.com/bgricker/regdiff/internal/discovery"
	"github.com/bgricker/regdiff/internal/filter"
	"github.com/bgricker/regdiff/internal/logging"
	"github.com/bgricker/regdiff/internal/output"
	"github.com/bgricker/regdiff/internal/regression"
	"github.com/bgricker/regdiff/internal/revision"
	"github.com/bgricker/regdiff/internal/timeseries"
)

// errRegressions marks a run that found diffs or failed cases.
var errRegressions = errors.New("regressions found")

func runRegressions(cmd *cobra.Command, args []string) error {
	baselineRoot, modifiedRoot, bundleRoot := args[0], args[1], args[2]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	differ, err := diffs.NewExecDiffer(diffs.ExecOptions{Command: cfg.DiffCommand, Timeout: timeout})
	if err != nil {
		if errors.Is(err, diffs.ErrNoCommand) {
			return fmt.Errorf("%w; set diff_command in %s or pass --diff-command", err, config.FileName)
		}
		return err
	}

	selection, err := filter.NewSelection(cfg.Cases, cfg.SkipCases)
	if err != nil {
		return err
	}
	zone, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rev, err := revision.Resolve(ctx, modifiedRoot, revision.Info{Branch: cfg.BranchLabel, SHA: cfg.BranchSHA})
	switch {
	case revision.Missing(err):
		logger.Debug("git not installed, using fallback branch labels", zap.String("branch", rev.Branch), zap.String("sha", rev.SHA))
	case err != nil:
		logger.Debug("git metadata unavailable", zap.String("dir", modifiedRoot), zap.Error(err))
	}

	manager, err := regression.New(regression.Options{
		Classifier: &diffs.Classifier{Differ: differ, Thresholds: cfg.Thresholds},
		Discovery: discovery.Options{
			Ignore:    cfg.IgnoreDirs,
			Selection: selection,
		},
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		Metadata: timeseries.Metadata{
			Baseline:  cfg.BaselineLabel,
			Branch:    rev.Branch,
			BranchSHA: rev.SHA,
		},
		PlotLimit: cfg.PlotLimitBytes(),
		Title:     cfg.Title,
		Zone:      zone,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	outcome, err := manager.Run(ctx, baselineRoot, modifiedRoot, bundleRoot)
	if err != nil {
		return err
	}

	rep := output.NewReport(runID, output.Roots{
		Baseline: baselineRoot,
		Modified: modifiedRoot,
		Bundle:   bundleRoot,
	}, outcome, time.Since(start))
	if err := renderReport(cmd, cfg, rep); err != nil {
		return err
	}

	if outcome.AnyRegressions {
		return errRegressions
	}
	return nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Verbose: cfg.Verbose,
		Writer:  cmd.ErrOrStderr(),
	})
}

func renderReport(cmd *cobra.Command, cfg config.Config, rep output.Report) error {
	switch cfg.Format {
	case config.FormatPretty:
		return output.NewPretty(cmd.OutOrStdout()).Render(rep)
	case config.FormatMarkdown:
		return output.NewMarkdown(cmd.OutOrStdout()).Render(rep)
	case config.FormatJSON:
		return output.NewJSON(cmd.OutOrStdout()).Render(rep)
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
