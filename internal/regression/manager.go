// Package regression drives a full baseline-versus-modified comparison:
// case discovery, per-case classification with failure isolation, bundle
// writing and plot-data accumulation.
package regression

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bgricker/regdiff/internal/bundle"
	"github.com/bgricker/regdiff/internal/discovery"
	"github.com/bgricker/regdiff/internal/report"
	"github.com/bgricker/regdiff/internal/timeseries"
)

// DefaultProgressEvery is how many committed cases pass between progress lines.
const DefaultProgressEvery = 40

// Classifier classifies one case pair.
type Classifier interface {
	Classify(ctx context.Context, caseID, baselineDir, modifiedDir string) (report.CaseResult, error)
}

// Options configure a Manager.
type Options struct {
	Classifier    Classifier
	Discovery     discovery.Options
	Workers       int
	ProgressEvery int

	Metadata  timeseries.Metadata
	PlotLimit int64

	Title  string
	Zone   *time.Location
	Now    func() time.Time
	Logger *zap.Logger
}

// Outcome is the result of one Run.
type Outcome struct {
	AnyRegressions bool
	Summary        report.Snapshot
	Dataset        *timeseries.Dataset
	Unpaired       []string
	Deselected     []string
	// BundleWritten is false when the run found nothing to report.
	BundleWritten bool
}

// Manager orchestrates a regression run.
type Manager struct {
	opts   Options
	logger *zap.Logger
}

// New validates opts and fills defaults.
func New(opts Options) (*Manager, error) {
	if opts.Classifier == nil {
		return nil, errors.New("regression: classifier is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{opts: opts, logger: opts.Logger.Named("regression")}, nil
}

// caseOutcome is what a worker hands to the commit step.
type caseOutcome struct {
	c          discovery.Case
	result     report.CaseResult
	extraction *timeseries.Extraction
	err        error
	stack      []byte
}

// run holds the state shared by the workers of one Run. Everything below mu
// is touched only inside commit.
type run struct {
	mu            sync.Mutex
	summary       *report.Summary
	dataset       *timeseries.Dataset
	pending       map[int]caseOutcome
	next          int
	total         int
	anyDiffs      bool
	backtraceSeen bool
}

// Run compares every case under baselineRoot with its counterpart under
// modifiedRoot and writes the report bundle into bundleRoot when anything
// differs or fails.
func (m *Manager) Run(ctx context.Context, baselineRoot, modifiedRoot, bundleRoot string) (Outcome, error) {
	found, err := discovery.Cases(baselineRoot, modifiedRoot, m.opts.Discovery)
	if err != nil {
		return Outcome{}, err
	}
	for _, id := range found.Unpaired {
		m.logger.Debug("skipping case without modified counterpart", zap.String("case", id))
	}

	b, err := bundle.New(bundle.Options{
		Root:   bundleRoot,
		Title:  m.opts.Title,
		Zone:   m.opts.Zone,
		Now:    m.opts.Now,
		Logger: m.opts.Logger.Named("bundle"),
	})
	if err != nil {
		return Outcome{}, err
	}

	state := &run{
		summary: report.NewSummary(),
		dataset: timeseries.NewDataset(m.opts.Metadata, m.opts.PlotLimit),
		pending: make(map[int]caseOutcome),
		total:   len(found.Cases),
	}

	m.logger.Info("starting regression run",
		zap.Int("cases", len(found.Cases)),
		zap.Int("unpaired", len(found.Unpaired)),
		zap.Int("workers", m.opts.Workers),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i, c := range found.Cases {
		if gctx.Err() != nil {
			break
		}
		i, c := i, c
		g.Go(func() error {
			out := m.process(gctx, b, state.dataset, c)
			m.commit(state, i, out)
			// Case failures are recorded, never returned, so siblings keep running.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("regression run interrupted: %w", err)
	}

	snap := state.summary.Snapshot()
	outcome := Outcome{
		AnyRegressions: snap.AnyRegressions(),
		Summary:        snap,
		Dataset:        state.dataset,
		Unpaired:       found.Unpaired,
		Deselected:     found.Deselected,
	}
	if !outcome.AnyRegressions {
		m.logger.Info("no regressions found", zap.Int("cases", snap.CaseCount))
		return outcome, nil
	}
	if err := b.WriteReport(snap, state.dataset); err != nil {
		return outcome, fmt.Errorf("write bundle: %w", err)
	}
	outcome.BundleWritten = true
	m.logger.Info("regressions found",
		zap.Int("cases", snap.CaseCount),
		zap.Int("diffs", len(snap.DiffCases)),
		zap.Int("failed", len(snap.FailedCases)),
		zap.Bool("plot_truncated", state.dataset.Truncated()),
		zap.String("bundle", bundleRoot),
	)
	return outcome, nil
}

// process classifies one case and, when it differs, extracts plot data and
// writes its bundle directory. It never touches the summary.
func (m *Manager) process(ctx context.Context, b *bundle.Bundler, dataset *timeseries.Dataset, c discovery.Case) (out caseOutcome) {
	out.c = c
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("panic: %v", r)
			out.stack = debug.Stack()
		}
	}()

	result, err := m.opts.Classifier.Classify(ctx, c.ID, c.BaselineDir, c.ModifiedDir)
	if err != nil {
		return failed(out, err)
	}
	if result.CaseID == "" {
		result.CaseID = c.ID
	}
	if !result.HasDiffs() {
		out.result = result
		return out
	}

	// Truncation is sticky, so skipping here cannot change what the commit keeps.
	if slices.Contains(result.Artifacts, timeseries.AbsDiffFile) && !dataset.Truncated() {
		x, err := timeseries.ExtractCase(c.ID, c.BaselineDir, c.ModifiedDir)
		if err != nil {
			return failed(out, fmt.Errorf("extract time series: %w", err))
		}
		out.extraction = x
	}
	// Written last so a failed case never leaves a directory behind.
	if _, err := b.WriteCase(c.ID, c.BaselineDir, result.Categories, result.Artifacts); err != nil {
		return failed(out, err)
	}
	out.result = result
	return out
}

func failed(out caseOutcome, err error) caseOutcome {
	out.err = err
	out.stack = debug.Stack()
	return out
}

// commit buffers out and then applies every outcome that is next in case
// order, so the summary, the plot dataset and the logs do not depend on
// worker scheduling.
func (m *Manager) commit(state *run, index int, out caseOutcome) {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.pending[index] = out
	for {
		next, ok := state.pending[state.next]
		if !ok {
			return
		}
		delete(state.pending, state.next)
		state.next++
		m.apply(state, state.next, next)
	}
}

func (m *Manager) apply(state *run, position int, out caseOutcome) {
	id := out.c.ID
	if out.err == nil {
		if err := state.summary.Record(out.result); err != nil {
			out.err = err
		}
	}

	if out.err != nil {
		state.anyDiffs = true
		if err := state.summary.RecordFailure(id); err != nil {
			m.logger.Error("cannot record failed case", zap.String("case", id), zap.Error(err))
		}
		fields := []zap.Field{zap.String("case", id), zap.Error(out.err)}
		if !state.backtraceSeen {
			state.backtraceSeen = true
			fields = append(fields, zap.ByteString("backtrace", out.stack))
		}
		m.logger.Error("case failed during regression processing", fields...)
	} else {
		if out.result.HasDiffs() {
			state.anyDiffs = true
		}
		if out.extraction != nil {
			wasTruncated := state.dataset.Truncated()
			added, err := state.dataset.Add(out.extraction)
			switch {
			case err != nil:
				m.logger.Warn("plot data dropped", zap.String("case", id), zap.Error(err))
			case !wasTruncated && state.dataset.Truncated():
				m.logger.Warn("plot data size limit reached",
					zap.String("case", id),
					zap.Int("variables_kept", added),
					zap.Int("variables", len(out.extraction.Variables)),
					zap.String("limit", humanize.IBytes(uint64(state.dataset.Limit()))),
				)
			}
		}
	}

	if position%m.opts.ProgressEvery == 0 {
		status := "No diffs"
		if state.anyDiffs {
			status = "Diffs!"
		}
		m.logger.Info("progress",
			zap.String("case", id),
			zap.Int("index", position),
			zap.Int("total", state.total),
			zap.String("status", status),
		)
	}
}
