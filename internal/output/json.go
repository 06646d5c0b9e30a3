package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/bgricker/regdiff/internal/regression"
	"github.com/bgricker/regdiff/internal/report"
	"github.com/bgricker/regdiff/internal/tables"
)

// Verdicts reported for a regression run.
const (
	VerdictClean       = "clean"
	VerdictRegressions = "regressions"
)

// JSONRenderer emits structured run data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures the end-of-run report schema.
type Report struct {
	RunID         string          `json:"run_id"`
	Verdict       string          `json:"verdict"`
	Baseline      string          `json:"baseline"`
	Modified      string          `json:"modified"`
	Bundle        string          `json:"bundle"`
	BundleWritten bool            `json:"bundle_written"`
	Summary       report.Snapshot `json:"summary"`
	Unpaired      []string        `json:"unpaired_cases,omitempty"`
	Deselected    []string        `json:"deselected_cases,omitempty"`
	PlotCases     int             `json:"plot_cases"`
	PlotTruncated bool            `json:"plot_truncated"`
	Duration      time.Duration   `json:"-"`
	DurationMS    int64           `json:"duration_ms"`
}

// Roots names the three directories of a run.
type Roots struct {
	Baseline string
	Modified string
	Bundle   string
}

// NewReport builds the console report for a finished run.
func NewReport(runID string, roots Roots, outcome regression.Outcome, elapsed time.Duration) Report {
	r := Report{
		RunID:         runID,
		Verdict:       VerdictClean,
		Baseline:      roots.Baseline,
		Modified:      roots.Modified,
		Bundle:        roots.Bundle,
		BundleWritten: outcome.BundleWritten,
		Summary:       outcome.Summary,
		Unpaired:      outcome.Unpaired,
		Deselected:    outcome.Deselected,
		Duration:      elapsed,
		DurationMS:    elapsed.Milliseconds(),
	}
	if outcome.AnyRegressions {
		r.Verdict = VerdictRegressions
	}
	if outcome.Dataset != nil {
		r.PlotCases = len(outcome.Dataset.Cases())
		r.PlotTruncated = outcome.Dataset.Truncated()
	}
	return r
}

// DuplicateReport is the JSON shape of a table uniqueness check.
type DuplicateReport struct {
	Path       string             `json:"path"`
	Skipped    bool               `json:"skipped,omitempty"`
	Duplicates []tables.Duplicate `json:"duplicates"`
}

// Render encodes the run report as JSON.
func (j *JSONRenderer) Render(report Report) error {
	return j.encode(report)
}

// RenderDuplicates encodes a table uniqueness check as JSON.
func (j *JSONRenderer) RenderDuplicates(report DuplicateReport) error {
	if report.Duplicates == nil {
		report.Duplicates = []tables.Duplicate{}
	}
	return j.encode(report)
}

func (j *JSONRenderer) encode(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
