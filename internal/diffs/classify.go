package diffs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bgricker/regdiff/internal/report"
)

// Labels for the summary-table categories.
const (
	TableBigDiffs    = "Table Big Diffs"
	TableSmallDiffs  = "Table Small Diffs"
	TableStringDiffs = "Table String Diffs"
)

// The summary table always carries one differing string: its generation timestamp.
const expectedStringDiffs = 1

// SmallDiffsLabel returns the diff category for small numeric differences.
func SmallDiffsLabel(category string) string {
	return category + " Small Diffs"
}

// BigDiffsLabel returns the diff category for big numeric differences.
func BigDiffsLabel(category string) string {
	return category + " Big Diffs"
}

// Slug derives the HTML-safe identifier of a diff category.
func Slug(category string) string {
	return strings.ToLower(strings.ReplaceAll(category, " ", ""))
}

// Labels returns every diff category label in report order: textual
// categories, numeric small and big diffs, then the summary table.
func Labels() []string {
	labels := TextCategories()
	for _, name := range NumericCategories() {
		labels = append(labels, SmallDiffsLabel(name), BigDiffsLabel(name))
	}
	return append(labels, TableBigDiffs, TableSmallDiffs, TableStringDiffs)
}

// SortLabels returns labels in the order of Labels. Labels outside the
// category table follow in lexical order.
func SortLabels(labels []string) []string {
	rank := make(map[string]int)
	for i, l := range Labels() {
		rank[l] = i
	}
	out := append([]string{}, labels...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i] < out[j]
	})
	return out
}

// Categorize reduces verdicts to the ordered list of diff category labels.
// Absent categories contribute nothing.
func Categorize(v *Verdicts) []string {
	if v == nil {
		return nil
	}
	var labels []string
	for _, c := range textCategories {
		outcome := *c.field(v)
		if outcome == nil {
			continue
		}
		if *outcome != TextEqual {
			labels = append(labels, c.name)
		}
	}
	for _, c := range numericCategories {
		outcome := *c.field(v)
		if outcome == nil {
			continue
		}
		switch *outcome {
		case NumericBig:
			labels = append(labels, BigDiffsLabel(c.name))
		case NumericSmall:
			labels = append(labels, SmallDiffsLabel(c.name))
		}
	}
	if t := v.Table; t != nil {
		if t.Big > 0 {
			labels = append(labels, TableBigDiffs)
		} else if t.Small > 0 {
			labels = append(labels, TableSmallDiffs)
		}
		if t.String > expectedStringDiffs {
			labels = append(labels, TableStringDiffs)
		}
	}
	return labels
}

// Request identifies one case to diff.
type Request struct {
	CaseID      string
	BaselineDir string
	ModifiedDir string
	Thresholds  string
}

// Differ computes per-category verdicts for one case.
type Differ interface {
	DiffCase(ctx context.Context, req Request) (*Verdicts, error)
}

// ArtifactPattern matches raw diff files (e.g. eplusout.csv.absdiff.csv) when
// the diff tool does not list them.
const ArtifactPattern = "*.*.*"

// Classifier turns diff verdicts into case results.
type Classifier struct {
	Differ     Differ
	Thresholds string
}

// Classify diffs one case pair and returns its classification. It does not
// touch any shared state; errors are left to the caller's failure boundary.
func (c *Classifier) Classify(ctx context.Context, caseID, baselineDir, modifiedDir string) (report.CaseResult, error) {
	if c.Differ == nil {
		return report.CaseResult{}, fmt.Errorf("classify %s: no differ configured", caseID)
	}
	v, err := c.Differ.DiffCase(ctx, Request{
		CaseID:      caseID,
		BaselineDir: baselineDir,
		ModifiedDir: modifiedDir,
		Thresholds:  c.Thresholds,
	})
	if err != nil {
		return report.CaseResult{}, fmt.Errorf("classify %s: %w", caseID, err)
	}
	if v == nil {
		return report.CaseResult{}, fmt.Errorf("classify %s: diff tool returned no verdicts", caseID)
	}

	result := report.CaseResult{
		CaseID:     caseID,
		Categories: Categorize(v),
		Baseline:   runTime(v.Baseline),
		Modified:   runTime(v.Modified),
	}
	if !result.HasDiffs() {
		return result, nil
	}

	artifacts := v.Artifacts
	if artifacts == nil {
		artifacts, err = globArtifacts(baselineDir)
		if err != nil {
			return report.CaseResult{}, fmt.Errorf("classify %s: %w", caseID, err)
		}
	}
	result.Artifacts = artifacts
	return result, nil
}

func runTime(s *RunStatus) *report.RunTime {
	if s == nil {
		return nil
	}
	return &report.RunTime{Success: s.Succeeded(), Seconds: s.RuntimeSeconds}
}

func globArtifacts(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ArtifactPattern))
	if err != nil {
		return nil, fmt.Errorf("glob artifacts in %q: %w", dir, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}
