package report

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateCase indicates that a case id was recorded more than once.
var ErrDuplicateCase = errors.New("case already recorded")

// RunTime holds the simulation wall time of one side of a case comparison.
// Seconds is meaningful only when Success is true.
type RunTime struct {
	Success bool    `json:"success"`
	Seconds float64 `json:"seconds"`
}

// CaseResult captures the classification of one baseline/modified case pair.
type CaseResult struct {
	CaseID     string   `json:"case"`
	Categories []string `json:"categories,omitempty"`
	Baseline   *RunTime `json:"baseline,omitempty"`
	Modified   *RunTime `json:"modified,omitempty"`
	// Artifacts lists raw diff files, relative to the baseline case directory.
	Artifacts []string `json:"artifacts,omitempty"`
}

// HasDiffs reports whether any diff category was flagged.
func (r CaseResult) HasDiffs() bool {
	return len(r.Categories) > 0
}

// Summary aggregates case outcomes for one regression run. It is safe for
// concurrent use; every mutation happens under a single lock.
type Summary struct {
	mu sync.Mutex

	noDiff  []string
	diffs   []string
	failed  []string
	byType  map[string][]string
	byCase  map[string][]string
	times   map[string]CaseTimes
	seen    map[string]struct{}
	counted int
}

// CaseTimes pairs the baseline and modified run times of one case.
type CaseTimes struct {
	Baseline RunTime `json:"baseline"`
	Modified RunTime `json:"modified"`
}

// NewSummary returns an empty Summary.
func NewSummary() *Summary {
	return &Summary{
		byType: make(map[string][]string),
		byCase: make(map[string][]string),
		times:  make(map[string]CaseTimes),
		seen:   make(map[string]struct{}),
	}
}

// Record files a classified case under the no-diff or diff listings and
// updates both cross-reference indices.
func (s *Summary) Record(result CaseResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.claim(result.CaseID); err != nil {
		return err
	}

	if result.Baseline != nil || result.Modified != nil {
		var t CaseTimes
		if result.Baseline != nil {
			t.Baseline = *result.Baseline
		}
		if result.Modified != nil {
			t.Modified = *result.Modified
		}
		s.times[result.CaseID] = t
	}

	if !result.HasDiffs() {
		s.noDiff = append(s.noDiff, result.CaseID)
		return nil
	}

	s.diffs = append(s.diffs, result.CaseID)
	for _, category := range result.Categories {
		s.byType[category] = append(s.byType[category], result.CaseID)
		s.byCase[result.CaseID] = append(s.byCase[result.CaseID], category)
	}
	return nil
}

// RecordFailure files a case whose processing did not complete.
func (s *Summary) RecordFailure(caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.claim(caseID); err != nil {
		return err
	}
	s.failed = append(s.failed, caseID)
	return nil
}

func (s *Summary) claim(caseID string) error {
	if caseID == "" {
		return fmt.Errorf("record case: empty case id")
	}
	if _, ok := s.seen[caseID]; ok {
		return fmt.Errorf("record case %q: %w", caseID, ErrDuplicateCase)
	}
	s.seen[caseID] = struct{}{}
	s.counted++
	return nil
}

// Snapshot is an immutable copy of a Summary's state.
type Snapshot struct {
	CaseCount   int                  `json:"case_count"`
	NoDiffCases []string             `json:"no_diff_cases"`
	DiffCases   []string             `json:"diff_cases"`
	FailedCases []string             `json:"failed_cases"`
	CasesByType map[string][]string  `json:"cases_by_diff_type"`
	TypesByCase map[string][]string  `json:"diff_types_by_case"`
	RunTimes    map[string]CaseTimes `json:"run_times"`
}

// Snapshot copies the current state so callers can render it without holding the lock.
func (s *Summary) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		CaseCount:   s.counted,
		NoDiffCases: append([]string{}, s.noDiff...),
		DiffCases:   append([]string{}, s.diffs...),
		FailedCases: append([]string{}, s.failed...),
		CasesByType: make(map[string][]string, len(s.byType)),
		TypesByCase: make(map[string][]string, len(s.byCase)),
		RunTimes:    make(map[string]CaseTimes, len(s.times)),
	}
	for k, v := range s.byType {
		snap.CasesByType[k] = append([]string{}, v...)
	}
	for k, v := range s.byCase {
		snap.TypesByCase[k] = append([]string{}, v...)
	}
	for k, v := range s.times {
		snap.RunTimes[k] = v
	}
	return snap
}

// AnyRegressions reports whether the run saw a diff or a failure.
func (s Snapshot) AnyRegressions() bool {
	return len(s.DiffCases) > 0 || len(s.FailedCases) > 0
}

// DiffTypes returns the diff categories in sorted order.
func (s Snapshot) DiffTypes() []string {
	keys := make([]string, 0, len(s.CasesByType))
	for k := range s.CasesByType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RunTimeRow is one line of the runtime comparison table.
type RunTimeRow struct {
	CaseID   string
	Baseline *float64
	Modified *float64
	// Bundled marks cases with diffs, the only ones with a bundle directory.
	Bundled  bool
}

// RunTimeTable returns rows sorted by case id plus the totals over cases
// where both runs succeeded.
func (s Snapshot) RunTimeTable() (rows []RunTimeRow, baseTotal, modTotal float64) {
	ids := make([]string, 0, len(s.RunTimes))
	for id := range s.RunTimes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	bundled := make(map[string]bool, len(s.DiffCases))
	for _, id := range s.DiffCases {
		bundled[id] = true
	}

	for _, id := range ids {
		t := s.RunTimes[id]
		row := RunTimeRow{CaseID: id, Bundled: bundled[id]}
		if t.Baseline.Success {
			v := t.Baseline.Seconds
			row.Baseline = &v
		}
		if t.Modified.Success {
			v := t.Modified.Seconds
			row.Modified = &v
		}
		if t.Baseline.Success && t.Modified.Success {
			baseTotal += t.Baseline.Seconds
			modTotal += t.Modified.Seconds
		}
		rows = append(rows, row)
	}
	return rows, baseTotal, modTotal
}
