package diffs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCategorizeTableStringDiffThreshold(t *testing.T) {
	tests := []struct {
		name    string
		strings int
		want    []string
	}{
		{"timestamp only", 1, nil},
		{"no strings", 0, nil},
		{"genuine string diff", 2, []string{TableStringDiffs}},
	}
	for _, tt := range tests {
		v := &Verdicts{Table: &TableCounts{String: tt.strings}}
		if diff := cmp.Diff(tt.want, Categorize(v)); diff != "" {
			t.Fatalf("%s: categories mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestCategorizeTableBigTakesPrecedence(t *testing.T) {
	v := &Verdicts{Table: &TableCounts{Big: 3, Small: 7, String: 4}}
	want := []string{TableBigDiffs, TableStringDiffs}
	if diff := cmp.Diff(want, Categorize(v)); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}

	v = &Verdicts{Table: &TableCounts{Small: 1}}
	if diff := cmp.Diff([]string{TableSmallDiffs}, Categorize(v)); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCategorizeTextAndNumeric(t *testing.T) {
	v := &Verdicts{}
	mustSetText(t, v, "EIO", TextNotEqual)
	mustSetText(t, v, "ERR", TextEqual)
	mustSetText(t, v, "StdErr", TextNotEqual)
	mustSetNumeric(t, v, "ESO", NumericSmall)
	mustSetNumeric(t, v, "MTR", NumericBig)
	mustSetNumeric(t, v, "SSZ", NumericNone)

	want := []string{"EIO", "StdErr", "ESO Small Diffs", "MTR Big Diffs"}
	if diff := cmp.Diff(want, Categorize(v)); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestCategorizeAbsentCategories(t *testing.T) {
	if got := Categorize(&Verdicts{}); len(got) != 0 {
		t.Fatalf("expected no categories for empty verdicts, got %v", got)
	}
	if got := Categorize(nil); got != nil {
		t.Fatalf("expected nil for nil verdicts, got %v", got)
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("ESO Big Diffs"); got != "esobigdiffs" {
		t.Fatalf("Slug = %q", got)
	}
	if got := Slug("Readvars_Audit"); got != "readvars_audit" {
		t.Fatalf("Slug = %q", got)
	}
}

func TestDecodeVerdicts(t *testing.T) {
	doc := `{
	  "text": {"EIO": "not_equal", "Audit": "equal"},
	  "numeric": {"ESO": "big"},
	  "table": {"big": 0, "small": 0, "string": 1},
	  "summary": {"baseline": {"status": "success", "runtime_seconds": 1.5},
	              "modified": {"status": "fatal", "runtime_seconds": 0}},
	  "artifacts": ["eplusout.eio.diff"]
	}`
	v, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.EIO == nil || *v.EIO != TextNotEqual || v.Audit == nil || *v.Audit != TextEqual {
		t.Fatalf("text verdicts not mapped: EIO=%v Audit=%v", v.EIO, v.Audit)
	}
	if v.ERR != nil {
		t.Fatalf("absent category must stay nil")
	}
	if v.ESO == nil || *v.ESO != NumericBig {
		t.Fatalf("numeric verdict not mapped: %v", v.ESO)
	}
	if !v.Baseline.Succeeded() || v.Modified.Succeeded() {
		t.Fatalf("unexpected run statuses: %+v %+v", v.Baseline, v.Modified)
	}
	if diff := cmp.Diff([]string{"eplusout.eio.diff"}, v.Artifacts); diff != "" {
		t.Fatalf("artifacts mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsUnknownCategory(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"text": {"NOPE": "equal"}}`)); err == nil {
		t.Fatalf("expected error for unknown category")
	}
	if _, err := Decode(strings.NewReader(`{"numeric": {"ESO": "huge"}}`)); err == nil {
		t.Fatalf("expected error for unknown numeric verdict")
	}
	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Fatalf("expected error for malformed document")
	}
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	for _, doc := range []string{
		`{"text": {"EIO": "equal"}} {"text": {"EIO": "not_equal"}}`,
		`{"text": {"EIO": "equal"}}}`,
		`{"text": {"EIO": "equal"}} Traceback (most recent call last)`,
	} {
		if _, err := Decode(strings.NewReader(doc)); err == nil {
			t.Fatalf("%q: expected error for trailing data", doc)
		}
	}
	if _, err := Decode(strings.NewReader("{\"text\": {\"EIO\": \"equal\"}}\n\n")); err != nil {
		t.Fatalf("trailing whitespace must be accepted: %v", err)
	}
}

func TestSortLabelsFollowsCategoryTable(t *testing.T) {
	got := SortLabels([]string{"Table String Diffs", "ESO Big Diffs", "Custom", "StdOut", "ESO Small Diffs", "Audit", "MTR Big Diffs"})
	want := []string{"Audit", "StdOut", "ESO Small Diffs", "ESO Big Diffs", "MTR Big Diffs", "Table String Diffs", "Custom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	labels := Labels()
	if labels[0] != TextCategories()[0] || labels[len(labels)-1] != TableStringDiffs {
		t.Fatalf("unexpected label table %v", labels)
	}
	if len(labels) != len(TextCategories())+2*len(NumericCategories())+3 {
		t.Fatalf("label count = %d", len(labels))
	}
}

type stubDiffer struct {
	verdicts *Verdicts
	err      error
	got      Request
}

func (s *stubDiffer) DiffCase(_ context.Context, req Request) (*Verdicts, error) {
	s.got = req
	return s.verdicts, s.err
}

func TestClassifierFallsBackToArtifactGlob(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"eplusout.eio.diff", "eplusout.csv.absdiff.csv", "eplusout.csv", "in.idf"} {
		if err := os.WriteFile(filepath.Join(base, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	v := &Verdicts{}
	mustSetText(t, v, "EIO", TextNotEqual)
	stub := &stubDiffer{verdicts: v}
	c := &Classifier{Differ: stub, Thresholds: "math_diff.config"}

	result, err := c.Classify(context.Background(), "caseA", base, "/mod/caseA")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if stub.got.Thresholds != "math_diff.config" || stub.got.CaseID != "caseA" {
		t.Fatalf("request not passed through: %+v", stub.got)
	}
	want := []string{"eplusout.csv.absdiff.csv", "eplusout.eio.diff"}
	if diff := cmp.Diff(want, result.Artifacts); diff != "" {
		t.Fatalf("artifacts mismatch (-want +got):\n%s", diff)
	}
	if !result.HasDiffs() {
		t.Fatalf("expected diffs")
	}
}

func TestClassifierNoDiffsHasNoArtifacts(t *testing.T) {
	v := &Verdicts{Table: &TableCounts{String: 1}, Baseline: &RunStatus{Status: "Success", RuntimeSeconds: 4}}
	c := &Classifier{Differ: &stubDiffer{verdicts: v}}

	result, err := c.Classify(context.Background(), "caseB", t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.HasDiffs() || result.Artifacts != nil {
		t.Fatalf("expected clean result, got %+v", result)
	}
	if result.Baseline == nil || !result.Baseline.Success || result.Baseline.Seconds != 4 || result.Modified != nil {
		t.Fatalf("unexpected run times: %+v %+v", result.Baseline, result.Modified)
	}
}

func TestClassifierPropagatesDifferError(t *testing.T) {
	boom := errors.New("boom")
	c := &Classifier{Differ: &stubDiffer{err: boom}}
	if _, err := c.Classify(context.Background(), "caseC", "", ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped differ error, got %v", err)
	}
}

func mustSetText(t *testing.T, v *Verdicts, name string, o TextOutcome) {
	t.Helper()
	if err := v.SetText(name, o); err != nil {
		t.Fatalf("set text %s: %v", name, err)
	}
}

func mustSetNumeric(t *testing.T, v *Verdicts, name string, o NumericOutcome) {
	t.Helper()
	if err := v.SetNumeric(name, o); err != nil {
		t.Fatalf("set numeric %s: %v", name, err)
	}
}
