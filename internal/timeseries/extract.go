package timeseries

import (
	"fmt"
	"path/filepath"
	"strings"
)

// File names inside a case directory.
const (
	SeriesFile  = "eplusout.csv"
	AbsDiffFile = "eplusout.csv.absdiff.csv"
)

// datePrefixLen covers "MM/DD " of a trimmed timestamp.
const datePrefixLen = 6

// Segment is one contiguous block of the time axis, normally one design day.
type Segment struct {
	Title    string   `json:"title"`
	Baseline []string `json:"baseline"`
	Modified []string `json:"modified"`
}

// Variable holds one output variable's values, one slice per segment.
type Variable struct {
	Name     string   `json:"-"`
	Baseline []Values `json:"baseline"`
	Modified []Values `json:"modified"`
}

// Extraction is the plot data of one case, in diff-column order.
type Extraction struct {
	CaseID    string
	Segments  []Segment
	Variables []Variable
}

// ExtractFiles reads a case's baseline and modified series together with the
// absolute-difference CSV naming the variables that differ.
func ExtractFiles(caseID, baselineCSV, modifiedCSV, absDiffCSV string) (*Extraction, error) {
	diffColumns, err := DiffColumns(absDiffCSV)
	if err != nil {
		return nil, err
	}
	base, err := ReadColumns(baselineCSV)
	if err != nil {
		return nil, err
	}
	mod, err := ReadColumns(modifiedCSV)
	if err != nil {
		return nil, err
	}
	return Extract(caseID, base, mod, diffColumns)
}

// ExtractCase is ExtractFiles over the conventional file names of a case pair.
func ExtractCase(caseID, baselineDir, modifiedDir string) (*Extraction, error) {
	return ExtractFiles(
		caseID,
		filepath.Join(baselineDir, SeriesFile),
		filepath.Join(modifiedDir, SeriesFile),
		filepath.Join(baselineDir, AbsDiffFile),
	)
}

// Extract restricts base and mod to diffColumns and segments them. The
// timestamp strings are carried verbatim.
func Extract(caseID string, base, mod *Columns, diffColumns []string) (*Extraction, error) {
	baseTimes, err := base.Strings(TimestampColumn)
	if err != nil {
		return nil, fmt.Errorf("%s baseline: %w", caseID, err)
	}
	modTimes, err := mod.Strings(TimestampColumn)
	if err != nil {
		return nil, fmt.Errorf("%s modified: %w", caseID, err)
	}

	mid := 0
	if len(baseTimes) == len(modTimes) {
		mid = designDaySplit(baseTimes)
	}

	x := &Extraction{CaseID: caseID}
	if mid > 0 {
		x.Segments = []Segment{
			{Title: segmentTitle(baseTimes[:mid]), Baseline: baseTimes[:mid], Modified: modTimes[:mid]},
			{Title: segmentTitle(baseTimes[mid:]), Baseline: baseTimes[mid:], Modified: modTimes[mid:]},
		}
	} else {
		x.Segments = []Segment{{Title: segmentTitle(baseTimes), Baseline: baseTimes, Modified: modTimes}}
	}

	for _, name := range diffColumns {
		if name == TimestampColumn {
			continue
		}
		bv, err := base.Floats(name)
		if err != nil {
			return nil, fmt.Errorf("%s baseline: %w", caseID, err)
		}
		mv, err := mod.Floats(name)
		if err != nil {
			return nil, fmt.Errorf("%s modified: %w", caseID, err)
		}
		v := Variable{Name: name}
		if mid > 0 {
			v.Baseline = []Values{splitAt(bv, mid, false), splitAt(bv, mid, true)}
			v.Modified = []Values{splitAt(mv, mid, false), splitAt(mv, mid, true)}
		} else {
			v.Baseline = []Values{bv}
			v.Modified = []Values{mv}
		}
		x.Variables = append(x.Variables, v)
	}
	return x, nil
}

// designDaySplit returns the midpoint when timestamps form exactly two
// back-to-back days: an even row count whose halves each share one date
// prefix. Otherwise it returns 0.
func designDaySplit(timestamps []string) int {
	n := len(timestamps)
	if n == 0 || n%2 != 0 {
		return 0
	}
	mid := n / 2
	if !uniformPrefix(timestamps[:mid]) || !uniformPrefix(timestamps[mid:]) {
		return 0
	}
	return mid
}

func uniformPrefix(timestamps []string) bool {
	first := timestamps[0]
	if len(first) < datePrefixLen {
		return false
	}
	prefix := first[:datePrefixLen]
	for _, ts := range timestamps[1:] {
		if !strings.HasPrefix(ts, prefix) {
			return false
		}
	}
	return true
}

// splitAt tolerates columns shorter than the time axis.
func splitAt(v Values, mid int, second bool) Values {
	if mid > len(v) {
		mid = len(v)
	}
	if second {
		return v[mid:]
	}
	return v[:mid]
}
