// Package tables checks that every table in an EnergyPlus HTML report has a
// unique FullName marker.
package tables

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReportFile is the tabular report written into each output directory.
const ReportFile = "eplustbl.htm"

var (
	// ErrNoTables indicates that the report contains no FullName markers at all.
	ErrNoTables = errors.New("no HTML tables found with FullName pattern")
	// ErrMissingReport indicates that the output directory has no report file.
	ErrMissingReport = errors.New("report file does not exist")
)

var fullName = regexp.MustCompile(`<!-- FullName:([^_]+)_([^_]+)_([^_]+)-->`)

// Key identifies one report table.
type Key struct {
	Report   string `json:"report"`
	For      string `json:"for"`
	Subtitle string `json:"subtitle"`
}

// Duplicate is a key seen more than once.
type Duplicate struct {
	Key
	Count int `json:"count"`
}

// Decode returns data as text, reading it as UTF-8 when valid and as
// Windows-1252 otherwise.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode cp1252: %w", err)
	}
	return string(out), nil
}

// Count tallies every FullName marker in content.
func Count(content string) (map[Key]int, error) {
	matches := fullName.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, ErrNoTables
	}
	counts := make(map[Key]int, len(matches))
	for _, m := range matches {
		counts[Key{Report: m[1], For: m[2], Subtitle: m[3]}]++
	}
	return counts, nil
}

// Duplicates returns the keys of counts that occur more than once, sorted.
func Duplicates(counts map[Key]int) []Duplicate {
	var dups []Duplicate
	for k, n := range counts {
		if n > 1 {
			dups = append(dups, Duplicate{Key: k, Count: n})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		a, b := dups[i].Key, dups[j].Key
		if a.Report != b.Report {
			return a.Report < b.Report
		}
		if a.For != b.For {
			return a.For < b.For
		}
		return a.Subtitle < b.Subtitle
	})
	return dups
}

// CheckFile reads one report and returns its duplicate tables.
func CheckFile(path string) ([]Duplicate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	counts, err := Count(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Duplicates(counts), nil
}

// ReportPath validates outDir and returns the report path inside it.
// ErrMissingReport is returned, wrapped, when the report is absent.
func ReportPath(outDir string) (string, error) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", outDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%q is not a valid directory", abs)
	}
	path := filepath.Join(abs, ReportFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, fmt.Errorf("%s: %w", path, ErrMissingReport)
		}
		return path, err
	}
	return path, nil
}
