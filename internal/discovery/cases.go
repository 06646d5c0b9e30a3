// Package discovery enumerates the test cases of a regression run.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bgricker/regdiff/internal/filter"
)

// ErrNoBaseline indicates that the baseline root is missing or not a directory.
var ErrNoBaseline = errors.New("baseline directory not found")

// DefaultIgnore lists build-artifact directories that never hold a case.
var DefaultIgnore = []string{"CMakeFiles"}

// Case is one baseline/modified directory pair.
type Case struct {
	ID          string
	BaselineDir string
	ModifiedDir string
}

// Options control case enumeration.
type Options struct {
	Ignore    []string
	Selection filter.Selection
}

// Result lists the cases to inspect along with the baseline entries that were
// passed over.
type Result struct {
	Cases []Case
	// Unpaired holds case ids with no same-named modified directory.
	Unpaired []string
	// Deselected holds case ids excluded by the case selection.
	Deselected []string
}

// Cases returns the immediate subdirectories of baselineRoot in lexicographic
// order, paired with the same-named directories under modifiedRoot.
func Cases(baselineRoot, modifiedRoot string, opts Options) (Result, error) {
	info, err := os.Stat(baselineRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrNoBaseline, baselineRoot)
		}
		return Result{}, fmt.Errorf("stat %q: %w", baselineRoot, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s is not a directory", ErrNoBaseline, baselineRoot)
	}

	ignore := make(map[string]struct{}, len(opts.Ignore))
	for _, name := range opts.Ignore {
		if name = strings.TrimSpace(name); name != "" {
			ignore[name] = struct{}{}
		}
	}

	// os.ReadDir returns entries sorted by filename.
	entries, err := os.ReadDir(baselineRoot)
	if err != nil {
		return Result{}, fmt.Errorf("read %q: %w", baselineRoot, err)
	}

	var res Result
	for _, entry := range entries {
		name := entry.Name()
		if _, skip := ignore[name]; skip {
			continue
		}
		baseDir := filepath.Join(baselineRoot, name)
		if !isDir(baseDir, entry) {
			continue
		}
		if !opts.Selection.Selects(name) {
			res.Deselected = append(res.Deselected, name)
			continue
		}
		modDir := filepath.Join(modifiedRoot, name)
		if modInfo, err := os.Stat(modDir); err != nil || !modInfo.IsDir() {
			res.Unpaired = append(res.Unpaired, name)
			continue
		}
		res.Cases = append(res.Cases, Case{ID: name, BaselineDir: baseDir, ModifiedDir: modDir})
	}
	return res, nil
}

func isDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
