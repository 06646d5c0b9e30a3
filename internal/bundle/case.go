package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	"go.uber.org/zap"
)

// Artifact describes one raw diff file copied into a case directory.
type Artifact struct {
	Name     string
	HTMLName string
	// Added and Removed count changed lines of unified-diff artifacts.
	HasStats bool
	Added    int
	Removed  int
}

type casePage struct {
	CaseID     string
	Categories []string
	Artifacts  []Artifact
}

type artifactPage struct {
	Name     string
	Contents string
}

// WriteCase replaces the case subdirectory with copies of the named
// artifacts from baselineDir, an HTML view of each, and a case index.
func (b *Bundler) WriteCase(caseID, baselineDir string, categories, artifacts []string) ([]Artifact, error) {
	if caseID == "" || filepath.Base(caseID) != caseID {
		return nil, fmt.Errorf("invalid case id %q", caseID)
	}
	dir := filepath.Join(b.root, caseID)
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	written := make([]Artifact, 0, len(artifacts))
	for _, name := range artifacts {
		if name == "" || filepath.Base(name) != name {
			return nil, fmt.Errorf("%s: invalid artifact name %q", caseID, name)
		}
		src := filepath.Join(baselineDir, name)
		info, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", caseID, err)
		}
		if !info.Mode().IsRegular() {
			b.logger.Debug("skipping non-regular artifact", zap.String("case", caseID), zap.String("artifact", name))
			continue
		}
		a, err := b.writeArtifact(dir, src, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", caseID, err)
		}
		written = append(written, a)
	}

	page, err := b.render("case.html.tmpl", casePage{CaseID: caseID, Categories: categories, Artifacts: written})
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dir, IndexFile), page); err != nil {
		return nil, err
	}
	return written, nil
}

func (b *Bundler) writeArtifact(dir, src, name string) (Artifact, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact: %w", err)
	}
	a := Artifact{Name: name, HTMLName: name + htmlSuffix}
	if err := writeFile(filepath.Join(dir, name), data); err != nil {
		return Artifact{}, err
	}

	if isHTML(name) {
		return a, writeFile(filepath.Join(dir, a.HTMLName), data)
	}

	if strings.HasSuffix(name, ".diff") {
		a.Added, a.Removed, a.HasStats = diffStats(data)
	}
	page, err := b.render("artifact.html.tmpl", artifactPage{Name: name, Contents: string(data)})
	if err != nil {
		return Artifact{}, err
	}
	return a, writeFile(filepath.Join(dir, a.HTMLName), page)
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".htm" || ext == ".html"
}

// diffStats counts changed lines when data parses as a unified diff. Other
// diff formats report no stats.
func diffStats(data []byte) (added, removed int, ok bool) {
	files, err := diff.ParseMultiFileDiff(data)
	if err != nil || len(files) == 0 {
		return 0, 0, false
	}
	hunks := 0
	for _, fd := range files {
		for _, hunk := range fd.Hunks {
			hunks++
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") {
					added++
				} else if strings.HasPrefix(line, "-") {
					removed++
				}
			}
		}
	}
	return added, removed, hunks > 0
}
