// Package bundle writes the on-disk regression report: per-case artifact
// copies with HTML views, the root index, the markdown summary and the
// interactive plotter page.
package bundle

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"
)

// Bundle file names.
const (
	IndexFile   = "index.html"
	SummaryFile = "summary.md"
	PlotterFile = "regression_plotter.html"
	htmlSuffix  = ".html"
)

//go:embed templates
var templateFS embed.FS

// Options configure a Bundler.
type Options struct {
	Root string
	// Title heads the root index and the plotter page.
	Title string
	// Zone is shown next to UTC in the header information. Nil means local time.
	Zone   *time.Location
	Now    func() time.Time
	Logger *zap.Logger
}

// Bundler materializes the report bundle under a root directory.
type Bundler struct {
	root    string
	title   string
	zone    *time.Location
	now     func() time.Time
	logger  *zap.Logger
	pages   *template.Template
	summary *texttemplate.Template
}

// New parses the embedded page templates and fills option defaults.
func New(opts Options) (*Bundler, error) {
	if strings.TrimSpace(opts.Root) == "" {
		return nil, errors.New("bundle root is required")
	}
	if opts.Title == "" {
		opts.Title = "EnergyPlus Regressions"
	}
	if opts.Zone == nil {
		opts.Zone = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	funcs := template.FuncMap{
		"join":    strings.Join,
		"plural":  plural,
		"seconds": seconds,
	}
	pages, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	summary, err := texttemplate.ParseFS(templateFS, "templates/summary.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}

	return &Bundler{
		root:    opts.Root,
		title:   opts.Title,
		zone:    opts.Zone,
		now:     opts.Now,
		logger:  opts.Logger,
		pages:   pages,
		summary: summary,
	}, nil
}

func (b *Bundler) render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

func seconds(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
