package bundle

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/bgricker/regdiff/internal/diffs"
	"github.com/bgricker/regdiff/internal/report"
	"github.com/bgricker/regdiff/internal/timeseries"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

type item struct {
	Text string
	Link string
}

type panel struct {
	ID    string
	Title string
	Items []item
}

type indexPage struct {
	Title         string
	Header        panel
	NoDiffs       panel
	Diffs         panel
	Failed        panel
	Types         []panel
	RunTimes      []report.RunTimeRow
	BaselineTotal float64
	ModifiedTotal float64
}

type summaryType struct {
	Name  string
	Count int
}

type summaryPage struct {
	Types  []summaryType
	Failed []string
}

type plotterPage struct {
	Title     string
	Truncated bool
	Limit     string
	Metadata  timeseries.Metadata
	Results   map[string]*timeseries.CaseSeries
}

// WriteReport writes the root index, the markdown summary and both plotter
// copies.
func (b *Bundler) WriteReport(snap report.Snapshot, dataset *timeseries.Dataset) error {
	if err := b.WriteIndex(snap); err != nil {
		return err
	}
	if err := b.WriteSummary(snap); err != nil {
		return err
	}
	_, err := b.WritePlotter(dataset)
	return err
}

// WriteIndex writes the root index page.
func (b *Bundler) WriteIndex(snap report.Snapshot) error {
	now := b.now()
	page := indexPage{
		Title: b.title,
		Header: panel{ID: "header", Title: "Header Information", Items: []item{
			{Text: "Regression time stamp in UTC: " + now.UTC().Format(timestampLayout)},
			{Text: fmt.Sprintf("Regression time stamp in %s: %s", b.zone, now.In(b.zone).Format(timestampLayout))},
			{Text: fmt.Sprintf("Number of cases inspected: %d", snap.CaseCount)},
		}},
		NoDiffs: panel{ID: "no_diffs", Title: plural(len(snap.NoDiffCases), "Case") + " with No Diffs", Items: plainItems(snap.NoDiffCases)},
		Diffs:   panel{ID: "diffs", Title: plural(len(snap.DiffCases), "Case") + " with Diffs", Items: caseLinks(snap.DiffCases)},
		Failed:  panel{ID: "failed", Title: plural(len(snap.FailedCases), "Case") + " Failed During Regression Processing", Items: plainItems(snap.FailedCases)},
	}
	for _, t := range diffs.SortLabels(snap.DiffTypes()) {
		cases := snap.CasesByType[t]
		page.Types = append(page.Types, panel{
			ID:    diffs.Slug(t),
			Title: fmt.Sprintf("%s: %s", t, plural(len(cases), "Case")),
			Items: caseLinks(cases),
		})
	}
	page.RunTimes, page.BaselineTotal, page.ModifiedTotal = snap.RunTimeTable()

	data, err := b.render("index.html.tmpl", page)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(b.root, IndexFile), data)
}

// WriteSummary writes the markdown diff-count summary.
func (b *Bundler) WriteSummary(snap report.Snapshot) error {
	page := summaryPage{Failed: snap.FailedCases}
	for _, t := range diffs.SortLabels(snap.DiffTypes()) {
		page.Types = append(page.Types, summaryType{Name: t, Count: len(snap.CasesByType[t])})
	}
	var buf bytes.Buffer
	if err := b.summary.Execute(&buf, page); err != nil {
		return fmt.Errorf("render %s: %w", SummaryFile, err)
	}
	return writeFile(filepath.Join(b.root, SummaryFile), buf.Bytes())
}

// WritePlotter writes the plotter page into the bundle root and its parent
// and returns the paths written.
func (b *Bundler) WritePlotter(dataset *timeseries.Dataset) ([]string, error) {
	if dataset == nil {
		dataset = timeseries.NewDataset(timeseries.Metadata{}, 0)
	}
	page := plotterPage{
		Title:     b.title + " Quick Plotter",
		Truncated: dataset.Truncated(),
		Limit:     humanize.IBytes(uint64(dataset.Limit())),
		Metadata:  dataset.Metadata(),
		Results:   dataset.Series(),
	}
	data, err := b.render("plotter.html.tmpl", page)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(b.root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", b.root, err)
	}
	paths := []string{filepath.Join(root, PlotterFile)}
	if parent := filepath.Dir(root); parent != root {
		paths = append(paths, filepath.Join(parent, PlotterFile))
	}
	for _, p := range paths {
		if err := writeFile(p, data); err != nil {
			return nil, err
		}
	}
	b.logger.Debug("wrote plotter",
		zap.Strings("paths", paths),
		zap.Int("cases", len(page.Results)),
		zap.String("size", humanize.IBytes(uint64(dataset.Size()))),
		zap.Bool("truncated", page.Truncated),
	)
	return paths, nil
}

func plainItems(ids []string) []item {
	items := make([]item, len(ids))
	for i, id := range ids {
		items[i] = item{Text: id}
	}
	return items
}

func caseLinks(ids []string) []item {
	items := make([]item, len(ids))
	for i, id := range ids {
		items[i] = item{Text: id, Link: id + "/" + IndexFile}
	}
	return items
}
