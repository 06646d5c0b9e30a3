package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bgricker/regdiff/internal/diffs"
)

// PrettyRenderer renders run results as terminal tables.
type PrettyRenderer struct {
	out      io.Writer
	markdown bool
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// NewMarkdown creates a PrettyRenderer that emits GitHub-flavoured tables.
func NewMarkdown(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out, markdown: true}
}

// Render prints the cases with diffs, diffs by case, diffs by type, failed
// cases and a closing summary line.
func (p *PrettyRenderer) Render(r Report) error {
	snap := r.Summary
	var b strings.Builder

	if len(snap.DiffCases) > 0 {
		b.WriteString("* Files with Diffs *\n")
		for _, id := range snap.DiffCases {
			fmt.Fprintf(&b, "  %s\n", id)
		}
		b.WriteString("\n* Diffs by File *\n")
		byCase := p.newTable()
		byCase.AppendHeader(table.Row{"Case", "Diff Types"})
		for _, id := range snap.DiffCases {
			byCase.AppendRow(table.Row{id, strings.Join(snap.TypesByCase[id], ", ")})
		}
		b.WriteString(p.render(byCase))
		b.WriteString("\n\n* Diffs by Type *\n")
		byType := p.newTable()
		byType.AppendHeader(table.Row{"Diff Type", "Count", "Cases"})
		for _, t := range diffs.SortLabels(snap.DiffTypes()) {
			cases := snap.CasesByType[t]
			byType.AppendRow(table.Row{t, len(cases), strings.Join(cases, ", ")})
		}
		b.WriteString(p.render(byType))
		b.WriteString("\n\n")
	}

	if len(snap.FailedCases) > 0 {
		b.WriteString("* Failed During Regression Processing *\n")
		for _, id := range snap.FailedCases {
			fmt.Fprintf(&b, "  %s\n", id)
		}
		b.WriteString("\n")
	}

	if len(r.Unpaired) > 0 {
		fmt.Fprintf(&b, "skipped %s without a modified counterpart\n", casesLabel(len(r.Unpaired)))
	}
	if r.PlotTruncated {
		fmt.Fprintf(&b, "plot data truncated after %s\n", casesLabel(r.PlotCases))
	}
	if r.BundleWritten {
		fmt.Fprintf(&b, "report bundle: %s\n", r.Bundle)
	}

	fmt.Fprintf(&b, "%s %s: %d no diffs, %d with diffs, %d failed (%s)\n",
		verdictGlyph(r.Verdict),
		casesLabel(snap.CaseCount),
		len(snap.NoDiffCases),
		len(snap.DiffCases),
		len(snap.FailedCases),
		formatDuration(r.Duration),
	)
	_, err := io.WriteString(p.out, b.String())
	return err
}

// RenderDuplicates prints the result of a table uniqueness check.
func (p *PrettyRenderer) RenderDuplicates(r DuplicateReport) error {
	if r.Skipped {
		_, err := fmt.Fprintf(p.out, "Skipping missing HTML file: %s\n", r.Path)
		return err
	}
	if len(r.Duplicates) == 0 {
		_, err := fmt.Fprintln(p.out, "No duplicates found.")
		return err
	}
	t := p.newTable()
	t.AppendHeader(table.Row{"Report", "For", "Subtitle", "Count"})
	for _, d := range r.Duplicates {
		t.AppendRow(table.Row{d.Report, d.For, d.Subtitle, d.Count})
	}
	_, err := fmt.Fprintf(p.out, "Found %d duplicate HTML %s based on FullName\n\n%s\n",
		len(r.Duplicates), pluralize(len(r.Duplicates), "table"), p.render(t))
	return err
}

func (p *PrettyRenderer) newTable() table.Writer {
	t := table.NewWriter()
	if !p.markdown {
		t.SetStyle(table.StyleLight)
	}
	return t
}

func (p *PrettyRenderer) render(t table.Writer) string {
	if p.markdown {
		return t.RenderMarkdown()
	}
	return t.Render()
}

func verdictGlyph(verdict string) string {
	if verdict == VerdictRegressions {
		return "REGRESSIONS:"
	}
	return "CLEAN:"
}

func casesLabel(n int) string {
	return fmt.Sprintf("%d %s", n, pluralize(n, "case"))
}

func pluralize(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
