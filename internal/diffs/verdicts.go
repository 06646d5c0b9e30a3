package diffs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// TextOutcome is the verdict for a textual output category.
type TextOutcome int

const (
	TextEqual TextOutcome = iota
	TextNotEqual
)

func (o TextOutcome) String() string {
	if o == TextNotEqual {
		return "not_equal"
	}
	return "equal"
}

// UnmarshalJSON accepts "equal" and "not_equal".
func (o *TextOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("text verdict: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal":
		*o = TextEqual
	case "not_equal", "notequal", "not equal":
		*o = TextNotEqual
	default:
		return fmt.Errorf("unknown text verdict %q", s)
	}
	return nil
}

// NumericOutcome is the verdict for a numeric output category.
type NumericOutcome int

const (
	NumericNone NumericOutcome = iota
	NumericSmall
	NumericBig
)

func (o NumericOutcome) String() string {
	switch o {
	case NumericSmall:
		return "small"
	case NumericBig:
		return "big"
	default:
		return "none"
	}
}

// UnmarshalJSON accepts "none", "small" and "big".
func (o *NumericOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("numeric verdict: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		*o = NumericNone
	case "small", "small diffs":
		*o = NumericSmall
	case "big", "big diffs":
		*o = NumericBig
	default:
		return fmt.Errorf("unknown numeric verdict %q", s)
	}
	return nil
}

// TableCounts holds the summary-table comparison counters.
type TableCounts struct {
	Big    int `json:"big"`
	Small  int `json:"small"`
	String int `json:"string"`
}

// RunStatus describes how one simulation run ended.
type RunStatus struct {
	Status         string  `json:"status"`
	RuntimeSeconds float64 `json:"runtime_seconds"`
}

// Succeeded reports whether the simulation finished successfully.
func (r RunStatus) Succeeded() bool {
	return strings.EqualFold(r.Status, "success")
}

// Verdicts is the per-category result of diffing one case. A nil field means
// the category's output was absent on at least one side.
type Verdicts struct {
	Audit         *TextOutcome
	BND           *TextOutcome
	DELightIn     *TextOutcome
	DELightOut    *TextOutcome
	DXF           *TextOutcome
	EIO           *TextOutcome
	ERR           *TextOutcome
	ReadvarsAudit *TextOutcome
	EDD           *TextOutcome
	WRL           *TextOutcome
	SLN           *TextOutcome
	SCI           *TextOutcome
	MAP           *TextOutcome
	DFS           *TextOutcome
	SCREEN        *TextOutcome
	GLHE          *TextOutcome
	MDD           *TextOutcome
	MTD           *TextOutcome
	RDD           *TextOutcome
	SHD           *TextOutcome
	PerfLog       *TextOutcome
	IDF           *TextOutcome
	StdOut        *TextOutcome
	StdErr        *TextOutcome

	ESO  *NumericOutcome
	MTR  *NumericOutcome
	SSZ  *NumericOutcome
	ZSZ  *NumericOutcome
	JSON *NumericOutcome

	Table *TableCounts

	Baseline *RunStatus
	Modified *RunStatus

	// Artifacts names the raw diff files the tool wrote into the baseline
	// case directory. Nil means the tool did not report them.
	Artifacts []string
}

type textCategory struct {
	name  string
	field func(*Verdicts) **TextOutcome
}

type numericCategory struct {
	name  string
	field func(*Verdicts) **NumericOutcome
}

var textCategories = []textCategory{
	{"Audit", func(v *Verdicts) **TextOutcome { return &v.Audit }},
	{"BND", func(v *Verdicts) **TextOutcome { return &v.BND }},
	{"DELightIn", func(v *Verdicts) **TextOutcome { return &v.DELightIn }},
	{"DELightOut", func(v *Verdicts) **TextOutcome { return &v.DELightOut }},
	{"DXF", func(v *Verdicts) **TextOutcome { return &v.DXF }},
	{"EIO", func(v *Verdicts) **TextOutcome { return &v.EIO }},
	{"ERR", func(v *Verdicts) **TextOutcome { return &v.ERR }},
	{"Readvars_Audit", func(v *Verdicts) **TextOutcome { return &v.ReadvarsAudit }},
	{"EDD", func(v *Verdicts) **TextOutcome { return &v.EDD }},
	{"WRL", func(v *Verdicts) **TextOutcome { return &v.WRL }},
	{"SLN", func(v *Verdicts) **TextOutcome { return &v.SLN }},
	{"SCI", func(v *Verdicts) **TextOutcome { return &v.SCI }},
	{"MAP", func(v *Verdicts) **TextOutcome { return &v.MAP }},
	{"DFS", func(v *Verdicts) **TextOutcome { return &v.DFS }},
	{"SCREEN", func(v *Verdicts) **TextOutcome { return &v.SCREEN }},
	{"GLHE", func(v *Verdicts) **TextOutcome { return &v.GLHE }},
	{"MDD", func(v *Verdicts) **TextOutcome { return &v.MDD }},
	{"MTD", func(v *Verdicts) **TextOutcome { return &v.MTD }},
	{"RDD", func(v *Verdicts) **TextOutcome { return &v.RDD }},
	{"SHD", func(v *Verdicts) **TextOutcome { return &v.SHD }},
	{"PERF_LOG", func(v *Verdicts) **TextOutcome { return &v.PerfLog }},
	{"IDF", func(v *Verdicts) **TextOutcome { return &v.IDF }},
	{"StdOut", func(v *Verdicts) **TextOutcome { return &v.StdOut }},
	{"StdErr", func(v *Verdicts) **TextOutcome { return &v.StdErr }},
}

var numericCategories = []numericCategory{
	{"ESO", func(v *Verdicts) **NumericOutcome { return &v.ESO }},
	{"MTR", func(v *Verdicts) **NumericOutcome { return &v.MTR }},
	{"SSZ", func(v *Verdicts) **NumericOutcome { return &v.SSZ }},
	{"ZSZ", func(v *Verdicts) **NumericOutcome { return &v.ZSZ }},
	{"JSON", func(v *Verdicts) **NumericOutcome { return &v.JSON }},
}

// TextCategories returns the names of the textual categories in report order.
func TextCategories() []string {
	out := make([]string, len(textCategories))
	for i, c := range textCategories {
		out[i] = c.name
	}
	return out
}

// NumericCategories returns the names of the numeric categories in report order.
func NumericCategories() []string {
	out := make([]string, len(numericCategories))
	for i, c := range numericCategories {
		out[i] = c.name
	}
	return out
}

// SetText records a textual verdict by category name.
func (v *Verdicts) SetText(name string, outcome TextOutcome) error {
	for _, c := range textCategories {
		if c.name == name {
			o := outcome
			*c.field(v) = &o
			return nil
		}
	}
	return fmt.Errorf("unknown text category %q", name)
}

// SetNumeric records a numeric verdict by category name.
func (v *Verdicts) SetNumeric(name string, outcome NumericOutcome) error {
	for _, c := range numericCategories {
		if c.name == name {
			o := outcome
			*c.field(v) = &o
			return nil
		}
	}
	return fmt.Errorf("unknown numeric category %q", name)
}

type wireVerdicts struct {
	Text    map[string]TextOutcome    `json:"text"`
	Numeric map[string]NumericOutcome `json:"numeric"`
	Table   *TableCounts              `json:"table"`
	Summary struct {
		Baseline *RunStatus `json:"baseline"`
		Modified *RunStatus `json:"modified"`
	} `json:"summary"`
	Artifacts *[]string `json:"artifacts"`
}

// Decode reads one verdict document as printed by the diff tool.
func Decode(r io.Reader) (*Verdicts, error) {
	var wire wireVerdicts
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode verdicts: %w", err)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, errors.New("decode verdicts: unexpected data after the verdict document")
	}

	v := &Verdicts{
		Table:    wire.Table,
		Baseline: wire.Summary.Baseline,
		Modified: wire.Summary.Modified,
	}
	for name, outcome := range wire.Text {
		if err := v.SetText(name, outcome); err != nil {
			return nil, fmt.Errorf("decode verdicts: %w", err)
		}
	}
	for name, outcome := range wire.Numeric {
		if err := v.SetNumeric(name, outcome); err != nil {
			return nil, fmt.Errorf("decode verdicts: %w", err)
		}
	}
	if wire.Artifacts != nil {
		v.Artifacts = append([]string{}, (*wire.Artifacts)...)
	}
	return v, nil
}
