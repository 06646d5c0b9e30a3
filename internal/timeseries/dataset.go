package timeseries

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"sync"
)

// DefaultLimitBytes is the default ceiling on the serialized series size.
const DefaultLimitBytes int64 = 75 * 1024 * 1024

// Values is a numeric column. NaN and infinities encode as JSON null.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// Metadata labels the two runs in the plotter.
type Metadata struct {
	Baseline  string `json:"baseline"`
	Branch    string `json:"branch"`
	BranchSHA string `json:"branchSha"`
}

// CaseSeries is the plot data kept for one case.
type CaseSeries struct {
	Segments  []Segment           `json:"segments"`
	Variables map[string]Variable `json:"variables"`
}

// Dataset accumulates plot data across cases under a serialized-size
// ceiling. Once the ceiling is hit it stays truncated for its lifetime.
type Dataset struct {
	mu        sync.Mutex
	meta      Metadata
	series    map[string]*CaseSeries
	limit     int64
	size      int64
	truncated bool
}

// NewDataset returns an empty dataset. A non-positive limit selects
// DefaultLimitBytes.
func NewDataset(meta Metadata, limit int64) *Dataset {
	if limit <= 0 {
		limit = DefaultLimitBytes
	}
	return &Dataset{
		meta:   meta,
		series: make(map[string]*CaseSeries),
		limit:  limit,
		size:   2, // {}
	}
}

// Add appends x variable by variable. It stops at the first variable that
// would push the estimate past the ceiling and marks the dataset truncated;
// a case none of whose variables fit is left out entirely. It returns the
// number of variables added.
func (d *Dataset) Add(x *Extraction) (int, error) {
	if x == nil || len(x.Variables) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.truncated {
		return 0, nil
	}
	if _, ok := d.series[x.CaseID]; ok {
		return 0, nil
	}

	caseCost, err := estimateCase(x)
	if err != nil {
		return 0, err
	}

	var cs *CaseSeries
	added := 0
	for _, v := range x.Variables {
		cost, err := estimateVariable(v)
		if err != nil {
			return added, err
		}
		if cs == nil {
			cost += caseCost
		}
		if d.size+cost > d.limit {
			d.truncated = true
			break
		}
		if cs == nil {
			cs = &CaseSeries{Segments: x.Segments, Variables: make(map[string]Variable, len(x.Variables))}
			d.series[x.CaseID] = cs
		}
		cs.Variables[v.Name] = v
		d.size += cost
		added++
	}
	return added, nil
}

// Truncated reports whether the ceiling has been hit.
func (d *Dataset) Truncated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.truncated
}

// Size returns the running serialized-size estimate in bytes.
func (d *Dataset) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Limit returns the configured ceiling in bytes.
func (d *Dataset) Limit() int64 {
	return d.limit
}

// Metadata returns the run labels.
func (d *Dataset) Metadata() Metadata {
	return d.meta
}

// Cases returns the ids of the cases holding plot data, sorted.
func (d *Dataset) Cases() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.series))
	for id := range d.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Series returns a shallow copy of the accumulated series keyed by case id.
func (d *Dataset) Series() map[string]*CaseSeries {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]*CaseSeries, len(d.series))
	for id, cs := range d.series {
		out[id] = cs
	}
	return out
}

// Each entry is "<id>":{"segments":[...],"variables":{...}} plus a separator.
func estimateCase(x *Extraction) (int64, error) {
	id, err := json.Marshal(x.CaseID)
	if err != nil {
		return 0, err
	}
	segments, err := json.Marshal(x.Segments)
	if err != nil {
		return 0, err
	}
	return int64(len(id)+len(segments)) + int64(len(`:{"segments":,"variables":{}},`)), nil
}

func estimateVariable(v Variable) (int64, error) {
	name, err := json.Marshal(v.Name)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return int64(len(name)+len(body)) + 2, nil
}
