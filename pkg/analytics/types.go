package analytics

import (
	"sort"
)

// InputPair is one row of the unit input listing
type InputPair struct {
	Unit   string `json:"unit"`
	Stream string `json:"stream"`
}

// OrphanStream identifies a disconnected stream
type OrphanStream struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnitSheet is the two-column export view of one unit.
type UnitSheet struct {
	Unit    string
	Inputs  []string
	Outputs []string
}

// Rows returns the sheet as a ragged table: row i holds the i-th input and
// the i-th output, with "" where one column is shorter.
func (s UnitSheet) Rows() [][2]string {
	n := len(s.Inputs)
	if len(s.Outputs) > n {
		n = len(s.Outputs)
	}
	rows := make([][2]string, n)
	for i := range rows {
		if i < len(s.Inputs) {
			rows[i][0] = s.Inputs[i]
		}
		if i < len(s.Outputs) {
			rows[i][1] = s.Outputs[i]
		}
	}
	return rows
}

// Report bundles every query result for a linked network. Sinks must treat
// it as read-only.
type Report struct {
	UnitCount   int
	StreamCount int

	Inputs  []InputPair
	Orphans []OrphanStream
	FanOut  map[string][]string
	Sheets  []UnitSheet
}

// FanOutStreams returns the fan-out stream names in ascending order
func (r *Report) FanOutStreams() []string {
	names := make([]string, 0, len(r.FanOut))
	for name := range r.FanOut {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
