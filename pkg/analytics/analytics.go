// Package analytics answers structural questions over a linked process
// network. Every query is read-only and deterministic.
package analytics

import (
	"sort"

	"github.com/dd0wney/cluso-flownet/pkg/network"
)

// Engine runs read-only queries over a linked store
type Engine struct {
	store *network.Store
}

// New creates an engine for store. The store must already be linked.
func New(store *network.Store) (*Engine, error) {
	if store == nil || !store.Linked() {
		return nil, network.NewError("analyze").Entity("network").Cause(network.ErrNotLinked).Err()
	}
	return &Engine{store: store}, nil
}

// UnitInputs lists every (unit, input stream) pair ordered by unit name,
// then stream name.
func (e *Engine) UnitInputs() []InputPair {
	units := e.store.Units()
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	pairs := make([]InputPair, 0)
	for _, u := range units {
		names := u.InputNames()
		sort.Strings(names)
		for _, name := range names {
			pairs = append(pairs, InputPair{Unit: u.Name, Stream: name})
		}
	}
	return pairs
}

// Orphans returns streams with neither producers nor consumers, in load order
func (e *Engine) Orphans() []OrphanStream {
	orphans := make([]OrphanStream, 0)
	for _, s := range e.store.Streams() {
		if s.Orphaned() {
			orphans = append(orphans, OrphanStream{ID: s.ID, Name: s.Name})
		}
	}
	return orphans
}

// FanOut maps each stream consumed by more than one unit to its consumers
func (e *Engine) FanOut() map[string][]string {
	fanOut := make(map[string][]string)
	for _, s := range e.store.Streams() {
		if consumers := s.Consumers(); len(consumers) > 1 {
			fanOut[s.Name] = consumers
		}
	}
	return fanOut
}

// UnitSheets returns each unit's input and output stream columns, in unit
// load order. Columns follow link order.
func (e *Engine) UnitSheets() []UnitSheet {
	units := e.store.Units()
	sheets := make([]UnitSheet, 0, len(units))
	for _, u := range units {
		sheets = append(sheets, UnitSheet{
			Unit:    u.Name,
			Inputs:  u.InputNames(),
			Outputs: u.OutputNames(),
		})
	}
	return sheets
}

// Report runs every query and bundles the results for export
func (e *Engine) Report() *Report {
	return &Report{
		UnitCount:   e.store.UnitCount(),
		StreamCount: e.store.StreamCount(),
		Inputs:      e.UnitInputs(),
		Orphans:     e.Orphans(),
		FanOut:      e.FanOut(),
		Sheets:      e.UnitSheets(),
	}
}
