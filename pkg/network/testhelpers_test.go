package network

import (
	"testing"
)

// buildNetwork loads units and streams and links the junctions, failing the
// test on any error.
func buildNetwork(t *testing.T, units []UnitRow, streams []StreamRow, junctions []JunctionRow) *Store {
	t.Helper()

	store := NewStore()
	loader := NewLoader(store)
	if err := loader.LoadUnits(units); err != nil {
		t.Fatalf("LoadUnits failed: %v", err)
	}
	if err := loader.LoadStreams(streams); err != nil {
		t.Fatalf("LoadStreams failed: %v", err)
	}
	if _, err := NewLinker(store).Link(junctions); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	return store
}

func streamRows(names ...string) []StreamRow {
	rows := make([]StreamRow, len(names))
	for i, n := range names {
		rows[i] = StreamRow{Name: n}
	}
	return rows
}

func produce(stream, unit string) JunctionRow {
	return JunctionRow{StreamName: stream, UnitName: unit, FeedFlag: 0}
}

func consume(stream, unit string) JunctionRow {
	return JunctionRow{StreamName: stream, UnitName: unit, FeedFlag: 1}
}

func unitNames(units []*Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
	}
	return names
}

func streamNames(streams []*Stream) []string {
	names := make([]string, len(streams))
	for i, s := range streams {
		names[i] = s.Name
	}
	return names
}
