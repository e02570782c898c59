package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-flownet/pkg/network"
)

// SnapshotSource serves rows from a YAML snapshot document.
type SnapshotSource struct {
	snap Snapshot
}

// OpenSnapshot reads and parses the snapshot file at path. The file is
// closed before OpenSnapshot returns.
func OpenSnapshot(path string) (*SnapshotSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	src, err := ParseSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return src, nil
}

// document mirrors Snapshot with pointer codes so absent keys are detectable
type document struct {
	Units      []unitEntry         `yaml:"units"`
	Streams    []network.StreamRow `yaml:"streams"`
	Junctions  []junctionEntry     `yaml:"junctions"`
	Capacities []capacityEntry     `yaml:"capacities"`
}

type unitEntry struct {
	Name string `yaml:"name"`
	Type *int   `yaml:"type"`
}

type junctionEntry struct {
	Unit     string `yaml:"unit"`
	Stream   string `yaml:"stream"`
	FeedFlag *int   `yaml:"feed_flag"`
}

type capacityEntry struct {
	Unit  string `yaml:"unit"`
	Value *int64 `yaml:"value"`
}

// ParseSnapshot decodes a YAML snapshot document. Unknown keys are rejected,
// as are unit, junction and capacity rows that omit their type, feed_flag or
// value.
func ParseSnapshot(r io.Reader) (*SnapshotSource, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap, err := doc.rows()
	if err != nil {
		return nil, err
	}
	return &SnapshotSource{snap: snap}, nil
}

func (d *document) rows() (Snapshot, error) {
	const op = "ParseSnapshot"
	snap := Snapshot{Streams: d.Streams}

	for i, u := range d.Units {
		if u.Type == nil {
			return Snapshot{}, network.NewError(op).Unit(u.Name).Row(i + 1).
				Cause(fmt.Errorf("missing type: %w", network.ErrUnknownUnitKind)).Err()
		}
		snap.Units = append(snap.Units, network.UnitRow{Name: u.Name, Type: *u.Type})
	}
	for i, j := range d.Junctions {
		if j.FeedFlag == nil {
			return Snapshot{}, network.NewError(op).Junction().Row(i + 1).
				Cause(fmt.Errorf("%s/%s missing feed_flag: %w", j.Stream, j.Unit, network.ErrInvalidDirection)).Err()
		}
		snap.Junctions = append(snap.Junctions, network.JunctionRow{UnitName: j.Unit, StreamName: j.Stream, FeedFlag: *j.FeedFlag})
	}
	for i, c := range d.Capacities {
		if c.Value == nil {
			return Snapshot{}, network.NewError(op).Capacity(c.Unit).Row(i + 1).
				Cause(fmt.Errorf("missing value: %w", network.ErrInvalidCapacity)).Err()
		}
		snap.Capacities = append(snap.Capacities, network.CapacityRow{UnitName: c.Unit, Value: *c.Value})
	}
	return snap, nil
}

// NewSnapshotSource serves rows from an in-memory snapshot
func NewSnapshotSource(snap Snapshot) *SnapshotSource {
	return &SnapshotSource{snap: snap}
}

func (s *SnapshotSource) Units(context.Context) ([]network.UnitRow, error) {
	return append([]network.UnitRow(nil), s.snap.Units...), nil
}

func (s *SnapshotSource) Streams(context.Context) ([]network.StreamRow, error) {
	return append([]network.StreamRow(nil), s.snap.Streams...), nil
}

func (s *SnapshotSource) Junctions(context.Context) ([]network.JunctionRow, error) {
	return append([]network.JunctionRow(nil), s.snap.Junctions...), nil
}

func (s *SnapshotSource) Capacities(context.Context) ([]network.CapacityRow, error) {
	return append([]network.CapacityRow(nil), s.snap.Capacities...), nil
}

func (s *SnapshotSource) Close() error { return nil }

// Dump reads every batch from src and writes it to w as a YAML snapshot that
// OpenSnapshot can read back.
func Dump(ctx context.Context, src Source, w io.Writer) error {
	snap, err := Fetch(ctx, src)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}
