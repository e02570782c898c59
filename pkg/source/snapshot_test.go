package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-flownet/pkg/config"
	"github.com/dd0wney/cluso-flownet/pkg/network"
)

const plantYAML = `
units:
  - {name: U1, type: 0}
  - {name: U2, type: 1}
streams:
  - {name: S1}
  - {id: 7, name: S2}
  - {name: S3}
junctions:
  - {unit: U1, stream: S1, feed_flag: 0}
  - {unit: U2, stream: S1, feed_flag: 1}
  - {unit: U1, stream: S2, feed_flag: 1}
capacities:
  - {unit: U1, value: 120}
`

func TestParseSnapshot(t *testing.T) {
	src, err := ParseSnapshot(strings.NewReader(plantYAML))
	require.NoError(t, err)

	ctx := context.Background()
	snap, err := Fetch(ctx, src)
	require.NoError(t, err)

	assert.Equal(t, []network.UnitRow{{Name: "U1", Type: 0}, {Name: "U2", Type: 1}}, snap.Units)
	assert.Equal(t, []network.StreamRow{{Name: "S1"}, {ID: 7, Name: "S2"}, {Name: "S3"}}, snap.Streams)
	assert.Equal(t, network.JunctionRow{UnitName: "U2", StreamName: "S1", FeedFlag: 1}, snap.Junctions[1])
	assert.Equal(t, []network.CapacityRow{{UnitName: "U1", Value: 120}}, snap.Capacities)
	assert.NoError(t, src.Close())
}

func TestParseSnapshot_Empty(t *testing.T) {
	src, err := ParseSnapshot(strings.NewReader(""))
	require.NoError(t, err)

	units, err := src.Units(context.Background())
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestParseSnapshot_RejectsUnknownKeys(t *testing.T) {
	_, err := ParseSnapshot(strings.NewReader("units: []\nvalves: []\n"))
	assert.Error(t, err)
}

func TestParseSnapshot_RejectsMissingCodes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
		row  string
	}{
		{"junction without feed_flag",
			"junctions:\n  - {unit: U1, stream: S1, feed_flag: 1}\n  - {unit: U1, stream: S2}\n",
			network.ErrInvalidDirection, "row 2"},
		{"unit without type",
			"units:\n  - {name: U1}\n",
			network.ErrUnknownUnitKind, "row 1"},
		{"capacity without value",
			"capacities:\n  - {unit: U1}\n",
			network.ErrInvalidCapacity, "row 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.row)
		})
	}
}

func TestParseSnapshot_ExplicitZeroCodes(t *testing.T) {
	src, err := ParseSnapshot(strings.NewReader("units:\n  - {name: U1, type: 0}\njunctions:\n  - {unit: U1, stream: S1, feed_flag: 0}\n"))
	require.NoError(t, err)

	snap, err := Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []network.UnitRow{{Name: "U1", Type: 0}}, snap.Units)
	assert.Equal(t, []network.JunctionRow{{UnitName: "U1", StreamName: "S1", FeedFlag: 0}}, snap.Junctions)
}

func TestOpenSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plantYAML), 0644))

	src, err := OpenSnapshot(path)
	require.NoError(t, err)

	streams, err := src.Streams(context.Background())
	require.NoError(t, err)
	assert.Len(t, streams, 3)

	_, err = OpenSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnapshotSource_ReturnsCopies(t *testing.T) {
	src := NewSnapshotSource(Snapshot{Units: []network.UnitRow{{Name: "U1"}}})

	first, err := src.Units(context.Background())
	require.NoError(t, err)
	first[0].Name = "tampered"

	second, err := src.Units(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "U1", second[0].Name)
}

func TestDump_RoundTrips(t *testing.T) {
	src, err := ParseSnapshot(strings.NewReader(plantYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Dump(context.Background(), src, &buf))

	again, err := ParseSnapshot(&buf)
	require.NoError(t, err)

	want, err := Fetch(context.Background(), src)
	require.NoError(t, err)
	got, err := Fetch(context.Background(), again)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type failingSource struct {
	SnapshotSource
	err error
}

func (f *failingSource) Junctions(context.Context) ([]network.JunctionRow, error) {
	return nil, f.err
}

func TestFetch_PropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := Fetch(context.Background(), &failingSource{err: boom})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch junctions")
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(plantYAML), 0644))

	src, err := Open(context.Background(), config.SourceConfig{Kind: config.SourceSnapshot, Snapshot: path})
	require.NoError(t, err)
	defer src.Close()
	assert.IsType(t, &SnapshotSource{}, src)

	_, err = Open(context.Background(), config.SourceConfig{Kind: "sqlite"})
	assert.Error(t, err)
}
