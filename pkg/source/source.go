// Package source reads the relational snapshot of a process network from an
// external store and hands it to the loader as plain rows.
package source

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-flownet/pkg/config"
	"github.com/dd0wney/cluso-flownet/pkg/network"
)

// Source supplies the four row batches of a process network snapshot.
// Close must be safe to call more than once.
type Source interface {
	Units(ctx context.Context) ([]network.UnitRow, error)
	Streams(ctx context.Context) ([]network.StreamRow, error)
	Junctions(ctx context.Context) ([]network.JunctionRow, error)
	Capacities(ctx context.Context) ([]network.CapacityRow, error)
	Close() error
}

// Snapshot is a fully materialized set of rows.
type Snapshot struct {
	Units      []network.UnitRow     `yaml:"units"`
	Streams    []network.StreamRow   `yaml:"streams"`
	Junctions  []network.JunctionRow `yaml:"junctions"`
	Capacities []network.CapacityRow `yaml:"capacities,omitempty"`
}

// Fetch reads every batch from src. It does not close src.
func Fetch(ctx context.Context, src Source) (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Units, err = src.Units(ctx); err != nil {
		return nil, fmt.Errorf("fetch units: %w", err)
	}
	if snap.Streams, err = src.Streams(ctx); err != nil {
		return nil, fmt.Errorf("fetch streams: %w", err)
	}
	if snap.Junctions, err = src.Junctions(ctx); err != nil {
		return nil, fmt.Errorf("fetch junctions: %w", err)
	}
	if snap.Capacities, err = src.Capacities(ctx); err != nil {
		return nil, fmt.Errorf("fetch capacities: %w", err)
	}
	return &snap, nil
}

// Open builds the source selected by cfg. The caller must Close it.
func Open(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	var (
		src Source
		err error
	)
	switch cfg.Kind {
	case config.SourcePostgres:
		src, err = NewPostgresSource(ctx, cfg.DatabaseURL, cfg.MaxConns)
	case config.SourceSnapshot:
		src, err = OpenSnapshot(cfg.Snapshot)
	default:
		err = fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
