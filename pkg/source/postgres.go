package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/cluso-flownet/pkg/network"
)

// Queries against the plant schema: unit(id, name, type), stream(id, name),
// unit_material(unit_id, stream_id, feed_flag), load_max(unit_id, value).
// Junction and capacity rows use LEFT JOINs so ids that do not resolve come
// back with empty names and are rejected by the linker instead of vanishing.
const (
	unitsQuery = `SELECT name, type FROM unit ORDER BY id`

	streamsQuery = `SELECT id, name FROM stream ORDER BY id`

	junctionsQuery = `
		SELECT COALESCE(u.name, ''), COALESCE(s.name, ''), um.feed_flag
		FROM unit_material um
		LEFT JOIN unit u ON u.id = um.unit_id
		LEFT JOIN stream s ON s.id = um.stream_id
		ORDER BY s.name, u.name`

	capacitiesQuery = `
		SELECT COALESCE(u.name, ''), lm.value
		FROM load_max lm
		LEFT JOIN unit u ON u.id = lm.unit_id
		ORDER BY lm.unit_id`
)

// PostgresSource reads rows from a PostgreSQL database
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to databaseURL and verifies the connection.
// maxConns of zero keeps the pgx default.
func NewPostgresSource(ctx context.Context, databaseURL string, maxConns int32) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Units(ctx context.Context) ([]network.UnitRow, error) {
	return collect(ctx, s.pool, unitsQuery, func(row pgx.CollectableRow) (network.UnitRow, error) {
		var r network.UnitRow
		err := row.Scan(&r.Name, &r.Type)
		return r, err
	})
}

func (s *PostgresSource) Streams(ctx context.Context) ([]network.StreamRow, error) {
	return collect(ctx, s.pool, streamsQuery, func(row pgx.CollectableRow) (network.StreamRow, error) {
		var r network.StreamRow
		err := row.Scan(&r.ID, &r.Name)
		return r, err
	})
}

func (s *PostgresSource) Junctions(ctx context.Context) ([]network.JunctionRow, error) {
	return collect(ctx, s.pool, junctionsQuery, func(row pgx.CollectableRow) (network.JunctionRow, error) {
		var r network.JunctionRow
		err := row.Scan(&r.UnitName, &r.StreamName, &r.FeedFlag)
		return r, err
	})
}

func (s *PostgresSource) Capacities(ctx context.Context) ([]network.CapacityRow, error) {
	return collect(ctx, s.pool, capacitiesQuery, func(row pgx.CollectableRow) (network.CapacityRow, error) {
		var r network.CapacityRow
		err := row.Scan(&r.UnitName, &r.Value)
		return r, err
	})
}

// Ping checks database connectivity
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func collect[T any](ctx context.Context, q querier, sql string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return out, nil
}
