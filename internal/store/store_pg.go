package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists records in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS wsn_runs (
	run_id      TEXT PRIMARY KEY,
	experiment  TEXT NOT NULL DEFAULT '',
	node_count  INTEGER NOT NULL,
	offset_l    INTEGER NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	compressed  BOOLEAN NOT NULL,
	terminated  BOOLEAN NOT NULL,
	failed_node INTEGER NOT NULL,
	failed_sent INTEGER NOT NULL,
	failed_x    DOUBLE PRECISION NOT NULL,
	failed_y    DOUBLE PRECISION NOT NULL,
	total_sent  INTEGER NOT NULL,
	lifetime    DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wsn_runs_experiment ON wsn_runs(experiment);
`

func (s *PGStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PGStore) Save(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO wsn_runs (run_id, experiment, node_count, offset_l, width, height, compressed,
			terminated, failed_node, failed_sent, failed_x, failed_y, total_sent, lifetime, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		rec.RunID, rec.Experiment, rec.NodeCount, rec.Offset, rec.Width, rec.Height, rec.Compressed,
		rec.Terminated, rec.FailedNode, rec.FailedSent, rec.FailedX, rec.FailedY, rec.TotalSent,
		rec.Lifetime, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.RunID, err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, experiment string) ([]Record, error) {
	query := `
		SELECT run_id, experiment, node_count, offset_l, width, height, compressed,
			terminated, failed_node, failed_sent, failed_x, failed_y, total_sent, lifetime, created_at
		FROM wsn_runs
		WHERE $1 = '' OR experiment = $1
		ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var r Record
		err := row.Scan(&r.RunID, &r.Experiment, &r.NodeCount, &r.Offset, &r.Width, &r.Height,
			&r.Compressed, &r.Terminated, &r.FailedNode, &r.FailedSent, &r.FailedX, &r.FailedY,
			&r.TotalSent, &r.Lifetime, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}
	return records, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// Open returns a PostgreSQL store for a non-empty dsn and a memory store otherwise.
func Open(ctx context.Context, dsn string) (ResultStore, error) {
	if dsn == "" {
		return NewMemoryStore(), nil
	}
	return NewPGStore(ctx, dsn)
}
