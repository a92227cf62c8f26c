package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/db"
	"github.com/sells-group/crimemap/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(4), int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	first_year INTEGER NOT NULL,
	last_year  INTEGER NOT NULL,
	boroughs   INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS crime_rates (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	year    INTEGER NOT NULL,
	borough TEXT NOT NULL,
	rate    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, year, borough)
);

CREATE TABLE IF NOT EXISTS subtype_rates (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	year    INTEGER NOT NULL,
	borough TEXT NOT NULL,
	subtype TEXT NOT NULL,
	rate    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, year, borough, subtype)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// Migrate creates the tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRun inserts the run row, upserts the overall rates and copies the
// subtype rates.
func (s *PostgresStore) SaveRun(ctx context.Context, source string, snapshots []*model.YearlySnapshot) (*Run, error) {
	run, err := newRun(uuid.New().String(), source, snapshots)
	if err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, first_year, last_year, boroughs, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Source, run.FirstYear, run.LastYear, run.Boroughs, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	crime, subtype := rateRows(run.ID, snapshots)
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertSpec{
		Table:        "crime_rates",
		Columns:      crimeRateColumns,
		ConflictKeys: []string{"run_id", "year", "borough"},
	}, crime)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: save crime rates")
	}
	m, err := db.CopyFrom(ctx, s.pool, "subtype_rates", subtypeRateColumns, subtype)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: save subtype rates")
	}

	zap.L().Info("postgres: run saved",
		zap.String("run_id", run.ID),
		zap.Int64("crime_rates", n),
		zap.Int64("subtype_rates", m),
	)
	return run, nil
}

// GetRun returns a run by id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, first_year, last_year, boroughs, created_at FROM runs WHERE id = $1`, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return run, nil
}

// ListRuns returns the newest runs first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, first_year, last_year, boroughs, created_at FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

// CrimeRates returns the stored overall rates of a run for one year.
func (s *PostgresStore) CrimeRates(ctx context.Context, runID string, year int) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT borough, rate FROM crime_rates WHERE run_id = $1 AND year = $2`, runID, year)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query crime rates")
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var b string
		var r float64
		if err := rows.Scan(&b, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: scan crime rate")
		}
		out[b] = r
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate crime rates")
}

// SubtypeRates returns the stored subtype rates of a run for one year.
func (s *PostgresStore) SubtypeRates(ctx context.Context, runID string, year int) (map[string]map[string]float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT borough, subtype, rate FROM subtype_rates WHERE run_id = $1 AND year = $2`, runID, year)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query subtype rates")
	}
	defer rows.Close()

	out := make(map[string]map[string]float64)
	for rows.Next() {
		var b, st string
		var r float64
		if err := rows.Scan(&b, &st, &r); err != nil {
			return nil, eris.Wrap(err, "postgres: scan subtype rate")
		}
		if out[b] == nil {
			out[b] = make(map[string]float64)
		}
		out[b][st] = r
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate subtype rates")
}
