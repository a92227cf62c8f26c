package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crimemap/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	first_year INTEGER NOT NULL,
	last_year  INTEGER NOT NULL,
	boroughs   INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS crime_rates (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	year    INTEGER NOT NULL,
	borough TEXT NOT NULL,
	rate    REAL NOT NULL,
	PRIMARY KEY (run_id, year, borough)
);

CREATE TABLE IF NOT EXISTS subtype_rates (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	year    INTEGER NOT NULL,
	borough TEXT NOT NULL,
	subtype TEXT NOT NULL,
	rate    REAL NOT NULL,
	PRIMARY KEY (run_id, year, borough, subtype)
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun writes a run and all of its rates in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, source string, snapshots []*model.YearlySnapshot) (*Run, error) {
	run, err := newRun(uuid.New().String(), source, snapshots)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, first_year, last_year, boroughs, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.FirstYear, run.LastYear, run.Boroughs, run.CreatedAt,
	); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	crime, subtype := rateRows(run.ID, snapshots)
	if err := insertRows(ctx, tx, `INSERT INTO crime_rates (run_id, year, borough, rate) VALUES (?, ?, ?, ?)`, crime); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert crime rates")
	}
	if err := insertRows(ctx, tx, `INSERT INTO subtype_rates (run_id, year, borough, subtype, rate) VALUES (?, ?, ?, ?, ?)`, subtype); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert subtype rates")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return run, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return err
		}
	}
	return nil
}

// GetRun returns a run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, first_year, last_year, boroughs, created_at FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return run, nil
}

// ListRuns returns the newest runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, first_year, last_year, boroughs, created_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// CrimeRates returns the stored overall rates of a run for one year.
func (s *SQLiteStore) CrimeRates(ctx context.Context, runID string, year int) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT borough, rate FROM crime_rates WHERE run_id = ? AND year = ?`, runID, year)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query crime rates")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]float64)
	for rows.Next() {
		var b string
		var r float64
		if err := rows.Scan(&b, &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan crime rate")
		}
		out[b] = r
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate crime rates")
}

// SubtypeRates returns the stored subtype rates of a run for one year.
func (s *SQLiteStore) SubtypeRates(ctx context.Context, runID string, year int) (map[string]map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT borough, subtype, rate FROM subtype_rates WHERE run_id = ? AND year = ?`, runID, year)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query subtype rates")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]map[string]float64)
	for rows.Next() {
		var b, st string
		var r float64
		if err := rows.Scan(&b, &st, &r); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan subtype rate")
		}
		if out[b] == nil {
			out[b] = make(map[string]float64)
		}
		out[b][st] = r
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate subtype rates")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.Source, &r.FirstYear, &r.LastYear, &r.Boroughs, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
