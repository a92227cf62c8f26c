// Package store persists computed yearly snapshots so exported runs can be
// queried without reloading the source tables.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crimemap/internal/model"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = eris.New("store: run not found")

// Run describes one export of the loaded years.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	FirstYear int       `json:"first_year"`
	LastYear  int       `json:"last_year"`
	Boroughs  int       `json:"boroughs"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the persistence interface for exported snapshots.
type Store interface {
	Migrate(ctx context.Context) error
	SaveRun(ctx context.Context, source string, snapshots []*model.YearlySnapshot) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	CrimeRates(ctx context.Context, runID string, year int) (map[string]float64, error)
	SubtypeRates(ctx context.Context, runID string, year int) (map[string]map[string]float64, error)
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

// Open returns the store for a driver name ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// newRun summarises the snapshots being saved.
func newRun(id, source string, snapshots []*model.YearlySnapshot) (*Run, error) {
	if len(snapshots) == 0 {
		return nil, eris.New("store: no snapshots to save")
	}
	r := &Run{ID: id, Source: source, CreatedAt: time.Now().UTC()}
	boroughs := make(map[string]bool)
	for i, s := range snapshots {
		if i == 0 || s.Year < r.FirstYear {
			r.FirstYear = s.Year
		}
		if i == 0 || s.Year > r.LastYear {
			r.LastYear = s.Year
		}
		for b := range s.CrimeRates {
			boroughs[b] = true
		}
	}
	r.Boroughs = len(boroughs)
	return r, nil
}

var (
	crimeRateColumns   = []string{"run_id", "year", "borough", "rate"}
	subtypeRateColumns = []string{"run_id", "year", "borough", "subtype", "rate"}
)

// rateRows flattens snapshots into crime_rates and subtype_rates rows.
func rateRows(runID string, snapshots []*model.YearlySnapshot) (crime, subtype [][]any) {
	for _, s := range snapshots {
		for _, b := range s.Boroughs() {
			crime = append(crime, []any{runID, s.Year, b, s.CrimeRates[b]})
			for st, rate := range s.SubtypeRates[b] {
				subtype = append(subtype, []any{runID, s.Year, b, st, rate})
			}
		}
	}
	return crime, subtype
}
