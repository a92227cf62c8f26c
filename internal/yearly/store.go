// Package yearly loads and holds the per-year snapshots and the
// socioeconomic series behind a single startup barrier.
package yearly

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crimemap/internal/aggregate"
	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/socio"
)

// ErrYearNotLoaded is returned for a year outside the loaded range.
var ErrYearNotLoaded = eris.New("yearly: year not loaded")

// Options selects the years and indicators to load.
type Options struct {
	FirstYear   int
	LastYear    int
	DefaultYear int
	Table       socio.Table
	Concurrency int // max loads in flight; 0 means unlimited
}

// Store owns every YearlySnapshot and the socioeconomic cache. It is
// immutable once built and safe for concurrent readers.
type Store struct {
	snapshots   map[int]*model.YearlySnapshot
	years       []int
	defaultYear int
	socio       *socio.Series
}

// New builds a Store from prepared snapshots. The default year falls back to
// the latest snapshot when it is not among them.
func New(snapshots []*model.YearlySnapshot, series *socio.Series, defaultYear int) (*Store, error) {
	if len(snapshots) == 0 {
		return nil, eris.New("yearly: no snapshots")
	}
	s := &Store{snapshots: make(map[int]*model.YearlySnapshot, len(snapshots)), socio: series}
	for _, snap := range snapshots {
		if snap == nil {
			return nil, eris.New("yearly: nil snapshot")
		}
		if _, dup := s.snapshots[snap.Year]; dup {
			return nil, eris.Errorf("yearly: duplicate snapshot for %d", snap.Year)
		}
		s.snapshots[snap.Year] = snap
		s.years = append(s.years, snap.Year)
	}
	slices.Sort(s.years)

	s.defaultYear = defaultYear
	if _, ok := s.snapshots[defaultYear]; !ok {
		s.defaultYear = s.years[len(s.years)-1]
	}
	if s.socio == nil {
		s.socio = socio.NewSeries(socio.Table{})
	}
	return s, nil
}

// Load reads every year's crime and population tables and the indicator
// series concurrently, aggregating each year as soon as its tables arrive.
// Any failure cancels the outstanding loads and fails the whole barrier.
func Load(ctx context.Context, loader socio.TableLoader, opts Options) (*Store, error) {
	if opts.FirstYear <= 0 || opts.LastYear < opts.FirstYear {
		return nil, eris.Errorf("yearly: invalid year range %d-%d", opts.FirstYear, opts.LastYear)
	}
	log := zap.L().With(zap.String("component", "yearly"))
	start := time.Now()

	snapshots := make([]*model.YearlySnapshot, opts.LastYear-opts.FirstYear+1)
	var series *socio.Series

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	if len(opts.Table.Indicators) > 0 {
		g.Go(func() error {
			var err error
			series, err = socio.LoadSeries(gctx, loader, opts.Table)
			return err
		})
	}

	for year := opts.FirstYear; year <= opts.LastYear; year++ {
		g.Go(func() error {
			snap, err := loadYear(gctx, loader, year)
			if err != nil {
				return err
			}
			snapshots[year-opts.FirstYear] = snap
			log.Info("year loaded",
				zap.Int("year", year),
				zap.Int("boroughs", len(snap.CrimeRates)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("all years loaded",
		zap.Int("first_year", opts.FirstYear),
		zap.Int("last_year", opts.LastYear),
		zap.Duration("elapsed", time.Since(start)),
	)
	if series == nil {
		series = socio.NewSeries(opts.Table)
	}
	return New(snapshots, series, opts.DefaultYear)
}

func loadYear(ctx context.Context, loader socio.TableLoader, year int) (*model.YearlySnapshot, error) {
	var crimeRows, popRows []model.Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		crimeRows, err = loader.Load(gctx, model.CrimePath(year))
		return err
	})
	g.Go(func() error {
		var err error
		popRows, err = loader.Load(gctx, model.PopulationPath(year))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "yearly: load %d", year)
	}

	return aggregate.Aggregate(year, model.CrimeRecords(crimeRows), model.PopulationRecords(popRows))
}

// Years returns the loaded years in ascending order.
func (s *Store) Years() []int {
	return slices.Clone(s.years)
}

// DefaultYear is the year shown before the user picks one.
func (s *Store) DefaultYear() int {
	return s.defaultYear
}

// Snapshot returns the snapshot of a year.
func (s *Store) Snapshot(year int) (*model.YearlySnapshot, error) {
	snap, ok := s.snapshots[year]
	if !ok {
		return nil, eris.Wrapf(ErrYearNotLoaded, "year %d", year)
	}
	return snap, nil
}

// Socio returns the socioeconomic series.
func (s *Store) Socio() *socio.Series {
	return s.socio
}

// Trend returns a borough's crime rate for every loaded year in which it was
// recorded, keyed by year.
func (s *Store) Trend(borough string) map[int]float64 {
	out := make(map[int]float64, len(s.years))
	for _, y := range s.years {
		if v, ok := s.snapshots[y].CrimeRates[borough]; ok {
			out[y] = v
		}
	}
	return out
}
