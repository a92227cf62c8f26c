package socio

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crimemap/internal/clean"
	"github.com/sells-group/crimemap/internal/model"
)

// TableLoader returns the header-keyed rows of a data path.
type TableLoader interface {
	Load(ctx context.Context, path string) ([]model.Row, error)
}

// Dataset is one indicator's values keyed by borough then year.
type Dataset struct {
	Indicator Indicator
	values    map[string]map[int]float64
}

// NewDataset parses series rows. Rows are keyed by "Area name"; every
// column whose header is a year holds that year's value. Blank cells mean
// the borough has no value for the year. The first row of a duplicated
// area wins.
func NewDataset(ind Indicator, rows []model.Row) (*Dataset, error) {
	d := &Dataset{Indicator: ind, values: make(map[string]map[int]float64, len(rows))}
	if len(rows) == 0 {
		return d, nil
	}
	if _, ok := rows[0][model.ColAreaName]; !ok {
		return nil, eris.Errorf("socio: %s: missing column %q", ind.Name, model.ColAreaName)
	}

	for i, row := range rows {
		area := strings.TrimSpace(row[model.ColAreaName])
		if area == "" {
			continue
		}
		if _, dup := d.values[area]; dup {
			continue
		}
		byYear := make(map[int]float64)
		for col, cell := range row {
			year, ok := yearColumn(col)
			if !ok || clean.IsBlank(cell) {
				continue
			}
			v, err := clean.ParseDecimal(cell)
			if err != nil {
				return nil, eris.Wrapf(err, "socio: %s row %d year %d", ind.Name, i+1, year)
			}
			byYear[year] = v
		}
		d.values[area] = byYear
	}
	return d, nil
}

func yearColumn(col string) (int, bool) {
	if len(col) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(col)
	if err != nil || y < 1000 {
		return 0, false
	}
	return y, true
}

// Value returns the borough's value for a year.
func (d *Dataset) Value(borough string, year int) (float64, bool) {
	byYear, ok := d.values[borough]
	if !ok {
		return 0, false
	}
	v, ok := byYear[year]
	return v, ok
}

// Areas returns the number of areas in the dataset.
func (d *Dataset) Areas() int {
	return len(d.values)
}

// Series caches every indicator dataset for the process lifetime. It is
// written once by LoadSeries and read-only afterwards.
type Series struct {
	table    Table
	datasets map[string]*Dataset
}

// NewSeries assembles a Series from already parsed datasets.
func NewSeries(table Table, datasets ...*Dataset) *Series {
	s := &Series{table: table, datasets: make(map[string]*Dataset, len(datasets))}
	for _, d := range datasets {
		s.datasets[d.Indicator.Name] = d
	}
	return s
}

// LoadSeries loads every indicator of the table concurrently. The first
// failure cancels the rest and is returned.
func LoadSeries(ctx context.Context, loader TableLoader, table Table) (*Series, error) {
	log := zap.L().With(zap.String("component", "socio"))
	start := time.Now()

	datasets := make([]*Dataset, len(table.Indicators))
	g, gctx := errgroup.WithContext(ctx)
	for i, ind := range table.Indicators {
		g.Go(func() error {
			rows, err := loader.Load(gctx, ind.Path())
			if err != nil {
				return eris.Wrapf(err, "socio: load %s", ind.Name)
			}
			d, err := NewDataset(ind, rows)
			if err != nil {
				return err
			}
			datasets[i] = d
			log.Info("indicator loaded", zap.String("indicator", ind.Name), zap.Int("areas", d.Areas()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("socioeconomic series loaded",
		zap.Int("indicators", len(datasets)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return NewSeries(table, datasets...), nil
}

// Table returns the indicator table the series was loaded with.
func (s *Series) Table() Table {
	return s.table
}

// Dataset returns an indicator's dataset.
func (s *Series) Dataset(indicator string) (*Dataset, bool) {
	d, ok := s.datasets[indicator]
	return d, ok
}

// Value returns a borough's value of an indicator for a year.
func (s *Series) Value(indicator, borough string, year int) (float64, bool) {
	d, ok := s.Dataset(indicator)
	if !ok {
		return 0, false
	}
	return d.Value(borough, year)
}

// Universe restricts an indicator to the valid boroughs of a year that have
// a value for it.
func (s *Series) Universe(indicator string, year int, valid []string) map[string]float64 {
	out := make(map[string]float64, len(valid))
	for _, b := range valid {
		if v, ok := s.Value(indicator, b, year); ok {
			out[b] = v
		}
	}
	return out
}
