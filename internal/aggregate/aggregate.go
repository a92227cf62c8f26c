// Package aggregate turns per-incident crime rows and population counts into
// per-1000 rates by borough and by borough and crime subtype.
package aggregate

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/clean"
	"github.com/sells-group/crimemap/internal/model"
)

// NormalisePer1000 scales a count to a rate per 1,000 people.
func NormalisePer1000(value, population float64) float64 {
	return (value / population) * 1000
}

// Aggregate builds the snapshot for one year. Only "Borough" rows contribute.
// Areas that have crime rows but no population row ("Aviation Security",
// "Other / NK") are dropped from every map. Boroughs without any crime row
// never appear.
func Aggregate(year int, crime []model.RawCrimeRecord, population []model.RawPopulationRecord) (*model.YearlySnapshot, error) {
	totals := make(map[string]int64)
	subtotals := make(map[string]map[string]int64)

	for i, rec := range crime {
		if rec.AreaType != model.AreaTypeBorough {
			continue
		}
		count, err := clean.ParseCount(rec.Count)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: %d crime row %d", year, i+1)
		}
		borough := clean.NormalizeBorough(rec.Borough)
		subtype := clean.CleanSubtype(rec.Subtype)

		totals[borough] += count
		byType, ok := subtotals[borough]
		if !ok {
			byType = make(map[string]int64)
			subtotals[borough] = byType
		}
		byType[subtype] += count
	}

	popIndex := make(map[string]string, len(population))
	for _, p := range population {
		if _, seen := popIndex[p.AreaName]; !seen {
			popIndex[p.AreaName] = p.Population
		}
	}

	snap := &model.YearlySnapshot{
		Year:         year,
		CrimeRates:   make(map[string]float64, len(totals)),
		SubtypeRates: make(map[string]map[string]float64, len(totals)),
	}

	var dropped []string
	for borough, total := range totals {
		rawPop, ok := popIndex[borough]
		if !ok {
			dropped = append(dropped, borough)
			continue
		}
		pop, err := parsePopulation(rawPop)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: %d population for %s", year, borough)
		}

		snap.CrimeRates[borough] = NormalisePer1000(float64(total), pop)
		rates := make(map[string]float64, len(subtotals[borough]))
		for subtype, n := range subtotals[borough] {
			rates[subtype] = NormalisePer1000(float64(n), pop)
		}
		snap.SubtypeRates[borough] = rates
	}

	for _, p := range population {
		if _, ok := snap.CrimeRates[p.AreaName]; ok {
			snap.Population = append(snap.Population, p)
		}
	}

	if len(dropped) > 0 {
		zap.L().Debug("aggregate: dropped areas without population",
			zap.Int("year", year),
			zap.Strings("areas", dropped),
		)
	}

	return snap, nil
}

// parsePopulation parses a population cell, truncating any fractional part
// of projected estimates. A non-positive population cannot be a denominator
// and is treated as malformed.
func parsePopulation(raw string) (float64, error) {
	v, err := clean.ParseDecimal(raw)
	if err != nil {
		return 0, err
	}
	n := math.Trunc(v)
	if n <= 0 {
		return 0, eris.Wrapf(clean.ErrMalformedNumber, "non-positive population %q", raw)
	}
	return n, nil
}

// Population parses the population cell of a cleaned row.
func Population(rec model.RawPopulationRecord) (float64, error) {
	return parsePopulation(rec.Population)
}
