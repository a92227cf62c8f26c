package model

import "sort"

// YearlySnapshot holds the aggregated rates and cleaned population rows for
// one calendar year. It is built once by the aggregator and never mutated.
type YearlySnapshot struct {
	Year         int                           `json:"year"`
	CrimeRates   map[string]float64            `json:"crime_rates"`
	SubtypeRates map[string]map[string]float64 `json:"subtype_rates"`
	Population   []RawPopulationRecord         `json:"population"`
}

// HasBorough reports whether the borough is part of the year's valid set.
func (s *YearlySnapshot) HasBorough(borough string) bool {
	_, ok := s.CrimeRates[borough]
	return ok
}

// Boroughs returns the valid boroughs of the year in name order.
func (s *YearlySnapshot) Boroughs() []string {
	names := make([]string, 0, len(s.CrimeRates))
	for b := range s.CrimeRates {
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// RateValues returns every borough's overall crime rate (unordered).
func (s *YearlySnapshot) RateValues() []float64 {
	vals := make([]float64, 0, len(s.CrimeRates))
	for _, v := range s.CrimeRates {
		vals = append(vals, v)
	}
	return vals
}

// SubtypeValues returns the rates of one subtype across all boroughs that
// recorded it.
func (s *YearlySnapshot) SubtypeValues(subtype string) []float64 {
	var vals []float64
	for _, byType := range s.SubtypeRates {
		if v, ok := byType[subtype]; ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// PopulationRow returns the cleaned population row for a borough.
func (s *YearlySnapshot) PopulationRow(borough string) (RawPopulationRecord, bool) {
	for _, p := range s.Population {
		if p.AreaName == borough {
			return p, true
		}
	}
	return RawPopulationRecord{}, false
}
