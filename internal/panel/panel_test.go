package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crimemap/internal/aggregate"
	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/rank"
	"github.com/sells-group/crimemap/internal/socio"
	"github.com/sells-group/crimemap/internal/yearly"
)

func crime(borough, subtype, count string) model.RawCrimeRecord {
	return model.RawCrimeRecord{AreaType: "Borough", Borough: borough, Subtype: subtype, Count: count}
}

func pop(name, n string) model.RawPopulationRecord {
	return model.RawPopulationRecord{AreaName: name, Population: n}
}

// testStore has three boroughs recorded in 2024 plus the City of London,
// which only appears in the population and indicator files.
func testStore(t *testing.T) *yearly.Store {
	t.Helper()
	snap, err := aggregate.Aggregate(2024,
		[]model.RawCrimeRecord{
			crime("Camden", "Burglary", "300"),
			crime("Camden", "Gun Crime", "20"),
			crime("Camden", "Robbery", "80"),
			crime("Hackney", "Burglary", "100"),
			crime("Hackney", "Lethal Barrel Discharge", "10"),
			crime("Westminster", "Burglary", "900"),
			crime("Westminster", "Robbery", "300"),
		},
		[]model.RawPopulationRecord{
			pop("Camden", "200,000"),
			pop("Hackney", "250,000"),
			pop("Westminster", "200,000"),
			pop("City of London", "8,600"),
		},
	)
	require.NoError(t, err)

	tbl := socio.DefaultTable()
	datasets := []*socio.Dataset{}
	rows := map[string][]model.Row{
		"average_attainment_8_score_GCSE": {
			{"Area name": "Camden", "2024": "50.04"},
			{"Area name": "Hackney", "2024": "47.3"},
			{"Area name": "Westminster", "2024": "55.1"},
			{"Area name": "City of London", "2024": "60"},
		},
		"average_weekly_pay": {
			{"Area name": "Camden", "2024": "900"},
			{"Area name": "Hackney", "2024": "750.5"},
			{"Area name": "Westminster", "2024": "1,020"},
		},
		"house_price_to_earnings": {
			{"Area name": "Camden", "2024": "15.678"},
			{"Area name": "Westminster", "2024": "20.1"},
		},
		"unemployment": {
			{"Area name": "Camden", "2024": "5.04"},
			{"Area name": "Hackney", "2024": "6.1"},
			{"Area name": "Westminster", "2024": "4.2"},
		},
		"households_on_LA_wait_list": {
			{"Area name": "Camden", "2024": "6,000"},
			{"Area name": "Hackney", "2024": "10,000"},
			{"Area name": "Westminster", "2024": "4,000"},
		},
		"total_families_receiving_child_benefits": {
			{"Area name": "Camden", "2024": "20,000"},
			{"Area name": "Hackney", "2024": ""},
			{"Area name": "Westminster", "2024": "10,000"},
		},
	}
	for _, ind := range tbl.Indicators {
		d, err := socio.NewDataset(ind, rows[ind.Name])
		require.NoError(t, err)
		datasets = append(datasets, d)
	}

	s, err := yearly.New([]*model.YearlySnapshot{snap}, socio.NewSeries(tbl, datasets...), 2024)
	require.NoError(t, err)
	return s
}

func TestAssemble_CrimeSection(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Camden", 2024)
	require.NoError(t, err)

	assert.Equal(t, "Camden, 2024", p.Header)
	assert.Equal(t, "Crime Rate", p.CrimeRate.Label)
	assert.InDelta(t, 2.0, p.CrimeRate.Value, 1e-9)
	assert.Equal(t, "2.00", p.CrimeRate.Display)
	assert.Equal(t, "per 1,000 people", p.CrimeRate.Unit)
	// Westminster 6.0, Camden 2.0, Hackney 0.44
	assert.Equal(t, rank.DisplayRank{Position: 2, Suffix: "nd"}, p.CrimeRate.Rank)
	assert.Equal(t, "(2nd)", p.CrimeRate.RankText)
	assert.Equal(t, CrimeNote, p.CrimeNote)
	assert.Equal(t, IndicatorNote, p.IndicatorNote)
}

func TestAssemble_SubtypesAlphabeticalAndRanked(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Camden", 2024)
	require.NoError(t, err)

	require.Len(t, p.Subtypes, 3)
	assert.Equal(t, "Burglary", p.Subtypes[0].Label)
	assert.Equal(t, "Firearms-Related Crime", p.Subtypes[1].Label)
	assert.Equal(t, "Robbery", p.Subtypes[2].Label)

	// Burglary: Westminster 4.5, Camden 1.5, Hackney 0.4
	assert.Equal(t, "1.50", p.Subtypes[0].Display)
	assert.Equal(t, "(2nd)", p.Subtypes[0].RankText)
	// Firearms: Camden 0.1, Hackney 0.04; Westminster has none
	assert.Equal(t, "0.10", p.Subtypes[1].Display)
	assert.Equal(t, "(1st)", p.Subtypes[1].RankText)
	// Robbery: Westminster 1.5, Camden 0.4
	assert.Equal(t, "(2nd)", p.Subtypes[2].RankText)
}

func TestAssemble_SubtypeRatesSumToCrimeRate(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Westminster", 2024)
	require.NoError(t, err)
	var sum float64
	for _, s := range p.Subtypes {
		sum += s.Value
	}
	assert.InDelta(t, p.CrimeRate.Value, sum, 1e-9)
}

func TestAssemble_Population(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Hackney", 2024)
	require.NoError(t, err)

	assert.Equal(t, "Population", p.Population.Label)
	assert.Equal(t, "250,000", p.Population.Display)
	// City of London is not in the cleaned population rows.
	assert.Equal(t, "(1st)", p.Population.RankText)

	p, err = NewAssembler(testStore(t)).Assemble("Camden", 2024)
	require.NoError(t, err)
	// Camden and Westminster tie at 200,000 and share second place.
	assert.Equal(t, "(2nd)", p.Population.RankText)
}

func TestAssemble_PopulationRanksEveryRow(t *testing.T) {
	snap := &model.YearlySnapshot{
		Year:         2024,
		CrimeRates:   map[string]float64{"Camden": 1, "Hackney": 2},
		SubtypeRates: map[string]map[string]float64{},
		Population: []model.RawPopulationRecord{
			pop("Camden", "100"),
			pop("Hackney", "300"),
			pop("Hackney", "500"),
		},
	}
	s, err := yearly.New([]*model.YearlySnapshot{snap}, nil, 2024)
	require.NoError(t, err)

	p, err := NewAssembler(s).Assemble("Camden", 2024)
	require.NoError(t, err)
	assert.Equal(t, "(3rd)", p.Population.RankText)

	// The first row of an area is its population.
	p, err = NewAssembler(s).Assemble("Hackney", 2024)
	require.NoError(t, err)
	assert.Equal(t, "300", p.Population.Display)
	assert.Equal(t, "(2nd)", p.Population.RankText)
}

func TestAssemble_Indicators(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Camden", 2024)
	require.NoError(t, err)
	require.Len(t, p.Indicators, 6)

	byName := map[string]IndicatorRecord{}
	for _, ind := range p.Indicators {
		byName[ind.Name] = ind
	}

	gcse := byName["average_attainment_8_score_GCSE"]
	assert.True(t, gcse.Available)
	assert.Equal(t, "Average Attainment 8 Score at GCSE", gcse.Label)
	assert.Equal(t, "50.0", gcse.Display)
	// City of London has a GCSE value but is outside the ranking universe.
	assert.Equal(t, "(2nd)", gcse.RankText)

	assert.Equal(t, "£900.00", byName["average_weekly_pay"].Display)
	assert.Equal(t, "(2nd)", byName["average_weekly_pay"].RankText)

	assert.Equal(t, "15.68", byName["house_price_to_earnings"].Display)
	assert.Equal(t, "(2nd)", byName["house_price_to_earnings"].RankText)

	assert.Equal(t, "5.0%", byName["unemployment"].Display)
	assert.Equal(t, "(2nd)", byName["unemployment"].RankText)

	// Wait list per 1,000: Camden 30, Hackney 40, Westminster 20.
	wait := byName["households_on_LA_wait_list"]
	assert.True(t, wait.Normalized)
	assert.InDelta(t, 30.0, wait.Value, 1e-9)
	assert.Equal(t, "30.00", wait.Display)
	assert.Equal(t, "(2nd)", wait.RankText)

	// Child benefit per 1,000: Camden 100, Westminster 50; Hackney blank.
	cb := byName["total_families_receiving_child_benefits"]
	assert.InDelta(t, 100.0, cb.Value, 1e-9)
	assert.Equal(t, "(1st)", cb.RankText)
}

func TestAssemble_IndicatorOrderFollowsTable(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Westminster", 2024)
	require.NoError(t, err)
	var names []string
	for _, ind := range p.Indicators {
		names = append(names, ind.Name)
	}
	assert.Equal(t, socio.DefaultTable().Names(), names)
}

func TestAssemble_IndicatorMissingForBorough(t *testing.T) {
	p, err := NewAssembler(testStore(t)).Assemble("Hackney", 2024)
	require.NoError(t, err)

	var house, cb IndicatorRecord
	for _, ind := range p.Indicators {
		switch ind.Name {
		case "house_price_to_earnings":
			house = ind
		case "total_families_receiving_child_benefits":
			cb = ind
		}
	}
	assert.False(t, house.Available)
	assert.Equal(t, "no data", house.Display)
	assert.Equal(t, "House Price to Earnings Ratio", house.Label)
	assert.False(t, cb.Available)
	assert.Zero(t, cb.Rank.Position)
}

func TestAssemble_BoroughNotRecorded(t *testing.T) {
	_, err := NewAssembler(testStore(t)).Assemble("City of London", 2024)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBoroughNotRecorded)
}

func TestAssemble_YearNotLoaded(t *testing.T) {
	_, err := NewAssembler(testStore(t)).Assemble("Camden", 2015)
	require.Error(t, err)
	assert.ErrorIs(t, err, yearly.ErrYearNotLoaded)
}

func TestAssemble_WithoutIndicators(t *testing.T) {
	snap := &model.YearlySnapshot{
		Year:         2020,
		CrimeRates:   map[string]float64{"Ealing": 1.5},
		SubtypeRates: map[string]map[string]float64{"Ealing": {"Burglary": 1.5}},
		Population:   []model.RawPopulationRecord{pop("Ealing", "367,000")},
	}
	s, err := yearly.New([]*model.YearlySnapshot{snap}, nil, 2020)
	require.NoError(t, err)

	p, err := NewAssembler(s).Assemble("Ealing", 2020)
	require.NoError(t, err)
	assert.Empty(t, p.Indicators)
	assert.Equal(t, "367,000", p.Population.Display)
	assert.Equal(t, "(1st)", p.CrimeRate.RankText)
}
