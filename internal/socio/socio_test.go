package socio

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crimemap/internal/clean"
	"github.com/sells-group/crimemap/internal/model"
)

type mapLoader struct {
	tables map[string][]model.Row
	calls  atomic.Int32
}

func (m *mapLoader) Load(_ context.Context, path string) ([]model.Row, error) {
	m.calls.Add(1)
	rows, ok := m.tables[path]
	if !ok {
		return nil, eris.Errorf("no table %s", path)
	}
	return rows, nil
}

func seriesRows() []model.Row {
	return []model.Row{
		{"Area name": "Camden", "Code": "E09000007", "2015": "5.1", "2024": "4.9"},
		{"Area name": "Hackney", "Code": "E09000012", "2015": "7.0", "2024": ""},
		{"Area name": "London", "Code": "E12000007", "2015": "6.2", "2024": "4.6"},
	}
}

func TestDefaultTable(t *testing.T) {
	tbl := DefaultTable()
	require.NoError(t, tbl.Validate())
	assert.Equal(t, []string{
		"average_attainment_8_score_GCSE",
		"average_weekly_pay",
		"house_price_to_earnings",
		"unemployment",
		"households_on_LA_wait_list",
		"total_families_receiving_child_benefits",
	}, tbl.Names())

	var normalised []string
	for _, ind := range tbl.Indicators {
		if ind.Normalize {
			normalised = append(normalised, ind.Name)
		}
	}
	assert.Equal(t, []string{"households_on_LA_wait_list", "total_families_receiving_child_benefits"}, normalised)
}

func TestIndicator_FormatValue(t *testing.T) {
	tbl := DefaultTable()
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{"average_attainment_8_score_GCSE", 48.25, "48.2"},
		{"average_weekly_pay", 812.5, "£812.50"},
		{"house_price_to_earnings", 14.567, "14.57"},
		{"unemployment", 5.04, "5.0%"},
		{"households_on_LA_wait_list", 31.456, "31.46"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind, ok := tbl.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, ind.FormatValue(tt.value))
		})
	}
}

func TestIndicator_Path(t *testing.T) {
	ind, ok := DefaultTable().Lookup("unemployment")
	require.True(t, ok)
	assert.Equal(t, "socioeconomic_data/unemployment_data_2015-2024.csv", ind.Path())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indicators.yaml")
	yaml := `indicators:
  - name: unemployment
    label: Unemployment Rate
    format: "%.1f%%"
  - name: households_on_LA_wait_list
    normalize: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, tbl.Indicators, 2)
	assert.Equal(t, "Unemployment Rate", tbl.Indicators[0].Label)
	assert.Equal(t, "households_on_LA_wait_list", tbl.Indicators[1].Label)
	assert.Equal(t, "%.2f", tbl.Indicators[1].Format)
	assert.True(t, tbl.Indicators[1].Normalize)
}

func TestLoadTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "indicators: []\n", "no indicators"},
		{"missing name", "indicators:\n  - label: x\n", "has no name"},
		{"duplicate", "indicators:\n  - name: a\n  - name: a\n", "duplicate indicator"},
		{"bad format", "indicators:\n  - name: a\n    format: \"%d\"\n", "bad format"},
		{"bad yaml", "indicators: [\n", "parse table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "indicators.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
			_, err := LoadTable(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewDataset(t *testing.T) {
	ind := Indicator{Name: "unemployment", Format: "%.1f%%"}
	d, err := NewDataset(ind, seriesRows())
	require.NoError(t, err)
	assert.Equal(t, 3, d.Areas())

	v, ok := d.Value("Camden", 2024)
	require.True(t, ok)
	assert.InDelta(t, 4.9, v, 1e-9)

	_, ok = d.Value("Hackney", 2024)
	assert.False(t, ok, "blank cell means no value")

	_, ok = d.Value("Camden", 2019)
	assert.False(t, ok)

	_, ok = d.Value("Ealing", 2015)
	assert.False(t, ok)
}

func TestNewDataset_ThousandsSeparators(t *testing.T) {
	rows := []model.Row{{"Area name": "Croydon", "2020": "12,345"}}
	d, err := NewDataset(Indicator{Name: "households_on_LA_wait_list"}, rows)
	require.NoError(t, err)
	v, ok := d.Value("Croydon", 2020)
	require.True(t, ok)
	assert.InDelta(t, 12345.0, v, 1e-9)
}

func TestNewDataset_FirstDuplicateWins(t *testing.T) {
	rows := []model.Row{
		{"Area name": "Camden", "2020": "1"},
		{"Area name": "Camden", "2020": "2"},
	}
	d, err := NewDataset(Indicator{Name: "x"}, rows)
	require.NoError(t, err)
	v, _ := d.Value("Camden", 2020)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestNewDataset_Malformed(t *testing.T) {
	rows := []model.Row{{"Area name": "Camden", "2020": "n/a"}}
	_, err := NewDataset(Indicator{Name: "x"}, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, clean.ErrMalformedNumber)
}

func TestNewDataset_MissingAreaColumn(t *testing.T) {
	rows := []model.Row{{"Borough": "Camden", "2020": "1"}}
	_, err := NewDataset(Indicator{Name: "x"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Area name")
}

func TestLoadSeries(t *testing.T) {
	tbl := DefaultTable()
	loader := &mapLoader{tables: map[string][]model.Row{}}
	for _, ind := range tbl.Indicators {
		loader.tables[ind.Path()] = seriesRows()
	}

	s, err := LoadSeries(context.Background(), loader, tbl)
	require.NoError(t, err)
	assert.Equal(t, int32(6), loader.calls.Load())
	assert.Equal(t, tbl.Names(), s.Table().Names())

	v, ok := s.Value("average_weekly_pay", "Camden", 2015)
	require.True(t, ok)
	assert.InDelta(t, 5.1, v, 1e-9)

	_, ok = s.Value("no_such_indicator", "Camden", 2015)
	assert.False(t, ok)
}

func TestLoadSeries_FailFast(t *testing.T) {
	tbl := DefaultTable()
	loader := &mapLoader{tables: map[string][]model.Row{}}
	for _, ind := range tbl.Indicators[1:] {
		loader.tables[ind.Path()] = seriesRows()
	}

	_, err := LoadSeries(context.Background(), loader, tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socio: load average_attainment_8_score_GCSE")
}

func TestSeries_Universe(t *testing.T) {
	d, err := NewDataset(Indicator{Name: "unemployment"}, seriesRows())
	require.NoError(t, err)
	s := NewSeries(Table{Indicators: []Indicator{d.Indicator}}, d)

	// London is in the dataset but not a valid borough; Hackney has no 2024
	// value; Ealing is valid but missing from the dataset.
	got := s.Universe("unemployment", 2024, []string{"Camden", "Hackney", "Ealing"})
	assert.Equal(t, map[string]float64{"Camden": 4.9}, got)

	got = s.Universe("unemployment", 2015, []string{"Camden", "Hackney"})
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "London")
}
