package choropleth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crimemap/internal/model"
)

func TestQuantiles(t *testing.T) {
	domain := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	got := Quantiles(domain, 5)
	require.Len(t, got, 4)
	// (len-1)*p = 2, 4, 6, 8
	assert.InDeltaSlice(t, []float64{3, 5, 7, 9}, got, 1e-9)
}

func TestQuantiles_Interpolates(t *testing.T) {
	got := Quantiles([]float64{0, 10}, 5)
	assert.InDeltaSlice(t, []float64{2, 4, 6, 8}, got, 1e-9)

	got = Quantiles([]float64{1, 2, 4}, 4)
	// positions 0.5, 1.0, 1.5
	assert.InDeltaSlice(t, []float64{1.5, 2, 3}, got, 1e-9)
}

func TestQuantiles_Degenerate(t *testing.T) {
	assert.Nil(t, Quantiles(nil, 5))
	assert.Nil(t, Quantiles([]float64{1, 2}, 1))
	assert.Equal(t, []float64{7, 7, 7, 7}, Quantiles([]float64{7}, 5))
}

func TestColorOf(t *testing.T) {
	th := []float64{3, 5, 7, 9}
	tests := []struct {
		value float64
		want  string
	}{
		{1, "#fee5d9"},
		{2.99, "#fee5d9"},
		{3, "#fcbba1"},
		{6, "#fc9272"},
		{8.5, "#ef3b2c"},
		{9, "#99000d"},
		{100, "#99000d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorOf(tt.value, th, Palette), tt.value)
	}
	assert.Equal(t, "#fee5d9", ColorOf(4, nil, Palette))
	assert.Empty(t, ColorOf(4, th, nil))
}

func TestLegend(t *testing.T) {
	got := Legend([]float64{3, 5.125, 7, 9.999}, Palette)
	require.Len(t, got, 5)
	assert.Equal(t, LegendEntry{Color: "#fee5d9", Label: "< 3.00"}, got[0])
	assert.Equal(t, "3.00 - 5.12", got[1].Label)
	assert.Equal(t, "5.12 - 7.00", got[2].Label)
	assert.Equal(t, "7.00 - 10.00", got[3].Label)
	assert.Equal(t, LegendEntry{Color: "#99000d", Label: "> 10.00"}, got[4])
	assert.Nil(t, Legend(nil, Palette))
}

func TestBuild(t *testing.T) {
	snap := &model.YearlySnapshot{
		Year: 2024,
		CrimeRates: map[string]float64{
			"Westminster": 11, "Camden": 1, "Hackney": 2, "Islington": 3, "Lambeth": 4,
			"Southwark": 5, "Newham": 6, "Brent": 7, "Ealing": 8, "Barnet": 9, "Croydon": 10,
		},
	}
	m := Build(snap)

	assert.Equal(t, 2024, m.Year)
	assert.Equal(t, Title, m.Title)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, m.Domain)
	assert.InDeltaSlice(t, []float64{3, 5, 7, 9}, m.Thresholds, 1e-9)
	assert.Len(t, m.Legend, 5)
	assert.Equal(t, "#fee5d9", m.Colors["Camden"])
	assert.Equal(t, "#99000d", m.Colors["Westminster"])
	assert.Len(t, m.Tooltips, 11)
	assert.Equal(t, "Barnet", m.Tooltips[0].Borough)

	tip, ok := m.Tooltip("Westminster")
	require.True(t, ok)
	assert.Equal(t, "Crime Rate: 11.00 per 1,000 people", tip.Text)

	_, ok = m.Tooltip("City of London")
	assert.False(t, ok)
	assert.NotContains(t, m.Colors, "City of London")
}

func TestBuild_Empty(t *testing.T) {
	m := Build(&model.YearlySnapshot{Year: 2015})
	assert.Empty(t, m.Domain)
	assert.Nil(t, m.Thresholds)
	assert.Nil(t, m.Legend)
	assert.Empty(t, m.Tooltips)
}
