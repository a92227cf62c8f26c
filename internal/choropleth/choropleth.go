// Package choropleth computes what the map surface needs to colour boroughs
// by crime rate: a sorted domain, quantile thresholds, legend text and a
// colour and tooltip per borough.
package choropleth

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/sells-group/crimemap/internal/model"
)

// Title heads the legend.
const Title = "Crime Rate (per 1,000 people)"

// Palette is the sequential red scale, lightest first.
var Palette = []string{"#fee5d9", "#fcbba1", "#fc9272", "#ef3b2c", "#99000d"}

// LegendEntry pairs a colour with the range of rates it covers.
type LegendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// Tooltip is the hover text for a recorded borough.
type Tooltip struct {
	Borough string  `json:"borough"`
	Rate    float64 `json:"rate"`
	Text    string  `json:"text"`
}

// Map is the full choropleth payload for one year.
type Map struct {
	Year       int                `json:"year"`
	Title      string             `json:"title"`
	Rates      map[string]float64 `json:"rates"`
	Domain     []float64          `json:"domain"`
	Thresholds []float64          `json:"thresholds"`
	Legend     []LegendEntry      `json:"legend"`
	Colors     map[string]string  `json:"colors"`
	Tooltips   []Tooltip          `json:"tooltips"`
}

// Build derives the map payload from a snapshot. Boroughs missing from the
// snapshot get neither a colour nor a tooltip.
func Build(snap *model.YearlySnapshot) *Map {
	domain := snap.RateValues()
	slices.Sort(domain)

	m := &Map{
		Year:       snap.Year,
		Title:      Title,
		Rates:      make(map[string]float64, len(snap.CrimeRates)),
		Domain:     domain,
		Thresholds: Quantiles(domain, len(Palette)),
		Colors:     make(map[string]string, len(snap.CrimeRates)),
	}
	m.Legend = Legend(m.Thresholds, Palette)

	for _, b := range snap.Boroughs() {
		rate := snap.CrimeRates[b]
		m.Rates[b] = rate
		m.Colors[b] = ColorOf(rate, m.Thresholds, Palette)
		m.Tooltips = append(m.Tooltips, Tooltip{
			Borough: b,
			Rate:    rate,
			Text:    fmt.Sprintf("Crime Rate: %.2f per 1,000 people", rate),
		})
	}
	return m
}

// Tooltip returns the hover text for a borough.
func (m *Map) Tooltip(borough string) (Tooltip, bool) {
	i := sort.Search(len(m.Tooltips), func(i int) bool { return m.Tooltips[i].Borough >= borough })
	if i < len(m.Tooltips) && m.Tooltips[i].Borough == borough {
		return m.Tooltips[i], true
	}
	return Tooltip{}, false
}

// Quantiles returns the n-1 thresholds splitting an ascending domain into n
// equally populated buckets, interpolating between neighbours.
func Quantiles(sorted []float64, n int) []float64 {
	if len(sorted) == 0 || n < 2 {
		return nil
	}
	out := make([]float64, n-1)
	for i := 1; i < n; i++ {
		out[i-1] = quantileSorted(sorted, float64(i)/float64(n))
	}
	return out
}

func quantileSorted(x []float64, p float64) float64 {
	n := len(x)
	if p <= 0 || n < 2 {
		return x[0]
	}
	if p >= 1 {
		return x[n-1]
	}
	pos := float64(n-1) * p
	lo := int(math.Floor(pos))
	v0 := x[lo]
	v1 := x[lo+1]
	return v0 + (v1-v0)*(pos-float64(lo))
}

// ColorOf picks the palette entry of the bucket holding value. A value equal
// to a threshold falls in the upper bucket.
func ColorOf(value float64, thresholds []float64, palette []string) string {
	if len(palette) == 0 {
		return ""
	}
	i := sort.Search(len(thresholds), func(i int) bool { return thresholds[i] > value })
	if i >= len(palette) {
		i = len(palette) - 1
	}
	return palette[i]
}

// Legend labels each palette colour with its range: "< t0" for the first,
// "> tN" for the last and "a - b" between.
func Legend(thresholds []float64, palette []string) []LegendEntry {
	if len(thresholds) == 0 {
		return nil
	}
	out := make([]LegendEntry, len(palette))
	last := len(palette) - 1
	for i, c := range palette {
		var label string
		switch {
		case i == 0:
			label = fmt.Sprintf("< %.2f", thresholds[0])
		case i == last:
			label = fmt.Sprintf("> %.2f", thresholds[len(thresholds)-1])
		case i < len(thresholds):
			label = fmt.Sprintf("%.2f - %.2f", thresholds[i-1], thresholds[i])
		}
		out[i] = LegendEntry{Color: c, Label: label}
	}
	return out
}
