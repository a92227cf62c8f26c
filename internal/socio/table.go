// Package socio holds the six socioeconomic indicator series and the
// declarative table describing how each one is labelled, formatted and
// normalised.
package socio

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/crimemap/internal/model"
)

// Indicator describes one socioeconomic dataset.
type Indicator struct {
	Name      string `yaml:"name" json:"name"`
	Label     string `yaml:"label" json:"label"`
	Unit      string `yaml:"unit" json:"unit,omitempty"`
	Format    string `yaml:"format" json:"format"`
	Normalize bool   `yaml:"normalize" json:"normalize"`
}

// Path returns the loader path of the indicator's series file.
func (i Indicator) Path() string {
	return model.SocioeconomicPath(i.Name)
}

// FormatValue renders a value with the indicator's printf format.
func (i Indicator) FormatValue(v float64) string {
	return fmt.Sprintf(i.Format, v)
}

// Table is the ordered list of indicators shown in the panel.
type Table struct {
	Indicators []Indicator `yaml:"indicators"`
}

// DefaultTable returns the six London indicators in display order.
func DefaultTable() Table {
	return Table{Indicators: []Indicator{
		{Name: "average_attainment_8_score_GCSE", Label: "Average Attainment 8 Score at GCSE", Unit: "points", Format: "%.1f"},
		{Name: "average_weekly_pay", Label: "Average Weekly Pay", Unit: "GBP", Format: "£%.2f"},
		{Name: "house_price_to_earnings", Label: "House Price to Earnings Ratio", Unit: "ratio", Format: "%.2f"},
		{Name: "unemployment", Label: "Unemployment Rate", Unit: "%", Format: "%.1f%%"},
		{Name: "households_on_LA_wait_list", Label: "Households on Local Authority Waiting List (per 1000 people)", Unit: "per 1,000 people", Format: "%.2f", Normalize: true},
		{Name: "total_families_receiving_child_benefits", Label: "Total Families Receiving Child Benefits (per 1000 people)", Unit: "per 1,000 people", Format: "%.2f", Normalize: true},
	}}
}

// LoadTable reads an indicator table from a YAML file of the form
//
//	indicators:
//	  - name: unemployment
//	    label: Unemployment Rate
//	    format: "%.1f%%"
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, eris.Wrapf(err, "socio: read table %s", path)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, eris.Wrapf(err, "socio: parse table %s", path)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate fills missing labels and formats and rejects empty or duplicate
// names and formats that do not render exactly one float.
func (t *Table) Validate() error {
	if len(t.Indicators) == 0 {
		return eris.New("socio: table has no indicators")
	}
	seen := make(map[string]bool, len(t.Indicators))
	for i := range t.Indicators {
		ind := &t.Indicators[i]
		ind.Name = strings.TrimSpace(ind.Name)
		if ind.Name == "" {
			return eris.Errorf("socio: indicator %d has no name", i)
		}
		if seen[ind.Name] {
			return eris.Errorf("socio: duplicate indicator %q", ind.Name)
		}
		seen[ind.Name] = true
		if ind.Label == "" {
			ind.Label = ind.Name
		}
		if ind.Format == "" {
			ind.Format = "%.2f"
		}
		if strings.Contains(fmt.Sprintf(ind.Format, 1.0), "%!") {
			return eris.Errorf("socio: indicator %q has bad format %q", ind.Name, ind.Format)
		}
	}
	return nil
}

// Names returns the indicator names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t.Indicators))
	for i, ind := range t.Indicators {
		names[i] = ind.Name
	}
	return names
}

// Lookup finds an indicator by name.
func (t Table) Lookup(name string) (Indicator, bool) {
	for _, ind := range t.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}
