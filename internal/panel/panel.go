// Package panel assembles the ranked statistics shown for a selected borough.
package panel

import (
	"fmt"

	"github.com/rotisserie/eris"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/crimemap/internal/aggregate"
	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/rank"
	"github.com/sells-group/crimemap/internal/socio"
)

// ErrBoroughNotRecorded is returned for a borough with no crime data in the
// selected year, such as the City of London.
var ErrBoroughNotRecorded = eris.New("panel: borough not recorded")

// Source acknowledgements shown under each half of the panel.
const (
	CrimeNote = "Sources: London Data Store (MPS Monthly Crime Dashboard Data - Other Crime Data). " +
		"Note: Some crimes, e.g. Knife Crime are not recorded as a separate category beyond 2020."
	IndicatorNote = "Sources: London Data Store, Cambridge Assessment, Office for National Statistics (Nomis). " +
		"Note: GCSE results from 2015 are estimates using the Raw Average Point Score Per Pupil."
)

const rateUnit = "per 1,000 people"

var displayLanguage = language.BritishEnglish

// Record is one ranked statistic ready for display.
type Record struct {
	Label    string           `json:"label"`
	Value    float64          `json:"value"`
	Display  string           `json:"display"`
	Unit     string           `json:"unit,omitempty"`
	Rank     rank.DisplayRank `json:"rank"`
	RankText string           `json:"rank_text"`
}

// IndicatorRecord is a socioeconomic statistic. Available is false when the
// dataset has no value for the borough in that year; Value and Rank are then
// zero.
type IndicatorRecord struct {
	Record
	Name       string `json:"name"`
	Normalized bool   `json:"normalized"`
	Available  bool   `json:"available"`
}

// PanelData is everything the panel renderer needs for one borough and year.
type PanelData struct {
	Borough       string            `json:"borough"`
	Year          int               `json:"year"`
	Header        string            `json:"header"`
	CrimeRate     Record            `json:"crime_rate"`
	Subtypes      []Record          `json:"subtypes"`
	Population    Record            `json:"population"`
	Indicators    []IndicatorRecord `json:"indicators"`
	CrimeNote     string            `json:"crime_note"`
	IndicatorNote string            `json:"indicator_note"`
}

// Source exposes the loaded data the assembler reads.
type Source interface {
	Snapshot(year int) (*model.YearlySnapshot, error)
	Socio() *socio.Series
}

// Assembler builds PanelData. It only reads from its source.
type Assembler struct {
	src Source
}

// NewAssembler returns an Assembler over src.
func NewAssembler(src Source) *Assembler {
	return &Assembler{src: src}
}

// Assemble ranks every statistic of a borough against the boroughs recorded
// in the same year.
func (a *Assembler) Assemble(borough string, year int) (*PanelData, error) {
	snap, err := a.src.Snapshot(year)
	if err != nil {
		return nil, err
	}
	if !snap.HasBorough(borough) {
		return nil, eris.Wrapf(ErrBoroughNotRecorded, "%s in %d", borough, year)
	}

	out := &PanelData{
		Borough:       borough,
		Year:          year,
		Header:        fmt.Sprintf("%s, %d", borough, year),
		CrimeNote:     CrimeNote,
		IndicatorNote: IndicatorNote,
	}

	rate := snap.CrimeRates[borough]
	if out.CrimeRate, err = ranked("Crime Rate", rate, fmt.Sprintf("%.2f", rate), rateUnit, snap.RateValues()); err != nil {
		return nil, eris.Wrap(err, "panel: crime rate")
	}

	if out.Subtypes, err = subtypeRecords(snap, borough); err != nil {
		return nil, err
	}

	pops, popUniverse, err := populations(snap)
	if err != nil {
		return nil, err
	}
	if out.Population, err = populationRecord(snap, popUniverse, borough); err != nil {
		return nil, err
	}

	if out.Indicators, err = indicatorRecords(a.src.Socio(), snap, pops, borough); err != nil {
		return nil, err
	}
	return out, nil
}

func ranked(label string, value float64, display, unit string, universe []float64) (Record, error) {
	r, err := rank.Rank(value, universe)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Label:    label,
		Value:    value,
		Display:  display,
		Unit:     unit,
		Rank:     r,
		RankText: r.String(),
	}, nil
}

func subtypeRecords(snap *model.YearlySnapshot, borough string) ([]Record, error) {
	rates := snap.SubtypeRates[borough]
	names := make([]string, 0, len(rates))
	for name := range rates {
		names = append(names, name)
	}
	collate.New(displayLanguage).SortStrings(names)

	out := make([]Record, 0, len(names))
	for _, name := range names {
		v := rates[name]
		rec, err := ranked(name, v, fmt.Sprintf("%.2f", v), rateUnit, snap.SubtypeValues(name))
		if err != nil {
			return nil, eris.Wrapf(err, "panel: subtype %s", name)
		}
		out = append(out, rec)
	}
	return out, nil
}

// populations parses the cleaned population rows of the year. The map keeps
// the first row of an area; the slice holds every row, duplicates included,
// and is the population rank universe.
func populations(snap *model.YearlySnapshot) (map[string]float64, []float64, error) {
	byArea := make(map[string]float64, len(snap.Population))
	all := make([]float64, 0, len(snap.Population))
	for _, p := range snap.Population {
		v, err := aggregate.Population(p)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "panel: population of %s", p.AreaName)
		}
		all = append(all, v)
		if _, dup := byArea[p.AreaName]; !dup {
			byArea[p.AreaName] = v
		}
	}
	return byArea, all, nil
}

func populationRecord(snap *model.YearlySnapshot, universe []float64, borough string) (Record, error) {
	row, ok := snap.PopulationRow(borough)
	if !ok {
		return Record{}, eris.Wrapf(ErrBoroughNotRecorded, "no population row for %s", borough)
	}
	pop, err := aggregate.Population(row)
	if err != nil {
		return Record{}, eris.Wrapf(err, "panel: population of %s", borough)
	}
	display := message.NewPrinter(displayLanguage).Sprintf("%d", int64(pop))
	rec, err := ranked("Population", pop, display, "", universe)
	if err != nil {
		return Record{}, eris.Wrap(err, "panel: population")
	}
	return rec, nil
}

func indicatorRecords(series *socio.Series, snap *model.YearlySnapshot, pops map[string]float64, borough string) ([]IndicatorRecord, error) {
	if series == nil {
		return nil, nil
	}
	valid := snap.Boroughs()
	table := series.Table()

	out := make([]IndicatorRecord, 0, len(table.Indicators))
	for _, ind := range table.Indicators {
		universe := series.Universe(ind.Name, snap.Year, valid)
		if ind.Normalize {
			for b, v := range universe {
				universe[b] = aggregate.NormalisePer1000(v, pops[b])
			}
		}

		rec := IndicatorRecord{
			Record:     Record{Label: ind.Label, Unit: ind.Unit, Display: "no data"},
			Name:       ind.Name,
			Normalized: ind.Normalize,
		}
		if v, ok := universe[borough]; ok {
			r, err := ranked(ind.Label, v, ind.FormatValue(v), ind.Unit, values(universe))
			if err != nil {
				return nil, eris.Wrapf(err, "panel: indicator %s", ind.Name)
			}
			rec.Record = r
			rec.Available = true
		}
		out = append(out, rec)
	}
	return out, nil
}

func values(m map[string]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
