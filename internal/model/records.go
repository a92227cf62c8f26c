package model

// Row is one line of a tabular source, keyed by the header row.
type Row map[string]string

// Columns consumed from the crime and population files.
const (
	ColAreaType   = "Area Type"
	ColBorough    = "Borough_SNT"
	ColSubtype    = "Crime Subtype"
	ColCount      = "Count"
	ColAreaName   = "Area name"
	ColPopulation = "GLA Population estimate/ projection"
)

// AreaTypeBorough marks crime rows that describe a single borough.
const AreaTypeBorough = "Borough"

// RawCrimeRecord is one line of a yearly crime file. Count is kept as text
// until the aggregator parses it.
type RawCrimeRecord struct {
	AreaType string `json:"area_type"`
	Borough  string `json:"borough"`
	Subtype  string `json:"subtype"`
	Count    string `json:"count"`
}

// RawPopulationRecord is one line of a yearly population file.
type RawPopulationRecord struct {
	AreaName   string `json:"area_name"`
	Population string `json:"population"`
}

// CrimeRecordFromRow maps a header-keyed row onto a RawCrimeRecord.
func CrimeRecordFromRow(r Row) RawCrimeRecord {
	return RawCrimeRecord{
		AreaType: r[ColAreaType],
		Borough:  r[ColBorough],
		Subtype:  r[ColSubtype],
		Count:    r[ColCount],
	}
}

// PopulationRecordFromRow maps a header-keyed row onto a RawPopulationRecord.
func PopulationRecordFromRow(r Row) RawPopulationRecord {
	return RawPopulationRecord{
		AreaName:   r[ColAreaName],
		Population: r[ColPopulation],
	}
}

// CrimeRecords converts loader rows into crime records, preserving order.
func CrimeRecords(rows []Row) []RawCrimeRecord {
	out := make([]RawCrimeRecord, len(rows))
	for i, r := range rows {
		out[i] = CrimeRecordFromRow(r)
	}
	return out
}

// PopulationRecords converts loader rows into population records, preserving order.
func PopulationRecords(rows []Row) []RawPopulationRecord {
	out := make([]RawPopulationRecord, len(rows))
	for i, r := range rows {
		out[i] = PopulationRecordFromRow(r)
	}
	return out
}
