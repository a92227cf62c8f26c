// Package model defines the records that flow through the borough crime-rate pipeline.
package model

import "fmt"

// SocioeconomicRange is the year span baked into the socioeconomic file names.
const SocioeconomicRange = "2015-2024"

// CrimePath returns the loader path of a year's crime file.
func CrimePath(year int) string {
	return fmt.Sprintf("crime_data/other_crime_data_%d.csv", year)
}

// PopulationPath returns the loader path of a year's population file.
func PopulationPath(year int) string {
	return fmt.Sprintf("population_data/population_data_%d.csv", year)
}

// SocioeconomicPath returns the loader path of an indicator's series file.
func SocioeconomicPath(indicator string) string {
	return fmt.Sprintf("socioeconomic_data/%s_data_%s.csv", indicator, SocioeconomicRange)
}
