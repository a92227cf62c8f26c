// Package clean normalises raw crime labels, borough names and numeric fields
// before they are aggregated.
package clean

import (
	"strings"

	"golang.org/x/text/cases"
)

// Canonical labels produced by the merge rules.
const (
	SubtypeFirearms       = "Firearms-Related Crime"
	SubtypeDomesticInjury = "Domestic Violence with Injury"
)

// CleanSubtype maps a raw crime subtype onto its canonical label. Rules are
// applied in order and the first match wins; unmatched labels pass through.
func CleanSubtype(raw string) string {
	folded := cases.Fold().String(raw)
	switch {
	case strings.Contains(folded, "gun"), strings.Contains(folded, "lethal barrel"):
		return SubtypeFirearms
	case strings.Contains(folded, "domestic abuse violence with injury"):
		return SubtypeDomesticInjury
	}
	return raw
}

// NormalizeBorough rewrites "&" as "and" so crime-file names line up with the
// population file ("Barking & Dagenham" -> "Barking and Dagenham").
func NormalizeBorough(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "&", "and"))
}
