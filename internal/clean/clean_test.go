package clean

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSubtype(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Gun Crime", SubtypeFirearms},
		{"Gun Crime Lethal Barrel Discharges", SubtypeFirearms},
		{"Lethal Barrel Discharge", SubtypeFirearms},
		{"Non-Lethal Gun Crime", SubtypeFirearms},
		{"Domestic Abuse Violence with Injury", SubtypeDomesticInjury},
		{"Domestic Abuse VIOLENCE WITH INJURY", SubtypeDomesticInjury},
		{"domestic abuse violence with injury", SubtypeDomesticInjury},
		{"Burglary", "Burglary"},
		{"Knife Crime", "Knife Crime"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSubtype(tt.raw))
		})
	}
}

func TestCleanSubtype_FirstRuleWins(t *testing.T) {
	// Matches both rules; the firearms rule comes first.
	assert.Equal(t, SubtypeFirearms, CleanSubtype("Domestic Abuse Violence with Injury (gun)"))
}

func TestNormalizeBorough(t *testing.T) {
	assert.Equal(t, "Barking and Dagenham", NormalizeBorough("Barking & Dagenham"))
	assert.Equal(t, "Hammersmith and Fulham", NormalizeBorough("Hammersmith & Fulham"))
	assert.Equal(t, "Camden", NormalizeBorough(" Camden "))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"1,234", 1234},
		{"9,876,543", 9876543},
		{" 100 ", 100},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseCount(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCount_Malformed(t *testing.T) {
	for _, raw := range []string{"", "abc", "12.5", "1,2x"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseCount(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedNumber))
		})
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"3.5", 3.5},
		{"1,234.25", 1234.25},
		{"100,000", 100000},
		{"-2", -2},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDecimal(tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDecimal_Malformed(t *testing.T) {
	for _, raw := range []string{"", "n/a", ":", "NaN", "Inf"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseDecimal(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedNumber)
		})
	}
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank("  "))
	assert.False(t, IsBlank("0"))
}
