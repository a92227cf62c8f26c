package clean

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrMalformedNumber is returned when a numeric field is not a number once
// thousands separators are removed.
var ErrMalformedNumber = eris.New("clean: malformed number")

func stripSeparators(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
}

// ParseCount parses an integer field such as "12,345".
func ParseCount(raw string) (int64, error) {
	s := stripSeparators(raw)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(ErrMalformedNumber, "parse count %q", raw)
	}
	return v, nil
}

// ParseDecimal parses a decimal field such as "1,234.5". Non-finite values
// are rejected.
func ParseDecimal(raw string) (float64, error) {
	s := stripSeparators(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Wrapf(ErrMalformedNumber, "parse decimal %q", raw)
	}
	return v, nil
}

// IsBlank reports whether a cell carries no value at all.
func IsBlank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}
