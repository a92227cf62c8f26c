// Package rank orders borough statistics and renders ordinal positions.
package rank

import (
	"fmt"
	"slices"

	"github.com/rotisserie/eris"
)

// ErrValueNotInRanking is returned when a value is ranked against a sequence
// that does not contain it. Callers always rank a value drawn from the same
// sequence, so this signals a contract violation.
var ErrValueNotInRanking = eris.New("rank: value not in ranking")

// DisplayRank is a 1-based position with its English ordinal suffix.
type DisplayRank struct {
	Position int    `json:"position"`
	Suffix   string `json:"suffix"`
}

// String renders the rank as "(1st)", "(12th)", "(23rd)".
func (d DisplayRank) String() string {
	return fmt.Sprintf("(%d%s)", d.Position, d.Suffix)
}

// Suffix returns the ordinal suffix for a position.
func Suffix(position int) string {
	switch position % 100 {
	case 11, 12, 13:
		return "th"
	}
	switch position % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Ranking is a sequence of values sorted in descending order.
type Ranking []float64

// NewRanking copies values and sorts them descending. Ties are kept.
func NewRanking(values []float64) Ranking {
	r := slices.Clone(values)
	slices.SortFunc(r, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		default:
			return 0
		}
	})
	return Ranking(r)
}

// Of returns the position of the first element exactly equal to value.
// Tied values therefore share the position of the first of them.
func (r Ranking) Of(value float64) (DisplayRank, error) {
	idx := slices.Index(r, value)
	if idx < 0 {
		return DisplayRank{}, eris.Wrapf(ErrValueNotInRanking, "value %v among %d", value, len(r))
	}
	pos := idx + 1
	return DisplayRank{Position: pos, Suffix: Suffix(pos)}, nil
}

// Rank sorts all descending and returns value's position within it.
func Rank(value float64, all []float64) (DisplayRank, error) {
	return NewRanking(all).Of(value)
}
