package match

import (
	"cmp"
	"slices"
)

// Rank splits outcomes into scored candidates, sorted by descending score,
// and failures in input order. Equal scores keep their input order.
func Rank(outcomes []Outcome) ([]Ranked, []Outcome) {
	ranked := make([]Ranked, 0, len(outcomes))
	var failures []Outcome

	for _, o := range outcomes {
		if !o.OK() {
			failures = append(failures, o)
			continue
		}
		ranked = append(ranked, Ranked{Index: o.Index, Locator: o.Locator, Score: o.Score})
	}

	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(b.Score, a.Score)
	})

	slices.SortStableFunc(failures, func(a, b Outcome) int {
		return cmp.Compare(a.Index, b.Index)
	})

	return ranked, failures
}
