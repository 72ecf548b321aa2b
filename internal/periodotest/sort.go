package periodotest

import (
	"slices"
	"strconv"
	"strings"

	"github.com/periodo/reconciler/pkg/periodo"
)

// sortLabels orders labels numerically when they are integers, so page
// labels "0".."n-1" are logged in row order.
func sortLabels(labels []string) {
	slices.SortFunc(labels, func(a, b string) int {
		ai, aerr := strconv.Atoi(a)
		bi, berr := strconv.Atoi(b)
		if aerr == nil && berr == nil {
			return ai - bi
		}
		return strings.Compare(a, b)
	})
}

func sortCandidates(cs []periodo.Candidate) {
	slices.SortFunc(cs, func(a, b periodo.Candidate) int {
		return strings.Compare(a.ID, b.ID)
	})
}
