package reconcile

import (
	"slices"
	"strconv"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/tabular"
)

// SummaryFields is the header of an exported summary.
var SummaryFields = []string{
	"query", "location", "start", "stop",
	constants.FieldMatchNum,
	constants.FieldMatchName,
	constants.FieldMatchID,
	constants.FieldCandidatesCount,
	constants.FieldMatchFallbackID,
	constants.FieldMatchFallbackName,
	"row_count",
}

// SummaryKey identifies one histogram bucket: the raw input values of a
// row and everything resolved for it.
type SummaryKey struct {
	Query    string
	Location string
	Start    string
	Stop     string
	Resolution
}

// SummaryEntry is a bucket with its count.
type SummaryEntry struct {
	SummaryKey
	RowCount int
}

// Summary is a histogram of resolved rows.
type Summary struct {
	order  []SummaryKey
	counts map[SummaryKey]int
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{counts: make(map[SummaryKey]int)}
}

// Add counts one row under key.
func (s *Summary) Add(key SummaryKey) {
	if _, ok := s.counts[key]; !ok {
		s.order = append(s.order, key)
	}
	s.counts[key]++
}

// Count returns the rows counted under key.
func (s *Summary) Count(key SummaryKey) int {
	return s.counts[key]
}

// Len returns the number of distinct buckets.
func (s *Summary) Len() int {
	return len(s.order)
}

// Total returns the number of rows counted.
func (s *Summary) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// Entries returns the buckets by descending count; equal counts keep
// first-observed order.
func (s *Summary) Entries() []SummaryEntry {
	out := make([]SummaryEntry, len(s.order))
	for i, k := range s.order {
		out[i] = SummaryEntry{SummaryKey: k, RowCount: s.counts[k]}
	}
	slices.SortStableFunc(out, func(a, b SummaryEntry) int {
		return b.RowCount - a.RowCount
	})
	return out
}

// Table renders the summary for export.
func (s *Summary) Table() *tabular.Table {
	t := tabular.NewTable(SummaryFields...)
	t.Numeric = []string{constants.FieldMatchNum, constants.FieldCandidatesCount, "row_count"}
	for _, e := range s.Entries() {
		t.Append(tabular.NewRow(SummaryFields, []string{
			e.Query, e.Location, e.Start, e.Stop,
			strconv.Itoa(e.MatchNum),
			e.MatchName,
			e.MatchID,
			strconv.Itoa(e.CandidatesCount),
			e.FallbackID,
			e.FallbackName,
			strconv.Itoa(e.RowCount),
		}))
	}
	return t
}
