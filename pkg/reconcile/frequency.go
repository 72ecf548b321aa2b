package reconcile

// MatchPair is an (id, name) identity observed as a match.
type MatchPair struct {
	ID   string
	Name string
}

// FrequencyTable counts the match pairs observed per raw query text.
type FrequencyTable struct {
	entries map[string]*pairCounts
}

type pairCounts struct {
	order  []MatchPair // first-observed order
	counts map[MatchPair]int
}

// NewFrequencyTable creates an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{entries: make(map[string]*pairCounts)}
}

// Observe records one occurrence of pair for text.
func (f *FrequencyTable) Observe(text string, pair MatchPair) {
	e, ok := f.entries[text]
	if !ok {
		e = &pairCounts{counts: make(map[MatchPair]int)}
		f.entries[text] = e
	}
	if _, seen := e.counts[pair]; !seen {
		e.order = append(e.order, pair)
	}
	e.counts[pair]++
}

// MostFrequent returns the pair observed most often for text. Ties go
// to the pair observed first.
func (f *FrequencyTable) MostFrequent(text string) (MatchPair, bool) {
	e, ok := f.entries[text]
	if !ok || len(e.order) == 0 {
		return MatchPair{}, false
	}
	best := e.order[0]
	for _, p := range e.order[1:] {
		if e.counts[p] > e.counts[best] {
			best = p
		}
	}
	return best, true
}

// Count returns how often pair was observed for text.
func (f *FrequencyTable) Count(text string, pair MatchPair) int {
	if e, ok := f.entries[text]; ok {
		return e.counts[pair]
	}
	return 0
}

// Len returns the number of distinct query texts with observations.
func (f *FrequencyTable) Len() int {
	return len(f.entries)
}
