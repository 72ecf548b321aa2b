package reconcile

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/logging"
	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/tabular"
)

// Pair is an input row with the result set returned for it.
type Pair struct {
	Label    string
	Row      tabular.Row
	Response periodo.ResultSet
}

// Resolution holds the match fields resolved for one row.
type Resolution struct {
	MatchNum        int
	MatchName       string
	MatchID         string
	CandidatesCount int
	FallbackID      string
	FallbackName    string
}

// Matched reports whether the row has a primary match.
func (r Resolution) Matched() bool {
	return r.MatchID != ""
}

// ResolvedRow is an input row with its resolution.
type ResolvedRow struct {
	Row        tabular.Row
	Resolution Resolution
}

// Result is the outcome of one resolution run.
type Result struct {
	Header      []string
	Rows        []ResolvedRow
	Summary     *Summary
	Frequencies *FrequencyTable

	// Incomplete is set when pages failed and only part of the input was
	// resolved. Fallbacks are then computed from the resolved part only.
	Incomplete bool
}

// Table returns the resolved rows with the match fields appended.
func (r *Result) Table() *tabular.Table {
	t := tabular.NewTable(r.Header...)
	for _, row := range r.Rows {
		t.Append(row.Row)
	}
	return t
}

// FieldIncomplete marks summary entries exported from a partial run.
const FieldIncomplete = "incomplete"

// SummaryTable exports the summary. After a partial run every entry
// carries incomplete=true because its fallbacks only reflect resolved rows.
func (r *Result) SummaryTable() *tabular.Table {
	t := r.Summary.Table()
	if !r.Incomplete {
		return t
	}
	t.Header = append(t.Header, FieldIncomplete)
	for i := range t.Rows {
		t.Rows[i].Set(FieldIncomplete, "true")
	}
	return t
}

// Stats counts rows by outcome.
func (r *Result) Stats() Stats {
	s := Stats{Rows: len(r.Rows)}
	for _, row := range r.Rows {
		switch {
		case row.Resolution.Matched():
			s.Matched++
		case row.Resolution.FallbackID != "":
			s.Fallback++
		default:
			s.Unmatched++
		}
	}
	return s
}

// Stats summarises a resolution run.
type Stats struct {
	Rows      int `json:"rows" yaml:"rows"`
	Matched   int `json:"matched" yaml:"matched"`
	Fallback  int `json:"fallback" yaml:"fallback"`
	Unmatched int `json:"unmatched" yaml:"unmatched"`
}

// Resolver derives match fields from (row, response) pairs.
type Resolver struct {
	fields       Fields
	topCandidate bool
	ignored      map[string]struct{}
	outputFields []string
	logger       *zerolog.Logger
}

// NewResolver creates a resolver. outputFields names the six appended
// fields in write order.
func NewResolver(fields Fields, topCandidate bool, ignored []string, outputFields []string, logger *zerolog.Logger) *Resolver {
	set := make(map[string]struct{}, len(ignored))
	for _, q := range ignored {
		set[q] = struct{}{}
	}
	if len(outputFields) != len(constants.MatchFields) {
		outputFields = constants.MatchFields
	}
	return &Resolver{
		fields:       fields,
		topCandidate: topCandidate,
		ignored:      set,
		outputFields: outputFields,
		logger:       logging.OrNop(logger),
	}
}

// Ignored reports whether text is on the ignore list.
func (r *Resolver) Ignored(text string) bool {
	_, ok := r.ignored[text]
	return ok
}

// Resolve runs both passes over pairs in order. The first pass assigns
// primary matches and fills the frequency table; the second assigns
// fallbacks from it and builds the summary. Input rows are not modified.
func (r *Resolver) Resolve(pairs []Pair) (*Result, error) {
	freq := NewFrequencyTable()
	resolutions := make([]Resolution, len(pairs))

	for i, p := range pairs {
		res, err := r.primary(p, freq)
		if err != nil {
			return nil, err
		}
		resolutions[i] = res
	}

	summary := NewSummary()
	rows := make([]ResolvedRow, len(pairs))
	for i, p := range pairs {
		res := resolutions[i]
		text := p.Row.Value(r.fields.Query)
		if !res.Matched() {
			if pair, ok := freq.MostFrequent(text); ok {
				res.FallbackID = pair.ID
				res.FallbackName = pair.Name
			}
		}

		summary.Add(SummaryKey{
			Query:      text,
			Location:   r.value(p.Row, r.fields.Location),
			Start:      r.value(p.Row, r.fields.Start),
			Stop:       r.value(p.Row, r.fields.Stop),
			Resolution: res,
		})
		rows[i] = ResolvedRow{Row: r.apply(p.Row, res), Resolution: res}
	}

	r.logger.Debug().
		Int("rows", len(rows)).
		Int("distinct_queries", freq.Len()).
		Int("summary_buckets", summary.Len()).
		Msg("Resolved matches")

	return &Result{Rows: rows, Summary: summary, Frequencies: freq}, nil
}

// primary resolves the row's own match and records it for fallback use.
func (r *Resolver) primary(p Pair, freq *FrequencyTable) (Resolution, error) {
	text := p.Row.Value(r.fields.Query)
	candidates := p.Response.Result

	if err := checkOrder(p.Label, candidates); err != nil {
		return Resolution{}, err
	}

	var exact []periodo.Candidate
	for _, c := range candidates {
		if c.Match {
			exact = append(exact, c)
		}
	}
	if len(exact) > 1 {
		ids := make([]string, len(exact))
		for i, c := range exact {
			ids[i] = c.ID
		}
		return Resolution{}, &errors.InvariantViolation{Query: text, Label: p.Label, Matches: ids}
	}

	res := Resolution{MatchNum: len(exact), CandidatesCount: len(candidates)}

	var chosen *periodo.Candidate
	switch {
	case len(exact) == 1:
		chosen = &exact[0]
	case r.topCandidate && len(candidates) > 0:
		chosen = &candidates[0]
	}
	if chosen != nil {
		res.MatchName = chosen.Name
		res.MatchID = chosen.ID
		freq.Observe(text, MatchPair{ID: chosen.ID, Name: chosen.Name})
	}

	if r.Ignored(text) {
		res.MatchNum = 0
		res.MatchName = ""
		res.MatchID = ""
	}
	return res, nil
}

// apply returns a copy of row with the match fields appended.
func (r *Resolver) apply(row tabular.Row, res Resolution) tabular.Row {
	out := row.Clone()
	values := []string{
		strconv.Itoa(res.MatchNum),
		res.MatchName,
		res.MatchID,
		strconv.Itoa(res.CandidatesCount),
		res.FallbackID,
		res.FallbackName,
	}
	for i, field := range r.outputFields {
		out.Set(field, values[i])
	}
	return out
}

func (r *Resolver) value(row tabular.Row, field string) string {
	if field == "" {
		return ""
	}
	return row.Value(field)
}

// checkOrder fails when candidate scores increase, since top-candidate
// selection relies on best-first order.
func checkOrder(label string, candidates []periodo.Candidate) error {
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			return errors.NewProtocolError("", label,
				fmt.Sprintf("candidates not ordered by score: %q (%g) follows %q (%g)",
					candidates[i].ID, candidates[i].Score, candidates[i-1].ID, candidates[i-1].Score), nil)
		}
	}
	return nil
}
