package output

import (
	"strconv"
	"strings"

	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/reconcile"
)

// CandidatesToData renders candidates best first.
func CandidatesToData(candidates []periodo.Candidate) Data {
	rows := make([][]string, len(candidates))
	for i, c := range candidates {
		match := ""
		if c.Match {
			match = "✓"
		}
		rows[i] = []string{strconv.Itoa(i + 1), c.ID, c.Name, strconv.FormatFloat(c.Score, 'f', -1, 64), match}
	}
	return Data{
		Headers:         []string{"#", "ID", "Name", "Score", "Match"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignCenter},
	}
}

// DescriptorToData renders the service manifest as key-value rows.
func DescriptorToData(d *periodo.Descriptor) Data {
	types := make([]string, len(d.DefaultTypes))
	for i, t := range d.DefaultTypes {
		types[i] = t.Name
	}
	rows := [][]string{
		{"Name", d.Name},
		{"Identifier Space", d.IdentifierSpace},
		{"Schema Space", d.SchemaSpace},
		{"Default Types", strings.Join(types, ", ")},
	}
	if url, ok := d.View["url"].(string); ok {
		rows = append(rows, []string{"View URL", url})
	}
	if url, ok := d.Preview["url"].(string); ok {
		rows = append(rows, []string{"Preview URL", url})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

// PropertiesToData renders suggested properties.
func PropertiesToData(props []periodo.PropertySuggestion) Data {
	rows := make([][]string, len(props))
	for i, p := range props {
		rows[i] = []string{p.ID, p.Name}
	}
	return Data{Headers: []string{"ID", "Name"}, Rows: rows}
}

// StatsToData renders resolution counts.
func StatsToData(s reconcile.Stats, incomplete bool) Data {
	rows := [][]string{
		{"Rows", strconv.Itoa(s.Rows)},
		{"Matched", strconv.Itoa(s.Matched)},
		{"Fallback only", strconv.Itoa(s.Fallback)},
		{"Unmatched", strconv.Itoa(s.Unmatched)},
	}
	if incomplete {
		rows = append(rows, []string{"Incomplete", "yes (fallbacks reflect resolved pages only)"})
	}
	return Data{
		Headers:         []string{"Outcome", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}
