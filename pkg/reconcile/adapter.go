package reconcile

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/query"
	"github.com/periodo/reconciler/pkg/tabular"
)

// Property names sent to the service for the auxiliary fields.
const (
	PropertyLocation = "location"
	PropertyStart    = "start"
	PropertyStop     = "stop"
)

// Fields names the input columns a Reconciler reads. Query is required;
// an empty auxiliary field is not configured and never sent.
type Fields struct {
	Query    string
	Location string
	Start    string
	Stop     string
}

// configured returns (property, column) pairs for the set auxiliary fields.
func (f Fields) configured() [][2]string {
	var out [][2]string
	for _, p := range [][2]string{
		{PropertyLocation, f.Location},
		{PropertyStart, f.Start},
		{PropertyStop, f.Stop},
	} {
		if p[1] != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks that every configured field exists in header.
func (f Fields) Validate(header []string) error {
	if f.Query == "" {
		return errors.NewConfigurationError("query", "query field is required")
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, name := range []string{f.Query, f.Location, f.Start, f.Stop} {
		if name != "" && !present[name] {
			return errors.NewConfigurationError(name, "field not found in input header")
		}
	}
	return nil
}

// Adapter maps input rows to queries.
type Adapter struct {
	fields    Fields
	transpose bool
}

// NewAdapter creates an adapter reading the given fields.
func NewAdapter(fields Fields, transpose bool) *Adapter {
	return &Adapter{fields: fields, transpose: transpose}
}

// Text returns the query text the row is reconciled with.
func (a *Adapter) Text(row tabular.Row) string {
	text := row.Value(a.fields.Query)
	if a.transpose {
		text = Transpose(text)
	}
	return text
}

// Query builds the query for row under label. Auxiliary fields missing
// from the row are skipped.
func (a *Adapter) Query(row tabular.Row, label string) query.Query {
	var props []query.Property
	for _, p := range a.fields.configured() {
		if v, ok := row.Get(p[1]); ok {
			props = append(props, query.Property{Name: p[0], Value: v})
		}
	}
	return query.New(a.Text(row), query.WithLabel(label), query.WithProperties(props...))
}

// Transpose swaps the terms of text when it holds exactly two non-empty
// comma-separated terms, joining them with a space. Any other text is
// returned unchanged.
func Transpose(text string) string {
	head, tail, ok := strings.Cut(text, ",")
	if !ok || strings.Contains(tail, ",") {
		return text
	}
	head, tail = strings.TrimSpace(head), strings.TrimSpace(tail)
	if head == "" || tail == "" {
		return text
	}
	return tail + " " + head
}

// ParseIgnoredQueries reads ignored query texts from one CSV-encoded line.
// An empty line yields no queries.
func ParseIgnoredQueries(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapConfiguration("ignore", errors.WrapParse("csv", "", err))
	}
	return record, nil
}
