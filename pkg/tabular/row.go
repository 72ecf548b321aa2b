// Package tabular reads and writes the row-oriented files a batch
// reconciliation consumes and produces: CSV, TSV and XLSX tables, plus
// JSON and YAML renderings for summaries.
package tabular

import "slices"

// Row is an ordered mapping from field name to value. Fields keep the
// order they were first set in; setting an existing field replaces its
// value in place.
type Row struct {
	fields []string
	values map[string]string
}

// NewRow builds a row from a header and a record. Header fields past the
// end of a short record are absent from the row, not blank.
func NewRow(header, record []string) Row {
	r := Row{
		fields: make([]string, 0, len(header)),
		values: make(map[string]string, len(header)),
	}
	for i, field := range header {
		if i >= len(record) {
			break
		}
		r.Set(field, record[i])
	}
	return r
}

// RowOf builds a row from alternating field, value pairs.
func RowOf(pairs ...string) Row {
	var r Row
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Get returns the value of field and whether it is present.
func (r Row) Get(field string) (string, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Value returns the value of field, or "" when absent.
func (r Row) Value(field string) string {
	return r.values[field]
}

// Has reports whether field is present.
func (r Row) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Set assigns a value, appending field when it is new.
func (r *Row) Set(field, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = value
}

// Fields returns the field names in order.
func (r Row) Fields() []string {
	return slices.Clone(r.fields)
}

// Len returns the number of fields.
func (r Row) Len() int {
	return len(r.fields)
}

// Record returns the values for header in header order. Absent fields
// are written as "".
func (r Row) Record(header []string) []string {
	out := make([]string, len(header))
	for i, field := range header {
		out[i] = r.values[field]
	}
	return out
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	c := Row{
		fields: slices.Clone(r.fields),
		values: make(map[string]string, len(r.values)),
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether two rows have the same fields in the same order
// with the same values.
func (r Row) Equal(other Row) bool {
	if !slices.Equal(r.fields, other.fields) {
		return false
	}
	for _, f := range r.fields {
		if r.values[f] != other.values[f] {
			return false
		}
	}
	return true
}

// Table is a header plus the rows read under it.
type Table struct {
	Header []string
	Rows   []Row

	// Numeric lists fields written as numbers by the typed formats
	// (xlsx, json, yaml) when their value parses as an integer.
	Numeric []string
}

// NewTable creates an empty table with the given header.
func NewTable(header ...string) *Table {
	return &Table{Header: slices.Clone(header)}
}

// Append adds rows to the table.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// HasField reports whether the header contains field.
func (t *Table) HasField(field string) bool {
	return slices.Contains(t.Header, field)
}
