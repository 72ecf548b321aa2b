// Package query provides the immutable request values sent to a PeriodO
// reconciliation service and the paging helpers used to batch them.
//
// A Query carries free text plus optional auxiliary properties and a result
// limit. Its Label is only a correlation key: the service answers with a map
// from label to result set, so labels must be unique within one request.
package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/periodo/reconciler/pkg/errors"
)

// Property is one auxiliary constraint attached to a query, such as a
// location or a start year.
type Property struct {
	Name  string `json:"p"`
	Value any    `json:"v"`
}

// String mirrors the property as it appears on the wire.
func (p Property) String() string {
	name, _ := json.Marshal(p.Name)
	value, _ := json.Marshal(p.Value)
	return fmt.Sprintf("Property(%s, %s)", name, value)
}

// Query is a single reconciliation request. Use New to build one.
type Query struct {
	text       string
	label      string
	limit      *int
	properties []Property
}

// Option configures a Query.
type Option func(*Query)

// WithLabel sets an explicit label instead of a random one.
func WithLabel(label string) Option {
	return func(q *Query) {
		q.label = label
	}
}

// WithLimit caps the number of candidates the service returns.
func WithLimit(limit int) Option {
	return func(q *Query) {
		q.limit = &limit
	}
}

// WithProperties attaches auxiliary properties in the given order.
func WithProperties(properties ...Property) Option {
	return func(q *Query) {
		q.properties = append([]Property(nil), properties...)
	}
}

// New creates a query for text. Without WithLabel the query receives a
// random UUID label.
func New(text string, opts ...Option) Query {
	q := Query{text: text}
	for _, opt := range opts {
		opt(&q)
	}
	if q.label == "" {
		q.label = uuid.NewString()
	}
	return q
}

// Text returns the free-text query.
func (q Query) Text() string { return q.text }

// Label returns the correlation label.
func (q Query) Label() string { return q.label }

// Limit returns the result limit and whether one was set.
func (q Query) Limit() (int, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

// Properties returns a copy of the auxiliary properties.
func (q Query) Properties() []Property {
	return append([]Property(nil), q.properties...)
}

// Body is the wire form of a query without its label. Absent optional
// fields are omitted rather than sent as null.
type Body struct {
	Query      string     `json:"query"`
	Limit      *int       `json:"limit,omitempty"`
	Properties []Property `json:"properties,omitempty"`
}

// Body returns the wire body of the query.
func (q Query) Body() Body {
	b := Body{Query: q.text}
	if q.limit != nil {
		limit := *q.limit
		b.Limit = &limit
	}
	if len(q.properties) > 0 {
		b.Properties = q.Properties()
	}
	return b
}

// KeyValue returns the label and wire body pair the query contributes to a batch.
func (q Query) KeyValue() (string, Body) {
	return q.label, q.Body()
}

// String renders the query for debugging.
func (q Query) String() string {
	text, _ := json.Marshal(q.text)
	label, _ := json.Marshal(q.label)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Query(%s, label=%s", text, label)
	if q.limit != nil {
		fmt.Fprintf(&sb, ", limit=%d", *q.limit)
	}
	if len(q.properties) > 0 {
		parts := make([]string, len(q.properties))
		for i, p := range q.properties {
			parts[i] = p.String()
		}
		fmt.Fprintf(&sb, ", properties=[%s]", strings.Join(parts, ", "))
	}
	sb.WriteString(")")
	return sb.String()
}

// Batch is an ordered set of queries sent in one wire exchange.
type Batch []Query

// Validate checks that every label in the batch is non-empty and unique.
func (b Batch) Validate() error {
	seen := make(map[string]struct{}, len(b))
	for i, q := range b {
		if q.label == "" {
			return &errors.ValidationError{Field: "label", Value: i, Message: "query label cannot be empty"}
		}
		if _, dup := seen[q.label]; dup {
			return &errors.ValidationError{Field: "label", Value: q.label, Message: "duplicate label in batch"}
		}
		seen[q.label] = struct{}{}
	}
	return nil
}

// Labels returns the labels of the batch in order.
func (b Batch) Labels() []string {
	labels := make([]string, len(b))
	for i, q := range b {
		labels[i] = q.label
	}
	return labels
}

// MarshalJSON encodes the batch as a JSON object from label to body,
// keeping the batch order.
func (b Batch) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, q := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, body := q.KeyValue()
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
