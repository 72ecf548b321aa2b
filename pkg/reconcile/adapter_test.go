package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/query"
	"github.com/periodo/reconciler/pkg/tabular"
)

func TestTranspose(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Roman, Late", "Late Roman"},
		{"Late Roman", "Late Roman"},
		{"Bronze Age,Early", "Early Bronze Age"},
		{"a, b, c", "a, b, c"},
		{"", ""},
		{"Roman,", "Roman,"},
		{",Late", ",Late"},
		{" , ", " , "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Transpose(tt.in))
		})
	}
}

func TestAdapterQuery(t *testing.T) {
	fields := Fields{Query: "label", Location: "place", Start: "from"}
	row := tabular.RowOf("label", "Roman, Late", "place", "Italy", "from", "300", "to", "600")

	q := NewAdapter(fields, false).Query(row, "4")
	assert.Equal(t, "Roman, Late", q.Text())
	assert.Equal(t, "4", q.Label())
	assert.Equal(t, []query.Property{
		{Name: PropertyLocation, Value: "Italy"},
		{Name: PropertyStart, Value: "300"},
	}, q.Properties())
	_, limited := q.Limit()
	assert.False(t, limited)

	transposed := NewAdapter(fields, true).Query(row, "4")
	assert.Equal(t, "Late Roman", transposed.Text())
}

func TestAdapterSkipsMissingAndUnconfigured(t *testing.T) {
	row := tabular.NewRow([]string{"label", "place"}, []string{"Bronze Age"})
	q := NewAdapter(Fields{Query: "label", Location: "place"}, false).Query(row, "0")
	assert.Empty(t, q.Properties())
	assert.Nil(t, q.Body().Properties)
}

func TestFieldsValidate(t *testing.T) {
	header := []string{"label", "place"}
	assert.NoError(t, Fields{Query: "label", Location: "place"}.Validate(header))

	err := Fields{Query: "query"}.Validate(header)
	assert.True(t, errors.IsConfiguration(err))

	err = Fields{Query: "label", Stop: "to"}.Validate(header)
	assert.True(t, errors.IsConfiguration(err))

	err = Fields{}.Validate(header)
	assert.True(t, errors.IsConfiguration(err))
}

func TestParseIgnoredQueries(t *testing.T) {
	got, err := ParseIgnoredQueries(`bronze age,"Roman, Late"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"bronze age", "Roman, Late"}, got)

	got, err = ParseIgnoredQueries("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseIgnoredQueries(`"unterminated`)
	assert.True(t, errors.IsConfiguration(err))
}
