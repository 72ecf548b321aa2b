package reconcile_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/periodo/reconciler/internal/periodotest"
	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/logging"
	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/query"
	"github.com/periodo/reconciler/pkg/reconcile"
	"github.com/periodo/reconciler/pkg/tabular"
)

const fiveRows = `query,location
Bronze Age,Crete
"Roman, Late",Italy
Late Roman,Italy
Neolithic,Anatolia
Bronze Age,Cyprus
`

func fixtureService(t *testing.T) *periodotest.Server {
	t.Helper()
	srv := periodotest.New(t)
	srv.Handle("Bronze Age",
		periodotest.Candidate("p0aaa", "Bronze Age", 100, true),
		periodotest.Candidate("p0bbb", "Early Bronze Age", 70, false),
	)
	srv.Handle("Late Roman",
		periodotest.Candidate("p0ccc", "Late Roman", 100, true),
	)
	srv.Handle("Roman, Late",
		periodotest.Candidate("p0zzz", "Roman", 40, false),
	)
	srv.Handle("Neolithic",
		periodotest.Candidate("p0nnn", "Pre-Pottery Neolithic", 55, false),
		periodotest.Candidate("p0mmm", "Late Neolithic", 50, false),
	)
	return srv
}

func newPeriodoClient(t *testing.T, srv *periodotest.Server, opts ...periodo.Option) *periodo.Client {
	t.Helper()
	opts = append([]periodo.Option{
		periodo.WithBaseURL(srv.URL),
		periodo.WithRetries(0, time.Millisecond, time.Millisecond),
	}, opts...)
	c, err := periodo.New(opts...)
	require.NoError(t, err)
	return c
}

func readTable(t *testing.T, csv string) *tabular.Table {
	t.Helper()
	tbl, err := tabular.Read(strings.NewReader(csv), tabular.FormatCSV)
	require.NoError(t, err)
	return tbl
}

func byQuery(result *reconcile.Result) map[string]tabular.Row {
	out := make(map[string]tabular.Row)
	for _, r := range result.Rows {
		out[r.Row.Value("query")] = r.Row
	}
	return out
}

func TestMatchesEndToEnd(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query", Location: "location"})
	require.NoError(t, err)

	result, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	require.Len(t, result.Rows, 5)
	assert.False(t, result.Incomplete)
	assert.False(t, result.SummaryTable().HasField(reconcile.FieldIncomplete))

	for _, row := range result.Rows {
		for _, f := range constants.MatchFields {
			assert.True(t, row.Row.Has(f), "row %q lacks %s", row.Row.Value("query"), f)
		}
	}

	assert.Equal(t, []string{"query", "location", "match_num", "match_name", "match_id",
		"candidates_count", "match_fallback_id", "match_fallback_name"}, result.Header)

	rows := byQuery(result)
	assert.Equal(t, "p0aaa", rows["Bronze Age"].Value("match_id"))
	assert.Equal(t, "1", rows["Bronze Age"].Value("match_num"))
	assert.Equal(t, "2", rows["Neolithic"].Value("candidates_count"))
	assert.Equal(t, "", rows["Neolithic"].Value("match_id"))

	assert.Equal(t, 1, srv.Requests(), "five rows fit in one page")
	assert.Equal(t, 5, result.Summary.Total())
}

func TestMatchesTransposition(t *testing.T) {
	tests := []struct {
		name      string
		transpose bool
		same      bool
	}{
		{"enabled", true, true},
		{"disabled", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fixtureService(t)
			tbl := readTable(t, fiveRows)

			r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"},
				reconcile.WithTranspose(tt.transpose))
			require.NoError(t, err)

			result, err := r.Matches(context.Background(), tbl.Rows)
			require.NoError(t, err)

			rows := byQuery(result)
			late, roman := rows["Late Roman"].Value("match_id"), rows["Roman, Late"].Value("match_id")
			if tt.same {
				assert.Equal(t, late, roman)
				assert.Equal(t, "p0ccc", roman)
			} else {
				assert.NotEqual(t, late, roman)
			}
			// the raw text stays in the output row
			assert.True(t, rows["Roman, Late"].Has("query"))
		})
	}
}

func TestMatchesModesAgree(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)
	client := newPeriodoClient(t, srv, periodo.WithConcurrency(3))

	run := func(mode periodo.Mode) *reconcile.Result {
		r, err := reconcile.New(client, tbl.Header, reconcile.Fields{Query: "query", Location: "location"},
			reconcile.WithMode(mode), reconcile.WithTopCandidate(true), reconcile.WithPageSize(2))
		require.NoError(t, err)
		result, err := r.Matches(context.Background(), tbl.Rows)
		require.NoError(t, err)
		return result
	}

	batch := run(periodo.ModeBatch)
	single := run(periodo.ModePerQuery)

	rowEq := cmp.Comparer(func(a, b tabular.Row) bool { return a.Equal(b) })
	assert.Empty(t, cmp.Diff(batch.Rows, single.Rows, rowEq))
	assert.Empty(t, cmp.Diff(batch.Summary.Entries(), single.Summary.Entries()))
}

func TestMatchesIdempotent(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"},
		reconcile.WithMode(periodo.ModePerQuery), reconcile.WithIgnoredQueries("Neolithic"))
	require.NoError(t, err)

	first, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	requests := srv.Requests()

	second, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	assert.Equal(t, requests, srv.Requests(), "second run is served from the result cache")

	rowEq := cmp.Comparer(func(a, b tabular.Row) bool { return a.Equal(b) })
	assert.Empty(t, cmp.Diff(first.Rows, second.Rows, rowEq))
	assert.Empty(t, cmp.Diff(first.Summary.Entries(), second.Summary.Entries()))

	var a, b strings.Builder
	require.NoError(t, tabular.Write(&a, tabular.FormatCSV, first.Table()))
	require.NoError(t, tabular.Write(&b, tabular.FormatCSV, second.Table()))
	assert.Equal(t, a.String(), b.String())
}

func TestMatchesIgnoreLine(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"},
		reconcile.WithIgnoredQueriesLine(`Bronze Age,"Roman, Late"`))
	require.NoError(t, err)

	result, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	for _, row := range result.Rows {
		if row.Row.Value("query") == "Bronze Age" {
			assert.Equal(t, "0", row.Row.Value("match_num"))
			assert.Empty(t, row.Row.Value("match_id"))
		}
	}
	assert.Equal(t, "p0ccc", byQuery(result)["Late Roman"].Value("match_id"))
}

func TestMatchesInvariantViolation(t *testing.T) {
	srv := periodotest.New(t)
	srv.Handle("Bronze Age",
		periodotest.Candidate("p0aaa", "Bronze Age", 100, true),
		periodotest.Candidate("p0bbb", "Bronze Age", 100, true),
	)
	tbl := readTable(t, "query\nBronze Age\n")

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"})
	require.NoError(t, err)

	_, err = r.Matches(context.Background(), tbl.Rows)
	assert.True(t, errors.IsInvariant(err))
}

func TestMatchesServiceFailure(t *testing.T) {
	srv := fixtureService(t)
	srv.FailNext(1, http.StatusInternalServerError)
	tbl := readTable(t, fiveRows)

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"})
	require.NoError(t, err)

	result, err := r.Matches(context.Background(), tbl.Rows)
	assert.Nil(t, result)
	assert.True(t, errors.IsService(err))

	var perr *errors.PageError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.Page)
}

// failingClient fails every call from the failOn-th on.
type failingClient struct {
	reconcile.Client
	calls  int
	failOn int
}

func (c *failingClient) Reconcile(ctx context.Context, queries []query.Query, mode periodo.Mode) (periodo.Response, error) {
	c.calls++
	if c.calls >= c.failOn {
		return nil, errors.NewServiceError("http://periodo.test/", http.StatusBadGateway, "bad gateway")
	}
	return c.Client.Reconcile(ctx, queries, mode)
}

func TestMatchesPartialRun(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)
	client := &failingClient{Client: newPeriodoClient(t, srv), failOn: 2}
	logger := logging.NewTestLogger(t)

	r, err := reconcile.New(client, tbl.Header, reconcile.Fields{Query: "query"},
		reconcile.WithPageSize(2), reconcile.WithAllowPartial(true), reconcile.WithLogger(logger.Logger))
	require.NoError(t, err)

	result, err := r.Matches(context.Background(), tbl.Rows)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Incomplete)
	assert.Len(t, result.Rows, 2)

	var perr *errors.PageError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Page)
	assert.Equal(t, 2, perr.Offset)
	logger.AssertContains(t, "Partial run")

	summary := result.SummaryTable()
	assert.True(t, summary.HasField(reconcile.FieldIncomplete))
	for _, row := range summary.Rows {
		assert.Equal(t, "true", row.Value(reconcile.FieldIncomplete))
	}
}

func TestMatchesPartialRunDisabled(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)
	client := &failingClient{Client: newPeriodoClient(t, srv), failOn: 2}

	r, err := reconcile.New(client, tbl.Header, reconcile.Fields{Query: "query"}, reconcile.WithPageSize(2))
	require.NoError(t, err)

	result, err := r.Matches(context.Background(), tbl.Rows)
	assert.Nil(t, result)
	assert.True(t, errors.IsService(err))
}

func TestResultsWithRowsPaging(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, fiveRows)

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"},
		reconcile.WithPageSize(2))
	require.NoError(t, err)

	pairs, err := r.ResultsWithRows(context.Background(), tbl.Rows)
	require.NoError(t, err)
	require.Len(t, pairs, 5)
	assert.Equal(t, 3, srv.Requests())

	labels := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = p.Label
	}
	assert.Equal(t, []string{"0", "1", "0", "1", "0"}, labels)
	assert.Equal(t, "Bronze Age", pairs[4].Row.Value("query"))

	// resolving the same pairs later gives the same result as Matches
	fromPairs, err := r.MatchPairs(pairs)
	require.NoError(t, err)
	direct, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	assert.Equal(t, fromPairs.Summary.Entries(), direct.Summary.Entries())
}

func TestNewConfigurationErrors(t *testing.T) {
	srv := periodotest.New(t)
	client := newPeriodoClient(t, srv)

	tests := []struct {
		name   string
		header []string
		fields reconcile.Fields
		opts   []reconcile.Option
	}{
		{"missing query field", []string{"label"}, reconcile.Fields{Query: "query"}, nil},
		{"missing location field", []string{"query"}, reconcile.Fields{Query: "query", Location: "place"}, nil},
		{"output collision", []string{"query", "match_id"}, reconcile.Fields{Query: "query"}, nil},
		{"prefixed collision", []string{"query", "p_match_num"}, reconcile.Fields{Query: "query"}, []reconcile.Option{reconcile.WithPrefix("p_")}},
		{"bad page size", []string{"query"}, reconcile.Fields{Query: "query"}, []reconcile.Option{reconcile.WithPageSize(0)}},
		{"bad mode", []string{"query"}, reconcile.Fields{Query: "query"}, []reconcile.Option{reconcile.WithMode("parallel")}},
		{"bad ignore line", []string{"query"}, reconcile.Fields{Query: "query"}, []reconcile.Option{reconcile.WithIgnoredQueriesLine(`"open`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconcile.New(client, tt.header, tt.fields, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err), "got %v", err)
		})
	}

	_, err := reconcile.New(nil, []string{"query"}, reconcile.Fields{Query: "query"})
	assert.True(t, errors.IsConfiguration(err))
}

func TestPrefixAvoidsCollision(t *testing.T) {
	srv := fixtureService(t)
	tbl := readTable(t, "query,match_id\nBronze Age,old\n")

	r, err := reconcile.New(newPeriodoClient(t, srv), tbl.Header, reconcile.Fields{Query: "query"},
		reconcile.WithPrefix("periodo_"))
	require.NoError(t, err)
	assert.Equal(t, "periodo_match_num", r.OutputFields()[0])

	result, err := r.Matches(context.Background(), tbl.Rows)
	require.NoError(t, err)
	assert.Equal(t, "old", result.Rows[0].Row.Value("match_id"))
	assert.Equal(t, "p0aaa", result.Rows[0].Row.Value("periodo_match_id"))
}
