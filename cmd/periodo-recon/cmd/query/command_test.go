package query

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/periodo/reconciler/internal/appcontext"
	"github.com/periodo/reconciler/internal/periodotest"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/periodo"
)

func setup(t *testing.T, format string) (*periodotest.Server, *appcontext.Mock) {
	t.Helper()

	srv := periodotest.New(t)
	srv.Handle("Late Roman",
		periodotest.Candidate("p0ccc", "Late Roman", 90, false),
		periodotest.Candidate("p0ddd", "Roman, Late", 85, false),
	)
	srv.Handle("Bronze Age", periodotest.Candidate("p0aaa", "Bronze Age", 100, true))

	client, err := periodo.New(
		periodo.WithBaseURL(srv.URL),
		periodo.WithRetries(0, time.Millisecond, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("periodo.New() failed: %v", err)
	}
	return srv, &appcontext.Mock{
		ClientFunc:       func() (*periodo.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	}
}

func run(app appcontext.Interface, args ...string) (string, error) {
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQuery_JSON(t *testing.T) {
	srv, app := setup(t, "json")

	out, err := run(app, "Late Roman", "Bronze Age", "Atlantis", "--limit", "1")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if srv.Requests() != 1 {
		t.Errorf("requests = %d, want 1 batch request", srv.Requests())
	}

	var results []Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Query != "Late Roman" || len(results[0].Candidates) != 1 {
		t.Errorf("first result = %+v, want one Late Roman candidate", results[0])
	}
	if !results[1].Candidates[0].Match {
		t.Error("Bronze Age candidate should be an exact match")
	}
	if len(results[2].Candidates) != 0 {
		t.Errorf("unknown query returned %d candidates", len(results[2].Candidates))
	}
}

func TestQuery_Table(t *testing.T) {
	_, app := setup(t, "table")

	out, err := run(app, "Late Roman", "Atlantis")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	for _, want := range []string{"p0ccc", "p0ddd", "Atlantis", "(no candidates)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestQuery_PerQueryMode(t *testing.T) {
	srv, app := setup(t, "json")
	app.DefaultsFunc = func() appcontext.Defaults {
		return appcontext.Defaults{Mode: periodo.ModePerQuery, PageSize: 10}
	}

	if _, err := run(app, "Late Roman", "Bronze Age"); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if srv.Requests() != 2 {
		t.Errorf("requests = %d, want one per query", srv.Requests())
	}
}

func TestBuildQueries(t *testing.T) {
	queries, err := buildQueries([]string{"Neolithic"}, &Flags{Location: "Anatolia", Start: "-7000", Limit: 3})
	if err != nil {
		t.Fatalf("buildQueries() failed: %v", err)
	}
	q := queries[0]
	if q.Label() != "0" {
		t.Errorf("label = %q, want 0", q.Label())
	}
	if limit, ok := q.Limit(); !ok || limit != 3 {
		t.Errorf("limit = %d (set %v), want 3", limit, ok)
	}
	props := q.Properties()
	if len(props) != 2 || props[0].Name != "location" || props[1].Name != "start" {
		t.Errorf("properties = %v, want location and start", props)
	}

	if _, err := buildQueries([]string{"x"}, &Flags{Limit: -1}); !errors.IsValidationError(err) {
		t.Errorf("negative limit: got %v, want validation error", err)
	}
}
