// Package periodotest provides an in-process fake of the PeriodO
// reconciliation service for tests. Answers come from fixtures keyed by
// query text; the server records what it was asked and can be told to
// fail or to drop a label from its answers.
package periodotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/unicode/norm"

	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/query"
)

// PeriodType is the candidate type the service reports for every period.
var PeriodType = periodo.Type{ID: "http://www.w3.org/2004/02/skos/core#Concept", Name: "Period definition"}

// Server is a fake reconciliation service.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	fixtures   map[string][]periodo.Candidate
	properties []periodo.PropertySuggestion
	requests   int
	methods    []string
	received   []string
	failures   int
	failFrom   int
	failStatus int
	dropLabel  string
}

// New starts a fake service that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		fixtures: make(map[string][]periodo.Candidate),
		properties: []periodo.PropertySuggestion{
			{ID: "location", Name: "Spatial coverage"},
			{ID: "start", Name: "Start year"},
			{ID: "stop", Name: "Stop year"},
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleRoot)
	r.Post("/", s.handleReconcile)
	r.Get("/suggest/properties", s.handleSuggestProperties)
	r.Get("/suggest/entities", s.handleSuggestEntity)
	r.Get("/preview", s.handlePreview)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Candidate builds a period candidate.
func Candidate(id, name string, score float64, match bool) periodo.Candidate {
	return periodo.Candidate{ID: id, Name: name, Score: score, Match: match, Type: []periodo.Type{PeriodType}}
}

// Handle registers the candidates returned for query text. Text is
// compared after NFC normalisation.
func (s *Server) Handle(text string, candidates ...periodo.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[fixtureKey(text, "")] = candidates
}

// HandleAt registers the candidates returned for query text sent with the
// given location property. For that location it takes precedence over
// Handle.
func (s *Server) HandleAt(text, location string, candidates ...periodo.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures[fixtureKey(text, location)] = candidates
}

func fixtureKey(text, location string) string {
	key := norm.NFC.String(text)
	if location != "" {
		key += "\x00" + location
	}
	return key
}

func locationOf(body query.Body) string {
	for _, p := range body.Properties {
		if p.Name == "location" {
			return fmt.Sprint(p.Value)
		}
	}
	return ""
}

// FailNext makes the next n requests answer with status.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
	s.failStatus = status
}

// FailFrom makes the n-th request, counted from the start or the last
// Reset, and every request after it answer with status.
func (s *Server) FailFrom(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFrom = n
	s.failStatus = status
}

// DropLabel omits label from every reconciliation answer.
func (s *Server) DropLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLabel = label
}

// Requests returns the number of HTTP requests served, failures included.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Methods returns the HTTP verb of every reconciliation request.
func (s *Server) Methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.methods...)
}

// Received returns the text of every query received, in arrival order.
// Queries of one request appear in label order.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Reset clears the request log.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = 0
	s.methods = nil
	s.received = nil
}

// begin counts a request and reports whether it should fail.
func (s *Server) begin(w http.ResponseWriter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if s.failures > 0 {
		s.failures--
		http.Error(w, "upstream unavailable", s.failStatus)
		return false
	}
	if s.failFrom > 0 && s.requests >= s.failFrom {
		http.Error(w, "upstream unavailable", s.failStatus)
		return false
	}
	return true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("queries") {
		s.handleReconcile(w, r)
		return
	}
	if !s.begin(w) {
		return
	}
	writeJSON(w, periodo.Descriptor{
		Name:            "PeriodO",
		IdentifierSpace: "http://n2t.net/ark:/99152/p0",
		SchemaSpace:     "http://www.w3.org/2004/02/skos/core#",
		DefaultTypes:    []periodo.Type{PeriodType},
		View:            map[string]any{"url": "http://n2t.net/ark:/99152/{{id}}"},
		Preview:         map[string]any{"url": s.URL + "/preview?id={{id}}", "width": 400, "height": 100},
		Suggest: map[string]any{
			"entity":   map[string]any{"service_url": s.URL, "service_path": "/suggest/entities"},
			"property": map[string]any{"service_url": s.URL, "service_path": "/suggest/properties"},
		},
	})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var queries map[string]query.Body
	if err := json.Unmarshal([]byte(r.Form.Get("queries")), &queries); err != nil {
		http.Error(w, "invalid queries: "+err.Error(), http.StatusBadRequest)
		return
	}

	labels := make([]string, 0, len(queries))
	for label := range queries {
		labels = append(labels, label)
	}
	sortLabels(labels)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.methods = append(s.methods, r.Method)

	answer := make(map[string]periodo.ResultSet, len(queries))
	for _, label := range labels {
		body := queries[label]
		s.received = append(s.received, body.Query)
		if label == s.dropLabel {
			continue
		}
		candidates, ok := s.fixtures[fixtureKey(body.Query, locationOf(body))]
		if !ok {
			candidates = s.fixtures[fixtureKey(body.Query, "")]
		}
		if body.Limit != nil && *body.Limit < len(candidates) {
			candidates = candidates[:*body.Limit]
		}
		if candidates == nil {
			candidates = []periodo.Candidate{}
		}
		answer[label] = periodo.ResultSet{Result: candidates}
	}
	writeJSON(w, answer)
}

func (s *Server) handleSuggestProperties(w http.ResponseWriter, _ *http.Request) {
	if !s.begin(w) {
		return
	}
	s.mu.Lock()
	props := s.properties
	s.mu.Unlock()
	writeJSON(w, map[string]any{"result": props})
}

func (s *Server) handleSuggestEntity(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w) {
		return
	}
	prefix := strings.ToLower(r.URL.Query().Get("prefix"))

	s.mu.Lock()
	var out []periodo.Candidate
	seen := make(map[string]bool)
	for _, candidates := range s.fixtures {
		for _, c := range candidates {
			if !seen[c.ID] && strings.HasPrefix(strings.ToLower(c.Name), prefix) {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	s.mu.Unlock()

	sortCandidates(out)
	writeJSON(w, map[string]any{"result": out})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w) {
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("flyout") == "true" {
		writeJSON(w, map[string]string{"id": id, "html": `<div class="flyout">` + id + `</div>`})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<html><body><h1>` + id + `</h1></body></html>`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
