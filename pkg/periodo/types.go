package periodo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/periodo/reconciler/pkg/errors"
)

// Type is a candidate type, e.g. skos:Concept "Period definition".
type Type struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Candidate is one identity the service proposes for a query. Candidates
// arrive best first; that order is part of the service contract.
type Candidate struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
	Match bool    `json:"match" yaml:"match"`
	Type  []Type  `json:"type" yaml:"type"`
}

// ResultSet is the service answer for one query label.
type ResultSet struct {
	Result []Candidate `json:"result" yaml:"result"`
}

// Response maps each query label of a request to its result set.
type Response map[string]ResultSet

// Descriptor is the service manifest returned by the root endpoint.
type Descriptor struct {
	Name            string         `json:"name" yaml:"name"`
	IdentifierSpace string         `json:"identifierSpace" yaml:"identifierSpace"`
	SchemaSpace     string         `json:"schemaSpace" yaml:"schemaSpace"`
	DefaultTypes    []Type         `json:"defaultTypes" yaml:"defaultTypes"`
	View            map[string]any `json:"view,omitempty" yaml:"view,omitempty"`
	Preview         map[string]any `json:"preview,omitempty" yaml:"preview,omitempty"`
	Suggest         map[string]any `json:"suggest,omitempty" yaml:"suggest,omitempty"`
}

// PropertySuggestion is a property the service accepts in queries.
type PropertySuggestion struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Mode selects how a set of queries is put on the wire.
type Mode string

const (
	// ModeBatch sends every query of a call in one exchange.
	ModeBatch Mode = "batch"
	// ModePerQuery sends one exchange per query, consulting the result cache first.
	ModePerQuery Mode = "single"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBatch, "":
		return ModeBatch, nil
	case ModePerQuery, "per-query":
		return ModePerQuery, nil
	default:
		return "", errors.NewConfigurationError("mode", fmt.Sprintf("unknown mode %q (want batch or single)", s))
	}
}

// wireResultSet distinguishes a missing "result" key from an empty list.
type wireResultSet struct {
	Result *[]Candidate `json:"result"`
}

// decodeResponse decodes a reconciliation answer and checks that every
// requested label is present with a result list.
func decodeResponse(endpoint string, body []byte, labels []string) (Response, error) {
	var raw map[string]wireResultSet
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.NewProtocolError(endpoint, "", "response is not a label to result-set mapping", errors.WrapParse("json", "response", err))
	}

	resp := make(Response, len(labels))
	for _, label := range labels {
		rs, ok := raw[label]
		if !ok {
			return nil, errors.NewProtocolError(endpoint, label, "label missing from response", nil)
		}
		if rs.Result == nil {
			return nil, errors.NewProtocolError(endpoint, label, "result set has no result list", nil)
		}
		resp[label] = ResultSet{Result: *rs.Result}
	}
	return resp, nil
}
