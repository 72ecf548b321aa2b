// Package periodo is a client for a PeriodO reconciliation service. It
// sends queries in batch or per-query mode, caches per-query answers in
// an LRU keyed by the normalised query body, and exposes the describe,
// suggest and preview endpoints.
package periodo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/periodo/reconciler/internal/cache"
	"github.com/periodo/reconciler/internal/transport"
	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/logging"
	"github.com/periodo/reconciler/pkg/query"
)

// Endpoint paths relative to the service root.
const (
	reconcilePath         = ""
	suggestPropertiesPath = "suggest/properties"
	suggestEntitiesPath   = "suggest/entities"
	previewPath           = "preview"

	metadataKeyDescribe   = "describe"
	metadataKeyProperties = "properties"
)

// Client talks to one reconciliation service.
type Client struct {
	transport   *transport.Client
	host        string
	protocol    string
	method      string
	concurrency int
	cacheSize   int
	results     *cache.LRU[string, ResultSet]
	metadata    *cache.TTL
	logger      *zerolog.Logger
}

// CacheStats reports the state of the per-query result cache and the
// number of cached metadata answers.
type CacheStats struct {
	Capacity int
	Entries  int
	Hits     int64
	Misses   int64
	Metadata int
}

// New creates a client. With no options it targets http://localhost:8142/.
func New(opts ...Option) (*Client, error) {
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(o.logger)

	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s/", o.protocol, o.host)
	}

	tc, err := transport.New(baseURL,
		transport.WithTimeout(o.timeout),
		transport.WithRetries(o.retryMax, o.retryWaitMin, o.retryWaitMax),
		transport.WithHTTPClient(o.httpClient),
		transport.WithAuth(transport.AuthFromToken(o.token)),
		transport.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport:   tc,
		host:        o.host,
		protocol:    o.protocol,
		method:      o.method,
		concurrency: o.concurrency,
		cacheSize:   o.cacheSize,
		logger:      logger,
	}
	if u, perr := url.Parse(tc.BaseURL()); perr == nil {
		c.host = u.Host
		c.protocol = u.Scheme
	}

	if o.cacheSize > 0 {
		c.results, err = cache.NewLRU[string, ResultSet](o.cacheSize)
		if err != nil {
			return nil, errors.WrapConfiguration("cache_size", err)
		}
	}
	if o.metadataTTL > 0 {
		c.metadata = cache.NewTTL(o.metadataTTL, constants.CacheCleanupInterval)
	}

	return c, nil
}

// String renders the client for debugging.
func (c *Client) String() string {
	return fmt.Sprintf("periodo.Client(host=%q, protocol=%q)", c.host, c.protocol)
}

// BaseURL returns the service root URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

// Method returns the HTTP verb used for reconciliation requests.
func (c *Client) Method() string {
	return c.method
}

// CacheStats returns counters for the per-query result cache.
func (c *Client) CacheStats() CacheStats {
	var stats CacheStats
	if c.metadata != nil {
		stats.Metadata = c.metadata.ItemCount()
	}
	if c.results == nil {
		return stats
	}
	s := c.results.Stats()
	stats.Capacity = c.cacheSize
	stats.Entries = s.Entries
	stats.Hits = s.Hits
	stats.Misses = s.Misses
	return stats
}

// FlushMetadata drops cached describe and suggest-properties answers so the
// next call asks the service again. Cached query results are kept.
func (c *Client) FlushMetadata() {
	if c.metadata != nil {
		c.metadata.Clear()
	}
}

// Describe fetches the service manifest. Answers are reused for the
// metadata TTL.
func (c *Client) Describe(ctx context.Context) (*Descriptor, error) {
	if c.metadata != nil {
		if v, ok := c.metadata.Get(metadataKeyDescribe); ok {
			return v.(*Descriptor), nil
		}
	}

	resp, err := c.transport.Get(ctx, reconcilePath, nil)
	if err != nil {
		return nil, err
	}
	var d Descriptor
	if err := transport.DecodeResponse(resp, &d); err != nil {
		return nil, err
	}

	if c.metadata != nil {
		c.metadata.Set(metadataKeyDescribe, &d)
	}
	return &d, nil
}

// Reconcile sends queries to the service and returns one result set per
// query label. Batch mode uses a single exchange; per-query mode sends
// each query alone under a fixed label and answers repeats from cache.
func (c *Client) Reconcile(ctx context.Context, queries []query.Query, mode Mode) (Response, error) {
	batch := query.Batch(queries)
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return Response{}, nil
	}

	switch mode {
	case ModeBatch, "":
		return c.send(ctx, batch)
	case ModePerQuery:
		return c.reconcileEach(ctx, batch)
	default:
		return nil, errors.NewConfigurationError("mode", fmt.Sprintf("unknown mode %q", mode))
	}
}

// send performs one reconciliation exchange for a validated batch.
func (c *Client) send(ctx context.Context, batch query.Batch) (Response, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, err
	}

	values := url.Values{"queries": {string(payload)}}
	var resp *http.Response
	if c.method == http.MethodGet {
		resp, err = c.transport.Get(ctx, reconcilePath, values)
	} else {
		resp, err = c.transport.PostForm(ctx, reconcilePath, values)
	}
	if err != nil {
		return nil, err
	}

	body, err := transport.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("queries", len(batch)).
		Str("method", c.method).
		Msg("Reconciled batch")

	return decodeResponse(c.transport.Endpoint(reconcilePath), body, batch.Labels())
}

// sendOne reconciles a single query, consulting the result cache.
func (c *Client) sendOne(ctx context.Context, q query.Query) (ResultSet, error) {
	key, err := CacheKey(q)
	if err != nil {
		return ResultSet{}, err
	}

	if c.results != nil {
		if rs, ok := c.results.Get(key); ok {
			c.logger.Trace().Str("label", q.Label()).Msg("Result cache hit")
			return rs, nil
		}
	}

	resp, err := c.send(ctx, query.Batch{relabel(q, constants.PerQueryLabel)})
	if err != nil {
		return ResultSet{}, err
	}
	rs := resp[constants.PerQueryLabel]

	if c.results != nil {
		if evicted := c.results.Add(key, rs); evicted {
			c.logger.Trace().Msg("Result cache evicted oldest entry")
		}
	}
	return rs, nil
}

// relabel copies q under a different label.
func relabel(q query.Query, label string) query.Query {
	opts := []query.Option{query.WithLabel(label), query.WithProperties(q.Properties()...)}
	if limit, ok := q.Limit(); ok {
		opts = append(opts, query.WithLimit(limit))
	}
	return query.New(q.Text(), opts...)
}

// SuggestProperties lists the properties the service accepts in queries.
func (c *Client) SuggestProperties(ctx context.Context) ([]PropertySuggestion, error) {
	if c.metadata != nil {
		if v, ok := c.metadata.Get(metadataKeyProperties); ok {
			return v.([]PropertySuggestion), nil
		}
	}

	resp, err := c.transport.Get(ctx, suggestPropertiesPath, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Result []PropertySuggestion `json:"result"`
	}
	if err := transport.DecodeResponse(resp, &out); err != nil {
		return nil, err
	}

	if c.metadata != nil {
		c.metadata.Set(metadataKeyProperties, out.Result)
	}
	return out.Result, nil
}

// SuggestEntities returns periods whose label starts with prefix.
func (c *Client) SuggestEntities(ctx context.Context, prefix string) ([]Candidate, error) {
	resp, err := c.transport.Get(ctx, suggestEntitiesPath, url.Values{"prefix": {prefix}})
	if err != nil {
		return nil, err
	}
	var out struct {
		Result []Candidate `json:"result"`
	}
	if err := transport.DecodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

// PreviewPeriod returns the HTML preview of a period. With flyout set the
// service returns the compact fragment used in suggest popups.
func (c *Client) PreviewPeriod(ctx context.Context, id string, flyout bool) ([]byte, error) {
	if id == "" {
		return nil, &errors.ValidationError{Field: "id", Message: "period id cannot be empty"}
	}
	params := url.Values{"id": {id}}
	if flyout {
		params.Set("flyout", "true")
	}
	resp, err := c.transport.Get(ctx, previewPath, params)
	if err != nil {
		return nil, err
	}
	return transport.ReadBody(resp)
}

// CacheKey returns the result cache key for a query: the JSON of its
// wire body with all text in Unicode NFC, so canonically equivalent
// spellings share an entry. The label plays no part.
func CacheKey(q query.Query) (string, error) {
	body := q.Body()
	body.Query = norm.NFC.String(body.Query)
	for i, p := range body.Properties {
		if s, ok := p.Value.(string); ok {
			body.Properties[i].Value = norm.NFC.String(s)
		}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", errors.WrapParse("json", "", err)
	}
	return string(data), nil
}
