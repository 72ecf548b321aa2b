// Package transport performs the HTTP exchanges with a reconciliation
// service. It owns timeouts and bounded retries; callers see either a
// successful body or a typed error from pkg/errors.
package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/logging"
)

// Client provides HTTP client functionality with retries and authentication.
type Client struct {
	http   *retryablehttp.Client
	base   *url.URL
	auth   Authenticator
	logger *zerolog.Logger
}

type options struct {
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	httpClient   *http.Client
	auth         Authenticator
	logger       *zerolog.Logger
}

// Option configures a transport Client.
type Option func(*options)

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetries sets the retry budget and backoff bounds. A retryMax of zero
// disables retries.
func WithRetries(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = retryMax
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying *http.Client (useful for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithAuth sets the request authenticator.
func WithAuth(auth Authenticator) Option {
	return func(o *options) { o.auth = auth }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a transport client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.WrapConfiguration("base_url", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.NewConfigurationError("base_url", "must be an absolute URL, got "+baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	o := &options{
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.RetryWaitMin,
		retryWaitMax: constants.RetryWaitMax,
		auth:         &NoAuth{},
	}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.OrNop(o.logger)

	rc := retryablehttp.NewClient()
	if o.httpClient != nil {
		// the caller's client may be shared, so the timeout goes on a copy
		hc := *o.httpClient
		rc.HTTPClient = &hc
	}
	rc.HTTPClient.Timeout = o.timeout
	rc.RetryMax = o.retryMax
	rc.RetryWaitMin = o.retryWaitMin
	rc.RetryWaitMax = o.retryWaitMax
	rc.Backoff = retryablehttp.DefaultBackoff
	rc.CheckRetry = retryPolicy
	// hand the final response back so it surfaces as a ServiceError with its body
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = &leveledLogger{logger: logger}

	return &Client{
		http:   rc,
		base:   base,
		auth:   o.auth,
		logger: logger,
	}, nil
}

// BaseURL returns the service root URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Endpoint resolves path against the service root. An empty path is the
// root itself; an absolute path replaces the root path.
func (c *Client) Endpoint(path string) string {
	if path == "" {
		return c.base.String()
	}
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

// Get performs a GET request with params encoded in the query string.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := c.Endpoint(path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.WrapConfiguration("request", err)
	}
	return c.do(req)
}

// PostForm performs a POST request with a form-encoded body.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	endpoint := c.Endpoint(path)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WrapConfiguration("request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *retryablehttp.Request) (*http.Response, error) {
	c.auth.Apply(req.Request)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, &errors.ServiceError{
			Endpoint: redact(req.URL),
			Err:      err,
		}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("endpoint", redact(req.URL)).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Service exchange")

	return resp, nil
}

// retryPolicy retries connection failures, 429 and 5xx responses, and stops
// as soon as the context is done.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// a 4xx other than 429 will not change on retry
	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}

	shouldRetry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return shouldRetry, nil
}

// redact drops the query string, which in GET mode carries the whole batch.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}
