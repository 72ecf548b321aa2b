package periodo

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
)

// options configures a Client.
type options struct {
	host         string
	protocol     string
	baseURL      string
	method       string
	cacheSize    int
	metadataTTL  time.Duration
	concurrency  int
	timeout      time.Duration
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	token        string
	httpClient   *http.Client
	logger       *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		host:         constants.DefaultHost,
		protocol:     constants.DefaultProtocol,
		method:       constants.DefaultMethod,
		cacheSize:    constants.DefaultCacheSize,
		metadataTTL:  constants.MetadataTTL,
		concurrency:  constants.DefaultConcurrency,
		timeout:      constants.DefaultHTTPTimeout,
		retryMax:     constants.DefaultRetryMax,
		retryWaitMin: constants.RetryWaitMin,
		retryWaitMax: constants.RetryWaitMax,
	}
}

// Option is a function that configures a Client.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithHost sets the service host:port.
func WithHost(host string) Option {
	return func(o *options) error {
		if host == "" {
			return errors.NewConfigurationError("host", "cannot be empty")
		}
		o.host = host
		return nil
	}
}

// WithProtocol sets the URL scheme (http or https).
func WithProtocol(protocol string) Option {
	return func(o *options) error {
		switch protocol {
		case "http", "https":
			o.protocol = protocol
			return nil
		default:
			return errors.NewConfigurationError("protocol", "must be http or https, got "+protocol)
		}
	}
}

// WithBaseURL sets the full service root URL, overriding host and protocol.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		o.baseURL = baseURL
		return nil
	}
}

// WithMethod sets the HTTP verb for reconciliation requests (GET or POST).
// Both verbs must yield identical results.
func WithMethod(method string) Option {
	return func(o *options) error {
		m := strings.ToUpper(method)
		if m != http.MethodGet && m != http.MethodPost {
			return errors.NewConfigurationError("method", "must be GET or POST, got "+method)
		}
		o.method = m
		return nil
	}
}

// WithCacheSize bounds the per-query result cache. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(o *options) error {
		if size < 0 {
			return errors.NewConfigurationError("cache_size", "cannot be negative")
		}
		o.cacheSize = size
		return nil
	}
}

// WithMetadataTTL sets how long describe and suggest-properties answers are
// reused. Zero disables metadata caching.
func WithMetadataTTL(ttl time.Duration) Option {
	return func(o *options) error {
		o.metadataTTL = ttl
		return nil
	}
}

// WithConcurrency sets how many per-query exchanges may be in flight.
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n < 1 || n > constants.MaxConcurrency {
			return &errors.ConfigurationError{Field: "concurrency", Message: "must be between 1 and 32"}
		}
		o.concurrency = n
		return nil
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.timeout = d
		return nil
	}
}

// WithRetries sets the transport retry budget and backoff bounds.
func WithRetries(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(o *options) error {
		if retryMax < 0 {
			return errors.NewConfigurationError("retry_max", "cannot be negative")
		}
		o.retryMax = retryMax
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
		return nil
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(o *options) error {
		o.token = token
		return nil
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		o.httpClient = c
		return nil
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
