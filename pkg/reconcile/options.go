package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/periodo"
)

// options configures a Reconciler.
type options struct {
	transpose    bool
	topCandidate bool
	ignored      []string
	pageSize     int
	mode         periodo.Mode
	prefix       string
	allowPartial bool
	logger       *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		pageSize: constants.DefaultPageSize,
		mode:     periodo.ModeBatch,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithTranspose swaps two comma-separated terms in query text before
// sending, so "Roman, Late" is reconciled as "Late Roman".
func WithTranspose(enabled bool) Option {
	return func(o *options) error {
		o.transpose = enabled
		return nil
	}
}

// WithTopCandidate treats the best candidate as the match when the
// service flags no exact match.
func WithTopCandidate(enabled bool) Option {
	return func(o *options) error {
		o.topCandidate = enabled
		return nil
	}
}

// WithIgnoredQueries sets query texts whose matches are always discarded.
func WithIgnoredQueries(queries ...string) Option {
	return func(o *options) error {
		o.ignored = append(o.ignored, queries...)
		return nil
	}
}

// WithIgnoredQueriesLine parses the ignored query texts from one CSV line,
// e.g. `bronze age,"Roman, Late"`.
func WithIgnoredQueriesLine(line string) Option {
	return func(o *options) error {
		queries, err := ParseIgnoredQueries(line)
		if err != nil {
			return err
		}
		o.ignored = append(o.ignored, queries...)
		return nil
	}
}

// WithPageSize sets how many rows share one wire exchange.
func WithPageSize(size int) Option {
	return func(o *options) error {
		if size < 1 {
			return &errors.ConfigurationError{Field: "page_size", Message: "must be at least 1"}
		}
		o.pageSize = size
		return nil
	}
}

// WithMode selects batch or per-query reconciliation.
func WithMode(mode periodo.Mode) Option {
	return func(o *options) error {
		if mode != periodo.ModeBatch && mode != periodo.ModePerQuery {
			return errors.NewConfigurationError("mode", "unknown mode "+string(mode))
		}
		o.mode = mode
		return nil
	}
}

// WithPrefix prepends prefix to every appended match field name.
func WithPrefix(prefix string) Option {
	return func(o *options) error {
		o.prefix = prefix
		return nil
	}
}

// WithAllowPartial makes Matches resolve the pages that completed when a
// later page fails. The result is flagged Incomplete and the page error
// is still returned.
func WithAllowPartial(enabled bool) Option {
	return func(o *options) error {
		o.allowPartial = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
