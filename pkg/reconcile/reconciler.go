// Package reconcile resolves tabular rows against a reconciliation
// service. Rows are turned into queries page by page, sent through a
// Client, and the answers are resolved in two passes: a primary match per
// row, then a fallback borrowed from other rows with the same query text.
//
// Example usage:
//
//	r, err := reconcile.New(client, table.Header, reconcile.Fields{Query: "label"},
//		reconcile.WithTranspose(true))
//	result, err := r.Matches(ctx, table.Rows)
//	tabular.WriteFile("out.csv", result.Table())
package reconcile

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
	"github.com/periodo/reconciler/pkg/logging"
	"github.com/periodo/reconciler/pkg/periodo"
	"github.com/periodo/reconciler/pkg/query"
	"github.com/periodo/reconciler/pkg/tabular"
)

// Client sends queries to a reconciliation service.
type Client interface {
	Reconcile(ctx context.Context, queries []query.Query, mode periodo.Mode) (periodo.Response, error)
}

// Reconciler resolves rows of one input table.
type Reconciler struct {
	client       Client
	header       []string
	fields       Fields
	outputFields []string
	adapter      *Adapter
	resolver     *Resolver
	pageSize     int
	mode         periodo.Mode
	allowPartial bool
	logger       *zerolog.Logger
}

// New creates a Reconciler for rows read under header. It fails with a
// ConfigurationError when a configured field is missing from header or
// an appended match field would overwrite an input field.
func New(client Client, header []string, fields Fields, opts ...Option) (*Reconciler, error) {
	if client == nil {
		return nil, errors.NewConfigurationError("client", "cannot be nil")
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	if err := fields.Validate(header); err != nil {
		return nil, err
	}

	outputFields := make([]string, len(constants.MatchFields))
	for i, f := range constants.MatchFields {
		outputFields[i] = o.prefix + f
		if slices.Contains(header, outputFields[i]) {
			return nil, errors.NewConfigurationError(outputFields[i], "output field collides with an input field")
		}
	}

	logger := logging.OrNop(o.logger)
	return &Reconciler{
		client:       client,
		header:       slices.Clone(header),
		fields:       fields,
		outputFields: outputFields,
		adapter:      NewAdapter(fields, o.transpose),
		resolver:     NewResolver(fields, o.topCandidate, o.ignored, outputFields, logger),
		pageSize:     o.pageSize,
		mode:         o.mode,
		allowPartial: o.allowPartial,
		logger:       logger,
	}, nil
}

// OutputFields returns the appended match field names in write order.
func (r *Reconciler) OutputFields() []string {
	return slices.Clone(r.outputFields)
}

// Header returns the output header: the input header then the match fields.
func (r *Reconciler) Header() []string {
	return append(slices.Clone(r.header), r.outputFields...)
}

// Adapter returns the row-to-query adapter.
func (r *Reconciler) Adapter() *Adapter {
	return r.adapter
}

// ResultsWithRows reconciles rows page by page and pairs each row with
// its result set, in input order. Labels are page-local indices. When a
// page fails the pairs of earlier pages are returned with a PageError.
func (r *Reconciler) ResultsWithRows(ctx context.Context, rows []tabular.Row) ([]Pair, error) {
	pairs := make([]Pair, 0, len(rows))

	for i, page := range query.Pages(rows, r.pageSize) {
		offset := i * r.pageSize
		start := time.Now()

		queries := make([]query.Query, len(page))
		for j, row := range page {
			queries[j] = r.adapter.Query(row, strconv.Itoa(j))
		}

		resp, err := r.client.Reconcile(ctx, queries, r.mode)
		if err != nil {
			return pairs, &errors.PageError{Page: i, Offset: offset, Err: err}
		}

		pagePairs := make([]Pair, len(page))
		for j, row := range page {
			label := queries[j].Label()
			rs, ok := resp[label]
			if !ok {
				return pairs, &errors.PageError{Page: i, Offset: offset,
					Err: errors.NewProtocolError("", label, "label missing from response", nil)}
			}
			pagePairs[j] = Pair{Label: label, Row: row, Response: rs}
		}
		pairs = append(pairs, pagePairs...)

		r.logger.Debug().
			Int("page", i).
			Int("rows", len(page)).
			Str("mode", string(r.mode)).
			Dur("duration", time.Since(start)).
			Msg("Reconciled page")
	}
	return pairs, nil
}

// Matches reconciles and resolves every row. Without partial runs any
// page failure aborts the run. With WithAllowPartial the completed pages
// are resolved, the result is marked Incomplete, and the page error is
// returned alongside it.
func (r *Reconciler) Matches(ctx context.Context, rows []tabular.Row) (*Result, error) {
	pairs, err := r.ResultsWithRows(ctx, rows)
	if err != nil {
		if !r.allowPartial {
			return nil, err
		}
		result, rerr := r.MatchPairs(pairs)
		if rerr != nil {
			return nil, rerr
		}
		result.Incomplete = true
		r.logger.Warn().
			Err(err).
			Int("resolved", len(pairs)).
			Int("rows", len(rows)).
			Msg("Partial run: fallbacks only reflect resolved rows")
		return result, err
	}
	return r.MatchPairs(pairs)
}

// MatchPairs resolves pairs produced elsewhere, e.g. by an earlier
// ResultsWithRows call. Each call starts from an empty frequency table
// and summary.
func (r *Reconciler) MatchPairs(pairs []Pair) (*Result, error) {
	result, err := r.resolver.Resolve(pairs)
	if err != nil {
		return nil, err
	}
	result.Header = r.Header()

	stats := result.Stats()
	r.logger.Info().
		Int("rows", stats.Rows).
		Int("matched", stats.Matched).
		Int("fallback", stats.Fallback).
		Int("unmatched", stats.Unmatched).
		Msg("Resolved rows")
	return result, nil
}
