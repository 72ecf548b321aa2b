package periodo

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/periodo/reconciler/pkg/query"
)

// reconcileEach sends every query of a validated batch on its own. With
// concurrency above one the exchanges fan out over a bounded pool; results
// land in an index-addressed slice so the merged response and the
// reported error follow input order regardless of completion order.
func (c *Client) reconcileEach(ctx context.Context, batch query.Batch) (Response, error) {
	results := make([]ResultSet, len(batch))
	errs := make([]error, len(batch))

	if c.concurrency <= 1 || len(batch) == 1 {
		for i, q := range batch {
			results[i], errs[i] = c.sendOne(ctx, q)
			if errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		p := pool.New().WithMaxGoroutines(min(c.concurrency, len(batch)))
		for i, q := range batch {
			p.Go(func() {
				results[i], errs[i] = c.sendOne(ctx, q)
			})
		}
		p.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	resp := make(Response, len(batch))
	for i, q := range batch {
		resp[q.Label()] = results[i]
	}

	c.logger.Debug().
		Int("queries", len(batch)).
		Int("concurrency", c.concurrency).
		Msg("Reconciled queries one at a time")

	return resp, nil
}
