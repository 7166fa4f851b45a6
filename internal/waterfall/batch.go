package waterfall

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/model"
)

// DefaultBatchConcurrency bounds in-flight lookups when the caller does not
// choose a limit. It exists to respect provider rate limits, not correctness.
const DefaultBatchConcurrency = 5

// FindEmailsBatch runs every lookup through the full waterfall with at most
// concurrency in flight. Results are returned in request order regardless of
// completion order. A failing lookup (validation or unexpected error) is
// surfaced as a not_found result carrying the error text; it never aborts
// sibling lookups.
func (e *Engine) FindEmailsBatch(ctx context.Context, reqs []model.LookupRequest, concurrency int) []model.EnrichmentResult {
	if concurrency < 1 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]model.EnrichmentResult, len(reqs))
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			res, err := e.FindEmail(ctx, req)
			if err != nil {
				zap.L().Error("batch lookup failed",
					zap.Int("index", i),
					zap.String("first_name", req.FirstName),
					zap.String("last_name", req.LastName),
					zap.Error(err),
				)
				results[i] = model.EnrichmentResult{
					Source:       model.SourceNotFound,
					FirstName:    req.FirstName,
					LastName:     req.LastName,
					Domain:       req.Domain,
					Company:      req.Company,
					RawResponses: map[string]string{"error": err.Error()},
				}
				return nil
			}
			results[i] = *res
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	return results
}
