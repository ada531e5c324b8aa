package payroll

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchWorkers is used when CalculateBatch is given no worker count.
const DefaultBatchWorkers = 4

// BatchResult is the outcome for one PeriodInput of a batch. A failed
// employee does not stop the others.
type BatchResult struct {
	EmployeeID string
	Summary    PeriodSummary
	Err        error
}

// CalculateBatch runs CalculatePeriod for many employees with at most
// workers running at once. Results keep the order of inputs. The returned
// error is only ever a context error; per-employee failures are in
// BatchResult.Err.
func CalculateBatch(ctx context.Context, inputs []PeriodInput, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	results := make([]BatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := CalculatePeriod(inputs[i])
			results[i] = BatchResult{EmployeeID: inputs[i].EmployeeID, Summary: summary, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
