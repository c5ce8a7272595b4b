// Package worker bounds the concurrency of batch assessment. Obligations
// share no mutable state, so a batch is embarrassingly parallel; the pool
// exists to cap cost and external rate-limit pressure, and defaults to a
// single worker to match sequential reference behavior.
package worker

import (
	"context"
	"sync"

	"github.com/nmorrow/covmap/internal/model"
)

// AssessFunc assesses one obligation and returns its terminal assessment.
// The pipeline contract guarantees an error only for corpus-load or context
// cancellation problems; oracle failures still yield an assessment.
type AssessFunc func(ctx context.Context, obligationID string) (*model.Assessment, error)

// BatchResult pairs an obligation with its outcome.
type BatchResult struct {
	ObligationID string
	Assessment   *model.Assessment
	Err          error
}

// Pool runs obligation assessments under a bounded number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count. Counts below one run
// sequentially.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run assesses every obligation and returns results in input order. It never
// stops early on per-obligation errors; cancellation of ctx drains the
// remaining work with context errors.
func (p *Pool) Run(ctx context.Context, obligationIDs []string, fn AssessFunc) []BatchResult {
	results := make([]BatchResult, len(obligationIDs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				id := obligationIDs[idx]
				if err := ctx.Err(); err != nil {
					results[idx] = BatchResult{ObligationID: id, Err: err}
					continue
				}
				assessment, err := fn(ctx, id)
				results[idx] = BatchResult{ObligationID: id, Assessment: assessment, Err: err}
			}
		}()
	}

	for i := range obligationIDs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
