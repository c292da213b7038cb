// Package batch implements the bounded concurrent fan-out available to
// scripts: dispatch a list of independent capability calls, collect
// per-item success or failure without aborting siblings, and return
// results in input order regardless of completion order.
package batch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Item is one independent sub-call in a batch.
type Item struct {
	// Index correlates the item with its result; callers building a
	// batch set it to the item's position.
	Index int

	// Namespace and Operation identify the capability to dispatch.
	Namespace string
	Operation string

	// Args are the keyword arguments for the call.
	Args map[string]any
}

// Result is the outcome of one batch item. Results are returned in
// input order; a failed item carries its error message and never
// affects siblings.
type Result struct {
	Index  int
	Status string
	Value  any
	Error  string
}

// DispatchFunc resolves and invokes one capability call. The batch
// coordinator treats any returned error as that item's failure.
type DispatchFunc func(ctx context.Context, namespace, operation string, args map[string]any) (any, error)

// DefaultMaxInFlight bounds concurrent dispatches when no explicit
// bound is configured.
const DefaultMaxInFlight = 8

// Coordinator dispatches batch items concurrently with a bounded
// in-flight count. Safe for concurrent use.
type Coordinator struct {
	dispatch    DispatchFunc
	maxInFlight int64
}

// NewCoordinator creates a Coordinator. A maxInFlight of zero or less
// uses DefaultMaxInFlight.
func NewCoordinator(dispatch DispatchFunc, maxInFlight int) *Coordinator {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Coordinator{dispatch: dispatch, maxInFlight: int64(maxInFlight)}
}

// Run dispatches all items and blocks until every item has completed
// or ctx is done. Items beyond the in-flight bound queue until a slot
// frees. The returned slice is ordered by item position; the k-th entry
// always corresponds to the k-th item.
//
// When ctx is canceled before completion Run returns ctx's error and
// the partial results must be discarded by the caller; the submission
// timeout is the only cancellation trigger.
func (c *Coordinator) Run(ctx context.Context, items []Item) ([]Result, error) {
	results := make([]Result, len(items))
	sem := semaphore.NewWeighted(c.maxInFlight)

	var wg sync.WaitGroup
	for i := range items {
		item := items[i]
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[pos] = Result{Index: item.Index, Status: StatusError, Error: err.Error()}
				return
			}
			defer sem.Release(1)

			value, err := c.dispatch(ctx, item.Namespace, item.Operation, item.Args)
			if err != nil {
				results[pos] = Result{Index: item.Index, Status: StatusError, Error: err.Error()}
				return
			}
			results[pos] = Result{Index: item.Index, Status: StatusSuccess, Value: value}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
