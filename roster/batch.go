/*
batch.go - Sequential batch execution with partial-failure accounting

PURPOSE:
  Bulk operations (bulk delete/edit/create across many shifts) run
  item-by-item: each item's store call completes before the next starts, a
  failing item never aborts the batch, and nothing already applied is rolled
  back. The caller always gets aggregate success/failure counts, never a
  single blended status.

SEE ALSO:
  - api/handlers.go: the bulk shift endpoints using this
*/
package roster

import "context"

// BatchItemError ties a failure to its item index.
type BatchItemError struct {
	Index int
	Err   error
}

func (e BatchItemError) Error() string { return e.Err.Error() }

func (e BatchItemError) Unwrap() error { return e.Err }

// BatchResult reports aggregate counts plus the per-item failures.
type BatchResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// RunBatch executes fn for every item strictly in order. The batch always
// completes; per-item errors only accumulate.
func RunBatch[T any](ctx context.Context, items []T, fn func(context.Context, T) error) BatchResult {
	var result BatchResult
	for i, item := range items {
		if err := fn(ctx, item); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BatchItemError{Index: i, Err: err})
			continue
		}
		result.Succeeded++
	}
	return result
}
