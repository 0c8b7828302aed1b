package engine

import (
	"context"
	"sync"

	ov "github.com/openobs/validator"
	"github.com/openobs/validator/model"
)

// BatchItem is the outcome of validating one observation in a batch.
type BatchItem struct {
	// Result holds the issues found, nil when Err is set.
	Result *ov.Result

	// Err is set when validation aborted on a resolver contract violation.
	Err error
}

// ValidateBatch validates multiple observation trees in parallel, bounded
// by the configured worker count. Results are returned in input order.
// Trees must be distinct: the engine assumes no node is shared between
// concurrently validated trees.
func (v *Validator) ValidateBatch(ctx context.Context, observations []*model.Observation) []BatchItem {
	items := make([]BatchItem, len(observations))

	workers := v.options.WorkerCount
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, obs := range observations {
		wg.Add(1)
		go func(idx int, o *model.Observation) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := v.Validate(ctx, o)
			items[idx] = BatchItem{Result: result, Err: err}
		}(i, obs)
	}

	wg.Wait()
	return items
}
