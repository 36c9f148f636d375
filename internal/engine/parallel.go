package engine

import (
	"context"
	"fmt"
	"sync"

	"quantsim/internal/ports"
)

// RunAll executes the given runs concurrently against one shared feed and
// joins them all before returning. Isolation is by construction: every run
// owns its strategy, policy, broker and event channel, and each gets its own
// Play call on the feed (fan-out), so the feed must tolerate concurrent
// readers. A panic inside one run is captured into that run's result and
// never disturbs its siblings. Results are returned in run declaration
// order.
func RunAll(ctx context.Context, feed ports.Feed, runs ...*Run) []Result {
	results := make([]Result, len(runs))

	var wg sync.WaitGroup
	for i, run := range runs {
		wg.Add(1)
		go func(i int, run *Run) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					results[i] = Result{
						RunID: run.ID(),
						Name:  run.cfg.Name,
						Err:   fmt.Errorf("run panicked: %v", rec),
					}
				}
			}()
			results[i] = run.Execute(ctx, feed)
		}(i, run)
	}
	wg.Wait()

	return results
}
