// Package inventory adapts external software-inventory records into bulk
// EOL checks. The inventory source itself is external; this package only
// consumes its record shape and fans lookups out across the orchestrator.
package inventory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/codeready-toolchain/eolscout/pkg/orchestrator"
)

// DefaultConcurrency bounds the lookup fan-out.
const DefaultConcurrency = 8

// Record is one inventory row as the external source reports it.
type Record struct {
	SoftwareName    string    `json:"software_name"`
	SoftwareVersion string    `json:"software_version,omitempty"`
	Computer        string    `json:"computer,omitempty"`
	LastSeen        time.Time `json:"last_seen,omitempty"`
}

// Looker is the slice of the orchestrator the bulk check needs.
type Looker interface {
	Lookup(ctx context.Context, req orchestrator.Request) *orchestrator.Result
}

// CheckResult pairs an inventory record with its lookup outcome. Results
// keep the input order regardless of completion order.
type CheckResult struct {
	Record Record               `json:"record"`
	Result *orchestrator.Result `json:"result"`
}

// Check looks up every record concurrently, bounded by concurrency
// (DefaultConcurrency when <= 0). On cancellation it returns the
// context's error and no partial results.
func Check(ctx context.Context, looker Looker, records []Record, concurrency int64) ([]CheckResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem := semaphore.NewWeighted(concurrency)
	results := make([]CheckResult, len(records))

	var wg sync.WaitGroup
	for i, record := range records {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, record Record) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = CheckResult{
				Record: record,
				Result: looker.Lookup(ctx, orchestrator.Request{
					Software: record.SoftwareName,
					Version:  record.SoftwareVersion,
				}),
			}
		}(i, record)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}
