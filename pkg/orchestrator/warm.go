package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"github.com/codeready-toolchain/eolscout/pkg/agent"
)

// Warm runs every bulk-capable agent's listing fetch concurrently,
// bounded by the warm semaphore, and reports the total number of cycles
// written to the cache. Individual agent failures are logged and do not
// abort the sweep.
func (o *Orchestrator) Warm(ctx context.Context) (int, error) {
	var fetchers []agent.BulkFetcher
	for _, vendor := range o.vendors {
		if fetcher, ok := vendor.(agent.BulkFetcher); ok {
			fetchers = append(fetchers, fetcher)
		}
	}
	if len(fetchers) == 0 {
		return 0, nil
	}

	sem := semaphore.NewWeighted(o.warmLimit)
	var wg sync.WaitGroup
	var total atomic.Int64

	for _, fetcher := range fetchers {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Caller cancelled; outstanding fetches drain via the waitgroup.
			break
		}
		wg.Add(1)
		go func(f agent.BulkFetcher) {
			defer wg.Done()
			defer sem.Release(1)

			cached, err := f.BulkFetch(ctx)
			if err != nil {
				o.logger.Warn("bulk fetch failed during cache warm",
					"agent", f.Name(), "error", err)
				return
			}
			total.Add(int64(cached))
			o.logger.Info("cache warmed", "agent", f.Name(), "cycles", cached)
		}(fetcher)
	}

	wg.Wait()
	return int(total.Load()), ctx.Err()
}

// StartWarming schedules periodic cache warming with a cron expression.
// An empty schedule disables it.
func (o *Orchestrator) StartWarming(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := o.Warm(context.Background()); err != nil {
			o.logger.Warn("scheduled cache warm interrupted", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()

	o.mu.Lock()
	o.cron = c
	o.mu.Unlock()
	o.logger.Info("cache warming scheduled", "schedule", schedule)
	return nil
}

// StopWarming halts the warming schedule, waiting for an in-flight run.
func (o *Orchestrator) StopWarming() {
	o.mu.Lock()
	c := o.cron
	o.cron = nil
	o.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
