package telemetry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector(nil)

	c.RecordRequest("ubuntu", Sample{Duration: 100 * time.Millisecond, Hit: true, Software: "Ubuntu", Version: "20.04"})
	c.RecordRequest("ubuntu", Sample{Duration: 300 * time.Millisecond, Software: "Ubuntu", Version: "22.04"})
	c.RecordRequest("redhat", Sample{Duration: 50 * time.Millisecond, Error: true, Software: "RHEL"})

	snap := c.Snapshot()

	ubuntu := snap.Agents["ubuntu"]
	assert.EqualValues(t, 2, ubuntu.Requests)
	assert.EqualValues(t, 1, ubuntu.Hits)
	assert.EqualValues(t, 1, ubuntu.Misses)
	assert.InDelta(t, 0.5, ubuntu.HitRate, 1e-9)
	assert.InDelta(t, 200, ubuntu.AvgResponseTimeMS, 1e-9)
	assert.EqualValues(t, 100, ubuntu.MinResponseTimeMS)
	assert.EqualValues(t, 300, ubuntu.MaxResponseTimeMS)
	assert.Len(t, ubuntu.RecentActivity, 2)

	redhat := snap.Agents["redhat"]
	assert.EqualValues(t, 1, redhat.Errors)
	assert.InDelta(t, 1.0, redhat.ErrorRate, 1e-9)

	assert.EqualValues(t, 3, snap.Summary.TotalRequests)
	assert.EqualValues(t, 1, snap.Summary.TotalHits)
	assert.InDelta(t, 1.0/3.0, snap.Summary.OverallHitRate, 1e-9)
}

func TestCollector_PerURLCounters(t *testing.T) {
	c := NewCollector(nil)

	url := "https://endoflife.date/api/ubuntu.json"
	c.RecordRequest("ubuntu", Sample{Duration: 80 * time.Millisecond, URL: url, RecordsExtracted: 12})
	c.RecordRequest("ubuntu", Sample{Duration: 40 * time.Millisecond, URL: url, RecordsExtracted: 12})

	snap := c.Snapshot()
	us, ok := snap.Agents["ubuntu"].URLs[url]
	require.True(t, ok)
	assert.EqualValues(t, 2, us.Requests)
	assert.EqualValues(t, 24, us.RecordsExtracted)
	assert.EqualValues(t, 40, us.MinResponseTimeMS)
	assert.EqualValues(t, 80, us.MaxResponseTimeMS)
}

func TestCollector_EmptySnapshotHasZeroRates(t *testing.T) {
	c := NewCollector(nil)
	snap := c.Snapshot()
	assert.Empty(t, snap.Agents)
	assert.Zero(t, snap.Summary.OverallHitRate, "division by zero yields 0")
}

func TestCollector_RecentActivityBounded(t *testing.T) {
	c := NewCollector(nil)
	for i := 0; i < 250; i++ {
		c.RecordRequest("ubuntu", Sample{Software: fmt.Sprintf("pkg-%d", i)})
	}
	snap := c.Snapshot()
	recent := snap.Agents["ubuntu"].RecentActivity
	assert.Len(t, recent, 100)
	assert.Equal(t, "pkg-249", recent[len(recent)-1].Software, "newest entry kept")
	assert.Equal(t, "pkg-150", recent[0].Software, "oldest entries dropped")
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector(nil)
	c.RecordRequest("ubuntu", Sample{Hit: true})
	c.Reset()

	snap := c.Snapshot()
	assert.Empty(t, snap.Agents)
	assert.Zero(t, snap.Summary.TotalRequests)
}

func TestCollector_ConcurrentRecordAndSnapshot(t *testing.T) {
	c := NewCollector(nil)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			agent := fmt.Sprintf("agent-%d", n%4)
			for j := 0; j < 50; j++ {
				c.RecordRequest(agent, Sample{Duration: time.Millisecond, Hit: j%2 == 0})
			}
		}(i)
		go func() {
			defer wg.Done()
			_ = c.Snapshot()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.EqualValues(t, 1000, snap.Summary.TotalRequests)
}

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := NewCollector(metrics)

	c.RecordRequest("ubuntu", Sample{Duration: 10 * time.Millisecond, Hit: true})
	c.RecordRequest("ubuntu", Sample{Duration: 10 * time.Millisecond, Error: true})

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	assert.True(t, found["eolscout_agent_requests_total"])
	assert.True(t, found["eolscout_agent_cache_hits_total"])
	assert.True(t, found["eolscout_agent_errors_total"])
}
