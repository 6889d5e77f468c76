// Package monitoring summarizes the load audit log and raises webhook alerts
// when loads start failing or the served data goes stale.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of load health.
type MetricsSnapshot struct {
	// Load runs within the lookback window.
	LoadsTotal    int     `json:"loads_total" yaml:"loads_total"`
	LoadsComplete int     `json:"loads_complete" yaml:"loads_complete"`
	LoadsFailed   int     `json:"loads_failed" yaml:"loads_failed"`
	LoadsRunning  int     `json:"loads_running" yaml:"loads_running"`
	LoadsDegraded int     `json:"loads_degraded" yaml:"loads_degraded"`
	FailRate      float64 `json:"fail_rate" yaml:"fail_rate"`
	AvgRecords    float64 `json:"avg_records" yaml:"avg_records"`

	// Most recent complete load in the window, if any.
	LastSuccess       *time.Time `json:"last_success,omitempty" yaml:"last_success,omitempty"`
	LastSuccessSource string     `json:"last_success_source,omitempty" yaml:"last_success_source,omitempty"`

	LookbackHours int       `json:"lookback_hours" yaml:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at" yaml:"collected_at"`
}

// RunLister abstracts the store method needed by the collector.
type RunLister interface {
	ListLoadRuns(ctx context.Context, filter store.RunFilter) ([]model.LoadRun, error)
}

// Collector gathers metrics from the load audit log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// collectLimit bounds how many runs one snapshot reads.
const collectLimit = 10000

// Collect gathers a snapshot of load metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListLoadRuns(ctx, store.RunFilter{
		Since: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit: collectLimit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list load runs")
	}

	snap.LoadsTotal = len(runs)
	var totalRecords int
	for _, r := range runs {
		switch r.Status {
		case model.LoadStatusComplete:
			snap.LoadsComplete++
			if r.Result != nil {
				totalRecords += r.Result.Records
				if len(r.Result.Degraded) > 0 {
					snap.LoadsDegraded++
				}
			}
			finished := r.StartedAt
			if r.FinishedAt != nil {
				finished = *r.FinishedAt
			}
			if snap.LastSuccess == nil || finished.After(*snap.LastSuccess) {
				snap.LastSuccess = &finished
				snap.LastSuccessSource = r.Source
			}
		case model.LoadStatusFailed:
			snap.LoadsFailed++
		case model.LoadStatusRunning:
			snap.LoadsRunning++
		}
	}

	if finished := snap.LoadsComplete + snap.LoadsFailed; finished > 0 {
		snap.FailRate = float64(snap.LoadsFailed) / float64(finished)
	}
	if snap.LoadsComplete > 0 {
		snap.AvgRecords = float64(totalRecords) / float64(snap.LoadsComplete)
	}
	return snap, nil
}
