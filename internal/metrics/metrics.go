// Package metrics accounts for the engine's own task executions: per-stage
// outcome counters and a task-duration trend. It does not collect
// measurement metrics; those belong to the upstream caller.
package metrics

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"

	"benchkit/stage-engine/pkg/types"
)

// Histogram bounds: 1ms to 1h, 3 significant figures.
const (
	histMin = 1
	histMax = 3_600_000
	histSig = 3
)

// StageCounts aggregates task outcomes for one stage.
type StageCounts struct {
	OK      int64 `json:"ok"`
	Fail    int64 `json:"fail"`
	Running int64 `json:"running"`
}

// Collector records task results during a run.
type Collector struct {
	mu     sync.Mutex
	hist   *hdrhistogram.Histogram
	stages map[types.StageName]*StageCounts
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		hist:   hdrhistogram.New(histMin, histMax, histSig),
		stages: make(map[types.StageName]*StageCounts),
	}
}

// Record accounts one task result under its stage.
func (c *Collector) Record(stage types.StageName, result *types.TaskResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counts, ok := c.stages[stage]
	if !ok {
		counts = &StageCounts{}
		c.stages[stage] = counts
	}

	switch result.Status {
	case types.TaskStatusOK:
		counts.OK++
	case types.TaskStatusFail:
		counts.Fail++
	case types.TaskStatusRunning:
		counts.Running++
	}

	ms := result.Duration.Milliseconds()
	if ms < histMin {
		ms = histMin
	}
	if ms > histMax {
		ms = histMax
	}
	_ = c.hist.RecordValue(ms)
}

// Stages returns a copy of the per-stage counters.
func (c *Collector) Stages() map[types.StageName]StageCounts {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[types.StageName]StageCounts, len(c.stages))
	for stage, counts := range c.stages {
		out[stage] = *counts
	}
	return out
}

// Durations returns the aggregate duration statistics, or nil when nothing
// was recorded.
func (c *Collector) Durations() *types.DurationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hist.TotalCount() == 0 {
		return nil
	}
	return &types.DurationSummary{
		Count: c.hist.TotalCount(),
		MinMs: float64(c.hist.Min()),
		MaxMs: float64(c.hist.Max()),
		AvgMs: c.hist.Mean(),
		P50Ms: float64(c.hist.ValueAtQuantile(50)),
		P90Ms: float64(c.hist.ValueAtQuantile(90)),
		P95Ms: float64(c.hist.ValueAtQuantile(95)),
		P99Ms: float64(c.hist.ValueAtQuantile(99)),
	}
}
