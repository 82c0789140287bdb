package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/stage-engine/pkg/types"
)

func resultWith(status types.TaskStatus, duration time.Duration) *types.TaskResult {
	return &types.TaskResult{
		Task:     "t",
		Status:   status,
		Duration: duration,
	}
}

func TestCollectorStageCounts(t *testing.T) {
	c := NewCollector()

	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 10*time.Millisecond))
	c.Record(types.StagePre, resultWith(types.TaskStatusFail, 20*time.Millisecond))
	c.Record(types.StageStart, resultWith(types.TaskStatusRunning, 5*time.Millisecond))
	c.Record(types.StageStart, resultWith(types.TaskStatusOK, 30*time.Millisecond))

	stages := c.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, StageCounts{OK: 1, Fail: 1}, stages[types.StagePre])
	assert.Equal(t, StageCounts{OK: 1, Running: 1}, stages[types.StageStart])
}

func TestCollectorDurations(t *testing.T) {
	c := NewCollector()

	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 10*time.Millisecond))
	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 20*time.Millisecond))
	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 30*time.Millisecond))

	summary := c.Durations()
	require.NotNil(t, summary)
	assert.Equal(t, int64(3), summary.Count)
	assert.InDelta(t, 10, summary.MinMs, 1)
	assert.InDelta(t, 30, summary.MaxMs, 1)
	assert.InDelta(t, 20, summary.AvgMs, 2)
	assert.GreaterOrEqual(t, summary.P99Ms, summary.P50Ms)
}

func TestCollectorDurationsEmpty(t *testing.T) {
	c := NewCollector()
	assert.Nil(t, c.Durations())
}

func TestCollectorClampsDurations(t *testing.T) {
	c := NewCollector()

	// Sub-millisecond and beyond-bound durations are clamped and must not
	// drop the sample.
	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 10*time.Microsecond))
	c.Record(types.StagePre, resultWith(types.TaskStatusOK, 2*time.Hour))

	summary := c.Durations()
	require.NotNil(t, summary)
	assert.Equal(t, int64(2), summary.Count)
}

func TestCollectorStagesCopy(t *testing.T) {
	c := NewCollector()
	c.Record(types.StagePre, resultWith(types.TaskStatusOK, time.Millisecond))

	stages := c.Stages()
	entry := stages[types.StagePre]
	entry.OK = 99

	assert.Equal(t, int64(1), c.Stages()[types.StagePre].OK)
}
