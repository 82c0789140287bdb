package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/stage-engine/internal/config"
	"benchkit/stage-engine/internal/sequencer"
	"benchkit/stage-engine/pkg/types"
)

func parseConfig(t *testing.T, yaml string) *config.File {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestEngineRun(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 1
pre:
  - name: prepare
    exec: /bin/true
start:
  - name: go
    shell_exec: echo started
stop:
  - name: halt
    shell_exec: echo stopped
post:
  - name: cleanup
    shell_exec: echo cleaned
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, eng.RunID())

	start := time.Now()
	report, err := eng.Run(ctx)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Equal(t, types.StageStatusOK, report.Status)
	assert.Equal(t, eng.RunID(), report.RunID)
	require.Len(t, report.Stages, 4)
	require.NotNil(t, report.Durations)
	assert.Equal(t, int64(4), report.Durations.Count)
	assert.Equal(t, "done", eng.State())
}

func TestEngineRunFailure(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 30
pre:
  - name: broken
    shell_exec: exit 1
post:
  - name: cleanup
    shell_exec: echo cleaned
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)

	start := time.Now()
	report, err := eng.Run(ctx)
	require.Error(t, err)

	var failure *sequencer.StageFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, types.StagePre, failure.Stage)

	// The failure path never waits out the window.
	assert.Less(t, time.Since(start), 20*time.Second)

	assert.Equal(t, types.StageStatusFail, report.Status)
	require.Len(t, report.Stages, 2)
	assert.Equal(t, types.StagePost, report.Stages[1].Stage)
}

func TestEngineAbort(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 60
pre:
  - exec: /bin/true
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)

	go func() {
		time.Sleep(200 * time.Millisecond)
		eng.Abort("test abort")
	}()

	start := time.Now()
	report, err := eng.Run(ctx)
	require.Error(t, err)

	var aborted *sequencer.AbortError
	assert.True(t, errors.As(err, &aborted))
	assert.Less(t, time.Since(start), 30*time.Second)
	assert.Equal(t, types.StageStatusFail, report.Status)
}

func TestEngineWindow(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 1
  warmup: 1
  delay: 1
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)

	_, err = eng.Run(ctx)
	require.NoError(t, err)

	start, end := eng.Window()
	assert.Equal(t, 3*time.Second, end.Sub(start))
}

func TestEngineDefaultsToConsoleReporter(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 1
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)

	reporters := eng.manager.GetReporters()
	require.Len(t, reporters, 1)
	assert.Equal(t, "console", reporters[0].Name())
}

func TestEngineDisabledReporterStaysOff(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 1
reporters:
  - type: console
    enabled: false
`)

	eng, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.Zero(t, eng.manager.GetReporterCount())
}

func TestEngineRejectsBadStageConfig(t *testing.T) {
	ctx := context.Background()
	cfg := parseConfig(t, `
control:
  duration: 1
pre:
  - name: ambiguous
    exec: /bin/true
    shell_exec: echo hi
`)

	_, err := New(ctx, cfg)
	assert.Error(t, err)
}
