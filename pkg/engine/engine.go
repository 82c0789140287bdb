// Package engine ties the configuration, executors, async registry,
// sequencer and reporters together into one runnable unit.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"benchkit/stage-engine/internal/asyncproc"
	"benchkit/stage-engine/internal/config"
	"benchkit/stage-engine/internal/executor"
	"benchkit/stage-engine/internal/metrics"
	"benchkit/stage-engine/internal/reporter"
	"benchkit/stage-engine/internal/sequencer"
	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

// Engine runs one configured stage sequence from start to finish.
type Engine struct {
	runID     string
	control   *types.Control
	stages    map[types.StageName][]*types.Task
	registry  *asyncproc.Registry
	manager   *reporter.Manager
	collector *metrics.Collector
	runner    *executor.Runner
	canceler  *sequencer.Canceler
	sequencer *sequencer.Sequencer
	reaper    *asyncproc.Reaper

	mu      sync.RWMutex
	tracker *sequencer.Tracker
	start   time.Time
	end     time.Time
}

// New builds an engine from a parsed configuration file.
func New(ctx context.Context, cfg *config.File) (*Engine, error) {
	stages, err := config.NormalizeConfig(cfg.Stages())
	if err != nil {
		return nil, err
	}

	reporterRegistry, err := reporter.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	manager := reporter.NewManager(reporterRegistry)
	for i := range cfg.Reporters {
		rc := &cfg.Reporters[i]
		if err := manager.AddReporterFromConfig(ctx, reporter.Type(rc.Type), rc.Enabled, rc.Config); err != nil {
			return nil, err
		}
	}
	// A config that names no reporters still gets console output.
	if len(cfg.Reporters) == 0 {
		if err := manager.AddReporterFromConfig(ctx, reporter.TypeConsole, true, nil); err != nil {
			return nil, err
		}
	}

	registry := asyncproc.NewRegistry()
	collector := metrics.NewCollector()
	runner := executor.NewRunner(registry, manager)
	canceler := sequencer.NewCanceler(registry, manager)

	e := &Engine{
		runID:     uuid.NewString(),
		control:   cfg.Control,
		stages:    stages,
		registry:  registry,
		manager:   manager,
		collector: collector,
		runner:    runner,
		canceler:  canceler,
		reaper:    asyncproc.NewReaper(registry, manager),
	}
	e.sequencer = sequencer.New(stages, runner, registry, canceler, collector, manager)
	return e, nil
}

// RunID returns the unique identifier of this run.
func (e *Engine) RunID() string {
	return e.runID
}

// Run executes the full stage sequence and returns the final report. The
// report is always non-nil; the error reflects a failed or aborted run.
func (e *Engine) Run(ctx context.Context) (*types.RunReport, error) {
	start := time.Now()
	end := start.Add(e.control.Window())

	tracker := sequencer.NewTracker(start, end)
	e.mu.Lock()
	e.start = start
	e.end = end
	e.tracker = tracker
	e.mu.Unlock()

	if err := e.manager.Start(ctx); err != nil {
		return nil, err
	}
	e.manager.BindProgress(tracker)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go tracker.Run(runCtx)
	go e.reaper.Run(runCtx)

	logger.Info("run %s started, window ends at %s", e.runID, end.Format(time.RFC3339))
	stages, runErr := e.sequencer.Run(runCtx, end)

	report := &types.RunReport{
		RunID:     e.runID,
		Status:    types.StageStatusOK,
		Stages:    stages,
		StartTime: start,
		EndTime:   time.Now(),
		Durations: e.collector.Durations(),
	}
	if runErr != nil {
		report.Status = types.StageStatusFail
		report.Message = runErr.Error()
	}

	// Reporter shutdown must not be cut short by a cancelled run context.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()

	if err := e.manager.Summary(closeCtx, report); err != nil {
		logger.Warn("summary delivery failed: %v", err)
	}
	if err := e.manager.Flush(closeCtx); err != nil {
		logger.Warn("reporter flush failed: %v", err)
	}
	if err := e.manager.Close(closeCtx); err != nil {
		logger.Warn("reporter close failed: %v", err)
	}

	logger.Info("run %s finished with status %s", e.runID, report.Status)
	return report, runErr
}

// Abort cancels the run. Safe to call from any goroutine, multiple times.
func (e *Engine) Abort(reason string) {
	e.canceler.Abort(reason)
}

// State returns the current run state.
func (e *Engine) State() string {
	return string(e.sequencer.State())
}

// Progress returns the window progress percentage.
func (e *Engine) Progress() int {
	e.mu.RLock()
	tracker := e.tracker
	e.mu.RUnlock()

	if tracker == nil {
		return 0
	}
	return tracker.Current()
}

// AsyncCount returns the number of tracked async tasks.
func (e *Engine) AsyncCount() int {
	return e.registry.Count()
}

// Window returns the run start time and the measurement end time.
func (e *Engine) Window() (time.Time, time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.start, e.end
}
