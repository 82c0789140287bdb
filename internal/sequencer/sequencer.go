// Package sequencer drives the four lifecycle stages around the measurement
// window and owns the failure, progress and cancellation paths.
package sequencer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"benchkit/stage-engine/internal/asyncproc"
	"benchkit/stage-engine/internal/metrics"
	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

// State represents the sequencer's position in the run.
type State string

const (
	// StateInit is the initial state before any stage runs.
	StateInit State = "init"
	// StatePre indicates the pre stage is executing.
	StatePre State = "pre"
	// StateStart indicates the start stage is executing.
	StateStart State = "start"
	// StateWaiting indicates the sequencer is blocked on the window.
	StateWaiting State = "waiting"
	// StateStop indicates the stop stage is executing.
	StateStop State = "stop"
	// StatePost indicates the post stage is executing.
	StatePost State = "post"
	// StateDone indicates the run completed.
	StateDone State = "done"
	// StateFailed indicates the run failed; post has already run.
	StateFailed State = "failed"
)

// FailureGracePeriod is the async teardown grace on the failure path.
const FailureGracePeriod = 2 * time.Second

// Notifier publishes out-of-band status messages.
type Notifier interface {
	Notify(message string)
}

// TaskRunner executes one task with its retry policy applied.
type TaskRunner interface {
	RunTask(ctx context.Context, task *types.Task) *types.TaskResult
}

// StageFailure is the error surfaced when an unignored task failure fails a
// stage. By the time the caller sees it, post has run and all async tasks
// have been stopped.
type StageFailure struct {
	Stage   types.StageName
	Message string
}

// Error implements the error interface.
func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed: %s", e.Stage, e.Message)
}

// AbortError is returned when the run was cancelled externally.
type AbortError struct {
	Reason string
}

// Error implements the error interface.
func (e *AbortError) Error() string {
	return "run aborted: " + e.Reason
}

// Sequencer runs the stages in fixed order: pre, start, wait out the
// window, stop, post. Post always executes and its failures are always
// ignored.
type Sequencer struct {
	stages    map[types.StageName][]*types.Task
	runner    TaskRunner
	registry  *asyncproc.Registry
	notifier  Notifier
	collector *metrics.Collector
	canceler  *Canceler

	state atomic.Value // State
}

// New creates a sequencer over normalized stages.
func New(stages map[types.StageName][]*types.Task, runner TaskRunner, registry *asyncproc.Registry, canceler *Canceler, collector *metrics.Collector, notifier Notifier) *Sequencer {
	s := &Sequencer{
		stages:    stages,
		runner:    runner,
		registry:  registry,
		notifier:  notifier,
		collector: collector,
		canceler:  canceler,
	}
	s.state.Store(StateInit)
	return s
}

// State returns the sequencer's current state.
func (s *Sequencer) State() State {
	return s.state.Load().(State)
}

// Run executes the full stage sequence. The end time has been computed from
// the control parameters before the run and is immutable. The returned
// stage results always include every stage that executed, post included.
func (s *Sequencer) Run(ctx context.Context, endTime time.Time) ([]*types.StageResult, error) {
	var results []*types.StageResult

	for _, stage := range []types.StageName{types.StagePre, types.StageStart} {
		if err := s.checkAborted(ctx); err != nil {
			return results, err
		}
		s.state.Store(State(stage))
		result := s.executeStage(ctx, stage)
		results = append(results, result)
		if result.Status == types.StageStatusFail {
			return s.failRun(ctx, results, stage, result.Message)
		}
	}

	s.state.Store(StateWaiting)
	logger.Info("waiting for measurement window to elapse (until %s)", endTime.Format(time.RFC3339))
	select {
	case <-time.After(time.Until(endTime)):
	case <-ctx.Done():
		return results, s.abort(ctx.Err().Error())
	case <-s.canceler.Done():
		s.state.Store(StateFailed)
		return results, &AbortError{Reason: "external abort"}
	}

	if err := s.checkAborted(ctx); err != nil {
		return results, err
	}
	s.state.Store(StateStop)
	stopResult := s.executeStage(ctx, types.StageStop)
	results = append(results, stopResult)
	if stopResult.Status == types.StageStatusFail {
		return s.failRun(ctx, results, types.StageStop, stopResult.Message)
	}

	// An abort that landed while stop was executing skips post.
	if err := s.checkAborted(ctx); err != nil {
		return results, err
	}
	s.state.Store(StatePost)
	results = append(results, s.runPost(ctx))

	if err := s.checkAborted(ctx); err != nil {
		return results, err
	}
	s.state.Store(StateDone)
	return results, nil
}

// executeStage runs all tasks of one stage in order. For non-post stages
// the first unignored failure fails the stage and skips the remainder.
func (s *Sequencer) executeStage(ctx context.Context, stage types.StageName) *types.StageResult {
	tasks := s.stages[stage]
	result := &types.StageResult{
		Stage:   stage,
		Status:  types.StageStatusOK,
		Started: time.Now(),
	}

	logger.Info("executing stage %s (%d tasks)", stage, len(tasks))
	for _, task := range tasks {
		taskResult := s.runner.RunTask(ctx, task)
		s.collector.Record(stage, taskResult)
		result.Tasks = append(result.Tasks, taskResult)

		if taskResult.Failed() && stage != types.StagePost {
			result.Status = types.StageStatusFail
			result.Message = taskResult.Message
			break
		}
	}

	result.Finished = time.Now()
	return result
}

// runPost executes the post stage with every failure ignored.
func (s *Sequencer) runPost(ctx context.Context) *types.StageResult {
	result := s.executeStage(ctx, types.StagePost)
	for _, taskResult := range result.Tasks {
		if taskResult.Status == types.TaskStatusFail && !taskResult.Ignored {
			logger.Warn("ignoring post task failure: %s", taskResult.Message)
		}
	}
	result.Status = types.StageStatusOK
	return result
}

// failRun is the common failure path: run post ignoring its errors, stop
// every async task, then surface the stage failure.
func (s *Sequencer) failRun(ctx context.Context, results []*types.StageResult, stage types.StageName, message string) ([]*types.StageResult, error) {
	s.state.Store(StateFailed)
	logger.Error("stage %s failed: %s", stage, message)

	s.state.Store(StatePost)
	results = append(results, s.runPost(ctx))
	s.state.Store(StateFailed)

	s.registry.StopAll(FailureGracePeriod)

	if s.notifier != nil {
		s.notifier.Notify(fmt.Sprintf("stage %s failed: %s", stage, message))
	}
	return results, &StageFailure{Stage: stage, Message: message}
}

// abort reports a cancellation observed mid-run.
func (s *Sequencer) abort(reason string) error {
	s.state.Store(StateFailed)
	s.canceler.Abort(reason)
	return &AbortError{Reason: reason}
}

// checkAborted fails fast when the run has been cancelled.
func (s *Sequencer) checkAborted(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return s.abort(ctx.Err().Error())
	case <-s.canceler.Done():
		s.state.Store(StateFailed)
		return &AbortError{Reason: "external abort"}
	default:
		return nil
	}
}
