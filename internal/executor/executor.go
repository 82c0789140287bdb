// Package executor dispatches normalized tasks to their mode-specific
// handlers and applies the per-task retry policy.
package executor

import (
	"context"

	"benchkit/stage-engine/internal/asyncproc"
	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

// Executor executes a single attempt of a normalized task.
type Executor interface {
	// Modes returns the task modes this executor handles.
	Modes() []types.TaskMode

	// Execute runs one attempt and returns its result. Failures are
	// reported through the result, not the error channel.
	Execute(ctx context.Context, task *types.Task) *types.TaskResult
}

// Notifier publishes out-of-band status messages.
type Notifier interface {
	Notify(message string)
}

// Runner dispatches tasks to their executors with retries. An attempt that
// returns ok or running stops the loop early; otherwise the last failed
// result stands.
type Runner struct {
	executors map[types.TaskMode]Executor
}

// NewRunner wires the default executors over the given registry.
func NewRunner(registry *asyncproc.Registry, notifier Notifier) *Runner {
	r := &Runner{
		executors: make(map[types.TaskMode]Executor),
	}
	r.Register(NewProcessExecutor(registry, notifier))
	r.Register(NewRequestExecutor(notifier))
	return r
}

// Register installs an executor for every mode it handles.
func (r *Runner) Register(exec Executor) {
	for _, mode := range exec.Modes() {
		r.executors[mode] = exec
	}
}

// RunTask executes a task, retrying failed attempts up to task.Retries
// additional times.
func (r *Runner) RunTask(ctx context.Context, task *types.Task) *types.TaskResult {
	exec, ok := r.executors[task.Mode]
	if !ok {
		result := types.NewTaskResult(task.Label())
		result.Fail(-1, "no executor registered for mode "+string(task.Mode))
		result.Finish()
		return result
	}

	attempts := task.Retries + 1
	var result *types.TaskResult
	for attempt := 1; attempt <= attempts; attempt++ {
		result = exec.Execute(ctx, task)
		result.Ignored = task.IgnoreExitCode
		if result.Status == types.TaskStatusOK || result.Status == types.TaskStatusRunning {
			return result
		}
		if attempt < attempts {
			logger.Warn("task %q attempt %d/%d failed: %s", task.Label(), attempt, attempts, result.Message)
		}
	}
	return result
}
