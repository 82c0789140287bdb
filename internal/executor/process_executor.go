package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"benchkit/stage-engine/internal/asyncproc"
	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

const (
	// Grace period between terminating and force-killing a timed-out
	// process group.
	killGracePeriod = 2 * time.Second

	// Bound on the final wait after force-kill.
	finalWaitTimeout = time.Second
)

// ProcessExecutor handles exec and shell_exec tasks. Commands run in their
// own process group and are never attached to the caller's input.
type ProcessExecutor struct {
	registry  *asyncproc.Registry
	notifier  Notifier
	shell     string
	shellArgs []string
}

// NewProcessExecutor creates a process executor over the given registry.
func NewProcessExecutor(registry *asyncproc.Registry, notifier Notifier) *ProcessExecutor {
	return &ProcessExecutor{
		registry:  registry,
		notifier:  notifier,
		shell:     "/bin/sh",
		shellArgs: []string{"-c"},
	}
}

// Modes implements Executor.
func (e *ProcessExecutor) Modes() []types.TaskMode {
	return []types.TaskMode{types.ModeProcessExec, types.ModeShellExec}
}

// Execute launches the task's command. Async tasks are registered and
// reported as running without waiting; synchronous tasks are waited on up
// to their timeout with an escalating termination sequence.
func (e *ProcessExecutor) Execute(ctx context.Context, task *types.Task) *types.TaskResult {
	result := types.NewTaskResult(task.Label())
	defer result.Finish()

	cmd := e.buildCommand(task)
	out := asyncproc.NewOutputBuffer()
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		startErr := NewStartError(task.Label(), err)
		result.Fail(-1, startErr.Error())
		return result
	}

	if task.Async {
		entry := e.registry.Add(task, cmd, out)
		result.Running(fmt.Sprintf("async task %q started (%s)", task.Label(), entry.ID))
		logger.Debug("launched async task %q pid %d", task.Label(), cmd.Process.Pid)
		return result
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var deadline <-chan time.Time
	if task.Timeout > 0 {
		timer := time.NewTimer(task.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case err := <-done:
		e.finishSync(task, result, out, err)
	case <-deadline:
		e.reclaim(cmd, done)
		timeoutErr := NewTimeoutError(task.Label(), task.Timeout)
		result.Fail(-1, fmt.Sprintf("%s; output: %s", timeoutErr.Error(), out.String()))
		e.maybeNotify(task, out.String())
	case <-ctx.Done():
		e.reclaim(cmd, done)
		result.Fail(-1, fmt.Sprintf("task %q aborted: %v", task.Label(), ctx.Err()))
	}

	return result
}

// buildCommand constructs the command for either process mode.
func (e *ProcessExecutor) buildCommand(task *types.Task) *exec.Cmd {
	if task.Mode == types.ModeShellExec {
		args := append(append([]string{}, e.shellArgs...), task.Command)
		return exec.Command(e.shell, args...)
	}
	return exec.Command(task.Args[0], task.Args[1:]...)
}

// finishSync classifies a completed synchronous task.
func (e *ProcessExecutor) finishSync(task *types.Task, result *types.TaskResult, out *asyncproc.OutputBuffer, waitErr error) {
	code := 0
	if waitErr != nil {
		code = -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
	}

	output := out.String()
	if code == 0 {
		result.Code = 0
		result.Message = strings.TrimSpace(output)
	} else {
		exitErr := NewExitError(task.Label(), code)
		result.Fail(code, fmt.Sprintf("%s; output: %s", exitErr.Error(), output))
	}

	e.maybeNotify(task, output)
}

// reclaim runs the escalating termination sequence for a timed-out or
// aborted process: terminate the group, wait out a grace period, force-kill
// the group, force-kill the process, then a bounded final wait. Every step
// is best-effort; the process may already be gone.
func (e *ProcessExecutor) reclaim(cmd *exec.Cmd, done <-chan error) {
	if cmd.Process == nil {
		return
	}
	pgid := cmd.Process.Pid

	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	select {
	case <-done:
		return
	case <-time.After(killGracePeriod):
	}

	_ = syscall.Kill(-pgid, syscall.SIGKILL)
	_ = cmd.Process.Kill()

	select {
	case <-done:
	case <-time.After(finalWaitTimeout):
	}
}

// maybeNotify emits captured output as a status message when the task
// requests notification, regardless of outcome.
func (e *ProcessExecutor) maybeNotify(task *types.Task, output string) {
	if !task.Notify || e.notifier == nil {
		return
	}
	output = strings.TrimSpace(output)
	if output == "" {
		return
	}
	e.notifier.Notify(fmt.Sprintf("output of task %q: %s", task.Label(), output))
}
