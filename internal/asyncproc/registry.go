package asyncproc

import (
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

// EntryState represents the lifecycle state of a registry entry.
type EntryState int32

const (
	// StateRunning indicates the process is still tracked.
	StateRunning EntryState = iota
	// StateComplete indicates the process has been collected; the entry is
	// eligible for removal.
	StateComplete
)

// Entry is one tracked async process. The process handle is exclusively
// owned by the entry from creation until its state becomes complete.
type Entry struct {
	ID        string
	Task      *types.Task
	StartedAt time.Time
	Deadline  time.Time // zero when the task has no timeout

	cmd      *exec.Cmd
	out      *OutputBuffer
	state    atomic.Int32
	done     chan struct{}
	exitCode atomic.Int32
	termSent atomic.Bool

	// Bytes of output already emitted as status messages.
	notifiedLen int
}

// Done returns a channel closed once the process has exited and its exit
// status is available.
func (e *Entry) Done() <-chan struct{} {
	return e.done
}

// State returns the current entry state.
func (e *Entry) State() EntryState {
	return EntryState(e.state.Load())
}

// ExitCode returns the collected exit code; only meaningful after Done.
func (e *Entry) ExitCode() int {
	return int(e.exitCode.Load())
}

// Output returns the full captured output so far.
func (e *Entry) Output() string {
	return e.out.String()
}

// markComplete transitions running -> complete exactly once.
func (e *Entry) markComplete() bool {
	return e.state.CompareAndSwap(int32(StateRunning), int32(StateComplete))
}

// Terminate sends SIGTERM to the entry's process group. Repeated calls and
// calls against an already-dead process are no-ops.
func (e *Entry) Terminate() {
	e.termSent.Store(true)
	if e.cmd.Process == nil {
		return
	}
	// The process was started in its own group, so the group id is its pid.
	_ = syscall.Kill(-e.cmd.Process.Pid, syscall.SIGTERM)
}

// Kill force-kills the entry's process group, then the process itself.
// Best-effort: failures mean the process is already gone.
func (e *Entry) Kill() {
	if e.cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-e.cmd.Process.Pid, syscall.SIGKILL)
	_ = e.cmd.Process.Kill()
}

// Registry tracks launched async processes. It is mutated from the executor
// (insertion), the reaper loop (completion and removal) and the cancellation
// handler (forced termination).
type Registry struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Add registers a started command and begins collecting its exit status in
// the background. The returned entry owns the process handle.
func (r *Registry) Add(task *types.Task, cmd *exec.Cmd, out *OutputBuffer) *Entry {
	entry := &Entry{
		ID:        uuid.New().String(),
		Task:      task,
		StartedAt: time.Now(),
		cmd:       cmd,
		out:       out,
		done:      make(chan struct{}),
	}
	if task.Timeout > 0 {
		entry.Deadline = entry.StartedAt.Add(task.Timeout)
	}

	// Wait may only be called once per command, so a single collector
	// goroutine owns it and publishes the exit code through done.
	go func() {
		err := cmd.Wait()
		code := 0
		if err != nil {
			code = -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			}
		}
		entry.exitCode.Store(int32(code))
		close(entry.done)
	}()

	r.mu.Lock()
	r.entries[entry.ID] = entry
	r.mu.Unlock()

	logger.Debug("registered async task %q (%s)", task.Label(), entry.ID)
	return entry
}

// Get returns the entry with the given id.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// Running returns all entries still in the running state.
func (r *Registry) Running() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	running := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.State() == StateRunning {
			running = append(running, entry)
		}
	}
	return running
}

// Count returns the number of tracked entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Remove drops a completed entry from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// StopAll forcibly terminates every still-running entry: SIGTERM to each
// process group, a grace period, then SIGKILL for whatever has not exited.
// Termination is idempotent; signaling an already-dead process is harmless.
func (r *Registry) StopAll(grace time.Duration) {
	running := r.Running()
	if len(running) == 0 {
		return
	}

	logger.Info("stopping %d async task(s)", len(running))
	for _, entry := range running {
		entry.Terminate()
	}

	killAt := time.Now().Add(grace)
	for _, entry := range running {
		select {
		case <-entry.Done():
		case <-time.After(time.Until(killAt)):
			entry.Kill()
		}
	}

	for _, entry := range running {
		select {
		case <-entry.Done():
		case <-time.After(time.Second):
			// Best-effort reclamation only.
		}
		entry.markComplete()
	}
}
