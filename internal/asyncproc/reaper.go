package asyncproc

import (
	"context"
	"fmt"
	"time"

	"benchkit/stage-engine/pkg/logger"
)

const (
	// DefaultInterval is the reaper sweep interval.
	DefaultInterval = 5 * time.Second
	// DefaultCollectWait bounds the per-entry collection attempt.
	DefaultCollectWait = time.Second
)

// Notifier publishes out-of-band status messages.
type Notifier interface {
	Notify(message string)
}

// Reaper periodically sweeps the registry: it collects finished async
// processes, forwards their output when a task requests notification, and
// sends a termination signal once an entry's deadline has passed. It never
// blocks longer than the bounded collect per entry.
type Reaper struct {
	registry    *Registry
	notifier    Notifier
	interval    time.Duration
	collectWait time.Duration
}

// NewReaper creates a reaper over the given registry.
func NewReaper(registry *Registry, notifier Notifier) *Reaper {
	return &Reaper{
		registry:    registry,
		notifier:    notifier,
		interval:    DefaultInterval,
		collectWait: DefaultCollectWait,
	}
}

// WithInterval overrides the sweep interval (used by tests).
func (r *Reaper) WithInterval(interval, collectWait time.Duration) *Reaper {
	r.interval = interval
	r.collectWait = collectWait
	return r
}

// Run executes the reaper loop until the context is cancelled. The loop is
// independent of the sequencer and keeps advancing while it blocks on the
// measurement window.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep performs one pass over all running entries.
func (r *Reaper) Sweep() {
	for _, entry := range r.registry.Running() {
		r.collect(entry)
	}
}

// collect attempts to reap one entry with a bounded wait.
func (r *Reaper) collect(entry *Entry) {
	select {
	case <-entry.Done():
		// Exit status available: running -> complete, exactly once.
		if !entry.markComplete() {
			return
		}
		r.emitOutput(entry)
		logger.Info("async task %q finished with exit code %d", entry.Task.Label(), entry.ExitCode())
		r.registry.Remove(entry.ID)
		return
	case <-time.After(r.collectWait):
	}

	// Still running: forward any new output, then check the deadline.
	r.emitOutput(entry)

	if !entry.Deadline.IsZero() && time.Now().After(entry.Deadline) && !entry.termSent.Load() {
		entry.Terminate()
		r.notify(fmt.Sprintf("async task %q exceeded its %v timeout, sent termination signal",
			entry.Task.Label(), entry.Task.Timeout))
		// Completion is observed on a later sweep, once Wait returns.
	}
}

// emitOutput sends captured output that has not been reported yet.
func (r *Reaper) emitOutput(entry *Entry) {
	if !entry.Task.Notify {
		return
	}
	output := entry.out.StringFrom(entry.notifiedLen)
	if output == "" {
		return
	}
	entry.notifiedLen += len(output)
	r.notify(fmt.Sprintf("output of async task %q: %s", entry.Task.Label(), output))
}

func (r *Reaper) notify(message string) {
	if r.notifier != nil {
		r.notifier.Notify(message)
	}
}
