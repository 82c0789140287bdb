package sequencer

import (
	"sync"
	"time"

	"benchkit/stage-engine/internal/asyncproc"
	"benchkit/stage-engine/pkg/logger"
)

// AbortGracePeriod is the pause between terminating and force-killing async
// processes during cancellation.
const AbortGracePeriod = 2 * time.Second

// Canceler reacts to an external abort: it tears down every still-running
// async process and reports the failure. Re-entrant aborts after the first
// are no-ops.
type Canceler struct {
	registry *asyncproc.Registry
	notifier Notifier

	once sync.Once
	done chan struct{}
}

// NewCanceler creates a canceler over the given registry.
func NewCanceler(registry *asyncproc.Registry, notifier Notifier) *Canceler {
	return &Canceler{
		registry: registry,
		notifier: notifier,
		done:     make(chan struct{}),
	}
}

// Abort performs the teardown exactly once: terminate then kill every
// running async process with a grace period in between, then report the
// failure. Later calls return immediately.
func (c *Canceler) Abort(reason string) {
	c.once.Do(func() {
		logger.Error("run aborted: %s", reason)
		c.registry.StopAll(AbortGracePeriod)
		if c.notifier != nil {
			c.notifier.Notify("run aborted: " + reason)
		}
		close(c.done)
	})
}

// Done returns a channel closed once an abort has been processed.
func (c *Canceler) Done() <-chan struct{} {
	return c.done
}

// Aborted reports whether an abort has been processed.
func (c *Canceler) Aborted() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
