package sequencer

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is the progress tracker update interval.
const DefaultProgressInterval = 10 * time.Second

// Tracker computes the elapsed-window percentage on a fixed interval and
// publishes it for the status-message path.
type Tracker struct {
	start    time.Time
	end      time.Time
	interval time.Duration
	current  atomic.Int64
}

// NewTracker creates a tracker over the given window.
func NewTracker(start, end time.Time) *Tracker {
	return &Tracker{
		start:    start,
		end:      end,
		interval: DefaultProgressInterval,
	}
}

// WithInterval overrides the update interval (used by tests).
func (t *Tracker) WithInterval(interval time.Duration) *Tracker {
	t.interval = interval
	return t
}

// Run executes the tracker loop until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	t.update(time.Now())

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.update(now)
		}
	}
}

// Current returns the last published progress percentage.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// update recomputes progress = clamp(0, 100, 100*(now-start)/(end-start)).
func (t *Tracker) update(now time.Time) {
	t.current.Store(int64(ProgressAt(t.start, t.end, now)))
}

// ProgressAt computes the clamped elapsed percentage of [start, end] at now.
func ProgressAt(start, end, now time.Time) int {
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	pct := int(100 * now.Sub(start) / total)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
