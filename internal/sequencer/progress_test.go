package sequencer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressAt(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Second)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before start", start.Add(-10 * time.Second), 0},
		{"at start", start, 0},
		{"quarter", start.Add(25 * time.Second), 25},
		{"half", start.Add(50 * time.Second), 50},
		{"at end", end, 100},
		{"past end", end.Add(time.Hour), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressAt(start, end, tt.now))
		})
	}
}

func TestProgressAtDegenerateWindow(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 100, ProgressAt(now, now, now))
	assert.Equal(t, 100, ProgressAt(now, now.Add(-time.Second), now))
}

func TestTrackerPublishesProgress(t *testing.T) {
	start := time.Now().Add(-50 * time.Second)
	end := start.Add(100 * time.Second)
	tracker := NewTracker(start, end).WithInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tracker.Run(ctx)

	// The initial update runs before the first tick.
	assert.Eventually(t, func() bool {
		current := tracker.Current()
		return current >= 49 && current <= 51
	}, time.Second, 5*time.Millisecond)
}

func TestTrackerStopsOnContext(t *testing.T) {
	tracker := NewTracker(time.Now(), time.Now().Add(time.Hour)).WithInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop on context cancellation")
	}
}
