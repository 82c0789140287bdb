package asyncproc

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/stage-engine/pkg/types"
)

type stubNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *stubNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *stubNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.messages...)
}

func TestReaperCollectsFinished(t *testing.T) {
	registry := NewRegistry()
	notifier := &stubNotifier{}
	reaper := NewReaper(registry, notifier).WithInterval(50*time.Millisecond, 50*time.Millisecond)

	cmd, out := startProcess(t, "echo all good")
	entry := registry.Add(&types.Task{Name: "quick", Notify: true}, cmd, out)

	select {
	case <-entry.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not finish")
	}

	reaper.Sweep()

	assert.Equal(t, 0, registry.Count(), "collected entry must be removed")

	messages := notifier.Messages()
	require.NotEmpty(t, messages)
	assert.Contains(t, messages[0], "all good")
}

func TestReaperSilentWithoutNotify(t *testing.T) {
	registry := NewRegistry()
	notifier := &stubNotifier{}
	reaper := NewReaper(registry, notifier).WithInterval(50*time.Millisecond, 50*time.Millisecond)

	cmd, out := startProcess(t, "echo quiet output")
	entry := registry.Add(&types.Task{Name: "quiet"}, cmd, out)

	select {
	case <-entry.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not finish")
	}

	reaper.Sweep()

	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, notifier.Messages())
}

func TestReaperForwardsIncrementalOutput(t *testing.T) {
	registry := NewRegistry()
	notifier := &stubNotifier{}
	reaper := NewReaper(registry, notifier).WithInterval(50*time.Millisecond, 100*time.Millisecond)

	cmd, out := startProcess(t, "echo first; sleep 30")
	registry.Add(&types.Task{Name: "chatty", Notify: true}, cmd, out)
	defer registry.StopAll(100 * time.Millisecond)

	// Give the process a moment to emit, then sweep twice. The second
	// sweep must not repeat already-forwarded output.
	time.Sleep(200 * time.Millisecond)
	reaper.Sweep()
	reaper.Sweep()

	count := 0
	for _, m := range notifier.Messages() {
		if strings.Contains(m, "first") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestReaperTerminatesExpired(t *testing.T) {
	registry := NewRegistry()
	notifier := &stubNotifier{}
	reaper := NewReaper(registry, notifier).WithInterval(50*time.Millisecond, 100*time.Millisecond)

	cmd, out := startProcess(t, "sleep 30")
	entry := registry.Add(&types.Task{
		Name:    "expired",
		Timeout: 10 * time.Millisecond,
	}, cmd, out)

	// Deadline already passed by the time the sweep runs.
	time.Sleep(50 * time.Millisecond)
	reaper.Sweep()

	assert.True(t, entry.termSent.Load())

	select {
	case <-entry.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("terminated process did not exit")
	}

	// A later sweep observes the exit and removes the entry.
	reaper.Sweep()
	assert.Equal(t, 0, registry.Count())

	found := false
	for _, m := range notifier.Messages() {
		if strings.Contains(m, "timeout") {
			found = true
		}
	}
	assert.True(t, found, "timeout notification expected")
}

func TestReaperRunStopsOnContext(t *testing.T) {
	registry := NewRegistry()
	reaper := NewReaper(registry, nil).WithInterval(10*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on context cancellation")
	}
}
