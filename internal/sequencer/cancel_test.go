package sequencer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"benchkit/stage-engine/internal/asyncproc"
)

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) Notify(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func TestCancelerAbortOnce(t *testing.T) {
	notifier := &countingNotifier{}
	canceler := NewCanceler(asyncproc.NewRegistry(), notifier)

	assert.False(t, canceler.Aborted())

	canceler.Abort("first")
	assert.True(t, canceler.Aborted())
	assert.Equal(t, 1, notifier.Count())

	// Re-entrant aborts are no-ops.
	canceler.Abort("second")
	canceler.Abort("third")
	assert.Equal(t, 1, notifier.Count())
}

func TestCancelerConcurrentAborts(t *testing.T) {
	notifier := &countingNotifier{}
	canceler := NewCanceler(asyncproc.NewRegistry(), notifier)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			canceler.Abort("race")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.Count())
}

func TestCancelerDoneChannel(t *testing.T) {
	canceler := NewCanceler(asyncproc.NewRegistry(), nil)

	select {
	case <-canceler.Done():
		t.Fatal("done must not be closed before abort")
	default:
	}

	canceler.Abort("now")

	select {
	case <-canceler.Done():
	case <-time.After(time.Second):
		t.Fatal("done must be closed after abort")
	}
}
