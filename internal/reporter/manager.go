package reporter

import (
	"context"
	"fmt"
	"sync"

	"benchkit/stage-engine/pkg/logger"
	"benchkit/stage-engine/pkg/types"
)

// DefaultQueueSize is the status message queue capacity.
const DefaultQueueSize = 64

// ProgressSource supplies the current run progress percentage.
type ProgressSource interface {
	Current() int
}

// Manager fans status messages and the final report out to all configured
// reporters. Notify is safe to call from any goroutine; messages are
// dispatched by a single background goroutine so task execution never
// blocks on a slow reporter.
type Manager struct {
	registry  *Registry
	reporters []Reporter
	progress  ProgressSource
	queue     chan *types.StatusMessage
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	started   bool
}

// NewManager creates a new reporter manager.
func NewManager(registry *Registry) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Manager{
		registry:  registry,
		reporters: make([]Reporter, 0),
		queue:     make(chan *types.StatusMessage, DefaultQueueSize),
		stopCh:    make(chan struct{}),
	}
}

// BindProgress attaches the source used to stamp progress onto messages.
func (m *Manager) BindProgress(source ProgressSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = source
}

// AddReporter adds a reporter to the manager.
func (m *Manager) AddReporter(reporter Reporter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("cannot add reporter after manager has started")
	}

	m.reporters = append(m.reporters, reporter)
	return nil
}

// AddReporterFromConfig creates, initializes and adds a reporter from
// configuration. Disabled entries are skipped.
func (m *Manager) AddReporterFromConfig(ctx context.Context, reporterType Type, enabled bool, config map[string]any) error {
	if !enabled {
		return nil
	}

	reporter, err := m.registry.Create(reporterType, config)
	if err != nil {
		return fmt.Errorf("failed to create reporter %s: %w", reporterType, err)
	}

	if err := reporter.Init(ctx, config); err != nil {
		return fmt.Errorf("failed to initialize reporter %s: %w", reporterType, err)
	}

	return m.AddReporter(reporter)
}

// Start launches the background dispatch goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("manager already started")
	}
	m.started = true

	m.wg.Add(1)
	go m.dispatch(ctx)
	return nil
}

// dispatch delivers queued messages until the manager stops.
func (m *Manager) dispatch(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case status := <-m.queue:
			if err := m.Report(ctx, status); err != nil {
				logger.Warn("status dispatch failed: %v", err)
			}
		case <-m.stopCh:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case status := <-m.queue:
					if err := m.Report(ctx, status); err != nil {
						logger.Warn("status dispatch failed: %v", err)
					}
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Notify enqueues a status message stamped with the current progress.
// When the queue is full the message is dropped rather than blocking the
// caller.
func (m *Manager) Notify(message string) {
	m.mu.RLock()
	source := m.progress
	m.mu.RUnlock()

	status := &types.StatusMessage{Message: message}
	if source != nil {
		status.Progress = source.Current()
	}

	select {
	case m.queue <- status:
	default:
		logger.Warn("status queue full, dropping message: %s", message)
	}
}

// Report sends one status message to all reporters.
func (m *Manager) Report(ctx context.Context, status *types.StatusMessage) error {
	m.mu.RLock()
	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	m.mu.RUnlock()

	var errs []error
	for _, reporter := range reporters {
		if err := reporter.Report(ctx, status); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("report errors: %v", errs)
	}
	return nil
}

// Summary sends the final run report to all reporters.
func (m *Manager) Summary(ctx context.Context, report *types.RunReport) error {
	m.mu.RLock()
	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	m.mu.RUnlock()

	var errs []error
	for _, reporter := range reporters {
		if err := reporter.Summary(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("summary errors: %v", errs)
	}
	return nil
}

// Flush flushes all reporters.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.RLock()
	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	m.mu.RUnlock()

	var errs []error
	for _, reporter := range reporters {
		if err := reporter.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("flush errors: %v", errs)
	}
	return nil
}

// Close stops dispatching and closes all reporters.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		close(m.stopCh)
	}
	m.mu.Unlock()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, reporter := range m.reporters {
		if err := reporter.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reporter.Name(), err))
		}
	}

	m.reporters = nil
	m.started = false

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// GetReporters returns all registered reporters.
func (m *Manager) GetReporters() []Reporter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reporters := make([]Reporter, len(m.reporters))
	copy(reporters, m.reporters)
	return reporters
}

// GetReporterCount returns the number of registered reporters.
func (m *Manager) GetReporterCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reporters)
}

// IsStarted returns whether the manager has started.
func (m *Manager) IsStarted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}
