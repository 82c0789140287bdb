// Package reporter provides the status reporting framework for the stage
// engine. Reporters receive out-of-band status messages during the run and
// the final run report when the run ends.
package reporter

import (
	"context"
	"fmt"
	"sync"

	"benchkit/stage-engine/pkg/types"
)

// Reporter defines the interface for status outputs.
type Reporter interface {
	// Name returns the reporter name.
	Name() string

	// Init initializes the reporter with its configuration.
	Init(ctx context.Context, config map[string]any) error

	// Report delivers one status message.
	Report(ctx context.Context, status *types.StatusMessage) error

	// Summary delivers the final run report.
	Summary(ctx context.Context, report *types.RunReport) error

	// Flush flushes any buffered data.
	Flush(ctx context.Context) error

	// Close closes the reporter and releases its resources.
	Close(ctx context.Context) error
}

// Type identifies a reporter implementation.
type Type string

const (
	// TypeConsole writes to the console.
	TypeConsole Type = "console"
	// TypeWebhook posts to a webhook URL.
	TypeWebhook Type = "webhook"
	// TypeFile writes the final report to a JSON file.
	TypeFile Type = "file"
)

// Factory creates a reporter of a specific type.
type Factory func(config map[string]any) (Reporter, error)

// Registry manages reporter registration and creation.
type Registry struct {
	factories map[Type]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty reporter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Type]Factory),
	}
}

// Register registers a reporter factory for the given type.
func (r *Registry) Register(reporterType Type, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reporterType]; exists {
		return fmt.Errorf("reporter type already registered: %s", reporterType)
	}

	r.factories[reporterType] = factory
	return nil
}

// Unregister removes a reporter factory.
func (r *Registry) Unregister(reporterType Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, reporterType)
}

// Create creates a reporter of the given type.
func (r *Registry) Create(reporterType Type, config map[string]any) (Reporter, error) {
	r.mu.RLock()
	factory, exists := r.factories[reporterType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown reporter type: %s", reporterType)
	}

	return factory(config)
}

// ListTypes returns all registered reporter types.
func (r *Registry) ListTypes() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		list = append(list, t)
	}
	return list
}

// HasType reports whether a reporter type is registered.
func (r *Registry) HasType(reporterType Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[reporterType]
	return exists
}
