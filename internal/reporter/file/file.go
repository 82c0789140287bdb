// Package file provides a JSON file reporter for the stage engine.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ohler55/ojg/oj"

	"benchkit/stage-engine/pkg/types"
)

// Config holds configuration for the file reporter.
type Config struct {
	// Path is the output file path.
	Path string `yaml:"path"`
	// Indent is the JSON indentation width.
	Indent int `yaml:"indent"`
	// IncludeStatuses embeds the status message log in the document.
	IncludeStatuses bool `yaml:"include_statuses"`
}

// DefaultConfig returns the default file reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:            "run-report.json",
		Indent:          2,
		IncludeStatuses: true,
	}
}

// StatusRecord is one logged status message.
type StatusRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Progress  int       `json:"progress"`
}

// Document is the JSON document written to the output file.
type Document struct {
	Report   *types.RunReport `json:"report"`
	Statuses []*StatusRecord  `json:"statuses,omitempty"`
}

// Reporter implements the JSON file reporter.
type Reporter struct {
	config *Config

	mu          sync.Mutex
	statuses    []*StatusRecord
	report      *types.RunReport
	written     bool
	initialized bool
}

// New creates a new file reporter.
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Path == "" {
		config.Path = DefaultConfig().Path
	}
	return &Reporter{config: config}
}

// NewFactory returns a factory function for creating file reporters.
func NewFactory() func(config map[string]any) (interface{ Name() string }, error) {
	return func(config map[string]any) (interface{ Name() string }, error) {
		cfg := DefaultConfig()
		if config != nil {
			if v, ok := config["path"].(string); ok {
				cfg.Path = v
			}
			if v, ok := config["indent"].(int); ok {
				cfg.Indent = v
			}
			if v, ok := config["include_statuses"].(bool); ok {
				cfg.IncludeStatuses = v
			}
		}
		return New(cfg), nil
	}
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "file"
}

// Init initializes the reporter and ensures the output directory exists.
func (r *Reporter) Init(ctx context.Context, config map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("reporter already initialized")
	}

	if dir := filepath.Dir(r.config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	r.initialized = true
	return nil
}

// Report logs one status message.
func (r *Reporter) Report(ctx context.Context, status *types.StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	if r.config.IncludeStatuses {
		r.statuses = append(r.statuses, &StatusRecord{
			Timestamp: time.Now(),
			Message:   status.Message,
			Progress:  status.Progress,
		})
	}
	return nil
}

// Summary records the final run report for writing.
func (r *Reporter) Summary(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	r.report = report
	return nil
}

// Flush writes the document to the output file.
func (r *Reporter) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil
	}
	return r.write()
}

// Close writes the document if it has not been written yet.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil
	}

	if !r.written {
		if err := r.write(); err != nil {
			return err
		}
	}

	r.initialized = false
	return nil
}

// write serializes and writes the document. Caller holds the lock.
func (r *Reporter) write() error {
	if r.report == nil {
		return nil
	}

	doc := &Document{Report: r.report}
	if r.config.IncludeStatuses {
		doc.Statuses = r.statuses
	}

	data, err := oj.Marshal(doc, r.config.Indent)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(r.config.Path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	r.written = true
	return nil
}

// GetConfig returns the reporter configuration.
func (r *Reporter) GetConfig() *Config {
	return r.config
}
