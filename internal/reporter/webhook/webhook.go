// Package webhook provides a webhook reporter for the stage engine.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"benchkit/stage-engine/pkg/types"
)

// Config holds configuration for the webhook reporter.
type Config struct {
	// URL is the webhook endpoint URL.
	URL string `yaml:"url"`
	// Method is the HTTP method (default: POST).
	Method string `yaml:"method"`
	// Headers are additional HTTP headers.
	Headers map[string]string `yaml:"headers,omitempty"`
	// RetryAttempts is the number of retry attempts on failure.
	RetryAttempts int `yaml:"retry_attempts"`
	// RetryDelay is the delay between retry attempts.
	RetryDelay time.Duration `yaml:"retry_delay"`
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default webhook reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:           "",
		Method:        http.MethodPost,
		Headers:       make(map[string]string),
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		Timeout:       10 * time.Second,
	}
}

// StatusPayload is the body posted for each status message.
type StatusPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Progress  int       `json:"progress"`
}

// SummaryPayload is the body posted for the final run report.
type SummaryPayload struct {
	Timestamp time.Time        `json:"timestamp"`
	Report    *types.RunReport `json:"report"`
}

// Reporter implements the webhook reporter.
type Reporter struct {
	config     *Config
	httpClient *http.Client

	mu          sync.Mutex
	initialized bool
}

// New creates a new webhook reporter.
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	return &Reporter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// NewFactory returns a factory function for creating webhook reporters.
func NewFactory() func(config map[string]any) (interface{ Name() string }, error) {
	return func(config map[string]any) (interface{ Name() string }, error) {
		cfg := DefaultConfig()
		if config != nil {
			if v, ok := config["url"].(string); ok {
				cfg.URL = v
			}
			if v, ok := config["method"].(string); ok {
				cfg.Method = v
			}
			if v, ok := config["headers"].(map[string]any); ok {
				for k, val := range v {
					if s, ok := val.(string); ok {
						cfg.Headers[k] = s
					}
				}
			}
			if v, ok := config["retry_attempts"].(int); ok {
				cfg.RetryAttempts = v
			}
			if v, ok := config["retry_delay"].(string); ok {
				if d, err := time.ParseDuration(v); err == nil {
					cfg.RetryDelay = d
				}
			}
			if v, ok := config["timeout"].(string); ok {
				if d, err := time.ParseDuration(v); err == nil {
					cfg.Timeout = d
				}
			}
		}
		return New(cfg), nil
	}
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "webhook"
}

// Init initializes the reporter.
func (r *Reporter) Init(ctx context.Context, config map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("reporter already initialized")
	}

	if r.config.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}

	r.initialized = true
	return nil
}

// Report posts one status message to the webhook.
func (r *Reporter) Report(ctx context.Context, status *types.StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	payload := &StatusPayload{
		Timestamp: time.Now(),
		Message:   status.Message,
		Progress:  status.Progress,
	}
	return r.sendWithRetry(ctx, payload)
}

// Summary posts the final run report to the webhook.
func (r *Reporter) Summary(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	payload := &SummaryPayload{
		Timestamp: time.Now(),
		Report:    report,
	}
	return r.sendWithRetry(ctx, payload)
}

// Flush flushes any buffered data.
func (r *Reporter) Flush(ctx context.Context) error {
	// Messages are posted synchronously, nothing to flush
	return nil
}

// Close closes the reporter.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return nil
}

// sendWithRetry sends the payload with retry logic.
func (r *Reporter) sendWithRetry(ctx context.Context, payload any) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := r.send(ctx, payload)
		if err == nil {
			return nil
		}

		lastErr = err
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.RetryAttempts+1, lastErr)
}

// send posts the payload to the webhook.
func (r *Reporter) send(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, r.config.Method, r.config.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetConfig returns the reporter configuration.
func (r *Reporter) GetConfig() *Config {
	return r.config
}
