// Package console provides a console reporter for the stage engine.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"benchkit/stage-engine/pkg/types"
)

// Config holds configuration for the console reporter.
type Config struct {
	// ShowProgress prefixes each status line with the progress percentage.
	ShowProgress bool `yaml:"show_progress"`
	// ColorOutput enables colored output.
	ColorOutput bool `yaml:"color_output"`
	// Writer is the output writer (defaults to os.Stdout).
	Writer io.Writer `yaml:"-"`
}

// DefaultConfig returns the default console reporter configuration.
func DefaultConfig() *Config {
	return &Config{
		ShowProgress: true,
		ColorOutput:  true,
		Writer:       os.Stdout,
	}
}

// Reporter implements the console reporter.
type Reporter struct {
	config *Config
	writer io.Writer

	startTime time.Time

	mu          sync.Mutex
	initialized bool
}

// New creates a new console reporter.
func New(config *Config) *Reporter {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	return &Reporter{
		config:    config,
		writer:    config.Writer,
		startTime: time.Now(),
	}
}

// NewFactory returns a factory function for creating console reporters.
func NewFactory() func(config map[string]any) (interface{ Name() string }, error) {
	return func(config map[string]any) (interface{ Name() string }, error) {
		cfg := DefaultConfig()
		if config != nil {
			if v, ok := config["show_progress"].(bool); ok {
				cfg.ShowProgress = v
			}
			if v, ok := config["color_output"].(bool); ok {
				cfg.ColorOutput = v
			}
		}
		return New(cfg), nil
	}
}

// Name returns the reporter name.
func (r *Reporter) Name() string {
	return "console"
}

// Init initializes the reporter.
func (r *Reporter) Init(ctx context.Context, config map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("reporter already initialized")
	}

	r.startTime = time.Now()
	r.initialized = true
	return nil
}

// Report prints one status message.
func (r *Reporter) Report(ctx context.Context, status *types.StatusMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	if r.config.ShowProgress {
		r.writeLine(fmt.Sprintf("[%3d%%] %s", status.Progress, status.Message))
	} else {
		r.writeLine(status.Message)
	}
	return nil
}

// Summary prints the final run report.
func (r *Reporter) Summary(ctx context.Context, report *types.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return fmt.Errorf("reporter not initialized")
	}

	r.printSummary(report)
	return nil
}

// Flush flushes any buffered output.
func (r *Reporter) Flush(ctx context.Context) error {
	// Console output is unbuffered, nothing to flush
	return nil
}

// Close closes the reporter.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return nil
}

// printSummary prints the final summary.
func (r *Reporter) printSummary(report *types.RunReport) {
	r.writeLine("")
	r.writeLine(r.colorize("=== Run Summary ===", colorCyan))
	r.writeLine(fmt.Sprintf("Run ID: %s", report.RunID))

	statusColor := colorGreen
	if report.Status != types.StageStatusOK {
		statusColor = colorRed
	}
	r.writeLine(fmt.Sprintf("Status: %s", r.colorize(string(report.Status), statusColor)))
	if report.Message != "" {
		r.writeLine(fmt.Sprintf("Message: %s", report.Message))
	}
	r.writeLine(fmt.Sprintf("Total Duration: %s", r.formatDuration(report.EndTime.Sub(report.StartTime))))

	for _, stage := range report.Stages {
		r.printStage(stage)
	}

	if report.Durations != nil {
		r.writeLine("")
		r.writeLine(r.colorize("Task Durations:", colorYellow))
		r.writeLine(fmt.Sprintf("  Count: %d | min=%.0fms avg=%.1fms max=%.0fms",
			report.Durations.Count,
			report.Durations.MinMs,
			report.Durations.AvgMs,
			report.Durations.MaxMs,
		))
		r.writeLine(fmt.Sprintf("  Percentiles: p50=%.0fms p90=%.0fms p95=%.0fms p99=%.0fms",
			report.Durations.P50Ms,
			report.Durations.P90Ms,
			report.Durations.P95Ms,
			report.Durations.P99Ms,
		))
	}

	r.writeLine(r.colorize("===================", colorCyan))
	r.writeLine("")
}

// printStage prints results for a single stage.
func (r *Reporter) printStage(stage *types.StageResult) {
	statusColor := colorGreen
	if stage.Status != types.StageStatusOK {
		statusColor = colorRed
	}

	r.writeLine(fmt.Sprintf("  %s: %s (%s, %d tasks)",
		r.colorize(string(stage.Stage), colorWhite),
		r.colorize(string(stage.Status), statusColor),
		r.formatDuration(stage.Finished.Sub(stage.Started)),
		len(stage.Tasks),
	))

	for _, task := range stage.Tasks {
		line := fmt.Sprintf("    %s: %s", task.Task, task.Status)
		if task.Status == types.TaskStatusFail {
			if task.Ignored {
				line += " (ignored)"
			}
			line += " " + task.Message
		}
		r.writeLine(line)
	}
}

func (r *Reporter) writeLine(s string) {
	fmt.Fprintln(r.writer, s)
}

func (r *Reporter) formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func (r *Reporter) colorize(s string, color string) string {
	if !r.config.ColorOutput {
		return s
	}
	return color + s + colorReset
}
