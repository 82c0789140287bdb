package types

import "time"

// TaskStatus represents the outcome of a task execution attempt.
type TaskStatus string

const (
	// TaskStatusOK indicates the task completed successfully.
	TaskStatusOK TaskStatus = "ok"
	// TaskStatusFail indicates the task failed.
	TaskStatusFail TaskStatus = "fail"
	// TaskStatusRunning indicates an async task was launched and is still
	// tracked by the registry.
	TaskStatusRunning TaskStatus = "running"
)

// TaskResult contains the result of a task execution.
// Create with NewTaskResult, fill during execution, and close out with
// defer result.Finish().
type TaskResult struct {
	Task      string        `json:"task"`
	Status    TaskStatus    `json:"status"`
	Code      int           `json:"code"`
	Message   string        `json:"message,omitempty"`
	Ignored   bool          `json:"ignored,omitempty"` // failure does not count against the stage
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration_ns"`
}

// NewTaskResult creates a TaskResult with an initial status of ok.
func NewTaskResult(task string) *TaskResult {
	return &TaskResult{
		Task:      task,
		Status:    TaskStatusOK,
		StartTime: time.Now(),
	}
}

// Fail marks the result as failed.
func (r *TaskResult) Fail(code int, message string) {
	r.Status = TaskStatusFail
	r.Code = code
	r.Message = message
}

// Running marks the result as an async launch.
func (r *TaskResult) Running(message string) {
	r.Status = TaskStatusRunning
	r.Message = message
}

// Finish sets EndTime and Duration.
func (r *TaskResult) Finish() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Failed reports whether the result counts as a stage failure.
func (r *TaskResult) Failed() bool {
	return r.Status == TaskStatusFail && !r.Ignored
}

// StageStatus represents the aggregate outcome of a stage.
type StageStatus string

const (
	// StageStatusOK indicates every unignored task in the stage succeeded.
	StageStatusOK StageStatus = "ok"
	// StageStatusFail indicates at least one unignored task failed.
	StageStatusFail StageStatus = "fail"
)

// StageResult aggregates the per-task results of one stage.
type StageResult struct {
	Stage    StageName     `json:"stage"`
	Status   StageStatus   `json:"status"`
	Message  string        `json:"message,omitempty"`
	Tasks    []*TaskResult `json:"tasks"`
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
}

// RunReport is the final report of a complete run.
type RunReport struct {
	RunID     string           `json:"run_id"`
	Status    StageStatus      `json:"status"`
	Message   string           `json:"message,omitempty"`
	Stages    []*StageResult   `json:"stages"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Durations *DurationSummary `json:"durations,omitempty"` // engine task durations, not measurement metrics
}

// DurationSummary holds aggregate statistics over task execution durations.
type DurationSummary struct {
	Count int64   `json:"count"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P90Ms float64 `json:"p90_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}
