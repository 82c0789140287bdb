package executor

import (
	"fmt"
	"time"
)

// ErrorCode classifies task execution errors.
type ErrorCode string

const (
	// ErrCodeStart indicates the task process failed to launch.
	ErrCodeStart ErrorCode = "TASK_START_ERROR"
	// ErrCodeTimeout indicates the task exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TASK_TIMEOUT"
	// ErrCodeExit indicates the task exited with a non-zero code.
	ErrCodeExit ErrorCode = "TASK_EXIT_ERROR"
	// ErrCodeRequest indicates an HTTP request failure.
	ErrCodeRequest ErrorCode = "REQUEST_ERROR"
)

// TaskError represents an error during task execution.
type TaskError struct {
	Code    ErrorCode
	Task    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Cause
}

// NewStartError creates an error for a process that failed to launch.
func NewStartError(task string, cause error) *TaskError {
	return &TaskError{
		Code:    ErrCodeStart,
		Task:    task,
		Message: "failed to start process",
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for a task that hit its deadline.
func NewTimeoutError(task string, timeout time.Duration) *TaskError {
	return &TaskError{
		Code:    ErrCodeTimeout,
		Task:    task,
		Message: fmt.Sprintf("task timed out after %v", timeout),
	}
}

// NewExitError creates an error for a non-zero exit code.
func NewExitError(task string, code int) *TaskError {
	return &TaskError{
		Code:    ErrCodeExit,
		Task:    task,
		Message: fmt.Sprintf("process exited with code %d", code),
	}
}

// NewRequestError creates an error for an HTTP request failure.
func NewRequestError(task, message string, cause error) *TaskError {
	return &TaskError{
		Code:    ErrCodeRequest,
		Task:    task,
		Message: message,
		Cause:   cause,
	}
}
