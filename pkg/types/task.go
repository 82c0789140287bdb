// Package types contains the shared data model for the stage engine:
// task definitions, normalized tasks, results and status messages.
package types

import (
	"fmt"
	"time"
)

// StageName identifies one of the four lifecycle stages.
type StageName string

const (
	// StagePre runs before the measurement window opens.
	StagePre StageName = "pre"
	// StageStart runs immediately before the window.
	StageStart StageName = "start"
	// StageStop runs once the window has elapsed.
	StageStop StageName = "stop"
	// StagePost always runs last, regardless of prior failures.
	StagePost StageName = "post"
)

// StageOrder is the fixed execution order of the lifecycle stages.
var StageOrder = []StageName{StagePre, StageStart, StageStop, StagePost}

// TaskMode identifies the execution mode of a task.
type TaskMode string

const (
	// ModeProcessExec launches a command from an argument list.
	ModeProcessExec TaskMode = "exec"
	// ModeShellExec runs a command line through the shell.
	ModeShellExec TaskMode = "shell_exec"
	// ModeHTTPRequest performs an HTTP request.
	ModeHTTPRequest TaskMode = "request"
)

// StringList accepts either a single YAML string or a list of strings.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = StringList{single}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*s = list
	return nil
}

// TaskDefinition is one raw task entry from a stage's task list, exactly as
// the configuration loader hands it over. Exactly one of Exec, ShellExec and
// Request must be set; the normalizer enforces this.
type TaskDefinition struct {
	Name           string       `yaml:"name,omitempty"`
	Exec           StringList   `yaml:"exec,omitempty"`
	ShellExec      StringList   `yaml:"shell_exec,omitempty"`
	Request        *RequestSpec `yaml:"request,omitempty"`
	Async          bool         `yaml:"async,omitempty"`
	IgnoreExitCode bool         `yaml:"ignore_exitcode,omitempty"`
	Notify         bool         `yaml:"notify,omitempty"`
	Retries        int          `yaml:"retries,omitempty"`
	Timeout        int          `yaml:"timeout,omitempty"` // seconds, 0 = none
}

// RequestSpec is the raw HTTP request description of a task.
// SuccessCodes takes a single integer, a "low-high" string, or a list mixing
// both forms.
type RequestSpec struct {
	Method       string            `yaml:"method,omitempty"`
	URL          string            `yaml:"url"`
	HTTPTimeout  int               `yaml:"http_timeout,omitempty"` // seconds
	Data         string            `yaml:"data,omitempty"`
	ContentType  string            `yaml:"content-type,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	SuccessCodes any               `yaml:"success_codes,omitempty"`
	Verify       *bool             `yaml:"verify,omitempty"`
}

// Config maps each lifecycle stage to its ordered task list. Every stage is
// optional.
type Config struct {
	Pre   []TaskDefinition `yaml:"pre,omitempty"`
	Start []TaskDefinition `yaml:"start,omitempty"`
	Stop  []TaskDefinition `yaml:"stop,omitempty"`
	Post  []TaskDefinition `yaml:"post,omitempty"`
}

// Stage returns the task list for the given stage.
func (c *Config) Stage(name StageName) []TaskDefinition {
	switch name {
	case StagePre:
		return c.Pre
	case StageStart:
		return c.Start
	case StageStop:
		return c.Stop
	case StagePost:
		return c.Post
	}
	return nil
}

// TaskCount returns the total number of tasks across all stages.
func (c *Config) TaskCount() int {
	return len(c.Pre) + len(c.Start) + len(c.Stop) + len(c.Post)
}

// Task is a fully-normalized task ready for execution: the definition merged
// with its mode defaults.
type Task struct {
	Name           string
	Mode           TaskMode
	Args           []string // ModeProcessExec
	Command        string   // ModeShellExec
	Request        *Request // ModeHTTPRequest
	Async          bool
	IgnoreExitCode bool
	Notify         bool
	Retries        int
	Timeout        time.Duration // zero = no deadline
}

// Label returns the task name, falling back to a mode-derived label.
func (t *Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	switch t.Mode {
	case ModeProcessExec:
		if len(t.Args) > 0 {
			return t.Args[0]
		}
	case ModeShellExec:
		return t.Command
	case ModeHTTPRequest:
		if t.Request != nil {
			return t.Request.URL
		}
	}
	return string(t.Mode)
}

// Request is the normalized HTTP request description: defaults applied,
// header keys lower-cased, success codes parsed into inclusive ranges.
type Request struct {
	Method         string
	URL            string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Data           string
	ContentType    string
	Headers        map[string]string
	SuccessCodes   []CodeRange
	Verify         bool
}

// CodeRange is an inclusive [Low, High] HTTP status code range.
type CodeRange struct {
	Low  int
	High int
}

// Contains reports whether code falls within the range.
func (r CodeRange) Contains(code int) bool {
	return code >= r.Low && code <= r.High
}

// InRanges reports whether code falls within any of the given ranges.
func InRanges(ranges []CodeRange, code int) bool {
	for _, r := range ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}
