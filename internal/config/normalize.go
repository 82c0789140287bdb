package config

import (
	"fmt"
	"strings"
	"time"

	"benchkit/stage-engine/pkg/types"
)

// Normalize merges a raw task definition with its mode defaults and returns
// a fully-specified task. Exactly one execution mode must be set; multiple
// or none is a configuration error.
func Normalize(def *types.TaskDefinition) (*types.Task, error) {
	if def == nil {
		return nil, NewConfigError("task definition must not be nil", nil)
	}

	mode, err := taskMode(def)
	if err != nil {
		return nil, err
	}

	if def.Retries < 0 {
		return nil, NewConfigError(fmt.Sprintf("task %q: retries must not be negative, got %d", def.Name, def.Retries), nil)
	}
	if def.Timeout < 0 {
		return nil, NewConfigError(fmt.Sprintf("task %q: timeout must not be negative, got %d", def.Name, def.Timeout), nil)
	}

	task := &types.Task{
		Name:           def.Name,
		Mode:           mode,
		Async:          def.Async,
		IgnoreExitCode: def.IgnoreExitCode,
		Notify:         def.Notify,
		Retries:        def.Retries,
		Timeout:        time.Duration(def.Timeout) * time.Second,
	}

	switch mode {
	case types.ModeProcessExec:
		task.Args = execArgs(def.Exec)
		if len(task.Args) == 0 {
			return nil, NewConfigError(fmt.Sprintf("task %q: exec must not be empty", def.Name), nil)
		}
	case types.ModeShellExec:
		task.Command = strings.Join(def.ShellExec, " ")
		if strings.TrimSpace(task.Command) == "" {
			return nil, NewConfigError(fmt.Sprintf("task %q: shell_exec must not be empty", def.Name), nil)
		}
	case types.ModeHTTPRequest:
		req, err := normalizeRequest(def)
		if err != nil {
			return nil, err
		}
		task.Request = req
	}

	return task, nil
}

// NormalizeStage normalizes an ordered task list, preserving order.
func NormalizeStage(defs []types.TaskDefinition) ([]*types.Task, error) {
	tasks := make([]*types.Task, 0, len(defs))
	for i := range defs {
		task, err := Normalize(&defs[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// NormalizeConfig normalizes every stage of a config.
func NormalizeConfig(cfg *types.Config) (map[types.StageName][]*types.Task, error) {
	stages := make(map[types.StageName][]*types.Task, len(types.StageOrder))
	for _, name := range types.StageOrder {
		tasks, err := NormalizeStage(cfg.Stage(name))
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("stage %s", name), err)
		}
		stages[name] = tasks
	}
	return stages, nil
}

// taskMode selects the execution mode, enforcing strict exclusivity.
func taskMode(def *types.TaskDefinition) (types.TaskMode, error) {
	var modes []types.TaskMode
	if len(def.Exec) > 0 {
		modes = append(modes, types.ModeProcessExec)
	}
	if len(def.ShellExec) > 0 {
		modes = append(modes, types.ModeShellExec)
	}
	if def.Request != nil {
		modes = append(modes, types.ModeHTTPRequest)
	}

	switch len(modes) {
	case 0:
		return "", NewConfigError(fmt.Sprintf("task %q: one of exec, shell_exec or request is required", def.Name), nil)
	case 1:
		return modes[0], nil
	default:
		return "", NewConfigError(fmt.Sprintf("task %q: exec, shell_exec and request are mutually exclusive", def.Name), nil)
	}
}

// execArgs turns the raw exec value into an argument list. A single string
// is split on whitespace; a list is taken as-is.
func execArgs(raw types.StringList) []string {
	if len(raw) == 1 {
		return strings.Fields(raw[0])
	}
	return []string(raw)
}

// normalizeRequest applies the request-level defaults, lower-cases header
// keys and parses the success-code ranges.
func normalizeRequest(def *types.TaskDefinition) (*types.Request, error) {
	spec := mergeRequestSpec(defaultRequestSpec(), def.Request)

	if spec.URL == "" {
		return nil, NewConfigError(fmt.Sprintf("task %q: request url is required", def.Name), nil)
	}

	ranges, err := ParseSuccessCodes(spec.SuccessCodes)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("task %q: invalid success codes", def.Name), err)
	}

	headers := make(map[string]string, len(spec.Headers))
	for k, v := range spec.Headers {
		headers[strings.ToLower(k)] = v
	}

	timeout := time.Duration(spec.HTTPTimeout) * time.Second
	verify := true
	if spec.Verify != nil {
		verify = *spec.Verify
	}

	return &types.Request{
		Method:         strings.ToUpper(spec.Method),
		URL:            spec.URL,
		ConnectTimeout: timeout,
		RequestTimeout: timeout,
		Data:           spec.Data,
		ContentType:    spec.ContentType,
		Headers:        headers,
		SuccessCodes:   ranges,
		Verify:         verify,
	}, nil
}
