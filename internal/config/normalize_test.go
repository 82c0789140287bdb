package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/stage-engine/pkg/types"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalizeModeExclusivity(t *testing.T) {
	tests := []struct {
		name    string
		def     types.TaskDefinition
		wantErr bool
	}{
		{
			name:    "no mode",
			def:     types.TaskDefinition{Name: "empty"},
			wantErr: true,
		},
		{
			name: "exec and shell_exec",
			def: types.TaskDefinition{
				Exec:      types.StringList{"/bin/true"},
				ShellExec: types.StringList{"echo hi"},
			},
			wantErr: true,
		},
		{
			name: "exec and request",
			def: types.TaskDefinition{
				Exec:    types.StringList{"/bin/true"},
				Request: &types.RequestSpec{URL: "http://localhost/"},
			},
			wantErr: true,
		},
		{
			name:    "exec only",
			def:     types.TaskDefinition{Exec: types.StringList{"/bin/true"}},
			wantErr: false,
		},
		{
			name:    "shell only",
			def:     types.TaskDefinition{ShellExec: types.StringList{"echo hi"}},
			wantErr: false,
		},
		{
			name:    "request only",
			def:     types.TaskDefinition{Request: &types.RequestSpec{URL: "http://localhost/"}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(&tt.def)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeExecSingleStringIsSplit(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		Exec: types.StringList{"/usr/bin/setup --fast -n 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ModeProcessExec, task.Mode)
	assert.Equal(t, []string{"/usr/bin/setup", "--fast", "-n", "3"}, task.Args)
}

func TestNormalizeExecListIsTakenVerbatim(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		Exec: types.StringList{"/bin/echo", "two words"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/echo", "two words"}, task.Args)
}

func TestNormalizeShellListIsJoined(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		ShellExec: types.StringList{"echo hi;", "echo bye"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ModeShellExec, task.Mode)
	assert.Equal(t, "echo hi; echo bye", task.Command)
}

func TestNormalizeRejectsNegativeRetriesAndTimeout(t *testing.T) {
	_, err := Normalize(&types.TaskDefinition{
		Exec:    types.StringList{"/bin/true"},
		Retries: -1,
	})
	assert.Error(t, err)

	_, err = Normalize(&types.TaskDefinition{
		Exec:    types.StringList{"/bin/true"},
		Timeout: -5,
	})
	assert.Error(t, err)
}

func TestNormalizeTimeoutSeconds(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		Exec:    types.StringList{"/bin/sleep 10"},
		Timeout: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, task.Timeout)

	task, err = Normalize(&types.TaskDefinition{Exec: types.StringList{"/bin/true"}})
	require.NoError(t, err)
	assert.Zero(t, task.Timeout)
}

func TestNormalizeRequestDefaults(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		Request: &types.RequestSpec{URL: "http://localhost:9000/flush"},
	})
	require.NoError(t, err)

	req := task.Request
	require.NotNil(t, req)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, 10*time.Second, req.ConnectTimeout)
	assert.Equal(t, 10*time.Second, req.RequestTimeout)
	assert.Equal(t, "{}", req.Data)
	assert.Equal(t, "application/json", req.ContentType)
	assert.True(t, req.Verify)
	assert.Equal(t, []types.CodeRange{{Low: 200, High: 399}}, req.SuccessCodes)
}

func TestNormalizeRequestOverrides(t *testing.T) {
	task, err := Normalize(&types.TaskDefinition{
		Name: "flush",
		Request: &types.RequestSpec{
			Method:       "post",
			URL:          "https://localhost:9000/flush",
			HTTPTimeout:  3,
			Data:         `{"mode":"full"}`,
			ContentType:  "text/plain",
			Headers:      map[string]string{"X-Token": "abc", "ACCEPT": "text/plain"},
			SuccessCodes: []any{200, "202-204"},
			Verify:       boolPtr(false),
		},
	})
	require.NoError(t, err)

	req := task.Request
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, 3*time.Second, req.RequestTimeout)
	assert.Equal(t, 3*time.Second, req.ConnectTimeout)
	assert.Equal(t, `{"mode":"full"}`, req.Data)
	assert.Equal(t, "text/plain", req.ContentType)
	assert.False(t, req.Verify)

	// Header keys are lower-cased.
	assert.Equal(t, "abc", req.Headers["x-token"])
	assert.Equal(t, "text/plain", req.Headers["accept"])

	assert.Equal(t, []types.CodeRange{
		{Low: 200, High: 200},
		{Low: 202, High: 204},
	}, req.SuccessCodes)
}

func TestNormalizeRequestRequiresURL(t *testing.T) {
	_, err := Normalize(&types.TaskDefinition{
		Request: &types.RequestSpec{Method: "GET"},
	})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestNormalizeStagePreservesOrder(t *testing.T) {
	tasks, err := NormalizeStage([]types.TaskDefinition{
		{Name: "first", Exec: types.StringList{"/bin/true"}},
		{Name: "second", ShellExec: types.StringList{"echo hi"}},
		{Name: "third", Request: &types.RequestSpec{URL: "http://localhost/"}},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "first", tasks[0].Name)
	assert.Equal(t, "second", tasks[1].Name)
	assert.Equal(t, "third", tasks[2].Name)
}

func TestNormalizeConfigWrapsStageErrors(t *testing.T) {
	_, err := NormalizeConfig(&types.Config{
		Stop: []types.TaskDefinition{{Name: "broken"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage stop")
}
