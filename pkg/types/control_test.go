package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestControlValidate(t *testing.T) {
	tests := []struct {
		name    string
		control *Control
		wantErr bool
	}{
		{
			name:    "nil control",
			control: nil,
			wantErr: true,
		},
		{
			name:    "missing duration",
			control: &Control{},
			wantErr: true,
		},
		{
			name:    "negative duration",
			control: &Control{Duration: -5},
			wantErr: true,
		},
		{
			name:    "negative warmup",
			control: &Control{Duration: 60, Warmup: -1},
			wantErr: true,
		},
		{
			name:    "negative delay",
			control: &Control{Duration: 60, Delay: -1},
			wantErr: true,
		},
		{
			name:    "duration only",
			control: &Control{Duration: 60},
			wantErr: false,
		},
		{
			name:    "all parameters",
			control: &Control{Duration: 300, Warmup: 30, Delay: 5},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.control.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestControlWindow(t *testing.T) {
	c := &Control{Duration: 300, Warmup: 30, Delay: 5}
	assert.Equal(t, 335*time.Second, c.Window())

	c = &Control{Duration: 60}
	assert.Equal(t, time.Minute, c.Window())
}

func TestTaskResultLifecycle(t *testing.T) {
	result := NewTaskResult("demo")
	assert.Equal(t, TaskStatusOK, result.Status)
	assert.False(t, result.Failed())

	result.Fail(2, "exit status 2")
	assert.Equal(t, TaskStatusFail, result.Status)
	assert.Equal(t, 2, result.Code)
	assert.True(t, result.Failed())

	result.Ignored = true
	assert.False(t, result.Failed())

	result.Finish()
	assert.False(t, result.EndTime.IsZero())
	assert.GreaterOrEqual(t, result.Duration, time.Duration(0))
}

func TestTaskResultRunning(t *testing.T) {
	result := NewTaskResult("async")
	result.Running("started")
	assert.Equal(t, TaskStatusRunning, result.Status)
	assert.False(t, result.Failed())
}
