package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevelFromString(t *testing.T) {
	defer SetLevel(LevelInfo)

	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"nonsense", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevelFromString(tt.input)
			assert.Equal(t, tt.want, currentLevel)
		})
	}
}

func TestEnableDebug(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelWarn)
	assert.False(t, IsDebugEnabled())

	EnableDebug()
	assert.True(t, IsDebugEnabled())
}
