package config

import "fmt"

// ConfigError represents a malformed run configuration. It is fatal and
// aborts the run before any stage executes.
type ConfigError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[CONFIG_ERROR] %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("[CONFIG_ERROR] %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{Message: message, Cause: cause}
}

// IsConfigError checks if the error is a ConfigError.
func IsConfigError(err error) bool {
	_, ok := err.(*ConfigError)
	return ok
}
