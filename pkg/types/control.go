package types

import (
	"fmt"
	"time"
)

// Control holds the externally supplied run parameters. Duration is
// mandatory; Warmup and Delay default to zero.
type Control struct {
	Duration int `yaml:"duration"`
	Warmup   int `yaml:"warmup,omitempty"`
	Delay    int `yaml:"delay,omitempty"`
}

// Validate checks the control parameters. A missing or non-positive
// duration is fatal before any stage runs.
func (c *Control) Validate() error {
	if c == nil {
		return fmt.Errorf("control parameters are required")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration is required and must be positive, got %d", c.Duration)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %d", c.Warmup)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %d", c.Delay)
	}
	return nil
}

// Window returns the total measurement window: delay + warmup + duration.
func (c *Control) Window() time.Duration {
	return time.Duration(c.Delay+c.Warmup+c.Duration) * time.Second
}
