// Package config loads, validates and normalizes run configurations.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"benchkit/stage-engine/pkg/types"
)

// File is the on-disk run configuration: the four stage task lists plus the
// control parameters and optional engine settings.
type File struct {
	Control *types.Control `yaml:"control"`

	Pre   []types.TaskDefinition `yaml:"pre,omitempty"`
	Start []types.TaskDefinition `yaml:"start,omitempty"`
	Stop  []types.TaskDefinition `yaml:"stop,omitempty"`
	Post  []types.TaskDefinition `yaml:"post,omitempty"`

	Reporters []ReporterConfig `yaml:"reporters,omitempty"`
	API       *APIConfig       `yaml:"api,omitempty"`
	LogLevel  string           `yaml:"log_level,omitempty"`
}

// ReporterConfig selects and configures one status reporter.
type ReporterConfig struct {
	Type    string         `yaml:"type"`
	Enabled bool           `yaml:"enabled"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// APIConfig configures the optional REST control surface.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
}

// Stages returns the stage mapping of the file.
func (f *File) Stages() *types.Config {
	return &types.Config{
		Pre:   f.Pre,
		Start: f.Start,
		Stop:  f.Stop,
		Post:  f.Post,
	}
}

// Parse parses a run configuration from bytes. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&f); err != nil {
		return nil, NewConfigError("failed to parse configuration", err)
	}

	if err := f.Control.Validate(); err != nil {
		return nil, NewConfigError("invalid control parameters", err)
	}

	return &f, nil
}

// ParseFile parses a run configuration from a file path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("failed to read file: %s", path), err)
	}
	return Parse(data)
}
