package domain

import (
	"fmt"
	"time"
)

// ProjectConfig holds project-level configuration loaded from .gatekeep.yaml.
type ProjectConfig struct {
	Checks         []CheckDescriptor `yaml:"checks"          json:"checks,omitempty"`
	Disable        []string          `yaml:"disable"         json:"disable,omitempty"`
	ContainerImage string            `yaml:"container_image" json:"container_image,omitempty"`
	// Settings is the raw settings block, layered under the environment by
	// the settings loader.
	Settings map[string]any `yaml:"settings" json:"-"`
}

// DefaultConfig returns a zero-value config that changes nothing.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	// 1. every custom check must be well formed
	seen := make(map[string]bool, len(c.Checks))
	for _, d := range c.Checks {
		if err := d.Validate(); err != nil {
			return err
		}
		// 2. names must be unique within the file
		if seen[d.Name] {
			return fmt.Errorf("check %q is defined more than once", d.Name)
		}
		seen[d.Name] = true
	}

	// 3. disabled names must exist somewhere
	for _, name := range c.Disable {
		if !seen[name] && !isBuiltin(name) {
			return fmt.Errorf("unknown check %q in disable", name)
		}
	}
	return nil
}

// ResolveChecks overlays the configured checks on the built-in catalogue.
// A configured check replaces the built-in of the same name.
func (c ProjectConfig) ResolveChecks() []CheckDescriptor {
	disabled := make(map[string]bool, len(c.Disable))
	for _, name := range c.Disable {
		disabled[name] = true
	}
	overrides := make(map[string]CheckDescriptor, len(c.Checks))
	for _, d := range c.Checks {
		overrides[d.Name] = d
	}

	var out []CheckDescriptor
	for _, d := range BuiltinChecks() {
		if o, ok := overrides[d.Name]; ok {
			d = o
			delete(overrides, d.Name)
		}
		if !disabled[d.Name] {
			out = append(out, d)
		}
	}
	for _, d := range c.Checks {
		if _, pending := overrides[d.Name]; pending && !disabled[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

func isBuiltin(name string) bool {
	for _, d := range BuiltinChecks() {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Settings are the runtime knobs layered from defaults, the settings block of
// .gatekeep.yaml, GATEKEEP_* environment variables and flags.
type Settings struct {
	Workers          int           `mapstructure:"workers"           json:"workers"`
	CheckTimeout     time.Duration `mapstructure:"check_timeout"     json:"check_timeout"`
	StateDir         string        `mapstructure:"state_dir"         json:"state_dir"`
	HistoryMaxAge    time.Duration `mapstructure:"history_max_age"   json:"history_max_age"`
	HistoryLimit     int           `mapstructure:"history_limit"     json:"history_limit"`
	LogLevel         string        `mapstructure:"log_level"         json:"log_level"`
	ContainerRuntime string        `mapstructure:"container_runtime" json:"container_runtime,omitempty"`
	ContainerImage   string        `mapstructure:"container_image"   json:"container_image,omitempty"`
	Mode             string        `mapstructure:"mode"              json:"mode,omitempty"`
}

// Default runtime settings.
const (
	DefaultCheckTimeout  = 60 * time.Second
	DefaultStateDir      = ".gatekeep"
	DefaultHistoryMaxAge = 30 * 24 * time.Hour
	DefaultHistoryLimit  = 20
	DefaultLogLevel      = "info"
)

// Validate rejects settings that can not drive a run.
func (s Settings) Validate() error {
	if s.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", s.Workers)
	}
	if s.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout must be positive, got %s", s.CheckTimeout)
	}
	if s.StateDir == "" {
		return fmt.Errorf("state_dir must not be empty")
	}
	if s.HistoryMaxAge < 0 {
		return fmt.Errorf("history_max_age must not be negative, got %s", s.HistoryMaxAge)
	}
	if s.Mode != "" {
		if _, err := ParseMode(s.Mode); err != nil {
			return err
		}
	}
	return nil
}
