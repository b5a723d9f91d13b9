// Package config loads the runtime preferences that shape pipeline
// behavior (spec.md §6.4): whether cycle detection runs, whether the
// pipeline halts on the first error of each recoverable kind, and the
// diagnostic rendering preferences. Preferences load from an optional
// YAML file and are then overridden by ESP_-prefixed environment
// variables, matching the precedence order documented in §6.4.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preferences is the full set of runtime-tunable knobs. Field names
// mirror the YAML keys; the yaml tags additionally give each an
// ESP_-prefixed environment variable name (upper-snake of the tag).
type Preferences struct {
	EnableCycleDetection bool `yaml:"enable_cycle_detection"`
	ContinueOnErrors     bool `yaml:"continue_on_errors"`
	ContinueAfterCycles  bool `yaml:"continue_after_cycles"`
	MaxDiagnostics       int  `yaml:"max_diagnostics"`
	LogLevel             string `yaml:"log_level"`
}

// Default matches spec.md §6.4's documented defaults.
func Default() Preferences {
	return Preferences{
		EnableCycleDetection: true,
		ContinueOnErrors:     true,
		ContinueAfterCycles:  false,
		MaxDiagnostics:       1000,
		LogLevel:             "info",
	}
}

// Load reads path (if non-empty) as YAML over the defaults, then applies
// any ESP_-prefixed environment variable overrides, and returns the
// resolved Preferences.
func Load(path string) (Preferences, error) {
	p := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &p); err != nil {
			return p, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	applyEnv(&p)
	return p, nil
}

func applyEnv(p *Preferences) {
	if v, ok := boolEnv("ESP_ENABLE_CYCLE_DETECTION"); ok {
		p.EnableCycleDetection = v
	}
	if v, ok := boolEnv("ESP_CONTINUE_ON_ERRORS"); ok {
		p.ContinueOnErrors = v
	}
	if v, ok := boolEnv("ESP_CONTINUE_AFTER_CYCLES"); ok {
		p.ContinueAfterCycles = v
	}
	if v, ok := os.LookupEnv("ESP_MAX_DIAGNOSTICS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxDiagnostics = n
		}
	}
	if v, ok := os.LookupEnv("ESP_LOG_LEVEL"); ok {
		p.LogLevel = strings.ToLower(v)
	}
}

func boolEnv(name string) (bool, bool) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
