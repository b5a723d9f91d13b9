package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-quicktest/qt"
)

func TestDefault(t *testing.T) {
	p := Default()
	qt.Assert(t, qt.IsTrue(p.EnableCycleDetection))
	qt.Assert(t, qt.IsTrue(p.ContinueOnErrors))
	qt.Assert(t, qt.IsFalse(p.ContinueAfterCycles))
	qt.Assert(t, qt.Equals(p.MaxDiagnostics, 1000))
	qt.Assert(t, qt.Equals(p.LogLevel, "info"))
}

func TestLoadNoPath(t *testing.T) {
	p, err := Load("")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(p, Default()))
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prefs.yaml")
	err := os.WriteFile(path, []byte("max_diagnostics: 50\nlog_level: debug\n"), 0o644)
	qt.Assert(t, qt.IsNil(err))

	p, err := Load(path)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(p.MaxDiagnostics, 50))
	qt.Assert(t, qt.Equals(p.LogLevel, "debug"))
	qt.Assert(t, qt.IsTrue(p.EnableCycleDetection))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ESP_ENABLE_CYCLE_DETECTION", "false")
	t.Setenv("ESP_CONTINUE_ON_ERRORS", "false")
	t.Setenv("ESP_CONTINUE_AFTER_CYCLES", "true")
	t.Setenv("ESP_MAX_DIAGNOSTICS", "7")
	t.Setenv("ESP_LOG_LEVEL", "WARN")

	p, err := Load("")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsFalse(p.EnableCycleDetection))
	qt.Assert(t, qt.IsFalse(p.ContinueOnErrors))
	qt.Assert(t, qt.IsTrue(p.ContinueAfterCycles))
	qt.Assert(t, qt.Equals(p.MaxDiagnostics, 7))
	qt.Assert(t, qt.Equals(p.LogLevel, "warn"))
}

func TestEnvOverrideInvalidBoolIgnored(t *testing.T) {
	t.Setenv("ESP_ENABLE_CYCLE_DETECTION", "not-a-bool")
	p, err := Load("")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(p.EnableCycleDetection))
}
