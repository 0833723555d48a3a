package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/victoralfred/sovereign/observability"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Guard.InitialCapacity != 16 {
		t.Fatalf("initial capacity = %d, want 16", cfg.Guard.InitialCapacity)
	}
	if cfg.Discipline.Mode != "panic" {
		t.Fatalf("discipline mode = %q, want panic", cfg.Discipline.Mode)
	}
	if !cfg.Audit.Enabled {
		t.Fatal("audit should default on")
	}
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()
	if cfg.Discipline.Mode != "abort" {
		t.Fatalf("discipline mode = %q, want abort", cfg.Discipline.Mode)
	}
	if cfg.Audit.LogLevel != observability.AuditLogViolations {
		t.Fatalf("audit level = %q, want violations", cfg.Audit.LogLevel)
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{}
	cfg.Audit.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Guard.InitialCapacity != 16 || cfg.Discipline.Mode != "panic" {
		t.Fatalf("defaults not filled: %+v", cfg)
	}
}

func TestValidateRejectsAuditWithoutPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.BasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted audit without base_path")
	}
}

const testYAML = `
guard:
  initial_capacity: 64
discipline:
  mode: abort
  log_violations: false
telemetry:
  service_name: custody-test
  enable_tracing: false
audit:
  enabled: false
`

func TestParseYAMLOverDefaults(t *testing.T) {
	cfg, err := ParseYAML([]byte(testYAML))
	if err != nil {
		t.Fatalf("ParseYAML failed: %v", err)
	}
	if cfg.Guard.InitialCapacity != 64 {
		t.Fatalf("initial capacity = %d, want 64", cfg.Guard.InitialCapacity)
	}
	if cfg.Discipline.Mode != "abort" || cfg.Discipline.LogViolations {
		t.Fatalf("discipline = %+v", cfg.Discipline)
	}
	if cfg.Telemetry.ServiceName != "custody-test" {
		t.Fatalf("service name = %q", cfg.Telemetry.ServiceName)
	}
	// Omitted fields keep defaults.
	if cfg.Telemetry.MetricsPrefix != "sovereign_" {
		t.Fatalf("metrics prefix = %q, want default", cfg.Telemetry.MetricsPrefix)
	}
}

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}
}

func TestLoaderLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "sovereign.yaml", testYAML)

	l, err := NewLoader(dir, "sovereign.yaml")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	cfg, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Guard.InitialCapacity != 64 {
		t.Fatalf("initial capacity = %d, want 64", cfg.Guard.InitialCapacity)
	}
	if got := l.Get(); got != cfg {
		t.Fatal("Get returned a different config than Load")
	}
}

func TestLoaderUnchangedFileReturnsSameConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "sovereign.yaml", testYAML)

	l, err := NewLoader(dir, "sovereign.yaml")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	ctx := context.Background()
	first, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := l.Load(ctx)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first != second {
		t.Fatal("unchanged file produced a new config instance")
	}
}

func TestLoaderChangeNotification(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "sovereign.yaml", testYAML)

	var notified int
	l, err := NewLoader(dir, "sovereign.yaml", WithOnChange(func(*Config) { notified++ }))
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	ctx := context.Background()
	if _, err := l.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if notified != 1 {
		t.Fatalf("notifications = %d, want 1", notified)
	}

	writeConfigFile(t, dir, "sovereign.yaml", "guard:\n  initial_capacity: 128\naudit:\n  enabled: false\n")
	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if notified != 2 {
		t.Fatalf("notifications = %d, want 2", notified)
	}
	if l.Get().Guard.InitialCapacity != 128 {
		t.Fatalf("capacity after reload = %d, want 128", l.Get().Guard.InitialCapacity)
	}
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "sovereign.yaml", "audit:\n  enabled: true\n  base_path: \"\"\n")

	l, err := NewLoader(dir, "sovereign.yaml")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("Load accepted invalid audit config")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l, err := NewLoader(t.TempDir(), "absent.yaml")
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}
