package sovereign_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	sovereign "github.com/victoralfred/sovereign"
	"github.com/victoralfred/sovereign/observability"
)

type session struct {
	user string
	tabs []string
}

func TestRegistryLifecycle(t *testing.T) {
	reg := sovereign.NewRegistry[session]()
	defer reg.Close()

	h, err := reg.Register(session{user: "alice", tabs: []string{"inbox"}})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	count, err := sovereign.View(h, "count_tabs", func(s *session) int {
		return len(s.tabs)
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("tab count = %d, want 1", count)
	}

	if _, err := sovereign.Update(h, "open_tab", func(s *session) int {
		s.tabs = append(s.tabs, "drafts")
		return len(s.tabs)
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !reg.ForceKill(h) {
		t.Fatal("ForceKill reported failure on a live handle")
	}
	if _, err := sovereign.View(h, "late_read", func(s *session) int { return 0 }); !errors.Is(err, sovereign.ErrResourceNotFound) {
		t.Fatalf("error after kill = %v, want ErrResourceNotFound", err)
	}
}

func TestWardenLifecycle(t *testing.T) {
	w, lease := sovereign.NewWarden(session{user: "bob"})
	defer w.Close()

	user, err := sovereign.ViewLease(lease, "read_user", func(s *session) string {
		return s.user
	})
	if err != nil {
		t.Fatalf("lease view failed: %v", err)
	}
	if user != "bob" {
		t.Fatalf("user = %q, want bob", user)
	}

	if !w.Kill() {
		t.Fatal("Kill reported failure on a live warden")
	}
	if err := lease.View("late_read", func(s *session) error { return nil }); !errors.Is(err, sovereign.ErrResourceKilled) {
		t.Fatalf("error after kill = %v, want ErrResourceKilled", err)
	}
}

func TestConfiguredRegistryWritesAudit(t *testing.T) {
	dir := t.TempDir()

	configYAML := `
guard:
  initial_capacity: 8
discipline:
  mode: panic
telemetry:
  enable_tracing: false
  enable_metrics: false
audit:
  enabled: true
  log_level: all
  base_path: ` + dir + `
  file_path: audit.log
`
	configPath := filepath.Join(dir, "sovereign.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("writing config fixture: %v", err)
	}

	cfg, err := sovereign.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	opts, cleanup, err := sovereign.OptionsFromConfig(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	defer cleanup()

	reg := sovereign.NewRegistry[session](opts...)
	h, err := reg.Register(session{user: "carol"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	reg.ForceKill(h)
	if err := reg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}

	var types []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e observability.AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit line: %v", err)
		}
		types = append(types, string(e.Type))
	}

	want := []string{"registered", "killed"}
	if len(types) != len(want) {
		t.Fatalf("audit events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("audit events = %v, want %v", types, want)
		}
	}
}

func TestOptionsFromConfigRejectsUnknownDiscipline(t *testing.T) {
	cfg := sovereign.DefaultConfig()
	cfg.Audit.Enabled = false
	cfg.Discipline.Mode = "negotiate"

	if _, _, err := sovereign.OptionsFromConfig(&cfg, nil); err == nil {
		t.Fatal("OptionsFromConfig accepted an unknown discipline mode")
	}
}
