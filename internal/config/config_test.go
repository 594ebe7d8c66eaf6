package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  host: 127.0.0.1
  extra_unknown_field: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadValidatesIDPolicy(t *testing.T) {
	path := writeConfig(t, `
version: 1
executor:
  default_id_policy: sometimes
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "default_id_policy") {
		t.Fatalf("expected default_id_policy error, got %v", err)
	}
}

func TestLoadRejectsSamePortForServerAndHTTP(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  port: 9000
  http_port: 9000
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "must be distinct") {
		t.Fatalf("expected port distinctness error, got %v", err)
	}
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  port: 80
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for a privileged port")
	}
	if !strings.Contains(err.Error(), "between 1024 and 65535") {
		t.Fatalf("expected port range error, got %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `version: 1`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Server.Port == cfg.Server.HTTPPort {
		t.Error("default server.port and server.http_port must be distinct")
	}
	if cfg.Executor.DefaultIDPolicy != "none" {
		t.Errorf("Executor.DefaultIDPolicy = %q, want none", cfg.Executor.DefaultIDPolicy)
	}
	if cfg.Executor.UseMaskBoundsForClippedGroups == nil || !*cfg.Executor.UseMaskBoundsForClippedGroups {
		t.Error("expected UseMaskBoundsForClippedGroups to default true")
	}
	if cfg.Resolver.CacheSize != 64 {
		t.Errorf("Resolver.CacheSize = %d, want 64", cfg.Resolver.CacheSize)
	}
}

func TestLoadExpandsIncludes(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.yaml")
	if err := os.WriteFile(basePath, []byte("executor:\n  history_size: 250\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	mainPath := filepath.Join(dir, "bridge.yaml")
	if err := os.WriteFile(mainPath, []byte("$include: base.yaml\nversion: 1\nserver:\n  port: 9100\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(mainPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Executor.HistorySize != 250 {
		t.Errorf("Executor.HistorySize = %d, want 250 (from include)", cfg.Executor.HistorySize)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
}

func TestLoadEnvOverridesHost(t *testing.T) {
	path := writeConfig(t, `version: 1`)
	t.Setenv("ILLUSTRATOR_BRIDGE_HOST", "0.0.0.0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (from env)", cfg.Server.Host)
	}
}
