package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adminkit.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8080 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeouts = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Path != "/metrics" || cfg.Metrics.Enabled {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
	if cfg.Storage.Driver != DriverMemory || cfg.Storage.DSN != "adminkit.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.I18n.DefaultLocale != "en" || cfg.I18n.FallbackLocale != "en" {
		t.Errorf("i18n = %+v", cfg.I18n)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %s", cfg.Server.Addr())
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
  read_timeout: 5s
logging:
  level: debug
  format: console
metrics:
  enabled: true
storage:
  driver: sqlite
  dsn: /tmp/admin.db
  seed: true
modules:
  manifests_dir: ./modules.d
  disabled: [Settings]
i18n:
  default_locale: de
  fallback_locale: en
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.Driver != DriverSQLite || !cfg.Storage.Seed {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if len(cfg.Modules.Disabled) != 1 || cfg.Modules.Disabled[0] != "Settings" {
		t.Errorf("disabled = %v", cfg.Modules.Disabled)
	}
	if cfg.I18n.DefaultLocale != "de" {
		t.Errorf("default locale = %s", cfg.I18n.DefaultLocale)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REMOTE_URL", "http://records.internal")
	cfg, err := Load(writeFile(t, `
storage:
  driver: remote
  remote:
    url: ${TEST_REMOTE_URL}
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Storage.Remote.URL != "http://records.internal" {
		t.Errorf("remote url = %q", cfg.Storage.Remote.URL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADMINKIT_SERVER_PORT", "7000")
	t.Setenv("ADMINKIT_LOG_LEVEL", "warn")
	t.Setenv("ADMINKIT_METRICS_ENABLED", "true")
	t.Setenv("ADMINKIT_MODULES_DISABLED", "Tasks,Settings")
	t.Setenv("ADMINKIT_STORAGE_REMOTE_TIMEOUT", "3s")

	cfg, err := Load(writeFile(t, `
server:
  port: 9090
  host: 127.0.0.1
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, file value should survive", cfg.Server.Host)
	}
	if cfg.Logging.Level != "warn" || !cfg.Metrics.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.Modules.Disabled, ",") != "Tasks,Settings" {
		t.Errorf("disabled = %v", cfg.Modules.Disabled)
	}
	if cfg.Storage.Remote.Timeout != 3*time.Second {
		t.Errorf("remote timeout = %v", cfg.Storage.Remote.Timeout)
	}
}

func TestLoad_EnvParseError(t *testing.T) {
	t.Setenv("ADMINKIT_SERVER_PORT", "not-a-number")
	if _, err := Load(writeFile(t, "{}\n")); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("error = %v, want parse env error", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad driver", "storage:\n  driver: mongo\n", "storage.driver"},
		{"remote without url", "storage:\n  driver: remote\n", "storage.remote.url"},
		{"bad metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"empty disabled", "modules:\n  disabled: [\"\"]\n", "modules.disabled[0]"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadWithFallback(t *testing.T) {
	cfg, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("driver = %s", cfg.Storage.Driver)
	}

	cfg, err = LoadWithFallback(writeFile(t, "server:\n  port: 1234\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 1234 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}
