package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TYPEFACE_SERVER", "TYPEFACE_CONFIG_DIR", "TYPEFACE_TIMEOUT", "LOG_LEVEL"} {
		unsetenv(t, k)
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("expected default server, got %s", cfg.ServerURL)
	}
	if cfg.Timeout != 0 {
		t.Errorf("expected no timeout by default, got %s", cfg.Timeout)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected warn log level, got %s", cfg.LogLevel)
	}
	if runtime.GOOS != "windows" && cfg.ConfigDir != filepath.Join("/tmp/xdg", "typeface") {
		t.Errorf("unexpected config dir %s", cfg.ConfigDir)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("TYPEFACE_SERVER", "https://files.example.com/")
	t.Setenv("TYPEFACE_TIMEOUT", "15s")
	t.Setenv("TYPEFACE_CONFIG_DIR", "/var/lib/typeface")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "https://files.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.ServerURL)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.Timeout)
	}
	if cfg.ConfigDir != "/var/lib/typeface" {
		t.Errorf("unexpected config dir %s", cfg.ConfigDir)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("unexpected metrics addr %s", cfg.MetricsAddr)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, val string
	}{
		{"bad scheme", "TYPEFACE_SERVER", "ftp://example.com"},
		{"bad timeout", "TYPEFACE_TIMEOUT", "soon"},
		{"negative timeout", "TYPEFACE_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, "TYPEFACE_SERVER")
			unsetenv(t, "TYPEFACE_TIMEOUT")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}

func TestSetServer(t *testing.T) {
	unsetenv(t, "TYPEFACE_SERVER")
	unsetenv(t, "TYPEFACE_TIMEOUT")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.SetServer("http://other:9000/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://other:9000" {
		t.Errorf("unexpected server %s", cfg.ServerURL)
	}
	if err := cfg.SetServer(""); err == nil {
		t.Error("expected error for empty server")
	}
}
