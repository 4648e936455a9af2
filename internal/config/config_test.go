//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		chdir(t, t.TempDir())
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Storage.Driver != "file" {
			t.Errorf("expected file driver, got %q", cfg.Storage.Driver)
		}
		if cfg.UI.StatusTTL != 5*time.Second {
			t.Errorf("expected 5s status ttl, got %s", cfg.UI.StatusTTL)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if len(cfg.Watch.Extensions) != 5 {
			t.Errorf("expected 5 default extensions, got %d", len(cfg.Watch.Extensions))
		}
	})

	t.Run("file values are kept", func(t *testing.T) {
		chdir(t, t.TempDir())
		p := writeConfig(t, strings.Join([]string{
			"api:",
			"  endpoint: http://qa.local:10000/",
			"  key: secret",
			"ui:",
			"  status_ttl: 2s",
			"  color: never",
		}, "\n"))
		cfg, err := LoadConfig(p, true)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.API.Endpoint != "http://qa.local:10000" {
			t.Errorf("expected trailing slash trimmed, got %q", cfg.API.Endpoint)
		}
		if cfg.API.Key != "secret" {
			t.Errorf("expected key from file, got %q", cfg.API.Key)
		}
		if cfg.UI.StatusTTL != 2*time.Second {
			t.Errorf("expected 2s, got %s", cfg.UI.StatusTTL)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected dev flag to be carried")
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("RAG_API_KEY", "from-env")
		t.Setenv("RAG_REDIS_URL", "localhost:6379")
		p := writeConfig(t, "api:\n  key: from-file\n")
		cfg, err := LoadConfig(p, false)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.API.Key != "from-env" {
			t.Errorf("wanted env key, got %q", cfg.API.Key)
		}
		if cfg.Storage.Driver != "redis" {
			t.Errorf("redis url in env should select redis driver, got %q", cfg.Storage.Driver)
		}
	})

	t.Run("invalid driver is rejected", func(t *testing.T) {
		chdir(t, t.TempDir())
		p := writeConfig(t, "storage:\n  driver: sqlite\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatal("expected an error for unknown driver")
		}
	})

	t.Run("bad encryption key length is rejected", func(t *testing.T) {
		chdir(t, t.TempDir())
		p := writeConfig(t, "security:\n  encryption_key: short\n")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatal("expected an error for a 5 byte key")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		chdir(t, t.TempDir())
		p := writeConfig(t, "api: [unterminated")
		if _, err := LoadConfig(p, false); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
