package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "masmnav.toml")

	content := `
watch_paths = ["kernel", "libs"]

[registry]
dir = "/tmp/registry"

[watch]
debounce = "250ms"

[server]
rate_limit_enabled = true
requests_per_minute = 60
burst = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.WatchPaths) != 2 || cfg.WatchPaths[0] != "kernel" {
		t.Errorf("unexpected watch paths: %v", cfg.WatchPaths)
	}
	if cfg.Registry.Dir != "/tmp/registry" {
		t.Errorf("unexpected registry dir: %s", cfg.Registry.Dir)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("unexpected debounce: %v", cfg.Watch.Debounce)
	}
	if !cfg.Server.RateLimitEnabled || cfg.Server.RequestsPerMinute != 60 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "masmnav.toml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.WatchPaths) != 1 || cfg.WatchPaths[0] != "." {
		t.Errorf("expected default watch path, got %v", cfg.WatchPaths)
	}
	if cfg.Server.RequestsPerMinute != 120 {
		t.Errorf("expected default rate limit, got %d", cfg.Server.RequestsPerMinute)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MASMNAV_REGISTRY_DIR", "/opt/registry")
	t.Setenv("MASMNAV_WATCH_DEBOUNCE", "1s")
	t.Setenv("MASMNAV_SERVER_BURST", "7")

	cfg := Default()

	if cfg.Registry.Dir != "/opt/registry" {
		t.Errorf("expected env registry dir, got %s", cfg.Registry.Dir)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected env debounce, got %v", cfg.Watch.Debounce)
	}
	if cfg.Server.Burst != 7 {
		t.Errorf("expected env burst, got %d", cfg.Server.Burst)
	}
}
