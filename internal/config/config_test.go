package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverlaysPartialFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.toml")
	if err := os.WriteFile(path, []byte(`
[network]
bind_address = "127.0.0.1:9000"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Network.BindAddress != "127.0.0.1:9000" {
		t.Fatalf("BindAddress = %q, want override", cfg.Network.BindAddress)
	}
	if cfg.Session.IdleTimeout != defaults().Session.IdleTimeout {
		t.Fatalf("IdleTimeout should fall back to default when unset in file")
	}
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real.toml")
	if err := os.WriteFile(real, []byte(`[logging]
level = "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvOverride, real)
	cfg, err := Load(filepath.Join(dir, "nonexistent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug (env override path)", cfg.Logging.Level)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/path/server.toml"); err == nil {
		t.Fatalf("Load() of a missing file should error")
	}
}
