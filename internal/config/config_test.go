package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("MAILTOTHINGS_CONFIG_DIR", dir)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Auth.Mode != "google" || cfg.Log.Level != "info" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Path != filepath.Join(dir, "mailtothings.db") {
		t.Fatalf("store path = %q", cfg.Store.Path)
	}
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := "server:\n  addr: \":9000\"\n  base_url: https://file.example.com/addon\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAILTOTHINGS_CONFIG_DIR", dir)
	t.Setenv("MAILTOTHINGS_SERVER_BASE_URL", "https://env.example.com/addon")

	fs := Flags()
	if err := fs.Parse([]string{"--log-level", "warn"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr from file = %q", cfg.Server.Addr)
	}
	if cfg.Server.BaseURL != "https://env.example.com/addon" {
		t.Errorf("env should beat file, base_url = %q", cfg.Server.BaseURL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("flag should beat file, level = %q", cfg.Log.Level)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("MAILTOTHINGS_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MAILTOTHINGS_AUTH_MODE=insecure\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("MAILTOTHINGS_AUTH_MODE") })

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Mode != "insecure" {
		t.Fatalf("auth mode = %q", cfg.Auth.Mode)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	fs := Flags()
	if err := fs.Parse([]string{"--config", filepath.Join(dir, "nope.yaml")}); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fs); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{Mode: "basic"}, Server: ServerConfig{ShutdownTimeout: time.Second}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid auth mode")
	}
	cfg.Auth.Mode = "insecure"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore Chdir: %v", err)
		}
	})
}
