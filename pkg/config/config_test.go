package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/graphlayout/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[layout]
algorithm = "forest"
timeout = "500ms"
record_shift = true

[cache]
backend = "redis"
redis_url = "redis://cache:6379/2"
ttl = "1h"

[server]
addr = "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Algorithm != "forest" {
		t.Errorf("algorithm = %q, want forest", cfg.Layout.Algorithm)
	}
	if cfg.Layout.Timeout.Duration != 500*time.Millisecond {
		t.Errorf("timeout = %v, want 500ms", cfg.Layout.Timeout)
	}
	if !cfg.Layout.RecordShift {
		t.Error("record_shift = false, want true")
	}
	if cfg.Layout.Rigidity != 2.0 {
		t.Errorf("rigidity = %v, want default 2.0", cfg.Layout.Rigidity)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisURL != "redis://cache:6379/2" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("ttl = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.WriteTimeout.Duration != 30*time.Second {
		t.Errorf("write_timeout = %v, want default 30s", cfg.Server.WriteTimeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", "[layout\n", errors.ErrCodeInvalidConfig},
		{"bad duration", "[layout]\ntimeout = \"soon\"\n", errors.ErrCodeInvalidConfig},
		{"unknown algorithm", "[layout]\nalgorithm = \"radial\"\n", errors.ErrCodeInvalidConfig},
		{"negative rigidity", "[layout]\nrigidity = -1.0\n", errors.ErrCodeInvalidConfig},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n", errors.ErrCodeInvalidConfig},
		{"bad redis url", "[cache]\nbackend = \"redis\"\nredis_url = \"http://x\"\n", errors.ErrCodeInvalidConfig},
		{"missing mongo collection", "[cache]\nbackend = \"mongo\"\nmongo_collection = \"\"\n", errors.ErrCodeInvalidConfig},
		{"empty addr", "[server]\naddr = \"\"\n", errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "nope.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: error = %v, want FILE_NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("default missing file: %v", err)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("backend = %q, want default %q", cfg.Cache.Backend, BackendFile)
	}
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CACHE_HOME", dir)

	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, AppName, "config.toml"); p != want {
		t.Errorf("DefaultPath() = %q, want %q", p, want)
	}

	cfg := Default()
	got, err := cfg.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, AppName); got != want {
		t.Errorf("CacheDir() = %q, want %q", got, want)
	}

	cfg.Cache.Dir = "/srv/cache"
	if got, _ := cfg.CacheDir(); got != "/srv/cache" {
		t.Errorf("CacheDir() = %q, want /srv/cache", got)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Second {
		t.Errorf("Duration = %v, want 1m30s", d.Duration)
	}
	out, _ := d.MarshalText()
	if string(out) != "1m30s" {
		t.Errorf("MarshalText() = %q, want 1m30s", out)
	}
}
