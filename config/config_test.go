package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend != "pool" {
		t.Errorf("expected pool, got %q", cfg.Backend)
	}
	if cfg.MaxWorkers != 10 {
		t.Errorf("expected 10 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.PoolTimeout.AsDuration() != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", cfg.PoolTimeout.AsDuration())
	}
	if cfg.RateLimit != 0 {
		t.Errorf("expected no rate limit, got %g", cfg.RateLimit)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("expected info text logging, got %s %s", cfg.LogLevel, cfg.LogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected the defaults to validate, got %v", err)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coflow.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend: spawn
max_workers: 4
pool_timeout: 5ms
rate_limit: 50
rate_burst: 10
log_level: debug
log_format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Backend != "spawn" {
		t.Errorf("expected spawn, got %q", cfg.Backend)
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.PoolTimeout.AsDuration() != 5*time.Millisecond {
		t.Errorf("expected 5ms, got %v", cfg.PoolTimeout.AsDuration())
	}
	if cfg.RateLimit != 50 || cfg.RateBurst != 10 {
		t.Errorf("expected rate 50 burst 10, got %g %d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("expected debug json logging, got %s %s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "backend: serial\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Backend != "serial" {
		t.Errorf("expected serial, got %q", cfg.Backend)
	}
	if cfg.MaxWorkers != 10 {
		t.Errorf("expected the default workers, got %d", cfg.MaxWorkers)
	}
	if cfg.PoolTimeout.AsDuration() != 20*time.Millisecond {
		t.Errorf("expected the default timeout, got %v", cfg.PoolTimeout.AsDuration())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected a missing file to fall back to defaults, got %v", err)
	}
	if cfg.Backend != "pool" {
		t.Errorf("expected pool, got %q", cfg.Backend)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfig(t, "backend: [unclosed\n")
		if _, err := Load(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "pool_timeout: fast\n")
		if _, err := Load(path); err == nil {
			t.Error("expected a duration error")
		}
	})

	t.Run("invalid merged value", func(t *testing.T) {
		path := writeConfig(t, "max_workers: -2\n")
		if _, err := Load(path); err == nil {
			t.Error("expected a validation error")
		}
	})
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("COFLOW_BACKEND", "cpu")
	t.Setenv("COFLOW_MAX_WORKERS", "2")
	t.Setenv("COFLOW_POOL_TIMEOUT", "3ms")
	t.Setenv("COFLOW_RATE_LIMIT", "25.5")
	t.Setenv("COFLOW_RATE_BURST", "5")
	t.Setenv("COFLOW_LOG_LEVEL", "warn")
	t.Setenv("COFLOW_LOG_FORMAT", "json")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Backend != "cpu" {
		t.Errorf("expected cpu, got %q", cfg.Backend)
	}
	if cfg.MaxWorkers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.MaxWorkers)
	}
	if cfg.PoolTimeout.AsDuration() != 3*time.Millisecond {
		t.Errorf("expected 3ms, got %v", cfg.PoolTimeout.AsDuration())
	}
	if cfg.RateLimit != 25.5 || cfg.RateBurst != 5 {
		t.Errorf("expected rate 25.5 burst 5, got %g %d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "json" {
		t.Errorf("expected warn json logging, got %s %s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "backend: spawn\nmax_workers: 4\n")
	t.Setenv("COFLOW_MAX_WORKERS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Backend != "spawn" {
		t.Errorf("expected the file backend, got %q", cfg.Backend)
	}
	if cfg.MaxWorkers != 8 {
		t.Errorf("expected the env workers, got %d", cfg.MaxWorkers)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"COFLOW_MAX_WORKERS", "many"},
		{"COFLOW_POOL_TIMEOUT", "soon"},
		{"COFLOW_RATE_LIMIT", "fast"},
		{"COFLOW_RATE_BURST", "big"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected an error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "fibers" }},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }},
		{"zero timeout", func(c *Config) { c.PoolTimeout = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.RateLimit = 10; c.RateBurst = 0 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("%q: expected no error, got %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("text format", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&buf, Default())
		log.Info("hello", "k", "v")

		out := buf.String()
		if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "k=v") {
			t.Errorf("expected a text record, got %q", out)
		}
	})

	t.Run("json format", func(t *testing.T) {
		cfg := Default()
		cfg.LogFormat = "json"

		var buf bytes.Buffer
		log := NewLogger(&buf, cfg)
		log.Info("hello")

		out := buf.String()
		if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"msg":"hello"`) {
			t.Errorf("expected a json record, got %q", out)
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		cfg := Default()
		cfg.LogLevel = "error"

		var buf bytes.Buffer
		log := NewLogger(&buf, cfg)
		log.Info("dropped")
		log.Error("kept")

		out := buf.String()
		if strings.Contains(out, "dropped") {
			t.Errorf("expected info records to be filtered, got %q", out)
		}
		if !strings.Contains(out, "kept") {
			t.Errorf("expected error records to pass, got %q", out)
		}
	})
}

func TestDuration_Marshal(t *testing.T) {
	out, err := Default().PoolTimeout.MarshalYAML()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "20ms" {
		t.Errorf("expected 20ms, got %v", out)
	}
}
