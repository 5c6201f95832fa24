// Package config loads scheduling settings from YAML files and
// COFLOW_* environment variables, and builds loggers from them.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can spell values like
// "20ms" or "1.5s".
type Duration time.Duration

// AsDuration returns the wrapped time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds every tunable of the scheduling core.
type Config struct {
	// Backend names the executor variant: pool, cpu, spawn, or serial.
	Backend string `yaml:"backend"`

	// MaxWorkers caps executor concurrency for direct executors built
	// from this config.
	MaxWorkers int `yaml:"max_workers"`

	// PoolTimeout is how long each poll of pending work blocks before
	// the engine yields to the host.
	PoolTimeout Duration `yaml:"pool_timeout"`

	// RateLimit caps task starts per second. Zero disables the limit.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is how many task starts may happen back to back when a
	// rate limit is set.
	RateBurst int `yaml:"rate_burst"`

	// LogLevel is the minimum level emitted: debug, info, warn, or
	// error.
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `yaml:"log_format"`
}

// Default returns the stock configuration: the pool backend with ten
// workers, a 20ms poll timeout, no rate limit, and info-level text
// logging.
func Default() *Config {
	return &Config{
		Backend:     "pool",
		MaxWorkers:  10,
		PoolTimeout: Duration(20 * time.Millisecond),
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Load builds a configuration by layering, in order: the defaults, the
// YAML file at path, and COFLOW_* environment variables. A missing file
// is not an error; an unreadable or invalid one is.
//
// Parameters:
//   - path: YAML file to read, or "" to skip the file layer
//
// Returns:
//   - *Config: the merged, validated configuration
//   - error: if the file cannot be parsed, an environment variable
//     cannot be converted, or a merged value is invalid
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	return Load("")
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("COFLOW_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("COFLOW_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COFLOW_MAX_WORKERS: %w", err)
		}
		c.MaxWorkers = n
	}
	if v := os.Getenv("COFLOW_POOL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COFLOW_POOL_TIMEOUT: %w", err)
		}
		c.PoolTimeout = Duration(d)
	}
	if v := os.Getenv("COFLOW_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("COFLOW_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := os.Getenv("COFLOW_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COFLOW_RATE_BURST: %w", err)
		}
		c.RateBurst = n
	}
	if v := os.Getenv("COFLOW_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("COFLOW_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	switch c.Backend {
	case "pool", "cpu", "spawn", "serial":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max_workers must be positive, got %d", c.MaxWorkers)
	}
	if c.PoolTimeout <= 0 {
		return fmt.Errorf("pool_timeout must be positive, got %s", c.PoolTimeout.AsDuration())
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("rate_burst must be positive when rate_limit is set, got %d", c.RateBurst)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// ParseLevel maps a level name to its slog.Level. The empty string maps
// to info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds a structured logger writing to w at the config's
// level and format. Unknown levels fall back to info.
func NewLogger(w io.Writer, c *Config) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
