// Package config provides configuration types, defaults, and persistence for lindt.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for, and creates, its config file.
const DefaultConfigPath = ".lindt/config.yaml"

// Config holds all lindt configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Loader  LoaderConfig  `mapstructure:"loader" yaml:"loader"`
	Script  ScriptConfig  `mapstructure:"script" yaml:"script"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn (default), error
	Format string `mapstructure:"format" yaml:"format"` // text (default) or json
}

// CacheConfig configures the per-datatype value caches.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity" yaml:"capacity"`
}

// LoaderConfig configures how definition resources are fetched.
type LoaderConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
}

// ScriptConfig configures the JavaScript evaluator.
type ScriptConfig struct {
	FactoryName   string        `mapstructure:"factory_name" yaml:"factory_name"`
	SharedRuntime bool          `mapstructure:"shared_runtime" yaml:"shared_runtime"`
	CallTimeout   time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Exporter selects the export backend: "none", "stdout" or "otlp".
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	// SampleRate is the fraction of traces sampled, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// MetricsConfig configures the Prometheus metrics dump.
type MetricsConfig struct {
	// Dump prints collected metrics to stderr when a command finishes.
	Dump bool `mapstructure:"dump" yaml:"dump"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Cache: CacheConfig{
			Capacity: 100000,
		},
		Loader: LoaderConfig{
			Timeout:  30 * time.Second,
			MaxBytes: 4 << 20,
		},
		Script: ScriptConfig{
			FactoryName: "getDatatype",
			CallTimeout: 5 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Cache.Capacity < 0 {
		return fmt.Errorf("cache.capacity: must not be negative, got %d", c.Cache.Capacity)
	}
	if c.Loader.Timeout < 0 {
		return fmt.Errorf("loader.timeout: must not be negative, got %s", c.Loader.Timeout)
	}
	if c.Loader.MaxBytes < 0 {
		return fmt.Errorf("loader.max_bytes: must not be negative, got %d", c.Loader.MaxBytes)
	}
	if c.Script.CallTimeout < 0 {
		return fmt.Errorf("script.call_timeout: must not be negative, got %s", c.Script.CallTimeout)
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate: must be between 0 and 1, got %g", c.Tracing.SampleRate)
	}
	return nil
}

// SlogLevel converts the configured level name.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level: unknown level %q", l.Level)
	}
}

// EnvKeyReplacer maps nested config keys to environment variable names.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// DefaultConfigYAML renders the default configuration as YAML with a header.
func DefaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# lindt configuration\n")
	buf.WriteString("# Every setting can be overridden with LINDT_<SECTION>_<KEY>, e.g. LINDT_CACHE_CAPACITY.\n\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(Defaults()); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefaultConfig creates a config file at the given path with default settings.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	data, err := DefaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
