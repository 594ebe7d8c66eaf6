// Package config loads the bridge's configuration from a YAML (or JSON5)
// file, with $include-based composition, environment variable expansion,
// and defaulting/validation on load.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration structure for the bridge process.
type Config struct {
	Version       int                 `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	Executor      ExecutorConfig      `yaml:"executor"`
	Resolver      ResolverConfig      `yaml:"resolver"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig configures the WebSocket transport and its optional HTTP
// side channel.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	HTTPPort        int           `yaml:"http_port"`
	MaxFrameBytes   int64         `yaml:"max_frame_bytes"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	HandshakeWindow time.Duration `yaml:"handshake_window"`
}

// ExecutorConfig configures default task-execution behavior.
type ExecutorConfig struct {
	DefaultTimeout                time.Duration `yaml:"default_timeout"`
	DefaultIDPolicy               string        `yaml:"default_id_policy"`
	HistorySize                   int           `yaml:"history_size"`
	UseMaskBoundsForClippedGroups *bool         `yaml:"use_mask_bounds_for_clipped_groups"`
}

// ResolverConfig configures the script library resolver.
type ResolverConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig configures tracing and other observability features.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	Environment    string            `yaml:"environment"`
	SamplingRate   float64           `yaml:"sampling_rate"`
	Insecure       bool              `yaml:"insecure"`
	Attributes     map[string]string `yaml:"attributes"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads, $include-expands, env-expands, and decodes the config file at
// path, then applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyExecutorDefaults(&cfg.Executor)
	applyResolverDefaults(&cfg.Resolver)
	applyLoggingDefaults(&cfg.Logging)
	applyObservabilityDefaults(&cfg.Observability)
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8788
	}
	if cfg.MaxFrameBytes == 0 {
		cfg.MaxFrameBytes = 10 << 20
	}
	if cfg.PingInterval == 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.HandshakeWindow == 0 {
		cfg.HandshakeWindow = 10 * time.Second
	}
}

func applyExecutorDefaults(cfg *ExecutorConfig) {
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.DefaultIDPolicy == "" {
		cfg.DefaultIDPolicy = "none"
	}
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 50
	}
	if cfg.UseMaskBoundsForClippedGroups == nil {
		t := true
		cfg.UseMaskBoundsForClippedGroups = &t
	}
}

func applyResolverDefaults(cfg *ResolverConfig) {
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 64
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
}

func applyObservabilityDefaults(cfg *ObservabilityConfig) {
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "illustrator-bridge"
	}
	if cfg.Tracing.SamplingRate == 0 {
		cfg.Tracing.SamplingRate = 1.0
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if value := strings.TrimSpace(os.Getenv("ILLUSTRATOR_BRIDGE_HOST")); value != "" {
		cfg.Server.Host = value
	}
	if value := strings.TrimSpace(os.Getenv("ILLUSTRATOR_BRIDGE_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("ILLUSTRATOR_BRIDGE_HTTP_PORT")); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			cfg.Server.HTTPPort = parsed
		}
	}
	if value := strings.TrimSpace(os.Getenv("ILLUSTRATOR_BRIDGE_LOG_LEVEL")); value != "" {
		cfg.Logging.Level = value
	}
	if value := strings.TrimSpace(os.Getenv("ILLUSTRATOR_BRIDGE_OTLP_ENDPOINT")); value != "" {
		cfg.Observability.Tracing.Endpoint = value
		cfg.Observability.Tracing.Enabled = true
	}
}

// ConfigValidationError reports every validation issue found at once,
// rather than failing on the first.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	switch cfg.Executor.DefaultIDPolicy {
	case "none", "preserve", "opt_in", "always":
	default:
		issues = append(issues, "executor.default_id_policy must be one of none, preserve, opt_in, always")
	}
	if cfg.Executor.HistorySize < 0 {
		issues = append(issues, "executor.history_size must be >= 0")
	}
	if cfg.Resolver.CacheSize <= 0 {
		issues = append(issues, "resolver.cache_size must be > 0")
	}
	if cfg.Server.Port < 1024 || cfg.Server.Port > 65535 {
		issues = append(issues, "server.port must be between 1024 and 65535")
	}
	if cfg.Server.HTTPPort < 1024 || cfg.Server.HTTPPort > 65535 {
		issues = append(issues, "server.http_port must be between 1024 and 65535")
	}
	if cfg.Server.Port != 0 && cfg.Server.Port == cfg.Server.HTTPPort {
		issues = append(issues, "server.port and server.http_port must be distinct")
	}
	if cfg.Observability.Tracing.SamplingRate < 0 || cfg.Observability.Tracing.SamplingRate > 1 {
		issues = append(issues, "observability.tracing.sampling_rate must be between 0 and 1")
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}
