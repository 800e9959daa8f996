// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. ADMINKIT_SERVER_PORT.
const EnvPrefix = "ADMINKIT_"

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRemote = "remote"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Modules ModulesConfig `yaml:"modules" envPrefix:"MODULES_"`
	I18n    I18nConfig    `yaml:"i18n" envPrefix:"I18N_"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"FORMAT"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// StorageConfig selects the resource service backend.
type StorageConfig struct {
	Driver string       `yaml:"driver" env:"DRIVER"` // "memory", "sqlite" or "remote"
	DSN    string       `yaml:"dsn" env:"DSN"`       // sqlite database path
	Seed   bool         `yaml:"seed" env:"SEED"`     // load sample records into empty collections
	Remote RemoteConfig `yaml:"remote,omitempty" envPrefix:"REMOTE_"`
}

// RemoteConfig configures a remote resource API.
type RemoteConfig struct {
	URL     string            `yaml:"url" env:"URL"`
	APIKey  string            `yaml:"api_key,omitempty" env:"API_KEY"`
	Timeout time.Duration     `yaml:"timeout,omitempty" env:"TIMEOUT"`
	Retries int               `yaml:"retries,omitempty" env:"RETRIES"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// ModulesConfig controls which modules are composed.
type ModulesConfig struct {
	// ManifestsDir holds YAML module manifests loaded next to the built-in
	// modules. Empty disables manifest loading.
	ManifestsDir string `yaml:"manifests_dir" env:"MANIFESTS_DIR"`

	// Disabled lists module names that are registered but not loaded.
	Disabled []string `yaml:"disabled" env:"DISABLED" envSeparator:","`
}

// I18nConfig configures localization.
type I18nConfig struct {
	DefaultLocale  string `yaml:"default_locale" env:"DEFAULT_LOCALE"`
	FallbackLocale string `yaml:"fallback_locale" env:"FALLBACK_LOCALE"`
}

// Load reads configuration from a YAML file, then applies environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	ADMINKIT_SERVER_HOST            - Server host (default: 0.0.0.0)
//	ADMINKIT_SERVER_PORT            - Server port (default: 8080)
//	ADMINKIT_LOG_LEVEL              - Log level: debug, info, warn, error (default: info)
//	ADMINKIT_LOG_FORMAT             - Log format: json or console (default: json)
//	ADMINKIT_METRICS_ENABLED        - Enable /metrics endpoint (default: false)
//	ADMINKIT_STORAGE_DRIVER         - memory, sqlite or remote (default: memory)
//	ADMINKIT_STORAGE_DSN            - SQLite path (default: adminkit.db)
//	ADMINKIT_STORAGE_REMOTE_URL     - Remote resource API base URL
//	ADMINKIT_MODULES_MANIFESTS_DIR  - Directory of YAML module manifests
//	ADMINKIT_MODULES_DISABLED       - Comma-separated module names to skip
//	ADMINKIT_I18N_DEFAULT_LOCALE    - Default locale (default: en)
func LoadFromEnv() (*Config, error) {
	return finish(&Config{})
}

// LoadWithFallback loads path when it exists, otherwise falls back to
// environment variables and defaults.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies ADMINKIT_* environment variables to the config.
// Unset variables leave file values untouched.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverMemory
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "adminkit.db"
	}
	if cfg.Storage.Remote.Timeout == 0 {
		cfg.Storage.Remote.Timeout = 10 * time.Second
	}

	if cfg.I18n.FallbackLocale == "" {
		cfg.I18n.FallbackLocale = "en"
	}
	if cfg.I18n.DefaultLocale == "" {
		cfg.I18n.DefaultLocale = cfg.I18n.FallbackLocale
	}
}

func validate(cfg *Config) error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	switch cfg.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverRemote:
		if cfg.Storage.Remote.URL == "" {
			return fmt.Errorf("storage.remote.url is required when storage.driver is 'remote'")
		}
	default:
		return fmt.Errorf("storage.driver must be one of: memory, sqlite, remote, got %q", cfg.Storage.Driver)
	}

	for i, name := range cfg.Modules.Disabled {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("modules.disabled[%d] is empty", i)
		}
	}

	return nil
}
