// Package config loads toolscript host configuration from YAML,
// expanding ${VAR} references from the environment before parsing.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/jonwraymond/toolscript/render"
)

// Config is the root host configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	WebSearch WebSearchConfig `yaml:"websearch"`
	DocFetch  DocFetchConfig  `yaml:"docfetch"`
	SQL       SQLConfig       `yaml:"sql"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EngineConfig bounds script execution.
type EngineConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	MaxToolCalls  int           `yaml:"max_tool_calls"`
	MaxBatch      int           `yaml:"max_batch_in_flight"`
	DefaultFormat string        `yaml:"default_format"`
}

// WebSearchConfig configures the "search" namespace.
type WebSearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	MaxResults int    `yaml:"max_results"`
}

// DocFetchConfig configures the "fetch" namespace.
type DocFetchConfig struct {
	Enabled  bool  `yaml:"enabled"`
	MaxBytes int64 `yaml:"max_bytes"`
}

// SQLConfig configures the "db" namespace.
type SQLConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// SheetsConfig configures the "sheets" namespace.
type SheetsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Roots   []string `yaml:"roots"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every optional capability off
// and the engine limits at their built-in values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:       30 * time.Second,
			MaxToolCalls:  64,
			MaxBatch:      8,
			DefaultFormat: render.DefaultFormat,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file, expanding ${VAR} environment
// references before parsing. Unset fields keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes over the defaults.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}
	if c.Engine.MaxToolCalls <= 0 {
		return fmt.Errorf("engine.max_tool_calls must be positive")
	}
	if c.Engine.MaxBatch <= 0 {
		return fmt.Errorf("engine.max_batch_in_flight must be positive")
	}
	if f := c.Engine.DefaultFormat; f != "" && !render.Known(f) {
		return fmt.Errorf("engine.default_format %q is not a known format", f)
	}
	if c.WebSearch.Enabled {
		if c.WebSearch.Endpoint == "" {
			return fmt.Errorf("websearch.endpoint is required when websearch is enabled")
		}
		u, err := url.Parse(c.WebSearch.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("websearch.endpoint must be an http or https URL")
		}
	}
	if c.SQL.Enabled && c.SQL.DSN == "" {
		return fmt.Errorf("sql.dsn is required when sql is enabled")
	}
	if c.Sheets.Enabled && len(c.Sheets.Roots) == 0 {
		return fmt.Errorf("sheets.roots is required when sheets is enabled")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	return nil
}

// SlogLevel maps the configured level name onto a slog level string
// accepted by slog.Level.UnmarshalText.
func (c *Config) SlogLevel() string {
	if c.Logging.Level == "" {
		return "info"
	}
	return strings.ToLower(c.Logging.Level)
}
