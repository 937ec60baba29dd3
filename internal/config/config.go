// Package config loads and validates gopherd's optional YAML configuration.
//
// gopherd's required interface is the CLI contract from the spec:
// `gopherd [-config path] <docroot>`. Every field below has a compile-time
// default matching the protocol spec (MAX_CONNECTIONS=10, RECV_TIMEOUT=3s,
// bind 0.0.0.0:70, default link host "localhost"/port 70); a config file only
// overrides what it sets.
package config

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed example.yaml
var exampleConfig embed.FS

// Config is gopherd's full runtime configuration.
type Config struct {
	Listen    Listen    `yaml:"listen"`
	Defaults  Defaults  `yaml:"defaults"`
	Rendering Rendering `yaml:"rendering"`
	Logging   Logging   `yaml:"logging"`
}

// Listen controls the TCP listener and the connection supervisor.
type Listen struct {
	Bind           string `yaml:"bind"`            // address to bind the listener to
	Port           int    `yaml:"port"`            // TCP port, default 70
	MaxConnections int    `yaml:"max_connections"` // size of the slot table, default 10
	Backlog        int    `yaml:"backlog"`         // default 5; validated only, the listener keeps the OS default backlog
	RecvTimeoutMs  int    `yaml:"recv_timeout_ms"` // selector read deadline, default 3000
	SendTimeoutMs  int    `yaml:"send_timeout_ms"` // response write deadline, default 30000
}

// Defaults controls the host and port given to link entries that don't
// name one explicitly (directory-listing items and gophermap lines without
// a host or port field). Info and error entries always carry the
// null.host/0 sentinel pair instead.
type Defaults struct {
	Host string `yaml:"host"` // default "localhost"
	Port int    `yaml:"port"` // default 70
}

// Rendering controls optional content transforms.
type Rendering struct {
	MarkdownEnabled bool `yaml:"markdown_enabled"` // render .md files via goldmark instead of raw bytes
}

// Logging controls the structured logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Default returns the compile-time defaults named by the protocol spec.
func Default() *Config {
	return &Config{
		Listen: Listen{
			Bind:           "0.0.0.0",
			Port:           70,
			MaxConnections: 10,
			Backlog:        5,
			RecvTimeoutMs:  3000,
			SendTimeoutMs:  30000,
		},
		Defaults: Defaults{
			Host: "localhost",
			Port: 70,
		},
		Rendering: Rendering{
			MarkdownEnabled: false,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file, applies defaults for anything it leaves
// unset, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in any zero-valued fields a partial YAML file left out.
func applyDefaults(cfg *Config) {
	d := Default()

	if cfg.Listen.Bind == "" {
		cfg.Listen.Bind = d.Listen.Bind
	}
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = d.Listen.Port
	}
	if cfg.Listen.MaxConnections == 0 {
		cfg.Listen.MaxConnections = d.Listen.MaxConnections
	}
	if cfg.Listen.Backlog == 0 {
		cfg.Listen.Backlog = d.Listen.Backlog
	}
	if cfg.Listen.RecvTimeoutMs == 0 {
		cfg.Listen.RecvTimeoutMs = d.Listen.RecvTimeoutMs
	}
	if cfg.Listen.SendTimeoutMs == 0 {
		cfg.Listen.SendTimeoutMs = d.Listen.SendTimeoutMs
	}
	if cfg.Defaults.Host == "" {
		cfg.Defaults.Host = d.Defaults.Host
	}
	if cfg.Defaults.Port == 0 {
		cfg.Defaults.Port = d.Defaults.Port
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
}

// Validate checks that a configuration is self-consistent.
func Validate(cfg *Config) error {
	if cfg.Listen.Port < 1 || cfg.Listen.Port > 65535 {
		return fmt.Errorf("listen.port must be between 1 and 65535")
	}
	if cfg.Listen.MaxConnections < 1 {
		return fmt.Errorf("listen.max_connections must be >= 1")
	}
	if cfg.Listen.Backlog < 1 {
		return fmt.Errorf("listen.backlog must be >= 1")
	}
	if cfg.Listen.RecvTimeoutMs < 1 {
		return fmt.Errorf("listen.recv_timeout_ms must be >= 1")
	}
	if cfg.Listen.SendTimeoutMs < 1 {
		return fmt.Errorf("listen.send_timeout_ms must be >= 1")
	}
	if cfg.Defaults.Port < 0 || cfg.Defaults.Port > 65535 {
		return fmt.Errorf("defaults.port must be between 0 and 65535")
	}
	if !validLogLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", cfg.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(cfg.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be one of: text, json)", cfg.Logging.Format)
	}
	return nil
}

// GetExampleConfig returns the embedded starter YAML, used by `gopherd init`.
func GetExampleConfig() ([]byte, error) {
	return exampleConfig.ReadFile("example.yaml")
}
