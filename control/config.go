// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Server configuration: YAML file, defaults, validation and env overrides.

package control

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields.
const (
	DefaultBacklog        = 32
	DefaultReadBufferSize = 4096
	DefaultMaxEvents      = 128
	DefaultLogLevel       = "info"
)

// Environment variables read by the process entry point.
const (
	EnvConfigPath = "CHATSERVER_CONFIG"
	EnvLogLevel   = "CHATSERVER_LOG_LEVEL"
)

// Config holds all server-side configuration parameters.
type Config struct {
	Port           int    `yaml:"port"`             // TCP listen port, normally from the command line
	Backlog        int    `yaml:"backlog"`          // listen(2) backlog
	ReadBufferSize int    `yaml:"read_buffer_size"` // max bytes per read, i.e. per relayed chunk
	MaxConnections int    `yaml:"max_connections"`  // 0 = unlimited
	MaxEvents      int    `yaml:"max_events"`       // readiness events fetched per wait
	LogLevel       string `yaml:"log_level"`
	ReuseAddr      *bool  `yaml:"reuse_addr"` // nil = true
	CPU            *int   `yaml:"cpu"`        // pin the loop thread, nil = unpinned
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// ReuseAddress reports whether SO_REUSEADDR should be set on the listener.
func (c *Config) ReuseAddress() bool {
	return c.ReuseAddr == nil || *c.ReuseAddr
}

// PinnedCPU returns the CPU the loop thread should be bound to, if any.
func (c *Config) PinnedCPU() (int, bool) {
	if c.CPU == nil {
		return 0, false
	}
	return *c.CPU, true
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// FromEnv returns the configuration named by CHATSERVER_CONFIG, or the
// defaults when it is unset, with CHATSERVER_LOG_LEVEL applied on top.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv(EnvConfigPath); path != "" {
		var err error
		if cfg, err = LoadAndValidate(path); err != nil {
			return nil, err
		}
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
		if _, err := ParseLevel(lvl); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backlog == 0 {
		c.Backlog = DefaultBacklog
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = DefaultReadBufferSize
	}
	if c.MaxEvents == 0 {
		c.MaxEvents = DefaultMaxEvents
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks that all values are usable. Port 0 is accepted here since
// the port usually arrives later from the command line.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Backlog < 1 {
		return errors.New("backlog must be >= 1")
	}
	if c.ReadBufferSize < 1 {
		return errors.New("read_buffer_size must be >= 1")
	}
	if c.MaxConnections < 0 {
		return errors.New("max_connections must be >= 0")
	}
	if c.MaxEvents < 1 {
		return errors.New("max_events must be >= 1")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.CPU != nil && *c.CPU < 0 {
		return errors.New("cpu must be >= 0")
	}
	return nil
}

// ParsePort validates a command line port argument: a decimal integer in
// [1, 65535].
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return port, nil
}
