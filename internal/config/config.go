package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sigreer/rascsictl/internal/transport"
)

// Environment variables that override the config file
const (
	EnvHost     = "RASCSI_HOST"
	EnvPort     = "RASCSI_PORT"
	EnvJournal  = "RASCSI_JOURNAL"
	EnvLogLevel = "RASCSICTL_LOG_LEVEL"
)

// JournalOff as the journal path disables the journal
const JournalOff = "off"

type Config struct {
	Server   Server  `yaml:"server"`
	Retry    Retry   `yaml:"retry"`
	Journal  Journal `yaml:"journal"`
	LogLevel string  `yaml:"log_level,omitempty"`

	// Source is the file the config was read from, "" for built-in defaults
	Source string `yaml:"-"`
}

type Server struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	ChunkSize int    `yaml:"chunk_size,omitempty"`
}

type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

type Journal struct {
	// Path of the sqlite journal; empty uses the default location
	Path     string `yaml:"path,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// defaultConfig targets a service on the local machine
var defaultConfig = Config{
	Server: Server{
		Host:      transport.DefaultHost,
		Port:      transport.DefaultPort,
		ChunkSize: transport.DefaultChunkSize,
	},
	Retry: Retry{
		MaxAttempts: transport.DefaultMaxAttempts,
		Interval:    transport.DefaultRetryInterval,
	},
	LogLevel: "info",
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the config file at path, or the first default location that
// exists when path is empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	_ = EnsureDotEnv()

	if path == "" {
		// Try default locations
		candidates := []string{
			"/etc/rascsictl/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/rascsictl/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := defaultConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
		cfg.Source = path
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		c.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return errors.Errorf("%s=%q is not a valid port", EnvPort, v)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournal)); v != "" {
		if strings.EqualFold(v, JournalOff) {
			c.Journal.Disabled = true
		} else {
			c.Journal.Path = v
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Apply defaults for fields the file left empty
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultConfig.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultConfig.Server.Port
	}
	if c.Server.ChunkSize == 0 {
		c.Server.ChunkSize = defaultConfig.Server.ChunkSize
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = defaultConfig.Retry.MaxAttempts
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultConfig.LogLevel
	}
}

// Transport returns the transport settings
func (c *Config) Transport() transport.Config {
	return transport.Config{
		Host:          c.Server.Host,
		Port:          c.Server.Port,
		MaxAttempts:   c.Retry.MaxAttempts,
		RetryInterval: c.Retry.Interval,
		ChunkSize:     c.Server.ChunkSize,
	}
}
