// Package config loads the service configuration from tasks.yaml and the
// environment. It is read once at startup and handed to constructors.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDatabaseURL names the environment variable holding the connection string
const EnvDatabaseURL = "DATABASE_URL"

// EnvConfigPath overrides the config file search
const EnvConfigPath = "TASKS_CONFIG"

// EnvLogLevel overrides logging.level
const EnvLogLevel = "LOG_LEVEL"

var defaultLocations = []string{"tasks.yaml", "tasks.yml", ".tasks.yaml", ".tasks.yml"}

// Config represents the tasks.yaml structure
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Database struct {
		URL             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns"`
		MaxIdleConns    int           `yaml:"max_idle_conns"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
		CreateIfMissing bool          `yaml:"create_if_missing"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, or the first tasks.yaml found in the working directory
// when path is empty, then applies the DATABASE_URL and LOG_LEVEL overrides and the defaults.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FindConfigPath()
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if url := os.Getenv(EnvDatabaseURL); url != "" {
		cfg.Database.URL = url
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}

	cfg.applyDefaults()
	return cfg, nil
}

// FindConfigPath returns TASKS_CONFIG, or the first default location that exists
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}

	for _, loc := range defaultLocations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Save writes cfg as YAML, creating parent directories
func Save(cfg *Config, path string) error {
	if path == "" {
		path = defaultLocations[0]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 10 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
