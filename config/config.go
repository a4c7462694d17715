// Package config loads the yaml description of pools this process
// should serve.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richardm90/rm-mapepire-go/pool"
)

// Config is the top-level configuration file.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Pools   []PoolConfig  `yaml:"pools"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PoolConfig describes one named pool and the server it talks to.
type PoolConfig struct {
	Name string `yaml:"name"`

	// Driver selects the session implementation: websocket | mysql
	Driver string `yaml:"driver"`

	// Websocket server settings
	Address            string `yaml:"address"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	IgnoreUnauthorized bool   `yaml:"ignore_unauthorized"`

	// database/sql DSN for the mysql driver
	DSN string `yaml:"dsn"`

	MaxSize                int  `yaml:"max_size"`
	InitialSize            int  `yaml:"initial_size"`
	InitialExpiryMinutes   int  `yaml:"initial_expiry_minutes"`
	IncrementSize          int  `yaml:"increment_size"`
	IncrementExpiryMinutes int  `yaml:"increment_expiry_minutes"`
	DisableHealthCheck     bool `yaml:"disable_health_check"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a config file, layering it over the defaults. An empty
// path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts the pool constructor cannot see, like
// duplicate names and missing connect targets.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, pc := range c.Pools {
		if pc.Name == "" {
			return fmt.Errorf("pool %d: name is required", i)
		}
		if seen[pc.Name] {
			return fmt.Errorf("pool %s: duplicate name", pc.Name)
		}
		seen[pc.Name] = true

		switch pc.Driver {
		case "", "websocket":
			if pc.Address == "" {
				return fmt.Errorf("pool %s: address is required", pc.Name)
			}
		case "mysql":
			if pc.DSN == "" {
				return fmt.Errorf("pool %s: dsn is required", pc.Name)
			}
		default:
			return fmt.Errorf("pool %s: unknown driver %q", pc.Name, pc.Driver)
		}

		if pc.MaxSize < 0 || pc.InitialSize < 0 || pc.IncrementSize < 0 ||
			pc.InitialExpiryMinutes < 0 || pc.IncrementExpiryMinutes < 0 {
			return fmt.Errorf("pool %s: negative sizes are not allowed", pc.Name)
		}
		if pc.MaxSize > 0 && pc.InitialSize > pc.MaxSize {
			return fmt.Errorf("pool %s: initial_size %d exceeds max_size %d",
				pc.Name, pc.InitialSize, pc.MaxSize)
		}
	}
	return nil
}

// PoolOptions converts one pool stanza into pool.Options. The factory is
// supplied by the caller since it depends on the chosen driver.
func (pc *PoolConfig) PoolOptions(factory pool.Factory) *pool.Options {
	return &pool.Options{
		Name:               pc.Name,
		Factory:            factory,
		MaxSize:            pc.MaxSize,
		InitialSize:        pc.InitialSize,
		InitialExpiry:      time.Duration(pc.InitialExpiryMinutes) * time.Minute,
		IncrementSize:      pc.IncrementSize,
		IncrementExpiry:    time.Duration(pc.IncrementExpiryMinutes) * time.Minute,
		DisableHealthCheck: pc.DisableHealthCheck,
	}
}
