package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the example service configuration loaded from config.yaml
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// LoggingConfig holds the logger settings
type LoggingConfig struct {
	Name            string `yaml:"name"`
	Level           string `yaml:"level"`
	SuppressAppLogs bool   `yaml:"suppress_app_logs"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// RedisConfig holds the dealer cache settings. Leave addr empty to run the
// example without a cache.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// DatabaseConfig holds the dealer database settings. Leave host empty to run
// the example without a database.
type DatabaseConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Name     string `yaml:"name,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// defaultConfig returns the configuration used when no file is supplied.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Name:            "example",
			Level:           "debug",
			SuppressAppLogs: true,
		},
		Server: ServerConfig{HTTPPort: 5000},
	}
}

// loadConfig loads the example configuration from a YAML file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}

	// Basic validation
	if cfg.Logging.Name == "" {
		return nil, fmt.Errorf("missing required field in config: logging.name")
	}
	if cfg.Logging.Level == "" {
		return nil, fmt.Errorf("missing required field in config: logging.level")
	}
	if cfg.Server.HTTPPort == 0 {
		return nil, fmt.Errorf("missing required field in config: server.http_port")
	}

	return &cfg, nil
}
