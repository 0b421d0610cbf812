package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the medianet settings. Flags override what the file sets.
type Config struct {
	// Address the echo server listens on. Empty means every local address.
	Address string        `yaml:"address"`
	UDPPort uint16        `yaml:"udp_port"`
	TCPPort uint16        `yaml:"tcp_port"`
	Timeout time.Duration `yaml:"timeout"`

	// PollInterval bounds how long the server waits before rechecking for shutdown.
	PollInterval time.Duration `yaml:"poll_interval"`

	LogLevel   string   `yaml:"log_level"`
	DNSServers []string `yaml:"dns_servers"`
}

func defaultConfig() *Config {
	return &Config{
		UDPPort:      5400,
		TCPPort:      5401,
		Timeout:      5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		LogLevel:     "info",
	}
}

// LoadConfig reads the configuration from the YAML file at path.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "failed to read config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll_interval must be positive")
	}
	return cfg, nil
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Wrap(err, "invalid log_level")
	}
	return level, nil
}
