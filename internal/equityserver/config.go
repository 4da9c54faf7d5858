package equityserver

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the equity server configuration, loaded from an HCL file.
// A config file carries a server block and a stream block; values left
// unset inside them take defaults.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Stream StreamSettings `hcl:"stream,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// StreamSettings tunes the live equity calculations served to clients.
type StreamSettings struct {
	InnerTrials    int    `hcl:"inner_trials,optional"`
	UpdateEvery    int    `hcl:"update_every,optional"`
	UpdateInterval string `hcl:"update_interval,optional"`
	MaxIterations  uint64 `hcl:"max_iterations,optional"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8089,
			LogLevel: "info",
		},
		Stream: StreamSettings{
			InnerTrials:    100,
			UpdateEvery:    500,
			UpdateInterval: "250ms",
			MaxIterations:  200000,
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Stream.InnerTrials == 0 {
		config.Stream.InnerTrials = defaults.Stream.InnerTrials
	}
	if config.Stream.UpdateEvery == 0 {
		config.Stream.UpdateEvery = defaults.Stream.UpdateEvery
	}
	if config.Stream.UpdateInterval == "" {
		config.Stream.UpdateInterval = defaults.Stream.UpdateInterval
	}
	if config.Stream.MaxIterations == 0 {
		config.Stream.MaxIterations = defaults.Stream.MaxIterations
	}

	if _, err := config.UpdateIntervalDuration(); err != nil {
		return nil, err
	}

	return &config, nil
}

// UpdateIntervalDuration parses the update_interval setting.
func (c *Config) UpdateIntervalDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Stream.UpdateInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid update_interval %q: %w", c.Stream.UpdateInterval, err)
	}
	return d, nil
}

// ListenAddr returns the address:port pair to bind.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
