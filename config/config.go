// Package config loads the bridge configuration from YAML with environment
// overrides. Every field has a default so an empty file is a valid config.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Gateway GatewayConfig `yaml:"gateway"`
	Metrics MetricsConfig `yaml:"metrics"`
	MCP     MCPConfig     `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
}

// DeviceConfig describes the upstream Q-SYS core session.
type DeviceConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Name              string `yaml:"name"`
	AutoReconnect     bool   `yaml:"auto_reconnect"`
	ReconnectDelay    int    `yaml:"reconnect_delay"`    // seconds
	HeartbeatInterval int    `yaml:"heartbeat_interval"` // seconds
	ResponseTimeout   int    `yaml:"response_timeout"`   // seconds
	PollRate          int    `yaml:"poll_rate"`          // seconds
}

// GatewayConfig describes the downstream WebSocket server.
type GatewayConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MCPConfig toggles the stdio MCP server.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Host:              "127.0.0.1",
			Port:              1710,
			Name:              "QSYS Core 110f",
			AutoReconnect:     true,
			ReconnectDelay:    5,
			HeartbeatInterval: 15,
			ResponseTimeout:   5,
			PollRate:          3,
		},
		Gateway: GatewayConfig{Addr: "127.0.0.1:8765"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		MCP:     MCPConfig{Enabled: false},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (when non-empty), layers it over the defaults, then applies
// QRCBRIDGE_* environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("QRCBRIDGE_DEVICE_HOST"); v != "" {
		c.Device.Host = v
	}
	if v := os.Getenv("QRCBRIDGE_DEVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Device.Port = port
		}
	}
	if v := os.Getenv("QRCBRIDGE_GATEWAY_ADDR"); v != "" {
		c.Gateway.Addr = v
	}
	if v := os.Getenv("QRCBRIDGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the bridge cannot run with.
func (c *Config) Validate() error {
	if c.Device.Host == "" {
		return fmt.Errorf("device.host must not be empty")
	}
	if c.Device.Port <= 0 || c.Device.Port > 65535 {
		return fmt.Errorf("device.port %d out of range", c.Device.Port)
	}
	if c.Device.ReconnectDelay <= 0 {
		return fmt.Errorf("device.reconnect_delay must be positive")
	}
	if c.Device.HeartbeatInterval <= 0 {
		return fmt.Errorf("device.heartbeat_interval must be positive")
	}
	if c.Device.PollRate <= 0 {
		return fmt.Errorf("device.poll_rate must be positive")
	}
	if c.Gateway.Addr == "" {
		return fmt.Errorf("gateway.addr must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not recognized", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q not recognized", c.Logging.Format)
	}
	return nil
}

// ReconnectDelayDuration returns the reconnect delay as a time.Duration.
func (d DeviceConfig) ReconnectDelayDuration() time.Duration {
	return time.Duration(d.ReconnectDelay) * time.Second
}

// HeartbeatIntervalDuration returns the heartbeat interval as a time.Duration.
func (d DeviceConfig) HeartbeatIntervalDuration() time.Duration {
	return time.Duration(d.HeartbeatInterval) * time.Second
}

// ResponseTimeoutDuration returns the correlated-exchange timeout.
func (d DeviceConfig) ResponseTimeoutDuration() time.Duration {
	return time.Duration(d.ResponseTimeout) * time.Second
}
