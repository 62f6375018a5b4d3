// Package config loads the server configuration from a JSON file,
// applying defaults for anything left unset.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Serial  SerialConfig  `json:"serial"`
	Logging LoggingConfig `json:"logging"`
	Webhook WebhookConfig `json:"webhook"`
	MCP     MCPConfig     `json:"mcp"`
}

// ServerConfig holds the listen addresses.
type ServerConfig struct {
	WSAddr  string `json:"ws_addr"`
	TCPAddr string `json:"tcp_addr,omitempty"` // empty disables the TCP listener
}

// SerialConfig holds the balance line settings.
type SerialConfig struct {
	BaudRate   int    `json:"baud_rate"`
	DataBits   int    `json:"data_bits"`
	StopBits   int    `json:"stop_bits"`
	Parity     string `json:"parity"`
	DebounceMs int    `json:"debounce_ms"`
}

// LoggingConfig defines logging settings. When File is set, log output
// rotates at MaxSizeMB.
type LoggingConfig struct {
	Level      string `json:"level"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	Compress   bool   `json:"compress"`
}

// WebhookConfig defines the remote packet log.
type WebhookConfig struct {
	URL  string `json:"url,omitempty"`
	Name string `json:"name,omitempty"`
}

// MCPConfig gates the optional stdio MCP server.
type MCPConfig struct {
	Enabled bool `json:"enabled"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Server: ServerConfig{
			WSAddr: ":3333",
		},
		Serial: SerialConfig{
			BaudRate:   9600,
			DataBits:   8,
			StopBits:   1,
			Parity:     "none",
			DebounceMs: 800,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Webhook: WebhookConfig{
			Name: "balance-server",
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.WSAddr == "" && c.Server.TCPAddr == "" {
		return fmt.Errorf("at least one of server.ws_addr and server.tcp_addr must be set")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits must be 5-8, got %d", c.Serial.DataBits)
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		return fmt.Errorf("serial.stop_bits must be 1 or 2, got %d", c.Serial.StopBits)
	}
	switch c.Serial.Parity {
	case "none", "odd", "even", "mark", "space":
	default:
		return fmt.Errorf("serial.parity must be one of none/odd/even/mark/space, got %q", c.Serial.Parity)
	}
	if c.Serial.DebounceMs <= 0 {
		return fmt.Errorf("serial.debounce_ms must be positive, got %d", c.Serial.DebounceMs)
	}
	return nil
}

// Debounce returns the debounce interval as a duration.
func (c SerialConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// SlogLevel maps the configured level name to a slog level.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
