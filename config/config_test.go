package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.WSAddr != ":3333" {
		t.Errorf("Expected default ws addr :3333, got %s", cfg.Server.WSAddr)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("Expected default baud rate 9600, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Serial.DataBits != 8 || cfg.Serial.StopBits != 1 || cfg.Serial.Parity != "none" {
		t.Errorf("Unexpected default line settings: %+v", cfg.Serial)
	}
	if cfg.Serial.Debounce() != 800*time.Millisecond {
		t.Errorf("Expected default debounce 800ms, got %s", cfg.Serial.Debounce())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"server": {"ws_addr": ":8080", "tcp_addr": ":8081"},
		"serial": {"baud_rate": 19200, "data_bits": 7, "stop_bits": 2, "parity": "even", "debounce_ms": 250},
		"logging": {"level": "debug"},
		"webhook": {"url": "https://hooks.example.com/abc", "name": "lab-balance"},
		"mcp": {"enabled": true}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.WSAddr != ":8080" || cfg.Server.TCPAddr != ":8081" {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if cfg.Serial.BaudRate != 19200 || cfg.Serial.Parity != "even" {
		t.Errorf("Unexpected serial config: %+v", cfg.Serial)
	}
	if cfg.Serial.Debounce() != 250*time.Millisecond {
		t.Errorf("Expected debounce 250ms, got %s", cfg.Serial.Debounce())
	}
	if cfg.Webhook.URL != "https://hooks.example.com/abc" {
		t.Errorf("Unexpected webhook url: %s", cfg.Webhook.URL)
	}
	if !cfg.MCP.Enabled {
		t.Error("Expected mcp enabled")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"server": {"ws_addr": ":9999"}}`), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Server.WSAddr != ":9999" {
		t.Errorf("Expected overridden ws addr, got %s", cfg.Server.WSAddr)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("Expected default baud rate preserved, got %d", cfg.Serial.BaudRate)
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("Expected an error for malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"no listen address", func(c *Config) { c.Server.WSAddr = "" }, true},
		{"tcp only is fine", func(c *Config) { c.Server.WSAddr = ""; c.Server.TCPAddr = ":4444" }, false},
		{"zero baud rate", func(c *Config) { c.Serial.BaudRate = 0 }, true},
		{"data bits too small", func(c *Config) { c.Serial.DataBits = 4 }, true},
		{"bad stop bits", func(c *Config) { c.Serial.StopBits = 3 }, true},
		{"bad parity", func(c *Config) { c.Serial.Parity = "sometimes" }, true},
		{"zero debounce", func(c *Config) { c.Serial.DebounceMs = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"whatever", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := LoggingConfig{Level: tt.level}.SlogLevel()
		if got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
