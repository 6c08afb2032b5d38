package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the ava configuration.
type Config struct {
	Assistant AssistantConfig `yaml:"assistant"`
	Client    ClientConfig    `yaml:"client"`
	Picker    PickerConfig    `yaml:"picker"`
}

// AssistantConfig holds settings for the voice command loop.
type AssistantConfig struct {
	WakePhrase         string `yaml:"wake_phrase"`           // Phrase that opens a command window
	CommandWindowSecs  int    `yaml:"command_window_secs"`   // Seconds before an idle command window expires
	SelectionPageSize  int    `yaml:"selection_page_size"`   // Items per spoken page in the voice fallback
	HistoryEnabled     bool   `yaml:"history_enabled"`       // Record resolved selections
	HistoryMaxListRows int    `yaml:"history_max_list_rows"` // Rows shown by `ava history`
}

// ClientConfig holds settings for the selection client.
type ClientConfig struct {
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"` // Reachability probe timeout
	SendTimeoutSecs  int    `yaml:"send_timeout_secs"`  // End-to-end wait for a human decision
	SocketPath       string `yaml:"socket_path"`        // Endpoint override (empty = per-user default)
}

// PickerConfig holds settings for the picker process.
type PickerConfig struct {
	DisplayWaitSecs int    `yaml:"display_wait_secs"` // Max wait for the UI to start rendering a request
	LogLevel        string `yaml:"log_level"`         // debug, info, warn, error
	SocketPath      string `yaml:"socket_path"`       // Endpoint override (empty = per-user default)
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Assistant: AssistantConfig{
			WakePhrase:         "hey ava",
			CommandWindowSecs:  20,
			SelectionPageSize:  5,
			HistoryEnabled:     true,
			HistoryMaxListRows: 20,
		},
		Client: ClientConfig{
			ConnectTimeoutMs: 500,
			SendTimeoutSecs:  180,
		},
		Picker: PickerConfig{
			DisplayWaitSecs: 5,
			LogLevel:        "info",
		},
	}
}

// Load reads the configuration from the default path. A missing file is
// not an error; defaults are returned.
func Load() (*Config, error) {
	return LoadFrom(DefaultPaths().ConfigFile())
}

// LoadFrom reads the configuration from the given path, filling unset
// fields with defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize clamps nonsensical values back to defaults.
func (c *Config) normalize() {
	d := Default()
	if c.Assistant.WakePhrase == "" {
		c.Assistant.WakePhrase = d.Assistant.WakePhrase
	}
	if c.Assistant.CommandWindowSecs <= 0 {
		c.Assistant.CommandWindowSecs = d.Assistant.CommandWindowSecs
	}
	if c.Assistant.SelectionPageSize <= 0 {
		c.Assistant.SelectionPageSize = d.Assistant.SelectionPageSize
	}
	if c.Assistant.HistoryMaxListRows <= 0 {
		c.Assistant.HistoryMaxListRows = d.Assistant.HistoryMaxListRows
	}
	if c.Client.ConnectTimeoutMs <= 0 {
		c.Client.ConnectTimeoutMs = d.Client.ConnectTimeoutMs
	}
	if c.Client.SendTimeoutSecs <= 0 {
		c.Client.SendTimeoutSecs = d.Client.SendTimeoutSecs
	}
	if c.Picker.DisplayWaitSecs <= 0 {
		c.Picker.DisplayWaitSecs = d.Picker.DisplayWaitSecs
	}
	if c.Picker.LogLevel == "" {
		c.Picker.LogLevel = d.Picker.LogLevel
	}
}

// CommandWindow returns the command-window expiry as a duration.
func (c *Config) CommandWindow() time.Duration {
	return time.Duration(c.Assistant.CommandWindowSecs) * time.Second
}

// ConnectTimeout returns the client probe timeout as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Client.ConnectTimeoutMs) * time.Millisecond
}

// SendTimeout returns the end-to-end client wait as a duration.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Client.SendTimeoutSecs) * time.Second
}

// DisplayWait returns the picker display-acknowledgment bound as a
// duration.
func (c *Config) DisplayWait() time.Duration {
	return time.Duration(c.Picker.DisplayWaitSecs) * time.Second
}
