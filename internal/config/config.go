// Package config provides application configuration management for
// thinkt-live.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment overrides applied by Load.
const (
	EnvURL   = "THINKT_LIVE_URL"
	EnvToken = "THINKT_LIVE_TOKEN"
	EnvHome  = "THINKT_LIVE_HOME"
)

// Config holds the thinkt-live configuration.
type Config struct {
	Theme     string          `json:"theme" toml:"theme"`                 // "dark" or "light"
	Language  string          `json:"language,omitempty" toml:"language"` // e.g. "en", "zh-Hans"
	Server    ServerConfig    `json:"server" toml:"server"`               // Collector the viewer connects to
	Viewer    ViewerConfig    `json:"viewer" toml:"viewer"`               // Engine tuning
	Collector CollectorConfig `json:"collector" toml:"collector"`         // `serve` settings
	Log       LogConfig       `json:"log" toml:"log"`
}

// ServerConfig locates the collector.
type ServerConfig struct {
	URL   string `json:"url" toml:"url"` // e.g. http://localhost:8786
	Token string `json:"token,omitempty" toml:"token"`
}

// ViewerConfig tunes the live engine.
type ViewerConfig struct {
	Capacity          int    `json:"capacity" toml:"capacity"`                     // Cached session views
	BufferSize        int    `json:"buffer_size" toml:"buffer_size"`               // Events queued per hidden session
	BatchWindow       string `json:"batch_window" toml:"batch_window"`             // e.g. "16ms"
	DirectoryDebounce string `json:"directory_debounce" toml:"directory_debounce"` // e.g. "250ms"
}

// CollectorConfig configures `thinkt-live serve`.
type CollectorConfig struct {
	Host   string `json:"host" toml:"host"`
	Port   int    `json:"port" toml:"port"`
	Store  string `json:"store" toml:"store"` // "duckdb" or "memory"
	DBPath string `json:"db_path,omitempty" toml:"db_path"`
	Token  string `json:"token,omitempty" toml:"token"`
}

// LogConfig configures the debug log file. An empty path disables logging.
type LogConfig struct {
	Path  string `json:"path,omitempty" toml:"path"`
	Level string `json:"level,omitempty" toml:"level"`
}

// BatchWindowDuration returns the parsed batch window (default: 16ms).
func (c ViewerConfig) BatchWindowDuration() time.Duration {
	return parseDuration(c.BatchWindow, 16*time.Millisecond)
}

// DirectoryDebounceDuration returns the parsed directory debounce
// (default: 250ms).
func (c ViewerConfig) DirectoryDebounceDuration() time.Duration {
	return parseDuration(c.DirectoryDebounce, 250*time.Millisecond)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return def
}

// Addr returns the collector listen address.
func (c CollectorConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Dir returns the path to the .thinkt-live directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".thinkt-live"), nil
}

// Path returns the path to the main config file.
func Path() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// Load reads config.json, or config.toml when there is no JSON file, from
// the config directory, then applies environment overrides. A missing file
// yields the defaults.
func Load() (Config, error) {
	configPath, err := Path()
	if err != nil {
		return Config{}, err
	}

	// Start from defaults so missing keys get correct values.
	cfg := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		tomlPath := filepath.Join(filepath.Dir(configPath), "config.toml")
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", tomlPath, err)
			}
		}
	default:
		return Config{}, err
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Server.Token = v
	}
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	if c.Server.URL == "" {
		c.Server.URL = def.Server.URL
	}
	if c.Viewer.Capacity < 1 {
		c.Viewer.Capacity = def.Viewer.Capacity
	}
	if c.Viewer.BufferSize < 1 {
		c.Viewer.BufferSize = def.Viewer.BufferSize
	}
	if c.Collector.Host == "" {
		c.Collector.Host = def.Collector.Host
	}
	if c.Collector.Port == 0 {
		c.Collector.Port = def.Collector.Port
	}
	if c.Collector.Store == "" {
		c.Collector.Store = def.Collector.Store
	}
}

// Default returns a default configuration with all defaults set.
func Default() Config {
	return Config{
		Theme:  "dark",
		Server: ServerConfig{URL: "http://localhost:8786"},
		Viewer: ViewerConfig{
			Capacity:          4,
			BufferSize:        200,
			BatchWindow:       "16ms",
			DirectoryDebounce: "250ms",
		},
		Collector: CollectorConfig{
			Host:  "localhost",
			Port:  8786,
			Store: "duckdb",
		},
	}
}

// Save saves the configuration to config.json.
func Save(config Config) error {
	configPath, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}
