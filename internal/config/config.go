// Package config loads the chore configuration from $CHORE_HOME/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Info write modes.
const (
	InfoModeAppend  = "append"
	InfoModeReplace = "replace"
)

// MaxNodeID is the largest node id that fits the identifier layout.
const MaxNodeID = 1023

// Config is the flat chore configuration.
type Config struct {
	HomeDir string `yaml:"-"`

	DataPath         string `yaml:"data_path"`                // active log; the completed log sits beside it
	CompletedPath    string `yaml:"completed_path,omitempty"` // overrides the derived completed log path
	EventsDB         string `yaml:"events_db"`
	NodeID           int    `yaml:"node_id"`
	LogLevel         string `yaml:"log_level"`
	LogFile          string `yaml:"log_file"`
	Colors           bool   `yaml:"colors"`
	ConfirmDelete    bool   `yaml:"confirm_delete"`
	InfoMode         string `yaml:"info_mode"`         // append or replace
	ValidateSchedule string `yaml:"validate_schedule"` // 5-field cron spec
}

// HomeDir returns the chore home directory: $CHORE_HOME, else ~/.chore.
func HomeDir() string {
	if override := os.Getenv("CHORE_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".chore")
}

// ConfigPath returns the config file path inside homeDir.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}

func defaultConfig(homeDir string) Config {
	return Config{
		HomeDir:          homeDir,
		DataPath:         "chores.jsonl",
		EventsDB:         "events.db",
		NodeID:           1,
		LogLevel:         "info",
		LogFile:          filepath.Join("logs", "chore.jsonl"),
		Colors:           true,
		ConfirmDelete:    true,
		InfoMode:         InfoModeAppend,
		ValidateSchedule: "*/15 * * * *",
	}
}

// Load reads the configuration from HomeDir().
func Load() (*Config, error) {
	return LoadConfig(HomeDir())
}

// LoadConfig reads config.yaml from homeDir. A missing file yields the
// defaults. Environment overrides are applied after the file, then relative
// paths are resolved against homeDir.
func LoadConfig(homeDir string) (*Config, error) {
	return load(homeDir, true)
}

// LoadFile reads config.yaml from homeDir without environment overrides,
// for callers that write the file back.
func LoadFile(homeDir string) (*Config, error) {
	return load(homeDir, false)
}

func load(homeDir string, withEnv bool) (*Config, error) {
	cfg := defaultConfig(homeDir)

	data, err := os.ReadFile(ConfigPath(homeDir))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if withEnv {
		if err := applyEnvOverrides(&cfg); err != nil {
			return nil, err
		}
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg to config.yaml in cfg.HomeDir.
func SaveConfig(cfg *Config) error {
	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create chore home: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(cfg.HomeDir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.DataPath == "" {
		return fmt.Errorf("data_path must not be empty")
	}
	if c.CompletedPath != "" && filepath.Clean(c.CompletedPath) == filepath.Clean(c.DataPath) {
		return fmt.Errorf("completed_path must differ from data_path")
	}
	if c.NodeID < 0 || c.NodeID > MaxNodeID {
		return fmt.Errorf("node_id %d out of range 0-%d", c.NodeID, MaxNodeID)
	}
	if c.InfoMode != InfoModeAppend && c.InfoMode != InfoModeReplace {
		return fmt.Errorf("info_mode must be %q or %q, got %q", InfoModeAppend, InfoModeReplace, c.InfoMode)
	}
	return nil
}

// ReplaceInfo reports whether info writes overwrite instead of append.
func (c *Config) ReplaceInfo() bool {
	return c.InfoMode == InfoModeReplace
}

// setters maps each config key to a parser that applies a string value.
var setters = map[string]func(c *Config, v string) error{
	"data_path":      func(c *Config, v string) error { c.DataPath = v; return nil },
	"completed_path": func(c *Config, v string) error { c.CompletedPath = v; return nil },
	"events_db":      func(c *Config, v string) error { c.EventsDB = v; return nil },
	"node_id": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("node_id: %w", err)
		}
		c.NodeID = n
		return nil
	},
	"log_level": func(c *Config, v string) error { c.LogLevel = v; return nil },
	"log_file":  func(c *Config, v string) error { c.LogFile = v; return nil },
	"colors": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("colors: %w", err)
		}
		c.Colors = b
		return nil
	},
	"confirm_delete": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("confirm_delete: %w", err)
		}
		c.ConfirmDelete = b
		return nil
	},
	"info_mode":         func(c *Config, v string) error { c.InfoMode = strings.ToLower(v); return nil },
	"validate_schedule": func(c *Config, v string) error { c.ValidateSchedule = v; return nil },
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into the named key and re-validates the config.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := set(c, value); err != nil {
		return err
	}
	normalize(c)
	return c.Validate()
}

// Get returns the named key formatted as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "data_path":
		return c.DataPath, nil
	case "completed_path":
		return c.CompletedPath, nil
	case "events_db":
		return c.EventsDB, nil
	case "node_id":
		return strconv.Itoa(c.NodeID), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	case "colors":
		return strconv.FormatBool(c.Colors), nil
	case "confirm_delete":
		return strconv.FormatBool(c.ConfirmDelete), nil
	case "info_mode":
		return c.InfoMode, nil
	case "validate_schedule":
		return c.ValidateSchedule, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

func applyEnvOverrides(cfg *Config) error {
	for _, key := range Keys() {
		env := "CHORE_" + strings.ToUpper(key)
		raw, ok := os.LookupEnv(env)
		if !ok || raw == "" {
			continue
		}
		if err := setters[key](cfg, raw); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	// NO_COLOR (https://no-color.org) wins over everything else.
	if os.Getenv("NO_COLOR") != "" {
		cfg.Colors = false
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.InfoMode = strings.ToLower(strings.TrimSpace(cfg.InfoMode))
	if cfg.InfoMode == "" {
		cfg.InfoMode = InfoModeAppend
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.ValidateSchedule = strings.TrimSpace(cfg.ValidateSchedule)
	cfg.DataPath = resolve(cfg.HomeDir, cfg.DataPath)
	cfg.CompletedPath = resolve(cfg.HomeDir, cfg.CompletedPath)
	cfg.EventsDB = resolve(cfg.HomeDir, cfg.EventsDB)
	cfg.LogFile = resolve(cfg.HomeDir, cfg.LogFile)
}

// resolve expands a leading ~ and anchors relative paths at homeDir.
func resolve(homeDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == ":memory:" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(homeDir, p)
	}
	return filepath.Clean(p)
}
