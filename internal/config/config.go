// Package config loads the citysim tuning file and applies environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CITYSIM_CONFIG is unset.
const DefaultPath = "citysim.yaml"

// Config is the full runtime configuration.
type Config struct {
	LogLevel    string  `yaml:"log_level"`
	Seed        uint64  `yaml:"seed"`
	EventChance float64 `yaml:"event_chance"`

	HTTP  HTTP  `yaml:"http"`
	Store Store `yaml:"store"`
	Clock Clock `yaml:"clock"`
}

type HTTP struct {
	Addr               string `yaml:"addr"`
	AdminKey           string `yaml:"admin_key"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type Store struct {
	Dialect string `yaml:"dialect"` // sqlite | postgres
	DSN     string `yaml:"dsn"`
	SaveDir string `yaml:"save_dir"`
}

type Clock struct {
	YearInterval time.Duration `yaml:"year_interval"` // 0 disables auto-advance
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:    "info",
		EventChance: 0.3,
		HTTP: HTTP{
			Addr:               ":8080",
			RateLimitPerMinute: 60,
		},
		Store: Store{
			Dialect: "sqlite",
			DSN:     "data/citysim.db",
			SaveDir: "saves",
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv loads the file named by CITYSIM_CONFIG (or DefaultPath) and then
// applies the CITYSIM_* overrides.
func FromEnv() (Config, error) {
	path := os.Getenv("CITYSIM_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from CITYSIM_* variables that are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CITYSIM_DB_DIALECT"); v != "" {
		c.Store.Dialect = v
	}
	if v := os.Getenv("CITYSIM_DB_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("CITYSIM_ADMIN_KEY"); v != "" {
		c.HTTP.AdminKey = v
	}
	if v := os.Getenv("CITYSIM_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("CITYSIM_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = seed
		} else {
			slog.Warn("ignoring CITYSIM_SEED", "value", v, "error", err)
		}
	}
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	if c.EventChance < 0 || c.EventChance > 1 {
		return fmt.Errorf("event_chance %v out of [0, 1]", c.EventChance)
	}
	switch strings.ToLower(c.Store.Dialect) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("store.dialect %q: want sqlite or postgres", c.Store.Dialect)
	}
	if c.HTTP.RateLimitPerMinute < 0 {
		return fmt.Errorf("http.rate_limit_per_minute must not be negative")
	}
	if c.Clock.YearInterval < 0 {
		return fmt.Errorf("clock.year_interval must not be negative")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
