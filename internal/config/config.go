// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Save backends.
const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config holds the application configuration.
type Config struct {
	DataDir      string  `env:"IDLE_ARENA_DATA_DIR"`
	SaveBackend  string  `env:"IDLE_ARENA_SAVE_BACKEND" envDefault:"yaml"`
	SaveDir      string  `env:"IDLE_ARENA_SAVE_DIR" envDefault:".saves"`
	SQLitePath   string  `env:"IDLE_ARENA_SQLITE_PATH" envDefault:".saves/idle-arena.db"`
	SaveSlot     string  `env:"IDLE_ARENA_SAVE_SLOT" envDefault:"current"`
	TickInterval float64 `env:"IDLE_ARENA_TICK_INTERVAL" envDefault:"0.1"`
	FPS          int     `env:"IDLE_ARENA_FPS" envDefault:"20"`
	Seed         uint64  `env:"IDLE_ARENA_SEED" envDefault:"0"`
	Hero         string  `env:"IDLE_ARENA_HERO" envDefault:"warrior"`
	Autostart    bool    `env:"IDLE_ARENA_AUTOSTART" envDefault:"false"`
	LogFile      string  `env:"IDLE_ARENA_LOG_FILE"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.SaveBackend = strings.ToLower(strings.TrimSpace(cfg.SaveBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the game cannot run with.
func (c *Config) Validate() error {
	switch c.SaveBackend {
	case BackendYAML, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("unknown save backend %q (want %s, %s or %s)", c.SaveBackend, BackendYAML, BackendSQLite, BackendNone)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("tick interval must not be negative, got %v", c.TickInterval)
	}
	if c.SaveBackend != BackendNone && strings.TrimSpace(c.SaveSlot) == "" {
		return fmt.Errorf("save slot is required")
	}
	return nil
}
