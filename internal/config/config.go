package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v9"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Calendar CalendarConfig
	Log      LogConfig
	Snapshot SnapshotConfig
	Live     LiveConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"3000"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"` // sqlite3, postgres or memory
	DSN    string `env:"DB_DSN" envDefault:"data/calendar.db"`
}

// CalendarConfig holds calendar rules.
type CalendarConfig struct {
	MaxMembers int `env:"MAX_MEMBERS" envDefault:"5"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or console
}

// SnapshotConfig holds state snapshot configuration. An empty Path disables snapshots.
type SnapshotConfig struct {
	Path     string `env:"SNAPSHOT_PATH"`
	Schedule string `env:"SNAPSHOT_CRON" envDefault:"@every 5m"`
	Restore  bool   `env:"SNAPSHOT_RESTORE" envDefault:"false"`
}

// Enabled reports whether snapshots are configured.
func (c *SnapshotConfig) Enabled() bool {
	return c.Path != ""
}

// LiveConfig holds WebSocket sync configuration.
type LiveConfig struct {
	SendBuffer int `env:"LIVE_SEND_BUFFER" envDefault:"16"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Calendar); err != nil {
		return nil, fmt.Errorf("parsing calendar config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}
	if err := env.Parse(&cfg.Snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot config: %w", err)
	}
	if err := env.Parse(&cfg.Live); err != nil {
		return nil, fmt.Errorf("parsing live config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be one of sqlite3, postgres, memory")
	}

	if c.Calendar.MaxMembers < 1 {
		return fmt.Errorf("MAX_MEMBERS must be at least 1")
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	if c.Snapshot.Enabled() {
		if _, err := cron.ParseStandard(c.Snapshot.Schedule); err != nil {
			return fmt.Errorf("SNAPSHOT_CRON is invalid: %w", err)
		}
	} else if c.Snapshot.Restore {
		return fmt.Errorf("SNAPSHOT_RESTORE requires SNAPSHOT_PATH")
	}

	if c.Live.SendBuffer < 1 {
		return fmt.Errorf("LIVE_SEND_BUFFER must be at least 1")
	}

	return nil
}
