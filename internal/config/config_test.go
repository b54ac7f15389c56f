package config_test

import (
	"testing"

	"github.com/bcnelson/household-calendar/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if got := cfg.Server.Addr(); got != "0.0.0.0:3000" {
		t.Errorf("Addr = %s, want 0.0.0.0:3000", got)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.DSN != "data/calendar.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Calendar.MaxMembers != 5 {
		t.Errorf("MaxMembers = %d, want 5", cfg.Calendar.MaxMembers)
	}
	if cfg.Snapshot.Enabled() {
		t.Error("snapshots enabled without SNAPSHOT_PATH")
	}
	if cfg.Live.SendBuffer != 16 {
		t.Errorf("SendBuffer = %d, want 16", cfg.Live.SendBuffer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error = %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("MAX_MEMBERS", "8")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("SNAPSHOT_PATH", "/tmp/state.yaml")
	t.Setenv("SNAPSHOT_CRON", "*/10 * * * *")
	t.Setenv("SNAPSHOT_RESTORE", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Server.Port != 8081 || cfg.Database.Driver != "memory" || cfg.Calendar.MaxMembers != 8 {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Snapshot.Enabled() || !cfg.Snapshot.Restore || cfg.Snapshot.Schedule != "*/10 * * * *" {
		t.Errorf("Snapshot = %+v", cfg.Snapshot)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate error = %v", err)
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("SERVER_PORT", "http")
	if _, err := config.Load(); err == nil {
		t.Error("expected error for non-numeric SERVER_PORT")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server:   config.ServerConfig{Host: "127.0.0.1", Port: 3000},
			Database: config.DatabaseConfig{Driver: "sqlite3", DSN: "data/calendar.db"},
			Calendar: config.CalendarConfig{MaxMembers: 5},
			Log:      config.LogConfig{Level: "info", Format: "json"},
			Snapshot: config.SnapshotConfig{Schedule: "@every 5m"},
			Live:     config.LiveConfig{SendBuffer: 16},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"valid", func(c *config.Config) {}, false},
		{"memory driver needs no dsn", func(c *config.Config) { c.Database = config.DatabaseConfig{Driver: "memory"} }, false},
		{"unknown driver", func(c *config.Config) { c.Database.Driver = "mysql" }, true},
		{"missing dsn", func(c *config.Config) { c.Database.DSN = "" }, true},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, true},
		{"zero members", func(c *config.Config) { c.Calendar.MaxMembers = 0 }, true},
		{"bad log format", func(c *config.Config) { c.Log.Format = "xml" }, true},
		{"bad cron", func(c *config.Config) {
			c.Snapshot.Path = "state.json"
			c.Snapshot.Schedule = "every now and then"
		}, true},
		{"restore without path", func(c *config.Config) { c.Snapshot.Restore = true }, true},
		{"zero send buffer", func(c *config.Config) { c.Live.SendBuffer = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
