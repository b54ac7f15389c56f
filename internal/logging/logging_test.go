package logging_test

import (
	"testing"

	"github.com/bcnelson/household-calendar/internal/config"
	"github.com/bcnelson/household-calendar/internal/logging"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		level   zapcore.Level
		wantErr bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, zapcore.InfoLevel, false},
		{"console debug", config.LogConfig{Level: "DEBUG", Format: "console"}, zapcore.DebugLevel, false},
		{"warn", config.LogConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel, false},
		{"unknown level", config.LogConfig{Level: "chatty", Format: "json"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := logging.New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !logger.Core().Enabled(tt.level) {
				t.Errorf("level %s not enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && logger.Core().Enabled(tt.level-1) {
				t.Errorf("level below %s enabled", tt.level)
			}
		})
	}
}
