package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/keuin/daigunyun/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string // String representation of zapcore.Level
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"", "info"}, // empty defaults to info
		{"warn", "warn"},
		{"error", "error"},
		{"unknown", "info"}, // unknown defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level := parseLevel(tt.input)
			if level.String() != tt.expected {
				t.Errorf("parseLevel(%q) = %v, expected %v", tt.input, level.String(), tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.LoggingConfig
	}{
		{
			name: "json format info level",
			cfg: &config.LoggingConfig{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
		{
			name: "text format debug level",
			cfg: &config.LoggingConfig{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if log == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	log, err := New(&config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: logPath,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	log.Info("hello from test")
	log.Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain output")
	}
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	if log == nil {
		t.Fatal("expected non-nil default logger")
	}
}

func TestWithContext(t *testing.T) {
	log := NewDefault()

	relLog := log.WithRelation("users")
	if relLog == nil {
		t.Fatal("expected non-nil relation logger")
	}

	fieldLog := log.WithField("user_id")
	if fieldLog == nil {
		t.Fatal("expected non-nil field logger")
	}

	multiLog := log.WithFields(map[string]interface{}{
		"relation": "users",
		"round":    2,
	})
	if multiLog == nil {
		t.Fatal("expected non-nil multi-field logger")
	}
}
