// internal/utils/logger_test.go
package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, sync, err := NewLogger(LogConfig{Level: DebugLevel, File: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debugf("Waiting for element by %s", "id")
	logger.Info("Opening the login page.")
	if err := sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, " - DEBUG - Waiting for element by id") {
		t.Errorf("expected debug line in log file, got: %s", content)
	}
	if !strings.Contains(content, " - INFO - Opening the login page.") {
		t.Errorf("expected info line in log file, got: %s", content)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, sync, err := NewLogger(LogConfig{Level: WarnLevel, File: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn line should be written")
	}
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromZap(zap.New(core))

	logger.WithField("step", "login").WithFields(map[string]interface{}{"cycle": 3}).Info("clicked")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["step"] != "login" {
		t.Errorf("expected step=login, got %v", fields["step"])
	}
	if fields["cycle"] != int64(3) {
		t.Errorf("expected cycle=3, got %v (%T)", fields["cycle"], fields["cycle"])
	}
}

func TestNewLogger_NoSinks(t *testing.T) {
	logger, sync, err := NewLogger(LogConfig{})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Error("discarded")
	if err := sync(); err != nil {
		t.Errorf("sync should be a no-op, got %v", err)
	}
}
