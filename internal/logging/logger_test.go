package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{" Info ", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]string{"text": FormatText, "TEXT": FormatText, "json": FormatJSON, "": FormatJSON, "xml": FormatJSON} {
		if got := ParseFormat(input); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != slog.LevelInfo || cfg.Format != FormatJSON {
		t.Errorf("Unexpected level/format %v/%s", cfg.Level, cfg.Format)
	}
	if cfg.FilePath != "" || cfg.MaxSize != 100 || cfg.MaxBackups != 5 || !cfg.Console {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, line string)
	}{
		{FormatJSON, func(t *testing.T, line string) {
			var rec map[string]any
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				t.Fatalf("Expected JSON record, got %q", line)
			}
			if rec["msg"] != "project created" || rec["project_id"] != "p-1" {
				t.Errorf("Unexpected record %v", rec)
			}
		}},
		{FormatText, func(t *testing.T, line string) {
			if !strings.Contains(line, `msg="project created"`) || !strings.Contains(line, "project_id=p-1") {
				t.Errorf("Unexpected text record %q", line)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			logFile := filepath.Join(t.TempDir(), "logs", "planner.log")
			logger, closer, err := NewLogger(Config{
				Level:      slog.LevelInfo,
				Format:     tt.format,
				FilePath:   logFile,
				MaxSize:    1,
				MaxBackups: 1,
			})
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}

			logger.Debug("filtered out")
			logger.Info("project created", "project_id", "p-1")
			if err := closer.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			data, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("Log file was not created: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) != 1 {
				t.Fatalf("Expected one record above the level, got %d", len(lines))
			}
			tt.check(t, lines[0])
		})
	}
}

func TestNewLoggerConsoleOnly(t *testing.T) {
	logger, closer, err := NewLogger(Config{Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger == nil || closer == nil {
		t.Fatal("NewLogger returned nil logger or closer")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Console closer should not fail: %v", err)
	}
}

func TestSetDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logFile := filepath.Join(t.TempDir(), "test.log")
	closer, err := SetDefault(Config{Level: slog.LevelDebug, FilePath: logFile, MaxSize: 10, MaxBackups: 3})
	if err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	defer closer.Close()

	slog.Debug("test message from default logger")
	if data, err := os.ReadFile(logFile); err != nil || !strings.Contains(string(data), "test message from default logger") {
		t.Errorf("Default logger did not write to file: %v", err)
	}
}
