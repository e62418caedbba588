package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestNewRotatingFileWriter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(logFile, []byte("existing\n"), 0o600); err != nil {
		t.Fatalf("Failed to seed log file: %v", err)
	}

	writer, err := NewRotatingFileWriter(logFile, 1024, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	if writer.size != int64(len("existing\n")) {
		t.Errorf("Expected size of the existing file, got %d", writer.size)
	}
	if _, err := NewRotatingFileWriter(logFile, 0, 3); err == nil {
		t.Error("Expected error for zero max size")
	}
}

func TestRotatingFileWriter_Write(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewRotatingFileWriter(logFile, 100, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}

	data := []byte("This is a test log message\n")
	n, err := writer.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Write returned %d, want %d", n, len(data))
	}
	if got := readFile(t, logFile); got != string(data) {
		t.Errorf("File content = %q, want %q", got, data)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := writer.Write(data); err == nil {
		t.Error("Expected error writing after Close")
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestRotatingFileWriter_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := NewRotatingFileWriter(logFile, 50, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	first := strings.Repeat("A", 30) + "\n"
	second := strings.Repeat("B", 30) + "\n"
	for _, msg := range []string{first, second} {
		if _, err := writer.Write([]byte(msg)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if got := readFile(t, logFile); got != second {
		t.Errorf("Current log content = %q, want %q", got, second)
	}
	if got := readFile(t, filepath.Join(tmpDir, "test.1.log")); got != first {
		t.Errorf("Backup content = %q, want %q", got, first)
	}
}

func TestRotatingFileWriter_OversizedRecord(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewRotatingFileWriter(logFile, 10, 1)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	big := strings.Repeat("Z", 25)
	if _, err := writer.Write([]byte(big)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := readFile(t, logFile); got != big {
		t.Errorf("Oversized record should be written whole into the empty file, got %q", got)
	}
}

func TestRotatingFileWriter_MaxBackups(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := NewRotatingFileWriter(logFile, 20, 2)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	// Every message exceeds the limit on its own, so each write rotates
	for i := 0; i < 5; i++ {
		msg := fmt.Sprintf("Message %d: %s\n", i, strings.Repeat("X", 15))
		if _, err := writer.Write([]byte(msg)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("Expected current file plus 2 backups, got %d files", len(files))
	}
	if got := readFile(t, logFile); !strings.HasPrefix(got, "Message 4") {
		t.Errorf("Current file should hold the newest message, got %q", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "test.1.log")); !strings.HasPrefix(got, "Message 3") {
		t.Errorf("test.1.log should hold message 3, got %q", got)
	}
	if got := readFile(t, filepath.Join(tmpDir, "test.2.log")); !strings.HasPrefix(got, "Message 2") {
		t.Errorf("test.2.log should hold message 2, got %q", got)
	}
}

func TestRotatingFileWriter_NoBackups(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := NewRotatingFileWriter(logFile, 10, 0)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	for _, msg := range []string{"first line\n", "second line\n"} {
		if _, err := writer.Write([]byte(msg)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	files, _ := os.ReadDir(tmpDir)
	if len(files) != 1 {
		t.Errorf("Expected no backups, got %d files", len(files))
	}
	if got := readFile(t, logFile); got != "second line\n" {
		t.Errorf("Unexpected content %q", got)
	}
}

func TestRotatingFileWriter_BackupName(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewRotatingFileWriter(filepath.Join(tmpDir, "app.log"), 1024, 3)
	if err != nil {
		t.Fatalf("NewRotatingFileWriter failed: %v", err)
	}
	defer writer.Close()

	if got := writer.backupName(2); got != filepath.Join(tmpDir, "app.2.log") {
		t.Errorf("Unexpected backup name %q", got)
	}
}
