package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	path := "/var/log/client.log"

	cfg := DefaultConfig(path)

	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d, want 3", cfg.MaxBackups)
	}
	if !cfg.Compress {
		t.Error("Compress = false, want true")
	}
}

func TestNewRotatingWriter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "client.log")
	writer := NewRotatingWriter(Config{Path: logPath, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})

	if _, err := writer.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("log content = %q, want %q", data, "hello\n")
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("launch issued but bridge unresponsive", "attempts", 3)

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Errorf("info record should be filtered: %q", output)
	}
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "attempts=3") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) = nil")
	}
	l := slog.Default()
	if OrDiscard(l) != l {
		t.Error("OrDiscard(l) should return l")
	}
}
