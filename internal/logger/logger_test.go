package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerWithWriter("warn", &buf)
	l.Info("hidden")
	l.Warn("shown", "part", "/b/1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message should be filtered at warn level: %s", out)
	}

	if !strings.Contains(out, "shown") || !strings.Contains(out, "part=/b/1") {
		t.Errorf("Expected warn message with attribute, got: %s", out)
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerWithWriter("error", &buf)
	l.SetLevel("debug")
	l.Debug("now visible")

	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("Expected debug output after SetLevel, got: %s", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	l := NewLoggerWithWriter("info", &buf).With("run", "abc")
	l.Info("hello")

	if !strings.Contains(buf.String(), "run=abc") {
		t.Errorf("Expected child attribute, got: %s", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")

	l, err := NewFileLogger("info", path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	l.Info("written to file")

	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Expected message in log file, got: %s", data)
	}
}

func TestNewFileLogger_EmptyPath(t *testing.T) {
	l, err := NewFileLogger("info", "")
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Errorf("Close on stderr logger should be a no-op, got %v", err)
	}
}
