package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("cycle")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("wallpaper applied", "path", "/home/u/Pictures/a.png")

	out := buf.String()
	if !strings.Contains(out, `msg="wallpaper applied"`) {
		t.Fatalf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=cycle") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "path=/home/u/Pictures/a.png") {
		t.Fatalf("expected path field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("wallpaper")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "debug", &buf)

	L("source").Debug("mirrored", KeySource, "s3://bucket/walls")

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected JSON output, got: %s", out)
	}
	if !strings.Contains(out, `"source":"s3://bucket/walls"`) {
		t.Fatalf("expected source field, got: %s", out)
	}
}

func TestSetLevelKeepsOutput(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "error", &buf)
	logger := L("schedule")

	logger.Info("before")
	SetLevel("debug")
	logger.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") {
		t.Fatalf("info should be filtered at error level: %s", out)
	}
	if !strings.Contains(out, "after") {
		t.Fatalf("debug should pass after SetLevel: %s", out)
	}
}

func TestWithGroupFollowsInit(t *testing.T) {
	grouped := L("source").WithGroup("mirror").With("bucket", "walls")

	var buf bytes.Buffer
	Init("json", "info", &buf)
	grouped.Info("synced", "files", 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"source"`) || !strings.Contains(out, `"mirror":{"bucket":"walls","files":3}`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dw.log")
	rw, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer rw.Close()

	chunk := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected first backup: %v", err)
	}
	if _, err := os.Stat(path + ".2"); err != nil {
		t.Fatalf("expected second backup: %v", err)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Fatalf("backup beyond maxBackups should not exist, stat err = %v", err)
	}
}

func TestRotatingWriterReopensExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dw.log")
	if err := os.WriteFile(path, []byte("old\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	rw, err := NewRotatingWriter(path, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	rw.Write([]byte("new\n"))
	if err := rw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "old\nnew\n" {
		t.Fatalf("log = %q, want appended content", data)
	}
}
