package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("profile fetched", slog.String("collection", "users"), slog.String("owner", "u-1"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}
	if entry["msg"] != "profile fetched" {
		t.Errorf("msg = %q", entry["msg"])
	}
	if entry["collection"] != "users" || entry["owner"] != "u-1" {
		t.Errorf("attributes missing: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field")
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %s", buf.String())
	}

	l.Warn("kept")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %q, want WARN", entry["level"])
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupDefault(&buf, slog.LevelInfo)
	slog.Info("global")

	if !strings.Contains(buf.String(), `"msg":"global"`) {
		t.Errorf("default logger not replaced: %s", buf.String())
	}
}

func TestOpenFile_AppendsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ontask.log")

	l, closer, err := OpenFile(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	l.Info("first")
	closer.Close()

	l, closer, err = OpenFile(path, slog.LevelInfo)
	if err != nil {
		t.Fatalf("OpenFile again: %v", err)
	}
	l.Info("second")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %s", len(lines), data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
