package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, got, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo},
	}

	for _, test := range tests {
		if got := test.level.SlogLevel(); got != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, got, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer
	InitForCLI(LevelInfo, &buf)

	if IsServerMode() {
		t.Fatal("expected CLI mode after InitForCLI")
	}

	Info("test-subsystem", "test message %d", 42)
	Debug("test-subsystem", "hidden debug message")

	output := buf.String()
	if !strings.Contains(output, "test message 42") {
		t.Errorf("expected message in output, got %q", output)
	}
	if !strings.Contains(output, "subsystem=test-subsystem") {
		t.Errorf("expected subsystem attribute in output, got %q", output)
	}
	if strings.Contains(output, "hidden debug message") {
		t.Error("debug message should be filtered at INFO level")
	}
}

func TestInitForServer_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitForServer(LevelDebug, &buf)
	defer InitForCLI(LevelInfo, &bytes.Buffer{})

	if !IsServerMode() {
		t.Fatal("expected server mode after InitForServer")
	}

	Error("Supervisor", errors.New("boom"), "failed to stop %s", "fs")

	var record map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["subsystem"] != "Supervisor" {
		t.Errorf("unexpected subsystem: %v", record["subsystem"])
	}
	if record["error"] != "boom" {
		t.Errorf("unexpected error attribute: %v", record["error"])
	}
	if record["msg"] != "failed to stop fs" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
}
