package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARNING")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := logger
	logger = log.New(&buf, "", 0)
	t.Cleanup(func() {
		logger = orig
		Init("info")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg %d", 1)
	Errorf("error-msg")

	out := buf.String()
	if strings.Contains(out, "debug-msg") || strings.Contains(out, "info-msg") {
		t.Fatalf("messages below warn should be suppressed: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn-msg 1") {
		t.Fatalf("warn message missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] error-msg") {
		t.Fatalf("error message missing: %q", out)
	}
}

func TestStructuredFieldsAreSortedAndQuoted(t *testing.T) {
	buf := capture(t)
	Init("info")

	Infow("request", Fields{"status": 201, "path": "/api/programs", "agent": "curl 8.0"})

	line := buf.String()
	if !strings.Contains(line, `request agent="curl 8.0" path=/api/programs status=201`) {
		t.Fatalf("unexpected structured line: %q", line)
	}

	buf.Reset()
	Debugw("hidden", Fields{"k": "v"})
	if buf.Len() != 0 {
		t.Fatalf("debug line should be suppressed at info level: %q", buf.String())
	}
}
