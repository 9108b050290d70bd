// Structured logging tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func newTestLogger(prefix string, buf *bytes.Buffer) *Logger {
	logger := New(prefix)
	logger.SetWriter(buf)
	logger.SetColorize(false)
	return logger
}

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("test", &buf)
	logger.SetLevel(DEBUG)

	logger.Info("hello %s", "world")

	output := buf.String()
	if !strings.Contains(output, "\tINFO\t") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "\ttest\t") {
		t.Errorf("expected prefix 'test', got: %s", output)
	}
	if !strings.Contains(output, "hello world") {
		t.Errorf("expected message 'hello world', got: %s", output)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("test", &buf)

	// Default level is INFO, so DEBUG should be filtered
	logger.Debug("debug message")
	if buf.Len() != 0 {
		t.Errorf("expected DEBUG to be filtered, got: %s", buf.String())
	}

	logger.Info("info message")
	if !strings.Contains(buf.String(), "info message") {
		t.Errorf("expected INFO to pass, got: %s", buf.String())
	}

	buf.Reset()
	logger.SetLevel(ERROR)
	logger.Warn("warn message")
	if buf.Len() != 0 {
		t.Errorf("expected WARN to be filtered at ERROR, got: %s", buf.String())
	}
	logger.Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected ERROR to pass, got: %s", buf.String())
	}

	if logger.GetLevel() != ERROR {
		t.Errorf("expected level ERROR, got %v", logger.GetLevel())
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("json", &buf)
	logger.SetFormat(FormatJSON)

	logger.WithFields(Fields{"archetype": "delta", "blocking": 2}).Warn("profile rejected")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("expected level WARN, got %v", entry["level"])
	}
	if entry["logger"] != "json" {
		t.Errorf("expected logger 'json', got %v", entry["logger"])
	}
	if entry["message"] != "profile rejected" {
		t.Errorf("expected message, got %v", entry["message"])
	}
	if entry["archetype"] != "delta" {
		t.Errorf("expected archetype field, got %v", entry["archetype"])
	}
	if entry["blocking"] != float64(2) {
		t.Errorf("expected blocking=2, got %v", entry["blocking"])
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("test", &buf)

	logger.WithError(errors.New("disk full")).Error("write failed")

	output := buf.String()
	if !strings.Contains(output, `"error": "disk full"`) {
		t.Errorf("expected error field, got: %s", output)
	}
}

func TestEntryChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("test", &buf)

	base := logger.WithField("a", 1)
	base.WithField("b", 2).Infof("value %d", 3)

	output := buf.String()
	if !strings.Contains(output, "value 3") {
		t.Errorf("expected formatted message, got: %s", output)
	}
	if !strings.Contains(output, `"a": 1`) || !strings.Contains(output, `"b": 2`) {
		t.Errorf("expected both fields, got: %s", output)
	}
	if len(base.fields) != 1 {
		t.Errorf("expected parent entry to keep 1 field, got %d", len(base.fields))
	}
}

func TestLoggerCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("test", &buf)
	logger.SetCaller(true)

	logger.Info("with caller")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("expected caller to point at the test file, got: %s", buf.String())
	}
}

func TestLoggerWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger("parent", &buf)

	child := logger.WithPrefix("child")
	child.Info("from child")

	if !strings.Contains(buf.String(), "\tchild\t") {
		t.Errorf("expected child prefix, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"INFO", INFO},
		{"WARN", WARN},
		{"warning", WARN},
		{"ERROR", ERROR},
		{"invalid", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	if DEBUG.String() != "DEBUG" || ERROR.String() != "ERROR" {
		t.Error("unexpected level names")
	}
	if LogLevel(99).String() != "UNKNOWN" {
		t.Error("expected UNKNOWN for out-of-range level")
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Setenv("MACROGEN_LOG_LEVEL", "debug")
	t.Setenv("MACROGEN_LOG_FORMAT", "json")

	var buf bytes.Buffer
	logger := newTestLogger("env", &buf)
	ConfigureFromEnv(logger)

	logger.Debug("visible")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" {
		t.Errorf("expected debug message, got %v", entry["message"])
	}
}

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger("root", &buf)
	SetDefaultLogger(base)
	defer SetDefaultLogger(nil)

	GetLogger("macro").Info("assembled")

	if !strings.Contains(buf.String(), "\tmacro\t") {
		t.Errorf("expected derived prefix, got: %s", buf.String())
	}
}
