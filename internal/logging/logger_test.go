package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

func TestLogger_FiltersBelowConfiguredLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l := New(&Config{Level: "WARN", Output: path, JSONFormat: true})

	l.Info("should be dropped")
	l.Warn("should appear")

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one line past the WARN filter, got %d: %v", len(lines), lines)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshalling log line: %v", err)
	}
	if entry["message"] != "should appear" {
		t.Fatalf("expected the WARN message to survive, got %v", entry["message"])
	}
}

func TestLogger_WithComponentTagsEveryEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l := New(&Config{Level: "INFO", Output: path, JSONFormat: true}).WithComponent("risk")
	l.Info("gate evaluated")

	lines := readLines(t, path)
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d", len(lines))
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshalling log line: %v", err)
	}
	if entry["component"] != "risk" {
		t.Fatalf("expected component=risk, got %v", entry["component"])
	}
}

func TestLogger_WithFieldsAttachesKeyValuePairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l := New(&Config{Level: "INFO", Output: path, JSONFormat: true})
	l.WithField("symbol", "BTCUSDT").Info("opportunity ranked")

	lines := readLines(t, path)
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshalling log line: %v", err)
	}
	if entry["symbol"] != "BTCUSDT" {
		t.Fatalf("expected symbol field to be attached, got %v", entry["symbol"])
	}
}

func TestLogger_WithErrorIsNilTolerant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l := New(&Config{Level: "INFO", Output: path, JSONFormat: true})

	if got := l.WithError(nil); got != l {
		t.Fatalf("expected WithError(nil) to return the same logger, got a different instance")
	}
}
