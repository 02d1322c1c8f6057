package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: INFO, Output: &buf})

	l.Info("user signed in",
		"email", "jane.doe@example.com",
		"user_id", "a1b2c3",
		"session_token", "0123456789abcdef",
		"password", "hunter22")

	entry := decodeLine(t, &buf)

	if entry["message"] != "user signed in" {
		t.Errorf("Expected message 'user signed in', got %v", entry["message"])
	}
	if entry["email"] != "j****e@example.com" {
		t.Errorf("Expected redacted email, got %v", entry["email"])
	}
	if !strings.HasPrefix(entry["user_id"].(string), "user_") {
		t.Errorf("Expected hashed user id, got %v", entry["user_id"])
	}
	if entry["session_token"] != "0123****" {
		t.Errorf("Expected truncated token, got %v", entry["session_token"])
	}
	if entry["password"] != "[REDACTED]" {
		t.Errorf("Expected redacted password, got %v", entry["password"])
	}
}

func TestErrorsAreLoggedAsStrings(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: INFO, Output: &buf})

	l.Error("upload failed", "error", errors.New("bucket unreachable"))

	entry := decodeLine(t, &buf)
	if entry["error"] != "bucket unreachable" {
		t.Errorf("Expected error text, got %v", entry["error"])
	}
	if entry["level"] != "error" {
		t.Errorf("Expected level error, got %v", entry["level"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: WARN, Output: &buf})

	l.Info("ignored")
	l.Debug("ignored")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below WARN, got %q", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("Expected WARN message to be written")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"Warn":    WARN,
		"error":   ERROR,
		"verbose": INFO,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", input, got, want)
		}
	}
}
