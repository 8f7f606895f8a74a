package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" info ", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := levelFromEnv(tt.in); got != tt.want {
			t.Errorf("levelFromEnv(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithContext_CopiesScopedFields(t *testing.T) {
	var buf bytes.Buffer
	orig := defaultLogger
	defaultLogger = slog.New(slog.NewJSONHandler(&buf, nil))
	defer func() { defaultLogger = orig }()

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, int64(7))
	InfoContext(ctx, "hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Log output is not JSON: %v", err)
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("Expected request_id req-1, got %v", entry["request_id"])
	}
	if entry["user_id"] != float64(7) {
		t.Errorf("Expected user_id 7, got %v", entry["user_id"])
	}
	if _, ok := entry["service"]; ok {
		t.Error("Unset context key should not appear in the entry")
	}
	if entry["msg"] != "hello" {
		t.Errorf("Expected msg hello, got %v", entry["msg"])
	}
}
