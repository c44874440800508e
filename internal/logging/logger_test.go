package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromContext_RunID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewHandler(&buf, "info", "json")))
	defer slog.SetDefault(prev)

	ctx := WithRun(context.Background(), "run-123")
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), `"run_id":"run-123"`) {
		t.Errorf("log output missing run_id: %s", buf.String())
	}
}

func TestSetup_NoFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	closer := Setup(Options{Level: "debug", Format: "text"})
	if err := closer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled after Setup")
	}
}
