package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/forge/internal/adapters/logger"
)

func newTestHandler(t *testing.T) (*logger.PrettyHandler, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	return logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}), buf
}

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{name: "info", level: slog.LevelInfo, want: "message\n"},
		{name: "warn", level: slog.LevelWarn, want: "! message\n"},
		{name: "error", level: slog.LevelError, want: "✗ message\n"},
		{name: "debug filtered", level: slog.LevelDebug, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := newTestHandler(t)
			slog.New(h).Log(t.Context(), tt.level, "message")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h, _ := newTestHandler(t)
	assert.False(t, h.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	h, buf := newTestHandler(t)
	lg := slog.New(h.WithAttrs([]slog.Attr{slog.String("set", "nightly")}))

	lg.Info("reconciled", "status", "SUCCESS")
	assert.Equal(t, "reconciled set=nightly status=✓ SUCCESS\n", buf.String())
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	h, buf := newTestHandler(t)
	slog.New(h.WithGroup("group")).Info("ready", "count", 3)

	g := goldie.New(t)
	g.Assert(t, "handler_group", buf.Bytes())
}

func TestPrettyHandler_StatusTransition(t *testing.T) {
	h, buf := newTestHandler(t)
	slog.New(h).Info("task status changed",
		"task_id", "task-1",
		"revision", "lib@1",
		"from", "BUILDING",
		"to", "SUCCESS",
	)

	g := goldie.New(t)
	g.Assert(t, "handler_transition", buf.Bytes())
}

func TestPrettyHandler_StatusAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attrs []any
		want  string
	}{
		{name: "failure icon", attrs: []any{"status", "FAILED"}, want: "done status=✗ FAILED\n"},
		{name: "cancelled icon", attrs: []any{"status", "CANCELLED"}, want: "done status=~ CANCELLED\n"},
		{name: "unknown status is plain", attrs: []any{"status", "later"}, want: "done status=later\n"},
		{name: "lone to", attrs: []any{"to", "BUILDING"}, want: "done to=● BUILDING\n"},
		{name: "ids", attrs: []any{"build_set_id", "set-1"}, want: "done build_set_id=set-1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, buf := newTestHandler(t)
			slog.New(h).Info("done", tt.attrs...)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_NilWriter(t *testing.T) {
	assert.NotNil(t, logger.NewPrettyHandler(nil, nil))
}
