package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "scope", "all")
	log.Info(ctx, "inf", "count", 2)
	log.Warn(ctx, "wrn", "gen", 3)
	log.Error(ctx, "err", "id", "p1")

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		attr  string
	}{
		{"DEBUG", "dbg", "scope=all"},
		{"INFO", "inf", "count=2"},
		{"WARN", "wrn", "gen=3"},
		{"ERROR", "err", "id=p1"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.attr) {
			t.Fatalf("expected attribute %s in output:\n%s", tc.attr, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)

	child := log.With("module", "subscriptions")
	child.Info(context.Background(), "started")

	out := buf.String()
	if !strings.Contains(out, "module=subscriptions") {
		t.Fatalf("expected module attribute in output:\n%s", out)
	}
	if !strings.Contains(out, "msg=started") {
		t.Fatalf("expected message in output:\n%s", out)
	}
}
