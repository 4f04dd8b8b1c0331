package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestStartSpanNestsTraceAndSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), logger)

	ctx, outer := StartSpan(ctx, "tool", "tool", "youtube.search")
	traceID := TraceIDFromContext(ctx)
	outerID := SpanIDFromContext(ctx)
	if traceID == "" || outerID == "" {
		t.Fatal("expected trace and span ids on context")
	}

	innerCtx, inner := StartSpan(ctx, "upstream")
	if TraceIDFromContext(innerCtx) != traceID {
		t.Fatal("expected child span to share the trace id")
	}
	inner.EndErr(errors.New("boom"))
	outer.End()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines got %d: %s", len(lines), buf.String())
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if first["parent_span_id"] != outerID {
		t.Fatalf("expected parent span id %q got %v", outerID, first["parent_span_id"])
	}
	if first["tool"] != "youtube.search" {
		t.Fatalf("expected tool attribute to be inherited got %v", first["tool"])
	}
	if first["level"] != "WARN" {
		t.Fatalf("expected failed span at warn got %v", first["level"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Fatal("expected default logger")
	}
}
