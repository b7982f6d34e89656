package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(t *testing.T, format logFormat) (*structuredHandler, *bytes.Buffer, func()) {
	t.Helper()
	var buf bytes.Buffer
	w := newAsyncWriter([]io.Writer{&buf}, 4096)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: w,
		format: format,
	})
	return h, &buf, func() { w.Close() }
}

func TestKVLineKeyOrder(t *testing.T) {
	h, buf, done := newTestHandler(t, formatKV)
	defer done()

	r := slog.NewRecord(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), slog.LevelInfo, "weather_fetch", 0)
	r.AddAttrs(
		slog.String("city", "Paris"),
		slog.String("component", "api.weather"),
		slog.String("status", "ok"),
		slog.Duration("duration", 42*time.Millisecond),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	done()

	line := strings.TrimSpace(buf.String())
	wantOrder := []string{"ts=", "level=INFO", "component=api.weather", "event=weather_fetch", "status=ok", "duration_ms=42", "city=Paris"}
	pos := -1
	for _, frag := range wantOrder {
		idx := strings.Index(line, frag)
		if idx < 0 {
			t.Fatalf("fragment %q missing in line %q", frag, line)
		}
		if idx < pos {
			t.Fatalf("fragment %q out of order in line %q", frag, line)
		}
		pos = idx
	}
}

func TestJSONLineKeyOrder(t *testing.T) {
	h, buf, done := newTestHandler(t, formatJSON)
	defer done()

	r := slog.NewRecord(time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC), slog.LevelWarn, "rate_limited", 0)
	r.AddAttrs(
		slog.Int64("user_id", 42),
		slog.String("component", "tg"),
	)
	ctx := WithRID(context.Background(), BuildRID(100, 42, 7))
	if err := h.Handle(ctx, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	done()

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, `{"ts":`) {
		t.Fatalf("line must start with ts: %q", line)
	}
	tsIdx := strings.Index(line, `"ts":`)
	levelIdx := strings.Index(line, `"level":`)
	compIdx := strings.Index(line, `"component":`)
	uidIdx := strings.Index(line, `"user_id":42`)
	if levelIdx < tsIdx || compIdx < levelIdx || uidIdx < 0 {
		t.Fatalf("unexpected key order: %q", line)
	}
	if !strings.Contains(line, `"rid":`) || !strings.Contains(line, `"rid_full":"100:42:7"`) {
		t.Fatalf("rid fields missing: %q", line)
	}
}

func TestCompactRID(t *testing.T) {
	rid := BuildRID(123456, 987654321, 42)
	compact := CompactRID(rid)
	if compact == "" || compact == rid {
		t.Fatalf("expected compacted rid, got %q", compact)
	}
	if strings.ContainsAny(compact, ":") {
		t.Fatalf("compact rid must not contain separators: %q", compact)
	}
	if CompactRID(rid) != compact {
		t.Fatalf("CompactRID must be deterministic")
	}
	if CompactRID("not-a-rid") != "not-a-rid" {
		t.Fatalf("malformed rid must pass through unchanged")
	}
}
