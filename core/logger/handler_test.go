package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(format logFormat, out, errOut *bytes.Buffer) (*structuredHandler, func()) {
	aw := newAsyncWriter([]io.Writer{out}, 1024)
	var ew *asyncWriter
	if errOut != nil {
		ew = newAsyncWriter([]io.Writer{errOut}, 1024)
	}
	h := newStructuredHandler(handlerConfig{
		level:     slog.LevelDebug,
		writer:    aw,
		errWriter: ew,
		format:    format,
	})
	closeAll := func() {
		_ = aw.Close()
		if ew != nil {
			_ = ew.Close()
		}
	}
	return h, closeAll
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, done := newTestHandler(formatKV, buf, nil)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "service.gate")
	LogEvent(ctx, log, slog.LevelInfo, "gate.blocked",
		slog.String("status", "blocked"),
		slog.String("cause", "unit"),
	)
	done()

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=service.gate", "event=gate.blocked", "status=blocked", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, done := newTestHandler(formatJSON, buf, nil)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(handler).With("component", "service.retrieval")
	LogEvent(ctx, log, slog.LevelError, "fetch.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "RETRIEVAL_FAILED"),
	)
	done()

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.retrieval"`, `"event":"fetch.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"user_id":22`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, done := newTestHandler(formatKV, buf, nil)
	rawRID := "123:456:789"
	LogEvent(WithRID(Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")
	done()

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, done := newTestHandler(formatJSON, buf, nil)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")
	done()

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
}

func TestStructuredHandlerErrorsSink(t *testing.T) {
	out, errs := &bytes.Buffer{}, &bytes.Buffer{}
	handler, done := newTestHandler(formatKV, out, errs)
	log := slog.New(handler)
	ctx := WithJobID(Background(), "job-1")
	LogEvent(ctx, log, slog.LevelInfo, "fetch.start")
	LogEvent(ctx, log, slog.LevelWarn, "ack.failed")
	LogEvent(ctx, log, slog.LevelError, "fetch.failed")
	done()

	if got := strings.Count(out.String(), "\n"); got != 3 {
		t.Fatalf("main sink lines = %d, want 3", got)
	}
	errLines := strings.Split(strings.TrimSpace(errs.String()), "\n")
	if len(errLines) != 2 {
		t.Fatalf("errors sink lines = %d, want 2 (%q)", len(errLines), errs.String())
	}
	for _, l := range errLines {
		if !strings.Contains(l, "job_id=job-1") {
			t.Fatalf("expected job_id in %s", l)
		}
	}
}

func TestNormalizeAttrDuration(t *testing.T) {
	cases := map[string]string{
		"duration":       "duration_ms",
		"fetch_duration": "fetch_duration_ms",
		"elapsed_ms":     "elapsed_ms",
		"wait":           "wait_ms",
	}
	for in, want := range cases {
		key, val, ok := normalizeAttr(in, slog.DurationValue(1500*time.Microsecond))
		if !ok || key != want {
			t.Fatalf("normalizeAttr(%s) key = %s, want %s", in, key, want)
		}
		if val.(int64) != 2 {
			t.Fatalf("normalizeAttr(%s) value = %v, want 2", in, val)
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec     string
		num, den int
	}{
		{"1/10", 1, 10},
		{"20", 1, 20},
		{"0", 0, 0},
		{"x/y", 0, 0},
		{"", 0, 0},
	}
	for _, c := range cases {
		num, den := parseRatioSpec(c.spec)
		if num != c.num || den != c.den {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", c.spec, num, den, c.num, c.den)
		}
	}
}

func TestRatioSamplerKeepsFirstOfWindow(t *testing.T) {
	s := newRatioSampler(2, 5)
	var kept int
	for i := 0; i < 20; i++ {
		if s.Allow() {
			kept++
		}
	}
	if kept != 8 {
		t.Fatalf("kept = %d, want 8", kept)
	}
	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatalf("disabled sampler dropped an event")
		}
	}
}

func TestStatusTreatsCancelSeparately(t *testing.T) {
	if got := Status(nil); got != "ok" {
		t.Fatalf("Status(nil) = %s", got)
	}
	if got := Status(fmt.Errorf("wrap: %w", context.Canceled)); got != "cancelled" {
		t.Fatalf("Status(canceled) = %s", got)
	}
	if got := Status(io.EOF); got != "fail" {
		t.Fatalf("Status(EOF) = %s", got)
	}
}

func TestRedirectCapturesComponentEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	restore := Redirect(buf)
	Error(Background(), CompReport, "failure.reported", slog.String("status", "fail"))
	restore()

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{`"level":"ERROR"`, `"component":"service.report"`, `"event":"failure.reported"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	buf.Reset()
	Error(Background(), CompReport, "after.restore")
	if buf.Len() != 0 {
		t.Fatalf("restore left redirect active: %s", buf.String())
	}
}
