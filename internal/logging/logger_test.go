package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"matscribe/internal/services"
)

func TestConsoleHandlerHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("stage started",
		String(FieldComponent, "pipeline"),
		String(FieldItemID, "clip-1234"),
		String(FieldStage, "transcribed"),
		String("source_file", "/videos/clip.mkv"),
	)

	out := buf.String()
	if !strings.Contains(out, "[pipeline]") {
		t.Fatalf("expected component in header, got %q", out)
	}
	if !strings.Contains(out, "{clip-1234/transcribed}") {
		t.Fatalf("expected item/stage in header, got %q", out)
	}
	if !strings.Contains(out, "source_file: /videos/clip.mkv") {
		t.Fatalf("expected indented attr, got %q", out)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("ignored")
	logger.Warn("heard")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "heard") {
		t.Fatalf("warn record missing, got %q", out)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))

	ctx := services.WithItemID(context.Background(), "clip-99")
	ctx = services.WithStage(ctx, "corrected")

	WithContext(ctx, logger).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"item_id":"clip-99"`) {
		t.Fatalf("expected item_id field, got %q", out)
	}
	if !strings.Contains(out, `"stage":"corrected"`) {
		t.Fatalf("expected stage field, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	if got := parseLevel("nonsense"); got != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
}
