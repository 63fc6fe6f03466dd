package subtitles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matscribe/internal/artifacts"
	"matscribe/internal/config"
	"matscribe/internal/correction"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/transcribe"
)

func subtitleFixture(t *testing.T, segments []transcribe.Segment) (*Handler, artifacts.Layout, media.Item) {
	t.Helper()
	cfg := config.Default()
	cfg.Subtitles.AlongsideVideo = false
	layout := artifacts.NewLayout(t.TempDir())

	videoDir := t.TempDir()
	item := media.Item{ID: "lesson-00aa11bb", SourcePath: filepath.Join(videoDir, "lesson.mp4")}
	if err := os.WriteFile(item.SourcePath, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	if err := os.MkdirAll(layout.ItemDir(item.ID), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc := transcribe.Result{Text: "t", Language: "en", Segments: segments}
	if err := transcribe.SaveDocument(layout.TranscriptJSONPath(item.ID), doc); err != nil {
		t.Fatalf("save doc: %v", err)
	}
	return NewHandler(&cfg, layout, nil), layout, item
}

func TestExecuteWritesSRTArtifact(t *testing.T) {
	handler, layout, item := subtitleFixture(t, []transcribe.Segment{
		{Start: 0, End: 2.5, Text: "closed guard sweep"},
	})
	if handler.Stage() != stage.SubtitlesGenerated {
		t.Fatalf("stage = %s", handler.Stage())
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}

	data, err := os.ReadFile(layout.SubtitlePath(item.ID))
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	if !strings.Contains(string(data), "00:00:00,000 --> 00:00:02,500") {
		t.Errorf("srt content:\n%s", data)
	}
}

func TestExecuteAppliesStoredCorrectionsToCues(t *testing.T) {
	handler, layout, item := subtitleFixture(t, []transcribe.Segment{
		{Start: 0, End: 2, Text: "coast guard retention"},
	})
	replacements := []correction.Replacement{{Original: "coast guard", Replacement: "closed guard"}}
	if err := correction.SaveReplacements(layout.CorrectionsPath(item.ID), replacements); err != nil {
		t.Fatalf("save replacements: %v", err)
	}

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}
	data, _ := os.ReadFile(layout.SubtitlePath(item.ID))
	if !strings.Contains(string(data), "closed guard retention") {
		t.Errorf("corrections not applied to cues:\n%s", data)
	}
}

func TestExecuteCopiesAlongsideVideo(t *testing.T) {
	handler, _, item := subtitleFixture(t, []transcribe.Segment{{Start: 0, End: 1, Text: "hi"}})
	handler.cfg.Subtitles.AlongsideVideo = true

	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}
	sidecar := strings.TrimSuffix(item.SourcePath, ".mp4") + ".srt"
	if _, err := os.Stat(sidecar); err != nil {
		t.Errorf("sidecar srt missing: %v", err)
	}
}

func TestExecuteRequiresTranscript(t *testing.T) {
	handler, layout, item := subtitleFixture(t, []transcribe.Segment{{Start: 0, End: 1, Text: "hi"}})
	if err := os.Remove(layout.TranscriptJSONPath(item.ID)); err != nil {
		t.Fatalf("remove transcript: %v", err)
	}
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteRejectsSegmentlessTranscript(t *testing.T) {
	handler, _, item := subtitleFixture(t, nil)
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
