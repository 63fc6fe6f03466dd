package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matscribe/internal/artifacts"
	"matscribe/internal/config"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
)

func handlerFixture(t *testing.T, backend Backend) (*Handler, artifacts.Layout, media.Item) {
	t.Helper()
	layout := artifacts.NewLayout(t.TempDir())
	item := media.Item{ID: "lesson-00aa11bb", SourcePath: "/videos/lesson.mp4"}

	if err := os.MkdirAll(layout.ItemDir(item.ID), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(layout.AudioPath(item.ID), []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	cfg := config.Default()
	chain := &Chain{backends: []Backend{backend}}
	return NewHandler(&cfg, layout, chain, nil, nil), layout, item
}

func TestHandlerWritesTranscriptArtifacts(t *testing.T) {
	backend := &fakeBackend{name: "local", result: Result{
		Text:     "closed guard sweep",
		Language: "en",
		Segments: []Segment{{Start: 0, End: 2.5, Text: "closed guard sweep"}},
	}}
	handler, layout, item := handlerFixture(t, backend)

	if handler.Stage() != stage.Transcribed {
		t.Fatalf("stage = %s", handler.Stage())
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("execute: %v", err)
	}

	doc, err := LoadDocument(layout.TranscriptJSONPath(item.ID))
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	if doc.Text != "closed guard sweep" || len(doc.Segments) != 1 {
		t.Errorf("document = %+v", doc)
	}

	text, err := os.ReadFile(layout.TranscriptTextPath(item.ID))
	if err != nil {
		t.Fatalf("read text: %v", err)
	}
	if strings.TrimSpace(string(text)) != "closed guard sweep" {
		t.Errorf("text artifact = %q", text)
	}
}

func TestHandlerRequiresAudioArtifact(t *testing.T) {
	backend := &fakeBackend{name: "local", result: Result{Text: "hi"}}
	handler, layout, item := handlerFixture(t, backend)
	if err := os.Remove(layout.AudioPath(item.ID)); err != nil {
		t.Fatalf("remove audio: %v", err)
	}

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.calls != 0 {
		t.Error("backend should not run without audio")
	}
}

func TestHandlerRejectsEmptyTranscript(t *testing.T) {
	backend := &fakeBackend{name: "local", result: Result{Text: "   "}}
	handler, layout, item := handlerFixture(t, backend)

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, statErr := os.Stat(layout.TranscriptJSONPath(item.ID)); !os.IsNotExist(statErr) {
		t.Error("no transcript artifact should survive an empty result")
	}
}

func TestSaveAndLoadDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.json")
	in := Result{Text: "hello", Language: "en", Segments: []Segment{{End: 1, Text: "hello"}}}
	if err := SaveDocument(path, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Text != in.Text || len(out.Segments) != 1 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}
