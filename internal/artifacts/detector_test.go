package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"matscribe/internal/stage"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func wavHeader() []byte {
	return []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
}

func TestLayoutPathsAreUnderItemDir(t *testing.T) {
	layout := NewLayout("/work/items")
	dir := layout.ItemDir("clip-abcd1234")
	for _, s := range stage.ExecutionOrder() {
		path := layout.PathFor("clip-abcd1234", s)
		if path == "" {
			t.Fatalf("no artifact path for stage %s", s)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("artifact for %s outside item dir: %s", s, path)
		}
	}
	if layout.PathFor("clip-abcd1234", stage.Completed) != "" {
		t.Error("completed stage should have no artifact")
	}
}

func TestDetectorRecognizesValidArtifacts(t *testing.T) {
	root := t.TempDir()
	layout := NewLayout(root)
	det := NewDetector(layout)
	const id = "clip-00aa11bb"

	writeFile(t, layout.AudioPath(id), wavHeader())
	writeFile(t, layout.TranscriptJSONPath(id), []byte(`{"text":"hello","segments":[{"start":0,"end":1,"text":"hello"}]}`))
	writeFile(t, layout.CorrectedPath(id), []byte("hello\n"))
	writeFile(t, layout.SubtitlePath(id), []byte("1\n00:00:00,000 --> 00:00:01,000\nhello\n\n"))

	done := det.CompletedStages(id)
	if len(done) != len(stage.ExecutionOrder()) {
		t.Fatalf("expected all stages detected, got %v", done)
	}
}

func TestDetectorRejectsInvalidArtifacts(t *testing.T) {
	root := t.TempDir()
	layout := NewLayout(root)
	det := NewDetector(layout)
	const id = "clip-00aa11bb"

	writeFile(t, layout.AudioPath(id), []byte("not a wav"))
	writeFile(t, layout.TranscriptJSONPath(id), []byte(`{"text":"x","segments":[]}`))
	writeFile(t, layout.CorrectedPath(id), nil)
	writeFile(t, layout.SubtitlePath(id), []byte("no timing lines here"))

	for _, s := range stage.ExecutionOrder() {
		if det.Completed(id, s) {
			t.Errorf("stage %s detected complete from invalid artifact", s)
		}
	}
}

func TestDetectorMissingFilesReportIncomplete(t *testing.T) {
	det := NewDetector(NewLayout(t.TempDir()))
	if got := det.CompletedStages("clip-missing"); len(got) != 0 {
		t.Fatalf("expected no stages, got %v", got)
	}
}
