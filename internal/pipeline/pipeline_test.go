package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"matscribe/internal/artifacts"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/state"
)

type scriptedHandler struct {
	stage stage.Stage
	err   error
	calls int
}

func (h *scriptedHandler) Stage() stage.Stage { return h.stage }

func (h *scriptedHandler) Execute(ctx context.Context, item media.Item) error {
	h.calls++
	return h.err
}

func (h *scriptedHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(string(h.stage))
}

type fixture struct {
	pipeline *Pipeline
	store    *state.Store
	layout   artifacts.Layout
	handlers map[stage.Stage]*scriptedHandler
	item     media.Item
	srcPath  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	layout := artifacts.NewLayout(t.TempDir())
	detector := artifacts.NewDetector(layout)

	handlers := map[stage.Stage]*scriptedHandler{}
	var list []stage.Handler
	for _, s := range stage.ExecutionOrder() {
		h := &scriptedHandler{stage: s}
		handlers[s] = h
		list = append(list, h)
	}

	p, err := New(store, detector, list, nil)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "lesson_one.mp4")
	if err := os.WriteFile(srcPath, []byte("video bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	item, err := media.NewItem(srcPath)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}

	return &fixture{pipeline: p, store: store, layout: layout, handlers: handlers, item: item, srcPath: srcPath}
}

func (f *fixture) writeArtifact(t *testing.T, s stage.Stage) {
	t.Helper()
	path := f.layout.PathFor(f.item.ID, s)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var content []byte
	switch s {
	case stage.AudioExtracted:
		content = []byte("RIFF\x00\x00\x00\x00WAVEdata")
	case stage.Transcribed:
		content = []byte(`{"text":"hi","segments":[{"start":0,"end":1,"text":"hi"}]}`)
	case stage.Corrected:
		content = []byte("hi\n")
	case stage.SubtitlesGenerated:
		content = []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n\n")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestProcessRunsAllStagesInOrder(t *testing.T) {
	f := newFixture(t)
	outcome, err := f.pipeline.Process(context.Background(), f.item)
	if err != nil || outcome != Succeeded {
		t.Fatalf("process = (%v, %v)", outcome, err)
	}
	for s, h := range f.handlers {
		if h.calls != 1 {
			t.Errorf("stage %s executed %d times", s, h.calls)
		}
	}

	rec, err := f.store.Load(context.Background(), f.item.ID)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.CurrentStage != stage.Completed {
		t.Errorf("current stage = %s", rec.CurrentStage)
	}
	if len(rec.Completed) != len(stage.ExecutionOrder()) {
		t.Errorf("completed = %v", rec.Completed)
	}
}

func TestProcessSecondRunSkips(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline.Process(context.Background(), f.item); err != nil {
		t.Fatalf("first run: %v", err)
	}
	outcome, err := f.pipeline.Process(context.Background(), f.item)
	if err != nil || outcome != Skipped {
		t.Fatalf("second run = (%v, %v), want skipped", outcome, err)
	}
	for s, h := range f.handlers {
		if h.calls != 1 {
			t.Errorf("stage %s re-executed", s)
		}
	}
}

func TestProcessStageFailureParksItem(t *testing.T) {
	f := newFixture(t)
	f.handlers[stage.Transcribed].err = services.Wrap(services.ErrTransient, "transcription", "chain", "all backends failed", nil)

	outcome, err := f.pipeline.Process(context.Background(), f.item)
	if outcome != Failed || err == nil {
		t.Fatalf("process = (%v, %v)", outcome, err)
	}
	if f.handlers[stage.Corrected].calls != 0 {
		t.Error("later stage ran after failure")
	}

	rec, loadErr := f.store.Load(context.Background(), f.item.ID)
	if loadErr != nil {
		t.Fatalf("load record: %v", loadErr)
	}
	if rec.CurrentStage != stage.Failed {
		t.Errorf("current stage = %s", rec.CurrentStage)
	}
	if rec.LastError == "" {
		t.Error("failure detail not recorded")
	}
	if !rec.HasCompleted(stage.AudioExtracted) {
		t.Error("completed work before the failure must be preserved")
	}
}

func TestProcessResumesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.handlers[stage.Transcribed].err = errors.New("flaky")
	if outcome, _ := f.pipeline.Process(context.Background(), f.item); outcome != Failed {
		t.Fatal("expected failure on first run")
	}

	f.handlers[stage.Transcribed].err = nil
	outcome, err := f.pipeline.Process(context.Background(), f.item)
	if err != nil || outcome != Succeeded {
		t.Fatalf("retry = (%v, %v)", outcome, err)
	}
	if f.handlers[stage.AudioExtracted].calls != 1 {
		t.Error("audio stage should not re-run on retry")
	}
	if f.handlers[stage.Transcribed].calls != 2 {
		t.Errorf("transcription ran %d times, want 2", f.handlers[stage.Transcribed].calls)
	}
}

func TestProcessColdStartResumesFromArtifacts(t *testing.T) {
	f := newFixture(t)
	// No state record exists, but an audio artifact survived a wipe.
	f.writeArtifact(t, stage.AudioExtracted)

	outcome, err := f.pipeline.Process(context.Background(), f.item)
	if err != nil || outcome != Succeeded {
		t.Fatalf("process = (%v, %v)", outcome, err)
	}
	if f.handlers[stage.AudioExtracted].calls != 0 {
		t.Error("audio stage re-ran despite existing artifact")
	}
	if f.handlers[stage.Transcribed].calls != 1 {
		t.Error("transcription should begin the run")
	}
}

func TestProcessFingerprintChangeInvalidatesEverything(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline.Process(context.Background(), f.item); err != nil {
		t.Fatalf("first run: %v", err)
	}
	for _, s := range stage.ExecutionOrder() {
		f.writeArtifact(t, s)
	}

	// Grow the file so the fingerprint changes.
	if err := os.WriteFile(f.srcPath, []byte("completely different video bytes"), 0o644); err != nil {
		t.Fatalf("rewrite source: %v", err)
	}
	changed, err := media.NewItem(f.srcPath)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}

	outcome, err := f.pipeline.Process(context.Background(), changed)
	if err != nil || outcome != Succeeded {
		t.Fatalf("process = (%v, %v)", outcome, err)
	}
	for s, h := range f.handlers {
		if h.calls != 2 {
			t.Errorf("stage %s ran %d times, want full re-run", s, h.calls)
		}
	}
}

func TestPlanKeepsStaleArtifactsAfterFingerprintChange(t *testing.T) {
	f := newFixture(t)
	if _, err := f.pipeline.Process(context.Background(), f.item); err != nil {
		t.Fatalf("first run: %v", err)
	}
	for _, s := range stage.ExecutionOrder() {
		f.writeArtifact(t, s)
	}

	if err := os.WriteFile(f.srcPath, []byte("completely different video bytes"), 0o644); err != nil {
		t.Fatalf("rewrite source: %v", err)
	}
	changed, err := media.NewItem(f.srcPath)
	if err != nil {
		t.Fatalf("new item: %v", err)
	}

	plan, err := f.pipeline.Plan(context.Background(), changed)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, planned := range plan {
		if planned.Skip {
			t.Errorf("stage %s planned as skip despite changed source", planned.Stage)
		}
	}
	for _, s := range stage.ExecutionOrder() {
		if _, err := os.Stat(f.layout.PathFor(f.item.ID, s)); err != nil {
			t.Errorf("planning removed artifact for %s: %v", s, err)
		}
	}
	for s, h := range f.handlers {
		if h.calls != 1 {
			t.Errorf("stage %s executed %d times during planning", s, h.calls)
		}
	}
}

func TestPlanReportsSkipsWithoutExecuting(t *testing.T) {
	f := newFixture(t)
	f.writeArtifact(t, stage.AudioExtracted)

	plan, err := f.pipeline.Plan(context.Background(), f.item)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan) != len(stage.ExecutionOrder()) {
		t.Fatalf("plan length = %d", len(plan))
	}
	if !plan[0].Skip {
		t.Error("audio stage should be planned as skip")
	}
	if plan[1].Skip {
		t.Error("transcription should be planned to run")
	}
	for s, h := range f.handlers {
		if h.calls != 0 {
			t.Errorf("plan executed stage %s", s)
		}
	}
}

func TestNewRequiresHandlerPerStage(t *testing.T) {
	store, err := state.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	detector := artifacts.NewDetector(artifacts.NewLayout(t.TempDir()))

	_, err = New(store, detector, []stage.Handler{&scriptedHandler{stage: stage.AudioExtracted}}, nil)
	if !services.IsFatal(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
