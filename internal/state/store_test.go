package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord() *Record {
	return NewRecord(media.Item{
		ID:           "lesson_one-00ab12cd",
		SourcePath:   "/videos/lesson_one.mp4",
		DisplayTitle: "Lesson One",
		Fingerprint:  media.Fingerprint{Size: 1024, ModTime: 1700000000},
	})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	rec.MarkCompleted(stage.AudioExtracted)
	rec.MarkCompleted(stage.Transcribed)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, rec.ItemID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SourcePath != rec.SourcePath {
		t.Errorf("source path = %q, want %q", loaded.SourcePath, rec.SourcePath)
	}
	if loaded.CurrentStage != stage.Transcribed {
		t.Errorf("current stage = %s, want %s", loaded.CurrentStage, stage.Transcribed)
	}
	if len(loaded.Completed) != 2 || loaded.Completed[0] != stage.AudioExtracted {
		t.Errorf("completed stages = %v", loaded.Completed)
	}
	if loaded.Fingerprint != rec.Fingerprint {
		t.Errorf("fingerprint = %v, want %v", loaded.Fingerprint, rec.Fingerprint)
	}
	if _, ok := loaded.StageTimes[stage.Transcribed]; !ok {
		t.Error("stage time for transcribed missing")
	}
}

func TestLoadMissingRecordReportsNotFound(t *testing.T) {
	store := newStore(t)
	_, err := store.Load(context.Background(), "no-such-item")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveUpsertsExistingRecord(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	rec.MarkFailed("transcription: run backend: timed out")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.Load(ctx, rec.ItemID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CurrentStage != stage.Failed {
		t.Errorf("current stage = %s, want failed", loaded.CurrentStage)
	}
	if loaded.LastError == "" {
		t.Error("last error not persisted")
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected single record after upsert, got %d", len(records))
	}
}

func TestListOrdersBySourcePath(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, path := range []string{"/videos/b.mp4", "/videos/a.mp4"} {
		rec := NewRecord(media.Item{
			ID:          string(rune('a'+i)) + "-record",
			SourcePath:  path,
			Fingerprint: media.Fingerprint{Size: 1, ModTime: 1},
		})
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", path, err)
		}
	}

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].SourcePath != "/videos/a.mp4" {
		t.Fatalf("list not ordered by source path: %+v", records)
	}
}

func TestStatsCountsByStage(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := sampleRecord()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := sampleRecord()
	second.ItemID = "lesson_two-11bc23de"
	second.SourcePath = "/videos/lesson_two.mp4"
	second.MarkCompleted(stage.AudioExtracted)
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[stage.Discovered] != 1 || stats[stage.AudioExtracted] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestRemoveReportsExistence(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	removed, err := store.Remove(ctx, rec.ItemID)
	if err != nil || !removed {
		t.Fatalf("remove existing = (%v, %v)", removed, err)
	}
	removed, err = store.Remove(ctx, rec.ItemID)
	if err != nil || removed {
		t.Fatalf("remove missing = (%v, %v)", removed, err)
	}
}

func TestEffectiveCompletedHonorsFingerprint(t *testing.T) {
	rec := sampleRecord()
	rec.MarkCompleted(stage.AudioExtracted)

	same := rec.EffectiveCompleted(rec.Fingerprint)
	if len(same) != 1 {
		t.Fatalf("matching fingerprint should keep stages, got %v", same)
	}

	changed := media.Fingerprint{Size: rec.Fingerprint.Size + 1, ModTime: rec.Fingerprint.ModTime}
	if got := rec.EffectiveCompleted(changed); len(got) != 0 {
		t.Fatalf("changed fingerprint should drop stages, got %v", got)
	}
	if len(rec.Completed) != 1 {
		t.Error("record itself must be preserved for inspection")
	}
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	rec := sampleRecord()
	rec.MarkCompleted(stage.AudioExtracted)
	before := rec.StageTimes[stage.AudioExtracted]
	time.Sleep(5 * time.Millisecond)
	rec.MarkCompleted(stage.AudioExtracted)
	if len(rec.Completed) != 1 {
		t.Fatalf("duplicate completion recorded: %v", rec.Completed)
	}
	if !rec.StageTimes[stage.AudioExtracted].After(before) {
		t.Error("completion time should refresh on re-run")
	}
}
