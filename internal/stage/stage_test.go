package stage_test

import (
	"testing"

	"matscribe/internal/stage"
)

func TestExecutionOrder(t *testing.T) {
	order := stage.ExecutionOrder()
	want := []stage.Stage{stage.AudioExtracted, stage.Transcribed, stage.Corrected, stage.SubtitlesGenerated}
	if len(order) != len(want) {
		t.Fatalf("order length = %d", len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestNextAdvancesForward(t *testing.T) {
	cases := map[stage.Stage]stage.Stage{
		stage.Discovered:         stage.AudioExtracted,
		stage.AudioExtracted:     stage.Transcribed,
		stage.Transcribed:        stage.Corrected,
		stage.Corrected:          stage.SubtitlesGenerated,
		stage.SubtitlesGenerated: stage.Completed,
		stage.Completed:          stage.Completed,
		stage.Failed:             stage.Failed,
	}
	for from, want := range cases {
		if got := from.Next(); got != want {
			t.Fatalf("%s.Next() = %s, want %s", from, got, want)
		}
	}
}

func TestBefore(t *testing.T) {
	if !stage.AudioExtracted.Before(stage.Transcribed) {
		t.Fatal("audio_extracted should precede transcribed")
	}
	if stage.Corrected.Before(stage.AudioExtracted) {
		t.Fatal("corrected must not precede audio_extracted")
	}
}

func TestParse(t *testing.T) {
	if s, ok := stage.Parse(" Transcribed "); !ok || s != stage.Transcribed {
		t.Fatalf("Parse failed: %s %v", s, ok)
	}
	if _, ok := stage.Parse("ripping"); ok {
		t.Fatal("unknown stage must not parse")
	}
}

func TestTerminal(t *testing.T) {
	if !stage.Completed.IsTerminal() || !stage.Failed.IsTerminal() {
		t.Fatal("completed/failed are terminal")
	}
	if stage.Transcribed.IsTerminal() {
		t.Fatal("transcribed is not terminal")
	}
}

func TestLabel(t *testing.T) {
	if got := stage.SubtitlesGenerated.Label(); got != "Subtitles Generated" {
		t.Fatalf("Label = %q", got)
	}
}
