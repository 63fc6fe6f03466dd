package main

import (
	"strings"
	"testing"
)

func TestPlanTableRendersRows(t *testing.T) {
	out := planTable([][]string{
		{"Armbar Basics", "audio_extracted, transcribed"},
		{"Guard Retention", "nothing to do"},
	})
	for _, want := range []string{"Video", "Pending stages", "Armbar Basics", "nothing to do"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan table missing %q:\n%s", want, out)
		}
	}
}

func TestStatusTableRendersAllColumns(t *testing.T) {
	out := statusTable([][]string{
		{"Armbar Basics", "completed", "4/4", "2026-08-28 10:00", ""},
	})
	for _, want := range []string{"Video", "Stage", "Done", "Updated", "Last error", "4/4", "completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("status table missing %q:\n%s", want, out)
		}
	}
}
