package correction

import "testing"

func TestApplyReplacesGlobally(t *testing.T) {
	text := "coast guard to full cord transition, then back to coast guard"
	replacements := []Replacement{
		{Original: "coast guard", Replacement: "closed guard"},
		{Original: "full cord", Replacement: "full guard"},
	}
	got := Apply(text, replacements)
	want := "closed guard to full guard transition, then back to closed guard"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyLongerOriginalsWin(t *testing.T) {
	text := "the closed guard pass drill"
	replacements := []Replacement{
		{Original: "closed guard", Replacement: "half guard"},
		{Original: "closed guard pass", Replacement: "knee cut pass"},
	}
	got := Apply(text, replacements)
	if got != "the knee cut pass drill" {
		t.Errorf("Apply = %q", got)
	}
}

func TestApplyStableForEqualLengths(t *testing.T) {
	text := "aa bb"
	replacements := []Replacement{
		{Original: "aa", Replacement: "xx"},
		{Original: "bb", Replacement: "yy"},
	}
	if got := Apply(text, replacements); got != "xx yy" {
		t.Errorf("Apply = %q", got)
	}
}

func TestApplyEmptyReplacementListIsIdentity(t *testing.T) {
	if got := Apply("unchanged", nil); got != "unchanged" {
		t.Errorf("Apply = %q", got)
	}
}
