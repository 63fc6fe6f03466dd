package artifacts

import (
	"path/filepath"

	"matscribe/internal/stage"
)

// Layout computes deterministic artifact locations: every item owns one
// directory under the items root, with fixed file names per stage. Existence
// of a stage's file is sufficient evidence the stage completed, which is what
// makes cold-start resume against pre-existing outputs possible.
type Layout struct {
	itemsRoot string
}

// NewLayout builds a Layout rooted at the per-item artifacts directory
// (typically <input>/.matscribe/items).
func NewLayout(itemsRoot string) Layout {
	return Layout{itemsRoot: itemsRoot}
}

// ItemDir returns the directory holding all artifacts for one item.
func (l Layout) ItemDir(itemID string) string {
	return filepath.Join(l.itemsRoot, itemID)
}

// AudioPath is the mono PCM WAV produced by the audio extraction stage.
func (l Layout) AudioPath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "audio.wav")
}

// TranscriptJSONPath is the segment-level transcript produced by transcription.
func (l Layout) TranscriptJSONPath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "transcript.json")
}

// TranscriptTextPath is the plain-text transcript produced by transcription.
func (l Layout) TranscriptTextPath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "transcript.txt")
}

// CorrectedPath is the corrected transcript produced by the correction stage.
func (l Layout) CorrectedPath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "corrected.txt")
}

// CorrectionsPath is the replacement list recorded by the correction stage.
// It is advisory: the subtitle stage applies it to segment text when present.
func (l Layout) CorrectionsPath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "corrections.json")
}

// SubtitlePath is the SRT file produced by the subtitle stage.
func (l Layout) SubtitlePath(itemID string) string {
	return filepath.Join(l.ItemDir(itemID), "subtitles.srt")
}

// PathFor maps a stage to the artifact whose existence proves it completed.
// Stages without a producing artifact return "".
func (l Layout) PathFor(itemID string, s stage.Stage) string {
	switch s {
	case stage.AudioExtracted:
		return l.AudioPath(itemID)
	case stage.Transcribed:
		return l.TranscriptJSONPath(itemID)
	case stage.Corrected:
		return l.CorrectedPath(itemID)
	case stage.SubtitlesGenerated:
		return l.SubtitlePath(itemID)
	default:
		return ""
	}
}
