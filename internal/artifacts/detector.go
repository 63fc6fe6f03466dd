package artifacts

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"matscribe/internal/stage"
)

// Detector inspects artifact files on disk and decides whether a stage's
// output already exists and is plausibly valid. It never trusts the state
// database: it is the mechanism that lets a run resume from artifacts alone
// after the work directory's state has been lost.
type Detector struct {
	layout Layout
}

// NewDetector wraps a Layout for probing.
func NewDetector(layout Layout) Detector {
	return Detector{layout: layout}
}

// Layout exposes the wrapped layout so callers can resolve paths without
// carrying both values around.
func (d Detector) Layout() Layout {
	return d.layout
}

// Completed reports whether the artifact proving the given stage already
// exists and passes a cheap validity check. Unknown or artifact-less stages
// report false.
func (d Detector) Completed(itemID string, s stage.Stage) bool {
	path := d.layout.PathFor(itemID, s)
	if path == "" {
		return false
	}
	switch s {
	case stage.AudioExtracted:
		return validWAV(path)
	case stage.Transcribed:
		return validTranscript(path)
	case stage.Corrected:
		return nonEmptyFile(path)
	case stage.SubtitlesGenerated:
		return validSRT(path)
	}
	return false
}

// CompletedStages returns every execution stage whose artifact probe passes.
func (d Detector) CompletedStages(itemID string) []stage.Stage {
	var done []stage.Stage
	for _, s := range stage.ExecutionOrder() {
		if d.Completed(itemID, s) {
			done = append(done, s)
		}
	}
	return done
}

func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

func validWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE"))
}

func validTranscript(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return false
	}
	var probe struct {
		Segments []json.RawMessage `json:"segments"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	return len(probe.Segments) > 0
}

func validSRT(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return false
	}
	return bytes.Contains(data, []byte("-->"))
}
