package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// Request describes one transcription call.
type Request struct {
	AudioPath     string
	Model         string
	Language      string
	InitialPrompt string
}

// Segment is one timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is the outcome of a transcription call.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Backend produces transcripts from audio files. Implementations must treat
// Transcribe as safe to call repeatedly for the same input.
type Backend interface {
	Name() string
	Available(ctx context.Context) error
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// PlainText flattens segments into readable text, falling back to the full
// text field when no segments carry content.
func (r Result) PlainText() string {
	var parts []string
	for _, seg := range r.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(r.Text)
	}
	return strings.Join(parts, " ")
}

// SaveDocument writes the canonical transcript JSON atomically.
func SaveDocument(path string, result Result) error {
	if result.Segments == nil {
		result.Segments = []Segment{}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// LoadDocument reads a canonical transcript produced by SaveDocument.
func LoadDocument(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read transcript: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return result, nil
}
