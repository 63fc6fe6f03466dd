package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"matscribe/internal/command"
	"matscribe/internal/services"
)

const localTimeout = 2 * time.Hour

// Local shells out to whisper-cli (whisper.cpp) on this machine.
type Local struct {
	binary    string
	modelPath string
	threads   int
	run       command.Runner
}

// NewLocal builds a local whisper backend.
func NewLocal(binary, modelPath string, threads int, run command.Runner) *Local {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper-cli"
	}
	if threads <= 0 {
		threads = 4
	}
	if run == nil {
		run = command.Run
	}
	return &Local{binary: binary, modelPath: modelPath, threads: threads, run: run}
}

// Name identifies this backend in logs and errors.
func (l *Local) Name() string { return "local" }

// Available verifies the binary resolves and the model file, when configured,
// exists.
func (l *Local) Available(ctx context.Context) error {
	if _, err := exec.LookPath(l.binary); err != nil {
		return services.Wrap(services.ErrUnavailable, "transcription", "local", fmt.Sprintf("%s not found in PATH", l.binary), err)
	}
	if l.modelPath != "" {
		if _, err := os.Stat(l.modelPath); err != nil {
			return services.Wrap(services.ErrUnavailable, "transcription", "local", fmt.Sprintf("model file %s missing", l.modelPath), err)
		}
	}
	return nil
}

// Transcribe runs whisper-cli with JSON output next to the audio file and
// parses the result. whisper.cpp has shipped several JSON shapes over time,
// so the parser accepts the transcription array, the result-wrapped form,
// and the legacy segments array.
func (l *Local) Transcribe(ctx context.Context, req Request) (Result, error) {
	outBase := strings.TrimSuffix(req.AudioPath, filepath.Ext(req.AudioPath)) + ".whisper"
	jsonPath := outBase + ".json"
	defer os.Remove(jsonPath)

	args := []string{
		"-f", req.AudioPath,
		"-oj",
		"-of", outBase,
		"-t", strconv.Itoa(l.threads),
		"-tp", "0.0",
	}
	if l.modelPath != "" {
		args = append(args, "-m", l.modelPath)
	}
	if req.InitialPrompt != "" {
		args = append(args, "--prompt", req.InitialPrompt)
	}
	if req.Language != "" {
		args = append(args, "-l", req.Language)
	}

	if _, err := l.run(ctx, localTimeout, l.binary, args...); err != nil {
		return Result{}, services.Wrap(nil, "transcription", "local", "whisper-cli failed", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcription", "local", "whisper-cli produced no JSON output", err)
	}
	result, err := parseWhisperJSON(data)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcription", "local", "parse whisper output", err)
	}
	if req.Language != "" && result.Language == "" {
		result.Language = req.Language
	}
	return result, nil
}

type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Result   *struct {
		Language string           `json:"language"`
		Segments []whisperSegment `json:"segments"`
	} `json:"result"`
	Segments      []whisperSegment `json:"segments"`
	Transcription []struct {
		Text       string `json:"text"`
		Timestamps struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"timestamps"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
	} `json:"transcription"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func parseWhisperJSON(data []byte) (Result, error) {
	var output whisperOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return Result{}, err
	}

	var segments []Segment
	switch {
	case len(output.Transcription) > 0:
		for _, seg := range output.Transcription {
			start := float64(seg.Offsets.From) / 1000
			end := float64(seg.Offsets.To) / 1000
			if seg.Offsets.From == 0 && seg.Offsets.To == 0 {
				start = parseClockTimestamp(seg.Timestamps.From)
				end = parseClockTimestamp(seg.Timestamps.To)
			}
			segments = append(segments, Segment{Start: start, End: end, Text: strings.TrimSpace(seg.Text)})
		}
	case output.Result != nil && len(output.Result.Segments) > 0:
		for _, seg := range output.Result.Segments {
			segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
		}
	case len(output.Segments) > 0:
		for _, seg := range output.Segments {
			segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: strings.TrimSpace(seg.Text)})
		}
	}

	result := Result{
		Language: output.Language,
		Segments: normalizeSegments(segments),
	}
	if result.Language == "" && output.Result != nil {
		result.Language = output.Result.Language
	}
	result.Text = strings.TrimSpace(output.Text)
	if result.Text == "" {
		result.Text = result.PlainText()
	}
	if result.Text == "" && len(result.Segments) == 0 {
		return Result{}, fmt.Errorf("whisper output carried no text")
	}
	return result, nil
}

// parseClockTimestamp converts "00:01:23,456" to seconds.
func parseClockTimestamp(value string) float64 {
	value = strings.TrimSpace(strings.ReplaceAll(value, ",", "."))
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	seconds, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return float64(hours)*3600 + float64(minutes)*60 + seconds
}
