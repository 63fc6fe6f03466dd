package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"matscribe/internal/command"
	"matscribe/internal/services"
)

// ProbeResult is the parsed ffprobe inspection of a source file.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes one stream in the container.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// HasAudio reports whether at least one audio stream exists.
func (r ProbeResult) HasAudio() bool {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, "audio") {
			return true
		}
	}
	return false
}

// DurationSeconds parses the container duration, zero when unknown.
func (r ProbeResult) DurationSeconds() float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil {
		return 0
	}
	return value
}

const probeTimeout = 2 * time.Minute

// Probe runs ffprobe against a path and decodes its JSON output.
func Probe(ctx context.Context, run command.Runner, binary, path string) (ProbeResult, error) {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	res, err := run(ctx, probeTimeout, binary,
		"-v", "error", "-hide_banner",
		"-show_format", "-show_streams",
		"-of", "json", "--", path)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "audio", "probe", fmt.Sprintf("inspect %s", path), err)
	}

	var result ProbeResult
	if err := json.Unmarshal([]byte(res.Stdout), &result); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "audio", "probe", "parse ffprobe output", err)
	}
	return result, nil
}
