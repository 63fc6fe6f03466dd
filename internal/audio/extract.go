package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"matscribe/internal/artifacts"
	"matscribe/internal/command"
	"matscribe/internal/config"
	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
)

const extractTimeout = 30 * time.Minute

// Extractor converts a video source into the mono 16 kHz PCM WAV the
// transcription backends expect.
type Extractor struct {
	cfg    *config.Config
	layout artifacts.Layout
	run    command.Runner
	logger *slog.Logger
}

// NewExtractor builds the audio extraction stage handler.
func NewExtractor(cfg *config.Config, layout artifacts.Layout, run command.Runner, logger *slog.Logger) *Extractor {
	if run == nil {
		run = command.Run
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{cfg: cfg, layout: layout, run: run, logger: logger.With(logging.String(logging.FieldComponent, "audio"))}
}

// Stage identifies the pipeline stage this handler produces.
func (e *Extractor) Stage() stage.Stage {
	return stage.AudioExtracted
}

// Execute extracts the audio track. It writes to a scratch path and renames
// into place so a crash never leaves a plausible-looking partial WAV behind.
func (e *Extractor) Execute(ctx context.Context, item media.Item) error {
	probe, err := Probe(ctx, e.run, e.cfg.FFprobeBinary(), item.SourcePath)
	if err != nil {
		return err
	}
	if !probe.HasAudio() {
		return services.Wrap(services.ErrValidation, "audio", "probe", fmt.Sprintf("%s has no audio stream", item.SourcePath), nil)
	}

	dest := e.layout.AudioPath(item.ID)
	if err := os.MkdirAll(e.layout.ItemDir(item.ID), 0o755); err != nil {
		return fmt.Errorf("create item directory: %w", err)
	}

	scratch := dest + ".partial"
	defer os.Remove(scratch)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", item.SourcePath,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(e.cfg.Audio.SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		scratch,
	}
	e.logger.InfoContext(ctx, "extracting audio",
		logging.String("source", item.SourcePath),
		logging.Float64("duration_seconds", probe.DurationSeconds()))

	if _, err := e.run(ctx, extractTimeout, e.cfg.FFmpegBinary(), args...); err != nil {
		return services.Wrap(nil, "audio", "extract", fmt.Sprintf("ffmpeg failed for %s", item.SourcePath), err)
	}

	info, err := os.Stat(scratch)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "extract", "ffmpeg produced no output", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "audio", "extract", "ffmpeg produced an empty file", nil)
	}
	if err := os.Rename(scratch, dest); err != nil {
		return fmt.Errorf("finalize audio artifact: %w", err)
	}

	e.logger.InfoContext(ctx, "audio extracted",
		logging.String("artifact", dest),
		logging.Int64("bytes", info.Size()))
	return nil
}

// HealthCheck verifies the ffmpeg and ffprobe binaries are resolvable.
func (e *Extractor) HealthCheck(ctx context.Context) stage.Health {
	for _, binary := range []string{e.cfg.FFmpegBinary(), e.cfg.FFprobeBinary()} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy("audio", fmt.Sprintf("%s not found in PATH", binary))
		}
	}
	return stage.Healthy("audio")
}
