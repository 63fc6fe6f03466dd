package subtitles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"matscribe/internal/artifacts"
	"matscribe/internal/config"
	"matscribe/internal/correction"
	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/transcribe"
)

// Handler is the subtitle stage. It renders the transcript segments as SRT,
// applying the correction stage's replacements to each cue so subtitles match
// the corrected transcript.
type Handler struct {
	cfg    *config.Config
	layout artifacts.Layout
	logger *slog.Logger
}

// NewHandler builds the subtitle stage handler.
func NewHandler(cfg *config.Config, layout artifacts.Layout, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{cfg: cfg, layout: layout, logger: logger.With(logging.String(logging.FieldComponent, "subtitles"))}
}

// Stage identifies the pipeline stage this handler produces.
func (h *Handler) Stage() stage.Stage {
	return stage.SubtitlesGenerated
}

// Execute writes the SRT artifact and, when configured, a copy beside the
// source video.
func (h *Handler) Execute(ctx context.Context, item media.Item) error {
	doc, err := transcribe.LoadDocument(h.layout.TranscriptJSONPath(item.ID))
	if err != nil {
		return services.Wrap(services.ErrValidation, "subtitles", "input", fmt.Sprintf("transcript missing for %s", item.ID), err)
	}
	if len(doc.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "subtitles", "input", "transcript has no segments", nil)
	}

	replacements, err := correction.LoadReplacements(h.layout.CorrectionsPath(item.ID))
	if err != nil {
		h.logger.WarnContext(ctx, "ignoring unreadable corrections file", logging.Error(err))
		replacements = nil
	}
	segments := make([]transcribe.Segment, len(doc.Segments))
	copy(segments, doc.Segments)
	if len(replacements) > 0 {
		for i := range segments {
			segments[i].Text = correction.Apply(segments[i].Text, replacements)
		}
	}

	srtPath := h.layout.SubtitlePath(item.ID)
	if err := WriteFile(srtPath, segments, h.cfg.Subtitles.MaxLineChars); err != nil {
		return services.Wrap(services.ErrValidation, "subtitles", "render", "render srt", err)
	}
	if issues := Validate(srtPath); len(issues) > 0 {
		return services.Wrap(services.ErrValidation, "subtitles", "validate", strings.Join(issues, ", "), nil)
	}

	h.logger.InfoContext(ctx, "subtitles written",
		logging.String("artifact", srtPath),
		logging.Int("cues", len(segments)))

	if h.cfg.Subtitles.AlongsideVideo {
		target := alongsidePath(item.SourcePath)
		if err := copyFile(srtPath, target); err != nil {
			return fmt.Errorf("copy srt beside video: %w", err)
		}
		h.logger.InfoContext(ctx, "subtitles copied beside video", logging.String("path", target))
	}
	return nil
}

// HealthCheck has no external collaborators to verify.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("subtitles")
}

func alongsidePath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".srt"
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
