package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/renameio/v2"

	"matscribe/internal/artifacts"
	"matscribe/internal/config"
	"matscribe/internal/language"
	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/vocab"
)

// Handler is the transcription stage. It feeds the extracted audio through
// the backend chain and persists both the canonical JSON transcript and a
// plain-text rendering.
type Handler struct {
	cfg    *config.Config
	layout artifacts.Layout
	chain  *Chain
	dict   *vocab.Dictionary
	logger *slog.Logger
}

// NewHandler builds the transcription stage handler.
func NewHandler(cfg *config.Config, layout artifacts.Layout, chain *Chain, dict *vocab.Dictionary, logger *slog.Logger) *Handler {
	if dict == nil {
		dict = vocab.NewDictionary()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		cfg:    cfg,
		layout: layout,
		chain:  chain,
		dict:   dict,
		logger: logger.With(logging.String(logging.FieldComponent, "transcribe")),
	}
}

// Stage identifies the pipeline stage this handler produces.
func (h *Handler) Stage() stage.Stage {
	return stage.Transcribed
}

// Execute transcribes the item's extracted audio.
func (h *Handler) Execute(ctx context.Context, item media.Item) error {
	audioPath := h.layout.AudioPath(item.ID)
	if _, err := os.Stat(audioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcription", "input", fmt.Sprintf("audio artifact missing for %s", item.ID), err)
	}

	req := Request{
		AudioPath:     audioPath,
		Model:         h.cfg.Transcription.Model,
		Language:      language.ToISO2(h.cfg.Transcription.Language),
		InitialPrompt: h.dict.WhisperPrompt(),
	}
	result, err := h.chain.Transcribe(ctx, req)
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.PlainText()) == "" {
		return services.Wrap(services.ErrExternalTool, "transcription", "output", "transcript is empty", nil)
	}

	if err := SaveDocument(h.layout.TranscriptJSONPath(item.ID), result); err != nil {
		return err
	}
	text := result.PlainText() + "\n"
	if err := renameio.WriteFile(h.layout.TranscriptTextPath(item.ID), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write transcript text: %w", err)
	}

	h.logger.InfoContext(ctx, "transcript written",
		logging.String("language", language.DisplayName(result.Language)),
		logging.Int("segments", len(result.Segments)))
	return nil
}

// HealthCheck reports ready when at least one backend in the chain is
// reachable.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	var details []string
	for _, backend := range h.chain.Backends() {
		if err := backend.Available(ctx); err == nil {
			return stage.Healthy("transcribe")
		} else {
			details = append(details, fmt.Sprintf("%s: %v", backend.Name(), err))
		}
	}
	return stage.Unhealthy("transcribe", strings.Join(details, "; "))
}
