package correction

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/renameio/v2"

	"matscribe/internal/artifacts"
	"matscribe/internal/config"
	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/vocab"
)

// Completer is the slice of Client the handler needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Available(ctx context.Context) error
}

// Handler is the correction stage. It asks the language model for
// replacement pairs and applies them to the raw transcript. An unreachable
// model or an unusable reply downgrades the stage to a skip: the corrected
// artifact then mirrors the raw transcript so the subtitle stage always has
// deterministic input.
type Handler struct {
	cfg          *config.Config
	layout       artifacts.Layout
	client       Completer
	systemPrompt string
	logger       *slog.Logger
}

// NewHandler builds the correction stage handler. A nil client is treated as
// correction disabled.
func NewHandler(cfg *config.Config, layout artifacts.Layout, client Completer, dict *vocab.Dictionary, logger *slog.Logger) (*Handler, error) {
	if dict == nil {
		dict = vocab.NewDictionary()
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	systemPrompt := dict.CorrectionSystemPrompt()
	if path := cfg.Correction.PromptFile; path != "" {
		custom, err := vocab.LoadPromptFile(path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "correction", "init", "load prompt file", err)
		}
		systemPrompt = custom
	}

	return &Handler{
		cfg:          cfg,
		layout:       layout,
		client:       client,
		systemPrompt: systemPrompt,
		logger:       logger.With(logging.String(logging.FieldComponent, "correction")),
	}, nil
}

// Stage identifies the pipeline stage this handler produces.
func (h *Handler) Stage() stage.Stage {
	return stage.Corrected
}

// Execute corrects the item's transcript.
func (h *Handler) Execute(ctx context.Context, item media.Item) error {
	raw, err := os.ReadFile(h.layout.TranscriptTextPath(item.ID))
	if err != nil {
		return services.Wrap(services.ErrValidation, "correction", "input", fmt.Sprintf("transcript missing for %s", item.ID), err)
	}
	text := strings.TrimRight(string(raw), "\n")

	corrected := text
	var replacements []Replacement
	switch {
	case !h.cfg.Correction.Enabled || h.client == nil:
		h.logger.InfoContext(ctx, "correction disabled, passing transcript through")
	default:
		corrected, replacements, err = h.correct(ctx, text)
		if err != nil {
			if services.IsOptionalUnavailable(err) {
				h.logger.WarnContext(ctx, "correction model unreachable, passing transcript through",
					logging.Error(err))
				corrected = text
			} else {
				return err
			}
		}
	}

	if err := SaveReplacements(h.layout.CorrectionsPath(item.ID), replacements); err != nil {
		return err
	}
	if err := renameio.WriteFile(h.layout.CorrectedPath(item.ID), []byte(corrected+"\n"), 0o644); err != nil {
		return fmt.Errorf("write corrected transcript: %w", err)
	}
	return nil
}

func (h *Handler) correct(ctx context.Context, text string) (string, []Replacement, error) {
	response, err := h.client.Complete(ctx, h.systemPrompt, text)
	if err != nil {
		return "", nil, err
	}
	replacements := ParseResponse(response)
	if len(replacements) == 0 {
		h.logger.InfoContext(ctx, "no corrections needed")
		return text, nil, nil
	}
	h.logger.InfoContext(ctx, "applying corrections", logging.Int("count", len(replacements)))
	for _, rep := range replacements {
		h.logger.DebugContext(ctx, "correction",
			logging.String("original", rep.Original),
			logging.String("replacement", rep.Replacement))
	}
	return Apply(text, replacements), replacements, nil
}

// HealthCheck reports the correction model's reachability. The stage is
// optional, so an unreachable model is reported but never blocks a run.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if !h.cfg.Correction.Enabled || h.client == nil {
		return stage.Healthy("correction")
	}
	if err := h.client.Available(ctx); err != nil {
		return stage.Unhealthy("correction", services.Details(err).Message)
	}
	return stage.Healthy("correction")
}
