package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"matscribe/internal/artifacts"
	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/services"
	"matscribe/internal/stage"
	"matscribe/internal/state"
)

// Outcome classifies how an item's run ended.
type Outcome string

const (
	// Succeeded means at least one stage executed and all of them passed.
	Succeeded Outcome = "succeeded"
	// Failed means a stage returned an error and the item was parked.
	Failed Outcome = "failed"
	// Skipped means every stage was already complete.
	Skipped Outcome = "skipped"
)

// Pipeline drives one item through the stage sequence, persisting progress
// after every stage so an interrupted run resumes exactly where it stopped.
type Pipeline struct {
	store    *state.Store
	detector artifacts.Detector
	handlers map[stage.Stage]stage.Handler
	logger   *slog.Logger
}

// New assembles a pipeline from the stage handlers. Every execution stage
// must have a handler.
func New(store *state.Store, detector artifacts.Detector, handlers []stage.Handler, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	byStage := make(map[stage.Stage]stage.Handler, len(handlers))
	for _, handler := range handlers {
		byStage[handler.Stage()] = handler
	}
	for _, s := range stage.ExecutionOrder() {
		if _, ok := byStage[s]; !ok {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", fmt.Sprintf("no handler for stage %s", s), nil)
		}
	}
	return &Pipeline{
		store:    store,
		detector: detector,
		handlers: byStage,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}, nil
}

// Process runs every outstanding stage for the item. Stage failures park the
// item as failed and return the stage error; they never abort the caller's
// wider run.
func (p *Pipeline) Process(ctx context.Context, item media.Item) (Outcome, error) {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, p.logger)

	rec, err := p.prepareRecord(ctx, item, true)
	if err != nil {
		return Failed, err
	}

	pending := p.pendingStages(rec)
	if len(pending) == 0 {
		rec.CurrentStage = stage.Completed
		if err := p.store.Save(ctx, rec); err != nil {
			return Failed, fmt.Errorf("persist state: %w", err)
		}
		logger.InfoContext(ctx, "item already complete, skipping")
		return Skipped, nil
	}

	if err := p.store.Save(ctx, rec); err != nil {
		return Failed, fmt.Errorf("persist state: %w", err)
	}

	for _, s := range pending {
		stageCtx := services.WithStage(ctx, string(s))
		logger.InfoContext(stageCtx, "stage starting", logging.String(logging.FieldStage, string(s)))

		if err := p.handlers[s].Execute(stageCtx, item); err != nil {
			rec.MarkFailed(services.Details(err).Message)
			if saveErr := p.store.Save(ctx, rec); saveErr != nil {
				logger.ErrorContext(ctx, "failed to persist failure state", logging.Error(saveErr))
			}
			logger.ErrorContext(stageCtx, "stage failed",
				logging.String(logging.FieldStage, string(s)),
				logging.Error(err))
			return Failed, err
		}

		rec.MarkCompleted(s)
		if err := p.store.Save(ctx, rec); err != nil {
			return Failed, fmt.Errorf("persist state: %w", err)
		}
		logger.InfoContext(stageCtx, "stage complete", logging.String(logging.FieldStage, string(s)))
	}

	rec.CurrentStage = stage.Completed
	if err := p.store.Save(ctx, rec); err != nil {
		return Failed, fmt.Errorf("persist state: %w", err)
	}
	logger.InfoContext(ctx, "item complete")
	return Succeeded, nil
}

// PlannedStage is one entry of a dry-run plan.
type PlannedStage struct {
	Stage stage.Stage
	Skip  bool
}

// Plan reports which stages would run for the item without executing any of
// them. Neither stored state nor on-disk artifacts are modified.
func (p *Pipeline) Plan(ctx context.Context, item media.Item) ([]PlannedStage, error) {
	rec, err := p.prepareRecord(ctx, item, false)
	if err != nil {
		return nil, err
	}
	plan := make([]PlannedStage, 0, len(stage.ExecutionOrder()))
	for _, s := range stage.ExecutionOrder() {
		plan = append(plan, PlannedStage{Stage: s, Skip: rec.HasCompleted(s)})
	}
	return plan, nil
}

// prepareRecord loads or seeds the item's record, invalidates completed work
// when the source file changed, and back-fills completion from artifacts that
// survived a lost state database. Destructive cleanup of stale artifacts only
// happens when wipeStale is set; planning passes false so a dry run stays
// read-only.
func (p *Pipeline) prepareRecord(ctx context.Context, item media.Item, wipeStale bool) (*state.Record, error) {
	logger := logging.WithContext(services.WithItemID(ctx, item.ID), p.logger)

	invalidated := false
	rec, err := p.store.Load(ctx, item.ID)
	switch {
	case errors.Is(err, services.ErrNotFound):
		rec = state.NewRecord(item)
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	default:
		if len(rec.EffectiveCompleted(item.Fingerprint)) == 0 && len(rec.Completed) > 0 {
			logger.WarnContext(ctx, "source file changed, discarding completed stages",
				logging.String("stored", rec.Fingerprint.String()),
				logging.String("current", item.Fingerprint.String()))
			invalidated = true
			if wipeStale {
				// Stale artifacts must go too, or the detector would
				// immediately re-mark the discarded stages complete.
				if err := os.RemoveAll(p.detector.Layout().ItemDir(item.ID)); err != nil {
					return nil, fmt.Errorf("clear stale artifacts: %w", err)
				}
			}
			rec = state.NewRecord(item)
		}
		rec.SourcePath = item.SourcePath
		rec.DisplayTitle = item.DisplayTitle
		rec.Fingerprint = item.Fingerprint
	}

	if invalidated && !wipeStale {
		// The remaining artifacts belong to the old source file, so the
		// detector cannot be trusted for back-fill.
		return rec, nil
	}

	for _, s := range stage.ExecutionOrder() {
		if rec.HasCompleted(s) {
			continue
		}
		if p.detector.Completed(item.ID, s) {
			logger.InfoContext(ctx, "artifact found, marking stage complete",
				logging.String(logging.FieldStage, string(s)))
			rec.MarkCompleted(s)
		}
	}
	return rec, nil
}

func (p *Pipeline) pendingStages(rec *state.Record) []stage.Stage {
	var pending []stage.Stage
	for _, s := range stage.ExecutionOrder() {
		if !rec.HasCompleted(s) {
			pending = append(pending, s)
		}
	}
	return pending
}
