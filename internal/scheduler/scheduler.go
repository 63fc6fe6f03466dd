package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"matscribe/internal/logging"
	"matscribe/internal/media"
	"matscribe/internal/pipeline"
	"matscribe/internal/services"
)

// Summary aggregates the outcome of one scheduling run.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
	Elapsed   time.Duration
}

// Processor is the slice of the pipeline the scheduler needs.
type Processor interface {
	Process(ctx context.Context, item media.Item) (pipeline.Outcome, error)
}

// Scheduler fans items out to the pipeline with a bounded number of
// concurrent workers. Item failures are isolated: one bad file never stops
// the rest of the run.
type Scheduler struct {
	processor   Processor
	concurrency int64
	logger      *slog.Logger
}

// New builds a scheduler. Concurrency below one is clamped to one.
func New(processor Processor, concurrency int, logger *slog.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		processor:   processor,
		concurrency: int64(concurrency),
		logger:      logger.With(logging.String(logging.FieldComponent, "scheduler")),
	}
}

// Run processes every item and waits for all workers to finish. Context
// cancellation stops admitting new items; in-flight items run to completion
// of their current stage.
func (s *Scheduler) Run(ctx context.Context, items []media.Item) (Summary, error) {
	start := time.Now()
	summary := Summary{}
	if len(items) == 0 {
		return summary, nil
	}

	sem := semaphore.NewWeighted(s.concurrency)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			summary.Elapsed = time.Since(start)
			return summary, fmt.Errorf("run cancelled: %w", err)
		}

		wg.Add(1)
		go func(item media.Item) {
			defer wg.Done()
			defer sem.Release(1)

			itemCtx := services.WithRequestID(ctx, uuid.NewString())
			logger := logging.WithContext(itemCtx, s.logger)

			outcome := s.processItem(itemCtx, logger, item)
			mu.Lock()
			switch outcome {
			case pipeline.Succeeded:
				summary.Succeeded++
			case pipeline.Skipped:
				summary.Skipped++
			default:
				summary.Failed++
			}
			mu.Unlock()
		}(item)
	}

	wg.Wait()
	summary.Elapsed = time.Since(start)
	s.logger.InfoContext(ctx, "run finished",
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// processItem shields the run from a panicking stage handler; the panic is
// recorded as a failure for that item only.
func (s *Scheduler) processItem(ctx context.Context, logger *slog.Logger, item media.Item) (outcome pipeline.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "item processing panicked",
				logging.String("item", item.ID),
				logging.Any("panic", r))
			outcome = pipeline.Failed
		}
	}()

	outcome, err := s.processor.Process(ctx, item)
	if err != nil {
		logger.ErrorContext(ctx, "item failed",
			logging.String("item", item.ID),
			logging.Error(err))
	}
	return outcome
}
