package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"matscribe/internal/media"
	"matscribe/internal/pipeline"
	"matscribe/internal/scheduler"
	"matscribe/internal/services"
)

type stubProcessor struct {
	mu       sync.Mutex
	active   int32
	peak     int32
	outcomes map[string]pipeline.Outcome
	errs     map[string]error
	panics   map[string]bool
	requests []string
	delay    time.Duration
}

func (p *stubProcessor) Process(ctx context.Context, item media.Item) (pipeline.Outcome, error) {
	current := atomic.AddInt32(&p.active, 1)
	defer atomic.AddInt32(&p.active, -1)
	for {
		peak := atomic.LoadInt32(&p.peak)
		if current <= peak || atomic.CompareAndSwapInt32(&p.peak, peak, current) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	id, _ := services.RequestIDFromContext(ctx)
	p.mu.Lock()
	p.requests = append(p.requests, id)
	p.mu.Unlock()
	if p.panics[item.ID] {
		panic("handler exploded")
	}
	if err, ok := p.errs[item.ID]; ok {
		return pipeline.Failed, err
	}
	if outcome, ok := p.outcomes[item.ID]; ok {
		return outcome, nil
	}
	return pipeline.Succeeded, nil
}

func makeItems(ids ...string) []media.Item {
	items := make([]media.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, media.Item{ID: id, SourcePath: "/videos/" + id + ".mkv", DisplayTitle: id})
	}
	return items
}

func TestRunCountsOutcomes(t *testing.T) {
	proc := &stubProcessor{
		outcomes: map[string]pipeline.Outcome{"b": pipeline.Skipped},
		errs:     map[string]error{"c": errors.New("stage blew up")},
	}
	sched := scheduler.New(proc, 2, nil)

	summary, err := sched.Run(context.Background(), makeItems("a", "b", "c", "d"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 2 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Elapsed <= 0 {
		t.Fatal("expected elapsed time to be recorded")
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	proc := &stubProcessor{delay: 20 * time.Millisecond}
	sched := scheduler.New(proc, 2, nil)

	if _, err := sched.Run(context.Background(), makeItems("a", "b", "c", "d", "e", "f")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak := atomic.LoadInt32(&proc.peak); peak > 2 {
		t.Fatalf("observed %d concurrent items, want at most 2", peak)
	}
}

func TestRunAssignsRequestIDs(t *testing.T) {
	proc := &stubProcessor{}
	sched := scheduler.New(proc, 1, nil)

	if _, err := sched.Run(context.Background(), makeItems("a", "b")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	seen := make(map[string]bool)
	for _, id := range proc.requests {
		if id == "" {
			t.Fatal("item processed without a request id")
		}
		if seen[id] {
			t.Fatalf("request id %q reused across items", id)
		}
		seen[id] = true
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	proc := &stubProcessor{panics: map[string]bool{"b": true}}
	sched := scheduler.New(proc, 1, nil)

	summary, err := sched.Run(context.Background(), makeItems("a", "b", "c"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary after panic: %+v", summary)
	}
}

func TestRunStopsAdmittingOnCancel(t *testing.T) {
	proc := &stubProcessor{delay: 50 * time.Millisecond}
	sched := scheduler.New(proc, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	summary, err := sched.Run(ctx, makeItems("a", "b", "c", "d", "e"))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	total := summary.Succeeded + summary.Failed + summary.Skipped
	if total >= 5 {
		t.Fatalf("expected some items to be left unprocessed, got %d", total)
	}
}

func TestRunEmptyInputIsNoOp(t *testing.T) {
	sched := scheduler.New(&stubProcessor{}, 4, nil)
	summary, err := sched.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Succeeded+summary.Failed+summary.Skipped != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
