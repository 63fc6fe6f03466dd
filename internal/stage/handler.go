package stage

import (
	"context"

	"matscribe/internal/media"
)

// Handler describes the contract the pipeline needs from each stage.
// Execute must be idempotent: re-running against existing outputs overwrites
// them rather than failing.
type Handler interface {
	// Stage identifies which lifecycle stage this handler completes.
	Stage() Stage
	// Execute performs the stage's work for one item.
	Execute(ctx context.Context, item media.Item) error
	// HealthCheck reports whether the handler's collaborators are usable.
	HealthCheck(ctx context.Context) Health
}

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
