package services_test

import (
	"context"
	"testing"

	"matscribe/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id on empty context")
	}

	ctx = services.WithItemID(ctx, "half_guard_vol1-a1b2c3d4")
	ctx = services.WithStage(ctx, "transcribed")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != "half_guard_vol1-a1b2c3d4" {
		t.Fatalf("unexpected item id: %q ok=%v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "transcribed" {
		t.Fatalf("unexpected stage: %q ok=%v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %q ok=%v", rid, ok)
	}
}

func TestEmptyValuesAreNotStored(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected empty stage to be ignored")
	}
	ctx = services.WithItemID(context.Background(), "")
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected empty item id to be ignored")
	}
}
