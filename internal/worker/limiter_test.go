package worker

import (
	"context"
	"testing"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected burst clamped to 1 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, ServiceOracle); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	// A second service carries its own budget.
	if err := limiter.Wait(ctx, ServiceEmbedding); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow(ServiceOracle) {
		t.Error("expected first request allowed")
	}
	if limiter.Allow(ServiceOracle) {
		t.Error("expected second request denied within the same second")
	}
	// Independent budget for the other service.
	if !limiter.Allow(ServiceEmbedding) {
		t.Error("expected embedding budget untouched")
	}
}

func TestLimiter_SetServiceRate(t *testing.T) {
	limiter := NewLimiter(1, 1)
	limiter.SetServiceRate(ServiceEmbedding, 100, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(ServiceEmbedding) {
			t.Fatalf("expected burst of 3 for embedding, denied at %d", i)
		}
	}
	if !limiter.Allow(ServiceOracle) {
		t.Error("expected oracle budget unaffected by embedding override")
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1) // effectively one request per ~17min
	ctx, cancel := context.WithCancel(context.Background())

	if err := limiter.Wait(ctx, ServiceOracle); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx, ServiceOracle); err == nil {
		t.Error("expected wait to fail on cancelled context")
	}
}
