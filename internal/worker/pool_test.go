package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nmorrow/covmap/internal/model"
)

func TestPool_ResultsInInputOrder(t *testing.T) {
	pool := NewPool(4)
	ids := []string{"o1", "o2", "o3", "o4", "o5", "o6", "o7", "o8"}

	results := pool.Run(context.Background(), ids, func(_ context.Context, id string) (*model.Assessment, error) {
		return &model.Assessment{ObligationID: id}, nil
	})

	if len(results) != len(ids) {
		t.Fatalf("Expected %d results, got %d", len(ids), len(results))
	}
	for i, r := range results {
		if r.ObligationID != ids[i] {
			t.Errorf("Result %d: expected %s, got %s", i, ids[i], r.ObligationID)
		}
		if r.Assessment == nil || r.Assessment.ObligationID != ids[i] {
			t.Errorf("Result %d: assessment mismatch", i)
		}
	}
}

func TestPool_ErrorsDoNotStopBatch(t *testing.T) {
	pool := NewPool(2)
	ids := []string{"o1", "bad", "o3"}

	results := pool.Run(context.Background(), ids, func(_ context.Context, id string) (*model.Assessment, error) {
		if id == "bad" {
			return nil, errors.New("load failed")
		}
		return &model.Assessment{ObligationID: id}, nil
	})

	if results[1].Err == nil {
		t.Error("Expected error for bad obligation")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("Expected other obligations unaffected")
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(workers)

	var active, peak int64
	var mu sync.Mutex
	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("o%d", i)
	}

	pool.Run(context.Background(), ids, func(_ context.Context, id string) (*model.Assessment, error) {
		n := atomic.AddInt64(&active, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		defer atomic.AddInt64(&active, -1)
		return &model.Assessment{ObligationID: id}, nil
	})

	if peak > workers {
		t.Errorf("Expected at most %d concurrent workers, observed %d", workers, peak)
	}
}

func TestPool_SequentialDefault(t *testing.T) {
	pool := NewPool(0)

	var order []string
	ids := []string{"o1", "o2", "o3"}
	pool.Run(context.Background(), ids, func(_ context.Context, id string) (*model.Assessment, error) {
		order = append(order, id)
		return nil, nil
	})

	// One worker means strict input order with no data race on the slice.
	for i, id := range ids {
		if order[i] != id {
			t.Fatalf("Expected sequential order, got %v", order)
		}
	}
}

func TestPool_CancelledContextDrains(t *testing.T) {
	pool := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())

	ids := []string{"o1", "o2", "o3"}
	var processed int
	results := pool.Run(ctx, ids, func(_ context.Context, id string) (*model.Assessment, error) {
		processed++
		cancel() // cancel after the first obligation
		return &model.Assessment{ObligationID: id}, nil
	})

	if processed != 1 {
		t.Fatalf("Expected 1 obligation processed before cancellation, got %d", processed)
	}
	for _, r := range results[1:] {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("Expected context error for %s, got %v", r.ObligationID, r.Err)
		}
	}
}
