package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{Index: i, Namespace: "ns", Operation: fmt.Sprintf("op%d", i)}
	}
	return out
}

func TestRun_PreservesInputOrder(t *testing.T) {
	// The first item finishes last; its result must still come first.
	dispatch := func(_ context.Context, _, op string, _ map[string]any) (any, error) {
		if op == "op0" {
			time.Sleep(30 * time.Millisecond)
		}
		return op, nil
	}
	coord := NewCoordinator(dispatch, 4)

	results, err := coord.Run(context.Background(), items(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Value != fmt.Sprintf("op%d", i) {
			t.Errorf("result %d has value %v", i, r.Value)
		}
	}
}

func TestRun_FailedItemDoesNotAbortSiblings(t *testing.T) {
	dispatch := func(_ context.Context, _, op string, _ map[string]any) (any, error) {
		if op == "op1" {
			return nil, errors.New("lookup failed")
		}
		return op, nil
	}
	coord := NewCoordinator(dispatch, 0)

	results, err := coord.Run(context.Background(), items(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status != StatusSuccess || results[2].Status != StatusSuccess {
		t.Errorf("siblings should succeed: %+v", results)
	}
	if results[1].Status != StatusError {
		t.Fatalf("expected item 1 to fail: %+v", results[1])
	}
	if !strings.Contains(results[1].Error, "lookup failed") {
		t.Errorf("expected error message, got %q", results[1].Error)
	}
	if results[1].Value != nil {
		t.Errorf("failed item must not carry a value: %v", results[1].Value)
	}
}

func TestRun_BoundsInFlightDispatches(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex

	dispatch := func(_ context.Context, _, _ string, _ map[string]any) (any, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil, nil
	}
	coord := NewCoordinator(dispatch, 2)

	if _, err := coord.Run(context.Background(), items(8)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Errorf("expected at most 2 in flight, saw %d", peak)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dispatch := func(ctx context.Context, _, _ string, _ map[string]any) (any, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	coord := NewCoordinator(dispatch, 1)

	results, err := coord.Run(ctx, items(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if results != nil {
		t.Error("partial results must be discarded on cancellation")
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	coord := NewCoordinator(func(_ context.Context, _, _ string, _ map[string]any) (any, error) {
		t.Fatal("dispatch must not run")
		return nil, nil
	}, 1)
	results, err := coord.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
