package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	g := New(0)
	if got := g.Snapshot().MaxConcurrent; got != DefaultMaxConcurrent {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrent)
	}
}

func TestGate_ImmediateGrant(t *testing.T) {
	g := New(2)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := g.Snapshot().Active; got != 2 {
		t.Errorf("Active = %d, want 2", got)
	}

	g.Release()
	g.Release()
	if got := g.Snapshot().Active; got != 0 {
		t.Errorf("Active = %d after releases, want 0", got)
	}
}

func TestGate_BoundsConcurrency(t *testing.T) {
	const limit = 3
	const callers = 10

	g := New(limit)
	var active, maxSeen atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Execute(context.Background(), func(context.Context) error {
				cur := active.Add(1)
				for {
					seen := maxSeen.Load()
					if cur <= seen || maxSeen.CompareAndSwap(seen, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := maxSeen.Load(); got > limit {
		t.Errorf("observed %d concurrent operations, limit is %d", got, limit)
	}
	if got := g.Snapshot().MaxActive; got > limit {
		t.Errorf("MaxActive = %d, want <= %d", got, limit)
	}
}

func TestGate_FIFOOrder(t *testing.T) {
	g := New(1)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	const waiters = 5
	order := make(chan int, waiters)
	var wg sync.WaitGroup

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			order <- id
			g.Release()
		}(i)

		// Wait until this caller is queued before starting the next,
		// so arrival order is deterministic.
		for {
			if g.Snapshot().Waiting == i+1 {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}

	g.Release()
	wg.Wait()
	close(order)

	want := 0
	for id := range order {
		if id != want {
			t.Fatalf("waiter %d granted out of order, want %d", id, want)
		}
		want++
	}
	if want != waiters {
		t.Errorf("granted %d waiters, want %d", want, waiters)
	}
}

func TestGate_AcquireCancellation(t *testing.T) {
	g := New(1)

	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Acquire(ctx) }()

	for g.Snapshot().Waiting != 1 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	if err := <-done; err != context.Canceled {
		t.Errorf("Acquire = %v, want context.Canceled", err)
	}
	if got := g.Snapshot().Waiting; got != 0 {
		t.Errorf("Waiting = %d after cancellation, want 0", got)
	}

	// The held slot is unaffected; releasing it frees the gate.
	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire after release failed: %v", err)
	}
}

func TestGate_SlotTransferKeepsActiveStable(t *testing.T) {
	g := New(1)
	ctx := context.Background()

	if err := g.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	granted := make(chan struct{})
	go func() {
		if err := g.Acquire(ctx); err == nil {
			close(granted)
		}
	}()

	for g.Snapshot().Waiting != 1 {
		time.Sleep(time.Millisecond)
	}
	g.Release()
	<-granted

	if got := g.Snapshot().Active; got != 1 {
		t.Errorf("Active = %d after slot transfer, want 1", got)
	}
}
