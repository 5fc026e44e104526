// Package gate provides a bounded concurrency gate with a FIFO wait
// queue. Each configured endpoint gets its own gate, so load on one
// instance cannot starve another.
package gate

import (
	"context"
	"sync"
)

// DefaultMaxConcurrent is the slot count used when none is configured.
const DefaultMaxConcurrent = 5

type waiter struct {
	ready chan struct{}
}

// Gate admits at most MaxConcurrent concurrent operations. Callers over
// the limit wait in arrival order; a released slot always goes to the
// head of the queue, never to a later arrival.
type Gate struct {
	mu      sync.Mutex
	limit   int
	active  int
	waiters []*waiter

	maxActive int
	granted   int64
}

// New creates a gate admitting up to maxConcurrent operations.
// Non-positive values fall back to DefaultMaxConcurrent.
func New(maxConcurrent int) *Gate {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Gate{limit: maxConcurrent}
}

// Acquire claims a slot, waiting in FIFO order if none is free. The wait
// is unbounded; it ends only when a slot is granted or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	g.mu.Lock()
	if g.active < g.limit && len(g.waiters) == 0 {
		g.active++
		g.granted++
		if g.active > g.maxActive {
			g.maxActive = g.active
		}
		g.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	g.waiters = append(g.waiters, w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		select {
		case <-w.ready:
			// Granted in the race with cancellation; hand the slot on.
			g.releaseLocked()
			g.mu.Unlock()
			return ctx.Err()
		default:
		}
		for i, queued := range g.waiters {
			if queued == w {
				g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
				break
			}
		}
		g.mu.Unlock()
		return ctx.Err()
	}
}

// Release frees a slot. If anyone is waiting, the slot transfers to the
// head of the queue without the active count ever dipping.
func (g *Gate) Release() {
	g.mu.Lock()
	g.releaseLocked()
	g.mu.Unlock()
}

func (g *Gate) releaseLocked() {
	if len(g.waiters) > 0 {
		w := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.granted++
		close(w.ready)
		return
	}
	if g.active > 0 {
		g.active--
	}
}

// Execute runs op inside an acquired slot.
func (g *Gate) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return op(ctx)
}

// Metrics is a point-in-time snapshot of gate state.
type Metrics struct {
	Active        int
	Waiting       int
	MaxActive     int
	MaxConcurrent int
	Granted       int64
}

// Snapshot returns current gate metrics.
func (g *Gate) Snapshot() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Metrics{
		Active:        g.active,
		Waiting:       len(g.waiters),
		MaxActive:     g.maxActive,
		MaxConcurrent: g.limit,
		Granted:       g.granted,
	}
}
