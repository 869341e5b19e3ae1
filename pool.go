package resume2pdf

import (
	"context"
	"runtime"
	"sync/atomic"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one page can render.
	MinPoolSize = 1

	// MaxPoolSize caps concurrent pages to limit browser memory.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// pagePool bounds the number of pages open at once in the shared browser.
// Slots are tokens in a buffered channel.
type pagePool struct {
	slots chan struct{}
	inUse atomic.Int64
}

func newPagePool(n int) *pagePool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &pagePool{slots: make(chan struct{}, n)}
}

// Acquire takes a slot, blocking until one is free or ctx is done.
func (p *pagePool) Acquire(ctx context.Context) error {
	// Fast path keeps an already-cancelled context from winning a free slot.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.slots <- struct{}{}:
		p.inUse.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot taken by Acquire.
func (p *pagePool) Release() {
	p.inUse.Add(-1)
	<-p.slots
}

// InUse returns the number of slots currently held.
func (p *pagePool) InUse() int {
	return int(p.inUse.Load())
}

// Size returns the pool capacity.
func (p *pagePool) Size() int {
	return cap(p.slots)
}

// ResolvePoolSize determines the number of concurrent pages.
// Priority: explicit workers > GOMAXPROCS-based calculation.
// Exported for use by servers and CLIs.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers.
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
