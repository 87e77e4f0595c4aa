package downloader

import (
	"context"
	"fmt"
)

// gate bounds the number of clone operations running at once. Capacity is
// fixed at construction; admission order is not FIFO, but every waiter is
// admitted as slots free up.
type gate struct {
	slots chan struct{}
}

func newGate(capacity int) (*gate, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("gate capacity must be at least 1, got %d", capacity)
	}
	return &gate{slots: make(chan struct{}, capacity)}, nil
}

// acquire blocks until a slot is free or ctx is done.
func (g *gate) acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees one slot, admitting a single waiter if any are blocked.
func (g *gate) release() {
	<-g.slots
}
