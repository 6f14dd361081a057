// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ipc

import "sync"

// Barrier reproduces the explicit thread-initialization handshake
// described in the concurrency model: the creator waits until the new
// worker publishes its identity and readiness before proceeding,
// instead of racing ahead on the assumption that goroutine start is
// synchronous.
type Barrier struct {
	mu    sync.Mutex
	cond  *sync.Cond
	ready bool
	id    uint64
}

// NewBarrier creates a Barrier in the not-ready state.
func NewBarrier() *Barrier {
	b := &Barrier{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until Publish is called and returns the published ID.
func (b *Barrier) Wait() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.ready {
		b.cond.Wait()
	}
	return b.id
}

// Publish marks the barrier ready, waking any waiter with id.
func (b *Barrier) Publish(id uint64) {
	b.mu.Lock()
	b.id = id
	b.ready = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
