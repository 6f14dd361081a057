// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"fmt"

	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

// Lock acquires a pool lock on alloc for accessor/access, refreshing
// alloc first if a read is requested and alloc currently lags its
// buffer's freshest sibling.
func (r *Registry) Lock(alloc *surface.Allocation, accessor surface.Accessor, access surface.AccessMask) (*Lock, error) {
	p := r.ByID(alloc.PoolID)
	if p == nil {
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}

	tok := newCaller()
	p.skirmish.Lock(tok)
	defer p.skirmish.Unlock(tok)

	if access&surface.AccessRead != 0 {
		r.refreshAllocation(p, alloc)
	}

	if pl, ok := p.Ops.(PreLocker); ok {
		if err := pl.PreLock(alloc, accessor, access); err != nil {
			return nil, fmt.Errorf("%s%w", prefix, err)
		}
	}

	lock := &Lock{Allocation: alloc, Buffer: alloc.Buffer()}
	if err := p.Ops.Lock(alloc, lock); err != nil {
		return nil, fmt.Errorf("%s%w", prefix, err)
	}
	alloc.Touch(accessor, access)
	return lock, nil
}

// Unlock releases lock, advancing alloc's freshness serial if it was
// locked for writing.
func (r *Registry) Unlock(alloc *surface.Allocation, lock *Lock, access surface.AccessMask) error {
	p := r.ByID(alloc.PoolID)
	if p == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}

	tok := newCaller()
	p.skirmish.Lock(tok)
	defer p.skirmish.Unlock(tok)

	if u, ok := p.Ops.(Unlocker); ok {
		if err := u.Unlock(alloc, lock); err != nil {
			return fmt.Errorf("%s%w", prefix, err)
		}
	}
	if access&surface.AccessWrite != 0 {
		if buf := alloc.Buffer(); buf != nil {
			alloc.Serial = buf.Write()
		}
	}
	return nil
}

// refreshAllocation pulls content from a fresher sibling into alloc
// when alloc is stale, so that a read accessor sees up-to-date pixels
// without a caller-visible copy step. It is a best-effort step: a pool
// pairing that does not support ReadWriter on both ends simply leaves
// alloc stale, same as a pool with no MuckOuter simply cannot be
// displaced.
func (r *Registry) refreshAllocation(p *Pool, alloc *surface.Allocation) {
	buf := alloc.Buffer()
	if buf == nil || alloc.Serial == buf.Serial() {
		return
	}
	for _, sib := range buf.Allocations {
		if sib == alloc || sib.Serial != buf.Serial() {
			continue
		}
		sibPool := r.ByID(sib.PoolID)
		if sibPool == nil {
			continue
		}
		if err := transferContent(sibPool, sib, p, alloc); err == nil {
			alloc.Serial = buf.Serial()
		}
		return
	}
}
