// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"fmt"

	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

// maxDisplaceRetries bounds how many passes Displace makes over its
// muck-out candidates before giving up on contended surface locks.
const maxDisplaceRetries = 3

// Displace tries to free enough of p to place buffer, by asking p's
// MuckOuter (if any) to flag eviction candidates, backing up their
// content elsewhere, and decoupling them from p. On success it
// allocates buffer into the freshly-freed space.
func (r *Registry) Displace(p *Pool, buffer *surface.Buffer, accessor surface.Accessor, access surface.AccessMask) (*surface.Allocation, error) {
	return r.displace(newCaller(), p, buffer, accessor, access)
}

func (r *Registry) displace(tok *caller, p *Pool, buffer *surface.Buffer, accessor surface.Accessor, access surface.AccessMask) (*surface.Allocation, error) {
	mo, ok := p.Ops.(MuckOuter)
	if !ok {
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrNoMemory)
	}

	p.skirmish.Lock(tok)
	if err := mo.MuckOut(buffer); err != nil {
		p.skirmish.Unlock(tok)
		return nil, fmt.Errorf("%s%w", prefix, err)
	}
	var candidates []*surface.Allocation
	for _, a := range p.Allocations {
		if a.Flags&surface.AllocMuckOut != 0 {
			candidates = append(candidates, a)
		}
	}
	p.skirmish.Unlock(tok)

	pending := candidates
	for attempt := 0; attempt < maxDisplaceRetries && len(pending) > 0; attempt++ {
		var next []*surface.Allocation
		for _, a := range pending {
			if r.displaceOne(tok, p, a) {
				continue
			}
			next = append(next, a)
		}
		pending = next
	}

	if len(pending) > 0 {
		for _, a := range pending {
			a.Flags &^= surface.AllocMuckOut
		}
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrLocked)
	}

	return r.poolAllocate(tok, p, buffer, accessor, access, nil)
}

// displaceOne attempts to back up and decouple one candidate
// allocation. It returns false (asking for a retry) if the owning
// surface's lock is contended or the backup could not be completed.
func (r *Registry) displaceOne(tok *caller, p *Pool, a *surface.Allocation) bool {
	buf := a.Buffer()
	if buf == nil {
		return true
	}
	surf := buf.Owner()
	if surf == nil {
		return true
	}
	if !surf.TryLock(tok) {
		return false
	}
	defer surf.Unlock(tok)

	if !r.backupAllocation(tok, p, a) {
		return false
	}

	p.skirmish.Lock(tok)
	if err := p.Ops.DeallocateBuffer(a); err != nil {
		p.skirmish.Unlock(tok)
		return false
	}
	for i, q := range p.Allocations {
		if q == a {
			p.Allocations = append(p.Allocations[:i], p.Allocations[i+1:]...)
			break
		}
	}
	p.skirmish.Unlock(tok)
	buf.RemoveAllocation(a)
	a.Flags &^= surface.AllocMuckOut
	a.Flags |= surface.AllocDeallocated
	return true
}

// backupAllocation preserves a's content before it is displaced from
// p, if it is the sole up-to-date copy of its buffer. It prefers
// refreshing a still-live sibling allocation over spending a new
// allocation in the backup pool.
func (r *Registry) backupAllocation(tok *caller, p *Pool, a *surface.Allocation) bool {
	if a.Flags&surface.AllocVolatile != 0 {
		return true
	}
	buf := a.Buffer()
	if buf == nil || a.Serial != buf.Serial() {
		return true // not the sole fresh copy: nothing to preserve
	}
	for _, sib := range buf.Allocations {
		if sib != a && sib.Serial == buf.Serial() {
			return true // a sibling is already fresh
		}
	}
	for _, sib := range buf.Allocations {
		if sib == a {
			continue
		}
		sibPool := r.ByID(sib.PoolID)
		if sibPool == nil {
			continue
		}
		if err := transferContent(p, a, sibPool, sib); err == nil {
			sib.Serial = buf.Serial()
			return true
		}
	}

	if p.Backup < 0 {
		return false
	}
	backup := r.ByID(p.Backup)
	if backup == nil {
		return false
	}
	nb, err := r.poolAllocate(tok, backup, buf, surface.AccessorCPU, surface.AccessRead|surface.AccessWrite, nil)
	if err != nil {
		return false
	}
	if err := transferContent(p, a, backup, nb); err != nil {
		return false
	}
	nb.Serial = buf.Serial()
	return true
}
