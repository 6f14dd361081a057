// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"errors"
	"fmt"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
	"github.com/gviegas/wm/wmlog"
)

// Allocate negotiates and places a new allocation for buffer, trying
// negotiated pools in priority order. Pools that fail with an
// out-of-memory error are retried through displacement after every
// pool has had a first-pass try; pools that fail for any other reason
// are dropped entirely.
func (r *Registry) Allocate(buffer *surface.Buffer, accessor surface.Accessor, access surface.AccessMask, isSlave bool) (*surface.Allocation, *Pool, error) {
	order, status, err := r.Negotiate(buffer, accessor, access, 0, isSlave)
	if err != nil {
		return nil, nil, err
	}
	if status == StatusUnsupported {
		return nil, nil, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}

	tok := newCaller()
	var retry []*Pool
	var lastErr error
	for _, p := range order {
		alloc, err := r.poolAllocate(tok, p, buffer, accessor, access, nil)
		if err == nil {
			return alloc, p, nil
		}
		if isOOM(err) {
			retry = append(retry, p)
		}
		lastErr = err
	}

	for _, p := range retry {
		alloc, err := r.displace(tok, p, buffer, accessor, access)
		if err == nil {
			return alloc, p, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = wmerr.ErrNoMemory
	}
	return nil, nil, fmt.Errorf("%s%w", prefix, lastErr)
}

// AllocateKey imports a foreign allocation identified by key. Pools
// are scanned in priority order; the first whose type mask accepts the
// buffer's type (ignoring the prealloc/internal/external bits) and
// whose CheckKey accepts key performs the import.
func (r *Registry) AllocateKey(buffer *surface.Buffer, key uint64) (*surface.Allocation, *Pool, error) {
	tok := newCaller()
	surf := buffer.Owner()
	typ := surf.Type &^ (surface.TypePreallocated | surface.TypeInternal | surface.TypeExternal)
	for _, p := range r.PriorityOrder() {
		if p.Desc.AcceptedTypes&typ != typ {
			continue
		}
		if _, ok := p.Ops.(KeyAllocator); !ok {
			continue
		}
		alloc, err := r.poolAllocate(tok, p, buffer, surface.AccessorCPU, surface.AccessRead, &key)
		if err != nil {
			continue
		}
		return alloc, p, nil
	}
	return nil, nil, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
}

func isOOM(err error) bool {
	return errors.Is(err, wmerr.ErrNoMemory) || errors.Is(err, wmerr.ErrNoVideoMemory)
}

func (r *Registry) poolAllocate(tok *caller, p *Pool, buffer *surface.Buffer, accessor surface.Accessor, access surface.AccessMask, key *uint64) (*surface.Allocation, error) {
	p.skirmish.Lock(tok)
	defer p.skirmish.Unlock(tok)

	var alloc *surface.Allocation
	var err error
	if key != nil {
		ka, implemented := p.Ops.(KeyAllocator)
		if !implemented {
			return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
		}
		var valid bool
		valid, err = ka.CheckKey(buffer, *key)
		if err != nil {
			return nil, fmt.Errorf("%s%w", prefix, err)
		}
		if !valid {
			return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
		}
		alloc, err = ka.AllocateKey(buffer, *key)
	} else {
		ba, implemented := p.Ops.(BufferAllocator)
		if !implemented {
			return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
		}
		surf := buffer.Owner()
		cfg := Config{Width: surf.Width, Height: surf.Height, Format: surf.Format, Caps: surf.Caps}
		alloc, err = ba.AllocateBuffer(buffer, cfg, accessor, access)
	}
	if err != nil {
		return nil, err
	}

	if warn := config.Current().WarnAllocateBytes; warn > 0 && alloc.Size > warn {
		wmlog.Warn("pool", fmt.Sprintf("allocation of %d bytes in pool %d exceeds the configured warn threshold (%d)",
			alloc.Size, p.ID, warn))
	}

	alloc.PoolID = p.ID
	alloc.Flags |= surface.AllocInitializing
	wasFirst := len(buffer.Allocations) == 0
	buffer.AddAllocation(alloc)
	p.Allocations = append(p.Allocations, alloc)
	alloc.Flags &^= surface.AllocInitializing
	alloc.Touch(surface.AccessorCPU, surface.AccessRead|surface.AccessWrite)
	if wasFirst {
		// A buffer's first-ever allocation is trivially fresh: no
		// content has been written yet that it could lag behind.
		alloc.Serial = buffer.Serial()
	}
	return alloc, nil
}

// Deallocate tears down alloc, removing it from both its buffer's and
// its pool's bookkeeping and firing the owning surface's deallocation
// reaction.
func (r *Registry) Deallocate(alloc *surface.Allocation) error {
	p := r.ByID(alloc.PoolID)
	if p == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	tok := newCaller()
	p.skirmish.Lock(tok)
	defer p.skirmish.Unlock(tok)

	if err := p.Ops.DeallocateBuffer(alloc); err != nil {
		return fmt.Errorf("%s%w", prefix, err)
	}

	for i, a := range p.Allocations {
		if a == alloc {
			p.Allocations = append(p.Allocations[:i], p.Allocations[i+1:]...)
			break
		}
	}
	if buf := alloc.Buffer(); buf != nil {
		buf.RemoveAllocation(alloc)
		if surf := buf.Owner(); surf != nil {
			surf.Reactions.Dispatch(DeallocatedEvent{Allocation: alloc})
		}
	}
	alloc.Flags |= surface.AllocDeallocated
	return nil
}

// DeallocatedEvent is posted to a surface's reactor when one of its
// allocations is torn down.
type DeallocatedEvent struct {
	Allocation *surface.Allocation
}
