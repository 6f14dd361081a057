// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"fmt"
	"sync"

	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
	"github.com/gviegas/wm/wmlog"
)

const (
	maxNameLen = 44
	// maxPools bounds how many pools a shared table accepts.
	maxPools = 8
)

// caller identifies one top-level engine call to the skirmish locks.
// Every exported entry point (Allocate, Deallocate, Lock, Unlock,
// Displace) mints its own caller and threads it through the nested
// steps of that call, so legitimate re-entry within a call is granted
// while concurrent calls exclude each other. Passing the pool or
// surface itself would not do: every call would then present the same
// token and the lock would never exclude anyone. The struct must have
// nonzero size; pointers to distinct zero-size values can compare
// equal.
type caller struct{ _ byte }

func newCaller() *caller { return &caller{} }

// Pool is one registered allocator: its plugin, its description, the
// allocations currently placed in it, and the pool ID its backup
// transfers go to (-1 means none).
type Pool struct {
	ID     int
	Ops    PoolOps
	Desc   Description
	Backup int

	Allocations []*surface.Allocation

	skirmish *ipc.Skirmish
}

// sharedTable is the cross-process pool table: the set of pools that
// exist, indexed by ID. A single process registers pools into it via
// Registry.Initialize; other processes attach to the same pools, in
// the same order, via Registry.Join. Pools are never removed from the
// shared table (Leave only detaches the caller's own local view).
type sharedTable struct {
	mu    sync.Mutex
	core  *ipc.Core
	pools []*Pool
}

// NewSharedTable creates the cross-process pool table backing a set
// of Registry instances that represent the same pools from different
// processes' points of view.
func NewSharedTable(core *ipc.Core) *sharedTable {
	return &sharedTable{core: core}
}

// Registry is one process's view into a sharedTable: the pools it has
// initialized or joined, in the order it did so, plus a priority-ordered
// view over the same pools.
type Registry struct {
	table *sharedTable

	mu         sync.Mutex
	byID       []*Pool
	byPriority []*Pool
}

// NewRegistry creates a process-local registry bound to table. Pass
// the same table to multiple Registry values to simulate more than
// one process sharing the same pools.
func NewRegistry(table *sharedTable) *Registry {
	return &Registry{table: table}
}

// Initialize registers a brand-new pool, calling its InitPool hook and
// inserting it at the next shared ID. It is only meaningful for the
// process that owns (is the master of) this pool; other processes use
// Join to attach to the same ID.
func (r *Registry) Initialize(ops PoolOps) (*Pool, error) {
	r.table.mu.Lock()
	id := len(r.table.pools)
	if id >= maxPools {
		r.table.mu.Unlock()
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrLimitExceeded)
	}
	desc, err := ops.InitPool(r.table.core)
	if err != nil {
		r.table.mu.Unlock()
		return nil, fmt.Errorf("%s%w", prefix, err)
	}
	if len(desc.Name) > maxNameLen {
		desc.Name = desc.Name[:maxNameLen]
	}
	if _, ok := ops.(ReadWriter); ok {
		desc.Caps |= CapsRead | CapsWrite
	}
	p := &Pool{ID: id, Ops: ops, Desc: desc, Backup: -1, skirmish: ipc.NewSkirmish()}
	if id != 0 {
		p.Backup = 0
	}
	r.table.pools = append(r.table.pools, p)
	r.table.mu.Unlock()

	if sh, ok := ops.(SizeHinter); ok {
		wmlog.Trace("pool", fmt.Sprintf("pool %d size hints: pool=%d local=%d alloc=%d",
			id, sh.PoolDataSize(), sh.PoolLocalDataSize(), sh.AllocationDataSize()))
	}

	r.mu.Lock()
	r.byID = append(r.byID, p)
	r.byPriority = insertByPriority(r.byPriority, p)
	r.mu.Unlock()
	return p, nil
}

// EnsureSystemPool registers sysOps as pool 0, the default
// system-memory backup pool, if this registry has not registered or
// joined any pool yet. It is a no-op (returning the existing pool 0)
// otherwise.
func (r *Registry) EnsureSystemPool(sysOps PoolOps) (*Pool, error) {
	r.mu.Lock()
	n := len(r.byID)
	r.mu.Unlock()
	if n > 0 {
		return r.byID[0], nil
	}
	return r.Initialize(sysOps)
}

// Join attaches this registry to the pool registered at id, which must
// equal the number of pools this registry has already joined or
// initialized: join order must track init order.
func (r *Registry) Join(id int, ops PoolOps) (*Pool, error) {
	r.mu.Lock()
	next := len(r.byID)
	r.mu.Unlock()
	if id != next {
		return nil, fmt.Errorf("%s%w: join id %d, expected %d", prefix, wmerr.ErrBug, id, next)
	}

	r.table.mu.Lock()
	if id >= len(r.table.pools) {
		r.table.mu.Unlock()
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	p := r.table.pools[id]
	r.table.mu.Unlock()

	if j, ok := ops.(Joiner); ok {
		if err := j.JoinPool(r.table.core); err != nil {
			return nil, fmt.Errorf("%s%w", prefix, err)
		}
	}

	r.mu.Lock()
	r.byID = append(r.byID, p)
	r.byPriority = insertByPriority(r.byPriority, p)
	r.mu.Unlock()
	return p, nil
}

// Leave detaches this process's local view of the pool at id, calling
// its Leaver hook if present. The pool itself remains registered (its
// ID and shared state survive) for any other process still attached.
func (r *Registry) Leave(id int) error {
	r.mu.Lock()
	if id < 0 || id >= len(r.byID) || r.byID[id] == nil {
		r.mu.Unlock()
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	p := r.byID[id]
	r.mu.Unlock()

	if lv, ok := p.Ops.(Leaver); ok {
		if err := lv.LeavePool(); err != nil {
			return fmt.Errorf("%s%w", prefix, err)
		}
	}

	r.mu.Lock()
	r.byID[id] = nil
	for i, q := range r.byPriority {
		if q == p {
			r.byPriority = append(r.byPriority[:i], r.byPriority[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return nil
}

// Destroy tears down a pool entirely: only the process that owns it
// should call this. It calls the Destroyer hook if present; the pool
// stays in the shared table (its ID is never reused) but is removed
// from both of this registry's views.
func (r *Registry) Destroy(id int) error {
	r.mu.Lock()
	if id < 0 || id >= len(r.byID) || r.byID[id] == nil {
		r.mu.Unlock()
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	p := r.byID[id]
	r.mu.Unlock()

	if d, ok := p.Ops.(Destroyer); ok {
		if err := d.DestroyPool(); err != nil {
			return fmt.Errorf("%s%w", prefix, err)
		}
	}

	r.mu.Lock()
	r.byID[id] = nil
	for i, q := range r.byPriority {
		if q == p {
			r.byPriority = append(r.byPriority[:i], r.byPriority[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	return nil
}

// ByID returns the pool registered at id in this registry's view, or
// nil if none.
func (r *Registry) ByID(id int) *Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

// PriorityOrder returns a snapshot of pools from highest to lowest
// priority, ties broken by registration order.
func (r *Registry) PriorityOrder() []*Pool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pool, len(r.byPriority))
	copy(out, r.byPriority)
	return out
}

// insertByPriority performs a stable insertion of p into dst, ordered
// from highest to lowest Priority. Pools of equal priority keep the
// relative order in which they were inserted, since p is only ever
// placed immediately before the first strictly-lower-priority entry.
func insertByPriority(dst []*Pool, p *Pool) []*Pool {
	idx := len(dst)
	for i, q := range dst {
		if q.Desc.Priority < p.Desc.Priority {
			idx = i
			break
		}
	}
	dst = append(dst, nil)
	copy(dst[idx+1:], dst[idx:])
	dst[idx] = p
	return dst
}
