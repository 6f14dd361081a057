// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package surface

// AllocFlags are the per-allocation state flags.
type AllocFlags uint8

const (
	AllocNone AllocFlags = 0
	// AllocVolatile marks an allocation whose content may be discarded
	// without a backup (e.g. a pure render target).
	AllocVolatile AllocFlags = 1 << iota
	// AllocDeallocated marks an allocation that has already been torn
	// down; kept around only until its deallocation reaction has
	// fired.
	AllocDeallocated
	// AllocInitializing marks an allocation whose pool has not yet
	// finished AllocateBuffer.
	AllocInitializing
	// AllocMuckOut marks an allocation a pool's MuckOut callback has
	// selected as an eviction candidate.
	AllocMuckOut
)

// Allocation is a concrete placement of one Buffer in one pool. The
// pool reference is a numeric ID rather than a pointer: pools live in
// a Registry's arrays and are looked up by ID, so an Allocation never
// owns (or keeps alive) the pool it is placed in.
type Allocation struct {
	buffer *Buffer
	PoolID int

	Size   int64
	Offset int64
	Flags  AllocFlags
	Serial uint64

	// AccessHistory records which accessors have touched this
	// allocation and with what permissions, refreshed on each Lock.
	AccessHistory map[Accessor]AccessMask

	// PoolData is a pool-private blob a PoolOps implementation may
	// stash on the allocation (e.g. a backend buffer handle or a byte
	// offset into a shared arena).
	PoolData any
}

// NewAllocation creates an allocation placed in the given pool. It
// does not attach the allocation to any buffer or pool vector; use
// Buffer.AddAllocation and the pool registry's bookkeeping for that.
func NewAllocation(poolID int, size, offset int64) *Allocation {
	return &Allocation{
		PoolID:        poolID,
		Size:          size,
		Offset:        offset,
		AccessHistory: make(map[Accessor]AccessMask),
	}
}

// Buffer returns the buffer that owns this allocation, or nil if it
// has not been attached to one yet.
func (a *Allocation) Buffer() *Buffer { return a.buffer }

// Fresh reports whether this allocation is up to date with its
// buffer's current serial.
func (a *Allocation) Fresh() bool {
	return a.buffer != nil && a.Serial == a.buffer.serial
}

// Touch records that accessor touched this allocation with the given
// permissions, unioning into any existing history for that accessor.
func (a *Allocation) Touch(accessor Accessor, mask AccessMask) {
	if a.AccessHistory == nil {
		a.AccessHistory = make(map[Accessor]AccessMask)
	}
	a.AccessHistory[accessor] |= mask
}
