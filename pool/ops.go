// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package pool implements the surface pool engine: a priority-ordered
// registry of pluggable allocators, negotiation, allocation, muck-out
// displacement with backup, and lock/unlock.
//
// The pool plugin ABI is one required interface plus a set of small
// optional capability interfaces a concrete pool type may or may not
// implement, discovered via type assertion, rather than a struct of
// function pointers where every field may be nil.
package pool

import (
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/region"
	"github.com/gviegas/wm/surface"
)

const prefix = "pool: "

// Priority orders pools within the priority view. Higher values sort
// first.
type Priority int

const (
	PriorityDefault Priority = iota
	PriorityPreferred
	PriorityUltimate
)

// Caps are the pool-level capability bits auto-derived from the
// description a pool returns from InitPool plus the optional
// interfaces it implements.
type Caps uint32

const (
	CapsNone              Caps = 0
	CapsVirtualAddressing Caps = 1 << iota
	CapsPhysicalAddressing
	CapsRead
	CapsWrite
)

// AccessTable is the per-accessor access mask a pool advertises.
type AccessTable map[surface.Accessor]surface.AccessMask

// Description is what a pool's InitPool call reports about itself.
type Description struct {
	// Name is a short, human-readable pool name; names longer than 44
	// characters are truncated by the registry.
	Name          string
	Caps          Caps
	Access        AccessTable
	AcceptedTypes surface.TypeFlags
	Priority      Priority
}

// Config describes the buffer configuration a pool is asked to
// allocate, probe, or pre-allocate for.
type Config struct {
	Width, Height int
	Format        surface.PixelFormat
	Caps          surface.Caps
}

// Lock carries the result of a successful pool Lock call: the
// allocation it locked and the address/pitch the caller should use to
// access its pixels.
type Lock struct {
	Allocation *surface.Allocation
	Buffer     *surface.Buffer
	Address    uintptr
	Pitch      int
}

// TestResult classifies a TestConfig probe.
type TestResult int

const (
	TestOK TestResult = iota
	TestNoMemory
	TestUnsupported
)

// PoolOps is the required subset of the pool plugin ABI: every other
// callback is optional and discovered via a type assertion against
// one of the interfaces below.
type PoolOps interface {
	// InitPool populates and returns this pool's description. It is
	// called exactly once, when the pool is registered.
	InitPool(core *ipc.Core) (Description, error)

	// DeallocateBuffer releases the resources backing alloc.
	DeallocateBuffer(alloc *surface.Allocation) error

	// Lock populates lock with the address and pitch to use for
	// alloc, after any PreLock hook has run.
	Lock(alloc *surface.Allocation, lock *Lock) error
}

// SizeHinter reports the pool's blob-sizing preferences. A PoolOps
// implementation already owns typed fields for its own state, so these
// hints are informational only (logged at Trace level) rather than
// used to size a raw byte blob.
type SizeHinter interface {
	PoolDataSize() int
	PoolLocalDataSize() int
	AllocationDataSize() int
}

// Joiner lets a non-master process attach to an already-initialized
// pool.
type Joiner interface {
	JoinPool(core *ipc.Core) error
}

// Destroyer tears down a pool's shared state. Called once, when the
// registering process removes the pool entirely.
type Destroyer interface {
	DestroyPool() error
}

// Leaver detaches this process's local state from a pool without
// affecting its shared state or its ID.
type Leaver interface {
	LeavePool() error
}

// ConfigTester probes whether a pool could service a configuration
// without actually allocating.
type ConfigTester interface {
	TestConfig(buf *surface.Buffer, cfg Config) (TestResult, error)
}

// BufferAllocator creates a new allocation for buf.
type BufferAllocator interface {
	AllocateBuffer(buf *surface.Buffer, cfg Config, accessor surface.Accessor, access surface.AccessMask) (*surface.Allocation, error)
}

// Unlocker releases a previously acquired Lock.
type Unlocker interface {
	Unlock(alloc *surface.Allocation, lock *Lock) error
}

// ReadWriter performs an out-of-lock rectangle transfer, used both by
// the public Read/Write helpers and by the engine's own
// allocation-refresh and backup paths.
type ReadWriter interface {
	Read(alloc *surface.Allocation, rect region.Rect, dst []byte, pitch int) error
	Write(alloc *surface.Allocation, rect region.Rect, src []byte, pitch int) error
}

// MuckOuter implements a pool's internal eviction policy: it marks
// candidate allocations of buf with surface.AllocMuckOut.
type MuckOuter interface {
	MuckOut(buf *surface.Buffer) error
}

// PreLocker runs before a Lock call, e.g. to fault in memory.
type PreLocker interface {
	PreLock(alloc *surface.Allocation, accessor surface.Accessor, access surface.AccessMask) error
}

// PreAllocer is consulted when a surface description carries a
// preallocated-memory hint, so the pool can decide whether it owns
// that memory.
type PreAllocer interface {
	PreAlloc(desc Description, cfg Config) (bool, error)
}

// KeyAllocator supports foreign/keyed memory import.
type KeyAllocator interface {
	CheckKey(buf *surface.Buffer, key uint64) (bool, error)
	AllocateKey(buf *surface.Buffer, key uint64) (*surface.Allocation, error)
}
