// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package shm implements the default "pool 0": a process-shared
// system-memory pool, physically addressable and CPU read/write,
// that every other pool falls back to as its backup target (see
// pool.Registry.EnsureSystemPool). It follows the Wayland
// wl_shm/wl_shm_pool model (a single fixed-size arena subdivided into
// wl_shm_pool-style buffers) rather than a real shared-memory syscall,
// since the IPC fabric that would back a true cross-process mapping is
// a collaborator this module doesn't link; the arena here is just a
// []byte that every Pool method treats as if it were that mapping.
package shm

import (
	"fmt"
	"sync"
	"unsafe"

	"honnef.co/go/safeish"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/internal/bitm"
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/pool"
	"github.com/gviegas/wm/region"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

const prefix = "shm: "

// granularity is the block size the free-list bitmap tracks, matching
// wl_shm_pool's page-granularity subdivision of its backing fd.
const granularity = 4096

// Pool is a pool.PoolOps implementation backing surface.Allocation
// content with a single fixed-size byte arena, addressed by safeish's
// checked pointer casts instead of raw unsafe.Pointer arithmetic.
type Pool struct {
	name  string
	debug bool

	mu     sync.Mutex
	arena  []byte
	free   bitm.Bitm[uint64]
	blocks map[*surface.Allocation]block
}

type block struct {
	index int
	units int
}

// New creates a Pool with at least sizeBytes of backing storage,
// rounded up to a whole number of granularity blocks. Passing sizeBytes <= 0 takes the configured SHM pool size;
// the debug-SHM option turns on poisoning of freed blocks so a stale
// cached pointer reads garbage instead of old pixels.
func New(name string, sizeBytes int64) *Pool {
	opts := config.Current()
	if sizeBytes <= 0 {
		sizeBytes = int64(opts.SHMPoolSize)
	}
	if sizeBytes <= 0 {
		sizeBytes = 4 << 20
	}
	units := int((sizeBytes + granularity - 1) / granularity)
	words := (units + 63) / 64
	if words == 0 {
		words = 1
	}

	p := &Pool{
		name:   name,
		debug:  opts.DebugSHM,
		arena:  make([]byte, units*granularity),
		blocks: make(map[*surface.Allocation]block),
	}
	p.free.Grow(words)
	// The bitmap is a whole number of words; the bits past the arena's
	// end are marked used so they can never be handed out.
	for i := units; i < words*64; i++ {
		p.free.Set(i)
	}
	return p
}

// InitPool reports this pool's description: physically addressable,
// CPU read/write/shared, and accepting every type flag except external
// and preallocated, so it can serve as the backup for any other pool.
func (p *Pool) InitPool(*ipc.Core) (pool.Description, error) {
	return pool.Description{
		Name: p.name,
		Caps: pool.CapsPhysicalAddressing,
		Access: pool.AccessTable{
			surface.AccessorCPU: surface.AccessRead | surface.AccessWrite | surface.AccessShared,
		},
		AcceptedTypes: surface.TypeWindow | surface.TypeLayer | surface.TypeCursor |
			surface.TypeFont | surface.TypeShared | surface.TypeInternal,
		Priority: pool.PriorityDefault,
	}, nil
}

func sizeOf(cfg pool.Config) int64 {
	bpp := int64(4)
	switch cfg.Format {
	case surface.FormatRGB565, surface.FormatA8:
		bpp = 2
	}
	align := config.Current().Align
	pitch := int64(align.AlignPitch(int(int64(cfg.Width) * bpp)))
	return int64(align.Align(int(pitch * int64(cfg.Height))))
}

// TestConfig probes whether a contiguous run of free blocks large
// enough for cfg currently exists, without reserving it.
func (p *Pool) TestConfig(_ *surface.Buffer, cfg pool.Config) (pool.TestResult, error) {
	units := p.unitsFor(sizeOf(cfg))
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.free.SearchRange(units); !ok {
		return pool.TestNoMemory, nil
	}
	return pool.TestOK, nil
}

func (p *Pool) unitsFor(size int64) int {
	if size <= 0 {
		size = 1
	}
	return int((size + granularity - 1) / granularity)
}

// AllocateBuffer reserves a contiguous run of blocks for cfg.
func (p *Pool) AllocateBuffer(_ *surface.Buffer, cfg pool.Config, _ surface.Accessor, _ surface.AccessMask) (*surface.Allocation, error) {
	size := sizeOf(cfg)
	units := p.unitsFor(size)

	p.mu.Lock()
	defer p.mu.Unlock()
	idx, ok := p.free.SearchRange(units)
	if !ok {
		return nil, fmt.Errorf("%s%w", prefix, wmerr.ErrNoMemory)
	}
	for i := idx; i < idx+units; i++ {
		p.free.Set(i)
	}

	a := surface.NewAllocation(0, size, int64(idx)*granularity)
	p.blocks[a] = block{index: idx, units: units}
	return a, nil
}

// DeallocateBuffer releases alloc's blocks back to the free list.
func (p *Pool) DeallocateBuffer(alloc *surface.Allocation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.blocks[alloc]
	if !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	if p.debug {
		poison := p.arena[b.index*granularity : (b.index+b.units)*granularity]
		for i := range poison {
			poison[i] = 0x55
		}
	}
	for i := b.index; i < b.index+b.units; i++ {
		p.free.Unset(i)
	}
	delete(p.blocks, alloc)
	return nil
}

// Lock populates lock with a safeish-cast address into the arena and
// the allocation's byte size as a trivial single-row pitch (the real
// pitch/format accounting belongs to the pixel-blitting collaborator).
func (p *Pool) Lock(alloc *surface.Allocation, lock *pool.Lock) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if alloc.Offset < 0 || alloc.Offset+alloc.Size > int64(len(p.arena)) {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	ptr := unsafe.Pointer(&p.arena[alloc.Offset])
	lock.Address = safeish.Cast[uintptr](ptr)
	lock.Pitch = int(alloc.Size)
	return nil
}

// Read copies rect's worth of bytes (the caller is responsible for
// intersecting rect with the surface's extent) out of alloc's region
// of the arena.
func (p *Pool) Read(alloc *surface.Allocation, rect region.Rect, dst []byte, pitch int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.blocks[alloc]; !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	n := int64(len(dst))
	if n > alloc.Size {
		n = alloc.Size
	}
	copy(dst, p.arena[alloc.Offset:alloc.Offset+n])
	return nil
}

// Write copies src into alloc's region of the arena.
func (p *Pool) Write(alloc *surface.Allocation, rect region.Rect, src []byte, pitch int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.blocks[alloc]; !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	n := int64(len(src))
	if n > alloc.Size {
		n = alloc.Size
	}
	copy(p.arena[alloc.Offset:alloc.Offset+n], src)
	return nil
}
