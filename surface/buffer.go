// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package surface

// Buffer is one frame-worth of pixels at the logical level: a
// monotonic serial tagged by each write, and the set of concrete
// Allocations that place it in one or more pools.
type Buffer struct {
	owner *Surface

	serial      uint64
	Allocations []*Allocation
}

// Owner returns the Surface that owns this buffer.
func (b *Buffer) Owner() *Surface { return b.owner }

// Serial returns the buffer's current write serial.
func (b *Buffer) Serial() uint64 { return b.serial }

// Write advances the buffer's serial, as if new pixel content had
// just been committed. The caller is expected to have exclusive
// access (the surface lock held) when calling this.
func (b *Buffer) Write() uint64 {
	b.serial++
	return b.serial
}

// AddAllocation appends alloc to this buffer's allocation vector and
// sets alloc's back-reference. The caller is responsible for also
// inserting alloc into the owning pool's allocation vector (see
// package pool), since the two vectors share ownership of the same
// allocation.
func (b *Buffer) AddAllocation(alloc *Allocation) {
	alloc.buffer = b
	b.Allocations = append(b.Allocations, alloc)
}

// RemoveAllocation removes alloc from this buffer's allocation
// vector. It is a no-op if alloc is not present.
func (b *Buffer) RemoveAllocation(alloc *Allocation) {
	for i, a := range b.Allocations {
		if a == alloc {
			b.Allocations = append(b.Allocations[:i], b.Allocations[i+1:]...)
			return
		}
	}
}

// FreshAllocation returns the allocation, if any, whose serial equals
// the buffer's current serial. It returns nil if the buffer has no
// allocations, but every buffer with at least one allocation must
// have exactly one such allocation at rest.
func (b *Buffer) FreshAllocation() *Allocation {
	for _, a := range b.Allocations {
		if a.Serial == b.serial {
			return a
		}
	}
	return nil
}
