// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package surface

import (
	"testing"

	"github.com/gviegas/wm/region"
)

func TestFlipMonotonic(t *testing.T) {
	s := New(1, 64, 64, FormatARGB8888, CapsDoubleBuffer, PolicyPreferred, TypeWindow)
	var last uint64
	for i := 0; i < 5; i++ {
		s.Flip(int64(i))
		if s.FlipCount() <= last {
			t.Fatalf("flip count did not increase: %d <= %d", s.FlipCount(), last)
		}
		last = s.FlipCount()
	}
}

// At any time there exists at least one allocation whose serial
// matches the buffer's serial, unless the buffer has no allocations
// at all.
func TestBufferFreshnessInvariant(t *testing.T) {
	s := New(1, 64, 64, FormatARGB8888, CapsNone, PolicyPreferred, TypeWindow)
	b := s.AddBuffer()

	a1 := NewAllocation(0, 4096, 0)
	b.AddAllocation(a1)
	a1.Serial = b.Write() // a1 now fresh

	if f := b.FreshAllocation(); f != a1 {
		t.Fatalf("expected a1 fresh after its own write, got %v", f)
	}

	a2 := NewAllocation(1, 4096, 0)
	b.AddAllocation(a2)
	// a2 has not observed the write yet: still stale.
	if f := b.FreshAllocation(); f != a1 {
		t.Fatalf("expected a1 still fresh, got %v", f)
	}

	b.Write() // new write, both a1 and a2 now stale
	if f := b.FreshAllocation(); f != nil {
		t.Fatalf("expected no fresh allocation immediately after write, got %v", f)
	}
	a2.Serial = b.Serial() // refresh a2 from a1 (simulated) and lock it in
	if f := b.FreshAllocation(); f != a2 {
		t.Fatalf("expected a2 fresh after refresh, got %v", f)
	}
}

func TestSetRectsNesting(t *testing.T) {
	s := New(1, 800, 600, FormatARGB8888, CapsNone, PolicyPreferred, TypeWindow)
	parent := region.Rect{X: 0, Y: 0, W: 800, H: 600}
	ok := Rects{
		Parent:  parent,
		Current: region.Rect{X: 0, Y: 0, W: 400, H: 300},
		Granted: region.Rect{X: 10, Y: 10, W: 300, H: 200},
		Wanted:  region.Rect{X: 20, Y: 20, W: 100, H: 100},
	}
	if err := s.SetRects(ok); err != nil {
		t.Fatalf("expected valid nesting to succeed: %v", err)
	}

	bad := ok
	bad.Wanted = region.Rect{X: 0, Y: 0, W: 500, H: 500} // escapes granted
	if err := s.SetRects(bad); err == nil {
		t.Fatal("expected wanted escaping granted to fail")
	}

	badClip := ok
	badClip.ClipSet = true
	badClip.ClipWanted = region.Rect{X: 0, Y: 0, W: 1000, H: 1000}
	if err := s.SetRects(badClip); err == nil {
		t.Fatal("expected clip_wanted escaping wanted to fail")
	}
}
