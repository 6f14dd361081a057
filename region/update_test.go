// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package region

import "testing"

// After any Add sequence, the aggregator's bounding rectangle equals
// the geometric union of all added regions, and the returned region
// set, unioned together, equals that bounding rectangle too.
func TestUpdatesBoundingMatchesUnion(t *testing.T) {
	u := NewUpdates(3)
	adds := []Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 50, Y: 50, W: 10, H: 10},
		{X: 100, Y: 0, W: 5, H: 5},
		{X: 200, Y: 200, W: 1, H: 1}, // forces a collapse past capacity
	}
	var want Rect
	for _, r := range adds {
		u.Add(r)
		want = want.Union(r)
	}
	if u.Bounding() != want {
		t.Fatalf("bounding mismatch: got %+v want %+v", u.Bounding(), want)
	}
	var gotUnion Rect
	for _, r := range u.GetRectangles() {
		gotUnion = gotUnion.Union(r)
	}
	if gotUnion != want {
		t.Fatalf("returned rectangles' union mismatch: got %+v want %+v", gotUnion, want)
	}
}

func TestUpdatesMergesOverlapping(t *testing.T) {
	u := NewUpdates(4)
	u.Add(Rect{X: 0, Y: 0, W: 10, H: 10})
	u.Add(Rect{X: 5, Y: 5, W: 10, H: 10})
	if u.NumRegions() != 1 {
		t.Fatalf("expected overlapping regions to merge into 1, got %d", u.NumRegions())
	}
}

func TestUpdatesCollapsesAtCapacity(t *testing.T) {
	u := NewUpdates(2)
	u.Add(Rect{X: 0, Y: 0, W: 1, H: 1})
	u.Add(Rect{X: 100, Y: 0, W: 1, H: 1})
	u.Add(Rect{X: 200, Y: 0, W: 1, H: 1}) // disjoint, over capacity -> collapse
	if u.NumRegions() != 1 {
		t.Fatalf("expected collapse to a single bounding region, got %d", u.NumRegions())
	}
	if u.Bounding() != (Rect{X: 0, Y: 0, W: 201, H: 1}) {
		t.Fatalf("unexpected bounding after collapse: %+v", u.Bounding())
	}
}
