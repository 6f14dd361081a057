// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package region

import "testing"

func TestClipRectangleIdempotent(t *testing.T) {
	clip := Rect{X: 10, Y: 10, W: 20, H: 20}
	cases := []Rect{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 15, Y: 15, W: 5, H: 5},
		{X: 25, Y: 25, W: 10, H: 10},
		{X: -5, Y: -5, W: 5, H: 5},
	}
	for _, r := range cases {
		once := ClipRectangle(clip, r)
		twice := ClipRectangle(clip, once)
		if once != twice {
			t.Errorf("ClipRectangle not idempotent for %+v: once=%+v twice=%+v", r, once, twice)
		}
	}
}

func TestIntersectInPlaceDisjoint(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 5, H: 5}
	ok := IntersectInPlace(&r, Rect{X: 10, Y: 10, W: 5, H: 5})
	if ok {
		t.Fatal("expected disjoint intersection to fail")
	}
	if r != (Rect{}) {
		t.Fatalf("expected empty rect after failed intersect, got %+v", r)
	}
}

func TestClipLineTrivialReject(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 10, H: 10}
	line := Line{X0: -5, Y0: -5, X1: -1, Y1: -1}
	if ClipLine(clip, &line) {
		t.Fatal("expected line entirely outside clip to be rejected")
	}
}

func TestClipLineThroughClip(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 10, H: 10}
	line := Line{X0: -5, Y0: 5, X1: 15, Y1: 5}
	if !ClipLine(clip, &line) {
		t.Fatal("expected line through clip to be accepted")
	}
	if line.X0 < clip.X || line.X1 >= clip.Right() {
		t.Fatalf("clipped line out of bounds: %+v", line)
	}
}

// clip = {(10,10)-(20,20)}, triangle = (0,0)-(5,5)-(0,5).
// All three edges lie entirely outside clip (colinear with or behind
// the main diagonal), so both diagonal intersections fail for the
// first edge and the call must report false with a zero vertex count.
func TestClipTriangleDegenerate(t *testing.T) {
	clip := Rect{X: 10, Y: 10, W: 10, H: 10}
	tri := Triangle{{0, 0}, {5, 5}, {0, 5}}
	var out [6]Point
	n, ok := ClipTriangle(clip, tri, &out)
	if ok {
		t.Fatalf("expected degenerate clip to fail, got n=%d out=%v", n, out)
	}
	if n != 0 {
		t.Fatalf("expected 0 vertices, got %d", n)
	}
}

func TestClipTriangleInside(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 100, H: 100}
	tri := Triangle{{10, 10}, {20, 10}, {10, 20}}
	var out [6]Point
	n, ok := ClipTriangle(clip, tri, &out)
	if !ok || n != 3 {
		t.Fatalf("expected fully-inside triangle to pass through unchanged, got n=%d ok=%v", n, ok)
	}
	for i, p := range tri {
		if out[i] != p {
			t.Errorf("vertex %d changed: want %+v got %+v", i, p, out[i])
		}
	}
}

// One edge crosses the clip boundary (ca&cb==0 with only one endpoint
// inside), so the naive outcode AND-test alone cannot tell this
// edge apart from a fully-inside one: the edge (5,5)-(15,5) has
// ca=0, cb=codeRight, so ca&cb==0, yet the edge still needs clipping
// at x=9 (the boundary is exclusive, clip.Right()-1). Regression for
// the case where this used to silently emit the unclipped vertex
// (15,5) instead of running it through ClipLine.
func TestClipTrianglePartialEdge(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 10, H: 10}
	tri := Triangle{{5, 5}, {15, 5}, {15, 15}}
	var out [6]Point
	n, ok := ClipTriangle(clip, tri, &out)
	if !ok {
		t.Fatalf("expected partially-outside triangle to clip successfully, got n=%d", n)
	}
	for i := 0; i < n; i++ {
		if out[i].X >= clip.Right() || out[i].Y >= clip.Bottom() {
			t.Errorf("vertex %d out of clip bounds: %+v", i, out[i])
		}
	}
	want := []Point{{5, 5}, {9, 5}, {9, 9}}
	if n != len(want) {
		t.Fatalf("expected %d vertices, got %d: %v", len(want), n, out[:n])
	}
	for i, p := range want {
		if out[i] != p {
			t.Errorf("vertex %d: want %+v got %+v", i, p, out[i])
		}
	}
}

// Every one of the eight symmetry operations maps the four clip
// deltas onto the correct source edges. The deltas are left 2, top 3,
// right 3 and bottom 5; only top and right share a value, so most
// wrong mappings change the result.
func TestClipBlitFlippedRotated(t *testing.T) {
	clip := Rect{X: 2, Y: 3, W: 5, H: 12}
	dstIn := Rect{X: 0, Y: 0, W: 10, H: 20}
	srcIn := Rect{X: 100, Y: 200, W: 20, H: 10}
	wantDst := Rect{X: 2, Y: 3, W: 5, H: 12}

	cases := []struct {
		name    string
		sym     Symmetry
		wantSrc Rect
	}{
		{"identity", Identity, Rect{X: 102, Y: 203, W: 15, H: 2}},
		{"flipH", FlipH, Rect{X: 103, Y: 203, W: 15, H: 2}},
		{"flipV", FlipV, Rect{X: 102, Y: 205, W: 15, H: 2}},
		{"flipHV", FlipH | FlipV, Rect{X: 103, Y: 205, W: 15, H: 2}},
		{"rot90", Rotate90, Rect{X: 105, Y: 202, W: 12, H: 5}},
		{"rot90FlipH", Rotate90 | FlipH, Rect{X: 103, Y: 202, W: 12, H: 5}},
		{"rot90FlipV", Rotate90 | FlipV, Rect{X: 105, Y: 203, W: 12, H: 5}},
		{"rot90FlipHV", Rotate90 | FlipH | FlipV, Rect{X: 103, Y: 203, W: 12, H: 5}},
	}
	for _, c := range cases {
		src, dst := srcIn, dstIn
		if !ClipBlitFlippedRotated(clip, &src, &dst, c.sym) {
			t.Errorf("%s: expected clip to succeed", c.name)
			continue
		}
		if dst != wantDst {
			t.Errorf("%s: dst = %+v, want %+v", c.name, dst, wantDst)
		}
		if src != c.wantSrc {
			t.Errorf("%s: src = %+v, want %+v", c.name, src, c.wantSrc)
		}
	}
}

func TestClipBlitFlippedRotatedDisjoint(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 10, H: 10}
	src := Rect{X: 0, Y: 0, W: 5, H: 5}
	dst := Rect{X: 20, Y: 20, W: 5, H: 5}
	if ClipBlitFlippedRotated(clip, &src, &dst, Identity) {
		t.Fatal("expected a destination entirely outside the clip to be rejected")
	}
}

// A triangle whose vertices lie outside three different sides of the
// clip rect drives two of its three edges into the diagonal fallback
// (ClipLine rejects both outright). Neither edge crosses either finite
// diagonal of the clip rect, so both take the "redundant edge" branch
// and are dropped; only the third edge survives, clipped by ClipLine to
// (5,9)-(5,0). Two vertices are too few for a polygon, so the call
// reports false.
func TestClipTriangleTwoEdgesClipped(t *testing.T) {
	clip := Rect{X: 0, Y: 0, W: 10, H: 10}
	tri := Triangle{{5, -5}, {15, 5}, {5, 15}}
	var out [6]Point
	n, ok := ClipTriangle(clip, tri, &out)
	if ok {
		t.Fatalf("expected clip to report fewer than 3 vertices, got n=%d ok=%v", n, ok)
	}
	for i := 0; i < n; i++ {
		if out[i].X < clip.X || out[i].X >= clip.Right() || out[i].Y < clip.Y || out[i].Y >= clip.Bottom() {
			t.Errorf("vertex %d out of clip bounds: %+v", i, out[i])
		}
	}
	want := []Point{{5, 9}, {5, 0}}
	if n != len(want) {
		t.Fatalf("expected %d vertices, got %d: %v", len(want), n, out[:n])
	}
	for i, p := range want {
		if out[i] != p {
			t.Errorf("vertex %d: want %+v got %+v", i, p, out[i])
		}
	}
}
