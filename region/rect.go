// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package region implements the pure geometry contracts the rest of
// this module builds on: rectangle/line/triangle clipping, the
// eight-way blit symmetry adjustment, and the fixed-capacity dirty
// region aggregator.
package region

// Point is an integer 2D coordinate.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned rectangle defined by its top-left corner
// and extent. W and H are always >= 0 for a non-empty rect; a zero W
// or H denotes an empty rect.
type Rect struct {
	X, Y, W, H int
}

// Right returns the rectangle's exclusive right edge (X+W).
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the rectangle's exclusive bottom edge (Y+H).
func (r Rect) Bottom() int { return r.Y + r.H }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Area returns the rectangle's area.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.W * r.H
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Touches reports whether r and o are edge-adjacent (share a boundary
// with overlapping extent on the other axis) without overlapping in
// area. Used by the update aggregator's "extends" rule.
func (r Rect) Touches(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	xOverlap := r.X < o.Right() && o.X < r.Right()
	yOverlap := r.Y < o.Bottom() && o.Y < r.Bottom()
	xAdjacent := r.Right() == o.X || o.Right() == r.X
	yAdjacent := r.Bottom() == o.Y || o.Bottom() == r.Y
	if xAdjacent && (yOverlap || r.Y == o.Y || r.Bottom() == o.Bottom()) {
		return true
	}
	if yAdjacent && (xOverlap || r.X == o.X || r.Right() == o.Right()) {
		return true
	}
	return false
}

// Union returns the smallest rectangle containing both r and o. An
// empty operand is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.Right(), o.Right())
	y1 := max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// IntersectInPlace clamps r to clip, in place. It returns false (and
// leaves *r set to the empty rect) if the two are disjoint.
func IntersectInPlace(r *Rect, clip Rect) bool {
	if r.Empty() || clip.Empty() {
		*r = Rect{}
		return false
	}
	x0 := max(r.X, clip.X)
	y0 := max(r.Y, clip.Y)
	x1 := min(r.Right(), clip.Right())
	y1 := min(r.Bottom(), clip.Bottom())
	if x0 >= x1 || y0 >= y1 {
		*r = Rect{}
		return false
	}
	*r = Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
	return true
}

// ClipRectangle returns the result of intersecting r with clip,
// leaving r untouched. ClipRectangle is idempotent: clipping an
// already-clipped rectangle against the same clip returns the same
// rectangle.
func ClipRectangle(clip, r Rect) Rect {
	out := r
	IntersectInPlace(&out, clip)
	return out
}
