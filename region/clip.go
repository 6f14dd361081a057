// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package region

// Outcode bits: above|below|right|left as bits 8|4|2|1.
const (
	codeLeft  = 1
	codeRight = 2
	codeBelow = 4
	codeAbove = 8
)

func outcode(clip Rect, p Point) int {
	var c int
	switch {
	case p.X < clip.X:
		c |= codeLeft
	case p.X >= clip.Right():
		c |= codeRight
	}
	switch {
	case p.Y < clip.Y:
		c |= codeAbove
	case p.Y >= clip.Bottom():
		c |= codeBelow
	}
	return c
}

// Line is a 2D line segment.
type Line struct {
	X0, Y0, X1, Y1 int
}

// ClipLine clips line against clip using Cohen-Sutherland, dividing at
// the clip edge indicated by the highest-set bit of the outside
// endpoint (above, then below, then right, then left). It reports
// false if the line lies entirely outside clip.
func ClipLine(clip Rect, line *Line) bool {
	x0, y0, x1, y1 := line.X0, line.Y0, line.X1, line.Y1
	c0 := outcode(clip, Point{x0, y0})
	c1 := outcode(clip, Point{x1, y1})
	for {
		if c0 == 0 && c1 == 0 {
			line.X0, line.Y0, line.X1, line.Y1 = x0, y0, x1, y1
			return true
		}
		if c0&c1 != 0 {
			return false
		}
		out := c0
		if out == 0 {
			out = c1
		}
		var x, y int
		switch {
		case out&codeAbove != 0:
			x = x0 + (x1-x0)*(clip.Y-y0)/(y1-y0)
			y = clip.Y
		case out&codeBelow != 0:
			x = x0 + (x1-x0)*(clip.Bottom()-1-y0)/(y1-y0)
			y = clip.Bottom() - 1
		case out&codeRight != 0:
			y = y0 + (y1-y0)*(clip.Right()-1-x0)/(x1-x0)
			x = clip.Right() - 1
		case out&codeLeft != 0:
			y = y0 + (y1-y0)*(clip.X-x0)/(x1-x0)
			x = clip.X
		}
		if out == c0 {
			x0, y0 = x, y
			c0 = outcode(clip, Point{x0, y0})
		} else {
			x1, y1 = x, y
			c1 = outcode(clip, Point{x1, y1})
		}
	}
}

// Triangle is a 2D triangle defined by its three vertices, in order.
type Triangle [3]Point

// ClipTriangle clips tri against clip. Each of the triangle's three
// edges is first run through ClipLine; an edge ClipLine can clip (even
// partially) keeps its clipped endpoints. Only an edge ClipLine
// rejects outright (entirely outside clip) falls back to intersecting
// it with the clip rectangle's two diagonals: if both diagonals cross
// the edge, the edge becomes the segment between the two crossings,
// each snapped to the nearest corner of the clip rectangle on its own
// diagonal; if only one diagonal crosses, the edge collapses to that
// single snapped corner; if neither does, the edge is redundant and
// dropped entirely. The surviving edges are then walked in order to
// build the polygon's vertex list, skipping a vertex that repeats the
// previous one (including the wrap from the last edge back to the
// first). It reports true, and the vertex count written to out, iff
// at least 3 vertices remain.
func ClipTriangle(clip Rect, tri Triangle, out *[6]Point) (n int, ok bool) {
	tl := Point{clip.X, clip.Y}
	tr := Point{clip.Right() - 1, clip.Y}
	bl := Point{clip.X, clip.Bottom() - 1}
	br := Point{clip.Right() - 1, clip.Bottom() - 1}

	edges := []Line{
		{tri[0].X, tri[0].Y, tri[1].X, tri[1].Y},
		{tri[1].X, tri[1].Y, tri[2].X, tri[2].Y},
		{tri[2].X, tri[2].Y, tri[0].X, tri[0].Y},
	}

	for i := 0; i < len(edges); {
		clipped := edges[i]
		if ClipLine(clip, &clipped) {
			edges[i] = clipped
			i++
			continue
		}

		a := Point{edges[i].X0, edges[i].Y0}
		b := Point{edges[i].X1, edges[i].Y1}

		p1, i1 := segmentIntersect(tl, br, a, b)
		if i1 {
			if p1.X <= clip.X || p1.Y <= clip.Y {
				p1 = tl
			} else {
				p1 = br
			}
		}
		p2, i2 := segmentIntersect(tr, bl, a, b)
		if i2 {
			if p2.X >= clip.Right() || p2.Y <= clip.Y {
				p2 = tr
			} else {
				p2 = bl
			}
		}

		switch {
		case i1 && i2:
			edges[i] = Line{p1.X, p1.Y, p2.X, p2.Y}
			i++
		case i1:
			edges[i] = Line{p1.X, p1.Y, p1.X, p1.Y}
			i++
		case i2:
			edges[i] = Line{p2.X, p2.Y, p2.X, p2.Y}
			i++
		default:
			// Redundant edge: it crosses neither diagonal, so it
			// contributes nothing to the clipped polygon.
			edges = append(edges[:i], edges[i+1:]...)
		}
	}

	if len(edges) < 1 {
		return 0, false
	}

	pts := make([]Point, 0, 6)
	pts = append(pts, Point{edges[0].X0, edges[0].Y0})
	if edges[0].X1 != edges[0].X0 || edges[0].Y1 != edges[0].Y0 {
		pts = append(pts, Point{edges[0].X1, edges[0].Y1})
	}
	for _, e := range edges[1:] {
		if last := pts[len(pts)-1]; e.X0 != last.X || e.Y0 != last.Y {
			pts = append(pts, Point{e.X0, e.Y0})
		}
		if last := pts[len(pts)-1]; e.X1 != last.X || e.Y1 != last.Y {
			pts = append(pts, Point{e.X1, e.Y1})
		}
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}

	n = copy(out[:], pts)
	return n, n >= 3
}

// segmentIntersect returns the intersection of finite segments a-b
// and c-d, ok false when they are parallel (including colinear) or
// when the crossing of their infinite extensions falls outside either
// segment's bounds.
func segmentIntersect(a, b, c, d Point) (p Point, ok bool) {
	x1, y1, x2, y2 := float64(a.X), float64(a.Y), float64(b.X), float64(b.Y)
	x3, y3, x4, y4 := float64(c.X), float64(c.Y), float64(d.X), float64(d.Y)
	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		return Point{}, false
	}
	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom
	u := ((x1-x3)*(y1-y2) - (y1-y3)*(x1-x2)) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return Point{
		X: int(x1 + t*(x2-x1)),
		Y: int(y1 + t*(y2-y1)),
	}, true
}

// Symmetry is one of the eight blit orientation operations: the
// identity, horizontal/vertical flips and their combination, and the
// same four composed with a 90-degree rotation. 180-degree rotation
// is FlipH|FlipV; 270-degree rotation is Rotate90|FlipH|FlipV.
type Symmetry int

const (
	Identity Symmetry = 0
	FlipH    Symmetry = 1 << iota
	FlipV
	Rotate90
)

// side indexes the four edges of a rectangle in a fixed order.
type side int

const (
	sideLeft side = iota
	sideTop
	sideRight
	sideBottom
)

func rot90(s side) side {
	switch s {
	case sideLeft:
		return sideTop
	case sideTop:
		return sideRight
	case sideRight:
		return sideBottom
	default:
		return sideLeft
	}
}

func flipH(s side) side {
	switch s {
	case sideLeft:
		return sideRight
	case sideRight:
		return sideLeft
	default:
		return s
	}
}

func flipV(s side) side {
	switch s {
	case sideTop:
		return sideBottom
	case sideBottom:
		return sideTop
	default:
		return s
	}
}

// edgeMap returns, for each destination-rectangle side (in
// [left,top,right,bottom] order), the source-rectangle side that
// should absorb the corresponding clip delta under sym. The rotation
// composes before the flips: a 90-degree rotation commutes only with
// the combined 180-degree flip pair, not with a single flip, so the
// two single-flip rotated cases depend on this order.
func edgeMap(sym Symmetry) [4]side {
	m := [4]side{sideLeft, sideTop, sideRight, sideBottom}
	if sym&Rotate90 != 0 {
		for i := range m {
			m[i] = rot90(m[i])
		}
	}
	if sym&FlipH != 0 {
		for i := range m {
			m[i] = flipH(m[i])
		}
	}
	if sym&FlipV != 0 {
		for i := range m {
			m[i] = flipV(m[i])
		}
	}
	return m
}

// ClipBlitFlippedRotated clips dst against clip and adjusts src's
// edges by the amount clipped from the corresponding dst edge, as
// determined by sym's eight-way symmetry table. It reports false if
// dst lies entirely outside clip.
func ClipBlitFlippedRotated(clip Rect, src, dst *Rect, sym Symmetry) bool {
	orig := *dst
	if !IntersectInPlace(dst, clip) {
		return false
	}
	delta := [4]int{
		sideLeft:   dst.X - orig.X,
		sideTop:    dst.Y - orig.Y,
		sideRight:  orig.Right() - dst.Right(),
		sideBottom: orig.Bottom() - dst.Bottom(),
	}
	m := edgeMap(sym)
	var srcDelta [4]int
	for dstSide, srcSide := range m {
		srcDelta[srcSide] += delta[dstSide]
	}
	s := *src
	s.X += srcDelta[sideLeft]
	s.Y += srcDelta[sideTop]
	s.W -= srcDelta[sideLeft] + srcDelta[sideRight]
	s.H -= srcDelta[sideTop] + srcDelta[sideBottom]
	*src = s
	return true
}
