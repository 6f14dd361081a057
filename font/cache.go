// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package font

import (
	"github.com/gviegas/wm/internal/bitm"
	"github.com/gviegas/wm/internal/bitvec"
	"github.com/gviegas/wm/surface"
)

// asciiLimit is the exclusive upper bound of the direct-index fast
// path; code points at or above it fall back to the hash.
const asciiLimit = 128

// cellWidth is the fixed horizontal granularity a row's free-space
// bitmap is divided into. A glyph reserves ceil(width/cellWidth)
// contiguous cells, trading a little packing density for simple bitmap
// bookkeeping instead of a general 1-D allocator.
const cellWidth = 4

// row packs glyphs left-to-right into a single surface, tracking free
// horizontal cells with a bitmap so a removed or evicted glyph's space
// can be reused without recompacting the surface.
type row struct {
	surf    *surface.Surface
	cells   bitm.Bitm[uint32]
	glyphs  []*Glyph
	lastUse int64
}

func newRow(surf *surface.Surface, cellCount int) *row {
	r := &row{surf: surf}
	r.cells.Grow((cellCount + 31) / 32)
	// The bitmap is a whole number of words; the bits past the row's
	// last cell are marked used so they can never be reserved.
	for i := cellCount; i < r.cells.Len(); i++ {
		r.cells.Set(i)
	}
	return r
}

func (r *row) reserve(w int) (int, bool) {
	n := (w + cellWidth - 1) / cellWidth
	if n < 1 {
		n = 1
	}
	idx, ok := r.cells.SearchRange(n)
	if !ok {
		return 0, false
	}
	for i := idx; i < idx+n; i++ {
		r.cells.Set(i)
	}
	return idx * cellWidth, true
}

func (r *row) release(x, w int) {
	n := (w + cellWidth - 1) / cellWidth
	if n < 1 {
		n = 1
	}
	idx := x / cellWidth
	for i := idx; i < idx+n; i++ {
		r.cells.Unset(i)
	}
}

// Cache owns every row shared by the Fonts of one Geometry, plus the
// glyph-index lookup tables (one hash per Cache, not per Font, since
// peer fonts share the rasterized content).
type Cache struct {
	geom       Geometry
	rowWidth   int
	maxRows    int
	newSurface func(w, h int) *surface.Surface

	refs  int
	clock int64

	rows []*row

	hash     map[rune]*Glyph
	ascii    [asciiLimit]*Glyph
	asciiSet bitvec.V[uint64]
}

// defaultMaxRows bounds how many rows a Cache keeps before
// remove_lru_row must reclaim one, unless the Font call overrides it.
const defaultMaxRows = 8

func newCache(geom Geometry, rowWidth, maxRows int, newSurface func(w, h int) *surface.Surface) *Cache {
	if maxRows < 1 {
		maxRows = defaultMaxRows
	}
	c := &Cache{
		geom:       geom,
		rowWidth:   rowWidth,
		maxRows:    maxRows,
		newSurface: newSurface,
		hash:       make(map[rune]*Glyph),
	}
	c.asciiSet.Grow(asciiLimit / 64) // one bit per ASCII code point
	return c
}

func (c *Cache) lookup(index rune) (*Glyph, bool) {
	if index >= 0 && index < asciiLimit {
		if c.asciiSet.IsSet(int(index)) {
			g := c.ascii[index]
			g.row.lastUse = c.tick()
			return g, true
		}
		return nil, false
	}
	g, ok := c.hash[index]
	if ok {
		g.row.lastUse = c.tick()
	}
	return g, ok
}

func (c *Cache) tick() int64 {
	c.clock++
	return c.clock
}

// remove drops a single glyph record, freeing its row cells for reuse
// without evicting the whole row.
func (c *Cache) remove(index rune) {
	g, ok := c.lookup(index)
	if !ok {
		return
	}
	g.row.release(g.x, g.Width)
	for i, cand := range g.row.glyphs {
		if cand == g {
			g.row.glyphs = append(g.row.glyphs[:i], g.row.glyphs[i+1:]...)
			break
		}
	}
	if index >= 0 && index < asciiLimit {
		c.ascii[index] = nil
		c.asciiSet.Unset(int(index))
	} else {
		delete(c.hash, index)
	}
}

func (c *Cache) insert(index rune, w, h, advance, bearingX, bearingY int) (*Glyph, error) {
	if g, ok := c.lookup(index); ok {
		return g, nil
	}

	x, r, ok := c.reserveInExistingRows(w)
	if !ok {
		if len(c.rows) >= c.maxRows {
			if !c.evictLRURow() {
				return nil, errNoSpace
			}
			return c.insert(index, w, h, advance, bearingX, bearingY)
		}
		r = c.addRow(h)
		var fit bool
		x, fit = r.reserve(w)
		if !fit {
			return nil, errNoSpace
		}
	}

	g := &Glyph{
		Index:    index,
		Advance:  advance,
		BearingX: bearingX,
		BearingY: bearingY,
		Width:    w,
		Height:   h,
		row:      r,
		x:        x,
	}
	r.glyphs = append(r.glyphs, g)
	r.lastUse = c.tick()

	if index >= 0 && index < asciiLimit {
		c.ascii[index] = g
		c.asciiSet.Set(int(index))
	} else {
		c.hash[index] = g
	}
	return g, nil
}

func (c *Cache) reserveInExistingRows(w int) (int, *row, bool) {
	for _, r := range c.rows {
		if r.surf.Height < c.geom.Height {
			continue
		}
		if x, ok := r.reserve(w); ok {
			return x, r, true
		}
	}
	return 0, nil, false
}

func (c *Cache) addRow(minHeight int) *row {
	h := c.geom.Height
	if h < minHeight {
		h = minHeight
	}
	surf := c.newSurface(c.rowWidth, h)
	r := newRow(surf, c.rowWidth/cellWidth)
	c.rows = append(c.rows, r)
	return r
}

// evictLRURow removes the least-recently-used row (remove_lru_row),
// dropping every glyph record it backed from the lookup tables so a
// subsequent lookup correctly misses.
func (c *Cache) evictLRURow() bool {
	if len(c.rows) == 0 {
		return false
	}
	victim := 0
	for i, r := range c.rows {
		if r.lastUse < c.rows[victim].lastUse {
			victim = i
		}
	}
	r := c.rows[victim]
	for _, g := range r.glyphs {
		if g.Index >= 0 && g.Index < asciiLimit {
			c.ascii[g.Index] = nil
			c.asciiSet.Unset(int(g.Index))
		} else {
			delete(c.hash, g.Index)
		}
	}
	c.rows = append(c.rows[:victim], c.rows[victim+1:]...)
	return true
}
