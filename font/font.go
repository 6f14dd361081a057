// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package font implements the glyph-row cache: fonts map Unicode code
// points to glyph records that reference a row
// surface shared with every other font of the same (height,
// pixel-format, surface-caps) geometry. Decoding glyph outlines or
// bitmaps out of a font file is a collaborator concern; it hands this
// package already-rasterized glyph bitmaps to pack.
package font

import (
	"fmt"

	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

const prefix = "font: "

// Geometry is the (height, pixel-format, surface-caps) triple that
// determines which Cache a Font shares with its peers.
type Geometry struct {
	Height int
	Format surface.PixelFormat
	Caps   surface.Caps
}

// Glyph is a single packed glyph record.
type Glyph struct {
	Index    rune
	Advance  int
	BearingX int
	BearingY int
	Width    int
	Height   int

	row *row
	x   int // horizontal offset within row.surf
}

// Surface returns the row surface backing g's pixels, and the
// rectangle within it g occupies.
func (g *Glyph) Surface() (*surface.Surface, int, int, int, int) {
	return g.row.surf, g.x, 0, g.Width, g.Height
}

// Manager keys Caches by Geometry, so every Font created for a given
// (height, pixel-format, caps) shares the same rows and glyph records.
type Manager struct {
	caches map[Geometry]*Cache
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{caches: make(map[Geometry]*Cache)}
}

// Font creates a Font bound to geom's Cache, creating that Cache on
// first use. newSurface is called to materialize each new row's
// backing surface; how its allocation is negotiated with a pool is the
// caller's concern, not this package's.
// maxRows bounds how many rows the Cache keeps before it must evict
// the least-recently-used one; pass 0 to accept defaultMaxRows.
func (m *Manager) Font(geom Geometry, rowWidth, maxRows int, newSurface func(w, h int) *surface.Surface) *Font {
	c, ok := m.caches[geom]
	if !ok {
		c = newCache(geom, rowWidth, maxRows, newSurface)
		m.caches[geom] = c
	}
	c.refs++
	return &Font{mgr: m, geom: geom, cache: c}
}

// Font is a lightweight handle into a shared Cache.
type Font struct {
	mgr   *Manager
	geom  Geometry
	cache *Cache
}

// Close releases f's reference to its Cache, destroying the Cache's
// rows once the last referencing Font closes.
func (f *Font) Close() {
	f.cache.refs--
	if f.cache.refs <= 0 {
		delete(f.mgr.caches, f.geom)
	}
}

// Lookup returns the glyph record for index, if cached.
func (f *Font) Lookup(index rune) (*Glyph, bool) {
	return f.cache.lookup(index)
}

// Remove drops index's glyph record, freeing its row cells for reuse.
// It is a no-op if index was never inserted.
func (f *Font) Remove(index rune) {
	f.cache.remove(index)
}

// Insert packs a newly rasterized glyph into f's Cache and returns its
// record. Insert only establishes bookkeeping plus placement: it takes
// no pixel content and writes nothing to the row surface.
func (f *Font) Insert(index rune, w, h, advance, bearingX, bearingY int) (*Glyph, error) {
	return f.cache.insert(index, w, h, advance, bearingX, bearingY)
}

var errNoSpace = fmt.Errorf("%s%w", prefix, wmerr.ErrNoMemory)
