// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"fmt"

	"github.com/gviegas/wm/region"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

// clampToSurface intersects rect with alloc's surface extent,
// reporting wmerr.ErrInvArea when the two are disjoint.
func clampToSurface(alloc *surface.Allocation, rect *region.Rect) error {
	buf := alloc.Buffer()
	if buf == nil || buf.Owner() == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	surf := buf.Owner()
	if !region.IntersectInPlace(rect, region.Rect{W: surf.Width, H: surf.Height}) {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArea)
	}
	return nil
}

// Read performs an out-of-lock rectangle read from alloc, if its pool
// implements ReadWriter. rect is clamped to the surface's extent.
func (r *Registry) Read(alloc *surface.Allocation, rect region.Rect, dst []byte, pitch int) error {
	p := r.ByID(alloc.PoolID)
	if p == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	rw, ok := p.Ops.(ReadWriter)
	if !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	if err := clampToSurface(alloc, &rect); err != nil {
		return err
	}
	return rw.Read(alloc, rect, dst, pitch)
}

// Write performs an out-of-lock rectangle write into alloc, if its
// pool implements ReadWriter. rect is clamped to the surface's extent.
func (r *Registry) Write(alloc *surface.Allocation, rect region.Rect, src []byte, pitch int) error {
	p := r.ByID(alloc.PoolID)
	if p == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	rw, ok := p.Ops.(ReadWriter)
	if !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	if err := clampToSurface(alloc, &rect); err != nil {
		return err
	}
	return rw.Write(alloc, rect, src, pitch)
}

// bytesPerPixel is a coarse stand-in for real pixel-format accounting,
// used only to size the scratch buffer a content transfer copies
// through. Actual format conversion during transfer is a collaborator
// concern (the blitting code in package region operates on rectangles,
// not on live pixel storage).
func bytesPerPixel(f surface.PixelFormat) int {
	switch f {
	case surface.FormatRGB565, surface.FormatA8:
		return 2
	default:
		return 4
	}
}

// transferContent copies the full rectangle of src's surface from src
// (in srcPool) to dst (in dstPool). Both pools must implement
// ReadWriter; it is used by displacement's backup path and by lock's
// stale-allocation refresh path.
func transferContent(srcPool *Pool, src *surface.Allocation, dstPool *Pool, dst *surface.Allocation) error {
	buf := src.Buffer()
	if buf == nil || buf.Owner() == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	srw, ok := srcPool.Ops.(ReadWriter)
	if !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	drw, ok := dstPool.Ops.(ReadWriter)
	if !ok {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}

	surf := buf.Owner()
	bpp := bytesPerPixel(surf.Format)
	pitch := surf.Width * bpp
	full := region.Rect{X: 0, Y: 0, W: surf.Width, H: surf.Height}
	scratch := make([]byte, pitch*surf.Height)

	if err := srw.Read(src, full, scratch, pitch); err != nil {
		return err
	}
	if err := drw.Write(dst, full, scratch, pitch); err != nil {
		return err
	}
	return nil
}
