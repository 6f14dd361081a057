// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package surface implements the logical 2D image, buffer and
// allocation types the pool engine negotiates and places. It does not
// itself allocate memory (that is package pool's job); it only tracks
// the bookkeeping invariants: monotonic flip counts, per-buffer
// freshness serials, and the clip-rectangle nesting
// wanted ⊆ granted ⊆ current ⊆ parent.
package surface

import (
	"errors"

	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/region"
)

const prefix = "surface: "

// PixelFormat identifies a pixel layout. The concrete set of formats
// a given pool supports is a matter for that pool (and for the pixel
// blitting code this module treats as a collaborator); the type here
// is just a comparable tag.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	FormatARGB8888
	FormatXRGB8888
	FormatRGB565
	FormatA8
	FormatYUY2
)

// ColorSpace identifies a color space tag, orthogonal to PixelFormat.
type ColorSpace int

const (
	ColorSpaceUnknown ColorSpace = iota
	ColorSpaceSRGB
	ColorSpaceYCbCr601
	ColorSpaceYCbCr709
)

// Caps are capability flags describing a surface's buffer layout and
// composition behavior.
type Caps uint32

const (
	CapsNone         Caps = 0
	CapsDoubleBuffer Caps = 1 << iota
	CapsTripleBuffer
	CapsPremultiplied
	CapsShared
	CapsVideoOnly
)

// AccessPolicy constrains where a surface's buffers may be placed.
type AccessPolicy int

const (
	PolicyPreferred AccessPolicy = iota
	PolicySystemOnly
	PolicyVideoOnly
)

// TypeFlags classify what a surface is used for; pools advertise which
// of these they accept.
type TypeFlags uint32

const (
	TypeNone  TypeFlags = 0
	TypeLayer TypeFlags = 1 << iota
	TypeWindow
	TypeCursor
	TypeFont
	TypeShared
	TypeInternal
	TypeExternal
	TypePreallocated
)

// Accessor identifies a consumer of pixel data.
type Accessor int

const (
	AccessorCPU Accessor = iota
	AccessorGPU
	AccessorLayer
)

// AccessMask is the per-accessor read/write/shared permission set a
// pool advertises, and the per-allocation access-history mask.
type AccessMask uint8

const (
	AccessNone   AccessMask = 0
	AccessRead   AccessMask = 1 << 0
	AccessWrite  AccessMask = 1 << 1
	AccessShared AccessMask = 1 << 2
)

// Rects holds the nested clip rectangles a surface carries: wanted ⊆
// granted ⊆ current ⊆ parent. ClipSet is false when no explicit clip
// has been requested, in which case ClipWanted is ignored.
type Rects struct {
	Parent     region.Rect
	Current    region.Rect
	Granted    region.Rect
	Wanted     region.Rect
	ClipWanted region.Rect
	ClipSet    bool
}

// Surface is a logical 2D image: a stable identity, its attributes,
// and an ordered list of Buffers in rotation (front, back, triple,
// optional aux).
type Surface struct {
	ID     ipc.ObjectID
	Width  int
	Height int
	Format PixelFormat
	Space  ColorSpace
	Caps   Caps
	Policy AccessPolicy
	Type   TypeFlags

	flipCount uint64
	lastFrame int64 // unix nanoseconds of the last flip

	Buffers []*Buffer

	Rects Rects

	Reactions *ipc.Reactor
	lock      *ipc.Skirmish
}

// New creates a Surface with no buffers. Use AddBuffer to create its
// buffer rotation.
func New(id ipc.ObjectID, w, h int, format PixelFormat, caps Caps, policy AccessPolicy, typ TypeFlags) *Surface {
	return &Surface{
		ID:        id,
		Width:     w,
		Height:    h,
		Format:    format,
		Caps:      caps,
		Policy:    policy,
		Type:      typ,
		Reactions: ipc.NewReactor(),
		lock:      ipc.NewSkirmish(),
	}
}

// Lock acquires the surface's skirmish for token. Used by the pool
// engine around allocate/lock/unlock/muck-out/WM-callback sequences.
func (s *Surface) Lock(token any) { s.lock.Lock(token) }

// TryLock attempts to acquire the surface's skirmish without
// blocking, used by displacement's contended-lock retry loop.
func (s *Surface) TryLock(token any) bool { return s.lock.TryLock(token) }

// Unlock releases the surface's skirmish.
func (s *Surface) Unlock(token any) { s.lock.Unlock(token) }

// AddBuffer appends and returns a new, empty Buffer owned by s.
func (s *Surface) AddBuffer() *Buffer {
	b := &Buffer{owner: s}
	s.Buffers = append(s.Buffers, b)
	return b
}

// FlipCount returns the current flip count.
func (s *Surface) FlipCount() uint64 { return s.flipCount }

// LastFrame returns the unix-nanosecond timestamp of the last Flip.
func (s *Surface) LastFrame() int64 { return s.lastFrame }

// Flip advances the flip count monotonically and records the frame
// timestamp. now is the caller-supplied monotonic/unix time so this
// package never calls time.Now itself (keeps it deterministic for
// tests).
func (s *Surface) Flip(now int64) {
	s.flipCount++
	s.lastFrame = now
}

// SetRects validates and installs the nested clip rectangles,
// enforcing wanted ⊆ granted ⊆ current ⊆ parent and, when ClipSet,
// clip_wanted ⊆ wanted.
func (s *Surface) SetRects(r Rects) error {
	if !contains(r.Parent, r.Current) || !contains(r.Current, r.Granted) || !contains(r.Granted, r.Wanted) {
		return errors.New(prefix + "clip rectangles violate wanted ⊆ granted ⊆ current ⊆ parent")
	}
	if r.ClipSet && !contains(r.Wanted, r.ClipWanted) {
		return errors.New(prefix + "clip_wanted must be a subset of wanted")
	}
	s.Rects = r
	return nil
}

// contains reports whether inner is fully contained within outer.
func contains(outer, inner region.Rect) bool {
	if inner.Empty() {
		return true
	}
	if outer.Empty() {
		return false
	}
	return inner.X >= outer.X && inner.Y >= outer.Y &&
		inner.Right() <= outer.Right() && inner.Bottom() <= outer.Bottom()
}
