// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/region"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
	"github.com/gviegas/wm/wmlog"
)

// BackgroundMode selects how a Stack paints the area behind its
// windows.
type BackgroundMode int

const (
	BackgroundDontCare BackgroundMode = iota
	BackgroundColor
	BackgroundImage
	BackgroundTile
)

// Background holds a Stack's background configuration.
type Background struct {
	Mode  BackgroundMode
	Color uint32
	Index int
	Image *surface.Surface

	reactID uint64
}

// CursorSurfacePolicy selects where a Stack prefers its cursor
// surface to be placed.
type CursorSurfacePolicy int

const (
	CursorPolicyAuto CursorSurfacePolicy = iota
	CursorPolicySystemOnly
	CursorPolicyVideoOnly
)

// Cursor holds the per-stack cursor state: surface, hot-spot,
// opacity, acceleration, and clip region.
type Cursor struct {
	Enabled bool
	X, Y    int
	HotX    int
	HotY    int
	Width   int
	Height  int
	Opacity float32
	Clip    region.Rect

	AccelNumerator   int
	AccelDenominator int
	AccelThreshold   int

	SurfacePolicy CursorSurfacePolicy
	Surface       *surface.Surface
}

// defaultCursor returns the cursor defaults installed at stack
// creation: acceleration 2/1, threshold 4.
func defaultCursor(w, h int) Cursor {
	return Cursor{
		AccelNumerator:   2,
		AccelDenominator: 1,
		AccelThreshold:   4,
		Opacity:          1,
		Clip:             region.Rect{X: 0, Y: 0, W: w, H: h},
	}
}

// Manager is the window-manager plugin ABI a Stack delegates
// configuration, input routing, and repaint to.
type Manager interface {
	InitStack(s *Stack) error
	CloseStack(s *Stack)
	ResizeStack(s *Stack, w, h, rotation int)
	UpdateStack(s *Stack, dirty region.Rect)
	UpdateCursor(s *Stack, c Cursor)
	ProcessInput(s *Stack, ev InputEvent)

	GetProperty(s *Stack, key string) (any, bool)
	SetProperty(s *Stack, key string, val any) error
	RemoveProperty(s *Stack, key string) error
}

type inputDevice struct {
	id      int
	reactID uint64
}

// Stack is a per-display-layer collection of Windows plus the pointer
// coalescing and dispatch state.
type Stack struct {
	mu sync.Mutex // guards everything below; this IS the layer-context lock

	width, height int
	rotation      int
	blitSymmetry  region.Symmetry

	background Background
	cursor     Cursor

	windows []*Window
	devices []inputDevice

	mgr      Manager
	dispatch *ipc.DispatchQueue

	refCount    int32
	cleanupID   uint64
	cleanupSet  bool
	deferredDec int

	motion motionState
}

// rotationSymmetry derives the blit flag from a rotation in degrees,
// expressed with region.Symmetry's flip/rotate bits: 180 degrees is
// the H+V flip pair, 270 is the 90-degree rotation plus both flips.
func rotationSymmetry(rotation int) region.Symmetry {
	switch rotation % 360 {
	case 90:
		return region.Rotate90
	case 180:
		return region.FlipH | region.FlipV
	case 270:
		return region.Rotate90 | region.FlipH | region.FlipV
	default:
		return region.Identity
	}
}

// Create allocates a Stack for the given layer dimensions, installs
// cursor defaults, lets mgr initialize its stack-private state,
// attaches every currently enumerated input device, and registers the
// stack in the process-wide list so future device enumeration reaches
// it too.
func Create(w, h int, mgr Manager, dispatch *ipc.DispatchQueue) (*Stack, error) {
	s := &Stack{
		width:    w,
		height:   h,
		cursor:   defaultCursor(w, h),
		mgr:      mgr,
		dispatch: dispatch,
		refCount: 1,
	}
	if config.Current().CursorVideoOnly {
		s.cursor.SurfacePolicy = CursorPolicyVideoOnly
	}
	if mgr != nil {
		if err := mgr.InitStack(s); err != nil {
			return nil, err
		}
	}

	registryMu.Lock()
	for _, d := range enumeratedDevices {
		s.attachDeviceLocked(d)
	}
	registry = append(registry, s)
	registryMu.Unlock()

	return s, nil
}

// ClipBlit clips dst against the stack's bounds and adjusts src for
// the stack's rotation symmetry. A manager blitting a window update
// onto a rotated layer uses this to find which part of the source
// survives. It reports false if dst lies entirely outside the stack.
func (s *Stack) ClipBlit(src, dst *region.Rect) bool {
	s.mu.Lock()
	clip := region.Rect{W: s.width, H: s.height}
	sym := s.blitSymmetry
	s.mu.Unlock()
	return region.ClipBlitFlippedRotated(clip, src, dst, sym)
}

// Resize updates the stack's dimensions and derived rotation symmetry,
// resets the cursor clip region to the new bounds, and notifies the
// manager.
func (s *Stack) Resize(w, h, rotationDegrees int) {
	s.mu.Lock()
	s.width, s.height = w, h
	s.rotation = rotationDegrees
	s.blitSymmetry = rotationSymmetry(rotationDegrees)
	s.cursor.Clip = region.Rect{X: 0, Y: 0, W: w, H: h}
	mgr := s.mgr
	s.mu.Unlock()

	if mgr != nil {
		mgr.ResizeStack(s, w, h, rotationDegrees)
	}
}

// Destroy unlinks the cursor and background image surfaces, closes
// the manager, and removes the stack from the process-wide registry.
func (s *Stack) Destroy() {
	s.mu.Lock()
	mgr := s.mgr
	bg := s.background
	s.cursor.Surface = nil
	s.background = Background{}
	s.mu.Unlock()

	if bg.Image != nil {
		bg.Image.Reactions.Detach(bg.reactID)
	}
	if mgr != nil {
		mgr.CloseStack(s)
	}

	registryMu.Lock()
	for i, st := range registry {
		if st == s {
			registry = append(registry[:i], registry[i+1:]...)
			break
		}
	}
	registryMu.Unlock()
}

// SetBackground installs a new Background, unlinking any previously
// attached image surface and linking the new one's reaction so a
// SIZEFORMAT/FLIP repaints the whole stack and a DESTROY unregisters
// with a logged error.
func (s *Stack) SetBackground(bg Background) {
	s.mu.Lock()
	old := s.background
	s.mu.Unlock()

	if old.Image != nil {
		old.Image.Reactions.Detach(old.reactID)
	}

	if bg.Image != nil {
		img := bg.Image
		bg.reactID = img.Reactions.Attach(func(reason any) ipc.Outcome {
			switch reason {
			case bgDestroyReason:
				wmlog.Warn("wm", "background image surface destroyed while attached")
				return ipc.Remove
			default:
				s.repaintAll()
				return ipc.Continue
			}
		})
	}

	s.mu.Lock()
	s.background = bg
	s.mu.Unlock()
}

var bgDestroyReason = struct{ destroyed bool }{true}

func (s *Stack) repaintAll() {
	s.mu.Lock()
	mgr := s.mgr
	dirty := region.Rect{X: 0, Y: 0, W: s.width, H: s.height}
	s.mu.Unlock()
	if mgr != nil {
		mgr.UpdateStack(s, dirty)
	}
}

// AddWindow appends win to the stack and links it back to s, so the
// window façade's cursor methods (SetCursorShape, CursorVisible) have
// a stack to forward to.
func (s *Stack) AddWindow(win *Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	win.stack = s
	s.windows = append(s.windows, win)
}

// RemoveWindow removes win from the stack, if present, and clears its
// back-reference.
func (s *Stack) RemoveWindow(win *Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.windows {
		if w == win {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			win.stack = nil
			return nil
		}
	}
	return fmt.Errorf("%s%w", prefix, wmerr.ErrItemNotFound)
}

// Windows returns a snapshot of the stack's current window list.
func (s *Stack) Windows() []*Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Cursor returns a copy of the current cursor state.
func (s *Stack) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// SetCursor installs a new cursor state and notifies the manager.
func (s *Stack) SetCursor(c Cursor) {
	s.mu.Lock()
	s.cursor = c
	mgr := s.mgr
	s.mu.Unlock()
	if mgr != nil {
		mgr.UpdateCursor(s, c)
	}
}

// cursorSurfacePolicy maps a CursorSurfacePolicy to the access policy
// installed on the cursor surface at creation.
func cursorSurfacePolicy(p CursorSurfacePolicy) surface.AccessPolicy {
	switch p {
	case CursorPolicySystemOnly:
		return surface.PolicySystemOnly
	case CursorPolicyVideoOnly:
		return surface.PolicyVideoOnly
	default:
		return surface.PolicyPreferred
	}
}

// SetCursorShape implements the cursor subsystem's shape and hot-spot
// update. It creates a shape-sized, premultiplied ARGB cursor surface
// the first time a shape is set, reformats it in place when a later
// shape's dimensions differ, and records a new hot-spot when one is
// given. It reports whether the surface was (re)sized and whether the
// hot-spot moved, so callers (the window façade) can emit the
// corresponding size/position notifications. Copying the shape's
// pixels into the cursor surface is a collaborator concern this module
// doesn't model (package region's blit code works on rectangles, not
// live pixel storage); only the premultiplied capability bit is
// carried over.
func (s *Stack) SetCursorShape(shape *surface.Surface, hotX, hotY int) (resized, moved bool, err error) {
	if shape == nil {
		return false, false, fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	if config.Current().NoCursor {
		return false, false, nil
	}

	s.mu.Lock()
	cur := s.cursor.Surface
	switch {
	case cur == nil:
		cur = surface.New(0, shape.Width, shape.Height, surface.FormatARGB8888,
			surface.CapsPremultiplied, cursorSurfacePolicy(s.cursor.SurfacePolicy), surface.TypeCursor)
		s.cursor.Surface = cur
		s.cursor.Width = shape.Width
		s.cursor.Height = shape.Height
		s.cursor.X = s.width / 2
		s.cursor.Y = s.height / 2
		resized = true
	case s.cursor.Width != shape.Width || s.cursor.Height != shape.Height:
		cur.Width, cur.Height = shape.Width, shape.Height
		s.cursor.Width, s.cursor.Height = shape.Width, shape.Height
		resized = true
	}

	if s.cursor.HotX != hotX || s.cursor.HotY != hotY {
		s.cursor.HotX, s.cursor.HotY = hotX, hotY
		moved = true
	}

	cur.Caps = (cur.Caps &^ surface.CapsPremultiplied) | (shape.Caps & surface.CapsPremultiplied)

	enabled := s.cursor.Enabled
	c := s.cursor
	mgr := s.mgr
	s.mu.Unlock()

	if enabled && mgr != nil {
		mgr.UpdateCursor(s, c)
	}
	return resized, moved, nil
}

// enterDispatch implements the layer-context refcounting around
// reaction dispatch: the context's refcount is incremented on entry
// and decremented on exit unless a cleanup is pending (in which case
// the decrement is deferred to the cleanup).
// If the refcount is observed to be 0 on entry, it returns false and
// the caller must return ipc.Remove from its reaction.
func (s *Stack) enterDispatch() bool {
	if atomic.LoadInt32(&s.refCount) == 0 {
		return false
	}
	atomic.AddInt32(&s.refCount, 1)
	return true
}

func (s *Stack) exitDispatch() {
	s.mu.Lock()
	if s.cleanupSet {
		s.deferredDec++
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.AddInt32(&s.refCount, -1)
}
