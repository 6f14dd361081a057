// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wm implements the window stack: the per-layer collection of
// windows, input-device attach/detach, pointer-motion coalescing, and
// dispatch to a window-manager plugin. The pointer coalescing state
// machine and the layer-context refcounting around dispatch build on
// the cooperative reaction-dispatch model package ipc provides
// (Reactor snapshot dispatch, Skirmish recursive lock, DispatchQueue
// batch-boundary cleanups).
package wm

import (
	"fmt"
	"sync"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

const prefix = "wm: "

// StackingClass orders windows within a stack for hit-testing and
// repaint.
type StackingClass int

const (
	StackingNormal StackingClass = iota
	StackingAlwaysOnTop
	StackingAlwaysAtBottom
)

// CursorFlags are the per-window cursor behavior bits forwarded from
// the window façade.
type CursorFlags uint32

const (
	CursorNone      CursorFlags = 0
	CursorInvisible CursorFlags = 1
)

// Caps describes fixed window capabilities established at creation.
type Caps uint32

const (
	CapsNone      Caps = 0
	CapsInputOnly Caps = 1 << iota
	CapsColorOnly
	CapsAlphaChannel
	CapsStereo
)

// Config holds the mutable, WM-visible configuration of a Window.
type Config struct {
	Opacity      float32
	Stacking     StackingClass
	CursorFlags  CursorFlags
	Association  ipc.ObjectID
	X, Y         int
	W, H         int
	StereoDepth  int
	Rotation     int // degrees: 0, 90, 180, 270
	KeySelection []int
}

// Window is one entry in a WindowStack.
type Window struct {
	id     ipc.ObjectID
	caps   Caps
	config Config
	surf   *surface.Surface

	stack     *Stack
	destroyed bool

	reactions *ipc.Reactor
}

// ID implements event.WindowRef.
func (w *Window) ID() ipc.ObjectID { return w.id }

// Reactions implements event.WindowRef.
func (w *Window) Reactions() *ipc.Reactor { return w.reactions }

// Surface returns w's backing surface, or nil for an input-only
// window (CapsInputOnly).
func (w *Window) Surface() *surface.Surface { return w.surf }

// Config returns a copy of w's current configuration.
func (w *Window) Config() Config { return w.config }

func newWindow(id ipc.ObjectID, caps Caps, cfg Config, surf *surface.Surface) *Window {
	return &Window{id: id, caps: caps, config: cfg, surf: surf, reactions: ipc.NewReactor()}
}

// NewWindow creates a Window backed by surf (nil for an input-only
// window). The process-wide window-surface policy is applied to the
// backing surface's placement: system-only forces system memory,
// video-high prefers video-capable pools, and auto picks between the
// two by whether the display driver advertises blit acceleration
// (hwBlit).
func NewWindow(id ipc.ObjectID, caps Caps, cfg Config, surf *surface.Surface, hwBlit bool) *Window {
	if surf != nil {
		surf.Policy = windowSurfacePolicy(config.Current().WindowSurfacePolicy, hwBlit)
	}
	return newWindow(id, caps, cfg, surf)
}

func windowSurfacePolicy(p config.WindowSurfacePolicy, hwBlit bool) surface.AccessPolicy {
	switch p {
	case config.PolicySystemOnly:
		return surface.PolicySystemOnly
	case config.PolicyVideoHigh:
		return surface.PolicyPreferred
	default:
		if hwBlit {
			return surface.PolicyPreferred
		}
		return surface.PolicySystemOnly
	}
}

// destroyedReason is passed to a Window's reactions to mark a
// destroy, mirroring event.destroyReason's role for the same purpose
// in that package. The two are independent sentinels since wm must
// not import event (observers flow window to event, not the reverse).
var destroyedReason = struct{ destroyed bool }{true}

// Destroy notifies w's reactions of the destroy so they can remove
// themselves, and marks the handle dead. Calling it twice is a no-op.
func (w *Window) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.reactions.Dispatch(destroyedReason)
}

// Reconfigure validates and installs cfg, then notifies reactions.
func (w *Window) Reconfigure(cfg Config) error {
	if w.destroyed {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrDestroyed)
	}
	if cfg.W < 0 || cfg.H < 0 {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	w.config = cfg
	w.reactions.Dispatch(cfg)
	return nil
}

// cursorSizeReason, cursorPositionReason, gotFocusReason and
// lostFocusReason mark the cursor-shape and focus notifications a
// Window raises toward its observers, each its own sentinel for the
// same reason destroyedReason is.
var (
	cursorSizeReason     = struct{ cursorSize bool }{true}
	cursorPositionReason = struct{ cursorPosition bool }{true}
	gotFocusReason       = struct{ gotFocus bool }{true}
	lostFocusReason      = struct{ lostFocus bool }{true}
)

// SetCursorShape implements the window façade's cursor-shape behavior.
// Passing a nil shape gives the window's own cursor flags the
// INVISIBLE bit (unless already set); passing a non-nil shape forwards
// it and the hot-spot to the owning stack's cursor subsystem and, if
// the window's cursor flags previously had INVISIBLE set, clears it.
// A size or position reaction is dispatched whenever the stack reports
// the surface was resized or the hot-spot moved.
func (w *Window) SetCursorShape(shape *surface.Surface, hotX, hotY int) error {
	if w.destroyed {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrDestroyed)
	}
	if shape == nil {
		if w.config.CursorFlags&CursorInvisible == 0 {
			cfg := w.config
			cfg.CursorFlags |= CursorInvisible
			w.config = cfg
			w.reactions.Dispatch(cfg)
		}
		return nil
	}

	if w.stack == nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	wasInvisible := w.config.CursorFlags&CursorInvisible != 0

	resized, moved, err := w.stack.SetCursorShape(shape, hotX, hotY)
	if err != nil {
		return err
	}

	if wasInvisible {
		cfg := w.config
		cfg.CursorFlags &^= CursorInvisible
		w.config = cfg
		w.reactions.Dispatch(cfg)
	}
	if resized {
		w.reactions.Dispatch(cursorSizeReason)
	}
	if moved {
		w.reactions.Dispatch(cursorPositionReason)
	}
	return nil
}

// CursorVisible reports whether w's cursor is visible: a shape is
// present at the stack level and w's own cursor_flags doesn't carry
// INVISIBLE.
func (w *Window) CursorVisible() bool {
	if w.stack == nil || w.config.CursorFlags&CursorInvisible != 0 {
		return false
	}
	return w.stack.Cursor().Surface != nil
}

// SetFocus forwards a got-focus/lost-focus transition to w's
// reactions, so application-level focus tracking stays consistent.
func (w *Window) SetFocus(got bool) {
	if got {
		w.reactions.Dispatch(gotFocusReason)
	} else {
		w.reactions.Dispatch(lostFocusReason)
	}
}

// registryMu guards the process-wide list of live stacks so a newly
// enumerated input device can be attached to every one of them.
var registryMu sync.Mutex
var registry []*Stack
