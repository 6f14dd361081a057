// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wm

import (
	"testing"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/surface"
)

func newTestShape(w, h int) *surface.Surface {
	return surface.New(0, w, h, surface.FormatARGB8888, surface.CapsPremultiplied, surface.PolicyPreferred, surface.TypeWindow)
}

// Stack.SetCursorShape creates the cursor surface on first call,
// reporting resized=true and moved=true (hot-spot goes from 0,0 to a
// nonzero spot).
func TestStackSetCursorShapeFirstCall(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)

	shape := newTestShape(16, 16)
	resized, moved, err := s.SetCursorShape(shape, 3, 4)
	if err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if !resized {
		t.Fatal("expected resized=true on first shape")
	}
	if !moved {
		t.Fatal("expected moved=true on first hot-spot set")
	}

	c := s.Cursor()
	if c.Surface == nil {
		t.Fatal("expected a cursor surface to be installed")
	}
	if c.Width != 16 || c.Height != 16 {
		t.Fatalf("expected cursor sized 16x16, got %dx%d", c.Width, c.Height)
	}
	if c.HotX != 3 || c.HotY != 4 {
		t.Fatalf("expected hot-spot (3,4), got (%d,%d)", c.HotX, c.HotY)
	}
	if c.Surface.Caps&surface.CapsPremultiplied == 0 {
		t.Fatal("expected premultiplied cap carried over from shape")
	}
}

// A second call with the same dimensions and hot-spot reports neither
// resized nor moved.
func TestStackSetCursorShapeUnchanged(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)

	shape := newTestShape(16, 16)
	if _, _, err := s.SetCursorShape(shape, 3, 4); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}

	resized, moved, err := s.SetCursorShape(shape, 3, 4)
	if err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if resized || moved {
		t.Fatalf("expected no change reported, got resized=%v moved=%v", resized, moved)
	}
}

// A later shape with different dimensions reports resized=true but
// leaves an unchanged hot-spot reporting moved=false.
func TestStackSetCursorShapeResizeOnly(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)

	shape := newTestShape(16, 16)
	if _, _, err := s.SetCursorShape(shape, 3, 4); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}

	bigger := newTestShape(32, 24)
	resized, moved, err := s.SetCursorShape(bigger, 3, 4)
	if err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if !resized {
		t.Fatal("expected resized=true when dimensions change")
	}
	if moved {
		t.Fatal("expected moved=false when hot-spot is unchanged")
	}

	c := s.Cursor()
	if c.Width != 32 || c.Height != 24 {
		t.Fatalf("expected cursor resized to 32x24, got %dx%d", c.Width, c.Height)
	}
}

// Stack.SetCursorShape only forwards to the manager when the cursor is
// enabled.
func TestStackSetCursorShapeNotifiesManagerOnlyWhenEnabled(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)

	shape := newTestShape(16, 16)
	if _, _, err := s.SetCursorShape(shape, 0, 0); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if len(mgr.cursorUpdates) != 0 {
		t.Fatalf("expected no UpdateCursor call while disabled, got %d", len(mgr.cursorUpdates))
	}

	c := s.Cursor()
	c.Enabled = true
	s.SetCursor(c)
	mgr.cursorUpdates = nil

	if _, _, err := s.SetCursorShape(shape, 1, 1); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if len(mgr.cursorUpdates) != 1 {
		t.Fatalf("expected one UpdateCursor call while enabled, got %d", len(mgr.cursorUpdates))
	}
}

// Window.SetCursorShape(nil, ...) sets CursorInvisible and dispatches
// the updated Config exactly once; a second nil call is a no-op since
// the flag is already set.
func TestWindowSetCursorShapeNilSetsInvisible(t *testing.T) {
	w := newWindow(0, CapsNone, Config{}, nil)

	var dispatched []any
	w.reactions.Attach(func(reason any) ipc.Outcome {
		dispatched = append(dispatched, reason)
		return ipc.Continue
	})

	if err := w.SetCursorShape(nil, 0, 0); err != nil {
		t.Fatalf("SetCursorShape(nil) failed: %v", err)
	}
	if w.config.CursorFlags&CursorInvisible == 0 {
		t.Fatal("expected CursorInvisible to be set")
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected exactly one reaction dispatch, got %d", len(dispatched))
	}

	if err := w.SetCursorShape(nil, 0, 0); err != nil {
		t.Fatalf("SetCursorShape(nil) failed: %v", err)
	}
	if len(dispatched) != 1 {
		t.Fatalf("expected no further dispatch once already invisible, got %d", len(dispatched))
	}
}

// Window.SetCursorShape with no owning stack reports an error, since
// it has nowhere to forward the shape to.
func TestWindowSetCursorShapeNoStack(t *testing.T) {
	w := newWindow(0, CapsNone, Config{}, nil)
	shape := newTestShape(16, 16)
	if err := w.SetCursorShape(shape, 0, 0); err == nil {
		t.Fatal("expected an error when the window has no owning stack")
	}
}

// Window.SetCursorShape with a real shape forwards to the owning
// stack, clears a previously-set INVISIBLE flag, and dispatches SIZE
// and POSITION reactions on the first call.
func TestWindowSetCursorShapeRestoresVisibility(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)
	w := newWindow(0, CapsNone, Config{CursorFlags: CursorInvisible}, nil)
	s.AddWindow(w)

	var dispatched []any
	w.reactions.Attach(func(reason any) ipc.Outcome {
		dispatched = append(dispatched, reason)
		return ipc.Continue
	})

	shape := newTestShape(16, 16)
	if err := w.SetCursorShape(shape, 5, 5); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if w.config.CursorFlags&CursorInvisible != 0 {
		t.Fatal("expected CursorInvisible to be cleared")
	}

	sawConfig, sawSize, sawPosition := false, false, false
	for _, r := range dispatched {
		switch r.(type) {
		case Config:
			sawConfig = true
		}
		if r == cursorSizeReason {
			sawSize = true
		}
		if r == cursorPositionReason {
			sawPosition = true
		}
	}
	if !sawConfig {
		t.Error("expected a Config reaction clearing CursorInvisible")
	}
	if !sawSize {
		t.Error("expected a cursorSizeReason dispatch for the new shape")
	}
	if !sawPosition {
		t.Error("expected a cursorPositionReason dispatch for the new hot-spot")
	}
}

// CursorVisible reflects both the window's own INVISIBLE flag and
// whether the owning stack actually has a cursor shape installed.
func TestWindowCursorVisible(t *testing.T) {
	mgr := &fakeManager{}
	s := newTestStack(t, mgr)
	w := newWindow(0, CapsNone, Config{}, nil)

	if w.CursorVisible() {
		t.Fatal("expected a detached window to report an invisible cursor")
	}

	s.AddWindow(w)
	if w.CursorVisible() {
		t.Fatal("expected no cursor shape yet installed to report invisible")
	}

	shape := newTestShape(16, 16)
	if err := w.SetCursorShape(shape, 0, 0); err != nil {
		t.Fatalf("SetCursorShape failed: %v", err)
	}
	if !w.CursorVisible() {
		t.Fatal("expected a visible cursor once a shape is installed")
	}

	if err := w.SetCursorShape(nil, 0, 0); err != nil {
		t.Fatalf("SetCursorShape(nil) failed: %v", err)
	}
	if w.CursorVisible() {
		t.Fatal("expected CursorInvisible to hide the cursor even with a shape installed")
	}
}

// The window-surface policy option maps onto surface placement:
// system-only and video-high directly, auto by the driver's blit
// capability.
func TestWindowSurfacePolicy(t *testing.T) {
	cases := []struct {
		policy config.WindowSurfacePolicy
		hwBlit bool
		want   surface.AccessPolicy
	}{
		{config.PolicySystemOnly, true, surface.PolicySystemOnly},
		{config.PolicyVideoHigh, false, surface.PolicyPreferred},
		{config.PolicyAuto, true, surface.PolicyPreferred},
		{config.PolicyAuto, false, surface.PolicySystemOnly},
	}
	for _, c := range cases {
		if got := windowSurfacePolicy(c.policy, c.hwBlit); got != c.want {
			t.Errorf("policy %v hwBlit=%v: got %v, want %v", c.policy, c.hwBlit, got, c.want)
		}
	}
}

// SetFocus dispatches gotFocusReason or lostFocusReason depending on
// the transition direction.
func TestWindowSetFocus(t *testing.T) {
	w := newWindow(0, CapsNone, Config{}, nil)

	var dispatched []any
	w.reactions.Attach(func(reason any) ipc.Outcome {
		dispatched = append(dispatched, reason)
		return ipc.Continue
	})

	w.SetFocus(true)
	w.SetFocus(false)

	if len(dispatched) != 2 {
		t.Fatalf("expected two dispatches, got %d", len(dispatched))
	}
	if dispatched[0] != gotFocusReason {
		t.Errorf("expected first dispatch to be gotFocusReason, got %v", dispatched[0])
	}
	if dispatched[1] != lostFocusReason {
		t.Errorf("expected second dispatch to be lostFocusReason, got %v", dispatched[1])
	}
}
