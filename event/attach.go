// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package event

import (
	"fmt"

	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

// AttachWindow subscribes b to win's reactor so that window-lifecycle
// reactions (resize, destroy) are translated into ClassWindow Events.
// newType is the Event subtype posted for every reaction win delivers
// except a destroy, which always posts destroyType and then detaches.
func (b *Buffer) AttachWindow(win WindowRef, newType, destroyType int) {
	var id uint64
	id = win.Reactions().Attach(func(reason any) ipc.Outcome {
		typ := newType
		if reason == destroyReason {
			typ = destroyType
		}
		b.PostEvent(Event{Class: ClassWindow, Type: typ, Data: win})
		if reason == destroyReason {
			b.removeWindowLocked(win.ID())
			return ipc.Remove
		}
		return ipc.Continue
	})

	b.mu.Lock()
	b.windows = append(b.windows, attachedWindow{win: win, reactID: id})
	b.mu.Unlock()
}

// destroyReason is the sentinel a window/surface reactor passes to
// signal its own destruction, distinguishing it from an ordinary
// state-change reaction without requiring a richer reason type.
var destroyReason = struct{ destroyed bool }{true}

// DetachWindow unregisters win's reaction. Passing a nil win instead
// clears every tombstoned (already-destroyed) entry.
func (b *Buffer) DetachWindow(win WindowRef) error {
	if win == nil {
		b.mu.Lock()
		kept := b.windows[:0]
		for _, aw := range b.windows {
			if !aw.detached {
				kept = append(kept, aw)
			}
		}
		b.windows = kept
		b.mu.Unlock()
		return nil
	}
	b.mu.Lock()
	idx := -1
	for i, aw := range b.windows {
		if aw.win.ID() == win.ID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	reactID := b.windows[idx].reactID
	b.windows = append(b.windows[:idx], b.windows[idx+1:]...)
	b.mu.Unlock()
	win.Reactions().Detach(reactID)
	return nil
}

func (b *Buffer) removeWindowLocked(id ipc.ObjectID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.windows {
		if b.windows[i].win.ID() == id {
			b.windows[i].detached = true
		}
	}
}

// AttachSurface subscribes b to surf's reactor. Attaching a surface
// that has already been flipped at least once (or that never flips at
// all, e.g. a static layer) synthesizes an update Event right away so
// a late-attaching consumer doesn't miss the surface's current
// content.
func (b *Buffer) AttachSurface(surf *surface.Surface, updateType, destroyType int) {
	var id uint64
	id = surf.Reactions.Attach(func(reason any) ipc.Outcome {
		typ := updateType
		if reason == destroyReason {
			typ = destroyType
		}
		b.PostEvent(Event{Class: ClassSurface, Type: typ, Data: surf})
		if reason == destroyReason {
			return ipc.Remove
		}
		return ipc.Continue
	})

	b.mu.Lock()
	b.surfaces = append(b.surfaces, attachedSurface{surf: surf, reactID: id})
	b.mu.Unlock()

	if surf.FlipCount() > 0 || surf.Caps&(surface.CapsDoubleBuffer|surface.CapsTripleBuffer) == 0 {
		b.PostEvent(Event{Class: ClassSurface, Type: updateType, Data: surf})
	}
}

// DetachSurface unregisters surf's reaction.
func (b *Buffer) DetachSurface(surf *surface.Surface) error {
	b.mu.Lock()
	idx := -1
	for i, as := range b.surfaces {
		if as.surf == surf {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%s%w", prefix, wmerr.ErrItemNotFound)
	}
	reactID := b.surfaces[idx].reactID
	b.surfaces = append(b.surfaces[:idx], b.surfaces[idx+1:]...)
	b.mu.Unlock()
	surf.Reactions.Detach(reactID)
	return nil
}

// AttachInputDevice registers a device whose teardown callback detach
// is invoked by DetachInputDevice. The Buffer has no teardown of its
// own, so detach never runs for a device that is not explicitly
// detached.
func (b *Buffer) AttachInputDevice(deviceID int, detach func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inputDevices = append(b.inputDevices, attachedInput{deviceID: deviceID, detach: detach})
}

// DetachInputDevice runs and removes the teardown callback registered
// for deviceID.
func (b *Buffer) DetachInputDevice(deviceID int) error {
	b.mu.Lock()
	idx := -1
	for i, ai := range b.inputDevices {
		if ai.deviceID == deviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%s%w", prefix, wmerr.ErrIDNotFound)
	}
	ai := b.inputDevices[idx]
	b.inputDevices = append(b.inputDevices[:idx], b.inputDevices[idx+1:]...)
	b.mu.Unlock()
	ai.detach()
	return nil
}
