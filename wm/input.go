// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wm

import "github.com/gviegas/wm/ipc"

// InputEventType identifies the shape of an InputEvent's payload.
type InputEventType int

const (
	EventAxisMotion InputEventType = iota
	EventButton
	EventKey
)

// InputEvent is the input-device record the stack coalesces (for
// EventAxisMotion) or forwards verbatim (every other type) to the
// window manager.
type InputEvent struct {
	Type     InputEventType
	DeviceID int

	// TimestampNS is the monotonic-clock time (nanoseconds) the input
	// reader thread captured the event at. Coalescing uses this
	// caller-supplied value rather than reading the clock itself, so
	// the state machine stays deterministic under test.
	TimestampNS int64

	// Axis fields, valid when Type == EventAxisMotion.
	Axis      int // 0 = X, 1 = Y
	AxisAbs   bool
	AxisValue int // absolute position, when AxisAbs
	AxisRel   int // relative delta, when !AxisAbs
	Follow    bool

	Button int
	Key    int
	Down   bool
}

// enumeratedDevices is the process-wide set of currently known input
// devices, consulted by Create so a newly created stack starts out
// attached to every device already present.
var enumeratedDevices []int

// EnumerateDevice signals that deviceID is now present system-wide:
// every registered Stack is attached to it, and the ID is remembered
// so future stacks start out attached too.
func EnumerateDevice(deviceID int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, id := range enumeratedDevices {
		if id == deviceID {
			return
		}
	}
	enumeratedDevices = append(enumeratedDevices, deviceID)
	for _, s := range registry {
		s.attachDeviceLocked(deviceID)
	}
}

// ForgetDevice signals that deviceID has been removed system-wide:
// every registered Stack detaches it.
func ForgetDevice(deviceID int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, id := range enumeratedDevices {
		if id == deviceID {
			enumeratedDevices = append(enumeratedDevices[:i], enumeratedDevices[i+1:]...)
			break
		}
	}
	for _, s := range registry {
		s.detachDevice(deviceID)
	}
}

// attachDeviceLocked appends a per-device record for deviceID. Callers
// hold registryMu; it acquires the stack's own lock internally.
func (s *Stack) attachDeviceLocked(deviceID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d.id == deviceID {
			return
		}
	}
	s.devices = append(s.devices, inputDevice{id: deviceID})
}

// detachDevice removes deviceID's record, flushing any pending
// coalesced motion attributed to it first.
func (s *Stack) detachDevice(deviceID int) {
	s.mu.Lock()
	if s.motion.has() && s.motion.deviceID == deviceID {
		s.flushMotionLocked()
	}
	for i, d := range s.devices {
		if d.id == deviceID {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// Devices returns the IDs of every device currently attached to s.
func (s *Stack) Devices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.devices))
	for i, d := range s.devices {
		out[i] = d.id
	}
	return out
}

// DispatchInput is the entry point an input reader thread calls with
// a freshly read InputEvent. It implements the refcounted-entry
// guard, the pointer-motion coalescing state machine, and delivery to
// the window manager.
func (s *Stack) DispatchInput(ev InputEvent) ipc.Outcome {
	if !s.enterDispatch() {
		return ipc.Remove
	}
	defer s.exitDispatch()

	s.mu.Lock()
	if ev.Type != EventAxisMotion {
		if s.motion.has() {
			s.flushMotionLocked()
		}
		mgr := s.mgr
		s.mu.Unlock()
		if mgr != nil {
			mgr.ProcessInput(s, ev)
		}
		return ipc.Continue
	}

	s.coalesceLocked(ev)
	s.mu.Unlock()
	return ipc.Continue
}
