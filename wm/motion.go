// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package wm

import "sync/atomic"

// staleNS is the 10ms staleness window past which a pending coalesced
// motion pair is flushed before accepting a new event, even from the
// same device.
const staleNS = 10_000_000

// motionState holds the stack's two pending coalesced axis slots (X
// and Y) plus the device and timestamp the pair was opened under.
// Both slots are optional; "has" below checks either is populated.
type motionState struct {
	deviceID int
	tsNS     int64

	xSet bool
	x    InputEvent
	ySet bool
	y    InputEvent
}

func (m *motionState) has() bool { return m.xSet || m.ySet }

func (m *motionState) clear() {
	*m = motionState{}
}

// coalesceLocked implements the per-event coalescing rule. Callers
// hold s.mu.
func (s *Stack) coalesceLocked(ev InputEvent) {
	m := &s.motion

	if m.has() && (ev.DeviceID != m.deviceID || ev.TimestampNS-m.tsNS > staleNS) {
		s.flushMotionLocked()
	}

	if !m.has() {
		m.deviceID = ev.DeviceID
		m.tsNS = ev.TimestampNS
		s.scheduleFlushLocked()
	}

	slot := &m.x
	set := &m.xSet
	if ev.Axis == 1 {
		slot = &m.y
		set = &m.ySet
	}

	if ev.AxisAbs {
		*slot = ev
		slot.Follow = false
		*set = true
		return
	}

	if !*set {
		*slot = ev
		slot.AxisRel = ev.AxisRel
	} else {
		slot.AxisRel += ev.AxisRel
	}
	slot.Follow = false
	*set = true
}

// scheduleFlushLocked registers the stack's one-shot dispatch-cleanup
// handler, guaranteeing coalesced motion reaches the manager within
// one dispatch batch even if no further events arrive. Callers hold
// s.mu.
func (s *Stack) scheduleFlushLocked() {
	if s.dispatch == nil || s.cleanupSet {
		return
	}
	s.cleanupSet = true
	s.cleanupID = s.dispatch.Schedule(func() {
		s.mu.Lock()
		if s.motion.has() {
			s.flushMotionLocked()
		}
		s.cleanupSet = false
		n := s.deferredDec
		s.deferredDec = 0
		s.mu.Unlock()
		// The decrements deferred by exitDispatch during every entry
		// that found a cleanup already pending happen here, once each.
		for i := 0; i < n; i++ {
			atomic.AddInt32(&s.refCount, -1)
		}
	})
}

// flushMotionLocked dispatches any pending X then Y event, setting
// FOLLOW on X first if both are present, then clears the pending
// state. Callers hold s.mu.
func (s *Stack) flushMotionLocked() {
	m := &s.motion
	if !m.has() {
		return
	}

	if m.xSet && m.ySet {
		m.x.Follow = true
	}

	mgr := s.mgr
	if m.xSet {
		x := m.x
		if mgr != nil {
			mgr.ProcessInput(s, x)
		}
	}
	if m.ySet {
		y := m.y
		if mgr != nil {
			mgr.ProcessInput(s, y)
		}
	}

	if s.dispatch != nil && s.cleanupSet {
		s.dispatch.Cancel(s.cleanupID)
		s.cleanupSet = false
	}
	m.clear()
}
