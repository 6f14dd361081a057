// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package ipc stands in for the cross-process fabric the rest of this
// module treats as an external collaborator: a shared heap, skirmish
// (cross-process mutex) locks, a reaction (observer) registry, and
// dispatch-cleanup scheduling. None of this package actually crosses
// a process boundary; it is the seam the real IPC fabric would be
// plugged into, modeled in-process so the rest of the module has
// something concrete to call.
package ipc

import "sync/atomic"

// ObjectID is a process-wide unique identifier, analogous to the IPC
// fabric's object IDs.
type ObjectID uint64

// Core is the shared context threaded through every call in place of
// process-global state.
type Core struct {
	nextID atomic.Uint64
}

// NewCore creates a fresh Core. Each Core has its own independent ID
// space.
func NewCore() *Core {
	return &Core{}
}

// NewID returns the next ObjectID from this Core's ID space. IDs start
// at 1; 0 is reserved to mean "no object".
func (c *Core) NewID() ObjectID {
	return ObjectID(c.nextID.Add(1))
}
