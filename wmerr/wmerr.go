// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package wmerr defines the sentinel errors shared by every package in
// this module. Call sites wrap one of these with fmt.Errorf("%w: ...")
// so errors.Is still matches while the message carries call-specific
// detail.
package wmerr

import "errors"

var (
	// ErrInvArg means a caller argument violates a declared precondition.
	ErrInvArg = errors.New("invalid argument")

	// ErrUnsupported means the requested capability or format is not
	// provided by any pool or driver.
	ErrUnsupported = errors.New("unsupported")

	// ErrNoMemory means a shared or process-local allocation was refused.
	ErrNoMemory = errors.New("no memory")

	// ErrNoVideoMemory is a pool-level OOM signalled separately from
	// ErrNoMemory so negotiation can backtrack to another pool.
	ErrNoVideoMemory = errors.New("no video memory")

	// ErrLimitExceeded means a pool count exceeded the configured maximum.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrLocked means a surface lock stayed contended past the retry
	// budget.
	ErrLocked = errors.New("locked")

	// ErrDestroyed means the handle's underlying object is gone.
	ErrDestroyed = errors.New("destroyed")

	// ErrDead means the peer object is gone.
	ErrDead = errors.New("dead")

	// ErrIDNotFound means a numeric ID lookup missed.
	ErrIDNotFound = errors.New("id not found")

	// ErrItemNotFound means a lookup by value missed.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvArea means a rectangle or region argument has an empty
	// intersection with the target area.
	ErrInvArea = errors.New("invalid area")

	// ErrBufferEmpty means the event queue has no record.
	ErrBufferEmpty = errors.New("buffer empty")

	// ErrTimeout means a wait's deadline expired without an event.
	ErrTimeout = errors.New("timeout")

	// ErrInterrupted means a wait was woken without a queued event.
	ErrInterrupted = errors.New("interrupted")

	// ErrIPC means a cross-process operation failed.
	ErrIPC = errors.New("ipc failure")

	// ErrBug means an internal invariant was violated by caller
	// misuse (e.g. a pool join out of registration order).
	ErrBug = errors.New("bug")
)
