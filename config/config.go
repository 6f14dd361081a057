// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package config holds the process-wide options consumed by the core
// engine. It is initialized once, at start-up; every option is a plain
// value-typed field read directly by its consumer.
package config

// WindowSurfacePolicy selects where window-backing surfaces prefer to
// allocate.
type WindowSurfacePolicy int

const (
	// PolicySystemOnly forces window surfaces into system memory.
	PolicySystemOnly WindowSurfacePolicy = iota
	// PolicyVideoHigh prefers the highest-priority video-capable pool.
	PolicyVideoHigh
	// PolicyAuto falls back to PolicySystemOnly unless the configured
	// driver advertises blit capability, in which case it behaves like
	// PolicyVideoHigh.
	PolicyAuto
)

// Alignment describes the (base, pitch) alignment applied to newly
// allocated surface buffers. Both fields must be powers of two of at
// least 2, or both zero to request no alignment.
type Alignment struct {
	Base  int
	Pitch int
}

// Valid reports whether the alignment is either "no alignment" (both
// zero) or a valid power-of-two pair (both >= 2).
func (a Alignment) Valid() bool {
	if a.Base == 0 && a.Pitch == 0 {
		return true
	}
	return isPow2GE2(a.Base) && isPow2GE2(a.Pitch)
}

func isPow2GE2(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// Align rounds size up to the configured alignment's base granularity.
// It is a no-op when the alignment requests none.
func (a Alignment) Align(size int) int {
	return alignTo(size, a.Base)
}

// AlignPitch rounds a row pitch up to the configured pitch
// granularity. It is a no-op when the alignment requests none.
func (a Alignment) AlignPitch(pitch int) int {
	return alignTo(pitch, a.Pitch)
}

func alignTo(n, granule int) int {
	if granule == 0 {
		return n
	}
	rem := n % granule
	if rem == 0 {
		return n
	}
	return n + (granule - rem)
}

// Mode is a preferred display resolution.
type Mode struct {
	Width, Height int
}

// Options is the full set of process-wide knobs the engine consumes.
// It is read-only after Init.
type Options struct {
	// Surface alignment for newly allocated buffers.
	Align Alignment

	// SHM pool size for the default (system memory) pool, in bytes.
	SHMPoolSize int
	// DebugSHM enables poisoning of freed blocks in the default pool.
	DebugSHM bool

	// WindowSurfacePolicy as above.
	WindowSurfacePolicy WindowSurfacePolicy

	// SingleWindow swaps the WM back-end's visible-window list for a
	// flat vector, suitable for kiosk-style single-window embeddings.
	SingleWindow bool

	// NoCursor disables the cursor subsystem entirely.
	NoCursor bool
	// CursorVideoOnly restricts the cursor surface to video-only pools.
	CursorVideoOnly bool
	// CursorResourceID names an externally supplied cursor resource.
	CursorResourceID string

	// PreferredMode is used when present among the display's supported
	// modes; the zero value means no preference.
	PreferredMode Mode

	MirrorOutputs     bool
	MultiheadOutputs  bool
	NoBanner          bool
	Quiet             bool
	Trace             bool
	NMForTrace        string
	DiscardRepeat     bool // discard-repeat-events
	SoftwareWarn      bool
	WarnAllocateBytes int64 // allocate-buffer size that triggers a warning
}

// Default returns the configuration's zero-cost baseline: no alignment,
// a 4 MiB default SHM pool, auto window-surface policy, cursor and
// repeat-event suppression enabled.
func Default() Options {
	return Options{
		SHMPoolSize:         4 << 20,
		WindowSurfacePolicy: PolicyAuto,
		DiscardRepeat:       true,
		WarnAllocateBytes:   16 << 20,
	}
}

var (
	current = Default()
	inited  bool
)

// Init installs the process-wide configuration. It may be called only
// once; subsequent calls are ignored.
func Init(opts Options) {
	if inited {
		return
	}
	current = opts
	inited = true
}

// Current returns the active configuration.
func Current() Options { return current }
