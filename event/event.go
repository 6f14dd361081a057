// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package event implements the multi-producer event buffer: a FIFO of
// tagged-union event records with an optional predicate filter,
// per-subtype statistics, and a pipe-mode feeder thread. The queueing
// discipline is a mutex-guarded slice plus a condition variable
// signalled on every post, in the manner of
// golang.org/x/exp/shiny/driver/internal/event's Deque.
package event

import (
	"fmt"
	"sync"
	"time"

	"github.com/gviegas/wm/config"
	"github.com/gviegas/wm/ipc"
	"github.com/gviegas/wm/surface"
	"github.com/gviegas/wm/wmerr"
)

const prefix = "event: "

// Class identifies which tagged-union arm an Event's Data holds.
type Class int

const (
	ClassInput Class = iota
	ClassWindow
	ClassSurface
	ClassUser
	ClassVideoProvider
	ClassUniversal
)

func (c Class) valid() bool {
	return c >= ClassInput && c <= ClassUniversal
}

// Minimum and maximum sizes a ClassUniversal event's self-described
// Size may declare: at least the header, at most the fixed record
// size. RecordSize is also the size of every fixed-width record the
// pipe-mode feeder writes.
const (
	MinUniversalSize = 16
	RecordSize       = 256
)

// Flags carry cross-class event attributes.
type Flags uint32

const (
	FlagNone Flags = 0
	// FlagRepeat marks an auto-repeated key or window event. Such
	// events are discarded at PostEvent entry when the
	// discard-repeat-events option is set.
	FlagRepeat Flags = 1 << iota
)

// Event is a tagged-union record. Type is the class-specific subtype
// tag used for statistics and filtering (e.g. a window configuration
// change vs a destroy). Data carries the class-specific payload as an
// interface value. Size is only meaningful for ClassUniversal.
type Event struct {
	Class Class
	Type  int
	Flags Flags
	Data  any
	Size  int
}

func (e Event) valid() bool {
	if !e.Class.valid() {
		return false
	}
	if e.Class == ClassUniversal && (e.Size < MinUniversalSize || e.Size > RecordSize) {
		return false
	}
	return true
}

// statKey identifies one (class, subtype) counter bucket.
type statKey struct {
	class Class
	typ   int
}

// WindowRef is the minimal surface a façade/window type must expose
// to be attached to a Buffer: an identity and the reactor it publishes
// state-change reactions on. Package wm's Window satisfies this
// structurally, so this package need not import wm (which would
// otherwise cycle back here once the façade routes events through a
// Buffer).
type WindowRef interface {
	ID() ipc.ObjectID
	Reactions() *ipc.Reactor
}

// Filter decides whether an Event should be admitted to the queue.
// ctx is caller-supplied state threaded through unchanged.
type Filter func(e Event, ctx any) bool

// Buffer is a thread-safe multi-producer, multi-consumer FIFO of
// Events.
type Buffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue []Event

	filter    Filter
	filterCtx any

	refCount int32

	statsEnabled bool
	stats        map[statKey]int

	pipe *pipeState

	windows      []attachedWindow
	surfaces     []attachedSurface
	inputDevices []attachedInput
}

type attachedWindow struct {
	win      WindowRef
	reactID  uint64
	detached bool
}

type attachedSurface struct {
	surf    *surface.Surface
	reactID uint64
}

type attachedInput struct {
	deviceID int
	detach   func()
}

// New creates an empty Buffer. filter and ctx may be nil to admit
// every Event.
func New(filter Filter, ctx any) *Buffer {
	b := &Buffer{filter: filter, filterCtx: ctx}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Ref increments the buffer's reference count and returns the new
// value, mirroring the event-buffer's shared-ownership with attached
// windows/surfaces.
func (b *Buffer) Ref() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refCount++
	return b.refCount
}

// Unref decrements the reference count and returns the new value.
func (b *Buffer) Unref() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refCount--
	return b.refCount
}

// Reset clears every queued Event. It returns wmerr.ErrUnsupported in
// pipe mode.
func (b *Buffer) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	b.queue = b.queue[:0]
	return nil
}

// admit reports whether e passes the configured filter, if any.
func (b *Buffer) admit(e Event) bool {
	if b.filter == nil {
		return true
	}
	return b.filter(e, b.filterCtx)
}

// PostEvent validates and enqueues e, waking any waiter. It is
// rejected with wmerr.ErrInvArg for an unknown class or malformed
// universal size.
func (b *Buffer) PostEvent(e Event) error {
	if !e.valid() {
		return fmt.Errorf("%s%w", prefix, wmerr.ErrInvArg)
	}
	if e.Flags&FlagRepeat != 0 && (e.Class == ClassInput || e.Class == ClassWindow) &&
		config.Current().DiscardRepeat {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipe != nil {
		if e.Class == ClassUniversal {
			b.pipe.warnDroppedUniversal()
			return nil
		}
		b.pipe.feed(e)
		return nil
	}

	if !b.admit(e) {
		return nil
	}
	b.queue = append(b.queue, e)
	if b.statsEnabled {
		b.bumpLocked(e)
	}
	b.cond.Broadcast()
	return nil
}

func (b *Buffer) bumpLocked(e Event) {
	if b.stats == nil {
		b.stats = make(map[statKey]int)
	}
	b.stats[statKey{e.Class, e.Type}]++
}

// GetEvent removes and returns the oldest queued Event. It returns
// wmerr.ErrBufferEmpty if the queue is empty, and wmerr.ErrUnsupported
// in pipe mode.
func (b *Buffer) GetEvent() (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	if len(b.queue) == 0 {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrBufferEmpty)
	}
	e := b.queue[0]
	b.queue = b.queue[1:]
	return e, nil
}

// PeekEvent returns the oldest queued Event without removing it.
func (b *Buffer) PeekEvent() (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	if len(b.queue) == 0 {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrBufferEmpty)
	}
	return b.queue[0], nil
}

// HasEvent reports whether the queue is non-empty. In pipe mode it
// always reports false; it has no error result to signal the mode.
func (b *Buffer) HasEvent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return false
	}
	return len(b.queue) > 0
}

// WaitForEvent blocks until an Event is queued, then returns it as
// GetEvent would.
func (b *Buffer) WaitForEvent() (Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}
	for len(b.queue) == 0 {
		b.cond.Wait()
		if b.pipe != nil {
			return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
		}
	}
	e := b.queue[0]
	b.queue = b.queue[1:]
	return e, nil
}

// WaitForEventWithTimeout blocks until an Event is queued or the
// deadline (seconds·1e6 + ms·1e3 microseconds from now) expires. It
// returns wmerr.ErrTimeout on deadline expiry and wmerr.ErrInterrupted
// if woken (via WakeUp) with no Event queued.
func (b *Buffer) WaitForEventWithTimeout(seconds, ms int64) (Event, error) {
	deadline := time.Now().Add(time.Duration(seconds*1e6+ms*1e3) * time.Microsecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrUnsupported)
	}

	for len(b.queue) == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrTimeout)
		}
		woke := make(chan struct{})
		timer := time.AfterFunc(remaining, func() {
			b.mu.Lock()
			close(woke)
			b.cond.Broadcast()
			b.mu.Unlock()
		})
		b.cond.Wait()
		timer.Stop()
		select {
		case <-woke:
			if len(b.queue) == 0 {
				return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrTimeout)
			}
		default:
			if len(b.queue) == 0 {
				return Event{}, fmt.Errorf("%s%w", prefix, wmerr.ErrInterrupted)
			}
		}
	}
	e := b.queue[0]
	b.queue = b.queue[1:]
	return e, nil
}

// WakeUp wakes every blocked waiter without posting an Event, used to
// interrupt a Wait*.
func (b *Buffer) WakeUp() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cond.Broadcast()
}

// EnableStatistics turns per-subtype counting on or off. Enabling
// replays every currently-queued Event through the counters; disabling
// zeroes them.
func (b *Buffer) EnableStatistics(enable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statsEnabled = enable
	if !enable {
		b.stats = nil
		return
	}
	b.stats = make(map[statKey]int)
	for _, e := range b.queue {
		b.bumpLocked(e)
	}
}

// GetStatistics returns a snapshot of the per-(class,subtype) counters.
func (b *Buffer) GetStatistics() map[Class]map[int]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[Class]map[int]int)
	for k, n := range b.stats {
		m, ok := out[k.class]
		if !ok {
			m = make(map[int]int)
			out[k.class] = m
		}
		m[k.typ] = n
	}
	return out
}
