// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package event

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/gviegas/wm/wmerr"
	"github.com/gviegas/wm/wmlog"
)

// pipeState holds the feeder goroutine's plumbing once a Buffer has
// been switched into pipe mode. In that mode the queue itself goes
// unused: every admitted Event is marshalled into a RecordSize-byte
// record and written to the pipe's write end by a dedicated feeder
// goroutine through a bounded channel. Producers never block on it:
// when the channel is full (a slow consumer), the Event is dropped and
// counted in dropped, rather than growing an unbounded in-process queue.
type pipeState struct {
	w *os.File
	r *os.File

	mu      sync.Mutex
	ch      chan Event
	done    chan struct{}
	stopped chan struct{}
	dropped int
}

// EnablePipeMode switches b into pipe mode and returns the read end of
// the pipe, suitable for handing to CreateFileDescriptor callers (a
// select/poll loop). Once enabled, Reset, GetEvent, PeekEvent and
// WaitForEvent* return wmerr.ErrUnsupported and HasEvent reports
// false, since a pipe-mode buffer is drained exclusively through the
// file descriptor.
func (b *Buffer) EnablePipeMode() (*os.File, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pipe != nil {
		return b.pipe.r, nil
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%s%w: %v", prefix, wmerr.ErrBug, err)
	}
	n := len(b.queue)
	if n < 64 {
		n = 64
	}
	ps := &pipeState{
		w:       w,
		r:       r,
		ch:      make(chan Event, n),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	// Events queued before the switch come out of the descriptor too,
	// ahead of anything posted afterwards.
	for _, e := range b.queue {
		ps.ch <- e
	}
	b.pipe = ps
	b.queue = nil
	go ps.run()
	return r, nil
}

// CreateFileDescriptor is an alias for EnablePipeMode kept under the
// name the dispatch loop (select/poll on a descriptor) expects.
func (b *Buffer) CreateFileDescriptor() (*os.File, error) {
	return b.EnablePipeMode()
}

// DisablePipeMode stops the feeder goroutine and closes the pipe,
// returning the Buffer to queue-backed mode. The feeder is joined
// before the read end closes; the write end closes first so a feeder
// blocked mid-write wakes up.
func (b *Buffer) DisablePipeMode() {
	b.mu.Lock()
	ps := b.pipe
	b.pipe = nil
	b.mu.Unlock()
	if ps == nil {
		return
	}
	close(ps.done)
	ps.w.Close()
	<-ps.stopped
	ps.r.Close()
}

// feed hands e to the feeder goroutine, called with b.mu held.
func (ps *pipeState) feed(e Event) {
	select {
	case ps.ch <- e:
	default:
		ps.mu.Lock()
		ps.dropped++
		ps.mu.Unlock()
	}
}

// warnDroppedUniversal logs that a ClassUniversal event was discarded:
// a fixed-size record has no room for an application-defined payload
// whose size the feeder doesn't control.
func (ps *pipeState) warnDroppedUniversal() {
	wmlog.Warn("event", "dropped universal event: unsupported in pipe mode")
}

// run drains queued Events into fixed-size records on the pipe's write
// end until DisablePipeMode closes done.
func (ps *pipeState) run() {
	defer close(ps.stopped)
	var rec [RecordSize]byte
	for {
		select {
		case <-ps.done:
			return
		case e := <-ps.ch:
			encodeRecord(&rec, e)
			if _, err := ps.w.Write(rec[:]); err != nil {
				return
			}
		}
	}
}

// encodeRecord packs e's class and subtype tag into a fixed-size
// record. Data is intentionally not serialized: a pipe-mode consumer
// is expected to be an out-of-process dispatcher that only needs the
// tag to decide how to re-fetch full state.
func encodeRecord(rec *[RecordSize]byte, e Event) {
	for i := range rec {
		rec[i] = 0
	}
	binary.LittleEndian.PutUint32(rec[0:4], uint32(e.Class))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(e.Type))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(e.Size))
}
