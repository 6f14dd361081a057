// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package event

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gviegas/wm/wmerr"
)

// For a single-threaded producer, GetEvent returns events in
// PostEvent order.
func TestFIFOOrder(t *testing.T) {
	b := New(nil, nil)
	for i := 0; i < 5; i++ {
		if err := b.PostEvent(Event{Class: ClassUser, Type: i}); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}
	for i := 0; i < 5; i++ {
		e, err := b.GetEvent()
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if e.Type != i {
			t.Fatalf("out of order: got type %d, want %d", e.Type, i)
		}
	}
	if _, err := b.GetEvent(); err == nil {
		t.Fatal("expected empty buffer error")
	}
}

// Enabling statistics after posting N events of type T yields a
// counter of N for T; disabling resets to 0.
func TestStatisticsReplayAndReset(t *testing.T) {
	b := New(nil, nil)
	for i := 0; i < 4; i++ {
		b.PostEvent(Event{Class: ClassWindow, Type: 7})
	}
	b.PostEvent(Event{Class: ClassWindow, Type: 9})

	b.EnableStatistics(true)
	stats := b.GetStatistics()
	if stats[ClassWindow][7] != 4 {
		t.Fatalf("expected 4 events of type 7, got %d", stats[ClassWindow][7])
	}
	if stats[ClassWindow][9] != 1 {
		t.Fatalf("expected 1 event of type 9, got %d", stats[ClassWindow][9])
	}

	b.EnableStatistics(false)
	stats = b.GetStatistics()
	if len(stats) != 0 {
		t.Fatalf("expected stats cleared, got %v", stats)
	}
}

func TestPostEventRejectsUnknownClass(t *testing.T) {
	b := New(nil, nil)
	if err := b.PostEvent(Event{Class: Class(99)}); err == nil {
		t.Fatal("expected error for invalid class")
	}
}

// The discard-repeat-events option (on by default) suppresses
// repeat-flagged key/window events at PostEvent entry; repeat-flagged
// events of other classes and unflagged events pass through.
func TestPostEventDiscardsRepeats(t *testing.T) {
	b := New(nil, nil)
	b.PostEvent(Event{Class: ClassWindow, Type: 1, Flags: FlagRepeat})
	b.PostEvent(Event{Class: ClassInput, Type: 2, Flags: FlagRepeat})
	b.PostEvent(Event{Class: ClassUser, Type: 3, Flags: FlagRepeat})
	b.PostEvent(Event{Class: ClassWindow, Type: 4})

	for _, want := range []int{3, 4} {
		e, err := b.GetEvent()
		if err != nil || e.Type != want {
			t.Fatalf("expected type %d admitted, got %+v err=%v", want, e, err)
		}
	}
	if b.HasEvent() {
		t.Fatal("expected repeat-flagged key/window events discarded")
	}
}

func TestFilterRejectsEvent(t *testing.T) {
	b := New(func(e Event, ctx any) bool { return e.Type != 1 }, nil)
	b.PostEvent(Event{Class: ClassUser, Type: 1})
	b.PostEvent(Event{Class: ClassUser, Type: 2})
	if !b.HasEvent() {
		t.Fatal("expected the admitted event to be queued")
	}
	e, err := b.GetEvent()
	if err != nil || e.Type != 2 {
		t.Fatalf("expected only type 2 admitted, got %+v err=%v", e, err)
	}
}

// Posting window events and switching to pipe mode yields one
// fixed-size record per event on the descriptor, with events already
// queued at the switch draining ahead of later posts. A subsequent
// Reset is unsupported.
func TestPipeModeRoundtrip(t *testing.T) {
	b := New(nil, nil)
	types := []int{10, 11, 12}
	for _, typ := range types {
		b.PostEvent(Event{Class: ClassWindow, Type: typ})
	}

	r, err := b.CreateFileDescriptor()
	if err != nil {
		t.Fatalf("CreateFileDescriptor: %v", err)
	}
	defer b.DisablePipeMode()

	for _, typ := range []int{13, 14, 15} {
		b.PostEvent(Event{Class: ClassWindow, Type: typ})
	}

	var rec [RecordSize]byte
	for _, want := range []int{10, 11, 12, 13, 14, 15} {
		n, err := readFull(r, rec[:])
		if err != nil || n != RecordSize {
			t.Fatalf("read record: n=%d err=%v", n, err)
		}
		class := binary.LittleEndian.Uint32(rec[0:4])
		typ := binary.LittleEndian.Uint32(rec[4:8])
		if Class(class) != ClassWindow || int(typ) != want {
			t.Fatalf("record mismatch: class=%d type=%d want type=%d", class, typ, want)
		}
	}

	if err := b.Reset(); err == nil {
		t.Fatal("expected Reset to be unsupported in pipe mode")
	} else if !errors.Is(err, wmerr.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
