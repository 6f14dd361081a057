// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package ipc

import "testing"

func TestSkirmishReentrant(t *testing.T) {
	s := NewSkirmish()
	tok := "caller"
	s.Lock(tok)
	if !s.TryLock(tok) {
		t.Fatal("expected reentrant TryLock by the same token to succeed")
	}
	s.Unlock(tok)
	if s.Holder() != tok {
		t.Fatalf("expected still held after one of two unlocks, got %v", s.Holder())
	}
	s.Unlock(tok)
	if s.Holder() != nil {
		t.Fatalf("expected released after matching unlocks, got %v", s.Holder())
	}
}

func TestSkirmishExcludesOtherToken(t *testing.T) {
	s := NewSkirmish()
	s.Lock("a")
	if s.TryLock("b") {
		t.Fatal("expected TryLock by a different token to fail while held")
	}
	s.Unlock("a")
	if !s.TryLock("b") {
		t.Fatal("expected TryLock to succeed once released")
	}
}

func TestReactorRemoveDuringDispatch(t *testing.T) {
	r := NewReactor()
	var calls int
	r.Attach(func(any) Outcome {
		calls++
		return Remove
	})
	r.Dispatch(nil)
	if r.Len() != 0 {
		t.Fatalf("expected self-removing reaction to be detached, len=%d", r.Len())
	}
	r.Dispatch(nil)
	if calls != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls)
	}
}

func TestDispatchQueueDrainRunsOnce(t *testing.T) {
	q := NewDispatchQueue()
	var n int
	q.Schedule(func() { n++ })
	id := q.Schedule(func() { n += 10 })
	q.Cancel(id)
	q.DrainBatch()
	if n != 1 {
		t.Fatalf("expected only the non-canceled cleanup to run once, got n=%d", n)
	}
	q.DrainBatch()
	if n != 1 {
		t.Fatalf("expected second drain to be a no-op, got n=%d", n)
	}
}
