package reg

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	s := New(make([]byte, 16))

	s.Set(0, 0xdeadbeef)

	if got := s.Get(0); got != 0xdeadbeef {
		t.Fatalf("got %#x, want %#x", got, 0xdeadbeef)
	}
}

func TestSetClearFlags(t *testing.T) {
	s := New(make([]byte, 16))

	s.SetFlags(4, 0b101)
	if got := s.Get(4); got != 0b101 {
		t.Fatalf("got %#x, want %#x", got, 0b101)
	}

	s.ClearFlags(4, 0b001)
	if got := s.Get(4); got != 0b100 {
		t.Fatalf("got %#x, want %#x", got, 0b100)
	}
}

func TestWaitSetTimesOut(t *testing.T) {
	s := New(make([]byte, 16))

	if s.WaitSet(8, 0x1, 5*time.Millisecond) {
		t.Fatal("expected timeout, got success")
	}
}

func TestWaitClearSucceedsImmediately(t *testing.T) {
	s := New(make([]byte, 16))

	if !s.WaitClear(8, 0x1, 5*time.Millisecond) {
		t.Fatal("expected immediate success")
	}
}

func TestGetPanicsOutOfBounds(t *testing.T) {
	s := New(make([]byte, 4))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out-of-bounds access")
		}
	}()

	s.Get(4)
}
