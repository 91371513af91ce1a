package memcheck

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddRemove(t *testing.T) {
	m := New()
	changes := 0
	m.OnChange = func() { changes++ }

	if m.HasAny() {
		t.Fatal("HasAny() = true on empty set")
	}
	if err := m.Add(MemCheck{Start: 0x80001000, End: 0x80001003, OnWrite: true, Break: true}); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(MemCheck{Start: 0x80001000, End: 0x80001003, OnRead: true}); err != nil {
		t.Fatal(err)
	}
	if got := len(m.List()); got != 1 {
		t.Fatalf("len(List()) = %d, want 1 (same range replaces)", got)
	}
	if !m.List()[0].OnRead || m.List()[0].OnWrite {
		t.Errorf("replacement not applied: %v", m.List()[0])
	}

	if m.Remove(0x1234) {
		t.Errorf("Remove of unknown check returned true")
	}
	if !m.Remove(0x80001000) {
		t.Errorf("Remove returned false")
	}
	if m.HasAny() {
		t.Errorf("HasAny() = true after Remove")
	}
	if changes != 3 {
		t.Errorf("OnChange called %d times, want 3", changes)
	}
}

func TestAddInvalid(t *testing.T) {
	m := New()
	if err := m.Add(MemCheck{Start: 10, End: 5, OnRead: true}); err == nil {
		t.Errorf("reversed range accepted")
	}
	if err := m.Add(MemCheck{Start: 10, End: 20}); err == nil {
		t.Errorf("check without read/write accepted")
	}
}

func TestOverlaps(t *testing.T) {
	m := New()
	m.Add(MemCheck{Start: 0x00400010, End: 0x0040001F, OnRead: true, OnWrite: true})

	tests := []struct {
		addr, length uint32
		want         bool
	}{
		{0x00400000, 0x10, false},
		{0x00400000, 0x11, true},
		{0x0040001F, 1, true},
		{0x00400020, 4, false},
		{0x00400000, 1 << 17, true},
		{0x00420000, 1 << 17, false},
		{0x00000000, 0x01000000, true},
	}
	for _, tt := range tests {
		if got := m.OverlapsMemcheck(tt.addr, tt.length); got != tt.want {
			t.Errorf("OverlapsMemcheck(%08x, %x) = %t, want %t", tt.addr, tt.length, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	m := New()
	m.Add(MemCheck{Start: 0x100, End: 0x103, OnWrite: true, Break: true, Log: true})
	m.Add(MemCheck{Start: 0x200, End: 0x2FF, OnRead: true})

	if m.Check(0x100, 0, 4, false, 0) {
		t.Errorf("read on write-only check paused")
	}
	if !m.Check(0x102, 0xAB, 1, true, 0x80003000) {
		t.Errorf("write on break check didn't pause")
	}
	if m.Check(0x280, 0, 4, false, 0) {
		t.Errorf("check without Break paused")
	}
	if m.Check(0x104, 0, 4, true, 0) {
		t.Errorf("access outside any check paused")
	}

	var hits []uint64
	for _, mc := range m.List() {
		hits = append(hits, mc.NumHits)
	}
	if diff := cmp.Diff([]uint64{1, 1}, hits); diff != "" {
		t.Errorf("hit counts mismatch (-want +got):\n%s", diff)
	}
}

func TestString(t *testing.T) {
	mc := &MemCheck{Start: 0x10, End: 0x1F, OnRead: true, OnWrite: true, Break: true, NumHits: 2}
	if got, want := mc.String(), "00000010-0000001f rw break hits=2"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
