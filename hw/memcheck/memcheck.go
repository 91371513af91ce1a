// Package memcheck implements memory breakpoints: address ranges that log
// and/or pause the CPU when the guest reads or writes them.
package memcheck

import (
	"fmt"
	"slices"

	"gekko/emu/log"
	"gekko/hw/hwio"
)

// blockShift matches the BAT block granularity (128KiB): the MMU asks
// whether a whole block overlaps a memcheck when it builds its fast-path
// tables.
const blockShift = 17

var modDbg = log.NewModule("dbg")

// MemCheck is a memory breakpoint covering [Start, End] (inclusive).
type MemCheck struct {
	Start, End uint32

	OnRead  bool
	OnWrite bool

	Log   bool // log each hit
	Break bool // pause the CPU on hit

	NumHits uint64
}

func (mc *MemCheck) String() string {
	s := fmt.Sprintf("%08x-%08x ", mc.Start, mc.End)
	switch {
	case mc.OnRead && mc.OnWrite:
		s += "rw"
	case mc.OnRead:
		s += "r"
	case mc.OnWrite:
		s += "w"
	}
	if mc.Log {
		s += " log"
	}
	if mc.Break {
		s += " break"
	}
	return s + fmt.Sprintf(" hits=%d", mc.NumHits)
}

func (mc *MemCheck) overlaps(addr, length uint32) bool {
	last := addr + length - 1
	return addr <= mc.End && mc.Start <= last
}

// Action records a hit and returns true if the CPU should pause.
func (mc *MemCheck) Action(value uint64, addr uint32, write bool, size int, pc uint32) bool {
	if (write && !mc.OnWrite) || (!write && !mc.OnRead) {
		return false
	}

	mc.NumHits++
	if mc.Log {
		kind := "read"
		if write {
			kind = "write"
		}
		modDbg.InfoZ("memcheck hit").
			String("access", kind).
			Int("size", size*8).
			Hex64("value", value).
			Addr("addr", addr).
			Addr("pc", pc).
			End()
	}
	return mc.Break
}

// MemChecks is the set of active memory breakpoints.
type MemChecks struct {
	checks []*MemCheck
	blocks hwio.Bitset // BAT blocks touched by at least one check

	// OnChange, if set, is called whenever the set of checks changes, so that
	// cached translations can be rebuilt.
	OnChange func()
}

func New() *MemChecks {
	return &MemChecks{}
}

func (m *MemChecks) changed() {
	m.blocks.Reset()
	for _, mc := range m.checks {
		m.blocks.SetRange(uint(mc.Start>>blockShift), uint(mc.End>>blockShift)+1)
	}
	if m.OnChange != nil {
		m.OnChange()
	}
}

// Add registers a new memcheck. A check with the same range replaces the
// previous one.
func (m *MemChecks) Add(mc MemCheck) error {
	if mc.End < mc.Start {
		return fmt.Errorf("invalid memcheck range %08x-%08x", mc.Start, mc.End)
	}
	if !mc.OnRead && !mc.OnWrite {
		return fmt.Errorf("memcheck %08x-%08x watches neither reads nor writes", mc.Start, mc.End)
	}

	m.checks = slices.DeleteFunc(m.checks, func(c *MemCheck) bool {
		return c.Start == mc.Start && c.End == mc.End
	})
	m.checks = append(m.checks, &mc)
	modDbg.DebugZ("memcheck added").Stringer("check", &mc).End()
	m.changed()
	return nil
}

// Remove deletes the memcheck starting at addr. It returns false if there was
// none.
func (m *MemChecks) Remove(addr uint32) bool {
	n := len(m.checks)
	m.checks = slices.DeleteFunc(m.checks, func(c *MemCheck) bool { return c.Start == addr })
	if len(m.checks) == n {
		return false
	}
	m.changed()
	return true
}

// Clear removes all memchecks.
func (m *MemChecks) Clear() {
	m.checks = nil
	m.changed()
}

// HasAny reports whether at least one memcheck is registered.
func (m *MemChecks) HasAny() bool {
	return len(m.checks) != 0
}

// List returns the registered memchecks.
func (m *MemChecks) List() []*MemCheck {
	return slices.Clone(m.checks)
}

// GetMemCheck returns the first memcheck overlapping [addr, addr+size), or
// nil.
func (m *MemChecks) GetMemCheck(addr uint32, size int) *MemCheck {
	if !m.blocks.Test(uint(addr>>blockShift)) && !m.blocks.Test(uint((addr+uint32(size)-1)>>blockShift)) {
		return nil
	}
	for _, mc := range m.checks {
		if mc.overlaps(addr, uint32(size)) {
			return mc
		}
	}
	return nil
}

// OverlapsMemcheck reports whether any memcheck overlaps [addr, addr+length).
func (m *MemChecks) OverlapsMemcheck(addr, length uint32) bool {
	if !m.HasAny() {
		return false
	}
	first, last := addr>>blockShift, (addr+length-1)>>blockShift
	hit := false
	for b := first; b <= last; b++ {
		if m.blocks.Test(uint(b)) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	return slices.ContainsFunc(m.checks, func(mc *MemCheck) bool {
		return mc.overlaps(addr, length)
	})
}

// Check runs the memcheck matching the access, if any, and returns true if
// the CPU should pause.
func (m *MemChecks) Check(addr uint32, value uint64, size int, write bool, pc uint32) bool {
	mc := m.GetMemCheck(addr, size)
	if mc == nil {
		return false
	}
	return mc.Action(value, addr, write, size, pc)
}
