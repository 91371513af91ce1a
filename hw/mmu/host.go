package mmu

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
)

// RequestedAddressSpace selects how a host access interprets its address.
type RequestedAddressSpace int

const (
	// Effective addresses are translated if the guest has translation on.
	Effective RequestedAddressSpace = iota
	// Physical addresses are never translated.
	Physical
	// Virtual addresses are always translated; accesses fail if the guest
	// has translation off.
	Virtual
)

func (s RequestedAddressSpace) String() string {
	switch s {
	case Effective:
		return "effective"
	case Physical:
		return "physical"
	case Virtual:
		return "virtual"
	}
	return "unknown"
}

// ParseAddressSpace returns the address space named name.
func ParseAddressSpace(name string) (RequestedAddressSpace, error) {
	for _, s := range []RequestedAddressSpace{Effective, Physical, Virtual} {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown address space %q", name)
}

// Value is the set of types host accesses can read and write.
type Value interface {
	uint8 | uint16 | uint32 | uint64 |
		int8 | int16 | int32 | int64 |
		float32 | float64
}

// ReadResult is the outcome of a successful host read. Translated reports
// whether the address went through virtual address translation.
type ReadResult[T any] struct {
	Translated bool
	Value      T
}

// WriteResult is the outcome of a successful host write.
type WriteResult struct {
	Translated bool
}

func sizeOf[T Value]() int {
	var v T
	switch any(v).(type) {
	case uint8, int8:
		return 1
	case uint16, int16:
		return 2
	case uint32, int32, float32:
		return 4
	}
	return 8
}

func fromBits[T Value](v uint64) (r T) {
	switch p := any(&r).(type) {
	case *uint8:
		*p = uint8(v)
	case *uint16:
		*p = uint16(v)
	case *uint32:
		*p = uint32(v)
	case *uint64:
		*p = v
	case *int8:
		*p = int8(v)
	case *int16:
		*p = int16(v)
	case *int32:
		*p = int32(v)
	case *int64:
		*p = int64(v)
	case *float32:
		*p = math.Float32frombits(uint32(v))
	case *float64:
		*p = math.Float64frombits(v)
	}
	return r
}

func toBits[T Value](v T) uint64 {
	switch x := any(v).(type) {
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case int8:
		return uint64(uint8(x))
	case int16:
		return uint64(uint16(x))
	case int32:
		return uint64(uint32(x))
	case int64:
		return uint64(x)
	case float32:
		return uint64(math.Float32bits(x))
	case float64:
		return math.Float64bits(x)
	}
	panic("unreachable")
}

func (m *MMU) isRAMAddress(flag XCheckTLBFlag, addr uint32, translate bool) bool {
	if translate {
		res := m.TranslateAddress(flag, addr)
		if !res.Success() {
			return false
		}
		addr = res.Address
	}
	return m.isPhysicalMemory(addr)
}

func (m *MMU) isRAMAddressIn(flag XCheckTLBFlag, addr uint32, space RequestedAddressSpace) bool {
	enabled := m.translationEnabled(flag)
	switch space {
	case Effective:
		return m.isRAMAddress(flag, addr, enabled)
	case Physical:
		return m.isRAMAddress(flag, addr, false)
	case Virtual:
		return enabled && m.isRAMAddress(flag, addr, true)
	}
	return false
}

// translatedIn reports whether a host access at addr in the given space
// goes through virtual address translation. Effective addresses served by a
// BAT block over plain memory are considered physical.
func (m *MMU) translatedIn(flag XCheckTLBFlag, addr uint32, space RequestedAddressSpace) bool {
	switch space {
	case Physical:
		return false
	case Virtual:
		return true
	}
	if !m.translationEnabled(flag) {
		return false
	}
	table := &m.dbat
	if isOpcodeFlag(flag) {
		table = &m.ibat
	}
	return table[addr>>BATIndexShift]&BATPhysicalBit == 0
}

// HostIsRAMAddress reports whether addr resolves to memory (as opposed to
// MMIO or nothing at all) in the given address space. It never has side
// effects on the guest.
func HostIsRAMAddress(g *CPUThreadGuard, addr uint32, space RequestedAddressSpace) bool {
	return g.MMU().isRAMAddressIn(NoException, addr, space)
}

// HostIsInstructionRAMAddress is like HostIsRAMAddress but uses instruction
// address translation.
func HostIsInstructionRAMAddress(g *CPUThreadGuard, addr uint32, space RequestedAddressSpace) bool {
	return g.MMU().isRAMAddressIn(OpcodeNoException, addr, space)
}

func hostTryRead(m *MMU, flag XCheckTLBFlag, addr uint32, size int, space RequestedAddressSpace) (uint64, bool, bool) {
	if !m.isRAMAddressIn(flag, addr, space) {
		return 0, false, false
	}
	v, ok := m.readFromHardware(flag, addr, size, space == Physical)
	if !ok {
		return 0, false, false
	}
	return v, m.translatedIn(flag, addr, space), true
}

// HostTryRead reads a value from guest memory without side effects on the
// guest. ok is false if addr doesn't resolve to memory.
func HostTryRead[T Value](g *CPUThreadGuard, addr uint32, space RequestedAddressSpace) (ReadResult[T], bool) {
	v, translated, ok := hostTryRead(g.MMU(), NoException, addr, sizeOf[T](), space)
	if !ok {
		return ReadResult[T]{}, false
	}
	return ReadResult[T]{Translated: translated, Value: fromBits[T](v)}, true
}

// HostRead reads a value at the effective address addr. Failures are
// reported with an alert and read as zero.
func HostRead[T Value](g *CPUThreadGuard, addr uint32) T {
	m := g.MMU()
	v, ok := m.readFromHardware(NoException, addr, sizeOf[T](), false)
	if !ok {
		m.alertf("Unable to read %d bytes from %#08x", sizeOf[T](), addr)
		return 0
	}
	return fromBits[T](v)
}

func hostWrite(m *MMU, addr uint32, v uint64, size int, neverTranslate bool) bool {
	if size == 8 {
		if !m.writeToHardware(NoException, addr, uint32(v>>32), 4, neverTranslate) {
			return false
		}
		return m.writeToHardware(NoException, addr+4, uint32(v), 4, neverTranslate)
	}
	return m.writeToHardware(NoException, addr, uint32(v), size, neverTranslate)
}

// HostTryWrite writes a value to guest memory without side effects on the
// guest. ok is false if addr doesn't resolve to memory, or if a 64-bit write
// failed on either word; in the latter case the high word may have been
// written.
func HostTryWrite[T Value](g *CPUThreadGuard, val T, addr uint32, space RequestedAddressSpace) (WriteResult, bool) {
	m := g.MMU()
	if !m.isRAMAddressIn(NoException, addr, space) {
		return WriteResult{}, false
	}
	if !hostWrite(m, addr, toBits(val), sizeOf[T](), space == Physical) {
		return WriteResult{}, false
	}
	return WriteResult{Translated: m.translatedIn(NoException, addr, space)}, true
}

// HostWrite writes a value at the effective address addr. Failures are
// reported with an alert.
func HostWrite[T Value](g *CPUThreadGuard, val T, addr uint32) {
	m := g.MMU()
	if !hostWrite(m, addr, toBits(val), sizeOf[T](), false) {
		m.alertf("Unable to write %d bytes to %#08x", sizeOf[T](), addr)
	}
}

// HostReadInstruction reads the instruction word at the effective address
// addr. Failures are reported with an alert and read as zero.
func HostReadInstruction(g *CPUThreadGuard, addr uint32) uint32 {
	m := g.MMU()
	v, ok := m.readFromHardware(OpcodeNoException, addr, 4, false)
	if !ok {
		m.alertf("Unable to read instruction from %#08x", addr)
		return 0
	}
	return uint32(v)
}

// HostTryReadInstruction reads the instruction word at addr using
// instruction address translation.
func HostTryReadInstruction(g *CPUThreadGuard, addr uint32, space RequestedAddressSpace) (ReadResult[uint32], bool) {
	v, translated, ok := hostTryRead(g.MMU(), OpcodeNoException, addr, 4, space)
	if !ok {
		return ReadResult[uint32]{}, false
	}
	return ReadResult[uint32]{Translated: translated, Value: uint32(v)}, true
}

// HostGetString reads a NUL-terminated string at the effective address addr.
// At most size bytes are read; 0 means no limit. Reading stops at the first
// address that is not memory.
func HostGetString(g *CPUThreadGuard, addr uint32, size int) string {
	var sb strings.Builder
	for size == 0 || sb.Len() < size {
		if !HostIsRAMAddress(g, addr, Effective) {
			break
		}
		c := HostRead[uint8](g, addr)
		if c == 0 {
			break
		}
		sb.WriteByte(c)
		addr++
	}
	return sb.String()
}

// HostGetU16String reads a NUL-terminated big-endian UTF-16 string at the
// effective address addr. At most size code units are read; 0 means no
// limit.
func HostGetU16String(g *CPUThreadGuard, addr uint32, size int) string {
	var units []uint16
	for size == 0 || len(units) < size {
		if !HostIsRAMAddress(g, addr, Effective) {
			break
		}
		c := HostRead[uint16](g, addr)
		if c == 0 {
			break
		}
		units = append(units, c)
		addr += 2
	}
	return string(utf16.Decode(units))
}

// HostTryReadString reads a NUL-terminated string at addr. It fails only if
// the first byte can't be read. At most size bytes are read; 0 means no
// limit.
func HostTryReadString(g *CPUThreadGuard, addr uint32, space RequestedAddressSpace, size int) (ReadResult[string], bool) {
	first, ok := HostTryRead[uint8](g, addr, space)
	if !ok {
		return ReadResult[string]{}, false
	}
	if first.Value == 0 {
		return ReadResult[string]{Translated: first.Translated}, true
	}

	var sb strings.Builder
	sb.WriteByte(first.Value)
	for size == 0 || sb.Len() < size {
		addr++
		c, ok := HostTryRead[uint8](g, addr, space)
		if !ok || c.Value == 0 {
			break
		}
		sb.WriteByte(c.Value)
	}
	return ReadResult[string]{Translated: first.Translated, Value: sb.String()}, true
}
