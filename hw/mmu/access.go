package mmu

import (
	"math/bits"

	"gekko/hw/ppc"
)

// memcheck runs the memory breakpoints for a guest access. A triggered
// breakpoint pauses the CPU and makes the current instruction bail out.
func (m *MMU) memcheck(addr uint32, value uint64, write bool, size int) {
	if !m.hasMemChecks() {
		return
	}
	if m.ctl != nil && m.ctl.IsStepping() {
		// disable when stepping so that resuming from a memcheck works
		return
	}
	if m.memchecks.Check(addr, value, size, write, m.cpu.PC) {
		m.breakCPU()
		m.cpu.Exceptions |= ppc.ExceptionDSI | ppc.ExceptionFakeMemcheckHit
	}
}

func (m *MMU) read(addr uint32, size int) uint64 {
	v, ok := m.readFromHardware(Read, addr, size, false)
	if ok {
		m.memcheck(addr, v, false, size)
	}
	return v
}

func (m *MMU) write(addr, val uint32, size int) {
	if m.writeToHardware(Write, addr, val, size, false) {
		m.memcheck(addr, uint64(val), true, size)
	}
}

// Read8 performs a guest byte load. A failed load raises a DSI and returns 0.
func (m *MMU) Read8(addr uint32) uint8   { return uint8(m.read(addr, 1)) }
func (m *MMU) Read16(addr uint32) uint16 { return uint16(m.read(addr, 2)) }
func (m *MMU) Read32(addr uint32) uint32 { return uint32(m.read(addr, 4)) }
func (m *MMU) Read64(addr uint32) uint64 { return m.read(addr, 8) }

// Write8 performs a guest byte store. A failed store raises a DSI.
func (m *MMU) Write8(val uint8, addr uint32)   { m.write(addr, uint32(val), 1) }
func (m *MMU) Write16(val uint16, addr uint32) { m.write(addr, uint32(val), 2) }
func (m *MMU) Write32(val uint32, addr uint32) { m.write(addr, val, 4) }

// Write64 stores the high word first, and stops at the first failing word.
func (m *MMU) Write64(val uint64, addr uint32) {
	m.memcheck(addr, val, true, 8)
	if !m.writeToHardware(Write, addr, uint32(val>>32), 4, false) {
		return
	}
	m.writeToHardware(Write, addr+4, uint32(val), 4, false)
}

// WriteU16Swap stores a byte-reversed halfword (sthbrx).
func (m *MMU) WriteU16Swap(val uint16, addr uint32) { m.Write16(bits.ReverseBytes16(val), addr) }

// WriteU32Swap stores a byte-reversed word (stwbrx).
func (m *MMU) WriteU32Swap(val uint32, addr uint32) { m.Write32(bits.ReverseBytes32(val), addr) }

func (m *MMU) WriteU64Swap(val uint64, addr uint32) { m.Write64(bits.ReverseBytes64(val), addr) }

// InstructionRead is the outcome of TryReadInstruction.
type InstructionRead struct {
	Valid    bool
	FromBAT  bool
	Hex      uint32
	PhysAddr uint32
}

// TryReadInstruction fetches the instruction word at addr, without raising
// any exception.
func (m *MMU) TryReadInstruction(addr uint32) InstructionRead {
	fromBAT := true
	if m.cpu.MSR.IR() {
		res := m.TranslateAddress(Opcode, addr)
		if !res.Success() {
			return InstructionRead{}
		}
		addr = res.Address
		fromBAT = res.Kind == BATTranslated
	}
	hex, ok := m.readFromHardware(Opcode, addr, 4, true)
	if !ok {
		return InstructionRead{}
	}
	return InstructionRead{Valid: true, FromBAT: fromBAT, Hex: uint32(hex), PhysAddr: addr}
}

// ReadOpcode fetches the instruction word at addr, raising an ISI if it
// can't be fetched.
func (m *MMU) ReadOpcode(addr uint32) uint32 {
	ir := m.TryReadInstruction(addr)
	if !ir.Valid {
		m.GenerateISIException(addr)
		return 0
	}
	return ir.Hex
}
