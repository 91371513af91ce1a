package mmu

import (
	"math/bits"

	"gekko/emu/log"
	"gekko/hw/hwio"
	"gekko/hw/memory"
	"gekko/hw/pi"
	"gekko/hw/ppc"
)

// isEFBOrMMIO reports whether the physical address lies in the window
// shared by the EFB and the hardware registers.
func isEFBOrMMIO(addr uint32) bool {
	return addr&0xF8000000 == 0x08000000
}

func (m *MMU) translationEnabled(flag XCheckTLBFlag) bool {
	if isOpcodeFlag(flag) {
		return m.cpu.MSR.IR()
	}
	return m.cpu.MSR.DR()
}

func (m *MMU) dlock() bool {
	return m.cpu.HID0().DLOCK()
}

// physicalMemory returns the buffer holding the physical range [addr,
// addr+size), and whether it may go through the data cache. RAM is mirrored
// over the whole first 128MiB.
func (m *MMU) physicalMemory(addr uint32, size int) (buf []byte, cacheAddr uint32, cacheable bool) {
	switch {
	case addr>>28 == 0xE && addr < memory.L1CacheBase+memory.L1CacheSize:
		off := addr & 0x0FFFFFFF
		return m.mem.L1Cache[off : off+uint32(size)], 0, false
	case addr&0xF8000000 == 0:
		off := addr & m.mem.RAMMask()
		return m.mem.RAM[off : off+uint32(size)], off, true
	case m.mem.EXRAM != nil && addr>>28 == 0x1 && addr&0x0FFFFFFF < m.mem.EXRAMSize():
		off := addr & 0x0FFFFFFF
		return m.mem.EXRAM[off : off+uint32(size)], 0x10000000 | off, true
	case m.mem.FakeVMEMEnabled() && addr&0xFE000000 == memory.FakeVMEMBase:
		off := addr & memory.FakeVMEMMask
		return m.mem.FakeVMEM[off : off+uint32(size)], 0, false
	}
	return nil, 0, false
}

// readFromHardware reads size bytes (1, 2, 4 or 8) at the effective address
// addr. The value is returned in the low bytes. ok is false if the address
// couldn't be translated or doesn't resolve to anything; for the Read flag a
// translation failure raises a DSI.
func (m *MMU) readFromHardware(flag XCheckTLBFlag, addr uint32, size int, neverTranslate bool) (uint64, bool) {
	if addr&^HWPageMask != (addr+uint32(size)-1)&^HWPageMask {
		// page crossing access: go byte by byte, each byte being translated
		// on its own
		var v uint64
		for i := range uint32(size) {
			b, ok := m.readFromHardware(flag, addr+i, 1, neverTranslate)
			if !ok {
				return 0, false
			}
			v = v<<8 | b
		}
		return v, true
	}

	wi := false
	if !neverTranslate && m.translationEnabled(flag) {
		res := m.TranslateAddress(flag, addr)
		if !res.Success() {
			if flag == Read {
				m.GenerateDSIException(addr, false)
			}
			return 0, false
		}
		addr = res.Address
		wi = res.WI
	}

	if flag == Read && isEFBOrMMIO(addr) {
		if size == 8 {
			hi := m.mem.MMIO.Read32(addr)
			lo := m.mem.MMIO.Read32(addr + 4)
			return uint64(hi)<<32 | uint64(lo), true
		}
		return uint64(m.mem.MMIO.Read(addr, size, false)), true
	}

	buf, caddr, cacheable := m.physicalMemory(addr, size)
	if buf == nil {
		if !isNoExceptionFlag(flag) {
			m.panicAlertf("Unable to resolve read address %x PC %x", addr, m.cpu.PC)
		}
		return 0, false
	}

	if cacheable && m.dcache != nil && !wi {
		var tmp [8]byte
		m.dcache.Read(caddr, tmp[:size], m.dlock() || flag != Read)
		return memory.ReadBE(tmp[:size], size), true
	}
	return memory.ReadBE(buf, size), true
}

// writeToHardware writes the low size bytes (1 to 4) of data at the
// effective address addr. It returns false if the address couldn't be
// translated or doesn't resolve to anything; for the Write flag a
// translation failure raises a DSI.
func (m *MMU) writeToHardware(flag XCheckTLBFlag, addr, data uint32, size int, neverTranslate bool) bool {
	startPage := addr &^ HWPageMask
	endPage := (addr + uint32(size) - 1) &^ HWPageMask
	if startPage != endPage {
		// page crossing access: split it in two
		first := int(endPage - addr)
		second := size - first
		if !m.writeToHardware(flag, addr, bits.RotateLeft32(data, -second*8), first, neverTranslate) {
			return false
		}
		return m.writeToHardware(flag, endPage, data, second, neverTranslate)
	}

	wi := false
	if !neverTranslate && m.cpu.MSR.DR() {
		res := m.TranslateAddress(flag, addr)
		if !res.Success() {
			if flag == Write {
				m.GenerateDSIException(addr, true)
			}
			return false
		}
		addr = res.Address
		wi = res.WI
	}

	if flag == Write && isEFBOrMMIO(addr) {
		m.mem.MMIO.Write(addr, data&hwio.SizeMask(size), size)
		return true
	}

	// locked L1
	if addr>>28 == 0xE && addr < memory.L1CacheBase+memory.L1CacheSize {
		buf, _, _ := m.physicalMemory(addr, size)
		memory.WriteBE(buf, size, uint64(data))
		return true
	}

	if wi && (size < 4 || addr&3 != 0) {
		// Uncached stores are sent to the memory controller as 8-byte bursts
		// with a first and last byte mask. Narrow or unaligned ones end up
		// replicating the rotated word over the whole aligned span, and the
		// processor interface flags an error.
		if m.pi != nil {
			m.pi.SetInterrupt(pi.IntCausePI, true)
		}
		rotated := bits.RotateLeft32(data, -int((addr&3)+uint32(size))*8)
		start := addr &^ 7
		end := (addr + uint32(size) + 7) &^ 7
		for a := start; a != end; a += 4 {
			if !m.writeToHardware(flag, a, rotated, 4, true) {
				return false
			}
		}
		return true
	}

	buf, caddr, cacheable := m.physicalMemory(addr, size)
	if buf == nil {
		if !isNoExceptionFlag(flag) {
			m.panicAlertf("Unable to resolve write address %x PC %x", addr, m.cpu.PC)
		}
		return false
	}

	if cacheable && m.dcache != nil && !wi {
		var tmp [4]byte
		memory.WriteBE(tmp[:size], size, uint64(data))
		m.dcache.Write(caddr, tmp[:size], m.dlock())
		if flag == Write {
			return true
		}
	}
	memory.WriteBE(buf, size, uint64(data))
	return true
}

// GenerateDSIException raises a data storage interrupt for a failed access
// at ea. Outside of MMU mode, the guest can't handle it and an alert is
// shown instead.
func (m *MMU) GenerateDSIException(ea uint32, write bool) {
	if !m.cfg.MMUMode {
		what := "read from"
		if write {
			what = "write to"
		}
		m.panicAlertf("Invalid %s 0x%08x, PC = 0x%08x", what, ea, m.cpu.PC)
		return
	}

	dsisr := uint32(ppc.DSISRPage)
	if write {
		dsisr |= ppc.DSISRStore
	}
	m.cpu.SPR[ppc.SprDSISR] = dsisr
	m.cpu.SPR[ppc.SprDAR] = ea
	m.cpu.Exceptions |= ppc.ExceptionDSI
}

// GenerateISIException raises an instruction storage interrupt for a failed
// instruction fetch at ea.
func (m *MMU) GenerateISIException(ea uint32) {
	m.cpu.NPC = ea
	m.cpu.Exceptions |= ppc.ExceptionISI
	log.ModMMU.WarnZ("ISI exception").Addr("addr", ea).Addr("pc", m.cpu.PC).End()
}
