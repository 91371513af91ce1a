package mmu

import (
	"encoding/binary"

	"gekko/emu/log"
	"gekko/hw/memory"
)

const dcacheLineSize = 32

// cacheLineAddress translates the effective address of a cache line. It
// returns false if the operation must be skipped: direct-store segments are
// ignored, and page faults raise a DSI unless flag is a probing flag.
func (m *MMU) cacheLineAddress(flag XCheckTLBFlag, addr uint32) (uint32, bool) {
	addr &^= dcacheLineSize - 1
	if !m.cpu.MSR.DR() {
		return addr, true
	}
	res := m.TranslateAddress(flag, addr)
	switch res.Kind {
	case DirectStoreSegment:
		return 0, false
	case PageFault:
		if !isNoExceptionFlag(flag) {
			m.GenerateDSIException(addr, flag == Write)
		}
		return 0, false
	}
	return res.Address, true
}

// dcacheAddress returns the address of the physical address addr in the
// data cache address space, if addr is cacheable memory.
func (m *MMU) dcacheAddress(addr uint32) (uint32, bool) {
	switch {
	case m.dcache == nil:
		return 0, false
	case addr&0xF8000000 == 0:
		return addr & m.mem.RAMMask(), true
	case m.mem.EXRAM != nil && addr>>28 == 0x1 && addr&0x0FFFFFFF < m.mem.EXRAMSize():
		return addr, true
	}
	return 0, false
}

// ClearDCacheLine zeroes the 32-byte line containing addr (dcbz).
func (m *MMU) ClearDCacheLine(addr uint32) {
	paddr, ok := m.cacheLineAddress(Write, addr)
	if !ok {
		return
	}
	for i := uint32(0); i < dcacheLineSize; i += 4 {
		m.writeToHardware(Write, paddr+i, 0, 4, true)
	}
}

// StoreDCacheLine writes the line containing addr back to memory (dcbst).
func (m *MMU) StoreDCacheLine(addr uint32) {
	paddr, ok := m.cacheLineAddress(Write, addr)
	if !ok {
		return
	}
	if caddr, ok := m.dcacheAddress(paddr); ok {
		m.dcache.Store(caddr)
	}
}

// InvalidateDCacheLine drops the line containing addr without writing it
// back (dcbi).
func (m *MMU) InvalidateDCacheLine(addr uint32) {
	paddr, ok := m.cacheLineAddress(Read, addr)
	if !ok {
		return
	}
	if caddr, ok := m.dcacheAddress(paddr); ok {
		m.dcache.Invalidate(caddr)
	}
}

// FlushDCacheLine writes back then drops the line containing addr (dcbf).
func (m *MMU) FlushDCacheLine(addr uint32) {
	paddr, ok := m.cacheLineAddress(Write, addr)
	if !ok {
		return
	}
	if caddr, ok := m.dcacheAddress(paddr); ok {
		m.dcache.Flush(caddr)
	}
}

// TouchDCacheLine loads the line containing addr into the cache (dcbt,
// dcbtst). It never faults.
func (m *MMU) TouchDCacheLine(addr uint32, store bool) {
	paddr, ok := m.cacheLineAddress(NoException, addr)
	if !ok {
		return
	}
	if caddr, ok := m.dcacheAddress(paddr); ok {
		m.dcache.Touch(caddr, store)
	}
}

// dmaAddress translates the memory side of a locked cache DMA block.
func (m *MMU) dmaAddress(addr uint32) (uint32, bool) {
	if !m.cpu.MSR.DR() {
		return addr, true
	}
	res := m.TranslateAddress(NoException, addr)
	if !res.Success() {
		log.ModDMA.WarnZ("locked cache DMA: untranslatable address").
			Addr("addr", addr).
			Addr("pc", m.cpu.PC).
			End()
		return 0, false
	}
	return res.Address, true
}

func isDMAMMIO(paddr uint32) bool {
	switch paddr & 0x0F000000 {
	case 0x08000000, 0x0C000000:
		return true
	}
	return false
}

func (m *MMU) l1Word(addr uint32) []byte {
	off := addr & memory.L1CacheMask
	return m.mem.L1Cache[off : off+4]
}

// DMALCToMemory copies blocks 32-byte blocks from the locked L1 cache at
// cacheAddr to memory at memAddr.
func (m *MMU) DMALCToMemory(memAddr, cacheAddr, blocks uint32) {
	log.ModDMA.DebugZ("LC to memory").
		Addr("mem", memAddr).
		Addr("cache", cacheAddr).
		Hex32("blocks", blocks).
		End()

	for b := range blocks {
		off := b * dcacheLineSize
		paddr, ok := m.dmaAddress(memAddr + off)
		if !ok {
			continue
		}
		if isDMAMMIO(paddr) {
			for i := uint32(0); i < dcacheLineSize; i += 4 {
				val := binary.BigEndian.Uint32(m.l1Word(cacheAddr + off + i))
				m.mem.MMIO.Write32(paddr+i, val)
			}
			continue
		}
		dst := m.mem.Slice(paddr, dcacheLineSize)
		if dst == nil {
			log.ModDMA.WarnZ("LC to memory: unbacked destination").Addr("addr", paddr).End()
			continue
		}
		for i := uint32(0); i < dcacheLineSize; i += 4 {
			copy(dst[i:i+4], m.l1Word(cacheAddr+off+i))
		}
	}
}

// DMAMemoryToLC copies blocks 32-byte blocks from memory at memAddr to the
// locked L1 cache at cacheAddr.
func (m *MMU) DMAMemoryToLC(cacheAddr, memAddr, blocks uint32) {
	log.ModDMA.DebugZ("memory to LC").
		Addr("mem", memAddr).
		Addr("cache", cacheAddr).
		Hex32("blocks", blocks).
		End()

	for b := range blocks {
		off := b * dcacheLineSize
		paddr, ok := m.dmaAddress(memAddr + off)
		if !ok {
			continue
		}
		if isDMAMMIO(paddr) {
			for i := uint32(0); i < dcacheLineSize; i += 4 {
				binary.BigEndian.PutUint32(m.l1Word(cacheAddr+off+i), m.mem.MMIO.Read32(paddr+i))
			}
			continue
		}
		src := m.mem.Slice(paddr, dcacheLineSize)
		if src == nil {
			log.ModDMA.WarnZ("memory to LC: unbacked source").Addr("addr", paddr).End()
			continue
		}
		for i := uint32(0); i < dcacheLineSize; i += 4 {
			copy(m.l1Word(cacheAddr+off+i), src[i:i+4])
		}
	}
}
