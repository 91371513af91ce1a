package mmu

// JitCacheTranslateAddress translates an instruction address for the JIT
// block cache.
func (m *MMU) JitCacheTranslateAddress(addr uint32) TranslateResult {
	if !m.cpu.MSR.IR() {
		return TranslateResult{Valid: true, Address: addr}
	}
	res := m.TranslateAddress(Opcode, addr)
	if !res.Success() {
		return TranslateResult{}
	}
	return TranslateResult{
		Valid:      true,
		Translated: true,
		FromBAT:    res.Kind == BATTranslated,
		Address:    res.Address,
	}
}

// IsOptimizableRAMAddress reports whether a data access of accessSize bits
// at addr can be emitted as a direct memory access.
func (m *MMU) IsOptimizableRAMAddress(addr uint32, accessSize int) bool {
	if m.hasMemChecks() || !m.cpu.MSR.DR() {
		return false
	}
	last := addr + uint32(accessSize/8) - 1
	return m.dbat[addr>>BATIndexShift]&m.dbat[last>>BATIndexShift]&BATPhysicalBit != 0
}

// IsOptimizableMMIOAccess returns the physical address of a data access of
// accessSize bits at addr, if it can be emitted as a direct MMIO access.
func (m *MMU) IsOptimizableMMIOAccess(addr uint32, accessSize int) (uint32, bool) {
	if m.hasMemChecks() || !m.cpu.MSR.DR() {
		return 0, false
	}
	paddr, _, ok := m.dbat.translate(addr)
	if !ok {
		return 0, false
	}
	if paddr&uint32(accessSize/8-1) != 0 {
		return 0, false
	}
	if !m.mem.IsMMIOAddress(paddr) {
		return 0, false
	}
	return paddr, true
}

// Slow path entry points called by JIT generated code.

func ReadU8FromJit(m *MMU, addr uint32) uint32  { return uint32(m.Read8(addr)) }
func ReadU16FromJit(m *MMU, addr uint32) uint32 { return uint32(m.Read16(addr)) }
func ReadU32FromJit(m *MMU, addr uint32) uint32 { return m.Read32(addr) }
func ReadU64FromJit(m *MMU, addr uint32) uint64 { return m.Read64(addr) }

func WriteU8FromJit(m *MMU, val, addr uint32)         { m.Write8(uint8(val), addr) }
func WriteU16FromJit(m *MMU, val, addr uint32)        { m.Write16(uint16(val), addr) }
func WriteU32FromJit(m *MMU, val, addr uint32)        { m.Write32(val, addr) }
func WriteU64FromJit(m *MMU, val uint64, addr uint32) { m.Write64(val, addr) }

func WriteU16SwapFromJit(m *MMU, val, addr uint32)        { m.WriteU16Swap(uint16(val), addr) }
func WriteU32SwapFromJit(m *MMU, val, addr uint32)        { m.WriteU32Swap(val, addr) }
func WriteU64SwapFromJit(m *MMU, val uint64, addr uint32) { m.WriteU64Swap(val, addr) }

func ClearDCacheLineFromJit(m *MMU, addr uint32) { m.ClearDCacheLine(addr) }
