package mmu

import (
	"gekko/emu/log"
	"gekko/hw/ppc"
)

// SDRUpdated recomputes the page table base and hash mask from SDR1.
func (m *MMU) SDRUpdated() {
	sdr := m.cpu.SDR1()
	htabmask := sdr.HTABMASK()
	if !isValidLowMask(htabmask) {
		log.ModMMU.WarnZ("invalid HTABMASK").Hex32("htabmask", htabmask).End()
	}

	// HTABORG should be aligned on the mask, but hardware just ORs them
	htaborg := sdr.HTABORG()
	if htaborg&htabmask != 0 {
		log.ModMMU.WarnZ("invalid HTABORG").
			Hex32("htaborg", htaborg).
			Hex32("htabmask", htabmask).
			End()
	}
	m.cpu.PagetableBase = htaborg << 16
	m.cpu.PagetableHashmask = htabmask<<10 | 0x3FF
}

// TranslateAddress translates the effective address addr, trying the BATs
// first, then the TLB and the page table. It doesn't look at MSR.IR/DR:
// callers decide whether translation is enabled.
func (m *MMU) TranslateAddress(flag XCheckTLBFlag, addr uint32) TranslateAddressResult {
	table := &m.dbat
	if isOpcodeFlag(flag) {
		table = &m.ibat
	}
	if paddr, wi, ok := table.translate(addr); ok {
		return TranslateAddressResult{Address: paddr, Kind: BATTranslated, WI: wi}
	}
	return m.translatePageAddress(EffectiveAddress(addr), flag)
}

func (m *MMU) translatePageAddress(ea EffectiveAddress, flag XCheckTLBFlag) TranslateAddressResult {
	// most lookups end here
	paddr, wi, res := m.lookupTLB(flag, uint32(ea))
	if res == tlbFound {
		return TranslateAddressResult{Address: paddr, Kind: PageTableTranslated, WI: wi}
	}

	sr := m.cpu.SR[ea.SR()]
	if sr.T() {
		return TranslateAddressResult{Kind: DirectStoreSegment}
	}

	// no-execute segment
	if isOpcodeFlag(flag) && sr.N() {
		return TranslateAddressResult{Kind: PageFault}
	}

	vsid := sr.VSID()
	hash := vsid ^ ea.PageIndex()
	pte1 := ppc.MakePTE1(vsid, ea.API(), false, true)

	for hashFunc := range 2 {
		if hashFunc == 1 {
			hash = ^hash
			pte1 = ppc.MakePTE1(vsid, ea.API(), true, true)
		}

		ptegAddr := (hash&m.cpu.PagetableHashmask)<<6 | m.cpu.PagetableBase
		for range 8 {
			if m.mem.ReadU32(ptegAddr) == uint32(pte1) {
				pte2 := ppc.PTE2(m.mem.ReadU32(ptegAddr + 4))

				switch flag {
				case Read, Opcode:
					pte2 = pte2.SetR()
				case Write:
					pte2 = pte2.SetR().SetC()
				}
				if !isNoExceptionFlag(flag) {
					m.mem.WriteU32(ptegAddr+4, uint32(pte2))
				}

				// the TLB was already updated when only the C bit was missing
				if res != tlbUpdateC {
					m.updateTLB(flag, pte2, uint32(ea))
				}

				return TranslateAddressResult{
					Address: pte2.RPN()<<12 | ea.Offset(),
					Kind:    PageTableTranslated,
					WI:      pte2.WIMG()&(ppc.WIMGWriteThrough|ppc.WIMGInhibited) != 0,
				}
			}
			ptegAddr += 8
		}
	}
	return TranslateAddressResult{Kind: PageFault}
}

// GetTranslatedAddress translates addr without side effects.
func (m *MMU) GetTranslatedAddress(addr uint32) (uint32, bool) {
	res := m.TranslateAddress(NoException, addr)
	if !res.Success() {
		return 0, false
	}
	return res.Address, true
}
