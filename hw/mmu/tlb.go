package mmu

import "gekko/hw/ppc"

type tlbLookupResult int

const (
	tlbFound tlbLookupResult = iota
	tlbNotFound
	tlbUpdateC
)

func tlbSide(flag XCheckTLBFlag) int {
	if isOpcodeFlag(flag) {
		return ppc.InstTLB
	}
	return ppc.DataTLB
}

func (m *MMU) tlbEntry(flag XCheckTLBFlag, tag uint32) *ppc.TLBEntry {
	return &m.cpu.TLB[tlbSide(flag)][tag&ppc.TLBIndexMask]
}

// lookupTLB searches the software TLB for the page of ea. A write hitting a
// page whose C bit is clear reports tlbUpdateC, so that the caller walks the
// page table and writes the C bit back.
func (m *MMU) lookupTLB(flag XCheckTLBFlag, ea uint32) (paddr uint32, wi bool, res tlbLookupResult) {
	tag := ea >> HWPageIndexShift
	vsid := m.cpu.SR[ea>>28].VSID()
	e := m.tlbEntry(flag, tag)

	for way := range ppc.TLBWays {
		if e.Tag[way] != tag || e.VSID[way] != vsid {
			continue
		}
		pte2 := ppc.PTE2(e.PTE[way])
		if flag == Write && !pte2.C() {
			e.PTE[way] = uint32(pte2.SetC())
			return 0, false, tlbUpdateC
		}
		if !isNoExceptionFlag(flag) {
			e.Recent = uint8(way)
		}
		return e.PAddr[way] | ea&HWPageMask, pte2.WIMG()&(ppc.WIMGWriteThrough|ppc.WIMGInhibited) != 0, tlbFound
	}
	return 0, false, tlbNotFound
}

// updateTLB caches a page table entry, replacing the least recently used
// way.
func (m *MMU) updateTLB(flag XCheckTLBFlag, pte2 ppc.PTE2, ea uint32) {
	if isNoExceptionFlag(flag) {
		return
	}
	tag := ea >> HWPageIndexShift
	e := m.tlbEntry(flag, tag)

	index := 0
	if e.Recent == 0 && e.Tag[0] != ppc.TLBInvalidTag {
		index = 1
	}
	e.Recent = uint8(index)
	e.PAddr[index] = pte2.RPN() << HWPageIndexShift
	e.PTE[index] = uint32(pte2)
	e.Tag[index] = tag
	e.VSID[index] = m.cpu.SR[ea>>28].VSID()
}

// InvalidateTLBEntry drops the TLB sets of the page of ea, on both the data
// and instruction side (tlbie).
func (m *MMU) InvalidateTLBEntry(ea uint32) {
	index := ea >> HWPageIndexShift & ppc.TLBIndexMask
	m.cpu.TLB[ppc.DataTLB][index].Invalidate()
	m.cpu.TLB[ppc.InstTLB][index].Invalidate()
}
