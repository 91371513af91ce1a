package mmu

import (
	"gekko/emu/log"
	"gekko/hw/memory"
	"gekko/hw/ppc"
)

// BAT lookup tables map each 128KiB block of the effective address space to
// a physical block and a few flags.
const (
	BATIndexShift = 17
	BATPageSize   = 1 << BATIndexShift
	BATPageCount  = 1 << (32 - BATIndexShift)

	// BATMappedBit is set when the block is translated by a BAT.
	BATMappedBit = 0x1
	// BATPhysicalBit is set when the block is plain memory, without
	// memchecks, that the JIT can access directly.
	BATPhysicalBit = 0x2
	// BATWIBit is set when the block is write-through or cache-inhibited.
	BATWIBit = 0x4

	BATResultMask = ^uint32(0x7)
)

// BatTable is a BAT lookup table, indexed by effective address bits 17-31.
// A zero entry is not mapped.
type BatTable [BATPageCount]uint32

// BATEntry is a decoded BatTable entry.
type BATEntry struct {
	PhysicalPage uint32 // physical address of the block
	Mapped       bool
	Physical     bool
	WI           bool
}

// Lookup decodes the entry of the given 128KiB page.
func (t *BatTable) Lookup(page uint32) BATEntry {
	e := t[page&(BATPageCount-1)]
	return BATEntry{
		PhysicalPage: e & BATResultMask,
		Mapped:       e&BATMappedBit != 0,
		Physical:     e&BATPhysicalBit != 0,
		WI:           e&BATWIBit != 0,
	}
}

// translate returns the physical address of addr if its block is mapped.
func (t *BatTable) translate(addr uint32) (paddr uint32, wi, ok bool) {
	e := t[addr>>BATIndexShift]
	if e&BATMappedBit == 0 {
		return 0, false, false
	}
	return e&BATResultMask | addr&(BATPageSize-1), e&BATWIBit != 0, true
}

func isValidLowMask(mask uint32) bool {
	return mask&(mask+1) == 0
}

// isPhysicalMemory reports whether the physical block at paddr is plain
// memory, as opposed to MMIO or unbacked space.
func (m *MMU) isPhysicalMemory(paddr uint32) bool {
	switch {
	case m.mem.FakeVMEMEnabled() && paddr&0xFE000000 == memory.FakeVMEMBase:
		return true
	case paddr < m.mem.RAMSizeReal():
		return true
	case m.mem.EXRAM != nil && paddr>>28 == 0x1 && paddr&0x0FFFFFFF < m.mem.EXRAMSize():
		return true
	case paddr>>28 == 0xE && paddr < memory.L1CacheBase+memory.L1CacheSize:
		return true
	}
	return false
}

// updateBATs adds the 4 BAT pairs starting at baseSPR to table.
func (m *MMU) updateBATs(table *BatTable, baseSPR int) {
	for i := range 4 {
		spr := baseSPR + i*2
		batu := ppc.BATU(m.cpu.SPR[spr])
		batl := ppc.BATL(m.cpu.SPR[spr+1])
		if !batu.Vs() && !batu.Vp() {
			continue
		}

		bl := batu.BL()
		if batu.BEPI()&bl != 0 {
			log.ModMMU.WarnZ("bad BAT setup: BEPI overlaps BL").
				Int("spr", spr).
				Hex32("batu", uint32(batu)).
				End()
			continue
		}
		if batl.BRPN()&bl != 0 {
			log.ModMMU.WarnZ("bad BAT setup: BRPN overlaps BL").
				Int("spr", spr).
				Hex32("batl", uint32(batl)).
				End()
		}
		if !isValidLowMask(bl) {
			log.ModMMU.WarnZ("bad BAT setup: invalid mask in BL").
				Int("spr", spr).
				Hex32("bl", bl).
				End()
		}

		wi := batl.WIMG()&(ppc.WIMGWriteThrough|ppc.WIMGInhibited) != 0

		// enumerate all the bit patterns that fit in BL
		for j := uint32(0); j <= bl; j++ {
			if j&bl != j {
				continue
			}
			paddr := (batl.BRPN() | j) << BATIndexShift
			vaddr := (batu.BEPI() | j) << BATIndexShift

			valid := uint32(BATMappedBit)
			if wi {
				valid |= BATWIBit
			} else if m.isPhysicalMemory(paddr) {
				valid |= BATPhysicalBit
			}
			if m.overlapsMemcheck(vaddr, BATPageSize) {
				valid &^= BATPhysicalBit
			}
			table[vaddr>>BATIndexShift] = paddr | valid
		}
	}
}

// updateFakeMMUBat maps the 256MiB segment at start onto the fake VMEM area.
func (m *MMU) updateFakeMMUBat(table *BatTable, start uint32) {
	for i := range uint32(0x10000000 >> BATIndexShift) {
		epage := i + start>>BATIndexShift
		paddr := memory.FakeVMEMBase | (i<<BATIndexShift)&memory.FakeVMEMMask

		flags := uint32(BATMappedBit | BATPhysicalBit)
		if m.overlapsMemcheck(epage<<BATIndexShift, BATPageSize) {
			flags &^= BATPhysicalBit
		}
		table[epage] = paddr | flags
	}
}

func (m *MMU) rebuildBATs(table *BatTable, base0, base4 int) {
	*table = BatTable{}
	m.updateBATs(table, base0)
	if m.mem.IsWii() && m.cpu.HID4().SBE() {
		m.updateBATs(table, base4)
	}
	if m.mem.FakeVMEMEnabled() {
		m.updateFakeMMUBat(table, 0x40000000)
		m.updateFakeMMUBat(table, 0x70000000)
	}
}

// DBATUpdated rebuilds the data BAT table. It must be called after any write
// to the DBAT registers or HID4, and when memchecks change.
func (m *MMU) DBATUpdated() {
	m.rebuildBATs(&m.dbat, ppc.SprDBAT0U, ppc.SprDBAT4U)
}

// IBATUpdated rebuilds the instruction BAT table. It must be called after any
// write to the IBAT registers or HID4.
func (m *MMU) IBATUpdated() {
	m.rebuildBATs(&m.ibat, ppc.SprIBAT0U, ppc.SprIBAT4U)
}

// DBAT returns the data BAT table.
func (m *MMU) DBAT() *BatTable { return &m.dbat }

// IBAT returns the instruction BAT table.
func (m *MMU) IBAT() *BatTable { return &m.ibat }
