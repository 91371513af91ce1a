package mmu

import (
	"gekko/hw/ppc"
	"gekko/hw/snapshot"
)

// SaveState returns the architectural MMU registers.
func (m *MMU) SaveState() *snapshot.MMU {
	s := &snapshot.MMU{
		Version: snapshot.Version,
		SDR1:    uint32(m.cpu.SDR1()),
		HID4:    uint32(m.cpu.HID4()),
	}
	for i, sr := range m.cpu.SR {
		s.SR[i] = uint32(sr)
	}
	for i := range 8 {
		u, l := m.cpu.IBAT(i)
		s.IBAT[i] = snapshot.BAT{U: uint32(u), L: uint32(l)}
		u, l = m.cpu.DBAT(i)
		s.DBAT[i] = snapshot.BAT{U: uint32(u), L: uint32(l)}
	}
	return s
}

// LoadState restores the MMU registers from s, then rebuilds the BAT tables
// and flushes the TLB.
func (m *MMU) LoadState(s *snapshot.MMU) {
	for i, sr := range s.SR {
		m.cpu.SR[i] = ppc.SR(sr)
	}
	for i := range 8 {
		m.cpu.SetIBAT(i, ppc.BATU(s.IBAT[i].U), ppc.BATL(s.IBAT[i].L))
		m.cpu.SetDBAT(i, ppc.BATU(s.DBAT[i].U), ppc.BATL(s.DBAT[i].L))
	}
	m.cpu.SPR[ppc.SprSDR] = s.SDR1
	m.cpu.SPR[ppc.SprHID4] = s.HID4

	m.SDRUpdated()
	m.DBATUpdated()
	m.IBATUpdated()
	m.cpu.InvalidateTLB()
}
