// Package memory implements the physical address space of the console:
// main RAM, the Wii extended RAM, the locked L1 cache scratchpad, the fake
// virtual memory area and the MMIO bus.
package memory

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"gekko/emu/log"
	"gekko/hw/hwio"
)

const (
	// RAMSizeGC is the size of the GameCube main memory (MEM1).
	RAMSizeGC = 0x01800000
	// EXRAMSizeWii is the size of the Wii extended memory (MEM2).
	EXRAMSizeWii = 0x04000000

	L1CacheBase = 0xE0000000
	L1CacheSize = 0x00040000
	L1CacheMask = L1CacheSize - 1

	FakeVMEMBase = 0x7E000000
	FakeVMEMSize = 0x02000000
	FakeVMEMMask = FakeVMEMSize - 1

	EFBBase = 0x08000000
	// MMIOBase is the start of the hardware registers window.
	MMIOBase = 0x0C000000

	// GatherPipeAddress is the write-gather pipe port. It lives in the MMIO
	// window but the JIT must never treat it as a plain register.
	GatherPipeAddress = 0x0C008000
)

// Config describes the memory layout of the emulated console.
type Config struct {
	RAMSize   uint32 // physical size of MEM1 (default RAMSizeGC)
	EXRAMSize uint32 // size of MEM2, only used when Wii is set (default EXRAMSizeWii)
	Wii       bool
	FakeVMEM  bool // allocate the fake VMEM area used by fake-MMU titles
}

// Manager owns all the physical memory areas. It doesn't know anything about
// address translation: every address it takes is physical.
type Manager struct {
	RAM      []byte
	EXRAM    []byte
	L1Cache  []byte
	FakeVMEM []byte

	MMIO *hwio.Table
	EFB  *EFB

	ramSizeReal uint32
	ramMask     uint32
	exramSize   uint32
	exramMask   uint32
	wii         bool
}

func nextPow2(v uint32) uint32 {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len32(v-1)
}

// New allocates the memory areas described by cfg.
func New(cfg Config) (*Manager, error) {
	if cfg.RAMSize == 0 {
		cfg.RAMSize = RAMSizeGC
	}
	if cfg.RAMSize > 0x10000000 || cfg.RAMSize&0xFFFF != 0 {
		return nil, fmt.Errorf("invalid RAM size %#x", cfg.RAMSize)
	}

	m := &Manager{
		ramSizeReal: cfg.RAMSize,
		wii:         cfg.Wii,
		L1Cache:     make([]byte, L1CacheSize),
		MMIO:        hwio.NewTable("mmio"),
	}

	ramSize := nextPow2(cfg.RAMSize)
	m.RAM = make([]byte, ramSize)
	m.ramMask = ramSize - 1

	if cfg.Wii {
		if cfg.EXRAMSize == 0 {
			cfg.EXRAMSize = EXRAMSizeWii
		}
		if cfg.EXRAMSize > 0x10000000 || cfg.EXRAMSize&0xFFFF != 0 {
			return nil, fmt.Errorf("invalid EXRAM size %#x", cfg.EXRAMSize)
		}
		m.exramSize = cfg.EXRAMSize
		size := nextPow2(cfg.EXRAMSize)
		m.EXRAM = make([]byte, size)
		m.exramMask = size - 1
	}

	if cfg.FakeVMEM {
		m.FakeVMEM = make([]byte, FakeVMEMSize)
	}

	m.EFB = NewEFB()
	m.MMIO.MapDevice(EFBBase, &m.EFB.Device)

	log.ModMem.InfoZ("memory initialized").
		Hex32("ram", m.ramSizeReal).
		Hex32("exram", m.exramSize).
		Bool("fakevmem", cfg.FakeVMEM).
		Bool("wii", cfg.Wii).
		End()
	return m, nil
}

// Clear zeroes all memory areas.
func (m *Manager) Clear() {
	clear(m.RAM)
	clear(m.EXRAM)
	clear(m.L1Cache)
	clear(m.FakeVMEM)
}

func (m *Manager) RAMSizeReal() uint32 { return m.ramSizeReal }
func (m *Manager) RAMMask() uint32     { return m.ramMask }
func (m *Manager) EXRAMSize() uint32   { return m.exramSize }
func (m *Manager) EXRAMMask() uint32   { return m.exramMask }
func (m *Manager) IsWii() bool         { return m.wii }

// FakeVMEMEnabled reports whether the fake VMEM area is allocated.
func (m *Manager) FakeVMEMEnabled() bool { return m.FakeVMEM != nil }

// IsMMIOAddress reports whether the physical address addr lands on a
// hardware register. The EFB and the gather pipe are not considered MMIO.
func (m *Manager) IsMMIOAddress(addr uint32) bool {
	switch {
	case addr == GatherPipeAddress:
		return false
	case addr&0xFFFF0000 == 0x0C000000:
		return true
	case m.wii && addr&0xFFFF0000 == 0x0D000000:
		return true
	case m.wii && addr&0xFFFF0000 == 0x0D800000:
		return true
	}
	return false
}

// Slice returns the backing buffer for the physical range [addr, addr+size),
// or nil if the range doesn't lie entirely within a single memory area.
func (m *Manager) Slice(addr, size uint32) []byte {
	var (
		buf   []byte
		off   uint32
		limit uint32 // real size of the area, allocations are rounded up
	)
	switch {
	case addr>>28 == 0xE && addr < L1CacheBase+L1CacheSize:
		buf, off, limit = m.L1Cache, addr&L1CacheMask, L1CacheSize
	case addr&0xF8000000 == 0 && addr < m.ramSizeReal:
		buf, off, limit = m.RAM, addr&m.ramMask, m.ramSizeReal
	case m.EXRAM != nil && addr>>28 == 1 && addr&0x0FFFFFFF < m.exramSize:
		buf, off, limit = m.EXRAM, addr&m.exramMask, m.exramSize
	case m.FakeVMEM != nil && addr&0xFE000000 == FakeVMEMBase:
		buf, off, limit = m.FakeVMEM, addr&FakeVMEMMask, FakeVMEMSize
	default:
		return nil
	}
	if uint64(off)+uint64(size) > uint64(limit) {
		return nil
	}
	return buf[off : off+size]
}

// ReadU32 reads a big-endian word from physical RAM or EXRAM. It is the
// access path used by the page table walker. Unresolved addresses read 0.
func (m *Manager) ReadU32(addr uint32) uint32 {
	if b := m.Slice(addr, 4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	log.ModMem.WarnZ("unresolved physical read").Addr("addr", addr).End()
	return 0
}

// WriteU32 writes a big-endian word to physical RAM or EXRAM.
func (m *Manager) WriteU32(addr, val uint32) {
	if b := m.Slice(addr, 4); b != nil {
		binary.BigEndian.PutUint32(b, val)
		return
	}
	log.ModMem.WarnZ("unresolved physical write").Addr("addr", addr).Hex32("val", val).End()
}

// Load copies data into physical memory starting at addr.
func (m *Manager) Load(addr uint32, data []byte) error {
	b := m.Slice(addr, uint32(len(data)))
	if b == nil {
		return fmt.Errorf("cannot load %d bytes at %08x: range not backed by memory", len(data), addr)
	}
	copy(b, data)
	return nil
}

// ReadBE decodes a big-endian value of size bytes (1 to 8) from b.
func ReadBE(b []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	case 8:
		return binary.BigEndian.Uint64(b)
	}
	var v uint64
	for _, c := range b[:size] {
		v = v<<8 | uint64(c)
	}
	return v
}

// WriteBE encodes the low size bytes (1 to 8) of v into b, big-endian.
func WriteBE(b []byte, size int, v uint64) {
	switch size {
	case 1:
		b[0] = uint8(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		// odd sized halves of page crossing accesses
		for i := size - 1; i >= 0; i-- {
			b[i] = uint8(v)
			v >>= 8
		}
	}
}
