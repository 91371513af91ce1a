package hwio

import (
	"fmt"
	"sort"

	"gekko/emu/log"
)

// log unmapped accesses (useful for debugging, verbose with games probing
// hardware that isn't emulated)
const logUnmapped = false

// BankIO is implemented by everything that can be mapped into a Table.
//
// Accesses are big-endian, size is 1, 2 or 4 and the value occupies the low
// size bytes of val. If peek is true, the read shouldn't have any side effects
// (debugging/tracing).
type BankIO interface {
	Read(addr uint32, size int, peek bool) uint32
	Write(addr uint32, val uint32, size int)
}

type mapping struct {
	begin, end uint32 // inclusive
	io         BankIO
}

// Table maps physical address ranges to devices, registers and memory areas.
type Table struct {
	Name string

	// Unmapped, if set, receives all accesses that don't fall in any mapped
	// range.
	Unmapped BankIO

	maps []mapping // sorted by begin, non-overlapping
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

func (t *Table) Reset() {
	t.maps = nil
}

// Map a register bank (that is, a structure containing mulitple Reg32, Mem or
// Device fields). For this function to work, registers must have a struct tag
// "hwio", containing the following fields:
//
//	offset=0x12     Byte-offset within the register bank at which this
//	                register is mapped. There is no default value: if this
//	                option is missing, the register is assumed not to be
//	                part of the bank, and is ignored by this call.
//
//	bank=NN         Ordinal bank number (if not specified, default to zero).
//	                This option allows for a structure to expose multiple
//	                banks, as regs can be grouped by bank by specified the
//	                bank number.
func (t *Table) MapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg32:
			t.MapReg32(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint32, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}

	for _, reg := range regs {
		begin := addr + reg.offset
		switch r := reg.regPtr.(type) {
		case *Mem:
			t.Unmap(begin, begin+uint32(r.VSize)-1)
		case *Reg32:
			t.Unmap(begin, begin+3)
		case *Device:
			t.Unmap(begin, begin+uint32(r.Size)-1)
		default:
			panic(fmt.Errorf("invalid reg type: %T", r))
		}
	}
}

func (t *Table) insert(begin, end uint32, io BankIO) error {
	if end < begin {
		return fmt.Errorf("%s: invalid range [%08x-%08x]", t.Name, begin, end)
	}
	i := sort.Search(len(t.maps), func(i int) bool { return t.maps[i].end >= begin })
	if i < len(t.maps) && t.maps[i].begin <= end {
		return fmt.Errorf("%s: range [%08x-%08x] overlaps [%08x-%08x]",
			t.Name, begin, end, t.maps[i].begin, t.maps[i].end)
	}
	t.maps = append(t.maps, mapping{})
	copy(t.maps[i+1:], t.maps[i:])
	t.maps[i] = mapping{begin: begin, end: end, io: io}
	return nil
}

func (t *Table) mapBus(addr, size uint32, io BankIO) {
	if err := t.insert(addr, addr+size-1, io); err != nil {
		panic(err)
	}
}

func (t *Table) MapReg32(addr uint32, io *Reg32) {
	if addr&3 != 0 {
		panic(fmt.Errorf("%s: unaligned register %s at %08x", t.Name, io.Name, addr))
	}
	t.mapBus(addr, 4, io)
}

func (t *Table) MapDevice(addr uint32, io *Device) {
	t.mapBus(addr, uint32(io.Size), io)
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Addr("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	if len(mem.Data) == 0 || len(mem.Data)&(len(mem.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}
	t.mapBus(addr, uint32(vsize), mem)
}

// Unmap removes all mappings in the inclusive range [begin, end]. Mappings
// partially covered are shrunk.
func (t *Table) Unmap(begin, end uint32) {
	var maps []mapping
	for _, m := range t.maps {
		if m.end < begin || m.begin > end {
			maps = append(maps, m)
			continue
		}
		if m.begin < begin {
			maps = append(maps, mapping{begin: m.begin, end: begin - 1, io: m.io})
		}
		if m.end > end {
			maps = append(maps, mapping{begin: end + 1, end: m.end, io: m.io})
		}
	}
	t.maps = maps
}

// Search returns the object mapped at addr, or nil.
func (t *Table) Search(addr uint32) BankIO {
	i := sort.Search(len(t.maps), func(i int) bool { return t.maps[i].end >= addr })
	if i < len(t.maps) && t.maps[i].begin <= addr {
		return t.maps[i].io
	}
	return nil
}

// Read searches in the table for the device mapped at the given address and
// forward the read to it. Accesses to unmapped addresses return 0 (or what the
// Unmapped handler returns).
func (t *Table) Read(addr uint32, size int, peek bool) uint32 {
	io := t.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			return t.Unmapped.Read(addr, size, peek)
		}
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped read").
				String("name", t.Name).
				Addr("addr", addr).
				Int("size", size).
				End()
		}
		return 0
	}
	return io.Read(addr, size, peek)
}

func (t *Table) Write(addr uint32, val uint32, size int) {
	io := t.Search(addr)
	if io == nil {
		if t.Unmapped != nil {
			t.Unmapped.Write(addr, val, size)
			return
		}
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped write").
				String("name", t.Name).
				Addr("addr", addr).
				Hex32("val", val).
				Int("size", size).
				End()
		}
		return
	}
	io.Write(addr, val, size)
}

func (t *Table) Read8(addr uint32) uint8   { return uint8(t.Read(addr, 1, false)) }
func (t *Table) Read16(addr uint32) uint16 { return uint16(t.Read(addr, 2, false)) }
func (t *Table) Read32(addr uint32) uint32 { return t.Read(addr, 4, false) }

// Peek32 is a convenience function.
func (t *Table) Peek32(addr uint32) uint32 { return t.Read(addr, 4, true) }

func (t *Table) Write8(addr uint32, val uint8)   { t.Write(addr, uint32(val), 1) }
func (t *Table) Write16(addr uint32, val uint16) { t.Write(addr, uint32(val), 2) }
func (t *Table) Write32(addr uint32, val uint32) { t.Write(addr, val, 4) }
