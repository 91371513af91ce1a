package hwio_test

import (
	"testing"

	"gekko/hw/hwio"
)

// Unmapped
type openbus struct{}

func (ob *openbus) Read(addr uint32, size int, peek bool) uint32 {
	if peek {
		return 0xD4D4D4D4 & hwio.SizeMask(size)
	}
	return 0xD3D3D3D3 & hwio.SizeMask(size)
}
func (ob *openbus) Write(addr uint32, val uint32, size int) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// mapped to 0x0000_0000-0x0000_0FFF, mirrored up to 0x3FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x1000,vsize=0x4000"`

	// 0x0C00_0000
	Reg0 hwio.Reg32 `hwio:"bank=1,offset=0x0,reset=0x77665544"`
	// 0x0C00_0004
	Reg1 hwio.Reg32 `hwio:"bank=1,offset=0x4,rwmask=0xFFFF0000,rcb,reset=0x99"`
	// 0x0C00_0008
	Reg2 hwio.Reg32 `hwio:"bank=1,offset=0x8,readonly,pcb=PeekReg2"`

	// 0x0C10_0000-0x0C10_00FF
	DefaultDev hwio.Device `hwio:"bank=2,offset=0x0,size=0x100"`
	// 0x0C10_0100-0x0C10_01FF
	DEV hwio.Device `hwio:"bank=2,offset=0x100,size=0x100,rcb,wcb"` // no peek-callback
	// 0x0C10_0200-0x0C10_02FF
	RoDEV hwio.Device `hwio:"bank=2,offset=0x200,size=0x100,rcb,pcb,readonly"`
	// 0x0C10_0300-0x0C10_03FF
	WoDEV hwio.Device `hwio:"bank=2,offset=0x300,size=0x100,wcb,writeonly"` // no peek-callback

	devval uint32
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	hwio.MustInitRegs(tbl)

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapBank(0x00000000, tbl, 0)
	tbl.Bus.MapBank(0x0C000000, tbl, 1)
	tbl.Bus.MapBank(0x0C100000, tbl, 2)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

func (tbl *testTable) ReadREG1(val uint32) uint32 { return tbl.Reg1.Value + 1 }
func (tbl *testTable) PeekReg2(val uint32) uint32 { return 0x12 }

func (tbl *testTable) ReadDEV(addr uint32, size int) uint32 { return 0xE1E1E1E1 & hwio.SizeMask(size) }
func (tbl *testTable) WriteDEV(addr uint32, val uint32, size int) {
	tbl.devval = addr & 0xFF & val
}

func (tbl *testTable) ReadRODEV(addr uint32, size int) uint32 { return 0xC5 }
func (tbl *testTable) PeekRODEV(addr uint32, size int) uint32 { return 0xC8 }

func (tbl *testTable) WriteWODEV(addr uint32, val uint32, size int) {
	tbl.devval = addr & 0xFF &^ val
}

func (tbl *testTable) wantRead32(addr uint32, want uint32) {
	tbl.t.Helper()
	if got := tbl.Bus.Read32(addr); got != want {
		tbl.t.Errorf("Read32(%08X) = %08X, want %08X", addr, got, want)
	}
}

func (tbl *testTable) wantRead8(addr uint32, want uint8) {
	tbl.t.Helper()
	if got := tbl.Bus.Read8(addr); got != want {
		tbl.t.Errorf("Read8(%08X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) wantPeek32(addr uint32, want uint32) {
	tbl.t.Helper()
	if got := tbl.Bus.Peek32(addr); got != want {
		tbl.t.Errorf("Peek32(%08X) = %08X, want %08X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead32(0x00, 0)
	tbl.Bus.Write32(0x00, 0x12345678)
	tbl.wantRead32(0x00, 0x12345678)
	tbl.wantRead32(0x1000, 0x12345678) // mirror
	tbl.wantRead8(0x01, 0x34)
	if got := tbl.Bus.Read16(0x02); got != 0x5678 {
		t.Errorf("Read16 = %04X, want 5678", got)
	}

	tbl.Bus.Write8(0x03, 0xAA)
	tbl.wantRead32(0x00, 0x123456AA)
	tbl.Bus.Write16(0x00, 0xBEEF)
	tbl.wantRead32(0x00, 0xBEEF56AA)
}

func TestTableRegs(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead32(0x0C000000, 0x77665544)
	tbl.wantRead8(0x0C000000, 0x77)
	tbl.wantRead8(0x0C000003, 0x44)

	// Reg1: only the upper half is writable
	tbl.wantRead32(0x0C000004, 0x9a)
	tbl.Bus.Write32(0x0C000004, 0xFFFFFFFF)
	tbl.wantRead32(0x0C000004, 0xFFFF009a)
	tbl.Bus.Write16(0x0C000004, 0x1234)
	tbl.wantRead32(0x0C000004, 0x1234009a)
	tbl.Bus.Write8(0x0C000007, 0x00)
	tbl.wantRead32(0x0C000004, 0x1234009a)

	// Reg2
	tbl.wantRead32(0x0C000008, 0x00)
	tbl.wantPeek32(0x0C000008, 0x12)
	tbl.Bus.Write32(0x0C000008, 0x9b)
	tbl.wantRead32(0x0C000008, 0x00)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)
	tbl.wantRead32(0x0C000020, 0xD3D3D3D3)
	tbl.wantPeek32(0x0C000020, 0xD4D4D4D4)
	tbl.wantRead8(0x0C000020, 0xD3)

	tbl.Bus.Unmapped = nil
	tbl.wantRead32(0x0C000020, 0)
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Bus.Write32(0x0C100000, 0xff)
	tbl.wantRead32(0x0C100000, 0x00)
	tbl.wantPeek32(0x0C100000, 0x00)

	tbl.wantRead32(0x0C100100, 0xE1E1E1E1)
	tbl.wantRead8(0x0C100100, 0xE1)
	tbl.wantPeek32(0x0C100100, 0x00)
	tbl.Bus.Write32(0x0C100120, 0x27)
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead32(0x0C100200, 0xc5)
	tbl.wantPeek32(0x0C100200, 0xc8)
	tbl.Bus.Write32(0x0C100200, 0xff) // readonly
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead32(0x0C100300, 0x00) // writeonly
	tbl.Bus.Write32(0x0C100355, 0x0f)
	if tbl.devval != 0x50 {
		t.Errorf("devval = %02X, want 0x50", tbl.devval)
	}
}

func TestTableOverlap(t *testing.T) {
	tbl := newTestTable(t)

	defer func() {
		if recover() == nil {
			t.Errorf("mapping over an existing range should panic")
		}
	}()
	tbl.Bus.MapReg32(0x0C000004, &hwio.Reg32{Name: "dup"})
}

func TestUnmapBank(t *testing.T) {
	t.Run("hwio.Mem", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Write32(0x40, 0x12)
		tbl.Bus.UnmapBank(0x0000, tbl, 0)
		tbl.wantRead32(0x40, 0xD3D3D3D3)
	})
	t.Run("hwio.Reg32", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.UnmapBank(0x0C000000, tbl, 1)
		tbl.wantRead32(0x0C000004, 0xD3D3D3D3)
		tbl.wantPeek32(0x0C000004, 0xD4D4D4D4)
	})
	t.Run("hwio.Device", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.wantRead32(0x0C10017C, 0xE1E1E1E1)
		tbl.Bus.UnmapBank(0x0C100000, tbl, 2)
		tbl.wantRead32(0x0C10017C, 0xD3D3D3D3)
	})
}

func TestUnmap(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Write32(0x40, 0x12)
		tbl.Bus.Unmap(0x0000, 0x003F)
		tbl.wantRead32(0x00, 0xD3D3D3D3)
		tbl.wantRead32(0x40, 0x12)
	})
	t.Run("overshoot", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x0000, 0x0C000003)
		tbl.wantRead32(0x40, 0xD3D3D3D3)
		tbl.wantRead32(0x0C000000, 0xD3D3D3D3)
		tbl.wantRead32(0x0C000004, 0x9a)
	})
	t.Run("multiple", func(t *testing.T) {
		tbl := newTestTable(t)

		tbl.Bus.Unmap(0x0C100004, 0x0C1002FF) // unmap 3 devices
		tbl.wantRead32(0x0C100000, 0)
		tbl.wantRead32(0x0C100100, 0xD3D3D3D3)
		tbl.wantRead32(0x0C100200, 0xD3D3D3D3)
		tbl.Bus.Write32(0x0C100355, 0x0f)
		if tbl.devval != 0x50 {
			t.Errorf("devval = %02X, want 0x50", tbl.devval)
		}
	})
}
