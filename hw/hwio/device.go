package hwio

import "gekko/emu/log"

// Device is a BankIO implementation that allows manual management of an entire
// range of memory.
type Device struct {
	Name  string // name of the memory area (for debugging)
	Size  int    // size of the memory area
	Flags RWFlags

	ReadCb  func(addr uint32, size int) uint32
	PeekCb  func(addr uint32, size int) uint32
	WriteCb func(addr uint32, val uint32, size int)
}

func (d *Device) Read(addr uint32, size int, peek bool) uint32 {
	if peek {
		if d.PeekCb != nil {
			return d.PeekCb(addr, size)
		}
		return 0
	}

	switch {
	case d.Flags&WriteOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid read from writeonly device").
			String("name", d.Name).
			Addr("addr", addr).
			End()
		fallthrough
	case d.ReadCb == nil:
		return 0
	}
	return d.ReadCb(addr, size)
}

func (d *Device) Write(addr uint32, val uint32, size int) {
	switch {
	case d.Flags&ReadOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid write to readonly device").
			String("name", d.Name).
			Addr("addr", addr).
			End()
		fallthrough
	case d.WriteCb == nil:
		return
	}

	d.WriteCb(addr, val, size)
}
