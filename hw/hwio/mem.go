package hwio

import (
	"encoding/binary"

	"gekko/emu/log"
)

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear big-endian memory area that can be mapped into a Table.
// Data is mirrored over VSize bytes when VSize is bigger than len(Data).
type Mem struct {
	Name    string               // name of the memory area (for debugging)
	Data    []byte               // actual memory buffer
	VSize   int                  // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags             // flags determining how the memory can be accessed
	WriteCb func(uint32, uint32) // optional write callback (if set, the callback is called after writing)
}

func (m *Mem) mask() uint32 {
	return uint32(len(m.Data) - 1)
}

func (m *Mem) Read(addr uint32, size int, _ bool) uint32 {
	off := addr & m.mask()
	switch size {
	case 1:
		return uint32(m.Data[off])
	case 2:
		return uint32(binary.BigEndian.Uint16(m.Data[off:]))
	}
	return binary.BigEndian.Uint32(m.Data[off:])
}

func (m *Mem) Write(addr uint32, val uint32, size int) {
	if m.Flags&MemFlagReadOnly != 0 {
		if m.Flags&MemFlagNoROLog == 0 {
			log.ModHwIo.ErrorZ("write to readonly memory").
				String("name", m.Name).
				Hex32("val", val).
				Addr("addr", addr).
				End()
		}
		return
	}

	off := addr & m.mask()
	switch size {
	case 1:
		m.Data[off] = uint8(val)
	case 2:
		binary.BigEndian.PutUint16(m.Data[off:], uint16(val))
	default:
		binary.BigEndian.PutUint32(m.Data[off:], val)
	}
	if m.WriteCb != nil {
		m.WriteCb(addr, val)
	}
}
