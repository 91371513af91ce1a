package hwio

import (
	"fmt"

	"gekko/emu/log"
)

type RWFlags uint8

const (
	ReadWriteFlag RWFlags = 0
	ReadOnlyFlag  RWFlags = (1 << iota)
	WriteOnlyFlag
)

// Reg32 is a 32-bit big-endian hardware register. It can be accessed with 8,
// 16 or 32-bit wide accesses, narrower accesses select the corresponding byte
// lanes.
type Reg32 struct {
	Name   string
	Value  uint32
	RoMask uint32

	Flags   RWFlags
	ReadCb  func(val uint32) uint32
	PeekCb  func(val uint32) uint32
	WriteCb func(old uint32, val uint32)
}

func (reg Reg32) String() string {
	s := fmt.Sprintf("%s{%08x", reg.Name, reg.Value)
	if reg.ReadCb != nil {
		s += ",r!"
	}
	if reg.PeekCb != nil {
		s += ",p!"
	}
	if reg.WriteCb != nil {
		s += ",w!"
	}
	return s + "}"
}

func (reg *Reg32) write(val uint32) {
	old := reg.Value
	reg.Value = (reg.Value & reg.RoMask) | (val &^ reg.RoMask)
	if reg.WriteCb != nil {
		reg.WriteCb(old, reg.Value)
	}
}

// laneShift returns the shift of the byte lanes selected by an access of the
// given size at addr.
func laneShift(addr uint32, size int) uint {
	return uint(4-int(addr&3)-size) * 8
}

func (reg *Reg32) Read(addr uint32, size int, peek bool) uint32 {
	var val uint32
	switch {
	case peek && reg.PeekCb != nil:
		val = reg.PeekCb(reg.Value)
	case peek:
		val = reg.Value
	case reg.Flags&WriteOnlyFlag != 0:
		log.ModHwIo.ErrorZ("invalid read from writeonly reg").
			String("name", reg.Name).
			Addr("addr", addr).
			End()
		return 0
	case reg.ReadCb != nil:
		val = reg.ReadCb(reg.Value)
	default:
		val = reg.Value
	}
	return val >> laneShift(addr, size) & SizeMask(size)
}

func (reg *Reg32) Write(addr uint32, val uint32, size int) {
	if reg.Flags&ReadOnlyFlag != 0 {
		log.ModHwIo.ErrorZ("invalid write to readonly reg").
			String("name", reg.Name).
			Addr("addr", addr).
			Hex32("val", val).
			End()
		return
	}
	shift := laneShift(addr, size)
	mask := SizeMask(size) << shift
	reg.write(reg.Value&^mask | val<<shift&mask)
}
