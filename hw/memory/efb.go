package memory

import (
	"gekko/emu/log"
	"gekko/hw/hwio"
)

const (
	EFBWidth  = 640
	EFBHeight = 528
	efbSize   = 0x04000000
)

// EFB is the CPU view of the embedded frame buffer. Each pixel is a 32-bit
// word at EFBBase | y<<12 | x<<2. The GPU side is not emulated: the buffer
// only remembers what the CPU pokes.
type EFB struct {
	hwio.Device
	pixels [EFBHeight][EFBWidth]uint32
}

func NewEFB() *EFB {
	efb := &EFB{}
	efb.Device = hwio.Device{
		Name:    "efb",
		Size:    efbSize,
		ReadCb:  efb.read,
		PeekCb:  efb.read,
		WriteCb: efb.write,
	}
	return efb
}

func efbCoords(addr uint32) (x, y uint32) {
	return addr >> 2 & 0x3FF, addr >> 12 & 0x3FF
}

func (efb *EFB) read(addr uint32, size int) uint32 {
	x, y := efbCoords(addr)
	if x >= EFBWidth || y >= EFBHeight {
		return 0
	}
	return efb.pixels[y][x] >> (uint(4-int(addr&3)-size) * 8) & hwio.SizeMask(size)
}

func (efb *EFB) write(addr uint32, val uint32, size int) {
	x, y := efbCoords(addr)
	if x >= EFBWidth || y >= EFBHeight {
		log.ModMem.WarnZ("efb write out of bounds").Addr("addr", addr).End()
		return
	}
	shift := uint(4-int(addr&3)-size) * 8
	mask := hwio.SizeMask(size) << shift
	efb.pixels[y][x] = efb.pixels[y][x]&^mask | val<<shift&mask
}

// Pixel returns the pixel at (x, y).
func (efb *EFB) Pixel(x, y int) uint32 { return efb.pixels[y][x] }
