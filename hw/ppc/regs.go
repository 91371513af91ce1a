package ppc

import "gekko/hw/hwio"

// Special purpose register numbers.
const (
	SprXER   = 1
	SprLR    = 8
	SprCTR   = 9
	SprDSISR = 18
	SprDAR   = 19
	SprDEC   = 22
	SprSDR   = 25
	SprSRR0  = 26
	SprSRR1  = 27

	SprIBAT0U = 528
	SprIBAT0L = 529
	SprDBAT0U = 536
	SprDBAT0L = 537
	SprIBAT4U = 560
	SprIBAT4L = 561
	SprDBAT4U = 568
	SprDBAT4L = 569

	SprHID2 = 920
	SprHID0 = 1008
	SprHID4 = 1011
)

// MSR is the machine state register.
type MSR uint32

const (
	msrLE = 0  // little-endian mode
	msrRI = 1  // recoverable interrupt
	msrDR = 4  // data address translation
	msrIR = 5  // instruction address translation
	msrME = 12 // machine check enable
	msrPR = 14 // problem state
	msrEE = 15 // external interrupt enable
)

func (m MSR) LE() bool { return hwio.GetBit32(uint32(m), msrLE) }
func (m MSR) RI() bool { return hwio.GetBit32(uint32(m), msrRI) }
func (m MSR) DR() bool { return hwio.GetBit32(uint32(m), msrDR) }
func (m MSR) IR() bool { return hwio.GetBit32(uint32(m), msrIR) }
func (m MSR) ME() bool { return hwio.GetBit32(uint32(m), msrME) }
func (m MSR) PR() bool { return hwio.GetBit32(uint32(m), msrPR) }
func (m MSR) EE() bool { return hwio.GetBit32(uint32(m), msrEE) }

func (m MSR) SetDR(v bool) MSR { return m.set(msrDR, v) }
func (m MSR) SetIR(v bool) MSR { return m.set(msrIR, v) }
func (m MSR) SetEE(v bool) MSR { return m.set(msrEE, v) }
func (m MSR) SetPR(v bool) MSR { return m.set(msrPR, v) }

func (m MSR) set(bit uint, v bool) MSR {
	r := uint32(m)
	if v {
		hwio.SetBit32(&r, bit)
	} else {
		hwio.ClearBit32(&r, bit)
	}
	return MSR(r)
}

func (m MSR) String() string {
	const flags = "ee.pr.me.ir.dr.ri.le"
	s := []byte("-- -- -- -- -- -- --")
	for i, bit := range []uint{msrEE, msrPR, msrME, msrIR, msrDR, msrRI, msrLE} {
		if hwio.GetBit32(uint32(m), bit) {
			copy(s[i*3:], flags[i*3:i*3+2])
		}
	}
	return string(s)
}

// BATU is the upper half of a block address translation register pair.
type BATU uint32

func (b BATU) Vp() bool     { return hwio.GetBit32(uint32(b), 0) }
func (b BATU) Vs() bool     { return hwio.GetBit32(uint32(b), 1) }
func (b BATU) BL() uint32   { return hwio.GetBits32(uint32(b), 2, 11) }
func (b BATU) BEPI() uint32 { return hwio.GetBits32(uint32(b), 17, 15) }

// MakeBATU builds a BATU value from its fields.
func MakeBATU(bepi, bl uint32, vs, vp bool) BATU {
	v := hwio.SetBits32(0, 17, 15, bepi)
	v = hwio.SetBits32(v, 2, 11, bl)
	if vs {
		hwio.SetBit32(&v, 1)
	}
	if vp {
		hwio.SetBit32(&v, 0)
	}
	return BATU(v)
}

// BATL is the lower half of a block address translation register pair.
type BATL uint32

func (b BATL) PP() uint32   { return hwio.GetBits32(uint32(b), 0, 2) }
func (b BATL) WIMG() uint32 { return hwio.GetBits32(uint32(b), 3, 4) }
func (b BATL) BRPN() uint32 { return hwio.GetBits32(uint32(b), 17, 15) }

// MakeBATL builds a BATL value from its fields.
func MakeBATL(brpn, wimg, pp uint32) BATL {
	v := hwio.SetBits32(0, 17, 15, brpn)
	v = hwio.SetBits32(v, 3, 4, wimg)
	return BATL(hwio.SetBits32(v, 0, 2, pp))
}

// WIMG bits, as found in BATL and PTE2.
const (
	WIMGGuarded      = 1 << 0
	WIMGCoherent     = 1 << 1
	WIMGInhibited    = 1 << 2
	WIMGWriteThrough = 1 << 3
)

// SR is a segment register.
type SR uint32

func (s SR) VSID() uint32 { return hwio.GetBits32(uint32(s), 0, 24) }
func (s SR) N() bool      { return hwio.GetBit32(uint32(s), 28) } // no-execute
func (s SR) Kp() bool     { return hwio.GetBit32(uint32(s), 29) }
func (s SR) Ks() bool     { return hwio.GetBit32(uint32(s), 30) }
func (s SR) T() bool      { return hwio.GetBit32(uint32(s), 31) } // direct-store segment

// MakeSR builds an ordinary (T=0) segment register value.
func MakeSR(vsid uint32, n bool) SR {
	v := hwio.SetBits32(0, 0, 24, vsid)
	if n {
		hwio.SetBit32(&v, 28)
	}
	return SR(v)
}

// SDR1 holds the page table origin and mask.
type SDR1 uint32

func (s SDR1) HTABMASK() uint32 { return hwio.GetBits32(uint32(s), 0, 9) }
func (s SDR1) HTABORG() uint32  { return hwio.GetBits32(uint32(s), 16, 16) }

// PTE1 is the first word of a page table entry.
type PTE1 uint32

func (p PTE1) API() uint32  { return hwio.GetBits32(uint32(p), 0, 6) }
func (p PTE1) H() bool      { return hwio.GetBit32(uint32(p), 6) }
func (p PTE1) VSID() uint32 { return hwio.GetBits32(uint32(p), 7, 24) }
func (p PTE1) V() bool      { return hwio.GetBit32(uint32(p), 31) }

// MakePTE1 builds a PTE1 value from its fields.
func MakePTE1(vsid, api uint32, h, v bool) PTE1 {
	w := hwio.SetBits32(0, 7, 24, vsid)
	w = hwio.SetBits32(w, 0, 6, api)
	if h {
		hwio.SetBit32(&w, 6)
	}
	if v {
		hwio.SetBit32(&w, 31)
	}
	return PTE1(w)
}

// PTE2 is the second word of a page table entry.
type PTE2 uint32

const (
	pte2C = 7 // changed
	pte2R = 8 // referenced
)

func (p PTE2) PP() uint32   { return hwio.GetBits32(uint32(p), 0, 2) }
func (p PTE2) WIMG() uint32 { return hwio.GetBits32(uint32(p), 3, 4) }
func (p PTE2) C() bool      { return hwio.GetBit32(uint32(p), pte2C) }
func (p PTE2) R() bool      { return hwio.GetBit32(uint32(p), pte2R) }
func (p PTE2) RPN() uint32  { return hwio.GetBits32(uint32(p), 12, 20) }

func (p PTE2) SetC() PTE2 { return p | 1<<pte2C }
func (p PTE2) SetR() PTE2 { return p | 1<<pte2R }

// MakePTE2 builds a PTE2 value from its fields, with R and C cleared.
func MakePTE2(rpn, wimg, pp uint32) PTE2 {
	w := hwio.SetBits32(0, 12, 20, rpn)
	w = hwio.SetBits32(w, 3, 4, wimg)
	return PTE2(hwio.SetBits32(w, 0, 2, pp))
}

// HID0 is hardware implementation register 0.
type HID0 uint32

// DLOCK reports whether the data cache is locked.
func (h HID0) DLOCK() bool { return hwio.GetBit32(uint32(h), 12) }
func (h HID0) DCE() bool   { return hwio.GetBit32(uint32(h), 14) }

// HID2 is hardware implementation register 2.
type HID2 uint32

// LCE reports whether the locked cache is enabled.
func (h HID2) LCE() bool { return hwio.GetBit32(uint32(h), 28) }

// HID4 is hardware implementation register 4 (Broadway only).
type HID4 uint32

// SBE reports whether BAT4-7 are enabled.
func (h HID4) SBE() bool { return hwio.GetBit32(uint32(h), 25) }
