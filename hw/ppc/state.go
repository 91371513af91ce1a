// Package ppc holds the architectural state of the Gekko/Broadway CPU that
// the memory management unit reads and writes.
package ppc

import "fmt"

// Exception bits, as accumulated in State.Exceptions.
const (
	ExceptionDecrementer     = 0x0001
	ExceptionSyscall         = 0x0002
	ExceptionExternalInt     = 0x0004
	ExceptionDSI             = 0x0008
	ExceptionISI             = 0x0010
	ExceptionAlignment       = 0x0020
	ExceptionFPUUnavailable  = 0x0040
	ExceptionProgram         = 0x0080
	ExceptionPerfMonitor     = 0x0100
	ExceptionFakeMemcheckHit = 0x0200
)

// DSISR bits set on data storage interrupts.
const (
	DSISRPage  = 1 << 30 // no translation found
	DSISRStore = 1 << 25 // caused by a store
)

// TLB geometry: 64 sets of 2 ways, one TLB for data and one for
// instructions.
const (
	TLBSize       = 128
	TLBWays       = 2
	TLBSets       = TLBSize / TLBWays
	TLBIndexShift = 12
	TLBIndexMask  = TLBSets - 1

	TLBInvalidTag = 0xFFFFFFFF
)

// TLB sides.
const (
	DataTLB = 0
	InstTLB = 1
)

// TLBEntry is a 2-way TLB set.
type TLBEntry struct {
	Tag    [TLBWays]uint32
	PAddr  [TLBWays]uint32
	PTE    [TLBWays]uint32
	VSID   [TLBWays]uint32
	Recent uint8
}

// Invalidate marks both ways as empty.
func (e *TLBEntry) Invalidate() {
	for i := range TLBWays {
		e.Tag[i] = TLBInvalidTag
	}
}

// State is the subset of the CPU architectural state shared with the MMU.
type State struct {
	PC  uint32
	NPC uint32
	MSR MSR

	SR  [16]SR
	SPR [1024]uint32

	// Pending exceptions.
	Exceptions uint32

	// Derived from SDR1 by the MMU.
	PagetableBase     uint32
	PagetableHashmask uint32

	TLB [2][TLBSets]TLBEntry
}

// NewState returns a CPU state in its reset configuration.
func NewState() *State {
	s := new(State)
	s.Reset()
	return s
}

// Reset clears the whole state and invalidates the TLBs.
func (s *State) Reset() {
	*s = State{}
	s.InvalidateTLB()
}

// InvalidateTLB empties both TLBs.
func (s *State) InvalidateTLB() {
	for side := range s.TLB {
		for i := range s.TLB[side] {
			s.TLB[side][i].Invalidate()
		}
	}
}

func (s *State) DSISR() uint32 { return s.SPR[SprDSISR] }
func (s *State) DAR() uint32   { return s.SPR[SprDAR] }
func (s *State) SDR1() SDR1    { return SDR1(s.SPR[SprSDR]) }
func (s *State) HID0() HID0    { return HID0(s.SPR[SprHID0]) }
func (s *State) HID2() HID2    { return HID2(s.SPR[SprHID2]) }
func (s *State) HID4() HID4    { return HID4(s.SPR[SprHID4]) }

// IBAT returns the i-th instruction BAT register pair (0-7).
func (s *State) IBAT(i int) (BATU, BATL) { return s.bat(SprIBAT0U, SprIBAT4U, i) }

// DBAT returns the i-th data BAT register pair (0-7).
func (s *State) DBAT(i int) (BATU, BATL) { return s.bat(SprDBAT0U, SprDBAT4U, i) }

// SetIBAT sets the i-th instruction BAT register pair (0-7).
func (s *State) SetIBAT(i int, u BATU, l BATL) { s.setBat(SprIBAT0U, SprIBAT4U, i, u, l) }

// SetDBAT sets the i-th data BAT register pair (0-7).
func (s *State) SetDBAT(i int, u BATU, l BATL) { s.setBat(SprDBAT0U, SprDBAT4U, i, u, l) }

func batSPR(base0, base4, i int) int {
	if i < 0 || i > 7 {
		panic(fmt.Sprintf("invalid BAT index %d", i))
	}
	if i < 4 {
		return base0 + 2*i
	}
	return base4 + 2*(i-4)
}

func (s *State) bat(base0, base4, i int) (BATU, BATL) {
	spr := batSPR(base0, base4, i)
	return BATU(s.SPR[spr]), BATL(s.SPR[spr+1])
}

func (s *State) setBat(base0, base4, i int, u BATU, l BATL) {
	spr := batSPR(base0, base4, i)
	s.SPR[spr] = uint32(u)
	s.SPR[spr+1] = uint32(l)
}
