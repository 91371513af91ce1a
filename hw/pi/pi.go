// Package pi emulates the interrupt registers of the processor interface.
package pi

import (
	"gekko/emu/log"
	"gekko/hw/hwio"
	"gekko/hw/ppc"
)

// Base is the physical address of the processor interface registers.
const Base = 0x0C003000

// Interrupt causes.
const (
	IntCausePI       = 0x0001 // GP runtime error
	IntCauseRSW      = 0x0002 // reset switch
	IntCauseDI       = 0x0004
	IntCauseSI       = 0x0008
	IntCauseEXI      = 0x0010
	IntCauseAI       = 0x0020
	IntCauseDSP      = 0x0040
	IntCauseMEM      = 0x0080
	IntCauseVI       = 0x0100
	IntCausePETOKEN  = 0x0200
	IntCausePEFINISH = 0x0400
	IntCauseCP       = 0x0800
	IntCauseDEBUG    = 0x1000
	IntCauseWiiIPC   = 0x4000
	IntCauseRSWST    = 0x10000 // reset switch state, not an interrupt
)

// Interface holds the processor interface interrupt registers.
type Interface struct {
	INTSR hwio.Reg32 `hwio:"offset=0x0,wcb"`
	INTMR hwio.Reg32 `hwio:"offset=0x4,wcb"`

	cpu *ppc.State
}

// New creates the processor interface and maps its registers on mmio.
func New(cpu *ppc.State, mmio *hwio.Table) *Interface {
	pi := &Interface{cpu: cpu}
	hwio.MustInitRegs(pi)
	mmio.MapBank(Base, pi, 0)
	return pi
}

// SetInterrupt raises or clears the interrupt cause, then updates the
// external interrupt line of the CPU.
func (pi *Interface) SetInterrupt(cause uint32, set bool) {
	if set && pi.INTSR.Value&cause == 0 {
		log.ModHwIo.DebugZ("raise PI interrupt").Hex32("cause", cause).End()
	}
	if set {
		pi.INTSR.Value |= cause
	} else {
		pi.INTSR.Value &^= cause
	}
	pi.updateException()
}

// writing 1 to a cause bit acknowledges it
func (pi *Interface) WriteINTSR(old, val uint32) {
	pi.INTSR.Value = old &^ (val &^ IntCauseRSWST)
	pi.updateException()
}

func (pi *Interface) WriteINTMR(old, val uint32) {
	pi.updateException()
}

func (pi *Interface) updateException() {
	if pi.INTSR.Value&pi.INTMR.Value != 0 {
		pi.cpu.Exceptions |= ppc.ExceptionExternalInt
	} else {
		pi.cpu.Exceptions &^= ppc.ExceptionExternalInt
	}
}
