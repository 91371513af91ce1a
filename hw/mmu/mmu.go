// Package mmu implements the memory management unit of the Gekko/Broadway
// CPU: block address translation, hashed page table translation, and the
// single access path through which every guest and host memory access goes.
package mmu

import (
	"fmt"

	"gekko/emu/log"
	"gekko/hw/dcache"
	"gekko/hw/memory"
	"gekko/hw/ppc"
)

//go:generate go tool stringer -type=XCheckTLBFlag,TranslationKind -output=enums_string.go

// XCheckTLBFlag selects the kind of access being translated. It decides
// which BAT table is used and which side effects a translation may have.
type XCheckTLBFlag int

const (
	// NoException probes a data address: no guest exception, no page table
	// or TLB update.
	NoException XCheckTLBFlag = iota
	Read
	Write
	Opcode
	// OpcodeNoException probes an instruction address.
	OpcodeNoException
)

func isOpcodeFlag(flag XCheckTLBFlag) bool {
	return flag == Opcode || flag == OpcodeNoException
}

func isNoExceptionFlag(flag XCheckTLBFlag) bool {
	return flag == NoException || flag == OpcodeNoException
}

// CPU is the execution control of the emulated CPU.
type CPU interface {
	Break()
	IsStepping() bool
}

// MemChecker holds the memory breakpoints.
type MemChecker interface {
	HasAny() bool
	OverlapsMemcheck(addr, length uint32) bool
	// Check runs the memcheck matching the access and returns true if the
	// CPU must pause.
	Check(addr uint32, value uint64, size int, write bool, pc uint32) bool
}

// Interrupter raises processor interface interrupts.
type Interrupter interface {
	SetInterrupt(cause uint32, set bool)
}

// Config holds the emulation settings the MMU depends on.
type Config struct {
	// MMUMode enables guest DSI exceptions. Without it, a failed data
	// translation is reported as a host alert instead.
	MMUMode bool

	// PauseOnPanic breaks the CPU after every alert raised by guest code.
	PauseOnPanic bool
}

// Deps are the collaborators of the MMU. Memory and CPU are mandatory.
type Deps struct {
	Memory     *memory.Manager
	CPU        *ppc.State
	Control    CPU
	MemChecks  MemChecker
	Interrupts Interrupter
	DCache     *dcache.Cache // nil if the data cache isn't emulated
}

// MMU is the memory management unit. It is not safe for concurrent use: all
// methods must run on the CPU thread, or under a CPUThreadGuard.
type MMU struct {
	cfg Config

	mem       *memory.Manager
	cpu       *ppc.State
	ctl       CPU
	memchecks MemChecker
	pi        Interrupter
	dcache    *dcache.Cache

	ibat BatTable
	dbat BatTable

	// AlertHandler, if set, receives every diagnostic shown to the user.
	AlertHandler func(msg string)
}

// New creates an MMU and builds its lookup tables from the current CPU
// state.
func New(cfg Config, deps Deps) *MMU {
	if deps.Memory == nil || deps.CPU == nil {
		panic("mmu: memory and cpu state are required")
	}
	m := &MMU{
		cfg:       cfg,
		mem:       deps.Memory,
		cpu:       deps.CPU,
		ctl:       deps.Control,
		memchecks: deps.MemChecks,
		pi:        deps.Interrupts,
		dcache:    deps.DCache,
	}
	m.SDRUpdated()
	m.DBATUpdated()
	m.IBATUpdated()
	return m
}

func (m *MMU) Memory() *memory.Manager { return m.mem }
func (m *MMU) CPU() *ppc.State         { return m.cpu }
func (m *MMU) DCache() *dcache.Cache   { return m.dcache }

// alertf reports a diagnostic to the user.
func (m *MMU) alertf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.ModMMU.ErrorZ(msg).Addr("pc", m.cpu.PC).End()
	if m.AlertHandler != nil {
		m.AlertHandler(msg)
	}
}

// panicAlertf reports a diagnostic caused by guest code, breaking the CPU
// when configured to pause on panic.
func (m *MMU) panicAlertf(format string, args ...any) {
	m.alertf(format, args...)
	if m.cfg.PauseOnPanic {
		m.breakCPU()
		m.cpu.Exceptions |= ppc.ExceptionFakeMemcheckHit
	}
}

func (m *MMU) breakCPU() {
	if m.ctl != nil {
		m.ctl.Break()
	}
}

func (m *MMU) hasMemChecks() bool {
	return m.memchecks != nil && m.memchecks.HasAny()
}

func (m *MMU) overlapsMemcheck(addr, length uint32) bool {
	return m.memchecks != nil && m.memchecks.OverlapsMemcheck(addr, length)
}
