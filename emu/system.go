package emu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gekko/emu/log"
	"gekko/hw/dcache"
	"gekko/hw/memcheck"
	"gekko/hw/memory"
	"gekko/hw/mmu"
	"gekko/hw/pi"
	"gekko/hw/ppc"
)

// System ties the memory management unit to the physical memory, the CPU
// state and the devices it talks to.
type System struct {
	Config Config

	Memory    *memory.Manager
	CPU       *ppc.State
	PI        *pi.Interface
	DCache    *dcache.Cache // nil when the data cache isn't emulated
	MemChecks *memcheck.MemChecks
	MMU       *mmu.MMU

	// mu is held by whoever runs on the CPU thread.
	mu       sync.Mutex
	stepping atomic.Bool
	breakReq atomic.Bool

	// Alerts receives the diagnostics raised by the MMU. If nil, they are
	// only logged.
	Alerts func(msg string)
}

// PowerUp creates a system configured by cfg.
func PowerUp(cfg Config) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mask, err := log.MaskFromNames(cfg.Debug.LogModules)
	if err != nil {
		return nil, err
	}
	log.EnableDebugModules(mask)

	mem, err := memory.New(cfg.MemoryLayout())
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}

	s := &System{
		Config:    cfg,
		Memory:    mem,
		CPU:       ppc.NewState(),
		MemChecks: memcheck.New(),
	}
	s.PI = pi.New(s.CPU, mem.MMIO)
	if cfg.Emulation.DCache {
		s.DCache = dcache.New(dcache.DefaultConfig(), dcache.NewMemoryBacking(mem))
	}

	s.MMU = mmu.New(cfg.MMUConfig(), mmu.Deps{
		Memory:     mem,
		CPU:        s.CPU,
		Control:    s,
		MemChecks:  s.MemChecks,
		Interrupts: s.PI,
		DCache:     s.DCache,
	})
	s.MMU.AlertHandler = s.alert
	s.MemChecks.OnChange = s.MMU.DBATUpdated

	for _, mc := range cfg.Debug.MemChecks {
		if err := s.MemChecks.Add(mc.memcheck()); err != nil {
			return nil, err
		}
	}

	log.ModEmu.InfoZ("power up").
		Bool("wii", cfg.Memory.Wii).
		Bool("mmu", cfg.Emulation.MMU).
		Bool("dcache", cfg.Emulation.DCache).
		Int("memchecks", len(cfg.Debug.MemChecks)).
		End()
	return s, nil
}

func (s *System) alert(msg string) {
	if s.Alerts != nil {
		s.Alerts(msg)
	}
}

// Reset puts the CPU and memory back in their power-on state.
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CPU.Reset()
	s.Memory.Clear()
	if s.DCache != nil {
		s.DCache.Reset()
	}
	s.MMU.SDRUpdated()
	s.MMU.DBATUpdated()
	s.MMU.IBATUpdated()
	s.breakReq.Store(false)
}

// Break requests the CPU to pause at the next instruction boundary.
func (s *System) Break() {
	log.ModEmu.DebugZ("break requested").Addr("pc", s.CPU.PC).End()
	s.breakReq.Store(true)
}

// BreakRequested reports, and clears, a pending break request.
func (s *System) BreakRequested() bool {
	return s.breakReq.Swap(false)
}

// IsStepping reports whether the CPU is being single-stepped.
func (s *System) IsStepping() bool { return s.stepping.Load() }

func (s *System) SetStepping(on bool) { s.stepping.Store(on) }

// Exec runs fn on the CPU thread.
func (s *System) Exec(fn func(m *mmu.MMU)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.MMU)
}

// PauseCPU takes the CPU thread and returns a guard giving host code
// access to guest memory. The CPU stays paused until the guard is released.
func (s *System) PauseCPU() *mmu.CPUThreadGuard {
	s.mu.Lock()
	return mmu.NewCPUThreadGuard(s.MMU, s.mu.Unlock)
}

// SetMSR sets the data and instruction translation enable bits.
func (s *System) SetMSR(dr, ir bool) {
	s.Exec(func(*mmu.MMU) {
		s.CPU.MSR = s.CPU.MSR.SetDR(dr).SetIR(ir)
	})
}
