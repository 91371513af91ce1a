package mmu

import (
	"testing"

	"gekko/hw/dcache"
	"gekko/hw/memcheck"
	"gekko/hw/memory"
	"gekko/hw/pi"
	"gekko/hw/ppc"
)

type fakeControl struct {
	breaks   int
	stepping bool
}

func (c *fakeControl) Break()           { c.breaks++ }
func (c *fakeControl) IsStepping() bool { return c.stepping }

type testEnv struct {
	mmu    *MMU
	mem    *memory.Manager
	cpu    *ppc.State
	ctl    *fakeControl
	checks *memcheck.MemChecks
	pi     *pi.Interface
	alerts []string
}

type envOption func(*memory.Config, *Config, *bool)

func withWii(mc *memory.Config, _ *Config, _ *bool)         { mc.Wii = true }
func withFakeVMEM(mc *memory.Config, _ *Config, _ *bool)    { mc.FakeVMEM = true }
func withoutMMUMode(_ *memory.Config, c *Config, _ *bool)   { c.MMUMode = false }
func withDCache(_ *memory.Config, _ *Config, dc *bool)      { *dc = true }
func withPauseOnPanic(_ *memory.Config, c *Config, _ *bool) { c.PauseOnPanic = true }

// newTestEnv builds an MMU over 1MiB of RAM, in MMU mode, with translation
// off.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	env, err := buildTestEnv(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func buildTestEnv(opts ...envOption) (*testEnv, error) {
	mcfg := memory.Config{RAMSize: 0x00100000}
	cfg := Config{MMUMode: true}
	useCache := false
	for _, opt := range opts {
		opt(&mcfg, &cfg, &useCache)
	}

	mem, err := memory.New(mcfg)
	if err != nil {
		return nil, err
	}

	env := &testEnv{
		mem:    mem,
		cpu:    ppc.NewState(),
		ctl:    &fakeControl{},
		checks: memcheck.New(),
	}
	env.pi = pi.New(env.cpu, mem.MMIO)

	var dc *dcache.Cache
	if useCache {
		dc = dcache.New(dcache.DefaultConfig(), dcache.NewMemoryBacking(mem))
	}

	env.mmu = New(cfg, Deps{
		Memory:     mem,
		CPU:        env.cpu,
		Control:    env.ctl,
		MemChecks:  env.checks,
		Interrupts: env.pi,
		DCache:     dc,
	})
	env.mmu.AlertHandler = func(msg string) { env.alerts = append(env.alerts, msg) }
	env.checks.OnChange = env.mmu.DBATUpdated
	return env, nil
}

func (env *testEnv) setDR(on bool) { env.cpu.MSR = env.cpu.MSR.SetDR(on) }
func (env *testEnv) setIR(on bool) { env.cpu.MSR = env.cpu.MSR.SetIR(on) }

// mapDBAT maps the 128KiB blocks [ea, ea+(bl+1)*128KiB) onto pa, through data
// BAT i.
func (env *testEnv) mapDBAT(i int, ea, pa, bl, wimg uint32) {
	env.cpu.SetDBAT(i,
		ppc.MakeBATU(ea>>BATIndexShift, bl, true, true),
		ppc.MakeBATL(pa>>BATIndexShift, wimg, 2))
	env.mmu.DBATUpdated()
}

func (env *testEnv) mapIBAT(i int, ea, pa, bl uint32) {
	env.cpu.SetIBAT(i,
		ppc.MakeBATU(ea>>BATIndexShift, bl, true, true),
		ppc.MakeBATL(pa>>BATIndexShift, 0, 2))
	env.mmu.IBATUpdated()
}

const testHTABOrg = 0x00080000

// setupPageTable points SDR1 at a 64KiB hashed page table and gives every
// segment its own VSID.
func (env *testEnv) setupPageTable() {
	env.cpu.SPR[ppc.SprSDR] = testHTABOrg
	env.mmu.SDRUpdated()
	for i := range env.cpu.SR {
		env.cpu.SR[i] = ppc.MakeSR(0x100+uint32(i), false)
	}
}

// ptegAddr returns the address of the PTE group of ea for the given hash
// function.
func (env *testEnv) ptegAddr(ea uint32, secondary bool) uint32 {
	vsid := env.cpu.SR[ea>>28].VSID()
	hash := vsid ^ EffectiveAddress(ea).PageIndex()
	if secondary {
		hash = ^hash
	}
	return (hash&env.cpu.PagetableHashmask)<<6 | env.cpu.PagetableBase
}

// mapPage adds a PTE mapping the page of ea to the page of pa, and returns
// the address of its second word.
func (env *testEnv) mapPage(t *testing.T, ea, pa, wimg uint32, secondary bool) uint32 {
	t.Helper()
	vsid := env.cpu.SR[ea>>28].VSID()
	pte1 := ppc.MakePTE1(vsid, EffectiveAddress(ea).API(), secondary, true)
	pte2 := ppc.MakePTE2(pa>>HWPageIndexShift, wimg, 2)

	addr := env.ptegAddr(ea, secondary)
	for range 8 {
		if !ppc.PTE1(env.mem.ReadU32(addr)).V() {
			env.mem.WriteU32(addr, uint32(pte1))
			env.mem.WriteU32(addr+4, uint32(pte2))
			return addr + 4
		}
		addr += 8
	}
	t.Fatalf("PTEG full for ea %08x", ea)
	return 0
}

func TestNewRequiresMemoryAndCPU(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("New should panic without memory")
		}
	}()
	New(Config{}, Deps{CPU: ppc.NewState()})
}

func TestStringers(t *testing.T) {
	if s := Opcode.String(); s != "Opcode" {
		t.Errorf("Opcode.String() = %q", s)
	}
	if s := DirectStoreSegment.String(); s != "DirectStoreSegment" {
		t.Errorf("DirectStoreSegment.String() = %q", s)
	}
}
