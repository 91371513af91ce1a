package mmu

// CPUThreadGuard grants host code exclusive access to the MMU while the
// emulated CPU is paused. It must be released once the host is done.
type CPUThreadGuard struct {
	mmu     *MMU
	release func()
}

// NewCPUThreadGuard returns a guard over m. release, if not nil, is called
// once by Release to let the CPU run again.
func NewCPUThreadGuard(m *MMU, release func()) *CPUThreadGuard {
	return &CPUThreadGuard{mmu: m, release: release}
}

// MMU returns the guarded MMU. It panics if the guard has been released.
func (g *CPUThreadGuard) MMU() *MMU {
	if g.mmu == nil {
		panic("mmu: CPU thread guard used after release")
	}
	return g.mmu
}

// Release gives the CPU thread back. Calling it more than once is a no-op.
func (g *CPUThreadGuard) Release() {
	if g.mmu == nil {
		return
	}
	g.mmu = nil
	if g.release != nil {
		g.release()
	}
}
