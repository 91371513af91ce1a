package dcache

// Slicer gives access to physical memory. It returns nil when the range isn't
// backed by memory.
type Slicer interface {
	Slice(addr, size uint32) []byte
}

// MemoryBacking serves cache fills and write-backs from physical memory.
// Lines outside of any memory area read as zero and write-backs to them are
// dropped.
type MemoryBacking struct {
	mem Slicer
}

// NewMemoryBacking creates a MemoryBacking over mem.
func NewMemoryBacking(mem Slicer) *MemoryBacking {
	return &MemoryBacking{mem: mem}
}

func (m *MemoryBacking) Read(addr uint32, buf []byte) {
	if b := m.mem.Slice(addr, uint32(len(buf))); b != nil {
		copy(buf, b)
		return
	}
	clear(buf)
}

func (m *MemoryBacking) Write(addr uint32, data []byte) {
	if b := m.mem.Slice(addr, uint32(len(data))); b != nil {
		copy(b, data)
	}
}
