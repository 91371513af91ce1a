package dcache_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gekko/hw/dcache"
)

// flatRAM is physical memory made of a single RAM area at address 0.
type flatRAM []byte

func (r flatRAM) Slice(addr, size uint32) []byte {
	if uint64(addr)+uint64(size) > uint64(len(r)) {
		return nil
	}
	return r[addr : addr+size]
}

var _ = Describe("Cache", func() {
	var (
		c   *dcache.Cache
		ram []byte
	)

	read32 := func(addr uint32) uint32 {
		buf := make([]byte, 4)
		c.Read(addr, buf, false)
		return binary.BigEndian.Uint32(buf)
	}
	write32 := func(addr, val uint32) {
		buf := binary.BigEndian.AppendUint32(nil, val)
		c.Write(addr, buf, false)
	}

	BeforeEach(func() {
		ram = make([]byte, 0x10000)
		c = dcache.New(dcache.DefaultConfig(), dcache.NewMemoryBacking(flatRAM(ram)))
	})

	It("has the Gekko geometry", func() {
		cfg := c.Config()
		Expect(cfg.Size).To(Equal(32 * 1024))
		Expect(cfg.Associativity).To(Equal(8))
		Expect(cfg.BlockSize).To(Equal(32))
	})

	Describe("Read", func() {
		It("misses on a cold cache and hits afterwards", func() {
			binary.BigEndian.PutUint32(ram[0x100:], 0xDEADBEEF)

			Expect(read32(0x100)).To(Equal(uint32(0xDEADBEEF)))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))

			Expect(read32(0x104)).To(Equal(uint32(0)))
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("splits accesses crossing a line", func() {
			for i := range 8 {
				ram[0x11C+i] = byte(i + 1)
			}
			buf := make([]byte, 8)
			c.Read(0x11C, buf, false)
			Expect(buf).To(Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(c.Stats().Misses).To(Equal(uint64(2)))
		})

		It("doesn't allocate on a locked miss", func() {
			buf := make([]byte, 4)
			c.Read(0x200, buf, true)
			valid, _ := c.Contains(0x200)
			Expect(valid).To(BeFalse())
		})
	})

	Describe("Write", func() {
		It("keeps written data in the cache until stored", func() {
			write32(0x40, 0x12345678)
			Expect(ram[0x40:0x44]).To(Equal([]byte{0, 0, 0, 0}))
			Expect(read32(0x40)).To(Equal(uint32(0x12345678)))

			valid, dirty := c.Contains(0x40)
			Expect(valid).To(BeTrue())
			Expect(dirty).To(BeTrue())

			c.Store(0x40)
			Expect(binary.BigEndian.Uint32(ram[0x40:])).To(Equal(uint32(0x12345678)))
			valid, dirty = c.Contains(0x40)
			Expect(valid).To(BeTrue())
			Expect(dirty).To(BeFalse())
		})

		It("writes through on a locked miss", func() {
			c.Write(0x80, []byte{0xAA}, true)
			Expect(ram[0x80]).To(Equal(byte(0xAA)))
			valid, _ := c.Contains(0x80)
			Expect(valid).To(BeFalse())
		})
	})

	Describe("Flush", func() {
		It("writes back and invalidates", func() {
			write32(0x60, 0xCAFEBABE)
			c.Flush(0x7F)
			Expect(binary.BigEndian.Uint32(ram[0x60:])).To(Equal(uint32(0xCAFEBABE)))
			valid, _ := c.Contains(0x60)
			Expect(valid).To(BeFalse())
		})

		It("writes back every dirty line with FlushAll", func() {
			write32(0x00, 1)
			write32(0x1000, 2)
			c.FlushAll()
			Expect(binary.BigEndian.Uint32(ram[0x00:])).To(Equal(uint32(1)))
			Expect(binary.BigEndian.Uint32(ram[0x1000:])).To(Equal(uint32(2)))
		})
	})

	Describe("Invalidate", func() {
		It("discards modified data", func() {
			binary.BigEndian.PutUint32(ram[0x20:], 0x11111111)
			write32(0x20, 0x22222222)
			c.Invalidate(0x20)

			Expect(binary.BigEndian.Uint32(ram[0x20:])).To(Equal(uint32(0x11111111)))
			Expect(read32(0x20)).To(Equal(uint32(0x11111111)))
			Expect(c.Stats().Invalidates).To(Equal(uint64(1)))
		})
	})

	Describe("Touch", func() {
		It("brings the line in", func() {
			c.Touch(0x300, false)
			valid, dirty := c.Contains(0x31F)
			Expect(valid).To(BeTrue())
			Expect(dirty).To(BeFalse())

			c.ResetStats()
			read32(0x310)
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})
	})

	Describe("Eviction", func() {
		It("writes back the LRU line when a set overflows", func() {
			// 128 sets of 32 bytes: lines 4KB apart share a set
			for i := range 9 {
				write32(uint32(i)*0x1000, uint32(i)+1)
			}
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(binary.BigEndian.Uint32(ram[0:])).To(Equal(uint32(1)))

			valid, _ := c.Contains(0)
			Expect(valid).To(BeFalse())
		})
	})

	It("reads zeroes outside of memory", func() {
		ram[0] = 0xFF
		Expect(read32(0x20000)).To(Equal(uint32(0)))
		write32(0x20000, 0x1234)
		c.FlushAll()
		Expect(ram[0]).To(Equal(byte(0xFF)))
	})

	It("empties on Reset without writing back", func() {
		write32(0x500, 0xFFFFFFFF)
		c.Reset()
		valid, _ := c.Contains(0x500)
		Expect(valid).To(BeFalse())
		Expect(ram[0x500]).To(Equal(byte(0)))
		Expect(c.Stats()).To(Equal(dcache.Statistics{}))
	})
})
