// Package dcache models the L1 data cache of the CPU, so that dcbst, dcbf,
// dcbi and dcbt have observable effects when the cache emulation is enabled.
package dcache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"gekko/emu/log"
)

// Config holds cache geometry.
type Config struct {
	Size          int // in bytes
	Associativity int // number of ways
	BlockSize     int // cache line size, in bytes
}

// DefaultConfig returns the Gekko/Broadway L1 data cache geometry: 32KB,
// 8-way, 32-byte lines.
func DefaultConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     32,
	}
}

// Statistics holds cache access counters.
type Statistics struct {
	Reads       uint64
	Writes      uint64
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Writebacks  uint64
	Invalidates uint64
}

// BackingStore is the memory behind the cache. Addresses are physical.
type BackingStore interface {
	Read(addr uint32, buf []byte)
	Write(addr uint32, data []byte)
}

// Cache is a write-back, write-allocate cache. Tags and LRU state live in an
// akita directory, line contents in dataStore.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	dataStore [][]byte // indexed by setID*associativity + wayID
	backing   BackingStore
	stats     Statistics
}

// New creates an empty cache in front of backing.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	dataStore := make([][]byte, numSets*config.Associativity)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

func (c *Cache) Config() Config    { return c.config }
func (c *Cache) Stats() Statistics { return c.stats }
func (c *Cache) ResetStats()       { c.stats = Statistics{} }
func (c *Cache) lineMask() uint32  { return uint32(c.config.BlockSize - 1) }

func (c *Cache) lineAddr(addr uint32) uint64 {
	return uint64(addr &^ c.lineMask())
}

func (c *Cache) blockData(block *akitacache.Block) []byte {
	return c.dataStore[block.SetID*c.config.Associativity+block.WayID]
}

// lookup returns the valid block holding addr, or nil.
func (c *Cache) lookup(addr uint32) *akitacache.Block {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

func (c *Cache) writeback(block *akitacache.Block) {
	if block.IsValid && block.IsDirty {
		c.stats.Writebacks++
		c.backing.Write(uint32(block.Tag), c.blockData(block))
		block.IsDirty = false
	}
}

// allocate brings the line containing addr into the cache, evicting the LRU
// way of its set if needed.
func (c *Cache) allocate(addr uint32) *akitacache.Block {
	tag := c.lineAddr(addr)
	victim := c.directory.FindVictim(tag)
	if victim.IsValid {
		c.stats.Evictions++
		c.writeback(victim)
	}

	c.backing.Read(uint32(tag), c.blockData(victim))
	victim.Tag = tag
	victim.IsValid = true
	victim.IsDirty = false
	return victim
}

// access walks the lines covered by [addr, addr+len(buf)) and calls fn with
// each line's block (nil on a locked miss) and the matching sub-slices.
func (c *Cache) access(addr uint32, buf []byte, locked bool, fn func(block *akitacache.Block, off uint32, chunk []byte, addr uint32)) {
	for len(buf) > 0 {
		off := addr & c.lineMask()
		n := min(uint32(c.config.BlockSize)-off, uint32(len(buf)))

		block := c.lookup(addr)
		switch {
		case block != nil:
			c.stats.Hits++
			c.directory.Visit(block)
		case locked:
			c.stats.Misses++
		default:
			c.stats.Misses++
			block = c.allocate(addr)
			c.directory.Visit(block)
		}

		fn(block, off, buf[:n], addr)
		buf = buf[n:]
		addr += n
	}
}

// Read fills buf with the memory at addr. If locked is set, misses are
// served from the backing store without allocating a line.
func (c *Cache) Read(addr uint32, buf []byte, locked bool) {
	c.stats.Reads++
	c.access(addr, buf, locked, func(block *akitacache.Block, off uint32, chunk []byte, addr uint32) {
		if block == nil {
			c.backing.Read(addr, chunk)
			return
		}
		copy(chunk, c.blockData(block)[off:])
	})
}

// Write stores data at addr. If locked is set, misses are written through to
// the backing store without allocating a line.
func (c *Cache) Write(addr uint32, data []byte, locked bool) {
	c.stats.Writes++
	c.access(addr, data, locked, func(block *akitacache.Block, off uint32, chunk []byte, addr uint32) {
		if block == nil {
			c.backing.Write(addr, chunk)
			return
		}
		copy(c.blockData(block)[off:], chunk)
		block.IsDirty = true
	})
}

// Store writes the line containing addr back to memory if it's dirty (dcbst).
func (c *Cache) Store(addr uint32) {
	if block := c.lookup(addr); block != nil {
		c.writeback(block)
	}
}

// Flush writes the line containing addr back to memory if it's dirty, then
// invalidates it (dcbf).
func (c *Cache) Flush(addr uint32) {
	if block := c.lookup(addr); block != nil {
		c.writeback(block)
		block.IsValid = false
	}
}

// Invalidate drops the line containing addr, discarding any modification
// (dcbi).
func (c *Cache) Invalidate(addr uint32) {
	if block := c.lookup(addr); block != nil {
		c.stats.Invalidates++
		block.IsValid = false
		block.IsDirty = false
	}
}

// Touch brings the line containing addr into the cache (dcbt, or dcbtst if
// store is set).
func (c *Cache) Touch(addr uint32, store bool) {
	block := c.lookup(addr)
	if block == nil {
		block = c.allocate(addr)
		log.ModCache.DebugZ("touch").Addr("addr", addr).Bool("store", store).End()
	}
	c.directory.Visit(block)
}

// Contains reports whether the line containing addr is present, and whether
// it's dirty.
func (c *Cache) Contains(addr uint32) (valid, dirty bool) {
	if block := c.lookup(addr); block != nil {
		return true, block.IsDirty
	}
	return false, false
}

// FlushAll writes back every dirty line and empties the cache.
func (c *Cache) FlushAll() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			c.writeback(block)
			block.IsValid = false
		}
	}
}

// Reset empties the cache without writing anything back.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
