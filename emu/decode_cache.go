package emu

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rvemu/insts"
)

// Decode cache geometry defaults.
const (
	DefaultDecodeCacheSets = 1024
	DefaultDecodeCacheWays = 4
)

// decodeCacheBlockSize is the smallest instruction size, so every
// instruction address maps to its own directory block.
const decodeCacheBlockSize = 2

// DecodeCacheStats counts decode cache activity.
type DecodeCacheStats struct {
	Lookups   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Flushes   uint64
}

// DecodeCache remembers decoded instructions by PC. Tags and LRU
// replacement come from an Akita cache directory; the decoded
// instructions live in a parallel store indexed by set and way.
type DecodeCache struct {
	ways      int
	directory *akitacache.DirectoryImpl
	entries   []insts.Instruction
	stats     DecodeCacheStats
}

// NewDecodeCache creates a decode cache with the given geometry.
func NewDecodeCache(sets, ways int) *DecodeCache {
	return &DecodeCache{
		ways: ways,
		directory: akitacache.NewDirectory(
			sets,
			ways,
			decodeCacheBlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]insts.Instruction, sets*ways),
	}
}

// Stats returns decode cache statistics.
func (c *DecodeCache) Stats() DecodeCacheStats {
	return c.stats
}

func (c *DecodeCache) entryIndex(block *akitacache.Block) int {
	return block.SetID*c.ways + block.WayID
}

// Lookup returns the instruction decoded at pc, if cached. The result is a
// copy, so callers may modify it.
func (c *DecodeCache) Lookup(pc uint64) (insts.Instruction, bool) {
	c.stats.Lookups++

	block := c.directory.Lookup(0, pc)
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return insts.Instruction{}, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.entryIndex(block)], true
}

// Insert records the instruction decoded at pc, evicting the least recently
// used entry of its set if needed.
func (c *DecodeCache) Insert(pc uint64, insn insts.Instruction) {
	victim := c.directory.FindVictim(pc)
	if victim == nil {
		return
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = pc
	victim.IsValid = true
	victim.IsDirty = false
	c.entries[c.entryIndex(victim)] = insn

	c.directory.Visit(victim)
}

// Flush invalidates every entry.
func (c *DecodeCache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			block.IsValid = false
		}
	}
	c.stats.Flushes++
}
