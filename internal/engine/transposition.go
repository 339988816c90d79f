package engine

import (
	"sync"

	"github.com/hailam/chesscore/internal/board"
)

// Bound tells how a stored value relates to the true value of a position.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundExact       // Value is exact
	BoundLower       // True value >= Value (failed high)
	BoundUpper       // True value <= Value (failed low)
)

// flip mirrors a bound when the perspective of its value is negated.
func (b Bound) flip() Bound {
	switch b {
	case BoundLower:
		return BoundUpper
	case BoundUpper:
		return BoundLower
	}
	return b
}

func (b Bound) String() string {
	switch b {
	case BoundExact:
		return "exact"
	case BoundLower:
		return "lower"
	case BoundUpper:
		return "upper"
	}
	return "none"
}

// Number of shards for TT locking (power of 2 for fast modulo)
const (
	ttShardCount = 256
	ttShardMask  = ttShardCount - 1
)

// TTEntry is one slot of the transposition table. Value is relative to the
// side to move in the stored position, with mate distances counted from
// that position (see ScoreToTT).
type TTEntry struct {
	Key   uint64     // Full Zobrist key, checked on every probe
	Move  board.Move // Best or refutation move, NoMove if none
	Value int32
	Depth int16
	Bound Bound
}

// Usable reports whether the entry's bound may replace a search of the
// given remaining depth.
func (e TTEntry) Usable(depth int) bool {
	return e.Bound != BoundNone && int(e.Depth) >= depth
}

const ttEntrySize = 24

// TranspositionTable is a direct-mapped cache of search results. Each key
// maps to exactly one slot, and a store always overwrites the slot.
// Sharded locks make it safe to share between root workers.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex
	size    uint64
	mask    uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	numEntries := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / ttEntrySize)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

func (tt *TranspositionTable) shardIndex(idx uint64) int {
	return int(idx & ttShardMask)
}

// Probe returns the entry stored under hash. ok is false when the slot is
// empty or holds a different key. Use TTEntry.Usable to check the depth.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].RLock()
	entry := tt.entries[idx]
	tt.shards[shard].RUnlock()

	if entry.Key == hash && entry.Bound != BoundNone {
		return entry, true
	}
	return TTEntry{}, false
}

// Store writes an entry into the slot for hash, replacing whatever was there.
func (tt *TranspositionTable) Store(hash uint64, depth int, value int, bound Bound, move board.Move) {
	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].Lock()
	tt.entries[idx] = TTEntry{
		Key:   hash,
		Move:  move,
		Value: int32(value),
		Depth: int16(depth),
		Bound: bound,
	}
	tt.shards[shard].Unlock()
}

// Clear empties every slot.
func (tt *TranspositionTable) Clear() {
	for s := range tt.shards {
		tt.shards[s].Lock()
	}
	clear(tt.entries)
	for s := range tt.shards {
		tt.shards[s].Unlock()
	}
}

// HashFull returns the permille of occupied slots among the first thousand.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	used := 0
	for i := 0; i < sampleSize; i++ {
		shard := tt.shardIndex(uint64(i))
		tt.shards[shard].RLock()
		if tt.entries[i].Bound != BoundNone {
			used++
		}
		tt.shards[shard].RUnlock()
	}
	return used * 1000 / sampleSize
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// Bytes returns the memory held by the slots.
func (tt *TranspositionTable) Bytes() uint64 {
	return tt.size * ttEntrySize
}
