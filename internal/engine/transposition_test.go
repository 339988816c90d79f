package engine

import (
	"sync"
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func TestTTProbeStore(t *testing.T) {
	tt := NewTranspositionTable(1)
	pos := board.NewPosition()
	move, _ := board.ParseMove("e2e4", pos)

	if _, ok := tt.Probe(pos.Hash); ok {
		t.Fatal("Expected cache miss on first probe")
	}

	tt.Store(pos.Hash, 5, 123, BoundExact, move)
	e, ok := tt.Probe(pos.Hash)
	if !ok {
		t.Fatal("Expected cache hit after store")
	}
	if e.Value != 123 || e.Depth != 5 || e.Bound != BoundExact || e.Move != move {
		t.Errorf("entry = %+v", e)
	}
	if !e.Usable(5) || !e.Usable(3) || e.Usable(6) {
		t.Error("Usable does not compare depth correctly")
	}
}

func TestTTOverwritesUnconditionally(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0xDEADBEEF12345678)

	tt.Store(hash, 10, 50, BoundExact, board.NoMove)
	tt.Store(hash, 1, -7, BoundUpper, board.NoMove)

	e, ok := tt.Probe(hash)
	if !ok || e.Depth != 1 || e.Value != -7 || e.Bound != BoundUpper {
		t.Errorf("shallow store did not replace deep entry: %+v", e)
	}

	// A different key mapping to the same slot evicts the first.
	other := hash + tt.Size()
	tt.Store(other, 3, 9, BoundLower, board.NoMove)
	if _, ok := tt.Probe(hash); ok {
		t.Error("evicted key still probes as a hit")
	}
	if e, ok := tt.Probe(other); !ok || e.Value != 9 {
		t.Errorf("colliding key not stored: %+v", e)
	}
}

func TestTTClearAndHashFull(t *testing.T) {
	tt := NewTranspositionTable(1)
	if tt.HashFull() != 0 {
		t.Errorf("empty table hashfull = %d", tt.HashFull())
	}
	for i := uint64(0); i < 1000; i++ {
		tt.Store(i, 1, 0, BoundExact, board.NoMove)
	}
	if tt.HashFull() != 1000 {
		t.Errorf("hashfull = %d after filling the sample, want 1000", tt.HashFull())
	}

	tt.Clear()
	if _, ok := tt.Probe(5); ok {
		t.Error("entry survived Clear")
	}
	if tt.HashFull() != 0 {
		t.Errorf("hashfull = %d after Clear", tt.HashFull())
	}
}

func TestTTSizeIsPowerOfTwo(t *testing.T) {
	for _, mb := range []int{1, 3, 16, 100} {
		tt := NewTranspositionTable(mb)
		if n := tt.Size(); n == 0 || n&(n-1) != 0 {
			t.Errorf("%dMB table has %d slots", mb, n)
		}
		if tt.Bytes() > uint64(mb)*1024*1024 {
			t.Errorf("%dMB table uses %d bytes", mb, tt.Bytes())
		}
	}
}

func TestTTConcurrentAccess(t *testing.T) {
	tt := NewTranspositionTable(1)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				h := uint64(g*100000 + i)
				tt.Store(h, i%20, i, BoundLower, board.NoMove)
				if e, ok := tt.Probe(h); ok && e.Key != h {
					t.Errorf("probe returned foreign key %x for %x", e.Key, h)
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestMateScoreAdjustment(t *testing.T) {
	// Mate found 7 plies from the root, stored at a node 3 plies deep.
	root := mateValue - 7
	stored := ScoreToTT(root, 3)
	if stored != mateValue-4 {
		t.Errorf("stored %d, want distance 4 from the node", stored)
	}
	// Probed again at ply 5 the mate is 9 plies from the root.
	if got := ScoreFromTT(stored, 5); got != mateValue-9 {
		t.Errorf("probed %d, want %d", got, mateValue-9)
	}

	if ScoreToTT(-root, 3) != -stored {
		t.Error("negative mate scores are not adjusted symmetrically")
	}
	if ScoreToTT(1234, 10) != 1234 || ScoreFromTT(-1234, 10) != -1234 {
		t.Error("heuristic scores must not be adjusted")
	}
}

func TestBoundFlip(t *testing.T) {
	if BoundLower.flip() != BoundUpper || BoundUpper.flip() != BoundLower || BoundExact.flip() != BoundExact {
		t.Error("flip does not swap lower and upper bounds")
	}
}
