package board

import (
	"os"
	"testing"
)

type perftCase struct {
	depth    int
	expected uint64
}

func runPerft(t *testing.T, fen string, cases []perftCase) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	for _, tc := range cases {
		if tc.expected > 5_000_000 && testing.Short() {
			t.Logf("skipping perft(%d) in short mode", tc.depth)
			continue
		}
		got := Perft(pos, tc.depth)
		if got != tc.expected {
			t.Errorf("perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
		if err := pos.Validate(); err != nil {
			t.Fatalf("position corrupted after perft(%d): %v", tc.depth, err)
		}
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	cases := []perftCase{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
		{5, 4865609},
	}
	if os.Getenv("CHESSCORE_DEEP_PERFT") != "" {
		cases = append(cases, perftCase{6, 119060324})
	}
	runPerft(t, StartFEN, cases)
}

// TestPerftKiwipete tests the famous Kiwipete position with many edge cases.
func TestPerftKiwipete(t *testing.T) {
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []perftCase{
		{1, 48},
		{2, 2039},
		{3, 97862},
		{4, 4085603},
	})
}

// TestPerftPosition3 tests en passant and rook-pin edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []perftCase{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
		{5, 674624},
	})
}

// TestPerftPosition4 covers promotions with capture and castling out of reach.
func TestPerftPosition4(t *testing.T) {
	runPerft(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []perftCase{
		{1, 6},
		{2, 264},
		{3, 9467},
		{4, 422333},
	})
}

func TestPerftPosition5(t *testing.T) {
	runPerft(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []perftCase{
		{1, 44},
		{2, 1486},
		{3, 62379},
	})
}

func TestPerftPosition6(t *testing.T) {
	runPerft(t, "r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10", []perftCase{
		{1, 46},
		{2, 2079},
		{3, 89890},
	})
}

// TestPerftEnPassantPin tests the en passant horizontal pin edge case.
// Black pawn on e4 could capture en passant on d3, but that would expose
// the black king on a4 to the white rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos := MustParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")

	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.From == NewSquare(4, 3) && m.To == NewSquare(3, 2) {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}

	// Depth 1: Ka3, Ka5, Kb3, Kb4, Kb5, e3 = 6 moves
	runPerft(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []perftCase{
		{1, 6},
		{2, 94},
	})
}

func TestDivideSumsToPerft(t *testing.T) {
	pos := MustParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")

	entries := Divide(pos, 2)
	if len(entries) != 48 {
		t.Fatalf("divide returned %d root moves, want 48", len(entries))
	}

	var total uint64
	for i, e := range entries {
		total += e.Nodes
		if i > 0 && entries[i-1].Move.String() > e.Move.String() {
			t.Errorf("divide output not sorted at %d: %s before %s", i, entries[i-1].Move, e.Move)
		}
	}
	if total != 2039 {
		t.Errorf("divide total = %d, want 2039", total)
	}
}

func BenchmarkPerft4(b *testing.B) {
	pos := NewPosition()
	for i := 0; i < b.N; i++ {
		Perft(pos, 4)
	}
}
