package board

import (
	"math/rand"
	"testing"
)

var walkFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
}

func mustMove(t *testing.T, pos *Position, s string) Move {
	t.Helper()
	m, err := ParseMove(s, pos)
	if err != nil {
		t.Fatalf("ParseMove(%s): %v\n%s", s, err, pos)
	}
	return m
}

// TestMakeUnmakeRoundTrip plays random games and checks that every legal
// move at every visited position undoes to an identical position, and that
// the incremental hash always matches a recomputation.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, fen := range walkFENs {
		pos := MustParseFEN(fen)
		for ply := 0; ply < 60; ply++ {
			moves := pos.GenerateLegalMoves()
			if moves.Len() == 0 {
				break
			}

			snapshot := pos.Clone()
			for _, m := range moves.Slice() {
				pos.MakeMove(m)
				if err := pos.Validate(); err != nil {
					t.Fatalf("%s after %s: %v", fen, m, err)
				}
				pos.UnmakeMove(m)
				if !pos.Equal(snapshot) {
					t.Fatalf("%s: unmake %s did not restore position\ngot:%s\nwant:%s", fen, m, pos, snapshot)
				}
			}

			pos.MakeMove(moves.Get(rng.Intn(moves.Len())))
			if pos.Ply() != ply+1 {
				t.Fatalf("ply = %d, want %d", pos.Ply(), ply+1)
			}
		}
	}
}

func TestCastlingRoundTrip(t *testing.T) {
	pos := MustParseFEN("r3k2r/pppppppp/8/8/8/8/PPPPPPPP/R3K2R w KQkq - 0 1")
	original := pos.Clone()

	white := mustMove(t, pos, "e1g1")
	pos.MakeMove(white)
	if pos.PieceAt(G1) != WhiteKing || pos.PieceAt(F1) != WhiteRook || !pos.IsEmpty(H1) {
		t.Fatalf("white castle misplaced pieces:%s", pos)
	}
	if pos.Castling() != BlackKingSideCastle|BlackQueenSideCastle {
		t.Errorf("castling rights = %s, want kq", pos.Castling())
	}

	black := mustMove(t, pos, "e8g8")
	pos.MakeMove(black)
	if pos.PieceAt(G8) != BlackKing || pos.PieceAt(F8) != BlackRook {
		t.Fatalf("black castle misplaced pieces:%s", pos)
	}
	if pos.Castling() != NoCastling {
		t.Errorf("castling rights = %s, want -", pos.Castling())
	}
	if err := pos.Validate(); err != nil {
		t.Fatal(err)
	}

	pos.UnmakeMove(black)
	pos.UnmakeMove(white)
	if !pos.Equal(original) {
		t.Errorf("castling round trip mismatch\ngot:%s\nwant:%s", pos, original)
	}
}

func TestEnPassantRoundTrip(t *testing.T) {
	pos := MustParseFEN("rnbqkbnr/pppppppp/8/1P6/8/8/P1PPPPPP/RNBQKBNR b KQkq - 0 1")
	a5, b5, a6 := NewSquare(0, 4), NewSquare(1, 4), NewSquare(0, 5)

	push := mustMove(t, pos, "a7a5")
	pos.MakeMove(push)
	if pos.EnPassant() != a6 {
		t.Fatalf("en passant target = %s, want a6", pos.EnPassant())
	}
	beforeCapture := pos.Clone()

	capture := mustMove(t, pos, "b5a6")
	if capture.Captured != BlackPawn {
		t.Errorf("en passant move carries %s, want the captured black pawn", capture.Captured)
	}
	pos.MakeMove(capture)
	if !pos.IsEmpty(a5) || !pos.IsEmpty(b5) || pos.PieceAt(a6) != WhitePawn {
		t.Fatalf("en passant misplaced pieces:%s", pos)
	}
	if pos.HalfMoveClock() != 0 {
		t.Errorf("half-move clock = %d after pawn capture", pos.HalfMoveClock())
	}

	pos.UnmakeMove(capture)
	if pos.PieceAt(a5) != BlackPawn || pos.PieceAt(b5) != WhitePawn || !pos.IsEmpty(a6) {
		t.Fatalf("unmake did not restore en passant pieces:%s", pos)
	}
	if !pos.Equal(beforeCapture) {
		t.Errorf("en passant round trip mismatch\ngot:%s\nwant:%s", pos, beforeCapture)
	}
}

func TestHashIntegrityAlongGame(t *testing.T) {
	pos := NewPosition()
	startHash := pos.Hash

	line := []string{"e2e4", "d7d5", "e4e5", "f7f5", "e5f6", "g8f6", "g1f3", "b8c6", "f1b5", "c8d7", "e1g1"}
	var played []Move
	for _, s := range line {
		m := mustMove(t, pos, s)
		pos.MakeMove(m)
		played = append(played, m)
		if got := pos.ComputeHash(); got != pos.Hash {
			t.Fatalf("after %s hash = %016x, recomputed %016x", s, pos.Hash, got)
		}
	}

	for i := len(played) - 1; i >= 0; i-- {
		pos.UnmakeMove(played[i])
		if got := pos.ComputeHash(); got != pos.Hash {
			t.Fatalf("after unmaking %s hash = %016x, recomputed %016x", played[i], pos.Hash, got)
		}
	}
	if pos.Hash != startHash {
		t.Errorf("hash after full unwind = %016x, want %016x", pos.Hash, startHash)
	}
}

func TestTranspositionsHashEqual(t *testing.T) {
	a := NewPosition()
	for _, s := range []string{"g1f3", "g8f6", "b1c3"} {
		a.MakeMove(mustMove(t, a, s))
	}
	b := NewPosition()
	for _, s := range []string{"b1c3", "g8f6", "g1f3"} {
		b.MakeMove(mustMove(t, b, s))
	}
	if a.Hash != b.Hash {
		t.Errorf("transposed move orders hash differently: %016x vs %016x", a.Hash, b.Hash)
	}
}

func TestCastlingRightsLostOnRookCapture(t *testing.T) {
	pos := MustParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	pos.MakeMove(mustMove(t, pos, "a1a8"))
	if pos.Castling() != WhiteKingSideCastle|BlackKingSideCastle {
		t.Errorf("castling rights = %s, want Kk", pos.Castling())
	}
}

func TestFullMoveCounter(t *testing.T) {
	pos := NewPosition()
	pos.MakeMove(mustMove(t, pos, "e2e4"))
	if pos.FullMoveNumber != 1 {
		t.Errorf("full move after white = %d, want 1", pos.FullMoveNumber)
	}
	m := mustMove(t, pos, "e7e5")
	pos.MakeMove(m)
	if pos.FullMoveNumber != 2 {
		t.Errorf("full move after black = %d, want 2", pos.FullMoveNumber)
	}
	pos.UnmakeMove(m)
	if pos.FullMoveNumber != 1 {
		t.Errorf("full move after unmake = %d, want 1", pos.FullMoveNumber)
	}
}

func TestMakeMoveEmptyOriginPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MakeMove from an empty square did not panic")
		}
	}()
	pos := NewPosition()
	pos.MakeMove(Move{From: NewSquare(4, 3), To: NewSquare(4, 4)})
}

func TestCloneIsIndependent(t *testing.T) {
	pos := NewPosition()
	clone := pos.Clone()

	clone.MakeMove(mustMove(t, clone, "e2e4"))
	if pos.Ply() != 0 || !pos.IsEmpty(NewSquare(4, 3)) {
		t.Error("moving on a clone changed the original")
	}
	if err := pos.Validate(); err != nil {
		t.Error(err)
	}
	if err := clone.Validate(); err != nil {
		t.Error(err)
	}
}

func BenchmarkMakeUnmake(b *testing.B) {
	pos := MustParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -")
	moves := pos.GenerateLegalMoves().Slice()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := moves[i%len(moves)]
		pos.MakeMove(m)
		pos.UnmakeMove(m)
	}
}
