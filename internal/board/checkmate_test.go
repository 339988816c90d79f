package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Back rank mate: black king boxed in by its own pawns.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	t.Log("Checkmate position:")
	t.Log(pos)

	attacks := pos.Attacks(Black)
	if attacks.Checkers != 1 || attacks.Checker != A8 {
		t.Errorf("checkers = %d on %s, want 1 on a8", attacks.Checkers, attacks.Checker)
	}
	if !pos.InCheck() {
		t.Error("InCheck = false, want true")
	}
	if !pos.IsCheckmate() {
		t.Error("Expected checkmate but got false")
	}
	if pos.IsStalemate() {
		t.Error("checkmate reported as stalemate")
	}
}

func TestStalemate(t *testing.T) {
	pos := MustParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")

	if pos.InCheck() {
		t.Fatal("stalemate position reported in check")
	}
	if !pos.IsStalemate() {
		t.Error("Expected stalemate but got false")
	}
	if pos.IsCheckmate() {
		t.Error("stalemate reported as checkmate")
	}
}

func TestDoubleCheckAllowsOnlyKingMoves(t *testing.T) {
	// Rook e8 and knight d3 both give check. The bishop could take the
	// knight and the rook could block the file, but neither resolves both.
	pos := MustParseFEN("4r2k/8/8/8/R7/3n4/8/1B2K3 w - - 0 1")

	attacks := pos.Attacks(White)
	if attacks.Checkers != 2 {
		t.Fatalf("checkers = %d, want 2", attacks.Checkers)
	}

	moves := pos.GenerateLegalMoves()
	want := map[string]bool{"e1d1": true, "e1d2": true, "e1f1": true}
	if moves.Len() != len(want) {
		t.Errorf("got %d moves %v, want %d", moves.Len(), moves.Slice(), len(want))
	}
	for _, m := range moves.Slice() {
		if !want[m.String()] {
			t.Errorf("unexpected move %s in double check", m)
		}
	}
}

func TestSingleCheckRestrictsToLine(t *testing.T) {
	// Queen h4 checks the king on e1 along the diagonal; g3 and f2 block,
	// capturing on h4 resolves.
	pos := MustParseFEN("4k3/8/8/8/7q/8/3P2N1/4K3 w - - 0 1")

	for _, m := range pos.GenerateLegalMoves().Slice() {
		pt := pos.PieceAt(m.From).Type()
		if pt == King {
			continue
		}
		switch m.To.String() {
		case "h4", "g3", "f2":
		default:
			t.Errorf("move %s does not resolve the check", m)
		}
	}

	if _, err := ParseMove("g2h4", pos); err != nil {
		t.Errorf("capture of checker rejected: %v", err)
	}
	if _, err := ParseMove("d2d3", pos); err == nil {
		t.Error("pawn push ignoring check accepted")
	}
}

func TestPinnedPieceMovesAlongLine(t *testing.T) {
	// The bishop on d2 is pinned by the queen on a5; it may only slide
	// towards (and capture) the queen.
	pos := MustParseFEN("4k3/8/8/q7/8/8/3B4/4K3 w - - 0 1")

	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.From.String() != "d2" {
			continue
		}
		switch m.To.String() {
		case "c3", "b4", "a5":
		default:
			t.Errorf("pinned bishop escaped its line with %s", m)
		}
	}
}

func TestEnPassantDiagonalDiscoveredCheck(t *testing.T) {
	// Removing the d4 pawn would open the g1-b6 diagonal onto the black king.
	pos := MustParseFEN("8/8/1k6/8/3Pp3/8/8/4K1B1 b - d3 0 1")

	moves := pos.GenerateLegalMoves()
	for _, m := range moves.Slice() {
		if m.String() == "e4d3" {
			t.Error("en passant exposing the king on a diagonal was generated")
		}
	}
	if !moves.Contains(Move{From: NewSquare(4, 3), To: NewSquare(4, 2)}) {
		t.Error("pawn push e4e3 missing")
	}
	// Seven king moves (c5 is covered by the d4 pawn) plus e4e3.
	if moves.Len() != 8 {
		t.Errorf("got %d moves %v, want 8", moves.Len(), moves.Slice())
	}
}

func TestEnPassantResolvesPawnCheck(t *testing.T) {
	// d7-d5 gave check to the king on e4; exd6 is legal because it removes
	// the checker even though d6 is off the check line.
	pos := MustParseFEN("8/8/8/3pP3/4K3/8/8/7k w - d6 0 1")

	if _, err := ParseMove("e5d6", pos); err != nil {
		t.Errorf("en passant capture of checking pawn rejected: %v", err)
	}
}

func TestCastlingRules(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		ok   bool
	}{
		{"kingside", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", true},
		{"queenside", "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", true},
		{"no right", "r3k2r/8/8/8/8/8/8/R3K2R w Qkq - 0 1", "e1g1", false},
		{"transit attacked", "r3k2r/8/8/8/8/8/5r2/R3K2R w KQkq - 0 1", "e1g1", false},
		{"destination attacked", "r3k2r/8/8/8/8/8/6r1/R3K2R w KQkq - 0 1", "e1g1", false},
		{"b-file attacked only", "r3k2r/8/8/8/8/8/1r6/R3K2R w KQkq - 0 1", "e1c1", true},
		{"b-file occupied", "r3k2r/8/8/8/8/8/8/RN2K2R w KQkq - 0 1", "e1c1", false},
		{"in check", "r3k2r/8/8/8/8/8/4r3/R3K2R w KQkq - 0 1", "e1g1", false},
		{"black kingside", "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8g8", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			_, err := ParseMove(tc.move, pos)
			if (err == nil) != tc.ok {
				t.Errorf("ParseMove(%s) error = %v, want legal=%v", tc.move, err, tc.ok)
			}
		})
	}
}

func TestPromotionGeneratesFourPieces(t *testing.T) {
	pos := MustParseFEN("8/P6k/8/8/8/8/8/K7 w - - 0 1")

	promos := map[PieceType]bool{}
	for _, m := range pos.GenerateLegalMoves().Slice() {
		if m.IsPromotion() {
			promos[m.Promotion] = true
		}
	}
	for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
		if !promos[pt] {
			t.Errorf("missing promotion to %s", pt)
		}
	}
}

func TestDrawDetection(t *testing.T) {
	if !MustParseFEN("8/8/8/4k3/8/8/8/4K1N1 w - - 0 1").IsInsufficientMaterial() {
		t.Error("K+N vs K should be insufficient material")
	}
	if MustParseFEN("8/8/8/4k3/8/8/4P3/4K3 w - - 0 1").IsInsufficientMaterial() {
		t.Error("K+P vs K is not insufficient material")
	}
	if !MustParseFEN("8/8/8/4k3/8/8/8/4K3 w - - 100 80").IsFiftyMoveDraw() {
		t.Error("half-move clock 100 should be a fifty-move draw")
	}

	pos := NewPosition()
	for _, s := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatal(err)
		}
		pos.MakeMove(m)
	}
	if !pos.IsRepetition() || !pos.IsDraw() {
		t.Error("knight shuffle back to the start should repeat")
	}
	if NewPosition().IsDraw() {
		t.Error("starting position reported as a draw")
	}

	// The fifty-move flag does not see mate; callers check mate first.
	mated := MustParseFEN("R5k1/5ppp/8/8/8/8/8/4K3 b - - 100 80")
	if !mated.IsCheckmate() || !mated.IsFiftyMoveDraw() {
		t.Error("mate on the hundredth ply should be both checkmate and past the clock")
	}
}
