package engine

import (
	"testing"

	"github.com/hailam/chesscore/internal/board"
)

func orderedMoves(t *testing.T, mo *MoveOrderer, pos *board.Position, ply int, pv, tt board.Move) []board.Move {
	t.Helper()
	moves := pos.GenerateLegalMoves()
	scores := mo.ScoreMoves(pos, moves, ply, pv, tt, nil)
	SortMoves(moves, scores)
	return moves.Slice()
}

func TestOrderingPriorities(t *testing.T) {
	// White can take the queen with the pawn or the rook, or the knight with the rook.
	pos := board.MustParseFEN("4k3/8/8/2q1n3/1P6/8/8/2R1RK2 w - - 0 1")
	mo := NewMoveOrderer()

	quiet, _ := board.ParseMove("f1e2", pos)
	pvMove, _ := board.ParseMove("f1g2", pos)
	ttMove, _ := board.ParseMove("c1b1", pos)
	mo.UpdateKillers(quiet, 2)

	moves := orderedMoves(t, mo, pos, 2, pvMove, ttMove)
	want := []string{"f1g2", "c1b1", "b4c5", "c1c5", "e1e5", "f1e2"}
	for i, w := range want {
		if moves[i].String() != w {
			t.Fatalf("order = %v, want prefix %v", moves[:len(want)], want)
		}
	}
}

func TestHistoryOrdersQuietMoves(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()
	m, _ := board.ParseMove("b1c3", pos)

	mo.UpdateHistory(board.White, m, 3)
	mo.UpdateHistory(board.White, m, 2)
	if got := mo.History(board.White, m); got != 13 {
		t.Errorf("history = %d, want 9+4", got)
	}
	if mo.History(board.Black, m) != 0 {
		t.Error("history leaked to the other side")
	}

	moves := orderedMoves(t, mo, pos, 0, board.NoMove, board.NoMove)
	if moves[0] != m {
		t.Errorf("first move %s, want %s", moves[0], m)
	}

	mo.Clear()
	if got := mo.History(board.White, m); got != 6 {
		t.Errorf("history after Clear = %d, want halved to 6", got)
	}
	mo.Reset()
	if mo.History(board.White, m) != 0 {
		t.Error("Reset kept history")
	}
}

func TestKillersShift(t *testing.T) {
	pos := board.NewPosition()
	mo := NewMoveOrderer()
	a, _ := board.ParseMove("g1f3", pos)
	b, _ := board.ParseMove("b1c3", pos)

	mo.UpdateKillers(a, 4)
	mo.UpdateKillers(a, 4)
	mo.UpdateKillers(b, 4)
	if k := mo.Killers(4); k[0] != b || k[1] != a {
		t.Errorf("killers = %v, want [%s %s]", k, b, a)
	}
	if k := mo.Killers(5); k[0] != board.NoMove {
		t.Error("killer stored at the wrong ply")
	}
	mo.UpdateKillers(a, MaxPly)
}
