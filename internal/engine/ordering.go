package engine

import (
	"sync"

	"github.com/hailam/chesscore/internal/board"
)

// Move ordering priorities
const (
	PVMoveScore    = 10000000 // Move from the previous iteration's PV
	TTMoveScore    = 9000000  // Best move stored in the transposition table
	CaptureBase    = 1000000  // MVV-LVA captures
	PromotionBase  = 950000   // Quiet promotions
	KillerScore1   = 900000   // First killer move
	KillerScore2   = 800000   // Second killer move
	historyCeiling = 700000   // History never outranks a killer
)

// MVV-LVA (Most Valuable Victim - Least Valuable Attacker) scores.
// Rows are victims, columns attackers, both indexed by PieceType.
var mvvLva = [7][7]int{
	//             P   N   B   R   Q   K  (attacker)
	board.Pawn:   {0, 15, 14, 14, 13, 12, 11},
	board.Knight: {0, 25, 24, 24, 23, 22, 21},
	board.Bishop: {0, 35, 34, 34, 33, 32, 31},
	board.Rook:   {0, 45, 44, 44, 43, 42, 41},
	board.Queen:  {0, 55, 54, 54, 53, 52, 51},
}

// MoveOrderer keeps the killer and history tables. One orderer is shared by
// every worker of a search, so all access goes through mu.
type MoveOrderer struct {
	mu sync.Mutex

	// Quiet moves that caused a cutoff, two per ply
	killers [MaxPly][2]board.Move

	// History heuristic indexed by [color][from][to] on 0..63 squares
	history [2][64][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear resets killers and halves history, for the start of a new search.
func (mo *MoveOrderer) Clear() {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	for i := range mo.killers {
		mo.killers[i] = [2]board.Move{}
	}
	for c := range mo.history {
		for from := range mo.history[c] {
			for to := range mo.history[c][from] {
				mo.history[c][from][to] /= 2
			}
		}
	}
}

// Reset wipes all tables, for a new game.
func (mo *MoveOrderer) Reset() {
	mo.mu.Lock()
	mo.killers = [MaxPly][2]board.Move{}
	mo.history = [2][64][64]int{}
	mo.mu.Unlock()
}

// ScoreMoves assigns an ordering score to each move: PV move, TT move,
// captures by MVV-LVA, promotions, killers, then quiet moves by history.
// scores is reused when large enough.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, moves *board.MoveList, ply int, pvMove, ttMove board.Move, scores []int) []int {
	n := moves.Len()
	if cap(scores) < n {
		scores = make([]int, n)
	}
	scores = scores[:n]

	us := pos.SideToMove
	mo.mu.Lock()
	k1, k2 := board.NoMove, board.NoMove
	if ply < MaxPly {
		k1, k2 = mo.killers[ply][0], mo.killers[ply][1]
	}
	for i := 0; i < n; i++ {
		m := moves.Get(i)
		switch {
		case m == pvMove:
			scores[i] = PVMoveScore
		case m == ttMove:
			scores[i] = TTMoveScore
		case m.IsCapture():
			attacker := pos.PieceAt(m.From).Type()
			scores[i] = CaptureBase + mvvLva[m.Captured.Type()][attacker]*1000 + int(m.Promotion)*100
		case m.IsPromotion():
			scores[i] = PromotionBase + int(m.Promotion)*100
		case m == k1:
			scores[i] = KillerScore1
		case m == k2:
			scores[i] = KillerScore2
		default:
			scores[i] = mo.history[us][m.From.Index64()][m.To.Index64()]
		}
	}
	mo.mu.Unlock()

	return scores
}

// SortMoves sorts moves by their scores (descending).
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		PickMove(moves, scores, i)
	}
}

// PickMove selects the best remaining move and moves it to position index.
// This allows lazy move sorting (only sort as much as needed).
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet cutoff move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}

	mo.mu.Lock()
	defer mo.mu.Unlock()
	if mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet cutoff move by depth squared.
func (mo *MoveOrderer) UpdateHistory(us board.Color, m board.Move, depth int) {
	mo.mu.Lock()
	defer mo.mu.Unlock()

	h := &mo.history[us][m.From.Index64()][m.To.Index64()]
	*h += depth * depth
	if *h >= historyCeiling {
		// Keep relative order while staying below the killer band.
		for from := range mo.history[us] {
			for to := range mo.history[us][from] {
				mo.history[us][from][to] /= 2
			}
		}
	}
}

// Killers returns the killer moves stored for ply.
func (mo *MoveOrderer) Killers(ply int) [2]board.Move {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return mo.killers[ply]
}

// History returns the history score of a move for the given side.
func (mo *MoveOrderer) History(us board.Color, m board.Move) int {
	mo.mu.Lock()
	defer mo.mu.Unlock()
	return mo.history[us][m.From.Index64()][m.To.Index64()]
}
