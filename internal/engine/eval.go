// Package engine implements the chess search engine.
package engine

import (
	"math"

	"github.com/hailam/chesscore/internal/board"
)

// Evaluator scores a position from White's point of view. Results lie in
// [-1, 1]: +1 is a won position for White, -1 for Black. Implementations
// must be safe for concurrent use.
type Evaluator interface {
	Evaluate(pos *board.Position) float64
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(pos *board.Position) float64

func (f EvaluatorFunc) Evaluate(pos *board.Position) float64 { return f(pos) }

// squashScale is the centipawn advantage at which tanh reaches ~0.76.
const squashScale = 1000.0

// Pawn structure and piece bonuses in centipawns
const (
	bishopPairMgBonus     = 25
	bishopPairEgBonus     = 50
	doubledPawnMgPenalty  = -15
	doubledPawnEgPenalty  = -20
	isolatedPawnMgPenalty = -20
	isolatedPawnEgPenalty = -25
	rookOpenFileMg        = 20
	rookOpenFileEg        = 25
	rookSemiOpenFileMg    = 10
	rookSemiOpenFileEg    = 15
)

// Piece-square tables, laid out as seen from White with rank 8 on top.
// Black uses the same tables flipped vertically.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// psts is indexed by piece type; the king uses the tapered pair instead.
var psts = [7]*[64]int{
	board.Pawn:   &pawnPST,
	board.Knight: &knightPST,
	board.Bishop: &bishopPST,
	board.Rook:   &rookPST,
	board.Queen:  &queenPST,
}

// Phase weight per piece type for tapered evaluation.
var phaseWeight = [7]int{board.Knight: 1, board.Bishop: 1, board.Rook: 2, board.Queen: 4}

const maxPhase = 24

// pstIndex maps a square into the tables above for the given color.
func pstIndex(sq board.Square, c board.Color) int {
	if c == board.White {
		return sq.Mirror().Index64()
	}
	return sq.Index64()
}

// MaterialEvaluator is the default evaluator: material, piece-square
// tables tapered by game phase, bishop pair, pawn structure and rook files,
// squashed through tanh.
type MaterialEvaluator struct{}

// Evaluate implements Evaluator.
func (MaterialEvaluator) Evaluate(pos *board.Position) float64 {
	return math.Tanh(float64(EvaluateCentipawns(pos)) / squashScale)
}

// EvaluateCentipawns returns the unsquashed evaluation in centipawns from
// White's perspective.
func EvaluateCentipawns(pos *board.Position) int {
	var mgScore, egScore, phase int
	var pawnFiles [2][8]int

	for c := board.White; c <= board.Black; c++ {
		for _, sq := range pos.Pieces(c, board.Pawn) {
			pawnFiles[c][sq.File()]++
		}
	}

	for c := board.White; c <= board.Black; c++ {
		sign := c.Sign()
		them := c.Other()

		for pt := board.Pawn; pt <= board.King; pt++ {
			for _, sq := range pos.Pieces(c, pt) {
				idx := pstIndex(sq, c)
				if pt == board.King {
					mgScore += sign * kingMidgamePST[idx]
					egScore += sign * kingEndgamePST[idx]
					continue
				}

				v := board.PieceValue[pt] + psts[pt][idx]
				mgScore += sign * v
				egScore += sign * v
				phase += phaseWeight[pt]

				if pt == board.Rook {
					f := sq.File()
					switch {
					case pawnFiles[c][f] == 0 && pawnFiles[them][f] == 0:
						mgScore += sign * rookOpenFileMg
						egScore += sign * rookOpenFileEg
					case pawnFiles[c][f] == 0:
						mgScore += sign * rookSemiOpenFileMg
						egScore += sign * rookSemiOpenFileEg
					}
				}
			}
		}

		if pos.Count(c, board.Bishop) >= 2 {
			mgScore += sign * bishopPairMgBonus
			egScore += sign * bishopPairEgBonus
		}

		for f := 0; f < 8; f++ {
			n := pawnFiles[c][f]
			if n == 0 {
				continue
			}
			if n > 1 {
				mgScore += sign * doubledPawnMgPenalty * (n - 1)
				egScore += sign * doubledPawnEgPenalty * (n - 1)
			}
			left := f > 0 && pawnFiles[c][f-1] > 0
			right := f < 7 && pawnFiles[c][f+1] > 0
			if !left && !right {
				mgScore += sign * isolatedPawnMgPenalty * n
				egScore += sign * isolatedPawnEgPenalty * n
			}
		}
	}

	if phase > maxPhase {
		phase = maxPhase
	}
	return (mgScore*phase + egScore*(maxPhase-phase)) / maxPhase
}

// IsEndgame reports whether little non-pawn material remains.
func IsEndgame(pos *board.Position) bool {
	phase := 0
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Knight; pt <= board.Queen; pt++ {
			phase += phaseWeight[pt] * pos.Count(c, pt)
		}
	}
	return phase <= 6
}
