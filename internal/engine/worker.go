package engine

import (
	"github.com/hailam/chesscore/internal/board"
)

// Worker runs the alpha-beta search on its own position. Workers of one
// search share the transposition table, move orderer, stats and stop flag
// through searchState; everything else is private.
//
// Scores are always from the root side to move's point of view.
// alphaBetaMax searches nodes where that side moves, alphaBetaMin the
// others.
type Worker struct {
	st  *searchState
	pos *board.Position
	pv  PVTable

	// Per-ply scratch space
	moves  [MaxPly + 1]board.MoveList
	scores [MaxPly + 1][]int
}

// newWorker creates a worker that searches pos in place.
func newWorker(st *searchState, pos *board.Position) *Worker {
	w := &Worker{}
	w.reset(st, pos)
	return w
}

func (w *Worker) reset(st *searchState, pos *board.Position) {
	w.st = st
	w.pos = pos
	w.pv.reset(0)
}

// stopped returns true if search should stop.
func (w *Worker) stopped() bool {
	return w.st.stopped()
}

// evaluate returns the static evaluation from the side to move's view.
func (w *Worker) evaluate() int {
	return evalToInternal(w.st.eval.Evaluate(w.pos)) * w.pos.SideToMove.Sign()
}

// isDraw checks for draw by repetition, the 50-move rule or bare kings.
// Callers rule out checkmate first: a mate on the hundredth ply still wins.
func (w *Worker) isDraw() bool {
	return w.pos.IsDraw()
}

// probeTT looks up the current position. The returned value and bound are
// converted to root perspective; maximizing tells which side moves here.
func (w *Worker) probeTT(depth, ply int, maximizing bool) (move board.Move, value int, bound Bound, usable bool) {
	if w.st.tt == nil {
		return board.NoMove, 0, BoundNone, false
	}
	w.st.stats.TTProbes.Add(1)
	e, ok := w.st.tt.Probe(w.pos.Hash)
	if !ok {
		return board.NoMove, 0, BoundNone, false
	}
	w.st.stats.TTHits.Add(1)

	value, bound = ScoreFromTT(int(e.Value), ply), e.Bound
	if !maximizing {
		value, bound = -value, bound.flip()
	}
	return e.Move, value, bound, e.Usable(depth)
}

// storeTT saves a root-perspective result as a side-to-move value.
func (w *Worker) storeTT(depth, ply, value int, bound Bound, maximizing bool, move board.Move) {
	if w.st.tt == nil || w.stopped() {
		return
	}
	if !maximizing {
		value, bound = -value, bound.flip()
	}
	w.st.tt.Store(w.pos.Hash, depth, ScoreToTT(value, ply), bound, move)
}

// scoreMoves fills the ordering scores for the moves generated at ply.
func (w *Worker) scoreMoves(moves *board.MoveList, ply int, ttMove board.Move) []int {
	w.scores[ply] = w.st.orderer.ScoreMoves(w.pos, moves, ply, w.st.pvMove(ply), ttMove, w.scores[ply])
	return w.scores[ply]
}

// alphaBetaMax searches a node where the root side moves. It fails hard:
// interior results are clamped to [alpha, beta].
func (w *Worker) alphaBetaMax(alpha, beta, depth, ply int) int {
	w.pv.reset(ply)
	if !w.st.enterNode() {
		return 0
	}
	pos := w.pos

	moves := &w.moves[ply]
	pos.GenerateLegalMovesInto(moves)
	if moves.Len() == 0 {
		if pos.InCheck() {
			return -mateValue + ply
		}
		return 0
	}
	if ply > 0 && w.isDraw() {
		return 0
	}
	if depth <= 0 || ply >= MaxPly {
		return w.evaluate()
	}

	ttMove := board.NoMove
	if ply > 0 {
		move, value, bound, usable := w.probeTT(depth, ply, true)
		ttMove = move
		if usable {
			switch bound {
			case BoundExact:
				w.st.stats.TTCutoffs.Add(1)
				return clampScore(value, alpha, beta)
			case BoundLower:
				if value >= beta {
					w.st.stats.TTCutoffs.Add(1)
					return beta
				}
				alpha = max(alpha, value)
			case BoundUpper:
				if value <= alpha {
					w.st.stats.TTCutoffs.Add(1)
					return alpha
				}
				beta = min(beta, value)
			}
			if alpha >= beta {
				return alpha
			}
		}
	}

	scores := w.scoreMoves(moves, ply, ttMove)
	us := pos.SideToMove
	best := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		pos.MakeMove(m)
		var score int
		if i == 0 {
			score = w.alphaBetaMin(alpha, beta, depth-1, ply+1)
		} else {
			score = w.alphaBetaMin(alpha, alpha+1, depth-1, ply+1)
			if score > alpha && score < beta && !w.stopped() {
				w.st.stats.Researches.Add(1)
				score = w.alphaBetaMin(alpha, beta, depth-1, ply+1)
			}
		}
		pos.UnmakeMove(m)

		if w.stopped() {
			return 0
		}

		if score >= beta {
			w.st.stats.BetaCutoffs.Add(1)
			if m.IsQuiet() {
				w.st.orderer.UpdateKillers(m, ply)
				w.st.orderer.UpdateHistory(us, m, depth)
			}
			w.storeTT(depth, ply, beta, BoundLower, true, m)
			return beta
		}
		if score > alpha {
			alpha = score
			best = m
			w.pv.update(ply, m)
		}
	}

	if best == board.NoMove {
		w.storeTT(depth, ply, alpha, BoundUpper, true, board.NoMove)
	} else {
		w.storeTT(depth, ply, alpha, BoundExact, true, best)
	}
	return alpha
}

// alphaBetaMin searches a node where the opponent of the root side moves.
// It mirrors alphaBetaMax: beta is lowered and a score at or below alpha
// cuts off.
func (w *Worker) alphaBetaMin(alpha, beta, depth, ply int) int {
	w.pv.reset(ply)
	if !w.st.enterNode() {
		return 0
	}
	pos := w.pos

	moves := &w.moves[ply]
	pos.GenerateLegalMovesInto(moves)
	if moves.Len() == 0 {
		if pos.InCheck() {
			return mateValue - ply
		}
		return 0
	}
	if ply > 0 && w.isDraw() {
		return 0
	}
	if depth <= 0 || ply >= MaxPly {
		return -w.evaluate()
	}

	ttMove := board.NoMove
	if ply > 0 {
		move, value, bound, usable := w.probeTT(depth, ply, false)
		ttMove = move
		if usable {
			switch bound {
			case BoundExact:
				w.st.stats.TTCutoffs.Add(1)
				return clampScore(value, alpha, beta)
			case BoundUpper:
				if value <= alpha {
					w.st.stats.TTCutoffs.Add(1)
					return alpha
				}
				beta = min(beta, value)
			case BoundLower:
				if value >= beta {
					w.st.stats.TTCutoffs.Add(1)
					return beta
				}
				alpha = max(alpha, value)
			}
			if alpha >= beta {
				return beta
			}
		}
	}

	scores := w.scoreMoves(moves, ply, ttMove)
	us := pos.SideToMove
	best := board.NoMove

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		m := moves.Get(i)

		pos.MakeMove(m)
		var score int
		if i == 0 {
			score = w.alphaBetaMax(alpha, beta, depth-1, ply+1)
		} else {
			score = w.alphaBetaMax(beta-1, beta, depth-1, ply+1)
			if score > alpha && score < beta && !w.stopped() {
				w.st.stats.Researches.Add(1)
				score = w.alphaBetaMax(alpha, beta, depth-1, ply+1)
			}
		}
		pos.UnmakeMove(m)

		if w.stopped() {
			return 0
		}

		if score <= alpha {
			w.st.stats.AlphaCuts.Add(1)
			if m.IsQuiet() {
				w.st.orderer.UpdateKillers(m, ply)
				w.st.orderer.UpdateHistory(us, m, depth)
			}
			w.storeTT(depth, ply, alpha, BoundUpper, false, m)
			return alpha
		}
		if score < beta {
			beta = score
			best = m
			w.pv.update(ply, m)
		}
	}

	if best == board.NoMove {
		w.storeTT(depth, ply, beta, BoundLower, false, board.NoMove)
	} else {
		w.storeTT(depth, ply, beta, BoundExact, false, best)
	}
	return beta
}

// searchRootMove plays m at the root and searches the reply with a null
// window, re-searching with the full window when the probe lands inside it.
// It returns the score and the line starting with m.
func (w *Worker) searchRootMove(m board.Move, alpha, beta, depth int, fullWindow bool) (int, []board.Move) {
	w.pos.MakeMove(m)
	var score int
	if fullWindow {
		score = w.alphaBetaMin(alpha, beta, depth-1, 1)
	} else {
		score = w.alphaBetaMin(alpha, alpha+1, depth-1, 1)
		if score > alpha && score < beta && !w.stopped() {
			w.st.stats.Researches.Add(1)
			score = w.alphaBetaMin(alpha, beta, depth-1, 1)
		}
	}
	w.pos.UnmakeMove(m)

	return score, append([]board.Move{m}, w.pv.line(1)...)
}

func clampScore(v, alpha, beta int) int {
	if v <= alpha {
		return alpha
	}
	if v >= beta {
		return beta
	}
	return v
}
