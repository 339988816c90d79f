package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// PVTable stores the principal variation. Row ply holds the best line
// found from that ply onwards.
type PVTable struct {
	length [MaxPly + 1]int
	moves  [MaxPly + 1][MaxPly + 1]board.Move
}

// reset marks the line at ply as empty.
func (pv *PVTable) reset(ply int) {
	pv.length[ply] = ply
}

// update makes m followed by the child's line the best line at ply.
func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	child := ply + 1
	n := pv.length[child]
	if n < child {
		n = child
	}
	copy(pv.moves[ply][child:], pv.moves[child][child:n])
	pv.length[ply] = n
}

// line returns a copy of the best line from ply.
func (pv *PVTable) line(ply int) []board.Move {
	n := pv.length[ply]
	if n <= ply {
		return nil
	}
	out := make([]board.Move, n-ply)
	copy(out, pv.moves[ply][ply:n])
	return out
}

// searchState is shared by every worker of one search.
type searchState struct {
	tt      *TranspositionTable // nil when the table is disabled
	orderer *MoveOrderer
	eval    Evaluator
	stats   *Stats
	stop    *atomic.Bool

	deadline  time.Time // zero means no time limit
	nodeLimit uint64    // zero means no node limit

	// Best line of the previous iteration, used for ordering.
	prevPV []board.Move
}

// stopped returns true if search should stop.
func (st *searchState) stopped() bool {
	return st.stop.Load()
}

// enterNode counts a node and checks every limit. It returns false once the
// search has to stop.
func (st *searchState) enterNode() bool {
	if st.stop.Load() {
		return false
	}
	n := st.stats.Nodes.Add(1)
	if st.nodeLimit > 0 && n >= st.nodeLimit {
		st.stop.Store(true)
		return false
	}
	if !st.deadline.IsZero() && time.Now().After(st.deadline) {
		st.stop.Store(true)
		return false
	}
	return true
}

// pvMove returns the previous iteration's PV move at ply, if any.
func (st *searchState) pvMove(ply int) board.Move {
	if ply < len(st.prevPV) {
		return st.prevPV[ply]
	}
	return board.NoMove
}
