package engine

import (
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// rootResult is the outcome of one root move or of a whole root search.
type rootResult struct {
	move  board.Move
	score int
	pv    []board.Move
}

// acquireWorker takes a worker from the pool and points it at pos.
func (e *Engine) acquireWorker(st *searchState, pos *board.Position) *Worker {
	w := e.workers.Get().(*Worker)
	w.reset(st, pos)
	return w
}

func (e *Engine) releaseWorker(w *Worker) {
	w.st, w.pos = nil, nil
	e.workers.Put(w)
}

// searchRoot runs one iteration at the given depth. The first root move is
// searched with the full window to establish alpha. The remaining moves are
// probed with null windows, in parallel on cloned positions when more than
// one thread is configured, and folded back in move order so the outcome
// does not depend on scheduling. ok is false if the iteration was aborted.
func (e *Engine) searchRoot(st *searchState, root *board.Position, depth int, threads int) (best rootResult, ok bool) {
	main := e.acquireWorker(st, root)
	defer e.releaseWorker(main)

	if !st.enterNode() {
		return rootResult{}, false
	}

	list := &main.moves[0]
	root.GenerateLegalMovesInto(list)
	SortMoves(list, main.scoreMoves(list, 0, board.NoMove))
	moves := append([]board.Move(nil), list.Slice()...)

	alpha, beta := -infinity, infinity
	score, line := main.searchRootMove(moves[0], alpha, beta, depth, true)
	if st.stopped() {
		return rootResult{}, false
	}
	best = rootResult{move: moves[0], score: score, pv: line}
	alpha = score

	if threads <= 1 || len(moves) < 3 {
		for _, m := range moves[1:] {
			score, line := main.searchRootMove(m, alpha, beta, depth, false)
			if st.stopped() {
				return rootResult{}, false
			}
			if score > alpha {
				alpha = score
				best = rootResult{move: m, score: score, pv: line}
			}
		}
		return best, true
	}

	windowAlpha := alpha
	results := make([]rootResult, len(moves))

	var g errgroup.Group
	g.SetLimit(threads)
	for i := 1; i < len(moves); i++ {
		g.Go(func() error {
			if st.stopped() {
				return nil
			}
			w := e.acquireWorker(st, root.Clone())
			defer e.releaseWorker(w)

			score, line := w.searchRootMove(moves[i], windowAlpha, beta, depth, false)
			results[i] = rootResult{move: moves[i], score: score, pv: line}
			return nil
		})
	}
	_ = g.Wait()

	if st.stopped() {
		return rootResult{}, false
	}
	for _, r := range results[1:] {
		if r.score > alpha {
			alpha = r.score
			best = r
		}
	}
	return best, true
}
