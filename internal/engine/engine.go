package engine

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// Options configures an Engine.
type Options struct {
	HashMB    int       // Transposition table size
	Threads   int       // Root workers; 1 searches sequentially
	UseTT     bool      // Consult and fill the transposition table
	MaxDepth  int       // Iterative deepening ceiling
	Evaluator Evaluator // Static evaluation, MaterialEvaluator if nil
	Logger    *zerolog.Logger
}

// DefaultOptions returns the options used by the command line tools.
func DefaultOptions() Options {
	return Options{
		HashMB:    64,
		Threads:   runtime.NumCPU(),
		UseTT:     true,
		MaxDepth:  64,
		Evaluator: MaterialEvaluator{},
	}
}

// Limits specifies constraints on a single search. Zero values mean no limit.
type Limits struct {
	Depth    int           // Maximum depth
	Nodes    uint64        // Maximum nodes
	MoveTime time.Duration // Hard deadline, checked at every node
	Optimum  time.Duration // No new iteration starts after this much time
	Infinite bool          // Search until stopped or MaxDepth
}

// Difficulty represents preset playing strengths.
type Difficulty int

const (
	Easy   Difficulty = iota // ~2-3 ply, 500ms
	Medium                   // ~4-5 ply, 2s
	Hard                     // ~6+ ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]Limits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 5, MoveTime: 2 * time.Second},
	Hard:   {Depth: 7, MoveTime: 5 * time.Second},
}

// ParseDifficulty maps "easy", "medium" or "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(s) {
	case "easy":
		return Easy, true
	case "medium", "":
		return Medium, true
	case "hard":
		return Hard, true
	}
	return Medium, false
}

// Info is reported after every completed iteration.
type Info struct {
	Depth    int
	Score    Score
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// Result is the outcome of a search. Score.Kind is ScoreAborted when no
// iteration completed; Move is then the first legal move.
type Result struct {
	Move  board.Move
	PV    []board.Move
	Score Score
	Depth int
	Stats StatsSnapshot
	Time  time.Duration
}

// Engine runs iterative deepening searches. One search runs at a time;
// concurrent callers wait for the running search to finish.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	tt      *TranspositionTable
	orderer *MoveOrderer
	stop    atomic.Bool
	workers sync.Pool
	logger  zerolog.Logger

	// Callbacks
	OnInfo func(Info)
}

// NewEngine creates an engine. Zero option fields fall back to DefaultOptions.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.HashMB <= 0 {
		opts.HashMB = def.HashMB
	}
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.MaxDepth <= 0 || opts.MaxDepth >= MaxPly {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.Evaluator == nil {
		opts.Evaluator = def.Evaluator
	}

	e := &Engine{
		opts:    opts,
		orderer: NewMoveOrderer(),
		logger:  log.Logger,
	}
	if opts.Logger != nil {
		e.logger = *opts.Logger
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	e.workers.New = func() any { return &Worker{} }
	e.tt = NewTranspositionTable(opts.HashMB)
	e.logger.Debug().
		Int("hash_mb", opts.HashMB).
		Uint64("tt_entries", e.tt.Size()).
		Int("threads", opts.Threads).
		Msg("engine initialized")
	return e
}

// Options returns the current configuration.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

// SetHashSize reallocates the transposition table. Its contents are lost.
func (e *Engine) SetHashSize(mb int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mb < 1 {
		mb = 1
	}
	e.opts.HashMB = mb
	e.tt = NewTranspositionTable(mb)
}

// SetThreads sets the number of root workers.
func (e *Engine) SetThreads(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.opts.Threads = n
}

// SetUseTT enables or disables the transposition table.
func (e *Engine) SetUseTT(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.UseTT = on
}

// TT returns the engine's transposition table.
func (e *Engine) TT() *TranspositionTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tt
}

// Search finds the best move for pos within limits. pos is not modified.
// Cancelling ctx or calling Stop aborts the running iteration; the result
// of the last completed iteration is returned.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.stop.Store(ctx.Err() != nil)
	stopWatch := context.AfterFunc(ctx, func() { e.stop.Store(true) })
	defer stopWatch()

	stats := &Stats{}
	st := &searchState{
		orderer:   e.orderer,
		eval:      e.opts.Evaluator,
		stats:     stats,
		stop:      &e.stop,
		nodeLimit: limits.Nodes,
	}
	if e.opts.UseTT {
		st.tt = e.tt
	}
	if limits.MoveTime > 0 && !limits.Infinite {
		st.deadline = start.Add(limits.MoveTime)
	}
	e.orderer.Clear()

	root := pos.Clone()
	result := Result{Score: AbortedScore()}

	legal := root.GenerateLegalMoves()
	if legal.Len() == 0 {
		if root.InCheck() {
			result.Score = MateScore(0)
		} else {
			result.Score = ValueScore(0)
		}
		return e.finish(result, start, stats)
	}
	result.Move = legal.Get(0)

	maxDepth := e.opts.MaxDepth
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	for depth := 1; depth <= maxDepth; depth++ {
		rr, ok := e.searchRoot(st, root, depth, e.opts.Threads)
		if !ok {
			e.logger.Debug().Int("depth", depth).Msg("iteration aborted")
			break
		}

		result.Move = rr.move
		result.PV = rr.pv
		result.Score = scoreFromInternal(rr.score)
		result.Depth = depth
		st.prevPV = rr.pv

		elapsed := time.Since(start)
		nodes := stats.Nodes.Load()
		e.logger.Debug().
			Int("depth", depth).
			Str("score", result.Score.String()).
			Uint64("nodes", nodes).
			Dur("elapsed", elapsed).
			Str("pv", formatPV(rr.pv)).
			Msg("iteration complete")

		if e.OnInfo != nil {
			hashFull := 0
			if st.tt != nil {
				hashFull = st.tt.HashFull()
			}
			e.OnInfo(Info{
				Depth:    depth,
				Score:    result.Score,
				Nodes:    nodes,
				Time:     elapsed,
				PV:       rr.pv,
				HashFull: hashFull,
			})
		}

		if limits.Infinite {
			continue
		}
		// Early termination: found mate
		if result.Score.IsMate() {
			break
		}

		if limits.Optimum > 0 && elapsed >= limits.Optimum {
			break
		}
		// If we've used more than half the time, don't start another iteration
		if !st.deadline.IsZero() && limits.MoveTime-elapsed < elapsed {
			break
		}
	}

	return e.finish(result, start, stats)
}

func (e *Engine) finish(result Result, start time.Time, stats *Stats) Result {
	result.Stats = stats.Snapshot()
	result.Time = time.Since(start)
	return result
}

// SearchDifficulty searches with a difficulty preset.
func (e *Engine) SearchDifficulty(ctx context.Context, pos *board.Position, d Difficulty) Result {
	return e.Search(ctx, pos, DifficultySettings[d])
}

// Stop aborts the running search, if any.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// NewGame clears the transposition table and move ordering tables.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.orderer.Reset()
}

// Perft counts leaf nodes of the legal move tree (for debugging move generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return board.Perft(pos.Clone(), depth)
}

// Evaluate returns the static evaluation of a position from White's view.
func (e *Engine) Evaluate(pos *board.Position) float64 {
	return e.opts.Evaluator.Evaluate(pos)
}

func formatPV(pv []board.Move) string {
	parts := make([]string, len(pv))
	for i, m := range pv {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}
