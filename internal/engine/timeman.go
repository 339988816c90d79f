package engine

import (
	"time"

	"github.com/hailam/chesscore/internal/board"
)

// UCILimits contains UCI time control parameters.
type UCILimits struct {
	Time      [2]time.Duration // wtime, btime (remaining time for each color)
	Inc       [2]time.Duration // winc, binc (increment per move)
	MovesToGo int              // moves until next time control (0 = sudden death)
	MoveTime  time.Duration    // fixed time per move (overrides other time controls)
	Depth     int              // maximum search depth
	Nodes     uint64           // maximum nodes to search
	Infinite  bool             // search until stopped
}

// TimeManager handles time allocation for searches.
type TimeManager struct {
	optimumTime time.Duration // Target time for this move
	maximumTime time.Duration // Maximum time allowed
}

// NewTimeManager creates a new time manager.
func NewTimeManager() *TimeManager {
	return &TimeManager{}
}

// Init computes the time budget for a move. ply is the game ply.
// Both budgets stay zero when the clock imposes no limit.
func (tm *TimeManager) Init(limits UCILimits, us board.Color, ply int) {
	tm.optimumTime, tm.maximumTime = 0, 0

	// Fixed move time mode
	if limits.MoveTime > 0 {
		tm.maximumTime = limits.MoveTime
		return
	}
	if limits.Infinite || limits.Time[us] == 0 {
		return
	}

	timeLeft := limits.Time[us]
	inc := limits.Inc[us]

	mtg := limits.MovesToGo
	if mtg == 0 {
		// Sudden death: fewer moves expected as the game goes on
		mtg = min(max(50-ply/4, 10), 50)
	}

	baseTime := timeLeft/time.Duration(mtg) + inc*9/10
	tm.optimumTime = baseTime
	if ply < 8 {
		tm.optimumTime = baseTime * 85 / 100
	}

	// Maximum time: 5x optimum or 80% of remaining, whichever is smaller
	tm.maximumTime = min(tm.optimumTime*5, timeLeft*8/10)

	if tm.optimumTime < 10*time.Millisecond {
		tm.optimumTime = 10 * time.Millisecond
	}
	if tm.maximumTime < 50*time.Millisecond {
		tm.maximumTime = 50 * time.Millisecond
	}
	if tm.optimumTime > tm.maximumTime {
		tm.optimumTime = tm.maximumTime
	}
}

// OptimumTime returns the target time for this move.
func (tm *TimeManager) OptimumTime() time.Duration {
	return tm.optimumTime
}

// MaximumTime returns the maximum time allowed.
func (tm *TimeManager) MaximumTime() time.Duration {
	return tm.maximumTime
}

// Limits converts the clock and the computed budget into search limits.
func (tm *TimeManager) Limits(limits UCILimits) Limits {
	return Limits{
		Depth:    limits.Depth,
		Nodes:    limits.Nodes,
		MoveTime: tm.maximumTime,
		Optimum:  tm.optimumTime,
		Infinite: limits.Infinite,
	}
}
