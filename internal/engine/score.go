package engine

import (
	"fmt"
	"math"
)

// Internal search scores are integers. Evaluator output in [-1, 1] is
// multiplied by evalScale; forced mates sit near ±mateValue.
const (
	infinity  = 32000
	mateValue = 30000
	evalScale = 10000
	MaxPly    = 128
)

// mateThreshold separates heuristic scores from mate scores.
const mateThreshold = mateValue - MaxPly

// ScoreKind tags what a Score carries.
type ScoreKind uint8

const (
	ScoreValue   ScoreKind = iota // Heuristic evaluation in [-1, 1]
	ScoreMate                     // Forced mate, see Score.MateIn
	ScoreAborted                  // No iteration finished before the search stopped
)

func (k ScoreKind) String() string {
	switch k {
	case ScoreValue:
		return "value"
	case ScoreMate:
		return "mate"
	case ScoreAborted:
		return "aborted"
	}
	return fmt.Sprintf("ScoreKind(%d)", k)
}

// Score is the result of a search from the root side to move's point of view.
type Score struct {
	Kind ScoreKind

	// Value is set for ScoreValue. Positive favours the side to move.
	Value float64

	// MateIn is set for ScoreMate: plies until mate. Positive when the side
	// to move delivers it, negative when it gets mated.
	MateIn int
}

// ValueScore wraps a heuristic evaluation.
func ValueScore(v float64) Score { return Score{Kind: ScoreValue, Value: v} }

// MateScore wraps a forced mate in the given number of plies.
func MateScore(plies int) Score { return Score{Kind: ScoreMate, MateIn: plies} }

// AbortedScore marks a search that produced no completed iteration.
func AbortedScore() Score { return Score{Kind: ScoreAborted} }

// IsMate reports whether the score is a forced mate for either side.
func (s Score) IsMate() bool { return s.Kind == ScoreMate }

// MateMoves converts MateIn to full moves, keeping the sign.
func (s Score) MateMoves() int {
	if s.MateIn > 0 {
		return (s.MateIn + 1) / 2
	}
	return -((-s.MateIn + 1) / 2)
}

// Centipawns maps a value score back to centipawns through the inverse of
// MaterialEvaluator's squash.
func (s Score) Centipawns() int {
	v := math.Max(-0.9999, math.Min(0.9999, s.Value))
	return int(math.Round(math.Atanh(v) * squashScale))
}

// UCI formats the score for an "info score" field.
func (s Score) UCI() string {
	if s.Kind == ScoreMate {
		return fmt.Sprintf("mate %d", s.MateMoves())
	}
	return fmt.Sprintf("cp %d", s.Centipawns())
}

func (s Score) String() string {
	switch s.Kind {
	case ScoreMate:
		if s.MateIn > 0 {
			return fmt.Sprintf("M%d", s.MateMoves())
		}
		return fmt.Sprintf("-M%d", -s.MateMoves())
	case ScoreAborted:
		return "aborted"
	}
	return fmt.Sprintf("%+.4f", s.Value)
}

// scoreFromInternal converts a root-perspective search score.
func scoreFromInternal(v int) Score {
	switch {
	case v >= mateThreshold:
		return MateScore(mateValue - v)
	case v <= -mateThreshold:
		return MateScore(-(mateValue + v))
	}
	return ValueScore(float64(v) / evalScale)
}

// evalToInternal scales an evaluator value into search units.
func evalToInternal(v float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * evalScale))
}

// ScoreToTT converts a mate score from root-relative to node-relative
// distance before storage.
func ScoreToTT(score, ply int) int {
	if score >= mateThreshold {
		return score + ply
	}
	if score <= -mateThreshold {
		return score - ply
	}
	return score
}

// ScoreFromTT undoes ScoreToTT at the probing node's ply.
func ScoreFromTT(score, ply int) int {
	if score >= mateThreshold {
		return score - ply
	}
	if score <= -mateThreshold {
		return score + ply
	}
	return score
}
