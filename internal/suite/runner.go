package suite

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Result is the outcome of one entry.
type Result struct {
	ID       string
	Expected []string // SAN of the bm moves, or "!"-prefixed am moves
	Got      string   // SAN of the engine's move
	Passed   bool
	Score    engine.Score
	Depth    int
	Nodes    uint64
	Time     time.Duration
}

// Report summarises a suite run.
type Report struct {
	Results []Result
	Passed  int
	Nodes   uint64
	Time    time.Duration
}

// Total returns the number of entries searched.
func (r Report) Total() int {
	return len(r.Results)
}

// Failed returns the entries the engine got wrong.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// Write prints one line per entry and a summary.
func (r Report) Write(w io.Writer) {
	for _, res := range r.Results {
		mark := "FAIL"
		if res.Passed {
			mark = "ok  "
		}
		fmt.Fprintf(w, "%s %-16s got %-8s want %-16s %-8s depth %2d nodes %s\n",
			mark, res.ID, res.Got, strings.Join(res.Expected, " "), res.Score, res.Depth,
			humanize.Comma(int64(res.Nodes)))
	}
	nps := int64(0)
	if r.Time > 0 {
		nps = int64(float64(r.Nodes) / r.Time.Seconds())
	}
	fmt.Fprintf(w, "\npassed %d/%d, %s nodes in %v (%s nps)\n",
		r.Passed, r.Total(), humanize.Comma(int64(r.Nodes)), r.Time.Round(time.Millisecond), humanize.Comma(nps))
}

// Passes reports whether m satisfies the entry's bm and am operations.
func (e Entry) Passes(m board.Move) bool {
	if slices.Contains(e.Avoid, m) {
		return false
	}
	return len(e.Best) == 0 || slices.Contains(e.Best, m)
}

func (e Entry) expected() []string {
	var out []string
	for _, m := range e.Best {
		out = append(out, m.ToSAN(e.Pos))
	}
	for _, m := range e.Avoid {
		out = append(out, "!"+m.ToSAN(e.Pos))
	}
	return out
}

// Run searches every entry for movetime and checks the chosen move.
// It stops early when ctx is cancelled; the entries searched so far are reported.
func Run(ctx context.Context, eng *engine.Engine, entries []Entry, movetime time.Duration) Report {
	var rep Report
	start := time.Now()

	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		eng.NewGame()
		res := eng.Search(ctx, e.Pos, engine.Limits{MoveTime: movetime})

		r := Result{
			ID:       e.ID,
			Expected: e.expected(),
			Got:      res.Move.ToSAN(e.Pos),
			Passed:   res.Move != board.NoMove && e.Passes(res.Move),
			Score:    res.Score,
			Depth:    res.Depth,
			Nodes:    res.Stats.Nodes,
			Time:     res.Time,
		}
		if r.Passed {
			rep.Passed++
		}
		rep.Nodes += r.Nodes
		rep.Results = append(rep.Results, r)

		log.Debug().
			Str("id", r.ID).
			Str("got", r.Got).
			Strs("want", r.Expected).
			Bool("passed", r.Passed).
			Int("depth", r.Depth).
			Msg("suite entry")
	}

	rep.Time = time.Since(start)
	return rep
}
