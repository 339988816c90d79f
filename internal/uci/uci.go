package uci

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

// UCI implements the Universal Chess Interface protocol.
type UCI struct {
	engine   *engine.Engine
	store    *storage.Storage
	position *board.Position
	tm       *engine.TimeManager

	outMu sync.Mutex
	out   io.Writer

	// Search state
	cancel     context.CancelFunc
	searchDone chan struct{}
}

// New creates a UCI protocol handler writing responses to out.
func New(eng *engine.Engine, out io.Writer) *UCI {
	return &UCI{
		engine:   eng,
		position: board.NewPosition(),
		tm:       engine.NewTimeManager(),
		out:      out,
	}
}

// SetStore makes finished searches persist to s. nil disables saving.
func (u *UCI) SetStore(s *storage.Storage) {
	u.store = s
}

// Position returns the current position.
func (u *UCI) Position() *board.Position {
	return u.position
}

// Run reads commands from in until "quit", end of input or ctx is done.
// A running search is stopped before Run returns.
func (u *UCI) Run(ctx context.Context, in io.Reader) error {
	defer u.handleStop()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case line := <-lines:
			if !u.Handle(ctx, line) {
				return nil
			}
		}
	}
}

// Handle executes a single command line. It returns false on "quit".
func (u *UCI) Handle(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]
	log.Debug().Str("cmd", cmd).Strs("args", args).Msg("uci command")

	switch cmd {
	case "uci":
		u.handleUCI()
	case "isready":
		u.println("readyok")
	case "ucinewgame":
		u.handleNewGame()
	case "position":
		u.handlePosition(args)
	case "go":
		u.handleGo(ctx, args)
	case "stop":
		u.handleStop()
	case "quit":
		return false
	case "setoption":
		u.handleSetOption(args)
	// Debug commands
	case "d":
		u.println(u.position.String() + "Fen: " + u.position.ToFEN())
	case "perft":
		u.handlePerft(args)
	default:
		log.Warn().Str("cmd", cmd).Msg("unknown command")
	}
	return true
}

func (u *UCI) println(s string) {
	u.outMu.Lock()
	defer u.outMu.Unlock()
	fmt.Fprintln(u.out, s)
}

func (u *UCI) printf(format string, args ...any) {
	u.println(fmt.Sprintf(format, args...))
}

// handleUCI responds to the "uci" command.
func (u *UCI) handleUCI() {
	opts := u.engine.Options()
	u.println("id name chesscore")
	u.println("id author chesscore developers")
	u.println("")
	u.printf("option name Hash type spin default %d min 1 max 4096", opts.HashMB)
	u.printf("option name Threads type spin default %d min 1 max 256", opts.Threads)
	u.printf("option name UseTT type check default %t", opts.UseTT)
	u.println("option name Debug type check default false")
	u.println("uciok")
}

// handleNewGame resets the engine for a new game.
func (u *UCI) handleNewGame() {
	u.handleStop()
	u.engine.NewGame()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position.
// Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	movesAt := len(args)
	for i, arg := range args {
		if arg == "moves" {
			movesAt = i
			break
		}
	}

	var pos *board.Position
	switch args[0] {
	case "startpos":
		pos = board.NewPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(args[1:movesAt], " "))
		if err != nil {
			log.Warn().Err(err).Msg("invalid position")
			return
		}
	default:
		return
	}

	if movesAt < len(args) {
		for _, s := range args[movesAt+1:] {
			m, err := board.ParseMove(s, pos)
			if err != nil {
				log.Warn().Err(err).Str("move", s).Msg("invalid move in position command")
				break
			}
			pos.MakeMove(m)
		}
	}
	u.position = pos

	log.Debug().
		Str("fen", pos.ToFEN()).
		Str("hash", fmt.Sprintf("%016x", pos.Hash)).
		Bool("in_check", pos.InCheck()).
		Msg("position set")
}

// parseGoOptions parses "go" command arguments.
func parseGoOptions(args []string) engine.UCILimits {
	var opts engine.UCILimits

	next := func(i *int) int64 {
		if *i+1 >= len(args) {
			return 0
		}
		*i++
		n, _ := strconv.ParseInt(args[*i], 10, 64)
		return n
	}
	ms := func(i *int) time.Duration {
		return time.Duration(next(i)) * time.Millisecond
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			opts.Depth = int(next(&i))
		case "nodes":
			opts.Nodes = uint64(max(next(&i), 0))
		case "movetime":
			opts.MoveTime = ms(&i)
		case "infinite":
			opts.Infinite = true
		case "wtime":
			opts.Time[board.White] = ms(&i)
		case "btime":
			opts.Time[board.Black] = ms(&i)
		case "winc":
			opts.Inc[board.White] = ms(&i)
		case "binc":
			opts.Inc[board.Black] = ms(&i)
		case "movestogo":
			opts.MovesToGo = int(next(&i))
		}
	}

	return opts
}

// handleGo starts a search with the given parameters.
func (u *UCI) handleGo(ctx context.Context, args []string) {
	u.handleStop()

	opts := parseGoOptions(args)
	u.tm.Init(opts, u.position.SideToMove, u.position.Ply())
	limits := u.tm.Limits(opts)
	log.Debug().
		Dur("optimum", u.tm.OptimumTime()).
		Dur("maximum", u.tm.MaximumTime()).
		Int("depth", limits.Depth).
		Msg("time allocated")

	u.engine.OnInfo = u.sendInfo

	searchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.cancel = cancel
	u.searchDone = done

	pos := u.position.Clone()
	go func() {
		defer close(done)
		defer cancel()

		res := u.engine.Search(searchCtx, pos, limits)
		log.Debug().
			Int("depth", res.Depth).
			Uint64("nodes", res.Stats.Nodes).
			Float64("tt_hit_rate", res.Stats.HitRate()).
			Dur("elapsed", res.Time).
			Msg("search finished")
		if opts.Infinite {
			<-searchCtx.Done()
		}
		u.printf("bestmove %s", bestMoveString(res.Move))
		u.save(pos, res)
	}()
}

func bestMoveString(m board.Move) string {
	if m == board.NoMove {
		return "0000"
	}
	return m.String()
}

func (u *UCI) save(pos *board.Position, res engine.Result) {
	if u.store == nil || res.Depth == 0 || res.Score.Kind == engine.ScoreAborted {
		return
	}
	if err := u.store.SaveAnalysis(storage.NewAnalysis(pos, res)); err != nil {
		log.Warn().Err(err).Msg("analysis not saved")
	}
}

// Wait blocks until the running search, if any, has printed its bestmove.
func (u *UCI) Wait() {
	if u.searchDone != nil {
		<-u.searchDone
	}
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.Info) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		"score " + info.Score.UCI(),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %d", info.Time.Milliseconds()),
	}

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if len(info.PV) > 0 {
		pv := make([]string, len(info.PV))
		for i, m := range info.PV {
			pv[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}

	u.println("info " + strings.Join(parts, " "))
}

// handleStop stops the current search and waits for its bestmove.
func (u *UCI) handleStop() {
	if u.cancel == nil {
		return
	}
	u.cancel()
	u.Wait()
	u.cancel = nil
	u.searchDone = nil
}

// parseSetOption splits "name <name> value <value>".
func parseSetOption(args []string) (name, value string) {
	var names, values []string
	target := &names
	for _, arg := range args {
		switch arg {
		case "name":
			target = &names
		case "value":
			target = &values
		default:
			*target = append(*target, arg)
		}
	}
	return strings.Join(names, " "), strings.Join(values, " ")
}

// handleSetOption processes "setoption" commands.
func (u *UCI) handleSetOption(args []string) {
	name, value := parseSetOption(args)

	switch strings.ToLower(name) {
	case "hash":
		mb, err := strconv.Atoi(value)
		if err != nil || mb < 1 {
			log.Warn().Str("value", value).Msg("invalid Hash value")
			return
		}
		u.engine.SetHashSize(mb)
		log.Info().Str("size", humanize.IBytes(u.engine.TT().Bytes())).Msg("hash resized")
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			log.Warn().Str("value", value).Msg("invalid Threads value")
			return
		}
		u.engine.SetThreads(n)
	case "usett":
		u.engine.SetUseTT(strings.EqualFold(value, "true"))
	case "debug":
		if strings.EqualFold(value, "true") {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
			log.Debug().Msg("debug logging enabled")
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		log.Warn().Str("name", name).Msg("unknown option")
	}
}

// handlePerft runs a perft test and prints the node count per root move.
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		if d, err := strconv.Atoi(args[0]); err == nil && d > 0 {
			depth = d
		}
	}

	start := time.Now()
	var nodes uint64
	for _, e := range board.Divide(u.position.Clone(), depth) {
		u.printf("%s: %d", e.Move, e.Nodes)
		nodes += e.Nodes
	}
	elapsed := time.Since(start)

	u.println("")
	u.printf("Nodes: %d", nodes)
	u.printf("Time: %v", elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		u.printf("NPS: %s", humanize.Comma(int64(float64(nodes)/elapsed.Seconds())))
	}
}
