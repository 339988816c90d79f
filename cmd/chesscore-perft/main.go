// Command chesscore-perft counts move-generation leaves and runs EPD suites.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/logging"
	"github.com/hailam/chesscore/internal/suite"
)

var (
	fen      = flag.String("fen", board.StartFEN, "position to count")
	depth    = flag.Int("depth", 5, "perft depth")
	divide   = flag.Bool("divide", false, "print node counts per root move")
	epdFile  = flag.String("epd", "", "run the EPD suite in this file instead of perft")
	moveTime = flag.Duration("movetime", time.Second, "search time per EPD entry")
	threads  = flag.Int("threads", runtime.NumCPU(), "root search workers for EPD runs")
	hashMB   = flag.Int("hash", 64, "transposition table size in MB for EPD runs")
	logLevel = flag.String("loglevel", "warn", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	if *epdFile != "" {
		if err := runSuite(*epdFile); err != nil {
			log.Fatal().Err(err).Msg("suite failed")
		}
		return
	}

	pos, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("bad position")
	}
	runPerft(pos, *depth, *divide)
}

func runPerft(pos *board.Position, depth int, divide bool) {
	start := time.Now()
	var nodes uint64
	if divide {
		for _, e := range board.Divide(pos, depth) {
			fmt.Printf("%s: %s\n", e.Move, humanize.Comma(int64(e.Nodes)))
			nodes += e.Nodes
		}
		fmt.Println()
	} else {
		nodes = board.Perft(pos, depth)
	}
	elapsed := time.Since(start)

	fmt.Printf("depth %d: %s nodes in %v", depth, humanize.Comma(int64(nodes)), elapsed.Round(time.Millisecond))
	if elapsed > 0 {
		fmt.Printf(" (%s nps)", humanize.Comma(int64(float64(nodes)/elapsed.Seconds())))
	}
	fmt.Println()
}

func runSuite(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := suite.Load(f)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	opts := engine.DefaultOptions()
	opts.HashMB = *hashMB
	opts.Threads = *threads
	eng := engine.NewEngine(opts)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Info().Int("entries", len(entries)).Dur("movetime", *moveTime).Msg("running suite")
	rep := suite.Run(ctx, eng, entries, *moveTime)
	rep.Write(os.Stdout)
	return nil
}
