package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/logging"
	"github.com/hailam/chesscore/internal/storage"
	"github.com/hailam/chesscore/internal/uci"
)

var (
	hashMB     = flag.Int("hash", 64, "transposition table size in MB")
	threads    = flag.Int("threads", runtime.NumCPU(), "root search workers")
	storeDir   = flag.String("store", "", `analysis store directory ("default" for the user data dir, empty to disable)`)
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel   = flag.String("loglevel", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	opts := engine.DefaultOptions()
	opts.HashMB = *hashMB
	opts.Threads = *threads
	eng := engine.NewEngine(opts)
	log.Info().
		Str("hash", humanize.IBytes(eng.TT().Bytes())).
		Int("threads", opts.Threads).
		Msg("engine ready")

	protocol := uci.New(eng, os.Stdout)

	if *storeDir != "" {
		store, err := openStore(*storeDir)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open analysis store")
		}
		defer store.Close()
		protocol.SetStore(store)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := protocol.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("uci loop failed")
	}
}

func openStore(dir string) (*storage.Storage, error) {
	if dir == "default" {
		return storage.OpenDefault()
	}
	return storage.Open(storage.Options{Dir: dir})
}
