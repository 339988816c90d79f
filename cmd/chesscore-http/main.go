package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/httpapi"
	"github.com/hailam/chesscore/internal/logging"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	addr     = flag.String("addr", ":8080", "listen address")
	hashMB   = flag.Int("hash", 64, "transposition table size in MB")
	threads  = flag.Int("threads", runtime.NumCPU(), "root search workers")
	storeDir = flag.String("store", "default", `analysis store directory ("default" for the user data dir, empty for in-memory)`)
	moveTime = flag.Duration("movetime", time.Second, "search time when a request gives no limit")
	logLevel = flag.String("loglevel", "info", "log level (debug, info, warn, error)")
)

func main() {
	flag.Parse()
	if err := logging.Setup(os.Stderr, *logLevel); err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	opts := engine.DefaultOptions()
	opts.HashMB = *hashMB
	opts.Threads = *threads
	eng := engine.NewEngine(opts)

	var (
		store *storage.Storage
		err   error
	)
	if *storeDir == "default" {
		store, err = storage.OpenDefault()
	} else {
		store, err = storage.Open(storage.Options{Dir: *storeDir})
	}
	if err != nil {
		log.Fatal().Err(err).Msg("could not open analysis store")
	}
	defer store.Close()

	api := httpapi.NewServer(eng, store)
	api.MoveTime = *moveTime

	srv := &http.Server{
		Addr:              *addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		eng.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", *addr).Int("threads", opts.Threads).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server failed")
	}
}
