package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// ErrNotFound is returned when no analysis is stored for a position.
var ErrNotFound = errors.New("analysis not found")

// Storage keys
const (
	analysisPrefix = "analysis:"
	keyStats       = "stats"
)

func analysisKey(hash uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", analysisPrefix, hash))
}

// Analysis is a finished search result for one position.
type Analysis struct {
	Hash      uint64    `json:"hash"`
	FEN       string    `json:"fen"`
	Depth     int       `json:"depth"`
	BestMove  string    `json:"best_move"`
	PV        []string  `json:"pv"`
	ScoreKind string    `json:"score_kind"`
	Score     float64   `json:"score"`
	MateIn    int       `json:"mate_in,omitempty"`
	Nodes     uint64    `json:"nodes"`
	SavedAt   time.Time `json:"saved_at"`
}

// NewAnalysis captures a search result for pos.
func NewAnalysis(pos *board.Position, res engine.Result) Analysis {
	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.String()
	}
	return Analysis{
		Hash:      pos.Hash,
		FEN:       pos.ToFEN(),
		Depth:     res.Depth,
		BestMove:  res.Move.String(),
		PV:        pv,
		ScoreKind: res.Score.Kind.String(),
		Score:     res.Score.Value,
		MateIn:    res.Score.MateIn,
		Nodes:     res.Stats.Nodes,
	}
}

// EngineScore rebuilds the tagged score.
func (a Analysis) EngineScore() engine.Score {
	switch a.ScoreKind {
	case engine.ScoreMate.String():
		return engine.MateScore(a.MateIn)
	case engine.ScoreAborted.String():
		return engine.AbortedScore()
	}
	return engine.ValueScore(a.Score)
}

// samePosition compares the placement, side, castling and en passant fields.
func samePosition(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 4 || len(fb) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if fa[i] != fb[i] {
			return false
		}
	}
	return true
}

// GameOutcome is the result of a finished game.
type GameOutcome int

const (
	WhiteWins GameOutcome = iota
	BlackWins
	Draw
)

// GameStats stores results of games played through the server.
type GameStats struct {
	GamesPlayed int           `json:"games_played"`
	WhiteWins   int           `json:"white_wins"`
	BlackWins   int           `json:"black_wins"`
	Draws       int           `json:"draws"`
	TotalPlies  int           `json:"total_plies"`
	TotalTime   time.Duration `json:"total_time"`
}

// GameResult describes a completed game.
type GameResult struct {
	Outcome  GameOutcome
	Plies    int
	Duration time.Duration
}

// AveragePlies returns the mean game length.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

// Options configures Open.
type Options struct {
	// Dir is the badger directory. Empty keeps everything in memory.
	Dir string
	// CacheEntries bounds the hot cache in front of badger.
	CacheEntries int64
}

// Storage wraps BadgerDB for persistent storage, with a ristretto cache
// in front of analysis reads.
type Storage struct {
	db    *badger.DB
	cache *ristretto.Cache[uint64, Analysis]

	statsMu sync.Mutex
}

// Open opens or creates the store.
func Open(opts Options) (*Storage, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Dir, err)
	}

	entries := opts.CacheEntries
	if entries <= 0 {
		entries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, Analysis]{
		NumCounters:        entries * 10,
		MaxCost:            entries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create analysis cache: %w", err)
	}

	log.Info().Str("dir", opts.Dir).Bool("in_memory", opts.Dir == "").Msg("storage opened")
	return &Storage{db: db, cache: cache}, nil
}

// OpenDefault opens the store in the platform data directory.
func OpenDefault() (*Storage, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(Options{Dir: dir})
}

// Close closes the database
func (s *Storage) Close() error {
	s.cache.Close()
	if s.db != nil {
		log.Info().Msg("storage closed")
		return s.db.Close()
	}
	return nil
}

// SaveAnalysis stores a. An existing entry for the same position searched
// to a greater depth is kept.
func (s *Storage) SaveAnalysis(a Analysis) error {
	if a.SavedAt.IsZero() {
		a.SavedAt = time.Now()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	key := analysisKey(a.Hash)
	kept := false
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			var old Analysis
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) }); err != nil {
				return err
			}
			if samePosition(old.FEN, a.FEN) && old.Depth > a.Depth {
				kept = true
				return nil
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		log.Warn().Err(err).Str("fen", a.FEN).Msg("saving analysis failed")
		return fmt.Errorf("save analysis: %w", err)
	}
	if !kept {
		s.cache.Set(a.Hash, a, 1)
		s.cache.Wait()
	}
	return nil
}

// LoadAnalysis returns the analysis stored under hash. fen guards against
// hash collisions: a stored position that differs yields ErrNotFound.
func (s *Storage) LoadAnalysis(hash uint64, fen string) (Analysis, error) {
	if a, ok := s.cache.Get(hash); ok {
		if samePosition(a.FEN, fen) {
			return a, nil
		}
		return Analysis{}, ErrNotFound
	}

	var a Analysis
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(analysisKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	if err != nil {
		return Analysis{}, err
	}

	s.cache.Set(hash, a, 1)
	if !samePosition(a.FEN, fen) {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// Lookup loads the analysis for pos.
func (s *Storage) Lookup(pos *board.Position) (Analysis, error) {
	return s.LoadAnalysis(pos.Hash, pos.ToFEN())
}

// DeleteAnalysis removes the analysis stored under hash.
func (s *Storage) DeleteAnalysis(hash uint64) error {
	s.cache.Del(hash)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(analysisKey(hash))
	})
}

// Count returns the number of stored analyses.
func (s *Storage) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(analysisPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// SaveStats saves game statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyStats), data)
	})
}

// LoadStats loads game statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyStats))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil // Use empty stats
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, stats)
		})
	})

	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlies += result.Plies
	stats.TotalTime += result.Duration

	switch result.Outcome {
	case WhiteWins:
		stats.WhiteWins++
	case BlackWins:
		stats.BlackWins++
	default:
		stats.Draws++
	}

	return s.SaveStats(stats)
}
