// Package httpapi exposes move generation, analysis and game sessions
// as a JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

const (
	defaultMoveTime = time.Second
	maxMoveTime     = 30 * time.Second
	maxBodyBytes    = 1 << 16
)

// Server serves the API. The store is optional.
type Server struct {
	engine *engine.Engine
	store  *storage.Storage
	games  *Manager
	mux    *http.ServeMux

	// MoveTime is used when a request names neither a depth nor a time.
	MoveTime time.Duration
}

// NewServer builds the API around eng. store may be nil.
func NewServer(eng *engine.Engine, store *storage.Storage) *Server {
	s := &Server{
		engine:   eng,
		store:    store,
		games:    NewManager(),
		mux:      http.NewServeMux(),
		MoveTime: defaultMoveTime,
	}
	s.games.OnFinish = s.recordGame

	s.mux.HandleFunc("GET /api/moves", s.handleMoves)
	s.mux.HandleFunc("POST /api/move", s.handleMove)
	s.mux.HandleFunc("POST /api/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/games", s.handleNewGame)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("DELETE /api/games/{id}", s.handleDeleteGame)
	s.mux.HandleFunc("POST /api/games/{id}/moves", s.handlePlay)
	s.mux.HandleFunc("POST /api/games/{id}/engine", s.handleEngineMove)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	return s
}

// Games returns the session manager.
func (s *Server) Games() *Manager {
	return s.games
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("elapsed", time.Since(start)).
		Msg("request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writeJSON failed")
	}
}

// writeError maps err onto an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrPositionChanged):
		status = http.StatusConflict
	case errors.Is(err, board.ErrInvalidFEN), errors.Is(err, board.ErrIllegalMove), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Warn().Err(err).Msg("handler failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

var errBadRequest = errors.New("bad request")

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// decodeOptional is decode for endpoints where every field has a default.
// An empty body, chunked or not, decodes to the zero request.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if err := decode(w, r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parsePosition(fen string) (*board.Position, error) {
	if fen == "" || fen == "startpos" {
		return board.NewPosition(), nil
	}
	return board.ParseFEN(fen)
}

// limits turns request fields into search limits.
func (s *Server) limits(moveTimeMs int64, depth int, difficulty string) (engine.Limits, error) {
	if difficulty != "" {
		d, ok := engine.ParseDifficulty(difficulty)
		if !ok {
			return engine.Limits{}, errors.Join(errBadRequest, errors.New("unknown difficulty "+difficulty))
		}
		return engine.DifficultySettings[d], nil
	}

	l := engine.Limits{Depth: max(depth, 0)}
	if moveTimeMs > 0 {
		l.MoveTime = min(time.Duration(moveTimeMs)*time.Millisecond, maxMoveTime)
	} else if depth <= 0 {
		l.MoveTime = s.MoveTime
	} else {
		l.MoveTime = maxMoveTime
	}
	return l, nil
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r.URL.Query().Get("fen"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movesResponse(pos))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, err := parsePosition(req.FEN)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := board.ParseMove(req.Move, pos)
	if err != nil {
		writeError(w, errors.Join(errBadRequest, err))
		return
	}
	san := m.ToSAN(pos)
	pos.MakeMove(m)
	writeJSON(w, http.StatusOK, MoveResponse{FEN: pos.ToFEN(), SAN: san})
}

// analyse returns a stored analysis when one is deep enough, and searches
// otherwise.
func (s *Server) analyse(r *http.Request, pos *board.Position, limits engine.Limits) SearchResponse {
	if s.store != nil {
		if a, err := s.store.Lookup(pos); err == nil && limits.Depth > 0 && a.Depth >= limits.Depth {
			return cachedResponse(pos, a)
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Warn().Err(err).Msg("analysis lookup failed")
		}
	}

	res := s.engine.Search(r.Context(), pos, limits)
	if s.store != nil && res.Depth > 0 && res.Score.Kind != engine.ScoreAborted {
		if err := s.store.SaveAnalysis(storage.NewAnalysis(pos, res)); err != nil {
			log.Warn().Err(err).Msg("analysis not saved")
		}
	}
	return searchResponse(pos, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	pos, err := parsePosition(req.FEN)
	if err != nil {
		writeError(w, err)
		return
	}
	limits, err := s.limits(req.MoveTimeMs, req.Depth, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := s.analyse(r, pos, limits)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := s.games.NewGame(req.FEN)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Info().Str("game", v.ID).Str("fen", v.FEN).Msg("game created")
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.games.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.games.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	v, err := s.games.Play(r.PathValue("id"), req.Move)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleEngineMove(w http.ResponseWriter, r *http.Request) {
	var req EngineMoveRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	current, err := s.games.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if current.Finished() {
		writeError(w, ErrGameOver)
		return
	}
	limits, err := s.limits(req.MoveTimeMs, req.Depth, req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	pos, err := s.games.Position(id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := s.analyse(r, pos, limits)
	if resp.BestMove == "" {
		writeError(w, ErrGameOver)
		return
	}
	v, err := s.games.PlayAt(id, pos.Hash, resp.BestMove)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EngineMoveResponse{Game: v, Search: resp})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, storage.GameStats{})
		return
	}
	stats, err := s.store.LoadStats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// recordGame adds a finished game to the stored statistics.
func (s *Server) recordGame(v GameView, plies int, duration time.Duration) {
	log.Info().Str("game", v.ID).Str("status", v.Status).Str("result", v.Result).Int("plies", plies).Msg("game finished")
	if s.store == nil {
		return
	}
	outcome := storage.Draw
	switch v.Result {
	case "1-0":
		outcome = storage.WhiteWins
	case "0-1":
		outcome = storage.BlackWins
	}
	err := s.store.RecordGame(storage.GameResult{Outcome: outcome, Plies: plies, Duration: duration})
	if err != nil {
		log.Warn().Err(err).Str("game", v.ID).Msg("game not recorded")
	}
}
