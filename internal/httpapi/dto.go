package httpapi

import (
	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

// MovesResponse lists the legal moves of a position.
type MovesResponse struct {
	FEN       string   `json:"fen"`
	Moves     []string `json:"moves"`
	SAN       []string `json:"san"`
	Check     bool     `json:"check"`
	Checkmate bool     `json:"checkmate"`
	Stalemate bool     `json:"stalemate"`
}

// MoveRequest applies one move to a position.
type MoveRequest struct {
	FEN  string `json:"fen"`
	Move string `json:"move"`
}

// MoveResponse is the position after a move.
type MoveResponse struct {
	FEN string `json:"fen"`
	SAN string `json:"san"`
}

// SearchRequest asks the engine to analyse a position.
type SearchRequest struct {
	FEN        string `json:"fen"`
	MoveTimeMs int64  `json:"movetime_ms"`
	Depth      int    `json:"depth"`
	Difficulty string `json:"difficulty,omitempty"`
}

// SearchResponse is the engine's analysis.
type SearchResponse struct {
	BestMove  string   `json:"bestmove"`
	SAN       string   `json:"san,omitempty"`
	PV        []string `json:"pv"`
	Score     string   `json:"score"`
	ScoreKind string   `json:"score_kind"`
	Value     float64  `json:"value"`
	MateIn    int      `json:"mate_in,omitempty"`
	Depth     int      `json:"depth"`
	Nodes     uint64   `json:"nodes"`
	TimeMs    int64    `json:"time_ms"`
	Cached    bool     `json:"cached"`
}

// NewGameRequest starts a game, optionally from a FEN.
type NewGameRequest struct {
	FEN string `json:"fen"`
}

// PlayRequest is a move sent to a game.
type PlayRequest struct {
	Move string `json:"move"`
}

// EngineMoveRequest asks the engine to move in a game.
type EngineMoveRequest struct {
	MoveTimeMs int64  `json:"movetime_ms"`
	Depth      int    `json:"depth"`
	Difficulty string `json:"difficulty,omitempty"`
}

// EngineMoveResponse is the game after the engine moved.
type EngineMoveResponse struct {
	Game   GameView       `json:"game"`
	Search SearchResponse `json:"search"`
}

// ErrorResponse carries a handler error.
type ErrorResponse struct {
	Error string `json:"error"`
}

func movesResponse(pos *board.Position) MovesResponse {
	legal := pos.GenerateLegalMoves().Slice()
	uci := make([]string, len(legal))
	san := make([]string, len(legal))
	for i, m := range legal {
		uci[i] = m.String()
		san[i] = m.ToSAN(pos)
	}
	check := pos.InCheck()
	return MovesResponse{
		FEN:       pos.ToFEN(),
		Moves:     uci,
		SAN:       san,
		Check:     check,
		Checkmate: check && len(legal) == 0,
		Stalemate: !check && len(legal) == 0,
	}
}

func searchResponse(pos *board.Position, res engine.Result) SearchResponse {
	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.String()
	}
	resp := SearchResponse{
		PV:        pv,
		Score:     res.Score.String(),
		ScoreKind: res.Score.Kind.String(),
		Value:     res.Score.Value,
		MateIn:    res.Score.MateIn,
		Depth:     res.Depth,
		Nodes:     res.Stats.Nodes,
		TimeMs:    res.Time.Milliseconds(),
	}
	if res.Move != board.NoMove {
		resp.BestMove = res.Move.String()
		resp.SAN = res.Move.ToSAN(pos)
	}
	return resp
}

func cachedResponse(pos *board.Position, a storage.Analysis) SearchResponse {
	score := a.EngineScore()
	resp := SearchResponse{
		BestMove:  a.BestMove,
		PV:        a.PV,
		Score:     score.String(),
		ScoreKind: a.ScoreKind,
		Value:     a.Score,
		MateIn:    a.MateIn,
		Depth:     a.Depth,
		Nodes:     a.Nodes,
		Cached:    true,
	}
	if m, err := board.ParseMove(a.BestMove, pos); err == nil {
		resp.SAN = m.ToSAN(pos)
	}
	return resp
}
