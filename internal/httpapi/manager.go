package httpapi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hailam/chesscore/internal/board"
)

// ErrGameNotFound is returned for an unknown game id.
var ErrGameNotFound = errors.New("game not found")

// ErrGameOver is returned when a move is sent to a finished game.
var ErrGameOver = errors.New("game is over")

// ErrPositionChanged is returned when a game moved on while an engine
// move was being computed for it.
var ErrPositionChanged = errors.New("position changed")

// Game status values.
const (
	StatusOngoing      = "ongoing"
	StatusCheckmate    = "checkmate"
	StatusStalemate    = "stalemate"
	StatusFiftyMoves   = "fifty_moves"
	StatusRepetition   = "repetition"
	StatusDeadPosition = "insufficient_material"
)

// Game is one session held by the Manager.
type Game struct {
	ID        string
	StartFEN  string
	CreatedAt time.Time
	UpdatedAt time.Time

	pos    *board.Position
	moves  []board.Move
	hashes []uint64
	status string
}

// GameView is a copy of a game's state that is safe to use without locks.
type GameView struct {
	ID         string    `json:"id"`
	FEN        string    `json:"fen"`
	StartFEN   string    `json:"start_fen"`
	Moves      []string  `json:"moves"`
	SideToMove string    `json:"side_to_move"`
	Status     string    `json:"status"`
	Result     string    `json:"result"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Finished reports whether the game has ended.
func (v GameView) Finished() bool {
	return v.Status != StatusOngoing
}

func (g *Game) view() GameView {
	moves := make([]string, len(g.moves))
	for i, m := range g.moves {
		moves[i] = m.String()
	}
	return GameView{
		ID:         g.ID,
		FEN:        g.pos.ToFEN(),
		StartFEN:   g.StartFEN,
		Moves:      moves,
		SideToMove: g.pos.SideToMove.String(),
		Status:     g.status,
		Result:     resultString(g.status, g.pos.SideToMove),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
}

// resultString gives the PGN result for a status; toMove is the side that
// would move next.
func resultString(status string, toMove board.Color) string {
	switch status {
	case StatusOngoing:
		return "*"
	case StatusCheckmate:
		if toMove == board.White {
			return "0-1"
		}
		return "1-0"
	}
	return "1/2-1/2"
}

// repetitions counts earlier occurrences of the current position.
func (g *Game) repetitions() int {
	n := 0
	cur := g.hashes[len(g.hashes)-1]
	for _, h := range g.hashes[:len(g.hashes)-1] {
		if h == cur {
			n++
		}
	}
	return n
}

func (g *Game) updateStatus() {
	switch {
	case !g.pos.HasLegalMoves():
		if g.pos.InCheck() {
			g.status = StatusCheckmate
		} else {
			g.status = StatusStalemate
		}
	case g.pos.IsFiftyMoveDraw():
		g.status = StatusFiftyMoves
	case g.repetitions() >= 2:
		g.status = StatusRepetition
	case g.pos.IsInsufficientMaterial():
		g.status = StatusDeadPosition
	default:
		g.status = StatusOngoing
	}
}

// Manager holds game sessions in memory.
type Manager struct {
	mu    sync.RWMutex
	games map[string]*Game

	// OnFinish, when set, is called once for each game that ends.
	OnFinish func(v GameView, plies int, duration time.Duration)
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{games: make(map[string]*Game)}
}

// NewGame starts a game from fen, or from the initial position if fen is empty.
func (m *Manager) NewGame(fen string) (GameView, error) {
	if fen == "" {
		fen = board.StartFEN
	}
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return GameView{}, err
	}

	now := time.Now()
	g := &Game{
		ID:        uuid.NewString(),
		StartFEN:  pos.ToFEN(),
		CreatedAt: now,
		UpdatedAt: now,
		pos:       pos,
		hashes:    []uint64{pos.Hash},
	}
	g.updateStatus()

	m.mu.Lock()
	m.games[g.ID] = g
	m.mu.Unlock()
	return g.view(), nil
}

// Get returns the current state of a game.
func (m *Manager) Get(id string) (GameView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return GameView{}, ErrGameNotFound
	}
	return g.view(), nil
}

// Position returns a copy of the game's current position.
func (m *Manager) Position(id string) (*board.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g.pos.Clone(), nil
}

// Play applies a move given in UCI notation.
func (m *Manager) Play(id, move string) (GameView, error) {
	return m.play(id, move, 0)
}

// PlayAt applies move only if the game is still at the position with the
// given hash.
func (m *Manager) PlayAt(id string, hash uint64, move string) (GameView, error) {
	return m.play(id, move, hash)
}

func (m *Manager) play(id, move string, wantHash uint64) (GameView, error) {
	m.mu.Lock()
	g, ok := m.games[id]
	if !ok {
		m.mu.Unlock()
		return GameView{}, ErrGameNotFound
	}
	if g.status != StatusOngoing {
		m.mu.Unlock()
		return GameView{}, ErrGameOver
	}
	if wantHash != 0 && g.pos.Hash != wantHash {
		m.mu.Unlock()
		return GameView{}, ErrPositionChanged
	}

	mv, err := board.ParseMove(move, g.pos)
	if err != nil {
		m.mu.Unlock()
		return GameView{}, fmt.Errorf("play %q: %w", move, err)
	}
	g.pos.MakeMove(mv)
	g.moves = append(g.moves, mv)
	g.hashes = append(g.hashes, g.pos.Hash)
	g.UpdatedAt = time.Now()
	g.updateStatus()

	v := g.view()
	plies, duration := len(g.moves), g.UpdatedAt.Sub(g.CreatedAt)
	m.mu.Unlock()

	if v.Finished() && m.OnFinish != nil {
		m.OnFinish(v, plies, duration)
	}
	return v, nil
}

// Delete removes a game.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrGameNotFound
	}
	delete(m.games, id)
	return nil
}

// Len returns the number of games held.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
