package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Storage) {
	t.Helper()
	store, err := storage.Open(storage.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	eng := engine.NewEngine(engine.Options{HashMB: 1, Threads: 2, UseTT: true})
	return NewServer(eng, store), store
}

func do(t *testing.T, h http.Handler, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestMovesEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	var resp MovesResponse
	if code := do(t, s, "GET", "/api/moves", nil, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(resp.Moves) != 20 || len(resp.SAN) != 20 || resp.Check {
		t.Errorf("start position: %+v", resp)
	}

	// Fool's mate final position
	fen := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	resp = MovesResponse{}
	do(t, s, "GET", "/api/moves?fen="+url.QueryEscape(fen), nil, &resp)
	if !resp.Checkmate || len(resp.Moves) != 0 {
		t.Errorf("mated position: %+v", resp)
	}

	if code := do(t, s, "GET", "/api/moves?fen=bad", nil, nil); code != http.StatusBadRequest {
		t.Errorf("bad FEN status %d", code)
	}
}

func TestMoveEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	var resp MoveResponse
	code := do(t, s, "POST", "/api/move", MoveRequest{Move: "g1f3"}, &resp)
	if code != http.StatusOK || resp.SAN != "Nf3" {
		t.Fatalf("status %d resp %+v", code, resp)
	}
	if resp.FEN != "rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b KQkq - 1 1" {
		t.Errorf("fen %s", resp.FEN)
	}

	if code := do(t, s, "POST", "/api/move", MoveRequest{Move: "e2e5"}, nil); code != http.StatusBadRequest {
		t.Errorf("illegal move status %d", code)
	}
}

func TestSearchEndpointUsesStore(t *testing.T) {
	s, store := newTestServer(t)
	fen := "6k1/5ppp/8/8/8/8/8/R3K3 w - - 0 1"

	var first SearchResponse
	code := do(t, s, "POST", "/api/search", SearchRequest{FEN: fen, Depth: 3}, &first)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if first.BestMove != "a1a8" || first.SAN != "Ra8#" || first.ScoreKind != "mate" || first.Cached {
		t.Errorf("first search %+v", first)
	}

	if n, _ := store.Count(); n != 1 {
		t.Errorf("store holds %d analyses, want 1", n)
	}

	var second SearchResponse
	do(t, s, "POST", "/api/search", SearchRequest{FEN: fen, Depth: 1}, &second)
	if !second.Cached || second.BestMove != "a1a8" {
		t.Errorf("second search not served from store: %+v", second)
	}
}

func TestSearchEndpointErrors(t *testing.T) {
	s, _ := newTestServer(t)
	if code := do(t, s, "POST", "/api/search", SearchRequest{Difficulty: "impossible"}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown difficulty status %d", code)
	}

	req := httptest.NewRequest("POST", "/api/search", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status %d", rec.Code)
	}
}

func TestGameFlow(t *testing.T) {
	s, store := newTestServer(t)

	var g GameView
	if code := do(t, s, "POST", "/api/games", nil, &g); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}

	for _, mv := range []string{"f2f3", "e7e5", "g2g4"} {
		if code := do(t, s, "POST", "/api/games/"+g.ID+"/moves", PlayRequest{Move: mv}, &g); code != http.StatusOK {
			t.Fatalf("move %s status %d", mv, code)
		}
	}

	// The engine must find the mate.
	var em EngineMoveResponse
	code := do(t, s, "POST", "/api/games/"+g.ID+"/engine", EngineMoveRequest{Depth: 2}, &em)
	if code != http.StatusOK {
		t.Fatalf("engine move status %d", code)
	}
	if em.Search.BestMove != "d8h4" || em.Game.Status != StatusCheckmate || em.Game.Result != "0-1" {
		t.Errorf("engine move %+v", em)
	}

	var fetched GameView
	do(t, s, "GET", "/api/games/"+g.ID, nil, &fetched)
	if len(fetched.Moves) != 4 || !fetched.Finished() {
		t.Errorf("fetched game %+v", fetched)
	}

	if code := do(t, s, "POST", "/api/games/"+g.ID+"/moves", PlayRequest{Move: "e1f2"}, nil); code != http.StatusConflict {
		t.Errorf("move after mate status %d", code)
	}

	stats, err := store.LoadStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 1 || stats.BlackWins != 1 || stats.TotalPlies != 4 {
		t.Errorf("stats %+v", stats)
	}

	var served storage.GameStats
	do(t, s, "GET", "/api/stats", nil, &served)
	if served.GamesPlayed != 1 {
		t.Errorf("served stats %+v", served)
	}

	if code := do(t, s, "DELETE", "/api/games/"+g.ID, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status %d", code)
	}
	if code := do(t, s, "GET", "/api/games/"+g.ID, nil, nil); code != http.StatusNotFound {
		t.Errorf("deleted game status %d", code)
	}
}

func TestGameFromFEN(t *testing.T) {
	s, _ := newTestServer(t)

	var g GameView
	fen := "8/8/8/4k3/8/8/8/4K2R w K - 0 1"
	if code := do(t, s, "POST", "/api/games", NewGameRequest{FEN: fen}, &g); code != http.StatusCreated {
		t.Fatalf("create status %d", code)
	}
	if g.FEN != fen || g.StartFEN != fen {
		t.Errorf("game %+v", g)
	}

	if code := do(t, s, "POST", "/api/games/"+g.ID+"/moves", PlayRequest{Move: "e1e3"}, nil); code != http.StatusBadRequest {
		t.Errorf("illegal move status %d", code)
	}
	if code := do(t, s, "POST", "/api/games/nope/engine", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown game status %d", code)
	}
	if code := do(t, s, "POST", "/api/games", NewGameRequest{FEN: "x"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad FEN status %d", code)
	}
}

func TestEmptyChunkedBody(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/games", http.NoBody)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create with empty chunked body: status %d %s", rec.Code, rec.Body.String())
	}
	var g GameView
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest("POST", "/api/games/"+g.ID+"/engine", http.NoBody)
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("engine move with empty chunked body: status %d %s", rec.Code, rec.Body.String())
	}

	// A truncated body is still rejected.
	req = httptest.NewRequest("POST", "/api/games", bytes.NewBufferString(`{"fen":`))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("truncated body: status %d", rec.Code)
	}
}

func TestServerWithoutStore(t *testing.T) {
	eng := engine.NewEngine(engine.Options{HashMB: 1, Threads: 1, UseTT: true})
	s := NewServer(eng, nil)

	var resp SearchResponse
	code := do(t, s, "POST", "/api/search", SearchRequest{FEN: board.StartFEN, Depth: 2}, &resp)
	if code != http.StatusOK || resp.BestMove == "" || resp.Cached {
		t.Errorf("status %d resp %+v", code, resp)
	}

	var stats storage.GameStats
	if code := do(t, s, "GET", "/api/stats", nil, &stats); code != http.StatusOK || stats.GamesPlayed != 0 {
		t.Errorf("stats without store: %d %+v", code, stats)
	}
}
