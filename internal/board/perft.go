package board

import "sort"

// Perft counts the leaf nodes of the legal move tree at the given depth.
func Perft(p *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var ml MoveList
	p.GenerateLegalMovesInto(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}

	var nodes uint64
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		nodes += Perft(p, depth-1)
		p.UnmakeMove(m)
	}
	return nodes
}

// DivideEntry is the node count below one root move.
type DivideEntry struct {
	Move  Move
	Nodes uint64
}

// Divide runs perft below each root move separately, sorted by UCI string,
// which is the usual way to localise a move generation bug.
func Divide(p *Position, depth int) []DivideEntry {
	if depth < 1 {
		return nil
	}

	moves := p.GenerateLegalMoves()
	entries := make([]DivideEntry, 0, moves.Len())
	for _, m := range moves.Slice() {
		p.MakeMove(m)
		entries = append(entries, DivideEntry{Move: m, Nodes: Perft(p, depth-1)})
		p.UnmakeMove(m)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Move.String() < entries[j].Move.String()
	})
	return entries
}
