package board

// ZobristKeys is the keyed random table used for position hashing.
// It is built once at package init and never written afterwards.
type ZobristKeys struct {
	piece      [2][7][BoardSize]uint64 // [Color][PieceType][Square]
	castling   [4]uint64               // one per right: K, Q, k, q
	enPassant  [8]uint64               // one per file
	sideToMove uint64                  // XOR when black to move
}

// zobristSeed is fixed so hashes are stable across runs; stored analysis
// is keyed by them.
const zobristSeed = 0x98F107A2BEEF1234

var keys = newZobristKeys(zobristSeed)

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func newZobristKeys(seed uint64) *ZobristKeys {
	rng := &prng{state: seed}
	k := &ZobristKeys{}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for i := 0; i < 64; i++ {
				k.piece[c][pt][FromIndex64(i)] = rng.next()
			}
		}
	}
	for i := range k.castling {
		k.castling[i] = rng.next()
	}
	for file := range k.enPassant {
		k.enPassant[file] = rng.next()
	}
	k.sideToMove = rng.next()

	return k
}

// Piece returns the key for a piece on a square.
func (k *ZobristKeys) Piece(p Piece, sq Square) uint64 {
	return k.piece[p.Color()][p.Type()][sq]
}

// Castling returns the XOR of the keys of every right set in cr.
func (k *ZobristKeys) Castling(cr CastlingRights) uint64 {
	var h uint64
	for i := 0; i < 4; i++ {
		if cr&(1<<i) != 0 {
			h ^= k.castling[i]
		}
	}
	return h
}

// EnPassant returns the key for an en passant target, or 0 for NoSquare.
func (k *ZobristKeys) EnPassant(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return k.enPassant[sq.File()]
}

// SideToMove returns the key XORed in when black is to move.
func (k *ZobristKeys) SideToMove() uint64 {
	return k.sideToMove
}
