package board

// AttackMap describes the squares the opponent of a color attacks,
// computed with that color's king lifted off the board so slider rays run
// through the king's square.
type AttackMap struct {
	// Count holds the number of enemy pieces attacking each square.
	Count [BoardSize]uint8

	// Checkers is the number of enemy pieces attacking the king.
	Checkers int

	// Checker is the attacking square when Checkers == 1.
	Checker Square
}

// Attacked returns true if any enemy piece attacks sq.
func (m *AttackMap) Attacked(sq Square) bool {
	return m.Count[sq] != 0
}

// Attacks computes the attack map against the king of color c.
func (p *Position) Attacks(c Color) AttackMap {
	var m AttackMap
	m.Checker = NoSquare

	ksq := p.KingSquare(c)
	if ksq != NoSquare {
		p.board[ksq] = Empty
		defer func() { p.board[ksq] = NewPiece(King, c) }()
	}

	them := c.Other()
	emit := func(from, to Square) {
		m.Count[to]++
		if to == ksq {
			m.Checkers++
			m.Checker = from
		}
	}

	for _, from := range p.Pieces(them, Pawn) {
		for _, to := range pawnCaptureTargets(from, them) {
			if p.board[to] != Outside {
				emit(from, to)
			}
		}
	}
	for _, from := range p.Pieces(them, Knight) {
		p.leapAttacks(from, knightJumps[:], emit)
	}
	for _, from := range p.Pieces(them, King) {
		p.leapAttacks(from, kingDirs[:], emit)
	}
	for _, from := range p.Pieces(them, Bishop) {
		p.rayAttacks(from, diagonalDirs[:], emit)
	}
	for _, from := range p.Pieces(them, Rook) {
		p.rayAttacks(from, lateralDirs[:], emit)
	}
	for _, from := range p.Pieces(them, Queen) {
		p.rayAttacks(from, kingDirs[:], emit)
	}

	return m
}

// pawnCaptureTargets returns the two diagonal squares a pawn attacks.
func pawnCaptureTargets(from Square, c Color) [2]Square {
	if c == White {
		return [2]Square{from + 9, from + 11}
	}
	return [2]Square{from - 11, from - 9}
}

func (p *Position) leapAttacks(from Square, jumps []int, emit func(from, to Square)) {
	for _, d := range jumps {
		to := Square(int(from) + d)
		if p.board[to] != Outside {
			emit(from, to)
		}
	}
}

func (p *Position) rayAttacks(from Square, dirs []int, emit func(from, to Square)) {
	for _, d := range dirs {
		for to := Square(int(from) + d); p.board[to] != Outside; to = Square(int(to) + d) {
			emit(from, to)
			if p.board[to] != Empty {
				break
			}
		}
	}
}

// IsAttacked returns true if any piece of color by attacks sq. It reads
// only the board array, so it is safe to call while the board is
// temporarily modified.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	if sq == NoSquare {
		return false
	}

	// A pawn of color by attacks sq from the squares sq would attack as
	// a pawn of the other color.
	pawn := NewPiece(Pawn, by)
	for _, from := range pawnCaptureTargets(sq, by.Other()) {
		if p.board[from] == pawn {
			return true
		}
	}

	knight := NewPiece(Knight, by)
	for _, d := range knightJumps {
		if p.board[Square(int(sq)+d)] == knight {
			return true
		}
	}

	king := NewPiece(King, by)
	for _, d := range kingDirs {
		if p.board[Square(int(sq)+d)] == king {
			return true
		}
	}

	queen := NewPiece(Queen, by)
	if p.slidingAttacker(sq, diagonalDirs[:], NewPiece(Bishop, by), queen) {
		return true
	}
	return p.slidingAttacker(sq, lateralDirs[:], NewPiece(Rook, by), queen)
}

// slidingAttacker walks each ray from sq and reports whether the first
// piece met is one of the two given sliders.
func (p *Position) slidingAttacker(sq Square, dirs []int, a, b Piece) bool {
	for _, d := range dirs {
		to := Square(int(sq) + d)
		for p.board[to] == Empty {
			to = Square(int(to) + d)
		}
		if piece := p.board[to]; piece == a || piece == b {
			return true
		}
	}
	return false
}
