package board

// GenerateLegalMoves generates all legal moves for the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := &MoveList{}
	p.GenerateLegalMovesInto(ml)
	return ml
}

// GenerateLegalMovesInto fills ml with the legal moves for the side to
// move, reusing the caller's storage.
func (p *Position) GenerateLegalMovesInto(ml *MoveList) {
	ml.count = 0

	us := p.SideToMove
	ksq := p.KingSquare(us)
	attacks := p.Attacks(us)

	p.generateKingMoves(ml, ksq, &attacks)

	// In double check only the king may move.
	if attacks.Checkers >= 2 {
		return
	}

	g := moveGen{pos: p, ml: ml, us: us}
	if attacks.Checkers == 1 {
		g.restricted = true
		g.markCheckLine(attacks.Checker, ksq)
	}
	g.findPins(ksq)

	g.generatePawnMoves()
	g.generateEnPassant(ksq)
	for _, from := range p.Pieces(us, Knight) {
		if g.pinDir[from] == 0 {
			g.leaps(from, knightJumps[:])
		}
	}
	for _, from := range p.Pieces(us, Bishop) {
		g.slides(from, diagonalDirs[:])
	}
	for _, from := range p.Pieces(us, Rook) {
		g.slides(from, lateralDirs[:])
	}
	for _, from := range p.Pieces(us, Queen) {
		g.slides(from, kingDirs[:])
	}

	if attacks.Checkers == 0 {
		p.generateCastlingMoves(ml, us, &attacks)
	}
}

// moveGen carries the per-call state for non-king move generation.
type moveGen struct {
	pos *Position
	ml  *MoveList
	us  Color

	// restricted is set in single check: destinations must be on line.
	restricted bool
	line       [BoardSize]bool

	// pinDir holds the ray direction (king towards pinner) for pinned pieces.
	pinDir [BoardSize]int8
}

// markCheckLine marks the squares that resolve a single check: the
// checker itself and, for sliders, every square between it and the king.
func (g *moveGen) markCheckLine(checker, ksq Square) {
	g.line[checker] = true
	switch g.pos.board[checker].Type() {
	case Bishop, Rook, Queen:
		d := direction(checker, ksq)
		for sq := Square(int(checker) + d); sq != ksq; sq = Square(int(sq) + d) {
			g.line[sq] = true
		}
	}
}

// direction returns the unit ray step from a to b. The squares must share
// a rank, file or diagonal.
func direction(a, b Square) int {
	df := b.File() - a.File()
	dr := b.Rank() - a.Rank()
	return sign(dr)*10 + sign(df)
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// findPins walks the eight rays from the king. A friendly piece followed
// by an enemy slider of the matching ray type is pinned.
func (g *moveGen) findPins(ksq Square) {
	p := g.pos
	them := g.us.Other()
	queen := NewPiece(Queen, them)

	for i, d := range kingDirs {
		slider := NewPiece(Bishop, them)
		if i >= 4 {
			slider = NewPiece(Rook, them)
		}

		sq := Square(int(ksq) + d)
		for p.board[sq] == Empty {
			sq = Square(int(sq) + d)
		}
		if !p.board[sq].IsPiece() || p.board[sq].Color() != g.us {
			continue
		}
		candidate := sq

		sq = Square(int(sq) + d)
		for p.board[sq] == Empty {
			sq = Square(int(sq) + d)
		}
		if p.board[sq] == slider || p.board[sq] == queen {
			g.pinDir[candidate] = int8(d)
		}
	}
}

// alongPin reports whether moving in direction d keeps a piece on its
// pin line.
func (g *moveGen) alongPin(from Square, d int) bool {
	pd := int(g.pinDir[from])
	return pd == 0 || d == pd || d == -pd
}

// add appends a non-king move if it resolves any check in force.
func (g *moveGen) add(from, to Square, promo PieceType) {
	if g.restricted && !g.line[to] {
		return
	}
	g.ml.Add(Move{From: from, To: to, Captured: g.pos.board[to], Promotion: promo})
}

func (g *moveGen) leaps(from Square, jumps []int) {
	for _, d := range jumps {
		to := Square(int(from) + d)
		target := g.pos.board[to]
		if target == Empty || (target.IsPiece() && target.Color() != g.us) {
			g.add(from, to, NoPieceType)
		}
	}
}

func (g *moveGen) slides(from Square, dirs []int) {
	p := g.pos
	for _, d := range dirs {
		if !g.alongPin(from, d) {
			continue
		}
		for to := Square(int(from) + d); ; to = Square(int(to) + d) {
			target := p.board[to]
			if target == Empty {
				g.add(from, to, NoPieceType)
				continue
			}
			if target.IsPiece() && target.Color() != g.us {
				g.add(from, to, NoPieceType)
			}
			break
		}
	}
}

// promotionOrder lists promotion pieces, strongest first.
var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

func (g *moveGen) addPawnMove(from, to Square) {
	if to.RelativeRank(g.us) == 7 {
		for _, promo := range promotionOrder {
			g.add(from, to, promo)
		}
		return
	}
	g.add(from, to, NoPieceType)
}

func (g *moveGen) generatePawnMoves() {
	p := g.pos
	push := 10 * g.us.Sign()
	captureDirs := [2]int{push - 1, push + 1}

	for _, from := range p.Pieces(g.us, Pawn) {
		if g.alongPin(from, push) {
			one := Square(int(from) + push)
			if p.board[one] == Empty {
				g.addPawnMove(from, one)
				two := Square(int(one) + push)
				if from.RelativeRank(g.us) == 1 && p.board[two] == Empty {
					g.add(from, two, NoPieceType)
				}
			}
		}

		for _, d := range captureDirs {
			if !g.alongPin(from, d) {
				continue
			}
			to := Square(int(from) + d)
			if target := p.board[to]; target.IsPiece() && target.Color() != g.us {
				g.addPawnMove(from, to)
			}
		}
	}
}

// generateEnPassant adds en passant captures. Each candidate is played
// on the board array and the king probed for attack, which catches the
// horizontal double-vacancy pin, diagonal discovered checks through the
// captured pawn, pinned captors and checks the capture fails to resolve.
func (g *moveGen) generateEnPassant(ksq Square) {
	p := g.pos
	ep := p.EnPassant()
	if ep == NoSquare {
		return
	}

	them := g.us.Other()
	ourPawn := NewPiece(Pawn, g.us)
	theirPawn := NewPiece(Pawn, them)
	victim := Square(int(ep) - 10*g.us.Sign())
	if p.board[victim] != theirPawn || p.board[ep] != Empty {
		return
	}

	for _, from := range pawnCaptureTargets(ep, them) {
		if p.board[from] != ourPawn {
			continue
		}

		p.board[from] = Empty
		p.board[victim] = Empty
		p.board[ep] = ourPawn
		exposed := p.IsAttacked(ksq, them)
		p.board[from] = ourPawn
		p.board[victim] = theirPawn
		p.board[ep] = Empty

		if !exposed {
			g.ml.Add(Move{From: from, To: ep, Captured: theirPawn})
		}
	}
}

func (p *Position) generateKingMoves(ml *MoveList, ksq Square, attacks *AttackMap) {
	us := p.SideToMove
	for _, d := range kingDirs {
		to := Square(int(ksq) + d)
		target := p.board[to]
		if target == Outside || (target != Empty && target.Color() == us) {
			continue
		}
		if attacks.Attacked(to) {
			continue
		}
		ml.Add(Move{From: ksq, To: to, Captured: target})
	}
}

// castleSide describes one castling option.
type castleSide struct {
	right   CastlingRights
	king    Square
	rook    Square
	transit Square // square the king crosses
	dest    Square // king destination
	extra   Square // b-file square that must be empty on the queen side
}

var castleSides = [2][2]castleSide{
	White: {
		{WhiteKingSideCastle, E1, H1, F1, G1, NoSquare},
		{WhiteQueenSideCastle, E1, A1, D1, C1, B1},
	},
	Black: {
		{BlackKingSideCastle, E8, H8, F8, G8, NoSquare},
		{BlackQueenSideCastle, E8, A8, D8, C8, B8},
	},
}

func (p *Position) generateCastlingMoves(ml *MoveList, us Color, attacks *AttackMap) {
	rights := p.Castling()
	for _, cs := range castleSides[us] {
		if rights&cs.right == 0 {
			continue
		}
		if p.board[cs.king] != NewPiece(King, us) || p.board[cs.rook] != NewPiece(Rook, us) {
			continue
		}
		if p.board[cs.transit] != Empty || p.board[cs.dest] != Empty {
			continue
		}
		if cs.extra != NoSquare && p.board[cs.extra] != Empty {
			continue
		}
		if attacks.Attacked(cs.transit) || attacks.Attacked(cs.dest) {
			continue
		}
		ml.Add(Move{From: cs.king, To: cs.dest})
	}
}

// HasLegalMoves returns true if the side to move has at least one legal move.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateLegalMovesInto(&ml)
	return ml.Len() > 0
}

// IsCheckmate returns true if the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the side to move has no legal moves but is not in check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true for fifty-move, repetition and dead-material draws.
func (p *Position) IsDraw() bool {
	return p.IsFiftyMoveDraw() || p.IsRepetition() || p.IsInsufficientMaterial()
}
