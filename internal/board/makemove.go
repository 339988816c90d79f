package board

import "fmt"

// castlingMask lists the rights lost when a piece leaves or lands on a square.
var castlingMask [BoardSize]CastlingRights

func init() {
	castlingMask[E1] = WhiteKingSideCastle | WhiteQueenSideCastle
	castlingMask[H1] = WhiteKingSideCastle
	castlingMask[A1] = WhiteQueenSideCastle
	castlingMask[E8] = BlackKingSideCastle | BlackQueenSideCastle
	castlingMask[H8] = BlackKingSideCastle
	castlingMask[A8] = BlackQueenSideCastle
}

// castlingRookSquares returns the rook's origin and destination for a king
// move of two files.
func castlingRookSquares(kingTo Square, kingSide bool) (Square, Square) {
	if kingSide {
		return kingTo + 1, kingTo - 1
	}
	return kingTo - 2, kingTo + 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// MakeMove applies a legal move in place, pushing one frame onto each
// state stack and updating the hash incrementally. The move must come from
// GenerateLegalMoves for this position; an empty origin panics.
func (p *Position) MakeMove(m Move) {
	piece := p.board[m.From]
	if !piece.IsPiece() {
		panic(fmt.Sprintf("board: MakeMove %s from empty square\n%s", m, p))
	}

	us := p.SideToMove
	pt := piece.Type()
	oldCastling := p.Castling()
	oldEP := p.EnPassant()

	p.history = append(p.history, p.Hash)
	h := p.Hash ^ keys.Castling(oldCastling) ^ keys.EnPassant(oldEP) ^ keys.SideToMove()

	halfMove := p.HalfMoveClock() + 1
	newEP := NoSquare

	if target := p.board[m.To]; target != Empty {
		h ^= keys.Piece(target, m.To)
		p.removePiece(m.To)
		halfMove = 0
	} else if pt == Pawn && m.From.File() != m.To.File() {
		victim := Square(int(m.To) - 10*us.Sign())
		h ^= keys.Piece(p.board[victim], victim)
		p.removePiece(victim)
	}

	h ^= keys.Piece(piece, m.From)
	p.movePiece(m.From, m.To)

	if m.Promotion != NoPieceType {
		promoted := NewPiece(m.Promotion, us)
		p.removePiece(m.To)
		p.addPiece(promoted, m.To)
		h ^= keys.Piece(promoted, m.To)
	} else {
		h ^= keys.Piece(piece, m.To)
	}

	switch pt {
	case King:
		if d := int(m.To) - int(m.From); abs(d) == 2 {
			rookFrom, rookTo := castlingRookSquares(m.To, d > 0)
			rook := p.board[rookFrom]
			h ^= keys.Piece(rook, rookFrom) ^ keys.Piece(rook, rookTo)
			p.movePiece(rookFrom, rookTo)
		}
	case Pawn:
		halfMove = 0
		if abs(int(m.To)-int(m.From)) > 12 {
			newEP = Square((int(m.From) + int(m.To)) / 2)
		}
	}

	newCastling := oldCastling &^ (castlingMask[m.From] | castlingMask[m.To])
	h ^= keys.Castling(newCastling) ^ keys.EnPassant(newEP)

	p.castling = append(p.castling, newCastling)
	p.enPassant = append(p.enPassant, newEP)
	p.halfMove = append(p.halfMove, halfMove)

	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	p.Hash = h
}

// UnmakeMove reverses MakeMove for the same move, restoring the position
// exactly. It relies only on the move and the state stacks.
func (p *Position) UnmakeMove(m Move) {
	them := p.SideToMove
	us := them.Other()

	h := p.Hash ^ keys.Castling(p.Castling()) ^ keys.EnPassant(p.EnPassant()) ^ keys.SideToMove()

	n := len(p.castling) - 1
	p.castling = p.castling[:n]
	p.enPassant = p.enPassant[:n]
	p.halfMove = p.halfMove[:n]
	p.history = p.history[:len(p.history)-1]

	ep := p.EnPassant()
	h ^= keys.Castling(p.Castling()) ^ keys.EnPassant(ep)

	piece := p.board[m.To]
	if m.Promotion != NoPieceType {
		pawn := NewPiece(Pawn, us)
		h ^= keys.Piece(piece, m.To) ^ keys.Piece(pawn, m.From)
		p.removePiece(m.To)
		p.addPiece(pawn, m.From)
		piece = pawn
	} else {
		h ^= keys.Piece(piece, m.To) ^ keys.Piece(piece, m.From)
		p.movePiece(m.To, m.From)
	}

	switch pt := piece.Type(); {
	case pt == King && abs(int(m.To)-int(m.From)) == 2:
		rookFrom, rookTo := castlingRookSquares(m.To, m.To > m.From)
		rook := p.board[rookTo]
		h ^= keys.Piece(rook, rookTo) ^ keys.Piece(rook, rookFrom)
		p.movePiece(rookTo, rookFrom)
	case pt == Pawn && m.To == ep && m.Captured != Empty:
		victim := Square(int(m.To) - 10*us.Sign())
		p.addPiece(m.Captured, victim)
		h ^= keys.Piece(m.Captured, victim)
	case m.Captured != Empty:
		p.addPiece(m.Captured, m.To)
		h ^= keys.Piece(m.Captured, m.To)
	}

	if us == Black {
		p.FullMoveNumber--
	}
	p.SideToMove = us
	p.Hash = h
}
