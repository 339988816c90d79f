package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// maxPiecesPerType bounds a piece list: two originals plus eight promotions.
const maxPiecesPerType = 10

// pieceList is a fixed-capacity list of squares holding one piece kind.
type pieceList struct {
	squares [maxPiecesPerType]Square
	count   uint8
}

// Position is a chess position on a 10x12 mailbox.
//
// The castling, en passant and half-move stacks hold one frame per ply
// played since construction plus the initial frame, so unmake is a pop.
type Position struct {
	board [BoardSize]Piece
	lists [2][7]pieceList  // [Color][PieceType]
	slot  [BoardSize]uint8 // index of the square inside its piece list

	SideToMove     Color
	FullMoveNumber int

	// Zobrist hash, maintained incrementally by MakeMove/UnmakeMove.
	Hash uint64

	castling  []CastlingRights
	enPassant []Square
	halfMove  []int
	history   []uint64 // hash before each ply, for repetition detection
}

// stackReserve is the spare capacity given to the stacks so a search
// does not reallocate them.
const stackReserve = 128

// newEmptyPosition returns a position with an empty playable region and
// exactly one frame on every stack.
func newEmptyPosition() *Position {
	p := &Position{
		FullMoveNumber: 1,
		castling:       make([]CastlingRights, 1, stackReserve),
		enPassant:      make([]Square, 1, stackReserve),
		halfMove:       make([]int, 1, stackReserve),
		history:        make([]uint64, 0, stackReserve),
	}
	for i := range p.board {
		if Square(i).IsValid() {
			p.board[i] = Empty
		} else {
			p.board[i] = Outside
		}
	}
	p.enPassant[0] = NoSquare
	return p
}

// NewPosition creates the starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Clone returns a deep copy that shares no memory with p.
func (p *Position) Clone() *Position {
	c := *p
	c.castling = append(make([]CastlingRights, 0, len(p.castling)+stackReserve), p.castling...)
	c.enPassant = append(make([]Square, 0, len(p.enPassant)+stackReserve), p.enPassant...)
	c.halfMove = append(make([]int, 0, len(p.halfMove)+stackReserve), p.halfMove...)
	c.history = append(make([]uint64, 0, len(p.history)+stackReserve), p.history...)
	return &c
}

// PieceAt returns the content of a mailbox square.
func (p *Position) PieceAt(sq Square) Piece {
	return p.board[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.board[sq] == Empty
}

// Pieces returns the squares holding pieces of the given color and type.
// The slice aliases internal storage and must not be modified or retained
// across MakeMove/UnmakeMove.
func (p *Position) Pieces(c Color, pt PieceType) []Square {
	l := &p.lists[c][pt]
	return l.squares[:l.count]
}

// Count returns the number of pieces of the given color and type.
func (p *Position) Count(c Color, pt PieceType) int {
	return int(p.lists[c][pt].count)
}

// KingSquare returns the king square of the given color, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	if p.lists[c][King].count == 0 {
		return NoSquare
	}
	return p.lists[c][King].squares[0]
}

// Castling returns the current castling rights.
func (p *Position) Castling() CastlingRights {
	return p.castling[len(p.castling)-1]
}

// EnPassant returns the current en passant target, or NoSquare.
func (p *Position) EnPassant() Square {
	return p.enPassant[len(p.enPassant)-1]
}

// HalfMoveClock returns the current fifty-move-rule counter.
func (p *Position) HalfMoveClock() int {
	return p.halfMove[len(p.halfMove)-1]
}

// Ply returns the number of plies played since the position was built.
func (p *Position) Ply() int {
	return len(p.castling) - 1
}

// addPiece places a piece on an empty square (does not update hash).
func (p *Position) addPiece(piece Piece, sq Square) {
	l := &p.lists[piece.Color()][piece.Type()]
	if int(l.count) == maxPiecesPerType {
		panic(fmt.Sprintf("board: too many %s pieces of type %s", piece.Color(), piece.Type()))
	}
	l.squares[l.count] = sq
	p.slot[sq] = l.count
	l.count++
	p.board[sq] = piece
}

// removePiece clears a square and returns what was on it (does not update hash).
func (p *Position) removePiece(sq Square) Piece {
	piece := p.board[sq]
	l := &p.lists[piece.Color()][piece.Type()]
	i := p.slot[sq]
	l.count--
	last := l.squares[l.count]
	l.squares[i] = last
	p.slot[last] = i
	p.board[sq] = Empty
	return piece
}

// movePiece relocates a piece to an empty square, keeping its list slot
// (does not update hash).
func (p *Position) movePiece(from, to Square) {
	piece := p.board[from]
	l := &p.lists[piece.Color()][piece.Type()]
	i := p.slot[from]
	l.squares[i] = to
	p.slot[to] = i
	p.board[from] = Empty
	p.board[to] = piece
}

// ComputeHash recomputes the Zobrist hash from scratch.
func (p *Position) ComputeHash() uint64 {
	var h uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, c)
			for _, sq := range p.Pieces(c, pt) {
				h ^= keys.Piece(piece, sq)
			}
		}
	}
	h ^= keys.Castling(p.Castling())
	h ^= keys.EnPassant(p.EnPassant())
	if p.SideToMove == Black {
		h ^= keys.SideToMove()
	}
	return h
}

// Validate checks the structural invariants: board and piece lists agree,
// the hash matches a recomputation and the stacks are balanced.
func (p *Position) Validate() error {
	seen := 0
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, c)
			for i, sq := range p.Pieces(c, pt) {
				if !sq.IsValid() {
					return fmt.Errorf("%s %s listed on invalid square %d", c, pt, sq)
				}
				if p.board[sq] != piece {
					return fmt.Errorf("%s %s listed on %s but board holds %s", c, pt, sq, p.board[sq])
				}
				if int(p.slot[sq]) != i {
					return fmt.Errorf("slot index for %s is %d, want %d", sq, p.slot[sq], i)
				}
				seen++
			}
		}
	}

	onBoard := 0
	for i := 0; i < BoardSize; i++ {
		sq := Square(i)
		switch piece := p.board[sq]; {
		case !sq.IsValid():
			if piece != Outside {
				return fmt.Errorf("border square %d holds %s", sq, piece)
			}
		case piece == Outside:
			return fmt.Errorf("playable square %s marked outside", sq)
		case piece != Empty:
			onBoard++
		}
	}
	if onBoard != seen {
		return fmt.Errorf("board holds %d pieces but lists hold %d", onBoard, seen)
	}

	if p.Count(White, King) != 1 || p.Count(Black, King) != 1 {
		return fmt.Errorf("each side must have exactly one king")
	}

	if len(p.enPassant) != len(p.castling) || len(p.halfMove) != len(p.castling) {
		return fmt.Errorf("unbalanced stacks: castling=%d enpassant=%d halfmove=%d",
			len(p.castling), len(p.enPassant), len(p.halfMove))
	}
	if len(p.history) != len(p.castling)-1 {
		return fmt.Errorf("hash history holds %d frames for ply %d", len(p.history), p.Ply())
	}

	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("hash mismatch: incremental %016x, computed %016x", p.Hash, h)
	}

	return nil
}

// Equal reports whether two positions hold the same state. Piece lists are
// compared as sets since a capture and its undo may reorder them.
func (p *Position) Equal(o *Position) bool {
	if p.board != o.board ||
		p.SideToMove != o.SideToMove ||
		p.FullMoveNumber != o.FullMoveNumber ||
		p.Hash != o.Hash ||
		p.Castling() != o.Castling() ||
		p.EnPassant() != o.EnPassant() ||
		p.HalfMoveClock() != o.HalfMoveClock() ||
		p.Ply() != o.Ply() {
		return false
	}
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			if p.Count(c, pt) != o.Count(c, pt) {
				return false
			}
			for _, sq := range p.Pieces(c, pt) {
				if o.lists[c][pt].squares[o.slot[sq]] != sq {
					return false
				}
			}
		}
	}
	return true
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(p.board[NewSquare(file, rank)].String())
			sb.WriteByte(' ')
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.Castling())
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant())
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock())
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}

// InCheck returns true if the side to move is in check.
func (p *Position) InCheck() bool {
	return p.IsAttacked(p.KingSquare(p.SideToMove), p.SideToMove.Other())
}

// Material returns the material balance (positive favors white).
func (p *Position) Material() int {
	score := 0
	for pt := Pawn; pt < King; pt++ {
		score += p.Count(White, pt) * PieceValue[pt]
		score -= p.Count(Black, pt) * PieceValue[pt]
	}
	return score
}

// IsFiftyMoveDraw returns true once a hundred plies passed without a
// capture or pawn move.
func (p *Position) IsFiftyMoveDraw() bool {
	return p.HalfMoveClock() >= 100
}

// IsRepetition returns true if the current position occurred before
// since the last irreversible move.
func (p *Position) IsRepetition() bool {
	n := len(p.history)
	limit := p.HalfMoveClock()
	for i := 2; i <= limit && i <= n; i += 2 {
		if p.history[n-i] == p.Hash {
			return true
		}
	}
	return false
}

// IsInsufficientMaterial returns true when neither side can mate:
// bare kings, or a single minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	minors := 0
	for c := White; c <= Black; c++ {
		if p.Count(c, Pawn)+p.Count(c, Rook)+p.Count(c, Queen) > 0 {
			return false
		}
		minors += p.Count(c, Knight) + p.Count(c, Bishop)
	}
	return minors <= 1
}
