package board

// Color represents the color of a piece or player.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

// Sign returns +1 for White and -1 for Black.
func (c Color) Sign() int {
	if c == White {
		return 1
	}
	return -1
}

// String returns the color name.
func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType represents the type of a chess piece.
// The zero value means "no piece", so a zero Move carries no promotion.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// String returns the piece type name.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Char returns the FEN character for the piece type (lowercase).
func (pt PieceType) Char() byte {
	if pt > King {
		return ' '
	}
	return " pnbrqk"[pt]
}

// PieceValue returns the material value of the piece type in centipawns.
var PieceValue = [7]int{0, 100, 320, 330, 500, 900, 20000}

// Piece is the content of a mailbox square.
// Empty is 0, white pieces are 1-6, black pieces are 7-12 and
// Outside marks the sentinel border.
type Piece uint8

const (
	Empty       Piece = 0
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) + 6
	BlackKnight Piece = Piece(Knight) + 6
	BlackBishop Piece = Piece(Bishop) + 6
	BlackRook   Piece = Piece(Rook) + 6
	BlackQueen  Piece = Piece(Queen) + 6
	BlackKing   Piece = Piece(King) + 6
	Outside     Piece = 13

	// NoPiece is an alias for Empty used where a move captures nothing.
	NoPiece = Empty
)

// NewPiece creates a Piece from PieceType and Color.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType || pt > King || c >= NoColor {
		return Empty
	}
	return Piece(pt) + Piece(c)*6
}

// IsPiece returns true for a real piece (not Empty or Outside).
func (p Piece) IsPiece() bool {
	return p != Empty && p < Outside
}

// Type returns the PieceType of the piece.
func (p Piece) Type() PieceType {
	if !p.IsPiece() {
		return NoPieceType
	}
	return PieceType((p-1)%6 + 1)
}

// Color returns the Color of the piece.
func (p Piece) Color() Color {
	if !p.IsPiece() {
		return NoColor
	}
	return Color((p - 1) / 6)
}

// String returns the FEN character for the piece.
// Uppercase for white, lowercase for black.
func (p Piece) String() string {
	switch {
	case p == Empty:
		return "."
	case p >= Outside:
		return "#"
	}
	return string(" PNBRQKpnbrqk"[p])
}

// PieceFromChar converts a FEN character to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return Empty
	}
}

// Value returns the material value of the piece in centipawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
