// Package board implements a 10x12 mailbox chess position with legal move
// generation, reversible make/unmake and incremental Zobrist hashing.
package board

import "fmt"

// Square is an index into the 120-square mailbox.
// The playable 8x8 region starts at A1=21 and ends at H8=98; every other
// index is part of the sentinel border.
type Square uint8

// BoardSize is the number of mailbox squares.
const BoardSize = 120

// Square constants for the corners and the squares castling touches.
const (
	A1 Square = 21
	B1 Square = 22
	C1 Square = 23
	D1 Square = 24
	E1 Square = 25
	F1 Square = 26
	G1 Square = 27
	H1 Square = 28
	A8 Square = 91
	B8 Square = 92
	C8 Square = 93
	D8 Square = 94
	E8 Square = 95
	F8 Square = 96
	G8 Square = 97
	H8 Square = 98

	// NoSquare is index 0, which is always on the border.
	NoSquare Square = 0
)

// Ray directions in mailbox offsets.
var (
	diagonalDirs = [4]int{9, 11, -11, -9}
	lateralDirs  = [4]int{10, 1, -10, -1}
	knightJumps  = [8]int{-21, -19, -12, -8, 8, 12, 19, 21}
	kingDirs     = [8]int{9, 11, -11, -9, 10, 1, -10, -1}
)

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*10 + file + 21)
}

// FromIndex64 converts a 0-63 index (A1=0, H8=63) to a mailbox square.
func FromIndex64(i int) Square {
	return NewSquare(i%8, i/8)
}

// Index64 converts the square to a 0-63 index (A1=0, H8=63).
func (sq Square) Index64() int {
	return (int(sq)/10-2)*8 + int(sq)%10 - 1
}

// File returns the file (column) of the square (0-7, where 0=a, 7=h).
func (sq Square) File() int {
	return int(sq)%10 - 1
}

// Rank returns the rank (row) of the square (0-7, where 0=1, 7=8).
func (sq Square) Rank() int {
	return int(sq)/10 - 2
}

// IsValid returns true if the square lies in the playable region.
func (sq Square) IsValid() bool {
	return sq >= A1 && sq <= H8 && sq%10 != 0 && sq%10 != 9
}

// RelativeRank returns the rank from a given color's perspective.
func (sq Square) RelativeRank(c Color) int {
	if c == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}

// Mirror returns the square mirrored vertically.
func (sq Square) Mirror() Square {
	return NewSquare(sq.File(), 7-sq.Rank())
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// ParseSquare parses algebraic notation (e.g., "e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'

	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %s", s)
	}

	return NewSquare(file, rank), nil
}
