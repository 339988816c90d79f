package board

import (
	"fmt"
	"strings"
)

// IsCastling returns true if the move is a king stepping two files.
func (m Move) IsCastling(pos *Position) bool {
	return pos.PieceAt(m.From).Type() == King && abs(int(m.To)-int(m.From)) == 2
}

// ToSAN converts a move to Standard Algebraic Notation.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	piece := pos.PieceAt(m.From)
	if !piece.IsPiece() {
		return m.String() // Fallback to UCI
	}

	var sb strings.Builder

	if m.IsCastling(pos) {
		if m.To > m.From {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		pt := piece.Type()

		if pt != Pawn {
			sb.WriteByte(" PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m, pt))
		}

		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(" PNBRQK"[m.Promotion])
		}
	}

	pos.MakeMove(m)
	if pos.InCheck() {
		if pos.HasLegalMoves() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	pos.UnmakeMove(m)

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when
// another piece of the same type can reach the same destination.
func disambiguation(pos *Position, m Move, pt PieceType) string {
	var candidates []Square
	for _, other := range pos.GenerateLegalMoves().Slice() {
		if other.To != m.To || other.From == m.From {
			continue
		}
		if pos.PieceAt(other.From).Type() == pt {
			candidates = append(candidates, other.From)
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile := false
	sameRank := false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// ParseSAN parses a SAN string and returns the corresponding legal move.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	moves := pos.GenerateLegalMoves()

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		kingSide := len(s) == 3
		for _, m := range moves.Slice() {
			if m.IsCastling(pos) && (m.To > m.From) == kingSide {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	promo := NoPieceType
	if idx := strings.Index(s, "="); idx >= 0 && idx+1 < len(s) {
		promo = pieceTypeFromLetter(s[idx+1])
		s = s[:idx]
	} else if n := len(s); n > 2 && s[n-1] >= 'B' && s[n-1] <= 'R' && s[n-2] >= '1' && s[n-2] <= '8' {
		// Promotions written without '=' (e.g. "e8Q").
		promo = pieceTypeFromLetter(s[n-1])
		s = s[:n-1]
	}

	isCapture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		pt = pieceTypeFromLetter(s[0])
		if pt == NoPieceType {
			return NoMove, fmt.Errorf("invalid SAN piece in %q", orig)
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("invalid SAN %q", orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("invalid SAN %q: %w", orig, err)
	}
	s = s[:len(s)-2]

	fileHint, rankHint := -1, -1
	for _, c := range s {
		if c >= 'a' && c <= 'h' {
			fileHint = int(c - 'a')
		} else if c >= '1' && c <= '8' {
			rankHint = int(c - '1')
		}
	}

	for _, m := range moves.Slice() {
		if m.To != dest || pos.PieceAt(m.From).Type() != pt {
			continue
		}
		if fileHint >= 0 && m.From.File() != fileHint {
			continue
		}
		if rankHint >= 0 && m.From.Rank() != rankHint {
			continue
		}
		if isCapture && !m.IsCapture() {
			continue
		}
		if m.Promotion != promo {
			continue
		}
		return m, nil
	}

	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

func pieceTypeFromLetter(c byte) PieceType {
	switch c {
	case 'N':
		return Knight
	case 'B':
		return Bishop
	case 'R':
		return Rook
	case 'Q':
		return Queen
	case 'K':
		return King
	}
	return NoPieceType
}

// MovesToSAN converts a sequence of moves played from pos to SAN.
func MovesToSAN(pos *Position, moves []Move) []string {
	result := make([]string, len(moves))
	p := pos.Clone()

	for i, m := range moves {
		result[i] = m.ToSAN(p)
		p.MakeMove(m)
	}

	return result
}
