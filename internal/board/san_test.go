package board

import "testing"

func TestToSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		san  string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"6k1/5ppp/8/8/8/8/8/R3K3 w - - 0 1", "a1a8", "Ra8#"},
		{"6k1/8/8/8/8/8/4K3/R6R w - - 0 1", "a1a8", "Ra8+"},
		{"6k1/8/8/8/8/8/4K3/R6R w - - 0 1", "a1d1", "Rad1"},
		{"7k/P7/8/8/8/8/8/4K3 w - - 0 1", "a7a8q", "a8=Q+"},
		{"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "e4d5", "exd5"},
		{"4k3/8/8/N7/8/8/8/N3K3 w - - 0 1", "a1b3", "N1b3"},
	}

	for _, tc := range tests {
		t.Run(tc.san, func(t *testing.T) {
			pos := MustParseFEN(tc.fen)
			m := mustMove(t, pos, tc.move)
			if got := m.ToSAN(pos); got != tc.san {
				t.Errorf("ToSAN(%s) = %q, want %q", tc.move, got, tc.san)
			}

			parsed, err := ParseSAN(tc.san, pos)
			if err != nil {
				t.Fatalf("ParseSAN(%q): %v", tc.san, err)
			}
			if parsed != m {
				t.Errorf("ParseSAN(%q) = %s, want %s", tc.san, parsed, m)
			}
		})
	}
}

func TestParseSANRejectsIllegal(t *testing.T) {
	pos := NewPosition()
	for _, s := range []string{"e5", "Nf4", "O-O", "Ke2", "Qx"} {
		if _, err := ParseSAN(s, pos); err == nil {
			t.Errorf("ParseSAN(%q) accepted an illegal move", s)
		}
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := NewPosition()
	var moves []Move
	p := pos.Clone()
	for _, s := range []string{"e2e4", "e7e5", "g1f3"} {
		m := mustMove(t, p, s)
		moves = append(moves, m)
		p.MakeMove(m)
	}

	got := MovesToSAN(pos, moves)
	want := []string{"e4", "e5", "Nf3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MovesToSAN[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if pos.Ply() != 0 {
		t.Error("MovesToSAN modified its input position")
	}
}
