// Package suite runs EPD test suites ("bm"/"am" positions) against the engine.
package suite

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hailam/chesscore/internal/board"
)

// ErrInvalidEPD wraps EPD parse failures.
var ErrInvalidEPD = errors.New("invalid EPD")

// Entry is one EPD record.
type Entry struct {
	ID    string
	Pos   *board.Position
	Best  []board.Move // "bm": any of these passes
	Avoid []board.Move // "am": none of these may be played
	Ops   map[string]string
}

// FEN returns the entry's position.
func (e Entry) FEN() string {
	return e.Pos.ToFEN()
}

// ParseEPD parses "<placement> <side> <castling> <ep> op args; op args; ...".
// Half-move and full-move counters are taken from "hmvc" and "fmvn" when present.
func ParseEPD(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Entry{}, fmt.Errorf("%w: need 4 position fields in %q", ErrInvalidEPD, line)
	}

	e := Entry{Ops: parseOps(strings.Join(fields[4:], " "))}

	fen := strings.Join(fields[:4], " ")
	hmvc, fmvn := "0", "1"
	if v, ok := e.Ops["hmvc"]; ok {
		hmvc = v
	}
	if v, ok := e.Ops["fmvn"]; ok {
		fmvn = v
	}
	pos, err := board.ParseFEN(fen + " " + hmvc + " " + fmvn)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrInvalidEPD, err)
	}
	e.Pos = pos
	e.ID = strings.Trim(e.Ops["id"], `"`)

	if e.Best, err = parseSANList(pos, e.Ops["bm"]); err != nil {
		return Entry{}, fmt.Errorf("%w: bm: %w", ErrInvalidEPD, err)
	}
	if e.Avoid, err = parseSANList(pos, e.Ops["am"]); err != nil {
		return Entry{}, fmt.Errorf("%w: am: %w", ErrInvalidEPD, err)
	}
	if len(e.Best) == 0 && len(e.Avoid) == 0 {
		return Entry{}, fmt.Errorf("%w: no bm or am operation", ErrInvalidEPD)
	}
	return e, nil
}

// parseOps splits semicolon-terminated operations. Quoted operands may
// contain semicolons.
func parseOps(s string) map[string]string {
	ops := make(map[string]string)
	var cur strings.Builder
	quoted := false
	flush := func() {
		op := strings.TrimSpace(cur.String())
		cur.Reset()
		if op == "" {
			return
		}
		name, args, _ := strings.Cut(op, " ")
		ops[name] = strings.TrimSpace(args)
	}
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ';' && !quoted:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return ops
}

func parseSANList(pos *board.Position, s string) ([]board.Move, error) {
	var moves []board.Move
	for _, san := range strings.Fields(s) {
		m, err := board.ParseSAN(san, pos)
		if err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, nil
}

// Load reads one entry per line, skipping blank lines and '#' comments.
func Load(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := ParseEPD(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if e.ID == "" {
			e.ID = fmt.Sprintf("line %d", lineNo)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
