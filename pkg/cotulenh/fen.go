package cotulenh

import "strings"

// DefaultPosition is the starting array used by Game.New() when no FEN is
// supplied, taken verbatim from the literal test scenario.
const DefaultPosition = "6c4/1n2fh1hf2/3a2s2a1/2n1gt1tg2/2ie2m3i/11/11/2IE2M3I/2N1GT1TG2/3A2S2A1/1N2fh1hf2/6C4 r - - 0 1"

// FEN renders the full position string: the six base tokens, plus a
// DEPLOY suffix when a deploy session is active.
func (g *Game) FEN() string {
	base := baseFEN(g.board, g.turn, g.halfMoveClock, g.moveNumber)
	if g.activeDeploy == nil {
		return base
	}
	steps := make([]string, len(g.activeDeploy.Commands))
	for i, c := range g.activeDeploy.Commands {
		steps[i] = buildSAN(c.Move, nil)
	}
	return base + " DEPLOY " + g.activeDeploy.StackSquare.String() + ":" + strings.Join(steps, ",") + "..."
}

func baseFEN(b *Board, turn Color, halfMove, moveNumber int) string {
	rows := make([]string, NumRanks)
	for r := 0; r < NumRanks; r++ {
		rows[r] = encodeRow(b, r)
	}
	turnChar := "r"
	if turn == Blue {
		turnChar = "b"
	}
	return strings.Join(rows, "/") + " " + turnChar + " - - " + itoa(halfMove) + " " + itoa(moveNumber)
}

func encodeRow(b *Board, rankFromTop int) string {
	var row strings.Builder
	empties := 0
	flush := func() {
		if empties > 0 {
			row.WriteString(itoa(empties))
			empties = 0
		}
	}
	for file := 0; file < NumFiles; file++ {
		p := b.Get(NewSquare(file, rankFromTop))
		if p == nil {
			empties++
			continue
		}
		flush()
		row.WriteString(encodeSquareContent(*p))
	}
	flush()
	return row.String()
}

func encodeSquareContent(p Piece) string {
	if !p.IsStack() {
		return heroicPrefix(p) + string(p.Letter())
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, part := range Flatten(p) {
		b.WriteString(heroicPrefix(part))
		b.WriteByte(part.Letter())
	}
	b.WriteByte(')')
	return b.String()
}

func heroicPrefix(p Piece) string {
	if p.Heroic {
		return "+"
	}
	return ""
}

// positionKey is the FEN reduced to board + turn, excluding both clocks and
// any active-deploy suffix, used as the repetition map key. A partially
// deployed stack is transient game state, not a distinct repeatable
// position; see DESIGN.md.
func positionKey(g *Game) string {
	rows := make([]string, NumRanks)
	for r := 0; r < NumRanks; r++ {
		rows[r] = encodeRow(g.board, r)
	}
	turnChar := "r"
	if g.turn == Blue {
		turnChar = "b"
	}
	return strings.Join(rows, "/") + " " + turnChar + " - -"
}

// LoadFEN replaces the game's state from a FEN string. Tokens after the
// sixth, such as a DEPLOY suffix, are ignored: the loaded game never has an
// active deploy session, and a suffixed FEN loads as the position its six
// base tokens describe.
func (g *Game) LoadFEN(fen string) error {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return newErr(InvalidFEN, "expected at least 6 fields, got %d", len(fields))
	}
	board, err := parseBoard(fields[0])
	if err != nil {
		return err
	}
	var turn Color
	switch fields[1] {
	case "r":
		turn = Red
	case "b":
		turn = Blue
	default:
		return newErr(InvalidFEN, "bad turn token %q", fields[1])
	}
	halfMove, ok := parseUint(fields[4])
	if !ok {
		return newErr(InvalidFEN, "bad half-move clock %q", fields[4])
	}
	moveNumber, ok := parseUint(fields[5])
	if !ok {
		return newErr(InvalidFEN, "bad move number %q", fields[5])
	}

	g.board = board
	g.turn = turn
	g.halfMoveClock = halfMove
	g.moveNumber = moveNumber
	g.activeDeploy = nil
	g.history = nil
	g.positionCounts = map[string]int{}
	g.airDefense = NewAirDefenseIndex()
	g.airDefense.Recompute(g.board, Red)
	g.airDefense.Recompute(g.board, Blue)
	g.positionCounts[positionKey(g)] = 1
	g.invalidateMovesCache()
	return nil
}

func parseBoard(rowsField string) (*Board, error) {
	rows := strings.Split(rowsField, "/")
	if len(rows) != NumRanks {
		return nil, newErr(InvalidFEN, "expected %d ranks, got %d: %q", NumRanks, len(rows), rowsField)
	}
	b := NewBoard()
	for r, row := range rows {
		if err := parseRow(b, row, r); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func parseRow(b *Board, row string, rankFromTop int) error {
	file := 0
	i := 0
	for i < len(row) {
		c := row[i]
		if c >= '1' && c <= '9' {
			n := 0
			for i < len(row) && row[i] >= '0' && row[i] <= '9' {
				n = n*10 + int(row[i]-'0')
				i++
			}
			file += n
			continue
		}
		if c == '(' {
			j := strings.IndexByte(row[i:], ')')
			if j < 0 {
				return newErr(InvalidFEN, "unterminated stack in rank %q", row)
			}
			pieces, err := parseStackContent(row[i+1 : i+j])
			if err != nil {
				return err
			}
			combined, ok := Combine(pieces)
			if !ok {
				return newErr(InvalidFEN, "invalid stack %q in rank %q", row[i:i+j+1], row)
			}
			if file >= NumFiles {
				return newErr(InvalidFEN, "rank %q overruns board width", row)
			}
			if !b.Put(combined, NewSquare(file, rankFromTop), false) {
				return newErr(InvalidFEN, "cannot place stack at file %d rank-from-top %d", file, rankFromTop)
			}
			file++
			i += j + 1
			continue
		}
		piece, consumed, err := parseSinglePiece(row[i:])
		if err != nil {
			return err
		}
		if file >= NumFiles {
			return newErr(InvalidFEN, "rank %q overruns board width", row)
		}
		if !b.Put(piece, NewSquare(file, rankFromTop), false) {
			return newErr(InvalidFEN, "cannot place %c at file %d rank-from-top %d", piece.Letter(), file, rankFromTop)
		}
		file++
		i += consumed
	}
	if file != NumFiles {
		return newErr(InvalidFEN, "rank %q has %d files, want %d", row, file, NumFiles)
	}
	return nil
}

func parseStackContent(s string) ([]Piece, error) {
	var out []Piece
	i := 0
	for i < len(s) {
		p, n, err := parseSinglePiece(s[i:])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
		i += n
	}
	return out, nil
}

func parseSinglePiece(s string) (Piece, int, error) {
	heroic := false
	i := 0
	if i < len(s) && s[i] == '+' {
		heroic = true
		i++
	}
	if i >= len(s) {
		return Piece{}, 0, newErr(InvalidFEN, "dangling heroic marker")
	}
	kind, color, ok := PieceKindFromLetter(s[i])
	if !ok {
		return Piece{}, 0, newErr(InvalidFEN, "unknown piece letter %q", s[i])
	}
	return Piece{Kind: kind, Color: color, Heroic: heroic}, i + 1, nil
}

func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
