package cotulenh

// BoardSquares is the number of packed square slots (file in low nibble,
// rank-from-top in high nibble): 16 * 12, even though only 11 files are
// on-board, to keep indexing by raw Square value O(1) and branch-free.
const BoardSquares = 16 * NumRanks

// Board holds one Piece per occupied square plus the per-color commander
// index required by the orthogonal facing rule and check detection.
type Board struct {
	squares    [BoardSquares]*Piece
	commanders map[Color]Square
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{commanders: map[Color]Square{Red: NoSquare, Blue: NoSquare}}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	nb := &Board{commanders: map[Color]Square{Red: b.commanders[Red], Blue: b.commanders[Blue]}}
	for i, p := range b.squares {
		if p == nil {
			continue
		}
		cp := *p
		cp.Carried = append([]Piece(nil), p.Carried...)
		nb.squares[i] = &cp
	}
	return nb
}

// Get returns the piece occupying sq, or nil.
func (b *Board) Get(sq Square) *Piece {
	if !sq.OnBoard() {
		return nil
	}
	return b.squares[sq]
}

// GetKind returns the piece at sq if it matches kind, or the carried piece
// of that kind if the occupant carries one. Returns nil if neither matches.
func (b *Board) GetKind(sq Square, kind PieceKind) *Piece {
	p := b.Get(sq)
	if p == nil {
		return nil
	}
	if p.Kind == kind {
		return p
	}
	for i := range p.Carried {
		if p.Carried[i].Kind == kind {
			return &p.Carried[i]
		}
	}
	return nil
}

// CommanderSquare returns the square of a color's commander, or NoSquare if captured.
func (b *Board) CommanderSquare(c Color) Square {
	return b.commanders[c]
}

// findCommanderSquare scans a stack (carrier + carried) for a commander.
func stackHasCommander(p *Piece) bool {
	if p.Kind == Commander {
		return true
	}
	for _, c := range p.Carried {
		if c.Kind == Commander {
			return true
		}
	}
	return false
}

// Put places a piece on sq. If allowCombine is true and sq is already
// occupied by a same-color piece, it attempts to Combine them into one
// stack. Fails (returns false, board unchanged) on terrain incompatibility
// or if it would create a second same-color commander elsewhere on the board.
func (b *Board) Put(p Piece, sq Square, allowCombine bool) bool {
	if !sq.OnBoard() {
		return false
	}
	if !CanStand(sq, p.Kind) {
		return false
	}
	if stackHasCommander(&p) {
		existing := b.commanders[p.Color]
		if existing != NoSquare && existing != sq {
			return false
		}
	}

	existing := b.squares[sq]
	final := p
	if existing != nil {
		if existing.Color != p.Color || !allowCombine {
			return false
		}
		combined, ok := Combine(append(Flatten(*existing), Flatten(p)...))
		if !ok {
			return false
		}
		final = combined
	}

	b.squares[sq] = &final
	if stackHasCommander(&final) {
		b.commanders[final.Color] = sq
	}
	return true
}

// Remove removes and returns the piece at sq (nil if empty), clearing the
// commander index when the removed stack held that color's commander.
func (b *Board) Remove(sq Square) *Piece {
	if !sq.OnBoard() {
		return nil
	}
	p := b.squares[sq]
	if p == nil {
		return nil
	}
	b.squares[sq] = nil
	if stackHasCommander(p) && b.commanders[p.Color] == sq {
		b.commanders[p.Color] = NoSquare
	}
	return p
}

// SetHeroic sets the heroic flag on the piece at sq. If kind is non-nil and
// differs from the top-level occupant, the carried piece of that kind is
// targeted instead.
func (b *Board) SetHeroic(sq Square, kind *PieceKind, heroic bool) bool {
	p := b.squares[sq]
	if p == nil {
		return false
	}
	if kind == nil || p.Kind == *kind {
		p.Heroic = heroic
		return true
	}
	for i := range p.Carried {
		if p.Carried[i].Kind == *kind {
			p.Carried[i].Heroic = heroic
			return true
		}
	}
	return false
}

// placeRaw unconditionally sets the occupant of sq (nil clears it), bypassing
// terrain and combine checks, and keeps the commander index consistent. Used
// only by the move-applier's undo machinery to restore an exact prior state.
func (b *Board) placeRaw(sq Square, p *Piece) {
	if !sq.OnBoard() {
		return
	}
	if old := b.squares[sq]; old != nil && stackHasCommander(old) && b.commanders[old.Color] == sq {
		b.commanders[old.Color] = NoSquare
	}
	b.squares[sq] = p
	if p != nil && stackHasCommander(p) {
		b.commanders[p.Color] = sq
	}
}

// heroicOf returns the heroic flag of the occupant at sq, or of its carried
// piece matching kind if kind is non-nil and differs from the top occupant.
func (b *Board) heroicOf(sq Square, kind *PieceKind) (bool, bool) {
	p := b.squares[sq]
	if p == nil {
		return false, false
	}
	if kind == nil || p.Kind == *kind {
		return p.Heroic, true
	}
	for _, c := range p.Carried {
		if c.Kind == *kind {
			return c.Heroic, true
		}
	}
	return false, false
}

// Occupants iterates every occupied square and its piece.
func (b *Board) Occupants(fn func(sq Square, p *Piece)) {
	for sq := 0; sq < BoardSquares; sq++ {
		p := b.squares[sq]
		if p == nil {
			continue
		}
		if !Square(sq).OnBoard() {
			continue
		}
		fn(Square(sq), p)
	}
}
