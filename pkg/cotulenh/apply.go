package cotulenh

// action is one atomic, reversible board mutation. Each Do captures whatever
// it needs to Undo exactly.
type action interface {
	do(g *Game) error
	undo(g *Game)
}

// removePieceAction removes the entire occupant of sq (used for capture
// targets and stay-capture targets — never for the mover's own origin).
type removePieceAction struct {
	sq    Square
	prior *Piece
}

func (a *removePieceAction) do(g *Game) error {
	p := g.board.Get(a.sq)
	if p == nil {
		return newErr(StateCorruption, "removePiece: no piece at %s", a.sq)
	}
	cp := *p
	a.prior = &cp
	g.board.placeRaw(a.sq, nil)
	return nil
}

func (a *removePieceAction) undo(g *Game) {
	g.board.placeRaw(a.sq, a.prior)
}

// placePieceAction places piece at sq, recording whatever previously sat
// there (normally nil, since captures clear the square with a prior action).
type placePieceAction struct {
	sq    Square
	piece Piece
	prior *Piece
}

func (a *placePieceAction) do(g *Game) error {
	if existing := g.board.Get(a.sq); existing != nil {
		cp := *existing
		a.prior = &cp
	}
	piece := a.piece
	g.board.placeRaw(a.sq, &piece)
	return nil
}

func (a *placePieceAction) undo(g *Game) {
	g.board.placeRaw(a.sq, a.prior)
}

// removeFromStackAction strips one piece (by kind) out of the stack at sq,
// leaving the remainder (or clearing the square if that piece was the sole
// occupant). Undo restores the entire original stack snapshot, by rule.
type removeFromStackAction struct {
	sq        Square
	kind      PieceKind
	priorFull *Piece
}

func (a *removeFromStackAction) do(g *Game) error {
	full := g.board.Get(a.sq)
	if full == nil {
		return newErr(StateCorruption, "removeFromStack: empty square %s", a.sq)
	}
	cp := *full
	cp.Carried = append([]Piece(nil), full.Carried...)
	a.priorFull = &cp

	if full.Kind == a.kind && len(full.Carried) == 0 {
		g.board.placeRaw(a.sq, nil)
		return nil
	}
	remainder, ok := RemoveFrom(*full, a.kind)
	if !ok {
		return newErr(StateCorruption, "removeFromStack: kind %s not found at %s", a.kind, a.sq)
	}
	g.board.placeRaw(a.sq, &remainder)
	return nil
}

func (a *removeFromStackAction) undo(g *Game) {
	g.board.placeRaw(a.sq, a.priorFull)
}

// setHeroicAction flips the heroic flag of the occupant (or a carried piece)
// at sq, recording the prior value for undo.
type setHeroicAction struct {
	sq      Square
	kind    *PieceKind
	heroic  bool
	prior   bool
	found   bool
}

func (a *setHeroicAction) do(g *Game) error {
	prior, found := g.board.heroicOf(a.sq, a.kind)
	if !found {
		return newErr(StateCorruption, "setHeroic: piece not found at %s", a.sq)
	}
	a.prior, a.found = prior, found
	g.board.SetHeroic(a.sq, a.kind, a.heroic)
	return nil
}

func (a *setHeroicAction) undo(g *Game) {
	if a.found {
		g.board.SetHeroic(a.sq, a.kind, a.prior)
	}
}

// promoteAttackersAction grants heroic status to every non-heroic attacker of
// the opponent's Commander, computed after the rest of the move's actions
// have executed. Undo reverts exactly the squares it promoted.
type promoteAttackersAction struct {
	mover     Color
	promoted  []promotedRef
}

type promotedRef struct {
	sq   Square
	kind PieceKind
}

func (a *promoteAttackersAction) do(g *Game) error {
	defender := a.mover.Opponent()
	target := g.board.CommanderSquare(defender)
	if target == NoSquare {
		return nil
	}
	for _, att := range Attackers(g, target, a.mover) {
		k := att.Kind
		if att.Heroic {
			continue
		}
		if g.board.SetHeroic(att.From, &k, true) {
			a.promoted = append(a.promoted, promotedRef{sq: att.From, kind: k})
		}
	}
	return nil
}

func (a *promoteAttackersAction) undo(g *Game) {
	for _, r := range a.promoted {
		k := r.kind
		g.board.SetHeroic(r.sq, &k, false)
	}
}

// stateUpdateAction flips the turn, advances clocks/move-number, and records
// the resulting position in position_counts, all reversibly.
type stateUpdateAction struct {
	captured bool

	prevTurn        Color
	prevHalfMove    int
	prevMoveNumber  int
	countedKey      string
	countedIncrement bool
}

func (a *stateUpdateAction) do(g *Game) error {
	a.prevTurn = g.turn
	a.prevHalfMove = g.halfMoveClock
	a.prevMoveNumber = g.moveNumber

	if a.captured {
		g.halfMoveClock = 0
	} else {
		g.halfMoveClock++
	}
	if g.turn == Blue {
		g.moveNumber++
	}
	g.turn = g.turn.Opponent()

	a.countedKey = positionKey(g)
	g.positionCounts[a.countedKey]++
	a.countedIncrement = true
	return nil
}

func (a *stateUpdateAction) undo(g *Game) {
	if a.countedIncrement {
		g.positionCounts[a.countedKey]--
		if g.positionCounts[a.countedKey] <= 0 {
			delete(g.positionCounts, a.countedKey)
		}
	}
	g.turn = a.prevTurn
	g.halfMoveClock = a.prevHalfMove
	g.moveNumber = a.prevMoveNumber
}

// compileMove assembles the ordered action list for a move, keyed off its
// move kind. The trailing StateUpdate is appended by commitPlain (or once per
// session by CommitDeploy), not here, since deploy steps suppress it.
func compileMove(m Move) []action {
	var actions []action
	switch m.Kind {
	case Normal:
		actions = append(actions, removeOrigin(m)...)
		actions = append(actions, &placePieceAction{sq: m.To, piece: m.Piece})
	case Capture:
		actions = append(actions, removeOrigin(m)...)
		actions = append(actions, &removePieceAction{sq: m.To})
		actions = append(actions, &placePieceAction{sq: m.To, piece: m.Piece})
	case StayCapture:
		actions = append(actions, &removePieceAction{sq: m.To})
	case SuicideCapture:
		actions = append(actions, &removeFromStackAction{sq: m.From, kind: m.Piece.Kind})
		actions = append(actions, &removePieceAction{sq: m.To})
	case Combination:
		result := m.Piece
		if m.Combined != nil {
			result = *m.Combined
		}
		actions = append(actions, removeOrigin(m)...)
		actions = append(actions, &placePieceAction{sq: m.To, piece: result})
	}
	return actions
}

// runActions executes actions in order; if any fails, every action already
// executed is undone in reverse before the error is returned, so a failed
// move never leaves the board half-mutated.
func (g *Game) runActions(actions []action) error {
	done := 0
	for _, a := range actions {
		if err := a.do(g); err != nil {
			for i := done - 1; i >= 0; i-- {
				actions[i].undo(g)
			}
			return err
		}
		done++
	}
	return nil
}

// removeOrigin removes the moving piece from From: a whole-stack move
// (Deploy == false) vacates the entire occupant, while a deploy step peels
// just that one piece's kind out of the residual stack.
func removeOrigin(m Move) []action {
	if m.Deploy {
		return []action{&removeFromStackAction{sq: m.From, kind: m.Piece.Kind}}
	}
	return []action{&removePieceAction{sq: m.From}}
}
