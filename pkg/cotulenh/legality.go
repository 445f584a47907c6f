package cotulenh

// FilterLegal keeps, from a set of pseudo-legal candidates, those that leave
// the mover's own Commander safe after application. Facing-capture
// ("flying general") exposure is already folded into IsAttacked, since a
// Commander's own orthogonal facing-capture is generated as an ordinary
// Capture by the Attacker Query — so a single post-move IsAttacked check
// covers both "commander attacked" and "commander exposed".
func FilterLegal(g *Game, candidates []Move, us Color) []Move {
	var legal []Move
	for _, m := range candidates {
		if g.testMoveSafe(m, us) {
			legal = append(legal, m)
		}
	}
	return legal
}

// testMoveSafe applies m as a throwaway, checks whether us's Commander would
// then be attacked, and undoes — restoring the active deploy session
// snapshot around the whole test per the concurrency rule, and recovering
// to the pre-test snapshot if apply or undo itself fails (the failure
// invariant).
func (g *Game) testMoveSafe(m Move, us Color) bool {
	sessionSnapshot := g.activeDeploy.Clone()
	actions := compileMove(m)

	safe := func() bool {
		defer func() {
			for i := len(actions) - 1; i >= 0; i-- {
				actions[i].undo(g)
			}
			g.refreshAirDefense()
			g.activeDeploy = sessionSnapshot
		}()
		if err := g.runActions(actions); err != nil {
			return false
		}
		g.refreshAirDefense()
		commanderSq := g.board.CommanderSquare(us)
		if commanderSq == NoSquare {
			return true
		}
		return !IsAttacked(g, commanderSq, us.Opponent())
	}
	return safe()
}

func (g *Game) refreshAirDefense() {
	g.airDefense.Recompute(g.board, Red)
	g.airDefense.Recompute(g.board, Blue)
}
