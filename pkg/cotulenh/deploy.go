package cotulenh

// Command pairs a Move with the ordered atomic actions it compiled to,
// matching the "Command is then { move, actions }". It is the unit stored
// in both Game.history and DeploySession.commands.
type Command struct {
	Move    Move
	Actions []action
}

func (c Command) undo(g *Game) {
	for i := len(c.Actions) - 1; i >= 0; i-- {
		c.Actions[i].undo(g)
	}
}

// DeploySession tracks an in-progress multi-piece deploy turn. It
// lives from the first deploy-step of a turn until commit or cancel.
type DeploySession struct {
	StackSquare   Square
	Turn          Color
	OriginalPiece Piece
	StartFEN      string
	Commands      []Command
}

// Clone deep-copies the session, required before using it as a legality-test
// scratch area.
func (s *DeploySession) Clone() *DeploySession {
	if s == nil {
		return nil
	}
	cp := &DeploySession{
		StackSquare:   s.StackSquare,
		Turn:          s.Turn,
		OriginalPiece: s.OriginalPiece,
		StartFEN:      s.StartFEN,
		Commands:      append([]Command(nil), s.Commands...),
	}
	return cp
}

// Remaining returns the pieces of the original stack not yet consumed by an
// executed deploy command, evaluated at query time.
func (s *DeploySession) Remaining() []Piece {
	consumed := make(map[PieceKind]int)
	for _, c := range s.Commands {
		consumed[c.Move.Piece.Kind]++
	}
	var remaining []Piece
	for _, p := range Flatten(s.OriginalPiece) {
		if consumed[p.Kind] > 0 {
			consumed[p.Kind]--
			continue
		}
		remaining = append(remaining, p)
	}
	return remaining
}

// DeployedSquares lists the destination squares of commands executed so far
// this session, used by recombine-move generation.
func (s *DeploySession) DeployedSquares() []Square {
	out := make([]Square, 0, len(s.Commands))
	for _, c := range s.Commands {
		out = append(out, c.Move.To)
	}
	return out
}

// beginOrContinueDeploy runs the INIT/STEP transition: compiles and executes
// the step's actions, records the command on the session (creating one on
// first call), and always runs PromoteAttackers on every deploy step, not
// just on commit (see DESIGN.md).
// The half-move clock / turn / move-number StateUpdate is deliberately
// withheld until COMMIT.
func (g *Game) beginOrContinueDeploy(m Move) (Command, error) {
	var originalSnapshot *Piece
	var startFEN string
	if g.activeDeploy == nil {
		if occ := g.board.Get(m.From); occ != nil {
			cp := *occ
			cp.Carried = append([]Piece(nil), occ.Carried...)
			originalSnapshot = &cp
		}
		startFEN = g.FEN()
	}

	actions := compileMove(m)
	if err := g.runActions(actions); err != nil {
		return Command{}, err
	}
	g.refreshAirDefense()

	promote := &promoteAttackersAction{mover: g.turn}
	if err := promote.do(g); err != nil {
		for i := len(actions) - 1; i >= 0; i-- {
			actions[i].undo(g)
		}
		g.refreshAirDefense()
		return Command{}, err
	}
	actions = append(actions, promote)
	cmd := Command{Move: m, Actions: actions}

	if g.activeDeploy == nil {
		g.activeDeploy = &DeploySession{
			StackSquare:   m.From,
			Turn:          g.turn,
			OriginalPiece: *originalSnapshot,
			StartFEN:      startFEN,
		}
	}
	g.activeDeploy.Commands = append(g.activeDeploy.Commands, cmd)
	g.invalidateMovesCache()
	return cmd, nil
}

// CommitDeploy finalizes the active session as one compound history entry.
// When switchTurn is true it also runs the StateUpdate (turn flip, clocks,
// position count); otherwise the turn stays with the deploying side.
func (g *Game) CommitDeploy(switchTurn bool) error {
	if g.activeDeploy == nil {
		return newErr(PreconditionFail, "commit_deploy: no active deploy session")
	}
	session := g.activeDeploy
	var allActions []action
	for _, c := range session.Commands {
		allActions = append(allActions, c.Actions...)
	}
	if switchTurn {
		captured := false
		for _, c := range session.Commands {
			if c.Move.Captured != nil {
				captured = true
			}
		}
		su := &stateUpdateAction{captured: captured}
		if err := su.do(g); err != nil {
			return err
		}
		allActions = append(allActions, su)
	}
	compound := Move{From: session.StackSquare, To: session.StackSquare, Kind: Normal, Piece: session.OriginalPiece, Deploy: true}
	g.history = append(g.history, Command{Move: compound, Actions: allActions})
	g.activeDeploy = nil
	g.refreshAirDefense()
	g.invalidateMovesCache()
	return nil
}

// CancelDeploy pops every session command in reverse, undoing each, and
// clears the session.
func (g *Game) CancelDeploy() {
	if g.activeDeploy == nil {
		return
	}
	for i := len(g.activeDeploy.Commands) - 1; i >= 0; i-- {
		g.activeDeploy.Commands[i].undo(g)
	}
	g.activeDeploy = nil
	g.refreshAirDefense()
	g.invalidateMovesCache()
}

// undoLastDeployStep pops and undoes the last session command; clears the
// session with no turn flip if it becomes empty.
func (g *Game) undoLastDeployStep() {
	if g.activeDeploy == nil || len(g.activeDeploy.Commands) == 0 {
		return
	}
	last := len(g.activeDeploy.Commands) - 1
	g.activeDeploy.Commands[last].undo(g)
	g.activeDeploy.Commands = g.activeDeploy.Commands[:last]
	if len(g.activeDeploy.Commands) == 0 {
		g.activeDeploy = nil
	}
	g.refreshAirDefense()
	g.invalidateMovesCache()
}
