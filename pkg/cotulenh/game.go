package cotulenh

// MoveRequest describes a move lookup by structured fields, the alternative
// to a SAN string.
type MoveRequest struct {
	SAN    string
	From   *Square
	To     *Square
	Piece  *PieceKind
	Stay   *bool
	Deploy *bool
}

// Move resolves a move request (SAN or structured) against the legal move
// set and commits it.
func (g *Game) Move(req MoveRequest) (*Move, error) {
	var candidates []Move
	if req.SAN != "" {
		legal := g.Moves(moveFilter{})
		m, err := ParseSAN(req.SAN, legal)
		if err != nil {
			return nil, err
		}
		candidates = []Move{m}
	} else {
		f := moveFilter{kind: req.Piece}
		if req.From != nil {
			f.square = req.From
		}
		candidates = filterByRequest(g.Moves(f), req)
	}

	switch len(candidates) {
	case 0:
		return nil, newErr(IllegalMove, "no legal move matches request")
	case 1:
		return g.commitMove(candidates[0])
	default:
		return nil, ambiguousErr("multiple legal moves match request", BuildSANList(candidates))
	}
}

func filterByRequest(moves []Move, req MoveRequest) []Move {
	out := moves[:0:0]
	for _, m := range moves {
		if req.To != nil && m.To != *req.To {
			continue
		}
		if req.Stay != nil && (m.Kind == StayCapture) != *req.Stay {
			continue
		}
		if req.Deploy != nil && m.Deploy != *req.Deploy {
			continue
		}
		out = append(out, m)
	}
	return out
}

// commitMove routes a single legal move through the deploy-session machinery
// (if Deploy is set) or the plain commit path, auto-committing a session
// whose remaining set becomes empty.
func (g *Game) commitMove(m Move) (*Move, error) {
	if m.Deploy {
		cmd, err := g.beginOrContinueDeploy(m)
		if err != nil {
			return nil, err
		}
		if len(g.activeDeploy.Remaining()) == 0 {
			if err := g.CommitDeploy(true); err != nil {
				return nil, err
			}
		}
		result := cmd.Move
		return &result, nil
	}
	return g.commitPlain(m)
}

func (g *Game) commitPlain(m Move) (*Move, error) {
	actions := compileMove(m)
	if err := g.runActions(actions); err != nil {
		return nil, err
	}
	g.refreshAirDefense()

	promote := &promoteAttackersAction{mover: g.turn}
	_ = promote.do(g)
	actions = append(actions, promote)

	su := &stateUpdateAction{captured: m.Captured != nil}
	if err := su.do(g); err != nil {
		for i := len(actions) - 1; i >= 0; i-- {
			actions[i].undo(g)
		}
		g.refreshAirDefense()
		return nil, err
	}
	actions = append(actions, su)

	g.history = append(g.history, Command{Move: m, Actions: actions})
	g.invalidateMovesCache()
	result := m
	return &result, nil
}

// DeployStepRequest names one piece-to-square step of a deploy_move call.
type DeployStepRequest struct {
	Piece PieceKind
	To    Square
}

// DeployRequest is the deploy_move({from, moves:[{piece,to}], stay?}).
type DeployRequest struct {
	From  Square
	Moves []DeployStepRequest
	Stay  bool
}

// DeployResult reports the steps actually executed and whether the session
// was committed as part of this call.
type DeployResult struct {
	Steps     []Move
	Committed bool
}

// DeployMove executes each requested step in order against the legal deploy
// moves available at that point, then commits if `stay` was requested (to
// finalize a partial deployment) or if the stack's remaining set is now
// empty.
func (g *Game) DeployMove(req DeployRequest) (*DeployResult, error) {
	result := &DeployResult{}
	from := req.From
	for _, step := range req.Moves {
		legal := g.Moves(moveFilter{square: &from})
		var chosen *Move
		for i := range legal {
			if legal[i].Deploy && legal[i].Piece.Kind == step.Piece && legal[i].To == step.To {
				chosen = &legal[i]
				break
			}
		}
		if chosen == nil {
			return nil, newErr(IllegalMove, "no legal deploy step for %s to %s", step.Piece, step.To)
		}
		committed, err := g.commitMove(*chosen)
		if err != nil {
			return nil, err
		}
		result.Steps = append(result.Steps, *committed)
		if g.activeDeploy == nil {
			result.Committed = true
			return result, nil
		}
	}
	if req.Stay {
		if err := g.CommitDeploy(true); err != nil {
			return nil, err
		}
		result.Committed = true
	}
	return result, nil
}

// Undo undoes the last deploy step within an active session, or the last
// committed move otherwise.
func (g *Game) Undo() error {
	if g.activeDeploy != nil {
		g.undoLastDeployStep()
		return nil
	}
	if len(g.history) == 0 {
		return newErr(PreconditionFail, "no move to undo")
	}
	last := g.history[len(g.history)-1]
	last.undo(g)
	g.history = g.history[:len(g.history)-1]
	g.refreshAirDefense()
	g.invalidateMovesCache()
	return nil
}
