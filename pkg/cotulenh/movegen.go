package cotulenh

// rayWalkState tracks blocking state while stepping outward along one ray.
type rayWalkState struct {
	blockedByFriendly bool
	blockedByEnemy    bool
}

func (s rayWalkState) blockedAtAll() bool { return s.blockedByFriendly || s.blockedByEnemy }

// GenerateMovesForPiece produces every pseudo-legal move for a single mover
// piece value standing (virtually) at `from`, against the current board and
// air-defense index. The board's actual occupant at `from` is irrelevant;
// only squares reached by stepping outward matter. Used both for whole-stack
// moves (mover = the stack) and individual deploy-step moves (mover = one
// flattened piece).
func GenerateMovesForPiece(g *Game, from Square, mover Piece) []Move {
	params := ParamsFor(mover.Kind, mover.Heroic)
	if params.MoveRange == 0 && params.CaptureRange == 0 {
		return nil
	}

	var moves []Move
	for _, dir := range selectedDirections(params) {
		moves = append(moves, walkRay(g, from, mover, params, dir)...)
	}
	return moves
}

func selectedDirections(params PieceParams) [][2]int {
	if params.Diagonal {
		return directions[:]
	}
	return directions[:4]
}

func walkRay(g *Game, from Square, mover Piece, params PieceParams, dir [2]int) []Move {
	var moves []Move
	state := rayWalkState{}
	diag := isDiagonal(dir[0], dir[1])

	prev := from
	for dist := 1; ; dist++ {
		cand := NewSquare(from.File()+dir[0]*dist, from.RankFromTop()+dir[1]*dist)
		if !cand.OnBoard() {
			break
		}

		if Heavy[mover.Kind] && heavyCrossingBlocked(prev, cand) {
			break
		}

		if mover.Kind == AirForce {
			outcome := AirForceStep(g.airDefense, mover.Color, from, cand)
			if outcome == Destroyed {
				break
			}
			if outcome == KamikazeStep {
				occupant := g.board.Get(cand)
				if occupant != nil && occupant.Color != mover.Color {
					captured := *occupant
					moves = append(moves, Move{From: from, To: cand, Kind: SuicideCapture, Piece: mover, Captured: &captured})
				}
				break
			}
		}

		occupant := g.board.Get(cand)
		standable := CanStand(cand, mover.Kind)

		if occupant == nil {
			if !standable {
				if !params.MoveIgnoresBlockers {
					break
				}
				prev = cand
				continue
			}
			if dist <= params.MoveRange && !state.blockedAtAll() {
				moves = append(moves, Move{From: from, To: cand, Kind: Normal, Piece: mover})
			}
			if state.blockedAtAll() && !params.MoveIgnoresBlockers {
				break
			}
			prev = cand
			continue
		}

		if occupant.Color == mover.Color {
			if dist <= params.MoveRange && !state.blockedAtAll() {
				if combined, ok := Combine(append(Flatten(mover), Flatten(*occupant)...)); ok {
					if CanStand(cand, combined.Kind) {
						moves = append(moves, Move{From: from, To: cand, Kind: Combination, Piece: mover, Combined: &combined})
					}
				}
			}
			if mover.Kind == Navy && navyOK(cand) {
				// Navy glides past a friendly occupant on water/mixed squares
				// instead of being blocked by it.
				prev = cand
				continue
			}
			state.blockedByFriendly = true
			if !params.MoveIgnoresBlockers {
				break
			}
			prev = cand
			continue
		}

		// Enemy occupant.
		effCap := effectiveCaptureRange(mover, params, diag, *occupant)
		commanderFacing := mover.Kind == Commander && occupant.Kind == Commander && !diag && !state.blockedAtAll()
		ignoreBlockers := params.CaptureIgnoresBlockers || (mover.Kind == Tank && !state.blockedByEnemy)

		inRange := dist <= effCap || commanderFacing
		canFire := inRange && (ignoreBlockers || !state.blockedAtAll())

		if canFire {
			captured := *occupant
			canLand := standable
			emittedStay := false
			if canLand {
				moves = append(moves, Move{From: from, To: cand, Kind: Capture, Piece: mover, Captured: &captured})
			}
			if !canLand || mover.Kind == AirForce {
				moves = append(moves, Move{From: from, To: cand, Kind: StayCapture, Piece: mover, Captured: &captured})
				emittedStay = true
			}
			_ = emittedStay
		}

		state.blockedByEnemy = true
		if !params.MoveIgnoresBlockers {
			break
		}
		prev = cand
	}
	return moves
}

// effectiveCaptureRange applies the Missile diagonal penalty and the Navy
// vs-land penalty on top of the base capture range.
func effectiveCaptureRange(mover Piece, params PieceParams, diag bool, target Piece) int {
	r := params.CaptureRange
	if diag {
		r -= params.DiagonalCapPenalty
	}
	if mover.Kind == Navy && target.Kind != Navy {
		r--
	}
	return r
}

// GenerateAllMoves returns every pseudo-legal move available to `color`,
// including whole-stack moves and, where a stack carries other pieces,
// deploy-step and recombine moves. If a deploy session is active for
// `color`, only moves from the session's stack square are produced, limited
// to the session's remaining pieces.
func GenerateAllMoves(g *Game, color Color) []Move {
	var all []Move
	if g.activeDeploy != nil && g.activeDeploy.Turn == color {
		all = append(all, generateDeployMoves(g, g.activeDeploy.StackSquare, g.activeDeploy.Remaining())...)
		return all
	}

	g.board.Occupants(func(sq Square, p *Piece) {
		if p.Color != color {
			return
		}
		all = append(all, GenerateMovesForPiece(g, sq, *p)...)
		if p.IsStack() {
			all = append(all, generateDeployMoves(g, sq, Flatten(*p))...)
		}
	})
	return all
}

// MovesForSquare returns pseudo-legal moves originating at sq.
func MovesForSquare(g *Game, sq Square) []Move {
	p := g.board.Get(sq)
	if p == nil || p.Color != g.turn {
		return nil
	}
	if g.activeDeploy != nil {
		if g.activeDeploy.StackSquare != sq || g.activeDeploy.Turn != g.turn {
			return nil
		}
		return generateDeployMoves(g, sq, g.activeDeploy.Remaining())
	}
	moves := GenerateMovesForPiece(g, sq, *p)
	if p.IsStack() {
		moves = append(moves, generateDeployMoves(g, sq, Flatten(*p))...)
	}
	return moves
}

// generateDeployMoves produces Deploy-tagged moves for each piece still
// available to deploy from `sq`, plus DEPLOY+COMBINATION ("recombine")
// moves onto a square already holding an earlier deploy step's piece.
func generateDeployMoves(g *Game, sq Square, remaining []Piece) []Move {
	var out []Move
	for _, piece := range remaining {
		base := GenerateMovesForPiece(g, sq, piece)
		for _, m := range base {
			m.Deploy = true
			out = append(out, m)
		}
		out = append(out, recombineMoves(g, sq, piece)...)
	}
	return out
}

// recombineMoves finds squares already holding a piece deployed earlier this
// turn from the same stack that `piece` could combine with.
func recombineMoves(g *Game, sq Square, piece Piece) []Move {
	if g.activeDeploy == nil {
		return nil
	}
	var out []Move
	for _, to := range g.activeDeploy.DeployedSquares() {
		if to == sq {
			continue
		}
		occupant := g.board.Get(to)
		if occupant == nil || occupant.Color != piece.Color {
			continue
		}
		combined, ok := Combine(append(Flatten(*occupant), piece))
		if !ok {
			continue
		}
		if !CanStand(to, combined.Kind) {
			continue
		}
		out = append(out, Move{From: sq, To: to, Kind: Combination, Piece: piece, Combined: &combined, Deploy: true, Recombine: true})
	}
	return out
}
