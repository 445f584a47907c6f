package cotulenh

// Game is the single in-process API object: board, clocks, history,
// the air-defense index, and any in-progress deploy session all live here
// as plain fields — no module-level mutable state, so copying a Game
// copies everything it needs.
type Game struct {
	board          *Board
	turn           Color
	halfMoveClock  int
	moveNumber     int
	positionCounts map[string]int
	airDefense     *AirDefenseIndex
	activeDeploy   *DeploySession
	history        []Command

	movesCache map[string][]Move
}

// New returns a fresh Game, loaded from fen if given, otherwise from
// DefaultPosition.
func New(fen string) (*Game, error) {
	g := &Game{
		board:          NewBoard(),
		turn:           Red,
		positionCounts: map[string]int{},
		airDefense:     NewAirDefenseIndex(),
		movesCache:     map[string][]Move{},
	}
	if fen == "" {
		fen = DefaultPosition
	}
	if err := g.LoadFEN(fen); err != nil {
		return nil, err
	}
	return g, nil
}

// Clear empties the board to an otherwise-valid, piece-less position.
func (g *Game) Clear() {
	g.board = NewBoard()
	g.turn = Red
	g.halfMoveClock = 0
	g.moveNumber = 1
	g.positionCounts = map[string]int{}
	g.airDefense = NewAirDefenseIndex()
	g.activeDeploy = nil
	g.history = nil
	g.invalidateMovesCache()
}

// Clone deep-copies the entire game, required by callers doing exploratory
// search outside the single-threaded exclusive-ownership model.
func (g *Game) Clone() *Game {
	cp := &Game{
		board:          g.board.Clone(),
		turn:           g.turn,
		halfMoveClock:  g.halfMoveClock,
		moveNumber:     g.moveNumber,
		positionCounts: make(map[string]int, len(g.positionCounts)),
		airDefense:     g.airDefense.Clone(),
		activeDeploy:   g.activeDeploy.Clone(),
		history:        append([]Command(nil), g.history...),
		movesCache:     map[string][]Move{},
	}
	for k, v := range g.positionCounts {
		cp.positionCounts[k] = v
	}
	return cp
}

func (g *Game) invalidateMovesCache() {
	g.movesCache = map[string][]Move{}
}

// Turn returns the color to move.
func (g *Game) Turn() Color { return g.turn }

// InDeploySession reports whether a deploy session is currently open.
func (g *Game) InDeploySession() bool { return g.activeDeploy != nil }

// DeployOrigin returns the stack square of the active deploy session.
func (g *Game) DeployOrigin() (Square, bool) {
	if g.activeDeploy == nil {
		return NoSquare, false
	}
	return g.activeDeploy.StackSquare, true
}

// MoveNumber returns the current full-move number.
func (g *Game) MoveNumber() int { return g.moveNumber }

// Put places piece on sq, optionally combining with an existing same-color
// occupant.
func (g *Game) Put(p Piece, sq Square, allowCombine bool) bool {
	ok := g.board.Put(p, sq, allowCombine)
	if ok {
		g.refreshAirDefense()
		g.invalidateMovesCache()
	}
	return ok
}

// Remove removes and returns the occupant of sq, if any.
func (g *Game) Remove(sq Square) *Piece {
	p := g.board.Remove(sq)
	if p != nil {
		g.refreshAirDefense()
		g.invalidateMovesCache()
	}
	return p
}

// Get returns the occupant of sq (or its carried piece of kind, if kind is non-nil).
func (g *Game) Get(sq Square, kind *PieceKind) *Piece {
	if kind == nil {
		return g.board.Get(sq)
	}
	return g.board.GetKind(sq, *kind)
}

// Board returns a 12x11 matrix of cells (rank 12 first, file a first),
// nil for an empty square.
func (g *Game) Board() [][]*Piece {
	out := make([][]*Piece, NumRanks)
	for r := 0; r < NumRanks; r++ {
		row := make([]*Piece, NumFiles)
		for f := 0; f < NumFiles; f++ {
			if p := g.board.Get(NewSquare(f, r)); p != nil {
				cp := *p
				row[f] = &cp
			}
		}
		out[r] = row
	}
	return out
}

// moveFilter selects which pseudo-legal moves Moves() returns.
type moveFilter struct {
	square *Square
	kind   *PieceKind
}

// cacheKey folds in the active deploy session's stack square, turn, and
// command count, per the cache-key requirement.
func (g *Game) cacheKey(f moveFilter) string {
	key := g.FEN()
	if f.square != nil {
		key += "|sq=" + f.square.String()
	}
	if f.kind != nil {
		key += "|kind=" + f.kind.String()
	}
	if g.activeDeploy != nil {
		key += "|deploy=" + g.activeDeploy.StackSquare.String() + ":" + g.activeDeploy.Turn.String() + ":" + itoa(len(g.activeDeploy.Commands))
	}
	return key
}

// Moves returns every legal move (optionally restricted to one origin
// square and/or piece kind), with Check/Checkmate annotated.
func (g *Game) Moves(f moveFilter) []Move {
	key := g.cacheKey(f)
	if cached, ok := g.movesCache[key]; ok {
		return cached
	}

	var pseudo []Move
	if f.square != nil {
		pseudo = MovesForSquare(g, *f.square)
	} else {
		pseudo = GenerateAllMoves(g, g.turn)
	}
	if f.kind != nil {
		filtered := pseudo[:0:0]
		for _, m := range pseudo {
			if m.Piece.Kind == *f.kind {
				filtered = append(filtered, m)
			}
		}
		pseudo = filtered
	}

	legal := FilterLegal(g, pseudo, g.turn)
	g.annotateChecks(legal)
	g.movesCache[key] = legal
	return legal
}

// annotateChecks fills in Check/Checkmate for each move by applying it as a
// throwaway against the opponent's Commander.
func (g *Game) annotateChecks(moves []Move) {
	for i := range moves {
		sessionSnapshot := g.activeDeploy.Clone()
		actions := compileMove(moves[i])
		if err := g.runActions(actions); err != nil {
			g.activeDeploy = sessionSnapshot
			continue
		}
		g.refreshAirDefense()
		opp := g.turn.Opponent()
		oppCommander := g.board.CommanderSquare(opp)
		if oppCommander != NoSquare && IsAttacked(g, oppCommander, g.turn) {
			moves[i].Check = true
			if len(FilterLegal(g, GenerateAllMoves(g, opp), opp)) == 0 {
				moves[i].Checkmate = true
			}
		}
		for j := len(actions) - 1; j >= 0; j-- {
			actions[j].undo(g)
		}
		g.refreshAirDefense()
		g.activeDeploy = sessionSnapshot
	}
}

// InCheck reports whether the side to move's Commander is currently attacked.
func (g *Game) InCheck() bool {
	sq := g.board.CommanderSquare(g.turn)
	if sq == NoSquare {
		return false
	}
	return IsAttacked(g, sq, g.turn.Opponent())
}

// IsCheckmate reports check with no legal reply.
func (g *Game) IsCheckmate() bool {
	return g.InCheck() && len(g.Moves(moveFilter{})) == 0
}

// IsDraw reports the fifty-move rule or threefold repetition.
func (g *Game) IsDraw() bool {
	if g.halfMoveClock >= 100 {
		return true
	}
	for _, count := range g.positionCounts {
		if count >= 3 {
			return true
		}
	}
	return false
}

// IsGameOver reports checkmate, stalemate (no legal moves, not in check), or
// a draw condition.
func (g *Game) IsGameOver() bool {
	if len(g.Moves(moveFilter{})) == 0 {
		return true
	}
	return g.IsDraw()
}

// History returns the committed move list.
func (g *Game) History() []Move {
	out := make([]Move, len(g.history))
	for i, c := range g.history {
		out[i] = c.Move
	}
	return out
}

// Attackers returns every piece of `by` that attacks target.
func (g *Game) Attackers(target Square, by Color) []Attacker {
	return Attackers(g, target, by)
}

// AirDefenseInfluence returns, per color, each covered square mapped to its
// contributor squares.
func (g *Game) AirDefenseInfluence() map[Color]map[Square][]Square {
	return map[Color]map[Square][]Square{
		Red:  g.airDefense.Influence(Red),
		Blue: g.airDefense.Influence(Blue),
	}
}
