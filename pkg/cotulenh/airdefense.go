package cotulenh

// AirDefenseIndex maps, per color, each covered square to the set of that
// color's AD-contributor squares responsible for the coverage.
type AirDefenseIndex struct {
	coverage map[Color]map[Square]map[Square]bool
}

// NewAirDefenseIndex returns an empty index.
func NewAirDefenseIndex() *AirDefenseIndex {
	return &AirDefenseIndex{coverage: map[Color]map[Square]map[Square]bool{
		Red:  {},
		Blue: {},
	}}
}

// Clone returns a deep copy.
func (idx *AirDefenseIndex) Clone() *AirDefenseIndex {
	out := NewAirDefenseIndex()
	for color, m := range idx.coverage {
		cm := make(map[Square]map[Square]bool, len(m))
		for sq, sources := range m {
			cs := make(map[Square]bool, len(sources))
			for s := range sources {
				cs[s] = true
			}
			cm[sq] = cs
		}
		out.coverage[color] = cm
	}
	return out
}

// Sources returns the set of AD-contributor squares of color covering sq.
func (idx *AirDefenseIndex) Sources(color Color, sq Square) map[Square]bool {
	return idx.coverage[color][sq]
}

// Influence returns, for each covered square of color, the list of
// contributor squares responsible (used by Game.AirDefenseInfluence).
func (idx *AirDefenseIndex) Influence(color Color) map[Square][]Square {
	out := make(map[Square][]Square)
	for sq, sources := range idx.coverage[color] {
		list := make([]Square, 0, len(sources))
		for s := range sources {
			list = append(list, s)
		}
		out[sq] = list
	}
	return out
}

// Recompute rebuilds the coverage map for one color from scratch by scanning
// the board for that color's AD contributors (Missile/Navy/AntiAir).
// Called whenever an AD-contributor of that color is placed, removed, or has
// its heroic flag change.
func (idx *AirDefenseIndex) Recompute(b *Board, color Color) {
	fresh := make(map[Square]map[Square]bool)
	b.Occupants(func(sq Square, p *Piece) {
		if p.Color != color {
			return
		}
		addContribution(fresh, sq, p.Kind, p.Heroic)
		for _, carried := range p.Carried {
			addContribution(fresh, sq, carried.Kind, carried.Heroic)
		}
	})
	idx.coverage[color] = fresh
}

func addContribution(into map[Square]map[Square]bool, sq Square, kind PieceKind, heroic bool) {
	level := (Piece{Kind: kind, Heroic: heroic}).AirDefenseLevel()
	if level == 0 {
		return
	}
	for _, target := range coveredSquares(sq, level) {
		if into[target] == nil {
			into[target] = make(map[Square]bool)
		}
		into[target][sq] = true
	}
}

// coveredSquares returns every square an AD-contributor at s with level L
// covers: orthogonal out to distance L, diagonal out to distance max(0,L-1).
func coveredSquares(s Square, level int) []Square {
	out := []Square{s}
	orthoDirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, d := range orthoDirs {
		for dist := 1; dist <= level; dist++ {
			cand := NewSquare(s.File()+d[0]*dist, s.RankFromTop()+d[1]*dist)
			if !cand.OnBoard() {
				break
			}
			out = append(out, cand)
		}
	}
	diagMax := level - 1
	if diagMax < 0 {
		diagMax = 0
	}
	diagDirs := [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for _, d := range diagDirs {
		for dist := 1; dist <= diagMax; dist++ {
			cand := NewSquare(s.File()+d[0]*dist, s.RankFromTop()+d[1]*dist)
			if !cand.OnBoard() {
				break
			}
			out = append(out, cand)
		}
	}
	return out
}

// AirForceStepOutcome classifies what happens to an Air-Force piece arriving
// at one step of its travel ray, by rule.
type AirForceStepOutcome int

const (
	SafePass AirForceStepOutcome = iota
	KamikazeStep
	Destroyed
)

// AirForceStep evaluates the outcome for an Air-Force of color mover sliding
// from s0 and currently evaluating square cur, against the enemy AD index.
func AirForceStep(idx *AirDefenseIndex, mover Color, s0, cur Square) AirForceStepOutcome {
	enemy := mover.Opponent()
	atOrigin := idx.Sources(enemy, s0)
	atCurrent := idx.Sources(enemy, cur)

	z := 0
	for src := range atCurrent {
		if !atOrigin[src] {
			z++
		}
	}

	switch {
	case z >= 2:
		return Destroyed
	case z == 1:
		return KamikazeStep
	default:
		return SafePass
	}
}
