package cotulenh

// Attacker describes one piece that can reach target with a capturing move
//, named by its origin square and kind rather than a full Move so
// callers aren't forced through move generation for a simple existence check.
type Attacker struct {
	From Square
	Kind PieceKind
	Heroic bool
}

// Attackers returns every piece of `by` that can capture (Capture or
// StayCapture; a SuicideCapture still counts as an attack for check purposes)
// onto `target`, by scanning outward from target along all 8 rays up to the
// longest capture range in play, the mirror of the forward ray walk in
// movegen.go. Used for in-check detection, commander-facing evaluation, and
// heroic promotion of the pieces attacking the enemy Commander.
func Attackers(g *Game, target Square, by Color) []Attacker {
	var out []Attacker
	for _, dir := range directions {
		out = append(out, attackersAlongRay(g, target, by, dir)...)
	}
	return out
}

// IsAttacked reports whether any piece of `by` attacks target.
func IsAttacked(g *Game, target Square, by Color) bool {
	for _, dir := range directions {
		if attackAlongRayExists(g, target, by, dir) {
			return true
		}
	}
	return false
}

func attackAlongRayExists(g *Game, target Square, by Color, dir [2]int) bool {
	return len(attackersAlongRay(g, target, by, dir)) > 0
}

// attackersAlongRay walks outward from target (the reverse of a piece's own
// ray) along one direction, and for each occupied square found, checks
// whether that piece's own forward move generation would produce a
// capture/stay-capture/suicide-capture back onto target. This correctly
// folds in every range/blocking/terrain rule movegen.go already encodes,
// without duplicating per-piece range tables here.
func attackersAlongRay(g *Game, target Square, by Color, dir [2]int) []Attacker {
	back := [2]int{-dir[0], -dir[1]}
	var out []Attacker
	for dist := 1; ; dist++ {
		cand := NewSquare(target.File()+dir[0]*dist, target.RankFromTop()+dir[1]*dist)
		if !cand.OnBoard() {
			break
		}
		occupant := g.board.Get(cand)
		if occupant == nil {
			continue
		}
		if occupant.Color != by {
			// An occupied square does not end the scan: an attacker further
			// out may capture past it, and attacksTarget re-runs that
			// attacker's own ray walk, which applies its blocking rules.
			continue
		}
		for _, p := range stackMembers(*occupant) {
			if attacksTarget(g, cand, p, target, back) {
				out = append(out, Attacker{From: cand, Kind: p.Kind, Heroic: p.Heroic})
			}
		}
	}
	return out
}

// rayPassableBeyond reports whether any piece of the stack p is an Air-Force.
// The attacker scan does not call it: it always continues past occupied
// squares.
func rayPassableBeyond(p Piece) bool {
	for _, m := range stackMembers(p) {
		if m.Kind == AirForce {
			return true
		}
	}
	return false
}

func stackMembers(p Piece) []Piece {
	return Flatten(p)
}

// attacksTarget checks whether a single piece standing at `from` (part of a
// possibly larger stack) produces a capturing move onto `target` along the
// `back` direction, by re-running the forward ray walk from `from`.
func attacksTarget(g *Game, from Square, mover Piece, target Square, back [2]int) bool {
	params := ParamsFor(mover.Kind, mover.Heroic)
	dirs := selectedDirections(params)
	matches := false
	for _, d := range dirs {
		if d != back {
			continue
		}
		for _, m := range walkRay(g, from, mover, params, d) {
			if m.To == target && (m.Kind == Capture || m.Kind == StayCapture || m.Kind == SuicideCapture) {
				matches = true
			}
		}
	}
	return matches
}
