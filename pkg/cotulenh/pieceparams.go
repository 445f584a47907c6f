package cotulenh

// Infinite marks an unbounded slide range (the Commander's move range).
const Infinite = -1

// PieceParams holds the per-piece movement parameters, after any heroic
// modification has been applied.
type PieceParams struct {
	MoveRange              int
	CaptureRange           int
	Diagonal               bool
	CaptureIgnoresBlockers bool
	MoveIgnoresBlockers    bool
	// DiagonalCapPenalty shaves the diagonal capture range relative to the
	// orthogonal one (Missile: diagonal range = move_range - 1).
	DiagonalCapPenalty int
}

var baseParams = map[PieceKind]PieceParams{
	Commander:   {MoveRange: Infinite, CaptureRange: 1},
	Infantry:    {MoveRange: 1, CaptureRange: 1},
	Engineer:    {MoveRange: 1, CaptureRange: 1},
	AntiAir:     {MoveRange: 1, CaptureRange: 1},
	Militia:     {MoveRange: 1, CaptureRange: 1, Diagonal: true},
	Tank:        {MoveRange: 2, CaptureRange: 2},
	Artillery:   {MoveRange: 3, CaptureRange: 3, Diagonal: true, CaptureIgnoresBlockers: true},
	Missile:     {MoveRange: 2, CaptureRange: 2, Diagonal: true, CaptureIgnoresBlockers: true, DiagonalCapPenalty: 1},
	AirForce:    {MoveRange: 4, CaptureRange: 4, Diagonal: true, CaptureIgnoresBlockers: true, MoveIgnoresBlockers: true},
	Navy:        {MoveRange: 4, CaptureRange: 4, Diagonal: true, CaptureIgnoresBlockers: true},
	Headquarter: {MoveRange: 0, CaptureRange: 0},
}

// ParamsFor returns the effective movement parameters for a piece, folding
// in the heroic modification: +1 to move/capture range (infinite stays
// infinite), diagonals enabled, and Headquarter specifically promoted to a
// 1/1 mover.
func ParamsFor(kind PieceKind, heroic bool) PieceParams {
	p := baseParams[kind]
	if !heroic {
		return p
	}
	if kind == Headquarter {
		return PieceParams{MoveRange: 1, CaptureRange: 1}
	}
	if p.MoveRange != Infinite {
		p.MoveRange++
	}
	p.CaptureRange++
	p.Diagonal = true
	return p
}
