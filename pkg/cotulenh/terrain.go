package cotulenh

// Board geometry: 11 files (a..k) by 12 ranks. A Square packs rank-from-top
// into the high nibble and file into the low nibble, exactly as specified.
const (
	NumFiles = 11
	NumRanks = 12
)

// Square is a packed board coordinate: (rankFromTop<<4)|file.
type Square int

// NoSquare marks an absent location (e.g. a captured commander).
const NoSquare Square = -1

// NewSquare builds a Square from a zero-based file (0=a) and rank-from-top
// (0 = rank 12, Blue's back rank, the first row in FEN order).
func NewSquare(file, rankFromTop int) Square {
	return Square((rankFromTop << 4) | file)
}

// File returns the zero-based file (0=a .. 10=k).
func (s Square) File() int { return int(s) & 0x0F }

// RankFromTop returns the zero-based rank counted from rank 12 downward.
func (s Square) RankFromTop() int { return int(s) >> 4 }

// RankNumber returns the 1-based rank number (1 at the bottom, 12 at the top).
func (s Square) RankNumber() int { return NumRanks - s.RankFromTop() }

// OnBoard reports whether the square lies within the 11x12 grid.
func (s Square) OnBoard() bool {
	f, r := s.File(), s.RankFromTop()
	return f >= 0 && f < NumFiles && r >= 0 && r < NumRanks
}

// String renders the algebraic form, e.g. "c5" or "k1".
func (s Square) String() string {
	if !s.OnBoard() {
		return "-"
	}
	return string(rune('a'+s.File())) + itoa(s.RankNumber())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ParseSquare parses algebraic notation like "c5" back into a Square.
func ParseSquare(s string) (Square, bool) {
	if len(s) < 2 || len(s) > 3 {
		return NoSquare, false
	}
	file := int(s[0] - 'a')
	if file < 0 || file >= NumFiles {
		return NoSquare, false
	}
	rankNum := 0
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return NoSquare, false
		}
		rankNum = rankNum*10 + int(c-'0')
	}
	if rankNum < 1 || rankNum > NumRanks {
		return NoSquare, false
	}
	sq := NewSquare(file, NumRanks-rankNum)
	return sq, true
}

// riverSquares are the four mixed-terrain squares at files 3-4, ranks 5-6
// (rank numbers), reachable by both land and navy pieces.
var riverSquares = func() map[Square]bool {
	m := make(map[Square]bool, 4)
	for _, file := range []int{3, 4} {
		for _, rankNum := range []int{5, 6} {
			m[NewSquare(file, NumRanks-rankNum)] = true
		}
	}
	return m
}()

// navyOK reports whether a Navy piece can stand on the square: pure water
// (files 0-1), mixed water (file 2), or one of the four river squares.
func navyOK(s Square) bool {
	f := s.File()
	if f <= 2 {
		return true
	}
	return riverSquares[s]
}

// landOK reports whether a land piece can stand on the square: file >= 2
// (mixed water at file 2 counts as landable).
func landOK(s Square) bool {
	return s.File() >= 2
}

// CanStand reports whether a piece of the given kind may occupy the square.
func CanStand(s Square, kind PieceKind) bool {
	if kind == Navy {
		return navyOK(s)
	}
	return landOK(s)
}

// bridgeFiles are the two file indices (f5, f7) that act as crossing points
// for heavy pieces moving between the upper and lower half of the board.
var bridgeFiles = map[int]bool{5: true, 7: true}

// heavyCrossingBlocked reports whether a single step of a heavy piece
// (Artillery/AntiAir/Missile) from "from" to an adjacent square "to" is
// blocked by the river. The crossing is only permitted when it runs along
// file 5 or file 7 (the bridge columns); any other rank-5/rank-6 boundary
// crossing at file >= 2 is blocked.
func heavyCrossingBlocked(from, to Square) bool {
	if from.File() < 2 || to.File() < 2 {
		return false
	}
	fromUpper := from.RankNumber() <= 5
	toUpper := to.RankNumber() <= 5
	if fromUpper == toUpper {
		return false // did not cross the boundary this step
	}
	if from.File() != to.File() {
		return true
	}
	return !bridgeFiles[from.File()]
}

// stepDirection returns the signed (fileStep, rankStep) unit for a ray from
// a to b, assuming they lie on a common rank, file, or diagonal.
func stepDirection(a, b Square) (int, int) {
	df := sign(b.File() - a.File())
	dr := sign(b.RankFromTop() - a.RankFromTop())
	return df, dr
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

// directions enumerates the eight unit rays from a square.
var directions = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

func isDiagonal(df, dr int) bool {
	return df != 0 && dr != 0
}
