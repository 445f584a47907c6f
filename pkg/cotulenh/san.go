package cotulenh

import "strings"

// BuildSANList renders SAN for a batch of moves together so disambiguation
// can be computed against the full set, matching the canonical-builder half
// of the "split into a canonical builder + two-phase parser" strategy.
func BuildSANList(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = buildSAN(m, moves)
	}
	return out
}

func buildSAN(m Move, siblings []Move) string {
	var b strings.Builder
	b.WriteByte(toUpper(m.Piece.Letter()))
	b.WriteString(disambiguation(m, siblings))

	if m.Deploy {
		b.WriteByte('>')
	}
	switch m.Kind {
	case Capture:
		b.WriteByte('x')
	case StayCapture:
		b.WriteByte('_')
	case SuicideCapture:
		b.WriteByte('@')
	case Combination:
		b.WriteByte('&')
	}
	b.WriteString(m.To.String())

	if m.Kind == Combination && m.Combined != nil {
		b.WriteByte('(')
		for i, p := range Flatten(*m.Combined) {
			if i > 0 {
				b.WriteByte('|')
			}
			b.WriteByte(p.Letter())
		}
		b.WriteByte(')')
	}

	switch {
	case m.Checkmate:
		b.WriteByte('#')
	case m.Check:
		b.WriteByte('^')
	}
	return b.String()
}

// disambiguation adds a from-file hint, else a from-rank hint, else the full
// from-square, when another sibling move shares this move's piece kind,
// color, deploy-ness and destination but a different origin.
func disambiguation(m Move, siblings []Move) string {
	sameFile, sameRank, collides := true, true, false
	for _, o := range siblings {
		if o.From == m.From || o.To != m.To || o.Piece.Kind != m.Piece.Kind ||
			o.Piece.Color != m.Piece.Color || o.Deploy != m.Deploy {
			continue
		}
		collides = true
		if o.From.File() == m.From.File() {
			sameFile = false
		}
		if o.From.RankNumber() == m.From.RankNumber() {
			sameRank = false
		}
	}
	if !collides {
		return ""
	}
	if sameFile {
		return string(rune('a' + m.From.File()))
	}
	if sameRank {
		return itoa(m.From.RankNumber())
	}
	return m.From.String()
}

// LAN prefixes the step SAN with "<fromSq>:" in place of disambiguation,
// by rule.
func LAN(m Move) string {
	return m.From.String() + ":" + buildSAN(m, nil)
}

// ParseSAN resolves a SAN/LAN string against the moves in `legal`,
// strict-exact-match first, then a permissive piece-letter +
// from-hint + separator + destination match.
func ParseSAN(s string, legal []Move) (Move, error) {
	sanList := BuildSANList(legal)
	for i, cand := range sanList {
		if cand == s || LAN(legal[i]) == s {
			return legal[i], nil
		}
	}

	parsed, ok := parsePermissive(s)
	if !ok {
		return Move{}, newErr(IllegalMove, "no legal move matches %q", s)
	}
	var matches []Move
	for _, m := range legal {
		if !permissiveMatches(parsed, m) {
			continue
		}
		matches = append(matches, m)
	}
	switch len(matches) {
	case 0:
		return Move{}, newErr(IllegalMove, "no legal move matches %q", s)
	case 1:
		return matches[0], nil
	default:
		cands := make([]string, len(matches))
		for i, m := range matches {
			cands[i] = buildSAN(m, legal)
		}
		return Move{}, ambiguousErr("multiple legal moves match "+s, cands)
	}
}

type permissiveSAN struct {
	letter     byte
	fromHint   string // empty, a file letter, a rank digit string, or a full square
	deploy     bool
	sep        byte // 'x', '_', '@', '&', or 0 for normal
	to         Square
}

func parsePermissive(s string) (permissiveSAN, bool) {
	if len(s) < 2 {
		return permissiveSAN{}, false
	}
	p := permissiveSAN{letter: s[0]}
	rest := s[1:]

	for len(rest) > 0 && rest[0] != '>' && !isSeparator(rest[0]) && !startsSquare(rest) {
		p.fromHint += string(rest[0])
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == '>' {
		p.deploy = true
		rest = rest[1:]
	}
	if len(rest) > 0 && isSeparator(rest[0]) {
		p.sep = rest[0]
		rest = rest[1:]
	}
	rest = strings.TrimRight(rest, "^#")
	if idx := strings.IndexByte(rest, '('); idx >= 0 {
		rest = rest[:idx]
	}
	sq, ok := ParseSquare(rest)
	if !ok {
		return permissiveSAN{}, false
	}
	p.to = sq
	return p, true
}

func isSeparator(b byte) bool {
	return b == 'x' || b == '_' || b == '@' || b == '&'
}

func startsSquare(s string) bool {
	if len(s) == 0 {
		return false
	}
	return s[0] >= 'a' && s[0] <= 'z' && len(s) > 1 && s[1] >= '0' && s[1] <= '9'
}

func permissiveMatches(p permissiveSAN, m Move) bool {
	if m.Piece.Letter() != p.letter && toUpper(m.Piece.Letter()) != toUpper(p.letter) {
		return false
	}
	if m.To != p.to || m.Deploy != p.deploy {
		return false
	}
	if p.sep != 0 {
		wantKind := map[byte]MoveKind{'x': Capture, '_': StayCapture, '@': SuicideCapture, '&': Combination}[p.sep]
		if m.Kind != wantKind {
			return false
		}
	} else if m.Kind != Normal {
		return false
	}
	if p.fromHint == "" {
		return true
	}
	if len(p.fromHint) == 1 && p.fromHint[0] >= 'a' && p.fromHint[0] <= 'k' {
		return m.From.File() == int(p.fromHint[0]-'a')
	}
	if sq, ok := ParseSquare(p.fromHint); ok {
		return m.From == sq
	}
	return itoa(m.From.RankNumber()) == p.fromHint
}
