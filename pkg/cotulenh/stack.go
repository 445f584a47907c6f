package cotulenh

// MaxStackSize bounds a carrier plus its carried pieces. The real stack
// compatibility rule is domain-defined; the core only needs a finite
// bound so all_splits stays enumerable.
const MaxStackSize = 3

// carrierCapacity is the stack-compatibility table: which kinds a given
// carrier kind may carry. Pieces not listed as a key cannot carry anything.
// The exact set of legal compositions is a judgment call; see DESIGN.md.
var carrierCapacity = map[PieceKind]map[PieceKind]bool{
	Tank: setOf(Infantry, Engineer, Militia, AntiAir, Commander),
	Navy: setOf(Infantry, Tank, Engineer, Militia, AntiAir, Artillery, Missile, Headquarter, Commander),
}

func setOf(kinds ...PieceKind) map[PieceKind]bool {
	m := make(map[PieceKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

// Flatten returns the carrier alone plus each carried piece, each as a
// standalone (carry-less) Piece value.
func Flatten(p Piece) []Piece {
	out := make([]Piece, 0, 1+len(p.Carried))
	carrier := p
	carrier.Carried = nil
	out = append(out, carrier)
	for _, c := range p.Carried {
		c.Carried = nil
		out = append(out, c)
	}
	return out
}

// Combine attempts to merge a list of same-color single pieces into one
// legal carrier stack. Returns (Piece{}, false) if the list is empty, the
// colors differ, the result would exceed MaxStackSize, or no member of the
// list is a legal carrier for the rest.
func Combine(pieces []Piece) (Piece, bool) {
	if len(pieces) == 0 {
		return Piece{}, false
	}
	if len(pieces) > MaxStackSize {
		return Piece{}, false
	}
	color := pieces[0].Color
	for _, p := range pieces {
		if p.Color != color {
			return Piece{}, false
		}
		if p.IsStack() {
			return Piece{}, false
		}
	}
	if len(pieces) == 1 {
		return pieces[0], true
	}

	for i, carrier := range pieces {
		capacity, ok := carrierCapacity[carrier.Kind]
		if !ok {
			continue
		}
		ok2 := true
		var carried []Piece
		for j, p := range pieces {
			if j == i {
				continue
			}
			if !capacity[p.Kind] {
				ok2 = false
				break
			}
			carried = append(carried, p)
		}
		if ok2 {
			result := carrier
			result.Carried = carried
			return result, true
		}
	}
	return Piece{}, false
}

// RemoveFrom removes one piece (matched by kind) from a stack, returning the
// remaining carrier+stack (possibly a single piece) or (Piece{}, false) if
// the stack becomes empty.
func RemoveFrom(stack Piece, kind PieceKind) (Piece, bool) {
	if stack.Kind == kind {
		if len(stack.Carried) == 0 {
			return Piece{}, false
		}
		// The carrier itself leaves; promote the first carried piece to carrier
		// if it is capable, otherwise recombine the remainder.
		remaining := stack.Carried
		result, ok := Combine(remaining)
		return result, ok
	}
	var remaining []Piece
	removed := false
	for _, c := range stack.Carried {
		if !removed && c.Kind == kind {
			removed = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !removed {
		return stack, false
	}
	if len(remaining) == 0 {
		carrier := stack
		carrier.Carried = nil
		return carrier, true
	}
	carrier := stack
	carrier.Carried = remaining
	return carrier, true
}

// AllSplits returns every way to partition a stack's flattened pieces into
// disjoint, individually-combinable sub-stacks. Deploy move generation works
// piece-at-a-time off the session's remaining set instead of enumerating
// whole splits up front, so this is the standalone combinatorial building
// block for that enumeration rather than something it calls directly.
func AllSplits(stack Piece) [][]Piece {
	flat := Flatten(stack)
	if len(flat) == 1 {
		return [][]Piece{{flat[0]}}
	}
	var results [][]Piece
	partitions(flat, nil, &results)
	return results
}

// partitions enumerates set partitions of items (order-insensitive within a
// part) where each part independently combines into a stack.
func partitions(items []Piece, current [][]Piece, results *[][]Piece) {
	if len(items) == 0 {
		flatParts := make([]Piece, 0, len(current))
		for _, part := range current {
			if len(part) == 1 {
				flatParts = append(flatParts, part[0])
				continue
			}
			combined, ok := Combine(part)
			if !ok {
				return
			}
			flatParts = append(flatParts, combined)
		}
		*results = append(*results, flatParts)
		return
	}

	first := items[0]
	rest := items[1:]

	// Try adding first to each existing part.
	for i, part := range current {
		newPart := append(append([]Piece{}, part...), first)
		newCurrent := append(append([][]Piece{}, current[:i]...), append([][]Piece{newPart}, current[i+1:]...)...)
		partitions(rest, newCurrent, results)
	}
	// Try first as its own new part.
	newCurrent := append(append([][]Piece{}, current...), []Piece{first})
	partitions(rest, newCurrent, results)
}
