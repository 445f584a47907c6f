package cotulenh

import "testing"

func TestCombineTankAndInfantry(t *testing.T) {
	stack, ok := Combine([]Piece{
		{Kind: Tank, Color: Red},
		{Kind: Infantry, Color: Red},
	})
	if !ok {
		t.Fatalf("expected Tank to carry Infantry")
	}
	if stack.Kind != Tank || len(stack.Carried) != 1 || stack.Carried[0].Kind != Infantry {
		t.Fatalf("unexpected combined stack: %+v", stack)
	}
}

func TestCombineRejectsMixedColor(t *testing.T) {
	_, ok := Combine([]Piece{
		{Kind: Tank, Color: Red},
		{Kind: Infantry, Color: Blue},
	})
	if ok {
		t.Fatalf("expected mixed-color combine to fail")
	}
}

func TestCombineRejectsIncompatibleCarrier(t *testing.T) {
	_, ok := Combine([]Piece{
		{Kind: Infantry, Color: Red},
		{Kind: Artillery, Color: Red},
	})
	if ok {
		t.Fatalf("expected Infantry+Artillery to have no legal carrier")
	}
}

func TestFlattenRoundTripsThroughCombine(t *testing.T) {
	original := []Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}}
	stack, ok := Combine(original)
	if !ok {
		t.Fatalf("combine failed")
	}
	flat := Flatten(stack)
	if len(flat) != 2 {
		t.Fatalf("expected 2 flattened pieces, got %d", len(flat))
	}
	kinds := map[PieceKind]bool{flat[0].Kind: true, flat[1].Kind: true}
	if !kinds[Tank] || !kinds[Infantry] {
		t.Fatalf("flatten lost a piece kind: %+v", flat)
	}
}

func TestRemoveFromStackCarrierLeavesCarriedPromoted(t *testing.T) {
	stack, _ := Combine([]Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}})
	remaining, ok := RemoveFrom(stack, Tank)
	if !ok {
		t.Fatalf("expected removing the carrier to leave the carried piece standalone")
	}
	if remaining.Kind != Infantry || remaining.IsStack() {
		t.Fatalf("expected bare Infantry remaining, got %+v", remaining)
	}
}

func TestRemoveFromStackCarriedLeavesCarrierAlone(t *testing.T) {
	stack, _ := Combine([]Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}})
	remaining, ok := RemoveFrom(stack, Infantry)
	if !ok {
		t.Fatalf("expected removing the carried piece to succeed")
	}
	if remaining.Kind != Tank || remaining.IsStack() {
		t.Fatalf("expected bare Tank remaining, got %+v", remaining)
	}
}

func TestRemoveFromSinglePieceEmptiesStack(t *testing.T) {
	_, ok := RemoveFrom(Piece{Kind: Infantry, Color: Red}, Infantry)
	if ok {
		t.Fatalf("expected removing the sole occupant to report an empty stack")
	}
}

func TestAllSplitsSinglePiece(t *testing.T) {
	splits := AllSplits(Piece{Kind: Infantry, Color: Red})
	if len(splits) != 1 || len(splits[0]) != 1 {
		t.Fatalf("expected exactly one trivial split, got %v", splits)
	}
}

func TestAllSplitsStackIncludesFullyTogetherAndFullyApart(t *testing.T) {
	stack, _ := Combine([]Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}})
	splits := AllSplits(stack)

	sawTogether, sawApart := false, false
	for _, split := range splits {
		if len(split) == 1 && split[0].IsStack() {
			sawTogether = true
		}
		if len(split) == 2 {
			sawApart = true
		}
	}
	if !sawTogether {
		t.Fatalf("expected a split keeping the stack together, got %v", splits)
	}
	if !sawApart {
		t.Fatalf("expected a split sending both pieces to separate squares, got %v", splits)
	}
}
