package cotulenh

import "testing"

func TestEncodeDefaultPositionMatchesLiteral(t *testing.T) {
	g, err := New(DefaultPosition)
	if err != nil {
		t.Fatalf("New(DefaultPosition): %v", err)
	}
	if got := g.FEN(); got != DefaultPosition {
		t.Fatalf("re-encoded default position mismatch\ngot:  %s\nwant: %s", got, DefaultPosition)
	}
}

func TestLoadFENStackRoundTrip(t *testing.T) {
	g, _ := New("")
	g.Clear()
	c5, _ := ParseSquare("c5")
	stack, _ := Combine([]Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}})
	g.Put(stack, c5, false)

	f := g.FEN()
	g2, err := New(f)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	occ := g2.Get(c5, nil)
	if occ == nil || !occ.IsStack() || occ.Kind != Tank || occ.Carried[0].Kind != Infantry {
		t.Fatalf("stack not preserved across FEN round trip: %+v", occ)
	}
}

func TestLoadFENHeroicMarkerRoundTrip(t *testing.T) {
	g, _ := New("")
	g.Clear()
	d1, _ := ParseSquare("d1")
	g.Put(Piece{Kind: Tank, Color: Red, Heroic: true}, d1, false)

	f := g.FEN()
	g2, err := New(f)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	occ := g2.Get(d1, nil)
	if occ == nil || !occ.Heroic {
		t.Fatalf("expected heroic flag preserved, got %+v", occ)
	}
}

func TestLoadFENRejectsBadTurnToken(t *testing.T) {
	bad := "11/11/11/11/11/11/11/11/11/11/11/11 x - - 0 1"
	_, err := New(bad)
	if err == nil {
		t.Fatalf("expected InvalidFEN for bad turn token")
	}
}

func TestLoadFENRejectsShortRank(t *testing.T) {
	bad := "6c3/11/11/11/11/11/11/11/11/11/11/11 r - - 0 1"
	_, err := New(bad)
	if err == nil {
		t.Fatalf("expected InvalidFEN for a rank that doesn't sum to 11 files")
	}
}

func TestDeploySuffixAppearsDuringActiveSession(t *testing.T) {
	g, _ := New("")
	g.Clear()
	c5, _ := ParseSquare("c5")
	c6, _ := ParseSquare("c6")
	stack, _ := Combine([]Piece{{Kind: Tank, Color: Red}, {Kind: Infantry, Color: Red}})
	g.Put(stack, c5, false)

	legal := g.Moves(moveFilter{square: &c5})
	var step *Move
	for i := range legal {
		if legal[i].Deploy && legal[i].Piece.Kind == Tank && legal[i].To == c6 {
			step = &legal[i]
			break
		}
	}
	if step == nil {
		t.Fatalf("expected a deploy step for Tank to c6")
	}
	if _, err := g.commitMove(*step); err != nil {
		t.Fatalf("commit deploy step: %v", err)
	}

	f := g.FEN()
	if !containsSubstring(f, "DEPLOY "+c5.String()) {
		t.Fatalf("expected FEN to carry a DEPLOY suffix while a session is active, got %s", f)
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
