package cotulenh

import "testing"

func TestBuildSANBasicNormalMove(t *testing.T) {
	from, _ := ParseSquare("c5")
	to, _ := ParseSquare("c6")
	m := Move{From: from, To: to, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}}
	if got := buildSAN(m, nil); got != "Ic6" {
		t.Fatalf("buildSAN = %q, want Ic6", got)
	}
}

func TestBuildSANSeparators(t *testing.T) {
	from, _ := ParseSquare("d4")
	to, _ := ParseSquare("b4")
	cases := []struct {
		kind MoveKind
		want string
	}{
		{Capture, "Axb4"},
		{StayCapture, "A_b4"},
		{SuicideCapture, "A@b4"},
	}
	for _, tc := range cases {
		m := Move{From: from, To: to, Kind: tc.kind, Piece: Piece{Kind: Artillery, Color: Red}}
		if got := buildSAN(m, nil); got != tc.want {
			t.Errorf("buildSAN(%v) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestBuildSANDeployPrefix(t *testing.T) {
	from, _ := ParseSquare("c5")
	to, _ := ParseSquare("c6")
	m := Move{From: from, To: to, Kind: Normal, Piece: Piece{Kind: Tank, Color: Red}, Deploy: true}
	if got := buildSAN(m, nil); got != "T>c6" {
		t.Fatalf("buildSAN = %q, want T>c6", got)
	}
}

func TestBuildSANDisambiguationByFile(t *testing.T) {
	c5, _ := ParseSquare("c5")
	d5, _ := ParseSquare("d5")
	c6, _ := ParseSquare("c6")
	a := Move{From: c5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}}
	b := Move{From: d5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}}
	siblings := []Move{a, b}

	if got := buildSAN(a, siblings); got != "Icc6" {
		t.Fatalf("buildSAN(a) = %q, want Icc6", got)
	}
	if got := buildSAN(b, siblings); got != "Idc6" {
		t.Fatalf("buildSAN(b) = %q, want Idc6", got)
	}
}

func TestBuildSANCheckAndCheckmateSuffix(t *testing.T) {
	from, _ := ParseSquare("e3")
	to, _ := ParseSquare("e5")
	m := Move{From: from, To: to, Kind: Normal, Piece: Piece{Kind: Tank, Color: Red}, Check: true}
	if got := buildSAN(m, nil); got != "Te5^" {
		t.Fatalf("buildSAN(check) = %q, want Te5^", got)
	}
	m.Checkmate = true
	if got := buildSAN(m, nil); got != "Te5#" {
		t.Fatalf("buildSAN(checkmate) = %q, want Te5#", got)
	}
}

func TestLANPrefixesFromSquare(t *testing.T) {
	from, _ := ParseSquare("c5")
	to, _ := ParseSquare("c6")
	m := Move{From: from, To: to, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}}
	if got := LAN(m); got != "c5:Ic6" {
		t.Fatalf("LAN = %q, want c5:Ic6", got)
	}
}

func TestParseSANStrictMatch(t *testing.T) {
	from, _ := ParseSquare("c5")
	to, _ := ParseSquare("c6")
	legal := []Move{{From: from, To: to, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}}}
	m, err := ParseSAN("Ic6", legal)
	if err != nil {
		t.Fatalf("ParseSAN: %v", err)
	}
	if m.From != from || m.To != to {
		t.Fatalf("ParseSAN returned wrong move: %+v", m)
	}
}

func TestParseSANPermissiveWithFileHint(t *testing.T) {
	c5, _ := ParseSquare("c5")
	d5, _ := ParseSquare("d5")
	c6, _ := ParseSquare("c6")
	legal := []Move{
		{From: c5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}},
		{From: d5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}},
	}
	m, err := ParseSAN("Icc6", legal)
	if err != nil {
		t.Fatalf("ParseSAN: %v", err)
	}
	if m.From != c5 {
		t.Fatalf("expected file-hinted parse to pick c5, got %s", m.From)
	}
}

func TestParseSANAmbiguousWithoutHint(t *testing.T) {
	c5, _ := ParseSquare("c5")
	d5, _ := ParseSquare("d5")
	c6, _ := ParseSquare("c6")
	legal := []Move{
		{From: c5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}},
		{From: d5, To: c6, Kind: Normal, Piece: Piece{Kind: Infantry, Color: Red}},
	}
	_, err := ParseSAN("Ic6", legal)
	if err == nil {
		t.Fatalf("expected ambiguity error when neither candidate's disambiguation is used")
	}
	ee, ok := err.(*EngineError)
	if !ok || ee.Kind != Ambiguous {
		t.Fatalf("expected Ambiguous error kind, got %v", err)
	}
}

func TestParseSANUnknownMoveFails(t *testing.T) {
	_, err := ParseSAN("Zz9", nil)
	if err == nil {
		t.Fatalf("expected failure for an unparseable/illegal SAN string")
	}
}
