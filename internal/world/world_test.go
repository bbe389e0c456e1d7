package world

import "testing"

func TestPositionValid(t *testing.T) {
	cases := []struct {
		p    Position
		want bool
	}{
		{Pos(0, 0), true},
		{Pos(4, 4), true},
		{Pos(-1, 0), false},
		{Pos(0, 5), false},
		{Pos(5, 5), false},
	}
	for _, tc := range cases {
		if got := tc.p.Valid(); got != tc.want {
			t.Fatalf("%v.Valid() = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestParseKey(t *testing.T) {
	p, err := ParseKey("3, 2")
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if p != Pos(3, 2) {
		t.Fatalf("expected (3, 2), got %v", p)
	}
	if Pos(1, 4).Key() != "1,4" {
		t.Fatalf("unexpected key %q", Pos(1, 4).Key())
	}
	for _, bad := range []string{"", "1", "a,2", "1,b"} {
		if _, err := ParseKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNeighborsAndDistance(t *testing.T) {
	if n := Pos(0, 0).Neighbors(); len(n) != 2 {
		t.Fatalf("corner should have 2 neighbors, got %v", n)
	}
	if n := Pos(2, 2).Neighbors(); len(n) != 4 {
		t.Fatalf("center should have 4 neighbors, got %v", n)
	}
	if d := Distance(Pos(0, 0), Pos(3, 4)); d != 7 {
		t.Fatalf("expected distance 7, got %d", d)
	}
	if FromIndex(Pos(3, 1).Index()) != Pos(3, 1) {
		t.Fatalf("index round trip failed")
	}
}

func TestOccupantCodes(t *testing.T) {
	for o := Empty; o < occupantCount; o++ {
		got, ok := ParseOccupant(o.Code())
		if !ok || got != o {
			t.Fatalf("code %q parsed to %v ok=%v, want %v", o.Code(), got, ok, o)
		}
	}
	if _, ok := ParseOccupant("Castle"); ok {
		t.Fatalf("unknown code should not parse")
	}
	if !RoadCross.IsRoad() || PowerLine.IsRoad() {
		t.Fatalf("road classification wrong")
	}
	if !Industrial.IsDevelopable() || Park.IsDevelopable() || !Park.IsZone() {
		t.Fatalf("zone classification wrong")
	}
	if RoadTeeWest.Name() != "Road" || PowerPlant.Glyph() != 'E' {
		t.Fatalf("display classification wrong")
	}
}

func TestGridFromCodes(t *testing.T) {
	g := NewGrid()
	g.Set(Pos(1, 1), School)
	g.Set(Pos(4, 0), RoadCornerNE)

	back, bad := GridFromCodes(g.Codes())
	if bad != 0 {
		t.Fatalf("expected no bad cells, got %d", bad)
	}
	if back.Get(Pos(1, 1)) != School || back.Get(Pos(4, 0)) != RoadCornerNE {
		t.Fatalf("grid round trip lost occupants")
	}

	rows := [][]string{{"R", "Castle"}}
	partial, bad := GridFromCodes(rows)
	if bad != 1 {
		t.Fatalf("expected 1 bad cell, got %d", bad)
	}
	if partial.Get(Pos(0, 0)) != Residential || !partial.IsEmpty(Pos(0, 1)) || !partial.IsEmpty(Pos(3, 3)) {
		t.Fatalf("partial grid should default missing cells to empty")
	}
}

func TestHazardFieldDeterministic(t *testing.T) {
	a := NewHazardField(42)
	b := NewHazardField(42)
	for year := 1; year < 5; year++ {
		if a.Hotspot(year) != b.Hotspot(year) {
			t.Fatalf("hotspot differs for same seed in year %d", year)
		}
		if !a.Hotspot(year).Valid() {
			t.Fatalf("hotspot off grid")
		}
	}
	v := a.At(Pos(2, 3), 7)
	if v < 0 || v > 1 {
		t.Fatalf("hazard out of range: %f", v)
	}
}
