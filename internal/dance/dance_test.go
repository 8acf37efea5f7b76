package dance

import (
	"math"
	"testing"

	"github.com/kingrea/contraline/internal/geo"
)

func TestStaticRelationsInvolutive(t *testing.T) {
	for _, p := range All {
		if p.Partner().Partner() != p {
			t.Fatalf("partner not involutive for %s", p)
		}
		if p.Neighbor().Neighbor() != p {
			t.Fatalf("neighbor not involutive for %s", p)
		}
		if p.Opposite().Opposite() != p {
			t.Fatalf("opposite not involutive for %s", p)
		}
	}
}

func TestStaticRelationsDisjoint(t *testing.T) {
	for _, p := range All {
		if p.Partner() == p || p.Neighbor() == p || p.Opposite() == p {
			t.Fatalf("%s relates to itself", p)
		}
		if p.Partner() == p.Neighbor() || p.Partner() == p.Opposite() || p.Neighbor() == p.Opposite() {
			t.Fatalf("relations collide for %s", p)
		}
	}
}

func TestNeighborCrossesRoles(t *testing.T) {
	for _, p := range All {
		if p.Neighbor().Role() == p.Role() {
			t.Fatalf("neighbor of %s shares its role", p)
		}
		if p.Partner().Role() == p.Role() {
			t.Fatalf("partner of %s shares its role", p)
		}
		if p.Opposite().Role() != p.Role() {
			t.Fatalf("opposite of %s should share its role", p)
		}
	}
}

func TestHandConnectionNormalization(t *testing.T) {
	a := NewHandConnection(DownRobin, LeftHand, UpLark, RightHand)
	b := NewHandConnection(UpLark, RightHand, DownRobin, LeftHand)
	if a != b {
		t.Fatalf("normalization mismatch: %+v vs %+v", a, b)
	}
	if a.A != UpLark || a.AHand != RightHand {
		t.Fatalf("canonical order broken: %+v", a)
	}
}

func TestSetHandDeduplicatesPairs(t *testing.T) {
	k := NewKeyframe(0)
	k.SetHand(NewHandConnection(UpLark, RightHand, DownRobin, RightHand))
	k.SetHand(NewHandConnection(DownRobin, LeftHand, UpLark, LeftHand))
	if len(k.Hands) != 1 {
		t.Fatalf("expected 1 connection after dedupe, got %d", len(k.Hands))
	}
	if k.Hands[0].AHand != LeftHand {
		t.Fatalf("second write should win: %+v", k.Hands[0])
	}
}

func TestImproperFormation(t *testing.T) {
	k, err := MakeFormation(Improper)
	if err != nil {
		t.Fatalf("make formation: %v", err)
	}
	if len(k.Dancers) != 4 {
		t.Fatalf("expected 4 dancers, got %d", len(k.Dancers))
	}
	ul := k.Dancers[UpLark]
	if ul.Pos.X != -0.5 || ul.Pos.Y != -0.5 || ul.Facing != 0 {
		t.Fatalf("up lark misplaced: %+v", ul)
	}
	dl := k.Dancers[DownLark]
	if dl.Pos.X != 0.5 || dl.Pos.Y != 0.5 || dl.Facing != math.Pi {
		t.Fatalf("down lark misplaced: %+v", dl)
	}
}

func TestUnknownFormation(t *testing.T) {
	if _, err := MakeFormation("longways-for-six"); err == nil {
		t.Fatalf("expected error for unknown formation")
	}
}

func TestVirtualPosTranslatesAlongSet(t *testing.T) {
	k, _ := MakeFormation(Improper)
	real := k.Dancers[UpLark].Pos
	up := k.VirtualPos(DancerID{Proto: UpLark, Offset: 1})
	if up.X != real.X || up.Y != real.Y+LatticeSpacing {
		t.Fatalf("offset +1 should translate by lattice spacing, got %+v", up)
	}
	down := k.VirtualPos(DancerID{Proto: UpLark, Offset: -2})
	if down.Y != real.Y-2*LatticeSpacing {
		t.Fatalf("offset -2 translation wrong: %+v", down)
	}
}

func TestCloneIsDeep(t *testing.T) {
	k, _ := MakeFormation(Improper)
	k.SetHand(NewHandConnection(UpLark, RightHand, DownRobin, RightHand))
	c := k.Clone()
	c.Dancers[UpLark] = DancerState{Pos: geo.Vec{X: 9, Y: 9}}
	c.Hands[0] = NewHandConnection(UpRobin, LeftHand, DownLark, LeftHand)
	if k.Dancers[UpLark].Pos.X == 9 {
		t.Fatalf("dancer map aliased")
	}
	if k.Hands[0].A == UpRobin {
		t.Fatalf("hands slice aliased")
	}
}

func TestSortByAngleRingOrder(t *testing.T) {
	k, _ := MakeFormation(Improper)
	ring := SortByAngle(k, All, Centroid(k, All))
	// Clockwise from bearing 0: DL (NE), UR (SE), UL (SW), DR (NW).
	want := []ProtoDancer{DownLark, UpRobin, UpLark, DownRobin}
	for i := range want {
		if ring[i] != want[i] {
			t.Fatalf("ring order %v, want %v", ring, want)
		}
	}
}
