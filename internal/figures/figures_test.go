package figures

import (
	"errors"
	"math"
	"testing"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/relate"
	"github.com/kingrea/contraline/internal/score"
)

var reg = Builtin()

func improper(t *testing.T) dance.Keyframe {
	t.Helper()
	kf, err := dance.MakeFormation(dance.Improper)
	if err != nil {
		t.Fatalf("formation: %v", err)
	}
	return kf
}

func generate(t *testing.T, prev dance.Keyframe, in score.Instruction) []dance.Keyframe {
	t.Helper()
	out, err := mustGenerate(prev, in)
	if err != nil {
		t.Fatalf("%s: %v", in.Op, err)
	}
	return out
}

func mustGenerate(prev dance.Keyframe, in score.Instruction) ([]dance.Keyframe, error) {
	return reg.Generate(&Context{
		Prev:   prev,
		Instr:  in,
		Scope:  dance.All,
		Tuning: relate.DefaultTuning(),
	})
}

func near(t *testing.T, got, want geo.Vec, what string) {
	t.Helper()
	if got.Sub(want).Len() > 1e-6 {
		t.Fatalf("%s: got (%g, %g), want (%g, %g)", what, got.X, got.Y, want.X, want.Y)
	}
}

func nearAngle(t *testing.T, got, want float64, what string) {
	t.Helper()
	if math.Abs(geo.AngleDiff(got, want)) > 1e-6 {
		t.Fatalf("%s: got %g, want %g", what, got, want)
	}
}

func hasConn(kf dance.Keyframe, want dance.HandConnection) bool {
	for _, h := range kf.Hands {
		if h == want {
			return true
		}
	}
	return false
}

func TestFrameCountAndBeats(t *testing.T) {
	out := generate(t, improper(t), score.Instruction{
		ID: "a", Op: score.OpAllemande, Rel: "neighbor", Hand: "right", Rotations: 1, Beats: 8,
	})
	if len(out) != 32 {
		t.Fatalf("8 beats at quarter-beat resolution should emit 32 frames, got %d", len(out))
	}
	prev := 0.0
	for _, kf := range out {
		if kf.Beat <= prev {
			t.Fatalf("beats must strictly increase, got %g after %g", kf.Beat, prev)
		}
		prev = kf.Beat
	}
	if out[len(out)-1].Beat != 8 {
		t.Fatalf("final beat = %g, want 8", out[len(out)-1].Beat)
	}
}

func TestAllemandeFullRotationReturnsHome(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "a", Op: score.OpAllemande, Rel: "neighbor", Hand: "right", Rotations: 1, Beats: 8,
	})
	last := out[len(out)-1]
	for _, d := range dance.All {
		near(t, last.Dancers[d].Pos, start.Dancers[d].Pos, string(d))
	}
	conn := dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.DownRobin, dance.RightHand)
	if !hasConn(out[0], conn) {
		t.Fatalf("expected right-hand connection during the turn")
	}
	if hasConn(last, conn) {
		t.Fatalf("turn connection must be released at the final keyframe")
	}
}

func TestDoSiDoKeepsFacingAndSwapsHalfway(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "d", Op: score.OpDoSiDo, Rel: "neighbor", Rotations: 1, Beats: 8,
	})
	for _, kf := range out {
		for _, d := range dance.All {
			nearAngle(t, kf.Dancers[d].Facing, start.Dancers[d].Facing, "facing must be held")
		}
		if len(kf.Hands) != 0 {
			t.Fatalf("do si do takes no hands")
		}
	}
	mid := out[len(out)/2-1] // t = 0.5
	near(t, mid.Dancers[dance.UpLark].Pos, start.Dancers[dance.DownRobin].Pos, "halfway swap")
	near(t, out[len(out)-1].Dancers[dance.UpLark].Pos, start.Dancers[dance.UpLark].Pos, "home again")
}

func TestPullBySwapsPositions(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "p", Op: score.OpPullBy, Rel: "neighbor", Hand: "right", Beats: 2,
	})
	last := out[len(out)-1]
	near(t, last.Dancers[dance.UpLark].Pos, start.Dancers[dance.DownRobin].Pos, "up lark")
	near(t, last.Dancers[dance.DownRobin].Pos, start.Dancers[dance.UpLark].Pos, "down robin")
	nearAngle(t, last.Dancers[dance.UpLark].Facing, start.Dancers[dance.UpLark].Facing, "facing held")
}

func TestCircleLeftQuarter(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "c", Op: score.OpCircle, Direction: "left", Rotations: 0.25, Beats: 4,
	})
	last := out[len(out)-1]
	// One quarter clockwise moves each dancer to the next ring spot.
	near(t, last.Dancers[dance.UpLark].Pos, start.Dancers[dance.DownRobin].Pos, "up lark advances")
	for _, d := range dance.All {
		want := geo.Bearing(geo.Vec{}.Sub(last.Dancers[d].Pos))
		nearAngle(t, last.Dancers[d].Facing, want, "face the center")
	}
	ring := dance.NewHandConnection(dance.DownLark, dance.LeftHand, dance.UpRobin, dance.RightHand)
	if !hasConn(out[0], ring) {
		t.Fatalf("ring hands missing during the circle")
	}
	if len(last.Hands) != 0 {
		t.Fatalf("ring hands must be released at the final keyframe")
	}
}

func TestStarRightQuarter(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "s", Op: score.OpStar, Hand: "right", Rotations: 0.25, Beats: 4,
	})
	last := out[len(out)-1]
	near(t, last.Dancers[dance.UpLark].Pos, start.Dancers[dance.DownRobin].Pos, "up lark advances")
	// Travel-direction facing: tangent, 90 degrees clockwise of the
	// outward bearing.
	got := last.Dancers[dance.UpLark]
	want := geo.NormalizeBearing(geo.Bearing(got.Pos) + math.Pi/2)
	nearAngle(t, got.Facing, want, "face along travel")
	for _, kf := range out {
		if len(kf.Hands) != 0 {
			t.Fatalf("a star records no pairwise hand connections")
		}
	}
}

func TestPetronellaAdvancesRing(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{ID: "p", Op: score.OpPetronella, Beats: 4})
	last := out[len(out)-1]
	// Everyone lands one place to their own right around the ring.
	near(t, last.Dancers[dance.DownLark].Pos, start.Dancers[dance.DownRobin].Pos, "down lark")
	near(t, last.Dancers[dance.UpRobin].Pos, start.Dancers[dance.DownLark].Pos, "up robin")
	nearAngle(t, last.Dancers[dance.DownLark].Facing,
		start.Dancers[dance.DownLark].Facing+3*math.Pi/2, "three-quarter clockwise spin")
}

func TestStepUpMovesEveryone(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "s", Op: score.OpStep, Direction: "up", Distance: 1, Beats: 4,
	})
	last := out[len(out)-1]
	for _, d := range dance.All {
		near(t, last.Dancers[d].Pos, start.Dancers[d].Pos.Add(geo.Vec{Y: 1}), string(d))
		nearAngle(t, last.Dancers[d].Facing, start.Dancers[d].Facing, "facing held")
	}
}

func TestStepZeroBeatsTurnsInPlace(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{ID: "t", Op: score.OpStep, Facing: "down"})
	if len(out) != 1 || out[0].Beat != start.Beat {
		t.Fatalf("a zero-beat turn emits one keyframe at the same beat")
	}
	for _, d := range dance.All {
		near(t, out[0].Dancers[d].Pos, start.Dancers[d].Pos, "position held")
		nearAngle(t, out[0].Dancers[d].Facing, math.Pi, "turned to face down")
	}
}

func TestBalanceOutAndBack(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "b", Op: score.OpBalance, Direction: "neighbor", Distance: 0.3, Beats: 4,
	})
	mid := out[len(out)/2-1] // t = 0.5, full reach
	near(t, mid.Dancers[dance.UpLark].Pos,
		start.Dancers[dance.UpLark].Pos.Add(geo.Vec{Y: 0.3}), "reach toward neighbor")
	last := out[len(out)-1]
	for _, d := range dance.All {
		near(t, last.Dancers[d].Pos, start.Dancers[d].Pos, "back home")
	}
}

func TestBoxTheGnatSwapsAndTurns(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "g", Op: score.OpBoxTheGnat, Rel: "neighbor", Beats: 4,
	})
	last := out[len(out)-1]
	near(t, last.Dancers[dance.UpLark].Pos, start.Dancers[dance.DownRobin].Pos, "lark crosses")
	nearAngle(t, last.Dancers[dance.UpLark].Facing, math.Pi, "lark half turn clockwise")
	nearAngle(t, last.Dancers[dance.DownRobin].Facing, 0, "robin half turn counter-clockwise")
	conn := dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.DownRobin, dance.RightHand)
	if !hasConn(out[0], conn) {
		t.Fatalf("right hands joined during the swap")
	}
	if hasConn(last, conn) {
		t.Fatalf("hands released at the landing")
	}
}

func TestBoxTheGnatRejectsSameRolePair(t *testing.T) {
	_, err := mustGenerate(improper(t), score.Instruction{
		ID: "g", Op: score.OpBoxTheGnat, Rel: "opposite", Beats: 4,
	})
	if err == nil {
		t.Fatalf("same-role pair must be rejected")
	}
}

func TestTakeHandsInside(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "h", Op: score.OpTakeHands, Rel: "partner", Hand: "inside",
	})
	if len(out) != 1 || out[0].Beat != start.Beat {
		t.Fatalf("take_hands emits one keyframe at the same beat")
	}
	// Partners stand side by side facing the same way: the up lark's
	// inside hand is the right, the up robin's the left.
	conn := dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.UpRobin, dance.LeftHand)
	if !hasConn(out[0], conn) {
		t.Fatalf("inside hands not joined: %+v", out[0].Hands)
	}
}

func TestDropHandsByRel(t *testing.T) {
	start := improper(t)
	partner := dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.UpRobin, dance.LeftHand)
	neighbor := dance.NewHandConnection(dance.UpLark, dance.LeftHand, dance.DownRobin, dance.LeftHand)
	start.SetHand(partner)
	start.SetHand(neighbor)
	out := generate(t, start, score.Instruction{ID: "d", Op: score.OpDropHands, Rel: "partner"})
	if hasConn(out[0], partner) {
		t.Fatalf("partner hands should be dropped")
	}
	if !hasConn(out[0], neighbor) {
		t.Fatalf("neighbor hands should survive")
	}
}

func TestLongLinesRejectsStartingFormation(t *testing.T) {
	// In the starting formation neighbors face each other up and down
	// the set; nobody faces across, so there are no long lines yet.
	_, err := mustGenerate(improper(t), score.Instruction{ID: "l", Op: score.OpLongLines})
	var ferr *FormationError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected a formation error, got %v", err)
	}
}

func TestLongLinesJoinsInsideHands(t *testing.T) {
	// The starting formation with everyone turned to face their partner
	// across the set: two lines running up and down it.
	kf := dance.NewKeyframe(0)
	kf.Dancers[dance.UpLark] = dance.DancerState{Pos: geo.Vec{X: -0.5, Y: -0.5}, Facing: math.Pi / 2}
	kf.Dancers[dance.DownRobin] = dance.DancerState{Pos: geo.Vec{X: -0.5, Y: 0.5}, Facing: math.Pi / 2}
	kf.Dancers[dance.UpRobin] = dance.DancerState{Pos: geo.Vec{X: 0.5, Y: -0.5}, Facing: 3 * math.Pi / 2}
	kf.Dancers[dance.DownLark] = dance.DancerState{Pos: geo.Vec{X: 0.5, Y: 0.5}, Facing: 3 * math.Pi / 2}
	out := generate(t, kf, score.Instruction{ID: "l", Op: score.OpLongLines})
	if len(out) != 1 {
		t.Fatalf("assertion figures emit one keyframe")
	}
	if len(out[0].Hands) != 2 {
		t.Fatalf("two lines of two give two connections, got %d", len(out[0].Hands))
	}
	conn := dance.NewHandConnection(dance.UpLark, dance.LeftHand, dance.DownRobin, dance.RightHand)
	if !hasConn(out[0], conn) {
		t.Fatalf("west line inside hands not joined: %+v", out[0].Hands)
	}
}

func TestShortWavesRejectsLines(t *testing.T) {
	_, err := mustGenerate(improper(t), score.Instruction{ID: "w", Op: score.OpShortWaves})
	var ferr *FormationError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected a formation error, got %v", err)
	}
}

func TestShortWavesAcceptsWave(t *testing.T) {
	kf := dance.NewKeyframe(0)
	kf.Dancers[dance.UpLark] = dance.DancerState{Pos: geo.Vec{X: -1.5}, Facing: 0}
	kf.Dancers[dance.DownRobin] = dance.DancerState{Pos: geo.Vec{X: -0.5}, Facing: math.Pi}
	kf.Dancers[dance.UpRobin] = dance.DancerState{Pos: geo.Vec{X: 0.5}, Facing: 0}
	kf.Dancers[dance.DownLark] = dance.DancerState{Pos: geo.Vec{X: 1.5}, Facing: math.Pi}
	out := generate(t, kf, score.Instruction{ID: "w", Op: score.OpShortWaves})
	if len(out[0].Hands) != 3 {
		t.Fatalf("a wave of four joins three connections, got %d", len(out[0].Hands))
	}
}

func TestSwingEndsSideBySide(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "s", Op: score.OpSwing, Rel: "neighbor", Facing: "up", Beats: 8,
	})
	last := out[len(out)-1]
	// Up lark and down robin swing at the west column; lark ends on the
	// left of the shared facing, robin on the right.
	near(t, last.Dancers[dance.UpLark].Pos, geo.Vec{X: -1, Y: 0}, "lark lands left")
	near(t, last.Dancers[dance.DownRobin].Pos, geo.Vec{X: 0, Y: 0}, "robin lands right")
	nearAngle(t, last.Dancers[dance.UpLark].Facing, 0, "lark faces up")
	nearAngle(t, last.Dancers[dance.DownRobin].Facing, 0, "robin faces up")
	conn := dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.DownRobin, dance.LeftHand)
	if !hasConn(out[0], conn) {
		t.Fatalf("swing hold missing during the spin")
	}
	if hasConn(last, conn) {
		t.Fatalf("swing hold released at the landing")
	}
}

func TestGiveAndTakeEndsAtTaker(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{
		ID: "g", Op: score.OpGiveAndTakeToSwing, Rel: "neighbor", Facing: "up",
		Taker: dance.Lark, Beats: 8,
	})
	last := out[len(out)-1]
	// The couple ends centered on the lark's starting spot.
	larkHome := start.Dancers[dance.UpLark].Pos
	near(t, last.Dancers[dance.UpLark].Pos, larkHome.Add(geo.Vec{X: -0.5}), "lark left of home")
	near(t, last.Dancers[dance.DownRobin].Pos, larkHome.Add(geo.Vec{X: 0.5}), "robin right of home")
}

func TestMadRobinHoldsFacingAndReturnsHome(t *testing.T) {
	kf := dance.NewKeyframe(0)
	// A couple side by side, both facing up; the others parked far off.
	kf.Dancers[dance.UpLark] = dance.DancerState{Pos: geo.Vec{X: -0.5}, Facing: 0}
	kf.Dancers[dance.UpRobin] = dance.DancerState{Pos: geo.Vec{X: 0.5}, Facing: 0}
	kf.Dancers[dance.DownLark] = dance.DancerState{Pos: geo.Vec{X: -0.5, Y: 40}, Facing: math.Pi}
	kf.Dancers[dance.DownRobin] = dance.DancerState{Pos: geo.Vec{X: 0.5, Y: 40}, Facing: math.Pi}
	out, err := reg.Generate(&Context{
		Prev: kf,
		Instr: score.Instruction{
			ID: "m", Op: score.OpMadRobin, Rel: "partner",
			Front: dance.Lark, Rotations: 1, Beats: 8,
		},
		Scope:  []dance.ProtoDancer{dance.UpLark, dance.UpRobin},
		Tuning: relate.DefaultTuning(),
	})
	if err != nil {
		t.Fatalf("mad robin: %v", err)
	}
	for _, frame := range out {
		nearAngle(t, frame.Dancers[dance.UpLark].Facing, 0, "facing held")
	}
	// The lark starts on the robin's left, so the orbit runs clockwise
	// and carries the lark forward (north) first.
	if out[3].Dancers[dance.UpLark].Pos.Y <= 0 {
		t.Fatalf("front lark should pass in front first, got %+v", out[3].Dancers[dance.UpLark].Pos)
	}
	last := out[len(out)-1]
	near(t, last.Dancers[dance.UpLark].Pos, geo.Vec{X: -0.5}, "home again")
}

func TestRobinsChainCrossesAndTurns(t *testing.T) {
	start := improper(t)
	out := generate(t, start, score.Instruction{ID: "ch", Op: score.OpRobinsChain, Beats: 8})
	if out[len(out)-1].Beat != 8 {
		t.Fatalf("final beat = %g, want 8", out[len(out)-1].Beat)
	}
	// The pull-by lands three eighths in: each robin stands where the
	// other started, right hands joined on the way.
	cross := out[11] // t = 3/8
	near(t, cross.Dancers[dance.UpRobin].Pos, start.Dancers[dance.DownRobin].Pos, "up robin crosses")
	near(t, cross.Dancers[dance.DownRobin].Pos, start.Dancers[dance.UpRobin].Pos, "down robin crosses")
	pull := dance.NewHandConnection(dance.UpRobin, dance.RightHand, dance.DownRobin, dance.RightHand)
	if !hasConn(out[0], pull) {
		t.Fatalf("robins' right hands missing during the pull-by")
	}
	// Courtesy turn: the up robin wheels with the drawn-in down lark and
	// they trade ends of the couple, both landing faced across the set.
	last := out[len(out)-1]
	near(t, last.Dancers[dance.UpRobin].Pos, geo.Vec{X: 0.35, Y: 0.5}, "up robin lands east")
	near(t, last.Dancers[dance.DownLark].Pos, geo.Vec{X: -0.5, Y: 0.5}, "down lark backs west")
	near(t, last.Dancers[dance.DownRobin].Pos, geo.Vec{X: -0.35, Y: -0.5}, "down robin lands west")
	near(t, last.Dancers[dance.UpLark].Pos, geo.Vec{X: 0.5, Y: -0.5}, "up lark backs east")
	nearAngle(t, last.Dancers[dance.UpRobin].Facing, 3*math.Pi/2, "robin faces across")
	nearAngle(t, last.Dancers[dance.DownLark].Facing, math.Pi/2, "lark faces across")
	couple := dance.NewHandConnection(dance.UpRobin, dance.LeftHand, dance.DownLark, dance.LeftHand)
	if !hasConn(out[20], couple) {
		t.Fatalf("courtesy-turn left hands missing: %+v", out[20].Hands)
	}
	if hasConn(last, pull) || hasConn(last, couple) {
		t.Fatalf("chain hands must be released at the landing")
	}
}

func TestRobinsChainNeedsBothRoles(t *testing.T) {
	_, err := reg.Generate(&Context{
		Prev:   improper(t),
		Instr:  score.Instruction{ID: "ch", Op: score.OpRobinsChain, Beats: 8},
		Scope:  []dance.ProtoDancer{dance.UpLark, dance.DownLark},
		Tuning: relate.DefaultTuning(),
	})
	var ferr *FormationError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected a formation error, got %v", err)
	}
}

func TestUnknownOpRejected(t *testing.T) {
	if _, err := mustGenerate(improper(t), score.Instruction{ID: "x", Op: "moonwalk"}); err == nil {
		t.Fatalf("unregistered op must be rejected")
	}
}
