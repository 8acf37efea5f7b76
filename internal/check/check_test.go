package check

import (
	"math"
	"strings"
	"testing"

	"github.com/kingrea/contraline/internal/composer"
	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/score"
)

func formation(t *testing.T) dance.Keyframe {
	t.Helper()
	kf, err := dance.MakeFormation(dance.Improper)
	if err != nil {
		t.Fatalf("formation: %v", err)
	}
	return kf
}

func kinds(rep Report) map[Kind]int {
	out := map[Kind]int{}
	for _, w := range rep.Warnings {
		out[w.Kind]++
	}
	return out
}

func TestHandDistanceFirstViolationPerInstruction(t *testing.T) {
	start := formation(t)
	stretched := start.Clone()
	stretched.Beat = 1
	s := stretched.Dancers[dance.DownRobin]
	s.Pos = s.Pos.Add(geo.Vec{Y: 3})
	stretched.Dancers[dance.DownRobin] = s
	stretched.SetHand(dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.DownRobin, dance.RightHand))
	again := stretched.Clone()
	again.Beat = 2

	res := composer.Result{
		Keyframes: []dance.Keyframe{start, stretched, again},
		Spans:     []composer.Span{{ID: "al", Op: score.OpAllemande, Start: 0, End: 2}},
		Err:       &composer.Error{InstructionID: "al"},
	}
	rep := Run(score.Dance{}, res, DefaultLimits())
	if kinds(rep)[HandDistance] != 1 {
		t.Fatalf("expected exactly one hand-distance warning, got %+v", rep.Warnings)
	}
	if rep.Warnings[0].InstructionID != "al" {
		t.Fatalf("warning should name the instruction: %+v", rep.Warnings[0])
	}
}

func TestHandDistanceAttributesInnermostSpan(t *testing.T) {
	start := formation(t)
	bad := start.Clone()
	bad.Beat = 2
	s := bad.Dancers[dance.UpRobin]
	s.Pos = s.Pos.Add(geo.Vec{X: 4})
	bad.Dancers[dance.UpRobin] = s
	bad.SetHand(dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.UpRobin, dance.LeftHand))

	res := composer.Result{
		Keyframes: []dance.Keyframe{start, bad},
		Spans: []composer.Span{
			{ID: "grp", Op: score.OpGroup, Start: 0, End: 8},
			{ID: "inner", Op: score.OpStep, Start: 0, End: 4},
		},
		Err: &composer.Error{InstructionID: "inner"},
	}
	rep := Run(score.Dance{}, res, DefaultLimits())
	if len(rep.Warnings) == 0 || rep.Warnings[0].InstructionID != "inner" {
		t.Fatalf("warning should attach to the atomic figure, got %+v", rep.Warnings)
	}
}

func TestHandSymmetryFlagsDoubleGrip(t *testing.T) {
	kf := formation(t)
	kf.Hands = []dance.HandConnection{
		dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.UpRobin, dance.LeftHand),
		dance.NewHandConnection(dance.UpLark, dance.RightHand, dance.DownRobin, dance.LeftHand),
	}
	res := composer.Result{Keyframes: []dance.Keyframe{kf}, Err: &composer.Error{}}
	rep := Run(score.Dance{}, res, DefaultLimits())
	if kinds(rep)[HandSymmetry] != 1 {
		t.Fatalf("expected a hand-symmetry warning, got %+v", rep.Warnings)
	}
	if !strings.Contains(rep.Warnings[0].Message, "right hand") {
		t.Fatalf("message should name the overloaded hand: %q", rep.Warnings[0].Message)
	}
}

func TestCollisionWarning(t *testing.T) {
	kf := formation(t)
	s := kf.Dancers[dance.UpRobin]
	s.Pos = kf.Dancers[dance.UpLark].Pos.Add(geo.Vec{X: 0.1})
	kf.Dancers[dance.UpRobin] = s
	res := composer.Result{Keyframes: []dance.Keyframe{kf}, Err: &composer.Error{}}
	rep := Run(score.Dance{}, res, DefaultLimits())
	if kinds(rep)[Collision] != 1 {
		t.Fatalf("expected a collision warning, got %+v", rep.Warnings)
	}
}

func TestSpinRateWarning(t *testing.T) {
	a := formation(t)
	b := a.Clone()
	b.Beat = 0.25
	s := b.Dancers[dance.UpLark]
	s.Facing = s.Facing + math.Pi
	b.Dancers[dance.UpLark] = s
	res := composer.Result{Keyframes: []dance.Keyframe{a, b}, Err: &composer.Error{}}
	rep := Run(score.Dance{}, res, DefaultLimits())
	if kinds(rep)[SpinRate] != 1 {
		t.Fatalf("expected a spin-rate warning, got %+v", rep.Warnings)
	}
}

func TestProgressionCleanTimeline(t *testing.T) {
	first := formation(t)
	last := first.Clone()
	last.Beat = 64
	for _, p := range dance.All {
		s := last.Dancers[p]
		if p.IsUp() {
			s.Pos = s.Pos.Add(geo.Vec{Y: 1})
		} else {
			s.Pos = s.Pos.Add(geo.Vec{Y: -1})
		}
		last.Dancers[p] = s
	}
	res := composer.Result{Keyframes: []dance.Keyframe{first, last}}
	rep := Run(score.Dance{Progression: 1}, res, DefaultLimits())
	if !rep.Empty() {
		t.Fatalf("expected a clean report, got %+v", rep.Warnings)
	}
}

func TestProgressionMismatch(t *testing.T) {
	first := formation(t)
	last := first.Clone()
	last.Beat = 64
	res := composer.Result{Keyframes: []dance.Keyframe{first, last}}
	rep := Run(score.Dance{Progression: 1}, res, DefaultLimits())
	if kinds(rep)[Progression] != 1 {
		t.Fatalf("expected one progression warning, got %+v", rep.Warnings)
	}
	if rep.Warnings[0].InstructionID != "" {
		t.Fatalf("progression warning is timeline-wide, got %+v", rep.Warnings[0])
	}
}

func TestProgressionSkippedOnPartialTimeline(t *testing.T) {
	first := formation(t)
	res := composer.Result{
		Keyframes: []dance.Keyframe{first},
		Err:       &composer.Error{InstructionID: "x"},
	}
	rep := Run(score.Dance{Progression: 1}, res, DefaultLimits())
	if kinds(rep)[Progression] != 0 {
		t.Fatalf("partial timelines must not be held to the progression, got %+v", rep.Warnings)
	}
}
