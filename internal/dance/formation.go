package dance

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/geo"
)

// Formation tags a starting arrangement of the hands-four.
type Formation string

const (
	// Improper: couples face each other along the set. Down dancers at
	// y=+0.5 facing down (π), up dancers at y=-0.5 facing up (0).
	// Larks stand on the left of their partner.
	Improper Formation = "improper"
	// Beckett: improper rotated a quarter turn clockwise, everyone
	// facing across the set.
	Beckett Formation = "beckett"
)

// MakeFormation returns the beat-zero keyframe for a formation.
func MakeFormation(f Formation) (Keyframe, error) {
	switch f {
	case Improper:
		return improper(), nil
	case Beckett:
		return beckett(), nil
	default:
		return Keyframe{}, fmt.Errorf("dance: unknown formation %q", f)
	}
}

func improper() Keyframe {
	k := NewKeyframe(0)
	k.Dancers[DownLark] = DancerState{Pos: geo.Vec{X: 0.5, Y: 0.5}, Facing: math.Pi}
	k.Dancers[DownRobin] = DancerState{Pos: geo.Vec{X: -0.5, Y: 0.5}, Facing: math.Pi}
	k.Dancers[UpRobin] = DancerState{Pos: geo.Vec{X: 0.5, Y: -0.5}, Facing: 0}
	k.Dancers[UpLark] = DancerState{Pos: geo.Vec{X: -0.5, Y: -0.5}, Facing: 0}
	return k
}

func beckett() Keyframe {
	k := NewKeyframe(0)
	k.Dancers[DownLark] = DancerState{Pos: geo.Vec{X: -0.5, Y: 0.5}, Facing: math.Pi / 2}
	k.Dancers[DownRobin] = DancerState{Pos: geo.Vec{X: -0.5, Y: -0.5}, Facing: math.Pi / 2}
	k.Dancers[UpRobin] = DancerState{Pos: geo.Vec{X: 0.5, Y: 0.5}, Facing: 3 * math.Pi / 2}
	k.Dancers[UpLark] = DancerState{Pos: geo.Vec{X: 0.5, Y: -0.5}, Facing: 3 * math.Pi / 2}
	return k
}
