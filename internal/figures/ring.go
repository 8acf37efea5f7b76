package figures

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
)

// circle orbits every scoped dancer around their common centroid,
// facing the center throughout. "left" travels clockwise. Adjacent
// dancers in the starting ring hold hands for the duration, each
// giving the left hand to their clockwise neighbor.
func circle(c *Context) ([]dance.Keyframe, error) {
	if len(c.Scope) < 3 {
		return nil, &FormationError{Figure: c.Instr.Op, Reason: fmt.Sprintf(
			"a ring needs at least 3 dancers, scope has %d", len(c.Scope))}
	}
	center := dance.Centroid(c.Prev, c.Scope)
	sign := 1.0
	if c.Instr.Direction == "right" {
		sign = -1
	}
	sweep := sign * c.Instr.Rotations * 2 * math.Pi
	ring := dance.SortByAngle(c.Prev, c.Scope, center)
	conns := make([]dance.HandConnection, 0, len(ring))
	for i, d := range ring {
		next := ring[(i+1)%len(ring)]
		conns = append(conns, dance.NewHandConnection(d, dance.LeftHand, next, dance.RightHand))
	}
	starts := make(map[dance.ProtoDancer]geo.Vec, len(c.Scope))
	for _, d := range c.Scope {
		starts[d] = c.Prev.Dancers[d].Pos
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		angle := geo.Ease(t) * sweep
		for d, start := range starts {
			pos := geo.RotateAbout(start, center, angle)
			kf.Dancers[d] = dance.DancerState{
				Pos:    pos,
				Facing: geo.Bearing(center.Sub(pos)),
			}
		}
		if t < 1 {
			for _, conn := range conns {
				kf.SetHand(conn)
			}
		}
	}), nil
}

// star is the circle orbit with hands stacked toward the center
// instead of joined around the ring, so no pairwise connections are
// recorded. Right hands travel clockwise; dancers face their direction
// of travel.
func star(c *Context) ([]dance.Keyframe, error) {
	if len(c.Scope) < 3 {
		return nil, &FormationError{Figure: c.Instr.Op, Reason: fmt.Sprintf(
			"a star needs at least 3 dancers, scope has %d", len(c.Scope))}
	}
	center := dance.Centroid(c.Prev, c.Scope)
	sign := 1.0
	if dance.Hand(c.Instr.Hand) == dance.LeftHand {
		sign = -1
	}
	sweep := sign * c.Instr.Rotations * 2 * math.Pi
	starts := make(map[dance.ProtoDancer]geo.Vec, len(c.Scope))
	for _, d := range c.Scope {
		starts[d] = c.Prev.Dancers[d].Pos
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		angle := geo.Ease(t) * sweep
		for d, start := range starts {
			pos := geo.RotateAbout(start, center, angle)
			kf.Dancers[d] = dance.DancerState{
				Pos:    pos,
				Facing: geo.NormalizeBearing(geo.Bearing(pos.Sub(center)) + sign*math.Pi/2),
			}
		}
	}), nil
}

// petronella moves each dancer of the ring of four one place to their
// own right, the counter-clockwise-adjacent spot, while spinning three
// quarters clockwise. That spin is exactly what leaves everyone facing
// the center again at the new spot.
func petronella(c *Context) ([]dance.Keyframe, error) {
	if len(c.Scope) != 4 {
		return nil, &FormationError{Figure: c.Instr.Op, Reason: fmt.Sprintf(
			"petronella needs the full ring of four, scope has %d", len(c.Scope))}
	}
	center := dance.Centroid(c.Prev, c.Scope)
	ring := dance.SortByAngle(c.Prev, c.Scope, center)
	type move struct {
		start dance.DancerState
		to    geo.Vec
	}
	moves := make(map[dance.ProtoDancer]move, len(ring))
	for i, d := range ring {
		prev := ring[(i+len(ring)-1)%len(ring)]
		moves[d] = move{start: c.Prev.Dancers[d], to: c.Prev.Dancers[prev].Pos}
	}
	const spin = 3 * math.Pi / 2
	return c.frames(func(t float64, kf *dance.Keyframe) {
		e := geo.Ease(t)
		for d, mv := range moves {
			kf.Dancers[d] = dance.DancerState{
				Pos: geo.Vec{
					X: geo.Lerp(mv.start.Pos.X, mv.to.X, e),
					Y: geo.Lerp(mv.start.Pos.Y, mv.to.Y, e),
				},
				Facing: geo.NormalizeBearing(mv.start.Facing + spin*e),
			}
		}
	}), nil
}
