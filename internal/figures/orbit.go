package figures

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/relate"
)

// arc is one dancer's orbit around a shared pair midpoint: the two
// ellipse endpoints and the signed minor half-axis (positive travels
// clockwise).
type arc struct {
	a, b  geo.Vec
	minor float64
}

func (o arc) center() geo.Vec { return o.a.Mid(o.b) }

// allemande orbits each resolved pair around its midpoint on a circular
// path, total sweep rotations x 360. Right hands turn clockwise with
// each dancer's left shoulder toward the center; left hands mirror.
func allemande(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesAny)
	if err != nil {
		return nil, err
	}
	hand := dance.Hand(c.Instr.Hand)
	sign, faceOff := 1.0, -math.Pi/2
	if hand == dance.LeftHand {
		sign, faceOff = -1, math.Pi/2
	}
	sweep := c.Instr.Rotations * 2 * math.Pi
	arcs := make(map[dance.ProtoDancer]arc, len(matches))
	conns := make([]dance.HandConnection, 0, len(matches))
	for _, m := range matches {
		a := c.Prev.Dancers[m.Dancer].Pos
		b := m.TargetPos
		arcs[m.Dancer] = arc{a: a, b: b, minor: sign * b.Sub(a).Len() / 2}
		conns = append(conns, dance.NewHandConnection(m.Dancer, hand, m.Target.Proto, hand))
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		phi := geo.Ease(t) * sweep
		for d, o := range arcs {
			pos := geo.EllipsePoint(o.a, o.b, o.minor, phi)
			facing := geo.NormalizeBearing(geo.Bearing(o.center().Sub(pos)) + faceOff)
			kf.Dancers[d] = dance.DancerState{Pos: pos, Facing: facing}
		}
		if t < 1 {
			for _, conn := range conns {
				kf.SetHand(conn)
			}
		}
	}), nil
}

// doSiDo uses the allemande orbit, passing right shoulders first, but
// every dancer keeps their starting facing and no hands are taken.
func doSiDo(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesAny)
	if err != nil {
		return nil, err
	}
	sweep := c.Instr.Rotations * 2 * math.Pi
	arcs := make(map[dance.ProtoDancer]arc, len(matches))
	for _, m := range matches {
		a := c.Prev.Dancers[m.Dancer].Pos
		b := m.TargetPos
		arcs[m.Dancer] = arc{a: a, b: b, minor: b.Sub(a).Len() / 2}
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		phi := geo.Ease(t) * sweep
		for d, o := range arcs {
			s := kf.Dancers[d]
			s.Pos = geo.EllipsePoint(o.a, o.b, o.minor, phi)
			kf.Dancers[d] = s
		}
	}), nil
}

// pullBy swaps each resolved pair along a straight line, facing held,
// with the named hand joined for the duration of the pass.
func pullBy(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesAny)
	if err != nil {
		return nil, err
	}
	hand := dance.Hand(c.Instr.Hand)
	conns := make([]dance.HandConnection, 0, len(matches))
	for _, m := range matches {
		conns = append(conns, dance.NewHandConnection(m.Dancer, hand, m.Target.Proto, hand))
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		e := geo.Ease(t)
		for _, m := range matches {
			s := kf.Dancers[m.Dancer]
			start := c.Prev.Dancers[m.Dancer].Pos
			s.Pos = geo.Vec{
				X: geo.Lerp(start.X, m.TargetPos.X, e),
				Y: geo.Lerp(start.Y, m.TargetPos.Y, e),
			}
			kf.Dancers[m.Dancer] = s
		}
		if t < 1 {
			for _, conn := range conns {
				kf.SetHand(conn)
			}
		}
	}), nil
}

// boxTheGnat swaps an opposite-role pair over a half ellipse (minor
// half the major axis) while the lark turns a half turn clockwise and
// the robin counter-clockwise, right hands joined until the landing.
func boxTheGnat(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesOpposite)
	if err != nil {
		return nil, err
	}
	type gnat struct {
		orbit arc
		start float64
		turn  float64
	}
	plans := make(map[dance.ProtoDancer]gnat, len(matches))
	conns := make([]dance.HandConnection, 0, len(matches))
	for _, m := range matches {
		s := c.Prev.Dancers[m.Dancer]
		b := m.TargetPos
		turn := math.Pi
		if m.Dancer.Role() == dance.Robin {
			turn = -math.Pi
		}
		plans[m.Dancer] = gnat{
			orbit: arc{a: s.Pos, b: b, minor: b.Sub(s.Pos).Len() / 4},
			start: s.Facing,
			turn:  turn,
		}
		if m.Dancer.Role() == dance.Lark {
			conns = append(conns, dance.NewHandConnection(m.Dancer, dance.RightHand, m.Target.Proto, dance.RightHand))
		}
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		e := geo.Ease(t)
		for d, p := range plans {
			kf.Dancers[d] = dance.DancerState{
				Pos:    geo.EllipsePoint(p.orbit.a, p.orbit.b, p.orbit.minor, e*math.Pi),
				Facing: geo.NormalizeBearing(p.start + p.turn*e),
			}
		}
		if t < 1 {
			for _, conn := range conns {
				kf.SetHand(conn)
			}
		}
	}), nil
}

// madRobin runs the do-si-do orbit on couples, facing held, with the
// travel direction chosen so the front role passes in front first:
// counter-clockwise when that dancer starts off the right side of
// their counterpart's facing axis, clockwise off the left.
func madRobin(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesOpposite)
	if err != nil {
		return nil, err
	}
	front := c.Instr.Front
	sweep := c.Instr.Rotations * 2 * math.Pi
	arcs := make(map[dance.ProtoDancer]arc, len(matches))
	for _, m := range matches {
		s := c.Prev.Dancers[m.Dancer]
		b := m.TargetPos
		var frontPos, otherPos geo.Vec
		var otherFacing float64
		if m.Dancer.Role() == front {
			frontPos, otherPos = s.Pos, b
			otherFacing = c.Prev.Dancers[m.Target.Proto].Facing
		} else {
			frontPos, otherPos = b, s.Pos
			otherFacing = s.Facing
		}
		cr := geo.Heading(otherFacing).Cross(frontPos.Sub(otherPos))
		if math.Abs(cr) < 1e-6 {
			return nil, &FormationError{Figure: c.Instr.Op, Reason: fmt.Sprintf(
				"%s and %s are aligned head-on; cannot pick a pass direction", m.Dancer, m.Target.Proto)}
		}
		sign := 1.0
		if cr < 0 {
			// Front dancer starts on the right; the counter-clockwise
			// orbit carries them through the forward half-plane first.
			sign = -1
		}
		arcs[m.Dancer] = arc{a: s.Pos, b: b, minor: sign * b.Sub(s.Pos).Len() / 2}
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		phi := geo.Ease(t) * sweep
		for d, o := range arcs {
			s := kf.Dancers[d]
			s.Pos = geo.EllipsePoint(o.a, o.b, o.minor, phi)
			kf.Dancers[d] = s
		}
	}), nil
}
