package figures

import (
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
)

// stepPlan is one dancer's resolved translation and turn, frozen
// against the starting keyframe so motion stays a pure function of it.
type stepPlan struct {
	start dance.DancerState
	dir   geo.Vec
	turn  float64
}

func (c *Context) stepPlans() (map[dance.ProtoDancer]stepPlan, error) {
	offset := c.Instr.FacingOffset * math.Pi / 180
	plans := make(map[dance.ProtoDancer]stepPlan, len(c.Scope))
	for _, d := range c.Scope {
		p := stepPlan{start: c.Prev.Dancers[d]}
		if c.Instr.Direction != "" {
			b, err := c.bearingFor(d, c.Instr.Direction)
			if err != nil {
				return nil, err
			}
			p.dir = geo.Heading(b)
		}
		if c.Instr.Facing != "" {
			fb, err := c.bearingFor(d, c.Instr.Facing)
			if err != nil {
				return nil, err
			}
			p.turn = geo.AngleDiff(p.start.Facing, fb+offset)
		} else if offset != 0 {
			p.turn = offset
		}
		plans[d] = p
	}
	return plans, nil
}

// step translates and turns every scoped dancer, both eased over the
// duration. It doubles as a pure turn (distance 0) and, with zero
// beats, an instantaneous facing change.
func step(c *Context) ([]dance.Keyframe, error) {
	plans, err := c.stepPlans()
	if err != nil {
		return nil, err
	}
	if c.Instr.Beats == 0 {
		kf := c.Prev.Clone()
		for d, p := range plans {
			s := p.start
			s.Facing = geo.NormalizeBearing(s.Facing + p.turn)
			kf.Dancers[d] = s
		}
		return []dance.Keyframe{kf}, nil
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		e := geo.Ease(t)
		for d, p := range plans {
			s := p.start
			s.Pos = s.Pos.Add(p.dir.Scale(c.Instr.Distance * e))
			s.Facing = geo.NormalizeBearing(s.Facing + p.turn*e)
			kf.Dancers[d] = s
		}
	}), nil
}

// balance is two half-duration steps, the second with the distance
// negated: out along the direction and straight back.
func balance(c *Context) ([]dance.Keyframe, error) {
	plans, err := c.stepPlans()
	if err != nil {
		return nil, err
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		var reach float64
		if t <= 0.5 {
			reach = geo.Ease(t * 2)
		} else {
			reach = 1 - geo.Ease((t-0.5)*2)
		}
		for d, p := range plans {
			s := p.start
			s.Pos = s.Pos.Add(p.dir.Scale(c.Instr.Distance * reach))
			kf.Dancers[d] = s
		}
	}), nil
}
