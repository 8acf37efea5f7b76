package figures

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/relate"
)

const (
	// swingCloseRadius is the orbit radius once the couple has pulled in.
	swingCloseRadius = 0.15
	// swingEndHalfSep is half the side-by-side separation of the end pose.
	swingEndHalfSep = 0.5
)

func swing(c *Context) ([]dance.Keyframe, error)                { return swingLike(c, false) }
func giveAndTakeIntoSwing(c *Context) ([]dance.Keyframe, error) { return swingLike(c, true) }

// swingLike orbits each opposite-role pair around its midpoint: pull in
// over the first tenth of the motion, spin at the closed radius with a
// linear (not eased) sweep, reopen over the last tenth, and land
// side-by-side facing the prescribed bearing with the lark on the left.
// With drift, the orbit center moves (eased) to the taker's starting
// spot over the first half and the couple ends there.
func swingLike(c *Context, drift bool) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesOpposite)
	if err != nil {
		return nil, err
	}
	fb, ok := absoluteBearing(c.Instr.Facing)
	if !ok {
		return nil, fmt.Errorf("figures: %s: facing %q must be a bearing in degrees, %q, or %q",
			c.Instr.Op, c.Instr.Facing, "up", "down")
	}
	perpLeft := geo.Heading(fb - math.Pi/2)

	type spinPlan struct {
		center0   geo.Vec
		centerEnd geo.Vec
		r0        float64
		angle0    float64
		sweep     float64
		end       geo.Vec
	}
	plans := make(map[dance.ProtoDancer]spinPlan, len(matches))
	conns := make([]dance.HandConnection, 0, len(matches)/2)
	for _, m := range matches {
		s := c.Prev.Dancers[m.Dancer]
		center0 := s.Pos.Mid(m.TargetPos)
		centerEnd := center0
		if drift {
			if m.Dancer.Role() == c.Instr.Taker {
				centerEnd = s.Pos
			} else {
				centerEnd = m.TargetPos
			}
		} else if c.Instr.EndCenter != nil {
			// The authored end center names the offset-0 pair; shift it
			// by the same lattice translation as the pair midpoint.
			centerEnd = geo.Vec{X: c.Instr.EndCenter[0], Y: c.Instr.EndCenter[1]}.
				Add(geo.Vec{Y: dance.LatticeSpacing * float64(m.Target.Offset) / 2})
		}
		side := 1.0
		if m.Dancer.Role() == dance.Robin {
			side = -1
		}
		end := centerEnd.Add(perpLeft.Scale(side * swingEndHalfSep))
		r0 := m.TargetPos.Sub(s.Pos).Len() / 2
		angle0 := geo.Bearing(s.Pos.Sub(center0))
		revs := c.Instr.Revolutions
		if revs <= 0 {
			revs = optimizeRevolutions(c.Instr.Beats, r0, angle0, end.Sub(centerEnd))
		}
		plans[m.Dancer] = spinPlan{
			center0:   center0,
			centerEnd: centerEnd,
			r0:        r0,
			angle0:    angle0,
			sweep:     revs * 2 * math.Pi,
			end:       end,
		}
		if m.Dancer.Role() == dance.Lark {
			conns = append(conns, dance.NewHandConnection(m.Dancer, dance.RightHand, m.Target.Proto, dance.LeftHand))
		}
	}
	return c.frames(func(t float64, kf *dance.Keyframe) {
		for d, p := range plans {
			if t == 1 {
				kf.Dancers[d] = dance.DancerState{Pos: p.end, Facing: fb}
				continue
			}
			shift := geo.Ease(t)
			if drift {
				shift = geo.Ease(math.Min(1, 2*t))
			}
			center := geo.Vec{
				X: geo.Lerp(p.center0.X, p.centerEnd.X, shift),
				Y: geo.Lerp(p.center0.Y, p.centerEnd.Y, shift),
			}
			pos := center.Add(geo.Heading(p.angle0 + t*p.sweep).Scale(swingRadius(p.r0, t)))
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

// swingRadius closes from the starting radius over the first tenth of
// the motion and reopens over the last tenth.
func swingRadius(r0, t float64) float64 {
	switch {
	case t < 0.1:
		return geo.Lerp(r0, swingCloseRadius, t/0.1)
	case t > 0.9:
		return geo.Lerp(swingCloseRadius, r0, (t-0.9)/0.1)
	default:
		return swingCloseRadius
	}
}

// optimizeRevolutions searches around the naive one-revolution-per-four
// beats guess for the count whose reopened orbit lands nearest the
// prescribed end pose, never dipping below half a revolution.
func optimizeRevolutions(beats, r0, angle0 float64, wantRel geo.Vec) float64 {
	naive := math.Max(0.5, beats/4)
	best, bestErr := naive, math.Inf(1)
	for i := -50; i <= 50; i++ {
		revs := naive + float64(i)/100
		if revs < 0.5 {
			continue
		}
		at := geo.Heading(angle0 + revs*2*math.Pi).Scale(r0)
		if e := at.Sub(wantRel).Len(); e < bestErr {
			best, bestErr = revs, e
		}
	}
	return best
}
