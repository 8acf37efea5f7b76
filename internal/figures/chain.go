package figures

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
)

const (
	// chainCrossFrac is the share of the duration the robins' pull-by
	// takes; the courtesy turn fills the rest.
	chainCrossFrac = 3.0 / 8
	// chainDrawIn is how far the larks stay from the center line while
	// receiving, as a fraction of their starting offset.
	chainDrawIn = 0.7
)

// robinsChain: the robins pull by right hands between the larks while
// the larks draw toward the center line to receive, then each robin
// courtesy-turns with the lark on the other side, a half turn
// counter-clockwise around the couple midpoint that leaves both facing
// across the set.
func robinsChain(c *Context) ([]dance.Keyframe, error) {
	var robins, larks []dance.ProtoDancer
	for _, d := range c.Scope {
		if d.Role() == dance.Robin {
			robins = append(robins, d)
		} else {
			larks = append(larks, d)
		}
	}
	if len(robins) != 2 || len(larks) != 2 {
		return nil, &FormationError{Figure: c.Instr.Op, Reason: fmt.Sprintf(
			"a chain needs two robins and two larks in scope, got %d and %d", len(robins), len(larks))}
	}
	center := dance.Centroid(c.Prev, c.Scope)

	// Where everyone stands when the pull-by lands: robins swapped,
	// larks drawn in. The crossing robins also trade facings.
	midPos := make(map[dance.ProtoDancer]geo.Vec, 4)
	midFacing := make(map[dance.ProtoDancer]float64, 4)
	midPos[robins[0]] = c.Prev.Dancers[robins[1]].Pos
	midPos[robins[1]] = c.Prev.Dancers[robins[0]].Pos
	midFacing[robins[0]] = c.Prev.Dancers[robins[1]].Facing
	midFacing[robins[1]] = c.Prev.Dancers[robins[0]].Facing
	for _, l := range larks {
		s := c.Prev.Dancers[l]
		midPos[l] = geo.Vec{X: geo.Lerp(center.X, s.Pos.X, chainDrawIn), Y: s.Pos.Y}
		midFacing[l] = s.Facing
	}

	// Pair each robin with the lark nearest their landing spot and
	// freeze the turn arcs around the couple midpoints.
	type turn struct {
		center geo.Vec
		angle0 float64
		radius float64
	}
	turns := make(map[dance.ProtoDancer]turn, 4)
	couples := make([]dance.HandConnection, 0, 2)
	taken := map[dance.ProtoDancer]bool{}
	for _, r := range robins {
		var mate dance.ProtoDancer
		best := math.Inf(1)
		for _, l := range larks {
			if taken[l] {
				continue
			}
			if d := midPos[l].Sub(midPos[r]).Len(); d < best {
				best, mate = d, l
			}
		}
		taken[mate] = true
		couples = append(couples, dance.NewHandConnection(mate, dance.LeftHand, r, dance.LeftHand))
		cc := midPos[r].Mid(midPos[mate])
		for _, d := range []dance.ProtoDancer{r, mate} {
			turns[d] = turn{
				center: cc,
				angle0: geo.Bearing(midPos[d].Sub(cc)),
				radius: midPos[d].Sub(cc).Len(),
			}
		}
	}

	pull := dance.NewHandConnection(robins[0], dance.RightHand, robins[1], dance.RightHand)
	return c.frames(func(t float64, kf *dance.Keyframe) {
		if t < chainCrossFrac {
			u := geo.Ease(t / chainCrossFrac)
			for d, target := range midPos {
				start := c.Prev.Dancers[d]
				kf.Dancers[d] = dance.DancerState{
					Pos: geo.Vec{
						X: geo.Lerp(start.Pos.X, target.X, u),
						Y: geo.Lerp(start.Pos.Y, target.Y, u),
					},
					Facing: geo.NormalizeBearing(
						start.Facing + geo.AngleDiff(start.Facing, midFacing[d])*u),
				}
			}
			kf.SetHand(pull)
			return
		}
		v := geo.Ease((t - chainCrossFrac) / (1 - chainCrossFrac))
		for d, p := range turns {
			pos := p.center.Add(geo.Heading(p.angle0 - v*math.Pi).Scale(p.radius))
			kf.Dancers[d] = dance.DancerState{Pos: pos, Facing: geo.Bearing(p.center.Sub(pos))}
		}
		if t < 1 {
			for _, conn := range couples {
				kf.SetHand(conn)
			}
		}
	}), nil
}
