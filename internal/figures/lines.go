package figures

import (
	"fmt"
	"math"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/score"
)

// Tolerances for the line-mate search. A mate must sit within reach
// along the shoulder axis, close to it laterally, and aligned in
// facing.
const (
	lineReach     = 1.3
	lineSideTol   = 0.3
	lineFacingTol = math.Pi / 6
)

func longLines(c *Context) ([]dance.Keyframe, error)  { return lineAssert(c) }
func shortWaves(c *Context) ([]dance.Keyframe, error) { return lineAssert(c) }

type lineMate struct {
	other dance.ProtoDancer
	side  dance.Hand
}

// offAxis is the angular distance from facing to the nearer of the two
// bearings that define a line's facing axis.
func offAxis(facing, a, b float64) float64 {
	return math.Min(math.Abs(geo.AngleDiff(facing, a)), math.Abs(geo.AngleDiff(facing, b)))
}

// lineAssert verifies the scoped dancers stand in the line formation
// the figure names and joins the inside hands. Long lines run up and
// down the set with everyone facing across it, mates facing the same
// way with alternating roles; short waves run across the set with
// everyone facing along it, mates facing opposite ways and the two
// center dancers sharing a role. Zero beats: one keyframe with the
// connections added.
func lineAssert(c *Context) ([]dance.Keyframe, error) {
	op := c.Instr.Op
	sameFacing := op == score.OpLongLines
	mates := make(map[dance.ProtoDancer][]lineMate, len(c.Scope))
	for _, d := range c.Scope {
		s := c.Prev.Dancers[d]
		if sameFacing {
			if offAxis(s.Facing, math.Pi/2, 3*math.Pi/2) > lineFacingTol {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"%s faces along the set, not across it; long lines face across", d)}
			}
		} else if offAxis(s.Facing, 0, math.Pi) > lineFacingTol {
			return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
				"%s faces across the set, not along it; waves face up and down", d)}
		}
		for _, side := range []dance.Hand{dance.LeftHand, dance.RightHand} {
			bias := -math.Pi / 2
			if side == dance.RightHand {
				bias = math.Pi / 2
			}
			axis := geo.Heading(s.Facing + bias)
			var found []dance.ProtoDancer
			for _, e := range c.Scope {
				if e == d {
					continue
				}
				delta := c.Prev.Dancers[e].Pos.Sub(s.Pos)
				along := delta.Dot(axis)
				if along <= 0 || along > lineReach {
					continue
				}
				if delta.Sub(axis.Scale(along)).Len() > lineSideTol {
					continue
				}
				found = append(found, e)
			}
			if len(found) > 1 {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"%s has %d dancers at their %s hand; a line allows one", d, len(found), side)}
			}
			if len(found) == 0 {
				continue
			}
			e := found[0]
			es := c.Prev.Dancers[e]
			if sameFacing {
				if math.Abs(geo.AngleDiff(s.Facing, es.Facing)) > lineFacingTol {
					return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
						"%s and %s must face the same way", d, e)}
				}
			} else if math.Abs(geo.AngleDiff(s.Facing, es.Facing+math.Pi)) > lineFacingTol {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"wave mates %s and %s must face opposite ways", d, e)}
			}
			mates[d] = append(mates[d], lineMate{other: e, side: side})
		}
		if len(mates[d]) == 0 {
			return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
				"%s has no one within reach on either hand", d)}
		}
	}

	// Role parity: adjacent dancers alternate roles, except the two
	// wave centers, who share one.
	for d, ms := range mates {
		for _, m := range ms {
			bothCenters := !sameFacing && len(mates[d]) == 2 && len(mates[m.other]) == 2
			if bothCenters && d.Role() != m.other.Role() {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"wave centers %s and %s must share a role", d, m.other)}
			}
			if !bothCenters && d.Role() == m.other.Role() {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"%s and %s are adjacent but share a role", d, m.other)}
			}
		}
	}

	kf := c.Prev.Clone()
	for d, ms := range mates {
		for _, m := range ms {
			theirs, err := insideHand(c.Prev.Dancers[m.other], c.Prev.Dancers[d].Pos)
			if err != nil {
				return nil, &FormationError{Figure: op, Reason: fmt.Sprintf(
					"%s cannot reach %s: %v", m.other, d, err)}
			}
			kf.SetHand(dance.NewHandConnection(d, m.side, m.other, theirs))
		}
	}
	return []dance.Keyframe{kf}, nil
}
