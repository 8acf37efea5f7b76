package figures

import (
	"fmt"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/relate"
)

// takeHands connects each resolved pair. "inside" picks each dancer's
// geometrically nearer hand; left/right name the same hand for both.
func takeHands(c *Context) ([]dance.Keyframe, error) {
	matches, err := c.pairs(relate.RolesAny)
	if err != nil {
		return nil, err
	}
	kf := c.Prev.Clone()
	for _, m := range matches {
		var mine, theirs dance.Hand
		if c.Instr.Hand == "inside" {
			mine, err = insideHand(c.Prev.Dancers[m.Dancer], m.TargetPos)
			if err != nil {
				return nil, fmt.Errorf("figures: take_hands: %s toward %s: %w", m.Dancer, m.Target, err)
			}
			theirs, err = insideHand(c.Prev.Dancers[m.Target.Proto], mirrorPos(c.Prev, m))
			if err != nil {
				return nil, fmt.Errorf("figures: take_hands: %s toward %s: %w", m.Target.Proto, m.Dancer, err)
			}
		} else {
			mine = dance.Hand(c.Instr.Hand)
			theirs = mine
		}
		kf.SetHand(dance.NewHandConnection(m.Dancer, mine, m.Target.Proto, theirs))
	}
	return []dance.Keyframe{kf}, nil
}

// dropHands releases connections. With a rel, only the resolved pairs
// let go; with a hand, every in-scope use of that hand; with neither,
// everything touching the scope.
func dropHands(c *Context) ([]dance.Keyframe, error) {
	kf := c.Prev.Clone()
	if c.Instr.Rel != "" {
		matches, err := c.pairs(relate.RolesAny)
		if err != nil {
			return nil, err
		}
		keys := make(map[[2]dance.ProtoDancer]bool, len(matches))
		for _, m := range matches {
			conn := dance.NewHandConnection(m.Dancer, dance.LeftHand, m.Target.Proto, dance.LeftHand)
			keys[conn.PairKey()] = true
		}
		kf.DropHands(func(h dance.HandConnection) bool { return keys[h.PairKey()] })
		return []dance.Keyframe{kf}, nil
	}
	inScope := make(map[dance.ProtoDancer]bool, len(c.Scope))
	for _, p := range c.Scope {
		inScope[p] = true
	}
	if c.Instr.Hand != "" {
		hand := dance.Hand(c.Instr.Hand)
		kf.DropHands(func(h dance.HandConnection) bool {
			return (inScope[h.A] && h.AHand == hand) || (inScope[h.B] && h.BHand == hand)
		})
		return []dance.Keyframe{kf}, nil
	}
	kf.DropHands(func(h dance.HandConnection) bool { return inScope[h.A] || inScope[h.B] })
	return []dance.Keyframe{kf}, nil
}
