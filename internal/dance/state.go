package dance

import (
	"sort"

	"github.com/kingrea/contraline/internal/geo"
)

// LatticeSpacing is the distance along the set axis between one
// hands-four and its neighboring copy: two rows of dancers at unit
// spacing.
const LatticeSpacing = 2.0

// DancerState is a dancer's position and facing at one instant.
// States are always copied between keyframes, never aliased.
type DancerState struct {
	Pos    geo.Vec `json:"pos"`
	Facing float64 `json:"facing"`
}

// HandConnection records that two dancers hold hands, with the hand
// each contributes. The pair is normalized so A precedes B in canonical
// order; connections are deduplicated per unordered pair.
type HandConnection struct {
	A     ProtoDancer `json:"a"`
	AHand Hand        `json:"a_hand"`
	B     ProtoDancer `json:"b"`
	BHand Hand        `json:"b_hand"`
}

// NewHandConnection builds a normalized connection between two dancers.
func NewHandConnection(a ProtoDancer, aHand Hand, b ProtoDancer, bHand Hand) HandConnection {
	if a.order() > b.order() {
		a, b = b, a
		aHand, bHand = bHand, aHand
	}
	return HandConnection{A: a, AHand: aHand, B: b, BHand: bHand}
}

// PairKey identifies the unordered dancer pair, ignoring hands.
func (h HandConnection) PairKey() [2]ProtoDancer {
	return [2]ProtoDancer{h.A, h.B}
}

// Involves reports whether the connection touches p.
func (h HandConnection) Involves(p ProtoDancer) bool {
	return h.A == p || h.B == p
}

// UsesHand reports whether p contributes hand to this connection.
func (h HandConnection) UsesHand(p ProtoDancer, hand Hand) bool {
	return (h.A == p && h.AHand == hand) || (h.B == p && h.BHand == hand)
}

// Keyframe is one sampled instant of the timeline: a beat, the state of
// all four proto-dancers, and the hand connections in effect. Keyframes
// are immutable once emitted; Clone before mutating.
type Keyframe struct {
	Beat    float64                     `json:"beat"`
	Dancers map[ProtoDancer]DancerState `json:"dancers"`
	Hands   []HandConnection            `json:"hands,omitempty"`
}

// NewKeyframe allocates an empty keyframe at the given beat.
func NewKeyframe(beat float64) Keyframe {
	return Keyframe{Beat: beat, Dancers: make(map[ProtoDancer]DancerState, len(All))}
}

// Clone deep-copies the keyframe.
func (k Keyframe) Clone() Keyframe {
	out := Keyframe{Beat: k.Beat, Dancers: make(map[ProtoDancer]DancerState, len(k.Dancers))}
	for p, s := range k.Dancers {
		out.Dancers[p] = s
	}
	if len(k.Hands) > 0 {
		out.Hands = append([]HandConnection(nil), k.Hands...)
	}
	return out
}

// SetHand installs a connection, replacing any existing connection for
// the same unordered pair so a pair never appears twice.
func (k *Keyframe) SetHand(conn HandConnection) {
	key := conn.PairKey()
	for i, h := range k.Hands {
		if h.PairKey() == key {
			k.Hands[i] = conn
			return
		}
	}
	k.Hands = append(k.Hands, conn)
}

// DropHands removes every connection the predicate matches.
func (k *Keyframe) DropHands(match func(HandConnection) bool) {
	kept := k.Hands[:0]
	for _, h := range k.Hands {
		if !match(h) {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		k.Hands = nil
		return
	}
	k.Hands = kept
}

// VirtualPos returns the position of a lattice copy: the real proto
// state translated by Offset units along the set axis. This is the pure
// position formula behind the periodic relationship search; no virtual
// dancer is ever stored.
func (k Keyframe) VirtualPos(id DancerID) geo.Vec {
	s := k.Dancers[id.Proto]
	return s.Pos.Add(geo.Vec{X: 0, Y: LatticeSpacing * float64(id.Offset)})
}

// Centroid returns the mean position of the given dancers.
func Centroid(k Keyframe, scope []ProtoDancer) geo.Vec {
	var c geo.Vec
	if len(scope) == 0 {
		return c
	}
	for _, p := range scope {
		c = c.Add(k.Dancers[p].Pos)
	}
	return c.Scale(1 / float64(len(scope)))
}

// SortByAngle orders scope members clockwise by their bearing around
// center, starting from bearing 0. Used to derive ring adjacency.
func SortByAngle(k Keyframe, scope []ProtoDancer, center geo.Vec) []ProtoDancer {
	out := append([]ProtoDancer(nil), scope...)
	sort.Slice(out, func(i, j int) bool {
		bi := geo.Bearing(k.Dancers[out[i]].Pos.Sub(center))
		bj := geo.Bearing(k.Dancers[out[j]].Pos.Sub(center))
		if bi == bj {
			return out[i].order() < out[j].order()
		}
		return bi < bj
	})
	return out
}
