// Package dance holds the core data model: the four proto-dancers of a
// hands-four, their states, hand connections, and keyframes.
package dance

import "fmt"

// ProtoDancer names one of the four canonical roles in a repeating
// hands-four unit. Exactly these four exist; every physical dancer in
// the (conceptually infinite) line is a lattice copy of one of them.
type ProtoDancer string

const (
	UpLark    ProtoDancer = "up_lark"
	UpRobin   ProtoDancer = "up_robin"
	DownLark  ProtoDancer = "down_lark"
	DownRobin ProtoDancer = "down_robin"
)

// All lists the proto-dancers in canonical order.
var All = []ProtoDancer{UpLark, UpRobin, DownLark, DownRobin}

// Role is the lark/robin half of a proto-dancer's identity.
type Role string

const (
	Lark  Role = "lark"
	Robin Role = "robin"
)

// Valid reports whether p is one of the four canonical roles.
func (p ProtoDancer) Valid() bool {
	switch p {
	case UpLark, UpRobin, DownLark, DownRobin:
		return true
	}
	return false
}

// IsLark reports whether p dances the lark role.
func (p ProtoDancer) IsLark() bool {
	return p == UpLark || p == DownLark
}

// IsUp reports whether p belongs to the up-facing couple.
func (p ProtoDancer) IsUp() bool {
	return p == UpLark || p == UpRobin
}

// Role returns lark or robin.
func (p ProtoDancer) Role() Role {
	if p.IsLark() {
		return Lark
	}
	return Robin
}

// Label is the two-letter tag used by the ASCII renderer (UL, UR, DL, DR).
func (p ProtoDancer) Label() string {
	d := "D"
	if p.IsUp() {
		d = "U"
	}
	r := "R"
	if p.IsLark() {
		r = "L"
	}
	return d + r
}

// order gives the canonical sort position, used to normalize pairs.
func (p ProtoDancer) order() int {
	for i, q := range All {
		if p == q {
			return i
		}
	}
	return len(All)
}

// Partner is the involutive partner relation within the unit.
func (p ProtoDancer) Partner() ProtoDancer {
	switch p {
	case UpLark:
		return UpRobin
	case UpRobin:
		return UpLark
	case DownLark:
		return DownRobin
	default:
		return DownLark
	}
}

// Neighbor is the involutive neighbor relation within the unit.
func (p ProtoDancer) Neighbor() ProtoDancer {
	switch p {
	case UpLark:
		return DownRobin
	case UpRobin:
		return DownLark
	case DownLark:
		return UpRobin
	default:
		return UpLark
	}
}

// Opposite is the involutive diagonal relation within the unit.
func (p ProtoDancer) Opposite() ProtoDancer {
	return p.Neighbor().Partner()
}

// DancerID addresses a dancer in the offset lattice: the proto role
// plus an integer unit offset. Offset 0 is the real hands-four; ±1 and
// beyond are virtual copies used only during relationship search and
// never materialized.
type DancerID struct {
	Proto  ProtoDancer `json:"proto"`
	Offset int         `json:"offset"`
}

// Real reports whether the id addresses the real unit.
func (d DancerID) Real() bool {
	return d.Offset == 0
}

func (d DancerID) String() string {
	if d.Offset == 0 {
		return string(d.Proto)
	}
	return fmt.Sprintf("%s%+d", d.Proto, d.Offset)
}

// Hand is left or right.
type Hand string

const (
	LeftHand  Hand = "left"
	RightHand Hand = "right"
)

// Other returns the opposite hand.
func (h Hand) Other() Hand {
	if h == LeftHand {
		return RightHand
	}
	return LeftHand
}

// Valid reports whether h is a recognized hand.
func (h Hand) Valid() bool {
	return h == LeftHand || h == RightHand
}
