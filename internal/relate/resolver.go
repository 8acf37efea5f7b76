// Package relate resolves relationship references ("partner",
// "on_right", ...) to concrete dancers. Static relations are fixed
// involutive permutations of the four roles; dynamic relations search
// the periodic lattice of virtual hands-four copies by heading and
// distance.
package relate

import (
	"fmt"
	"math"
	"strings"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
)

// Kind enumerates the relationship kinds.
type Kind string

const (
	Partner  Kind = "partner"
	Neighbor Kind = "neighbor"
	Opposite Kind = "opposite"
	OnRight  Kind = "on_right"
	OnLeft   Kind = "on_left"
	InFront  Kind = "in_front"
)

// Rel is a parsed relationship reference: a kind plus an optional role
// filter for the dynamic kinds ("lark_on_right" finds the nearest lark
// off the right shoulder).
type Rel struct {
	Kind   Kind
	Filter dance.Role
}

// Dynamic reports whether resolution requires a directional search.
func (r Rel) Dynamic() bool {
	switch r.Kind {
	case OnRight, OnLeft, InFront:
		return true
	}
	return false
}

func (r Rel) String() string {
	if r.Filter == "" {
		return string(r.Kind)
	}
	return fmt.Sprintf("%s_%s", r.Filter, r.Kind)
}

// ParseRel interprets a relationship reference from a dance document.
func ParseRel(s string) (Rel, error) {
	ref := strings.ToLower(strings.TrimSpace(s))
	var rel Rel
	for _, role := range []dance.Role{dance.Lark, dance.Robin} {
		prefix := string(role) + "_"
		if strings.HasPrefix(ref, prefix) {
			rel.Filter = role
			ref = strings.TrimPrefix(ref, prefix)
			break
		}
	}
	switch ref {
	case "partner", "partners":
		rel.Kind = Partner
	case "neighbor", "neighbors":
		rel.Kind = Neighbor
	case "opposite", "opposites":
		rel.Kind = Opposite
	case "on_right":
		rel.Kind = OnRight
	case "on_left":
		rel.Kind = OnLeft
	case "in_front":
		rel.Kind = InFront
	default:
		return Rel{}, fmt.Errorf("relate: unknown relationship %q", s)
	}
	if rel.Filter != "" && !rel.Dynamic() {
		return Rel{}, fmt.Errorf("relate: role filter is only valid on directional relationships, got %q", s)
	}
	return rel, nil
}

// Tuning holds the empirically tuned constants of the directional
// search. They are configurable rather than load-bearing; the defaults
// reproduce the original tool.
type Tuning struct {
	// BiasAngle is the clockwise offset added to the dancer's facing to
	// form the search heading for on_right (negated for on_left). The
	// ~70° default biases "ahead" over "directly beside".
	BiasAngle float64
	// OffAxisCutoff discards candidates whose cos(2θ) falls below it,
	// where θ is the angle between search heading and candidate.
	OffAxisCutoff float64
	// Window is how many lattice offsets to scan on each side of the
	// vertical-separation-minimizing offset.
	Window int
}

// DefaultTuning returns the search constants used by the original tool.
func DefaultTuning() Tuning {
	return Tuning{
		BiasAngle:     70 * math.Pi / 180,
		OffAxisCutoff: 0.1,
		Window:        2,
	}
}

// ResolutionError reports a relationship that could not be resolved, or
// a resolved matching that violates a required property.
type ResolutionError struct {
	Dancer dance.ProtoDancer
	Rel    Rel
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("relate: %s has no %s: %s", e.Dancer, e.Rel, e.Reason)
}

// Resolve maps a dancer and relationship to a target DancerID. Static
// kinds are O(1) involutive lookups; dynamic kinds run the lattice
// search against the current keyframe.
func Resolve(rel Rel, d dance.ProtoDancer, kf dance.Keyframe, tun Tuning) (dance.DancerID, error) {
	switch rel.Kind {
	case Partner:
		return dance.DancerID{Proto: d.Partner()}, nil
	case Neighbor:
		return dance.DancerID{Proto: d.Neighbor()}, nil
	case Opposite:
		return dance.DancerID{Proto: d.Opposite()}, nil
	case OnRight:
		return search(rel, d, kf, tun, tun.BiasAngle)
	case OnLeft:
		return search(rel, d, kf, tun, -tun.BiasAngle)
	case InFront:
		return search(rel, d, kf, tun, 0)
	default:
		return dance.DancerID{}, fmt.Errorf("relate: unknown relationship kind %q", rel.Kind)
	}
}

// search scans every proto-dancer over a small window of lattice
// offsets around the offset minimizing vertical separation, scoring
// candidates by distance / cos(2θ) along the biased heading.
func search(rel Rel, d dance.ProtoDancer, kf dance.Keyframe, tun Tuning, bias float64) (dance.DancerID, error) {
	self := kf.Dancers[d]
	heading := geo.Heading(self.Facing + bias)

	bestScore := math.Inf(1)
	var best dance.DancerID
	found := false

	for _, p := range dance.All {
		if rel.Filter != "" && p.Role() != rel.Filter {
			continue
		}
		k0 := int(math.Round((self.Pos.Y - kf.Dancers[p].Pos.Y) / dance.LatticeSpacing))
		for k := k0 - tun.Window; k <= k0+tun.Window; k++ {
			if p == d && k == 0 {
				continue
			}
			id := dance.DancerID{Proto: p, Offset: k}
			delta := kf.VirtualPos(id).Sub(self.Pos)
			dist := delta.Len()
			if dist < 1e-9 {
				continue
			}
			cosT := heading.Dot(delta) / dist
			if cosT <= 0 {
				continue // behind the search heading
			}
			cos2T := 2*cosT*cosT - 1
			if cos2T < tun.OffAxisCutoff {
				continue // too far off axis
			}
			score := dist / cos2T
			if score < bestScore {
				bestScore = score
				best = id
				found = true
			}
		}
	}
	if !found {
		return dance.DancerID{}, &ResolutionError{
			Dancer: d,
			Rel:    rel,
			Reason: "no candidate ahead of the search heading",
		}
	}
	return best, nil
}

// RoleRule constrains the roles within a resolved pair.
type RoleRule int

const (
	RolesAny RoleRule = iota
	RolesSame
	RolesOpposite
)

// Match pairs an in-scope dancer with its resolved target. TargetPos is
// the target's (possibly virtual) position; generators compute each
// dancer's geometry against it, so cross-unit pairs work without ever
// materializing a fifth dancer.
type Match struct {
	Dancer    dance.ProtoDancer
	Target    dance.DancerID
	TargetPos geo.Vec
}

// Pairs resolves the relationship for every dancer in scope and asserts
// the matching is usable: every target's role is itself in scope, the
// matching is symmetric (A finds B iff B finds A in the mirrored unit),
// and the role rule holds. Violations are hard errors naming the pair.
func Pairs(rel Rel, scope []dance.ProtoDancer, kf dance.Keyframe, tun Tuning, rule RoleRule) ([]Match, error) {
	inScope := map[dance.ProtoDancer]bool{}
	for _, p := range scope {
		inScope[p] = true
	}
	matches := make([]Match, 0, len(scope))
	for _, d := range scope {
		target, err := Resolve(rel, d, kf, tun)
		if err != nil {
			return nil, err
		}
		if !inScope[target.Proto] {
			return nil, &ResolutionError{Dancer: d, Rel: rel,
				Reason: fmt.Sprintf("target %s is out of scope", target)}
		}
		back, err := Resolve(rel, target.Proto, kf, tun)
		if err != nil {
			return nil, &ResolutionError{Dancer: target.Proto, Rel: rel,
				Reason: fmt.Sprintf("matching with %s is not symmetric: %v", d, err)}
		}
		if back.Proto != d || back.Offset != -target.Offset {
			return nil, &ResolutionError{Dancer: d, Rel: rel,
				Reason: fmt.Sprintf("asymmetric matching: %s finds %s but %s finds %s", d, target, target.Proto, back)}
		}
		switch rule {
		case RolesSame:
			if d.Role() != target.Proto.Role() {
				return nil, &ResolutionError{Dancer: d, Rel: rel,
					Reason: fmt.Sprintf("pair %s/%s must share a role", d, target.Proto)}
			}
		case RolesOpposite:
			if d.Role() == target.Proto.Role() {
				return nil, &ResolutionError{Dancer: d, Rel: rel,
					Reason: fmt.Sprintf("pair %s/%s must have opposite roles", d, target.Proto)}
			}
		}
		matches = append(matches, Match{Dancer: d, Target: target, TargetPos: kf.VirtualPos(target)})
	}
	return matches, nil
}
