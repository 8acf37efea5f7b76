// Package check runs post-hoc sanity passes over a completed timeline.
// Checks never fail generation; they produce warnings a choreographer
// reads alongside the preview.
package check

import (
	"fmt"
	"math"
	"sort"

	"github.com/kingrea/contraline/internal/composer"
	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/score"
)

// Kind labels a warning category.
type Kind string

const (
	HandDistance Kind = "hand_distance"
	HandSymmetry Kind = "hand_symmetry"
	Collision    Kind = "collision"
	SpinRate     Kind = "spin_rate"
	Progression  Kind = "progression"
)

// Warning is one finding. InstructionID is empty for timeline-wide
// findings such as the progression mismatch.
type Warning struct {
	InstructionID string  `json:"instruction_id,omitempty"`
	Kind          Kind    `json:"kind"`
	Beat          float64 `json:"beat"`
	Message       string  `json:"message"`
}

// Report collects every warning from one run.
type Report struct {
	Warnings []Warning `json:"warnings"`
}

// Empty reports a clean timeline.
func (r Report) Empty() bool { return len(r.Warnings) == 0 }

// Limits holds the configurable thresholds.
type Limits struct {
	// MaxHandReach is the longest a held connection may stretch.
	MaxHandReach float64
	// MinSeparation is the closest two dancers may stand. A swing at
	// the closed radius sits just above the default.
	MinSeparation float64
	// MaxSpinRate caps facing change per beat, radians.
	MaxSpinRate float64
	// ProgressionTol is the allowed error on net displacement.
	ProgressionTol float64
}

// DefaultLimits returns the stock thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxHandReach:   1.5,
		MinSeparation:  0.25,
		MaxSpinRate:    1.5 * math.Pi,
		ProgressionTol: 0.1,
	}
}

// Run checks a composed timeline against the document it came from.
// The result may be a partial timeline; whatever frames exist are
// checked.
func Run(d score.Dance, res composer.Result, lim Limits) Report {
	var rep Report
	if len(res.Keyframes) == 0 {
		return rep
	}
	att := newAttributor(res.Spans)
	rep.handDistance(res.Keyframes, att, lim)
	rep.handSymmetry(res.Keyframes, att)
	rep.collisions(res.Keyframes, att, lim)
	rep.spinRate(res.Keyframes, att, lim)
	if res.Err == nil {
		rep.progression(d, res.Keyframes, lim)
	}
	return rep
}

// attributor maps a beat to the tightest instruction span containing
// it, so warnings land on the atomic figure rather than an enclosing
// group.
type attributor struct {
	spans []composer.Span
}

func newAttributor(spans []composer.Span) *attributor {
	ordered := append([]composer.Span(nil), spans...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].End-ordered[i].Start < ordered[j].End-ordered[j].Start
	})
	return &attributor{spans: ordered}
}

func (a *attributor) at(beat float64) string {
	for _, s := range a.spans {
		if beat >= s.Start-1e-9 && beat <= s.End+1e-9 {
			return s.ID
		}
	}
	return ""
}

// warnOnce records at most one warning per (instruction, kind).
func (r *Report) warnOnce(seen map[string]bool, w Warning) {
	key := string(w.Kind) + "\x00" + w.InstructionID
	if seen[key] {
		return
	}
	seen[key] = true
	r.Warnings = append(r.Warnings, w)
}

func (r *Report) handDistance(frames []dance.Keyframe, att *attributor, lim Limits) {
	seen := map[string]bool{}
	for _, kf := range frames {
		for _, h := range kf.Hands {
			d := kf.Dancers[h.A].Pos.Sub(kf.Dancers[h.B].Pos).Len()
			if d <= lim.MaxHandReach {
				continue
			}
			r.warnOnce(seen, Warning{
				InstructionID: att.at(kf.Beat),
				Kind:          HandDistance,
				Beat:          kf.Beat,
				Message: fmt.Sprintf("%s and %s hold hands %.2f apart (limit %.2f) at beat %g",
					h.A, h.B, d, lim.MaxHandReach, kf.Beat),
			})
		}
	}
}

func (r *Report) handSymmetry(frames []dance.Keyframe, att *attributor) {
	seen := map[string]bool{}
	for _, kf := range frames {
		pairs := map[[2]dance.ProtoDancer]bool{}
		type grip struct {
			d dance.ProtoDancer
			h dance.Hand
		}
		grips := map[grip]int{}
		for _, h := range kf.Hands {
			if pairs[h.PairKey()] {
				r.warnOnce(seen, Warning{
					InstructionID: att.at(kf.Beat),
					Kind:          HandSymmetry,
					Beat:          kf.Beat,
					Message:       fmt.Sprintf("%s and %s are connected twice at beat %g", h.A, h.B, kf.Beat),
				})
			}
			pairs[h.PairKey()] = true
			grips[grip{h.A, h.AHand}]++
			grips[grip{h.B, h.BHand}]++
		}
		for g, n := range grips {
			if n > 1 {
				r.warnOnce(seen, Warning{
					InstructionID: att.at(kf.Beat),
					Kind:          HandSymmetry,
					Beat:          kf.Beat,
					Message: fmt.Sprintf("%s's %s hand is in %d connections at beat %g",
						g.d, g.h, n, kf.Beat),
				})
			}
		}
	}
}

func (r *Report) collisions(frames []dance.Keyframe, att *attributor, lim Limits) {
	seen := map[string]bool{}
	for _, kf := range frames {
		for i, p := range dance.All {
			for _, q := range dance.All[i+1:] {
				d := kf.Dancers[p].Pos.Sub(kf.Dancers[q].Pos).Len()
				if d >= lim.MinSeparation {
					continue
				}
				r.warnOnce(seen, Warning{
					InstructionID: att.at(kf.Beat),
					Kind:          Collision,
					Beat:          kf.Beat,
					Message: fmt.Sprintf("%s and %s pass %.2f apart (limit %.2f) at beat %g",
						p, q, d, lim.MinSeparation, kf.Beat),
				})
			}
		}
	}
}

func (r *Report) spinRate(frames []dance.Keyframe, att *attributor, lim Limits) {
	seen := map[string]bool{}
	for i := 1; i < len(frames); i++ {
		db := frames[i].Beat - frames[i-1].Beat
		if db <= 0 {
			continue // instantaneous facing changes are deliberate
		}
		for _, p := range dance.All {
			turn := math.Abs(geo.AngleDiff(frames[i-1].Dancers[p].Facing, frames[i].Dancers[p].Facing))
			if turn/db <= lim.MaxSpinRate {
				continue
			}
			r.warnOnce(seen, Warning{
				InstructionID: att.at(frames[i].Beat),
				Kind:          SpinRate,
				Beat:          frames[i].Beat,
				Message: fmt.Sprintf("%s spins %.0f degrees per beat near beat %g",
					p, turn/db*180/math.Pi, frames[i].Beat),
			})
		}
	}
}

// progression verifies each dancer's net displacement: up dancers move
// up the set and down dancers down it by half a lattice spacing per
// declared progression, with no net drift across the set.
func (r *Report) progression(d score.Dance, frames []dance.Keyframe, lim Limits) {
	first, last := frames[0], frames[len(frames)-1]
	expect := d.Progression * dance.LatticeSpacing / 2
	var bad []string
	for _, p := range dance.All {
		want := expect
		if !p.IsUp() {
			want = -expect
		}
		delta := last.Dancers[p].Pos.Sub(first.Dancers[p].Pos)
		if math.Abs(delta.Y-want) > lim.ProgressionTol || math.Abs(delta.X) > lim.ProgressionTol {
			bad = append(bad, fmt.Sprintf("%s moved (%.2f, %.2f), want (0.00, %.2f)",
				p, delta.X, delta.Y, want))
		}
	}
	if len(bad) > 0 {
		msg := bad[0]
		for _, b := range bad[1:] {
			msg += "; " + b
		}
		r.Warnings = append(r.Warnings, Warning{
			Kind:    Progression,
			Beat:    last.Beat,
			Message: fmt.Sprintf("net progression mismatch: %s", msg),
		})
	}
}
