// Package composer folds an instruction tree into one keyframe
// timeline. The timeline starts from the document's formation; every
// atomic instruction appends the frames its generator produces, groups
// concatenate their children, and splits run two sub-timelines over
// disjoint dancer scopes and zip them back together.
package composer

import (
	"fmt"
	"math"
	"sort"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/figures"
	"github.com/kingrea/contraline/internal/relate"
	"github.com/kingrea/contraline/internal/score"
)

// beatEpsilon is the rounding quantum used when aligning the beat
// grids of two split branches.
const beatEpsilon = 1e-6

// Span records the beat range one instruction occupies in the
// timeline. Zero-beat figures have Start == End.
type Span struct {
	ID    string   `json:"id"`
	Op    score.Op `json:"op"`
	Start float64  `json:"start"`
	End   float64  `json:"end"`
}

// Error ties a generation failure to the instruction that caused it.
type Error struct {
	InstructionID string
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("composer: instruction %s: %v", e.InstructionID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Result is a composed timeline. On failure Err names the offending
// instruction and Keyframes holds everything generated up to it, so a
// caller can still preview the partial dance.
type Result struct {
	Keyframes []dance.Keyframe `json:"keyframes"`
	Spans     []Span           `json:"spans"`
	Err       *Error           `json:"-"`
}

// Options tunes composition. Zero values select the defaults.
type Options struct {
	Tuning       relate.Tuning
	BeatsPerStep float64
	Registry     *figures.Registry
}

func (o Options) withDefaults() Options {
	if o.Tuning == (relate.Tuning{}) {
		o.Tuning = relate.DefaultTuning()
	}
	if o.BeatsPerStep <= 0 {
		o.BeatsPerStep = figures.DefaultBeatsPerStep
	}
	if o.Registry == nil {
		o.Registry = figures.Builtin()
	}
	return o
}

// Compose generates the timeline for a validated dance document. The
// first keyframe is always the starting formation at beat 0.
func Compose(d score.Dance, opts Options) Result {
	opts = opts.withDefaults()
	start, err := dance.MakeFormation(d.Formation)
	if err != nil {
		return Result{Err: &Error{InstructionID: "", Err: err}}
	}
	w := walker{opts: opts, frames: []dance.Keyframe{start}}
	werr := w.run(d.Instructions, dance.All)
	return Result{Keyframes: w.frames, Spans: w.spans, Err: werr}
}

type walker struct {
	opts   Options
	frames []dance.Keyframe
	spans  []Span
}

func (w *walker) prev() dance.Keyframe { return w.frames[len(w.frames)-1] }

func (w *walker) run(list []score.Instruction, scope []dance.ProtoDancer) *Error {
	for i := range list {
		in := list[i]
		switch in.Op {
		case score.OpGroup:
			idx := len(w.spans)
			w.spans = append(w.spans, Span{ID: in.ID, Op: in.Op, Start: w.prev().Beat})
			err := w.run(in.Children, scope)
			w.spans[idx].End = w.prev().Beat
			if err != nil {
				return err
			}
		case score.OpSplit:
			if err := w.runSplit(in, scope); err != nil {
				return err
			}
		default:
			startBeat := w.prev().Beat
			out, err := w.opts.Registry.Generate(&figures.Context{
				Prev:         w.prev(),
				Instr:        in,
				Scope:        scope,
				Tuning:       w.opts.Tuning,
				BeatsPerStep: w.opts.BeatsPerStep,
			})
			if err != nil {
				return &Error{InstructionID: in.ID, Err: err}
			}
			w.frames = append(w.frames, out...)
			w.spans = append(w.spans, Span{ID: in.ID, Op: in.Op, Start: startBeat, End: w.prev().Beat})
		}
	}
	return nil
}

// runSplit composes the two branches independently from the shared
// predecessor, then zips them onto one beat grid. A branch failure
// still merges whatever both branches produced first.
func (w *walker) runSplit(in score.Instruction, scope []dance.ProtoDancer) *Error {
	base := w.prev()
	first, second, err := Partition(scope, in.By, base)
	if err != nil {
		return &Error{InstructionID: in.ID, Err: err}
	}
	inFirst := make(map[dance.ProtoDancer]bool, len(first))
	for _, p := range first {
		inFirst[p] = true
	}

	a := walker{opts: w.opts, frames: []dance.Keyframe{base}}
	errA := a.run(in.First, first)
	b := walker{opts: w.opts, frames: []dance.Keyframe{base}}
	var errB *Error
	if errA == nil {
		errB = b.run(in.Second, second)
	}

	idx := len(w.spans)
	w.spans = append(w.spans, Span{ID: in.ID, Op: in.Op, Start: base.Beat})
	w.spans = append(w.spans, a.spans...)
	w.spans = append(w.spans, b.spans...)
	w.frames = append(w.frames, mergeTimelines(base, a.frames[1:], b.frames[1:], inFirst)...)
	w.spans[idx].End = w.prev().Beat

	if errA != nil {
		return errA
	}
	return errB
}

// Partition splits the scope per the split mode: by role (larks first)
// or by position (the half nearer the top of the set first).
func Partition(scope []dance.ProtoDancer, by score.SplitBy, kf dance.Keyframe) (first, second []dance.ProtoDancer, err error) {
	switch by {
	case score.SplitByRole:
		for _, p := range scope {
			if p.Role() == dance.Lark {
				first = append(first, p)
			} else {
				second = append(second, p)
			}
		}
	case score.SplitByPosition:
		ordered := append([]dance.ProtoDancer(nil), scope...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return kf.Dancers[ordered[i]].Pos.Y > kf.Dancers[ordered[j]].Pos.Y
		})
		half := len(ordered) / 2
		first = ordered[:half]
		second = ordered[half:]
	default:
		return nil, nil, fmt.Errorf("composer: unknown split mode %q", by)
	}
	if len(first) == 0 || len(second) == 0 {
		return nil, nil, fmt.Errorf("composer: split by %s leaves one side empty", by)
	}
	return first, second, nil
}

func beatKey(beat float64) int64 {
	return int64(math.Round(beat / beatEpsilon))
}

// mergeTimelines zips two branch timelines onto the union of their
// beat grids. At every merged beat each dancer's state comes from
// their own branch's latest frame at or before that beat (zero-order
// hold while the other branch moves).
func mergeTimelines(base dance.Keyframe, a, b []dance.Keyframe, inFirst map[dance.ProtoDancer]bool) []dance.Keyframe {
	beats := make(map[int64]float64, len(a)+len(b))
	for _, kf := range a {
		beats[beatKey(kf.Beat)] = kf.Beat
	}
	for _, kf := range b {
		beats[beatKey(kf.Beat)] = kf.Beat
	}
	keys := make([]int64, 0, len(beats))
	for k := range beats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]dance.Keyframe, 0, len(keys))
	ai, bi := -1, -1
	for _, k := range keys {
		for ai+1 < len(a) && beatKey(a[ai+1].Beat) <= k {
			ai++
		}
		for bi+1 < len(b) && beatKey(b[bi+1].Beat) <= k {
			bi++
		}
		frameA, frameB := base, base
		if ai >= 0 {
			frameA = a[ai]
		}
		if bi >= 0 {
			frameB = b[bi]
		}
		kf := dance.NewKeyframe(beats[k])
		for _, p := range dance.All {
			if inFirst[p] {
				kf.Dancers[p] = frameA.Dancers[p]
			} else {
				kf.Dancers[p] = frameB.Dancers[p]
			}
		}
		kf.Hands = mergeHands(frameA, frameB, inFirst)
		out = append(out, kf)
	}
	return out
}

// mergeHands combines the hand lists of two branch frames. Connections
// wholly inside one scope come from that branch; connections bridging
// the scopes were inherited from the shared predecessor and survive
// only while both branches still carry them.
func mergeHands(frameA, frameB dance.Keyframe, inFirst map[dance.ProtoDancer]bool) []dance.HandConnection {
	var out []dance.HandConnection
	for _, h := range frameA.Hands {
		if inFirst[h.A] && inFirst[h.B] {
			out = append(out, h)
		}
	}
	for _, h := range frameB.Hands {
		if !inFirst[h.A] && !inFirst[h.B] {
			out = append(out, h)
		}
	}
	for _, h := range frameB.Hands {
		if inFirst[h.A] == inFirst[h.B] {
			continue
		}
		key := h.PairKey()
		for _, ha := range frameA.Hands {
			if ha.PairKey() == key {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
