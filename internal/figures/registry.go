// Package figures implements one pure generator per figure type. Every
// generator maps (previous keyframe, instruction parameters, dancer
// scope) to the keyframes it appends; generation never reads anything
// else, so a timeline is a strict left-to-right fold.
package figures

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
	"github.com/kingrea/contraline/internal/relate"
	"github.com/kingrea/contraline/internal/score"
)

// DefaultBeatsPerStep is the sub-step resolution: one interpolated
// sample per quarter beat.
const DefaultBeatsPerStep = 0.25

// Context carries everything a generator may consult.
type Context struct {
	Prev         dance.Keyframe
	Instr        score.Instruction
	Scope        []dance.ProtoDancer
	Tuning       relate.Tuning
	BeatsPerStep float64
}

// Generator produces the keyframes for one figure. The previous
// keyframe is the implicit start boundary: finite figures return one
// frame per sub-step with beats in (prev, prev+beats], the last landing
// exactly on prev+beats; zero-duration figures return exactly one frame
// at the previous beat.
type Generator func(*Context) ([]dance.Keyframe, error)

// FormationError reports an assertion figure whose geometric
// preconditions do not hold.
type FormationError struct {
	Figure score.Op
	Reason string
}

func (e *FormationError) Error() string {
	return fmt.Sprintf("figures: %s: %s", e.Figure, e.Reason)
}

// Registry maps figure ops to generators.
type Registry struct {
	mu         sync.RWMutex
	generators map[score.Op]Generator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{generators: map[score.Op]Generator{}}
}

// Register installs a generator. Registering an op twice is an error.
func (r *Registry) Register(op score.Op, gen Generator) error {
	if op == "" {
		return fmt.Errorf("figures: op is required")
	}
	if gen == nil {
		return fmt.Errorf("figures: generator is required for %s", op)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.generators[op]; exists {
		return fmt.Errorf("figures: %s already registered", op)
	}
	r.generators[op] = gen
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(op score.Op, gen Generator) {
	if err := r.Register(op, gen); err != nil {
		panic(err)
	}
}

// Generate dispatches the context's instruction. Unknown ops fail
// loudly rather than being skipped: an op without a registered
// generator means the union and the registry have drifted apart.
func (r *Registry) Generate(ctx *Context) ([]dance.Keyframe, error) {
	r.mu.RLock()
	gen, ok := r.generators[ctx.Instr.Op]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("figures: no generator registered for op %q", ctx.Instr.Op)
	}
	if ctx.BeatsPerStep <= 0 {
		ctx.BeatsPerStep = DefaultBeatsPerStep
	}
	return gen(ctx)
}

// Ops returns the registered figure ops, sorted.
func (r *Registry) Ops() []score.Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops := make([]score.Op, 0, len(r.generators))
	for op := range r.generators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Builtin returns a registry holding every built-in figure.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(score.OpTakeHands, takeHands)
	r.MustRegister(score.OpDropHands, dropHands)
	r.MustRegister(score.OpStep, step)
	r.MustRegister(score.OpBalance, balance)
	r.MustRegister(score.OpAllemande, allemande)
	r.MustRegister(score.OpDoSiDo, doSiDo)
	r.MustRegister(score.OpCircle, circle)
	r.MustRegister(score.OpStar, star)
	r.MustRegister(score.OpPullBy, pullBy)
	r.MustRegister(score.OpBoxTheGnat, boxTheGnat)
	r.MustRegister(score.OpPetronella, petronella)
	r.MustRegister(score.OpLongLines, longLines)
	r.MustRegister(score.OpShortWaves, shortWaves)
	r.MustRegister(score.OpSwing, swing)
	r.MustRegister(score.OpGiveAndTakeToSwing, giveAndTakeIntoSwing)
	r.MustRegister(score.OpMadRobin, madRobin)
	r.MustRegister(score.OpRobinsChain, robinsChain)
	return r
}

// steps is the sub-step count for the instruction's duration.
func (c *Context) steps() int {
	n := int(math.Round(c.Instr.Beats / c.BeatsPerStep))
	if n < 1 {
		return 1
	}
	return n
}

// frames emits one cloned keyframe per sub-step and lets fill mutate
// it. fill receives the raw interpolation parameter; figures apply the
// shared ease curve themselves.
func (c *Context) frames(fill func(t float64, kf *dance.Keyframe)) []dance.Keyframe {
	n := c.steps()
	out := make([]dance.Keyframe, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		kf := c.Prev.Clone()
		kf.Beat = c.Prev.Beat + t*c.Instr.Beats
		fill(t, &kf)
		out = append(out, kf)
	}
	return out
}

// rel parses the instruction's relationship reference.
func (c *Context) rel() (relate.Rel, error) {
	return relate.ParseRel(c.Instr.Rel)
}

// pairs resolves the instruction's relationship over the scope.
func (c *Context) pairs(rule relate.RoleRule) ([]relate.Match, error) {
	rel, err := c.rel()
	if err != nil {
		return nil, err
	}
	return relate.Pairs(rel, c.Scope, c.Prev, c.Tuning, rule)
}

// absoluteBearing interprets "up", "down", or a number of degrees.
func absoluteBearing(spec string) (float64, bool) {
	switch spec {
	case "up":
		return 0, true
	case "down":
		return math.Pi, true
	}
	if deg, err := strconv.ParseFloat(spec, 64); err == nil {
		return deg * math.Pi / 180, true
	}
	return 0, false
}

// bearingFor resolves a direction/facing spec for one dancer: an
// absolute bearing, or the bearing toward a resolved relationship
// target.
func (c *Context) bearingFor(d dance.ProtoDancer, spec string) (float64, error) {
	if b, ok := absoluteBearing(spec); ok {
		return b, nil
	}
	rel, err := relate.ParseRel(spec)
	if err != nil {
		return 0, fmt.Errorf("figures: %s: direction %q is neither a bearing nor a relationship", c.Instr.Op, spec)
	}
	target, err := relate.Resolve(rel, d, c.Prev, c.Tuning)
	if err != nil {
		return 0, err
	}
	return geo.Bearing(c.Prev.VirtualPos(target).Sub(c.Prev.Dancers[d].Pos)), nil
}

// insideHand picks the hand geometrically nearer the target from the
// sign of cross(facing, direction-to-target). A target dead ahead or
// behind has no inside hand.
func insideHand(s dance.DancerState, target geo.Vec) (dance.Hand, error) {
	dir := target.Sub(s.Pos)
	cr := geo.Heading(s.Facing).Cross(dir)
	if math.Abs(cr) < 1e-6 {
		return "", fmt.Errorf("figures: target is directly ahead or behind; no inside hand")
	}
	if cr < 0 {
		return dance.RightHand, nil
	}
	return dance.LeftHand, nil
}

// mirrorPos is the position of the match's dancer as seen from the
// target's own unit: the lattice translation negated.
func mirrorPos(kf dance.Keyframe, m relate.Match) geo.Vec {
	return kf.VirtualPos(dance.DancerID{Proto: m.Dancer, Offset: -m.Target.Offset})
}
