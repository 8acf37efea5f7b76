// Package score defines the Dance document: the declarative instruction
// tree the generation engine consumes. Instructions form a tagged union
// discriminated by Op; atomic ops carry figure parameters, composite
// ops (group, split) carry child instruction lists.
package score

import (
	"fmt"
	"strings"

	"github.com/kingrea/contraline/internal/dance"
)

// Op discriminates the instruction union.
type Op string

const (
	OpTakeHands          Op = "take_hands"
	OpDropHands          Op = "drop_hands"
	OpStep               Op = "step"
	OpBalance            Op = "balance"
	OpAllemande          Op = "allemande"
	OpDoSiDo             Op = "do_si_do"
	OpCircle             Op = "circle"
	OpStar               Op = "star"
	OpPullBy             Op = "pull_by"
	OpBoxTheGnat         Op = "box_the_gnat"
	OpPetronella         Op = "petronella"
	OpLongLines          Op = "long_lines"
	OpShortWaves         Op = "short_waves"
	OpSwing              Op = "swing"
	OpGiveAndTakeToSwing Op = "give_and_take_into_swing"
	OpMadRobin           Op = "mad_robin"
	OpRobinsChain        Op = "robins_chain"
	OpGroup              Op = "group"
	OpSplit              Op = "split"
)

// SplitBy selects how a split partitions the four dancers.
type SplitBy string

const (
	// SplitByRole puts larks in the first half and robins in the second.
	SplitByRole SplitBy = "role"
	// SplitByPosition puts the two dancers nearer the top of the set in
	// the first half and the other two in the second.
	SplitByPosition SplitBy = "position"
)

// Instruction is one node of the instruction tree. Exactly the fields
// relevant to Op are consulted; Validate rejects documents that set an
// op's required fields incorrectly. The ID is caller-assigned and must
// stay stable across edits so errors and warnings remain attached to
// the right instruction.
type Instruction struct {
	ID    string  `yaml:"id" json:"id"`
	Op    Op      `yaml:"op" json:"op"`
	Beats float64 `yaml:"beats,omitempty" json:"beats,omitempty"`

	// Figure parameters.
	Rel          string     `yaml:"rel,omitempty" json:"rel,omitempty"`
	Hand         string     `yaml:"hand,omitempty" json:"hand,omitempty"`
	Rotations    float64    `yaml:"rotations,omitempty" json:"rotations,omitempty"`
	Direction    string     `yaml:"direction,omitempty" json:"direction,omitempty"`
	Distance     float64    `yaml:"distance,omitempty" json:"distance,omitempty"`
	Facing       string     `yaml:"facing,omitempty" json:"facing,omitempty"`
	FacingOffset float64    `yaml:"facing_offset,omitempty" json:"facing_offset,omitempty"` // degrees clockwise
	Revolutions  float64    `yaml:"revolutions,omitempty" json:"revolutions,omitempty"`
	EndCenter    *[2]float64 `yaml:"end_center,omitempty,flow" json:"end_center,omitempty"`
	Taker        dance.Role `yaml:"taker,omitempty" json:"taker,omitempty"`
	Front        dance.Role `yaml:"front,omitempty" json:"front,omitempty"`

	// Composite fields.
	Label    string        `yaml:"label,omitempty" json:"label,omitempty"`
	Children []Instruction `yaml:"children,omitempty" json:"children,omitempty"`
	By       SplitBy       `yaml:"by,omitempty" json:"by,omitempty"`
	First    []Instruction `yaml:"first,omitempty" json:"first,omitempty"`
	Second   []Instruction `yaml:"second,omitempty" json:"second,omitempty"`
}

// Dance is a complete document: starting formation, expected
// progression per time through, and the top-level instruction list.
type Dance struct {
	Title        string        `yaml:"title,omitempty" json:"title,omitempty"`
	Formation    dance.Formation `yaml:"formation" json:"formation"`
	Progression  float64       `yaml:"progression" json:"progression"`
	Instructions []Instruction `yaml:"instructions" json:"instructions"`
}

// Composite reports whether the instruction is a group or split node.
func (in Instruction) Composite() bool {
	return in.Op == OpGroup || in.Op == OpSplit
}

// zeroBeatOps never advance the beat axis.
var zeroBeatOps = map[Op]bool{
	OpTakeHands:  true,
	OpDropHands:  true,
	OpLongLines:  true,
	OpShortWaves: true,
}

// Normalized returns a copy with defaults applied: improper formation,
// single progression, rotation/role defaults per figure.
func (d Dance) Normalized() Dance {
	out := d
	if out.Formation == "" {
		out.Formation = dance.Improper
	}
	if out.Progression == 0 {
		out.Progression = 1
	}
	out.Instructions = normalizeList(d.Instructions)
	return out
}

func normalizeList(list []Instruction) []Instruction {
	out := make([]Instruction, len(list))
	for i, in := range list {
		out[i] = in.normalized()
	}
	return out
}

func (in Instruction) normalized() Instruction {
	out := in
	switch in.Op {
	case OpDoSiDo, OpCircle, OpStar:
		if out.Rotations == 0 {
			out.Rotations = 1
		}
	case OpAllemande:
		if out.Rotations == 0 {
			out.Rotations = 1
		}
	case OpMadRobin:
		if out.Rel == "" {
			out.Rel = "partner"
		}
		if out.Rotations == 0 {
			out.Rotations = 1
		}
		if out.Front == "" {
			out.Front = dance.Lark
		}
	case OpGiveAndTakeToSwing:
		if out.Taker == "" {
			out.Taker = dance.Lark
		}
	case OpGroup:
		out.Children = normalizeList(in.Children)
	case OpSplit:
		out.First = normalizeList(in.First)
		out.Second = normalizeList(in.Second)
	}
	return out
}

// Validate checks structural well-formedness: known ops, required
// parameters, beat sanity, unique ids, and split sub-lists holding only
// atomic instructions. Geometric and relational preconditions are the
// engine's job, not the document's.
func (d Dance) Validate() error {
	if d.Formation != "" {
		if _, err := dance.MakeFormation(d.Formation); err != nil {
			return err
		}
	}
	if d.Progression < 0 {
		return fmt.Errorf("score: progression must be >= 0")
	}
	if len(d.Instructions) == 0 {
		return fmt.Errorf("score: at least one instruction is required")
	}
	seen := map[string]bool{}
	return validateList(d.Instructions, seen, true)
}

func validateList(list []Instruction, seen map[string]bool, allowComposite bool) error {
	for i := range list {
		if err := list[i].validate(seen, allowComposite); err != nil {
			return err
		}
	}
	return nil
}

func (in Instruction) validate(seen map[string]bool, allowComposite bool) error {
	if strings.TrimSpace(in.ID) == "" {
		return fmt.Errorf("score: instruction %q is missing an id", in.Op)
	}
	if seen[in.ID] {
		return fmt.Errorf("score: duplicate instruction id %q", in.ID)
	}
	seen[in.ID] = true
	if in.Beats < 0 {
		return fmt.Errorf("score: %s: beats must be >= 0", in.ID)
	}
	if zeroBeatOps[in.Op] && in.Beats != 0 {
		return fmt.Errorf("score: %s: %s takes zero beats", in.ID, in.Op)
	}

	switch in.Op {
	case OpTakeHands:
		if in.Rel == "" {
			return fmt.Errorf("score: %s: take_hands needs rel", in.ID)
		}
		switch in.Hand {
		case "left", "right", "inside":
		default:
			return fmt.Errorf("score: %s: take_hands hand must be left, right, or inside", in.ID)
		}
	case OpDropHands:
		if in.Hand != "" && !dance.Hand(in.Hand).Valid() {
			return fmt.Errorf("score: %s: drop_hands hand must be left or right", in.ID)
		}
	case OpStep:
		if in.Direction == "" && in.Facing == "" {
			return fmt.Errorf("score: %s: step needs a direction or a facing", in.ID)
		}
		if in.Distance != 0 && in.Direction == "" {
			return fmt.Errorf("score: %s: step with distance needs a direction", in.ID)
		}
		if in.Distance != 0 && in.Beats <= 0 {
			return fmt.Errorf("score: %s: step with distance needs beats > 0", in.ID)
		}
	case OpBalance:
		if in.Direction == "" {
			return fmt.Errorf("score: %s: balance needs a direction", in.ID)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: balance needs beats > 0", in.ID)
		}
	case OpAllemande, OpPullBy:
		if in.Rel == "" {
			return fmt.Errorf("score: %s: %s needs rel", in.ID, in.Op)
		}
		if !dance.Hand(in.Hand).Valid() {
			return fmt.Errorf("score: %s: %s hand must be left or right", in.ID, in.Op)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: %s needs beats > 0", in.ID, in.Op)
		}
	case OpDoSiDo, OpBoxTheGnat, OpMadRobin:
		if in.Rel == "" {
			return fmt.Errorf("score: %s: %s needs rel", in.ID, in.Op)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: %s needs beats > 0", in.ID, in.Op)
		}
	case OpCircle:
		if in.Direction != "left" && in.Direction != "right" {
			return fmt.Errorf("score: %s: circle direction must be left or right", in.ID)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: circle needs beats > 0", in.ID)
		}
	case OpStar:
		if !dance.Hand(in.Hand).Valid() {
			return fmt.Errorf("score: %s: star hand must be left or right", in.ID)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: star needs beats > 0", in.ID)
		}
	case OpPetronella, OpRobinsChain:
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: %s needs beats > 0", in.ID, in.Op)
		}
	case OpLongLines, OpShortWaves:
		// Assertion figures carry no parameters.
	case OpSwing, OpGiveAndTakeToSwing:
		if in.Rel == "" {
			return fmt.Errorf("score: %s: %s needs rel", in.ID, in.Op)
		}
		if in.Facing == "" {
			return fmt.Errorf("score: %s: %s needs an ending facing", in.ID, in.Op)
		}
		if in.Beats <= 0 {
			return fmt.Errorf("score: %s: %s needs beats > 0", in.ID, in.Op)
		}
		if in.Op == OpGiveAndTakeToSwing && in.Taker != "" && in.Taker != dance.Lark && in.Taker != dance.Robin {
			return fmt.Errorf("score: %s: taker must be lark or robin", in.ID)
		}
	case OpGroup:
		if len(in.Children) == 0 {
			return fmt.Errorf("score: %s: group needs children", in.ID)
		}
		if !allowComposite {
			return fmt.Errorf("score: %s: group is not allowed inside a split", in.ID)
		}
		return validateList(in.Children, seen, true)
	case OpSplit:
		if !allowComposite {
			return fmt.Errorf("score: %s: split is not allowed inside a split", in.ID)
		}
		if in.By != SplitByRole && in.By != SplitByPosition {
			return fmt.Errorf("score: %s: split by must be role or position", in.ID)
		}
		if err := validateList(in.First, seen, false); err != nil {
			return err
		}
		return validateList(in.Second, seen, false)
	default:
		return fmt.Errorf("score: %s: unknown op %q", in.ID, in.Op)
	}
	return nil
}
