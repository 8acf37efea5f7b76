// Package render answers "state at beat B" for a finished timeline and
// draws keyframes as text. Interpolation here is presentation only;
// the engine's own sub-steps already carry the eased motion.
package render

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kingrea/contraline/internal/dance"
	"github.com/kingrea/contraline/internal/geo"
)

// Sample returns the interpolated state at the given beat: positions
// lerped and facings turned along the shortest arc between the
// bracketing keyframes, hand connections held from the earlier one.
// Beats outside the timeline clamp to its ends.
func Sample(frames []dance.Keyframe, beat float64) (dance.Keyframe, error) {
	if len(frames) == 0 {
		return dance.Keyframe{}, fmt.Errorf("render: empty timeline")
	}
	if beat <= frames[0].Beat {
		return frames[0].Clone(), nil
	}
	last := frames[len(frames)-1]
	if beat >= last.Beat {
		return last.Clone(), nil
	}
	hi := sort.Search(len(frames), func(i int) bool { return frames[i].Beat > beat })
	f0, f1 := frames[hi-1], frames[hi]
	span := f1.Beat - f0.Beat
	if span <= 0 {
		return f1.Clone(), nil
	}
	t := (beat - f0.Beat) / span
	out := f0.Clone()
	out.Beat = beat
	for _, p := range dance.All {
		a, b := f0.Dancers[p], f1.Dancers[p]
		out.Dancers[p] = dance.DancerState{
			Pos: geo.Vec{
				X: geo.Lerp(a.Pos.X, b.Pos.X, t),
				Y: geo.Lerp(a.Pos.Y, b.Pos.Y, t),
			},
			Facing: geo.NormalizeBearing(a.Facing + geo.AngleDiff(a.Facing, b.Facing)*t),
		}
	}
	return out, nil
}

// facingArrow snaps a bearing to the nearest of eight arrows.
func facingArrow(bearing float64) string {
	arrows := []string{"^", "/", ">", "\\", "v", "/", "<", "\\"}
	idx := int(math.Round(geo.NormalizeBearing(bearing) / (math.Pi / 4)))
	return arrows[idx%8]
}

// Grid draws one keyframe on a character grid. The viewport spans
// [-1.5, 1.5] on both axes, growing as needed to keep every dancer
// visible; y grows upward on screen.
func Grid(kf dance.Keyframe, width, height int) string {
	xMin, xMax, yMin, yMax := -1.5, 1.5, -1.5, 1.5
	for _, p := range dance.All {
		pos := kf.Dancers[p].Pos
		if pos.X < xMin+0.2 {
			xMin = pos.X - 0.2
		}
		if pos.X > xMax-0.2 {
			xMax = pos.X + 0.2
		}
		if pos.Y < yMin+0.2 {
			yMin = pos.Y - 0.2
		}
		if pos.Y > yMax-0.2 {
			yMax = pos.Y + 0.2
		}
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = make([]rune, width)
		for c := range grid[r] {
			grid[r][c] = ' '
		}
	}
	for r := 0; r < height; r++ {
		grid[r][width/2] = '·'
	}
	for c := 0; c < width; c++ {
		grid[height/2][c] = '·'
	}

	for _, p := range dance.All {
		s := kf.Dancers[p]
		col := int((s.Pos.X - xMin) / (xMax - xMin) * float64(width-1))
		row := int((yMax - s.Pos.Y) / (yMax - yMin) * float64(height-1))
		col = clamp(col, 0, width-1)
		row = clamp(row, 0, height-1)
		marker := p.Label() + facingArrow(s.Facing)
		for i, ch := range marker {
			c := col + i - 1
			if c >= 0 && c < width {
				grid[row][c] = ch
			}
		}
	}

	lines := make([]string, 0, height+3)
	lines = append(lines, fmt.Sprintf("Beat %.2f", kf.Beat))
	sep := strings.Repeat("─", width)
	lines = append(lines, sep)
	for _, row := range grid {
		lines = append(lines, string(row))
	}
	lines = append(lines, sep)
	return strings.Join(lines, "\n")
}

// Compact lists every dancer's state on one line each, plus the hand
// connections in effect.
func Compact(kf dance.Keyframe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Beat %.2f:\n", kf.Beat)
	for _, p := range dance.All {
		s := kf.Dancers[p]
		fmt.Fprintf(&b, "  %-11s (%+.2f, %+.2f) %s\n",
			p, s.Pos.X, s.Pos.Y, facingArrow(s.Facing))
	}
	if len(kf.Hands) > 0 {
		parts := make([]string, 0, len(kf.Hands))
		for _, h := range kf.Hands {
			parts = append(parts, fmt.Sprintf("%s.%s-%s.%s", h.A, h.AHand, h.B, h.BHand))
		}
		fmt.Fprintf(&b, "  hands: %s\n", strings.Join(parts, ", "))
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
