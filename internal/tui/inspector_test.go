package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/contraline/internal/check"
	"github.com/kingrea/contraline/internal/composer"
	"github.com/kingrea/contraline/internal/score"
)

func model(t *testing.T) Model {
	t.Helper()
	d := score.Dance{Instructions: []score.Instruction{
		{ID: "circ", Op: score.OpCircle, Direction: "left", Rotations: 1, Beats: 4},
		{ID: "up", Op: score.OpStep, Direction: "up", Distance: 1, Beats: 4},
	}}.Normalized()
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	res := composer.Compose(d, composer.Options{})
	if res.Err != nil {
		t.Fatalf("compose: %v", res.Err)
	}
	return New("test dance", res, check.Report{})
}

func key(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestScrubStaysInsideTimeline(t *testing.T) {
	m := model(t)
	m = key(m, "left")
	if m.beat != 0 {
		t.Fatalf("scrubbing before the start must clamp, got %g", m.beat)
	}
	m = key(m, "right")
	if m.beat != 0.25 {
		t.Fatalf("right should advance a quarter beat, got %g", m.beat)
	}
	m = key(m, "G")
	if m.beat != 8 {
		t.Fatalf("G should jump to the final beat, got %g", m.beat)
	}
	m = key(m, "right")
	if m.beat != 8 {
		t.Fatalf("scrubbing past the end must clamp, got %g", m.beat)
	}
}

func TestSeekJumpsBetweenFigures(t *testing.T) {
	m := model(t)
	m = key(m, "n")
	if m.beat != 4 {
		t.Fatalf("n should land on the next figure start, got %g", m.beat)
	}
	if s := m.currentSpan(); s == nil || s.ID != "up" {
		t.Fatalf("cursor should sit in the step span, got %+v", s)
	}
	m = key(m, "p")
	if m.beat != 0 {
		t.Fatalf("p should land on the previous figure start, got %g", m.beat)
	}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	m := model(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if !m.playing || cmd == nil {
		t.Fatalf("space should start playback and schedule a tick")
	}
	next, cmd = m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if m.beat != 0.25 || cmd == nil {
		t.Fatalf("a tick should advance the cursor and reschedule, beat=%g", m.beat)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if m.playing {
		t.Fatalf("space should pause playback")
	}
	next, _ = m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if m.beat != 0.25 {
		t.Fatalf("ticks while paused must not move the cursor")
	}
}

func TestViewNamesTheCurrentFigure(t *testing.T) {
	m := model(t)
	out := m.View()
	if !strings.Contains(out, "circle") || !strings.Contains(out, "beat 0.00") {
		t.Fatalf("view missing header details:\n%s", out)
	}
	if !strings.Contains(out, "UL") {
		t.Fatalf("view missing the dancer grid:\n%s", out)
	}
}
