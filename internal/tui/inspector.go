// Package tui is the interactive timeline inspector. It uses
// bubbletea, which follows The Elm Architecture: a Model holding the
// state, an Update function reacting to messages, and a View function
// rendering the state to a string.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/contraline/internal/check"
	"github.com/kingrea/contraline/internal/composer"
	"github.com/kingrea/contraline/internal/render"
)

const (
	// scrubStep is how far the arrow keys move along the beat axis.
	scrubStep = 0.25
	// playInterval paces playback at two beats per second.
	playInterval = 125 * time.Millisecond
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	beatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	figureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	gridStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(playInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the inspector state: a composed timeline, its validation
// report, and a beat cursor.
type Model struct {
	title    string
	result   composer.Result
	report   check.Report
	beat     float64
	playing  bool
	width    int
	height   int
	warnings viewport.Model
}

// New builds an inspector over a composed (possibly partial) timeline.
func New(title string, res composer.Result, rep check.Report) Model {
	m := Model{
		title:    title,
		result:   res,
		report:   rep,
		warnings: viewport.New(80, 6),
	}
	m.warnings.SetContent(m.warningText())
	return m
}

func (m Model) endBeat() float64 {
	if len(m.result.Keyframes) == 0 {
		return 0
	}
	return m.result.Keyframes[len(m.result.Keyframes)-1].Beat
}

// currentSpan is the tightest instruction span containing the cursor.
func (m Model) currentSpan() *composer.Span {
	var best *composer.Span
	for i := range m.result.Spans {
		s := &m.result.Spans[i]
		if m.beat < s.Start-1e-9 || m.beat > s.End+1e-9 {
			continue
		}
		if best == nil || s.End-s.Start < best.End-best.Start {
			best = s
		}
	}
	return best
}

// seekSpan jumps the cursor to the next or previous span boundary.
func (m *Model) seekSpan(forward bool) {
	if forward {
		next := m.endBeat()
		for _, s := range m.result.Spans {
			if s.Start > m.beat+1e-9 && s.Start < next {
				next = s.Start
			}
		}
		m.beat = next
		return
	}
	prev := 0.0
	for _, s := range m.result.Spans {
		if s.Start < m.beat-1e-9 && s.Start > prev {
			prev = s.Start
		}
	}
	m.beat = prev
}

func (m Model) clampBeat(b float64) float64 {
	if b < 0 {
		return 0
	}
	if end := m.endBeat(); b > end {
		return end
	}
	return b
}

// Init is part of the bubbletea contract; the inspector starts idle.
func (m Model) Init() tea.Cmd { return nil }

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.warnings.Width = msg.Width - 4
		return m, nil

	case tickMsg:
		if !m.playing {
			return m, nil
		}
		m.beat = m.beat + scrubStep
		if m.beat >= m.endBeat() {
			m.beat = m.endBeat()
			m.playing = false
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.playing = false
			m.beat = m.clampBeat(m.beat - scrubStep)
		case "right", "l":
			m.playing = false
			m.beat = m.clampBeat(m.beat + scrubStep)
		case "home", "g":
			m.playing = false
			m.beat = 0
		case "end", "G":
			m.playing = false
			m.beat = m.endBeat()
		case "n":
			m.playing = false
			m.seekSpan(true)
		case "p":
			m.playing = false
			m.seekSpan(false)
		case " ":
			m.playing = !m.playing
			if m.playing {
				if m.beat >= m.endBeat() {
					m.beat = 0
				}
				return m, tick()
			}
		case "up", "k":
			m.warnings.LineUp(1)
		case "down", "j":
			m.warnings.LineDown(1)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) warningText() string {
	var lines []string
	if m.result.Err != nil {
		lines = append(lines, errStyle.Render(fmt.Sprintf("generation stopped: %v", m.result.Err)))
	}
	for _, w := range m.report.Warnings {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("[%s] %s", w.Kind, w.Message)))
	}
	if len(lines) == 0 {
		lines = append(lines, helpStyle.Render("no warnings"))
	}
	return strings.Join(lines, "\n")
}

// View renders the inspector.
func (m Model) View() string {
	if len(m.result.Keyframes) == 0 {
		return errStyle.Render("no timeline to inspect") + "\n"
	}
	kf, err := render.Sample(m.result.Keyframes, m.beat)
	if err != nil {
		return errStyle.Render(err.Error()) + "\n"
	}

	header := titleStyle.Render(m.title) + "  " +
		beatStyle.Render(fmt.Sprintf("beat %.2f / %.2f", m.beat, m.endBeat()))
	if s := m.currentSpan(); s != nil {
		header += "  " + figureStyle.Render(fmt.Sprintf("%s (%s)", s.Op, s.ID))
	}
	if m.playing {
		header += "  " + beatStyle.Render("▶")
	}

	grid := gridStyle.Render(render.Grid(kf, 48, 20))

	help := helpStyle.Render("←/→ scrub · n/p figure · space play · g/G ends · ↑/↓ warnings · q quit")

	return strings.Join([]string{header, grid, m.warnings.View(), help}, "\n") + "\n"
}

// Run opens the inspector in the alternate screen until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
