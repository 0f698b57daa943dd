// Package inspect is a terminal stepper for scenarios: the step list on the
// left, the live document on the right.
package inspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/livefir/objectmodel/internal/scenario"
)

const stepsWidth = 44

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	paneStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	nextStyle    = lipgloss.NewStyle().Bold(true)
)

type keyMap struct {
	Next key.Binding
	Run  key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Run, k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Next: key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n/space", "next step")),
	Run:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run all")),
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Model is the bubbletea model of the stepper.
type Model struct {
	runner   *scenario.Runner
	results  []scenario.Result
	failed   bool
	viewport viewport.Model
	help     help.Model
	ready    bool
}

// New creates a stepper for r.
func New(r *scenario.Runner) Model {
	m := Model{
		runner:   r,
		viewport: viewport.New(80, 20),
		help:     help.New(),
	}
	m.viewport.SetContent(m.document())
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = max(msg.Width-stepsWidth-4, 20)
		m.viewport.Height = max(msg.Height-4, 5)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Next):
			m.step()
			return m, nil
		case key.Matches(msg, keys.Run):
			for !m.runner.Done() && !m.failed {
				m.step()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// step runs one scenario step and refreshes the document pane.
func (m *Model) step() {
	if m.failed {
		return
	}
	res, err := m.runner.Step()
	if err != nil {
		return
	}
	m.results = append(m.results, res)
	m.failed = res.Err != nil
	m.viewport.SetContent(m.document())
}

// Results returns the outcome of every step run so far.
func (m Model) Results() []scenario.Result { return m.results }

func (m Model) document() string {
	return m.runner.Document().String()
}

func (m Model) View() string {
	sc := m.runner.Scenario()
	name := sc.Name
	if name == "" {
		name = "scenario"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n\n")
	for i, st := range sc.Steps {
		line := fmt.Sprintf("%2d %s", i+1, st)
		switch {
		case i < len(m.results) && m.results[i].Err != nil:
			b.WriteString(failStyle.Render("✗ " + line))
			b.WriteString("\n   " + failStyle.Render(m.results[i].Err.Error()))
		case i < len(m.results):
			b.WriteString(okStyle.Render("✓ " + line))
		case i == m.runner.Position():
			b.WriteString(nextStyle.Render("› " + line))
		default:
			b.WriteString(pendingStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	steps := paneStyle.Width(stepsWidth).Render(b.String())
	doc := paneStyle.Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, steps, doc),
		m.help.View(keys),
	)
}

// Run starts the stepper on the terminal.
func Run(ctx context.Context, r *scenario.Runner) error {
	_, err := tea.NewProgram(New(r), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
