package inspect

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livefir/objectmodel/internal/scenario"
)

const counter = `
name: counter
page: |
  <div id="main" js:object-model="counter">
    <span id="count" js:content="count"></span>
    <button id="inc" js:on-click="inc">+</button>
  </div>
models:
  counter:
    data: {count: 0}
    handlers:
      inc: [{op: add, prop: count}]
steps:
  - click: "#inc"
  - expect: {selector: "#count", text: "1"}
  - expect: {selector: "#count", text: "9"}
  - click: "#inc"
`

func newModel(t *testing.T) Model {
	t.Helper()
	sc, err := scenario.Parse([]byte(counter))
	require.NoError(t, err)
	r, err := scenario.NewRunner(sc)
	require.NoError(t, err)
	return New(r)
}

func press(m Model, k string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return next.(Model)
}

func TestModel_StepAndRun(t *testing.T) {
	m := newModel(t)
	assert.Contains(t, m.View(), "counter")

	m = press(m, "n")
	require.Len(t, m.Results(), 1)
	assert.NoError(t, m.Results()[0].Err)
	assert.Contains(t, m.document(), `<span id="count">1</span>`)

	// Run stops at the first failing step.
	m = press(m, "r")
	require.Len(t, m.Results(), 3)
	assert.Error(t, m.Results()[2].Err)
	assert.Contains(t, m.View(), "✗")

	m = press(m, "n")
	assert.Len(t, m.Results(), 3, "no steps after a failure")
}

func TestModel_WindowSizeAndQuit(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	assert.True(t, m.ready)
	assert.Equal(t, 120-stepsWidth-4, m.viewport.Width)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
