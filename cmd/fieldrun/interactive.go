package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	fieldruntime "github.com/voxelforge/field-runtime"
	"github.com/voxelforge/field-runtime/graph"
	"github.com/voxelforge/field-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	programStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err         error
	rt          *runtime.Runtime
	state       *runtime.State
	filename    string
	disassembly string
	result      string
	inputs      []textinput.Model
	focusIdx    int
	showProgram bool
	loaded      bool
}

type loadedMsg struct {
	err         error
	rt          *runtime.Runtime
	state       *runtime.State
	disassembly string
}

func newInteractiveModel(filename string) *interactiveModel {
	labels := []string{"x", "y", "z"}
	inputs := make([]textinput.Model, len(labels))
	for i, l := range labels {
		ti := textinput.New()
		ti.Placeholder = l
		ti.Prompt = l + ": "
		ti.CharLimit = 16
		ti.Width = 12
		ti.SetValue("0")
		inputs[i] = ti
	}
	inputs[0].Focus()
	return &interactiveModel{
		filename: filename,
		inputs:   inputs,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadGraph, textinput.Blink)
}

func (m *interactiveModel) loadGraph() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	g, err := graph.LoadYAML(data)
	if err != nil {
		return loadedMsg{err: err}
	}
	rt := runtime.New()
	if res := rt.Compile(g, true); !res.Success {
		return loadedMsg{err: res.Err}
	}
	s := &runtime.State{}
	rt.PrepareState(s, 1)
	return loadedMsg{rt: rt, state: s, disassembly: rt.Disassemble()}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.rt = msg.rt
		m.state = msg.state
		m.disassembly = msg.disassembly
		m.loaded = true
		m.evaluate()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			if !m.loaded {
				return m, nil
			}
			if msg.String() == "shift+tab" || msg.String() == "up" {
				m.focusIdx--
			} else {
				m.focusIdx++
			}
			if m.focusIdx < 0 {
				m.focusIdx = len(m.inputs) - 1
			}
			if m.focusIdx >= len(m.inputs) {
				m.focusIdx = 0
			}
			cmds := make([]tea.Cmd, 0, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIdx {
					cmds = append(cmds, m.inputs[i].Focus())
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, tea.Batch(cmds...)
		case "enter":
			if m.loaded {
				m.evaluate()
			}
			return m, nil
		case "ctrl+p":
			m.showProgram = !m.showProgram
			return m, nil
		}
	}

	var cmds []tea.Cmd
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *interactiveModel) evaluate() {
	var pos [3]float32
	for i := range m.inputs {
		v, err := strconv.ParseFloat(strings.TrimSpace(m.inputs[i].Value()), 32)
		if err != nil {
			m.result = errorStyle.Render(fmt.Sprintf("bad %s value: %v", m.inputs[i].Placeholder, err))
			return
		}
		pos[i] = float32(v)
	}
	value := m.rt.GenerateSingle(m.state,
		fieldruntime.Vector3{X: pos[0], Y: pos[1], Z: pos[2]}, false)
	m.result = resultStyle.Render(fmt.Sprintf("field = %g", value))
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fieldrun "+m.filename) + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
		return b.String()
	}
	if !m.loaded {
		b.WriteString("compiling...\n")
		return b.String()
	}

	b.WriteString(labelStyle.Render("position") + "\n")
	for i := range m.inputs {
		b.WriteString("  " + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n" + m.result + "\n")

	if m.showProgram {
		b.WriteString("\n" + programStyle.Render(m.disassembly))
	}

	b.WriteString("\n" + helpStyle.Render("enter: evaluate | tab: next field | ctrl+p: program | q: quit") + "\n")
	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive mode: %w", err)
	}
	return nil
}
