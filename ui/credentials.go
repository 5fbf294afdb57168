package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// Field describes one value the prompt collects.
type Field struct {
	Label  string
	Secret bool
}

type credentialPromptModel struct {
	title    string
	inputs   []textinput.Model
	cursor   int
	done     bool
	canceled bool
}

func newCredentialPromptModel(title string, fields []Field) *credentialPromptModel {
	m := &credentialPromptModel{
		title:  title,
		inputs: make([]textinput.Model, len(fields)),
	}
	for i, f := range fields {
		in := textinput.New()
		in.Placeholder = f.Label
		if f.Secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		if i == 0 {
			in.Focus()
		}
		m.inputs[i] = in
	}
	return m
}

func (m *credentialPromptModel) Init() tea.Cmd { return textinput.Blink }

func (m *credentialPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		case "enter":
			if m.cursor < len(m.inputs)-1 {
				m.inputs[m.cursor].Blur()
				m.cursor++
				m.inputs[m.cursor].Focus()
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		case "tab":
			m.cursor = (m.cursor + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.cursor {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
		}
	}

	for i := range m.inputs {
		m.inputs[i], _ = m.inputs[i].Update(msg)
	}
	return m, nil
}

func (m *credentialPromptModel) View() string {
	v := titleStyle.Render(m.title) + "\n\n"
	for i := range m.inputs {
		v += m.inputs[i].View() + "\n"
	}
	v += "\nPress Enter to continue, Tab to switch, Esc to quit.\n"
	return v
}

// PromptCredentials collects the given fields interactively and returns
// their values in order.
func PromptCredentials(title string, fields []Field) ([]string, error) {
	model := newCredentialPromptModel(title, fields)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return nil, err
	}
	if model.canceled {
		return nil, fmt.Errorf("credential prompt cancelled")
	}

	values := make([]string, len(model.inputs))
	for i := range model.inputs {
		values[i] = model.inputs[i].Value()
	}
	return values, nil
}
