// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/guidekit/internal/adapters/driving/tui/styles"
)

// Prompt wraps a bubbles textinput with a label, used for the artifact
// name on approval and the reason on rejection.
type Prompt struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewPrompt creates a new labelled prompt.
func NewPrompt(s *styles.Styles) *Prompt {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	return &Prompt{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Open resets the prompt, sets its label and initial value, and focuses it.
func (p *Prompt) Open(label, placeholder, value string) tea.Cmd {
	p.label = label
	p.textinput.Reset()
	p.textinput.Placeholder = placeholder
	p.textinput.SetValue(value)
	p.textinput.CursorEnd()
	return p.textinput.Focus()
}

// Close blurs the prompt.
func (p *Prompt) Close() {
	p.textinput.Blur()
}

// Update handles input messages.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	label := p.styles.Title.Render(p.label + ": ")
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (p *Prompt) Value() string {
	return p.textinput.Value()
}

// Label returns the prompt label.
func (p *Prompt) Label() string {
	return p.label
}

// Focused returns whether the prompt is focused.
func (p *Prompt) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the prompt.
func (p *Prompt) SetWidth(width int) {
	p.width = width
	// label and border
	inputWidth := width - len(p.label) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.textinput.Width = inputWidth
}
