// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
)

// QueryInput is a labelled single-line input.
type QueryInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewQueryInput creates a focused input with the given label and placeholder.
func NewQueryInput(s *styles.Styles, label, placeholder string) *QueryInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 50

	return &QueryInput{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// Init starts the cursor blink.
func (q *QueryInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QueryInput) Update(msg tea.Msg) (*QueryInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the label beside the bordered input.
func (q *QueryInput) View() string {
	label := q.styles.Title.Render(q.label + ": ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the library constant
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QueryInput) Value() string { return q.textinput.Value() }

// SetValue sets the input value.
func (q *QueryInput) SetValue(value string) { q.textinput.SetValue(value) }

// Focus sets focus on the input.
func (q *QueryInput) Focus() tea.Cmd { return q.textinput.Focus() }

// Blur removes focus from the input.
func (q *QueryInput) Blur() { q.textinput.Blur() }

// Focused reports whether the input has focus.
func (q *QueryInput) Focused() bool { return q.textinput.Focused() }

// SetWidth sets the total width, leaving room for the label.
func (q *QueryInput) SetWidth(width int) {
	q.width = width
	q.textinput.Width = max(width-len(q.label)-8, 20)
}

// Width returns the current width.
func (q *QueryInput) Width() int { return q.width }

// Reset clears the input.
func (q *QueryInput) Reset() { q.textinput.Reset() }

// Editor is a multi-line input for pasting a job post.
type Editor struct {
	textarea textarea.Model
	styles   *styles.Styles
}

// NewEditor creates a focused editor.
func NewEditor(s *styles.Styles, placeholder string) *Editor {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(10)
	ta.Focus()

	return &Editor{textarea: ta, styles: s}
}

// Init starts the cursor blink.
func (e *Editor) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles editor messages.
func (e *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

// View renders the bordered editor.
func (e *Editor) View() string {
	return e.styles.InputField.Render(e.textarea.View())
}

// Value returns the editor text.
func (e *Editor) Value() string { return e.textarea.Value() }

// SetValue replaces the editor text.
func (e *Editor) SetValue(value string) { e.textarea.SetValue(value) }

// Focus sets focus on the editor.
func (e *Editor) Focus() tea.Cmd { return e.textarea.Focus() }

// Blur removes focus from the editor.
func (e *Editor) Blur() { e.textarea.Blur() }

// Focused reports whether the editor has focus.
func (e *Editor) Focused() bool { return e.textarea.Focused() }

// SetSize fits the editor into width by height cells.
func (e *Editor) SetSize(width, height int) {
	e.textarea.SetWidth(max(width-4, 20))
	e.textarea.SetHeight(max(height, 3))
}

// Reset clears the editor.
func (e *Editor) Reset() { e.textarea.Reset() }
