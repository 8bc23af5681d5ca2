// Package choice is a small vertical option picker used for action overlays.
package choice

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
)

// Cancelled is returned by Update when the picker is dismissed with esc.
const Cancelled = -1

// Menu is a list of options with a cursor.
type Menu struct {
	styles  *styles.Styles
	title   string
	options []string
	cursor  int
}

// New creates a menu with the cursor on the first option.
func New(s *styles.Styles, title string, options ...string) *Menu {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Menu{styles: s, title: title, options: options}
}

// Update moves the cursor. done is set once an option is picked with
// enter or the menu is dismissed, in which case picked is Cancelled.
func (m *Menu) Update(msg tea.KeyMsg) (picked int, done bool) {
	switch msg.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.options)-1)
	case "enter":
		return m.cursor, true
	case "esc":
		return Cancelled, true
	}
	return 0, false
}

// View renders the title and options, the current one highlighted.
func (m *Menu) View() string {
	lines := make([]string, 0, len(m.options)+2)
	if m.title != "" {
		lines = append(lines, m.styles.Subtitle.Render(m.title), "")
	}
	for i, opt := range m.options {
		if i == m.cursor {
			lines = append(lines, m.styles.Selected.Render("> "+opt))
			continue
		}
		lines = append(lines, m.styles.Normal.Render("  "+opt))
	}
	return strings.Join(lines, "\n")
}

// Cursor returns the highlighted option index.
func (m *Menu) Cursor() int { return m.cursor }
