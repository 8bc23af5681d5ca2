// Package menu is the TUI start screen.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Key selects it directly.
type Item struct {
	Key   string
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// DefaultItems are the entries shown on start.
var DefaultItems = []Item{
	{Key: "d", Label: "Draft", Hint: "compose a cover letter and CV bullets for a job post", View: messages.ViewDraft},
	{Key: "s", Label: "Search", Hint: "query your ingested documents", View: messages.ViewSearch},
	{Key: "o", Label: "Documents", Hint: "browse, read and delete documents", View: messages.ViewDocuments},
	{Key: "?", Label: "Help", Hint: "keys and current configuration", View: messages.ViewHelp},
	{Key: "q", Label: "Quit", Quit: true},
}

// View is the start menu. The cursor wraps at both ends.
type View struct {
	styles *styles.Styles
	items  []Item
	cursor int
	width  int
	height int
	ready  bool
}

// NewView creates a menu holding DefaultItems.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, items: DefaultItems, width: 80, height: 24}
}

// Init implements the view contract. The menu has no startup work.
func (v *View) Init() tea.Cmd { return nil }

// Update moves the cursor or activates an entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch key {
	case "up", "k", "shift+tab":
		v.move(-1)
		return nil
	case "down", "j", "tab":
		v.move(1)
		return nil
	case "enter":
		return v.activate(v.cursor)
	}
	for i, item := range v.items {
		if item.Key == key {
			v.cursor = i
			return v.activate(i)
		}
	}
	return nil
}

func (v *View) move(delta int) {
	n := len(v.items)
	v.cursor = ((v.cursor+delta)%n + n) % n
}

func (v *View) activate(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

// View renders the entries with the hint for the one under the cursor.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := []string{
		v.styles.Title.Render("qPro"),
		"",
		v.styles.Muted.Render("Career documents, retrieval and drafts"),
		"",
	}
	for i, item := range v.items {
		label := fmt.Sprintf("[%s] %s", item.Key, item.Label)
		if i != v.cursor {
			lines = append(lines, v.styles.Normal.Render("  "+label))
			continue
		}
		line := v.styles.Selected.Render("> " + label)
		if item.Hint != "" {
			line += "  " + v.styles.Muted.Render(item.Hint)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", v.styles.Help.Render("[j/k] move  [enter] open  [letter] jump  [q] quit"))
	return strings.Join(lines, "\n")
}

// SetDimensions records the terminal size and marks the menu ready.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int { return v.cursor }

// Items returns the entries.
func (v *View) Items() []Item { return v.items }
