// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
)

// ChunkList displays retrieval hits in a navigable list.
type ChunkList struct {
	results  []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewChunkList creates an empty list.
func NewChunkList(s *styles.Styles) *ChunkList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ChunkList{styles: s, width: 80, height: 10}
}

// Init initialises the list.
func (r *ChunkList) Init() tea.Cmd {
	return nil
}

// Update moves the selection on arrow and vim keys.
func (r *ChunkList) Update(msg tea.Msg) (*ChunkList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of hits.
func (r *ChunkList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.results)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), "")

	// Each hit renders as two lines.
	visible := max((r.height-4)/2, 1)
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.results))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderHit(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ChunkList) renderHit(index int, hit *domain.RetrievedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	label := Label(hit)
	maxLabel := max(r.width-20, 10)
	label = truncate(label, maxLabel)
	score := fmt.Sprintf("%.4f", hit.Score)

	var head string
	if index == r.selected {
		head = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxLabel, label, score))
	} else {
		head = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxLabel, label)) +
			r.styles.Muted.Render(score)
	}

	preview := strings.Join(strings.Fields(hit.Chunk.Content), " ")
	preview = truncate(preview, max(r.width-6, 20))
	return head + "\n" + r.styles.Muted.Render("    "+preview)
}

// Label names a hit by rank, document type and file.
func Label(hit *domain.RetrievedChunk) string {
	name := hit.Document.Title
	if name == "" {
		name = hit.Document.ID
	}
	typ := hit.Document.Type
	if typ == "" {
		typ = domain.TypeFile
	}
	return fmt.Sprintf("%d. [%s] %s", hit.Rank, typ, name)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetResults replaces the hits and resets the selection.
func (r *ChunkList) SetResults(results []domain.RetrievedChunk) {
	r.results = results
	r.selected = 0
}

// Results returns the current hits.
func (r *ChunkList) Results() []domain.RetrievedChunk { return r.results }

// Selected returns the selected index.
func (r *ChunkList) Selected() int { return r.selected }

// SetSelected sets the selected index when in range.
func (r *ChunkList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.selected = index
	}
}

// SelectedResult returns the selected hit, or nil when empty.
func (r *ChunkList) SelectedResult() *domain.RetrievedChunk {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp moves the selection up.
func (r *ChunkList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the selection down.
func (r *ChunkList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ChunkList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of hits.
func (r *ChunkList) Count() int { return len(r.results) }

// IsEmpty reports whether the list has no hits.
func (r *ChunkList) IsEmpty() bool { return len(r.results) == 0 }
