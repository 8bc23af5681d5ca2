// Package docdetails shows the stored metadata of one document.
package docdetails

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/pager"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

const timeLayout = "2006-01-02 15:04:05"

// maxValueLen bounds metadata values so one long field does not wrap the view.
const maxValueLen = 60

// View renders DocumentDetails as labelled rows in a pager.
type View struct {
	styles *styles.Styles

	details *driving.DocumentDetails
	pager   *pager.Pager
	width   int
	height  int
	err     error
}

// NewView creates an empty details view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{styles: s, pager: pager.New(0, 0, false)}
	v.SetDimensions(80, 24)
	return v
}

// SetDetails replaces the details shown and scrolls to the top.
func (v *View) SetDetails(details *driving.DocumentDetails) {
	v.details = details
	v.err = nil

	rendered := make([]string, 0, 16)
	for _, r := range v.rows() {
		rendered = append(rendered, v.renderRow(r))
	}
	v.pager.SetText(strings.Join(rendered, "\n"))
}

// SetError shows err instead of details.
func (v *View) SetError(err error) {
	v.err = err
}

func (v *View) Init() tea.Cmd { return nil }

// Update scrolls the rows and returns to the document list on esc.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewDocuments}
			}
		}
		return v, v.pager.Update(msg)
	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

// row is one label/value pair. An empty label marks a section heading.
type row struct {
	label string
	value string
}

func (v *View) rows() []row {
	d := v.details
	if d == nil {
		return nil
	}

	rows := []row{
		{"Doc ID", d.ID},
		{"Title", d.Title},
		{"Type", d.Type},
		{"Collection", d.Collection},
		{"File", d.URI},
		{"Chunks", fmt.Sprintf("%d", d.ChunkCount)},
	}
	if !d.CreatedAt.IsZero() {
		rows = append(rows, row{"Ingested", d.CreatedAt.Format(timeLayout)})
	}
	if !d.UpdatedAt.IsZero() && !d.UpdatedAt.Equal(d.CreatedAt) {
		rows = append(rows, row{"Updated", d.UpdatedAt.Format(timeLayout)})
	}

	if len(d.Metadata) > 0 {
		rows = append(rows, row{}, row{value: "Metadata"})
		keys := make([]string, 0, len(d.Metadata))
		for k := range d.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			rows = append(rows, row{label: "  " + k, value: clip(d.Metadata[k], maxValueLen)})
		}
	}
	return rows
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// View renders the details.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case v.details == nil:
		b.WriteString(v.styles.Muted.Render("No document selected"))
		b.WriteString("\n\n")
	default:
		b.WriteString(v.pager.View())
		if footer := v.pager.Footer(); footer != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render("  " + footer))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [esc] back"))
	return b.String()
}

func (v *View) renderRow(r row) string {
	switch {
	case r.label == "" && r.value == "":
		return ""
	case r.label == "":
		return v.styles.Subtitle.Render(r.value + ":")
	case strings.HasPrefix(r.label, "  "):
		return v.styles.Muted.Render(r.label+": ") + v.styles.Normal.Render(r.value)
	default:
		return v.styles.Subtitle.Render(fmt.Sprintf("%-12s", r.label+":")) + " " + v.styles.Normal.Render(r.value)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.pager.SetSize(max(width-4, 20), max(height-6, 1))
}

// Details returns the details being shown.
func (v *View) Details() *driving.DocumentDetails { return v.details }

// Err returns the last error.
func (v *View) Err() error { return v.err }
