// Package doccontent shows the extracted text of a document.
package doccontent

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/pager"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when content is requested without a service.
var ErrNoDocumentService = errors.New("document service not available")

// View shows one document's text in a pager.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	// back is the view esc returns to.
	back messages.ViewType

	document *domain.Document
	pager    *pager.Pager
	width    int
	height   int
	err      error
	loading  bool
}

// paneChrome is the number of rows taken by the title, rule and help line.
const paneChrome = 6

// NewView creates a document content view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		back:            messages.ViewDocuments,
	}
	v.pager = pager.New(0, 0, true)
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context used to load content.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument shows doc and returns the command that loads its text.
// esc then returns to back.
func (v *View) SetDocument(doc *domain.Document, back messages.ViewType) tea.Cmd {
	v.document = doc
	v.back = back
	v.pager.SetText("")
	v.err = nil
	v.loading = true

	svc, ctx := v.documentService, v.ctx
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentContentLoaded{Err: ErrNoDocumentService}
		}
		content, err := svc.GetContent(ctx, doc.ID)
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Content: content, Err: err}
	}
}

func (v *View) Init() tea.Cmd { return nil }

// Update handles loading results and scrolling.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			back := v.back
			return v, func() tea.Msg { return messages.ViewChanged{View: back} }
		}
		return v, v.pager.Update(msg)

	case messages.DocumentContentLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.pager.SetText(msg.Content)
		}

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) title() string {
	if v.document == nil {
		return "Document Content"
	}
	t := v.document.Title
	if t == "" {
		t = v.document.ID
	}
	if v.document.Type != "" {
		t += "  " + v.styles.Muted.Render("["+v.document.Type+"]")
	}
	return t
}

// View renders the pane.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(v.title()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case v.pager.Empty():
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.styles.Normal.Render(v.pager.View()))
		if footer := v.pager.Footer(); footer != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render("  " + footer))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions resizes the pane and re-flows the text.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.pager.SetSize(max(width-4, 20), max(height-paneChrome, 1))
}

// Document returns the document being shown.
func (v *View) Document() *domain.Document { return v.document }

// Content returns the loaded text.
func (v *View) Content() string { return v.pager.Text() }

// LineCount returns the number of wrapped lines.
func (v *View) LineCount() int { return v.pager.Lines() }

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int { return v.pager.Offset() }

// Loading reports whether content is still being fetched.
func (v *View) Loading() bool { return v.loading }

// Err returns the last error.
func (v *View) Err() error { return v.err }
