// Package documents lists ingested documents and acts on them.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/choice"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// ErrNoDocumentService is reported when the view has no document service.
var ErrNoDocumentService = errors.New("document service not available")

// ActionOption indexes the per-document action menu.
type ActionOption int

const (
	ActionShowContent ActionOption = iota
	ActionShowDetails
	ActionOpenDocument
	ActionDelete
	ActionCancel
)

var actionLabels = []string{
	ActionShowContent:  "Show Content",
	ActionShowDetails:  "Show Details",
	ActionOpenDocument: "Open File",
	ActionDelete:       "Delete",
	ActionCancel:       "Cancel",
}

// listChrome is the number of rows around the document rows.
const listChrome = 8

// View is the document list.
type View struct {
	styles  *styles.Styles
	service driving.DocumentService
	ctx     context.Context

	documents []domain.Document
	cursor    int
	top       int
	width     int
	height    int

	err     error
	notice  string
	loading bool

	// actions is non-nil while the action menu is open.
	actions    *choice.Menu
	confirming bool
}

// NewView creates a documents view.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		service: service,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init clears transient state and requests the list.
func (v *View) Init() tea.Cmd {
	v.err = nil
	v.notice = ""
	v.actions = nil
	v.confirming = false
	return v.reload()
}

func (v *View) reload() tea.Cmd {
	v.loading = true
	return v.call(func(svc driving.DocumentService) tea.Msg {
		docs, err := svc.List(v.ctx, "")
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}, messages.DocumentsLoaded{Err: ErrNoDocumentService})
}

// call runs fn against the service, or yields missing when there is none.
func (v *View) call(fn func(driving.DocumentService) tea.Msg, missing tea.Msg) tea.Cmd {
	svc := v.service
	return func() tea.Msg {
		if svc == nil {
			return missing
		}
		return fn(svc)
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case v.confirming:
			return v, v.confirmKey(msg)
		case v.actions != nil:
			return v, v.actionKey(msg)
		default:
			return v, v.listKey(msg)
		}

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.moveTo(v.cursor)
		}

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = "Deleted " + msg.DocumentID
		return v, v.reload()

	case messages.ErrorOccurred:
		v.err = msg.Err
	}
	return v, nil
}

func (v *View) listKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		v.moveTo(v.cursor - 1)
	case "down", "j":
		v.moveTo(v.cursor + 1)
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			v.actions = choice.New(v.styles, "Actions for: "+displayTitle(doc), actionLabels...)
		}
	case "d":
		v.confirming = v.SelectedDocument() != nil
	case "r":
		v.notice = ""
		return v.reload()
	case "esc":
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

func (v *View) actionKey(msg tea.KeyMsg) tea.Cmd {
	picked, done := v.actions.Update(msg)
	if !done {
		return nil
	}
	v.actions = nil
	doc := v.SelectedDocument()
	if doc == nil || picked == choice.Cancelled {
		return nil
	}

	id := doc.ID
	switch ActionOption(picked) {
	case ActionShowContent:
		selected := *doc
		return func() tea.Msg { return messages.DocumentSelected{Document: selected} }
	case ActionShowDetails:
		return v.call(func(svc driving.DocumentService) tea.Msg {
			details, err := svc.GetDetails(v.ctx, id)
			return messages.DocumentDetailsLoaded{DocumentID: id, Details: details, Err: err}
		}, messages.DocumentDetailsLoaded{DocumentID: id, Err: ErrNoDocumentService})
	case ActionOpenDocument:
		return v.call(func(svc driving.DocumentService) tea.Msg {
			if err := svc.Open(v.ctx, id); err != nil {
				return messages.ErrorOccurred{Err: err}
			}
			return nil
		}, messages.ErrorOccurred{Err: ErrNoDocumentService})
	case ActionDelete:
		v.confirming = true
	case ActionCancel:
	}
	return nil
}

func (v *View) confirmKey(msg tea.KeyMsg) tea.Cmd {
	v.confirming = false
	doc := v.SelectedDocument()
	if doc == nil || !strings.EqualFold(msg.String(), "y") {
		return nil
	}
	id := doc.ID
	return v.call(func(svc driving.DocumentService) tea.Msg {
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(v.ctx, id)}
	}, messages.DocumentDeleted{DocumentID: id, Err: ErrNoDocumentService})
}

// moveTo clamps i into the list and keeps it inside the visible window.
func (v *View) moveTo(i int) {
	v.cursor = max(min(i, len(v.documents)-1), 0)
	rows := v.rows()
	switch {
	case v.cursor < v.top:
		v.top = v.cursor
	case v.cursor >= v.top+rows:
		v.top = v.cursor - rows + 1
	}
}

func (v *View) rows() int { return max(v.height-listChrome, 1) }

// View renders the document list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n\n")

	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if v.actions != nil && !v.loading && v.err == nil {
		b.WriteString(v.actions.View())
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))
		return b.String()
	}

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Nothing ingested yet. Try: qpro ingest <file>"))
	default:
		b.WriteString(v.renderRows())
	}

	if doc := v.SelectedDocument(); v.confirming && doc != nil {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its chunks? [y/N]", displayTitle(doc))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [d] delete  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderRows() string {
	end := min(v.top+v.rows(), len(v.documents))
	titleWidth := max(v.width/2-16, 10)
	uriWidth := max(v.width/2-4, 10)

	lines := make([]string, 0, end-v.top+2)
	for i := v.top; i < end; i++ {
		doc := &v.documents[i]
		typ := doc.Type
		if typ == "" {
			typ = domain.TypeFile
		}
		title := clip(displayTitle(doc), titleWidth)
		uri := clipLeft(doc.URI, uriWidth)

		if i == v.cursor {
			lines = append(lines, v.styles.Selected.Render(fmt.Sprintf("> %-12s %-*s  %s", typ, titleWidth, title, uri)))
			continue
		}
		lines = append(lines, v.styles.Normal.Render("  ")+
			v.styles.Subtitle.Render(fmt.Sprintf("%-12s ", typ))+
			v.styles.Normal.Render(fmt.Sprintf("%-*s  ", titleWidth, title))+
			v.styles.Muted.Render(uri))
	}
	if len(v.documents) > v.rows() {
		lines = append(lines, "", v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.top+1, end, len(v.documents))))
	}
	return strings.Join(lines, "\n")
}

func displayTitle(doc *domain.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ID
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// clipLeft keeps the tail of a path, which is the part that identifies it.
func clipLeft(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "..." + string(r[len(r)-n+3:])
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.moveTo(v.cursor)
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document { return v.documents }

// SelectedIndex returns the selected row.
func (v *View) SelectedIndex() int { return v.cursor }

// SelectedDocument returns the selected document, or nil when the list is empty.
func (v *View) SelectedDocument() *domain.Document {
	if v.cursor < len(v.documents) {
		return &v.documents[v.cursor]
	}
	return nil
}

// IsShowingMenu reports whether the action menu is open.
func (v *View) IsShowingMenu() bool { return v.actions != nil }

// IsConfirmingDelete reports whether a delete prompt is pending.
func (v *View) IsConfirmingDelete() bool { return v.confirming }

// Loading reports whether a list request is in flight.
func (v *View) Loading() bool { return v.loading }

// Err returns the last error.
func (v *View) Err() error { return v.err }
