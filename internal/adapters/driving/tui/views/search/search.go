// Package search provides the retrieval view for the TUI.
package search

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/choice"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// DefaultLimit is the number of hits requested per query.
const DefaultLimit = 8

// Hit actions, in menu order.
const (
	actionShowDocument = iota
	actionOpenFile
	actionCancel
)

var hitActions = []string{
	actionShowDocument: "Show document",
	actionOpenFile:     "Open file",
	actionCancel:       "Cancel",
}

// View has a query input, the hit list and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ChunkList
	statusbar *status.Bar

	retrieval driving.RetrievalService
	documents driving.DocumentService
	ctx       context.Context
	limit     int

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool

	// actions is non-nil while the overlay for target is open.
	actions *choice.Menu
	target  *domain.RetrievedChunk
}

// NewView creates a search view. documents may be nil, which disables "Open file".
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retrieval driving.RetrievalService,
	documents driving.DocumentService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Query", "skills, employers, technologies..."),
		list:       list.NewChunkList(s),
		statusbar:  status.NewBar(s, km),
		retrieval:  retrieval,
		documents:  documents,
		ctx:        context.Background(),
		limit:      DefaultLimit,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context used for retrieval calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetLimit sets how many hits a query requests. Non-positive values are ignored.
func (v *View) SetLimit(k int) {
	if k > 0 {
		v.limit = k
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RetrievalCompleted:
		v.handleRetrievalCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.actions != nil {
		return v, v.actionKey(msg)
	}

	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(v.input.Value())
			if query == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateRetrieving)
			v.focusInput = false
			v.input.Blur()
			return v, v.retrieve(query)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "enter":
		if hit := v.list.SelectedResult(); hit != nil {
			v.target = hit
			v.actions = choice.New(v.styles, list.Label(hit), hitActions...)
		}
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n":
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) actionKey(msg tea.KeyMsg) tea.Cmd {
	picked, done := v.actions.Update(msg)
	if !done {
		return nil
	}
	hit := v.target
	v.actions, v.target = nil, nil

	switch picked {
	case actionShowDocument:
		doc := hit.Document
		return func() tea.Msg { return messages.DocumentSelected{Document: doc} }
	case actionOpenFile:
		v.open(hit)
	}
	return nil
}

func (v *View) open(hit *domain.RetrievedChunk) {
	if v.documents == nil {
		v.statusbar.SetMessage("Open not available")
		return
	}
	if err := v.documents.Open(v.ctx, hit.Document.ID); err != nil {
		v.statusbar.SetMessage("Open: " + err.Error())
		return
	}
	v.statusbar.SetMessage("Opening " + hit.Document.URI)
}

func (v *View) retrieve(query string) tea.Cmd {
	limit := v.limit
	return func() tea.Msg {
		if v.retrieval == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}
		results, err := v.retrieval.Retrieve(v.ctx, query, limit)
		return messages.RetrievalCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleRetrievalCompleted(msg messages.RetrievalCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(msg.Results))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("qPro Search"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if v.actions != nil {
		sections = append(sections, "", v.styles.Border.Padding(0, 1).Render(v.actions.View()))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10)
	v.statusbar.SetWidth(width)
}

// Ready reports whether the view has dimensions.
func (v *View) Ready() bool { return v.ready }

// Query returns the current query text.
func (v *View) Query() string { return v.input.Value() }

// SetQuery sets the query text.
func (v *View) SetQuery(query string) { v.input.SetValue(query) }

// Results returns the current hits.
func (v *View) Results() []domain.RetrievedChunk { return v.list.Results() }

// SelectedIndex returns the index of the selected hit.
func (v *View) SelectedIndex() int { return v.list.Selected() }

// Err returns the current error, if any.
func (v *View) Err() error { return v.err }

// InputFocused reports whether typing goes to the query input.
func (v *View) InputFocused() bool { return v.focusInput }

// ActionMenuVisible reports whether the action overlay is shown.
func (v *View) ActionMenuVisible() bool { return v.actions != nil }

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string { return v.statusbar.Message() }

// Reset returns the view to an empty query.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetResults(nil)
	v.actions, v.target = nil, nil
	v.err = nil
	v.statusbar.Clear()
}
