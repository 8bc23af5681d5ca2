package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/draft"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/logger"
)

// App is the root Bubbletea model. It owns every view and routes messages
// to the active one.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	menuView       *menu.View
	searchView     *search.View
	documentsView  *documents.View
	docContentView *doccontent.View
	docDetailsView *docdetails.View
	draftView      *draft.View

	screens     map[messages.ViewType]screen
	currentView messages.ViewType

	// settings is a snapshot taken at startup for the help view.
	settings *domain.AppSettings

	err    error
	width  int
	height int
	ready  bool
}

var _ tea.Model = (*App)(nil)

// NewApp creates the TUI with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		keymap:         km,
		menuView:       menu.NewView(s),
		searchView:     search.NewView(s, km, ports.Retrieval, ports.Document),
		documentsView:  documents.NewView(s, ports.Document),
		docContentView: doccontent.NewView(s, ports.Document),
		docDetailsView: docdetails.NewView(s),
		draftView:      draft.NewView(s, km, ports.Draft),
		currentView:    messages.ViewMenu,
	}
	a.screens = map[messages.ViewType]screen{
		messages.ViewMenu:       bind(a.menuView),
		messages.ViewSearch:     bind(a.searchView),
		messages.ViewDocuments:  bind(a.documentsView),
		messages.ViewDocContent: bind(a.docContentView),
		messages.ViewDocDetails: bind(a.docDetailsView),
		messages.ViewDraft:      bind(a.draftView),
		messages.ViewHelp:       {update: a.helpKey, view: a.viewHelp, resize: func(int, int) {}},
	}

	if ports.Settings != nil {
		settings, err := ports.Settings.Get()
		if err != nil {
			logger.Warn("tui: loading settings: %v", err)
		} else {
			a.settings = settings
			a.searchView.SetLimit(settings.Pipeline.TopK)
			a.draftView.SetTopK(settings.Pipeline.TopK)
		}
	}
	return a, nil
}

// WithContext sets the context every service call runs under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	a.draftView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("qpro")
}

// Update routes msg: results go to the view that asked for them,
// everything else to the active view.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.RetrievalCompleted:
		a.err = msg.Err
		return a, a.send(messages.ViewSearch, msg)

	case messages.DraftCompleted:
		a.err = msg.Err
		return a, a.send(messages.ViewDraft, msg)

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		return a, a.send(messages.ViewDocuments, msg)

	case messages.DocumentSelected:
		back := messages.ViewDocuments
		if a.currentView == messages.ViewSearch {
			back = messages.ViewSearch
		}
		a.currentView = messages.ViewDocContent
		doc := msg.Document
		return a, a.docContentView.SetDocument(&doc, back)

	case messages.DocumentContentLoaded:
		return a, a.send(messages.ViewDocContent, msg)

	case messages.DocumentDetailsLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			return a, a.send(messages.ViewDocuments, messages.ErrorOccurred{Err: msg.Err})
		}
		a.docDetailsView.SetDetails(msg.Details)
		a.currentView = messages.ViewDocDetails
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}
	return a, a.send(a.currentView, msg)
}

func (a *App) send(view messages.ViewType, msg tea.Msg) tea.Cmd {
	if sc, ok := a.screens[view]; ok {
		return sc.update(msg)
	}
	return nil
}

func (a *App) helpKey(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && (k.Type == tea.KeyEsc || k.String() == "q") {
		a.currentView = messages.ViewMenu
	}
	return nil
}

func (a *App) switchView(view messages.ViewType) tea.Cmd {
	from := a.currentView
	a.currentView = view
	a.err = nil

	switch view {
	case messages.ViewSearch:
		// Returning from a document keeps the previous hits.
		if from == messages.ViewDocContent {
			return nil
		}
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewDocuments:
		return a.documentsView.Init()
	case messages.ViewDraft:
		if from == messages.ViewMenu && a.draftView.Mode() != draft.ModeComposing {
			return a.draftView.Init()
		}
	case messages.ViewMenu, messages.ViewDocContent, messages.ViewDocDetails, messages.ViewHelp:
	}
	return nil
}

// View renders the active screen.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if sc, ok := a.screens[a.currentView]; ok {
		return sc.view()
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Subtitle.Render("Views"))
	b.WriteString("\n")
	b.WriteString("  Draft       paste a job post, ctrl+s composes a cover letter, CV bullets and an ATS report\n")
	b.WriteString("  Search      hybrid keyword and vector retrieval over ingested chunks\n")
	b.WriteString("  Documents   read, inspect, open or delete ingested documents\n")

	if a.settings != nil {
		b.WriteString("\n")
		b.WriteString(a.styles.Subtitle.Render("Configuration"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Embedding   %s (%s)\n", a.settings.Embedding.Provider, a.settings.Embedding.Model))
		b.WriteString(fmt.Sprintf("  LLM         %s (%s)\n", a.settings.LLM.Provider, a.settings.LLM.Model))
		b.WriteString(fmt.Sprintf("  Top K       %d\n", a.settings.Pipeline.TopK))
	}

	b.WriteString("\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the program on the alternate screen and blocks until it exits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType { return a.currentView }

// Err returns the last error reported by a service.
func (a *App) Err() error { return a.err }

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool { return a.ready }

// SetDimensions sizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	for _, sc := range a.screens {
		sc.resize(width, height)
	}
}
