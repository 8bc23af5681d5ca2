// Package draft composes application material for a pasted job post.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/pager"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

// ErrNoDraftService is reported when the view has no draft service.
var ErrNoDraftService = errors.New("draft service not available")

// Mode is the phase the view is in.
type Mode int

const (
	// ModeEditing accepts the job post text.
	ModeEditing Mode = iota
	// ModeComposing waits for the composer.
	ModeComposing
	// ModeResult shows the composed draft.
	ModeResult
)

// View holds the job post editor and the rendered draft.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	editor    *input.Editor
	statusbar *status.Bar

	service driving.DraftService
	ctx     context.Context
	topK    int

	mode   Mode
	draft  *domain.Draft
	result *pager.Pager
	err    error
	width  int
	height int
}

// NewView creates a draft view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.DraftService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.DraftHelp())

	v := &View{
		styles:    s,
		keymap:    km,
		editor:    input.NewEditor(s, "Paste the job post here..."),
		statusbar: bar,
		result:    pager.New(0, 0, true),
		service:   service,
		ctx:       context.Background(),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the context passed to Compose.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetTopK overrides how many chunks are retrieved as context. Zero keeps the service default.
func (v *View) SetTopK(k int) {
	v.topK = k
}

// Init starts the editor cursor.
func (v *View) Init() tea.Cmd {
	return v.editor.Init()
}

// Update handles messages for the draft view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DraftCompleted:
		v.handleDraftCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.mode == ModeEditing {
		v.editor, cmd = v.editor.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch v.mode {
	case ModeComposing:
		if msg.Type == tea.KeyEsc {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		return v, nil

	case ModeResult:
		switch msg.String() {
		case "e", "esc":
			v.mode = ModeEditing
			v.statusbar.Clear()
			v.statusbar.SetHints(v.keymap.DraftHelp())
			return v, v.editor.Focus()
		case "n":
			v.Reset()
			return v, v.editor.Focus()
		}
		return v, v.result.Update(msg)

	case ModeEditing:
	}

	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(msg.String(), v.keymap.Compose):
		jobPost := strings.TrimSpace(v.editor.Value())
		if jobPost == "" {
			v.statusbar.SetMessage("Paste a job post first")
			return v, nil
		}
		v.mode = ModeComposing
		v.err = nil
		v.editor.Blur()
		v.statusbar.SetState(status.StateComposing)
		return v, v.compose(jobPost)
	}

	var cmd tea.Cmd
	v.editor, cmd = v.editor.Update(msg)
	return v, cmd
}

func (v *View) compose(jobPost string) tea.Cmd {
	opts := driving.DraftOptions{TopK: v.topK}
	return func() tea.Msg {
		if v.service == nil {
			return messages.DraftCompleted{Err: ErrNoDraftService}
		}
		d, err := v.service.Compose(v.ctx, jobPost, opts)
		return messages.DraftCompleted{Draft: d, Err: err}
	}
}

func (v *View) handleDraftCompleted(msg messages.DraftCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	v.err = nil
	v.draft = msg.Draft
	v.mode = ModeResult
	v.result.SetText("")
	if msg.Draft != nil {
		v.result.SetText(Render(msg.Draft, v.styles))
	}
	v.statusbar.SetState(status.StateReady)
	if msg.Draft != nil && msg.Draft.Partial {
		v.statusbar.SetMessage("Partial draft")
	} else {
		v.statusbar.SetMessage("Draft ready")
	}
	v.statusbar.SetHints(nil)
}

// setError returns the view to the editor so the job post can be resubmitted.
func (v *View) setError(err error) {
	v.err = err
	v.mode = ModeEditing
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(domain.KindOf(err))
	v.editor.Focus()
}

// Render formats a draft as headed sections.
func Render(d *domain.Draft, s *styles.Styles) string {
	var b strings.Builder

	b.WriteString(s.Section.Render("Cover Letter"))
	b.WriteString("\n\n")
	if d.IsMissing(domain.SectionCoverLetter) {
		b.WriteString(s.Muted.Render(d.CoverLetterMarkdown))
	} else {
		b.WriteString(s.Normal.Render(d.CoverLetterMarkdown))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("CV Bullets"))
	b.WriteString("\n\n")
	if len(d.CVBullets) == 0 {
		b.WriteString(s.Muted.Render("(none)"))
		b.WriteString("\n")
	}
	for _, bullet := range d.CVBullets {
		b.WriteString(s.Normal.Render("- " + bullet))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Section.Render("ATS Report"))
	b.WriteString("\n\n")
	b.WriteString("Covered: " + keywords(d.ATS.Covered, s.Covered, s.Muted))
	b.WriteString("\n")
	b.WriteString("Missing: " + keywords(d.ATS.Missing, s.Missing, s.Muted))
	b.WriteString("\n")

	if len(d.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Subtitle.Render("Sources"))
		b.WriteString("\n")
		seen := make(map[string]bool, len(d.Sources))
		for _, src := range d.Sources {
			if seen[src.Document.ID] {
				continue
			}
			seen[src.Document.ID] = true
			b.WriteString(s.Muted.Render(fmt.Sprintf("  [%s] %s", src.Document.Type, src.Document.URI)))
			b.WriteString("\n")
		}
	}

	if d.Partial {
		missing := make([]string, len(d.Missing))
		for i, sec := range d.Missing {
			missing[i] = string(sec)
		}
		b.WriteString("\n")
		b.WriteString(s.Warning.Render("Partial draft, missing: " + strings.Join(missing, ", ")))
		b.WriteString("\n")
	}

	return b.String()
}

func keywords(words []string, style, empty lipgloss.Style) string {
	if len(words) == 0 {
		return empty.Render("(none)")
	}
	return style.Render(strings.Join(words, ", "))
}

// View renders the editor or the draft.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("qPro Draft"), ""}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	switch v.mode {
	case ModeEditing:
		sections = append(sections, v.editor.View())
	case ModeComposing:
		sections = append(sections, v.styles.Muted.Render("Retrieving context and composing. This can take a while with a local model."))
	case ModeResult:
		sections = append(sections, v.result.View(), "",
			v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [e] edit job post  [n] new draft  [esc] back to editor"))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.editor.SetSize(width, height-8)
	v.statusbar.SetWidth(width)
	v.result.SetSize(max(width-4, 20), max(height-6, 1))
}

// Reset clears the editor and any previous draft.
func (v *View) Reset() {
	v.mode = ModeEditing
	v.draft = nil
	v.result.SetText("")
	v.err = nil
	v.editor.Reset()
	v.statusbar.Clear()
	v.statusbar.SetHints(v.keymap.DraftHelp())
}

// SetJobPost replaces the editor text.
func (v *View) SetJobPost(text string) { v.editor.SetValue(text) }

// JobPost returns the editor text.
func (v *View) JobPost() string { return v.editor.Value() }

// Mode returns the current phase.
func (v *View) Mode() Mode { return v.mode }

// Draft returns the last composed draft.
func (v *View) Draft() *domain.Draft { return v.draft }

// Err returns the last error.
func (v *View) Err() error { return v.err }

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string { return v.statusbar.Message() }
