// Package pager is a soft-wrapping text pane built on the bubbles viewport.
package pager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pager scrolls a block of text. Besides the viewport bindings it
// understands g/home and G/end.
type Pager struct {
	vp   viewport.Model
	text string
	wrap bool
}

// New returns a pager of the given size. With wrap set, text is
// re-flowed to the pane width on every resize.
func New(width, height int, wrap bool) *Pager {
	p := &Pager{vp: viewport.New(width, max(height, 1)), wrap: wrap}
	p.vp.KeyMap.HalfPageUp.SetKeys("ctrl+u")
	p.vp.KeyMap.HalfPageDown.SetKeys("ctrl+d")
	return p
}

// SetSize resizes the pane and re-flows the text.
func (p *Pager) SetSize(width, height int) {
	p.vp.Width = max(width, 1)
	p.vp.Height = max(height, 1)
	p.render()
}

// SetText replaces the text and scrolls to the top.
func (p *Pager) SetText(text string) {
	p.text = text
	p.vp.SetYOffset(0)
	p.render()
}

func (p *Pager) render() {
	body := p.text
	if p.wrap && body != "" {
		body = lipgloss.NewStyle().Width(max(p.vp.Width, 20)).Render(body)
	}
	p.vp.SetContent(body)
}

// Update scrolls on key messages and ignores everything else.
func (p *Pager) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch key.String() {
	case "home", "g":
		p.vp.GotoTop()
		return nil
	case "end", "G":
		p.vp.GotoBottom()
		return nil
	}
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

// View renders the visible lines.
func (p *Pager) View() string { return p.vp.View() }

// Footer describes the position, or "" when everything fits.
func (p *Pager) Footer() string {
	total := p.Lines()
	if total <= p.vp.Height {
		return ""
	}
	first := p.vp.YOffset + 1
	last := min(p.vp.YOffset+p.vp.Height, total)
	return fmt.Sprintf("[%d%%] Line %d-%d of %d", int(p.vp.ScrollPercent()*100), first, last, total)
}

// Empty reports whether there is no text.
func (p *Pager) Empty() bool { return strings.TrimSpace(p.text) == "" }

// Offset is the index of the first visible line.
func (p *Pager) Offset() int { return p.vp.YOffset }

// Lines counts the wrapped lines.
func (p *Pager) Lines() int {
	if p.text == "" {
		return 0
	}
	return p.vp.TotalLineCount()
}

// Text returns the unwrapped text.
func (p *Pager) Text() string { return p.text }
