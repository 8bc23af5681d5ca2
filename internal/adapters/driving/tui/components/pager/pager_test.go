package pager

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func lines(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = "line"
	}
	return strings.Join(out, "\n")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPager_Scrolls(t *testing.T) {
	p := New(80, 10, false)
	p.SetText(lines(50))
	assert.Equal(t, 50, p.Lines())

	p.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, p.Offset())

	p.Update(runes("j"))
	assert.Equal(t, 1, p.Offset())

	p.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 11, p.Offset())

	p.Update(runes("G"))
	assert.Equal(t, 40, p.Offset())
	assert.Contains(t, p.Footer(), "[100%] Line 41-50 of 50")

	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 40, p.Offset())

	p.Update(runes("g"))
	assert.Equal(t, 0, p.Offset())
}

func TestPager_FooterHiddenWhenItFits(t *testing.T) {
	p := New(80, 10, false)
	p.SetText(lines(3))
	assert.Empty(t, p.Footer())
}

func TestPager_SetTextResetsOffset(t *testing.T) {
	p := New(80, 5, false)
	p.SetText(lines(30))
	p.Update(runes("G"))
	assert.Positive(t, p.Offset())

	p.SetText(lines(30))
	assert.Equal(t, 0, p.Offset())
}

func TestPager_Wraps(t *testing.T) {
	p := New(30, 10, true)
	p.SetText(strings.Repeat("word ", 60))
	assert.Greater(t, p.Lines(), 1)

	p.SetSize(200, 10)
	assert.Less(t, p.Lines(), 10)
}

func TestPager_Empty(t *testing.T) {
	p := New(80, 10, true)
	assert.True(t, p.Empty())
	assert.Equal(t, 0, p.Lines())

	p.SetText("x")
	assert.False(t, p.Empty())
	assert.Equal(t, "x", p.Text())
}

func TestPager_IgnoresNonKeys(t *testing.T) {
	p := New(80, 10, false)
	p.SetText(lines(30))
	assert.Nil(t, p.Update(tea.WindowSizeMsg{Width: 1, Height: 1}))
	assert.Equal(t, 0, p.Offset())
}
