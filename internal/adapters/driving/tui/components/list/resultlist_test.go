package list

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

func hits(n int) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, n)
	for i := range out {
		out[i] = domain.RetrievedChunk{
			Chunk:    domain.Chunk{ID: fmt.Sprintf("c%d", i), Content: fmt.Sprintf("chunk   %d\ncontent", i)},
			Document: domain.Document{ID: fmt.Sprintf("doc%d", i), Title: fmt.Sprintf("cv%d.md", i), Type: domain.TypeApplication},
			Score:    1.0 / float64(i+1),
			Rank:     i + 1,
		}
	}
	return out
}

func TestNewChunkList(t *testing.T) {
	l := NewChunkList(nil)

	require.NotNil(t, l)
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.SelectedResult())
	assert.Nil(t, l.Init())
	assert.Contains(t, l.View(), "No results")
}

func TestChunkList_Navigation(t *testing.T) {
	l := NewChunkList(nil)
	l.SetResults(hits(3))

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	l.Update(tea.KeyMsg{Type: tea.KeyUp})
	l.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, l.Selected())
}

func TestChunkList_SetResultsResetsSelection(t *testing.T) {
	l := NewChunkList(nil)
	l.SetResults(hits(3))
	l.SetSelected(2)
	require.Equal(t, "doc2", l.SelectedResult().Document.ID)

	l.SetSelected(7)
	assert.Equal(t, 2, l.Selected())

	l.SetResults(hits(1))
	assert.Equal(t, 0, l.Selected())
	assert.Equal(t, 1, l.Count())
}

func TestChunkList_ViewShowsLabelScoreAndPreview(t *testing.T) {
	l := NewChunkList(nil)
	l.SetDimensions(100, 20)
	l.SetResults(hits(2))

	view := l.View()
	assert.Contains(t, view, "Results (2)")
	assert.Contains(t, view, "1. [application] cv0.md")
	assert.Contains(t, view, "1.0000")
	assert.Contains(t, view, "chunk 0 content")
}

func TestChunkList_ViewScrollsToSelection(t *testing.T) {
	l := NewChunkList(nil)
	l.SetDimensions(100, 8)
	l.SetResults(hits(10))
	l.SetSelected(9)

	view := l.View()
	assert.Contains(t, view, "cv9.md")
	assert.NotContains(t, view, "cv0.md")
}

func TestLabel(t *testing.T) {
	hit := &domain.RetrievedChunk{Rank: 3, Document: domain.Document{ID: "notes"}}
	assert.Equal(t, "3. [file] notes", Label(hit))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmn", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "é...", truncate("éééééé", 4))
}
