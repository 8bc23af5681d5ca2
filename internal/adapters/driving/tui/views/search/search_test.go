package search

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

type mockRetrieval struct {
	retrieveFunc func(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error)
}

func (m *mockRetrieval) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, query, k)
	}
	return nil, nil
}

type mockDocuments struct {
	driving.DocumentService
	opened  []string
	openErr error
}

func (m *mockDocuments) Open(_ context.Context, id string) error {
	m.opened = append(m.opened, id)
	return m.openErr
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleHits() []domain.RetrievedChunk {
	return []domain.RetrievedChunk{
		{
			Chunk:    domain.Chunk{ID: "cv#0", Content: "Led the Go platform team"},
			Document: domain.Document{ID: "cv", Title: "cv.md", Type: domain.TypeApplication, URI: "/docs/cv.md"},
			Score:    0.032,
			Rank:     1,
		},
		{
			Chunk:    domain.Chunk{ID: "post#0", Content: "Kubernetes experience required"},
			Document: domain.Document{ID: "post", Title: "post.txt", Type: domain.TypeJobPost, URI: "/docs/post.txt"},
			Score:    0.016,
			Rank:     2,
		},
	}
}

func newSizedView(r driving.RetrievalService, d driving.DocumentService) *View {
	v := NewView(nil, nil, r, d)
	v.SetDimensions(100, 30)
	return v
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	require.NotNil(t, v)
	assert.True(t, v.InputFocused())
	assert.False(t, v.Ready())
	assert.Equal(t, DefaultLimit, v.limit)
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_SetLimitIgnoresNonPositive(t *testing.T) {
	v := NewView(nil, nil, nil, nil)

	v.SetLimit(0)
	assert.Equal(t, DefaultLimit, v.limit)

	v.SetLimit(3)
	assert.Equal(t, 3, v.limit)
}

func TestView_EnterRetrievesWithLimit(t *testing.T) {
	var gotQuery string
	var gotK int
	r := &mockRetrieval{retrieveFunc: func(_ context.Context, q string, k int) ([]domain.RetrievedChunk, error) {
		gotQuery, gotK = q, k
		return sampleHits(), nil
	}}
	v := newSizedView(r, nil)
	v.SetLimit(5)
	v.SetQuery("  golang  ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.InputFocused())

	msg := cmd()
	done, ok := msg.(messages.RetrievalCompleted)
	require.True(t, ok)
	assert.Equal(t, "golang", gotQuery)
	assert.Equal(t, 5, gotK)

	v.Update(done)
	assert.Len(t, v.Results(), 2)
	assert.NoError(t, v.Err())
	assert.Contains(t, v.View(), "2 results")
	assert.Contains(t, v.View(), "[application] cv.md")
}

func TestView_EmptyQueryDoesNothing(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.SetQuery("   ")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_RetrievalError(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)

	v.Update(messages.RetrievalCompleted{Err: errors.New("index unavailable")})

	assert.EqualError(t, v.Err(), "index unavailable")
	assert.Contains(t, v.View(), "Error: index unavailable")
}

func TestView_NoRetrievalService(t *testing.T) {
	v := newSizedView(nil, nil)
	v.SetQuery("go")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoRetrievalService)
}

func TestView_ResultsModeNavigation(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})

	v.Update(runes("j"))
	assert.Equal(t, 1, v.SelectedIndex())
	v.Update(runes("k"))
	assert.Equal(t, 0, v.SelectedIndex())

	v.Update(runes("n"))
	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Query())
}

func TestView_ActionShowDocument(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})
	v.Update(runes("j"))

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.ActionMenuVisible())
	assert.Contains(t, v.View(), "Show document")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.ActionMenuVisible())

	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "post", selected.Document.ID)
}

func TestView_ActionOpenFile(t *testing.T) {
	docs := &mockDocuments{}
	v := newSizedView(&mockRetrieval{}, docs)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(runes("j"))
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"cv"}, docs.opened)
	assert.Equal(t, "Opening /docs/cv.md", v.StatusMessage())
}

func TestView_ActionOpenFileWithoutService(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})

	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "Open not available", v.StatusMessage())
}

func TestView_ActionMenuEscCloses(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, v.ActionMenuVisible())
}

func TestView_EscReturnsToMenu(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	v := newSizedView(&mockRetrieval{}, nil)
	v.Update(messages.RetrievalCompleted{Results: sampleHits()})
	v.Update(messages.ErrorOccurred{Err: errors.New("x")})

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Results())
	assert.NoError(t, v.Err())
}
