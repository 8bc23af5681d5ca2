package draft

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/qpro/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

type mockDraftService struct {
	composeFunc func(ctx context.Context, jobPost string, opts driving.DraftOptions) (*domain.Draft, error)
}

func (m *mockDraftService) Compose(ctx context.Context, jobPost string, opts driving.DraftOptions) (*domain.Draft, error) {
	return m.composeFunc(ctx, jobPost, opts)
}

var ctrlS = tea.KeyMsg{Type: tea.KeyCtrlS}

func sampleDraft() *domain.Draft {
	return &domain.Draft{
		CoverLetterMarkdown: "Dear Acme team,",
		CVBullets:           []string{"Shipped Go services", "Ran Kubernetes clusters"},
		ATS:                 domain.ATSReport{Covered: []string{"Go", "Kubernetes"}, Missing: []string{"Terraform"}},
		Sources: []domain.RetrievedChunk{
			{Document: domain.Document{ID: "cv", Type: domain.TypeApplication, URI: "/docs/cv.md"}},
			{Document: domain.Document{ID: "cv", Type: domain.TypeApplication, URI: "/docs/cv.md"}},
		},
	}
}

func newView(svc driving.DraftService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(100, 60)
	return v
}

func TestNewView_StartsEditing(t *testing.T) {
	v := newView(nil)

	assert.Equal(t, ModeEditing, v.Mode())
	assert.NotNil(t, v.Init())
	out := v.View()
	assert.Contains(t, out, "qPro Draft")
	assert.Contains(t, out, "ctrl+s: compose")
}

func TestCompose_EmptyJobPost(t *testing.T) {
	v := newView(&mockDraftService{})
	v.SetJobPost("   \n ")

	_, cmd := v.Update(ctrlS)

	assert.Nil(t, cmd)
	assert.Equal(t, ModeEditing, v.Mode())
	assert.Equal(t, "Paste a job post first", v.StatusMessage())
}

func TestCompose_Success(t *testing.T) {
	var gotPost string
	var gotOpts driving.DraftOptions
	svc := &mockDraftService{composeFunc: func(_ context.Context, post string, opts driving.DraftOptions) (*domain.Draft, error) {
		gotPost, gotOpts = post, opts
		return sampleDraft(), nil
	}}
	v := newView(svc)
	v.SetTopK(5)
	v.SetJobPost("  Go engineer with Kubernetes and Terraform  ")

	_, cmd := v.Update(ctrlS)
	require.NotNil(t, cmd)
	assert.Equal(t, ModeComposing, v.Mode())
	assert.Contains(t, v.View(), "Composing draft...")

	v.Update(cmd())

	assert.Equal(t, "Go engineer with Kubernetes and Terraform", gotPost)
	assert.Equal(t, 5, gotOpts.TopK)
	assert.Equal(t, ModeResult, v.Mode())
	assert.Equal(t, "Draft ready", v.StatusMessage())

	out := v.View()
	assert.Contains(t, out, "Dear Acme team,")
	assert.Contains(t, out, "- Ran Kubernetes clusters")
	assert.Contains(t, out, "Covered: Go, Kubernetes")
	assert.Contains(t, out, "Missing: Terraform")
}

func TestCompose_Error(t *testing.T) {
	svc := &mockDraftService{composeFunc: func(context.Context, string, driving.DraftOptions) (*domain.Draft, error) {
		return nil, domain.NewGenerationTimeout(context.DeadlineExceeded)
	}}
	v := newView(svc)
	v.SetJobPost("Go engineer")

	_, cmd := v.Update(ctrlS)
	v.Update(cmd())

	assert.Equal(t, ModeEditing, v.Mode())
	assert.ErrorIs(t, v.Err(), domain.ErrGenerationTimeout)
	assert.Equal(t, "generation_timeout", v.StatusMessage())
	assert.Equal(t, "Go engineer", v.JobPost())
}

func TestCompose_NoService(t *testing.T) {
	v := newView(nil)
	v.SetJobPost("Go engineer")

	_, cmd := v.Update(ctrlS)
	msg, ok := cmd().(messages.DraftCompleted)

	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoDraftService)
}

func TestPartialDraftStatus(t *testing.T) {
	v := newView(nil)
	d := sampleDraft()
	d.MarkMissing(domain.SectionCVBullets)

	v.Update(messages.DraftCompleted{Draft: d})

	assert.Equal(t, "Partial draft", v.StatusMessage())
	assert.Contains(t, v.View(), "Partial draft, missing: cv_bullets")
}

func TestResultMode_Keys(t *testing.T) {
	v := newView(nil)
	v.SetJobPost("Go engineer")
	v.Update(messages.DraftCompleted{Draft: sampleDraft()})
	require.Equal(t, ModeResult, v.Mode())

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeEditing, v.Mode())
	assert.Equal(t, "Go engineer", v.JobPost())

	v.Update(messages.DraftCompleted{Draft: sampleDraft()})
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	assert.Equal(t, ModeEditing, v.Mode())
	assert.Empty(t, v.JobPost())
	assert.Nil(t, v.Draft())
}

func TestEditingEscLeaves(t *testing.T) {
	v := newView(nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestEditingTypesIntoEditor(t *testing.T) {
	v := newView(nil)

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Rust")})

	assert.Equal(t, "Rust", v.JobPost())
}

func TestComposingIgnoresTyping(t *testing.T) {
	svc := &mockDraftService{composeFunc: func(context.Context, string, driving.DraftOptions) (*domain.Draft, error) {
		return sampleDraft(), nil
	}}
	v := newView(svc)
	v.SetJobPost("Go")
	v.Update(ctrlS)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Nil(t, cmd)
	assert.Equal(t, "Go", v.JobPost())
}

func TestRender_Sections(t *testing.T) {
	out := Render(sampleDraft(), styles.DefaultStyles())

	assert.Contains(t, out, "Cover Letter")
	assert.Contains(t, out, "CV Bullets")
	assert.Contains(t, out, "ATS Report")
	assert.Contains(t, out, "[application] /docs/cv.md")
	assert.NotContains(t, out, "Partial")
}

func TestRender_EmptySections(t *testing.T) {
	d := &domain.Draft{CoverLetterMarkdown: domain.CoverLetterPlaceholder}
	d.MarkMissing(domain.SectionCoverLetter)

	out := Render(d, styles.DefaultStyles())

	assert.Contains(t, out, domain.CoverLetterPlaceholder)
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "missing: cover_letter")
}

func TestErrorOccurred(t *testing.T) {
	v := newView(nil)
	v.Update(messages.ErrorOccurred{Err: errors.New("llm offline")})

	assert.EqualError(t, v.Err(), "llm offline")
	assert.Contains(t, v.View(), "Error: llm offline")
}

func TestResultMode_Scrolls(t *testing.T) {
	d := sampleDraft()
	for range 40 {
		d.CVBullets = append(d.CVBullets, "Another achievement")
	}
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 20)
	v.Update(messages.DraftCompleted{Draft: d})
	require.Equal(t, ModeResult, v.Mode())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, v.result.Offset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.result.Offset())
}
