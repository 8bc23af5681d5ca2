package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

func TestSupportedTypes(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/html")
	assert.Contains(t, n.SupportedExtensions(), ".html")
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_JobPostPage(t *testing.T) {
	page := `<!DOCTYPE html>
<html><head><title>Embedded Engineer - Scania</title><style>body{}</style></head>
<body>
<nav>Home | Jobs</nav>
<div class="job-description">
  <h1>Embedded Software Engineer</h1>
  <p>We seek an engineer with <b>C/C++</b> and Zephyr.</p>
  <ul><li>CAN</li><li>LIN</li></ul>
</div>
<footer>© Scania</footer>
<script>track()</script>
</body></html>`

	raw := &domain.RawDocument{URI: "/data/job_posts/scania.html", Content: []byte(page)}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "Embedded Software Engineer\nWe seek an engineer with C/C++ and Zephyr.\nCAN\nLIN", result.Document.Content)
	assert.Equal(t, "Embedded Engineer - Scania", result.Fields["page_title"])
	assert.Equal(t, "scania.html", result.Document.Title)
}

func TestNormalise_FallsBackToBody(t *testing.T) {
	raw := &domain.RawDocument{URI: "p.html", Content: []byte("<html><body><p>One</p><p>Two&nbsp;&amp; three</p></body></html>")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "One\nTwo & three", result.Document.Content)
	assert.NotContains(t, result.Fields, "page_title")
}

func TestNormalise_LineBreaks(t *testing.T) {
	raw := &domain.RawDocument{URI: "b.html", Content: []byte("<body>first<br>second<hr/>third</body>")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\nthird", result.Document.Content)
}

func TestNormalise_EmptyContent(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "e.html"})
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
