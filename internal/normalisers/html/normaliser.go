// Package html extracts readable text from saved web pages, typically
// job posts saved from a browser.
package html

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// noise is removed before text extraction.
const noise = "head, nav, footer, header, script, style, noscript, svg, iframe, form, " +
	".cookie-banner, .ad, .ads, .advertisement, .sidebar, .popup"

// contentSelectors are tried in order; the first match is the main text.
var contentSelectors = []string{
	".job-description",
	"#job-description",
	".job-content",
	".description__text",
	"[data-automation=jobAdDetails]",
	"main",
	"article",
	"#content",
	".content",
}

const blockElements = "p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, table, section, article, blockquote, pre"

var (
	multiSpaces = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the page's main text, one block element per line.
// The <title> is returned as a candidate metadata field.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, base.ReadError(raw, "HTML", err)
	}

	title := strings.TrimSpace(page.Find("title").First().Text())
	content := extractText(page)

	doc := base.Document(raw, "html", content)
	fields := map[string]any{}
	if title != "" {
		fields["page_title"] = title
	}
	return &driven.NormaliseResult{Document: doc, Fields: fields}, nil
}

// Text returns the visible text of an HTML fragment or page.
func Text(markup []byte) (string, error) {
	page, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", err
	}
	return extractText(page), nil
}

func extractText(page *goquery.Document) string {
	page.Find(noise).Remove()
	page.Find("br, hr").ReplaceWithHtml("\n")
	page.Find(blockElements).AfterHtml("\n")

	main := page.Find("body")
	for _, sel := range contentSelectors {
		if s := page.Find(sel); s.Length() > 0 {
			main = s.First()
			break
		}
	}
	if main.Length() == 0 {
		main = page.Selection
	}

	return cleanLines(main.Text())
}

// cleanLines collapses runs of spaces and drops empty lines.
func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
