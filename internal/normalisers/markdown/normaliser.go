// Package markdown extracts markdown bodies and their YAML front-matter.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise separates the front-matter from the body. The body, trimmed,
// is the document text; front-matter fields are returned as candidate
// metadata. The body keeps its markdown formatting.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	fm, body, err := SplitFrontMatter(raw.Content)
	if err != nil {
		return nil, base.ReadError(raw, "Markdown front-matter", err)
	}

	doc := base.Document(raw, "markdown", strings.TrimSpace(string(body)))
	if t, ok := fm["title"].(string); ok && t != "" {
		doc.Title = t
	} else if h := firstHeading(doc.Content); h != "" && doc.Title == "" {
		doc.Title = h
	}

	return &driven.NormaliseResult{Document: doc, Fields: fm}, nil
}

var (
	bom       = []byte("\xef\xbb\xbf")
	delimiter = []byte("---")
)

// SplitFrontMatter separates a leading "---" delimited YAML block from
// the rest of the content. Content without front-matter is returned
// unchanged with nil fields.
func SplitFrontMatter(content []byte) (map[string]any, []byte, error) {
	content = bytes.TrimPrefix(content, bom)

	first, rest, ok := cutLine(content)
	if !ok || !bytes.Equal(bytes.TrimRight(first, " \t\r"), delimiter) {
		return nil, content, nil
	}

	var yamlBlock []byte
	remaining := rest
	for {
		line, next, more := cutLine(remaining)
		trimmed := bytes.TrimRight(line, " \t\r")
		if bytes.Equal(trimmed, delimiter) || bytes.Equal(trimmed, []byte("...")) {
			yamlBlock = rest[:len(rest)-len(remaining)]
			remaining = next
			break
		}
		if !more {
			// No closing delimiter: treat the whole file as body.
			return nil, content, nil
		}
		remaining = next
	}

	fields := map[string]any{}
	if len(bytes.TrimSpace(yamlBlock)) > 0 {
		if err := yaml.Unmarshal(yamlBlock, &fields); err != nil {
			return nil, nil, fmt.Errorf("invalid front-matter: %w", err)
		}
	}
	return fields, remaining, nil
}

// cutLine splits off the first line. more is false when b held no newline.
func cutLine(b []byte) (line, rest []byte, more bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}
