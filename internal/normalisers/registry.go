package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
	"github.com/custodia-labs/qpro/internal/normalisers/csv"
	"github.com/custodia-labs/qpro/internal/normalisers/docx"
	"github.com/custodia-labs/qpro/internal/normalisers/eml"
	"github.com/custodia-labs/qpro/internal/normalisers/html"
	"github.com/custodia-labs/qpro/internal/normalisers/markdown"
	"github.com/custodia-labs/qpro/internal/normalisers/pdf"
	"github.com/custodia-labs/qpro/internal/normalisers/plaintext"
	"github.com/custodia-labs/qpro/internal/normalisers/xlsx"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// fallbackPriority is the upper bound for fallback normalisers.
const fallbackPriority = 10

// Registry selects a normaliser per document.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
	byExt       map[string]driven.Normaliser
	byMIME      map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string]driven.Normaliser),
		byMIME: make(map[string]driven.Normaliser),
	}
}

// NewDefaultRegistry creates a registry with every built-in format.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(xlsx.New())
	r.Register(csv.New())
	r.Register(html.New())
	r.Register(eml.New())
	r.Register(markdown.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser. When two claim the same extension or MIME
// type, the higher priority wins.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if cur, ok := r.byExt[ext]; !ok || n.Priority() > cur.Priority() {
			r.byExt[ext] = n
		}
	}
	for _, mt := range n.SupportedMIMETypes() {
		if cur, ok := r.byMIME[mt]; !ok || n.Priority() > cur.Priority() {
			r.byMIME[mt] = n
		}
	}
}

// Normalise extracts raw with the best matching normaliser. Empty
// content yields an empty document without invoking a parser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if len(raw.Content) == 0 {
		return &driven.NormaliseResult{Document: base.Document(raw, "empty", "")}, nil
	}
	if raw.MIMEType == "" {
		raw.MIMEType = r.DetectMIMEType(raw.URI, raw.Content)
	}

	n := r.selectFor(raw)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return n.Normalise(ctx, raw)
}

func (r *Registry) selectFor(raw *domain.RawDocument) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := strings.ToLower(filepath.Ext(raw.URI)); ext != "" {
		if n, ok := r.byExt[ext]; ok {
			return n
		}
	}
	if n, ok := r.byMIME[raw.MIMEType]; ok {
		return n
	}
	return r.fallback()
}

// fallback returns the highest priority normaliser below fallbackPriority.
func (r *Registry) fallback() driven.Normaliser {
	var best driven.Normaliser
	for _, n := range r.normalisers {
		if n.Priority() >= fallbackPriority {
			continue
		}
		if best == nil || n.Priority() > best.Priority() {
			best = n
		}
	}
	return best
}

// extMIMETypes covers office formats that content sniffing reports as zip.
var extMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".mdown":    "text/markdown",
	".csv":      "text/csv",
	".tsv":      "text/tab-separated-values",
	".pdf":      "application/pdf",
	".docx":     docx.MIMEType,
	".xlsx":     xlsx.MIMEType,
	".html":     "text/html",
	".htm":      "text/html",
	".txt":      "text/plain",
	".eml":      "message/rfc822",
}

// DetectMIMEType resolves the MIME type from the file extension, or by
// sniffing content when the extension is unknown.
func (r *Registry) DetectMIMEType(path string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extMIMETypes[ext]; ok {
		return mt
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return stripParams(mt)
		}
	}
	if len(content) == 0 {
		return "text/plain"
	}
	return stripParams(mimetype.Detect(content).String())
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		out = append(out, mt)
	}
	sort.Strings(out)
	return out
}

func stripParams(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}
