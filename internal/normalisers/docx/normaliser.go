// Package docx extracts paragraph text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word-processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var errNoDocument = errors.New("word/document.xml not found")

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the body paragraphs, one paragraph per line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, base.ReadError(raw, "DOCX", err)
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, base.ReadError(raw, "DOCX", err)
	}

	doc := base.Document(raw, "docx", content)
	fields := map[string]any{}
	if props := readCoreProperties(reader); props != nil {
		if props.Title != "" {
			fields["docx_title"] = props.Title
		}
		if props.Creator != "" {
			fields["author"] = props.Creator
		}
	}

	return &driven.NormaliseResult{Document: doc, Fields: fields}, nil
}

func readZipFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	data, err := readZipFile(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", errNoDocument
	}
	return parseDocumentXML(data)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Items []runItem `xml:",any"`
}

type runItem struct {
	XMLName xml.Name
	Content string `xml:",chardata"`
}

// parseDocumentXML joins paragraph text with newlines. Tabs and line
// breaks inside a run are kept.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, item := range r.Items {
				switch item.XMLName.Local {
				case "t":
					b.WriteString(item.Content)
				case "tab":
					b.WriteString("\t")
				case "br", "cr":
					b.WriteString("\n")
				}
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

func readCoreProperties(reader *zip.Reader) *coreXML {
	data, err := readZipFile(reader, "docProps/core.xml")
	if err != nil || data == nil {
		return nil
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return nil
	}
	core.Title = strings.TrimSpace(core.Title)
	core.Creator = strings.TrimSpace(core.Creator)
	return &core
}
