// Package base holds helpers shared by the format normalisers.
package base

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

// Document builds the extracted document for a raw input. The doc_id is
// assigned later by the ingestion service once metadata is normalised.
func Document(raw *domain.RawDocument, format, content string) domain.Document {
	now := time.Now()
	meta := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	if raw.MIMEType != "" {
		meta[domain.MetaMIMEType] = raw.MIMEType
	}
	meta[domain.MetaFormat] = format

	collection := raw.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}

	return domain.Document{
		Collection: collection,
		URI:        raw.URI,
		Title:      Title(raw),
		Content:    content,
		Metadata:   meta,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Title prefers a caller supplied title, then the file's base name.
func Title(raw *domain.RawDocument) string {
	if t, ok := raw.Metadata["title"].(string); ok && t != "" {
		return t
	}
	if raw.URI == "" {
		return ""
	}
	return filepath.Base(raw.URI)
}

// ReadError reports a file its format reader could not parse.
// label is the upper-case format name, e.g. "PDF".
func ReadError(raw *domain.RawDocument, label string, err error) error {
	return domain.NewValidation(displayName(raw), fmt.Errorf("failed to read %s: %w", label, err))
}

func displayName(raw *domain.RawDocument) string {
	if raw.URI == "" {
		return "<text>"
	}
	return filepath.Base(raw.URI)
}

// JoinLines renders rows as comma-delimited lines.
func JoinLines(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, ",")
	}
	return strings.Join(lines, "\n")
}

// Window clips rows to at most maxRows rows and maxCols columns.
func Window(rows [][]string, maxRows, maxCols int) [][]string {
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > maxCols {
			row = row[:maxCols]
		}
		out[i] = row
	}
	return out
}
