// Package csv renders delimited data files as comma-delimited text.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
	"github.com/custodia-labs/qpro/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Window bounds.
const (
	MaxRows = 10000
	MaxCols = 30
)

// Normaliser handles CSV and TSV files.
type Normaliser struct{}

// New creates a new CSV normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/csv", "text/tab-separated-values"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".csv", ".tsv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise re-renders at most MaxRows x MaxCols cells. Rows may have
// differing field counts. A header-only file yields its header line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	comma := ','
	if raw.MIMEType == "text/tab-separated-values" {
		comma = '\t'
	}

	rows, err := readRows(raw.Content, comma)
	if err != nil {
		return nil, base.ReadError(raw, "CSV", err)
	}

	doc := base.Document(raw, "csv", base.JoinLines(base.Window(rows, MaxRows, MaxCols)))
	return &driven.NormaliseResult{
		Document: doc,
		Fields:   map[string]any{"rows": len(rows)},
	}, nil
}

// readRows stops reading once the row window is full. Quoting is strict:
// an unterminated or bare quote is a parse failure.
func readRows(data []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader([]byte(plaintext.Decode(data))))
	r.Comma = comma
	r.FieldsPerRecord = -1

	var rows [][]string
	for len(rows) < MaxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
