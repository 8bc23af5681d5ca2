// Package xlsx renders spreadsheet workbooks as delimited text.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/normalisers/base"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Window bounds per sheet.
const (
	MaxRows = 200
	MaxCols = 30
)

// MIMEType is the Office Open XML spreadsheet type.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Normaliser handles XLSX workbooks.
type Normaliser struct{}

// New creates a new XLSX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType, "application/vnd.ms-excel.sheet.macroEnabled.12"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".xlsx", ".xlsm"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders each sheet in workbook order as a "Sheet: <name>"
// header line followed by at most MaxRows x MaxCols comma-delimited
// rows. Sheets are separated by a blank line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, sheets, err := render(raw.Content)
	if err != nil {
		return nil, base.ReadError(raw, "XLSX", err)
	}

	doc := base.Document(raw, "xlsx", content)
	return &driven.NormaliseResult{
		Document: doc,
		Fields:   map[string]any{"sheets": sheets},
	}, nil
}

func render(data []byte) (string, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	blocks := make([]string, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		block := "Sheet: " + name
		if body := base.JoinLines(base.Window(rows, MaxRows, MaxCols)); body != "" {
			block += "\n" + body
		}
		blocks = append(blocks, block)
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n")), sheets, nil
}
