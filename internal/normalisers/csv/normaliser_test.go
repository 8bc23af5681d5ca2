package csv

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

func TestSupportedTypes(t *testing.T) {
	n := New()
	assert.Contains(t, n.SupportedMIMETypes(), "text/csv")
	assert.Contains(t, n.SupportedExtensions(), ".csv")
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Basic(t *testing.T) {
	raw := &domain.RawDocument{
		URI:     "/data/skills.csv",
		Content: []byte("name,position,skills\nAnna,Firmware Engineer,\"C, C++\"\n"),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "name,position,skills\nAnna,Firmware Engineer,C, C++", result.Document.Content)
	assert.Equal(t, 2, result.Fields["rows"])
	assert.Equal(t, "skills.csv", result.Document.Title)
}

func TestNormalise_HeaderOnly(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "h.csv", Content: []byte("col1,col2\n")})
	require.NoError(t, err)
	assert.Equal(t, "col1,col2", result.Document.Content)
}

func TestNormalise_Empty(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "e.csv"})
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestNormalise_Window(t *testing.T) {
	var b strings.Builder
	for r := 0; r < MaxRows+10; r++ {
		cells := make([]string, MaxCols+3)
		for c := range cells {
			cells[c] = fmt.Sprintf("%d", c)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}

	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "w.csv", Content: []byte(b.String())})
	require.NoError(t, err)

	lines := strings.Split(result.Document.Content, "\n")
	assert.Len(t, lines, MaxRows)
	assert.Len(t, strings.Split(lines[0], ","), MaxCols)
}

func TestNormalise_RaggedRowsAndTabs(t *testing.T) {
	raw := &domain.RawDocument{URI: "r.tsv", MIMEType: "text/tab-separated-values", Content: []byte("a\tb\tc\nd\n")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\nd", result.Document.Content)
}

func TestNormalise_Malformed(t *testing.T) {
	raw := &domain.RawDocument{URI: "/tmp/bad.csv", Content: []byte("a,\"b\nc,d")}

	result, err := New().Normalise(context.Background(), raw)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "failed to read CSV")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
