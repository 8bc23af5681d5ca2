package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

func TestNormalise_FileDefaults(t *testing.T) {
	got, err := Normalise(nil, Source{Path: "/data/cv/Resume 2024.PDF"})
	require.NoError(t, err)

	assert.Equal(t, "Resume 2024.PDF", got["filename"])
	assert.Equal(t, "pdf", got["source_ext"])
	assert.Equal(t, "file", got["type"])
	assert.Equal(t, "Resume 2024", got["doc_id"])
}

func TestNormalise_MarkdownFrontMatter(t *testing.T) {
	fields := map[string]any{
		"type":    "job_post",
		"company": "Scania",
	}

	got, err := Normalise(fields, Source{Path: "data/job_posts/2025-11-10-scania.md", Markdown: true})
	require.NoError(t, err)

	assert.Equal(t, "job_post", got["type"])
	assert.Equal(t, "Scania", got["company"])
	assert.Equal(t, "2025-11-10-scania", got["doc_id"])
	assert.Equal(t, "md", got["source_ext"])
}

func TestNormalise_MarkdownWithoutType(t *testing.T) {
	got, err := Normalise(map[string]any{"company": "Volvo"}, Source{Path: "notes.md", Markdown: true})
	require.NoError(t, err)
	assert.Equal(t, "markdown", got["type"])
}

func TestNormalise_ExplicitValuesWin(t *testing.T) {
	fields := map[string]any{
		"filename": "custom.txt",
		"doc_id":   "my-id",
		"type":     "application",
	}

	got, err := Normalise(fields, Source{Path: "/tmp/other.docx"})
	require.NoError(t, err)

	assert.Equal(t, "custom.txt", got["filename"])
	assert.Equal(t, "my-id", got["doc_id"])
	assert.Equal(t, "application", got["type"])
}

func TestNormalise_EmptyStringIsDefaulted(t *testing.T) {
	got, err := Normalise(map[string]any{"doc_id": ""}, Source{Path: "a/b.csv"})
	require.NoError(t, err)
	assert.Equal(t, "b", got["doc_id"])
}

func TestNormalise_ManualText(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		wantID string
	}{
		{"title becomes doc_id", map[string]any{"title": "Volvo application"}, "Volvo application"},
		{"doc fallback", map[string]any{}, "doc"},
		{"explicit doc_id", map[string]any{"doc_id": "x", "title": "y"}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalise(tt.fields, Source{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got["doc_id"])
			assert.Equal(t, "file", got["type"])
			assert.NotContains(t, got, "filename")
		})
	}
}

func TestNormalise_Coercion(t *testing.T) {
	when := time.Date(2025, 11, 10, 9, 30, 0, 0, time.UTC)
	fields := map[string]any{
		"skills":   []any{"C", "C++", "Zephyr"},
		"years":    7,
		"rate":     float32(0.5),
		"remote":   true,
		"posted":   when,
		"contact":  map[string]any{"name": "Anna", "email": "anna@example.com"},
		"mixed":    []any{"a", map[string]any{"b": 1}},
		"nothing":  nil,
		"bytes":    []byte("raw"),
		"uint_big": uint64(1 << 63),
	}

	got, err := Normalise(fields, Source{Path: "x.md", Markdown: true})
	require.NoError(t, err)

	assert.Equal(t, "C, C++, Zephyr", got["skills"])
	assert.Equal(t, int64(7), got["years"])
	assert.Equal(t, float64(0.5), got["rate"])
	assert.Equal(t, true, got["remote"])
	assert.Equal(t, "2025-11-10T09:30:00Z", got["posted"])
	assert.Equal(t, `{"email":"anna@example.com","name":"Anna"}`, got["contact"])
	assert.Equal(t, `["a",{"b":1}]`, got["mixed"])
	assert.NotContains(t, got, "nothing")
	assert.Equal(t, "raw", got["bytes"])
	assert.Equal(t, "9223372036854775808", got["uint_big"])
}

func TestNormalise_AllValuesScalar(t *testing.T) {
	fields := map[string]any{
		"a": []string{"x", "y"},
		"b": map[string]any{"n": []int{1, 2}},
		"c": []int{1, 2, 3},
		"d": struct{ X int }{X: 1},
	}

	got, err := Normalise(fields, Source{Path: "f.txt"})
	require.NoError(t, err)

	for k, v := range got {
		switch v.(type) {
		case string, int64, float64, bool:
		default:
			t.Errorf("key %q has non-scalar value %T", k, v)
		}
	}
}

func TestNormalise_Idempotent(t *testing.T) {
	inputs := []map[string]any{
		{"type": "job_post", "company": "Scania", "tags": []any{"embedded", "can"}},
		{"nested": map[string]any{"x": []any{1, 2}}, "n": 3.25, "ok": false},
		{},
	}
	sources := []Source{
		{Path: "jobs/scania.md", Markdown: true},
		{Path: "cv.pdf"},
		{},
	}

	for _, in := range inputs {
		for _, src := range sources {
			once, err := Normalise(in, src)
			require.NoError(t, err)
			twice, err := Normalise(once, src)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		}
	}
}

func TestNormalise_UnencodableValue(t *testing.T) {
	fields := map[string]any{"bad": map[string]any{"ch": make(chan int)}}

	_, err := Normalise(fields, Source{Path: "bad.md"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Contains(t, err.Error(), "bad.md")
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestNormalise_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"tags": []any{"a", "b"}}
	_, err := Normalise(in, Source{Path: "x.md"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, in["tags"])
	assert.NotContains(t, in, "doc_id")
}

func TestKeysAndString(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Keys(map[string]any{"c": 1, "a": 2, "b": 3}))
	assert.Equal(t, "0.5", String(0.5))
	assert.Equal(t, "7", String(int64(7)))
	assert.Equal(t, "true", String(true))
}
