package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/adapters/driven/search/fulltext"
	"github.com/custodia-labs/qpro/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

// testStores bundles the in-memory adapters the services run against.
type testStores struct {
	docs    *memory.DocumentStore
	search  *fulltext.Engine
	vectors *memory.VectorIndex
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	engine, err := fulltext.New("")
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return &testStores{
		docs:    memory.NewDocumentStore(),
		search:  engine,
		vectors: memory.NewVectorIndex(),
	}
}

// bagEmbedder embeds text as a hashed bag of lowercase words, so texts
// sharing words are similar.
type bagEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

const bagDims = 64

func (e *bagEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return bagVector(text), nil
}

func (e *bagEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func bagVector(text string) []float32 {
	v := make([]float32, bagDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(word, ".,;:!?")))
		v[h.Sum32()%bagDims]++
	}
	return v
}

func (e *bagEmbedder) Dimensions() int              { return bagDims }
func (e *bagEmbedder) ModelName() string            { return "bag" }
func (e *bagEmbedder) Ping(_ context.Context) error { return nil }
func (e *bagEmbedder) Close() error                 { return nil }

// scriptedLLM replays responses in order. A nil error with an empty
// script repeats the last response.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	opts      []driven.GenerateOptions
	block     bool
}

func (l *scriptedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	i := len(l.prompts)
	l.prompts = append(l.prompts, prompt)
	l.opts = append(l.opts, opts)
	block := l.block
	l.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if i < len(l.errs) && l.errs[i] != nil {
		return "", l.errs[i]
	}
	if len(l.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	if i >= len(l.responses) {
		i = len(l.responses) - 1
	}
	return l.responses[i], nil
}

func (l *scriptedLLM) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return l.Generate(ctx, messages[len(messages)-1].Content, driven.GenerateOptions{})
}

func (l *scriptedLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *scriptedLLM) ModelName() string            { return "scripted" }
func (l *scriptedLLM) Ping(_ context.Context) error { return nil }
func (l *scriptedLLM) Close() error                 { return nil }

// mapPrompts serves prompt templates from a map.
type mapPrompts map[string]string

func (m mapPrompts) Load(name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", errors.New("unknown prompt " + name)
}

func (m mapPrompts) Reload() {}
