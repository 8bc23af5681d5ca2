package cli

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	for key, want := range map[string]string{
		"":                                    "****",
		"abc123":                              "****",
		"12345678":                            "****",
		"sk-1234567890abcdef":                 "sk-1...cdef",
		"sk-ant-REDACTED": "sk-a...qpro",
	} {
		assert.Equal(t, want, maskAPIKey(key), "key %q", key)
	}
}

func TestParseChoice(t *testing.T) {
	// Four options, default 2.
	for in, want := range map[string]int{
		"":    2,
		"1":   1,
		"4":   4,
		"3":   3,
		"0":   2,
		"5":   2,
		"-2":  2,
		"two": 2,
		" ":   2,
	} {
		assert.Equal(t, want, parseChoice(in, 4, 2), "input %q", in)
	}
}

func TestSettingsShow_Defaults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("settings", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Provider: Ollama on this machine")
	assert.Contains(t, out, "Model: nomic-embed-text")
	assert.Contains(t, out, "Model: llama3:8b")
	assert.Contains(t, out, "Base URL: http://localhost:11434")
	assert.Contains(t, out, "Chunk size: 900")
	assert.Contains(t, out, "Top K: 8")
	assert.Contains(t, out, "Timeout: 2m0s")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_MasksKeyAndWarns(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM = domain.LLMSettings{
		Provider: domain.AIProviderAnthropic,
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "sk-ant-1234567890",
	}
	ts.settings.validateErr = errors.New("embedding: API key required")

	out, err := run("settings")
	require.NoError(t, err)

	assert.Contains(t, out, "API Key: sk-a...7890")
	assert.NotContains(t, out, "sk-ant-1234567890")
	assert.Contains(t, out, "Warning: embedding: API key required")
}

func TestSettingsShow_UnsetKeyNamesEnv(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM = domain.LLMSettings{Provider: domain.AIProviderGemini, Model: "gemini-1.5-flash"}

	out, err := run("settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "GEMINI_API_KEY")
	assert.Contains(t, out, "Status: not configured")
}

func TestSettingsShow_GetError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.getErr = errors.New("bad toml")

	_, err := run("settings", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad toml")
}

func TestSettingsPipeline_OnlyChangedFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := run("settings", "pipeline", "--top-k", "5", "--similarity-floor", "0.3")
	require.NoError(t, err)

	require.NotNil(t, ts.settings.saved)
	assert.Equal(t, 5, ts.settings.saved.TopK)
	assert.InDelta(t, 0.3, ts.settings.saved.SimilarityFloor, 1e-9)
	assert.Equal(t, domain.DefaultChunkSize, ts.settings.saved.ChunkSize)
	assert.Equal(t, domain.DefaultOverlap, ts.settings.saved.Overlap)
	assert.Contains(t, out, "top-k 5")
}

func TestSettingsEmbedding_Interactive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := runWithInput("2\n\nsk-test-key\n", "settings", "embedding")
	require.NoError(t, err)

	assert.Equal(t, []string{"openai", "text-embedding-3-small", "sk-test-key"}, ts.settings.embedding)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "Embedding provider configured: OpenAI API (text-embedding-3-small)")
}

func TestSettingsLLM_DefaultChoiceSkipsKey(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := runWithInput("\nllama3:70b\n", "settings", "llm")
	require.NoError(t, err)
	assert.Equal(t, []string{"ollama", "llama3:70b", ""}, ts.settings.llm)
}

func TestSettingsLLM_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("model not found")

	out, err := runWithInput("\n\n", "settings", "llm")
	require.Error(t, err)
	assert.Contains(t, out, "FAILED: model not found")
}

func TestOverlayPipeline(t *testing.T) {
	flags := pflag.NewFlagSet("pipeline", pflag.ContinueOnError)
	flags.Int("chunk-size", 0, "")
	flags.Int("overlap", 0, "")
	flags.Int("top-k", 0, "")
	flags.Float64("similarity-floor", 0, "")
	require.NoError(t, flags.Parse([]string{"--overlap", "0", "--similarity-floor", "0.3"}))

	p := domain.PipelineSettings{ChunkSize: 900, Overlap: 150, TopK: 8}
	require.NoError(t, overlayPipeline(flags, &p))

	assert.Equal(t, 900, p.ChunkSize)
	assert.Equal(t, 0, p.Overlap)
	assert.Equal(t, 8, p.TopK)
	assert.InDelta(t, 0.3, p.SimilarityFloor, 1e-9)
}
