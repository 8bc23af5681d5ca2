package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qpro/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored documents",
	Long: `Retrieves the chunks most relevant to a query, combining keyword
(BM25) and semantic (vector) ranking with reciprocal rank fusion.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 8, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.Retrieve(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return err
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

// searchHit is the JSON shape of one retrieved chunk.
type searchHit struct {
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"doc_id"`
	File       string  `json:"file"`
	Type       string  `json:"type"`
	ChunkID    string  `json:"chunk_id"`
	Content    string  `json:"content"`
}

func toSearchHits(results []domain.RetrievedChunk) []searchHit {
	hits := make([]searchHit, len(results))
	for i := range results {
		r := &results[i]
		hits[i] = searchHit{
			Rank:       r.Rank,
			Score:      r.Score,
			DocumentID: r.Document.ID,
			File:       r.Document.Filename(),
			Type:       r.Document.Type,
			ChunkID:    r.Chunk.ID,
			Content:    r.Chunk.Content,
		}
	}
	return hits
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	data, err := json.MarshalIndent(toSearchHits(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		r := &results[i]
		title := r.Document.Filename()
		if title == "" {
			title = r.Document.ID
		}
		cmd.Printf("  [%d] %s (%.4f)\n", r.Rank, title, r.Score)
		cmd.Printf("      %s\n\n", snippet(r.Chunk.Content, 160))
	}
}

// snippet flattens whitespace and truncates to n runes.
func snippet(text string, n int) string {
	flat := []rune(strings.Join(strings.Fields(text), " "))
	if len(flat) <= n {
		return string(flat)
	}
	return string(flat[:n]) + "..."
}
