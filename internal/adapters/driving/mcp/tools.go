package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
	"github.com/custodia-labs/qpro/internal/logger"
)

// defaultSearchLimit applies when the search tool is called without a limit.
const defaultSearchLimit = 8

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path     string         `json:"path" jsonschema:"absolute path of the file to ingest"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"scalar metadata such as type, company or role"`
}

// IngestTextInput is the input schema for the ingest_text tool.
type IngestTextInput struct {
	Text     string         `json:"text" jsonschema:"text to store, e.g. a pasted job post"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"scalar metadata; title also names the document"`
}

// IngestOutput is the output schema for both ingest tools.
type IngestOutput struct {
	Added      int    `json:"added"`
	DocumentID string `json:"doc_id"`
}

// ComposeDraftInput is the input schema for the compose_draft tool.
type ComposeDraftInput struct {
	JobPost string `json:"job_post" jsonschema:"full text of the job post"`
	TopK    int    `json:"top_k,omitempty" jsonschema:"number of retrieved chunks (default from settings)"`
}

// ATSReportOutput mirrors the ATS keyword report.
type ATSReportOutput struct {
	Covered []string `json:"covered"`
	Missing []string `json:"missing"`
}

// ComposeDraftOutput is the output schema for the compose_draft tool.
type ComposeDraftOutput struct {
	CoverLetterMarkdown string          `json:"cover_letter_markdown"`
	CVBullets           []string        `json:"cv_bullets"`
	ATSReport           ATSReportOutput `json:"ats_report"`
	MissingSections     []string        `json:"missing_sections,omitempty"`
	Partial             bool            `json:"partial"`
	Sources             []string        `json:"sources,omitempty"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find relevant passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 8)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	File       string  `json:"file"`
	Type       string  `json:"type"`
	URI        string  `json:"uri"`
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// registerTools registers the tools whose ports are available.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find passages in stored CVs, applications and job posts relevant to a text",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest a PDF, DOCX, Markdown, HTML, CSV, XLSX or text file",
		}, s.handleIngest)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_text",
			Description: "Ingest a block of text such as a pasted job post",
		}, s.handleIngestText)
	}

	if s.ports.Draft != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "compose_draft",
			Description: "Draft a cover letter, CV bullets and an ATS keyword report for a job post",
		}, s.handleComposeDraft)
	}
}

// traced logs the start and end of a tool call under a request ID.
func traced(tool string) func(err error) {
	id := uuid.NewString()
	start := time.Now()
	logger.Debug("mcp %s [%s] start", tool, id)
	return func(err error) {
		if err != nil {
			logger.Warn("mcp %s [%s] failed after %s: %v", tool, id, time.Since(start), err)
			return
		}
		logger.Debug("mcp %s [%s] done in %s", tool, id, time.Since(start))
	}
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (_ *mcp.CallToolResult, _ IngestOutput, err error) {
	done := traced("ingest")
	defer func() { done(err) }()

	if input.Path == "" {
		return nil, IngestOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	res, err := s.ports.Ingest.IngestFile(ctx, input.Path, input.Metadata)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{Added: res.ChunksAdded, DocumentID: res.DocumentID}, nil
}

func (s *Server) handleIngestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestTextInput,
) (_ *mcp.CallToolResult, _ IngestOutput, err error) {
	done := traced("ingest_text")
	defer func() { done(err) }()

	res, err := s.ports.Ingest.IngestText(ctx, input.Text, input.Metadata)
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{Added: res.ChunksAdded, DocumentID: res.DocumentID}, nil
}

func (s *Server) handleComposeDraft(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ComposeDraftInput,
) (_ *mcp.CallToolResult, _ ComposeDraftOutput, err error) {
	done := traced("compose_draft")
	defer func() { done(err) }()

	draft, err := s.ports.Draft.Compose(ctx, input.JobPost, driving.DraftOptions{TopK: input.TopK})
	if err != nil {
		return nil, ComposeDraftOutput{}, err
	}
	return nil, toDraftOutput(draft), nil
}

func toDraftOutput(d *domain.Draft) ComposeDraftOutput {
	out := ComposeDraftOutput{
		CoverLetterMarkdown: d.CoverLetterMarkdown,
		CVBullets:           nonNil(d.CVBullets),
		ATSReport: ATSReportOutput{
			Covered: nonNil(d.ATS.Covered),
			Missing: nonNil(d.ATS.Missing),
		},
		Partial: d.Partial,
	}
	for _, m := range d.Missing {
		out.MissingSections = append(out.MissingSections, string(m))
	}
	seen := make(map[string]bool)
	for i := range d.Sources {
		name := d.Sources[i].Document.Filename()
		if name != "" && !seen[name] {
			seen[name] = true
			out.Sources = append(out.Sources, name)
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (_ *mcp.CallToolResult, _ SearchOutput, err error) {
	done := traced("search")
	defer func() { done(err) }()

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		r := &results[i]
		output.Results[i] = SearchResultOutput{
			DocumentID: r.Document.ID,
			File:       r.Document.Filename(),
			Type:       r.Document.Type,
			URI:        r.Document.URI,
			Rank:       r.Rank,
			Score:      r.Score,
			Content:    r.Chunk.Content,
		}
	}
	return nil, output, nil
}
