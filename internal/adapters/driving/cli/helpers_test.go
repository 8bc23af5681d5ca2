package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/qpro/internal/core/domain"
	"github.com/custodia-labs/qpro/internal/core/ports/driving"
)

type mockIngestService struct {
	fileCalls  []string
	lastMeta   map[string]any
	lastText   string
	dirCalls   []driving.BulkOptions
	dirRoots   []string
	watchRoot  string
	fileErr    error
	dirResult  domain.BulkResult
	dirErr     error
	watchErr   error
	failOnFile string
}

func (m *mockIngestService) IngestFile(_ context.Context, path string, meta map[string]any) (domain.IngestResult, error) {
	m.fileCalls = append(m.fileCalls, path)
	m.lastMeta = meta
	if m.fileErr != nil {
		return domain.IngestResult{}, m.fileErr
	}
	return domain.IngestResult{DocumentID: "cv.pdf", ChunksAdded: 3}, nil
}

func (m *mockIngestService) IngestText(_ context.Context, text string, meta map[string]any) (domain.IngestResult, error) {
	m.lastText = text
	m.lastMeta = meta
	if m.fileErr != nil {
		return domain.IngestResult{}, m.fileErr
	}
	return domain.IngestResult{DocumentID: "manual-1", ChunksAdded: 1}, nil
}

func (m *mockIngestService) IngestDirectory(_ context.Context, root string, opts driving.BulkOptions) (domain.BulkResult, error) {
	m.dirRoots = append(m.dirRoots, root)
	m.dirCalls = append(m.dirCalls, opts)
	if opts.OnFile != nil {
		opts.OnFile(root+"/a.md", domain.IngestResult{DocumentID: "a.md", ChunksAdded: 2}, nil)
		if m.failOnFile != "" {
			opts.OnFile(root+"/"+m.failOnFile, domain.IngestResult{}, domain.NewValidation(m.failOnFile, nil))
		}
	}
	return m.dirResult, m.dirErr
}

func (m *mockIngestService) Watch(_ context.Context, root string, _ driving.BulkOptions) error {
	m.watchRoot = root
	return m.watchErr
}

type mockDraftService struct {
	draft    *domain.Draft
	err      error
	jobPost  string
	opts     driving.DraftOptions
	deadline bool
}

func (m *mockDraftService) Compose(ctx context.Context, jobPost string, opts driving.DraftOptions) (*domain.Draft, error) {
	m.jobPost = jobPost
	m.opts = opts
	_, m.deadline = ctx.Deadline()
	return m.draft, m.err
}

type mockRetrievalService struct {
	results []domain.RetrievedChunk
	err     error
	query   string
	k       int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, k int) ([]domain.RetrievedChunk, error) {
	m.query = query
	m.k = k
	return m.results, m.err
}

type mockDocumentService struct {
	docs       []domain.Document
	content    string
	err        error
	collection string
	deleted    string
	opened     string
}

func (m *mockDocumentService) List(_ context.Context, collection string) ([]domain.Document, error) {
	m.collection = collection
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.NewNotFound(id)
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, id string) (*driving.DocumentDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &driving.DocumentDetails{
		ID:         id,
		Collection: "default",
		Type:       domain.TypeApplication,
		Title:      "Acme application",
		URI:        "/home/me/apps/acme.md",
		ChunkCount: 4,
		CreatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Metadata:   map[string]string{"company": "Acme", "role": "Backend Engineer"},
	}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockDocumentService) Open(_ context.Context, id string) error {
	m.opened = id
	return m.err
}

type mockSettingsService struct {
	settings    domain.AppSettings
	getErr      error
	validateErr error
	saved       *domain.PipelineSettings
	embedding   []string
	llm         []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetPipeline(p domain.PipelineSettings) error {
	m.saved = &p
	return nil
}

func (m *mockSettingsService) Validate() error                 { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return m.validateErr }
func (m *mockSettingsService) ValidateLLMConfig() error        { return m.validateErr }

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	ingest    *mockIngestService
	draft     *mockDraftService
	retrieval *mockRetrievalService
	document  *mockDocumentService
	settings  *mockSettingsService
}

func sampleDocs() []domain.Document {
	return []domain.Document{
		{
			ID:       "cv.pdf",
			Type:     domain.TypeFile,
			Title:    "cv",
			URI:      "/home/me/cv.pdf",
			Metadata: map[string]any{domain.MetaFilename: "cv.pdf"},
		},
		{
			ID:       "acme-2025",
			Type:     domain.TypeApplication,
			Title:    "Acme application",
			URI:      "/home/me/apps/acme.md",
			Metadata: map[string]any{domain.MetaFilename: "acme.md"},
		},
	}
}

// setupTestServices installs fresh mocks and resets flags. The returned
// function restores an empty service set.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest:    &mockIngestService{},
		draft:     &mockDraftService{},
		retrieval: &mockRetrievalService{},
		document:  &mockDocumentService{docs: sampleDocs(), content: "Led the payments migration."},
		settings:  &mockSettingsService{settings: domain.DefaultAppSettings()},
	}
	resetFlags()
	SetServices(&Services{
		Ingest:    ts.ingest,
		Draft:     ts.draft,
		Document:  ts.document,
		Retrieval: ts.retrieval,
		Settings:  ts.settings,
	})
	return ts, func() {
		resetFlags()
		SetServices(nil)
		services = nil
	}
}

// setupNoServices installs an empty service set so commands report
// missing services instead of bootstrapping.
func setupNoServices() func() {
	resetFlags()
	SetServices(&Services{})
	return func() {
		SetServices(nil)
		services = nil
	}
}

// resetFlags restores every package flag variable and clears cobra's
// changed markers so tests do not leak into each other.
func resetFlags() {
	ingestType, ingestDocID, ingestTitle = "", "", ""
	ingestMeta = nil
	bulkJobPosts, bulkApplications, bulkWorkers = "", "", 0
	draftJSON, draftTopK, draftTimeout = false, 0, 0
	searchLimit, searchJSON = 8, false
	documentCollection = ""
	mcpPort = 0
	verbose = false
	versionShort = false
	dataDir = ""

	var unmark func(*cobra.Command)
	unmark = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			unmark(sub)
		}
	}
	unmark(rootCmd)
	settingsPipelineCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// run executes the root command with args and returns combined output.
func run(args ...string) (string, error) {
	return runWithInput("", args...)
}

func runWithInput(stdin string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// captureOutput runs fn against a throwaway command and returns what it printed.
func captureOutput(fn func(*cobra.Command) error) (string, error) {
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	err := fn(cmd)
	return buf.String(), err
}
