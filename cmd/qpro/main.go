// Command qpro ingests career documents and drafts applications from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/qpro/internal/adapters/driven/ai"
	"github.com/custodia-labs/qpro/internal/adapters/driven/config/file"
	"github.com/custodia-labs/qpro/internal/adapters/driven/embedding"
	"github.com/custodia-labs/qpro/internal/adapters/driven/search/fulltext"
	"github.com/custodia-labs/qpro/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/qpro/internal/adapters/driving/cli"
	"github.com/custodia-labs/qpro/internal/connectors/filesystem"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
	"github.com/custodia-labs/qpro/internal/core/services"
	"github.com/custodia-labs/qpro/internal/logger"
	"github.com/custodia-labs/qpro/internal/normalisers"
	"github.com/custodia-labs/qpro/internal/postprocessors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// keywordIndexDir is the bleve index directory inside the data directory.
const keywordIndexDir = "keyword.bleve"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}

// bootstrap opens the stores under dataDir and wires the core services.
func bootstrap(_ context.Context, dataDir string) (*cli.Services, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".qpro")
	}
	// Keys kept next to the data take effect without touching the shell.
	_ = godotenv.Load(filepath.Join(dataDir, ".env"))

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(filepath.Join(dataDir, "data"))
	if err != nil {
		return nil, err
	}
	keyword, err := fulltext.New(filepath.Join(dataDir, "data", keywordIndexDir))
	if err != nil {
		store.Close()
		return nil, err
	}

	pipeline, err := postprocessors.BuildPipeline(settings.Pipeline)
	if err != nil {
		keyword.Close()
		store.Close()
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	aiServices := ai.Init(settings)
	for _, w := range aiServices.Warnings {
		logger.Warn("%s", w)
	}

	var embedder driven.EmbeddingService
	if aiServices.EmbeddingService != nil {
		embedder = embedding.NewRateLimited(aiServices.EmbeddingService, settings.Embedding.Provider)
	}

	docStore := store.DocumentStore()
	vectors := store.VectorIndex()

	ingest := services.NewIngestService(normalisers.NewDefaultRegistry(), pipeline, docStore, keyword, vectors, embedder)
	ingest.SetSourceFactory(func(root string) driven.DocumentSource {
		return filesystem.New(root, "")
	})

	documents := services.NewDocumentService(docStore, keyword, vectors)
	documents.SetPathResolver(filesystem.LocalPath)

	retrieval := services.NewRetrievalService(docStore, keyword, vectors, embedder, settings.Pipeline)
	draft := services.NewDraftService(retrieval, aiServices.LLMService, prompts, keyword, settings.Pipeline, settings.Generation)

	return &cli.Services{
		Ingest:    ingest,
		Draft:     draft,
		Document:  documents,
		Retrieval: retrieval,
		Settings:  settingsService,
		Close: func() error {
			aiServices.Close()
			return errors.Join(keyword.Close(), store.Close())
		},
	}, nil
}
