package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/citeqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/citeqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/citeqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/citeqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/citeqa/internal/connectors/filesystem"
	"github.com/custodia-labs/citeqa/internal/core/ports/driven"
	"github.com/custodia-labs/citeqa/internal/core/services"
	"github.com/custodia-labs/citeqa/internal/logger"
	"github.com/custodia-labs/citeqa/internal/normalisers"
	"github.com/custodia-labs/citeqa/internal/postprocessors"
)

// wire builds every service from the config directory. The returned
// cleanup closes the AI clients and the database.
func wire(_ context.Context, opts cli.BootstrapOptions) (*cli.Services, func() error, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		configDir = dir
	}

	if err := file.LoadDotEnv(configDir); err != nil {
		return nil, nil, err
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, err
	}
	if opts.TopK > 0 {
		settings.Retrieval.TopK = opts.TopK
	}

	logger.Section("Bootstrap")
	logger.Debug("Config directory: %s", configDir)

	aiResult := ai.Init(settings)

	store, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		aiResult.Close()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	files := filesystem.New()
	vectors := store.VectorStore()

	ingestion := services.NewIngestionService(
		vectors,
		aiResult.EmbeddingService,
		files,
		normalisers.DefaultRegistry(),
		postprocessors.NewChunker(settings.Ingestion),
		services.IngestionConfig{
			Extensions:  settings.Ingestion.Extensions,
			BatchSize:   settings.Ingestion.BatchSize,
			Concurrency: settings.Ingestion.Concurrency,
		},
	)
	retrieval := services.NewRetrievalService(vectors, aiResult.EmbeddingService, settings.Retrieval.TopK)
	prompts := services.NewPromptService(store.PromptStore())
	query := services.NewQueryService(retrieval, prompts, aiResult.LLMService, services.SynthesisConfig{
		TopK:           settings.Retrieval.TopK,
		MaxPromptChars: settings.Synthesis.MaxPromptChars,
		FallbackURL:    settings.Synthesis.FallbackURL,
		Context:        services.ContextOptionsFromSettings(settings.Context),
		Generate: driven.GenerateOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		},
	})

	svc := &cli.Services{
		Settings:        settings,
		SettingsService: settingsService,
		Ingestion:       ingestion,
		Retrieval:       retrieval,
		Query:           query,
		Chat:            services.NewChatService(store.HistoryStore(), query),
		Prompts:         prompts,
		Health:          services.NewHealthService(settings, ai.NewConfigValidator(), vectors),
		Watch:           services.NewWatcher(files, ingestion, ingestion.Extensions(), 0),
	}

	cleanup := func() error {
		aiResult.Close()
		return store.Close()
	}
	return svc, cleanup, nil
}
