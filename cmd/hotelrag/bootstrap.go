package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/hotelrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/hotelrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/hotelrag/internal/adapters/driven/records/csv"
	"github.com/custodia-labs/hotelrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/hotelrag/internal/adapters/driven/storage/sqlite"
	vectormemory "github.com/custodia-labs/hotelrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/hotelrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/hotelrag/internal/core/domain"
	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
	"github.com/custodia-labs/hotelrag/internal/core/services"
	"github.com/custodia-labs/hotelrag/internal/logger"
)

// bootstrap wires the driven adapters into the core services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	envFiles := []string{".env"}
	if opts.ConfigDir != "" {
		envFiles = append(envFiles, filepath.Join(opts.ConfigDir, ".env"))
	}
	if loaded, err := file.LoadEnv(envFiles...); err != nil {
		return nil, err
	} else if len(loaded) > 0 {
		logger.Debug("Loaded environment from %v", loaded)
	}

	fileConfig, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var configStore driven.ConfigStore = fileConfig
	if opts.InMemory {
		configStore = memory.NewOverlay(fileConfig)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Misconfigured providers must not block 'settings' from fixing them.
	providers, err := ai.Init(settings, false)
	if err != nil {
		logger.Warn("AI providers unavailable: %v", err)
		providers = &ai.InitResult{}
	}

	store, err := openStore(opts)
	if err != nil {
		providers.Close()
		return nil, err
	}

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		store.Close()
		providers.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	embedder := services.NewEmbeddingClient(providers.EmbeddingService,
		services.EmbeddingClientConfigFrom(settings.Resilience))
	composer := services.NewComposer(providers.LLMService,
		services.ComposerConfigFrom(settings.Composer, settings.Resilience))
	composer.SetPromptStore(prompts)

	history := services.NewHistoryLog(store.history)
	if err := history.Hydrate(ctx); err != nil {
		logger.Warn("Query history not restored: %v", err)
	}

	rag := services.NewRAGService(embedder, vectormemory.Factory(), composer, history,
		services.RAGConfigFrom(settings.Retrieval))
	rag.SetIndexStore(store.index)
	if err := rag.LoadIndex(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Stored index not loaded: %v", err)
	}

	recordsPath := opts.RecordsPath
	if recordsPath == "" {
		recordsPath = settings.Data.RecordsPath
	}
	source := csv.NewSource(recordsPath)
	analytics := services.NewAnalyticsService(source)

	return &cli.Services{
		RAG:       rag,
		Analytics: analytics,
		Settings:  settingsService,
		Builder:   services.NewIndexBuilder(rag, source, analytics),
		Close: func() error {
			providers.Close()
			return errors.Join(rag.Close(), store.Close())
		},
	}, nil
}

// stores holds the index and history persistence chosen for a run.
type stores struct {
	index   driven.IndexStore
	history driven.HistoryStore
	close   func() error
}

func (s *stores) Close() error {
	return s.close()
}

func openStore(opts cli.Options) (*stores, error) {
	if opts.InMemory {
		logger.Debug("Using in-memory index and history stores")
		return &stores{
			index:   memory.NewIndexStore(),
			history: memory.NewHistoryStore(),
			close:   func() error { return nil },
		}, nil
	}

	db, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("Using SQLite store at %s", db.Path())
	return &stores{
		index:   db.IndexStore(),
		history: db.HistoryStore(),
		close:   db.Close,
	}, nil
}
