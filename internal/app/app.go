// Package app wires configuration, storage, and services into a
// runnable application.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
	"github.com/ternarybob/concordia/internal/interfaces"
	"github.com/ternarybob/concordia/internal/models"
	"github.com/ternarybob/concordia/internal/services/alignment"
	"github.com/ternarybob/concordia/internal/services/chat"
	"github.com/ternarybob/concordia/internal/services/documents"
	"github.com/ternarybob/concordia/internal/services/embeddings"
	"github.com/ternarybob/concordia/internal/services/entities"
	"github.com/ternarybob/concordia/internal/services/fusion"
	"github.com/ternarybob/concordia/internal/services/insights"
	"github.com/ternarybob/concordia/internal/services/llm"
	"github.com/ternarybob/concordia/internal/services/pipeline"
	"github.com/ternarybob/concordia/internal/services/report"
	badgerstore "github.com/ternarybob/concordia/internal/storage/badger"
)

// App holds the wired application services
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Storage  *badgerstore.Manager
	LLM      interfaces.LLMService
	Embedder interfaces.EmbeddingService
	Loader   *documents.Loader
	Pipeline *pipeline.Pipeline
	Chat     *chat.Service
	Report   *report.Generator
}

// New wires the application. Configuration and credentials are resolved
// up front: a misconfigured app never reaches the analysis stage.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	llmService, err := llm.NewService(config, storage.KeyValueStorage(), logger)
	if err != nil {
		storage.Close()
		return nil, err
	}

	embedder, err := embeddings.NewService(llmService, &config.Embedding, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}

	// The LLM recognizer and generator only participate in llm_based
	// mode; rule_based runs stay fully deterministic and offline apart
	// from embeddings.
	var recognizer interfaces.EntityRecognizer
	var generator, fallback interfaces.InsightGenerator
	ruleBased := insights.NewRuleBasedGenerator(logger)
	if config.LLM.Insights == "llm_based" {
		recognizer = entities.NewLLMRecognizer(llmService, logger)
		generator = insights.NewLLMBasedGenerator(llmService, logger)
		fallback = ruleBased
	} else {
		generator = ruleBased
	}

	engine, err := fusion.NewEngine(&config.Analysis, generator, fallback, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}

	p := pipeline.NewPipeline(
		entities.NewExtractor(recognizer, logger),
		entities.NewMatcher(&config.Analysis, logger),
		alignment.NewAligner(embedder, &config.Analysis, logger),
		engine,
		storage.ResultStorage(),
		&config.Analysis,
		logger,
	)

	return &App{
		Config:   config,
		Logger:   logger,
		Storage:  storage,
		LLM:      llmService,
		Embedder: embedder,
		Loader:   documents.NewLoader(logger),
		Pipeline: p,
		Chat:     chat.NewService(embedder, llmService, logger),
		Report:   report.NewGenerator(&config.Report, logger),
	}, nil
}

// Analyze loads both documents and runs the full pipeline
func (a *App) Analyze(ctx context.Context, strategicPath, actionPath string, opts pipeline.RunOptions) (*models.FinalSynchronizationResult, error) {
	strategic, err := a.Loader.Load(strategicPath, models.DocumentTypeStrategic)
	if err != nil {
		return nil, err
	}

	action, err := a.Loader.Load(actionPath, models.DocumentTypeAction)
	if err != nil {
		return nil, err
	}

	return a.Pipeline.Run(ctx, strategic, action, opts)
}

// Ask answers a question against the latest stored result
func (a *App) Ask(ctx context.Context, question string) (string, error) {
	result, err := a.Storage.ResultStorage().GetLatestResult()
	if err != nil {
		return "", fmt.Errorf("no analysis result available yet: %w", err)
	}
	return a.Chat.Ask(ctx, question, result, nil, nil)
}

// Close releases all held resources
func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}
