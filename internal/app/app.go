package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ragstack/ragserve/internal/config"
	"github.com/ragstack/ragserve/internal/core"
	db "github.com/ragstack/ragserve/internal/core/database"
	"github.com/ragstack/ragserve/internal/core/embedding"
	"github.com/ragstack/ragserve/internal/core/ingest"
	"github.com/ragstack/ragserve/internal/core/llm"
	"github.com/ragstack/ragserve/internal/core/objectstore"
	"github.com/ragstack/ragserve/internal/core/search"
)

type App struct {
	DBClient core.DbClient
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	kind := core.ProviderKind(strings.ToLower(cfg.EmbeddingProvider))
	embedCfg := embedding.Config{
		Provider:      kind,
		Model:         cfg.EmbeddingModel,
		Timeout:       time.Duration(cfg.EmbedTimeoutSecs) * time.Second,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
	}
	switch kind {
	case core.ProviderOpenAI:
		embedCfg.Dimension = cfg.OpenAIEmbedDim
	default:
		embedCfg.Dimension = cfg.OllamaEmbedDim
	}
	embedder, err := embedding.NewProvider(embedCfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}
	log.Printf("Embedding provider %q ready (dimension %d).", embedder.Kind(), embedder.Dimension())

	// Raw-upload archival is optional; the pipeline runs without it.
	var archive core.ObjectStore
	if cfg.BucketName != "" && cfg.AwsAccessKey != "" {
		archive, err = objectstore.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
	}

	pipeline := ingest.NewPipeline(dbClient, embedder, archive, cfg.BucketName, cfg.ChunkSize, cfg.ChunkOverlap)
	engine := search.NewEngine(dbClient, embedder)

	// Answer synthesis is optional too; without a key the /api/chat route is
	// simply not mounted.
	var llmProvider core.LLMProvider
	if cfg.GeminiAPIKey != "" {
		llmProvider, err = llm.NewGeminiLLM(appCtx, cfg.GeminiAPIKey, cfg.GenModel)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the LLM provider: %w", err)
		}
	}

	server := NewServer(cfg, dbClient, pipeline, engine, llmProvider, embedder.Kind())

	return &App{DBClient: dbClient, Server: server}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
