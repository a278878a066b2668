// Package bootstrap wires configuration, storage and providers into the
// services shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"carekorea/internal/adapter/repo"
	"carekorea/internal/cache"
	"carekorea/internal/content"
	"carekorea/internal/domain"
	"carekorea/internal/infra"
	"carekorea/internal/infra/credentials"
	"carekorea/internal/pipeline"
	gemini "carekorea/internal/providers/genai"
	"carekorea/internal/providers/image"
	"carekorea/internal/providers/llm"
	"carekorea/internal/providers/prompt"
	"carekorea/internal/providers/retrieval"
	"carekorea/internal/queue"
	"carekorea/internal/storage"
)

const retrievalCacheEntries = 512

// Services holds everything a binary needs after startup.
type Services struct {
	Config       *infra.Config
	Logger       zerolog.Logger
	Pool         *pgxpool.Pool
	Keywords     domain.KeywordRepository
	Jobs         domain.JobRepository
	Orchestrator *pipeline.Orchestrator
	Worker       *queue.Worker
	StoragePath  string
}

// Build connects to the database and constructs the pipeline and queue.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Services, error) {
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := build(ctx, cfg, logger, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return svc, nil
}

func build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*Services, error) {
	runner := infra.NewSQLRunner(pool, infra.Component(logger, "sql"))
	creds := credentials.NewStore(runner)
	keys := resolveKeys(ctx, cfg, creds, logger)

	storagePath := cfg.StoragePath
	if abs, err := filepath.Abs(storagePath); err == nil {
		storagePath = abs
	}
	files, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		return nil, err
	}

	llmClient, err := llm.New(ctx, llm.Config{
		Provider:        cfg.LLMProvider,
		Model:           cfg.LLMModel,
		OpenAIAPIKey:    keys.openai,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		AnthropicAPIKey: keys.anthropic,
		GeminiAPIKey:    keys.gemini,
	}, infra.Component(logger, "llm"))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	var assembler pipeline.ImageAssembler
	gen, err := image.New(ctx, image.Config{
		Provider:      cfg.ImageProvider,
		Model:         cfg.ImageModel,
		OpenAIAPIKey:  keys.openai,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiAPIKey:  keys.gemini,
	}, files)
	if err != nil {
		logger.Warn().Err(err).Str("provider", cfg.ImageProvider).Msg("image provider unavailable, posts will be generated without images")
	} else {
		assembler, err = content.NewAssembler(content.AssemblerOptions{
			Generator:   gen,
			Defaults:    content.ImageDefaults{Size: cfg.ImageSize, Quality: cfg.ImageQuality, Style: cfg.ImageStyle},
			Concurrency: cfg.ImageConcurrency,
			Timeout:     cfg.ImageTimeout,
			Logger:      infra.Component(logger, "images"),
		})
		if err != nil {
			return nil, err
		}
	}

	keywords := repo.NewKeywordRepository(runner)
	orch, err := pipeline.NewOrchestrator(pipeline.Options{
		Keywords:        keywords,
		Posts:           repo.NewPostRepository(runner),
		Personas:        prompt.NewPersonaSelector(repo.NewPersonaRepository(runner), infra.Component(logger, "persona")),
		Retrieval:       newRetrieval(ctx, cfg, keys.gemini, runner, logger),
		LLM:             llmClient,
		Images:          assembler,
		LLMTimeout:      cfg.LLMTimeout,
		MaxOutputTokens: cfg.LLMMaxOutputTokens,
		Temperature:     cfg.LLMTemperature,
		RetrievalTopK:   cfg.RetrievalTopK,
		MaxFailures:     cfg.KeywordMaxFailures,
		Logger:          infra.Component(logger, "pipeline"),
	})
	if err != nil {
		return nil, err
	}

	jobs := repo.NewJobRepository(runner)
	worker := queue.NewWorker(jobs, orch, infra.Component(logger, "queue"))
	logger.Info().
		Str("llm", llmClient.Name()).
		Str("image", cfg.ImageProvider).
		Bool("images", assembler != nil).
		Msg("services ready")

	return &Services{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		Keywords:     keywords,
		Jobs:         jobs,
		Orchestrator: orch,
		Worker:       worker,
		StoragePath:  storagePath,
	}, nil
}

// Close releases the database pool.
func (s *Services) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

type apiKeys struct {
	openai, anthropic, gemini string
}

// resolveKeys prefers environment keys and falls back to provider_keys.
func resolveKeys(ctx context.Context, cfg *infra.Config, creds *credentials.Store, logger zerolog.Logger) apiKeys {
	var keys apiKeys
	for _, k := range []struct {
		provider string
		env      string
		dst      *string
	}{
		{credentials.ProviderOpenAI, cfg.OpenAIAPIKey, &keys.openai},
		{credentials.ProviderAnthropic, cfg.AnthropicAPIKey, &keys.anthropic},
		{credentials.ProviderGemini, cfg.GeminiAPIKey, &keys.gemini},
	} {
		key, err := creds.Resolve(ctx, k.provider, k.env)
		if err != nil {
			logger.Warn().Err(err).Str("provider", k.provider).Msg("stored api key unavailable")
		}
		*k.dst = key
	}
	return keys
}

// newRetrieval returns the cached vector provider, or Disabled when retrieval
// is switched off or cannot embed.
func newRetrieval(ctx context.Context, cfg *infra.Config, geminiKey string, sql infra.SQLExecutor, logger zerolog.Logger) retrieval.Provider {
	if !cfg.RetrievalEnabled {
		return retrieval.Disabled{}
	}
	if strings.TrimSpace(geminiKey) == "" {
		logger.Warn().Msg("retrieval disabled: no gemini api key for embeddings")
		return retrieval.Disabled{}
	}
	client, err := gemini.NewClient(ctx, gemini.Options{APIKey: geminiKey})
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval disabled")
		return retrieval.Disabled{}
	}
	embedder, err := retrieval.NewGeminiEmbedder(client, cfg.EmbeddingModel)
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval disabled")
		return retrieval.Disabled{}
	}
	vector, err := retrieval.NewVectorProvider(embedder, repo.NewSnippetRepository(sql))
	if err != nil {
		logger.Warn().Err(err).Msg("retrieval disabled")
		return retrieval.Disabled{}
	}
	return retrieval.NewCached(vector, cache.NewTTL[string, []domain.Snippet](cfg.RetrievalCacheTTL, retrievalCacheEntries, nil))
}
