package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cmp-dialogue/internal/ai"
	"cmp-dialogue/internal/app"
	"cmp-dialogue/internal/cache"
	"cmp-dialogue/internal/chain"
	"cmp-dialogue/internal/config"
	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/model"
	postgresClient "cmp-dialogue/internal/platform/postgres"
	rabbitmqClient "cmp-dialogue/internal/platform/rabbitmq"
	redisClient "cmp-dialogue/internal/platform/redis"
	"cmp-dialogue/internal/ratelimit"
	"cmp-dialogue/internal/retry"
	"cmp-dialogue/internal/search"
	"cmp-dialogue/internal/summarize"
	"cmp-dialogue/internal/vectorstore"
	"cmp-dialogue/internal/worker"
)

type App struct {
	Config   *config.Config
	Logger   logger.Logger
	Postgres *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection

	Limiter        ratelimit.Limiter
	Dialogue       *app.DialogueService
	Sources        *app.SourceService
	DocumentWorker *worker.DocumentPersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log := logger.New(logger.Options{
		FilePath:   cfg.Log.FilePath,
		Level:      cfg.Log.Level,
		Production: cfg.App.Env == "prod",
	})

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := postgresClient.New(ctx, cfg.Postgres.URL, postgresClient.Shared)
	if err != nil {
		return err
	}
	a.Postgres = db
	if err := postgresClient.Migrate(ctx, db, &model.Document{}); err != nil {
		return err
	}

	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.Limiter = ratelimit.NewRedisLimiter(a.Redis)
	} else {
		a.Logger.Warn("bootstrap", "redis not configured, using in-memory rate limiter", nil)
		a.Limiter = ratelimit.NewMemoryLimiter()
	}

	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
	}

	policy := retry.Policy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.Retry.BaseDelay(),
		MaxDelay:       cfg.Retry.MaxDelay(),
		AttemptTimeout: cfg.Retry.AttemptTimeout(),
		Logger:         a.Logger,
	}

	llmClient := ai.NewOpenAICompatibleClient(time.Duration(cfg.LLM.TimeoutSeconds) * time.Second)
	chains, err := chain.NewRegistry(llmClient, ai.ChatConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	}, policy, map[chain.Handle]string{
		chain.Professor:     cfg.Dialogue.ProfessorTemplate,
		chain.Student:       cfg.Dialogue.StudentTemplate,
		chain.LinkGenerator: cfg.Dialogue.LinkGeneratorTemplate,
	})
	if err != nil {
		return err
	}

	embedder := vectorstore.NewRetryingEmbedder(llmClient, ai.EmbeddingConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
	}, policy)
	store := vectorstore.New(vectorstore.PostgresConnector(cfg.Postgres.URL), embedder, vectorstore.Options{
		Collection: cfg.Postgres.Collection,
		TopK:       cfg.Postgres.TopK,
		Dimensions: cfg.Embedding.Dimensions,
		Policy:     policy,
		Logger:     a.Logger,
	})

	var persister app.Persister = store
	if a.MQConn != nil {
		a.DocumentWorker = worker.NewDocumentPersistWorker(a.MQConn, store, cfg.RabbitMQ.DocumentPersistQueue, a.Logger)
		if err := a.DocumentWorker.Start(ctx); err != nil {
			return fmt.Errorf("start document worker failed: %w", err)
		}
		if cfg.Dialogue.PersistMode == config.PersistQueue {
			publisher := rabbitmqClient.NewDocumentPublisher(a.MQConn, cfg.RabbitMQ.DocumentPersistQueue)
			persister = app.PersistFunc(publisher.Publish)
		}
	}

	summarizer := summarize.NewSummarizer()
	a.Dialogue = app.NewDialogueService(store, chains, persister, summarizer, app.DialogueOptions{
		SaveToStore:      cfg.Dialogue.SaveToVectorStore,
		BrandInstruction: cfg.Dialogue.BrandInstruction,
		SummarySentences: cfg.Dialogue.SummarySentences,
		Logger:           a.Logger,
	})

	searchTimeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	var searcher search.Searcher = search.NewDuckDuckGo(searchTimeout, search.DuckDuckGoOptions{
		Endpoint:  cfg.Search.Endpoint,
		UserAgent: cfg.Search.UserAgent,
		Pacer:     search.NewPacer(time.Second),
		Policy:    policy,
		Logger:    a.Logger,
	})
	if a.Redis != nil {
		ttl := time.Duration(cfg.Redis.SearchCacheTTLSeconds) * time.Second
		searcher = search.NewCachedSearcher(searcher, cache.NewSearchCache(a.Redis, ttl), a.Logger)
	}
	fetcher := search.NewFetcher(searchTimeout, search.FetcherOptions{
		UserAgent: cfg.Search.UserAgent,
		Workers:   cfg.Search.FetchWorkers,
		Policy:    policy,
		Logger:    a.Logger,
	})
	a.Sources = app.NewSourceService(searcher, fetcher, chains, summarizer, a.Logger)

	a.Logger.Info("bootstrap", "application initialised", map[string]interface{}{
		"persist_mode": cfg.Dialogue.PersistMode,
		"save":         cfg.Dialogue.SaveToVectorStore,
		"redis":        a.Redis != nil,
		"rabbitmq":     a.MQConn != nil,
	})
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.DocumentWorker != nil {
		a.DocumentWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		if err := postgresClient.Close(a.Postgres); err != nil {
			closeErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
