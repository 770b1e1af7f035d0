// Package bootstrap wires configuration, adapters, and services together.
package bootstrap

import (
	"context"
	"time"

	"github.com/belikedeep/feedbacksense/adapter/out/classifier"
	"github.com/belikedeep/feedbacksense/adapter/out/mongodb"
	"github.com/belikedeep/feedbacksense/adapter/out/persistence"
	"github.com/belikedeep/feedbacksense/config"
	"github.com/belikedeep/feedbacksense/core/agent/llm"
	"github.com/belikedeep/feedbacksense/core/port/out"
	"github.com/belikedeep/feedbacksense/core/service/classification"
	"github.com/belikedeep/feedbacksense/core/service/performance"
	"github.com/belikedeep/feedbacksense/infra/database"
	"github.com/belikedeep/feedbacksense/pkg/cache"
	"github.com/belikedeep/feedbacksense/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Outbound adapters
	FeedbackRepo   out.FeedbackRepository
	HistoryArchive out.HistoryArchive
	LedgerStore    out.LedgerStore
	ResultCache    out.ResultCache
	Classifier     out.ClassificationClient

	// Agent
	LLMClient *llm.Client

	// Services
	HistoryTracker     *classification.HistoryTracker
	PerformanceTracker *performance.Tracker
	AnalysisService    *classification.Service
}

// NewDependencies builds the full dependency graph. Postgres is required;
// Redis, MongoDB, and the OpenAI key are optional and degrade the pipeline
// gracefully when absent.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the feedback adapter)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	deps.FeedbackRepo = persistence.NewFeedbackAdapter(sqlDB)
	deps.LedgerStore = persistence.NewLedgerSnapshotAdapter(db)

	// Redis (optional; absence disables result caching)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, result caching disabled: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
			deps.ResultCache = cache.NewRedisCache(redisClient)
			logger.Info("Result cache (Redis) initialized")
		}
	}

	// MongoDB (optional; absence disables unbounded history archiving)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			logger.Warn("MongoDB connection failed, history archiving disabled: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			archive := mongodb.NewHistoryArchiveAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := archive.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure archive indexes: %v", err)
			}
			deps.HistoryArchive = archive
			logger.Info("History archive (MongoDB) initialized")
		}
	}

	// LLM client (optional; absence routes every call to the heuristic analyzer)
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		})
		logger.Info("LLM client initialized (model: %s)", cfg.LLMModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, classification runs on the heuristic analyzer only")
	}

	deps.Classifier = classifier.NewOpenAIAdapter(deps.LLMClient, deps.ResultCache, classifier.Config{
		CallTimeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
		Retry: classifier.RetryPolicy{
			MaxAttempts: cfg.LLMMaxRetries,
			BaseDelay:   time.Duration(cfg.LLMRetryBaseMS) * time.Millisecond,
		},
		CacheTTL: time.Duration(cfg.CacheResultTTLMin) * time.Minute,
	})

	deps.HistoryTracker = classification.NewHistoryTracker(deps.HistoryArchive)
	deps.PerformanceTracker = performance.NewTracker(cfg.LedgerMaxEntries)

	// Restore the performance ledger from its last snapshot
	if entries, err := deps.LedgerStore.LoadSnapshot(context.Background()); err != nil {
		logger.Warn("Failed to load performance ledger snapshot: %v", err)
	} else if len(entries) > 0 {
		deps.PerformanceTracker.Restore(entries)
		logger.Info("Restored %d performance ledger entries", len(entries))
	}

	// Persist the ledger on shutdown, before the pool closes
	cleanups = append(cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := deps.LedgerStore.SaveSnapshot(ctx, deps.PerformanceTracker.Snapshot()); err != nil {
			logger.Warn("Failed to save performance ledger snapshot: %v", err)
		}
	})

	deps.AnalysisService = classification.NewService(
		deps.Classifier,
		deps.FeedbackRepo,
		deps.HistoryTracker,
		deps.PerformanceTracker,
		cfg,
	)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}
