package bootstrap

import (
	"context"
	"log"
	"time"

	"fitcoach-be/internal/config"
	"fitcoach-be/internal/controller"
	"fitcoach-be/internal/pkg/logger"
	"fitcoach-be/internal/repository/contract"
	"fitcoach-be/internal/repository/implementation"
	"fitcoach-be/internal/repository/memory"
	"fitcoach-be/internal/repository/redisrepo"
	"fitcoach-be/internal/service"
	"fitcoach-be/pkg/chat/policy"
	"fitcoach-be/pkg/chunker"
	"fitcoach-be/pkg/embedding"
	"fitcoach-be/pkg/llm/factory"
	"fitcoach-be/pkg/queue"
	"fitcoach-be/pkg/queue/gochannel"
	"fitcoach-be/pkg/queue/natsjs"
	vectorfactory "fitcoach-be/pkg/vectorstore/factory"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	PlanController controller.IPlanController

	// Background services, run by main
	IndexerService service.IIndexerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Thread storage
	var threadRepo contract.ThreadRepository
	if cfg.Ai.ThreadStore == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		threadRepo = redisrepo.NewThreadRepository(rdb)
		log.Printf("[INFO] Thread store: REDIS")
	} else {
		threadRepo = memory.NewThreadRepository()
		log.Printf("[INFO] Thread store: MEMORY")
	}

	// Vector store
	vectors, err := vectorfactory.New(vectorfactory.Config{
		Backend:      cfg.Vector.Backend,
		DB:           db,
		QdrantURL:    cfg.Vector.QdrantURL,
		QdrantAPIKey: cfg.Vector.QdrantAPIKey,
		Dimension:    cfg.Vector.Dimension,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize vector store: %v", err)
	}
	log.Printf("[INFO] Vector store backend: %s", cfg.Vector.Backend)

	// Index job queue
	var jobQueue queue.Queue
	if cfg.Indexing.QueueDriver == "nats" {
		jobQueue, err = natsjs.New(cfg.App.NatsURL)
		if err != nil {
			log.Fatalf("[FATAL] Failed to connect to NATS JetStream: %v", err)
		}
		log.Printf("[INFO] Index queue: NATS JetStream")
	} else {
		jobQueue = gochannel.New(cfg.Indexing.Topic)
		log.Printf("[INFO] Index queue: in-process channel")
	}

	summarizer, err := policy.NewSummarizer(cfg.Ai.CompactThreshold, cfg.Ai.CompactRetain)
	if err != nil {
		log.Fatalf("[FATAL] Invalid compaction settings: %v", err)
	}

	splitter, err := chunker.NewSplitter(cfg.Indexing.ChunkSize, cfg.Indexing.ChunkOverlap)
	if err != nil {
		log.Fatalf("[FATAL] Invalid chunking settings: %v", err)
	}

	planRepo := implementation.NewPlanRepository(db)

	chatService := service.NewChatService(
		threadRepo,
		llmProvider,
		summarizer,
		sysLogger,
		time.Duration(cfg.Ai.RequestTimeoutSeconds)*time.Second,
	)
	planService := service.NewPlanService(planRepo, jobQueue, sysLogger)
	retrievalService := service.NewRetrievalService(embeddingProvider, vectors, llmProvider, sysLogger)
	indexerService := service.NewIndexerService(
		jobQueue,
		splitter,
		embeddingProvider,
		vectors,
		sysLogger,
		service.IndexerConfig{
			Workers:     cfg.Indexing.Workers,
			MaxAttempts: cfg.Indexing.MaxAttempts,
		},
	)

	return &Container{
		ChatController: controller.NewChatController(chatService),
		PlanController: controller.NewPlanController(planService, retrievalService),
		IndexerService: indexerService,
		Logger:         sysLogger,
	}
}
