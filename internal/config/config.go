package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Vector   VectorConfig
	Indexing IndexingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama", etc
	LLMModel          string // e.g. "llama3", "qwen2.5"

	// Model-call timeout for a single chat turn or answer synthesis.
	RequestTimeoutSeconds int

	// Conversation compaction: fold older messages into a summary once a
	// thread grows past CompactThreshold messages, keeping the last
	// CompactRetain messages verbatim.
	CompactThreshold int
	CompactRetain    int

	// ThreadStore selects where conversation threads live: "memory" or "redis".
	ThreadStore string
}

type VectorConfig struct {
	Backend      string // "pgvector", "qdrant" or "memory"
	Dimension    int
	QdrantURL    string
	QdrantAPIKey string
}

type IndexingConfig struct {
	// QueueDriver selects the job queue: "gochannel" (in-process) or "nats".
	QueueDriver  string
	Topic        string
	Workers      int
	MaxAttempts  int
	ChunkSize    int
	ChunkOverlap int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:     getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:         getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:           getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:           getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:              getEnv("LLM_MODEL", "llama3"),
			RequestTimeoutSeconds: getEnvAsInt("AI_REQUEST_TIMEOUT_SECONDS", 60),
			CompactThreshold:      getEnvAsInt("CHAT_COMPACT_THRESHOLD", 6),
			CompactRetain:         getEnvAsInt("CHAT_COMPACT_RETAIN", 2),
			ThreadStore:           getEnv("CHAT_THREAD_STORE", "memory"),
		},
		Vector: VectorConfig{
			Backend:      getEnv("VECTOR_BACKEND", "pgvector"),
			Dimension:    getEnvAsInt("VECTOR_DIMENSION", 768),
			QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
		},
		Indexing: IndexingConfig{
			QueueDriver:  getEnv("INDEX_QUEUE_DRIVER", "gochannel"),
			Topic:        getEnv("INDEX_PLAN_TOPIC_NAME", "INDEX_PLAN_DOCUMENT"),
			Workers:      getEnvAsInt("INDEX_WORKERS", 4),
			MaxAttempts:  getEnvAsInt("INDEX_MAX_ATTEMPTS", 5),
			ChunkSize:    getEnvAsInt("INDEX_CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("INDEX_CHUNK_OVERLAP", 200),
		},
	}
}

// Validate rejects configurations that would only fail deep inside a worker.
func (c *Config) Validate() error {
	if c.Indexing.ChunkSize <= c.Indexing.ChunkOverlap {
		return fmt.Errorf("INDEX_CHUNK_SIZE (%d) must be greater than INDEX_CHUNK_OVERLAP (%d)",
			c.Indexing.ChunkSize, c.Indexing.ChunkOverlap)
	}
	if c.Indexing.Workers <= 0 {
		return fmt.Errorf("INDEX_WORKERS must be positive, got %d", c.Indexing.Workers)
	}
	if c.Ai.CompactRetain >= c.Ai.CompactThreshold {
		return fmt.Errorf("CHAT_COMPACT_RETAIN (%d) must be below CHAT_COMPACT_THRESHOLD (%d)",
			c.Ai.CompactRetain, c.Ai.CompactThreshold)
	}
	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.Vector.Dimension)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
