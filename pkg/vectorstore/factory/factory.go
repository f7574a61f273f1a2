package factory

import (
	"fmt"
	"time"

	"fitcoach-be/pkg/vectorstore"
	"fitcoach-be/pkg/vectorstore/memory"
	"fitcoach-be/pkg/vectorstore/pgvector"
	"fitcoach-be/pkg/vectorstore/qdrant"

	"gorm.io/gorm"
)

type Config struct {
	Backend      string
	DB           *gorm.DB
	QdrantURL    string
	QdrantAPIKey string
	Dimension    int
	Timeout      time.Duration
}

// New builds the configured vector store backend.
func New(cfg Config) (vectorstore.Store, error) {
	switch cfg.Backend {
	case "pgvector":
		if cfg.DB == nil {
			return nil, fmt.Errorf("pgvector backend requires a database connection")
		}
		return pgvector.NewStore(cfg.DB), nil
	case "qdrant":
		if cfg.QdrantURL == "" {
			return nil, fmt.Errorf("qdrant backend requires a URL")
		}
		return qdrant.NewStore(qdrant.Config{
			URL:       cfg.QdrantURL,
			APIKey:    cfg.QdrantAPIKey,
			Dimension: cfg.Dimension,
			Timeout:   cfg.Timeout,
		}), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store backend: %s", cfg.Backend)
	}
}
