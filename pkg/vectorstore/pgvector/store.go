package pgvector

import (
	"context"
	"time"

	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// planVector is the row shape for the pre-provisioned plan_vectors table.
// The table (including the vector column and its dimension) is created by
// migration, not by this code.
type planVector struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Partition    string     `gorm:"index:idx_plan_vectors_tenant,priority:1"`
	UserId       uuid.UUID  `gorm:"index:idx_plan_vectors_tenant,priority:2"`
	DocumentType string
	Document     string     `gorm:"type:text"`
	Embedding    pgv.Vector `gorm:"type:vector(768)"`
	CreatedAt    time.Time
}

func (planVector) TableName() string { return "plan_vectors" }

// Store is the pgvector-backed vector index. One table holds every
// partition; partition and user_id are equality filters on every read
// and delete.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Upsert(ctx context.Context, partition string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*planVector, len(records))
	for i, r := range records {
		rows[i] = &planVector{
			Id:           r.Id,
			Partition:    partition,
			UserId:       r.UserId,
			DocumentType: r.DocumentType,
			Document:     r.Text,
			Embedding:    pgv.NewVector(r.Embedding),
			CreatedAt:    r.CreatedAt,
		}
	}

	return s.db.WithContext(ctx).Create(rows).Error
}

func (s *Store) Query(ctx context.Context, partition string, userId uuid.UUID, vector []float32, k int) ([]vectorstore.ScoredRecord, error) {
	if k <= 0 {
		k = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query) gives the similarity score.
	type result struct {
		planVector
		Similarity float64
	}
	var results []result

	queryVector := pgv.NewVector(vector)

	err := s.db.WithContext(ctx).
		Table("plan_vectors").
		Select("plan_vectors.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("partition = ?", partition).
		Where("user_id = ?", userId).
		Order("similarity DESC").
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]vectorstore.ScoredRecord, len(results))
	for i, res := range results {
		scored[i] = vectorstore.ScoredRecord{
			Record: vectorstore.Record{
				Id:           res.Id,
				Text:         res.Document,
				Embedding:    res.Embedding.Slice(),
				UserId:       res.UserId,
				DocumentType: res.DocumentType,
				CreatedAt:    res.CreatedAt,
			},
			Score: res.Similarity,
		}
	}
	return scored, nil
}

func (s *Store) Delete(ctx context.Context, partition string, userId uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("partition = ?", partition).
		Where("user_id = ?", userId).
		Delete(&planVector{}).Error
}
