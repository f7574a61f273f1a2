package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
)

// Store keeps vectors in process memory. Used for tests and single-node
// development; partitions are plain map keys, so nothing is provisioned.
type Store struct {
	mu         sync.RWMutex
	partitions map[string][]vectorstore.Record
}

func NewStore() *Store {
	return &Store{
		partitions: make(map[string][]vectorstore.Record),
	}
}

func (s *Store) Upsert(ctx context.Context, partition string, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partitions[partition] = append(s.partitions[partition], records...)
	return nil
}

func (s *Store) Query(ctx context.Context, partition string, userId uuid.UUID, vector []float32, k int) ([]vectorstore.ScoredRecord, error) {
	if k <= 0 {
		k = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var scored []vectorstore.ScoredRecord
	for _, r := range s.partitions[partition] {
		if r.UserId != userId {
			continue
		}
		scored = append(scored, vectorstore.ScoredRecord{
			Record: r,
			Score:  cosineSimilarity(vector, r.Embedding),
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *Store) Delete(ctx context.Context, partition string, userId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.partitions[partition]
	kept := records[:0]
	for _, r := range records {
		if r.UserId != userId {
			kept = append(kept, r)
		}
	}
	s.partitions[partition] = kept
	return nil
}

// Count reports how many records a user has in a partition. Test helper.
func (s *Store) Count(partition string, userId uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.partitions[partition] {
		if r.UserId == userId {
			n++
		}
	}
	return n
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
