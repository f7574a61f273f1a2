package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
)

// Store is a minimal REST client to Qdrant. Collections (one per
// partition) are provisioned lazily: created on first use with a fixed
// dimension and cosine distance, then polled until ready before the
// first write.
type Store struct {
	url       string
	apiKey    string
	dimension int
	client    *http.Client

	mu    sync.Mutex
	ready map[string]bool

	// readiness polling knobs, overridable in tests
	readyAttempts int
	readyInterval time.Duration
}

type Config struct {
	URL       string
	APIKey    string
	Dimension int
	Timeout   time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:           cfg.URL,
		apiKey:        cfg.APIKey,
		dimension:     cfg.Dimension,
		client:        &http.Client{Timeout: timeout},
		ready:         make(map[string]bool),
		readyAttempts: 10,
		readyInterval: time.Second,
	}
}

// ensurePartition creates the collection if missing and waits until it
// reports green status. Failing readiness is loud: writing into a
// collection that never materialized would silently lose vectors.
func (s *Store) ensurePartition(ctx context.Context, partition string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready[partition] {
		return nil
	}

	exists, err := s.collectionExists(ctx, partition)
	if err != nil {
		return err
	}

	if !exists {
		body := map[string]any{
			"vectors": map[string]any{
				"size":     s.dimension,
				"distance": "Cosine",
			},
		}
		if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, partition), body); err != nil {
			return fmt.Errorf("%w: create collection %q: %v", vectorstore.ErrProvisioning, partition, err)
		}
	}

	for attempt := 0; attempt < s.readyAttempts; attempt++ {
		ok, err := s.collectionReady(ctx, partition)
		if err == nil && ok {
			s.ready[partition] = true
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.readyInterval):
		}
	}

	return fmt.Errorf("%w: collection %q not ready after %d attempts",
		vectorstore.ErrProvisioning, partition, s.readyAttempts)
}

func (s *Store) collectionExists(ctx context.Context, partition string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s/exists", s.url, partition), nil)
	if err != nil {
		return false, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("qdrant exists check failed: %s", resp.Status)
	}

	var out struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Result.Exists, nil
}

func (s *Store) collectionReady(ctx context.Context, partition string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s", s.url, partition), nil)
	if err != nil {
		return false, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("qdrant status check failed: %s", resp.Status)
	}

	var out struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Result.Status == "green", nil
}

func (s *Store) Upsert(ctx context.Context, partition string, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensurePartition(ctx, partition); err != nil {
		return err
	}

	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     r.Id.String(),
			"vector": r.Embedding,
			"payload": map[string]any{
				"user_id":       r.UserId.String(),
				"document_type": r.DocumentType,
				"text":          r.Text,
				"created_at":    r.CreatedAt.UTC().Format(time.RFC3339),
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, partition), body)
}

func (s *Store) Query(ctx context.Context, partition string, userId uuid.UUID, vector []float32, k int) ([]vectorstore.ScoredRecord, error) {
	if k <= 0 {
		k = 5
	}
	if err := s.ensurePartition(ctx, partition); err != nil {
		return nil, err
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       tenantFilter(userId),
	}
	var resp struct {
		Result []struct {
			Id      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, partition), req, &resp); err != nil {
		return nil, err
	}

	results := make([]vectorstore.ScoredRecord, 0, len(resp.Result))
	for _, r := range resp.Result {
		rec := vectorstore.Record{}
		if id, err := uuid.Parse(r.Id); err == nil {
			rec.Id = id
		}
		if v, ok := r.Payload["user_id"].(string); ok {
			if id, err := uuid.Parse(v); err == nil {
				rec.UserId = id
			}
		}
		if v, ok := r.Payload["document_type"].(string); ok {
			rec.DocumentType = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			rec.Text = v
		}
		if v, ok := r.Payload["created_at"].(string); ok {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				rec.CreatedAt = ts
			}
		}
		results = append(results, vectorstore.ScoredRecord{Record: rec, Score: r.Score})
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, partition string, userId uuid.UUID) error {
	if err := s.ensurePartition(ctx, partition); err != nil {
		return err
	}

	body := map[string]any{"filter": tenantFilter(userId)}
	return s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, partition), body, nil)
}

// tenantFilter is the mandatory user scoping applied to every read and
// delete sent to Qdrant.
func tenantFilter(userId uuid.UUID) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "user_id",
				"match": map[string]any{"value": userId.String()},
			},
		},
	}
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
