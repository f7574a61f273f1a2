package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fitcoach-be/internal/pkg/logger"
	"fitcoach-be/pkg/chunker"
	"fitcoach-be/pkg/embedding"
	"fitcoach-be/pkg/queue"
	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
)

type IIndexerService interface {
	Run(ctx context.Context) error
}

type IndexerConfig struct {
	Workers     int
	MaxAttempts int
	BaseBackoff time.Duration
}

type indexerService struct {
	jobs     queue.Queue
	splitter *chunker.Splitter
	embedder embedding.EmbeddingProvider
	vectors  vectorstore.Store
	logger   logger.ILogger
	cfg      IndexerConfig
}

func NewIndexerService(
	jobs queue.Queue,
	splitter *chunker.Splitter,
	embedder embedding.EmbeddingProvider,
	vectors vectorstore.Store,
	log logger.ILogger,
	cfg IndexerConfig,
) IIndexerService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	return &indexerService{
		jobs:     jobs,
		splitter: splitter,
		embedder: embedder,
		vectors:  vectors,
		logger:   log,
		cfg:      cfg,
	}
}

// Run consumes index jobs with a pool of workers until the context is
// cancelled. Each job is handled by exactly one worker.
func (s *indexerService) Run(ctx context.Context) error {
	deliveries, err := s.jobs.Consume(ctx)
	if err != nil {
		return fmt.Errorf("start consuming index jobs: %w", err)
	}

	s.logger.Info("indexer", "worker pool started", map[string]interface{}{
		"workers": s.cfg.Workers,
	})

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range deliveries {
				s.handle(ctx, d)
			}
		}()
	}
	wg.Wait()
	return nil
}

// handle processes one delivery with bounded retries. A job that keeps
// failing is dead-lettered: logged and acked so it cannot wedge the
// queue. A panicking job is treated the same way.
func (s *indexerService) handle(ctx context.Context, d queue.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("indexer", "job panicked, dropping", map[string]interface{}{
				"kind":    string(d.Job.Kind),
				"user_id": d.Job.UserId,
				"panic":   fmt.Sprint(r),
			})
			d.Ack()
		}
	}()

	var lastErr error
	for d.Job.Attempt < s.cfg.MaxAttempts {
		if d.Job.Attempt > 0 {
			backoff := s.cfg.BaseBackoff << (d.Job.Attempt - 1)
			select {
			case <-ctx.Done():
				d.Nak()
				return
			case <-time.After(backoff):
			}
		}
		d.Job.Attempt++

		if lastErr = s.process(ctx, d.Job); lastErr == nil {
			d.Ack()
			return
		}

		s.logger.Warn("indexer", "job attempt failed", map[string]interface{}{
			"kind":     string(d.Job.Kind),
			"user_id":  d.Job.UserId,
			"doc_type": d.Job.DocumentType,
			"attempt":  d.Job.Attempt,
			"error":    lastErr.Error(),
		})
	}

	s.logger.Error("indexer", "job dead-lettered after retries", map[string]interface{}{
		"kind":     string(d.Job.Kind),
		"user_id":  d.Job.UserId,
		"doc_type": d.Job.DocumentType,
		"attempts": s.cfg.MaxAttempts,
		"error":    lastErr.Error(),
	})
	d.Ack()
}

func (s *indexerService) process(ctx context.Context, job queue.IndexJob) error {
	partition := vectorstore.PartitionFor(job.DocumentType)

	switch job.Kind {
	case queue.KindDelete:
		return s.vectors.Delete(ctx, partition, job.UserId)
	case queue.KindEmbed:
		return s.embed(ctx, partition, job)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// embed replaces the user's vectors in the partition with embeddings of
// the new document. The purge first keeps a re-saved plan from leaving
// stale chunks behind.
func (s *indexerService) embed(ctx context.Context, partition string, job queue.IndexJob) error {
	if err := s.vectors.Delete(ctx, partition, job.UserId); err != nil {
		return fmt.Errorf("purge stale vectors: %w", err)
	}

	chunks := s.splitter.Split(job.Payload)
	if len(chunks) == 0 {
		return nil
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	for _, chunk := range chunks {
		resp, err := s.embedder.Generate(chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed chunk: %w", err)
		}
		records = append(records, vectorstore.Record{
			Id:           uuid.New(),
			Text:         chunk,
			Embedding:    resp.Embedding.Values,
			UserId:       job.UserId,
			DocumentType: job.DocumentType,
			CreatedAt:    time.Now(),
		})
	}

	if err := s.vectors.Upsert(ctx, partition, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	s.logger.Info("indexer", "document indexed", map[string]interface{}{
		"partition": partition,
		"user_id":   job.UserId,
		"chunks":    len(records),
	})
	return nil
}
