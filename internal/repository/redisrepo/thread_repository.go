package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const threadKeyPrefix = "chat:thread:"

// ThreadRepository persists conversational state in Redis so threads
// survive process restarts and are shared across instances.
type ThreadRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewThreadRepository(rdb *redis.Client) contract.ThreadRepository {
	return &ThreadRepository{
		rdb: rdb,
		ttl: 24 * time.Hour,
	}
}

func (r *ThreadRepository) Get(ctx context.Context, threadId string) (*entity.ChatThread, error) {
	return r.load(ctx, threadId)
}

func (r *ThreadRepository) Append(ctx context.Context, threadId string, messages ...entity.ThreadMessage) (*entity.ChatThread, error) {
	thread, err := r.load(ctx, threadId)
	if err != nil {
		return nil, err
	}
	thread.Messages = append(thread.Messages, messages...)
	thread.UpdatedAt = time.Now()
	if err := r.save(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *ThreadRepository) Replace(ctx context.Context, threadId string, messages []entity.ThreadMessage, summary string) (*entity.ChatThread, error) {
	thread, err := r.load(ctx, threadId)
	if err != nil {
		return nil, err
	}
	thread.Messages = append([]entity.ThreadMessage(nil), messages...)
	thread.Summary = summary
	thread.UpdatedAt = time.Now()
	if err := r.save(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *ThreadRepository) load(ctx context.Context, threadId string) (*entity.ChatThread, error) {
	raw, err := r.rdb.Get(ctx, threadKeyPrefix+threadId).Bytes()
	if errors.Is(err, redis.Nil) {
		return &entity.ChatThread{ThreadId: threadId, UpdatedAt: time.Now()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadId, err)
	}

	var thread entity.ChatThread
	if err := json.Unmarshal(raw, &thread); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", threadId, err)
	}
	return &thread, nil
}

func (r *ThreadRepository) save(ctx context.Context, thread *entity.ChatThread) error {
	raw, err := json.Marshal(thread)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, threadKeyPrefix+thread.ThreadId, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save thread %s: %w", thread.ThreadId, err)
	}
	return nil
}
