package memory

import (
	"context"
	"sync"
	"time"

	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// ThreadRepository keeps conversational state in process memory.
// Threads idle for 24 hours are evicted.
type ThreadRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewThreadRepository() contract.ThreadRepository {
	return &ThreadRepository{
		cache: cache.New(24*time.Hour, 10*time.Minute),
	}
}

func (r *ThreadRepository) Get(ctx context.Context, threadId string) (*entity.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(threadId), nil
}

func (r *ThreadRepository) Append(ctx context.Context, threadId string, messages ...entity.ThreadMessage) (*entity.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	thread := r.load(threadId)
	thread.Messages = append(thread.Messages, messages...)
	thread.UpdatedAt = time.Now()
	r.cache.Set(threadId, thread, cache.DefaultExpiration)
	return copyThread(thread), nil
}

func (r *ThreadRepository) Replace(ctx context.Context, threadId string, messages []entity.ThreadMessage, summary string) (*entity.ChatThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	thread := r.load(threadId)
	thread.Messages = append([]entity.ThreadMessage(nil), messages...)
	thread.Summary = summary
	thread.UpdatedAt = time.Now()
	r.cache.Set(threadId, thread, cache.DefaultExpiration)
	return copyThread(thread), nil
}

// load returns the stored thread, creating an empty one on first access.
func (r *ThreadRepository) load(threadId string) *entity.ChatThread {
	if x, found := r.cache.Get(threadId); found {
		return x.(*entity.ChatThread)
	}
	thread := &entity.ChatThread{ThreadId: threadId, UpdatedAt: time.Now()}
	r.cache.Set(threadId, thread, cache.DefaultExpiration)
	return thread
}

func (r *ThreadRepository) snapshot(threadId string) *entity.ChatThread {
	return copyThread(r.load(threadId))
}

// copyThread hands callers their own message slice so later appends do
// not alias cached state.
func copyThread(t *entity.ChatThread) *entity.ChatThread {
	out := *t
	out.Messages = append([]entity.ThreadMessage(nil), t.Messages...)
	return &out
}
