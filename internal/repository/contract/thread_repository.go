package contract

import (
	"context"

	"fitcoach-be/internal/entity"
)

// ThreadRepository stores conversational state keyed by thread id.
// Get returns an empty thread for ids that have never been seen.
type ThreadRepository interface {
	Get(ctx context.Context, threadId string) (*entity.ChatThread, error)
	Append(ctx context.Context, threadId string, messages ...entity.ThreadMessage) (*entity.ChatThread, error)
	Replace(ctx context.Context, threadId string, messages []entity.ThreadMessage, summary string) (*entity.ChatThread, error)
}
