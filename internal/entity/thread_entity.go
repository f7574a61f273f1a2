package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ThreadMessage struct {
	Id        uuid.UUID
	Role      string
	Content   string
	CreatedAt time.Time
}

// ChatThread is the full conversational state for one thread: the
// ordered message log plus the rolling summary of compacted history.
type ChatThread struct {
	ThreadId  string
	Messages  []ThreadMessage
	Summary   string
	UpdatedAt time.Time
}
