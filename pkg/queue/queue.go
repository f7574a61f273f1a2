package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobKind discriminates what an IndexJob asks the worker to do.
type JobKind string

const (
	KindEmbed  JobKind = "embed"
	KindDelete JobKind = "delete"
)

// IndexJob is the unit of work carried by the queue. Payload is the raw
// plan document for Embed jobs and empty for Delete jobs.
type IndexJob struct {
	Kind         JobKind   `json:"kind"`
	UserId       uuid.UUID `json:"user_id"`
	DocumentType string    `json:"document_type"`
	Payload      string    `json:"payload,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	Attempt      int       `json:"attempt"`
}

// Delivery wraps a consumed job with its acknowledgement hooks. Ack marks
// the job done; Nak asks the broker to redeliver (at-least-once).
type Delivery struct {
	Job IndexJob
	Ack func()
	Nak func()
}

// Queue is the indexing job bus. Implementations differ in durability:
// the in-process gochannel queue lives and dies with the process, the
// JetStream queue survives restarts.
type Queue interface {
	Enqueue(ctx context.Context, job IndexJob) error
	Consume(ctx context.Context) (<-chan Delivery, error)
	Close() error
}
