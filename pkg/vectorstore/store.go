package vectorstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrProvisioning marks a partition that could not be created or did not
// become ready. It is fatal for the triggering job only.
var ErrProvisioning = errors.New("vector partition provisioning failed")

// Record is one embedded chunk. UserId is never optional: every record is
// written with it and every read is filtered by it.
type Record struct {
	Id           uuid.UUID
	Text         string
	Embedding    []float32
	UserId       uuid.UUID
	DocumentType string
	CreatedAt    time.Time
}

// ScoredRecord is a query hit with its cosine similarity.
type ScoredRecord struct {
	Record
	Score float64
}

// Store is the tenant-partitioned vector index. Query and Delete take the
// tenant's userId as a mandatory parameter rather than an optional filter
// field, so an unfiltered read or delete cannot be expressed at all.
type Store interface {
	Upsert(ctx context.Context, partition string, records []Record) error
	Query(ctx context.Context, partition string, userId uuid.UUID, vector []float32, k int) ([]ScoredRecord, error)
	Delete(ctx context.Context, partition string, userId uuid.UUID) error
}

// PartitionFor maps a document type to its partition name,
// e.g. "diet" -> "diet-plans".
func PartitionFor(documentType string) string {
	return documentType + "-plans"
}
