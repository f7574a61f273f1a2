package memory

import (
	"context"
	"testing"
	"time"

	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(userId uuid.UUID, text string, embedding []float32) vectorstore.Record {
	return vectorstore.Record{
		Id:           uuid.New(),
		Text:         text,
		Embedding:    embedding,
		UserId:       userId,
		DocumentType: "workout",
		CreatedAt:    time.Now(),
	}
}

func TestQuery_FiltersByUser(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	partition := vectorstore.PartitionFor("workout")

	alice := uuid.New()
	bob := uuid.New()

	require.NoError(t, store.Upsert(ctx, partition, []vectorstore.Record{
		record(alice, "alice leg day", []float32{1, 0, 0}),
		record(bob, "bob leg day", []float32{1, 0, 0}),
		record(bob, "bob cardio", []float32{0.9, 0.1, 0}),
	}))

	results, err := store.Query(ctx, partition, alice, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice leg day", results[0].Text)
	assert.Equal(t, alice, results[0].UserId)
}

func TestQuery_TopKOrdering(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	partition := vectorstore.PartitionFor("workout")
	userId := uuid.New()

	require.NoError(t, store.Upsert(ctx, partition, []vectorstore.Record{
		record(userId, "far", []float32{0, 1, 0}),
		record(userId, "close", []float32{1, 0.1, 0}),
		record(userId, "exact", []float32{1, 0, 0}),
	}))

	results, err := store.Query(ctx, partition, userId, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Text)
	assert.Equal(t, "close", results[1].Text)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQuery_EmptyPartition(t *testing.T) {
	store := NewStore()

	results, err := store.Query(context.Background(), "nutrition-plans", uuid.New(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDelete_OnlyRemovesOwnVectors(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	partition := vectorstore.PartitionFor("nutrition")

	alice := uuid.New()
	bob := uuid.New()

	require.NoError(t, store.Upsert(ctx, partition, []vectorstore.Record{
		record(alice, "alice macros", []float32{1, 0, 0}),
		record(alice, "alice meals", []float32{0, 1, 0}),
		record(bob, "bob macros", []float32{1, 0, 0}),
	}))

	require.NoError(t, store.Delete(ctx, partition, alice))

	assert.Equal(t, 0, store.Count(partition, alice))
	assert.Equal(t, 1, store.Count(partition, bob))

	results, err := store.Query(ctx, partition, bob, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob macros", results[0].Text)
}

func TestDelete_Idempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	partition := vectorstore.PartitionFor("workout")
	userId := uuid.New()

	require.NoError(t, store.Delete(ctx, partition, userId))
	require.NoError(t, store.Delete(ctx, partition, userId))
	assert.Equal(t, 0, store.Count(partition, userId))
}

func TestPartitionsAreIsolated(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	userId := uuid.New()

	require.NoError(t, store.Upsert(ctx, vectorstore.PartitionFor("workout"), []vectorstore.Record{
		record(userId, "squat program", []float32{1, 0, 0}),
	}))

	results, err := store.Query(ctx, vectorstore.PartitionFor("nutrition"), userId, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
