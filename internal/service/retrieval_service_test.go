package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitcoach-be/internal/dto"
	"fitcoach-be/pkg/embedding"
	"fitcoach-be/pkg/vectorstore"
	"fitcoach-be/pkg/vectorstore/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vector []float32
	err    error
	task   string
}

func (e *stubEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	e.task = taskType
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: e.vector},
	}, nil
}

type failingVectorStore struct{}

func (failingVectorStore) Upsert(ctx context.Context, partition string, records []vectorstore.Record) error {
	return errors.New("backend down")
}

func (failingVectorStore) Query(ctx context.Context, partition string, userId uuid.UUID, vector []float32, k int) ([]vectorstore.ScoredRecord, error) {
	return nil, errors.New("backend down")
}

func (failingVectorStore) Delete(ctx context.Context, partition string, userId uuid.UUID) error {
	return errors.New("backend down")
}

func seedVectors(t *testing.T, store vectorstore.Store, userId uuid.UUID, texts ...string) {
	t.Helper()
	records := make([]vectorstore.Record, len(texts))
	for i, text := range texts {
		records[i] = vectorstore.Record{
			Id:           uuid.New(),
			Text:         text,
			Embedding:    []float32{1, 0, 0},
			UserId:       userId,
			DocumentType: "workout",
			CreatedAt:    time.Now(),
		}
	}
	require.NoError(t, store.Upsert(context.Background(), vectorstore.PartitionFor("workout"), records))
}

func TestAsk_AnswersFromRetrievedChunks(t *testing.T) {
	store := memory.NewStore()
	userId := uuid.New()
	seedVectors(t, store, userId, "Monday: squats 5x5", "Tuesday: rest day")

	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	model := &scriptedLLM{replies: []string{"Your plan says squats 5x5 on Monday."}}
	svc := NewRetrievalService(embedder, store, model, &nopLogger{})

	resp, err := svc.Ask(context.Background(), userId, &dto.AskPlanRequest{
		DocumentType: "workout",
		Question:     "what do I do on Monday?",
	})
	require.NoError(t, err)
	assert.True(t, resp.HadContext)
	assert.Equal(t, "Your plan says squats 5x5 on Monday.", resp.Answer)
	assert.Equal(t, embedding.TaskRetrievalQuery, embedder.task)

	// Retrieved chunks are in the synthesis prompt.
	prompt := model.history[len(model.history)-1][0].Content
	assert.Contains(t, prompt, "squats 5x5")
}

func TestAsk_NoIndexedPlansDegrades(t *testing.T) {
	store := memory.NewStore()
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	model := &scriptedLLM{}
	svc := NewRetrievalService(embedder, store, model, &nopLogger{})

	resp, err := svc.Ask(context.Background(), uuid.New(), &dto.AskPlanRequest{
		DocumentType: "workout",
		Question:     "what do I do on Monday?",
	})
	require.NoError(t, err)
	assert.False(t, resp.HadContext)
	assert.NotEmpty(t, resp.Answer)
	assert.Zero(t, model.calls)
}

func TestAsk_OtherUsersVectorsAreInvisible(t *testing.T) {
	store := memory.NewStore()
	owner := uuid.New()
	seedVectors(t, store, owner, "Monday: squats 5x5")

	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	model := &scriptedLLM{}
	svc := NewRetrievalService(embedder, store, model, &nopLogger{})

	resp, err := svc.Ask(context.Background(), uuid.New(), &dto.AskPlanRequest{
		DocumentType: "workout",
		Question:     "what do I do on Monday?",
	})
	require.NoError(t, err)
	assert.False(t, resp.HadContext)
	assert.Zero(t, model.calls)
}

func TestAsk_EmbeddingFailureDegrades(t *testing.T) {
	embedder := &stubEmbedder{err: errors.New("embedding api down")}
	model := &scriptedLLM{}
	svc := NewRetrievalService(embedder, memory.NewStore(), model, &nopLogger{})

	resp, err := svc.Ask(context.Background(), uuid.New(), &dto.AskPlanRequest{
		DocumentType: "workout",
		Question:     "best leg exercises?",
	})
	require.NoError(t, err)
	assert.False(t, resp.HadContext)
	assert.Zero(t, model.calls)
}

func TestAsk_VectorStoreFailureDegrades(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	model := &scriptedLLM{}
	svc := NewRetrievalService(embedder, failingVectorStore{}, model, &nopLogger{})

	resp, err := svc.Ask(context.Background(), uuid.New(), &dto.AskPlanRequest{
		DocumentType: "nutrition",
		Question:     "how much protein?",
	})
	require.NoError(t, err)
	assert.False(t, resp.HadContext)
}

func TestAsk_SynthesisFailureIsAnError(t *testing.T) {
	store := memory.NewStore()
	userId := uuid.New()
	seedVectors(t, store, userId, "Monday: squats 5x5")

	embedder := &stubEmbedder{vector: []float32{1, 0, 0}}
	model := &scriptedLLM{failAt: 1}
	svc := NewRetrievalService(embedder, store, model, &nopLogger{})

	_, err := svc.Ask(context.Background(), userId, &dto.AskPlanRequest{
		DocumentType: "workout",
		Question:     "what do I do on Monday?",
	})
	require.Error(t, err)
}
