package service

import (
	"context"
	"fmt"
	"strings"

	"fitcoach-be/internal/dto"
	"fitcoach-be/internal/pkg/logger"
	"fitcoach-be/pkg/embedding"
	"fitcoach-be/pkg/llm"
	"fitcoach-be/pkg/vectorstore"

	"github.com/google/uuid"
)

const (
	retrievalTopK = 2

	noContextReply = "I couldn't find any saved plan information to answer that. Save a plan first, or ask me a general fitness question in the chat."
)

type IRetrievalService interface {
	Ask(ctx context.Context, userId uuid.UUID, req *dto.AskPlanRequest) (*dto.AskPlanResponse, error)
}

type retrievalService struct {
	embedder    embedding.EmbeddingProvider
	vectors     vectorstore.Store
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewRetrievalService(
	embedder embedding.EmbeddingProvider,
	vectors vectorstore.Store,
	llmProvider llm.LLMProvider,
	log logger.ILogger,
) IRetrievalService {
	return &retrievalService{
		embedder:    embedder,
		vectors:     vectors,
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Ask answers a question against the user's indexed plan documents.
// Failures on the retrieval side (embedding, vector search) degrade to
// an answer without plan context rather than erroring the request.
func (s *retrievalService) Ask(ctx context.Context, userId uuid.UUID, req *dto.AskPlanRequest) (*dto.AskPlanResponse, error) {
	partition := vectorstore.PartitionFor(req.DocumentType)

	chunks, ok := s.retrieve(ctx, partition, userId, req.Question)
	if !ok || len(chunks) == 0 {
		return &dto.AskPlanResponse{Answer: noContextReply, HadContext: false}, nil
	}

	prompt := fmt.Sprintf(
		"You are a fitness coach. Answer the user's question using the plan excerpts below. Answer in 200 words or less. If the excerpts do not cover the question, fall back to general fitness knowledge. Politely decline only if the question is unrelated to fitness.\n\nPlan excerpts:\n%s\n\nQuestion: %s",
		strings.Join(chunks, "\n\n---\n\n"),
		req.Question,
	)

	answer, err := s.llmProvider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	return &dto.AskPlanResponse{Answer: strings.TrimSpace(answer), HadContext: true}, nil
}

// retrieve embeds the question and searches the user's partition. The
// second return is false when either step failed and the caller should
// degrade instead of failing.
func (s *retrievalService) retrieve(ctx context.Context, partition string, userId uuid.UUID, question string) ([]string, bool) {
	resp, err := s.embedder.Generate(question, embedding.TaskRetrievalQuery)
	if err != nil {
		s.logger.Warn("retrieval", "question embedding failed, degrading to no context", map[string]interface{}{
			"partition": partition,
			"user_id":   userId,
			"error":     err.Error(),
		})
		return nil, false
	}

	results, err := s.vectors.Query(ctx, partition, userId, resp.Embedding.Values, retrievalTopK)
	if err != nil {
		s.logger.Warn("retrieval", "vector search failed, degrading to no context", map[string]interface{}{
			"partition": partition,
			"user_id":   userId,
			"error":     err.Error(),
		})
		return nil, false
	}

	chunks := make([]string, len(results))
	for i, r := range results {
		chunks[i] = r.Text
	}
	return chunks, true
}
