package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"fitcoach-be/internal/dto"
	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/pkg/logger"
	"fitcoach-be/internal/repository/contract"
	"fitcoach-be/pkg/chat/policy"
	"fitcoach-be/pkg/llm"

	"github.com/google/uuid"
)

const coachPersona = "You are a friendly fitness coach. Answer briefly, in 50 words or less. Give practical training and nutrition guidance tailored to the conversation."

type IChatService interface {
	SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetHistory(ctx context.Context, threadId string) (*dto.ThreadHistoryResponse, error)
}

type chatService struct {
	threads     contract.ThreadRepository
	llmProvider llm.LLMProvider
	summarizer  *policy.Summarizer
	logger      logger.ILogger
	timeout     time.Duration

	// one mutex per thread id so turns on the same thread serialize
	locks sync.Map
}

func NewChatService(
	threads contract.ThreadRepository,
	llmProvider llm.LLMProvider,
	summarizer *policy.Summarizer,
	log logger.ILogger,
	timeout time.Duration,
) IChatService {
	return &chatService{
		threads:     threads,
		llmProvider: llmProvider,
		summarizer:  summarizer,
		logger:      log,
		timeout:     timeout,
	}
}

func (s *chatService) lockThread(threadId string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(threadId, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// SendChat runs one conversational turn. The user message and the
// assistant reply are persisted together after the model call
// succeeds, so a failed turn leaves the thread exactly as it was.
func (s *chatService) SendChat(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	mu := s.lockThread(req.ThreadId)
	mu.Lock()
	defer mu.Unlock()

	thread, err := s.threads.Get(ctx, req.ThreadId)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	userMsg := entity.ThreadMessage{
		Id:        uuid.New(),
		Role:      entity.RoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.llmProvider.Chat(callCtx, s.buildHistory(thread, userMsg))
	if err != nil {
		s.logger.Error("chat", "model call failed", map[string]interface{}{
			"thread_id": req.ThreadId,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("generate reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, fmt.Errorf("generate reply: %w", llm.ErrGeneration)
	}

	assistantMsg := entity.ThreadMessage{
		Id:        uuid.New(),
		Role:      entity.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}

	thread, err = s.threads.Append(ctx, req.ThreadId, userMsg, assistantMsg)
	if err != nil {
		return nil, fmt.Errorf("persist turn: %w", err)
	}

	if s.summarizer.ShouldCompact(thread) {
		if err := s.compact(ctx, thread); err != nil {
			s.logger.Error("chat", "compaction failed", map[string]interface{}{
				"thread_id": req.ThreadId,
				"messages":  len(thread.Messages),
				"error":     err.Error(),
			})
			return nil, err
		}
	}

	return &dto.SendChatResponse{
		ThreadId: req.ThreadId,
		Reply:    reply,
	}, nil
}

// compact folds older messages into the summary and swaps the thread
// state in a single Replace. Nothing is persisted if summarization fails.
func (s *chatService) compact(ctx context.Context, thread *entity.ChatThread) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, retained, err := s.summarizer.Compact(callCtx, thread, s.llmProvider)
	if err != nil {
		return err
	}

	if _, err := s.threads.Replace(ctx, thread.ThreadId, retained, summary); err != nil {
		return fmt.Errorf("persist compacted thread: %w", err)
	}

	s.logger.Info("chat", "thread compacted", map[string]interface{}{
		"thread_id": thread.ThreadId,
		"retained":  len(retained),
	})
	return nil
}

func (s *chatService) buildHistory(thread *entity.ChatThread, staged entity.ThreadMessage) []llm.Message {
	system := coachPersona
	if thread.Summary != "" {
		system += "\n\nSummary of the conversation so far:\n" + thread.Summary
	}

	history := make([]llm.Message, 0, len(thread.Messages)+2)
	history = append(history, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range thread.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: staged.Role, Content: staged.Content})
	return history
}

func (s *chatService) GetHistory(ctx context.Context, threadId string) (*dto.ThreadHistoryResponse, error) {
	thread, err := s.threads.Get(ctx, threadId)
	if err != nil {
		return nil, err
	}

	messages := make([]dto.ThreadMessageResponse, len(thread.Messages))
	for i, m := range thread.Messages {
		messages[i] = dto.ThreadMessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}

	return &dto.ThreadHistoryResponse{
		ThreadId: threadId,
		Summary:  thread.Summary,
		Messages: messages,
	}, nil
}
