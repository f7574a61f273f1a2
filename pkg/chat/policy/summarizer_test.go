package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fitcoach-be/internal/entity"
	"fitcoach-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply   string
	err     error
	history []llm.Message
}

func (p *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.history = history
	return p.reply, p.err
}

func (p *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
}

func makeThread(n int) *entity.ChatThread {
	thread := &entity.ChatThread{ThreadId: "t1"}
	for i := 0; i < n; i++ {
		role := entity.RoleUser
		if i%2 == 1 {
			role = entity.RoleAssistant
		}
		thread.Messages = append(thread.Messages, entity.ThreadMessage{
			Role:    role,
			Content: fmt.Sprintf("message %d", i),
		})
	}
	return thread
}

func TestNewSummarizer_Validation(t *testing.T) {
	_, err := NewSummarizer(0, 0)
	assert.Error(t, err)

	_, err = NewSummarizer(6, 6)
	assert.Error(t, err)

	_, err = NewSummarizer(6, -1)
	assert.Error(t, err)

	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Threshold)
	assert.Equal(t, 2, s.Retain)
}

func TestShouldCompact_StrictThreshold(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	assert.False(t, s.ShouldCompact(makeThread(5)))
	assert.False(t, s.ShouldCompact(makeThread(6)))
	assert.True(t, s.ShouldCompact(makeThread(7)))
}

func TestCompact_RetainsTailVerbatim(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	thread := makeThread(8)
	provider := &stubProvider{reply: "user wants to build muscle, trains 3x a week"}

	summary, retained, err := s.Compact(context.Background(), thread, provider)
	require.NoError(t, err)

	assert.Equal(t, "user wants to build muscle, trains 3x a week", summary)
	require.Len(t, retained, 2)
	assert.Equal(t, "message 6", retained[0].Content)
	assert.Equal(t, "message 7", retained[1].Content)

	// 6 older messages plus the summarization instruction
	require.Len(t, provider.history, 7)
	assert.Equal(t, llm.RoleUser, provider.history[6].Role)
	assert.Contains(t, provider.history[6].Content, "Summarize the conversation")
}

func TestCompact_ExtendsExistingSummary(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	thread := makeThread(7)
	thread.Summary = "user is a beginner runner"
	provider := &stubProvider{reply: "user is a beginner runner aiming for a 10k"}

	summary, _, err := s.Compact(context.Background(), thread, provider)
	require.NoError(t, err)
	assert.Equal(t, "user is a beginner runner aiming for a 10k", summary)
	assert.Contains(t, provider.history[len(provider.history)-1].Content, "user is a beginner runner")
	assert.Contains(t, provider.history[len(provider.history)-1].Content, "Extend this summary")
}

func TestCompact_BelowThresholdIsNoop(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	thread := makeThread(4)
	thread.Summary = "existing"
	provider := &stubProvider{reply: "should not be called"}

	summary, retained, err := s.Compact(context.Background(), thread, provider)
	require.NoError(t, err)
	assert.Equal(t, "existing", summary)
	assert.Len(t, retained, 4)
	assert.Nil(t, provider.history)
}

func TestCompact_ProviderFailure(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	provider := &stubProvider{err: fmt.Errorf("model unavailable: %w", llm.ErrGeneration)}
	_, _, err = s.Compact(context.Background(), makeThread(8), provider)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrGeneration))
}

func TestCompact_EmptySummaryIsFailure(t *testing.T) {
	s, err := NewSummarizer(6, 2)
	require.NoError(t, err)

	provider := &stubProvider{reply: "   "}
	_, _, err = s.Compact(context.Background(), makeThread(8), provider)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrGeneration))
}
