package policy

import (
	"context"
	"fmt"
	"strings"

	"fitcoach-be/internal/entity"
	"fitcoach-be/pkg/llm"
)

// Summarizer decides when a thread's message log has grown past the
// compaction threshold and folds the older portion into a rolling
// summary, keeping the most recent messages verbatim.
type Summarizer struct {
	Threshold int
	Retain    int
}

func NewSummarizer(threshold, retain int) (*Summarizer, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("compaction threshold must be positive, got %d", threshold)
	}
	if retain < 0 || retain >= threshold {
		return nil, fmt.Errorf("retain count %d must be in [0, %d)", retain, threshold)
	}
	return &Summarizer{Threshold: threshold, Retain: retain}, nil
}

// ShouldCompact reports whether the thread has strictly more messages
// than the threshold.
func (s *Summarizer) ShouldCompact(thread *entity.ChatThread) bool {
	return len(thread.Messages) > s.Threshold
}

// Compact summarizes everything except the last Retain messages and
// returns the new summary plus the retained tail. The thread passed in
// is not mutated; callers persist the result atomically.
func (s *Summarizer) Compact(ctx context.Context, thread *entity.ChatThread, provider llm.LLMProvider) (string, []entity.ThreadMessage, error) {
	if !s.ShouldCompact(thread) {
		return thread.Summary, thread.Messages, nil
	}

	cut := len(thread.Messages) - s.Retain
	older := thread.Messages[:cut]
	retained := append([]entity.ThreadMessage(nil), thread.Messages[cut:]...)

	history := make([]llm.Message, 0, len(older)+1)
	for _, m := range older {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{
		Role:    llm.RoleUser,
		Content: s.instruction(thread.Summary),
	})

	summary, err := provider.Chat(ctx, history)
	if err != nil {
		return "", nil, fmt.Errorf("compact thread %s: %w", thread.ThreadId, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", nil, fmt.Errorf("compact thread %s: empty summary: %w", thread.ThreadId, llm.ErrGeneration)
	}

	return summary, retained, nil
}

func (s *Summarizer) instruction(existingSummary string) string {
	if existingSummary != "" {
		return fmt.Sprintf(
			"Here is the summary of the conversation so far:\n\n%s\n\nExtend this summary to also cover the messages above. Keep the user's fitness goals, constraints, injuries and preferences. Reply with the updated summary only.",
			existingSummary,
		)
	}
	return "Summarize the conversation above. Keep the user's fitness goals, constraints, injuries and preferences. Reply with the summary only."
}
