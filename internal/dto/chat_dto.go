package dto

import "time"

type SendChatRequest struct {
	ThreadId string `json:"thread_id" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	ThreadId string `json:"thread_id"`
	Reply    string `json:"reply"`
}

type ThreadMessageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ThreadHistoryResponse struct {
	ThreadId string                  `json:"thread_id"`
	Summary  string                  `json:"summary,omitempty"`
	Messages []ThreadMessageResponse `json:"messages"`
}
