package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePlanRequest struct {
	Title        string         `json:"title" validate:"required"`
	Content      string         `json:"content" validate:"required"`
	DocumentType string         `json:"document_type" validate:"required,oneof=workout nutrition"`
	Metadata     map[string]any `json:"metadata"`
}

type CreatePlanResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowPlanResponse struct {
	Id           uuid.UUID      `json:"id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	DocumentType string         `json:"document_type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    *time.Time     `json:"updated_at"`
}

type DeletePlanRequest struct {
	Id           uuid.UUID `json:"id" validate:"required"`
	DocumentType string    `json:"document_type" validate:"required,oneof=workout nutrition"`
}

type AskPlanRequest struct {
	DocumentType string `json:"document_type" validate:"required,oneof=workout nutrition"`
	Question     string `json:"question" validate:"required"`
}

type AskPlanResponse struct {
	Answer     string `json:"answer"`
	HadContext bool   `json:"had_context"`
}
