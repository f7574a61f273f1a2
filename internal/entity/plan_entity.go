package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentTypeWorkout   = "workout"
	DocumentTypeNutrition = "nutrition"
)

type Plan struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string
	Content      string
	DocumentType string
	Metadata     map[string]any
	UserId       uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
