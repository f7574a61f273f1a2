package mapper

import (
	"encoding/json"
	"time"

	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlanMapper struct{}

func NewPlanMapper() *PlanMapper {
	return &PlanMapper{}
}

func (m *PlanMapper) ToEntity(p *model.Plan) *entity.Plan {
	if p == nil {
		return nil
	}

	var deletedAt *time.Time
	if p.DeletedAt.Valid {
		t := p.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]any
	if len(p.Metadata) > 0 {
		_ = json.Unmarshal(p.Metadata, &metadata)
	}

	return &entity.Plan{
		Id:           p.Id,
		Title:        p.Title,
		Content:      p.Content,
		DocumentType: p.DocumentType,
		Metadata:     metadata,
		UserId:       p.UserId,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    p.DeletedAt.Valid,
	}
}

func (m *PlanMapper) ToModel(p *entity.Plan) *model.Plan {
	if p == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if p.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *p.DeletedAt, Valid: true}
	} else if p.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	var metadata datatypes.JSON
	if p.Metadata != nil {
		if raw, err := json.Marshal(p.Metadata); err == nil {
			metadata = datatypes.JSON(raw)
		}
	}

	return &model.Plan{
		Id:           p.Id,
		Title:        p.Title,
		Content:      p.Content,
		DocumentType: p.DocumentType,
		Metadata:     metadata,
		UserId:       p.UserId,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}

func (m *PlanMapper) ToEntities(plans []*model.Plan) []*entity.Plan {
	entities := make([]*entity.Plan, len(plans))
	for i, p := range plans {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
