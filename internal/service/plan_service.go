package service

import (
	"context"
	"fmt"
	"time"

	"fitcoach-be/internal/dto"
	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/pkg/logger"
	"fitcoach-be/internal/repository/contract"
	"fitcoach-be/internal/repository/specification"
	"fitcoach-be/pkg/queue"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlanService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePlanRequest) (*dto.CreatePlanResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowPlanResponse, error)
	List(ctx context.Context, userId uuid.UUID, documentType string) ([]*dto.ShowPlanResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, req *dto.DeletePlanRequest) error
}

type planService struct {
	plans  contract.PlanRepository
	jobs   queue.Queue
	logger logger.ILogger
}

func NewPlanService(plans contract.PlanRepository, jobs queue.Queue, log logger.ILogger) IPlanService {
	return &planService{
		plans:  plans,
		jobs:   jobs,
		logger: log,
	}
}

// Create persists the plan, then enqueues an Embed job so the document
// becomes searchable. Indexing is asynchronous: the plan may not be
// retrievable immediately after this returns. A failed enqueue is
// logged but does not fail the save.
func (s *planService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreatePlanRequest) (*dto.CreatePlanResponse, error) {
	plan := entity.Plan{
		Id:           uuid.New(),
		Title:        req.Title,
		Content:      req.Content,
		DocumentType: req.DocumentType,
		Metadata:     req.Metadata,
		UserId:       userId,
		CreatedAt:    time.Now(),
	}

	if err := s.plans.Create(ctx, &plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.enqueue(ctx, queue.IndexJob{
		Kind:         queue.KindEmbed,
		UserId:       userId,
		DocumentType: plan.DocumentType,
		Payload:      plan.Content,
		EnqueuedAt:   time.Now(),
	})

	return &dto.CreatePlanResponse{Id: plan.Id}, nil
}

func (s *planService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowPlanResponse, error) {
	plan, err := s.plans.FindOne(ctx,
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserId: userId},
	)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "plan not found")
	}
	return toShowPlanResponse(plan), nil
}

func (s *planService) List(ctx context.Context, userId uuid.UUID, documentType string) ([]*dto.ShowPlanResponse, error) {
	specs := []specification.Specification{
		specification.UserOwnedBy{UserId: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if documentType != "" {
		specs = append(specs, specification.ByDocumentType{DocumentType: documentType})
	}

	plans, err := s.plans.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ShowPlanResponse, len(plans))
	for i, p := range plans {
		out[i] = toShowPlanResponse(p)
	}
	return out, nil
}

// Delete removes the plan row and enqueues a Delete job that clears the
// user's vectors for that document type.
func (s *planService) Delete(ctx context.Context, userId uuid.UUID, req *dto.DeletePlanRequest) error {
	plan, err := s.plans.FindOne(ctx,
		specification.ByID{ID: req.Id},
		specification.UserOwnedBy{UserId: userId},
	)
	if err != nil {
		return err
	}
	if plan == nil {
		return fiber.NewError(fiber.StatusNotFound, "plan not found")
	}

	if err := s.plans.Delete(ctx, plan.Id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	s.enqueue(ctx, queue.IndexJob{
		Kind:         queue.KindDelete,
		UserId:       userId,
		DocumentType: req.DocumentType,
		EnqueuedAt:   time.Now(),
	})
	return nil
}

func (s *planService) enqueue(ctx context.Context, job queue.IndexJob) {
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		s.logger.Error("plan", "enqueue index job failed", map[string]interface{}{
			"kind":     string(job.Kind),
			"user_id":  job.UserId,
			"doc_type": job.DocumentType,
			"error":    err.Error(),
		})
	}
}

func toShowPlanResponse(p *entity.Plan) *dto.ShowPlanResponse {
	return &dto.ShowPlanResponse{
		Id:           p.Id,
		Title:        p.Title,
		Content:      p.Content,
		DocumentType: p.DocumentType,
		Metadata:     p.Metadata,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
