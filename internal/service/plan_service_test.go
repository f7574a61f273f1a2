package service

import (
	"context"
	"errors"
	"testing"

	"fitcoach-be/internal/dto"
	"fitcoach-be/internal/entity"
	"fitcoach-be/internal/repository/specification"
	"fitcoach-be/pkg/queue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanRepo struct {
	plans map[uuid.UUID]*entity.Plan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[uuid.UUID]*entity.Plan)}
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *entity.Plan) error {
	copied := *plan
	r.plans[plan.Id] = &copied
	return nil
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *entity.Plan) error {
	copied := *plan
	r.plans[plan.Id] = &copied
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Plan, error) {
	for _, p := range r.plans {
		if matches(p, specs) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Plan, error) {
	var out []*entity.Plan
	for _, p := range r.plans {
		if matches(p, specs) {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func matches(p *entity.Plan, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if p.Id != spec.ID {
				return false
			}
		case specification.UserOwnedBy:
			if p.UserId != spec.UserId {
				return false
			}
		case specification.ByDocumentType:
			if p.DocumentType != spec.DocumentType {
				return false
			}
		}
	}
	return true
}

type recordingQueue struct {
	jobs []queue.IndexJob
	err  error
}

func (q *recordingQueue) Enqueue(ctx context.Context, job queue.IndexJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) Consume(ctx context.Context) (<-chan queue.Delivery, error) {
	return nil, errors.New("not consumable")
}

func (q *recordingQueue) Close() error { return nil }

func TestPlanCreate_EnqueuesEmbedJob(t *testing.T) {
	repo := newFakePlanRepo()
	q := &recordingQueue{}
	svc := NewPlanService(repo, q, &nopLogger{})
	userId := uuid.New()

	resp, err := svc.Create(context.Background(), userId, &dto.CreatePlanRequest{
		Title:        "Push Pull Legs",
		Content:      "Day 1: bench press...",
		DocumentType: "workout",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.Id)

	require.Len(t, q.jobs, 1)
	assert.Equal(t, queue.KindEmbed, q.jobs[0].Kind)
	assert.Equal(t, userId, q.jobs[0].UserId)
	assert.Equal(t, "workout", q.jobs[0].DocumentType)
	assert.Equal(t, "Day 1: bench press...", q.jobs[0].Payload)
}

func TestPlanCreate_EnqueueFailureDoesNotFailSave(t *testing.T) {
	repo := newFakePlanRepo()
	q := &recordingQueue{err: errors.New("broker down")}
	svc := NewPlanService(repo, q, &nopLogger{})

	resp, err := svc.Create(context.Background(), uuid.New(), &dto.CreatePlanRequest{
		Title:        "Cutting diet",
		Content:      "2000 kcal...",
		DocumentType: "nutrition",
	})
	require.NoError(t, err)
	assert.Len(t, repo.plans, 1)
	assert.NotEqual(t, uuid.Nil, resp.Id)
}

func TestPlanDelete_EnqueuesDeleteJob(t *testing.T) {
	repo := newFakePlanRepo()
	q := &recordingQueue{}
	svc := NewPlanService(repo, q, &nopLogger{})
	userId := uuid.New()

	resp, err := svc.Create(context.Background(), userId, &dto.CreatePlanRequest{
		Title:        "Cutting diet",
		Content:      "2000 kcal...",
		DocumentType: "nutrition",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), userId, &dto.DeletePlanRequest{
		Id:           resp.Id,
		DocumentType: "nutrition",
	})
	require.NoError(t, err)
	assert.Empty(t, repo.plans)

	require.Len(t, q.jobs, 2)
	assert.Equal(t, queue.KindDelete, q.jobs[1].Kind)
	assert.Equal(t, userId, q.jobs[1].UserId)
}

func TestPlanDelete_OtherUsersPlanIsNotFound(t *testing.T) {
	repo := newFakePlanRepo()
	q := &recordingQueue{}
	svc := NewPlanService(repo, q, &nopLogger{})

	owner := uuid.New()
	resp, err := svc.Create(context.Background(), owner, &dto.CreatePlanRequest{
		Title:        "PPL",
		Content:      "Day 1...",
		DocumentType: "workout",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), uuid.New(), &dto.DeletePlanRequest{
		Id:           resp.Id,
		DocumentType: "workout",
	})
	require.Error(t, err)
	assert.Len(t, repo.plans, 1)
}

func TestPlanList_FiltersByDocumentType(t *testing.T) {
	repo := newFakePlanRepo()
	q := &recordingQueue{}
	svc := NewPlanService(repo, q, &nopLogger{})
	userId := uuid.New()

	for _, docType := range []string{"workout", "nutrition"} {
		_, err := svc.Create(context.Background(), userId, &dto.CreatePlanRequest{
			Title:        docType + " plan",
			Content:      "...",
			DocumentType: docType,
		})
		require.NoError(t, err)
	}

	plans, err := svc.List(context.Background(), userId, "workout")
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "workout plan", plans[0].Title)
}
