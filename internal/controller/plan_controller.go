package controller

import (
	"fitcoach-be/internal/dto"
	"fitcoach-be/internal/pkg/serverutils"
	"fitcoach-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPlanController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
}

type planController struct {
	planService      service.IPlanService
	retrievalService service.IRetrievalService
}

func NewPlanController(planService service.IPlanService, retrievalService service.IRetrievalService) IPlanController {
	return &planController{
		planService:      planService,
		retrievalService: retrievalService,
	}
}

func (c *planController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/plan/v1")
	h.Use(serverutils.UserIdMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Post("ask", c.Ask)
	h.Get(":id", c.Show)
	h.Delete("", c.Delete)
}

func (c *planController) Create(ctx *fiber.Ctx) error {
	userId := serverutils.UserIdFromLocals(ctx)

	var req dto.CreatePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.planService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create plan", res))
}

func (c *planController) Show(ctx *fiber.Ctx) error {
	userId := serverutils.UserIdFromLocals(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid plan id")
	}

	res, err := c.planService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show plan", res))
}

func (c *planController) List(ctx *fiber.Ctx) error {
	userId := serverutils.UserIdFromLocals(ctx)
	documentType := ctx.Query("document_type")

	res, err := c.planService.List(ctx.Context(), userId, documentType)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list plans", res))
}

func (c *planController) Delete(ctx *fiber.Ctx) error {
	userId := serverutils.UserIdFromLocals(ctx)

	var req dto.DeletePlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.planService.Delete(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete plan", nil))
}

// Ask answers a question over the user's indexed plans. Always replies
// 200: when nothing relevant is indexed the response carries
// had_context=false instead of an error status.
func (c *planController) Ask(ctx *fiber.Ctx) error {
	userId := serverutils.UserIdFromLocals(ctx)

	var req dto.AskPlanRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.retrievalService.Ask(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}
