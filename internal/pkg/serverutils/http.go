package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var validate = validator.New()

func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	}
}

// ValidateRequest runs struct-tag validation on a request DTO and maps
// failures to a 400 before the request reaches any service.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				"validation failed on field '"+verrs[0].Field()+"' ("+verrs[0].Tag()+")")
		}
		return fiber.NewError(fiber.StatusBadRequest, "invalid request payload")
	}
	return nil
}

// UserIdMiddleware resolves the calling user from the X-User-Id header
// and stores it in locals for handlers. Identity is trusted from the
// gateway in front of this service.
func UserIdMiddleware(ctx *fiber.Ctx) error {
	raw := ctx.Get("X-User-Id")
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing X-User-Id header")
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid X-User-Id header")
	}
	ctx.Locals("user_id", userId.String())
	return ctx.Next()
}

// UserIdFromLocals reads the user id stored by UserIdMiddleware.
func UserIdFromLocals(ctx *fiber.Ctx) uuid.UUID {
	raw, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(raw)
	return userId
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into a
// uniform JSON envelope. Non-fiber errors are reported as a generic 500 so
// internal failure detail never leaks to clients.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		return ctx.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
