package serverutils

import (
	"errors"
	"log"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/lock"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/pkg/withdrawal"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard error body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			res := ErrorResponse(fiber.StatusBadRequest, ve.Error())
			res.Errors = ve.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(res)
		}

		code := StatusCode(err)
		message := err.Error()
		if code == fiber.StatusInternalServerError {
			log.Printf("[ERROR] %s %s: %v", ctx.Method(), ctx.Path(), err)
			message = "Internal server error"
		}
		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}

// StatusCode maps a domain error to its HTTP status.
func StatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, service.ErrNotFound), errors.Is(err, withdrawal.ErrUnknownNode):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, withdrawal.ErrBlocked):
		return fiber.StatusBadRequest
	case errors.Is(err, withdrawal.ErrNotWithdrawable),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, lock.ErrLockHeld):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}
