package controller

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func paramID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name+" ID")
	}
	return id, nil
}

func requestingUser(ctx *fiber.Ctx) (entity.RequestingUser, error) {
	user, ok := serverutils.RequestingUser(ctx)
	if !ok {
		return entity.RequestingUser{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return user, nil
}

// bindBody parses and validates a JSON body into req.
func bindBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return serverutils.ValidateRequest(req)
}
