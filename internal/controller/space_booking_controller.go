package controller

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISpaceBookingController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
}

type spaceBookingController struct {
	spaceBookingService service.ISpaceBookingService
}

func NewSpaceBookingController(spaceBookingService service.ISpaceBookingService) ISpaceBookingController {
	return &spaceBookingController{spaceBookingService: spaceBookingService}
}

func (c *spaceBookingController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	bookings := api.Group("/space-bookings", jwtMiddleware)
	bookings.Post("/:id/arrival", c.RecordArrival)
	bookings.Post("/:id/non-arrival", c.RecordNonArrival)
}

// RecordArrival marks the person as arrived. An empty body records the current time.
func (c *spaceBookingController) RecordArrival(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "space booking")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.RecordArrivalRequest
	if len(ctx.Body()) > 0 {
		if err := bindBody(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.spaceBookingService.RecordArrival(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Arrival recorded", res))
}

func (c *spaceBookingController) RecordNonArrival(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "space booking")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.RecordNonArrivalRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.spaceBookingService.RecordNonArrival(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Non-arrival recorded", res))
}
