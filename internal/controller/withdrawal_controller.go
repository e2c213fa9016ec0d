// FILE: internal/controller/withdrawal_controller.go
// Controller for withdrawal endpoints
package controller

import (
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/dto"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWithdrawalController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
}

type withdrawalController struct {
	withdrawalService service.IWithdrawalService
}

func NewWithdrawalController(withdrawalService service.IWithdrawalService) IWithdrawalController {
	return &withdrawalController{
		withdrawalService: withdrawalService,
	}
}

func (c *withdrawalController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	applications := api.Group("/applications", jwtMiddleware)
	applications.Get("/:id/withdrawables", c.GetWithdrawables)
	applications.Post("/:id/withdrawal", c.WithdrawApplication)

	api.Post("/placement-applications/:id/withdraw", jwtMiddleware, c.WithdrawPlacementApplication)
	api.Post("/placement-requests/:id/withdrawal", jwtMiddleware, c.WithdrawPlacementRequest)
	api.Post("/space-bookings/:id/withdrawal", jwtMiddleware, c.WithdrawSpaceBooking)
}

// GetWithdrawables lists what the caller may withdraw for an application
// @Summary List withdrawable elements
// @Tags Withdrawals
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.WithdrawablesResponse
// @Router /api/applications/{id}/withdrawables [get]
func (c *withdrawalController) GetWithdrawables(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "application")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.withdrawalService.GetWithdrawables(ctx.UserContext(), id, user)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Withdrawables retrieved", res))
}

// WithdrawApplication withdraws an application and everything beneath it
// @Summary Withdraw an application
// @Tags Withdrawals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.WithdrawApplicationRequest true "Withdrawal reason"
// @Success 200 {object} dto.WithdrawalResponse
// @Router /api/applications/{id}/withdrawal [post]
func (c *withdrawalController) WithdrawApplication(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "application")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.WithdrawApplicationRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.withdrawalService.WithdrawApplication(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Application withdrawn", res))
}

func (c *withdrawalController) WithdrawPlacementApplication(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "placement application")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.WithdrawPlacementRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.withdrawalService.WithdrawPlacementApplication(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Placement application withdrawn", res))
}

func (c *withdrawalController) WithdrawPlacementRequest(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "placement request")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.WithdrawPlacementRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.withdrawalService.WithdrawPlacementRequest(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Placement request withdrawn", res))
}

func (c *withdrawalController) WithdrawSpaceBooking(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "space booking")
	if err != nil {
		return err
	}
	user, err := requestingUser(ctx)
	if err != nil {
		return err
	}
	var req dto.WithdrawSpaceBookingRequest
	if err := bindBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.withdrawalService.WithdrawSpaceBooking(ctx.UserContext(), id, user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Space booking cancelled", res))
}
