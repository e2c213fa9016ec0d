package handler

import (
	"os"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/logger"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/pkg/serverutils"
	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/service"
	internalWS "github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const handlerModule = "NotificationHandler"

type NotificationHandler struct {
	service service.INotificationService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service service.INotificationService, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs upgrades an authenticated request to a websocket bound to the caller.
// Browsers cannot set headers on the upgrade, so the token may come as ?token=.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		h.logger.Warn(handlerModule, "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID format in token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(handlerModule, "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		h.hub.Attach(conn, userID)
		h.logger.Info(handlerModule, "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func callerID(c *fiber.Ctx) (uuid.UUID, error) {
	user, ok := serverutils.RequestingUser(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	return user.Id, nil
}

// GetNotifications returns one page of the caller's notifications.
func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	res, err := h.service.GetNotifications(c.UserContext(), userID, c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Notifications retrieved", res))
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse("Unread count retrieved", fiber.Map{"count": count}))
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid ID")
	}

	if err := h.service.MarkAsRead(c.UserContext(), id, userID); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("Notification marked as read", nil))
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return err
	}
	return c.JSON(serverutils.SuccessResponse[any]("All notifications marked as read", nil))
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notifications")
	notif.Use(serverutils.JwtMiddleware)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Patch("/read-all", h.MarkAllAsRead)
	notif.Patch("/:id/read", h.MarkAsRead)

	router.Get("/ws", h.ServeWs)
}
