package handler

import (
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	uc     notification.UseCase
	logger logger.ZapLogger
}

func NewNotificationHandler(uc notification.UseCase, log logger.ZapLogger) *NotificationHandler {
	return &NotificationHandler{
		uc:     uc,
		logger: log,
	}
}

// Register mounts the routes on r. Callers must be authenticated.
func (h *NotificationHandler) Register(r fiber.Router) {
	r.Get("/", h.List)
	r.Put("/read-all", h.MarkAllRead)
	r.Get("/unread/count", h.UnreadCount)
	r.Put("/:id/read", h.MarkRead)
	r.Delete("/:id", h.Delete)
	r.Delete("/", h.DeleteAll)
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())

	q := &dto.ListQuery{
		Limit:      c.QueryInt("limit", dto.DefaultListLimit),
		UnreadOnly: c.QueryBool("unreadOnly", false),
	}
	// An unparseable since is ignored.
	if raw := c.Query("since"); raw != "" {
		if since, err := time.Parse(time.RFC3339, raw); err == nil {
			q.Since = &since
		}
	}

	items, err := h.uc.ListNotifications(c.UserContext(), user, q)
	if err != nil {
		h.logger.Error("list notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}
	return c.JSON(fiber.Map{"notifications": items})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())
	if err := h.uc.MarkRead(c.UserContext(), user.UserID, c.Params("id")); err != nil {
		return h.ownerError(c, err, "You can only mark your own notifications as read", "Failed to mark notification as read")
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())
	if err := h.uc.MarkAllRead(c.UserContext(), user.UserID); err != nil {
		h.logger.Error("mark all notifications read", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark notifications as read"})
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())
	count, err := h.uc.UnreadCount(c.UserContext(), user.UserID)
	if err != nil {
		h.logger.Error("count unread notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get unread count"})
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())
	if err := h.uc.DeleteNotification(c.UserContext(), user.UserID, c.Params("id")); err != nil {
		return h.ownerError(c, err, "You can only delete your own notifications", "Failed to delete notification")
	}
	return c.JSON(fiber.Map{"message": "Notification deleted"})
}

func (h *NotificationHandler) DeleteAll(c *fiber.Ctx) error {
	user := auth.FromContext(c.UserContext())
	if err := h.uc.DeleteAll(c.UserContext(), user.UserID); err != nil {
		h.logger.Error("delete all notifications", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete notifications"})
	}
	return c.JSON(fiber.Map{"message": "All notifications deleted"})
}

func (h *NotificationHandler) ownerError(c *fiber.Ctx, err error, forbidden, internal string) error {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	case errors.Is(err, notification.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": forbidden})
	default:
		h.logger.Error(internal, zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internal})
	}
}
