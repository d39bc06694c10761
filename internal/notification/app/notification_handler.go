package app

import (
	"fmt"

	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// NotificationHandler 处理通知相关的 HTTP 请求
type NotificationHandler struct {
	Usecase NotificationUseCase
}

// NewNotificationHandler 创建新的 NotificationHandler
func NewNotificationHandler(usecase NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{Usecase: usecase}
}

func statusFromKind(err error) int {
	switch errprocess.KindOf(err) {
	case errprocess.KindValidation:
		return fiber.StatusBadRequest
	case errprocess.KindNotFound:
		return fiber.StatusNotFound
	case errprocess.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func callerID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("c.Locals(%s) is nil", middlewares.TokenMemberID)
	}
	return id, nil
}

// List 取用戶通知
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	notifications, err := h.Usecase.GetNotifications(c.Context(), caller)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// UnreadCount 未讀通知數
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	count, err := h.Usecase.UnreadCount(c.Context(), caller)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkRead 標記單筆已讀
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.MarkAsRead(c.Context(), caller, c.Params("notificationID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "read"})
}

// MarkAllRead 標記全部已讀
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.MarkAllAsRead(c.Context(), caller); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "all read"})
}
